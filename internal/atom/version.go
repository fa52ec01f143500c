package atom

import (
	"fmt"
	"regexp"
	"strings"
)

var versionRegexp = regexp.MustCompile(`^(\d+(?:\.\d+)*)([a-z]?)((?:_(?:alpha|beta|pre|rc|p)\d*)*)(?:-r(\d+))?$`)

var suffixRegexp = regexp.MustCompile(`_(alpha|beta|pre|rc|p)(\d*)`)

// suffix ordering: _alpha < _beta < _pre < _rc < (none) < _p
var suffixRank = map[string]int{
	"alpha": 0,
	"beta":  1,
	"pre":   2,
	"rc":    3,
	"p":     5,
}

const noSuffixRank = 4

type versionSuffix struct {
	kind string
	num  string
}

// Version is a parsed package version such as "1.55-r1" or "2.0_rc3".
type Version struct {
	raw      string
	numbers  []string
	letter   string
	suffixes []versionSuffix
	revision string
}

// ParseVersion parses a package version string
func ParseVersion(s string) (*Version, error) {
	m := versionRegexp.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("%w: invalid version %q", ErrInvalid, s)
	}

	v := &Version{
		raw:      s,
		numbers:  strings.Split(m[1], "."),
		letter:   m[2],
		revision: m[4],
	}
	for _, sm := range suffixRegexp.FindAllStringSubmatch(m[3], -1) {
		v.suffixes = append(v.suffixes, versionSuffix{kind: sm[1], num: sm[2]})
	}
	return v, nil
}

// IsVersion reports whether s is a syntactically valid version
func IsVersion(s string) bool {
	return versionRegexp.MatchString(s)
}

func (v *Version) String() string { return v.raw }

// Revision returns the revision number, "0" when the version has none.
func (v *Version) Revision() string {
	if v.revision == "" {
		return "0"
	}
	return v.revision
}

// WithoutRevision returns the version string with any -rN suffix removed
func (v *Version) WithoutRevision() string {
	if v.revision == "" {
		return v.raw
	}
	return strings.TrimSuffix(v.raw, "-r"+v.revision)
}

// Compare returns -1, 0 or 1 when v is older than, equal to or newer than o.
func (v *Version) Compare(o *Version) int {
	if c := v.compareBase(o); c != 0 {
		return c
	}
	return compareDigits(v.Revision(), o.Revision())
}

// compareBase compares everything but the revision
func (v *Version) compareBase(o *Version) int {
	if c := compareDigits(v.numbers[0], o.numbers[0]); c != 0 {
		return c
	}

	for i := 1; i < len(v.numbers) && i < len(o.numbers); i++ {
		if c := compareComponent(v.numbers[i], o.numbers[i]); c != 0 {
			return c
		}
	}
	if c := compareInt(len(v.numbers), len(o.numbers)); c != 0 {
		return c
	}

	if c := strings.Compare(v.letter, o.letter); c != 0 {
		return c
	}

	for i := 0; i < len(v.suffixes) && i < len(o.suffixes); i++ {
		a, b := v.suffixes[i], o.suffixes[i]
		if a.kind != b.kind {
			return compareInt(suffixRank[a.kind], suffixRank[b.kind])
		}
		if c := compareDigits(a.num, b.num); c != 0 {
			return c
		}
	}
	switch {
	case len(v.suffixes) > len(o.suffixes):
		return compareInt(suffixRank[v.suffixes[len(o.suffixes)].kind], noSuffixRank)
	case len(v.suffixes) < len(o.suffixes):
		return compareInt(noSuffixRank, suffixRank[o.suffixes[len(v.suffixes)].kind])
	}
	return 0
}

// CompareVersions parses and compares two version strings
func CompareVersions(a, b string) (int, error) {
	va, err := ParseVersion(a)
	if err != nil {
		return 0, err
	}
	vb, err := ParseVersion(b)
	if err != nil {
		return 0, err
	}
	return va.Compare(vb), nil
}

// compareComponent compares a non-leading numeric component. Components
// with a leading zero compare as strings with trailing zeros stripped.
func compareComponent(a, b string) int {
	if strings.HasPrefix(a, "0") || strings.HasPrefix(b, "0") {
		return strings.Compare(strings.TrimRight(a, "0"), strings.TrimRight(b, "0"))
	}
	return compareDigits(a, b)
}

// compareDigits compares two decimal strings of any length numerically.
// An empty string counts as zero.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if c := compareInt(len(a), len(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
