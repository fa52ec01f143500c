// Package atom parses Gentoo package atoms such as "~app-admin/webapp-config-1.55"
// and compares package versions.
package atom

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrInvalid is returned for malformed atoms and versions
	ErrInvalid = errors.New("invalid atom")

	// ErrUnsupported is returned for valid atom syntax this package does not match on
	ErrUnsupported = errors.New("unsupported atom")
)

var (
	categoryRegexp = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9+_.-]*$`)
	nameRegexp     = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9+_-]*$`)
	slotRegexp     = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9+_.-]*$`)
)

// Operator is a version comparison operator prefix
type Operator string

const (
	OpNone         Operator = ""
	OpEqual        Operator = "="
	OpApproximate  Operator = "~"
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
)

// Atom is a parsed package dependency specification
type Atom struct {
	Operator Operator
	Category string
	Name     string
	Version  *Version
	Glob     bool
	Slot     string
	SubSlot  string
	Repo     string
}

// Parse parses an atom string
func Parse(s string) (*Atom, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty atom", ErrInvalid)
	}
	if strings.HasPrefix(s, "!") {
		return nil, fmt.Errorf("%w: blocker %q", ErrUnsupported, s)
	}
	if strings.ContainsAny(s, "[]") {
		return nil, fmt.Errorf("%w: USE dependency in %q", ErrUnsupported, s)
	}

	a := &Atom{}
	rest := s

	if i := strings.Index(rest, "::"); i >= 0 {
		a.Repo = rest[i+2:]
		rest = rest[:i]
		if !nameRegexp.MatchString(a.Repo) {
			return nil, fmt.Errorf("%w: bad repository in %q", ErrInvalid, s)
		}
	}

	if i := strings.Index(rest, ":"); i >= 0 {
		slot := rest[i+1:]
		rest = rest[:i]
		if j := strings.Index(slot, "/"); j >= 0 {
			a.SubSlot = slot[j+1:]
			slot = slot[:j]
			if !slotRegexp.MatchString(a.SubSlot) {
				return nil, fmt.Errorf("%w: bad sub-slot in %q", ErrInvalid, s)
			}
		}
		if !slotRegexp.MatchString(slot) {
			return nil, fmt.Errorf("%w: bad slot in %q", ErrInvalid, s)
		}
		a.Slot = slot
	}

	for _, op := range []Operator{OpGreaterEqual, OpLessEqual, OpEqual, OpApproximate, OpGreater, OpLess} {
		if strings.HasPrefix(rest, string(op)) {
			a.Operator = op
			rest = rest[len(op):]
			break
		}
	}

	if strings.HasSuffix(rest, "*") {
		if a.Operator != OpEqual {
			return nil, fmt.Errorf("%w: '*' is only valid with '=' in %q", ErrInvalid, s)
		}
		a.Glob = true
		rest = strings.TrimSuffix(rest, "*")
	}

	if i := strings.Index(rest, "/"); i >= 0 {
		a.Category = rest[:i]
		rest = rest[i+1:]
		if !categoryRegexp.MatchString(a.Category) {
			return nil, fmt.Errorf("%w: bad category in %q", ErrInvalid, s)
		}
	}

	if a.Operator == OpNone {
		if _, _, ok := SplitPF(rest); ok {
			return nil, fmt.Errorf("%w: version without operator in %q", ErrInvalid, s)
		}
		if !nameRegexp.MatchString(rest) {
			return nil, fmt.Errorf("%w: bad package name in %q", ErrInvalid, s)
		}
		a.Name = rest
		return a, nil
	}

	name, ver, ok := SplitPF(rest)
	if !ok {
		return nil, fmt.Errorf("%w: operator %q requires a version in %q", ErrInvalid, a.Operator, s)
	}
	v, err := ParseVersion(ver)
	if err != nil {
		return nil, err
	}
	a.Name = name
	a.Version = v
	return a, nil
}

// SplitPF splits "name-version" into its package name and version
func SplitPF(pf string) (name, version string, ok bool) {
	for i := 0; i < len(pf); i++ {
		if pf[i] != '-' {
			continue
		}
		n, v := pf[:i], pf[i+1:]
		if nameRegexp.MatchString(n) && IsVersion(v) {
			return n, v, true
		}
	}
	return "", "", false
}

// Join returns "category/name", or just name when the category is unknown
func Join(category *string, name string) string {
	if category == nil || *category == "" {
		return name
	}
	return *category + "/" + name
}

// CP returns the category/name pair of the atom
func (a *Atom) CP() string {
	if a.Category == "" {
		return a.Name
	}
	return a.Category + "/" + a.Name
}

// String reassembles the atom
func (a *Atom) String() string {
	var sb strings.Builder
	sb.WriteString(string(a.Operator))
	sb.WriteString(a.CP())
	if a.Version != nil {
		sb.WriteString("-")
		sb.WriteString(a.Version.String())
	}
	if a.Glob {
		sb.WriteString("*")
	}
	if a.Slot != "" {
		sb.WriteString(":" + a.Slot)
		if a.SubSlot != "" {
			sb.WriteString("/" + a.SubSlot)
		}
	}
	if a.Repo != "" {
		sb.WriteString("::" + a.Repo)
	}
	return sb.String()
}

// Matches reports whether a package with the given category, name and
// version satisfies the atom. Slot and repository are not considered.
func (a *Atom) Matches(category, name, version string) bool {
	if a.Category != "" && a.Category != category {
		return false
	}
	if a.Name != name {
		return false
	}
	return a.MatchesVersion(version)
}

// MatchesVersion reports whether version satisfies the version restriction
func (a *Atom) MatchesVersion(version string) bool {
	if a.Operator == OpNone {
		return true
	}

	v, err := ParseVersion(version)
	if err != nil {
		return false
	}

	switch a.Operator {
	case OpEqual:
		if a.Glob {
			return strings.HasPrefix(v.String(), a.Version.String())
		}
		return v.Compare(a.Version) == 0
	case OpApproximate:
		return v.compareBase(a.Version) == 0
	case OpGreater:
		return v.Compare(a.Version) > 0
	case OpGreaterEqual:
		return v.Compare(a.Version) >= 0
	case OpLess:
		return v.Compare(a.Version) < 0
	case OpLessEqual:
		return v.Compare(a.Version) <= 0
	}
	return false
}

// MatchesSlot reports whether the slot restriction is satisfied. An empty
// installed slot is treated as "0".
func (a *Atom) MatchesSlot(slot, subSlot string) bool {
	if a.Slot == "" {
		return true
	}
	if slot == "" {
		slot = "0"
	}
	if a.Slot != slot {
		return false
	}
	return a.SubSlot == "" || a.SubSlot == subSlot
}
