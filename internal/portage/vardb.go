package portage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/z0mbix/pmbridge/internal/atom"
)

// AmbiguousPackageError is returned when an atom without a category names a
// package that is installed in more than one category.
type AmbiguousPackageError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguousPackageError) Error() string {
	return fmt.Sprintf("ambiguous package name %q: %s", e.Name, strings.Join(e.Candidates, ", "))
}

// VarDB is the installed package database below ${ROOT}var/db/pkg
type VarDB struct {
	dir string
}

// NewVarDB opens the installed package database for root
func NewVarDB(root string) *VarDB {
	return &VarDB{dir: filepath.Join(root, "var/db/pkg")}
}

type installed struct {
	category string
	name     string
	version  *atom.Version
	pf       string
}

// Match returns the installed "category/name-version" entries matching
// spec, oldest version first.
func (db *VarDB) Match(spec string) ([]string, error) {
	a, err := atom.Parse(spec)
	if err != nil {
		return nil, err
	}

	categories := []string{a.Category}
	if a.Category == "" {
		categories, err = db.categoriesOf(a.Name)
		if err != nil {
			return nil, err
		}
		if len(categories) > 1 {
			candidates := make([]string, len(categories))
			for i, c := range categories {
				candidates[i] = c + "/" + a.Name
			}
			return nil, &AmbiguousPackageError{Name: a.Name, Candidates: candidates}
		}
	}

	var matches []installed
	for _, cat := range categories {
		pkgs, err := db.packages(cat)
		if err != nil {
			return nil, err
		}
		for _, p := range pkgs {
			if !a.Matches(p.category, p.name, p.version.String()) {
				continue
			}
			if a.Slot != "" {
				slot, subSlot := db.slot(p)
				if !a.MatchesSlot(slot, subSlot) {
					continue
				}
			}
			if a.Repo != "" && a.Repo != "installed" && db.repository(p) != a.Repo {
				continue
			}
			matches = append(matches, p)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].category != matches[j].category {
			return matches[i].category < matches[j].category
		}
		return matches[i].version.Compare(matches[j].version) < 0
	})

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.category + "/" + m.pf
	}
	return out, nil
}

// Categories lists the categories present in the database
func (db *VarDB) Categories() ([]string, error) {
	entries, err := os.ReadDir(db.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", db.dir, err)
	}

	var cats []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			cats = append(cats, e.Name())
		}
	}
	sort.Strings(cats)
	return cats, nil
}

func (db *VarDB) categoriesOf(name string) ([]string, error) {
	cats, err := db.Categories()
	if err != nil {
		return nil, err
	}

	var found []string
	for _, cat := range cats {
		pkgs, err := db.packages(cat)
		if err != nil {
			return nil, err
		}
		for _, p := range pkgs {
			if p.name == name {
				found = append(found, cat)
				break
			}
		}
	}
	return found, nil
}

func (db *VarDB) packages(category string) ([]installed, error) {
	dir := filepath.Join(db.dir, category)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var pkgs []installed
	for _, e := range entries {
		pf := e.Name()
		// in-progress merges leave -MERGING- directories behind
		if !e.IsDir() || strings.HasPrefix(pf, ".") || strings.HasPrefix(pf, "-MERGING-") {
			continue
		}
		name, ver, ok := atom.SplitPF(pf)
		if !ok {
			continue
		}
		v, err := atom.ParseVersion(ver)
		if err != nil {
			continue
		}
		pkgs = append(pkgs, installed{category: category, name: name, version: v, pf: pf})
	}
	return pkgs, nil
}

func (db *VarDB) slot(p installed) (string, string) {
	slot := db.readField(p, "SLOT")
	if i := strings.Index(slot, "/"); i >= 0 {
		return slot[:i], slot[i+1:]
	}
	return slot, ""
}

func (db *VarDB) repository(p installed) string {
	return db.readField(p, "repository")
}

func (db *VarDB) readField(p installed, field string) string {
	data, err := os.ReadFile(filepath.Join(db.dir, p.category, p.pf, field))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
