// Package bridge answers package manager queries for a deployment tool:
// whether a package is installed, which paths are configuration protected,
// and the installation root. Two backends exist, portage and paludis.
package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/z0mbix/pmbridge/internal/command"
	"github.com/z0mbix/pmbridge/internal/portage"
)

var (
	// ErrUnknownBackend is returned for a package manager name other than portage or paludis
	ErrUnknownBackend = errors.New("unknown package manager")

	// ErrBackendUnavailable is returned when the backend's data cannot be found on this host
	ErrBackendUnavailable = errors.New("package manager libraries not found")

	// ErrCategoryRequired is returned when a backend needs a category that was not given
	ErrCategoryRequired = errors.New("package name must be in the form CAT/PN")

	// ErrNameRequired is returned when a query needs a package name that was not given
	ErrNameRequired = errors.New("package name is required")
)

// Values used by the deployment tool when handling protected files
const (
	ProtectPrefix = "._cfg"
	UpdateCommand = "etc-update"
	BugsLink      = "http://bugs.gentoo.org/"
)

// Selector names a backend
type Selector string

const (
	Portage Selector = "portage"
	Paludis Selector = "paludis"
)

// Selectors lists every supported backend
var Selectors = []Selector{Portage, Paludis}

// ParseSelector validates a package manager name
func ParseSelector(name string) (Selector, error) {
	switch s := Selector(name); s {
	case Portage, Paludis:
		return s, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownBackend, name)
}

// Package identifies a package. Nil fields are unknown; Category in
// particular is missing from legacy records.
type Package struct {
	Category *string
	Name     *string
	Version  *string
}

// NewPackage builds a Package, treating empty strings as unknown
func NewPackage(category, name, version string) Package {
	return Package{
		Category: optional(category),
		Name:     optional(name),
		Version:  optional(version),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// HasCategory reports whether the category is known
func (p Package) HasCategory() bool { return p.Category != nil && *p.Category != "" }

// HasName reports whether the name is known
func (p Package) HasName() bool { return p.Name != nil && *p.Name != "" }

// Installed lists the installed packages matching a query
type Installed []string

// Any reports whether anything matched
func (i Installed) Any() bool { return len(i) > 0 }

// Backend is implemented by every package manager
type Backend interface {
	Name() Selector

	// ConfigProtect returns the paths that must not be overwritten during deployment
	ConfigProtect(ctx context.Context, pkg Package) ([]string, error)

	// Root returns the installation root
	Root(ctx context.Context, pkg Package) (string, error)

	// PackageInstalled returns the installed packages matching spec
	PackageInstalled(ctx context.Context, spec string) (Installed, error)

	// WantCategory checks that pkg carries every field the backend needs
	WantCategory(pkg Package) error
}

// Options configure backend construction
type Options struct {
	Logger zerolog.Logger

	// Runner executes external commands, a local ExecRunner when nil
	Runner command.Runner

	// Portage controls where portage settings are read from
	Portage portage.LoadOptions

	// CaveCommand overrides the cave executable
	CaveCommand string
}

// New creates the backend named by name
func New(name string, opts Options) (Backend, error) {
	sel, err := ParseSelector(name)
	if err != nil {
		return nil, err
	}

	switch sel {
	case Portage:
		return newPortageBackend(opts), nil
	case Paludis:
		return newPaludisBackend(opts), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
}
