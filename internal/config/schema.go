package config

import (
	"github.com/z0mbix/pmbridge/internal/bridge"
)

// Config represents the top-level configuration structure
type Config struct {
	PackageManager *string       `hcl:"package_manager,optional"`
	Package        *PackageBlock `hcl:"package,block"`
	Portage        *PortageBlock `hcl:"portage,block"`
	Paludis        *PaludisBlock `hcl:"paludis,block"`
}

// PackageBlock identifies the package being deployed
type PackageBlock struct {
	Category *string `hcl:"category,optional"`
	Name     *string `hcl:"name,optional"`
	Version  *string `hcl:"version,optional"`
}

// PortageBlock holds portage backend settings
type PortageBlock struct {
	ConfigRoot *string `hcl:"config_root,optional"`
}

// PaludisBlock holds paludis backend settings
type PaludisBlock struct {
	Command *string `hcl:"command,optional"`
}

// Target returns the configured package. Empty values count as unknown.
func (c *Config) Target() bridge.Package {
	if c == nil || c.Package == nil {
		return bridge.Package{}
	}
	return bridge.NewPackage(deref(c.Package.Category), deref(c.Package.Name), deref(c.Package.Version))
}

// ConfigRoot returns the portage configuration root, empty if unset
func (c *Config) ConfigRoot() string {
	if c == nil || c.Portage == nil {
		return ""
	}
	return deref(c.Portage.ConfigRoot)
}

// CaveCommand returns the configured cave executable, empty if unset
func (c *Config) CaveCommand() string {
	if c == nil || c.Paludis == nil {
		return ""
	}
	return deref(c.Paludis.Command)
}

// Merge fills fields unset in c from other
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if c.PackageManager == nil {
		c.PackageManager = other.PackageManager
	}
	if other.Package != nil {
		if c.Package == nil {
			c.Package = &PackageBlock{}
		}
		if c.Package.Category == nil {
			c.Package.Category = other.Package.Category
		}
		if c.Package.Name == nil {
			c.Package.Name = other.Package.Name
		}
		if c.Package.Version == nil {
			c.Package.Version = other.Package.Version
		}
	}
	if c.Portage == nil {
		c.Portage = other.Portage
	}
	if c.Paludis == nil {
		c.Paludis = other.Paludis
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
