package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// DefaultPackageManager is used when nothing else selects a backend
const DefaultPackageManager = "portage"

// EnvPackageManager names the environment variable selecting the backend
const EnvPackageManager = "PACKAGE_MANAGER"

// DefaultLegacyFile is webapp-config's shell style configuration file
const DefaultLegacyFile = "/etc/vhosts/webapp-config"

// Sources lists where configuration is read from
type Sources struct {
	// File is an HCL config file. When empty, DefaultFile is used if present.
	File string
	// Legacy is a webapp-config style KEY="value" file, optional
	Legacy string
	// Variables are exposed as var.<name> in HCL expressions
	Variables map[string]string
}

// Load reads the HCL file and the legacy file. Values from the HCL file
// take precedence.
func Load(src Sources) (*Config, error) {
	cfg := &Config{}

	path := src.File
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		p := NewParser()
		for k, v := range src.Variables {
			p.SetVariable(k, v)
		}
		parsed, diags := p.ParseFile(path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse %s: %s", path, diags.Error())
		}
		cfg = parsed
	}

	if src.Legacy != "" {
		legacy, err := LoadLegacy(src.Legacy)
		if err != nil {
			return nil, err
		}
		cfg.Merge(legacy)
	}

	return cfg, nil
}

// LoadLegacy reads a webapp-config style configuration file with keys
// package_manager, cat, pn and pvr. A missing file yields an empty Config.
func LoadLegacy(path string) (*Config, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		Loose:                   true,
		SkipUnrecognizableLines: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	section := f.Section(ini.DefaultSection)
	value := func(key string) *string {
		if !section.HasKey(key) {
			return nil
		}
		v := strings.Trim(strings.TrimSpace(section.Key(key).String()), `"'`)
		if v == "" {
			return nil
		}
		return &v
	}

	cfg := &Config{PackageManager: value("package_manager")}
	cat, pn, pvr := value("cat"), value("pn"), value("pvr")
	if cat != nil || pn != nil || pvr != nil {
		cfg.Package = &PackageBlock{Category: cat, Name: pn, Version: pvr}
	}
	return cfg, nil
}

// ResolvePackageManager picks the backend name: the flag value, then the
// environment value, then the config file, then DefaultPackageManager.
func (c *Config) ResolvePackageManager(flag, env string) string {
	if flag != "" {
		return flag
	}
	if env != "" {
		return env
	}
	if c != nil && c.PackageManager != nil && *c.PackageManager != "" {
		return *c.PackageManager
	}
	return DefaultPackageManager
}
