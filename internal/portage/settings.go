// Package portage reads Portage's configuration and installed package
// database directly from disk.
package portage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no Portage installation can be found under
// the configuration root.
var ErrNotFound = errors.New("portage configuration not found")

// Variables that stack across configuration layers instead of overriding.
var incrementals = map[string]bool{
	"CONFIG_PROTECT":      true,
	"CONFIG_PROTECT_MASK": true,
}

// LoadOptions control where settings are read from
type LoadOptions struct {
	// ConfigRoot is PORTAGE_CONFIGROOT. Empty means the environment value or "/".
	ConfigRoot string
	// Environ is the process environment layer, os.Environ() when nil.
	Environ []string
}

// Settings is the merged view over make.globals, the profile make.defaults
// files, profile.env, make.conf and the environment.
type Settings struct {
	configRoot string
	root       string
	layers     []layer
	files      []string
}

type layer struct {
	name string
	vars map[string]string
}

// LoadSettings reads all configuration layers
func LoadSettings(opts LoadOptions) (*Settings, error) {
	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}
	env := parseEnviron(environ)

	configRoot := opts.ConfigRoot
	if configRoot == "" {
		configRoot = env["PORTAGE_CONFIGROOT"]
	}
	configRoot = normalizeRoot(configRoot)

	s := &Settings{configRoot: configRoot}

	globalsPath, err := GlobalsPath(configRoot)
	if err != nil {
		return nil, err
	}
	globals, err := ParseConfigFile(globalsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", globalsPath, err)
	}
	s.files = append(s.files, globalsPath)

	profiles, err := ProfileDirs(configRoot)
	if err != nil {
		return nil, err
	}
	// make.defaults may reference what globals and parent profiles set
	expand := make(map[string]string, len(globals))
	for k, v := range globals {
		expand[k] = v
	}
	var defaults []layer
	for _, dir := range profiles {
		path := filepath.Join(dir, "make.defaults")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		vars, err := ParseConfigFile(path, expand)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		for k, v := range vars {
			expand[k] = v
		}
		defaults = append(defaults, layer{name: "defaults", vars: vars})
		s.files = append(s.files, path)
	}

	var makeConf map[string]string
	var makeConfPath string
	if path, err := firstExisting(
		filepath.Join(configRoot, "etc/portage/make.conf"),
		filepath.Join(configRoot, "etc/make.conf"),
	); err == nil {
		makeConf, err = ParseConfigFile(path, expand)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		makeConfPath = path
	}

	// ROOT decides where profile.env lives, so it is resolved before that layer
	root := expand["ROOT"]
	if v, ok := makeConf["ROOT"]; ok {
		root = v
	}
	if v, ok := env["ROOT"]; ok {
		root = v
	}
	s.root = normalizeRoot(root)

	s.layers = append(s.layers, layer{name: "globals", vars: globals})
	s.layers = append(s.layers, defaults...)

	profileEnv := filepath.Join(s.root, "etc/profile.env")
	if _, err := os.Stat(profileEnv); err == nil {
		vars, err := ParseConfigFile(profileEnv, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", profileEnv, err)
		}
		s.layers = append(s.layers, layer{name: "env.d", vars: vars})
		s.files = append(s.files, profileEnv)
	}

	if makeConf != nil {
		s.layers = append(s.layers, layer{name: "conf", vars: makeConf})
		s.files = append(s.files, makeConfPath)
	}
	s.layers = append(s.layers, layer{name: "env", vars: env})

	return s, nil
}

// Get returns the effective value of a variable
func (s *Settings) Get(key string) string {
	if key == "ROOT" {
		return s.root
	}
	if incrementals[key] {
		return strings.Join(s.incremental(key), " ")
	}
	for i := len(s.layers) - 1; i >= 0; i-- {
		if v, ok := s.layers[i].vars[key]; ok {
			return v
		}
	}
	return ""
}

// ConfigProtect returns the configuration-protected paths
func (s *Settings) ConfigProtect() []string {
	return s.incremental("CONFIG_PROTECT")
}

// ConfigProtectMask returns paths exempted from configuration protection
func (s *Settings) ConfigProtectMask() []string {
	return s.incremental("CONFIG_PROTECT_MASK")
}

// Root returns the installation root, always ending in "/"
func (s *Settings) Root() string { return s.root }

// ConfigRoot returns PORTAGE_CONFIGROOT, always ending in "/"
func (s *Settings) ConfigRoot() string { return s.configRoot }

// Files lists the settings files that were read, lowest layer first
func (s *Settings) Files() []string { return s.files }

// incremental stacks the tokens of key over all layers. "-*" drops
// everything seen so far and "-token" drops one token.
func (s *Settings) incremental(key string) []string {
	var tokens []string
	for _, l := range s.layers {
		v, ok := l.vars[key]
		if !ok {
			continue
		}
		for _, tok := range strings.Fields(v) {
			switch {
			case tok == "-*":
				tokens = nil
			case strings.HasPrefix(tok, "-"):
				tokens = remove(tokens, tok[1:])
			default:
				tokens = append(remove(tokens, tok), tok)
			}
		}
	}
	return tokens
}

func remove(tokens []string, tok string) []string {
	out := tokens[:0]
	for _, t := range tokens {
		if t != tok {
			out = append(out, t)
		}
	}
	return out
}

func parseEnviron(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, e := range environ {
		parts := strings.SplitN(e, "=", 2)
		if len(parts) == 2 {
			env[parts[0]] = parts[1]
		}
	}
	return env
}

func normalizeRoot(root string) string {
	if strings.TrimSpace(root) == "" {
		return "/"
	}
	root = filepath.Clean(root)
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}
	return root
}

// GlobalsPath locates make.globals under configRoot. It returns ErrNotFound
// when portage is not installed there.
func GlobalsPath(configRoot string) (string, error) {
	configRoot = normalizeRoot(configRoot)
	path, err := firstExisting(
		filepath.Join(configRoot, "usr/share/portage/config/make.globals"),
		filepath.Join(configRoot, "etc/make.globals"),
	)
	if err != nil {
		return "", fmt.Errorf("%w under %s", ErrNotFound, configRoot)
	}
	return path, nil
}

func firstExisting(paths ...string) (string, error) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", os.ErrNotExist
}
