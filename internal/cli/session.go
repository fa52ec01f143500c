package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/z0mbix/pmbridge/internal/bridge"
	"github.com/z0mbix/pmbridge/internal/config"
	"github.com/z0mbix/pmbridge/internal/logging"
	"github.com/z0mbix/pmbridge/internal/portage"
	"github.com/z0mbix/pmbridge/internal/report"
)

// Package reported on when nothing else is configured
const (
	defaultCategory = "app-admin"
	defaultName     = "webapp-config"
	defaultVersion  = "1.55"
)

// session holds what every query command needs
type session struct {
	cfg     *config.Config
	logger  zerolog.Logger
	printer *report.Printer
	format  report.Format
	backend bridge.Backend
}

// newSession loads configuration from the global flags and creates the
// selected backend
func newSession(cmd *cobra.Command) (*session, error) {
	format, err := report.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}

	vars, err := parseVariables(variables)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(config.Sources{
		File:      configPath,
		Legacy:    legacyPath,
		Variables: vars,
	})
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger(cmd.ErrOrStderr(), debug, noColor)

	name := cfg.ResolvePackageManager(packageManager, os.Getenv(config.EnvPackageManager))
	backend, err := bridge.New(name, bridge.Options{
		Logger:      logger,
		Portage:     portage.LoadOptions{ConfigRoot: cfg.ConfigRoot()},
		CaveCommand: cfg.CaveCommand(),
	})
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("backend", name).Msg("selected package manager")

	return &session{
		cfg:     cfg,
		logger:  logger,
		printer: report.NewPrinter(cmd.OutOrStdout(), useColors(cmd)),
		format:  format,
		backend: backend,
	}, nil
}

// target returns the package named on the command line as [CAT/]PN [PVR],
// or the configured package when args is empty
func (s *session) target(args []string) (bridge.Package, error) {
	if len(args) == 0 {
		return s.cfg.Target(), nil
	}
	return parsePackageArgs(args)
}

func parsePackageArgs(args []string) (bridge.Package, error) {
	var category, name, pvr string

	name = args[0]
	if i := strings.Index(name, "/"); i >= 0 {
		category, name = name[:i], name[i+1:]
		if category == "" || strings.Contains(name, "/") {
			return bridge.Package{}, fmt.Errorf("invalid package name: %s", args[0])
		}
	}
	if name == "" {
		return bridge.Package{}, bridge.ErrNameRequired
	}
	if len(args) > 1 {
		pvr = args[1]
	}
	return bridge.NewPackage(category, name, pvr), nil
}

// reportTarget fills fields missing from the configured package with the
// webapp-config defaults
func reportTarget(pkg bridge.Package) bridge.Package {
	if !pkg.HasCategory() {
		c := defaultCategory
		pkg.Category = &c
	}
	if !pkg.HasName() {
		n := defaultName
		pkg.Name = &n
	}
	if pkg.Version == nil || *pkg.Version == "" {
		v := defaultVersion
		pkg.Version = &v
	}
	return pkg
}

func useColors(cmd *cobra.Command) bool {
	if noColor {
		return false
	}
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && isTerminal(f)
}
