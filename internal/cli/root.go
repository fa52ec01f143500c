package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/z0mbix/pmbridge/internal/config"
	"github.com/z0mbix/pmbridge/internal/report"
)

var (
	configPath     string
	legacyPath     string
	variables      []string
	packageManager string
	outputFormat   string
	noColor        bool
	debug          bool

	// Version information (set by main)
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// errNotInstalled makes the installed command exit 1 without a message
var errNotInstalled = errors.New("no installed package matches")

// SetVersionInfo sets the version information from build-time variables
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pmbridge",
		Short: "Query portage or paludis on behalf of webapp-config",
		Long: `pmbridge answers the package manager questions webapp-config asks:
whether a package is installed, which paths are configuration protected,
and where the installation root is.

Run without a subcommand it prints a diagnostic report for
app-admin/webapp-config using the selected package manager.`,
		Args:          cobra.NoArgs,
		RunE:          runReport,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to config file (default: "+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().StringVar(&legacyPath, "legacy-config", config.DefaultLegacyFile,
		"webapp-config style configuration file")
	rootCmd.PersistentFlags().StringArrayVarP(&variables, "var", "e", nil,
		"Set a variable (key=value)")
	rootCmd.PersistentFlags().StringVarP(&packageManager, "package-manager", "p", "",
		"Package manager to query: portage or paludis (default: $"+config.EnvPackageManager+", then config, then portage)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "text",
		"Output format: text, json, or yaml")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Log commands run and files read")

	// Add subcommands
	rootCmd.AddCommand(NewInstalledCmd())
	rootCmd.AddCommand(NewProtectCmd())
	rootCmd.AddCommand(NewRootDirCmd())
	rootCmd.AddCommand(NewWantCategoryCmd())
	rootCmd.AddCommand(NewBackendsCmd())
	rootCmd.AddCommand(NewValidateCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "pmbridge %s\n", version)
			_, _ = fmt.Fprintf(out, "  commit: %s\n", commit)
			_, _ = fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}

// Execute runs the CLI
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errNotInstalled) {
			report.NewPrinter(os.Stderr, !noColor && isTerminal(os.Stderr)).PrintFatal(err)
		}
		os.Exit(1)
	}
}

// parseVariables parses key=value variable assignments
func parseVariables(vars []string) (map[string]string, error) {
	result := make(map[string]string)
	for _, v := range vars {
		for i := 0; i < len(v); i++ {
			if v[i] == '=' {
				key := v[:i]
				value := v[i+1:]
				if key == "" {
					return nil, fmt.Errorf("invalid variable: %s", v)
				}
				result[key] = value
				break
			}
		}
	}
	return result, nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
