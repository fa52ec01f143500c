package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/z0mbix/pmbridge/internal/bridge"
	"github.com/z0mbix/pmbridge/internal/config"
)

// NewValidateCmd creates the validate command
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Long: `The validate command checks the HCL syntax, the legacy
configuration file and the package manager name without querying
the package manager.`,
		Args: cobra.NoArgs,
		RunE: runValidate,
	}

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	vars, err := parseVariables(variables)
	if err != nil {
		return err
	}

	cfg, err := config.Load(config.Sources{File: configPath, Legacy: legacyPath, Variables: vars})
	if err != nil {
		return err
	}

	name := cfg.ResolvePackageManager(packageManager, os.Getenv(config.EnvPackageManager))
	if _, err := bridge.ParseSelector(name); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid.")
	return nil
}
