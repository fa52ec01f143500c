package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/z0mbix/pmbridge/internal/config"
	"github.com/z0mbix/pmbridge/internal/facts"
	"github.com/z0mbix/pmbridge/internal/report"
)

// NewBackendsCmd creates the backends command
func NewBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the package managers usable on this host",
		Long: `The backends command reports the distribution, which package
managers are installed, and which one would be queried.`,
		Args: cobra.NoArgs,
		RunE: runBackends,
	}
}

// backendsOutput is a structured representation of host facts for serialization
type backendsOutput struct {
	OS        osOutput `json:"os" yaml:"os"`
	Available []string `json:"available" yaml:"available"`
	Selected  string   `json:"selected" yaml:"selected"`
}

type osOutput struct {
	Distribution        string `json:"distribution" yaml:"distribution"`
	DistributionVersion string `json:"distribution_version" yaml:"distribution_version"`
	Family              string `json:"family" yaml:"family"`
}

func toBackendsOutput(f *facts.Facts, selected string) backendsOutput {
	return backendsOutput{
		OS: osOutput{
			Distribution:        f.OS.Distribution,
			DistributionVersion: f.OS.DistributionVersion,
			Family:              f.OS.Family,
		},
		Available: f.Backends,
		Selected:  selected,
	}
}

func runBackends(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	vars, err := parseVariables(variables)
	if err != nil {
		return err
	}
	cfg, err := config.Load(config.Sources{File: configPath, Legacy: legacyPath, Variables: vars})
	if err != nil {
		return err
	}

	selected := cfg.ResolvePackageManager(packageManager, os.Getenv(config.EnvPackageManager))
	out := toBackendsOutput(facts.Gather(cfg.ConfigRoot()), selected)

	distribution := strings.TrimSpace(out.OS.Distribution + " " + out.OS.DistributionVersion)
	if distribution == "" {
		distribution = "unknown"
	}
	available := strings.Join(out.Available, " ")
	if available == "" {
		available = "none"
	}

	printer := report.NewPrinter(cmd.OutOrStdout(), useColors(cmd))
	return printer.Print(format, out,
		fmt.Sprintf("distribution : %s (%s)", distribution, out.OS.Family),
		fmt.Sprintf("available    : %s", available),
		fmt.Sprintf("selected     : %s", out.Selected),
	)
}
