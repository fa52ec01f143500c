package cli

import (
	"github.com/spf13/cobra"
)

// NewInstalledCmd creates the installed command
func NewInstalledCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "installed SPEC",
		Short: "List installed packages matching a package spec",
		Long: `The installed command prints every installed CAT/PF matching SPEC,
for example '~app-admin/webapp-config-1.55' or 'phpmyadmin'.

It exits with status 1 when nothing matches.`,
		Args: cobra.ExactArgs(1),
		RunE: runInstalled,
	}
}

type installedOutput struct {
	Spec      string   `json:"spec" yaml:"spec"`
	Installed []string `json:"installed" yaml:"installed"`
}

func runInstalled(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	installed, err := s.backend.PackageInstalled(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := installedOutput{Spec: args[0], Installed: []string(installed)}
	if out.Installed == nil {
		out.Installed = []string{}
	}
	if err := s.printer.Print(s.format, out, out.Installed...); err != nil {
		return err
	}
	if !installed.Any() {
		return errNotInstalled
	}
	return nil
}
