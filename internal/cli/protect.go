package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewProtectCmd creates the protect command
func NewProtectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "protect [[CAT/]PN [PVR]]",
		Short: "Print the configuration protected paths",
		Long: `The protect command prints CONFIG_PROTECT for a package. Portage
answers globally; paludis answers for the installed package, so the
package name is required there.

Without arguments the package from the config file is used.`,
		Args: cobra.MaximumNArgs(2),
		RunE: runProtect,
	}
}

type protectOutput struct {
	ConfigProtect []string `json:"config_protect" yaml:"config_protect"`
}

func runProtect(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	pkg, err := s.target(args)
	if err != nil {
		return err
	}

	paths, err := s.backend.ConfigProtect(cmd.Context(), pkg)
	if err != nil {
		return err
	}
	if paths == nil {
		paths = []string{}
	}
	return s.printer.Print(s.format, protectOutput{ConfigProtect: paths}, strings.Join(paths, " "))
}
