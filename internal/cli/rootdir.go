package cli

import (
	"github.com/spf13/cobra"
)

// NewRootDirCmd creates the root command, which prints the install root
func NewRootDirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "root [[CAT/]PN [PVR]]",
		Short: "Print the installation root",
		Args:  cobra.MaximumNArgs(2),
		RunE:  runRootDir,
	}
}

type rootOutput struct {
	Root string `json:"root" yaml:"root"`
}

func runRootDir(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	pkg, err := s.target(args)
	if err != nil {
		return err
	}

	root, err := s.backend.Root(cmd.Context(), pkg)
	if err != nil {
		return err
	}
	return s.printer.Print(s.format, rootOutput{Root: root}, root)
}
