package cli

import (
	"github.com/spf13/cobra"
)

// NewWantCategoryCmd creates the want-category command
func NewWantCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "want-category [[CAT/]PN [PVR]]",
		Short: "Check that the package names a category when the backend needs one",
		Long: `The want-category command fails when the selected package manager
cannot work with a bare package name. Paludis needs CAT/PN; portage
accepts either.`,
		Args: cobra.MaximumNArgs(2),
		RunE: runWantCategory,
	}
}

func runWantCategory(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	pkg, err := s.target(args)
	if err != nil {
		return err
	}
	return s.backend.WantCategory(pkg)
}
