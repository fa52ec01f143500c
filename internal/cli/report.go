package cli

import (
	"github.com/spf13/cobra"

	"github.com/z0mbix/pmbridge/internal/report"
)

func runReport(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	r, err := report.Build(cmd.Context(), s.backend, reportTarget(s.cfg.Target()))
	if err != nil {
		return err
	}
	return s.printer.PrintReport(s.format, r)
}
