package report

import (
	"context"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/z0mbix/pmbridge/internal/atom"
	"github.com/z0mbix/pmbridge/internal/bridge"
)

// Title heads the diagnostic report
const Title = "PACKAGE MANAGER WRAPPER"

// Report is the diagnostic summary of a backend for one package
type Report struct {
	Backend       string   `json:"backend" yaml:"backend"`
	Package       string   `json:"package" yaml:"package"`
	Spec          string   `json:"spec" yaml:"spec"`
	Installed     []string `json:"installed" yaml:"installed"`
	ConfigProtect []string `json:"config_protect" yaml:"config_protect"`
	ProtectPrefix string   `json:"protect_prefix" yaml:"protect_prefix"`
	UpdateCommand string   `json:"update_command" yaml:"update_command"`
	BugsLink      string   `json:"bugs_link" yaml:"bugs_link"`
}

// IsInstalled reports whether the package matched anything
func (r *Report) IsInstalled() bool { return len(r.Installed) > 0 }

// Build queries backend for pkg, which must carry a category, a name and
// a version. The installed check uses the ~CAT/PN-VER spec so any revision
// of the version counts.
func Build(ctx context.Context, backend bridge.Backend, pkg bridge.Package) (*Report, error) {
	if !pkg.HasCategory() || !pkg.HasName() || pkg.Version == nil {
		return nil, fmt.Errorf("%w: report needs CAT/PN-VER", bridge.ErrCategoryRequired)
	}

	pv := *pkg.Name + "-" + *pkg.Version
	spec := string(atom.OpApproximate) + atom.Join(pkg.Category, pv)

	installed, err := backend.PackageInstalled(ctx, spec)
	if err != nil {
		return nil, err
	}
	protect, err := backend.ConfigProtect(ctx, pkg)
	if err != nil {
		return nil, err
	}

	r := &Report{
		Backend:       string(backend.Name()),
		Package:       pv,
		Spec:          spec,
		Installed:     installed,
		ConfigProtect: protect,
		ProtectPrefix: bridge.ProtectPrefix,
		UpdateCommand: bridge.UpdateCommand,
		BugsLink:      bridge.BugsLink,
	}
	if r.Installed == nil {
		r.Installed = []string{}
	}
	if r.ConfigProtect == nil {
		r.ConfigProtect = []string{}
	}
	return r, nil
}

var bodyTemplate = template.Must(template.New("report").Funcs(sprig.TxtFuncMap()).Parse(
	`package_installed("{{ .Package }}") : {{ .IsInstalled | ternary "YES" "NO" }}

config_protect : {{ join " " .ConfigProtect }}
protect_prefix : {{ .ProtectPrefix }}
update_command : {{ .UpdateCommand }}
bugs_link : {{ .BugsLink }}
`))

// PrintReport writes r in the requested format
func (p *Printer) PrintReport(format Format, r *Report) error {
	if format != FormatText {
		return p.Print(format, r)
	}

	p.PrintHeader(Title)
	if err := bodyTemplate.Execute(p.out, r); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}
