package bridge

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/z0mbix/pmbridge/internal/atom"
	"github.com/z0mbix/pmbridge/internal/command"
	"github.com/z0mbix/pmbridge/internal/paludis"
)

// PaludisBackend answers queries by running cave
type PaludisBackend struct {
	logger zerolog.Logger
	cave   *paludis.Cave
}

func newPaludisBackend(opts Options) *PaludisBackend {
	logger := opts.Logger.With().Str("backend", string(Paludis)).Logger()

	runner := opts.Runner
	if runner == nil {
		runner = command.NewExecRunner(logger)
	}
	cave := paludis.New(runner)
	if opts.CaveCommand != "" {
		cave.Command = opts.CaveCommand
	}

	return &PaludisBackend{logger: logger, cave: cave}
}

func (b *PaludisBackend) Name() Selector { return Paludis }

// ConfigProtect queries CONFIG_PROTECT of the installed package. Paludis only
// records it for installed IDs. A missing category falls back to the bare
// name.
func (b *PaludisBackend) ConfigProtect(ctx context.Context, pkg Package) ([]string, error) {
	if !pkg.HasName() {
		return nil, ErrNameRequired
	}
	spec := atom.Join(pkg.Category, *pkg.Name) + "::" + paludis.InstalledRepository

	out, err := b.cave.EnvironmentVariable(ctx, spec, "CONFIG_PROTECT")
	if err != nil {
		return nil, err
	}
	return strings.Fields(out), nil
}

// Root queries ROOT for category/name, or returns "/" when either is unknown
func (b *PaludisBackend) Root(ctx context.Context, pkg Package) (string, error) {
	if !pkg.HasCategory() || !pkg.HasName() {
		return "/", nil
	}

	root, err := b.cave.EnvironmentVariable(ctx, *pkg.Category+"/"+*pkg.Name, "ROOT")
	if err != nil {
		return "", err
	}
	if root == "" {
		return "/", nil
	}
	return root, nil
}

// PackageInstalled returns the best installed version matching spec. Anything
// cave prints on stderr is logged as a warning.
func (b *PaludisBackend) PackageInstalled(ctx context.Context, spec string) (Installed, error) {
	version, warnings, err := b.cave.BestVersion(ctx, spec)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		b.logger.Warn().Str("spec", spec).Msg(w)
	}
	if version == "" {
		return nil, nil
	}
	return Installed{version}, nil
}

// WantCategory requires a category; paludis cannot resolve bare names reliably
func (b *PaludisBackend) WantCategory(pkg Package) error {
	if !pkg.HasCategory() {
		return ErrCategoryRequired
	}
	return nil
}
