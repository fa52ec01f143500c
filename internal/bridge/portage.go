package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/z0mbix/pmbridge/internal/portage"
)

// PortageBackend reads Portage's settings and installed package database.
// Settings are loaded on first use.
type PortageBackend struct {
	logger  zerolog.Logger
	options portage.LoadOptions

	once     sync.Once
	settings *portage.Settings
	err      error
}

func newPortageBackend(opts Options) *PortageBackend {
	return &PortageBackend{
		logger:  opts.Logger.With().Str("backend", string(Portage)).Logger(),
		options: opts.Portage,
	}
}

func (b *PortageBackend) Name() Selector { return Portage }

// Settings returns the loaded Portage settings
func (b *PortageBackend) Settings() (*portage.Settings, error) {
	b.once.Do(func() {
		b.settings, b.err = portage.LoadSettings(b.options)
		if b.err != nil {
			if errors.Is(b.err, portage.ErrNotFound) {
				b.err = fmt.Errorf("%w: %v", ErrBackendUnavailable, b.err)
			}
			return
		}
		b.logger.Debug().
			Strs("files", b.settings.Files()).
			Str("root", b.settings.Root()).
			Msg("loaded portage settings")
	})
	return b.settings, b.err
}

func (b *PortageBackend) ConfigProtect(ctx context.Context, pkg Package) ([]string, error) {
	s, err := b.Settings()
	if err != nil {
		return nil, err
	}
	return s.ConfigProtect(), nil
}

func (b *PortageBackend) Root(ctx context.Context, pkg Package) (string, error) {
	s, err := b.Settings()
	if err != nil {
		return "", err
	}
	return s.Root(), nil
}

// PackageInstalled matches spec against the installed package database. A
// spec whose name exists in several categories is matched per category and
// the results concatenated.
func (b *PortageBackend) PackageInstalled(ctx context.Context, spec string) (Installed, error) {
	s, err := b.Settings()
	if err != nil {
		return nil, err
	}
	db := portage.NewVarDB(s.Root())

	matches, err := db.Match(spec)
	var amb *portage.AmbiguousPackageError
	if errors.As(err, &amb) {
		b.logger.Debug().Str("spec", spec).Strs("candidates", amb.Candidates).Msg("ambiguous package, matching each candidate")
		matches = nil
		for _, cp := range amb.Candidates {
			m, err := db.Match(cp)
			if err != nil {
				return nil, err
			}
			matches = append(matches, m...)
		}
		return Installed(matches), nil
	}
	if err != nil {
		return nil, err
	}
	return Installed(matches), nil
}

// WantCategory accepts packages without a category
func (b *PortageBackend) WantCategory(pkg Package) error { return nil }
