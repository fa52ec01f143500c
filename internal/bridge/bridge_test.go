package bridge

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/z0mbix/pmbridge/internal/command/commandtest"
	"github.com/z0mbix/pmbridge/internal/portage"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// portageRoot builds a config root that is also the install root
func portageRoot(t *testing.T, protect string, installed ...string) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "usr/share/portage/config/make.globals"),
		`CONFIG_PROTECT="`+protect+`"`)
	for _, cpv := range installed {
		if err := os.MkdirAll(filepath.Join(root, "var/db/pkg", cpv), 0755); err != nil {
			t.Fatalf("failed to install %s: %v", cpv, err)
		}
	}
	return root
}

func newPortage(t *testing.T, root string) Backend {
	t.Helper()
	b, err := New("portage", Options{
		Logger: zerolog.Nop(),
		Portage: portage.LoadOptions{
			ConfigRoot: root,
			Environ:    []string{"ROOT=" + root},
		},
	})
	if err != nil {
		t.Fatalf("New(portage) failed: %v", err)
	}
	return b
}

func newPaludis(t *testing.T, runner *commandtest.FakeRunner, logger zerolog.Logger) Backend {
	t.Helper()
	b, err := New("paludis", Options{Logger: logger, Runner: runner})
	if err != nil {
		t.Fatalf("New(paludis) failed: %v", err)
	}
	return b
}

func strPtr(s string) *string { return &s }

func TestParseSelector(t *testing.T) {
	for _, name := range []string{"portage", "paludis"} {
		if _, err := ParseSelector(name); err != nil {
			t.Errorf("ParseSelector(%q) error: %v", name, err)
		}
	}
	for _, name := range []string{"", "pkgcore", "Portage", "apt", " paludis ", "portage\n"} {
		if _, err := ParseSelector(name); !errors.Is(err, ErrUnknownBackend) {
			t.Errorf("ParseSelector(%q) error = %v, want ErrUnknownBackend", name, err)
		}
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	b, err := New("pkgcore", Options{Logger: zerolog.Nop()})
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}
	if b != nil {
		t.Error("expected nil backend for unknown selector")
	}
	if !strings.Contains(err.Error(), "pkgcore") {
		t.Errorf("error should name the selector: %v", err)
	}
}

func TestNew_Names(t *testing.T) {
	for _, sel := range Selectors {
		b, err := New(string(sel), Options{Logger: zerolog.Nop(), Runner: commandtest.NewFakeRunner()})
		if err != nil {
			t.Fatalf("New(%s) failed: %v", sel, err)
		}
		if b.Name() != sel {
			t.Errorf("Name() = %q, want %q", b.Name(), sel)
		}
	}
}

func TestNewPackage(t *testing.T) {
	p := NewPackage("", "webapp-config", "1.55")
	if p.Category != nil {
		t.Error("empty category should be nil")
	}
	if p.HasCategory() {
		t.Error("HasCategory() should be false")
	}
	if !p.HasName() || *p.Name != "webapp-config" {
		t.Errorf("Name = %v", p.Name)
	}
	if p.Version == nil || *p.Version != "1.55" {
		t.Errorf("Version = %v", p.Version)
	}
}

func TestPortage_ConfigProtect(t *testing.T) {
	root := portageRoot(t, "/etc /usr/share/config /var/www")
	b := newPortage(t, root)

	got, err := b.ConfigProtect(context.Background(), NewPackage("app-admin", "webapp-config", "1.55"))
	if err != nil {
		t.Fatalf("ConfigProtect failed: %v", err)
	}
	want := []string{"/etc", "/usr/share/config", "/var/www"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ConfigProtect() = %v, want %v", got, want)
	}
}

func TestPortage_Root(t *testing.T) {
	root := portageRoot(t, "/etc")
	b := newPortage(t, root)

	got, err := b.Root(context.Background(), Package{})
	if err != nil {
		t.Fatalf("Root failed: %v", err)
	}
	if got != root+"/" {
		t.Errorf("Root() = %q, want %q", got, root+"/")
	}
}

func TestPortage_Unavailable(t *testing.T) {
	b := newPortage(t, t.TempDir())
	ctx := context.Background()

	if _, err := b.ConfigProtect(ctx, Package{}); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("ConfigProtect error = %v, want ErrBackendUnavailable", err)
	}
	if _, err := b.Root(ctx, Package{}); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Root error = %v, want ErrBackendUnavailable", err)
	}
	if _, err := b.PackageInstalled(ctx, "webapp-config"); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("PackageInstalled error = %v, want ErrBackendUnavailable", err)
	}
	if err := b.WantCategory(Package{}); err != nil {
		t.Errorf("WantCategory should not need portage: %v", err)
	}
}

func TestPortage_PackageInstalled(t *testing.T) {
	root := portageRoot(t, "/etc",
		"app-admin/webapp-config-1.55",
		"www-apps/mediawiki-1.39.6",
		"dev-php/mediawiki-1.0",
		"dev-php/mediawiki-2.0",
	)
	b := newPortage(t, root)
	ctx := context.Background()

	got, err := b.PackageInstalled(ctx, "~app-admin/webapp-config-1.55")
	if err != nil {
		t.Fatalf("PackageInstalled failed: %v", err)
	}
	if !reflect.DeepEqual(got, Installed{"app-admin/webapp-config-1.55"}) {
		t.Errorf("PackageInstalled() = %v", got)
	}
	if !got.Any() {
		t.Error("Any() should be true")
	}

	none, err := b.PackageInstalled(ctx, ">=app-admin/webapp-config-2")
	if err != nil {
		t.Fatalf("PackageInstalled failed: %v", err)
	}
	if none.Any() {
		t.Errorf("expected no match, got %v", none)
	}
}

func TestPortage_PackageInstalled_Ambiguous(t *testing.T) {
	root := portageRoot(t, "/etc",
		"www-apps/mediawiki-1.39.6",
		"dev-php/mediawiki-1.0",
		"dev-php/mediawiki-2.0",
	)
	b := newPortage(t, root)

	got, err := b.PackageInstalled(context.Background(), "mediawiki")
	if err != nil {
		t.Fatalf("PackageInstalled failed: %v", err)
	}

	want := []string{"dev-php/mediawiki-1.0", "dev-php/mediawiki-2.0", "www-apps/mediawiki-1.39.6"}
	sorted := append([]string(nil), got...)
	sort.Strings(sorted)
	if !reflect.DeepEqual(sorted, want) {
		t.Errorf("PackageInstalled() = %v, want the union %v", got, want)
	}
}

func TestPortage_PackageInstalled_InvalidSpec(t *testing.T) {
	b := newPortage(t, portageRoot(t, "/etc"))
	if _, err := b.PackageInstalled(context.Background(), "!!bad"); err == nil {
		t.Error("expected error for invalid spec")
	}
}

const (
	caveProtect = "cave print-id-environment-variable -b --format %v --variable-name CONFIG_PROTECT "
	caveRoot    = "cave print-id-environment-variable -b --format %v --variable-name ROOT "
)

func TestPaludis_ConfigProtect(t *testing.T) {
	runner := commandtest.NewFakeRunner().
		On(caveProtect+"app-admin/webapp-config::installed", commandtest.Response{Stdout: "/etc/foo /etc/bar\n"})
	b := newPaludis(t, runner, zerolog.Nop())

	got, err := b.ConfigProtect(context.Background(), NewPackage("app-admin", "webapp-config", "1.55"))
	if err != nil {
		t.Fatalf("ConfigProtect failed: %v", err)
	}
	sort.Strings(got)
	if !reflect.DeepEqual(got, []string{"/etc/bar", "/etc/foo"}) {
		t.Errorf("ConfigProtect() = %v", got)
	}
}

func TestPaludis_ConfigProtect_LegacyRecord(t *testing.T) {
	runner := commandtest.NewFakeRunner().
		On(caveProtect+"webapp-config::installed", commandtest.Response{Stdout: "  /etc  \n\n/var/www\n"})
	b := newPaludis(t, runner, zerolog.Nop())

	got, err := b.ConfigProtect(context.Background(), NewPackage("", "webapp-config", ""))
	if err != nil {
		t.Fatalf("ConfigProtect failed: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"/etc", "/var/www"}) {
		t.Errorf("ConfigProtect() = %q", got)
	}
}

func TestPaludis_ConfigProtect_Errors(t *testing.T) {
	b := newPaludis(t, commandtest.NewFakeRunner(), zerolog.Nop())
	ctx := context.Background()

	if _, err := b.ConfigProtect(ctx, Package{}); !errors.Is(err, ErrNameRequired) {
		t.Errorf("expected ErrNameRequired, got %v", err)
	}
	if _, err := b.ConfigProtect(ctx, NewPackage("app-admin", "webapp-config", "")); !errors.Is(err, exec.ErrNotFound) {
		t.Errorf("expected missing cave to propagate, got %v", err)
	}
}

func TestPaludis_Root(t *testing.T) {
	tests := []struct {
		name   string
		pkg    Package
		stdout string
		want   string
		calls  int
	}{
		{"no category", NewPackage("", "webapp-config", ""), "/mnt/gentoo\n", "/", 0},
		{"no name", Package{Category: strPtr("app-admin")}, "/mnt/gentoo\n", "/", 0},
		{"empty category", Package{Category: strPtr(""), Name: strPtr("webapp-config")}, "/mnt/gentoo\n", "/", 0},
		{"empty output", NewPackage("app-admin", "webapp-config", ""), "\n", "/", 1},
		{"trimmed output", NewPackage("app-admin", "webapp-config", ""), "  /mnt/gentoo  \n", "/mnt/gentoo", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := commandtest.NewFakeRunner().
				On(caveRoot+"app-admin/webapp-config", commandtest.Response{Stdout: tt.stdout})
			b := newPaludis(t, runner, zerolog.Nop())

			got, err := b.Root(context.Background(), tt.pkg)
			if err != nil {
				t.Fatalf("Root failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Root() = %q, want %q", got, tt.want)
			}
			if len(runner.Calls) != tt.calls {
				t.Errorf("expected %d cave calls, got %v", tt.calls, runner.Calls)
			}
		})
	}
}

func TestPaludis_PackageInstalled(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	runner := commandtest.NewFakeRunner().
		On("cave print-best-version app-admin/webapp-config", commandtest.Response{
			Stdout: "app-admin/webapp-config-1.55:0::installed\n",
			Stderr: "repository gentoo has no profile\n",
		}).
		On("cave print-best-version app-misc/nope", commandtest.Response{ExitCode: 1})
	b := newPaludis(t, runner, logger)
	ctx := context.Background()

	got, err := b.PackageInstalled(ctx, "app-admin/webapp-config")
	if err != nil {
		t.Fatalf("PackageInstalled failed: %v", err)
	}
	if !reflect.DeepEqual(got, Installed{"app-admin/webapp-config-1.55:0::installed"}) {
		t.Errorf("PackageInstalled() = %v", got)
	}
	if !strings.Contains(logs.String(), `"level":"warn"`) || !strings.Contains(logs.String(), "repository gentoo has no profile") {
		t.Errorf("expected stderr to be logged as a warning, got %q", logs.String())
	}

	none, err := b.PackageInstalled(ctx, "app-misc/nope")
	if err != nil {
		t.Fatalf("PackageInstalled failed: %v", err)
	}
	if none.Any() {
		t.Errorf("expected empty result, got %v", none)
	}
}

func TestPaludis_PackageInstalled_MissingCave(t *testing.T) {
	b := newPaludis(t, commandtest.NewFakeRunner(), zerolog.Nop())
	if _, err := b.PackageInstalled(context.Background(), "webapp-config"); !errors.Is(err, exec.ErrNotFound) {
		t.Errorf("expected exec.ErrNotFound, got %v", err)
	}
}

func TestWantCategory(t *testing.T) {
	noCategory := NewPackage("", "webapp-config", "")
	withCategory := NewPackage("app-admin", "webapp-config", "")

	pal := newPaludis(t, commandtest.NewFakeRunner(), zerolog.Nop())
	if err := pal.WantCategory(noCategory); !errors.Is(err, ErrCategoryRequired) {
		t.Errorf("paludis WantCategory error = %v, want ErrCategoryRequired", err)
	}
	if err := pal.WantCategory(withCategory); err != nil {
		t.Errorf("paludis WantCategory error = %v", err)
	}

	por := newPortage(t, t.TempDir())
	if err := por.WantCategory(noCategory); err != nil {
		t.Errorf("portage WantCategory error = %v", err)
	}
}
