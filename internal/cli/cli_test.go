package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/z0mbix/pmbridge/internal/bridge"
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

// gentooRoot creates a portage root and a config file pointing at it
func gentooRoot(t *testing.T, installed ...string) (root, configFile string) {
	t.Helper()
	root = t.TempDir()
	writeFile(t, filepath.Join(root, "usr/share/portage/config/make.globals"),
		`CONFIG_PROTECT="/etc /usr/share/config"`+"\n")
	for _, cpv := range installed {
		if err := os.MkdirAll(filepath.Join(root, "var/db/pkg", cpv), 0755); err != nil {
			t.Fatalf("failed to install %s: %v", cpv, err)
		}
	}

	configFile = filepath.Join(root, "pmbridge.hcl")
	writeFile(t, configFile, `
portage {
  config_root = "`+root+`"
}
`)

	t.Setenv("ROOT", root)
	t.Setenv("PACKAGE_MANAGER", "")
	t.Setenv("CONFIG_PROTECT", "")
	t.Setenv("CONFIG_PROTECT_MASK", "")
	return root, configFile
}

func run(t *testing.T, configFile string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer

	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{
		"--config", configFile,
		"--legacy-config", filepath.Join(t.TempDir(), "webapp-config"),
		"--no-color",
	}, args...))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestParseVariables(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    map[string]string
		wantErr bool
	}{
		{"empty", nil, map[string]string{}, false},
		{"single", []string{"pn=webapp-config"}, map[string]string{"pn": "webapp-config"}, false},
		{"value with equals", []string{"opt=a=b"}, map[string]string{"opt": "a=b"}, false},
		{"empty value", []string{"pvr="}, map[string]string{"pvr": ""}, false},
		{"missing key", []string{"=value"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVariables(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseVariables() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseVariables() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParsePackageArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		category string
		pn       string
		pvr      string
		wantErr  bool
	}{
		{"cat/pn", []string{"app-admin/webapp-config"}, "app-admin", "webapp-config", "", false},
		{"pn only", []string{"phpmyadmin"}, "", "phpmyadmin", "", false},
		{"with version", []string{"www-apps/phpmyadmin", "5.2.1-r1"}, "www-apps", "phpmyadmin", "5.2.1-r1", false},
		{"empty category", []string{"/phpmyadmin"}, "", "", "", true},
		{"empty name", []string{"www-apps/"}, "", "", "", true},
		{"too many slashes", []string{"a/b/c"}, "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg, err := parsePackageArgs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePackageArgs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := deref(pkg.Category); got != tt.category {
				t.Errorf("category = %q, want %q", got, tt.category)
			}
			if got := deref(pkg.Name); got != tt.pn {
				t.Errorf("name = %q, want %q", got, tt.pn)
			}
			if got := deref(pkg.Version); got != tt.pvr {
				t.Errorf("version = %q, want %q", got, tt.pvr)
			}
		})
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func TestReportTarget(t *testing.T) {
	pkg := reportTarget(bridge.NewPackage("", "", "1.50"))
	if *pkg.Category != defaultCategory || *pkg.Name != defaultName || *pkg.Version != "1.50" {
		t.Errorf("reportTarget() = %s/%s-%s", *pkg.Category, *pkg.Name, *pkg.Version)
	}

	pkg = reportTarget(bridge.Package{})
	if *pkg.Version != defaultVersion {
		t.Errorf("default version = %q, want %q", *pkg.Version, defaultVersion)
	}
}

func TestReportCommand(t *testing.T) {
	_, configFile := gentooRoot(t, "app-admin/webapp-config-1.55-r2")

	stdout, _, err := run(t, configFile)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	for _, want := range []string{
		"PACKAGE MANAGER WRAPPER",
		`package_installed("webapp-config-1.55") : YES`,
		"config_protect : /etc /usr/share/config",
		"protect_prefix : ._cfg",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestReportCommand_NotInstalled(t *testing.T) {
	_, configFile := gentooRoot(t, "app-admin/webapp-config-1.51")

	stdout, _, err := run(t, configFile)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if !strings.Contains(stdout, `package_installed("webapp-config-1.55") : NO`) {
		t.Errorf("unexpected output:\n%s", stdout)
	}
}

func TestInstalledCommand(t *testing.T) {
	_, configFile := gentooRoot(t, "www-apps/phpmyadmin-5.2.1", "dev-db/phpmyadmin-4.0")

	stdout, _, err := run(t, configFile, "installed", "www-apps/phpmyadmin")
	if err != nil {
		t.Fatalf("installed failed: %v", err)
	}
	if stdout != "www-apps/phpmyadmin-5.2.1\n" {
		t.Errorf("installed printed %q", stdout)
	}

	// a bare name in two categories falls back to listing both
	stdout, _, err = run(t, configFile, "installed", "phpmyadmin")
	if err != nil {
		t.Fatalf("installed failed: %v", err)
	}
	if stdout != "dev-db/phpmyadmin-4.0\nwww-apps/phpmyadmin-5.2.1\n" {
		t.Errorf("installed printed %q", stdout)
	}

	_, _, err = run(t, configFile, "installed", "www-apps/wordpress")
	if !errors.Is(err, errNotInstalled) {
		t.Errorf("expected errNotInstalled, got %v", err)
	}
}

func TestProtectCommand_JSON(t *testing.T) {
	_, configFile := gentooRoot(t)

	stdout, _, err := run(t, configFile, "--format", "json", "protect")
	if err != nil {
		t.Fatalf("protect failed: %v", err)
	}
	want := "{\n  \"config_protect\": [\n    \"/etc\",\n    \"/usr/share/config\"\n  ]\n}\n"
	if stdout != want {
		t.Errorf("protect printed %q, want %q", stdout, want)
	}
}

func TestRootCommand(t *testing.T) {
	root, configFile := gentooRoot(t)

	stdout, _, err := run(t, configFile, "root")
	if err != nil {
		t.Fatalf("root failed: %v", err)
	}
	want := strings.TrimSuffix(root, "/") + "/\n"
	if stdout != want {
		t.Errorf("root printed %q, want %q", stdout, want)
	}
}

func TestWantCategoryCommand(t *testing.T) {
	_, configFile := gentooRoot(t)

	if _, _, err := run(t, configFile, "want-category", "phpmyadmin"); err != nil {
		t.Errorf("portage should accept a bare name: %v", err)
	}

	_, _, err := run(t, configFile, "-p", "paludis", "want-category", "phpmyadmin")
	if !errors.Is(err, bridge.ErrCategoryRequired) {
		t.Errorf("expected ErrCategoryRequired, got %v", err)
	}

	if _, _, err := run(t, configFile, "-p", "paludis", "want-category", "www-apps/phpmyadmin"); err != nil {
		t.Errorf("paludis should accept CAT/PN: %v", err)
	}
}

func TestUnknownPackageManager(t *testing.T) {
	_, configFile := gentooRoot(t)

	_, _, err := run(t, configFile, "-p", "pkgcore", "protect")
	if !errors.Is(err, bridge.ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}

	t.Setenv("PACKAGE_MANAGER", "pkgcore")
	_, _, err = run(t, configFile, "validate")
	if !errors.Is(err, bridge.ErrUnknownBackend) {
		t.Errorf("validate: expected ErrUnknownBackend, got %v", err)
	}
}

func TestValidateCommand(t *testing.T) {
	_, configFile := gentooRoot(t)

	stdout, _, err := run(t, configFile, "validate")
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if stdout != "Configuration is valid.\n" {
		t.Errorf("validate printed %q", stdout)
	}
}

func TestBackendsCommand(t *testing.T) {
	_, configFile := gentooRoot(t)

	stdout, _, err := run(t, configFile, "--format", "yaml", "backends")
	if err != nil {
		t.Fatalf("backends failed: %v", err)
	}
	if !strings.Contains(stdout, "- portage") {
		t.Errorf("portage should be available:\n%s", stdout)
	}
	if !strings.Contains(stdout, "selected: portage") {
		t.Errorf("portage should be selected:\n%s", stdout)
	}
}

func TestVersionCommand(t *testing.T) {
	SetVersionInfo("1.2.3", "abc123", "2026-01-01")
	t.Cleanup(func() { SetVersionInfo("dev", "none", "unknown") })

	stdout, _, err := run(t, filepath.Join(t.TempDir(), "unused.hcl"), "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(stdout, "pmbridge 1.2.3\n") {
		t.Errorf("version printed %q", stdout)
	}
}
