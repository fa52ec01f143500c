package facts

import (
	"os/exec"
	"sort"

	"github.com/z0mbix/pmbridge/internal/paludis"
	"github.com/z0mbix/pmbridge/internal/portage"
)

// lookPath is replaced in tests
var lookPath = exec.LookPath

// DetectBackends lists the backends usable on this host, sorted: portage
// when make.globals exists under configRoot, paludis when cave is on PATH.
func DetectBackends(configRoot string) []string {
	available := []string{}
	if _, err := portage.GlobalsPath(configRoot); err == nil {
		available = append(available, "portage")
	}
	if _, err := lookPath(paludis.DefaultCommand); err == nil {
		available = append(available, "paludis")
	}
	sort.Strings(available)
	return available
}
