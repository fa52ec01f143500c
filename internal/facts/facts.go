// Package facts reports which package manager backends this host can serve.
package facts

// Facts describes the host as seen by the package manager bridge
type Facts struct {
	OS       OSFacts
	Backends []string
}

// Gather collects host facts. configRoot is where portage's configuration
// lives, "/" when empty.
func Gather(configRoot string) *Facts {
	osFacts, err := gatherOSFacts(configRoot)
	if err != nil {
		osFacts = OSFacts{Family: "unknown"}
	}

	return &Facts{
		OS:       osFacts,
		Backends: DetectBackends(configRoot),
	}
}
