package facts

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// OSFacts contains operating system information
type OSFacts struct {
	Distribution        string // Distribution name (Gentoo, Funtoo)
	DistributionVersion string // Version (2.17)
	Family              string // gentoo for Gentoo and its derivatives
}

// gatherOSFacts reads etc/os-release under root
func gatherOSFacts(root string) (OSFacts, error) {
	osRelease, err := parseOSRelease(root)
	if err != nil {
		return OSFacts{}, err
	}

	return OSFacts{
		Distribution:        osRelease["NAME"],
		DistributionVersion: osRelease["VERSION_ID"],
		Family:              detectFamily(osRelease),
	}, nil
}

// parseOSRelease reads and parses etc/os-release under root
func parseOSRelease(root string) (map[string]string, error) {
	if root == "" {
		root = "/"
	}
	file, err := os.Open(filepath.Join(root, "etc/os-release"))
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	result := make(map[string]string)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		result[parts[0]] = strings.Trim(parts[1], "\"'")
	}

	return result, scanner.Err()
}

// detectFamily returns "gentoo" for distributions built on portage trees
func detectFamily(osRelease map[string]string) string {
	switch strings.ToLower(osRelease["ID"]) {
	case "gentoo", "funtoo", "calculate", "sabayon", "redcore", "pentoo", "exherbo":
		return "gentoo"
	case "":
		return "unknown"
	}

	for _, like := range strings.Fields(strings.ToLower(osRelease["ID_LIKE"])) {
		if like == "gentoo" {
			return "gentoo"
		}
	}
	return strings.ToLower(osRelease["ID"])
}
