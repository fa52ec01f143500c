package portage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const maxProfileDepth = 32

// ProfileDirs returns the profile stack selected by make.profile under
// configRoot, most generic first. Each profile's parent file lists the
// profiles it inherits from. No make.profile means no profiles.
func ProfileDirs(configRoot string) ([]string, error) {
	configRoot = normalizeRoot(configRoot)
	link, err := firstExisting(
		filepath.Join(configRoot, "etc/portage/make.profile"),
		filepath.Join(configRoot, "etc/make.profile"),
	)
	if err != nil {
		return nil, nil
	}
	dir, err := filepath.EvalSymlinks(link)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", link, err)
	}

	var dirs []string
	visiting := make(map[string]bool)
	if err := walkProfile(dir, visiting, &dirs, 0); err != nil {
		return nil, err
	}
	return dirs, nil
}

// walkProfile appends the parents of dir depth-first, then dir itself
func walkProfile(dir string, visiting map[string]bool, dirs *[]string, depth int) error {
	if depth > maxProfileDepth {
		return fmt.Errorf("%s: profile nesting too deep", dir)
	}
	if visiting[dir] {
		return fmt.Errorf("%s: profile inherits from itself", dir)
	}
	visiting[dir] = true
	defer delete(visiting, dir)

	parents, err := readParents(dir)
	if err != nil {
		return err
	}
	for _, parent := range parents {
		if err := walkProfile(parent, visiting, dirs, depth+1); err != nil {
			return err
		}
	}
	*dirs = append(*dirs, dir)
	return nil
}

func readParents(dir string) ([]string, error) {
	path := filepath.Join(dir, "parent")
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var parents []string
	scanner := bufio.NewScanner(file)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.Contains(line, ":") {
			return nil, &ParseError{File: path, Line: n, Msg: fmt.Sprintf("repository qualified parent %q is not supported", line)}
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(dir, line)
		}
		resolved, err := filepath.EvalSymlinks(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, n, err)
		}
		parents = append(parents, resolved)
	}
	return parents, scanner.Err()
}
