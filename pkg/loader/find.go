// Package loader finds the data file, loads it through a datasource and keeps
// the current graph across reloads.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DataPathEnvVar overrides data file discovery.
const DataPathEnvVar = "TRUSTMAP_DATA"

// PreferredNames is the lookup order for a data file inside a directory.
var PreferredNames = []string{
	"trustmap.yaml", "trustmap.yml", "trustmap.json", "trustmap.db",
	".trustmap.yaml", ".trustmap.json",
}

// ResolvePath returns the data file to use. An explicit path wins, then
// TRUSTMAP_DATA, then a preferred file in dir (or the working directory).
// An empty result with a nil error means the built-in demo.
func ResolvePath(explicit, dir string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv(DataPathEnvVar); env != "" {
		return env, nil
	}
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current working directory: %w", err)
		}
	}
	path, err := FindDataFile(dir)
	if err != nil {
		return "", nil
	}
	return path, nil
}

// FindDataFile returns the first non-empty preferred file in dir. Backup and
// temp files are never picked.
func FindDataFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read data directory: %w", err)
	}

	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".tmp") || strings.Contains(name, ".backup") || strings.HasSuffix(name, ".orig") {
			continue
		}
		present[name] = true
	}

	for _, name := range PreferredNames {
		if !present[name] {
			continue
		}
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			return path, nil
		}
	}
	return "", fmt.Errorf("no trustmap data file found in %s", dir)
}
