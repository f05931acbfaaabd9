package service

import (
	"fmt"
	"os"
	"path/filepath"
)

// LoadSource reads the Move sources under projectRoot/sources, keyed by their path
// relative to projectRoot.
func LoadSource(projectRoot string) (map[string]string, error) {
	paths, err := filepath.Glob(filepath.Join(projectRoot, "sources", "*.move"))
	if err != nil {
		return nil, err
	}

	source := make(map[string]string, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		rel, err := filepath.Rel(projectRoot, path)
		if err != nil {
			return nil, err
		}
		source[filepath.ToSlash(rel)] = string(content)
	}
	return source, nil
}
