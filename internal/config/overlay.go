// internal/config/overlay.go
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"internscan-engine/internal/domain"
)

// SourcesFile is the optional sources.yml next to config.yml.
type SourcesFile struct {
	Sources []domain.Source `yaml:"sources"`
}

// OverlaySources replaces cfg.Sources with the list in path when the file
// exists and is non-empty.
func OverlaySources(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		// Missing sources file should not kill startup
		return nil
	}
	if err != nil {
		return err
	}

	var sf SourcesFile
	if err := yaml.Unmarshal(b, &sf); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if len(sf.Sources) > 0 {
		cfg.Sources = sf.Sources
	}
	return nil
}
