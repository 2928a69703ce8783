package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvDataDir  = "INTERNSCAN_DATA_DIR"
	EnvNow      = "INTERNSCAN_NOW"
	EnvLogLevel = "INTERNSCAN_LOG_LEVEL"
)

// LoadDotEnv loads the first .env found in dirs. Variables already set in
// the process environment win. It reports the file it loaded, if any.
func LoadDotEnv(dirs ...string) string {
	for _, dir := range dirs {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err == nil {
			return path
		}
	}
	return ""
}

// ApplyEnv overlays INTERNSCAN_* variables on cfg.
func ApplyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		cfg.App.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvNow)); v != "" {
		cfg.Clock.Fixed = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.App.LogLevel = v
	}
}
