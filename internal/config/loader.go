package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environment variables that override configuration file values.
const (
	EnvEndpoint = "JAINSCAN_ENDPOINT"
	EnvTheme    = "JAINSCAN_THEME"
	EnvLogLevel = "JAINSCAN_LOG_LEVEL"
)

// Loader handles loading the configuration.
type Loader struct {
	Version      string // Build version, used to determine dev mode
	OverridePath string // Set at compile time or from -config
}

// NewLoader creates a new Loader.
func NewLoader(version string, overridePath string) *Loader {
	return &Loader{
		Version:      version,
		OverridePath: overridePath,
	}
}

// Load attempts to load the configuration. Missing files yield defaults.
func (l *Loader) Load() (*Config, error) {
	path := l.GetConfigPath()
	if path == "" {
		return New(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// GetConfigPath returns the path to the configuration file, or empty string if not found.
func (l *Loader) GetConfigPath() string {
	// 1. Variable override path
	if l.OverridePath != "" {
		if _, err := os.Stat(l.OverridePath); err == nil {
			return l.OverridePath
		}
	}

	// 2. Local run directory (dev mode)
	if l.Version == "dev" {
		wd, _ := os.Getwd()
		localPath := filepath.Join(wd, ".jainscanrc")
		if _, err := os.Stat(localPath); err == nil {
			return localPath
		}
	}

	// 3. XDG Config Path
	for _, name := range []string{"config.rc", "jainscan.rc"} {
		p := filepath.Join(l.configDir(), name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// SavePath returns where Save writes: the file Load would read, or the
// default XDG location when none exists yet.
func (l *Loader) SavePath() string {
	if p := l.GetConfigPath(); p != "" {
		return p
	}
	if l.OverridePath != "" {
		return l.OverridePath
	}
	return filepath.Join(l.configDir(), "config.rc")
}

// Save writes cfg in RC format and returns the path written.
func (l *Loader) Save(cfg *Config) (string, error) {
	path := l.SavePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(cfg.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return path, nil
}

func (l *Loader) configDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "jainscan")
}

// ApplyEnv overrides values from the environment. getenv is os.Getenv in
// production.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvEndpoint); v != "" {
		c.Classify.Endpoint = v
	}
	if v := getenv(EnvTheme); v != "" {
		c.Theme = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// ExpandHome replaces a leading ~ or ~/ with the user's home directory.
// Other paths, and paths when the home directory is unknown, are returned
// unchanged.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
