// Package config handles project configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents project configuration stored in .cura/config.json.
type Config struct {
	ProjectID  string   `json:"project_id"`             // Remote project identifier
	ProjectDir string   `json:"-"`                      // Resolved project root, not persisted
	APIBaseURL string   `json:"api_base_url,omitempty"` // Override for the persistence API
	Columns    []string `json:"columns,omitempty"`      // Workflow columns; empty means defaults
}

const (
	CuraDir    = ".cura"
	ConfigFile = "config.json"
	BoardFile  = "board.json"
	CasesFile  = "cases.json"
	CacheFile  = "cache.db"
)

// CuraPath returns the path to the .cura directory from a root path.
func CuraPath(root string) string {
	return filepath.Join(root, CuraDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, CuraDir, ConfigFile)
}

// BoardPath returns the path to the persisted pipeline state.
func BoardPath(root string) string {
	return filepath.Join(root, CuraDir, BoardFile)
}

// CasesPath returns the path to the persisted duplicate cases.
func CasesPath(root string) string {
	return filepath.Join(root, CuraDir, CasesFile)
}

// CachePath returns the path to the local study cache database.
func CachePath(root string) string {
	return filepath.Join(root, CuraDir, CacheFile)
}

// IsProject checks if the given path contains a cura project.
func IsProject(root string) bool {
	info, err := os.Stat(CuraPath(root))
	return err == nil && info.IsDir()
}

// FindProject walks up from the given path to find a cura project.
// Returns the project root path or an error if not found.
func FindProject(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsProject(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a cura project (no .cura directory found)")
		}
		abs = parent
	}
}

// Load reads configuration from the project at the given root.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.ProjectDir = root

	return &cfg, nil
}

// Save writes configuration to the project at the given root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
