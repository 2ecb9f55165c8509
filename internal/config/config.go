package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables recognized by Load. Each overrides the
// corresponding file setting.
const (
	EnvDBPath   = "BILLFOLD_DB"
	EnvAPIURL   = "BILLFOLD_API_URL"
	EnvAPIToken = "BILLFOLD_API_TOKEN"
	EnvTeam     = "BILLFOLD_TEAM"
)

// Config holds the application settings. The zero value is a valid
// unauthenticated local-only configuration.
type Config struct {
	// DBPath locates the SQLite database file. Empty means the
	// per-user default under the OS config directory.
	DBPath string `yaml:"db_path,omitempty"`

	// APIURL is the backend base URL. Both APIURL and APIToken must
	// be set for cloud mode.
	APIURL string `yaml:"api_url,omitempty"`

	// APIToken is the bearer token presented to the backend.
	APIToken string `yaml:"api_token,omitempty"`

	// Team scopes backend reads and writes to a team workspace.
	// Empty means the personal workspace.
	Team string `yaml:"team,omitempty"`

	// Dry forces local routing even when credentials are present.
	Dry bool `yaml:"dry_run,omitempty"`
}

// Load builds a Config from the YAML file at path layered under .env
// and environment overrides. A missing file is not an error: the
// zero Config is used as the base. A malformed or mistyped file is,
// so typos do not silently fall back to local mode.
func Load(path string) (*Config, error) {
	// Hoist .env into the environment first so its values
	// participate in the override pass. Absence is fine.
	_ = godotenv.Load()

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fall through to overrides
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true) // reject unknown fields (catches typos)
		if err := decoder.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv(EnvAPIToken); v != "" {
		cfg.APIToken = v
	}
	if v := os.Getenv(EnvTeam); v != "" {
		cfg.Team = v
	}
}

// Authenticated reports whether cloud credentials are fully present.
func (c *Config) Authenticated() bool {
	return c.APIURL != "" && c.APIToken != ""
}

// TeamID returns the team scope for backend calls.
func (c *Config) TeamID() string {
	return c.Team
}

// DryRun reports whether cloud routing is suppressed.
func (c *Config) DryRun() bool {
	return c.Dry
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config directory: %w", err)
	}
	return filepath.Join(base, "billfold", "config.yaml"), nil
}

// ResolveDBPath returns the database location, falling back to the
// per-user default next to the config file. The parent directory is
// created so first run works on a clean machine.
func (c *Config) ResolveDBPath() (string, error) {
	path := c.DBPath
	if path == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve config directory: %w", err)
		}
		path = filepath.Join(base, "billfold", "billfold.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return path, nil
}
