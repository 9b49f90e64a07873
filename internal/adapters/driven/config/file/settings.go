package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Settings are the user's persistent defaults. Zero values mean "not
// set"; callers fall back to built-in defaults.
type Settings struct {
	// Redundancy is the default budget in media counts.
	Redundancy float64 `toml:"redundancy,omitempty"`

	// Prefix is the default volume directory name prefix.
	Prefix string `toml:"prefix,omitempty"`

	// CapacityBytes is the medium capacity used for feasibility checks.
	CapacityBytes int64 `toml:"capacity_bytes,omitempty"`

	// Generator selects the default redundancy generator.
	Generator string `toml:"generator,omitempty"`

	// OversizeThreshold overrides the single-file skew warning level.
	OversizeThreshold float64 `toml:"oversize_threshold,omitempty"`
}

// Path returns the settings file path for configDir, defaulting to
// ~/.create-par2/config.toml when configDir is empty.
func Path(configDir string) (string, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		configDir = filepath.Join(home, ".create-par2")
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// Load reads settings from configDir. A missing file is not an error and
// yields zero settings.
func Load(configDir string) (Settings, error) {
	path, err := Path(configDir)
	if err != nil {
		return Settings{}, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var s Settings
	if err := toml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return s, nil
}

// Save writes settings to configDir, creating the directory as needed.
func Save(configDir string, s Settings) error {
	path, err := Path(configDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
