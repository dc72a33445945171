// Package store persists user configuration and the trigger forest to
// disk: a small TOML document at LogQuest.toml and a versioned, indented
// JSON document at Triggers.json (spec §6).
package store

import (
	"errors"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// PersistedConfig is the on-disk shape of LogQuest.toml. Everquest
// directory detection/selection is a collaborator concern (spec §1's
// explicit Non-goal); this package only reads and writes whatever value
// was last chosen.
type PersistedConfig struct {
	EverquestDirectory *string `toml:"everquest_directory,omitempty"`
}

// LoadConfig reads LogQuest.toml from path. A missing file is not an
// error — it yields an empty PersistedConfig, matching "everquest
// directory not yet configured."
func LoadConfig(path string) (*PersistedConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &PersistedConfig{}, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg PersistedConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig writes cfg to path as TOML, creating or truncating the file.
func SaveConfig(path string, cfg *PersistedConfig) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
