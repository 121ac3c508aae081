package resolver

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/playerlink/pkg/identity"
)

// Override is one curated identifier-to-player pin. Overrides outrank every
// automated pass and are maintained by hand outside the engine.
type Override struct {
	PlayerID   string  `yaml:"player_id" json:"player_id"`
	Confidence float64 `yaml:"confidence,omitempty" json:"confidence,omitempty"`
	Note       string  `yaml:"note,omitempty" json:"note,omitempty"`
	AddedBy    string  `yaml:"added_by,omitempty" json:"added_by,omitempty"`
	AddedAt    string  `yaml:"added_at,omitempty" json:"added_at,omitempty"`
}

// OverrideTable is a read-only lookup of manual overrides keyed by
// "<source>:<external_id>".
type OverrideTable struct {
	entries map[string]Override
}

// NewOverrideTable builds a table from already-parsed entries.
func NewOverrideTable(entries map[string]Override) *OverrideTable {
	if entries == nil {
		entries = map[string]Override{}
	}
	return &OverrideTable{entries: entries}
}

// LoadOverrides reads a YAML override file. A missing path yields an empty
// table rather than an error so an unconfigured deployment resolves without
// one.
func LoadOverrides(path string) (*OverrideTable, error) {
	if path == "" {
		return NewOverrideTable(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewOverrideTable(nil), nil
		}
		return nil, fmt.Errorf("reading override file %s: %w", path, err)
	}

	var raw map[string]Override
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing override file %s: %w", path, err)
	}

	entries := make(map[string]Override, len(raw))
	for key, ov := range raw {
		source, _, err := splitOverrideKey(key)
		if err != nil {
			return nil, fmt.Errorf("override file %s: %w", path, err)
		}
		if !source.Valid() {
			return nil, fmt.Errorf("override file %s: key %q has unknown source", path, key)
		}
		if ov.PlayerID == "" {
			return nil, fmt.Errorf("override file %s: key %q has no player_id", path, key)
		}
		if ov.Confidence == 0 {
			ov.Confidence = 1.0
		}
		entries[key] = ov
	}

	return NewOverrideTable(entries), nil
}

// Lookup returns the override for a (source, external_id) pair, if any.
func (t *OverrideTable) Lookup(source identity.Source, externalID string) (Override, bool) {
	ov, ok := t.entries[overrideKey(source, externalID)]
	return ov, ok
}

// Len returns the number of overrides loaded.
func (t *OverrideTable) Len() int { return len(t.entries) }

// All returns a copy of every override keyed by "<source>:<external_id>".
func (t *OverrideTable) All() map[string]Override {
	out := make(map[string]Override, len(t.entries))
	for k, v := range t.entries {
		out[k] = v
	}
	return out
}

func overrideKey(source identity.Source, externalID string) string {
	return string(source) + ":" + externalID
}

func splitOverrideKey(key string) (identity.Source, string, error) {
	idx := strings.Index(key, ":")
	if idx <= 0 || idx == len(key)-1 {
		return "", "", fmt.Errorf("malformed override key %q, want \"<source>:<external_id>\"", key)
	}
	return identity.Source(key[:idx]), key[idx+1:], nil
}
