package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/playerlink/pkg/identity"
)

func writeOverrideFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadOverrides(t *testing.T) {
	path := writeOverrideFile(t, `
"sleeper:4046":
  player_id: pl_mahomes
  confidence: 1.0
  note: verified by hand
  added_by: ops
  added_at: "2026-08-01"
"espn:12345":
  player_id: pl_chase
`)

	table, err := LoadOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	ov, ok := table.Lookup(identity.SourceSleeper, "4046")
	require.True(t, ok)
	assert.Equal(t, "pl_mahomes", ov.PlayerID)
	assert.Equal(t, 1.0, ov.Confidence)
	assert.Equal(t, "verified by hand", ov.Note)

	// Confidence defaults to 1.0 when omitted.
	ov, ok = table.Lookup(identity.SourceESPN, "12345")
	require.True(t, ok)
	assert.Equal(t, 1.0, ov.Confidence)

	_, ok = table.Lookup(identity.SourceGSIS, "4046")
	assert.False(t, ok)
}

func TestLoadOverrides_MissingFile(t *testing.T) {
	table, err := LoadOverrides(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestLoadOverrides_EmptyPath(t *testing.T) {
	table, err := LoadOverrides("")
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestLoadOverrides_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "malformed key",
			content: "\"no-colon-here\":\n  player_id: pl_x\n",
		},
		{
			name:    "unknown source",
			content: "\"madeup:123\":\n  player_id: pl_x\n",
		},
		{
			name:    "missing player id",
			content: "\"gsis:00-0033873\":\n  note: oops\n",
		},
		{
			name:    "not yaml",
			content: "{{{{",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeOverrideFile(t, tt.content)
			_, err := LoadOverrides(path)
			assert.Error(t, err)
		})
	}
}
