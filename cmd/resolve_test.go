package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/playerlink/pkg/identity"
)

// resetResolveFlags clears the package-level resolve flag state between tests.
func resetResolveFlags() {
	resolveName = ""
	resolvePosition = ""
	resolveDOB = ""
	resolveTeam = ""
	resolveCollege = ""
	resolveDraftYear = 0
	resolveCrossIDs = nil
	resolveInput = ""
	resolveDryRun = false
	resolveOutput = ""
}

// TestResolveCommand tests the resolve command structure.
func TestResolveCommand(t *testing.T) {
	cmd := NewResolveCommand()

	assert.NotNil(t, cmd, "NewResolveCommand() should not return nil")
	assert.Contains(t, cmd.Use, "resolve", "resolve command Use should start with 'resolve'")
	assert.NotEmpty(t, cmd.Short, "resolve command should have Short description")
	assert.NotEmpty(t, cmd.Long, "resolve command should have Long description")
	assert.NotEmpty(t, cmd.Example, "resolve command should have example usage")
}

// TestResolveCommand_Flags verifies metadata and batch flags exist.
func TestResolveCommand_Flags(t *testing.T) {
	cmd := NewResolveCommand()

	for _, name := range []string{
		"name", "position", "dob", "team", "college", "draft-year",
		"cross-id", "input", "dry-run", "output",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "resolve command should have --%s flag", name)
	}
}

// TestBuildInputRecord_MetadataFlags verifies flags map into record metadata.
func TestBuildInputRecord_MetadataFlags(t *testing.T) {
	resetResolveFlags()
	defer resetResolveFlags()

	resolveName = "Patrick Mahomes"
	resolvePosition = "qb"
	resolveDOB = "1995-09-17"
	resolveTeam = "KC"
	resolveDraftYear = 2017

	record, err := buildInputRecord("sleeper", "4046")
	require.NoError(t, err)

	assert.Equal(t, identity.SourceSleeper, record.Source)
	assert.Equal(t, "4046", record.ExternalID)
	require.NotNil(t, record.Metadata)
	assert.Equal(t, "Patrick Mahomes", record.Metadata.Name)
	assert.Equal(t, identity.PositionQB, record.Metadata.Position, "position should be uppercased")
	assert.Equal(t, "1995-09-17", record.Metadata.BirthDate)
	assert.Equal(t, "KC", record.Metadata.Team)
	require.NotNil(t, record.Metadata.DraftYear)
	assert.Equal(t, 2017, *record.Metadata.DraftYear)
}

// TestBuildInputRecord_NoMetadata verifies a bare record carries nil metadata.
func TestBuildInputRecord_NoMetadata(t *testing.T) {
	resetResolveFlags()
	defer resetResolveFlags()

	record, err := buildInputRecord("gsis", "00-0033873")
	require.NoError(t, err)
	assert.Nil(t, record.Metadata, "record without metadata flags should have nil metadata")
}

// TestBuildInputRecord_CrossIDs verifies cross-id pair parsing.
func TestBuildInputRecord_CrossIDs(t *testing.T) {
	resetResolveFlags()
	defer resetResolveFlags()

	resolveCrossIDs = []string{"gsis=00-0033873", "espn=3139477"}

	record, err := buildInputRecord("sleeper", "4046")
	require.NoError(t, err)
	require.NotNil(t, record.Metadata)
	assert.Equal(t, "00-0033873", record.Metadata.CrossIDs[identity.SourceGSIS])
	assert.Equal(t, "3139477", record.Metadata.CrossIDs[identity.SourceESPN])
}

// TestBuildInputRecord_InvalidCrossID rejects malformed and unknown pairs.
func TestBuildInputRecord_InvalidCrossID(t *testing.T) {
	tests := []struct {
		name    string
		crossID string
	}{
		{"missing separator", "gsis00-0033873"},
		{"empty id", "gsis="},
		{"empty source", "=123"},
		{"unknown source", "madden=123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetResolveFlags()
			defer resetResolveFlags()

			resolveCrossIDs = []string{tt.crossID}
			_, err := buildInputRecord("sleeper", "4046")
			assert.Error(t, err, "cross-id %q should be rejected", tt.crossID)
		})
	}
}
