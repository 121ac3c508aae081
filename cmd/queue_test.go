package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestQueueCommand tests the queue command structure.
func TestQueueCommand(t *testing.T) {
	cmd := NewQueueCommand()

	assert.Equal(t, "queue", cmd.Use, "queue command Use should be 'queue'")
	assert.NotEmpty(t, cmd.Short, "queue command should have Short description")
	assert.NotEmpty(t, cmd.Long, "queue command should have Long description")

	listFound := false
	showFound := false
	for _, sub := range cmd.Commands() {
		switch {
		case sub.Use == "list":
			listFound = true
		case sub.Use == "show <entry-id>":
			showFound = true
		}
	}
	assert.True(t, listFound, "queue command should have 'list' subcommand")
	assert.True(t, showFound, "queue command should have 'show' subcommand")
}

// TestQueueListCommand_Flags verifies list flags.
func TestQueueListCommand_Flags(t *testing.T) {
	cmd := NewQueueCommand()

	listCmd, _, err := cmd.Find([]string{"list"})
	require.NoError(t, err)

	statusFlag := listCmd.Flags().Lookup("status")
	require.NotNil(t, statusFlag, "queue list should have --status flag")
	assert.Equal(t, "pending", statusFlag.DefValue, "--status should default to pending")

	assert.NotNil(t, listCmd.Flags().Lookup("limit"), "queue list should have --limit flag")
}

// TestQueueShowCommand_Args verifies show requires an entry id.
func TestQueueShowCommand_Args(t *testing.T) {
	cmd := NewQueueCommand()

	showCmd, _, err := cmd.Find([]string{"show"})
	require.NoError(t, err)
	assert.Error(t, showCmd.Args(showCmd, nil), "queue show should require an argument")
	assert.NoError(t, showCmd.Args(showCmd, []string{"42"}), "queue show should accept one argument")
}
