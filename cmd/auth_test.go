package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestAuthCommand tests the auth command structure.
func TestAuthCommand(t *testing.T) {
	cmd := NewAuthCommand()

	assert.Equal(t, "auth", cmd.Use, "auth command Use should be 'auth'")
	assert.NotEmpty(t, cmd.Short, "auth command should have Short description")

	expected := map[string]bool{
		"set-db-password":    false,
		"set-cache-password": false,
		"show":               false,
		"clear":              false,
	}
	for _, sub := range cmd.Commands() {
		if _, ok := expected[sub.Use]; ok {
			expected[sub.Use] = true
		}
	}
	for name, found := range expected {
		assert.True(t, found, "auth command should have '%s' subcommand", name)
	}
}

// TestPlayerCommand tests the player command structure.
func TestPlayerCommand(t *testing.T) {
	cmd := NewPlayerCommand()

	assert.Equal(t, "player", cmd.Use, "player command Use should be 'player'")

	showFound := false
	for _, sub := range cmd.Commands() {
		if sub.Use == "show <player-id>" {
			showFound = true
		}
	}
	assert.True(t, showFound, "player command should have 'show' subcommand")
}
