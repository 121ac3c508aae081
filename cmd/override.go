package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/playerlink/config"
	"github.com/otherjamesbrown/playerlink/pkg/identity"
	"github.com/otherjamesbrown/playerlink/pkg/identity/resolver"
)

// Override command flags
var overrideOutput string

// NewOverrideCommand creates the override command with its subcommands.
func NewOverrideCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Inspect the manual override file",
		Long: `Inspect the curated manual override file.

Overrides pin a (source, external_id) pair to a specific player and always
win over every automated matching pass. They are the settlement mechanism
for reviewed queue entries: a human picks the right player, records it in
the override file, and the next resolution of that record is decided by
the override.

The file is YAML, keyed "<source>:<external_id>", configured via
overrides_path in ~/.playerlink/config.yaml or PLAYERLINK_OVERRIDES_PATH.

Examples:
  # List all overrides
  playerlink override list

  # Check whether a record is overridden
  playerlink override check sleeper 4046`,
	}

	cmd.PersistentFlags().StringVarP(&overrideOutput, "output", "o", "", "Output format: text, json, yaml")

	cmd.AddCommand(newOverrideListCommand())
	cmd.AddCommand(newOverrideCheckCommand())

	return cmd
}

// newOverrideListCommand creates the 'override list' subcommand.
func newOverrideListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all manual overrides",
		Example: `  playerlink override list
  playerlink override list --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOverrideList()
		},
	}
}

// newOverrideCheckCommand creates the 'override check' subcommand.
func newOverrideCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <source> <external-id>",
		Short: "Check whether a record has a manual override",
		Example: `  playerlink override check sleeper 4046
  playerlink override check gsis 00-0033873 --output json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOverrideCheck(args[0], args[1])
		},
	}
}

// loadOverrideTable loads config and the override file it points at.
func loadOverrideTable() (*config.CLIConfig, *resolver.OverrideTable, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	table, err := resolver.LoadOverrides(cfg.OverridesPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading overrides: %w", err)
	}

	return cfg, table, nil
}

// runOverrideList executes the override list command.
func runOverrideList() error {
	cfg, table, err := loadOverrideTable()
	if err != nil {
		return err
	}

	entries := table.All()

	switch resolveOutputFormat(cfg, overrideOutput) {
	case config.OutputFormatJSON:
		return outputJSON(entries)
	case config.OutputFormatYAML:
		return outputYAML(entries)
	}

	if len(entries) == 0 {
		if cfg.OverridesPath == "" {
			fmt.Println("No override file configured (set overrides_path in config).")
		} else {
			fmt.Printf("No overrides in %s.\n", cfg.OverridesPath)
		}
		return nil
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("Overrides (%d):\n", len(entries))
	fmt.Println("  RECORD                          PLAYER                                     ADDED BY        NOTE")
	fmt.Println("  ------                          ------                                     --------        ----")
	for _, k := range keys {
		ov := entries[k]
		addedBy := ov.AddedBy
		if addedBy == "" {
			addedBy = "-"
		}
		fmt.Printf("  %-31s %-42s %-15s %s\n",
			truncateString(k, 31), truncateString(ov.PlayerID, 42),
			truncateString(addedBy, 15), truncateString(ov.Note, 40))
	}

	return nil
}

// runOverrideCheck executes the override check command.
func runOverrideCheck(source, externalID string) error {
	cfg, table, err := loadOverrideTable()
	if err != nil {
		return err
	}

	src := identity.Source(source)
	if !src.Valid() {
		return fmt.Errorf("unknown source %q", source)
	}

	ov, found := table.Lookup(src, externalID)

	switch resolveOutputFormat(cfg, overrideOutput) {
	case config.OutputFormatJSON:
		if !found {
			return outputJSON(map[string]bool{"found": false})
		}
		return outputJSON(ov)
	case config.OutputFormatYAML:
		if !found {
			return outputYAML(map[string]bool{"found": false})
		}
		return outputYAML(ov)
	}

	if !found {
		fmt.Printf("No override for %s:%s.\n", source, externalID)
		return nil
	}

	fmt.Printf("Override for %s:%s\n", source, externalID)
	fmt.Printf("  Player:     %s\n", ov.PlayerID)
	confidence := ov.Confidence
	if confidence == 0 {
		confidence = 1.0
	}
	fmt.Printf("  Confidence: %.2f\n", confidence)
	if ov.Note != "" {
		fmt.Printf("  Note:       %s\n", ov.Note)
	}
	if ov.AddedBy != "" {
		fmt.Printf("  Added by:   %s\n", ov.AddedBy)
	}
	if ov.AddedAt != "" {
		fmt.Printf("  Added at:   %s\n", ov.AddedAt)
	}

	return nil
}
