package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/playerlink/config"
	"github.com/otherjamesbrown/playerlink/pkg/identity"
)

// Player command flags
var playerOutput string

// NewPlayerCommand creates the player command with its subcommands.
func NewPlayerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Inspect canonical player identities",
		Long: `Inspect canonical player identities.

A canonical player is the single identity all external source ids resolve
to. This command shows a player's profile, the external identifiers mapped
to it, and its known aliases.

Examples:
  # Show a player with identifiers and aliases
  playerlink player show pl_7f3c2a14-...

  # Output as JSON
  playerlink player show pl_7f3c2a14-... --output json`,
	}

	cmd.PersistentFlags().StringVarP(&playerOutput, "output", "o", "", "Output format: text, json, yaml")

	cmd.AddCommand(newPlayerShowCommand())

	return cmd
}

// playerDetail bundles a player with its identifiers and aliases for output.
type playerDetail struct {
	Player      *identity.Player      `json:"player" yaml:"player"`
	Identifiers []identity.Identifier `json:"identifiers" yaml:"identifiers"`
	Aliases     []identity.Alias      `json:"aliases" yaml:"aliases"`
}

// newPlayerShowCommand creates the 'player show' subcommand.
func newPlayerShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <player-id>",
		Short: "Show a player's profile, identifiers and aliases",
		Example: `  playerlink player show pl_7f3c2a14-9c1e-4f2b-8d3a-1b2c3d4e5f60
  playerlink player show pl_7f3c2a14-9c1e-4f2b-8d3a-1b2c3d4e5f60 --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlayerShow(cmd.Context(), args[0])
		},
	}
}

// runPlayerShow executes the player show command.
func runPlayerShow(ctx context.Context, playerID string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	pool, err := connectToDatabase(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()
	store := identity.NewPostgresStore(pool)

	player, err := store.GetPlayer(ctx, playerID)
	if err != nil {
		return fmt.Errorf("getting player %s: %w", playerID, err)
	}

	identifiers, err := store.IdentifiersFor(ctx, playerID)
	if err != nil {
		return fmt.Errorf("listing identifiers: %w", err)
	}

	aliases, err := store.AliasesFor(ctx, playerID)
	if err != nil {
		return fmt.Errorf("listing aliases: %w", err)
	}

	detail := &playerDetail{Player: player, Identifiers: identifiers, Aliases: aliases}

	switch resolveOutputFormat(cfg, playerOutput) {
	case config.OutputFormatJSON:
		return outputJSON(detail)
	case config.OutputFormatYAML:
		return outputYAML(detail)
	}
	return outputPlayerText(detail)
}

// outputPlayerText formats a player for terminal display.
func outputPlayerText(d *playerDetail) error {
	p := d.Player
	fmt.Printf("Player: %s\n", p.PlayerID)
	fmt.Printf("  Name:       %s\n", p.CanonicalName)
	fmt.Printf("  Normalized: %s\n", p.CanonicalNameNormalized)
	if p.Position != "" {
		fmt.Printf("  Position:   %s\n", p.Position)
	}
	if p.BirthDate != "" {
		fmt.Printf("  Birth date: %s\n", p.BirthDate)
	}
	if p.CurrentTeam != "" {
		fmt.Printf("  Team:       %s\n", p.CurrentTeam)
	}
	if p.College != "" {
		fmt.Printf("  College:    %s\n", p.College)
	}
	fmt.Printf("  Status:     %s\n", p.Status)
	if p.DebutYear != nil {
		fmt.Printf("  Debut:      %d\n", *p.DebutYear)
	}
	if p.FinalYear != nil {
		fmt.Printf("  Final year: %d\n", *p.FinalYear)
	}
	fmt.Println()

	if len(d.Identifiers) > 0 {
		fmt.Printf("Identifiers (%d):\n", len(d.Identifiers))
		fmt.Println("  SOURCE       EXTERNAL ID            METHOD              CONFIDENCE")
		fmt.Println("  ------       -----------            ------              ----------")
		for _, id := range d.Identifiers {
			fmt.Printf("  %-12s %-22s %-19s %.2f\n",
				id.Source, truncateString(id.ExternalID, 22), id.Method, id.Confidence)
		}
		fmt.Println()
	} else {
		fmt.Println("No identifiers.")
	}

	if len(d.Aliases) > 0 {
		fmt.Printf("Aliases (%d):\n", len(d.Aliases))
		for _, a := range d.Aliases {
			suffix := ""
			if a.AliasType != "" {
				suffix = fmt.Sprintf(" (%s)", a.AliasType)
			}
			fmt.Printf("  %s%s\n", a.Alias, suffix)
		}
	}

	return nil
}
