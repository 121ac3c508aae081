package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/playerlink/config"
	"github.com/otherjamesbrown/playerlink/pkg/identity"
)

// Queue command flags
var (
	queueStatus string
	queueLimit  int
	queueOutput string
)

// NewQueueCommand creates the queue command with its subcommands.
func NewQueueCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the resolution review queue",
		Long: `Inspect the resolution review queue.

Records the resolver could not confidently match are parked here for human
review: ambiguous entries carry their competing candidates, unmatched
entries carry whatever metadata the source supplied. Enqueueing is
idempotent, so a source id waits in the queue at most once.

Reviewed entries are settled through the manual override file; the queue
itself is read-only from the CLI.

Examples:
  # List pending entries
  playerlink queue list

  # List recently rejected entries
  playerlink queue list --status rejected

  # Show one entry with its candidates
  playerlink queue show 42`,
	}

	cmd.PersistentFlags().StringVarP(&queueOutput, "output", "o", "", "Output format: text, json, yaml")

	cmd.AddCommand(newQueueListCommand())
	cmd.AddCommand(newQueueShowCommand())

	return cmd
}

// newQueueListCommand creates the 'queue list' subcommand.
func newQueueListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List resolution queue entries",
		Example: `  playerlink queue list
  playerlink queue list --status resolved --limit 20
  playerlink queue list --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueList(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&queueStatus, "status", "s", "pending", "Queue status: pending, resolved, rejected")
	cmd.Flags().IntVarP(&queueLimit, "limit", "l", 50, "Maximum entries to list")

	return cmd
}

// newQueueShowCommand creates the 'queue show' subcommand.
func newQueueShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <entry-id>",
		Short: "Show one queue entry with its candidates",
		Example: `  playerlink queue show 42
  playerlink queue show 42 --output yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid entry id %q", args[0])
			}
			return runQueueShow(cmd.Context(), id)
		},
	}
}

// runQueueList executes the queue list command.
func runQueueList(ctx context.Context) error {
	status := identity.QueueStatus(strings.ToLower(queueStatus))
	switch status {
	case identity.QueuePending, identity.QueueResolved, identity.QueueRejected:
	default:
		return fmt.Errorf("invalid status %q: must be pending, resolved or rejected", queueStatus)
	}

	cfg, store, cleanup, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	entries, err := store.ListQueue(ctx, status, queueLimit)
	if err != nil {
		return fmt.Errorf("listing queue: %w", err)
	}

	switch resolveOutputFormat(cfg, queueOutput) {
	case config.OutputFormatJSON:
		return outputJSON(entries)
	case config.OutputFormatYAML:
		return outputYAML(entries)
	}

	if len(entries) == 0 {
		fmt.Printf("No %s queue entries.\n", status)
		return nil
	}

	fmt.Printf("Queue entries (%d, %s):\n", len(entries), status)
	fmt.Println("  ID       SOURCE       EXTERNAL ID            NAME                      CANDIDATES  CREATED")
	fmt.Println("  --       ------       -----------            ----                      ----------  -------")
	for _, e := range entries {
		name := "-"
		if e.Metadata != nil && e.Metadata.Name != "" {
			name = e.Metadata.Name
		}
		fmt.Printf("  %-8d %-12s %-22s %-25s %-11d %s\n",
			e.ID, e.Source, truncateString(e.ExternalID, 22),
			truncateString(name, 25), len(e.Candidates),
			e.CreatedAt.Format("2006-01-02 15:04"))
	}

	return nil
}

// runQueueShow executes the queue show command. The store only lists by
// status, so all three statuses are scanned for the entry.
func runQueueShow(ctx context.Context, id int64) error {
	cfg, store, cleanup, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	var entry *identity.ResolutionQueueEntry
	for _, status := range []identity.QueueStatus{
		identity.QueuePending, identity.QueueResolved, identity.QueueRejected,
	} {
		entries, err := store.ListQueue(ctx, status, 0)
		if err != nil {
			return fmt.Errorf("listing queue: %w", err)
		}
		for i := range entries {
			if entries[i].ID == id {
				entry = &entries[i]
				break
			}
		}
		if entry != nil {
			break
		}
	}
	if entry == nil {
		return fmt.Errorf("queue entry %d not found", id)
	}

	switch resolveOutputFormat(cfg, queueOutput) {
	case config.OutputFormatJSON:
		return outputJSON(entry)
	case config.OutputFormatYAML:
		return outputYAML(entry)
	}

	fmt.Printf("Queue entry %d (%s)\n", entry.ID, entry.Status)
	fmt.Printf("  Record:   %s:%s\n", entry.Source, entry.ExternalID)
	if entry.Metadata != nil {
		m := entry.Metadata
		if m.Name != "" {
			fmt.Printf("  Name:     %s\n", m.Name)
		}
		if m.Position != "" {
			fmt.Printf("  Position: %s\n", m.Position)
		}
		if m.BirthDate != "" {
			fmt.Printf("  DOB:      %s\n", m.BirthDate)
		}
		if m.Team != "" {
			fmt.Printf("  Team:     %s\n", m.Team)
		}
	}
	fmt.Printf("  Created:  %s\n", entry.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Println()

	if len(entry.Candidates) == 0 {
		fmt.Println("No candidates recorded.")
		return nil
	}

	fmt.Printf("Candidates (%d):\n", len(entry.Candidates))
	fmt.Println("  PLAYER                                     NAME                      SCORE  REASONS")
	fmt.Println("  ------                                     ----                      -----  -------")
	for _, c := range entry.Candidates {
		fmt.Printf("  %-42s %-25s %-6d %s\n",
			truncateString(c.PlayerID, 42), truncateString(c.Name, 25),
			c.Score, strings.Join(c.Reasons, ", "))
	}

	return nil
}

// openStore loads config and opens the Postgres-backed identity store.
func openStore(ctx context.Context) (*config.CLIConfig, identity.Store, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	pool, err := connectToDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	return cfg, identity.NewPostgresStore(pool), pool.Close, nil
}
