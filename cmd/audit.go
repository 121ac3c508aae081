package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/playerlink/config"
	"github.com/otherjamesbrown/playerlink/pkg/identity"
)

// Audit command flags
var (
	auditSession    string
	auditSource     string
	auditExternalID string
	auditAction     string
	auditLimit      int
	auditOutput     string
)

// NewAuditCommand creates the audit command with its subcommands.
func NewAuditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the resolution audit log",
		Long: `Inspect the append-only resolution audit log.

Every Resolve call writes exactly one audit entry recording the input,
the outcome (match_success, match_conflict or match_failure), the winning
method and confidence, and a context blob with pass-level detail. Entries
are grouped by engine session.

Examples:
  # Recent audit entries
  playerlink audit list

  # Entries for one engine session
  playerlink audit list --session sess_9b2f...

  # Failures for one source
  playerlink audit list --source sleeper --action match_failure`,
	}

	cmd.PersistentFlags().StringVarP(&auditOutput, "output", "o", "", "Output format: text, json, yaml")

	cmd.AddCommand(newAuditListCommand())

	return cmd
}

// newAuditListCommand creates the 'audit list' subcommand.
func newAuditListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit log entries",
		Example: `  playerlink audit list
  playerlink audit list --session sess_9b2f1c3d
  playerlink audit list --source sleeper --external-id 4046
  playerlink audit list --action match_conflict --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuditList(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&auditSession, "session", "", "Filter by engine session id")
	cmd.Flags().StringVar(&auditSource, "source", "", "Filter by source")
	cmd.Flags().StringVar(&auditExternalID, "external-id", "", "Filter by external id")
	cmd.Flags().StringVar(&auditAction, "action", "", "Filter by action: match_success, match_conflict, match_failure")
	cmd.Flags().IntVarP(&auditLimit, "limit", "l", 50, "Maximum entries to list")

	return cmd
}

// runAuditList executes the audit list command.
func runAuditList(ctx context.Context) error {
	cfg, store, cleanup, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	filter := identity.AuditFilter{
		SessionID:  auditSession,
		Source:     identity.Source(auditSource),
		ExternalID: auditExternalID,
		Action:     identity.AuditAction(auditAction),
		Limit:      auditLimit,
	}

	entries, err := store.ListAudit(ctx, filter)
	if err != nil {
		return fmt.Errorf("listing audit log: %w", err)
	}

	switch resolveOutputFormat(cfg, auditOutput) {
	case config.OutputFormatJSON:
		return outputJSON(entries)
	case config.OutputFormatYAML:
		return outputYAML(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No audit entries.")
		return nil
	}

	fmt.Printf("Audit entries (%d):\n", len(entries))
	fmt.Println("  ID       ACTION           SOURCE       EXTERNAL ID            METHOD              CONF   CREATED")
	fmt.Println("  --       ------           ------       -----------            ------              ----   -------")
	for _, e := range entries {
		action := colorAction(e.Action)
		conf := "-"
		if e.Confidence != nil {
			conf = fmt.Sprintf("%.2f", *e.Confidence)
		}
		method := string(e.Method)
		if method == "" {
			method = "-"
		}
		fmt.Printf("  %-8d %-26s %-12s %-22s %-19s %-6s %s\n",
			e.ID, action, e.Source, truncateString(e.ExternalID, 22),
			method, conf, e.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	return nil
}

// colorAction returns a colored action string for terminal display.
func colorAction(action identity.AuditAction) string {
	switch action {
	case identity.AuditMatchSuccess:
		return fmt.Sprintf("\033[32m%s\033[0m", action)
	case identity.AuditMatchConflict:
		return fmt.Sprintf("\033[33m%s\033[0m", action)
	case identity.AuditMatchFailure:
		return fmt.Sprintf("\033[31m%s\033[0m", action)
	default:
		return string(action)
	}
}
