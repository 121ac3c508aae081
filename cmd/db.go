// Package cmd provides CLI commands for the playerlink tool.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/playerlink/config"
	"github.com/otherjamesbrown/playerlink/pkg/db"
)

// Database command flags
var (
	dbDryRun       bool
	dbTarget       string
	dbOutput       string
	dbMigrationDir string
)

// DbCommandDeps holds the dependencies for database commands.
type DbCommandDeps struct {
	Config      *config.CLIConfig
	LoadConfig  func() (*config.CLIConfig, error)
	ConnectToDB func(context.Context, *config.CLIConfig) (*pgxpool.Pool, error)
}

// DefaultDbDeps returns the default dependencies for production use.
func DefaultDbDeps() *DbCommandDeps {
	return &DbCommandDeps{
		LoadConfig:  config.LoadConfig,
		ConnectToDB: connectToDatabase,
	}
}

// NewDbCommand creates the root db command with all subcommands.
func NewDbCommand() *cobra.Command {
	deps := DefaultDbDeps()

	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
		Long: `Database management commands for playerlink.

Manage database schema migrations and view migration status.

The db command connects directly to the PostgreSQL database to run migrations
and check status. It uses the database settings from ~/.playerlink/config.yaml,
overridable with DATABASE_URL or DB_* environment variables.

Migration files are SQL files in the migrations directory, named with numeric
prefixes (e.g., 001_identity_schema.sql, 002_add_indexes.sql). Migrations are
applied in alphabetical order and tracked in the schema_migrations table.

Examples:
  # Show migration status
  playerlink db status

  # Apply all pending migrations
  playerlink db migrate

  # Preview migrations without applying
  playerlink db migrate --dry-run

  # Apply migrations up to a specific version
  playerlink db migrate --target 002`,
		Aliases: []string{"database", "migrations"},
	}

	// Add persistent flags
	cmd.PersistentFlags().StringVarP(&dbMigrationDir, "migrations", "m", "migrations", "Path to migrations directory")

	// Add subcommands
	cmd.AddCommand(newDbMigrateCommand(deps))
	cmd.AddCommand(newDbStatusCommand(deps))

	return cmd
}

// newDbMigrateCommand creates the 'db migrate' subcommand.
func newDbMigrateCommand(deps *DbCommandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Apply pending database migrations.

Shows pending migrations before applying them. Migrations are executed in
alphabetical order based on their filename prefix. Each migration is run
in a transaction, and the migration is recorded in schema_migrations table.

If a migration fails, the transaction is rolled back and no further migrations
are attempted.

Flags:
  --dry-run      Show what would be applied without executing migrations
  --target       Apply migrations up to and including this version (e.g., 002)
  --migrations   Path to migrations directory (default: migrations)

Examples:
  # Apply all pending migrations
  playerlink db migrate

  # Preview migrations without applying
  playerlink db migrate --dry-run

  # Apply migrations up to version 002
  playerlink db migrate --target 002

  # Use a custom migrations directory
  playerlink db migrate --migrations ./db/migrations`,
		Example: `  playerlink db migrate
  playerlink db migrate --dry-run
  playerlink db migrate --target 002`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDbMigrate(cmd.Context(), deps)
		},
	}

	cmd.Flags().BoolVar(&dbDryRun, "dry-run", false, "Show what would be applied without executing")
	cmd.Flags().StringVarP(&dbTarget, "target", "t", "", "Target version to migrate to (e.g., 002)")

	return cmd
}

// newDbStatusCommand creates the 'db status' subcommand.
func newDbStatusCommand(deps *DbCommandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show database migration status",
		Long: `Show the current state of database migrations.

Displays three categories of migrations:
  - Applied: migrations that have been applied and have corresponding files
  - Pending: migrations with files that have not been applied yet
  - Drift: migrations that were applied but no longer have corresponding files

The status command helps identify which migrations need to be applied and
detect any drift between the filesystem and the database.

Flags:
  --output       Output format: text, json, yaml (default: text)
  --format       Alias for --output
  --migrations   Path to migrations directory (default: migrations)

Examples:
  # Show migration status
  playerlink db status

  # Output as JSON for programmatic use
  playerlink db status --output json

  # Check status with custom migrations directory
  playerlink db status --migrations ./db/migrations`,
		Example: `  playerlink db status
  playerlink db status --output json
  playerlink db status --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDbStatus(cmd.Context(), deps)
		},
	}

	cmd.Flags().StringVarP(&dbOutput, "output", "o", "", "Output format: text, json, yaml")
	cmd.Flags().StringVarP(&dbOutput, "format", "f", "", "Output format: text, json, yaml (alias for --output)")

	return cmd
}

// runDbMigrate executes the db migrate command.
func runDbMigrate(ctx context.Context, deps *DbCommandDeps) error {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	deps.Config = cfg

	// Connect to database
	pool, err := deps.ConnectToDB(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	// Get pending migrations first
	pending, err := db.GetPendingMigrations(ctx, pool, dbMigrationDir)
	if err != nil {
		return fmt.Errorf("getting pending migrations: %w", err)
	}

	if len(pending) == 0 {
		fmt.Println("No pending migrations.")
		return nil
	}

	// Show pending migrations
	fmt.Printf("Pending migrations (%d):\n", len(pending))
	for _, m := range pending {
		fmt.Printf("  %s - %s\n", m.Version, m.Name)
	}
	fmt.Println()

	if dbDryRun {
		fmt.Println("Dry run mode: no migrations applied.")
		return nil
	}

	// Confirm before applying
	fmt.Print("Apply these migrations? (y/N): ")
	var response string
	fmt.Scanln(&response)
	if strings.ToLower(response) != "y" {
		fmt.Println("Migration cancelled.")
		return nil
	}

	// Apply migrations
	var result *db.MigrationResult
	if dbTarget != "" {
		fmt.Printf("Applying migrations up to version %s...\n", dbTarget)
		result, err = db.RunMigrationsToTarget(ctx, pool, dbMigrationDir, dbTarget)
	} else {
		fmt.Println("Applying all pending migrations...")
		result, err = db.RunMigrations(ctx, pool, dbMigrationDir)
	}

	if err != nil {
		fmt.Printf("\n\033[31mMigration failed:\033[0m %v\n", err)
		if result != nil && len(result.Applied) > 0 {
			fmt.Printf("\nSuccessfully applied before failure:\n")
			for _, v := range result.Applied {
				fmt.Printf("  \033[32m✓\033[0m %s\n", v)
			}
		}
		return err
	}

	// Show results
	fmt.Println()
	if len(result.Applied) > 0 {
		fmt.Printf("\033[32mSuccessfully applied %d migration(s):\033[0m\n", len(result.Applied))
		for _, v := range result.Applied {
			fmt.Printf("  \033[32m✓\033[0m %s\n", v)
		}
	}
	if len(result.Skipped) > 0 {
		fmt.Printf("\nSkipped %d migration(s) (already applied):\n", len(result.Skipped))
		for _, v := range result.Skipped {
			fmt.Printf("  - %s\n", v)
		}
	}

	fmt.Println()
	fmt.Println("\033[32mMigrations completed successfully.\033[0m")
	return nil
}

// runDbStatus executes the db status command.
func runDbStatus(ctx context.Context, deps *DbCommandDeps) error {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	deps.Config = cfg

	// Connect to database
	pool, err := deps.ConnectToDB(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	// Pool health first, then migration state.
	health := db.Check(ctx, pool)

	status, err := db.GetMigrationStatus(ctx, pool, dbMigrationDir)
	if err != nil {
		return fmt.Errorf("getting migration status: %w", err)
	}

	// Determine output format
	format := cfg.OutputFormat
	if dbOutput != "" {
		format = config.OutputFormat(dbOutput)
	}

	return outputDbStatus(format, &dbStatusReport{Health: health, Migrations: status})
}

// dbStatusReport is the combined payload of the db status command.
type dbStatusReport struct {
	Health     *db.HealthStatus    `json:"health" yaml:"health"`
	Migrations *db.MigrationStatus `json:"migrations" yaml:"migrations"`
}

// outputDbStatus formats and outputs the database status report.
func outputDbStatus(format config.OutputFormat, report *dbStatusReport) error {
	switch format {
	case config.OutputFormatJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case config.OutputFormatYAML:
		enc := yaml.NewEncoder(os.Stdout)
		return enc.Encode(report)
	default:
		outputHealthText(report.Health)
		return outputMigrationStatusText(report.Migrations)
	}
}

// outputHealthText formats connection health for terminal display.
func outputHealthText(h *db.HealthStatus) {
	if h == nil {
		return
	}
	if h.Healthy {
		fmt.Printf("\033[32mDatabase: healthy\033[0m (ping %dms, conns %d open / %d idle / %d max)\n\n",
			h.LatencyMs, h.TotalConns, h.IdleConns, h.MaxConns)
		return
	}
	fmt.Printf("\033[31mDatabase: unhealthy\033[0m %s\n\n", h.Error)
}

// outputMigrationStatusText formats migration status for terminal display.
func outputMigrationStatusText(status *db.MigrationStatus) error {
	// Applied migrations
	if len(status.Applied) > 0 {
		fmt.Printf("\033[32mApplied Migrations (%d):\033[0m\n", len(status.Applied))
		fmt.Println("  VERSION                    NAME                              APPLIED")
		fmt.Println("  -------                    ----                              -------")
		for _, m := range status.Applied {
			appliedAt := "-"
			if m.AppliedAt != nil {
				appliedAt = m.AppliedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Printf("  %-26s %-33s %s\n",
				truncateString(m.Version, 26),
				truncateString(m.Name, 33),
				appliedAt)
		}
		fmt.Println()
	}

	// Pending migrations
	if len(status.Pending) > 0 {
		fmt.Printf("\033[33mPending Migrations (%d):\033[0m\n", len(status.Pending))
		fmt.Println("  VERSION                    NAME")
		fmt.Println("  -------                    ----")
		for _, m := range status.Pending {
			fmt.Printf("  %-26s %s\n",
				truncateString(m.Version, 26),
				m.Name)
		}
		fmt.Println()
	}

	// Drift (migrations applied but files missing)
	if len(status.Drift) > 0 {
		fmt.Printf("\033[31mDrift (%d) - applied but file missing:\033[0m\n", len(status.Drift))
		fmt.Println("  VERSION                    NAME                              APPLIED")
		fmt.Println("  -------                    ----                              -------")
		for _, m := range status.Drift {
			appliedAt := "-"
			if m.AppliedAt != nil {
				appliedAt = m.AppliedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Printf("  %-26s %-33s %s\n",
				truncateString(m.Version, 26),
				truncateString(m.Name, 33),
				appliedAt)
		}
		fmt.Println()
	}

	// Summary
	if len(status.Applied) == 0 && len(status.Pending) == 0 && len(status.Drift) == 0 {
		fmt.Println("No migrations found.")
		return nil
	}

	fmt.Printf("Summary: %d applied, %d pending",
		len(status.Applied), len(status.Pending))
	if len(status.Drift) > 0 {
		fmt.Printf(", \033[31m%d drift\033[0m", len(status.Drift))
	}
	fmt.Println()

	return nil
}
