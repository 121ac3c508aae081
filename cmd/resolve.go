package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/playerlink/config"
	"github.com/otherjamesbrown/playerlink/pkg/identity"
	"github.com/otherjamesbrown/playerlink/pkg/identity/resolver"
)

// Resolve command flags
var (
	resolveName      string
	resolvePosition  string
	resolveDOB       string
	resolveTeam      string
	resolveCollege   string
	resolveDraftYear int
	resolveCrossIDs  []string
	resolveInput     string
	resolveDryRun    bool
	resolveOutput    string
)

// NewResolveCommand creates the resolve command.
func NewResolveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <source> <external-id>",
		Short: "Resolve an external player record to a canonical identity",
		Long: `Resolve an external player record to a canonical playerlink identity.

The resolver runs a fixed cascade of matching passes: manual override,
exact identifier, crosswalk via cross-source ids, deterministic name+DOB
matching, and finally fuzzy name matching with metadata bonuses. The first
pass that produces a confident single match wins; ambiguous and unmatched
records are queued for human review.

Metadata flags improve match quality. Name and date of birth enable the
deterministic passes; team, college and draft year add fuzzy-match bonuses.

With --input, reads JSON-lines records from a file (one record per line,
fields: source, external_id, metadata) and resolves them as a batch over a
worker pool. With --dry-run, records are resolved against an empty in-memory
store: input is validated and the cascade runs, but nothing touches the
database.

Flags:
  --name         Player name as reported by the source
  --position     Roster position (QB, RB, WR, ...)
  --dob          Birth date (yyyy-mm-dd)
  --team         Current team (abbreviation or name)
  --college      College name
  --draft-year   Draft year
  --cross-id     Cross-source id as source=id (repeatable)
  --input        JSON-lines file to resolve as a batch
  --dry-run      Validate and run the cascade without a database
  --output       Output format: text, json, yaml

Examples:
  # Resolve a Sleeper id with name metadata
  playerlink resolve sleeper 4046 --name "Patrick Mahomes" --position QB --dob 1995-09-17

  # Resolve a record carrying a GSIS cross-id
  playerlink resolve espn 3139477 --cross-id gsis=00-0033873

  # Resolve a batch file
  playerlink resolve --input records.jsonl

  # Check a batch file without writing anything
  playerlink resolve --input records.jsonl --dry-run`,
		Example: `  playerlink resolve sleeper 4046 --name "Patrick Mahomes" --dob 1995-09-17
  playerlink resolve --input records.jsonl
  playerlink resolve --input records.jsonl --dry-run --output json`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), args)
		},
	}

	cmd.Flags().StringVar(&resolveName, "name", "", "Player name as reported by the source")
	cmd.Flags().StringVar(&resolvePosition, "position", "", "Roster position (QB, RB, WR, ...)")
	cmd.Flags().StringVar(&resolveDOB, "dob", "", "Birth date (yyyy-mm-dd)")
	cmd.Flags().StringVar(&resolveTeam, "team", "", "Current team")
	cmd.Flags().StringVar(&resolveCollege, "college", "", "College name")
	cmd.Flags().IntVar(&resolveDraftYear, "draft-year", 0, "Draft year")
	cmd.Flags().StringArrayVar(&resolveCrossIDs, "cross-id", nil, "Cross-source id as source=id (repeatable)")
	cmd.Flags().StringVarP(&resolveInput, "input", "i", "", "JSON-lines file to resolve as a batch")
	cmd.Flags().BoolVar(&resolveDryRun, "dry-run", false, "Validate and run the cascade without a database")
	cmd.Flags().StringVarP(&resolveOutput, "output", "o", "", "Output format: text, json, yaml")

	return cmd
}

// runResolve executes the resolve command.
func runResolve(ctx context.Context, args []string) error {
	if resolveInput == "" && len(args) < 2 {
		return fmt.Errorf("either <source> <external-id> arguments or --input is required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	log := newLogger(cfg)

	// Pick the store. Dry runs never touch the database.
	var store identity.Store
	if resolveDryRun {
		store = identity.NewMemoryStore()
	} else {
		pool, err := connectToDatabase(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()
		store = identity.NewPostgresStore(pool)
	}

	engine, err := newEngine(cfg, store, log)
	if err != nil {
		return err
	}

	format := resolveOutputFormat(cfg, resolveOutput)

	if resolveInput != "" {
		return runResolveBatch(ctx, engine, format)
	}

	record, err := buildInputRecord(args[0], args[1])
	if err != nil {
		return err
	}

	outcome, err := engine.Resolve(ctx, record)
	if err != nil {
		return fmt.Errorf("resolving %s:%s: %w", record.Source, record.ExternalID, err)
	}

	return outputOutcome(format, record, outcome)
}

// buildInputRecord assembles an InputRecord from args and metadata flags.
func buildInputRecord(source, externalID string) (identity.InputRecord, error) {
	record := identity.InputRecord{
		Source:     identity.Source(source),
		ExternalID: externalID,
	}

	meta := &identity.SourceMetadata{
		Name:      resolveName,
		Position:  identity.Position(strings.ToUpper(resolvePosition)),
		BirthDate: resolveDOB,
		Team:      resolveTeam,
		College:   resolveCollege,
	}
	if resolveDraftYear != 0 {
		year := resolveDraftYear
		meta.DraftYear = &year
	}

	for _, pair := range resolveCrossIDs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return record, fmt.Errorf("invalid --cross-id %q: expected source=id", pair)
		}
		crossSource := identity.Source(parts[0])
		if !crossSource.Valid() {
			return record, fmt.Errorf("invalid --cross-id %q: unknown source %q", pair, parts[0])
		}
		if meta.CrossIDs == nil {
			meta.CrossIDs = make(map[identity.Source]string)
		}
		meta.CrossIDs[crossSource] = parts[1]
	}

	// Only attach metadata when at least one field was supplied.
	if meta.Name != "" || meta.Position != "" || meta.BirthDate != "" ||
		meta.Team != "" || meta.College != "" || meta.DraftYear != nil ||
		len(meta.CrossIDs) > 0 {
		record.Metadata = meta
	}

	return record, nil
}

// runResolveBatch reads a JSON-lines file and resolves it as a batch.
func runResolveBatch(ctx context.Context, engine *resolver.Engine, format config.OutputFormat) error {
	file, err := os.Open(resolveInput)
	if err != nil {
		return fmt.Errorf("opening input file: %w", err)
	}
	defer file.Close()

	var records []identity.InputRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var record identity.InputRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return fmt.Errorf("parsing line %d: %w", lineNo, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input file: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No records in input file.")
		return nil
	}

	result, err := engine.ResolveBatch(ctx, records)
	if err != nil {
		return fmt.Errorf("resolving batch: %w", err)
	}

	return outputBatchResult(format, result)
}

// outputOutcome formats and prints a single resolution outcome.
func outputOutcome(format config.OutputFormat, record identity.InputRecord, outcome resolver.Outcome) error {
	switch format {
	case config.OutputFormatJSON:
		return outputJSON(outcome)
	case config.OutputFormatYAML:
		return outputYAML(outcome)
	}

	switch outcome.Kind {
	case resolver.OutcomeResolved:
		fmt.Printf("\033[32mResolved\033[0m %s:%s\n", record.Source, record.ExternalID)
		fmt.Printf("  Player:     %s\n", outcome.PlayerID)
		fmt.Printf("  Method:     %s\n", outcome.Method)
		fmt.Printf("  Confidence: %.2f\n", outcome.Confidence)
	case resolver.OutcomeAmbiguous:
		fmt.Printf("\033[33mAmbiguous\033[0m %s:%s (%d candidates)\n",
			record.Source, record.ExternalID, len(outcome.Candidates))
		fmt.Println("  PLAYER                                     NAME                      SCORE")
		fmt.Println("  ------                                     ----                      -----")
		for _, c := range outcome.Candidates {
			fmt.Printf("  %-42s %-25s %d\n",
				truncateString(c.PlayerID, 42), truncateString(c.Name, 25), c.Score)
		}
		if outcome.QueueEntryID != 0 {
			fmt.Printf("  Queued for review: entry %d\n", outcome.QueueEntryID)
		}
	default:
		fmt.Printf("\033[31mUnresolved\033[0m %s:%s\n", record.Source, record.ExternalID)
		if outcome.QueueEntryID != 0 {
			fmt.Printf("  Queued for review: entry %d\n", outcome.QueueEntryID)
		}
	}

	return nil
}

// outputBatchResult formats and prints a batch resolution result.
func outputBatchResult(format config.OutputFormat, result *resolver.BatchResult) error {
	switch format {
	case config.OutputFormatJSON:
		return outputJSON(result)
	case config.OutputFormatYAML:
		return outputYAML(result)
	}

	fmt.Printf("Batch %s: %d records in %s\n",
		result.BatchID, len(result.Items), formatDurationMs(result.ElapsedMs))
	fmt.Printf("  \033[32mresolved: %d\033[0m, \033[33mambiguous: %d\033[0m, unresolved: %d",
		result.Resolved, result.Ambiguous, result.Unresolved)
	if result.Failed > 0 {
		fmt.Printf(", \033[31mfailed: %d\033[0m", result.Failed)
	}
	fmt.Println()
	fmt.Println()

	fmt.Println("  SOURCE       EXTERNAL ID           OUTCOME      PLAYER / DETAIL")
	fmt.Println("  ------       -----------           -------      ---------------")
	for _, item := range result.Items {
		detail := item.Outcome.PlayerID
		outcome := string(item.Outcome.Kind)
		if item.Error != "" {
			outcome = "error"
			detail = item.Error
		} else if item.Outcome.Kind == resolver.OutcomeAmbiguous {
			detail = fmt.Sprintf("%d candidates", len(item.Outcome.Candidates))
		}
		fmt.Printf("  %-12s %-21s %-12s %s\n",
			item.Record.Source,
			truncateString(item.Record.ExternalID, 21),
			outcome,
			truncateString(detail, 50))
	}

	return nil
}
