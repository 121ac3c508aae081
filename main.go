// Package main provides the playerlink CLI entry point.
// playerlink resolves external sports-data player records to canonical
// identities and manages the identity store behind them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/playerlink/cmd"
	"github.com/otherjamesbrown/playerlink/config"
	"github.com/otherjamesbrown/playerlink/pkg/buildinfo"
)

// Global flags and state.
var (
	outputFormat string
	debug        bool

	// cfg holds the loaded configuration.
	cfg *config.CLIConfig
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "playerlink",
	Short: "Player identity resolution for sports data feeds",
	Long: `playerlink resolves external player records to canonical identities.

Every sports data provider names players differently: GSIS ids, Sleeper
ids, ESPN ids, name spellings that disagree. playerlink maintains one
canonical identity per real-world player and maps each provider's id onto
it through a cascading resolver: manual overrides, exact identifiers,
cross-source id crosswalks, deterministic name+DOB matching, and fuzzy
name matching with metadata bonuses. Records it cannot settle confidently
are queued for human review, and every resolution attempt is recorded in
an append-only audit log.

COMMON WORKFLOWS:
  Resolve a record:   playerlink resolve sleeper 4046 --name "Patrick Mahomes"
  Resolve a batch:    playerlink resolve --input records.jsonl
  Review the queue:   playerlink queue list  →  playerlink queue show <id>
  Settle a record:    edit the override file  →  playerlink override check
  Audit a session:    playerlink audit list --session <id>
  Set up schema:      playerlink db migrate

DISCOVERY:
  playerlink <command> --help   Subcommands, flags, and examples
  playerlink db status          Migration state of the identity schema`,
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		// Skip initialization for commands that don't need it.
		if c.Name() == "version" || c.Name() == "help" || c.Name() == "completion" {
			return nil
		}

		// Load configuration.
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		// Override with command-line flags.
		if outputFormat != "" {
			cfg.OutputFormat = config.OutputFormat(outputFormat)
		}
		if debug {
			cfg.Debug = true
		}

		return nil
	},
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the version, commit hash, and build time of the playerlink CLI.

Examples:
  playerlink version`,
	Run: func(c *cobra.Command, args []string) {
		info := buildinfo.Get("playerlink")
		out := c.OutOrStdout()
		fmt.Fprintf(out, "playerlink version %s\n", info.Version)
		fmt.Fprintf(out, "  commit:     %s\n", info.Commit)
		fmt.Fprintf(out, "  built:      %s\n", info.BuildTime)
		fmt.Fprintf(out, "  go version: %s\n", info.GoVersion)
	},
}

// configCmd manages CLI configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long:  `View and modify the playerlink CLI configuration settings.`,
}

// configShowCmd displays current configuration.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current CLI configuration values.`,
	RunE: func(c *cobra.Command, args []string) error {
		if cfg == nil {
			var err error
			cfg, err = config.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
		}

		configPath, _ := config.ConfigPath()

		fmt.Println("Current configuration:")
		fmt.Printf("  Config file:     %s\n", configPath)
		fmt.Printf("  Output format:   %s\n", cfg.OutputFormat)
		fmt.Printf("  Database:        %s@%s:%d/%s (sslmode=%s)\n",
			cfg.Database.User, cfg.Database.Host, cfg.Database.Port,
			cfg.Database.Database, cfg.Database.SSLMode)
		fmt.Printf("  Keyring:         %t\n", cfg.Database.PasswordFromKeyring)
		fmt.Printf("  Cache:           enabled=%t addr=%s\n", cfg.Cache.Enabled, cfg.Cache.Addr)
		fmt.Printf("  Overrides file:  %s\n", valueOrDefault(cfg.OverridesPath, "(not set)"))
		fmt.Printf("  Migrations dir:  %s\n", cfg.MigrationsDir)
		fmt.Printf("  Fuzzy high:      %d\n", cfg.Resolver.Thresholds.FuzzyHigh)
		fmt.Printf("  Fuzzy medium:    %d\n", cfg.Resolver.Thresholds.FuzzyMedium)
		fmt.Printf("  Margin:          %d\n", cfg.Resolver.Thresholds.Margin)
		fmt.Printf("  Debug:           %t\n", cfg.Debug)

		return nil
	},
}

// configInitCmd initializes configuration.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Long:  `Create a new configuration file with default values if one doesn't exist.`,
	RunE: func(c *cobra.Command, args []string) error {
		configPath, err := config.ConfigPath()
		if err != nil {
			return fmt.Errorf("getting config path: %w", err)
		}

		// Check if config already exists.
		if _, err := os.Stat(configPath); err == nil {
			fmt.Printf("Configuration file already exists: %s\n", configPath)
			fmt.Println("Use 'playerlink config show' to view current settings.")
			return nil
		}

		// Create default config.
		defaultCfg := config.DefaultConfig()
		if err := config.SaveConfig(defaultCfg); err != nil {
			return fmt.Errorf("saving configuration: %w", err)
		}

		fmt.Printf("Created configuration file: %s\n", configPath)
		fmt.Println("\nDefault settings:")
		fmt.Printf("  Database:      %s@%s:%d/%s\n",
			defaultCfg.Database.User, defaultCfg.Database.Host,
			defaultCfg.Database.Port, defaultCfg.Database.Database)
		fmt.Printf("  Output format: %s\n", defaultCfg.OutputFormat)

		return nil
	},
}

// configSetCmd sets a configuration value.
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the config file.

Available keys:
  output_format   - Default output format (text, json, yaml)
  db_host         - PostgreSQL host
  db_port         - PostgreSQL port
  db_name         - PostgreSQL database name
  db_user         - PostgreSQL user
  db_sslmode      - PostgreSQL SSL mode
  overrides_path  - Path to the manual override YAML file (supports ~)
  migrations_dir  - Path to the SQL migrations directory
  debug           - Enable debug mode (true/false)

Examples:
  playerlink config set output_format json
  playerlink config set db_host db01.internal
  playerlink config set overrides_path ~/.playerlink/overrides.yaml`,
	Args: cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		// Load current config.
		currentCfg, err := config.LoadConfig()
		if err != nil {
			// If config doesn't exist, start with defaults.
			currentCfg = config.DefaultConfig()
		}

		// Set the value.
		switch key {
		case "output_format":
			format := config.OutputFormat(value)
			if !format.IsValid() {
				return fmt.Errorf("invalid output format: %s (must be text, json, or yaml)", value)
			}
			currentCfg.OutputFormat = format
		case "db_host":
			currentCfg.Database.Host = value
		case "db_port":
			var port int
			if _, err := fmt.Sscanf(value, "%d", &port); err != nil || port <= 0 {
				return fmt.Errorf("invalid port: %s", value)
			}
			currentCfg.Database.Port = port
		case "db_name":
			currentCfg.Database.Database = value
		case "db_user":
			currentCfg.Database.User = value
		case "db_sslmode":
			currentCfg.Database.SSLMode = value
		case "overrides_path":
			// Validate the path is expandable.
			expanded, err := config.ExpandPath(value)
			if err != nil {
				return fmt.Errorf("invalid overrides path: %w", err)
			}
			// Store the original value (with ~) for readability.
			currentCfg.OverridesPath = value
			fmt.Printf("  (expands to: %s)\n", expanded)
		case "migrations_dir":
			currentCfg.MigrationsDir = value
		case "debug":
			if value == "true" || value == "1" {
				currentCfg.Debug = true
			} else if value == "false" || value == "0" {
				currentCfg.Debug = false
			} else {
				return fmt.Errorf("invalid debug value: %s (must be true or false)", value)
			}
		default:
			return fmt.Errorf("unknown configuration key: %s", key)
		}

		// Save the config.
		if err := config.SaveConfig(currentCfg); err != nil {
			return fmt.Errorf("saving configuration: %w", err)
		}

		fmt.Printf("Set %s = %s\n", key, value)
		return nil
	},
}

// completionCmd generates shell completion scripts.
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for playerlink.

To load completions:

Bash:
  $ source <(playerlink completion bash)

Zsh:
  $ playerlink completion zsh > "${fpath[1]}/_playerlink"

Fish:
  $ playerlink completion fish | source

PowerShell:
  PS> playerlink completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(c *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		}
		return nil
	},
}

// valueOrDefault returns the value if non-empty, otherwise the default.
func valueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

func init() {
	// Global flags.
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "", "output format: text, json, yaml")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add command groups for organized help output.
	rootCmd.AddGroup(
		&cobra.Group{ID: "resolve", Title: "Resolution:"},
		&cobra.Group{ID: "review", Title: "Review & Audit:"},
		&cobra.Group{ID: "ops", Title: "Operations:"},
		&cobra.Group{ID: "setup", Title: "Setup:"},
	)

	// Resolution
	resolveCmd := cmd.NewResolveCommand()
	resolveCmd.GroupID = "resolve"
	rootCmd.AddCommand(resolveCmd)

	playerCmd := cmd.NewPlayerCommand()
	playerCmd.GroupID = "resolve"
	rootCmd.AddCommand(playerCmd)

	// Review & Audit
	queueCmd := cmd.NewQueueCommand()
	queueCmd.GroupID = "review"
	rootCmd.AddCommand(queueCmd)

	auditCmd := cmd.NewAuditCommand()
	auditCmd.GroupID = "review"
	rootCmd.AddCommand(auditCmd)

	overrideCmd := cmd.NewOverrideCommand()
	overrideCmd.GroupID = "review"
	rootCmd.AddCommand(overrideCmd)

	// Operations
	dbCmd := cmd.NewDbCommand()
	dbCmd.GroupID = "ops"
	rootCmd.AddCommand(dbCmd)

	// Setup
	configCmd.GroupID = "setup"
	rootCmd.AddCommand(configCmd)

	authCmd := cmd.NewAuthCommand()
	authCmd.GroupID = "setup"
	rootCmd.AddCommand(authCmd)

	completionCmd.GroupID = "setup"
	rootCmd.AddCommand(completionCmd)

	versionCmd.GroupID = "setup"
	rootCmd.AddCommand(versionCmd)

	// Config subcommands.
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
}

func main() {
	// Set up signal handling for graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
		// Give in-flight work a moment to observe cancellation.
		time.Sleep(100 * time.Millisecond)
		os.Exit(0)
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
