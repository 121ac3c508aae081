package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/otherjamesbrown/playerlink/credentials"
)

// NewAuthCommand creates the auth command with its subcommands.
func NewAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored database credentials",
		Long: `Manage the stored database and cache credentials.

Passwords are stored encrypted in ~/.playerlink/credentials.yaml. The
encryption key lives in the system keyring (macOS Keychain, Windows
Credential Manager, Linux Secret Service); in CI set
PLAYERLINK_ENCRYPTION_KEY to a 64-character hex string instead.

Set database.password_from_keyring: true in the config to make database
commands read the stored password.

Examples:
  # Store the database password (prompted, hidden input)
  playerlink auth set-db-password

  # Store the Redis password
  playerlink auth set-cache-password

  # Show stored credentials (masked)
  playerlink auth show

  # Remove stored credentials
  playerlink auth clear`,
	}

	cmd.AddCommand(newAuthSetDbPasswordCommand())
	cmd.AddCommand(newAuthSetCachePasswordCommand())
	cmd.AddCommand(newAuthShowCommand())
	cmd.AddCommand(newAuthClearCommand())

	return cmd
}

// newAuthSetDbPasswordCommand creates the 'auth set-db-password' subcommand.
func newAuthSetDbPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "set-db-password",
		Short:   "Store the database password in the encrypted credential file",
		Example: `  playerlink auth set-db-password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthSetPassword("Database password: ", func(creds *credentials.Credentials, pw string) {
				creds.DatabasePassword = pw
			})
		},
	}
}

// newAuthSetCachePasswordCommand creates the 'auth set-cache-password' subcommand.
func newAuthSetCachePasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "set-cache-password",
		Short:   "Store the Redis password in the encrypted credential file",
		Example: `  playerlink auth set-cache-password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthSetPassword("Cache password: ", func(creds *credentials.Credentials, pw string) {
				creds.CachePassword = pw
			})
		},
	}
}

// runAuthSetPassword prompts for a password and stores it via set.
func runAuthSetPassword(prompt string, set func(*credentials.Credentials, string)) error {
	password, err := promptPassword(prompt)
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("empty password not stored")
	}

	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("opening credential store: %w", err)
	}

	// Preserve any other stored credential.
	creds, err := store.Load()
	if err != nil {
		creds = &credentials.Credentials{}
	}
	set(creds, password)

	if err := store.Save(creds); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}

	path, _ := credentials.CredentialsPath()
	fmt.Printf("Password stored (encrypted) in %s\n", path)
	return nil
}

// promptPassword reads a password with hidden input, falling back to plain
// input when stdin is not a terminal.
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // Add newline after hidden input
	if err == nil {
		return strings.TrimSpace(string(passwordBytes)), nil
	}

	// Fallback to regular input if terminal not available
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimSpace(password), nil
}

// newAuthShowCommand creates the 'auth show' subcommand.
func newAuthShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "show",
		Short:   "Show stored credentials (masked)",
		Example: `  playerlink auth show`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthShow()
		},
	}
}

// runAuthShow executes the auth show command.
func runAuthShow() error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("opening credential store: %w", err)
	}

	creds, err := store.Load()
	if err != nil {
		if err == credentials.ErrNoCredentials {
			fmt.Println("No credentials stored.")
			return nil
		}
		return fmt.Errorf("loading credentials: %w", err)
	}

	path, _ := credentials.CredentialsPath()
	fmt.Printf("Credentials file: %s\n", path)
	if creds.DatabasePassword != "" {
		fmt.Printf("  Database password: %s\n", credentials.MaskCredential(creds.DatabasePassword))
	}
	if creds.CachePassword != "" {
		fmt.Printf("  Cache password:    %s\n", credentials.MaskCredential(creds.CachePassword))
	}
	if creds.DatabaseUser != "" {
		fmt.Printf("  Database user:     %s\n", creds.DatabaseUser)
	}
	if !creds.LastUpdated.IsZero() {
		fmt.Printf("  Last updated:      %s\n", creds.LastUpdated.Format("2006-01-02 15:04:05"))
	}

	return nil
}

// newAuthClearCommand creates the 'auth clear' subcommand.
func newAuthClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "clear",
		Short:   "Remove stored credentials",
		Example: `  playerlink auth clear`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := credentials.NewStore()
			if err != nil {
				return fmt.Errorf("opening credential store: %w", err)
			}
			if err := store.Delete(); err != nil {
				return fmt.Errorf("removing credentials: %w", err)
			}
			fmt.Println("Credentials removed.")
			return nil
		},
	}
}
