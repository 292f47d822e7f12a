package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailtrail/internal/config"
	"github.com/custodia-labs/mailtrail/internal/logger"
	"github.com/custodia-labs/mailtrail/outlook"
)

var (
	// Version is set by goreleaser ldflags.
	version = "dev"

	// Verbose enables debug logging.
	verbose bool

	// Services injected for CLI commands.
	client *outlook.Client
	cfg    config.Config
)

// Services holds configuration for CLI commands.
type Services struct {
	Client *outlook.Client
	Config config.Config
}

// SetServices injects service implementations for CLI commands.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	client = s.Client
	cfg = s.Config
}

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "mailtrail",
	Short: "Query the Exchange Online mailbox activity log",
	Long: `Mailtrail queries the activity log Exchange Online keeps for a mailbox:
deliveries, sends, reads, moves, deletes and more, each tagged with the
class of client application that produced it.

Run 'mailtrail login' once to store credentials, then 'mailtrail activity'
to list events and 'mailtrail message' to look up the mail item behind one.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
}

// wrapClientError adds command guidance to errors surfaced by the API client.
func wrapClientError(action string, err error) error {
	switch {
	case outlook.IsConfiguration(err):
		return fmt.Errorf("%s: %w (run 'mailtrail login' first, or pass --mailbox)", action, err)
	case outlook.IsUnauthorised(err):
		return fmt.Errorf("%s: %w (the service rejected the credentials; run 'mailtrail login' again)", action, err)
	case outlook.IsRateLimited(err):
		return fmt.Errorf("%s: %w (the service asked for a pause; retry shortly)", action, err)
	default:
		return fmt.Errorf("%s: %w", action, err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose debug output")

	// Use PersistentPreRunE to set verbose mode before any command executes
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		return nil
	}
}
