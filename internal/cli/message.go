package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailtrail/outlook"
)

var messageCmd = &cobra.Command{
	Use:   "message [activity-item-id]",
	Short: "Show the mail item an activity event refers to",
	Long: `Fetch the mail item a mailbox activity event refers to, using the item id
reported by 'mailtrail activity'.

By default only message headers and flags are fetched. Pass --include-body
to fetch the complete message, body included.`,
	Args: cobra.ExactArgs(1),
	RunE: runMessage,
}

// Flags for message.
var (
	messageMailbox     string
	messageIncludeBody bool
	messageFormat      string
	messageOutput      string
)

func init() {
	messageCmd.Flags().StringVarP(&messageMailbox, "mailbox", "m", "",
		"mailbox to query (defaults to the stored login)")
	messageCmd.Flags().BoolVar(&messageIncludeBody, "include-body", false,
		"fetch the complete message including its body")
	messageCmd.Flags().StringVarP(&messageFormat, "format", "f", "",
		"output format: table or json (default table)")
	messageCmd.Flags().StringVarP(&messageOutput, "output", "o", "",
		"write output to a file instead of stdout")
	rootCmd.AddCommand(messageCmd)
}

func runMessage(cmd *cobra.Command, args []string) error {
	if client == nil {
		return errors.New("api client not configured")
	}

	query := outlook.MessageQuery{
		Mailbox:        messageMailbox,
		ActivityItemID: args[0],
		IncludeBody:    messageIncludeBody,
	}

	msg, err := client.GetMailActivityDetails(context.Background(), query)
	if err != nil {
		if outlook.IsNotFound(err) {
			return fmt.Errorf("message not found: %w (item ids change when a message moves or is deleted)", err)
		}
		return wrapClientError("failed to fetch message", err)
	}

	out, closeOut, err := outputWriter(cmd, messageOutput)
	if err != nil {
		return err
	}
	if err := renderMessage(out, resolveFormat(messageFormat), msg); err != nil {
		_ = closeOut()
		return err
	}
	return closeOut()
}
