package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailtrail/outlook"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "List mailbox activity events",
	Long: `List activity events recorded for a mailbox, oldest first.

Without --start and --end the query covers the last calendar month. The
activity and application types the service recognises can be listed with
'mailtrail types'.

Examples:

  # Last month of activity for the stored login
  mailtrail activity

  # Deletions from mobile clients in January
  mailtrail activity --start 2024-01-01 --end 2024-02-01 --type Delete --app Mobile

  # Every event in the window, written as CSV
  mailtrail activity --all --format csv --output activity.csv`,
	RunE: runActivity,
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List recognised activity and application types",
	RunE:  runTypes,
}

// Flags for activity.
var (
	activityMailbox string
	activityStart   string
	activityEnd     string
	activityType    string
	activityApp     string
	activityTop     int
	activitySkip    int
	activityAll     bool
	activityFormat  string
	activityOutput  string
)

func init() {
	activityCmd.Flags().StringVarP(&activityMailbox, "mailbox", "m", "",
		"mailbox to query (defaults to the stored login)")
	activityCmd.Flags().StringVar(&activityStart, "start", "",
		"window start, RFC 3339 or YYYY-MM-DD (default one month before end)")
	activityCmd.Flags().StringVar(&activityEnd, "end", "",
		"window end, RFC 3339 or YYYY-MM-DD (default now)")
	activityCmd.Flags().StringVarP(&activityType, "type", "t", "",
		"only events of this activity type (see 'mailtrail types')")
	activityCmd.Flags().StringVarP(&activityApp, "app", "a", "",
		"only events from this application type (see 'mailtrail types')")
	activityCmd.Flags().IntVar(&activityTop, "top", 0,
		"events per page, 1 to 1000 (default 500)")
	activityCmd.Flags().IntVar(&activitySkip, "skip", 0,
		"events to skip from the start of the result set")
	activityCmd.Flags().BoolVar(&activityAll, "all", false,
		"fetch every page in the window, not just the first")
	activityCmd.Flags().StringVarP(&activityFormat, "format", "f", "",
		"output format: table, json or csv (default table)")
	activityCmd.Flags().StringVarP(&activityOutput, "output", "o", "",
		"write output to a file instead of stdout")
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(typesCmd)
}

func runActivity(cmd *cobra.Command, _ []string) error {
	if client == nil {
		return errors.New("api client not configured")
	}

	query := outlook.ActivityQuery{
		Mailbox:      activityMailbox,
		MaxResults:   activityTop,
		StartFrom:    activitySkip,
		ActivityType: outlook.ActivityType(activityType),
		AppType:      outlook.AppType(activityApp),
	}
	if query.MaxResults == 0 {
		query.MaxResults = cfg.Top
	}

	var err error
	if query.Start, err = parseTimeFlag(activityStart); err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	if query.End, err = parseTimeFlag(activityEnd); err != nil {
		return fmt.Errorf("invalid --end: %w", err)
	}

	ctx := context.Background()

	var activities []outlook.Activity
	if activityAll {
		activities, err = client.GetAllMailActivity(ctx, query)
	} else {
		activities, err = client.GetMailActivity(ctx, query)
	}
	if err != nil {
		return wrapClientError("failed to fetch activities", err)
	}

	out, closeOut, err := outputWriter(cmd, activityOutput)
	if err != nil {
		return err
	}
	if err := renderActivities(out, resolveFormat(activityFormat), activities); err != nil {
		_ = closeOut()
		return err
	}
	return closeOut()
}

func runTypes(cmd *cobra.Command, _ []string) error {
	cmd.Println("Activity types (--type):")
	for _, t := range outlook.ActivityTypes() {
		cmd.Printf("  %s\n", t)
	}
	cmd.Println()
	cmd.Println("Application types (--app):")
	for _, a := range outlook.AppTypes() {
		cmd.Printf("  %s\n", a)
	}
	return nil
}

// parseTimeFlag parses a time flag value. An empty value is left unset so
// the client applies its window defaults.
func parseTimeFlag(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("expected an RFC 3339 timestamp or YYYY-MM-DD date, got %q", value)
}
