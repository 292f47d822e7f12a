package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailtrail/outlook"
)

// Output formats accepted by --format.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
)

// activityItemIDWidth caps item ids in table output; the full values run to
// hundreds of characters.
const activityItemIDWidth = 32

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	tableBorderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	fieldLabelStyle  = lipgloss.NewStyle().Bold(true)
)

// resolveFormat picks the output format: the flag wins, then the configured
// default, then a table.
func resolveFormat(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if cfg.Format != "" {
		return cfg.Format
	}
	return formatTable
}

// outputWriter returns the destination for rendered output and a close
// function for it. The close function reports flush errors for files.
func outputWriter(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

func renderActivities(w io.Writer, format string, activities []outlook.Activity) error {
	switch format {
	case formatTable:
		return renderActivitiesTable(w, activities)
	case formatJSON:
		return renderJSON(w, activities)
	case formatCSV:
		return renderActivitiesCSV(w, activities)
	default:
		return fmt.Errorf("unknown output format: %s (expected table, json or csv)", format)
	}
}

func renderActivitiesTable(w io.Writer, activities []outlook.Activity) error {
	if len(activities) == 0 {
		_, err := fmt.Fprintln(w, "No activity in the requested window.")
		return err
	}

	rows := make([][]string, 0, len(activities))
	for _, a := range activities {
		rows = append(rows, []string{
			a.Timestamp,
			string(a.ActivityIDType),
			string(a.AppIDType),
			truncate(a.ActivityItemID, activityItemIDWidth),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(tableBorderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		}).
		Headers("TIMESTAMP", "TYPE", "APP", "ITEM ID").
		Rows(rows...)

	if _, err := fmt.Fprintln(w, t); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d events. Use --format json for full item ids.\n", len(activities))
	return err
}

func renderActivitiesCSV(w io.Writer, activities []outlook.Activity) error {
	cw := csv.NewWriter(w)
	header := []string{
		"timestamp", "activity_type", "app_type",
		"activity_item_id", "client_session_id", "activity_creation_time",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, a := range activities {
		record := []string{
			a.Timestamp,
			string(a.ActivityIDType),
			string(a.AppIDType),
			a.ActivityItemID,
			a.ClientSessionID,
			a.ActivityCreationTime,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func renderMessage(w io.Writer, format string, msg *outlook.Message) error {
	switch format {
	case formatTable:
		return renderMessageText(w, msg)
	case formatJSON:
		return renderJSON(w, msg)
	default:
		return fmt.Errorf("unknown output format: %s (expected table or json)", format)
	}
}

func renderMessageText(w io.Writer, msg *outlook.Message) error {
	fields := []struct {
		label string
		value string
	}{
		{"Subject", msg.Subject},
		{"From", formatRecipient(msg.From)},
		{"To", outlook.FormatRecipients(msg.ToRecipients)},
		{"Cc", outlook.FormatRecipients(msg.CcRecipients)},
		{"Bcc", outlook.FormatRecipients(msg.BccRecipients)},
		{"Sent", msg.DateTimeSent},
		{"Received", msg.DateTimeReceived},
		{"Importance", msg.Importance},
		{"Categories", strings.Join(msg.Categories, ", ")},
		{"Attachments", yesNo(msg.HasAttachments)},
		{"Read", yesNo(msg.IsRead)},
		{"Draft", yesNo(msg.IsDraft)},
		{"Id", msg.ID},
	}

	for _, f := range fields {
		if f.value == "" {
			continue
		}
		label := fieldLabelStyle.Render(fmt.Sprintf("%-12s", f.label+":"))
		if _, err := fmt.Fprintf(w, "%s %s\n", label, f.value); err != nil {
			return err
		}
	}

	// The body is only present when it was requested; fall back to the
	// preview the restricted field set carries.
	if msg.Body != nil {
		if _, err := fmt.Fprintf(w, "\n%s\n", msg.Body.Content); err != nil {
			return err
		}
	} else if msg.BodyPreview != "" {
		if _, err := fmt.Fprintf(w, "\n%s\n", msg.BodyPreview); err != nil {
			return err
		}
	}
	return nil
}

func formatRecipient(r *outlook.Recipient) string {
	if r == nil {
		return ""
	}
	return outlook.FormatRecipients([]outlook.Recipient{*r})
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
