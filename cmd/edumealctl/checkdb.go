package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/edumeal/edumeal-api/internal/domain/activity"
	"github.com/edumeal/edumeal-api/internal/pkg/database"
)

var checkedTables = []string{"students", "subscriptions", "tickets", "logs", "eligibility_reports", "integrations"}

func newCheckDBCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "check-db",
		Short: "Print table counts and recent webhook activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer database.ClosePostgres(db)

			out := cmd.OutOrStdout()
			if err := printCounts(cmd, db, out); err != nil {
				return err
			}

			entries, err := activity.NewRepository(db).RecentByTypes(cmd.Context(),
				[]activity.Type{activity.TypeWebhookAttempt, activity.TypeWebhook}, limit)
			if err != nil {
				return fmt.Errorf("read webhook logs: %w", err)
			}
			return printEntries(out, entries)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Webhook log entries to show")

	return cmd
}

func printCounts(cmd *cobra.Command, db *sqlx.DB, out io.Writer) error {
	fmt.Fprintln(out, "--- Row counts ---")
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, table := range checkedTables {
		var n int
		// table names come from the fixed list above
		if err := db.GetContext(cmd.Context(), &n, "SELECT COUNT(*) FROM "+table); err != nil {
			return fmt.Errorf("count %s: %w", table, err)
		}
		fmt.Fprintf(tw, "%s\t%d\n", table, n)
	}
	return tw.Flush()
}

func printEntries(out io.Writer, entries []*activity.Entry) error {
	fmt.Fprintln(out, "--- Recent webhook logs ---")
	if len(entries) == 0 {
		fmt.Fprintln(out, "(none)")
		return nil
	}
	for _, e := range entries {
		details, err := json.Marshal(e.Details)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s  %-16s %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Type, details)
	}
	return nil
}
