package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"skillscope/dashboard/internal/db"
	"skillscope/dashboard/internal/diag"
)

func (a *app) newDiagnosticsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "diagnostics",
		Short: "List failures recorded in the local SQLite journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.SQLitePath == "" {
				return errors.New("no journal configured: set --sqlite-path or SKILLSCOPE_SQLITE_PATH")
			}
			sqlDB, err := db.OpenSQLite(cmd.Context(), a.cfg.SQLitePath)
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			journal, err := diag.NewSQLiteSink(cmd.Context(), sqlDB)
			if err != nil {
				return err
			}
			recs, err := journal.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No failures recorded")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tOPERATION\tKIND\tMESSAGE")
			for _, r := range recs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Time.Format("2006-01-02 15:04:05"), r.Operation, r.Kind, r.Message)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "show at most this many records")
	cmd.Flags().String("sqlite-path", "", "SQLite diagnostics journal")
	return cmd
}
