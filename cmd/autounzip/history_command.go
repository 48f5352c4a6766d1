package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"autounzip/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var status string
	var asJSON bool

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent extractions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(status, limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Items) == 0 {
					fmt.Fprintln(out, "No extractions recorded")
					return nil
				}
				fmt.Fprint(out, renderTable(
					[]string{"ID", "Archive", "Format", "Status", "Files", "Size", "Duration", "Started"},
					buildHistoryRows(resp.Items),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of rows (0 for all)")
	historyCmd.Flags().StringVar(&status, "status", "", "Filter by status (running, succeeded, failed, interrupted)")
	historyCmd.Flags().BoolVar(&asJSON, "json", false, "Output history as JSON")

	historyCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove finished extraction records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ClearHistory()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d record(s)\n", resp.Removed)
				return nil
			})
		},
	})

	historyCmd.AddCommand(&cobra.Command{
		Use:   "health",
		Short: "Check the state database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				health, err := client.DatabaseHealth()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				integrity := statusOK
				if !health.IntegrityCheck {
					integrity = statusError
				}
				fmt.Fprintln(out, renderStatusLine("Database", statusInfo, health.DBPath, colorize))
				fmt.Fprintln(out, renderStatusLine("Schema version", statusInfo, strconv.Itoa(health.SchemaVersion), colorize))
				fmt.Fprintln(out, renderStatusLine("Integrity", integrity, yesNo(health.IntegrityCheck), colorize))
				fmt.Fprintln(out, renderStatusLine("Rows", statusInfo, humanize.Comma(int64(health.TotalRows)), colorize))
				if len(health.MissingTables) > 0 {
					fmt.Fprintln(out, renderStatusLine("Missing tables", statusError, fmt.Sprint(health.MissingTables), colorize))
				}
				if health.Error != "" {
					fmt.Fprintln(out, renderStatusLine("Error", statusError, health.Error, colorize))
				}
				return nil
			})
		},
	})

	return historyCmd
}

func buildHistoryRows(items []ipc.HistoryItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		status := item.Status
		if item.ErrorKind != "" {
			status = fmt.Sprintf("%s (%s)", item.Status, item.ErrorKind)
		}
		format := item.Format
		if format == "" {
			format = "-"
		}
		duration := "-"
		if item.DurationSeconds > 0 {
			duration = (time.Duration(item.DurationSeconds * float64(time.Second))).Round(time.Millisecond).String()
		}
		started := "-"
		if ts, err := time.Parse(time.RFC3339Nano, item.StartedAt); err == nil {
			started = humanize.Time(ts)
		}
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			item.ArchiveName,
			format,
			status,
			strconv.Itoa(item.Files),
			humanize.IBytes(uint64(max(item.Bytes, 0))),
			duration,
			started,
		})
	}
	return rows
}
