package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/folio/telemetry"
)

var (
	summaryDays  int
	summaryLimit int
	summaryJSON  bool
)

var telemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "Inspect collected page views and vitals",
}

var telemetrySummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print views, top pages, referrers and p75 vitals",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := telemetry.NewStore(cfg.Telemetry.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()

		to := time.Now()
		from := to.AddDate(0, 0, -summaryDays)
		sum, err := store.Summary(cmd.Context(), from, to, summaryLimit)
		if err != nil {
			return err
		}
		if summaryJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sum)
		}
		return printSummary(cmd.OutOrStdout(), sum)
	},
}

func init() {
	telemetrySummaryCmd.Flags().IntVar(&summaryDays, "days", 30, "number of days to summarize")
	telemetrySummaryCmd.Flags().IntVar(&summaryLimit, "limit", 10, "rows per table")
	telemetrySummaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "print JSON")
}

func printSummary(w io.Writer, sum *telemetry.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Period\t%s to %s\n", sum.From.Format("2006-01-02"), sum.To.Format("2006-01-02"))
	fmt.Fprintf(tw, "Views\t%d\n", sum.Views)
	fmt.Fprintf(tw, "Visitors\t%d\n", sum.UniqueVisitors)
	fmt.Fprintf(tw, "Bot views\t%d\n", sum.BotViews)

	fmt.Fprintln(tw, "\nPAGE\tVIEWS")
	for _, p := range sum.TopPages {
		fmt.Fprintf(tw, "%s\t%d\n", p.Name, p.Count)
	}
	fmt.Fprintln(tw, "\nREFERRER\tVIEWS")
	for _, r := range sum.Referrers {
		fmt.Fprintf(tw, "%s\t%d\n", r.Name, r.Count)
	}
	fmt.Fprintln(tw, "\nMETRIC\tP75\tRATING\tSAMPLES")
	for _, v := range sum.Vitals {
		fmt.Fprintf(tw, "%s\t%.2f\t%s\t%d\n", v.Metric, v.P75, v.Rating, v.Samples)
	}
	return tw.Flush()
}
