package commands

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
	"github.com/a-luna/vigorish-sub003/internal/domain/status"
)

func newStatusCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report reconciliation status.",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "season <year>",
		Short: "Show per-date label counts for a season.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := parseYear(args[0])
			if err != nil {
				return err
			}
			a, err := s.App()
			if err != nil {
				return err
			}
			report, err := a.Status.SeasonReport(cmd.Context(), year)
			if err != nil {
				return err
			}
			renderSeason(cmd.OutOrStdout(), report)
			return nil
		},
	})
	return cmd
}

func renderSeason(w io.Writer, report status.SeasonReport) {
	labels := status.Labels()

	header := table.Row{"Date", "Games"}
	for _, l := range labels {
		header = append(header, string(l))
	}

	t := newTable(w)
	t.SetTitle(fmt.Sprintf("Season %d", report.Season.Year))
	t.AppendHeader(header)
	for _, d := range report.Dates {
		row := table.Row{d.Date.Format(scrape.DateLayout), d.GameCount}
		for _, l := range labels {
			row = append(row, d.Labels.Get(l))
		}
		t.AppendRow(row)
	}

	footer := table.Row{fmt.Sprintf("%d dates", report.Season.DateCount), report.Season.GameCount}
	for _, l := range labels {
		footer = append(footer, report.Season.Labels.Get(l))
	}
	t.AppendFooter(footer)
	t.Render()

	c := report.Season.Counters
	fmt.Fprintf(w, "successful %.1f%% | pitches complete=%d patched=%d missing=%d extra=%d duplicates_removed=%d | orphan pfx=%d\n",
		100*report.LabelShare(status.LabelSuccessful),
		c.Pitches.Complete, c.Pitches.Patched, c.Pitches.Missing, c.Pitches.Extra, c.Pitches.DuplicatesRemoved,
		c.Orphans,
	)
}
