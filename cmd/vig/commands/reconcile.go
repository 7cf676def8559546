package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
	"github.com/a-luna/vigorish-sub003/internal/usecase"
)

func newReconcileCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Combine scraped inputs into combined game records.",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "game <bbref_game_id>",
			Short: "Reconcile one game.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := s.App()
				if err != nil {
					return err
				}
				result, err := a.Reconcile.ReconcileGame(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printGame(cmd.OutOrStdout(), result)
				if result.Kind != usecase.KindNone {
					return &outcomeError{kind: result.Kind, msg: result.Message}
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "date <YYYY-MM-DD>",
			Short: "Reconcile every game listed in a date's day index.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				day, err := time.Parse(scrape.DateLayout, args[0])
				if err != nil {
					return crerr.Wrapf(usecase.ErrInvalidInput, "parse date %q: %v", args[0], err)
				}
				a, err := s.App()
				if err != nil {
					return err
				}
				result, err := a.Reconcile.ReconcileDate(cmd.Context(), day)
				if err != nil {
					return err
				}
				return printBatch(cmd.OutOrStdout(), result)
			},
		},
		&cobra.Command{
			Use:   "season <year>",
			Short: "Reconcile every scraped date of a season.",
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
				result, err := a.Reconcile.ReconcileSeason(cmd.Context(), year)
				if err != nil {
					return err
				}
				return printBatch(cmd.OutOrStdout(), result)
			},
		},
	)
	return cmd
}

func parseYear(raw string) (int, error) {
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, crerr.Wrapf(usecase.ErrInvalidInput, "parse season %q: %v", raw, err)
	}
	return year, nil
}

func printGame(w io.Writer, r usecase.GameResult) {
	line := fmt.Sprintf("%s\t%s", r.GameID, r.Label)
	if r.Kind != usecase.KindNone {
		line += fmt.Sprintf("\t%s", r.Kind)
	}
	if r.Audit != nil {
		line += fmt.Sprintf("\tpitches=%d/%d", r.Audit.Pitches.Complete+r.Audit.Pitches.Patched, r.Audit.BoxscorePitchCount)
	}
	fmt.Fprintln(w, line)
}

// printBatch writes one line per game and a summary. Batches with failed
// games exit non-zero even though the run itself succeeded.
func printBatch(w io.Writer, b usecase.BatchResult) error {
	for _, g := range b.Games {
		printGame(w, g)
	}
	fmt.Fprintf(w, "batch %s: %d games, %d successful, %d failed, %d cancelled\n",
		b.BatchID, len(b.Games), b.Labels.Successful, b.Failed, b.Cancelled)

	if b.Cancelled > 0 {
		return crerr.Wrapf(context.Canceled, "%d games not started", b.Cancelled)
	}
	for _, g := range b.Games {
		if g.Kind != usecase.KindNone && g.Kind != usecase.KindInputMissing {
			return &outcomeError{kind: g.Kind, msg: fmt.Sprintf("%d of %d games failed", b.Failed, len(b.Games))}
		}
	}
	return nil
}
