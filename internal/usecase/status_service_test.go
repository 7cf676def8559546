package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/sourcegraph/conc/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a-luna/vigorish-sub003/internal/domain/reconcile"
	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
	"github.com/a-luna/vigorish-sub003/internal/domain/status"
	"github.com/a-luna/vigorish-sub003/internal/infrastructure/repository/memory"
	"github.com/a-luna/vigorish-sub003/internal/testutil/fixture"
)

func TestStatusService_RecordCombinedIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := NewStatusService(memory.NewStatusRepository(), nil)
	g := fixture.NewGame("TOR201905300", "OAK", fixture.Repeat("BCFX", 6))
	in := g.Input()
	rec, err := reconcile.NewEngine(reconcile.DefaultOptions()).Reconcile(in)
	require.NoError(t, err)

	label, err := svc.ObserveGameInputs(ctx, "TOR201905300", in)
	require.NoError(t, err)
	assert.Equal(t, status.LabelScrapedNotReconciled, label)

	for i := 0; i < 3; i++ {
		label, err = svc.RecordCombined(ctx, rec)
		require.NoError(t, err)
		assert.Equal(t, status.LabelSuccessful, label)
	}

	report, err := svc.SeasonReport(ctx, 2019)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Season.Labels.Successful)
	assert.Equal(t, 1, report.Season.Labels.Total())
	assert.Equal(t, 24, report.Season.Counters.Pitches.Complete)
	require.Len(t, report.Dates, 1)
	assert.Equal(t, report.Season.Counters, report.Dates[0].Counters)
}

func TestStatusService_ConcurrentGamesRollUp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := NewStatusService(memory.NewStatusRepository(), nil)
	engine := reconcile.NewEngine(reconcile.DefaultOptions())

	homes := []string{"TOR", "BOS", "BAL", "CLE", "DET", "MIN", "SEA", "HOU"}
	ids := make([]string, len(homes))
	for i, home := range homes {
		ids[i] = fmt.Sprintf("%s201905300", home)
	}
	games := len(ids)
	_, err := svc.ObserveDayIndex(ctx, scrape.DayIndex{Date: gameDay, GameIDs: ids})
	require.NoError(t, err)

	p := pool.New().WithErrors().WithMaxGoroutines(4)
	for _, id := range ids {
		id := id
		p.Go(func() error {
			g := fixture.NewGame(id, "OAK", fixture.Repeat("BX", 6))
			in := g.Input()
			rec, err := engine.Reconcile(in)
			if err != nil {
				return err
			}
			// Two writers per game race on the same rows.
			for j := 0; j < 2; j++ {
				if _, err := svc.ObserveGameInputs(ctx, id, in); err != nil {
					return err
				}
				if _, err := svc.RecordCombined(ctx, rec); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, p.Wait())

	report, err := svc.SeasonReport(ctx, 2019)
	require.NoError(t, err)
	assert.Equal(t, games, report.Season.Labels.Successful)
	assert.Equal(t, games, report.Season.GameCount)
	assert.Equal(t, games*12, report.Season.Counters.Pitches.Complete)
	require.Len(t, report.Dates, 1)
	assert.Equal(t, games, report.Dates[0].Labels.Successful)
}

func TestStatusService_ObserveDayIndexCreatesAndReleases(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := NewStatusService(memory.NewStatusRepository(), nil)

	change, err := svc.ObserveDayIndex(ctx, scrape.DayIndex{Date: gameDay, GameIDs: []string{"TOR201905300", "NYA201905300"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"NYA201905300", "TOR201905300"}, change.Listed)

	row, err := svc.GameStatus(ctx, "NYA201905300")
	require.NoError(t, err)
	assert.Equal(t, status.LabelNotScraped, row.Label)

	change, err = svc.ObserveDayIndex(ctx, scrape.DayIndex{Date: gameDay, GameIDs: []string{"TOR201905300"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"NYA201905300"}, change.Gone)

	_, err = svc.GameStatus(ctx, "NYA201905300")
	assert.ErrorIs(t, err, ErrNotFound)

	report, err := svc.SeasonReport(ctx, 2019)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Season.GameCount)
	assert.Equal(t, 1, report.Season.Labels.NotScraped)
	assert.Equal(t, 1, report.Season.DateCount)
}

func TestStatusService_RenameGame(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("missing row is a no-op", func(t *testing.T) {
		svc := NewStatusService(memory.NewStatusRepository(), nil)
		renamed, err := svc.RenameGame(ctx, "TOR201905300", "TOR201905301")
		require.NoError(t, err)
		assert.False(t, renamed)
	})

	t.Run("across dates is rejected", func(t *testing.T) {
		svc := NewStatusService(memory.NewStatusRepository(), nil)
		_, err := svc.ObserveDayIndex(ctx, scrape.DayIndex{Date: gameDay, GameIDs: []string{"TOR201905300"}})
		require.NoError(t, err)

		_, err = svc.RenameGame(ctx, "TOR201905300", "TOR201905310")
		require.Error(t, err)
		assert.Equal(t, KindStatusUpdateFailed, KindOf(err))

		row, err := svc.GameStatus(ctx, "TOR201905300")
		require.NoError(t, err)
		assert.Equal(t, "TOR201905300", row.GameID)
	})

	t.Run("onto an existing row releases the old one", func(t *testing.T) {
		svc := NewStatusService(memory.NewStatusRepository(), nil)
		_, err := svc.ObserveDayIndex(ctx, scrape.DayIndex{Date: gameDay, GameIDs: []string{"TOR201905300", "TOR201905301"}})
		require.NoError(t, err)

		renamed, err := svc.RenameGame(ctx, "TOR201905300", "TOR201905301")
		require.NoError(t, err)
		assert.True(t, renamed)

		_, err = svc.GameStatus(ctx, "TOR201905300")
		assert.ErrorIs(t, err, ErrNotFound)

		report, err := svc.SeasonReport(ctx, 2019)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Season.Labels.Total())
		assert.Equal(t, 1, report.Season.Labels.NotScraped)
	})
}

func TestStatusService_RecordFailureWithdrawsCounters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := NewStatusService(memory.NewStatusRepository(), nil)
	g := fixture.NewGame("TOR201905300", "OAK", fixture.Repeat("BCX", 6))
	rec, err := reconcile.NewEngine(reconcile.DefaultOptions()).Reconcile(g.Input())
	require.NoError(t, err)

	_, err = svc.RecordCombined(ctx, rec)
	require.NoError(t, err)
	label, err := svc.RecordFailure(ctx, "TOR201905300", KindAuditArithmetic, "abc")
	require.NoError(t, err)
	assert.Equal(t, status.LabelFailedToCombine, label)

	row, err := svc.GameStatus(ctx, "TOR201905300")
	require.NoError(t, err)
	assert.Equal(t, string(KindAuditArithmetic), row.FailureKind)

	report, err := svc.SeasonReport(ctx, 2019)
	require.NoError(t, err)
	assert.True(t, report.Season.Counters.IsZero())
	assert.Equal(t, 1, report.Season.Labels.FailedToCombine)
}

func TestStatusService_SeasonReportErrors(t *testing.T) {
	t.Parallel()

	svc := NewStatusService(memory.NewStatusRepository(), nil)

	_, err := svc.SeasonReport(context.Background(), 1800)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.SeasonReport(context.Background(), 2019)
	assert.ErrorIs(t, err, ErrNotFound)
}
