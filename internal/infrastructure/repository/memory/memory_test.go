package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
	"github.com/a-luna/vigorish-sub003/internal/domain/status"
)

func TestStatusRepositoryCommitAndRestore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewStatusRepository()
	day := time.Date(2019, 5, 30, 0, 0, 0, 0, time.UTC)

	game, err := status.NewGameScope("TOR201905300")
	require.NoError(t, err)
	key := status.SourceKey{ScopeID: "TOR201905300", SourceID: "failure:audit"}
	_, changed, err := game.ApplyFailure(key, "audit_arithmetic_failure")
	require.NoError(t, err)
	require.True(t, changed)

	season := status.NewSeasonRow(2019)
	require.NoError(t, repo.Commit(ctx, status.Update{
		Games:  []*status.GameScope{game},
		Date:   status.NewDateScope(day),
		Season: &season,
	}))

	restored, found, err := repo.GetGame(ctx, "TOR201905300")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, status.LabelFailedToCombine, restored.Row.Label)
	assert.True(t, restored.Seen(key), "applied source keys must survive a round trip")

	rows, err := repo.ListGames(ctx, day)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	dates, err := repo.ListDates(ctx, 2019)
	require.NoError(t, err)
	require.Len(t, dates, 1)
	assert.True(t, dates[0].Date.Equal(day))

	_, found, err = repo.GetSeason(ctx, 2019)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestStatusRepositoryDeletesBeforeSaving(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewStatusRepository()

	old, err := status.NewGameScope("TOR201905300")
	require.NoError(t, err)
	require.NoError(t, repo.Commit(ctx, status.Update{Games: []*status.GameScope{old}}))

	require.NoError(t, old.Rename("TOR201905301"))
	require.NoError(t, repo.Commit(ctx, status.Update{
		Games:       []*status.GameScope{old},
		DeleteGames: []string{"TOR201905300"},
	}))

	_, found, err := repo.GetGame(ctx, "TOR201905300")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = repo.GetGame(ctx, "TOR201905301")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestStatusRepositoryReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewStatusRepository()
	game, err := status.NewGameScope("TOR201905300")
	require.NoError(t, err)
	game.Row.PitchApps = []status.PitchAppRow{{PitchAppID: "TOR201905300_1", GameID: "TOR201905300"}}
	require.NoError(t, repo.Commit(ctx, status.Update{Games: []*status.GameScope{game}}))

	game.Row.PitchApps[0].PitchAppID = "mutated"

	got, _, err := repo.GetGame(ctx, "TOR201905300")
	require.NoError(t, err)
	assert.Equal(t, "TOR201905300_1", got.Row.PitchApps[0].PitchAppID)
}

func TestInputStoreScrapedDates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewInputStore()
	day := time.Date(2019, 5, 30, 0, 0, 0, 0, time.UTC)
	store.PutDayIndex(scrape.DayIndex{Date: day.AddDate(0, 0, 1)})
	store.PutDayIndex(scrape.DayIndex{Date: day})
	store.PutDayIndex(scrape.DayIndex{Date: day.AddDate(-1, 0, 0)})

	dates, err := store.ScrapedDates(ctx, 2019)
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.True(t, dates[0].Equal(day))

	_, found, err := store.Boxscore(ctx, "TOR201905300")
	require.NoError(t, err)
	assert.False(t, found)
}
