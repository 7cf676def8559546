package jsonfile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a-luna/vigorish-sub003/internal/domain/patch"
	"github.com/a-luna/vigorish-sub003/internal/domain/reconcile"
	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
	"github.com/a-luna/vigorish-sub003/internal/infrastructure/storage/jsonfile"
	"github.com/a-luna/vigorish-sub003/internal/testutil/fixture"
)

func newStore(t *testing.T) *jsonfile.Store {
	t.Helper()
	store, err := jsonfile.NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore(t)
	g := fixture.NewGame("TOR201905300", "OAK", fixture.Repeat("BCFX", 6))

	require.NoError(t, store.Save(ctx, g.Boxscore))
	require.NoError(t, store.Save(ctx, g.PitchLogs))
	for _, s := range g.PitchFX {
		require.NoError(t, store.Save(ctx, s))
	}

	box, found, err := store.Boxscore(ctx, "TOR201905300")
	require.NoError(t, err)
	require.True(t, found)
	if diff := cmp.Diff(g.Boxscore, box); diff != "" {
		t.Fatalf("boxscore mismatch (-want +got):\n%s", diff)
	}

	logs, found, err := store.PitchLogs(ctx, "TOR201905300")
	require.NoError(t, err)
	require.True(t, found)
	if diff := cmp.Diff(g.PitchLogs, logs); diff != "" {
		t.Fatalf("pitch logs mismatch (-want +got):\n%s", diff)
	}

	stream, found, err := store.PitchFX(ctx, g.PitchFX[0].PitchAppID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, stream.Records, len(g.PitchFX[0].Records))

	path, err := store.Path(scrape.DataSetBoxscore, "TOR201905300")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Root(), "2019", "bbref_boxscore", "TOR201905300.json"), path)
}

func TestStoreMissingInput(t *testing.T) {
	t.Parallel()

	_, found, err := newStore(t).Boxscore(context.Background(), "TOR201905300")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStoreRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore(t)
	path, err := store.Path(scrape.DataSetPitchLogs, "TOR201905300")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	cases := []struct {
		name string
		body string
	}{
		{name: "not json", body: "{"},
		{name: "tag violation", body: `{"bbref_game_id":"TOR"}`},
		{name: "contract violation", body: `{"bbref_game_id":"TOR201905300","pitch_logs":[{"pitch_app_id":"TOR201905300_1","bbref_game_id":"NYA201905300","pitcher_id_mlb":1,"pitcher_team_id_bb":"TOR","opponent_team_id_bb":"OAK"}]}`},
	}
	for _, tc := range cases {
		require.NoError(t, os.WriteFile(path, []byte(tc.body), 0o644))
		_, _, err := store.PitchLogs(ctx, "TOR201905300")
		if !crerr.Is(err, scrape.ErrInvalid) {
			t.Fatalf("%s: expected invalid input error, got=%v", tc.name, err)
		}
	}
}

func TestStoreScrapedDates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore(t)
	day := time.Date(2019, 5, 30, 0, 0, 0, 0, time.UTC)
	for _, d := range []time.Time{day.AddDate(0, 0, 2), day, day.AddDate(1, 0, 0)} {
		require.NoError(t, store.Save(ctx, scrape.DayIndex{Date: d}))
	}

	dates, err := store.ScrapedDates(ctx, 2019)
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.True(t, dates[0].Equal(day))
	assert.True(t, dates[1].Equal(day.AddDate(0, 0, 2)))

	none, err := store.ScrapedDates(ctx, 2018)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCombinedWriter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g := fixture.NewGame("TOR201905300", "OAK", fixture.Repeat("BCX", 6))
	rec, err := reconcile.NewEngine(reconcile.DefaultOptions()).Reconcile(g.Input())
	require.NoError(t, err)

	w := jsonfile.NewCombinedWriter(t.TempDir())
	require.NoError(t, w.WriteCombined(ctx, rec))
	require.NoError(t, w.WriteCombined(ctx, rec))

	got, found, err := w.ReadCombined(ctx, "TOR201905300")
	require.NoError(t, err)
	require.True(t, found)

	want, err := rec.Digest()
	require.NoError(t, err)
	have, err := got.Digest()
	require.NoError(t, err)
	assert.Equal(t, want, have)

	path, err := w.Path("TOR201905300")
	require.NoError(t, err)
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadPatches(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	body := `{
	// moved to the second game of a double header
	"__patch_list__": true,
	"url_id": "2019-05-30",
	"data_set": "bbref_games_for_date",
	"patch_list": [
		{
			"kind": "rename_game_id",
			"old_bbref_game_id": "TOR201905300",
			"new_bbref_game_id": "TOR201905301",
		},
	],
}`
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "2019"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2019", "2019-05-30.json5"), []byte(body), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	registry, err := jsonfile.LoadPatches(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, registry.Len())

	list, ok := registry.Lookup(scrape.DataSetDayIndex, "2019-05-30")
	require.True(t, ok)
	require.Len(t, list.Patches, 1)
	assert.Equal(t, patch.KindRenameGameID, list.Patches[0].Kind)
	assert.Equal(t, "TOR201905301", list.Patches[0].NewGameID)
}

func TestLoadPatchesRejectsUntagged(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	body := `{"url_id": "2019-05-30", "data_set": "bbref_games_for_date", "patch_list": []}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p.json"), []byte(body), 0o644))

	_, err := jsonfile.LoadPatches(dir)
	assert.True(t, crerr.Is(err, patch.ErrInvalidList), "expected invalid list, got %v", err)
}

func TestLoadPatchesMissingDir(t *testing.T) {
	t.Parallel()

	registry, err := jsonfile.LoadPatches(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Zero(t, registry.Len())
}
