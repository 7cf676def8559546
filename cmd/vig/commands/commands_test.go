package commands

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a-luna/vigorish-sub003/internal/domain/gameid"
	"github.com/a-luna/vigorish-sub003/internal/domain/reconcile"
	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
	"github.com/a-luna/vigorish-sub003/internal/domain/status"
	"github.com/a-luna/vigorish-sub003/internal/infrastructure/storage/jsonfile"
	"github.com/a-luna/vigorish-sub003/internal/platform/logging"
	"github.com/a-luna/vigorish-sub003/internal/testutil/fixture"
	"github.com/a-luna/vigorish-sub003/internal/usecase"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: exitOK},
		{name: "cancelled", err: crerr.Wrap(context.Canceled, "batch"), want: exitInterrupted},
		{name: "config", err: fmt.Errorf("%w: workers must be > 0", errConfig), want: exitConfig},
		{name: "malformed", err: crerr.Wrap(gameid.ErrMalformedIdentifier, "TOR"), want: exitUsage},
		{name: "not found", err: crerr.Wrap(usecase.ErrNotFound, "2019"), want: exitNotFound},
		{name: "status", err: crerr.Wrap(status.ErrUpdateFailed, "commit"), want: exitStatusFailure},
		{name: "outcome input missing", err: &outcomeError{kind: usecase.KindInputMissing}, want: exitInputMissing},
		{name: "outcome arithmetic", err: &outcomeError{kind: usecase.KindAuditArithmetic}, want: exitNotCombined},
		{name: "wrapped arithmetic", err: crerr.Wrap(reconcile.ErrAuditArithmetic, "TOR201905300"), want: exitNotCombined},
		{name: "other", err: crerr.New("boom"), want: exitInternal},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Fatalf("%s: exit code got=%d want=%d", tc.name, got, tc.want)
		}
	}
}

func TestConvertGameID(t *testing.T) {
	t.Parallel()

	long, err := convertGameID("TOR201905300", "oak")
	require.NoError(t, err)
	assert.Equal(t, "gid_2019_05_30_oakmlb_tormlb_0", long)

	compact, err := convertGameID("gid_2019_05_30_oakmlb_tormlb_0", "")
	require.NoError(t, err)
	assert.Equal(t, "TOR201905300", compact)

	_, err = convertGameID("TOR201905300", "")
	assert.True(t, crerr.Is(err, gameid.ErrMalformedIdentifier))
}

// run executes one CLI invocation against dir and returns stdout.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("VIG_CONFIG_FILE", "")
	t.Setenv("VIG_DATA_DIR", dir)
	t.Setenv("VIG_PATCH_DIR", dir+"/patches")
	t.Setenv("VIG_DB_URL", "")
	t.Setenv("VIG_LOG_LEVEL", "error")

	s := &session{logger: logging.NewNop()}
	root := newRootCmd(s)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	s.close(context.Background())
	return out.String(), err
}

func TestReconcileDateCommand(t *testing.T) {
	dir := t.TempDir()
	store, err := jsonfile.NewStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	g := fixture.NewGame("TOR201905300", "OAK", fixture.Repeat("BCFX", 18))
	day := time.Date(2019, 5, 30, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, scrape.DayIndex{Date: day, GameIDs: []string{"TOR201905300"}}))
	require.NoError(t, store.Save(ctx, g.Boxscore))
	require.NoError(t, store.Save(ctx, g.PitchLogs))
	for _, s := range g.PitchFX {
		require.NoError(t, store.Save(ctx, s))
	}

	out, err := run(t, dir, "reconcile", "date", "2019-05-30")
	require.NoError(t, err)
	assert.Contains(t, out, "TOR201905300\tsuccessful")
	assert.Contains(t, out, "1 successful, 0 failed")

	_, found, err := jsonfile.NewCombinedWriter(dir).ReadCombined(ctx, "TOR201905300")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestReconcileGameCommandInputMissing(t *testing.T) {
	out, err := run(t, t.TempDir(), "reconcile", "game", "TOR201905300")
	require.Error(t, err)
	assert.Equal(t, exitInputMissing, exitCode(err))
	assert.Contains(t, out, "not_scraped")
}

func TestReconcileDateCommandRejectsBadDate(t *testing.T) {
	_, err := run(t, t.TempDir(), "reconcile", "date", "30/05/2019")
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestStatusSeasonCommandNotFound(t *testing.T) {
	_, err := run(t, t.TempDir(), "status", "season", "2019")
	assert.Equal(t, exitNotFound, exitCode(err))
}

func TestPatchShowCommandMissingList(t *testing.T) {
	_, err := run(t, t.TempDir(), "patch", "show", "bbref_games_for_date", "2019-05-30")
	assert.Equal(t, exitNotFound, exitCode(err))
}

func TestRenderSeason(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	report := status.SeasonReport{
		Season: status.SeasonRow{Year: 2019, DateCount: 1, GameCount: 2, Labels: status.LabelCounts{Successful: 1, NotScraped: 1}},
		Dates: []status.DateRow{{
			Date:      time.Date(2019, 5, 30, 0, 0, 0, 0, time.UTC),
			GameCount: 2,
			Labels:    status.LabelCounts{Successful: 1, NotScraped: 1},
		}},
	}
	renderSeason(&out, report)

	assert.Contains(t, out.String(), "Season 2019")
	assert.Contains(t, out.String(), "2019-05-30")
	assert.Contains(t, out.String(), "successful 50.0%")
}

func TestParseSteps(t *testing.T) {
	t.Parallel()

	steps, err := parseSteps(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, steps)

	steps, err = parseSteps([]string{" 3 "})
	require.NoError(t, err)
	assert.Equal(t, 3, steps)

	for _, raw := range []string{"0", "-1", "x"} {
		_, err := parseSteps([]string{raw})
		assert.Equal(t, exitUsage, exitCode(err), raw)
	}
}

func TestMigrateRequiresDatabase(t *testing.T) {
	_, err := run(t, t.TempDir(), "migrate", "version")
	assert.Equal(t, exitConfig, exitCode(err))
}
