package postgres

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/a-luna/vigorish-sub003/internal/domain/combined"
	"github.com/a-luna/vigorish-sub003/internal/domain/status"
	qb "github.com/a-luna/vigorish-sub003/internal/platform/querybuilder"
)

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("get status game: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped ErrNoRows to be not found")
	}
	if isNotFound(fakeErr("pq: relation status_games does not exist")) {
		t.Fatalf("expected false for unrelated error")
	}
}

func TestUpsertSuffix(t *testing.T) {
	got := upsertSuffix("season_year", []string{"season_year", "date_count", "updated_at"})
	want := "ON CONFLICT (season_year)\nDO UPDATE SET\n    date_count = EXCLUDED.date_count,\n    updated_at = EXCLUDED.updated_at"
	if got != want {
		t.Fatalf("unexpected suffix:\nwant: %s\ngot:  %s", want, got)
	}
}

func TestGameRowRoundTrip(t *testing.T) {
	in := status.GameRow{
		GameID:           "TOR201905300",
		GameDate:         time.Date(2019, 5, 30, 0, 0, 0, 0, time.UTC),
		BoxscoreScraped:  true,
		PitchLogsScraped: true,
		Combined:         true,
		CombinedDigest:   "abc",
		Label:            status.LabelPfxError,
		Counters: status.Counters{
			AtBats:             combined.CategoryCounts{Complete: 17, MissingPitches: 1},
			Pitches:            combined.PitchCounts{Complete: 70, Missing: 2, OutOfSequence: 1},
			BoxscorePitchCount: 72,
			TelemetryRecords:   70,
		},
		PitchApps: []status.PitchAppRow{{
			PitchAppID:         "TOR201905300_500001",
			GameID:             "TOR201905300",
			PitcherID:          500001,
			TeamID:             "OAK",
			BoxscorePitchCount: 36,
			PitchLogScraped:    true,
			PitchLogPitchCount: 36,
			PitchFXAvailable:   true,
			PitchFXScraped:     true,
			TelemetryRecords:   34,
			Combined:           true,
			AtBats:             combined.CategoryCounts{Complete: 8, MissingPitches: 1},
			Pitches:            combined.PitchCounts{Complete: 34, Missing: 2},
		}},
	}

	row := gameToRow(in)
	if row.Label != string(status.LabelPfxError) || row.PitchColumns.Missing != 2 || row.BoxscorePitchCount != 72 {
		t.Fatalf("unexpected flat columns: %+v", row)
	}

	apps := []statusPitchAppTableModel{pitchAppToRow(in.PitchApps[0], in.GameDate)}
	if apps[0].AtBatColumns.MissingPitches != 1 || apps[0].PitchColumns.Complete != 34 {
		t.Fatalf("unexpected pitch app columns: %+v", apps[0])
	}

	out := gameFromRow(row, apps)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestGameRowFailureColumns(t *testing.T) {
	in := status.GameRow{
		GameID:        "TOR201905300",
		GameDate:      time.Date(2019, 5, 30, 0, 0, 0, 0, time.UTC),
		CombineFailed: true,
		FailureKind:   "audit_arithmetic_failure",
		FailureSource: "failure:audit_arithmetic_failure:abc",
		Label:         status.LabelFailedToCombine,
	}
	out := gameFromRow(gameToRow(in), nil)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSeasonRowRoundTrip(t *testing.T) {
	in := status.NewSeasonRow(2019)
	in.DateCount = 1
	in.GameCount = 15
	in.Labels.Move("", status.LabelSuccessful)
	in.Labels.Move("", status.LabelNotScraped)
	in.Counters.Pitches.Complete = 72
	in.Counters.Orphans = 3

	row := seasonToRow(in)
	if row.Successful != 1 || row.NotScraped != 1 || row.Orphans != 3 {
		t.Fatalf("unexpected flat columns: %+v", row)
	}
	out := seasonFromRow(row)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDateRowRoundTrip(t *testing.T) {
	scope := status.NewDateScope(time.Date(2019, 5, 30, 0, 0, 0, 0, time.UTC))
	scope.Row.DayIndexScraped = true
	scope.Row.GameCount = 2
	scope.Row.Labels.Move("", status.LabelInvalidPfx)
	scope.Row.Counters.AtBats.Invalid = 1

	row := dateToRow(scope)
	if row.Year != 2019 || row.InvalidPfx != 1 || row.AtBatColumns.Invalid != 1 {
		t.Fatalf("unexpected flat columns: %+v", row)
	}
	if diff := cmp.Diff(scope.Row, dateFromRow(row)); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// The table models must name exactly the columns the migration creates, or
// SELECT * scans fail.
func TestTableModelsMatchMigration(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "..", "..", "db", "migrations", "1791072000_create_status_tables.up.sql"))
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	tables := migrationColumns(string(data))

	for table, model := range map[string]any{
		statusSeasonsTable:   statusSeasonTableModel{},
		statusDatesTable:     statusDateTableModel{},
		statusGamesTable:     statusGameTableModel{},
		statusPitchAppsTable: statusPitchAppTableModel{},
	} {
		cols, _, err := qb.ColumnsAndValues(model)
		if err != nil {
			t.Fatalf("%s: %v", table, err)
		}
		if diff := cmp.Diff(tables[table], cols); diff != "" {
			t.Fatalf("%s columns mismatch (-migration +model):\n%s", table, diff)
		}
	}
}

var createTable = regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS (\w+) \((.*?)\n\);`)

func migrationColumns(ddl string) map[string][]string {
	out := make(map[string][]string)
	for _, m := range createTable.FindAllStringSubmatch(ddl, -1) {
		var cols []string
		for _, line := range strings.Split(m[2], "\n") {
			fields := strings.Fields(line)
			if len(fields) == 0 || fields[0] == "PRIMARY" {
				continue
			}
			cols = append(cols, fields[0])
		}
		out[m[1]] = cols
	}
	return out
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
