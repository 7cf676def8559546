package postgres

import (
	"time"

	"github.com/lib/pq"

	"github.com/a-luna/vigorish-sub003/internal/domain/combined"
	"github.com/a-luna/vigorish-sub003/internal/domain/status"
)

const (
	statusSeasonsTable        = "status_seasons"
	statusDatesTable          = "status_dates"
	statusGamesTable          = "status_games"
	statusPitchAppsTable      = "status_pitch_apps"
	statusAppliedSourcesTable = "status_applied_sources"
)

// AtBatColumns are the at-bat category counters shared by every status table.
type AtBatColumns struct {
	Complete               int `db:"ab_complete"`
	MissingPitches         int `db:"ab_missing_pitches"`
	ExtraPitches           int `db:"ab_extra_pitches"`
	RemovedDuplicates      int `db:"ab_removed_duplicates"`
	Patched                int `db:"ab_patched"`
	Invalid                int `db:"ab_invalid"`
	InvalidIntentionalWalk int `db:"ab_invalid_intentional_walk"`
}

type PitchColumns struct {
	Complete          int `db:"pitches_complete"`
	Patched           int `db:"pitches_patched"`
	Missing           int `db:"pitches_missing"`
	Extra             int `db:"pitches_extra"`
	DuplicatesRemoved int `db:"pitches_duplicates_removed"`
	Invalid           int `db:"pitches_invalid"`
	OutOfSequence     int `db:"pitches_out_of_sequence"`
}

// CounterColumns are the reconciliation tallies of a game, date or season.
type CounterColumns struct {
	AtBatColumns
	PitchColumns
	BoxscorePitchCount int `db:"boxscore_pitch_count"`
	TelemetryRecords   int `db:"pfx_record_count"`
	Orphans            int `db:"orphan_pfx_count"`
}

// LabelColumns count the games of a date or season by label.
type LabelColumns struct {
	NotScraped           int `db:"games_not_scraped"`
	ScrapedNotReconciled int `db:"games_scraped_not_reconciled"`
	Successful           int `db:"games_successful"`
	PfxError             int `db:"games_pfx_error"`
	InvalidPfx           int `db:"games_invalid_pfx"`
	FailedToCombine      int `db:"games_failed_to_combine"`
}

type statusSeasonTableModel struct {
	Year      int `db:"season_year"`
	DateCount int `db:"date_count"`
	GameCount int `db:"game_count"`
	LabelColumns
	CounterColumns
	UpdatedAt time.Time `db:"updated_at"`
}

type statusDateTableModel struct {
	Date            time.Time      `db:"game_date"`
	Year            int            `db:"season_year"`
	DayIndexScraped bool           `db:"day_index_scraped"`
	GameCount       int            `db:"game_count"`
	GameIDs         pq.StringArray `db:"game_ids"`
	LabelColumns
	CounterColumns
	UpdatedAt time.Time `db:"updated_at"`
}

type statusGameTableModel struct {
	GameID           string    `db:"bbref_game_id"`
	GameDate         time.Time `db:"game_date"`
	BoxscoreScraped  bool      `db:"boxscore_scraped"`
	PitchLogsScraped bool      `db:"pitch_logs_scraped"`
	Combined         bool      `db:"combined"`
	CombinedDigest   string    `db:"combined_digest"`
	CombineFailed    bool      `db:"combine_failed"`
	FailureKind      string    `db:"failure_kind"`
	FailureSource    string    `db:"failure_source"`
	Label            string    `db:"label"`
	CounterColumns
	UpdatedAt time.Time `db:"updated_at"`
}

type statusPitchAppTableModel struct {
	PitchAppID         string    `db:"pitch_app_id"`
	GameID             string    `db:"bbref_game_id"`
	GameDate           time.Time `db:"game_date"`
	PitcherID          int       `db:"pitcher_id_mlb"`
	TeamID             string    `db:"team_id"`
	BoxscorePitchCount int       `db:"boxscore_pitch_count"`
	PitchLogScraped    bool      `db:"pitch_log_scraped"`
	PitchLogPitchCount int       `db:"pitch_log_pitch_count"`
	PitchFXAvailable   bool      `db:"pitchfx_available"`
	PitchFXScraped     bool      `db:"pitchfx_scraped"`
	TelemetryRecords   int       `db:"telemetry_records"`
	Combined           bool      `db:"combined"`
	AtBatColumns
	PitchColumns
}

func atBatColumnsOf(c combined.CategoryCounts) AtBatColumns {
	return AtBatColumns{
		Complete:               c.Complete,
		MissingPitches:         c.MissingPitches,
		ExtraPitches:           c.ExtraPitches,
		RemovedDuplicates:      c.RemovedDuplicates,
		Patched:                c.Patched,
		Invalid:                c.Invalid,
		InvalidIntentionalWalk: c.InvalidIntentionalWalk,
	}
}

func (c AtBatColumns) counts() combined.CategoryCounts {
	return combined.CategoryCounts{
		Complete:               c.Complete,
		MissingPitches:         c.MissingPitches,
		ExtraPitches:           c.ExtraPitches,
		RemovedDuplicates:      c.RemovedDuplicates,
		Patched:                c.Patched,
		Invalid:                c.Invalid,
		InvalidIntentionalWalk: c.InvalidIntentionalWalk,
	}
}

func pitchColumnsOf(p combined.PitchCounts) PitchColumns {
	return PitchColumns{
		Complete:          p.Complete,
		Patched:           p.Patched,
		Missing:           p.Missing,
		Extra:             p.Extra,
		DuplicatesRemoved: p.DuplicatesRemoved,
		Invalid:           p.Invalid,
		OutOfSequence:     p.OutOfSequence,
	}
}

func (p PitchColumns) counts() combined.PitchCounts {
	return combined.PitchCounts{
		Complete:          p.Complete,
		Patched:           p.Patched,
		Missing:           p.Missing,
		Extra:             p.Extra,
		DuplicatesRemoved: p.DuplicatesRemoved,
		Invalid:           p.Invalid,
		OutOfSequence:     p.OutOfSequence,
	}
}

func counterColumnsOf(c status.Counters) CounterColumns {
	return CounterColumns{
		AtBatColumns:       atBatColumnsOf(c.AtBats),
		PitchColumns:       pitchColumnsOf(c.Pitches),
		BoxscorePitchCount: c.BoxscorePitchCount,
		TelemetryRecords:   c.TelemetryRecords,
		Orphans:            c.Orphans,
	}
}

func (c CounterColumns) counters() status.Counters {
	return status.Counters{
		AtBats:             c.AtBatColumns.counts(),
		Pitches:            c.PitchColumns.counts(),
		BoxscorePitchCount: c.BoxscorePitchCount,
		TelemetryRecords:   c.TelemetryRecords,
		Orphans:            c.Orphans,
	}
}

func labelColumnsOf(l status.LabelCounts) LabelColumns {
	return LabelColumns{
		NotScraped:           l.NotScraped,
		ScrapedNotReconciled: l.ScrapedNotReconciled,
		Successful:           l.Successful,
		PfxError:             l.PfxError,
		InvalidPfx:           l.InvalidPfx,
		FailedToCombine:      l.FailedToCombine,
	}
}

func (l LabelColumns) labels() status.LabelCounts {
	return status.LabelCounts{
		NotScraped:           l.NotScraped,
		ScrapedNotReconciled: l.ScrapedNotReconciled,
		Successful:           l.Successful,
		PfxError:             l.PfxError,
		InvalidPfx:           l.InvalidPfx,
		FailedToCombine:      l.FailedToCombine,
	}
}

func seasonFromRow(row statusSeasonTableModel) status.SeasonRow {
	return status.SeasonRow{
		Year:      row.Year,
		DateCount: row.DateCount,
		GameCount: row.GameCount,
		Labels:    row.LabelColumns.labels(),
		Counters:  row.CounterColumns.counters(),
		UpdatedAt: row.UpdatedAt,
	}
}

func seasonToRow(s status.SeasonRow) statusSeasonTableModel {
	return statusSeasonTableModel{
		Year:           s.Year,
		DateCount:      s.DateCount,
		GameCount:      s.GameCount,
		LabelColumns:   labelColumnsOf(s.Labels),
		CounterColumns: counterColumnsOf(s.Counters),
		UpdatedAt:      s.UpdatedAt,
	}
}

func dateFromRow(row statusDateTableModel) status.DateRow {
	return status.DateRow{
		Date:            row.Date.UTC(),
		DayIndexScraped: row.DayIndexScraped,
		GameCount:       row.GameCount,
		Labels:          row.LabelColumns.labels(),
		Counters:        row.CounterColumns.counters(),
		UpdatedAt:       row.UpdatedAt,
	}
}

func dateToRow(d *status.DateScope) statusDateTableModel {
	return statusDateTableModel{
		Date:            d.Row.Date,
		Year:            d.Season(),
		DayIndexScraped: d.Row.DayIndexScraped,
		GameCount:       d.Row.GameCount,
		GameIDs:         pq.StringArray(d.Games()),
		LabelColumns:    labelColumnsOf(d.Row.Labels),
		CounterColumns:  counterColumnsOf(d.Row.Counters),
		UpdatedAt:       d.Row.UpdatedAt,
	}
}

func gameToRow(row status.GameRow) statusGameTableModel {
	return statusGameTableModel{
		GameID:           row.GameID,
		GameDate:         row.GameDate,
		BoxscoreScraped:  row.BoxscoreScraped,
		PitchLogsScraped: row.PitchLogsScraped,
		Combined:         row.Combined,
		CombinedDigest:   row.CombinedDigest,
		CombineFailed:    row.CombineFailed,
		FailureKind:      row.FailureKind,
		FailureSource:    row.FailureSource,
		Label:            string(row.Label),
		CounterColumns:   counterColumnsOf(row.Counters),
		UpdatedAt:        row.UpdatedAt,
	}
}

// gameFromRow rebuilds a game row from its flat columns and its pitch-app
// rows, which must already be ordered by pitch_app_id.
func gameFromRow(row statusGameTableModel, apps []statusPitchAppTableModel) status.GameRow {
	out := status.GameRow{
		GameID:           row.GameID,
		GameDate:         row.GameDate.UTC(),
		BoxscoreScraped:  row.BoxscoreScraped,
		PitchLogsScraped: row.PitchLogsScraped,
		Combined:         row.Combined,
		CombinedDigest:   row.CombinedDigest,
		CombineFailed:    row.CombineFailed,
		FailureKind:      row.FailureKind,
		FailureSource:    row.FailureSource,
		Label:            status.Label(row.Label),
		Counters:         row.CounterColumns.counters(),
		UpdatedAt:        row.UpdatedAt,
	}
	for _, pa := range apps {
		out.PitchApps = append(out.PitchApps, pitchAppFromRow(pa))
	}
	return out
}

func pitchAppToRow(pa status.PitchAppRow, gameDate time.Time) statusPitchAppTableModel {
	return statusPitchAppTableModel{
		PitchAppID:         pa.PitchAppID,
		GameID:             pa.GameID,
		GameDate:           gameDate,
		PitcherID:          pa.PitcherID,
		TeamID:             pa.TeamID,
		BoxscorePitchCount: pa.BoxscorePitchCount,
		PitchLogScraped:    pa.PitchLogScraped,
		PitchLogPitchCount: pa.PitchLogPitchCount,
		PitchFXAvailable:   pa.PitchFXAvailable,
		PitchFXScraped:     pa.PitchFXScraped,
		TelemetryRecords:   pa.TelemetryRecords,
		Combined:           pa.Combined,
		AtBatColumns:       atBatColumnsOf(pa.AtBats),
		PitchColumns:       pitchColumnsOf(pa.Pitches),
	}
}

func pitchAppFromRow(row statusPitchAppTableModel) status.PitchAppRow {
	return status.PitchAppRow{
		PitchAppID:         row.PitchAppID,
		GameID:             row.GameID,
		PitcherID:          row.PitcherID,
		TeamID:             row.TeamID,
		BoxscorePitchCount: row.BoxscorePitchCount,
		PitchLogScraped:    row.PitchLogScraped,
		PitchLogPitchCount: row.PitchLogPitchCount,
		PitchFXAvailable:   row.PitchFXAvailable,
		PitchFXScraped:     row.PitchFXScraped,
		TelemetryRecords:   row.TelemetryRecords,
		Combined:           row.Combined,
		AtBats:             row.AtBatColumns.counts(),
		Pitches:            row.PitchColumns.counts(),
	}
}
