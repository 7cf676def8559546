// Package combined defines the per-game record produced by reconciliation:
// the boxscore summary, every at-bat with its paired telemetry, and the audit
// summary derived from them.
package combined

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/a-luna/vigorish-sub003/internal/domain/gameid"
	"github.com/a-luna/vigorish-sub003/internal/domain/pitchseq"
	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
)

type Category string

const (
	CategoryComplete               Category = "complete"
	CategoryMissingPitches         Category = "missing_pitches"
	CategoryExtraPitches           Category = "extra_pitches"
	CategoryRemovedDuplicates      Category = "removed_duplicates"
	CategoryPatched                Category = "patched"
	CategoryInvalid                Category = "invalid"
	CategoryInvalidIntentionalWalk Category = "invalid_intentional_walk"
)

func Categories() []Category {
	return []Category{
		CategoryComplete,
		CategoryMissingPitches,
		CategoryExtraPitches,
		CategoryRemovedDuplicates,
		CategoryPatched,
		CategoryInvalid,
		CategoryInvalidIntentionalWalk,
	}
}

// IsInvalid reports whether c marks an identity problem rather than a count
// problem.
func (c Category) IsInvalid() bool {
	return c == CategoryInvalid || c == CategoryInvalidIntentionalWalk
}

// PitchCounts are the per-pitch tallies of one at-bat, pitcher, team or game.
// Complete, Patched and Missing partition the play-by-play pitches; Complete,
// Patched, Extra, DuplicatesRemoved and Invalid partition the assigned
// telemetry records.
type PitchCounts struct {
	Complete          int `json:"complete"`
	Patched           int `json:"patched"`
	Missing           int `json:"missing"`
	Extra             int `json:"extra"`
	DuplicatesRemoved int `json:"duplicates_removed"`
	Invalid           int `json:"invalid"`
	OutOfSequence     int `json:"out_of_sequence"`
}

func (p PitchCounts) Add(o PitchCounts) PitchCounts {
	p.Complete += o.Complete
	p.Patched += o.Patched
	p.Missing += o.Missing
	p.Extra += o.Extra
	p.DuplicatesRemoved += o.DuplicatesRemoved
	p.Invalid += o.Invalid
	p.OutOfSequence += o.OutOfSequence
	return p
}

// PlayByPlay is the number of play-by-play pitches the counts account for.
func (p PitchCounts) PlayByPlay() int {
	return p.Complete + p.Patched + p.Missing
}

// Telemetry is the number of assigned telemetry records the counts account for.
func (p PitchCounts) Telemetry() int {
	return p.Complete + p.Patched + p.Extra + p.DuplicatesRemoved + p.Invalid
}

// Residual is the count of pitches that stayed unexplained after duplicate
// removal.
func (p PitchCounts) Residual() int {
	return p.Missing + p.Extra
}

// CategoryCounts tallies at-bats by category.
type CategoryCounts struct {
	Complete               int `json:"complete"`
	MissingPitches         int `json:"missing_pitches"`
	ExtraPitches           int `json:"extra_pitches"`
	RemovedDuplicates      int `json:"removed_duplicates"`
	Patched                int `json:"patched"`
	Invalid                int `json:"invalid"`
	InvalidIntentionalWalk int `json:"invalid_intentional_walk"`
}

func (c *CategoryCounts) Inc(cat Category) {
	switch cat {
	case CategoryComplete:
		c.Complete++
	case CategoryMissingPitches:
		c.MissingPitches++
	case CategoryExtraPitches:
		c.ExtraPitches++
	case CategoryRemovedDuplicates:
		c.RemovedDuplicates++
	case CategoryPatched:
		c.Patched++
	case CategoryInvalid:
		c.Invalid++
	case CategoryInvalidIntentionalWalk:
		c.InvalidIntentionalWalk++
	}
}

func (c CategoryCounts) Add(o CategoryCounts) CategoryCounts {
	c.Complete += o.Complete
	c.MissingPitches += o.MissingPitches
	c.ExtraPitches += o.ExtraPitches
	c.RemovedDuplicates += o.RemovedDuplicates
	c.Patched += o.Patched
	c.Invalid += o.Invalid
	c.InvalidIntentionalWalk += o.InvalidIntentionalWalk
	return c
}

func (c CategoryCounts) Get(cat Category) int {
	switch cat {
	case CategoryComplete:
		return c.Complete
	case CategoryMissingPitches:
		return c.MissingPitches
	case CategoryExtraPitches:
		return c.ExtraPitches
	case CategoryRemovedDuplicates:
		return c.RemovedDuplicates
	case CategoryPatched:
		return c.Patched
	case CategoryInvalid:
		return c.Invalid
	case CategoryInvalidIntentionalWalk:
		return c.InvalidIntentionalWalk
	}
	return 0
}

func (c CategoryCounts) Total() int {
	total := 0
	for _, cat := range Categories() {
		total += c.Get(cat)
	}
	return total
}

// TelemetryPitch is a telemetry record as placed by the matcher.
type TelemetryPitch struct {
	scrape.PitchFXRecord
	EmissionIndex    int            `json:"emission_index"`
	Class            pitchseq.Class `json:"pitch_class"`
	DuplicateRemoved bool           `json:"duplicate_removed,omitempty"`
	OutOfSequence    bool           `json:"out_of_sequence,omitempty"`
	Invalid          bool           `json:"invalid,omitempty"`
}

// PairedPitch is one counts-as-pitch token and the telemetry paired with it,
// if any.
type PairedPitch struct {
	Number      int             `json:"pitch_number"`
	Position    int             `json:"sequence_position"`
	Token       string          `json:"pbp_token"`
	CountBefore pitchseq.Count  `json:"count_before"`
	Telemetry   *TelemetryPitch `json:"pfx,omitempty"`
	Plausible   bool            `json:"plausible"`
}

// AtBat is the reconciliation entry of one play-by-play at-bat.
type AtBat struct {
	AtBatID              string      `json:"at_bat_id"`
	Inning               int         `json:"inning"`
	Half                 gameid.Half `json:"inning_half"`
	RowNumber            int         `json:"pbp_table_row_number"`
	Ordinal              int         `json:"at_bat_ordinal"`
	PitcherID            int         `json:"pitcher_id_mlb"`
	PitcherTeam          string      `json:"pitcher_team"`
	BatterID             int         `json:"batter_id_mlb"`
	BatterTeam           string      `json:"batter_team"`
	PitchSequence        string      `json:"pitch_sequence"`
	PitchSequencePatched bool        `json:"pitch_sequence_patched,omitempty"`
	UnknownTokens        string      `json:"unknown_pitch_tokens,omitempty"`
	RunsOutsResult       string      `json:"runs_outs_result"`
	Description          string      `json:"play_description"`

	Category          Category         `json:"category"`
	PBPPitchCount     int              `json:"pbp_pitch_count"`
	Pitches           []PairedPitch    `json:"pitches"`
	MissingPitches    []int            `json:"missing_pitch_numbers,omitempty"`
	ExtraPitches      []TelemetryPitch `json:"extra_pitches,omitempty"`
	DuplicatesRemoved []TelemetryPitch `json:"duplicates_removed,omitempty"`
	InvalidRecords    []TelemetryPitch `json:"invalid_records,omitempty"`
	SuspectedSwaps    []int            `json:"suspected_swap_pitch_numbers,omitempty"`
	Counts            PitchCounts      `json:"pitch_counts"`
}

// PitcherAudit rolls the at-bats of one pitch appearance up.
type PitcherAudit struct {
	PitchAppID         string         `json:"pitch_app_id"`
	PitcherID          int            `json:"pitcher_id_mlb"`
	TeamID             string         `json:"team_id"`
	BoxscorePitchCount int            `json:"boxscore_pitch_count"`
	PitchLogPitchCount int            `json:"pitch_log_pitch_count"`
	PitchLogPresent    bool           `json:"pitch_log_present"`
	BattersFaced       int            `json:"batters_faced"`
	AtBatCount         int            `json:"at_bat_count"`
	TelemetryRecords   int            `json:"pfx_record_count"`
	AtBats             CategoryCounts `json:"at_bats_by_category"`
	Counts             PitchCounts    `json:"pitch_counts"`
}

type TeamAudit struct {
	TeamID             string         `json:"team_id"`
	BoxscorePitchCount int            `json:"boxscore_pitch_count"`
	AtBats             CategoryCounts `json:"at_bats_by_category"`
	Counts             PitchCounts    `json:"pitch_counts"`
}

// AtBatLists holds the at-bat ids of every non-complete category.
type AtBatLists struct {
	MissingPitches         []string `json:"missing_pitches"`
	ExtraPitches           []string `json:"extra_pitches"`
	RemovedDuplicates      []string `json:"removed_duplicates"`
	Patched                []string `json:"patched"`
	Invalid                []string `json:"invalid"`
	InvalidIntentionalWalk []string `json:"invalid_intentional_walk"`
}

func (l *AtBatLists) Add(cat Category, atBatID string) {
	switch cat {
	case CategoryMissingPitches:
		l.MissingPitches = append(l.MissingPitches, atBatID)
	case CategoryExtraPitches:
		l.ExtraPitches = append(l.ExtraPitches, atBatID)
	case CategoryRemovedDuplicates:
		l.RemovedDuplicates = append(l.RemovedDuplicates, atBatID)
	case CategoryPatched:
		l.Patched = append(l.Patched, atBatID)
	case CategoryInvalid:
		l.Invalid = append(l.Invalid, atBatID)
	case CategoryInvalidIntentionalWalk:
		l.InvalidIntentionalWalk = append(l.InvalidIntentionalWalk, atBatID)
	}
}

type IssueKind string

const (
	IssueOrphanTelemetry    IssueKind = "orphan_telemetry"
	IssueDuplicateTelemetry IssueKind = "duplicate_telemetry"
	IssuePitchCountMismatch IssueKind = "pitch_count_mismatch"
	IssueInvalidAtBat       IssueKind = "invalid_at_bat"
	IssueOutOfSequence      IssueKind = "out_of_sequence"
	IssuePitchLogMismatch   IssueKind = "pitch_log_mismatch"
	IssueSuspectedSwap      IssueKind = "suspected_swap"
	IssueBattersFaced       IssueKind = "batters_faced_mismatch"
	IssueUnknownPitchToken  IssueKind = "unknown_pitch_token"
)

// Issue is a per-at-bat or per-pitcher finding. Issues never abort a game.
type Issue struct {
	Kind       IssueKind `json:"kind"`
	AtBatID    string    `json:"at_bat_id,omitempty"`
	PitchAppID string    `json:"pitch_app_id,omitempty"`
	Count      int       `json:"count"`
	Detail     string    `json:"detail"`
}

type PitchLogMismatch struct {
	PitchAppID    string `json:"pitch_app_id"`
	PitchLogCount int    `json:"pitch_log_count"`
	BoxscoreCount int    `json:"boxscore_count"`
}

type AuditSummary struct {
	TotalAtBats          int                `json:"total_at_bats"`
	AtBats               CategoryCounts     `json:"at_bats_by_category"`
	Pitches              PitchCounts        `json:"pitches"`
	BoxscorePitchCount   int                `json:"boxscore_pitch_count"`
	TelemetryRecordCount int                `json:"pfx_record_count"`
	OrphanCount          int                `json:"orphan_pfx_count"`
	AtBatIDs             AtBatLists         `json:"at_bat_ids"`
	PitchLogMismatches   []PitchLogMismatch `json:"pitch_log_mismatches"`
	Issues               []Issue            `json:"issues"`
}

// HasInvalid reports whether any at-bat is invalid or an invalid
// intentional walk.
func (a AuditSummary) HasInvalid() bool {
	return a.AtBats.Invalid+a.AtBats.InvalidIntentionalWalk > 0
}

type TeamLine struct {
	TeamID     string `json:"team_id"`
	Runs       int    `json:"runs"`
	Hits       int    `json:"hits"`
	Errors     int    `json:"errors"`
	PitchCount int    `json:"pitch_count"`
}

type BoxscoreSummary struct {
	Meta      scrape.GameMeta   `json:"game_meta_info"`
	Away      TeamLine          `json:"away_team"`
	Home      TeamLine          `json:"home_team"`
	Officials []scrape.Official `json:"umpires"`
}

// GameRecord is the combined record of one game. It is built once and never
// modified.
type GameRecord struct {
	Tag           bool             `json:"__combined_game_data__"`
	GameID        string           `json:"bbref_game_id"`
	PitchFXGameID string           `json:"pitchfx_game_id"`
	GameDate      string           `json:"game_date"`
	Boxscore      BoxscoreSummary  `json:"boxscore"`
	AtBats        []AtBat          `json:"at_bats"`
	Pitchers      []PitcherAudit   `json:"pitcher_audits"`
	Teams         []TeamAudit      `json:"team_audits"`
	Orphans       []TelemetryPitch `json:"orphan_pfx"`
	Audit         AuditSummary     `json:"audit"`
}

func (r GameRecord) Marshal() ([]byte, error) {
	data, err := sonic.ConfigStd.Marshal(r)
	if err != nil {
		return nil, crerr.Wrapf(err, "encode combined record %s", r.GameID)
	}
	return data, nil
}

// Digest is the hex sha256 of the canonical encoding. Two records with the
// same digest are the same reconciliation result.
func (r GameRecord) Digest() (string, error) {
	data, err := r.Marshal()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func Unmarshal(data []byte) (GameRecord, error) {
	var r GameRecord
	if err := sonic.ConfigStd.Unmarshal(data, &r); err != nil {
		return GameRecord{}, crerr.Wrap(err, "decode combined record")
	}
	if !r.Tag {
		return GameRecord{}, crerr.Newf("record %s is not tagged as combined game data", r.GameID)
	}
	return r, nil
}
