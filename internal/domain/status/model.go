// Package status holds the scrape/reconcile status rows of every scope
// (pitch appearance, game, date, season) and the pure rules that update them.
// Rows only reference each other by identifier.
package status

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/a-luna/vigorish-sub003/internal/domain/combined"
)

var ErrUpdateFailed = crerr.New("status update failed")

type Label string

const (
	LabelNotScraped           Label = "not_scraped"
	LabelScrapedNotReconciled Label = "scraped_not_reconciled"
	LabelSuccessful           Label = "successful"
	LabelPfxError             Label = "pfx_error"
	LabelInvalidPfx           Label = "invalid_pfx"
	LabelFailedToCombine      Label = "failed_to_combine"
)

func Labels() []Label {
	return []Label{
		LabelNotScraped,
		LabelScrapedNotReconciled,
		LabelSuccessful,
		LabelPfxError,
		LabelInvalidPfx,
		LabelFailedToCombine,
	}
}

func (l Label) Valid() bool {
	for _, known := range Labels() {
		if l == known {
			return true
		}
	}
	return false
}

// SourceKey identifies one update of one scope. Applying an update whose key
// the scope has already seen is a no-op.
type SourceKey struct {
	ScopeID  string
	SourceID string
}

func (k SourceKey) String() string {
	return k.ScopeID + "/" + k.SourceID
}

// KeyOf derives a content-addressed key: the same value always yields the
// same key.
func KeyOf(scopeID, kind string, v any) (SourceKey, error) {
	data, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		return SourceKey{}, crerr.Wrapf(err, "encode %s source for %s", kind, scopeID)
	}
	sum := sha256.Sum256(data)
	return SourceKey{ScopeID: scopeID, SourceID: kind + ":" + hex.EncodeToString(sum[:16])}, nil
}

// CombinedKey keys a combined record by its digest.
func CombinedKey(rec combined.GameRecord) (SourceKey, error) {
	digest, err := rec.Digest()
	if err != nil {
		return SourceKey{}, err
	}
	return SourceKey{ScopeID: rec.GameID, SourceID: "combined:" + digest}, nil
}

// FailureKey keys a failed reconciliation of a given set of inputs.
func FailureKey(gameID, kind, inputsDigest string) SourceKey {
	return SourceKey{ScopeID: gameID, SourceID: fmt.Sprintf("failure:%s:%s", kind, inputsDigest)}
}

// Counters are the reconciliation tallies every scope row carries.
type Counters struct {
	AtBats             combined.CategoryCounts
	Pitches            combined.PitchCounts
	BoxscorePitchCount int
	TelemetryRecords   int
	Orphans            int
}

func (c Counters) Add(o Counters) Counters {
	c.AtBats = c.AtBats.Add(o.AtBats)
	c.Pitches = c.Pitches.Add(o.Pitches)
	c.BoxscorePitchCount += o.BoxscorePitchCount
	c.TelemetryRecords += o.TelemetryRecords
	c.Orphans += o.Orphans
	return c
}

func (c Counters) Sub(o Counters) Counters {
	return c.Add(o.negate())
}

func (c Counters) negate() Counters {
	return Counters{
		AtBats: combined.CategoryCounts{
			Complete:               -c.AtBats.Complete,
			MissingPitches:         -c.AtBats.MissingPitches,
			ExtraPitches:           -c.AtBats.ExtraPitches,
			RemovedDuplicates:      -c.AtBats.RemovedDuplicates,
			Patched:                -c.AtBats.Patched,
			Invalid:                -c.AtBats.Invalid,
			InvalidIntentionalWalk: -c.AtBats.InvalidIntentionalWalk,
		},
		Pitches: combined.PitchCounts{
			Complete:          -c.Pitches.Complete,
			Patched:           -c.Pitches.Patched,
			Missing:           -c.Pitches.Missing,
			Extra:             -c.Pitches.Extra,
			DuplicatesRemoved: -c.Pitches.DuplicatesRemoved,
			Invalid:           -c.Pitches.Invalid,
			OutOfSequence:     -c.Pitches.OutOfSequence,
		},
		BoxscorePitchCount: -c.BoxscorePitchCount,
		TelemetryRecords:   -c.TelemetryRecords,
		Orphans:            -c.Orphans,
	}
}

func (c Counters) IsZero() bool {
	return c == Counters{}
}

func countersOf(a combined.AuditSummary) Counters {
	return Counters{
		AtBats:             a.AtBats,
		Pitches:            a.Pitches,
		BoxscorePitchCount: a.BoxscorePitchCount,
		TelemetryRecords:   a.TelemetryRecordCount,
		Orphans:            a.OrphanCount,
	}
}

// LabelCounts is the multiset of game labels below a date or season.
type LabelCounts struct {
	NotScraped           int
	ScrapedNotReconciled int
	Successful           int
	PfxError             int
	InvalidPfx           int
	FailedToCombine      int
}

func (c *LabelCounts) slot(l Label) *int {
	switch l {
	case LabelNotScraped:
		return &c.NotScraped
	case LabelScrapedNotReconciled:
		return &c.ScrapedNotReconciled
	case LabelSuccessful:
		return &c.Successful
	case LabelPfxError:
		return &c.PfxError
	case LabelInvalidPfx:
		return &c.InvalidPfx
	case LabelFailedToCombine:
		return &c.FailedToCombine
	}
	return nil
}

// Move takes one game out of from and puts it into to. An empty label on
// either side means the game is entering or leaving the scope.
func (c *LabelCounts) Move(from, to Label) {
	if from == to {
		return
	}
	if p := c.slot(from); p != nil {
		*p--
	}
	if p := c.slot(to); p != nil {
		*p++
	}
}

func (c LabelCounts) Get(l Label) int {
	if p := c.slot(l); p != nil {
		return *p
	}
	return 0
}

func (c LabelCounts) Total() int {
	total := 0
	for _, l := range Labels() {
		total += c.Get(l)
	}
	return total
}

// Delta is what a game or date update changes in the rows above it.
type Delta struct {
	OldLabel Label
	NewLabel Label
	Counters Counters
	Games    int
	Dates    int
}

func (d Delta) IsZero() bool {
	return d.OldLabel == d.NewLabel && d.Counters.IsZero() && d.Games == 0 && d.Dates == 0
}

// PitchAppRow is the status of one pitcher's appearance in one game.
type PitchAppRow struct {
	PitchAppID         string
	GameID             string
	PitcherID          int
	TeamID             string
	BoxscorePitchCount int
	PitchLogScraped    bool
	PitchLogPitchCount int
	PitchFXAvailable   bool
	PitchFXScraped     bool
	TelemetryRecords   int
	Combined           bool
	AtBats             combined.CategoryCounts
	Pitches            combined.PitchCounts
}

// GameRow is the status of one game. Counters reflect the game's latest
// combined record and are zero while it has none.
type GameRow struct {
	GameID           string
	GameDate         time.Time
	BoxscoreScraped  bool
	PitchLogsScraped bool
	Combined         bool
	CombinedDigest   string
	CombineFailed    bool
	FailureKind      string
	FailureSource    string
	Label            Label
	Counters         Counters
	PitchApps        []PitchAppRow
	UpdatedAt        time.Time
}

func (r GameRow) Clone() GameRow {
	out := r
	if r.PitchApps != nil {
		out.PitchApps = append(make([]PitchAppRow, 0, len(r.PitchApps)), r.PitchApps...)
	}
	return out
}

// InputsComplete reports whether the boxscore, the pitch logs and every
// telemetry stream the pitch logs announce have been observed.
func (r GameRow) InputsComplete() bool {
	if !r.BoxscoreScraped || !r.PitchLogsScraped {
		return false
	}
	for _, pa := range r.PitchApps {
		if pa.PitchFXAvailable && !pa.PitchFXScraped {
			return false
		}
	}
	return true
}

// DeriveLabel maps a game row onto its outcome label.
func DeriveLabel(r GameRow) Label {
	switch {
	case r.CombineFailed:
		return LabelFailedToCombine
	case r.Combined && r.Counters.AtBats.Invalid+r.Counters.AtBats.InvalidIntentionalWalk > 0:
		return LabelInvalidPfx
	case r.Combined && r.Counters.Pitches.Residual() > 0:
		return LabelPfxError
	case r.Combined:
		return LabelSuccessful
	case r.InputsComplete():
		return LabelScrapedNotReconciled
	default:
		return LabelNotScraped
	}
}

type DateRow struct {
	Date            time.Time
	DayIndexScraped bool
	GameCount       int
	Labels          LabelCounts
	Counters        Counters
	UpdatedAt       time.Time
}

func (r *DateRow) Apply(d Delta) {
	r.Labels.Move(d.OldLabel, d.NewLabel)
	r.Counters = r.Counters.Add(d.Counters)
	r.GameCount += d.Games
}

type SeasonRow struct {
	Year      int
	DateCount int
	GameCount int
	Labels    LabelCounts
	Counters  Counters
	UpdatedAt time.Time
}

func (r *SeasonRow) Apply(d Delta) {
	r.Labels.Move(d.OldLabel, d.NewLabel)
	r.Counters = r.Counters.Add(d.Counters)
	r.GameCount += d.Games
	r.DateCount += d.Dates
}
