// Package reconcile pairs a game's telemetry with its play-by-play at-bats,
// classifies every discrepancy and builds the combined record.
package reconcile

import (
	"sort"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/a-luna/vigorish-sub003/internal/domain/combined"
	"github.com/a-luna/vigorish-sub003/internal/domain/gameid"
	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
)

var (
	// ErrInputMissing means a required input of the game is absent. No
	// record is produced and the game stays not-scraped.
	ErrInputMissing = crerr.New("input missing")
	// ErrAuditArithmetic means the pitch totals of the built record do not
	// add up. It is fatal to the game.
	ErrAuditArithmetic = crerr.New("audit arithmetic failure")
	// ErrIdentifierMismatch means the inputs of one game disagree on which
	// game they describe.
	ErrIdentifierMismatch = crerr.New("identifier mismatch")
)

const DefaultDuplicateWindow = 2 * time.Second

type Options struct {
	TeamCodes       gameid.TeamCodes
	DuplicateWindow time.Duration
}

func DefaultOptions() Options {
	return Options{
		TeamCodes:       gameid.DefaultTeamCodes(),
		DuplicateWindow: DefaultDuplicateWindow,
	}
}

// GameInput holds one of each required input variant for a game. A pitcher
// whose pitch log announces no telemetry has zero telemetry; a stream that
// is announced but absent makes the input incomplete.
type GameInput struct {
	Boxscore  *scrape.Boxscore
	PitchLogs *scrape.PitchLogSet
	PitchFX   []scrape.PitchFXStream
}

// Engine is safe for concurrent use; Reconcile keeps no state between calls.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	if opts.DuplicateWindow <= 0 {
		opts.DuplicateWindow = DefaultDuplicateWindow
	}
	return &Engine{opts: opts}
}

// Reconcile builds the combined record of one game. It returns either a
// complete record or an error, never a partial record.
func (e *Engine) Reconcile(in GameInput) (combined.GameRecord, error) {
	if in.Boxscore == nil {
		return combined.GameRecord{}, crerr.Wrap(ErrInputMissing, "boxscore")
	}
	box := *in.Boxscore
	if in.PitchLogs == nil {
		return combined.GameRecord{}, crerr.Wrapf(ErrInputMissing, "pitch logs for %s", box.GameID)
	}

	game, err := gameid.ParseCompact(box.GameID)
	if err != nil {
		return combined.GameRecord{}, crerr.Wrapf(ErrIdentifierMismatch, "boxscore: %v", err)
	}
	longID, err := gameid.CompactToLong(box.GameID, box.AwayTeam.TeamID, e.opts.TeamCodes)
	if err != nil {
		return combined.GameRecord{}, crerr.Wrapf(ErrIdentifierMismatch, "boxscore %s: %v", box.GameID, err)
	}
	if in.PitchLogs.GameID != box.GameID {
		return combined.GameRecord{}, crerr.Wrapf(ErrIdentifierMismatch, "pitch logs %s for boxscore %s", in.PitchLogs.GameID, box.GameID)
	}

	if err := requireAnnouncedTelemetry(*in.PitchLogs, in.PitchFX); err != nil {
		return combined.GameRecord{}, err
	}

	records, err := e.collectTelemetry(game, in.PitchFX)
	if err != nil {
		return combined.GameRecord{}, err
	}

	atBats := box.AtBats()
	matched := match(atBats, records, e.opts.DuplicateWindow)

	entries := make([]combined.AtBat, 0, len(atBats))
	for _, m := range matched.atBats {
		entries = append(entries, reconcileAtBat(game, m))
	}

	rec := build(game, longID, box, *in.PitchLogs, entries, matched.orphans, records)
	if err := checkArithmetic(box, rec, len(records)); err != nil {
		return combined.GameRecord{}, err
	}
	return rec, nil
}

// requireAnnouncedTelemetry fails when a pitch log names a telemetry stream
// that was never scraped. A scraped stream with no records is zero telemetry.
func requireAnnouncedTelemetry(logs scrape.PitchLogSet, streams []scrape.PitchFXStream) error {
	have := make(map[string]struct{}, len(streams))
	for _, s := range streams {
		have[s.PitchAppID] = struct{}{}
	}
	for _, log := range logs.PitchLogs {
		if log.PitchFXURL == "" && !log.PitchFXScraped {
			continue
		}
		if _, ok := have[log.PitchAppID]; !ok {
			return crerr.Wrapf(ErrInputMissing, "pfx for %s", log.PitchAppID)
		}
	}
	return nil
}

// collectTelemetry concatenates every stream in pitch-app order and stamps
// each record with its emission index and class.
func (e *Engine) collectTelemetry(game gameid.GameID, streams []scrape.PitchFXStream) ([]telemetry, error) {
	ordered := append([]scrape.PitchFXStream(nil), streams...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PitchAppID < ordered[j].PitchAppID
	})

	total := 0
	for _, s := range ordered {
		total += len(s.Records)
	}
	out := make([]telemetry, 0, total)
	for _, s := range ordered {
		app, err := gameid.ParsePitchAppID(s.PitchAppID)
		if err != nil {
			return nil, crerr.Wrapf(ErrIdentifierMismatch, "pitchfx: %v", err)
		}
		if app.Game.Compact() != game.Compact() {
			return nil, crerr.Wrapf(ErrIdentifierMismatch, "pitchfx %s for game %s", s.PitchAppID, game.Compact())
		}
		for _, r := range s.Records {
			out = append(out, newTelemetry(r, len(out), app.PitcherID))
		}
	}
	return out, nil
}
