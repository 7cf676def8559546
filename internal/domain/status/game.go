package status

import (
	"reflect"
	"sort"

	crerr "github.com/cockroachdb/errors"

	"github.com/a-luna/vigorish-sub003/internal/domain/combined"
	"github.com/a-luna/vigorish-sub003/internal/domain/gameid"
	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
)

// GameScope is a game row plus the sources already applied to it. Every
// Observe/Apply method returns the delta to roll up into the date and season
// rows, and whether anything changed. Whether an update is a no-op is decided
// against the current row, never against the sources seen before.
type GameScope struct {
	Row     GameRow
	game    gameid.GameID
	applied map[string]struct{}
}

func NewGameScope(gameID string) (*GameScope, error) {
	id, err := gameid.ParseCompact(gameID)
	if err != nil {
		return nil, crerr.Wrapf(ErrUpdateFailed, "new game scope: %v", err)
	}
	return &GameScope{
		Row:     GameRow{GameID: gameID, GameDate: id.Date, Label: LabelNotScraped},
		game:    id,
		applied: make(map[string]struct{}),
	}, nil
}

// RestoreGameScope rebuilds a scope from its persisted row and applied source
// ids.
func RestoreGameScope(row GameRow, applied []string) (*GameScope, error) {
	id, err := gameid.ParseCompact(row.GameID)
	if err != nil {
		return nil, crerr.Wrapf(ErrUpdateFailed, "restore game scope: %v", err)
	}
	s := &GameScope{Row: row.Clone(), game: id, applied: make(map[string]struct{}, len(applied))}
	for _, src := range applied {
		s.applied[src] = struct{}{}
	}
	return s, nil
}

// Created returns the delta of a game entering its date.
func (s *GameScope) Created() Delta {
	return Delta{NewLabel: s.Row.Label, Counters: s.Row.Counters}
}

func (s *GameScope) Season() int {
	return s.game.Season()
}

// Applied returns the applied source ids in sorted order.
func (s *GameScope) Applied() []string {
	out := make([]string, 0, len(s.applied))
	for src := range s.applied {
		out = append(out, src)
	}
	sort.Strings(out)
	return out
}

func (s *GameScope) Seen(key SourceKey) bool {
	_, ok := s.applied[key.SourceID]
	return ok
}

func (s *GameScope) ObserveBoxscore(key SourceKey, box scrape.Boxscore) (Delta, bool, error) {
	if err := s.check(key, box.GameID); err != nil {
		return Delta{}, false, err
	}
	return s.mutate(key, func() error {
		s.Row.BoxscoreScraped = true
		for _, summary := range []scrape.TeamSummary{box.AwayTeam, box.HomeTeam} {
			for _, line := range summary.Pitching {
				pa := s.pitchApp(line.PlayerID)
				pa.TeamID = summary.TeamID
				pa.BoxscorePitchCount = line.PitchCount
			}
		}
		return nil
	})
}

func (s *GameScope) ObservePitchLogs(key SourceKey, logs scrape.PitchLogSet) (Delta, bool, error) {
	if err := s.check(key, logs.GameID); err != nil {
		return Delta{}, false, err
	}
	return s.mutate(key, func() error {
		s.Row.PitchLogsScraped = true
		for _, log := range logs.PitchLogs {
			pa := s.pitchApp(log.PitcherID)
			if pa.TeamID == "" {
				pa.TeamID = log.TeamID
			}
			pa.PitchLogScraped = true
			pa.PitchLogPitchCount = log.TotalPitchCount
			pa.PitchFXAvailable = log.PitchFXURL != "" || log.PitchFXScraped
		}
		return nil
	})
}

func (s *GameScope) ObservePitchFX(key SourceKey, stream scrape.PitchFXStream) (Delta, bool, error) {
	app, err := gameid.ParsePitchAppID(stream.PitchAppID)
	if err != nil {
		return Delta{}, false, crerr.Wrapf(ErrUpdateFailed, "key %s: %v", key, err)
	}
	if err := s.check(key, app.Game.Compact()); err != nil {
		return Delta{}, false, err
	}
	return s.mutate(key, func() error {
		pa := s.pitchApp(app.PitcherID)
		pa.PitchFXAvailable = true
		pa.PitchFXScraped = true
		pa.TelemetryRecords = len(stream.Records)
		return nil
	})
}

// ApplyCombined replaces the game's counters with those of rec. A record
// with a new digest replaces the previous one; the delta carries the
// difference. It is a no-op only while rec is the game's current record, so
// a record applied before an intervening failure is applied again.
func (s *GameScope) ApplyCombined(key SourceKey, rec combined.GameRecord) (Delta, bool, error) {
	if err := s.check(key, rec.GameID); err != nil {
		return Delta{}, false, err
	}
	digest, err := rec.Digest()
	if err != nil {
		return Delta{}, false, crerr.Wrapf(ErrUpdateFailed, "key %s: %v", key, err)
	}
	if s.Row.Combined && s.Row.CombinedDigest == digest {
		return Delta{}, false, nil
	}
	return s.mutate(key, func() error {
		s.Row.Combined = true
		s.Row.CombinedDigest = digest
		s.Row.CombineFailed = false
		s.Row.FailureKind = ""
		s.Row.FailureSource = ""
		s.Row.Counters = countersOf(rec.Audit)
		for i := range s.Row.PitchApps {
			s.Row.PitchApps[i].Combined = false
			s.Row.PitchApps[i].AtBats = combined.CategoryCounts{}
			s.Row.PitchApps[i].Pitches = combined.PitchCounts{}
		}
		for _, audit := range rec.Pitchers {
			pa := s.pitchApp(audit.PitcherID)
			pa.TeamID = audit.TeamID
			pa.Combined = true
			pa.BoxscorePitchCount = audit.BoxscorePitchCount
			pa.AtBats = audit.AtBats
			pa.Pitches = audit.Counts
		}
		return nil
	})
}

// ApplyFailure marks the game failed-to-combine and withdraws the counters of
// any earlier combined record. It is a no-op while key is the game's current
// failure.
func (s *GameScope) ApplyFailure(key SourceKey, kind string) (Delta, bool, error) {
	if err := s.check(key, s.Row.GameID); err != nil {
		return Delta{}, false, err
	}
	if s.Row.CombineFailed && s.Row.FailureSource == key.SourceID {
		return Delta{}, false, nil
	}
	return s.mutate(key, func() error {
		s.Row.Combined = false
		s.Row.CombinedDigest = ""
		s.Row.CombineFailed = true
		s.Row.FailureKind = kind
		s.Row.FailureSource = key.SourceID
		s.Row.Counters = Counters{}
		for i := range s.Row.PitchApps {
			s.Row.PitchApps[i].Combined = false
			s.Row.PitchApps[i].AtBats = combined.CategoryCounts{}
			s.Row.PitchApps[i].Pitches = combined.PitchCounts{}
		}
		return nil
	})
}

// Release returns the delta of the game leaving its date.
func (s *GameScope) Release() Delta {
	return Delta{OldLabel: s.Row.Label, Counters: Counters{}.Sub(s.Row.Counters)}
}

// Rename moves the row to newID. A game cannot move to another date: its
// date and season rows would no longer own it.
func (s *GameScope) Rename(newID string) error {
	next, err := gameid.ParseCompact(newID)
	if err != nil {
		return crerr.Wrapf(ErrUpdateFailed, "rename %s: %v", s.Row.GameID, err)
	}
	if !next.Date.Equal(s.game.Date) {
		return crerr.Wrapf(ErrUpdateFailed, "rename %s to %s: game would change date", s.Row.GameID, newID)
	}
	old := s.Row.GameID
	s.Row.GameID = newID
	s.game = next
	for i := range s.Row.PitchApps {
		pa := &s.Row.PitchApps[i]
		pa.GameID = newID
		pa.PitchAppID = gameid.RenamePitchAppToken(pa.PitchAppID, old, newID)
	}
	return nil
}

func (s *GameScope) check(key SourceKey, gameID string) error {
	if key.ScopeID != s.Row.GameID {
		return crerr.Wrapf(ErrUpdateFailed, "key %s does not belong to game %s", key, s.Row.GameID)
	}
	if gameID != s.Row.GameID {
		return crerr.Wrapf(ErrUpdateFailed, "key %s: source describes game %s", key, gameID)
	}
	return nil
}

func (s *GameScope) mutate(key SourceKey, apply func() error) (Delta, bool, error) {
	before := s.Row.Clone()
	if err := apply(); err != nil {
		s.Row = before
		return Delta{}, false, crerr.Wrapf(ErrUpdateFailed, "key %s: %v", key, err)
	}
	sort.Slice(s.Row.PitchApps, func(i, j int) bool {
		return s.Row.PitchApps[i].PitchAppID < s.Row.PitchApps[j].PitchAppID
	})
	s.Row.Label = DeriveLabel(s.Row)
	s.applied[key.SourceID] = struct{}{}
	if reflect.DeepEqual(before, s.Row) {
		return Delta{}, false, nil
	}
	return Delta{
		OldLabel: before.Label,
		NewLabel: s.Row.Label,
		Counters: s.Row.Counters.Sub(before.Counters),
	}, true, nil
}

func (s *GameScope) pitchApp(pitcherID int) *PitchAppRow {
	for i := range s.Row.PitchApps {
		if s.Row.PitchApps[i].PitcherID == pitcherID {
			return &s.Row.PitchApps[i]
		}
	}
	s.Row.PitchApps = append(s.Row.PitchApps, PitchAppRow{
		PitchAppID: gameid.PitchAppID{Game: s.game, PitcherID: pitcherID}.String(),
		GameID:     s.Row.GameID,
		PitcherID:  pitcherID,
	})
	return &s.Row.PitchApps[len(s.Row.PitchApps)-1]
}
