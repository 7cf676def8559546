package status

import (
	"sort"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
)

type DateScope struct {
	Row     DateRow
	applied map[string]struct{}
	games   []string
}

func NewDateScope(date time.Time) *DateScope {
	y, m, d := date.Date()
	return &DateScope{
		Row:     DateRow{Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)},
		applied: make(map[string]struct{}),
	}
}

// RestoreDateScope rebuilds a scope from its persisted row, applied source
// ids and the games its day index lists.
func RestoreDateScope(row DateRow, applied, games []string) *DateScope {
	s := &DateScope{Row: row, applied: make(map[string]struct{}, len(applied))}
	for _, src := range applied {
		s.applied[src] = struct{}{}
	}
	s.games = append([]string(nil), games...)
	return s
}

func (s *DateScope) ScopeID() string {
	return s.Row.Date.Format(scrape.DateLayout)
}

func (s *DateScope) Season() int {
	return s.Row.Date.Year()
}

// Games returns the games the latest day index lists.
func (s *DateScope) Games() []string {
	return append([]string(nil), s.games...)
}

func (s *DateScope) Applied() []string {
	out := make([]string, 0, len(s.applied))
	for src := range s.applied {
		out = append(out, src)
	}
	sort.Strings(out)
	return out
}

// DayIndexChange is the outcome of observing a day index: the delta for the
// season row and the games that entered or left the index.
type DayIndexChange struct {
	Delta  Delta
	Listed []string
	Gone   []string
}

// ObserveDayIndex records the games of idx. Observing a patched index with a
// different game list reports the games that entered and left it; an index
// listing the current games is a no-op.
func (s *DateScope) ObserveDayIndex(key SourceKey, idx scrape.DayIndex) (DayIndexChange, bool, error) {
	if key.ScopeID != s.ScopeID() {
		return DayIndexChange{}, false, crerr.Wrapf(ErrUpdateFailed, "key %s does not belong to date %s", key, s.ScopeID())
	}
	if idx.URLID() != s.ScopeID() {
		return DayIndexChange{}, false, crerr.Wrapf(ErrUpdateFailed, "key %s: day index describes %s", key, idx.URLID())
	}
	if s.Row.DayIndexScraped && sameGames(s.games, idx.GameIDs) {
		s.applied[key.SourceID] = struct{}{}
		return DayIndexChange{}, false, nil
	}

	prev := make(map[string]struct{}, len(s.games))
	for _, id := range s.games {
		prev[id] = struct{}{}
	}
	var change DayIndexChange
	next := make(map[string]struct{}, len(idx.GameIDs))
	for _, id := range idx.GameIDs {
		next[id] = struct{}{}
		if _, ok := prev[id]; !ok {
			change.Listed = append(change.Listed, id)
		}
	}
	for _, id := range s.games {
		if _, ok := next[id]; !ok {
			change.Gone = append(change.Gone, id)
		}
	}
	sort.Strings(change.Listed)
	sort.Strings(change.Gone)

	change.Delta.Games = len(idx.GameIDs) - s.Row.GameCount
	if !s.Row.DayIndexScraped {
		change.Delta.Dates = 1
	}
	s.Row.DayIndexScraped = true
	s.Row.GameCount = len(idx.GameIDs)
	s.games = append([]string(nil), idx.GameIDs...)
	s.applied[key.SourceID] = struct{}{}
	return change, true, nil
}

func sameGames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// RenameGame replaces oldID in the listed games. The game count is
// unchanged.
func (s *DateScope) RenameGame(oldID, newID string) bool {
	for i, id := range s.games {
		if id == oldID {
			s.games[i] = newID
			return true
		}
	}
	return false
}

// Apply rolls a game delta into the date row. Games and dates counts belong
// to the day index and are not taken from game deltas.
func (s *DateScope) Apply(d Delta) {
	d.Games, d.Dates = 0, 0
	s.Row.Apply(d)
}

// NewSeasonRow returns an empty rollup for year.
func NewSeasonRow(year int) SeasonRow {
	return SeasonRow{Year: year}
}

// SeasonReport is the label multiset of one season plus its date rows.
type SeasonReport struct {
	Season SeasonRow
	Dates  []DateRow
}

func (r SeasonReport) LabelShare(l Label) float64 {
	total := r.Season.Labels.Total()
	if total == 0 {
		return 0
	}
	return float64(r.Season.Labels.Get(l)) / float64(total)
}
