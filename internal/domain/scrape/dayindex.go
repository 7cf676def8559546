package scrape

import (
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/a-luna/vigorish-sub003/internal/domain/gameid"
)

const DateLayout = "2006-01-02"

// DayIndex lists the games played on one calendar date.
type DayIndex struct {
	Date           time.Time `json:"game_date" validate:"required"`
	GameIDs        []string  `json:"games_for_date" validate:"dive,len=12"`
	URL            string    `json:"dashboard_url"`
	RemovedGameIDs []string  `json:"removed_games,omitempty"`
}

func (DayIndex) DataSet() DataSet { return DataSetDayIndex }
func (d DayIndex) URLID() string  { return d.Date.Format(DateLayout) }
func (DayIndex) isInput()         {}

func (d DayIndex) GameCount() int {
	return len(d.GameIDs)
}

func (d DayIndex) Contains(gameID string) bool {
	for _, id := range d.GameIDs {
		if id == gameID {
			return true
		}
	}
	return false
}

func (d DayIndex) WasRemoved(gameID string) bool {
	for _, id := range d.RemovedGameIDs {
		if id == gameID {
			return true
		}
	}
	return false
}

// Validate checks that every game belongs to the index date and appears once.
func (d DayIndex) Validate() error {
	seen := make(map[string]struct{}, len(d.GameIDs))
	for _, token := range d.GameIDs {
		id, err := gameid.ParseCompact(token)
		if err != nil {
			return err
		}
		if !sameDay(id.Date, d.Date) {
			return crerr.Wrapf(ErrInvalid, "day index %s lists game %s from another date", d.URLID(), token)
		}
		if _, ok := seen[token]; ok {
			return crerr.Wrapf(ErrInvalid, "day index %s lists game %s twice", d.URLID(), token)
		}
		seen[token] = struct{}{}
	}
	return nil
}

// Clone returns a deep copy so patches never touch the loaded value.
func (d DayIndex) Clone() DayIndex {
	d.GameIDs = append([]string(nil), d.GameIDs...)
	d.RemovedGameIDs = append([]string(nil), d.RemovedGameIDs...)
	return d
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
