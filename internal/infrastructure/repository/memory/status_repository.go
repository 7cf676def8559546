package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
	"github.com/a-luna/vigorish-sub003/internal/domain/status"
)

type storedGame struct {
	row     status.GameRow
	applied []string
}

type storedDate struct {
	row     status.DateRow
	applied []string
	games   []string
}

// StatusRepository keeps status rows in process. Commit holds the write lock
// for the whole update, which makes it atomic for readers.
type StatusRepository struct {
	mu      sync.RWMutex
	games   map[string]storedGame
	dates   map[string]storedDate
	seasons map[int]status.SeasonRow
}

func NewStatusRepository() *StatusRepository {
	return &StatusRepository{
		games:   make(map[string]storedGame),
		dates:   make(map[string]storedDate),
		seasons: make(map[int]status.SeasonRow),
	}
}

func (r *StatusRepository) GetGame(_ context.Context, gameID string) (*status.GameScope, bool, error) {
	r.mu.RLock()
	item, ok := r.games[gameID]
	r.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	scope, err := status.RestoreGameScope(item.row, item.applied)
	if err != nil {
		return nil, false, err
	}
	return scope, true, nil
}

func (r *StatusRepository) GetDate(_ context.Context, date time.Time) (*status.DateScope, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.dates[dateKey(date)]
	if !ok {
		return nil, false, nil
	}
	return status.RestoreDateScope(item.row, item.applied, item.games), true, nil
}

func (r *StatusRepository) GetSeason(_ context.Context, year int) (status.SeasonRow, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.seasons[year]
	return item, ok, nil
}

func (r *StatusRepository) ListGames(_ context.Context, date time.Time) ([]status.GameRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := dateKey(date)
	out := make([]status.GameRow, 0)
	for _, item := range r.games {
		if dateKey(item.row.GameDate) == key {
			out = append(out, item.row.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameID < out[j].GameID })
	return out, nil
}

func (r *StatusRepository) ListDates(_ context.Context, year int) ([]status.DateRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]status.DateRow, 0)
	for _, item := range r.dates {
		if item.row.Date.Year() == year {
			out = append(out, item.row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *StatusRepository) Commit(_ context.Context, u status.Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range u.DeleteGames {
		delete(r.games, id)
	}
	for _, game := range u.Games {
		r.games[game.Row.GameID] = storedGame{row: game.Row.Clone(), applied: game.Applied()}
	}
	if u.Date != nil {
		r.dates[dateKey(u.Date.Row.Date)] = storedDate{
			row:     u.Date.Row,
			applied: u.Date.Applied(),
			games:   u.Date.Games(),
		}
	}
	if u.Season != nil {
		r.seasons[u.Season.Year] = *u.Season
	}
	return nil
}

func dateKey(date time.Time) string {
	return date.Format(scrape.DateLayout)
}
