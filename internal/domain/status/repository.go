package status

import (
	"context"
	"time"
)

// Update is everything one status write touches. A repository commits it
// atomically, deleting before it saves.
type Update struct {
	Games       []*GameScope
	DeleteGames []string
	Date        *DateScope
	Season      *SeasonRow
}

// Repository persists status rows.
type Repository interface {
	GetGame(ctx context.Context, gameID string) (*GameScope, bool, error)
	GetDate(ctx context.Context, date time.Time) (*DateScope, bool, error)
	GetSeason(ctx context.Context, year int) (SeasonRow, bool, error)
	ListGames(ctx context.Context, date time.Time) ([]GameRow, error)
	ListDates(ctx context.Context, year int) ([]DateRow, error)
	Commit(ctx context.Context, u Update) error
}
