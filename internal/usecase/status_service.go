package usecase

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/a-luna/vigorish-sub003/internal/domain/combined"
	"github.com/a-luna/vigorish-sub003/internal/domain/gameid"
	"github.com/a-luna/vigorish-sub003/internal/domain/reconcile"
	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
	"github.com/a-luna/vigorish-sub003/internal/domain/status"
	"github.com/a-luna/vigorish-sub003/internal/platform/logging"
)

// StatusService is the only writer of status rows. Writers of one scope are
// serialised; locks are always taken season, then date, then game.
type StatusService struct {
	repo   status.Repository
	locks  *scopeLocks
	logger *logging.Logger
	now    func() time.Time
}

func NewStatusService(repo status.Repository, logger *logging.Logger) *StatusService {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatusService{
		repo:   repo,
		locks:  newScopeLocks(),
		logger: logger,
		now:    time.Now,
	}
}

// ObserveDayIndex records a (patched) day index. Newly listed games get a
// not-scraped row; games the index no longer lists are released.
func (s *StatusService) ObserveDayIndex(ctx context.Context, idx scrape.DayIndex) (change status.DayIndexChange, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatusService.ObserveDayIndex", attribute.String("date", idx.URLID()))
	defer func() { finishSpan(span, err) }()

	scopeID := idx.URLID()
	key, err := status.KeyOf(scopeID, "day_index", idx)
	if err != nil {
		return status.DayIndexChange{}, crerr.Wrapf(status.ErrUpdateFailed, "day index %s: %v", scopeID, err)
	}

	unlock := s.locks.lock(seasonLock(idx.Date.Year()), dateLock(idx.Date))
	defer unlock()

	date, season, err := s.loadDate(ctx, idx.Date)
	if err != nil {
		return status.DayIndexChange{}, err
	}
	change, changed, err := date.ObserveDayIndex(key, idx)
	if err != nil || !changed {
		return change, err
	}
	season.Apply(change.Delta)

	update := status.Update{Date: date, Season: &season}
	for _, id := range change.Listed {
		unlockGame := s.locks.lock(gameLock(id))
		game, found, err := s.repo.GetGame(ctx, id)
		if err != nil {
			unlockGame()
			return status.DayIndexChange{}, crerr.Wrapf(status.ErrUpdateFailed, "key %s: load game %s: %v", key, id, err)
		}
		if !found {
			game, err = status.NewGameScope(id)
			if err != nil {
				unlockGame()
				return status.DayIndexChange{}, err
			}
			created := game.Created()
			date.Apply(created)
			season.Apply(created)
			game.Row.UpdatedAt = s.now()
			update.Games = append(update.Games, game)
		}
		unlockGame()
	}
	for _, id := range change.Gone {
		unlockGame := s.locks.lock(gameLock(id))
		game, found, err := s.repo.GetGame(ctx, id)
		unlockGame()
		if err != nil {
			return status.DayIndexChange{}, crerr.Wrapf(status.ErrUpdateFailed, "key %s: load game %s: %v", key, id, err)
		}
		if !found {
			continue
		}
		released := game.Release()
		date.Apply(released)
		season.Apply(released)
		update.DeleteGames = append(update.DeleteGames, id)
	}

	if err := s.commit(ctx, key, update); err != nil {
		return status.DayIndexChange{}, err
	}
	s.logger.InfoContext(ctx, "day index observed",
		"date", scopeID,
		"game_count", date.Row.GameCount,
		"listed", len(change.Listed),
		"released", len(update.DeleteGames),
	)
	return change, nil
}

// ObserveGameInputs records whichever inputs of in are present.
func (s *StatusService) ObserveGameInputs(ctx context.Context, gameID string, in reconcile.GameInput) (status.Label, error) {
	return s.updateGame(ctx, gameID, func(game *status.GameScope) (status.Delta, bool, error) {
		var (
			total   = status.Delta{OldLabel: game.Row.Label, NewLabel: game.Row.Label}
			changed bool
		)
		step := func(d status.Delta, ok bool, err error) error {
			if err != nil {
				return err
			}
			if ok {
				changed = true
				total.NewLabel = d.NewLabel
				total.Counters = total.Counters.Add(d.Counters)
			}
			return nil
		}

		if in.Boxscore != nil {
			key, err := status.KeyOf(gameID, "boxscore", in.Boxscore)
			if err != nil {
				return status.Delta{}, false, err
			}
			if err := step(game.ObserveBoxscore(key, *in.Boxscore)); err != nil {
				return status.Delta{}, false, err
			}
		}
		if in.PitchLogs != nil {
			key, err := status.KeyOf(gameID, "pitch_logs", in.PitchLogs)
			if err != nil {
				return status.Delta{}, false, err
			}
			if err := step(game.ObservePitchLogs(key, *in.PitchLogs)); err != nil {
				return status.Delta{}, false, err
			}
		}
		for _, stream := range in.PitchFX {
			key, err := status.KeyOf(gameID, "pitchfx", stream)
			if err != nil {
				return status.Delta{}, false, err
			}
			if err := step(game.ObservePitchFX(key, stream)); err != nil {
				return status.Delta{}, false, err
			}
		}
		return total, changed, nil
	})
}

// RecordCombined applies a combined record. Re-submitting the same record
// changes nothing.
func (s *StatusService) RecordCombined(ctx context.Context, rec combined.GameRecord) (status.Label, error) {
	key, err := status.CombinedKey(rec)
	if err != nil {
		return "", crerr.Wrapf(status.ErrUpdateFailed, "combined record %s: %v", rec.GameID, err)
	}
	return s.updateGame(ctx, rec.GameID, func(game *status.GameScope) (status.Delta, bool, error) {
		return game.ApplyCombined(key, rec)
	})
}

// RecordFailure marks a game failed-to-combine. inputsDigest identifies the
// inputs that failed so a retry on the same inputs is a no-op.
func (s *StatusService) RecordFailure(ctx context.Context, gameID string, kind ErrorKind, inputsDigest string) (status.Label, error) {
	key := status.FailureKey(gameID, string(kind), inputsDigest)
	return s.updateGame(ctx, gameID, func(game *status.GameScope) (status.Delta, bool, error) {
		return game.ApplyFailure(key, string(kind))
	})
}

// RenameGame moves the rows of oldID to newID. It is a no-op when oldID has
// no row, which makes replaying a rename patch harmless. If newID already has
// a row the old one is released instead.
func (s *StatusService) RenameGame(ctx context.Context, oldID, newID string) (renamed bool, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatusService.RenameGame",
		attribute.String("old_game_id", oldID), attribute.String("new_game_id", newID))
	defer func() { finishSpan(span, err) }()

	old, err := gameid.ParseCompact(oldID)
	if err != nil {
		return false, crerr.Wrapf(status.ErrUpdateFailed, "rename %s: %v", oldID, err)
	}
	unlock := s.locks.lock(seasonLock(old.Season()), dateLock(old.Date), gameLock(oldID), gameLock(newID))
	defer unlock()

	game, found, err := s.repo.GetGame(ctx, oldID)
	if err != nil {
		return false, crerr.Wrapf(status.ErrUpdateFailed, "rename %s: load: %v", oldID, err)
	}
	if !found {
		return false, nil
	}
	_, taken, err := s.repo.GetGame(ctx, newID)
	if err != nil {
		return false, crerr.Wrapf(status.ErrUpdateFailed, "rename %s: load %s: %v", oldID, newID, err)
	}
	date, season, err := s.loadDate(ctx, old.Date)
	if err != nil {
		return false, err
	}

	update := status.Update{DeleteGames: []string{oldID}, Date: date, Season: &season}
	if taken {
		released := game.Release()
		date.Apply(released)
		season.Apply(released)
	} else {
		if err := game.Rename(newID); err != nil {
			return false, err
		}
		game.Row.UpdatedAt = s.now()
		update.Games = []*status.GameScope{game}
		date.RenameGame(oldID, newID)
	}

	key := status.SourceKey{ScopeID: oldID, SourceID: "rename:" + newID}
	if err := s.commit(ctx, key, update); err != nil {
		return false, err
	}
	s.logger.InfoContext(ctx, "status row renamed", "old_game_id", oldID, "new_game_id", newID, "merged", taken)
	return true, nil
}

// ReleaseGame drops the rows of a game removed from its day index.
func (s *StatusService) ReleaseGame(ctx context.Context, gameID string) (released bool, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatusService.ReleaseGame", attribute.String("game_id", gameID))
	defer func() { finishSpan(span, err) }()

	id, err := gameid.ParseCompact(gameID)
	if err != nil {
		return false, crerr.Wrapf(status.ErrUpdateFailed, "release %s: %v", gameID, err)
	}
	unlock := s.locks.lock(seasonLock(id.Season()), dateLock(id.Date), gameLock(gameID))
	defer unlock()

	game, found, err := s.repo.GetGame(ctx, gameID)
	if err != nil {
		return false, crerr.Wrapf(status.ErrUpdateFailed, "release %s: load: %v", gameID, err)
	}
	if !found {
		return false, nil
	}
	date, season, err := s.loadDate(ctx, id.Date)
	if err != nil {
		return false, err
	}
	delta := game.Release()
	date.Apply(delta)
	season.Apply(delta)

	key := status.SourceKey{ScopeID: gameID, SourceID: "release"}
	if err := s.commit(ctx, key, status.Update{DeleteGames: []string{gameID}, Date: date, Season: &season}); err != nil {
		return false, err
	}
	s.logger.InfoContext(ctx, "status row released", "game_id", gameID)
	return true, nil
}

func (s *StatusService) GameStatus(ctx context.Context, gameID string) (status.GameRow, error) {
	game, found, err := s.repo.GetGame(ctx, gameID)
	if err != nil {
		return status.GameRow{}, crerr.Wrapf(err, "get game status %s", gameID)
	}
	if !found {
		return status.GameRow{}, crerr.Wrapf(ErrNotFound, "game %s has no status row", gameID)
	}
	return game.Row, nil
}

// SeasonReport returns the label multiset of a season with its date rows.
func (s *StatusService) SeasonReport(ctx context.Context, year int) (report status.SeasonReport, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatusService.SeasonReport", attribute.Int("season", year))
	defer func() { finishSpan(span, err) }()

	if year < 1900 {
		return status.SeasonReport{}, crerr.Wrapf(ErrInvalidInput, "season %d", year)
	}
	season, found, err := s.repo.GetSeason(ctx, year)
	if err != nil {
		return status.SeasonReport{}, crerr.Wrapf(err, "get season %d", year)
	}
	if !found {
		return status.SeasonReport{}, crerr.Wrapf(ErrNotFound, "season %d has no status rows", year)
	}
	dates, err := s.repo.ListDates(ctx, year)
	if err != nil {
		return status.SeasonReport{}, crerr.Wrapf(err, "list dates of season %d", year)
	}
	return status.SeasonReport{Season: season, Dates: dates}, nil
}

// updateGame loads the scopes of one game under the season, date and game
// locks, applies fn and commits the game with the rollups it changed.
func (s *StatusService) updateGame(
	ctx context.Context,
	gameID string,
	fn func(game *status.GameScope) (status.Delta, bool, error),
) (label status.Label, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatusService.updateGame", attribute.String("game_id", gameID))
	defer func() { finishSpan(span, err) }()

	id, err := gameid.ParseCompact(gameID)
	if err != nil {
		return "", crerr.Wrapf(status.ErrUpdateFailed, "game %s: %v", gameID, err)
	}
	unlock := s.locks.lock(seasonLock(id.Season()), dateLock(id.Date), gameLock(gameID))
	defer unlock()

	date, season, err := s.loadDate(ctx, id.Date)
	if err != nil {
		return "", err
	}
	game, found, err := s.repo.GetGame(ctx, gameID)
	if err != nil {
		return "", crerr.Wrapf(status.ErrUpdateFailed, "game %s: load: %v", gameID, err)
	}
	if !found {
		if game, err = status.NewGameScope(gameID); err != nil {
			return "", err
		}
		created := game.Created()
		date.Apply(created)
		season.Apply(created)
	}

	delta, changed, err := fn(game)
	if err != nil {
		if !crerr.Is(err, status.ErrUpdateFailed) {
			err = crerr.Wrapf(status.ErrUpdateFailed, "game %s: %v", gameID, err)
		}
		return "", err
	}
	if !changed && found {
		return game.Row.Label, nil
	}
	date.Apply(delta)
	season.Apply(delta)
	game.Row.UpdatedAt = s.now()

	key := status.SourceKey{ScopeID: gameID, SourceID: "update"}
	if err := s.commit(ctx, key, status.Update{Games: []*status.GameScope{game}, Date: date, Season: &season}); err != nil {
		return "", err
	}
	return game.Row.Label, nil
}

func (s *StatusService) loadDate(ctx context.Context, day time.Time) (*status.DateScope, status.SeasonRow, error) {
	date, found, err := s.repo.GetDate(ctx, day)
	if err != nil {
		return nil, status.SeasonRow{}, crerr.Wrapf(status.ErrUpdateFailed, "date %s: load: %v", day.Format(scrape.DateLayout), err)
	}
	if !found {
		date = status.NewDateScope(day)
	}
	season, found, err := s.repo.GetSeason(ctx, day.Year())
	if err != nil {
		return nil, status.SeasonRow{}, crerr.Wrapf(status.ErrUpdateFailed, "season %d: load: %v", day.Year(), err)
	}
	if !found {
		season = status.NewSeasonRow(day.Year())
	}
	return date, season, nil
}

func (s *StatusService) commit(ctx context.Context, key status.SourceKey, u status.Update) error {
	now := s.now()
	if u.Date != nil {
		u.Date.Row.UpdatedAt = now
	}
	if u.Season != nil {
		u.Season.UpdatedAt = now
	}
	if err := s.repo.Commit(ctx, u); err != nil {
		s.logger.ErrorContext(ctx, "status commit failed", "key", key.String(), "error", err)
		return crerr.Wrapf(status.ErrUpdateFailed, "key %s: commit: %v", key, err)
	}
	return nil
}

// scopeLocks hands out one mutex per scope key.
type scopeLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newScopeLocks() *scopeLocks {
	return &scopeLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires keys in the given order, skipping repeats, and returns the
// release func. Callers pass keys in season, date, game order; game keys of
// one call are taken in sorted order.
func (l *scopeLocks) lock(keys ...string) func() {
	ordered := dedupeLockKeys(keys)
	held := make([]*sync.Mutex, 0, len(ordered))
	for _, key := range ordered {
		l.mu.Lock()
		m, ok := l.locks[key]
		if !ok {
			m = &sync.Mutex{}
			l.locks[key] = m
		}
		l.mu.Unlock()
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func dedupeLockKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	var games []string
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if strings.HasPrefix(key, "game:") {
			games = append(games, key)
			continue
		}
		out = append(out, key)
	}
	sort.Strings(games)
	return append(out, games...)
}

func seasonLock(year int) string {
	return "season:" + strconv.Itoa(year)
}

func dateLock(day time.Time) string {
	return "date:" + day.Format(scrape.DateLayout)
}

func gameLock(gameID string) string {
	return "game:" + gameID
}
