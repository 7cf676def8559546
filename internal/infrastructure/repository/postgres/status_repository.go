package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
	"github.com/a-luna/vigorish-sub003/internal/domain/status"
	qb "github.com/a-luna/vigorish-sub003/internal/platform/querybuilder"
)

type StatusRepository struct {
	db *sqlx.DB
}

func NewStatusRepository(db *sqlx.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

func (r *StatusRepository) GetGame(ctx context.Context, gameID string) (*status.GameScope, bool, error) {
	query, args, err := qb.Select("*").
		From(statusGamesTable).
		Where(qb.Eq("bbref_game_id", gameID)).
		ToSQL()
	if err != nil {
		return nil, false, fmt.Errorf("build get status game query: %w", err)
	}

	var row statusGameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get status game %s: %w", gameID, err)
	}
	apps, err := r.pitchApps(ctx, qb.Eq("bbref_game_id", gameID))
	if err != nil {
		return nil, false, err
	}
	game := gameFromRow(row, apps)

	applied, err := r.appliedSources(ctx, r.db, gameID)
	if err != nil {
		return nil, false, err
	}
	scope, err := status.RestoreGameScope(game, applied)
	if err != nil {
		return nil, false, err
	}
	return scope, true, nil
}

func (r *StatusRepository) GetDate(ctx context.Context, date time.Time) (*status.DateScope, bool, error) {
	query, args, err := qb.Select("*").
		From(statusDatesTable).
		Where(qb.Eq("game_date", date.Format(scrape.DateLayout))).
		ToSQL()
	if err != nil {
		return nil, false, fmt.Errorf("build get status date query: %w", err)
	}

	var row statusDateTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get status date %s: %w", date.Format(scrape.DateLayout), err)
	}
	applied, err := r.appliedSources(ctx, r.db, date.Format(scrape.DateLayout))
	if err != nil {
		return nil, false, err
	}
	return status.RestoreDateScope(dateFromRow(row), applied, row.GameIDs), true, nil
}

func (r *StatusRepository) GetSeason(ctx context.Context, year int) (status.SeasonRow, bool, error) {
	query, args, err := qb.Select("*").
		From(statusSeasonsTable).
		Where(qb.Eq("season_year", year)).
		ToSQL()
	if err != nil {
		return status.SeasonRow{}, false, fmt.Errorf("build get status season query: %w", err)
	}

	var row statusSeasonTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return status.SeasonRow{}, false, nil
		}
		return status.SeasonRow{}, false, fmt.Errorf("get status season %d: %w", year, err)
	}
	return seasonFromRow(row), true, nil
}

func (r *StatusRepository) ListGames(ctx context.Context, date time.Time) ([]status.GameRow, error) {
	query, args, err := qb.Select("*").
		From(statusGamesTable).
		Where(qb.Eq("game_date", date.Format(scrape.DateLayout))).
		OrderBy("bbref_game_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list status games query: %w", err)
	}

	var rows []statusGameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list status games: %w", err)
	}
	apps, err := r.pitchApps(ctx, qb.Eq("game_date", date.Format(scrape.DateLayout)))
	if err != nil {
		return nil, err
	}
	byGame := make(map[string][]statusPitchAppTableModel, len(rows))
	for _, pa := range apps {
		byGame[pa.GameID] = append(byGame[pa.GameID], pa)
	}
	out := make([]status.GameRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, gameFromRow(row, byGame[row.GameID]))
	}
	return out, nil
}

func (r *StatusRepository) ListDates(ctx context.Context, year int) ([]status.DateRow, error) {
	query, args, err := qb.Select("*").
		From(statusDatesTable).
		Where(qb.Eq("season_year", year)).
		OrderBy("game_date").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list status dates query: %w", err)
	}

	var rows []statusDateTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list status dates: %w", err)
	}
	out := make([]status.DateRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, dateFromRow(row))
	}
	return out, nil
}

// Commit writes one update in a single transaction: deletes first, then the
// game rows with their pitch apps and applied keys, then date and season.
func (r *StatusRepository) Commit(ctx context.Context, u status.Update) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx commit status update: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, id := range u.DeleteGames {
		if err := r.deleteGame(ctx, tx, id); err != nil {
			return err
		}
	}
	for _, game := range u.Games {
		if err := r.saveGame(ctx, tx, game); err != nil {
			return err
		}
	}
	if u.Date != nil {
		if err := r.saveDate(ctx, tx, u.Date); err != nil {
			return err
		}
	}
	if u.Season != nil {
		if err := r.saveSeason(ctx, tx, *u.Season); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit status update: %w", err)
	}
	return nil
}

func (r *StatusRepository) deleteGame(ctx context.Context, tx *sqlx.Tx, gameID string) error {
	if err := execDelete(ctx, tx, statusGamesTable, qb.Eq("bbref_game_id", gameID)); err != nil {
		return fmt.Errorf("delete status game %s: %w", gameID, err)
	}
	return r.clearAppliedSources(ctx, tx, gameID)
}

func (r *StatusRepository) saveGame(ctx context.Context, tx *sqlx.Tx, game *status.GameScope) error {
	row := gameToRow(game.Row)
	if err := upsertModel(ctx, tx, statusGamesTable, "bbref_game_id", row); err != nil {
		return fmt.Errorf("upsert status game %s: %w", row.GameID, err)
	}

	if err := execDelete(ctx, tx, statusPitchAppsTable, qb.Eq("bbref_game_id", row.GameID)); err != nil {
		return fmt.Errorf("clear status pitch apps of %s: %w", row.GameID, err)
	}
	if len(game.Row.PitchApps) > 0 {
		cols, _, err := qb.ColumnsAndValues(statusPitchAppTableModel{})
		if err != nil {
			return err
		}
		insert := qb.InsertInto(statusPitchAppsTable).Columns(cols...)
		for _, pa := range game.Row.PitchApps {
			_, vals, err := qb.ColumnsAndValues(pitchAppToRow(pa, row.GameDate))
			if err != nil {
				return err
			}
			insert.Values(vals...)
		}
		query, args, err := insert.ToSQL()
		if err != nil {
			return fmt.Errorf("build insert status pitch apps query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert status pitch apps of %s: %w", row.GameID, err)
		}
	}

	return r.replaceAppliedSources(ctx, tx, row.GameID, game.Applied())
}

func (r *StatusRepository) saveDate(ctx context.Context, tx *sqlx.Tx, date *status.DateScope) error {
	if err := upsertModel(ctx, tx, statusDatesTable, "game_date", dateToRow(date)); err != nil {
		return fmt.Errorf("upsert status date %s: %w", date.ScopeID(), err)
	}
	return r.replaceAppliedSources(ctx, tx, date.ScopeID(), date.Applied())
}

func (r *StatusRepository) saveSeason(ctx context.Context, tx *sqlx.Tx, season status.SeasonRow) error {
	if err := upsertModel(ctx, tx, statusSeasonsTable, "season_year", seasonToRow(season)); err != nil {
		return fmt.Errorf("upsert status season %d: %w", season.Year, err)
	}
	return nil
}

func (r *StatusRepository) pitchApps(ctx context.Context, conditions ...qb.Condition) ([]statusPitchAppTableModel, error) {
	query, args, err := qb.Select("*").
		From(statusPitchAppsTable).
		Where(conditions...).
		OrderBy("bbref_game_id", "pitch_app_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list status pitch apps query: %w", err)
	}
	var rows []statusPitchAppTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list status pitch apps: %w", err)
	}
	return rows, nil
}

func (r *StatusRepository) appliedSources(ctx context.Context, q sqlx.QueryerContext, scopeID string) ([]string, error) {
	query, args, err := qb.Select("source_id").
		From(statusAppliedSourcesTable).
		Where(qb.Eq("scope_id", scopeID)).
		OrderBy("source_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list applied sources query: %w", err)
	}
	var out []string
	if err := sqlx.SelectContext(ctx, q, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list applied sources of %s: %w", scopeID, err)
	}
	return out, nil
}

func (r *StatusRepository) clearAppliedSources(ctx context.Context, tx *sqlx.Tx, scopeID string) error {
	if err := execDelete(ctx, tx, statusAppliedSourcesTable, qb.Eq("scope_id", scopeID)); err != nil {
		return fmt.Errorf("clear applied sources of %s: %w", scopeID, err)
	}
	return nil
}

// replaceAppliedSources inserts the keys of a scope that are not stored yet.
// Keys are only removed together with their scope.
func (r *StatusRepository) replaceAppliedSources(ctx context.Context, tx *sqlx.Tx, scopeID string, sources []string) error {
	if len(sources) == 0 {
		return nil
	}
	insert := qb.InsertInto(statusAppliedSourcesTable).Columns("scope_id", "source_id")
	for _, src := range sources {
		insert.Values(scopeID, src)
	}
	query, args, err := insert.Suffix("ON CONFLICT (scope_id, source_id) DO NOTHING").ToSQL()
	if err != nil {
		return fmt.Errorf("build insert applied sources query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert applied sources of %s: %w", scopeID, err)
	}
	return nil
}

func upsertModel(ctx context.Context, tx *sqlx.Tx, table, conflict string, model any) error {
	cols, _, err := qb.ColumnsAndValues(model)
	if err != nil {
		return err
	}
	query, args, err := qb.InsertModel(table, model, upsertSuffix(conflict, cols))
	if err != nil {
		return fmt.Errorf("build upsert %s query: %w", table, err)
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func execDelete(ctx context.Context, tx *sqlx.Tx, table string, conditions ...qb.Condition) error {
	query, args, err := qb.DeleteFrom(table).Where(conditions...).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete %s query: %w", table, err)
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}
