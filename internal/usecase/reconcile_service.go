package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/a-luna/vigorish-sub003/internal/domain/combined"
	"github.com/a-luna/vigorish-sub003/internal/domain/gameid"
	"github.com/a-luna/vigorish-sub003/internal/domain/patch"
	"github.com/a-luna/vigorish-sub003/internal/domain/reconcile"
	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
	"github.com/a-luna/vigorish-sub003/internal/domain/status"
	"github.com/a-luna/vigorish-sub003/internal/platform/logging"
)

// InputSource loads scraped inputs. The bool is false when the input was
// never scraped.
type InputSource interface {
	DayIndex(ctx context.Context, date time.Time) (scrape.DayIndex, bool, error)
	Boxscore(ctx context.Context, gameID string) (scrape.Boxscore, bool, error)
	PitchLogs(ctx context.Context, gameID string) (scrape.PitchLogSet, bool, error)
	PitchFX(ctx context.Context, pitchAppID string) (scrape.PitchFXStream, bool, error)
	ScrapedDates(ctx context.Context, year int) ([]time.Time, error)
}

// CombinedWriter persists combined records.
type CombinedWriter interface {
	WriteCombined(ctx context.Context, rec combined.GameRecord) error
}

// OutcomeRecorder receives one observation per reconciled game.
type OutcomeRecorder interface {
	ObserveGame(label status.Label, kind ErrorKind, elapsed time.Duration)
	ObserveAudit(audit combined.AuditSummary)
	ObservePatches(records []patch.Record)
}

type nopRecorder struct{}

func (nopRecorder) ObserveGame(status.Label, ErrorKind, time.Duration) {}
func (nopRecorder) ObserveAudit(combined.AuditSummary)                 {}
func (nopRecorder) ObservePatches([]patch.Record)                      {}

type ReconcileConfig struct {
	Workers int
}

type GameResult struct {
	GameID   string
	Label    status.Label
	Kind     ErrorKind
	Message  string
	Audit    *combined.AuditSummary
	Patches  []patch.Record
	Duration time.Duration
}

type BatchResult struct {
	BatchID   string
	Dates     []string
	Games     []GameResult
	Labels    status.LabelCounts
	Failed    int
	Cancelled int
}

func (b *BatchResult) add(r GameResult) {
	b.Games = append(b.Games, r)
	b.Labels.Move("", r.Label)
	if r.Kind != KindNone && r.Kind != KindInputMissing {
		b.Failed++
	}
}

func (b *BatchResult) merge(o BatchResult) {
	b.Dates = append(b.Dates, o.Dates...)
	for _, g := range o.Games {
		b.add(g)
	}
	b.Cancelled += o.Cancelled
}

// ReconcileService turns scraped inputs into combined records and status
// updates. Games of a date run in parallel on an ants pool; the reconcile
// engine is pure and all shared state goes through StatusService.
type ReconcileService struct {
	cfg     ReconcileConfig
	inputs  InputSource
	writer  CombinedWriter
	status  *StatusService
	patches *patch.Registry
	engine  *reconcile.Engine
	metrics OutcomeRecorder
	logger  *logging.Logger
}

func NewReconcileService(
	cfg ReconcileConfig,
	inputs InputSource,
	writer CombinedWriter,
	statusService *StatusService,
	patches *patch.Registry,
	engine *reconcile.Engine,
	metrics OutcomeRecorder,
	logger *logging.Logger,
) *ReconcileService {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	if engine == nil {
		engine = reconcile.NewEngine(reconcile.DefaultOptions())
	}
	return &ReconcileService{
		cfg:     cfg,
		inputs:  inputs,
		writer:  writer,
		status:  statusService,
		patches: patches,
		engine:  engine,
		metrics: metrics,
		logger:  logger,
	}
}

// ReconcileGame reconciles one game. Input-missing and failed-to-combine
// outcomes are reported in the result; the error is only set when the
// outcome could not be recorded.
func (s *ReconcileService) ReconcileGame(ctx context.Context, gameID string) (result GameResult, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconcileService.ReconcileGame", attribute.String("game_id", gameID))
	defer func() { finishSpan(span, err) }()

	start := time.Now()
	result = GameResult{GameID: gameID, Label: status.LabelNotScraped}
	defer func() {
		result.Duration = time.Since(start)
		s.metrics.ObserveGame(result.Label, result.Kind, result.Duration)
	}()

	if _, err := gameid.ParseCompact(gameID); err != nil {
		result.Kind, result.Message = KindOf(err), err.Error()
		return result, crerr.Wrapf(ErrInvalidInput, "reconcile game: %v", err)
	}

	in, records, err := s.loadGameInput(ctx, gameID)
	result.Patches = records
	if err != nil {
		result.Kind, result.Message = KindOf(err), err.Error()
		return result, err
	}
	s.metrics.ObservePatches(records)

	label, err := s.status.ObserveGameInputs(ctx, gameID, in)
	if err != nil {
		result.Kind, result.Message = KindOf(err), err.Error()
		return result, err
	}
	result.Label = label

	rec, err := s.engine.Reconcile(in)
	if err != nil {
		return s.recordFailure(ctx, result, in, err)
	}

	if err := s.writer.WriteCombined(ctx, rec); err != nil {
		result.Kind, result.Message = KindInternal, err.Error()
		return result, crerr.Wrapf(err, "write combined record %s", gameID)
	}
	label, err = s.status.RecordCombined(ctx, rec)
	if err != nil {
		result.Kind, result.Message = KindOf(err), err.Error()
		return result, err
	}
	result.Label = label
	result.Audit = &rec.Audit
	s.metrics.ObserveAudit(rec.Audit)
	s.logAudit(ctx, rec, label)
	return result, nil
}

func (s *ReconcileService) recordFailure(ctx context.Context, result GameResult, in reconcile.GameInput, cause error) (GameResult, error) {
	kind := KindOf(cause)
	result.Kind, result.Message = kind, cause.Error()
	if !failsCombine(kind) {
		s.logger.WarnContext(ctx, "game not reconciled", "game_id", result.GameID, "kind", kind, "error", cause)
		return result, nil
	}

	s.logger.ErrorContext(ctx, "game failed to combine", "game_id", result.GameID, "kind", kind, "error", cause)
	inputsKey, err := status.KeyOf(result.GameID, "inputs", in)
	if err != nil {
		return result, crerr.Wrapf(status.ErrUpdateFailed, "game %s: %v", result.GameID, err)
	}
	label, err := s.status.RecordFailure(ctx, result.GameID, kind, inputsKey.SourceID)
	if err != nil {
		return result, err
	}
	result.Label = label
	return result, nil
}

func (s *ReconcileService) logAudit(ctx context.Context, rec combined.GameRecord, label status.Label) {
	a := rec.Audit
	s.logger.InfoContext(ctx, "game reconciled",
		"game_id", rec.GameID,
		"label", label,
		"at_bats", a.TotalAtBats,
		"complete_pitches", a.Pitches.Complete,
		"missing_pitches", a.Pitches.Missing,
		"extra_pitches", a.Pitches.Extra,
		"duplicates_removed", a.Pitches.DuplicatesRemoved,
	)
	if a.OrphanCount > 0 {
		s.logger.WarnContext(ctx, "orphan pfx records", "game_id", rec.GameID, "count", a.OrphanCount)
	}
	if a.Pitches.DuplicatesRemoved > 0 {
		s.logger.WarnContext(ctx, "duplicate pfx records removed", "game_id", rec.GameID, "count", a.Pitches.DuplicatesRemoved)
	}
	for _, m := range a.PitchLogMismatches {
		s.logger.WarnContext(ctx, "pitch log disagrees with boxscore",
			"pitch_app_id", m.PitchAppID,
			"pitch_log_count", m.PitchLogCount,
			"boxscore_count", m.BoxscoreCount,
		)
	}
}

// loadGameInput fetches the boxscore and pitch logs concurrently, then every
// telemetry stream the pitch logs name. Each input goes through its patch
// list before use.
func (s *ReconcileService) loadGameInput(ctx context.Context, gameID string) (reconcile.GameInput, []patch.Record, error) {
	var (
		in      reconcile.GameInput
		mu      sync.Mutex
		records []patch.Record
	)
	patched := func(v scrape.Input) (scrape.Input, error) {
		res, err := s.patches.ApplyTo(v)
		if err != nil {
			return nil, err
		}
		s.propagate(ctx, res)
		mu.Lock()
		records = append(records, res.Records...)
		mu.Unlock()
		return res.Input, nil
	}

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		box, found, err := s.inputs.Boxscore(ctx, gameID)
		if err != nil || !found {
			return err
		}
		v, err := patched(box)
		if err != nil {
			return err
		}
		b := v.(scrape.Boxscore)
		in.Boxscore = &b
		return nil
	})
	p.Go(func(ctx context.Context) error {
		logs, found, err := s.inputs.PitchLogs(ctx, gameID)
		if err != nil || !found {
			return err
		}
		v, err := patched(logs)
		if err != nil {
			return err
		}
		l := v.(scrape.PitchLogSet)
		in.PitchLogs = &l
		return nil
	})
	if err := p.Wait(); err != nil {
		return reconcile.GameInput{}, records, crerr.Wrapf(err, "load inputs of %s", gameID)
	}
	if in.PitchLogs == nil {
		return in, records, nil
	}

	streams := make([]*scrape.PitchFXStream, len(in.PitchLogs.PitchLogs))
	p = pool.New().WithContext(ctx).WithCancelOnError().WithMaxGoroutines(s.cfg.Workers)
	for i, log := range in.PitchLogs.PitchLogs {
		i, log := i, log
		p.Go(func(ctx context.Context) error {
			stream, found, err := s.inputs.PitchFX(ctx, log.PitchAppID)
			if err != nil || !found {
				return err
			}
			v, err := patched(stream)
			if err != nil {
				return err
			}
			st := v.(scrape.PitchFXStream)
			streams[i] = &st
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return reconcile.GameInput{}, records, crerr.Wrapf(err, "load pfx of %s", gameID)
	}
	for _, st := range streams {
		if st != nil {
			in.PitchFX = append(in.PitchFX, *st)
		}
	}
	return in, records, nil
}

// propagate carries renames and removals fired by a patch list into the
// status rows. Failures are logged; the next run replays the patch.
func (s *ReconcileService) propagate(ctx context.Context, res patch.Result) {
	for _, nf := range res.NotFound() {
		s.logger.WarnContext(ctx, "patch target not found", "data_set", res.Input.DataSet(), "url_id", res.Input.URLID(), "error", nf)
	}
	for _, rn := range res.Renames {
		if _, err := s.status.RenameGame(ctx, rn.Old, rn.New); err != nil {
			s.logger.ErrorContext(ctx, "propagate rename", "old_game_id", rn.Old, "new_game_id", rn.New, "error", err)
		}
	}
	for _, id := range res.Removed {
		if _, err := s.status.ReleaseGame(ctx, id); err != nil {
			s.logger.ErrorContext(ctx, "propagate removal", "game_id", id, "error", err)
		}
	}
}

// ReconcileDate patches the day index of date, records it and reconciles its
// games in parallel. Cancelling ctx stops new games from being submitted.
func (s *ReconcileService) ReconcileDate(ctx context.Context, date time.Time) (result BatchResult, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconcileService.ReconcileDate", attribute.String("date", date.Format(scrape.DateLayout)))
	defer func() { finishSpan(span, err) }()

	result = BatchResult{BatchID: uuid.NewString()}
	logger := s.logger.With("batch_id", result.BatchID, "date", date.Format(scrape.DateLayout))

	idx, found, err := s.inputs.DayIndex(ctx, date)
	if err != nil {
		return result, crerr.Wrapf(err, "load day index %s", date.Format(scrape.DateLayout))
	}
	if !found {
		return result, crerr.Wrapf(ErrNotFound, "day index %s was never scraped", date.Format(scrape.DateLayout))
	}
	res, err := s.patches.ApplyTo(idx)
	if err != nil {
		return result, err
	}
	s.propagate(ctx, res)
	s.metrics.ObservePatches(res.Records)
	idx = res.Input.(scrape.DayIndex)
	if _, err := s.status.ObserveDayIndex(ctx, idx); err != nil {
		return result, err
	}
	result.Dates = []string{idx.URLID()}

	games, cancelled, err := s.runGames(ctx, idx.GameIDs)
	if err != nil {
		return result, err
	}
	for _, g := range games {
		result.add(g)
	}
	result.Cancelled = cancelled
	logger.InfoContext(ctx, "date reconciled",
		"games", len(result.Games),
		"failed", result.Failed,
		"cancelled", result.Cancelled,
		"successful", result.Labels.Successful,
	)
	return result, nil
}

func (s *ReconcileService) runGames(ctx context.Context, gameIDs []string) ([]GameResult, int, error) {
	workers := s.cfg.Workers
	if workers > len(gameIDs) {
		workers = len(gameIDs)
	}
	if workers == 0 {
		return nil, 0, nil
	}

	p, err := ants.NewPool(workers)
	if err != nil {
		return nil, 0, crerr.Wrap(err, "create worker pool")
	}
	defer p.Release()

	results := make(chan GameResult, len(gameIDs))
	var wg sync.WaitGroup
	cancelled := 0
	for _, id := range gameIDs {
		id := id
		if ctx.Err() != nil {
			cancelled++
			continue
		}
		wg.Add(1)
		if err := p.Submit(func() {
			defer wg.Done()
			r, err := s.ReconcileGame(ctx, id)
			if err != nil {
				s.logger.ErrorContext(ctx, "reconcile game", "game_id", id, "kind", KindOf(err), "error", err)
			}
			results <- r
		}); err != nil {
			wg.Done()
			wg.Wait()
			return nil, 0, crerr.Wrap(err, "submit game to worker pool")
		}
	}
	wg.Wait()
	close(results)

	out := make([]GameResult, 0, len(gameIDs))
	for r := range results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameID < out[j].GameID })
	return out, cancelled, nil
}

// ReconcileSeason reconciles every scraped date of year in calendar order.
func (s *ReconcileService) ReconcileSeason(ctx context.Context, year int) (result BatchResult, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconcileService.ReconcileSeason", attribute.Int("season", year))
	defer func() { finishSpan(span, err) }()

	result = BatchResult{BatchID: uuid.NewString()}
	dates, err := s.inputs.ScrapedDates(ctx, year)
	if err != nil {
		return result, crerr.Wrapf(err, "list scraped dates of %d", year)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	for _, date := range dates {
		if ctx.Err() != nil {
			break
		}
		day, err := s.ReconcileDate(ctx, date)
		if err != nil {
			if crerr.Is(err, ErrNotFound) {
				continue
			}
			return result, err
		}
		result.merge(day)
	}
	s.logger.InfoContext(ctx, "season reconciled",
		"batch_id", result.BatchID,
		"season", year,
		"dates", len(result.Dates),
		"games", len(result.Games),
		"failed", result.Failed,
	)
	return result, nil
}
