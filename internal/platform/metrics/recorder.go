// Package metrics exports reconcile outcomes as prometheus metrics. Batch
// runs have no scrape endpoint, so the registry is written to a
// node-exporter textfile when the run ends.
package metrics

import (
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/a-luna/vigorish-sub003/internal/domain/combined"
	"github.com/a-luna/vigorish-sub003/internal/domain/patch"
	"github.com/a-luna/vigorish-sub003/internal/domain/status"
	"github.com/a-luna/vigorish-sub003/internal/usecase"
)

type Option func(*Recorder)

func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		if namespace != "" {
			r.namespace = namespace
		}
	}
}

func WithHistogramBuckets(buckets []float64) Option {
	return func(r *Recorder) {
		if len(buckets) > 0 {
			r.buckets = buckets
		}
	}
}

// WithRegistry swaps the private registry, e.g. for prometheus.DefaultRegisterer.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(r *Recorder) {
		if registry != nil {
			r.registry = registry
		}
	}
}

// Recorder implements usecase.OutcomeRecorder.
type Recorder struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	games        *prometheus.CounterVec
	gameDuration prometheus.Histogram
	atBats       *prometheus.CounterVec
	pitches      *prometheus.CounterVec
	orphans      prometheus.Counter
	mismatches   prometheus.Counter
	patches      *prometheus.CounterVec
}

func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		namespace: "vigorish",
		buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}

	auto := promauto.With(r.registry)
	r.games = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "reconcile",
		Name:      "games_total",
		Help:      "Games reconciled, by resulting status label and error kind.",
	}, []string{"label", "kind"})
	r.gameDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Subsystem: "reconcile",
		Name:      "game_duration_seconds",
		Help:      "Wall time spent reconciling one game.",
		Buckets:   r.buckets,
	})
	r.atBats = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "reconcile",
		Name:      "at_bats_total",
		Help:      "At-bats of combined records, by audit category.",
	}, []string{"category"})
	r.pitches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "reconcile",
		Name:      "pitches_total",
		Help:      "Pitches of combined records, by audit outcome.",
	}, []string{"outcome"})
	r.orphans = auto.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "reconcile",
		Name:      "orphan_pfx_total",
		Help:      "Telemetry records no at-bat could claim.",
	})
	r.mismatches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "reconcile",
		Name:      "pitch_log_mismatches_total",
		Help:      "Pitch logs whose count disagrees with the boxscore.",
	})
	r.patches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "patch",
		Name:      "applied_total",
		Help:      "Patches evaluated, by kind and outcome.",
	}, []string{"kind", "outcome"})
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) ObserveGame(label status.Label, kind usecase.ErrorKind, elapsed time.Duration) {
	k := string(kind)
	if k == "" {
		k = "none"
	}
	r.games.WithLabelValues(string(label), k).Inc()
	r.gameDuration.Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveAudit(audit combined.AuditSummary) {
	for _, c := range combined.Categories() {
		if n := audit.AtBats.Get(c); n > 0 {
			r.atBats.WithLabelValues(string(c)).Add(float64(n))
		}
	}
	p := audit.Pitches
	for outcome, n := range map[string]int{
		"complete":           p.Complete,
		"patched":            p.Patched,
		"missing":            p.Missing,
		"extra":              p.Extra,
		"duplicates_removed": p.DuplicatesRemoved,
		"invalid":            p.Invalid,
		"out_of_sequence":    p.OutOfSequence,
	} {
		if n > 0 {
			r.pitches.WithLabelValues(outcome).Add(float64(n))
		}
	}
	r.orphans.Add(float64(audit.OrphanCount))
	r.mismatches.Add(float64(len(audit.PitchLogMismatches)))
}

func (r *Recorder) ObservePatches(records []patch.Record) {
	for _, rec := range records {
		r.patches.WithLabelValues(string(rec.Kind), string(rec.Outcome)).Inc()
	}
}

// WriteTextfile writes the registry in the text exposition format. An empty
// path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return crerr.Wrapf(err, "write metrics textfile %s", path)
	}
	return nil
}
