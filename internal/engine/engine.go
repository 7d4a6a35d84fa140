// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine exposes the scoring operations: rank papers, authors,
// venues and concepts for one query embedding over a read-only candidate set. A request
// scores each paper once into a table; paper ranking, author aggregation and
// venue aggregation then run concurrently on a worker pool and only slicing
// repeats per page.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/pdiddy/litscout/internal/rank"
	"github.com/pdiddy/litscout/internal/scoring"
	"github.com/pdiddy/litscout/pkg/types"
)

// Params are the per-request scoring parameters. A nil Blend or MinScore
// selects the engine's configured value; a supplied one is always validated
// and never corrected.
type Params struct {
	Blend    *types.Blend
	MinScore *float64
	Offset   int
	Limit    int
}

// WithBlend returns a copy of p using blend b.
func (p Params) WithBlend(b types.Blend) Params {
	p.Blend = &b
	return p
}

// WithMinScore returns a copy of p using threshold v.
func (p Params) WithMinScore(v float64) Params {
	p.MinScore = &v
	return p
}

// Engine scores candidate sets. It holds no per-request state; the same
// engine serves concurrent requests.
type Engine struct {
	defaults types.ScoringConfig
	pageSize int
	pool     *ants.Pool
	metrics  *Metrics
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithPoolSize sets the aggregation worker pool size. Default is 3.
func WithPoolSize(size int) Option {
	return func(e *Engine) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return fmt.Errorf("creating worker pool: %w", err)
		}
		if e.pool != nil {
			e.pool.Release()
		}
		e.pool = pool
		return nil
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithMetrics records request metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) error {
		e.metrics = m
		return nil
	}
}

// WithPageSize sets the limit DefaultParams returns. Default is 10.
func WithPageSize(n int) Option {
	return func(e *Engine) error {
		if n > 0 {
			e.pageSize = n
		}
		return nil
	}
}

// New creates an engine with the given scoring defaults. The default blend
// must be valid.
func New(cfg types.ScoringConfig, opts ...Option) (*Engine, error) {
	if err := cfg.Blend().Validate(); err != nil {
		return nil, fmt.Errorf("default alpha: %w", err)
	}
	if err := validateMinScore(cfg.MinScore); err != nil {
		return nil, err
	}
	pool, err := ants.NewPool(3)
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}
	e := &Engine{
		defaults: cfg,
		pageSize: 10,
		pool:     pool,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			e.Release()
			return nil, err
		}
	}
	return e, nil
}

// Release frees the worker pool. The engine must not be used afterwards.
func (e *Engine) Release() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// DefaultParams returns the first page of the default size. Blend and
// min_score are left unset and resolve to the configured values.
func (e *Engine) DefaultParams() Params {
	return Params{Limit: e.pageSize}
}

// resolve returns the effective blend and threshold of p. Supplied values
// are validated as given.
func (e *Engine) resolve(p Params) (types.Blend, float64, error) {
	blend, minScore := e.defaults.Blend(), e.defaults.MinScore
	if p.Blend != nil {
		if err := p.Blend.Validate(); err != nil {
			return types.Blend{}, 0, err
		}
		blend = *p.Blend
	}
	if p.MinScore != nil {
		if err := validateMinScore(*p.MinScore); err != nil {
			return types.Blend{}, 0, err
		}
		minScore = *p.MinScore
	}
	return blend, minScore, nil
}

// ScorePapers ranks the candidate papers by hybrid score and returns one page.
func (e *Engine) ScorePapers(ctx context.Context, query []float32, cs *types.CandidateSet, p Params) (types.Page[types.PaperSummary], error) {
	started := time.Now()
	r, err := e.rank(ctx, query, cs, p, KindPapers)
	e.metrics.observe(string(KindPapers), statusOf(err), started)
	if err != nil {
		return types.Page[types.PaperSummary]{}, err
	}
	return r.PaperPage(p.Offset, p.Limit)
}

// ScoreAuthors ranks authors of the candidate papers and returns one page.
func (e *Engine) ScoreAuthors(ctx context.Context, query []float32, cs *types.CandidateSet, p Params) (types.Page[types.Author], error) {
	started := time.Now()
	r, err := e.rank(ctx, query, cs, p, KindAuthors)
	e.metrics.observe(string(KindAuthors), statusOf(err), started)
	if err != nil {
		return types.Page[types.Author]{}, err
	}
	return r.AuthorPage(p.Offset, p.Limit)
}

// ScoreVenues ranks venues of the candidate papers and returns one page.
func (e *Engine) ScoreVenues(ctx context.Context, query []float32, cs *types.CandidateSet, p Params) (types.Page[types.Venue], error) {
	started := time.Now()
	r, err := e.rank(ctx, query, cs, p, KindVenues)
	e.metrics.observe(string(KindVenues), statusOf(err), started)
	if err != nil {
		return types.Page[types.Venue]{}, err
	}
	return r.VenuePage(p.Offset, p.Limit)
}

// ScoreConcepts ranks the candidate set's concepts by similarity to the
// query and returns one page.
func (e *Engine) ScoreConcepts(ctx context.Context, query []float32, cs *types.CandidateSet, p Params) (types.Page[types.Concept], error) {
	started := time.Now()
	r, err := e.rank(ctx, query, cs, p, KindConcepts)
	e.metrics.observe(string(KindConcepts), statusOf(err), started)
	if err != nil {
		return types.Page[types.Concept]{}, err
	}
	return r.ConceptPage(p.Offset, p.Limit)
}

// Recommend computes all three rankings from one paper table and returns the
// same page of each.
func (e *Engine) Recommend(ctx context.Context, query []float32, cs *types.CandidateSet, p Params) (Recommendation, error) {
	started := time.Now()
	r, err := e.rank(ctx, query, cs, p, KindAll)
	e.metrics.observe(string(KindAll), statusOf(err), started)
	if err != nil {
		return Recommendation{}, err
	}
	return r.Recommendation(p.Offset, p.Limit)
}

// rank validates the page range before any scoring work, then ranks.
func (e *Engine) rank(ctx context.Context, query []float32, cs *types.CandidateSet, p Params, kind Kind) (*Ranking, error) {
	if err := rank.ValidateRange(p.Offset, p.Limit); err != nil {
		return nil, err
	}
	return e.Rank(ctx, query, cs, p, kind)
}

// Rank scores the candidates once and returns every ranked list of the
// requested kind. Pages are sliced from the result without re-scoring, so
// p.Offset and p.Limit are ignored here.
func (e *Engine) Rank(ctx context.Context, query []float32, cs *types.CandidateSet, p Params, kind Kind) (*Ranking, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	blend, minScore, err := e.resolve(p)
	if err != nil {
		return nil, err
	}
	scorer, err := scoring.NewScorer(blend)
	if err != nil {
		return nil, err
	}

	deduped := types.CandidateSet{}
	if cs != nil {
		deduped = *cs
	}
	var dups int
	deduped.Papers, dups = rank.Dedup(deduped.Papers, func(paper types.Paper) string { return paper.ID })

	table, err := scorer.ScoreTable(ctx, query, &deduped)
	if err != nil {
		return nil, err
	}
	e.metrics.observeCandidates(table.Len(), dups)
	if deduped.Partial {
		e.metrics.incPartial()
	}
	table = table.Filter(minScore)

	r := &Ranking{Partial: deduped.Partial}
	tasks := r.tasks(table, &deduped, query, minScore, kind)
	if err := e.run(ctx, tasks); err != nil {
		return nil, err
	}

	e.logger.Debug("ranked candidates",
		"kind", kind,
		"candidates", len(deduped.Papers),
		"duplicates", dups,
		"kept", table.Len(),
		"partial", deduped.Partial,
	)
	return r, nil
}

// run executes tasks on the worker pool and waits for all of them. A task the
// pool refuses runs on the calling goroutine.
func (e *Engine) run(ctx context.Context, tasks []func()) error {
	if len(tasks) == 1 {
		tasks[0]()
		return ctx.Err()
	}
	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		job := func() {
			defer wg.Done()
			task()
		}
		if err := e.pool.Submit(job); err != nil {
			e.logger.Warn("worker pool refused task, running inline", "err", err)
			job()
		}
	}
	wg.Wait()
	return ctx.Err()
}

func validateMinScore(v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%w: min_score %g must lie in [0,1]", types.ErrInvalidWeight, v)
	}
	return nil
}

// IsInvalidInput reports whether err is a caller error: bad weights, bad
// dimensions, a bad page range or an unknown kind.
func IsInvalidInput(err error) bool {
	return errors.Is(err, types.ErrInvalidWeight) ||
		errors.Is(err, types.ErrDimensionMismatch) ||
		errors.Is(err, types.ErrInvalidRange) ||
		errors.Is(err, ErrUnknownKind) ||
		errors.Is(err, ErrEmptyQuery)
}

func statusOf(err error) string {
	if err == nil {
		return StatusSuccess
	}
	if IsInvalidInput(err) {
		return StatusInvalid
	}
	return StatusFailure
}

