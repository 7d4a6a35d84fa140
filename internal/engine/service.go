// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pdiddy/litscout/internal/candidates"
	"github.com/pdiddy/litscout/internal/encoder"
	"github.com/pdiddy/litscout/internal/rank"
	"github.com/pdiddy/litscout/pkg/types"
)

// Request is one recommendation query. Exactly one of Text or Embedding is
// normally set; Embedding wins when both are.
type Request struct {
	Text      string
	Embedding []float32
	Filter    candidates.Filter
	Kind      Kind
	Params    Params
}

// Result holds the pages produced for a request. Only the pages selected by
// Kind are set.
type Result struct {
	Query   string                          `json:"query,omitempty" yaml:"query,omitempty"`
	Kind    Kind                            `json:"kind" yaml:"kind"`
	Papers  *types.Page[types.PaperSummary] `json:"papers,omitempty" yaml:"papers,omitempty"`
	Authors *types.Page[types.Author]       `json:"authors,omitempty" yaml:"authors,omitempty"`
	Venues  *types.Page[types.Venue]        `json:"venues,omitempty" yaml:"venues,omitempty"`

	Concepts *types.Page[types.Concept] `json:"concepts,omitempty" yaml:"concepts,omitempty"`

	// Partial is set when the candidate fetch hit its deadline.
	Partial bool `json:"partial,omitempty" yaml:"partial,omitempty"`
}

// Service encodes the query, fetches candidates under a deadline and ranks
// them with the engine.
type Service struct {
	engine        *Engine
	source        candidates.Source
	encoder       encoder.Encoder
	fetchTimeout  time.Duration
	maxCandidates int
	logger        *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithEncoder sets the query encoder. Without one only embedding requests
// are accepted.
func WithEncoder(enc encoder.Encoder) ServiceOption {
	return func(s *Service) { s.encoder = enc }
}

// WithFetchTimeout bounds the candidate fetch. Zero disables the bound.
func WithFetchTimeout(d time.Duration) ServiceOption {
	return func(s *Service) { s.fetchTimeout = d }
}

// WithMaxCandidates caps the papers fetched when the request filter sets no
// limit.
func WithMaxCandidates(n int) ServiceOption {
	return func(s *Service) { s.maxCandidates = n }
}

// WithServiceLogger sets the logger. Default is slog.Default().
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService wires an engine to a candidate source.
func NewService(e *Engine, src candidates.Source, opts ...ServiceOption) (*Service, error) {
	if e == nil {
		return nil, ErrEngineRequired
	}
	if src == nil {
		return nil, ErrSourceRequired
	}
	s := &Service{
		engine:       e,
		source:       src,
		fetchTimeout: 5 * time.Second,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Engine returns the service's engine.
func (s *Service) Engine() *Engine { return s.engine }

// Search answers one request. Invalid parameters are rejected before the
// encoder or the candidate source is called. A fetch that runs past the
// fetch timeout yields a partial result, not an error.
func (s *Service) Search(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()
	kind := req.Kind
	if kind == "" {
		kind = KindPapers
	}
	res, err := s.search(ctx, req, kind)
	op := string(kind)
	if kind.Validate() != nil {
		op = "unknown"
	}
	s.engine.metrics.observe(op, statusOf(err), started)
	return res, err
}

func (s *Service) search(ctx context.Context, req Request, kind Kind) (*Result, error) {
	if err := s.validate(req, kind); err != nil {
		return nil, err
	}

	query, err := s.embed(ctx, req)
	if err != nil {
		return nil, err
	}

	cs, err := s.fetch(ctx, req.Filter)
	if err != nil {
		return nil, err
	}

	r, err := s.engine.rank(ctx, query, cs, req.Params, kind)
	if err != nil {
		return nil, err
	}

	res := &Result{Query: req.Text, Kind: kind, Partial: r.Partial}
	if kind.includes(KindPapers) {
		page, err := r.PaperPage(req.Params.Offset, req.Params.Limit)
		if err != nil {
			return nil, err
		}
		res.Papers = &page
	}
	if kind.includes(KindAuthors) {
		page, err := r.AuthorPage(req.Params.Offset, req.Params.Limit)
		if err != nil {
			return nil, err
		}
		res.Authors = &page
	}
	if kind.includes(KindVenues) {
		page, err := r.VenuePage(req.Params.Offset, req.Params.Limit)
		if err != nil {
			return nil, err
		}
		res.Venues = &page
	}
	if kind.includes(KindConcepts) {
		page, err := r.ConceptPage(req.Params.Offset, req.Params.Limit)
		if err != nil {
			return nil, err
		}
		res.Concepts = &page
	}

	s.logger.InfoContext(ctx, "search complete",
		"kind", kind,
		"candidates", len(cs.Papers),
		"partial", cs.Partial,
	)
	return res, nil
}

// validate performs the cheap parameter checks up front so no external call
// is made for a request that would be rejected anyway.
func (s *Service) validate(req Request, kind Kind) error {
	if err := rank.ValidateRange(req.Params.Offset, req.Params.Limit); err != nil {
		return err
	}
	if err := kind.Validate(); err != nil {
		return err
	}
	if _, _, err := s.engine.resolve(req.Params); err != nil {
		return err
	}
	if len(req.Embedding) == 0 && req.Text == "" {
		return ErrEmptyQuery
	}
	if len(req.Embedding) == 0 && s.encoder == nil {
		return ErrEncoderRequired
	}
	return nil
}

func (s *Service) embed(ctx context.Context, req Request) ([]float32, error) {
	if len(req.Embedding) > 0 {
		return req.Embedding, nil
	}
	text, err := encoder.PrepareText(req.Text, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmptyQuery, err)
	}
	vec, err := s.encoder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryEncoding, err)
	}
	return vec, nil
}

// fetch loads candidates under the fetch timeout. Only the parent context
// ending is an error; the fetch deadline alone produces a partial set.
func (s *Service) fetch(ctx context.Context, f candidates.Filter) (*types.CandidateSet, error) {
	if f.Limit == 0 {
		f.Limit = s.maxCandidates
	}
	fctx := ctx
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	cs, err := s.source.Fetch(fctx, f)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			s.logger.WarnContext(ctx, "candidate fetch timed out with no results", "timeout", s.fetchTimeout)
			return &types.CandidateSet{Partial: true}, nil
		}
		return nil, fmt.Errorf("fetching candidates: %w", err)
	}
	if cs == nil {
		cs = &types.CandidateSet{}
	}
	if cs.Partial {
		s.logger.WarnContext(ctx, "candidate fetch timed out, scoring partial set",
			"timeout", s.fetchTimeout, "papers", len(cs.Papers))
	}
	return cs, nil
}
