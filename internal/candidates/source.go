// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package candidates supplies the read-only candidate sets the scoring engine
// ranks. The SQLite Store persists normalized snapshots and pre-filters
// papers with FTS5; StaticSource serves a snapshot held in memory.
package candidates

import (
	"context"
	"strings"

	"github.com/pdiddy/litscout/pkg/types"
)

// Source fetches the candidate set for one request. When ctx expires
// mid-fetch, implementations return the papers retrieved so far with
// Partial set and a nil error.
type Source interface {
	Fetch(ctx context.Context, f Filter) (*types.CandidateSet, error)
}

// Filter narrows the candidate papers before scoring.
type Filter struct {
	// Match holds whitespace-separated terms that must all appear in the
	// title or abstract. Empty selects all papers.
	Match string

	// YearFrom and YearTo bound the publication year, inclusive. Zero means unbounded.
	YearFrom int
	YearTo   int

	// Limit caps the number of papers. Zero means no cap.
	Limit int
}

func (f Filter) yearOK(year int) bool {
	if f.YearFrom > 0 && year < f.YearFrom {
		return false
	}
	if f.YearTo > 0 && year > f.YearTo {
		return false
	}
	return true
}

// StaticSource serves a fixed candidate set, filtering papers in memory.
type StaticSource struct {
	set *types.CandidateSet
}

// NewStaticSource wraps a snapshot.
func NewStaticSource(s *types.Snapshot) *StaticSource {
	return &StaticSource{set: s.CandidateSet()}
}

// Fetch returns the papers that pass f in snapshot order. Match terms are
// matched case-insensitively against title and abstract; every term must
// appear.
func (s *StaticSource) Fetch(ctx context.Context, f Filter) (*types.CandidateSet, error) {
	terms := strings.Fields(strings.ToLower(f.Match))
	out := &types.CandidateSet{
		Concepts: s.set.Concepts,
		Authors:  s.set.Authors,
		Venues:   s.set.Venues,
	}
	for i := range s.set.Papers {
		if ctx.Err() != nil {
			out.Partial = true
			break
		}
		if f.Limit > 0 && len(out.Papers) >= f.Limit {
			break
		}
		p := s.set.Papers[i]
		if !f.yearOK(p.Year) || !matchesAll(p, terms) {
			continue
		}
		out.Papers = append(out.Papers, p)
	}
	return out, nil
}

func matchesAll(p types.Paper, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	text := strings.ToLower(p.Title + " " + p.Abstract)
	for _, t := range terms {
		if !strings.Contains(text, t) {
			return false
		}
	}
	return true
}
