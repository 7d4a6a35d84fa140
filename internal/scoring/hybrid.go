// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"context"
	"fmt"

	"github.com/pdiddy/litscout/pkg/types"
)

// PaperScore holds the components of one paper's hybrid score.
type PaperScore struct {
	// Index is the paper's position in Table.Papers (retrieval order).
	Index   int
	Direct  float64
	Concept float64
	Score   float64
}

// Table is the per-request paper score table. It is built once per query by
// Scorer.ScoreTable and never modified afterwards, so aggregators may read
// it concurrently.
type Table struct {
	Papers []types.Paper
	Scores []PaperScore
}

// Len returns the number of scored papers.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Scores)
}

// Paper returns the paper behind the i-th score.
func (t *Table) Paper(i int) *types.Paper {
	return &t.Papers[t.Scores[i].Index]
}

// Filter returns a table holding only scores at or above min. The receiver
// is left untouched.
func (t *Table) Filter(min float64) *Table {
	if min <= 0 {
		return t
	}
	out := &Table{Papers: t.Papers, Scores: make([]PaperScore, 0, len(t.Scores))}
	for _, s := range t.Scores {
		if s.Score >= min {
			out.Scores = append(out.Scores, s)
		}
	}
	return out
}

// Scorer blends direct and concept similarity with a validated weight pair.
type Scorer struct {
	blend types.Blend
}

// NewScorer validates the blend and returns a scorer. A pair that does not
// sum to one is rejected, never renormalized.
func NewScorer(blend types.Blend) (*Scorer, error) {
	if err := blend.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{blend: blend}, nil
}

// Blend returns the scorer's weight pair.
func (s *Scorer) Blend() types.Blend { return s.blend }

// Score computes the hybrid score of one paper:
// α·max(0, sim(query, paper)) + (1−α)·concept_score, clipped to [0,1].
// A paper without an embedding has direct similarity 0.
func (s *Scorer) Score(query, paper []float32, concepts []WeightedVector) (PaperScore, error) {
	var direct float64
	if len(paper) > 0 {
		sim, err := Cosine(query, paper)
		if err != nil {
			return PaperScore{}, err
		}
		direct = clip01(sim)
	}
	concept, err := ConceptScore(query, concepts)
	if err != nil {
		return PaperScore{}, err
	}
	return PaperScore{
		Direct:  direct,
		Concept: concept,
		Score:   clip01(s.blend.Direct*direct + s.blend.Concept*concept),
	}, nil
}

// ScoreTable validates the candidates and scores each paper exactly once.
// The context is checked between papers so an abandoned request stops early.
func (s *Scorer) ScoreTable(ctx context.Context, query []float32, cs *types.CandidateSet) (*Table, error) {
	if err := ValidateCandidates(query, cs); err != nil {
		return nil, err
	}
	if cs.IsEmpty() {
		return &Table{}, nil
	}
	t := &Table{Papers: cs.Papers, Scores: make([]PaperScore, len(cs.Papers))}
	for i := range cs.Papers {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		p := &cs.Papers[i]
		ps, err := s.Score(query, p.Embedding, conceptVectors(p, cs.Concepts))
		if err != nil {
			return nil, fmt.Errorf("scoring paper %s: %w", p.ID, err)
		}
		ps.Index = i
		t.Scores[i] = ps
	}
	return t, nil
}
