// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litscout/pkg/types"
)

const tol = 1e-6

// unitAt returns a 2-d unit vector whose cosine with (1,0) is sim.
func unitAt(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

var query = []float32{1, 0}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical unit", []float32{0.6, 0.8}, []float32{0.6, 0.8}, 1},
		{"opposite", []float32{0.6, 0.8}, []float32{-0.6, -0.8}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"scale invariant", []float32{1, 2, 3}, []float32{2, 4, 6}, 1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"both zero", []float32{0, 0}, []float32{0, 0}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cosine(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, tol)
		})
	}
}

func TestCosineDimensionMismatch(t *testing.T) {
	_, err := Cosine([]float32{1, 2}, []float32{1, 2, 3})
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)
}

func TestConceptScore(t *testing.T) {
	t.Run("no concepts is zero", func(t *testing.T) {
		got, err := ConceptScore(query, nil)
		require.NoError(t, err)
		assert.Equal(t, 0.0, got)
	})

	t.Run("weighted average", func(t *testing.T) {
		got, err := ConceptScore(query, []WeightedVector{
			{Embedding: unitAt(0.5), Weight: 1},
			{Embedding: unitAt(0.9), Weight: 3},
		})
		require.NoError(t, err)
		assert.InDelta(t, (0.5+2.7)/4, got, tol)
	})

	t.Run("negative similarity clipped", func(t *testing.T) {
		got, err := ConceptScore(query, []WeightedVector{
			{Embedding: []float32{-1, 0}, Weight: 1},
			{Embedding: unitAt(0.8), Weight: 1},
		})
		require.NoError(t, err)
		assert.InDelta(t, 0.4, got, tol)
	})

	t.Run("zero weights", func(t *testing.T) {
		got, err := ConceptScore(query, []WeightedVector{{Embedding: unitAt(0.8), Weight: 0}})
		require.NoError(t, err)
		assert.Equal(t, 0.0, got)
	})

	for name, w := range map[string]float64{
		"negative weight rejected": -0.1,
		"nan weight rejected":      math.NaN(),
		"infinite weight rejected": math.Inf(1),
	} {
		t.Run(name, func(t *testing.T) {
			got, err := ConceptScore(query, []WeightedVector{{Embedding: unitAt(0.8), Weight: w}})
			assert.ErrorIs(t, err, types.ErrInvalidWeight)
			assert.Equal(t, 0.0, got)
		})
	}
}

// Raising the weight of a concept at least as similar as the current score
// never lowers the score.
func TestConceptScoreWeightMonotone(t *testing.T) {
	base := []WeightedVector{
		{Embedding: unitAt(0.3), Weight: 1},
		{Embedding: unitAt(0.6), Weight: 1},
		{Embedding: unitAt(0.9), Weight: 1},
	}
	before, err := ConceptScore(query, base)
	require.NoError(t, err)

	for i, sim := range []float64{0.3, 0.6, 0.9} {
		if sim < before {
			continue
		}
		bumped := append([]WeightedVector(nil), base...)
		bumped[i].Weight = 2.5
		after, err := ConceptScore(query, bumped)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, after+tol, before, "concept %d", i)
	}
}

func TestScorerScore(t *testing.T) {
	s, err := NewScorer(types.Blend{Direct: 0.8, Concept: 0.2})
	require.NoError(t, err)

	t.Run("hybrid blend", func(t *testing.T) {
		ps, err := s.Score(query, unitAt(0.9), []WeightedVector{{Embedding: unitAt(0.5), Weight: 1}})
		require.NoError(t, err)
		assert.InDelta(t, 0.9, ps.Direct, tol)
		assert.InDelta(t, 0.5, ps.Concept, tol)
		assert.InDelta(t, 0.82, ps.Score, tol)
	})

	t.Run("opposite paper clipped to zero", func(t *testing.T) {
		ps, err := s.Score(query, []float32{-1, 0}, nil)
		require.NoError(t, err)
		assert.Equal(t, 0.0, ps.Direct)
		assert.Equal(t, 0.0, ps.Score)
	})

	t.Run("no concepts ignores alpha", func(t *testing.T) {
		for _, alpha := range []float64{0, 0.3, 1} {
			sc, err := NewScorer(types.BlendFromAlpha(alpha))
			require.NoError(t, err)
			ps, err := sc.Score(query, unitAt(0.7), nil)
			require.NoError(t, err)
			assert.Equal(t, 0.0, ps.Concept)
		}
	})

	t.Run("missing embedding", func(t *testing.T) {
		ps, err := s.Score(query, nil, []WeightedVector{{Embedding: unitAt(1), Weight: 1}})
		require.NoError(t, err)
		assert.Equal(t, 0.0, ps.Direct)
		assert.InDelta(t, 0.2, ps.Score, tol)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := s.Score(query, []float32{1, 0, 0}, nil)
		assert.ErrorIs(t, err, types.ErrDimensionMismatch)
	})
}

func TestNewScorerRejectsBadBlend(t *testing.T) {
	_, err := NewScorer(types.Blend{Direct: 0.7, Concept: 0.2})
	assert.ErrorIs(t, err, types.ErrInvalidWeight)
}

func TestScoreTable(t *testing.T) {
	s, err := NewScorer(types.BlendFromAlpha(0.8))
	require.NoError(t, err)

	cs := &types.CandidateSet{
		Papers: []types.Paper{
			{ID: "P1", Embedding: unitAt(0.9), Concepts: []types.ConceptWeight{{ConceptID: "C1", Weight: 1}}},
			{ID: "P2", Embedding: unitAt(0.5), Concepts: []types.ConceptWeight{{ConceptID: "missing", Weight: 1}}},
			{ID: "P3"},
		},
		Concepts: map[string]types.Concept{"C1": {ID: "C1", Embedding: unitAt(0.5)}},
	}

	table, err := s.ScoreTable(context.Background(), query, cs)
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())
	assert.InDelta(t, 0.82, table.Scores[0].Score, tol)
	assert.InDelta(t, 0.4, table.Scores[1].Score, tol)
	assert.Equal(t, 0.0, table.Scores[2].Score)
	assert.Equal(t, "P2", table.Paper(1).ID)

	filtered := table.Filter(0.4 - tol)
	assert.Equal(t, 2, filtered.Len())
	assert.Equal(t, 3, table.Len())
}

func TestScoreTableValidatesFirst(t *testing.T) {
	s, err := NewScorer(types.BlendFromAlpha(0.8))
	require.NoError(t, err)

	tests := []struct {
		name string
		cs   *types.CandidateSet
		want error
	}{
		{
			name: "negative concept weight",
			cs: &types.CandidateSet{Papers: []types.Paper{
				{ID: "P1", Embedding: unitAt(0.9)},
				{ID: "P2", Embedding: unitAt(0.9), Concepts: []types.ConceptWeight{{ConceptID: "C1", Weight: -0.1}}},
			}},
			want: types.ErrInvalidWeight,
		},
		{
			name: "nan concept weight",
			cs: &types.CandidateSet{Papers: []types.Paper{
				{ID: "P1", Embedding: unitAt(0.9), Concepts: []types.ConceptWeight{{ConceptID: "C1", Weight: math.NaN()}}},
			}},
			want: types.ErrInvalidWeight,
		},
		{
			name: "zero author order",
			cs: &types.CandidateSet{Papers: []types.Paper{
				{ID: "P1", Authors: []types.Authorship{{AuthorID: "A", Order: 0}}},
			}},
			want: types.ErrInvalidWeight,
		},
		{
			name: "paper dimension",
			cs:   &types.CandidateSet{Papers: []types.Paper{{ID: "P1", Embedding: []float32{1, 2, 3}}}},
			want: types.ErrDimensionMismatch,
		},
		{
			name: "concept dimension",
			cs: &types.CandidateSet{
				Papers:   []types.Paper{{ID: "P1"}},
				Concepts: map[string]types.Concept{"C1": {ID: "C1", Embedding: []float32{1}}},
			},
			want: types.ErrDimensionMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := s.ScoreTable(context.Background(), query, tt.cs)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, table)
		})
	}
}

func TestScoreTableEmpty(t *testing.T) {
	s, err := NewScorer(types.BlendFromAlpha(0.8))
	require.NoError(t, err)

	table, err := s.ScoreTable(context.Background(), query, &types.CandidateSet{})
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())

	_, err = s.ScoreTable(context.Background(), nil, &types.CandidateSet{})
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)
}

func TestScoreTableCancelled(t *testing.T) {
	s, err := NewScorer(types.BlendFromAlpha(0.8))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.ScoreTable(ctx, query, &types.CandidateSet{Papers: []types.Paper{{ID: "P1"}}})
	assert.ErrorIs(t, err, context.Canceled)
}
