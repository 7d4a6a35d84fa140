// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlendValidate(t *testing.T) {
	tests := []struct {
		name    string
		blend   Blend
		wantErr bool
	}{
		{"default", Blend{0.8, 0.2}, false},
		{"float rounding", Blend{0.7, 0.3}, false},
		{"direct only", Blend{1, 0}, false},
		{"concept only", Blend{0, 1}, false},
		{"under one", Blend{0.6, 0.3}, true},
		{"over one", Blend{0.8, 0.4}, true},
		{"negative", Blend{1.2, -0.2}, true},
		{"zero", Blend{}, true},
		{"nan", Blend{math.NaN(), 1}, true},
		{"infinite", Blend{math.Inf(1), math.Inf(-1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.blend.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidWeight)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBlendFromAlpha(t *testing.T) {
	b := BlendFromAlpha(0.8)
	assert.InDelta(t, 0.8, b.Direct, 1e-12)
	assert.InDelta(t, 0.2, b.Concept, 1e-12)
	assert.NoError(t, b.Validate())
}

func TestPaperValidate(t *testing.T) {
	valid := Paper{
		ID:             "W1",
		Concepts:       []ConceptWeight{{ConceptID: "C1", Weight: 0.4}},
		ClusterIDs:     []string{"k1", "k2"},
		ClusterWeights: []float64{0.6, 0.4},
		Authors:        []Authorship{{AuthorID: "A1", Order: 1}, {AuthorID: "A2", Order: 2}},
	}
	require.NoError(t, valid.Validate())

	clusters := valid
	clusters.ClusterWeights = []float64{1}
	assert.ErrorIs(t, clusters.Validate(), ErrInvalidRecord)

	order := valid
	order.Authors = []Authorship{{AuthorID: "A1", Order: 0}}
	assert.ErrorIs(t, order.Validate(), ErrInvalidWeight)

	dup := valid
	dup.Authors = []Authorship{{AuthorID: "A1", Order: 1}, {AuthorID: "A1", Order: 2}}
	assert.ErrorIs(t, dup.Validate(), ErrInvalidRecord)

	for _, w := range []float64{-0.1, math.NaN(), math.Inf(1)} {
		weight := valid
		weight.Concepts = []ConceptWeight{{ConceptID: "C1", Weight: w}}
		assert.ErrorIs(t, weight.Validate(), ErrInvalidWeight, "weight %g", w)
	}

	assert.ErrorIs(t, (&Paper{}).Validate(), ErrInvalidRecord)
}

func TestAuthorValidate(t *testing.T) {
	a := Author{ID: "A1", ClusterIDs: []string{"k"}, ClusterWeights: []float64{1}}
	require.NoError(t, a.Validate())
	a.ClusterWeights = nil
	assert.ErrorIs(t, a.Validate(), ErrInvalidRecord)
}

func TestSnapshotCandidateSet(t *testing.T) {
	s := Snapshot{
		Papers:   []Paper{{ID: "W1"}, {ID: "W2"}},
		Concepts: []Concept{{ID: "C1"}},
		Authors:  []Author{{ID: "A1"}},
		Venues:   []Venue{{ID: "S1"}},
	}
	cs := s.CandidateSet()
	assert.Len(t, cs.Papers, 2)
	assert.Contains(t, cs.Concepts, "C1")
	assert.Contains(t, cs.Authors, "A1")
	assert.Contains(t, cs.Venues, "S1")
	assert.False(t, cs.IsEmpty())

	var nilSet *CandidateSet
	assert.True(t, nilSet.IsEmpty())
}

func TestPageHasMore(t *testing.T) {
	p := Page[PaperSummary]{Results: make([]ScoredResult[PaperSummary], 10), Total: 25, Offset: 10, Limit: 10}
	assert.True(t, p.HasMore())
	p.Offset = 20
	p.Results = p.Results[:5]
	assert.False(t, p.HasMore())
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Scoring.Alpha = 1.5
	assert.ErrorIs(t, bad.Validate(), ErrInvalidWeight)

	bad = cfg
	bad.Scoring.MinScore = -0.1
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Encoder.Backend = "bert"
	assert.Error(t, bad.Validate())
}
