// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"fmt"

	"github.com/pdiddy/litscout/pkg/types"
)

// WeightedVector is a concept embedding paired with the concept's weight on
// one paper.
type WeightedVector struct {
	Embedding []float32
	Weight    float64
}

// ConceptScore returns Σ(sim(query, c)·w) / Σw over the given concepts, with
// each similarity clipped to [0,1]. A paper without concepts, or whose
// weights sum to zero, scores exactly 0.
func ConceptScore(query []float32, concepts []WeightedVector) (float64, error) {
	if len(concepts) == 0 {
		return 0, nil
	}
	var num, den float64
	for i, c := range concepts {
		if !types.ValidWeight(c.Weight) {
			return 0, fmt.Errorf("%w: concept %d has weight %g", types.ErrInvalidWeight, i, c.Weight)
		}
		sim, err := Cosine(query, c.Embedding)
		if err != nil {
			return 0, fmt.Errorf("concept %d: %w", i, err)
		}
		num += clip01(sim) * c.Weight
		den += c.Weight
	}
	if den == 0 {
		return 0, nil
	}
	return num / den, nil
}

// conceptVectors resolves a paper's concept references against the candidate
// concept table. References without a known embedding carry no evidence and
// are skipped.
func conceptVectors(p *types.Paper, concepts map[string]types.Concept) []WeightedVector {
	if len(p.Concepts) == 0 {
		return nil
	}
	out := make([]WeightedVector, 0, len(p.Concepts))
	for _, cw := range p.Concepts {
		c, ok := concepts[cw.ConceptID]
		if !ok || len(c.Embedding) == 0 {
			continue
		}
		out = append(out, WeightedVector{Embedding: c.Embedding, Weight: cw.Weight})
	}
	return out
}
