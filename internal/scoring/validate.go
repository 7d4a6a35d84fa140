// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"fmt"

	"github.com/pdiddy/litscout/pkg/types"
)

// ValidateQuery rejects an empty query embedding.
func ValidateQuery(query []float32) error {
	if len(query) == 0 {
		return fmt.Errorf("%w: query embedding is empty", types.ErrDimensionMismatch)
	}
	return nil
}

// ValidateCandidates checks every record the scorer will read against the
// query dimension before any score is computed: paper and concept embeddings
// must match the query length (an empty embedding means "not encoded"),
// concept weights must be non-negative and author order must be positive.
func ValidateCandidates(query []float32, cs *types.CandidateSet) error {
	if err := ValidateQuery(query); err != nil {
		return err
	}
	if cs == nil {
		return nil
	}
	dim := len(query)
	for id, c := range cs.Concepts {
		if len(c.Embedding) != 0 && len(c.Embedding) != dim {
			return fmt.Errorf("%w: concept %s has dimension %d, query has %d",
				types.ErrDimensionMismatch, id, len(c.Embedding), dim)
		}
	}
	for i := range cs.Papers {
		p := &cs.Papers[i]
		if len(p.Embedding) != 0 && len(p.Embedding) != dim {
			return fmt.Errorf("%w: paper %s has dimension %d, query has %d",
				types.ErrDimensionMismatch, p.ID, len(p.Embedding), dim)
		}
		for _, cw := range p.Concepts {
			if !types.ValidWeight(cw.Weight) {
				return fmt.Errorf("%w: paper %s concept %s has weight %g",
					types.ErrInvalidWeight, p.ID, cw.ConceptID, cw.Weight)
			}
		}
		for _, a := range p.Authors {
			if a.Order < 1 {
				return fmt.Errorf("%w: paper %s author %s has order %d",
					types.ErrInvalidWeight, p.ID, a.AuthorID, a.Order)
			}
		}
	}
	return nil
}
