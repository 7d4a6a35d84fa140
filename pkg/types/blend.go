// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"math"
)

// blendTolerance absorbs float rounding in caller-supplied weight pairs
// such as 0.7 + 0.3.
const blendTolerance = 1e-9

// Blend weighs direct embedding similarity against concept similarity in
// the hybrid paper score. Direct is the blend factor alpha.
type Blend struct {
	Direct  float64 `json:"paper_weight" yaml:"paper_weight"`
	Concept float64 `json:"concept_weight" yaml:"concept_weight"`
}

// BlendFromAlpha returns the pair (alpha, 1-alpha).
func BlendFromAlpha(alpha float64) Blend {
	return Blend{Direct: alpha, Concept: 1 - alpha}
}

// Validate rejects weights outside [0,1] and pairs that do not sum to one.
// Pairs are never renormalized.
func (b Blend) Validate() error {
	if !finite(b.Direct) || !finite(b.Concept) {
		return fmt.Errorf("%w: blend weights must be numbers", ErrInvalidWeight)
	}
	if b.Direct < 0 || b.Direct > 1 || b.Concept < 0 || b.Concept > 1 {
		return fmt.Errorf("%w: blend weights %g/%g must lie in [0,1]", ErrInvalidWeight, b.Direct, b.Concept)
	}
	if math.Abs(b.Direct+b.Concept-1) > blendTolerance {
		return fmt.Errorf("%w: blend weights %g + %g must sum to 1", ErrInvalidWeight, b.Direct, b.Concept)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
