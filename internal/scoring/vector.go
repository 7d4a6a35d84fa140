// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scoring computes per-paper relevance for one query: cosine
// similarity between embeddings, a weight-normalized concept score, and the
// hybrid blend of the two. Every function is pure; a Table built for one
// request is read concurrently by the aggregators without locking.
package scoring

import (
	"fmt"
	"math"

	"github.com/pdiddy/litscout/pkg/types"
)

// Cosine returns dot(a,b) / (|a|·|b|). Vectors of different length fail with
// types.ErrDimensionMismatch. A zero-magnitude vector on either side yields 0.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", types.ErrDimensionMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// clip01 bounds v to [0,1]. Negative similarity counts as no relevance.
// Similarity returns the cosine of a and b clipped to [0,1].
func Similarity(a, b []float32) (float64, error) {
	sim, err := Cosine(a, b)
	if err != nil {
		return 0, err
	}
	return clip01(sim), nil
}

func clip01(v float64) float64 {
	switch {
	case v < 0, math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	}
	return v
}
