// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank sorts, deduplicates and pages scored results. It never scores:
// callers rank a fully scored list once and slice it per page request.
package rank

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/pdiddy/litscout/pkg/types"
)

// TieBreak orders two results with equal scores. It returns a negative
// number when a ranks first, like cmp.Compare.
type TieBreak[T any] func(a, b types.ScoredResult[T]) int

// ValidateRange rejects a negative offset or a non-positive limit.
func ValidateRange(offset, limit int) error {
	if offset < 0 {
		return fmt.Errorf("%w: offset %d is negative", types.ErrInvalidRange, offset)
	}
	if limit <= 0 {
		return fmt.Errorf("%w: limit %d must be positive", types.ErrInvalidRange, limit)
	}
	return nil
}

// SortStable orders results by descending score. Equal scores fall back to
// tie, then to their current order. A nil tie keeps the current order.
func SortStable[T any](results []types.ScoredResult[T], tie TieBreak[T]) {
	slices.SortStableFunc(results, func(a, b types.ScoredResult[T]) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if tie != nil {
			return tie(a, b)
		}
		return 0
	})
}

// ByPaperCount breaks ties by descending number of contributing papers, then
// by ascending id.
func ByPaperCount[T any](id func(T) string) TieBreak[T] {
	return func(a, b types.ScoredResult[T]) int {
		if c := cmp.Compare(len(b.Papers), len(a.Papers)); c != 0 {
			return c
		}
		return cmp.Compare(id(a.Item), id(b.Item))
	}
}

// Paginate returns results[offset:offset+limit] together with the total count.
// An offset past the end yields an empty page, not an error.
func Paginate[T any](results []types.ScoredResult[T], offset, limit int) (types.Page[T], error) {
	if err := ValidateRange(offset, limit); err != nil {
		return types.Page[T]{}, err
	}
	total := len(results)
	start := min(offset, total)
	end := total
	if limit < total-start {
		end = start + limit
	}
	page := make([]types.ScoredResult[T], end-start)
	copy(page, results[start:end])
	return types.Page[T]{
		Results: page,
		Total:   total,
		Offset:  offset,
		Limit:   limit,
	}, nil
}

// Dedup removes items whose key was already seen, keeping the first
// occurrence so retrieval order survives. Items with an empty key are kept.
// It returns the deduplicated slice and the number of items removed.
func Dedup[T any](items []T, key func(T) string) ([]T, int) {
	seen := make(map[string]bool, len(items))
	out := make([]T, 0, len(items))
	removed := 0
	for _, it := range items {
		k := key(it)
		if k != "" {
			if seen[k] {
				removed++
				continue
			}
			seen[k] = true
		}
		out = append(out, it)
	}
	return out, removed
}
