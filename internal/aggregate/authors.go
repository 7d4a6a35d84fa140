// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate rolls the per-request paper score table up into author
// and venue rankings. Both aggregators only read the table, so they can run
// concurrently on the same request.
package aggregate

import (
	"github.com/pdiddy/litscout/internal/rank"
	"github.com/pdiddy/litscout/internal/scoring"
	"github.com/pdiddy/litscout/pkg/types"
)

// accumulator sums scores per entity id in first-seen order.
type accumulator struct {
	order  []string
	score  map[string]float64
	papers map[string][]string
}

func newAccumulator() *accumulator {
	return &accumulator{score: make(map[string]float64), papers: make(map[string][]string)}
}

func (a *accumulator) add(id, paperID string, score float64) {
	if _, ok := a.score[id]; !ok {
		a.order = append(a.order, id)
	}
	a.score[id] += score
	a.papers[id] = append(a.papers[id], paperID)
}

// Authors scores every author with at least one paper in the table:
// Σ paper_score / author_order. The sum is not normalized by paper count.
// Author records missing from known are reported with their id only.
// Results are sorted by score, then paper count, then id.
func Authors(t *scoring.Table, known map[string]types.Author) []types.ScoredResult[types.Author] {
	acc := newAccumulator()
	for i := 0; i < t.Len(); i++ {
		p := t.Paper(i)
		score := t.Scores[i].Score
		for j, a := range p.Authors {
			if a.AuthorID == "" || listedBefore(p.Authors[:j], a.AuthorID) {
				continue
			}
			acc.add(a.AuthorID, p.ID, score/float64(a.Order))
		}
	}

	out := make([]types.ScoredResult[types.Author], 0, len(acc.order))
	for _, id := range acc.order {
		author, ok := known[id]
		if !ok {
			author = types.Author{ID: id}
		}
		out = append(out, types.ScoredResult[types.Author]{
			Item:   author,
			Score:  acc.score[id],
			Papers: acc.papers[id],
		})
	}
	rank.SortStable(out, rank.ByPaperCount(func(a types.Author) string { return a.ID }))
	return out
}

// listedBefore reports whether id already appears earlier in the byline.
// Only the first listing counts.
func listedBefore(prev []types.Authorship, id string) bool {
	for _, a := range prev {
		if a.AuthorID == id {
			return true
		}
	}
	return false
}
