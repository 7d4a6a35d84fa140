// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"github.com/pdiddy/litscout/internal/rank"
	"github.com/pdiddy/litscout/internal/scoring"
	"github.com/pdiddy/litscout/pkg/types"
)

// Venues scores every venue with at least one paper in the table as the sum
// of its papers' scores, each paper counted once. Papers without a venue are
// skipped. Results carry the supporting paper ids and are sorted by score,
// then paper count, then id.
func Venues(t *scoring.Table, known map[string]types.Venue) []types.ScoredResult[types.Venue] {
	acc := newAccumulator()
	counted := make(map[string]bool, t.Len())
	for i := 0; i < t.Len(); i++ {
		p := t.Paper(i)
		if p.VenueID == "" || counted[p.ID] {
			continue
		}
		counted[p.ID] = true
		acc.add(p.VenueID, p.ID, t.Scores[i].Score)
	}

	out := make([]types.ScoredResult[types.Venue], 0, len(acc.order))
	for _, id := range acc.order {
		venue, ok := known[id]
		if !ok {
			venue = types.Venue{ID: id}
		}
		out = append(out, types.ScoredResult[types.Venue]{
			Item:   venue,
			Score:  acc.score[id],
			Papers: acc.papers[id],
		})
	}
	rank.SortStable(out, rank.ByPaperCount(func(v types.Venue) string { return v.ID }))
	return out
}
