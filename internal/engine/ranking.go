// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"fmt"
	"strings"

	"github.com/pdiddy/litscout/internal/aggregate"
	"github.com/pdiddy/litscout/internal/rank"
	"github.com/pdiddy/litscout/internal/scoring"
	"github.com/pdiddy/litscout/pkg/types"
)

// Kind selects which rankings a request produces.
type Kind string

const (
	KindPapers  Kind = "papers"
	KindAuthors Kind = "authors"
	KindVenues  Kind = "venues"
	KindAll     Kind = "all"

	// KindConcepts ranks the candidate set's concepts by similarity to the
	// query. It is not part of KindAll.
	KindConcepts Kind = "concepts"
)

// ParseKind maps a user-supplied name to a Kind. Empty means papers.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if k == "" {
		return KindPapers, nil
	}
	return k, k.Validate()
}

// Validate rejects unknown kinds.
func (k Kind) Validate() error {
	switch k {
	case KindPapers, KindAuthors, KindVenues, KindAll, KindConcepts:
		return nil
	}
	return fmt.Errorf("%w: %q (use papers, authors, venues, all or concepts)", ErrUnknownKind, string(k))
}

func (k Kind) includes(other Kind) bool {
	if k == other {
		return true
	}
	return k == KindAll && other != KindConcepts
}

// Ranking holds the fully scored and sorted lists for one query. It is
// immutable once built; pages are copies.
type Ranking struct {
	Papers  []types.ScoredResult[types.PaperSummary]
	Authors []types.ScoredResult[types.Author]
	Venues  []types.ScoredResult[types.Venue]

	Concepts []types.ScoredResult[types.Concept]

	// Partial is set when the candidate set was cut short by the fetch deadline.
	Partial bool
}

// Recommendation is one page of each ranking.
type Recommendation struct {
	Papers  types.Page[types.PaperSummary] `json:"papers" yaml:"papers"`
	Authors types.Page[types.Author]       `json:"authors" yaml:"authors"`
	Venues  types.Page[types.Venue]        `json:"venues" yaml:"venues"`
	Partial bool                           `json:"partial,omitempty" yaml:"partial,omitempty"`
}

// tasks returns the independent aggregation jobs for kind. Each job writes
// only its own field of r and reads the shared table.
func (r *Ranking) tasks(t *scoring.Table, cs *types.CandidateSet, query []float32, minScore float64, kind Kind) []func() {
	var tasks []func()
	if kind.includes(KindPapers) {
		tasks = append(tasks, func() { r.Papers = rankPapers(t) })
	}
	if kind.includes(KindAuthors) {
		tasks = append(tasks, func() { r.Authors = aggregate.Authors(t, cs.Authors) })
	}
	if kind.includes(KindVenues) {
		tasks = append(tasks, func() { r.Venues = aggregate.Venues(t, cs.Venues) })
	}
	if kind.includes(KindConcepts) {
		tasks = append(tasks, func() { r.Concepts = rankConcepts(query, cs, minScore) })
	}
	return tasks
}

// rankConcepts scores each concept of the candidate set by its clipped
// cosine similarity to the query. Concepts without an embedding and those
// below minScore are dropped. Each result lists the candidate papers tagged
// with the concept; ties go to the concept with more papers, then to the
// lower id. Dimensions were checked when the paper table was built.
func rankConcepts(query []float32, cs *types.CandidateSet, minScore float64) []types.ScoredResult[types.Concept] {
	tagged := make(map[string][]string, len(cs.Concepts))
	for i := range cs.Papers {
		p := &cs.Papers[i]
		for _, cw := range p.Concepts {
			tagged[cw.ConceptID] = append(tagged[cw.ConceptID], p.ID)
		}
	}

	out := make([]types.ScoredResult[types.Concept], 0, len(cs.Concepts))
	for _, c := range cs.Concepts {
		if len(c.Embedding) == 0 {
			continue
		}
		score, err := scoring.Similarity(query, c.Embedding)
		if err != nil {
			continue
		}
		if minScore > 0 && score < minScore {
			continue
		}
		item := c
		item.Embedding = nil
		out = append(out, types.ScoredResult[types.Concept]{
			Item:   item,
			Score:  score,
			Papers: tagged[c.ID],
		})
	}
	rank.SortStable(out, rank.ByPaperCount(func(c types.Concept) string { return c.ID }))
	return out
}

// rankPapers sorts the table by score. Ties keep retrieval order.
func rankPapers(t *scoring.Table) []types.ScoredResult[types.PaperSummary] {
	out := make([]types.ScoredResult[types.PaperSummary], t.Len())
	for i := range out {
		p := t.Paper(i)
		s := t.Scores[i]
		out[i] = types.ScoredResult[types.PaperSummary]{
			Item: types.PaperSummary{
				ID:           p.ID,
				Title:        p.Title,
				Year:         p.Year,
				DOI:          p.DOI,
				VenueID:      p.VenueID,
				DirectScore:  s.Direct,
				ConceptScore: s.Concept,
			},
			Score: s.Score,
		}
	}
	rank.SortStable(out, nil)
	return out
}

// PaperPage slices the paper ranking.
func (r *Ranking) PaperPage(offset, limit int) (types.Page[types.PaperSummary], error) {
	page, err := rank.Paginate(r.Papers, offset, limit)
	page.Partial = r.Partial
	return page, err
}

// AuthorPage slices the author ranking.
func (r *Ranking) AuthorPage(offset, limit int) (types.Page[types.Author], error) {
	page, err := rank.Paginate(r.Authors, offset, limit)
	page.Partial = r.Partial
	return page, err
}

// VenuePage slices the venue ranking.
func (r *Ranking) VenuePage(offset, limit int) (types.Page[types.Venue], error) {
	page, err := rank.Paginate(r.Venues, offset, limit)
	page.Partial = r.Partial
	return page, err
}

// ConceptPage slices the concept ranking.
func (r *Ranking) ConceptPage(offset, limit int) (types.Page[types.Concept], error) {
	page, err := rank.Paginate(r.Concepts, offset, limit)
	page.Partial = r.Partial
	return page, err
}

// Recommendation slices the same page from every ranking.
func (r *Ranking) Recommendation(offset, limit int) (Recommendation, error) {
	var rec Recommendation
	var err error
	if rec.Papers, err = r.PaperPage(offset, limit); err != nil {
		return Recommendation{}, err
	}
	if rec.Authors, err = r.AuthorPage(offset, limit); err != nil {
		return Recommendation{}, err
	}
	if rec.Venues, err = r.VenuePage(offset, limit); err != nil {
		return Recommendation{}, err
	}
	rec.Partial = r.Partial
	return rec, nil
}
