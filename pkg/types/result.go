// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PaperSummary is the paper reference carried in ranked paper results. It
// omits the embedding and keeps the score components for display.
type PaperSummary struct {
	ID           string  `json:"id" yaml:"id"`
	Title        string  `json:"title" yaml:"title"`
	Year         int     `json:"year,omitempty" yaml:"year,omitempty"`
	DOI          string  `json:"doi,omitempty" yaml:"doi,omitempty"`
	VenueID      string  `json:"venue_id,omitempty" yaml:"venue_id,omitempty"`
	DirectScore  float64 `json:"direct_score" yaml:"direct_score"`
	ConceptScore float64 `json:"concept_score" yaml:"concept_score"`
}

// ScoredResult pairs an entity with its request-scoped score. Aggregated
// results (authors, venues) also list the contributing paper ids.
type ScoredResult[T any] struct {
	Item   T        `json:"item" yaml:"item"`
	Score  float64  `json:"score" yaml:"score"`
	Papers []string `json:"papers,omitempty" yaml:"papers,omitempty"`
}

// Page is one slice of a ranked list. Total counts every ranked entry so a
// caller can tell whether more pages exist.
type Page[T any] struct {
	Results []ScoredResult[T] `json:"results" yaml:"results"`
	Total   int               `json:"total" yaml:"total"`
	Offset  int               `json:"offset" yaml:"offset"`
	Limit   int               `json:"limit" yaml:"limit"`
	Partial bool              `json:"partial,omitempty" yaml:"partial,omitempty"`
}

// HasMore reports whether entries exist past this page.
func (p Page[T]) HasMore() bool {
	return p.Offset+len(p.Results) < p.Total
}
