// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the litscout recommender:
// the read-only candidate records the scoring engine consumes (Paper, Concept,
// Author, Venue), the ranked results it produces, and per-component
// configuration.
package types

import (
	"fmt"
	"math"
)

// ConceptWeight tags a paper with a concept and the concept's relevance to
// that paper. Weights are non-negative.
type ConceptWeight struct {
	ConceptID string  `json:"concept_id" yaml:"concept_id"`
	Weight    float64 `json:"weight" yaml:"weight"`
}

// ValidWeight reports whether w is a usable concept weight: a finite,
// non-negative number.
func ValidWeight(w float64) bool {
	return !math.IsNaN(w) && !math.IsInf(w, 0) && w >= 0
}

// Authorship places an author in a paper's byline.
type Authorship struct {
	AuthorID string `json:"author_id" yaml:"author_id"`

	// Order is the 1-indexed byline position.
	Order int `json:"author_order" yaml:"author_order"`

	IsCorresponding bool `json:"is_corresponding,omitempty" yaml:"is_corresponding,omitempty"`
}

// Paper is a candidate paper snapshot. The engine never mutates it.
type Paper struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Year     int    `json:"year,omitempty" yaml:"year,omitempty"`
	DOI      string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Embedding is the paper's dense vector. An empty embedding means the
	// paper has not been encoded yet.
	Embedding []float32 `json:"embedding,omitempty" yaml:"embedding,omitempty,flow"`

	Concepts []ConceptWeight `json:"concepts,omitempty" yaml:"concepts,omitempty"`

	// ClusterIDs and ClusterWeights are pre-computed topic assignments and
	// always have equal length.
	ClusterIDs     []string  `json:"cluster_ids,omitempty" yaml:"cluster_ids,omitempty,flow"`
	ClusterWeights []float64 `json:"cluster_ids_weightage,omitempty" yaml:"cluster_ids_weightage,omitempty,flow"`

	// Authors lists the byline in source order.
	Authors []Authorship `json:"authors,omitempty" yaml:"authors,omitempty"`

	// VenueID references the publication venue. Empty when unknown.
	VenueID string `json:"venue_id,omitempty" yaml:"venue_id,omitempty"`
}

// Validate checks the data-layer invariants of a paper record. It is called
// by the candidate store on ingest; the scoring engine performs its own
// boundary checks.
func (p *Paper) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: paper id is empty", ErrInvalidRecord)
	}
	if len(p.ClusterIDs) != len(p.ClusterWeights) {
		return fmt.Errorf("%w: paper %s has %d cluster ids but %d cluster weights",
			ErrInvalidRecord, p.ID, len(p.ClusterIDs), len(p.ClusterWeights))
	}
	seen := make(map[string]bool, len(p.Authors))
	for _, a := range p.Authors {
		if a.Order < 1 {
			return fmt.Errorf("%w: paper %s author %s has order %d",
				ErrInvalidWeight, p.ID, a.AuthorID, a.Order)
		}
		if seen[a.AuthorID] {
			return fmt.Errorf("%w: paper %s lists author %s twice", ErrInvalidRecord, p.ID, a.AuthorID)
		}
		seen[a.AuthorID] = true
	}
	for _, c := range p.Concepts {
		if !ValidWeight(c.Weight) {
			return fmt.Errorf("%w: paper %s concept %s has weight %g",
				ErrInvalidWeight, p.ID, c.ConceptID, c.Weight)
		}
	}
	return nil
}
