// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// CandidateSet is the read-only snapshot fetched for one request. Papers keep
// retrieval order; the maps resolve references made by papers.
type CandidateSet struct {
	Papers   []Paper            `json:"papers" yaml:"papers"`
	Concepts map[string]Concept `json:"concepts,omitempty" yaml:"concepts,omitempty"`
	Authors  map[string]Author  `json:"authors,omitempty" yaml:"authors,omitempty"`
	Venues   map[string]Venue   `json:"venues,omitempty" yaml:"venues,omitempty"`

	// Partial is set when the fetch stopped early (deadline or cancellation)
	// and the set holds only the papers retrieved so far.
	Partial bool `json:"partial,omitempty" yaml:"partial,omitempty"`
}

// IsEmpty reports whether the set holds no papers.
func (c *CandidateSet) IsEmpty() bool {
	return c == nil || len(c.Papers) == 0
}

// Snapshot is the on-disk form of a batch of normalized records, as produced
// by an upstream ingestion job. Lists are used instead of maps so files stay
// diff-friendly.
type Snapshot struct {
	Papers   []Paper   `json:"papers" yaml:"papers"`
	Concepts []Concept `json:"concepts,omitempty" yaml:"concepts,omitempty"`
	Authors  []Author  `json:"authors,omitempty" yaml:"authors,omitempty"`
	Venues   []Venue   `json:"venues,omitempty" yaml:"venues,omitempty"`
}

// CandidateSet converts the snapshot into a candidate set, indexing the
// referenced records by id.
func (s *Snapshot) CandidateSet() *CandidateSet {
	cs := &CandidateSet{
		Papers:   s.Papers,
		Concepts: make(map[string]Concept, len(s.Concepts)),
		Authors:  make(map[string]Author, len(s.Authors)),
		Venues:   make(map[string]Venue, len(s.Venues)),
	}
	for _, c := range s.Concepts {
		cs.Concepts[c.ID] = c
	}
	for _, a := range s.Authors {
		cs.Authors[a.ID] = a
	}
	for _, v := range s.Venues {
		cs.Venues[v.ID] = v
	}
	return cs
}
