// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// Author holds author metadata. Citation counts are opaque to the engine,
// which only derives a request-scoped score from an author's papers.
type Author struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	ORCID        string `json:"orcid,omitempty" yaml:"orcid,omitempty"`
	WorksCount   int    `json:"works_count,omitempty" yaml:"works_count,omitempty"`
	CitedByCount int    `json:"cited_by_count,omitempty" yaml:"cited_by_count,omitempty"`

	ClusterIDs     []string  `json:"cluster_ids,omitempty" yaml:"cluster_ids,omitempty,flow"`
	ClusterWeights []float64 `json:"cluster_ids_weightage,omitempty" yaml:"cluster_ids_weightage,omitempty,flow"`
}

// Validate checks the data-layer invariants of an author record.
func (a *Author) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("%w: author id is empty", ErrInvalidRecord)
	}
	if len(a.ClusterIDs) != len(a.ClusterWeights) {
		return fmt.Errorf("%w: author %s has %d cluster ids but %d cluster weights",
			ErrInvalidRecord, a.ID, len(a.ClusterIDs), len(a.ClusterWeights))
	}
	return nil
}
