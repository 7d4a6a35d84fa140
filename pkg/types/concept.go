// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Concept is a structured topic tag from an external taxonomy. Many papers
// reference the same concept with paper-specific weights.
type Concept struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Embedding   []float32 `json:"embedding,omitempty" yaml:"embedding,omitempty,flow"`
}
