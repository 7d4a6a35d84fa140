// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"
)

// ResultFile is the on-disk record of a search: the query, the parameters
// that produced the ranking and the pages returned. A saved file can be
// reviewed later without re-running the encoder.
type ResultFile struct {
	Query   ResultQuery  `yaml:"query"`
	Config  ResultConfig `yaml:"config"`
	Result  *Result      `yaml:"result"`
	Summary ResultStats  `yaml:"summary"`
}

// ResultQuery stores the query and candidate filter.
type ResultQuery struct {
	Text     string `yaml:"text,omitempty"`
	Match    string `yaml:"match,omitempty"`
	YearFrom int    `yaml:"year_from,omitempty"`
	YearTo   int    `yaml:"year_to,omitempty"`
	Kind     Kind   `yaml:"kind"`
}

// ResultConfig stores the scoring parameters.
type ResultConfig struct {
	PaperWeight   float64 `yaml:"paper_weight"`
	ConceptWeight float64 `yaml:"concept_weight"`
	MinScore      float64 `yaml:"min_score"`
	Offset        int     `yaml:"offset"`
	Limit         int     `yaml:"limit"`
}

// ResultStats stores totals and a timestamp.
type ResultStats struct {
	PaperTotal   int       `yaml:"paper_total"`
	AuthorTotal  int       `yaml:"author_total"`
	VenueTotal   int       `yaml:"venue_total"`
	ConceptTotal int       `yaml:"concept_total,omitempty"`
	Partial      bool      `yaml:"partial,omitempty"`
	Timestamp    time.Time `yaml:"timestamp"`
}

// WriteResultFile saves a request and its result to a YAML file.
func WriteResultFile(path string, req Request, cfg ResultConfig, res *Result) error {
	rf := ResultFile{
		Query: ResultQuery{
			Text:     req.Text,
			Match:    req.Filter.Match,
			YearFrom: req.Filter.YearFrom,
			YearTo:   req.Filter.YearTo,
			Kind:     res.Kind,
		},
		Config: cfg,
		Result: res,
		Summary: ResultStats{
			Partial:   res.Partial,
			Timestamp: time.Now().UTC(),
		},
	}
	if res.Papers != nil {
		rf.Summary.PaperTotal = res.Papers.Total
	}
	if res.Authors != nil {
		rf.Summary.AuthorTotal = res.Authors.Total
	}
	if res.Venues != nil {
		rf.Summary.VenueTotal = res.Venues.Total
	}
	if res.Concepts != nil {
		rf.Summary.ConceptTotal = res.Concepts.Total
	}

	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling result file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadResultFile loads a previously saved result file.
func ReadResultFile(path string) (*ResultFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result file: %w", err)
	}
	var rf ResultFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing result file: %w", err)
	}
	return &rf, nil
}

// ConfigOf records the effective scoring parameters of p, resolving unset
// values to the engine defaults.
func (e *Engine) ConfigOf(p Params) ResultConfig {
	blend, minScore := e.defaults.Blend(), e.defaults.MinScore
	if p.Blend != nil {
		blend = *p.Blend
	}
	if p.MinScore != nil {
		minScore = *p.MinScore
	}
	return ResultConfig{
		PaperWeight:   blend.Direct,
		ConceptWeight: blend.Concept,
		MinScore:      minScore,
		Offset:        p.Offset,
		Limit:         p.Limit,
	}
}
