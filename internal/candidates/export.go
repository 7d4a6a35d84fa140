// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package candidates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litscout/pkg/types"
)

// Export formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Snapshot reads the whole store back into snapshot form. Records come out
// sorted by id, papers in insertion order. The result can be re-ingested.
func (s *Store) Snapshot(ctx context.Context) (*types.Snapshot, error) {
	cs, err := s.Fetch(ctx, Filter{})
	if err != nil {
		return nil, fmt.Errorf("reading papers: %w", err)
	}
	snap := &types.Snapshot{Papers: cs.Papers}

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, embedding FROM concepts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying concepts: %w", err)
	}
	err = scanConcepts(rows, func(c types.Concept) { snap.Concepts = append(snap.Concepts, c) })
	rows.Close()
	if err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT id, name, orcid, works_count, cited_by_count, cluster_ids, cluster_weights FROM authors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying authors: %w", err)
	}
	err = scanAuthors(rows, func(a types.Author) { snap.Authors = append(snap.Authors, a) })
	rows.Close()
	if err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT id, name, source_type, host_organization_id, host_organization_name,
			issn_l, works_count, cited_by_count, homepage_url FROM venues ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying venues: %w", err)
	}
	err = scanVenues(rows, func(v types.Venue) { snap.Venues = append(snap.Venues, v) })
	rows.Close()
	if err != nil {
		return nil, err
	}

	return snap, nil
}

// Export writes the store as a snapshot in the given format to w.
func (s *Store) Export(ctx context.Context, w io.Writer, format string) error {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
	case FormatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown export format %q (use yaml or json)", format)
	}
	return nil
}
