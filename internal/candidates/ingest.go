// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package candidates

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litscout/pkg/types"
)

// IngestSummary holds counts from one ingest run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int

	// Papers counts paper records written across indexed and updated files.
	Papers int
}

// Total returns the number of snapshot files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest loads every *.yaml, *.yml or *.json snapshot in the snapshots
// directory. Files whose modification time matches the last run are
// skipped. Each file is written in one transaction; a file with an invalid
// record fails as a whole and the rest continue.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	if s.snapshotsDir == "" {
		return IngestSummary{}, fmt.Errorf("no snapshots directory configured")
	}
	entries, err := os.ReadDir(s.snapshotsDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading snapshots directory %s: %w", s.snapshotsDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !isSnapshotFile(entry.Name()) {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		name := entry.Name()
		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE file = ?`, name,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", name)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		snap, err := LoadSnapshot(filepath.Join(s.snapshotsDir, name))
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		if err := s.IngestSnapshot(ctx, snap); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		if err := s.markIndexed(ctx, name, modTime); err != nil {
			return summary, err
		}

		summary.Papers += len(snap.Papers)
		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d papers)\n", name, len(snap.Papers))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d papers)\n", name, len(snap.Papers))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func isSnapshotFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// LoadSnapshot reads a YAML or JSON snapshot file and fills missing author
// order. JSON is chosen by the .json extension.
func LoadSnapshot(path string) (*types.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var snap types.Snapshot
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &snap)
	} else {
		err = yaml.Unmarshal(data, &snap)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", filepath.Base(path), err)
	}
	normalize(&snap)
	return &snap, nil
}

// normalize fills author order from byline position when the source left
// it unset.
func normalize(snap *types.Snapshot) {
	for i := range snap.Papers {
		for j := range snap.Papers[i].Authors {
			if snap.Papers[i].Authors[j].Order == 0 {
				snap.Papers[i].Authors[j].Order = j + 1
			}
		}
	}
}

// IngestSnapshot validates and upserts every record of snap in one
// transaction. A paper's concept and author links are replaced, not merged.
func (s *Store) IngestSnapshot(ctx context.Context, snap *types.Snapshot) error {
	normalize(snap)
	for i := range snap.Papers {
		if err := snap.Papers[i].Validate(); err != nil {
			return err
		}
	}
	for i := range snap.Authors {
		if err := snap.Authors[i].Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range snap.Concepts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO concepts (id, name, description, embedding) VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				name=excluded.name, description=excluded.description, embedding=excluded.embedding`,
			c.ID, c.Name, c.Description, encodeVector(c.Embedding),
		)
		if err != nil {
			return fmt.Errorf("upserting concept %s: %w", c.ID, err)
		}
	}

	for _, a := range snap.Authors {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO authors (id, name, orcid, works_count, cited_by_count, cluster_ids, cluster_weights)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				name=excluded.name, orcid=excluded.orcid, works_count=excluded.works_count,
				cited_by_count=excluded.cited_by_count, cluster_ids=excluded.cluster_ids,
				cluster_weights=excluded.cluster_weights`,
			a.ID, a.Name, a.ORCID, a.WorksCount, a.CitedByCount,
			jsonText(a.ClusterIDs), jsonText(a.ClusterWeights),
		)
		if err != nil {
			return fmt.Errorf("upserting author %s: %w", a.ID, err)
		}
	}

	for _, v := range snap.Venues {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO venues (id, name, source_type, host_organization_id, host_organization_name,
				issn_l, works_count, cited_by_count, homepage_url)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				name=excluded.name, source_type=excluded.source_type,
				host_organization_id=excluded.host_organization_id,
				host_organization_name=excluded.host_organization_name, issn_l=excluded.issn_l,
				works_count=excluded.works_count, cited_by_count=excluded.cited_by_count,
				homepage_url=excluded.homepage_url`,
			v.ID, v.Name, v.SourceType, v.HostOrganizationID, v.HostOrganizationName,
			v.ISSNL, v.WorksCount, v.CitedByCount, v.HomepageURL,
		)
		if err != nil {
			return fmt.Errorf("upserting venue %s: %w", v.ID, err)
		}
	}

	for i := range snap.Papers {
		if err := upsertPaper(ctx, tx, &snap.Papers[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func upsertPaper(ctx context.Context, tx *sql.Tx, p *types.Paper) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO papers (id, title, abstract, year, doi, venue_id, embedding, cluster_ids, cluster_weights)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, abstract=excluded.abstract, year=excluded.year, doi=excluded.doi,
			venue_id=excluded.venue_id, embedding=excluded.embedding,
			cluster_ids=excluded.cluster_ids, cluster_weights=excluded.cluster_weights`,
		p.ID, p.Title, p.Abstract, p.Year, p.DOI, p.VenueID, encodeVector(p.Embedding),
		jsonText(p.ClusterIDs), jsonText(p.ClusterWeights),
	)
	if err != nil {
		return fmt.Errorf("upserting paper %s: %w", p.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM paper_concepts WHERE paper_id = ?`, p.ID); err != nil {
		return fmt.Errorf("clearing concepts of %s: %w", p.ID, err)
	}
	for _, c := range p.Concepts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO paper_concepts (paper_id, concept_id, weight) VALUES (?, ?, ?)
			 ON CONFLICT(paper_id, concept_id) DO UPDATE SET weight=excluded.weight`,
			p.ID, c.ConceptID, c.Weight,
		)
		if err != nil {
			return fmt.Errorf("linking concept %s to %s: %w", c.ConceptID, p.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM paper_authors WHERE paper_id = ?`, p.ID); err != nil {
		return fmt.Errorf("clearing authors of %s: %w", p.ID, err)
	}
	for _, a := range p.Authors {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO paper_authors (paper_id, author_id, author_order, is_corresponding) VALUES (?, ?, ?, ?)`,
			p.ID, a.AuthorID, a.Order, a.IsCorresponding,
		)
		if err != nil {
			return fmt.Errorf("linking author %s to %s: %w", a.AuthorID, p.ID, err)
		}
	}
	return nil
}

func (s *Store) markIndexed(ctx context.Context, name, modTime string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO indexing_status (file, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(file) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		name, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}
	return nil
}

// jsonText encodes a slice as a JSON array, or NULL when empty.
func jsonText[T any](v []T) any {
	if len(v) == 0 {
		return nil
	}
	data, _ := json.Marshal(v)
	return string(data)
}
