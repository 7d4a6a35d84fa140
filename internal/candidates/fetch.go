// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package candidates

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/litscout/pkg/types"
)

// Fetch returns the papers matching f with every concept, author and venue
// they reference. Full-text matches come back in FTS rank order, otherwise
// in insertion order. If ctx expires while papers are being read, the papers
// read so far are returned with Partial set.
func (s *Store) Fetch(ctx context.Context, f Filter) (*types.CandidateSet, error) {
	papers, partial, err := s.fetchPapers(ctx, f)
	if err != nil {
		return nil, err
	}
	cs := &types.CandidateSet{Papers: papers, Partial: partial}
	if len(papers) == 0 {
		return cs, nil
	}

	// References are resolved even after the deadline so the papers already
	// read can still be scored.
	if err := s.loadRelations(context.WithoutCancel(ctx), cs); err != nil {
		return nil, err
	}
	return cs, nil
}

func (s *Store) fetchPapers(ctx context.Context, f Filter) ([]types.Paper, bool, error) {
	var (
		qb     strings.Builder
		args   []any
		match  = strings.TrimSpace(f.Match)
		useFTS = match != "" && s.fts
	)

	if useFTS {
		qb.WriteString(
			`SELECT p.id, p.title, p.abstract, p.year, p.doi, p.venue_id, p.embedding,
				p.cluster_ids, p.cluster_weights
			FROM papers_fts
			JOIN papers p ON p.rowid = papers_fts.rowid
			WHERE papers_fts MATCH ?`)
		args = append(args, ftsQuery(match))
	} else {
		qb.WriteString(
			`SELECT p.id, p.title, p.abstract, p.year, p.doi, p.venue_id, p.embedding,
				p.cluster_ids, p.cluster_weights
			FROM papers p
			WHERE 1=1`)
		for _, term := range strings.Fields(match) {
			qb.WriteString(` AND (p.title || ' ' || p.abstract) LIKE ?`)
			args = append(args, "%"+term+"%")
		}
	}

	if f.YearFrom > 0 {
		qb.WriteString(` AND p.year >= ?`)
		args = append(args, f.YearFrom)
	}
	if f.YearTo > 0 {
		qb.WriteString(` AND p.year <= ?`)
		args = append(args, f.YearTo)
	}

	if useFTS {
		qb.WriteString(` ORDER BY papers_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY p.rowid`)
	}
	if f.Limit > 0 {
		qb.WriteString(` LIMIT ?`)
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	var papers []types.Paper
	for rows.Next() {
		if ctx.Err() != nil {
			return papers, true, nil
		}
		var (
			p              types.Paper
			blob           []byte
			clusterIDs     sql.NullString
			clusterWeights sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Abstract, &p.Year, &p.DOI, &p.VenueID,
			&blob, &clusterIDs, &clusterWeights); err != nil {
			return nil, false, fmt.Errorf("scanning paper: %w", err)
		}
		if p.Embedding, err = decodeVector(blob); err != nil {
			return nil, false, fmt.Errorf("paper %s: %w", p.ID, err)
		}
		if err := unmarshalNull(clusterIDs, &p.ClusterIDs); err != nil {
			return nil, false, fmt.Errorf("paper %s cluster ids: %w", p.ID, err)
		}
		if err := unmarshalNull(clusterWeights, &p.ClusterWeights); err != nil {
			return nil, false, fmt.Errorf("paper %s cluster weights: %w", p.ID, err)
		}
		papers = append(papers, p)
	}
	if err := rows.Err(); err != nil {
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return papers, true, nil
		}
		return nil, false, fmt.Errorf("reading papers: %w", err)
	}
	return papers, false, nil
}

// ftsQuery quotes each term so user input is never parsed as FTS5 syntax.
// Adjacent quoted strings are ANDed.
func ftsQuery(match string) string {
	terms := strings.Fields(match)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

// loadRelations attaches concept and author links to cs.Papers and loads the
// referenced concept, author and venue records.
func (s *Store) loadRelations(ctx context.Context, cs *types.CandidateSet) error {
	index := make(map[string]int, len(cs.Papers))
	ids := make([]string, len(cs.Papers))
	for i, p := range cs.Papers {
		index[p.ID] = i
		ids[i] = p.ID
	}
	paperIDs := jsonText(ids)

	conceptIDs, err := s.attachConcepts(ctx, cs, index, paperIDs)
	if err != nil {
		return err
	}
	authorIDs, err := s.attachAuthors(ctx, cs, index, paperIDs)
	if err != nil {
		return err
	}
	venueIDs := make([]string, 0)
	seen := make(map[string]bool)
	for _, p := range cs.Papers {
		if p.VenueID != "" && !seen[p.VenueID] {
			seen[p.VenueID] = true
			venueIDs = append(venueIDs, p.VenueID)
		}
	}

	if cs.Concepts, err = s.concepts(ctx, conceptIDs); err != nil {
		return err
	}
	if cs.Authors, err = s.authors(ctx, authorIDs); err != nil {
		return err
	}
	if cs.Venues, err = s.venues(ctx, venueIDs); err != nil {
		return err
	}
	return nil
}

func (s *Store) attachConcepts(ctx context.Context, cs *types.CandidateSet, index map[string]int, paperIDs any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT paper_id, concept_id, weight FROM paper_concepts
		 WHERE paper_id IN (SELECT value FROM json_each(?))
		 ORDER BY rowid`, paperIDs)
	if err != nil {
		return nil, fmt.Errorf("querying paper concepts: %w", err)
	}
	defer rows.Close()

	var ids []string
	seen := make(map[string]bool)
	for rows.Next() {
		var paperID string
		var cw types.ConceptWeight
		if err := rows.Scan(&paperID, &cw.ConceptID, &cw.Weight); err != nil {
			return nil, fmt.Errorf("scanning paper concept: %w", err)
		}
		p := &cs.Papers[index[paperID]]
		p.Concepts = append(p.Concepts, cw)
		if !seen[cw.ConceptID] {
			seen[cw.ConceptID] = true
			ids = append(ids, cw.ConceptID)
		}
	}
	return ids, rows.Err()
}

func (s *Store) attachAuthors(ctx context.Context, cs *types.CandidateSet, index map[string]int, paperIDs any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT paper_id, author_id, author_order, is_corresponding FROM paper_authors
		 WHERE paper_id IN (SELECT value FROM json_each(?))
		 ORDER BY paper_id, author_order`, paperIDs)
	if err != nil {
		return nil, fmt.Errorf("querying paper authors: %w", err)
	}
	defer rows.Close()

	var ids []string
	seen := make(map[string]bool)
	for rows.Next() {
		var paperID string
		var a types.Authorship
		if err := rows.Scan(&paperID, &a.AuthorID, &a.Order, &a.IsCorresponding); err != nil {
			return nil, fmt.Errorf("scanning paper author: %w", err)
		}
		p := &cs.Papers[index[paperID]]
		p.Authors = append(p.Authors, a)
		if !seen[a.AuthorID] {
			seen[a.AuthorID] = true
			ids = append(ids, a.AuthorID)
		}
	}
	return ids, rows.Err()
}

func (s *Store) concepts(ctx context.Context, ids []string) (map[string]types.Concept, error) {
	out := make(map[string]types.Concept, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, embedding FROM concepts
		 WHERE id IN (SELECT value FROM json_each(?))`, jsonText(ids))
	if err != nil {
		return nil, fmt.Errorf("querying concepts: %w", err)
	}
	defer rows.Close()
	return out, scanConcepts(rows, func(c types.Concept) { out[c.ID] = c })
}

func (s *Store) authors(ctx context.Context, ids []string) (map[string]types.Author, error) {
	out := make(map[string]types.Author, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, orcid, works_count, cited_by_count, cluster_ids, cluster_weights FROM authors
		 WHERE id IN (SELECT value FROM json_each(?))`, jsonText(ids))
	if err != nil {
		return nil, fmt.Errorf("querying authors: %w", err)
	}
	defer rows.Close()
	return out, scanAuthors(rows, func(a types.Author) { out[a.ID] = a })
}

func (s *Store) venues(ctx context.Context, ids []string) (map[string]types.Venue, error) {
	out := make(map[string]types.Venue, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, source_type, host_organization_id, host_organization_name,
			issn_l, works_count, cited_by_count, homepage_url FROM venues
		 WHERE id IN (SELECT value FROM json_each(?))`, jsonText(ids))
	if err != nil {
		return nil, fmt.Errorf("querying venues: %w", err)
	}
	defer rows.Close()
	return out, scanVenues(rows, func(v types.Venue) { out[v.ID] = v })
}

func scanConcepts(rows *sql.Rows, fn func(types.Concept)) error {
	for rows.Next() {
		var c types.Concept
		var blob []byte
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &blob); err != nil {
			return fmt.Errorf("scanning concept: %w", err)
		}
		v, err := decodeVector(blob)
		if err != nil {
			return fmt.Errorf("concept %s: %w", c.ID, err)
		}
		c.Embedding = v
		fn(c)
	}
	return rows.Err()
}

func scanAuthors(rows *sql.Rows, fn func(types.Author)) error {
	for rows.Next() {
		var a types.Author
		var clusterIDs, clusterWeights sql.NullString
		if err := rows.Scan(&a.ID, &a.Name, &a.ORCID, &a.WorksCount, &a.CitedByCount,
			&clusterIDs, &clusterWeights); err != nil {
			return fmt.Errorf("scanning author: %w", err)
		}
		if err := unmarshalNull(clusterIDs, &a.ClusterIDs); err != nil {
			return fmt.Errorf("author %s cluster ids: %w", a.ID, err)
		}
		if err := unmarshalNull(clusterWeights, &a.ClusterWeights); err != nil {
			return fmt.Errorf("author %s cluster weights: %w", a.ID, err)
		}
		fn(a)
	}
	return rows.Err()
}

func scanVenues(rows *sql.Rows, fn func(types.Venue)) error {
	for rows.Next() {
		var v types.Venue
		if err := rows.Scan(&v.ID, &v.Name, &v.SourceType, &v.HostOrganizationID,
			&v.HostOrganizationName, &v.ISSNL, &v.WorksCount, &v.CitedByCount, &v.HomepageURL); err != nil {
			return fmt.Errorf("scanning venue: %w", err)
		}
		fn(v)
	}
	return rows.Err()
}

func unmarshalNull(s sql.NullString, dst any) error {
	if !s.Valid || s.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(s.String), dst)
}
