// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package candidates

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litscout/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	tmpDir := t.TempDir()
	snapDir := filepath.Join(tmpDir, "snapshots")
	require.NoError(t, os.MkdirAll(snapDir, 0o755))

	store, err := NewStore(types.StoreConfig{
		DataDir:      filepath.Join(tmpDir, "data"),
		SnapshotsDir: snapDir,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, snapDir
}

func writeSnapshot(t *testing.T, dir, name string, snap *types.Snapshot) string {
	t.Helper()
	data, err := yaml.Marshal(snap)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func sampleSnapshot() *types.Snapshot {
	return &types.Snapshot{
		Papers: []types.Paper{
			{
				ID: "W1", Title: "Efficient attention for long documents", Abstract: "Linear attention.",
				Year: 2021, VenueID: "S1", Embedding: []float32{1, 0, 0},
				Concepts:       []types.ConceptWeight{{ConceptID: "C1", Weight: 0.9}, {ConceptID: "C2", Weight: 0.3}},
				ClusterIDs:     []string{"k1"},
				ClusterWeights: []float64{1},
				Authors:        []types.Authorship{{AuthorID: "A1"}, {AuthorID: "A2"}},
			},
			{
				ID: "W2", Title: "Graph neural networks for chemistry", Abstract: "Message passing.",
				Year: 2019, VenueID: "S2", Embedding: []float32{0, 1, 0},
				Concepts: []types.ConceptWeight{{ConceptID: "C2", Weight: 1}},
				Authors:  []types.Authorship{{AuthorID: "A2", Order: 1, IsCorresponding: true}},
			},
			{
				ID: "W3", Title: "Sparse attention patterns", Year: 2023,
				Authors: []types.Authorship{{AuthorID: "A3", Order: 1}},
			},
		},
		Concepts: []types.Concept{
			{ID: "C1", Name: "Attention", Embedding: []float32{0.9, 0.1, 0}},
			{ID: "C2", Name: "Neural networks", Embedding: []float32{0.2, 0.8, 0}},
		},
		Authors: []types.Author{
			{ID: "A1", Name: "Ada Lovelace", WorksCount: 12},
			{ID: "A2", Name: "Alan Turing", ClusterIDs: []string{"k1", "k2"}, ClusterWeights: []float64{0.7, 0.3}},
		},
		Venues: []types.Venue{
			{ID: "S1", Name: "NeurIPS", SourceType: "conference"},
			{ID: "S2", Name: "Journal of Chemistry", ISSNL: "1234-5678"},
		},
	}
}

// --- tests ---

func TestIngestAndFetchAll(t *testing.T) {
	store, snapDir := testStore(t)
	writeSnapshot(t, snapDir, "batch1.yaml", sampleSnapshot())

	var buf bytes.Buffer
	summary, err := store.Ingest(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Indexed)
	assert.Equal(t, 3, summary.Papers)
	assert.Contains(t, buf.String(), "indexing batch1.yaml (3 papers)")

	cs, err := store.Fetch(context.Background(), Filter{})
	require.NoError(t, err)
	assert.False(t, cs.Partial)
	require.Len(t, cs.Papers, 3)
	assert.Equal(t, []string{"W1", "W2", "W3"}, []string{cs.Papers[0].ID, cs.Papers[1].ID, cs.Papers[2].ID})

	w1 := cs.Papers[0]
	assert.Equal(t, []float32{1, 0, 0}, w1.Embedding)
	assert.Equal(t, []types.ConceptWeight{{ConceptID: "C1", Weight: 0.9}, {ConceptID: "C2", Weight: 0.3}}, w1.Concepts)
	assert.Equal(t, []string{"k1"}, w1.ClusterIDs)
	require.Len(t, w1.Authors, 2)
	assert.Equal(t, 1, w1.Authors[0].Order, "missing order defaults to byline position")
	assert.Equal(t, 2, w1.Authors[1].Order)
	assert.True(t, cs.Papers[1].Authors[0].IsCorresponding)
	assert.Empty(t, cs.Papers[2].Embedding)

	assert.Len(t, cs.Concepts, 2)
	assert.Equal(t, []float32{0.9, 0.1, 0}, cs.Concepts["C1"].Embedding)
	assert.Len(t, cs.Authors, 2, "A3 has no author record")
	assert.Equal(t, []float64{0.7, 0.3}, cs.Authors["A2"].ClusterWeights)
	assert.Equal(t, "NeurIPS", cs.Venues["S1"].Name)
}

func TestFetchFilters(t *testing.T) {
	store, _ := testStore(t)
	require.NoError(t, store.IngestSnapshot(context.Background(), sampleSnapshot()))

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"full text", Filter{Match: "attention"}, []string{"W1", "W3"}},
		{"full text and year", Filter{Match: "attention", YearFrom: 2022}, []string{"W3"}},
		{"year range", Filter{YearFrom: 2019, YearTo: 2021}, []string{"W1", "W2"}},
		{"limit", Filter{Limit: 1}, []string{"W1"}},
		{"no match", Filter{Match: "quantum"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs, err := store.Fetch(context.Background(), tt.filter)
			require.NoError(t, err)
			var got []string
			for _, p := range cs.Papers {
				got = append(got, p.ID)
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}

	_, err := store.Fetch(context.Background(), Filter{Match: `graph-neural "AND (`})
	assert.NoError(t, err, "query syntax in match terms is not interpreted")
}

func TestFTSQuery(t *testing.T) {
	assert.Equal(t, `"graph" "neural"`, ftsQuery("  graph neural "))
	assert.Equal(t, `"say" """hi"""`, ftsQuery(`say "hi"`))
}

func TestFetchOnlyLoadsReferencedRecords(t *testing.T) {
	store, _ := testStore(t)
	require.NoError(t, store.IngestSnapshot(context.Background(), sampleSnapshot()))

	cs, err := store.Fetch(context.Background(), Filter{YearFrom: 2019, YearTo: 2019})
	require.NoError(t, err)
	require.Len(t, cs.Papers, 1)
	assert.Contains(t, cs.Concepts, "C2")
	assert.NotContains(t, cs.Concepts, "C1")
	assert.Len(t, cs.Authors, 1)
	assert.Len(t, cs.Venues, 1)
}

func TestFetchExpiredContextIsPartial(t *testing.T) {
	store, _ := testStore(t)
	require.NoError(t, store.IngestSnapshot(context.Background(), sampleSnapshot()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	cs, err := store.Fetch(ctx, Filter{})
	require.NoError(t, err)
	assert.True(t, cs.Partial)
	assert.Empty(t, cs.Papers)
}

func TestIngestIncremental(t *testing.T) {
	store, snapDir := testStore(t)
	path := writeSnapshot(t, snapDir, "batch1.yaml", sampleSnapshot())

	_, err := store.Ingest(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)

	summary, err := store.Ingest(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Indexed)

	snap := sampleSnapshot()
	snap.Papers[0].Title = "Efficient attention, revised"
	snap.Papers[0].Concepts = []types.ConceptWeight{{ConceptID: "C1", Weight: 0.5}}
	writeSnapshot(t, snapDir, "batch1.yaml", snap)
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	summary, err = store.Ingest(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)

	cs, err := store.Fetch(context.Background(), Filter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, "Efficient attention, revised", cs.Papers[0].Title)
	assert.Equal(t, []types.ConceptWeight{{ConceptID: "C1", Weight: 0.5}}, cs.Papers[0].Concepts)

	counts, err := store.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Counts{Papers: 3, Concepts: 2, Authors: 2, Venues: 2}, counts)
}

func TestIngestRejectsInvalidFile(t *testing.T) {
	store, snapDir := testStore(t)
	writeSnapshot(t, snapDir, "good.yaml", sampleSnapshot())

	bad := &types.Snapshot{Papers: []types.Paper{
		{ID: "B1", Title: "ok"},
		{ID: "B2", ClusterIDs: []string{"k1", "k2"}, ClusterWeights: []float64{1}},
	}}
	writeSnapshot(t, snapDir, "bad.yaml", bad)
	require.NoError(t, os.WriteFile(filepath.Join(snapDir, "notes.txt"), []byte("ignored"), 0o644))

	var buf bytes.Buffer
	summary, err := store.Ingest(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Indexed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.Total())
	assert.Contains(t, buf.String(), "failed  bad.yaml")

	counts, err := store.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, counts.Papers, "invalid file rolled back as a whole")
}

func TestIngestSnapshotRejectsNegativeWeight(t *testing.T) {
	store, _ := testStore(t)
	snap := &types.Snapshot{Papers: []types.Paper{
		{ID: "W1", Concepts: []types.ConceptWeight{{ConceptID: "C1", Weight: -0.1}}},
	}}
	assert.ErrorIs(t, store.IngestSnapshot(context.Background(), snap), types.ErrInvalidWeight)
}

func TestExportRoundTrip(t *testing.T) {
	store, _ := testStore(t)
	require.NoError(t, store.IngestSnapshot(context.Background(), sampleSnapshot()))

	for _, format := range []string{FormatYAML, FormatJSON} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, store.Export(context.Background(), &buf, format))

			path := filepath.Join(t.TempDir(), "export."+format)
			require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
			snap, err := LoadSnapshot(path)
			require.NoError(t, err)

			assert.Len(t, snap.Papers, 3)
			assert.Len(t, snap.Concepts, 2)
			assert.Len(t, snap.Authors, 2)
			assert.Len(t, snap.Venues, 2)
			assert.Equal(t, []float32{1, 0, 0}, snap.Papers[0].Embedding)
		})
	}

	assert.Error(t, store.Export(context.Background(), &bytes.Buffer{}, "csv"))
}

func TestStaticSource(t *testing.T) {
	src := NewStaticSource(sampleSnapshot())

	cs, err := src.Fetch(context.Background(), Filter{Match: "Attention"})
	require.NoError(t, err)
	require.Len(t, cs.Papers, 2)
	assert.Equal(t, "W1", cs.Papers[0].ID)
	assert.Equal(t, "W3", cs.Papers[1].ID)
	assert.Len(t, cs.Concepts, 2)

	cs, err = src.Fetch(context.Background(), Filter{YearTo: 2020})
	require.NoError(t, err)
	require.Len(t, cs.Papers, 1)
	assert.Equal(t, "W2", cs.Papers[0].ID)

	cs, err = src.Fetch(context.Background(), Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, cs.Papers, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cs, err = src.Fetch(ctx, Filter{})
	require.NoError(t, err)
	assert.True(t, cs.Partial)
	assert.Empty(t, cs.Papers)
}

func TestVectorEncoding(t *testing.T) {
	v := []float32{0.25, -1.5, 3e-7, 0}
	got, err := decodeVector(encodeVector(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)

	got, err = decodeVector(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
