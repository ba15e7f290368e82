// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir() + "/nested/out"
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(dir + "/" + DBFile)
	assert.NoError(t, err)
}

func TestOpen_Reopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.RecordDocument(ctx, DocumentRecord{ID: "a", Path: "a.md"}))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Document(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpenExisting(t *testing.T) {
	t.Run("missing ledger creates nothing", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out")
		_, err := OpenExisting(dir)
		assert.ErrorIs(t, err, ErrNoLedger)
		assert.ErrorIs(t, err, os.ErrNotExist)

		_, statErr := os.Stat(dir)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("existing ledger opens", func(t *testing.T) {
		dir := t.TempDir()
		s, err := Open(dir)
		require.NoError(t, err)
		require.NoError(t, s.Close())

		s, err = OpenExisting(dir)
		require.NoError(t, err)
		assert.NoError(t, s.Close())
	})
}

func TestLastExportDate(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, ok, err := s.LastExportDate(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "empty ledger has no last export")

	first := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	second := time.Date(2025, 1, 2, 9, 0, 0, 500, time.UTC)

	_, err = s.RecordRun(ctx, Run{StartedAt: first, FinishedAt: first.Add(time.Minute), Saved: 3})
	require.NoError(t, err)
	_, err = s.RecordRun(ctx, Run{StartedAt: second, FinishedAt: second.Add(time.Minute), Saved: 1})
	require.NoError(t, err)
	_, err = s.RecordRun(ctx, Run{StartedAt: second.Add(time.Hour), Skipped: 4})
	require.NoError(t, err)

	got, ok, err := s.LastExportDate(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Equal(second), "runs that saved nothing do not move the date; got %v", got)
}

func TestRuns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	start := time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := s.RecordRun(ctx, Run{StartedAt: start.Add(time.Duration(i) * time.Hour), Saved: i, Failed: 1, Transcripts: 2})
		require.NoError(t, err)
	}

	all, err := s.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 2, all[0].Saved, "newest first")
	assert.Equal(t, 1, all[0].Failed)
	assert.Equal(t, 2, all[0].Transcripts)
	assert.True(t, all[2].StartedAt.Equal(start))
	assert.True(t, all[2].FinishedAt.IsZero())

	limited, err := s.Runs(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestDocuments(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	exported := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	rec := DocumentRecord{
		ID: "doc-1", Title: "Standup", Path: "2025-03-01-standup.md",
		CreatedAt: "2025-03-01T09:00:00Z", UpdatedAt: "2025-03-01T10:00:00Z",
		HasTranscript: true, ExportedAt: exported,
	}
	require.NoError(t, s.RecordDocument(ctx, rec))

	got, ok, err := s.Document(ctx, "doc-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec.Title, got.Title)
	assert.True(t, got.HasTranscript)
	assert.True(t, got.ExportedAt.Equal(exported))

	rec.UpdatedAt = "2025-03-02T10:00:00Z"
	rec.HasTranscript = false
	require.NoError(t, s.RecordDocument(ctx, rec))
	got, _, err = s.Document(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-02T10:00:00Z", got.UpdatedAt)
	assert.False(t, got.HasTranscript)

	_, ok, err = s.Document(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	owner, ok, err := s.PathOwner(ctx, "2025-03-01-standup.md")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "doc-1", owner)

	_, ok, err = s.PathOwner(ctx, "nobody.md")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.RecordDocument(ctx, DocumentRecord{ID: "doc-0", Path: "0000-first.md"}))
	all, err := s.Documents(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "doc-0", all[0].ID, "ordered by path")
}

func TestExport(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.RecordRun(ctx, Run{StartedAt: time.Now(), Saved: 1})
	require.NoError(t, err)
	require.NoError(t, s.RecordDocument(ctx, DocumentRecord{ID: "doc-1", Title: "Retro", Path: "retro.md"}))

	yamlPath, err := s.ExportYAML(ctx)
	require.NoError(t, err)
	data, err := os.ReadFile(yamlPath)
	require.NoError(t, err)

	var fromYAML Ledger
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	require.Len(t, fromYAML.Documents, 1)
	assert.Equal(t, "Retro", fromYAML.Documents[0].Title)
	assert.Len(t, fromYAML.Runs, 1)

	jsonPath, err := s.ExportJSON(ctx)
	require.NoError(t, err)
	data, err = os.ReadFile(jsonPath)
	require.NoError(t, err)

	var fromJSON Ledger
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	assert.Equal(t, 1, fromJSON.Runs[0].Saved)
}
