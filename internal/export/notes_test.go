// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/granola-export/pkg/types"
)

func TestListNotes(t *testing.T) {
	e, _ := newExporter(t, types.ExportConfig{})
	dir := e.cfg.OutputDir
	docs := []types.Document{
		note("doc-b", "Beta", "2025-05-02T09:00:00Z", "2025-05-02T10:00:00Z", "b"),
		note("doc-a", "Alpha", "2025-05-01T09:00:00Z", "", "a"),
	}
	_, err := e.Run(context.Background(), docs, fakeTranscripts{"doc-b": nil}, &bytes.Buffer{})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# not a note\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("---\ntitle: x\n---\n"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.md"), 0o755))

	notes, err := ListNotes(dir)
	require.NoError(t, err)
	require.Len(t, notes, 2)

	assert.Equal(t, NoteInfo{
		Path:    "2025-05-01-alpha.md",
		Title:   "Alpha",
		ID:      "doc-a",
		Created: "2025-05-01T09:00:00Z",
	}, notes[0])
	assert.Equal(t, "2025-05-02-beta.md", notes[1].Path)
	assert.Equal(t, "2025-05-02T10:00:00Z", notes[1].Updated)
	assert.True(t, notes[1].HasTranscript)
}

func TestListNotes_MissingDir(t *testing.T) {
	_, err := ListNotes(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
