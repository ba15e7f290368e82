// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes Granola documents to a directory of Markdown files,
// one per note, and keeps the state ledger current so later runs only touch
// notes that changed.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/granola-export/internal/logger"
	"github.com/pdiddy/granola-export/internal/render"
	"github.com/pdiddy/granola-export/internal/state"
	"github.com/pdiddy/granola-export/pkg/types"
)

// DefaultOverlap is how far before the last export date the incremental
// cutoff is placed.
const DefaultOverlap = 24 * time.Hour

const (
	summaryHeading    = "## AI Summary"
	transcriptHeading = "## Full Transcript"
)

// TranscriptSource looks up the transcript for a document ID.
type TranscriptSource interface {
	For(id string) ([]types.Utterance, bool)
}

// Status is the outcome of exporting one document.
type Status int

const (
	StatusSaved Status = iota
	StatusSkipped
	StatusUnchanged
	StatusFailed
)

// BatchResult holds the outcome of an export run.
type BatchResult struct {
	Fetched     int
	Filtered    int
	Saved       int
	Skipped     int
	Unchanged   int
	Failed      int
	Transcripts int
}

// Total returns the number of documents processed after filtering.
func (r BatchResult) Total() int {
	return r.Saved + r.Skipped + r.Unchanged + r.Failed
}

// HasFailures reports whether any document failed to export.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Exporter writes documents into cfg.OutputDir and records them in the ledger.
type Exporter struct {
	cfg        types.ExportConfig
	store      *state.Store
	tree       *render.TreeRenderer
	transcript *render.TranscriptRenderer
	now        func() time.Time
}

// New returns an Exporter writing to cfg.OutputDir. The store must be open
// on the same directory.
func New(store *state.Store, cfg types.ExportConfig) *Exporter {
	if cfg.Overlap <= 0 {
		cfg.Overlap = DefaultOverlap
	}
	return &Exporter{
		cfg:        cfg,
		store:      store,
		tree:       &render.TreeRenderer{},
		transcript: &render.TranscriptRenderer{Location: cfg.Location},
		now:        time.Now,
	}
}

// Run exports docs, printing one status line per document and a summary to
// w. A failing document is counted and reported but does not stop the batch.
// The returned error covers ledger and cancellation failures only.
func (e *Exporter) Run(ctx context.Context, docs []types.Document, transcripts TranscriptSource, w io.Writer) (BatchResult, error) {
	started := e.now()
	result := BatchResult{Fetched: len(docs)}

	pending, err := e.filter(ctx, docs, w)
	if err != nil {
		return result, err
	}
	result.Filtered = len(docs) - len(pending)

	claimed := make(map[string]string)
	var runErr error
	for _, doc := range pending {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		status, withTranscript := e.exportDocument(ctx, doc, transcripts, claimed, w)
		switch status {
		case StatusSaved:
			result.Saved++
			if withTranscript {
				result.Transcripts++
			}
		case StatusSkipped:
			result.Skipped++
		case StatusUnchanged:
			result.Unchanged++
		case StatusFailed:
			result.Failed++
		}
	}

	fmt.Fprintf(w, "\nBatch summary: %d saved (%d with transcripts), %d unchanged, %d skipped, %d failed (total: %d)\n",
		result.Saved, result.Transcripts, result.Unchanged, result.Skipped, result.Failed, result.Total())

	_, err = e.store.RecordRun(ctx, state.Run{
		StartedAt:   started,
		FinishedAt:  e.now(),
		Fetched:     result.Fetched,
		Saved:       result.Saved,
		Skipped:     result.Skipped,
		Unchanged:   result.Unchanged,
		Failed:      result.Failed,
		Transcripts: result.Transcripts,
	})
	if err != nil && runErr == nil {
		runErr = fmt.Errorf("recording run: %w", err)
	}
	return result, runErr
}

// filter drops documents not modified since the incremental cutoff.
// Documents without a parseable timestamp are always kept.
func (e *Exporter) filter(ctx context.Context, docs []types.Document, w io.Writer) ([]types.Document, error) {
	if e.cfg.Full {
		return docs, nil
	}
	last, ok, err := e.store.LastExportDate(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		logger.Info("no previous export found, exporting all %d documents", len(docs))
		return docs, nil
	}

	cutoff := last.Add(-e.cfg.Overlap)
	var kept []types.Document
	for _, doc := range docs {
		if t, ok := doc.ModifiedAt(); ok && !t.After(cutoff) {
			continue
		}
		kept = append(kept, doc)
	}
	fmt.Fprintf(w, "Filtered to %d new/updated documents since %s\n\n",
		len(kept), cutoff.UTC().Format(time.RFC3339))
	return kept, nil
}

func (e *Exporter) exportDocument(ctx context.Context, doc types.Document, transcripts TranscriptSource,
	claimed map[string]string, w io.Writer) (status Status, withTranscript bool) {
	title := displayTitle(doc.Title)

	summary := doc.Summary()
	if !summary.HasContent() {
		fmt.Fprintf(w, "skipped: %s (no content)\n", title)
		return StatusSkipped, false
	}
	markdown := e.tree.Render(summary)
	if strings.TrimSpace(markdown) == "" {
		fmt.Fprintf(w, "skipped: %s (empty after rendering)\n", title)
		return StatusSkipped, false
	}

	var utterances []types.Utterance
	hasTranscript := false
	if transcripts != nil {
		utterances, hasTranscript = transcripts.For(doc.ID)
	}

	rec, known, err := e.store.Document(ctx, doc.ID)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", title, err)
		return StatusFailed, false
	}
	// A transcript that reached the cache after the last write counts as a change.
	if known && !e.cfg.Force && doc.UpdatedAt != "" && rec.UpdatedAt == doc.UpdatedAt &&
		(rec.HasTranscript || !hasTranscript) &&
		fileExists(filepath.Join(e.cfg.OutputDir, rec.Path)) {
		claimed[rec.Path] = doc.ID
		fmt.Fprintf(w, "unchanged: %s\n", rec.Path)
		return StatusUnchanged, false
	}

	name, err := e.fileName(ctx, doc, claimed)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", title, err)
		return StatusFailed, false
	}

	content, err := e.compose(doc, markdown, utterances, hasTranscript)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", title, err)
		return StatusFailed, false
	}
	if err := writeAtomic(filepath.Join(e.cfg.OutputDir, name), content); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", title, err)
		return StatusFailed, false
	}
	claimed[name] = doc.ID

	if known && rec.Path != "" && rec.Path != name {
		logger.Debug("note %s moved from %s to %s", doc.ID, rec.Path, name)
	}
	err = e.store.RecordDocument(ctx, state.DocumentRecord{
		ID:            doc.ID,
		Title:         title,
		Path:          name,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
		HasTranscript: hasTranscript,
		ExportedAt:    e.now(),
	})
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", title, err)
		return StatusFailed, false
	}

	if hasTranscript {
		fmt.Fprintf(w, "saved:   %s (with transcript)\n", name)
	} else {
		fmt.Fprintf(w, "saved:   %s\n", name)
	}
	return StatusSaved, hasTranscript
}

// fileName picks the output file name for doc. A name already owned by a
// different document, in this run or in the ledger, gets the first eight
// characters of the ID appended.
func (e *Exporter) fileName(ctx context.Context, doc types.Document, claimed map[string]string) (string, error) {
	base := FileStem(doc)
	name := base + ".md"

	owner, taken := claimed[name]
	if !taken {
		var err error
		owner, taken, err = e.store.PathOwner(ctx, name)
		if err != nil {
			return "", err
		}
	}
	if taken && owner != doc.ID {
		name = base + "-" + shortID(doc.ID) + ".md"
	}
	return name, nil
}

// preamble is the YAML front matter of an exported note.
type preamble struct {
	Title         string `yaml:"title"`
	Created       string `yaml:"created,omitempty"`
	Updated       string `yaml:"updated,omitempty"`
	ID            string `yaml:"id,omitempty"`
	HasTranscript bool   `yaml:"has_transcript"`
}

func (e *Exporter) compose(doc types.Document, markdown string, utterances []types.Utterance, hasTranscript bool) ([]byte, error) {
	meta, err := yaml.Marshal(preamble{
		Title:         displayTitle(doc.Title),
		Created:       doc.CreatedAt,
		Updated:       doc.UpdatedAt,
		ID:            doc.ID,
		HasTranscript: hasTranscript,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(meta)
	b.WriteString("---\n\n")
	b.WriteString(summaryHeading + "\n\n")
	b.WriteString(markdown)
	if hasTranscript {
		b.WriteString("\n\n---\n\n")
		b.WriteString(transcriptHeading + "\n\n")
		b.WriteString(e.transcript.Render(utterances))
	}
	return []byte(b.String()), nil
}

func displayTitle(title string) string {
	if title == "" {
		return "Untitled"
	}
	return title
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// writeAtomic writes data to a temp file beside path and renames it into
// place, so readers never see a partial note.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".export-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
