// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/pdiddy/granola-export/internal/logger"
)

// NoteInfo describes one exported note, read back from its preamble.
type NoteInfo struct {
	Path          string `json:"path" yaml:"-"`
	Title         string `json:"title" yaml:"title"`
	ID            string `json:"id" yaml:"id"`
	Created       string `json:"created,omitempty" yaml:"created"`
	Updated       string `json:"updated,omitempty" yaml:"updated"`
	HasTranscript bool   `json:"has_transcript" yaml:"has_transcript"`
}

// ListNotes reads the preamble of every .md file in dir. Files without
// front matter are skipped. Results are ordered by file name.
func ListNotes(dir string) ([]NoteInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var notes []NoteInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := readNote(path)
		if err != nil {
			logger.Debug("skipping %s: %v", entry.Name(), err)
			continue
		}
		info.Path = entry.Name()
		notes = append(notes, info)
	}
	return notes, nil
}

func readNote(path string) (NoteInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return NoteInfo{}, err
	}
	defer f.Close()

	var info NoteInfo
	if _, err := frontmatter.MustParse(f, &info); err != nil {
		if errors.Is(err, frontmatter.ErrNotFound) {
			return NoteInfo{}, fmt.Errorf("no front matter")
		}
		return NoteInfo{}, fmt.Errorf("parsing front matter: %w", err)
	}
	return info, nil
}
