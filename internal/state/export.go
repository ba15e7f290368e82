// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// Ledger is the exported form of the whole database.
type Ledger struct {
	Runs      []Run            `json:"runs" yaml:"runs"`
	Documents []DocumentRecord `json:"documents" yaml:"documents"`
}

// Snapshot reads every run and document.
func (s *Store) Snapshot(ctx context.Context) (Ledger, error) {
	runs, err := s.Runs(ctx, 0)
	if err != nil {
		return Ledger{}, err
	}
	docs, err := s.Documents(ctx)
	if err != nil {
		return Ledger{}, err
	}
	return Ledger{Runs: runs, Documents: docs}, nil
}

// ExportYAML writes the ledger to dir/ledger.yaml and returns the path.
func (s *Store) ExportYAML(ctx context.Context) (string, error) {
	ledger, err := s.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(ledger)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return s.writeExport("ledger.yaml", data)
}

// ExportJSON writes the ledger to dir/ledger.json and returns the path.
func (s *Store) ExportJSON(ctx context.Context) (string, error) {
	ledger, err := s.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return s.writeExport("ledger.json", data)
}

func (s *Store) writeExport(name string, data []byte) (string, error) {
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	return path, nil
}
