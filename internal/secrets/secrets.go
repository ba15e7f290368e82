// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads credentials from a directory of plain-text files, one
// secret per file: the file name is the key and the trimmed contents are the
// value. It lets headless runs supply a Granola access token without the
// desktop app's session file.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/granola-export/internal/logger"
)

// DefaultDir is the secrets directory looked up relative to the working
// directory.
const DefaultDir = ".secrets"

// AccessTokenKey names the file holding a Granola API access token.
const AccessTokenKey = "granola-access-token"

// Secrets maps key file names to their trimmed contents.
type Secrets map[string]string

// Get returns the value for key and whether it is set.
func (s Secrets) Get(key string) (string, bool) {
	v, ok := s[key]
	return v, ok
}

// Load reads every regular, non-hidden file in dir. A missing directory is
// not an error and yields an empty set. Empty files are ignored and
// unreadable files are logged and skipped.
func Load(dir string) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Secrets)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret %s: %v", name, err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}
