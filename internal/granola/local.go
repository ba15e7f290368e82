// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package granola reads the Granola desktop app's local session and
// transcript cache and lists documents from the Granola API.
//
// Both local files nest JSON documents inside JSON strings; decoding accepts
// either the string form or an already-decoded object.
package granola

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/granola-export/pkg/types"
)

const (
	sessionFile = "supabase.json"
	cacheFile   = "cache-v3.json"
)

// ErrNoAccessToken is returned when the session file carries no access token.
var ErrNoAccessToken = errors.New("no access token in Granola session")

// Credentials identify the signed-in desktop user.
type Credentials struct {
	AccessToken string
	Email       string
}

// DefaultDir returns the desktop app's data directory
// (~/Library/Application Support/Granola on macOS).
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config directory: %w", err)
	}
	return filepath.Join(base, "Granola"), nil
}

// LoadCredentials reads the access token and user email from
// dir/supabase.json. The email is optional; a missing token is
// ErrNoAccessToken.
func LoadCredentials(dir string) (Credentials, error) {
	path := filepath.Join(dir, sessionFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("reading session file: %w", err)
	}

	var session struct {
		WorkosTokens json.RawMessage `json:"workos_tokens"`
		UserInfo     json.RawMessage `json:"user_info"`
	}
	if err := json.Unmarshal(data, &session); err != nil {
		return Credentials{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	if err := decodeEmbedded(session.WorkosTokens, &tokens); err != nil {
		return Credentials{}, fmt.Errorf("parsing workos_tokens: %w", err)
	}
	if tokens.AccessToken == "" {
		return Credentials{}, ErrNoAccessToken
	}

	var user struct {
		Email string `json:"email"`
	}
	// user_info is informational only.
	_ = decodeEmbedded(session.UserInfo, &user)

	return Credentials{AccessToken: tokens.AccessToken, Email: user.Email}, nil
}

// Transcripts maps document IDs to their cached utterances.
type Transcripts map[string][]types.Utterance

// For returns the transcript for a document. ok is true for any cached
// array, including an empty one.
func (t Transcripts) For(id string) (utterances []types.Utterance, ok bool) {
	utterances, ok = t[id]
	return utterances, ok
}

// LoadTranscripts reads state.transcripts from dir/cache-v3.json. A missing
// cache file yields an empty map. Entries that are not arrays are ignored.
func LoadTranscripts(dir string) (Transcripts, error) {
	path := filepath.Join(dir, cacheFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Transcripts{}, nil
		}
		return nil, fmt.Errorf("reading transcript cache: %w", err)
	}

	var outer struct {
		Cache json.RawMessage `json:"cache"`
	}
	if err := json.Unmarshal(data, &outer); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var inner struct {
		State struct {
			Transcripts map[string]json.RawMessage `json:"transcripts"`
		} `json:"state"`
	}
	if err := decodeEmbedded(outer.Cache, &inner); err != nil {
		return nil, fmt.Errorf("parsing cache payload: %w", err)
	}

	out := make(Transcripts, len(inner.State.Transcripts))
	for id, raw := range inner.State.Transcripts {
		var utterances []types.Utterance
		if err := json.Unmarshal(raw, &utterances); err != nil || utterances == nil {
			continue
		}
		out[id] = utterances
	}
	return out, nil
}

// decodeEmbedded decodes raw into v, first unwrapping a JSON string that
// itself contains JSON. Absent and null values leave v untouched.
func decodeEmbedded(raw json.RawMessage, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		raw = []byte(s)
	}
	return json.Unmarshal(raw, v)
}
