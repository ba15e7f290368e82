// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"time"
)

// Document is one note as returned by the Granola get-documents API.
// Timestamps are kept as the raw strings the API sent so the exported
// preamble reproduces them exactly; use Created and Updated to parse.
type Document struct {
	// ID is the opaque document identifier, also the transcript cache key.
	ID string `json:"id"`

	// Title is the note title. Empty titles export as "Untitled".
	Title string `json:"title"`

	// CreatedAt is the RFC 3339 creation timestamp.
	CreatedAt string `json:"created_at"`

	// UpdatedAt is the RFC 3339 last-modification timestamp.
	UpdatedAt string `json:"updated_at"`

	// Notes holds the user's own notes.
	Notes *DocumentNode `json:"notes"`

	// LastViewedPanel holds the AI summary panel last shown to the user.
	LastViewedPanel *Panel `json:"last_viewed_panel"`
}

// Panel is a generated summary panel attached to a document.
type Panel struct {
	Content *DocumentNode `json:"content"`
}

// Summary returns the tree to export: the last viewed panel when present,
// otherwise the notes. It may be nil.
func (d Document) Summary() *DocumentNode {
	if d.LastViewedPanel != nil && d.LastViewedPanel.Content != nil {
		return d.LastViewedPanel.Content
	}
	return d.Notes
}

// Created parses CreatedAt. ok is false when it is absent or malformed.
func (d Document) Created() (t time.Time, ok bool) {
	return parseTimestamp(d.CreatedAt)
}

// Updated parses UpdatedAt. ok is false when it is absent or malformed.
func (d Document) Updated() (t time.Time, ok bool) {
	return parseTimestamp(d.UpdatedAt)
}

// ModifiedAt returns the update time, falling back to the creation time.
func (d Document) ModifiedAt() (time.Time, bool) {
	if t, ok := d.Updated(); ok {
		return t, true
	}
	return d.Created()
}

// Speaker identifies who produced an utterance.
type Speaker string

const (
	SpeakerSelf  Speaker = "self"
	SpeakerOther Speaker = "other"
)

// sourceMicrophone is the cache's source value for the local user.
const sourceMicrophone = "microphone"

// Utterance is one transcribed line of speech.
type Utterance struct {
	Text      string     `json:"text"`
	Speaker   Speaker    `json:"speaker"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// UnmarshalJSON decodes an utterance from the desktop cache shape
// (text, source, start_timestamp, end_timestamp). Missing or malformed
// fields are left empty.
func (u *Utterance) UnmarshalJSON(data []byte) error {
	var raw struct {
		Text           json.RawMessage `json:"text"`
		Source         json.RawMessage `json:"source"`
		StartTimestamp json.RawMessage `json:"start_timestamp"`
		EndTimestamp   json.RawMessage `json:"end_timestamp"`
	}
	*u = Utterance{Speaker: SpeakerOther}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	u.Text = lenientString(raw.Text)
	if lenientString(raw.Source) == sourceMicrophone {
		u.Speaker = SpeakerSelf
	}
	if t, ok := parseTimestamp(lenientString(raw.StartTimestamp)); ok {
		u.StartTime = &t
	}
	if t, ok := parseTimestamp(lenientString(raw.EndTimestamp)); ok {
		u.EndTime = &t
	}
	return nil
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
