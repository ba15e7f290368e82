// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"strings"
	"time"

	"github.com/pdiddy/granola-export/pkg/types"
)

// ClockLayout formats utterance start times: 24-hour, zero padded.
const ClockLayout = "15:04:05"

const (
	labelSelf  = "You"
	labelOther = "Speaker"
)

// TranscriptRenderer renders utterances as bold-labelled dialogue lines.
type TranscriptRenderer struct {
	// Location is the zone start times are shown in. Nil means UTC.
	Location *time.Location
}

var defaultTranscript = &TranscriptRenderer{}

// Transcript renders utterances with the default TranscriptRenderer.
func Transcript(utterances []types.Utterance) string {
	return defaultTranscript.Render(utterances)
}

// Render returns one "**label:** text" line per utterance, separated by
// blank lines. Empty input yields "".
func (r *TranscriptRenderer) Render(utterances []types.Utterance) string {
	if len(utterances) == 0 {
		return ""
	}

	var b strings.Builder
	for _, u := range utterances {
		b.WriteString("**")
		b.WriteString(r.label(u))
		b.WriteString(":** ")
		b.WriteString(u.Text)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}

func (r *TranscriptRenderer) label(u types.Utterance) string {
	speaker := labelOther
	if u.Speaker == types.SpeakerSelf {
		speaker = labelSelf
	}
	if u.StartTime == nil {
		return speaker
	}
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	return "[" + u.StartTime.In(loc).Format(ClockLayout) + "] " + speaker
}
