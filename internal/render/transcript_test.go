// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/granola-export/pkg/types"
)

func at(t *testing.T, s string) *time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return &ts
}

func TestTranscript(t *testing.T) {
	tests := []struct {
		name       string
		utterances []types.Utterance
		want       string
	}{
		{
			name: "empty",
			want: "",
		},
		{
			name:       "self without start time",
			utterances: []types.Utterance{{Text: "hi", Speaker: types.SpeakerSelf}},
			want:       "**You:** hi",
		},
		{
			name:       "other speaker",
			utterances: []types.Utterance{{Text: "hello", Speaker: types.SpeakerOther}},
			want:       "**Speaker:** hello",
		},
		{
			name:       "zero speaker is treated as other",
			utterances: []types.Utterance{{Text: "?"}},
			want:       "**Speaker:** ?",
		},
		{
			name: "timestamps and blank line separation",
			utterances: []types.Utterance{
				{Text: "morning", Speaker: types.SpeakerSelf, StartTime: at(t, "2025-03-04T09:05:07Z")},
				{Text: "hey", Speaker: types.SpeakerOther, StartTime: at(t, "2025-03-04T21:15:00Z")},
				{Text: "no time", Speaker: types.SpeakerOther},
			},
			want: "**[09:05:07] You:** morning\n\n" +
				"**[21:15:00] Speaker:** hey\n\n" +
				"**Speaker:** no time",
		},
		{
			name:       "trailing whitespace trimmed",
			utterances: []types.Utterance{{Text: "bye  \n", Speaker: types.SpeakerSelf}},
			want:       "**You:** bye",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Transcript(tt.utterances))
		})
	}
}

func TestTranscript_Location(t *testing.T) {
	r := &TranscriptRenderer{Location: time.FixedZone("EST", -5*60*60)}
	got := r.Render([]types.Utterance{
		{Text: "hi", Speaker: types.SpeakerSelf, StartTime: at(t, "2025-03-04T15:04:05Z")},
	})
	assert.Equal(t, "**[10:04:05] You:** hi", got)
}

func TestTranscript_FromCacheJSON(t *testing.T) {
	src := `[
		{"text": "first", "source": "microphone", "start_timestamp": "2025-03-04T10:00:01.250Z"},
		{"text": "second", "source": "system", "start_timestamp": "not a time"},
		{"source": 42}
	]`
	var utterances []types.Utterance
	require.NoError(t, json.Unmarshal([]byte(src), &utterances))
	require.Len(t, utterances, 3)

	want := "**[10:00:01] You:** first\n\n**Speaker:** second\n\n**Speaker:**"
	assert.Equal(t, want, Transcript(utterances))
	assert.Equal(t, Transcript(utterances), Transcript(utterances))
}
