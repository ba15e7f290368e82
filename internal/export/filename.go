// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"strings"

	"github.com/pdiddy/granola-export/pkg/types"
)

const (
	maxSlugRunes = 50
	unknownDate  = "unknown"
)

// FileStem returns "<created date>-<slug>" for doc, without extension.
// The date is the UTC calendar day of created_at, or "unknown".
func FileStem(doc types.Document) string {
	date := unknownDate
	if t, ok := doc.Created(); ok {
		date = t.UTC().Format("2006-01-02")
	}
	return date + "-" + Slug(displayTitle(doc.Title))
}

// Slug lower-cases title, replaces every character outside [a-z0-9] with
// "-", collapses repeated dashes, and cuts the result to 50 runes.
func Slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
			dash = false
		default:
			if !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}

	slug := b.String()
	if len(slug) > maxSlugRunes {
		slug = slug[:maxSlugRunes]
	}
	return slug
}
