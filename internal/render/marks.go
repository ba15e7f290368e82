// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import "github.com/pdiddy/granola-export/pkg/types"

// ApplyMarks wraps text with the Markdown syntax of each mark, in order. Each
// mark wraps the result of the previous ones, so a link applied after bold
// uses the bold text as its label. Unknown marks leave the text unchanged.
func ApplyMarks(text string, marks []types.Mark) string {
	for _, m := range marks {
		text = applyMark(text, m)
	}
	return text
}

func applyMark(text string, m types.Mark) string {
	switch types.NormalizeMark(string(m.Type)) {
	case types.MarkBold:
		return "**" + text + "**"
	case types.MarkItalic:
		return "*" + text + "*"
	case types.MarkCode:
		return "`" + text + "`"
	case types.MarkLink:
		return "[" + text + "](" + m.Attrs.Href() + ")"
	default:
		return text
	}
}
