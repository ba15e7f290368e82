// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render converts Granola notes into Markdown. TreeRenderer walks the
// rich-text document tree, ApplyMarks composes inline formatting, and
// TranscriptRenderer turns an utterance log into timestamped dialogue.
//
// Rendering never fails. Unknown node kinds fall back to their children, and
// trees nested beyond the depth limit flatten to plain text. Renderers hold no
// mutable state and are safe for concurrent use.
package render

import (
	"strconv"
	"strings"

	"github.com/pdiddy/granola-export/pkg/types"
)

// DefaultMaxDepth is the recursion limit used when TreeRenderer.MaxDepth is zero.
const DefaultMaxDepth = 256

const (
	codeFence   = "```"
	quotePrefix = "> "
	bullet      = "- "
	hardBreak   = "  \n"
	rule        = "---"
)

// TreeRenderer renders a DocumentNode tree as Markdown.
type TreeRenderer struct {
	// MaxDepth bounds recursion. Nodes below this depth are flattened to
	// their text content without further recursion.
	MaxDepth int
}

var defaultTree = &TreeRenderer{}

// Document renders node with the default TreeRenderer.
func Document(node *types.DocumentNode) string {
	return defaultTree.Render(node)
}

// Render returns the Markdown for node with surrounding whitespace trimmed.
// A nil node or a document without children yields "".
func (r *TreeRenderer) Render(node *types.DocumentNode) string {
	if node == nil {
		return ""
	}
	return strings.TrimSpace(r.node(node, 0))
}

func (r *TreeRenderer) limit() int {
	if r.MaxDepth > 0 {
		return r.MaxDepth
	}
	return DefaultMaxDepth
}

func (r *TreeRenderer) node(n *types.DocumentNode, depth int) string {
	if n == nil {
		return ""
	}
	if depth > r.limit() {
		return plainText(n)
	}

	switch types.NormalizeKind(string(n.Kind)) {
	case types.KindDocument:
		return r.children(n, depth, "\n\n")
	case types.KindParagraph:
		return r.children(n, depth, "")
	case types.KindHeading:
		return strings.Repeat("#", n.Attrs.Level()) + " " + r.children(n, depth, "")
	case types.KindText:
		return ApplyMarks(n.Text, n.Marks)
	case types.KindBulletList:
		return r.list(n, depth, func(int) string { return bullet })
	case types.KindOrderedList:
		return r.list(n, depth, func(i int) string { return strconv.Itoa(i+1) + ". " })
	case types.KindListItem:
		// Only reached for items outside a list container.
		return bullet + r.item(n, depth)
	case types.KindCodeBlock:
		return codeBlock(n)
	case types.KindBlockquote:
		return blockquote(n, r.children(n, depth, "\n"))
	case types.KindHardBreak:
		return hardBreak
	case types.KindHorizontalRule:
		return rule
	default:
		return r.children(n, depth, "")
	}
}

// children renders every child of n one level deeper and joins them with sep.
func (r *TreeRenderer) children(n *types.DocumentNode, depth int, sep string) string {
	if len(n.Content) == 0 {
		return ""
	}
	parts := make([]string, len(n.Content))
	for i, c := range n.Content {
		parts[i] = r.node(c, depth+1)
	}
	return strings.Join(parts, sep)
}

// list renders the children of a list container. List items are rendered
// content-only and receive the prefix for their position; other children
// are passed through, and ordered lists number them too.
func (r *TreeRenderer) list(n *types.DocumentNode, depth int, prefix func(int) string) string {
	ordered := types.NormalizeKind(string(n.Kind)) == types.KindOrderedList
	lines := make([]string, 0, len(n.Content))
	for i, c := range n.Content {
		switch {
		case c != nil && types.NormalizeKind(string(c.Kind)) == types.KindListItem:
			lines = append(lines, prefix(i)+r.item(c, depth+1))
		case ordered:
			lines = append(lines, prefix(i)+r.node(c, depth+1))
		default:
			lines = append(lines, r.node(c, depth+1))
		}
	}
	return strings.Join(lines, "\n")
}

// item renders a list item's content without a list marker.
func (r *TreeRenderer) item(n *types.DocumentNode, depth int) string {
	if depth > r.limit() {
		return plainText(n)
	}
	return r.children(n, depth, "\n")
}

func codeBlock(n *types.DocumentNode) string {
	var code strings.Builder
	code.WriteString(n.Text)
	for _, c := range n.Content {
		if c != nil {
			code.WriteString(c.Text)
		}
	}
	return codeFence + n.Attrs.Language() + "\n" + code.String() + "\n" + codeFence
}

func blockquote(n *types.DocumentNode, body string) string {
	if len(n.Content) == 0 {
		return ""
	}
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		lines[i] = quotePrefix + l
	}
	return strings.Join(lines, "\n")
}

// plainText concatenates the text of n and its descendants in document
// order using an explicit stack, so arbitrarily deep trees cannot exhaust
// the call stack.
func plainText(n *types.DocumentNode) string {
	var b strings.Builder
	stack := []*types.DocumentNode{n}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top == nil {
			continue
		}
		b.WriteString(top.Text)
		for i := len(top.Content) - 1; i >= 0; i-- {
			stack = append(stack, top.Content[i])
		}
	}
	return b.String()
}
