// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/pdiddy/granola-export/pkg/types"
)

// --- tree builders ---

func node(kind types.NodeKind, children ...*types.DocumentNode) *types.DocumentNode {
	return &types.DocumentNode{Kind: kind, Content: children}
}

func txt(s string, marks ...types.Mark) *types.DocumentNode {
	return &types.DocumentNode{Kind: types.KindText, Text: s, Marks: marks}
}

func para(children ...*types.DocumentNode) *types.DocumentNode {
	return node(types.KindParagraph, children...)
}

func heading(level any, children ...*types.DocumentNode) *types.DocumentNode {
	n := node(types.KindHeading, children...)
	if level != nil {
		n.Attrs = types.Attrs{"level": level}
	}
	return n
}

func item(children ...*types.DocumentNode) *types.DocumentNode {
	return node(types.KindListItem, children...)
}

func doc(children ...*types.DocumentNode) *types.DocumentNode {
	return node(types.KindDocument, children...)
}

func parseMarkdown(t *testing.T, src string) (ast.Node, []byte) {
	t.Helper()
	b := []byte(src)
	return goldmark.New().Parser().Parse(text.NewReader(b)), b
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		node *types.DocumentNode
		want string
	}{
		{
			name: "nil node",
			node: nil,
			want: "",
		},
		{
			name: "document without children",
			node: doc(),
			want: "",
		},
		{
			name: "heading level 3",
			node: heading(float64(3), txt("Hi")),
			want: "### Hi",
		},
		{
			name: "heading without level defaults to 1",
			node: heading(nil, txt("Title")),
			want: "# Title",
		},
		{
			name: "heading level as string",
			node: heading("2", txt("Sub")),
			want: "## Sub",
		},
		{
			name: "heading with invalid level",
			node: heading(float64(0), txt("Zero")),
			want: "# Zero",
		},
		{
			name: "huge float level is clamped",
			node: heading(float64(1e12), txt("x")),
			want: "###### x",
		},
		{
			name: "huge string level is clamped",
			node: heading("99999999999", txt("x")),
			want: "###### x",
		},
		{
			name: "document joins blocks with blank lines",
			node: doc(heading(float64(1), txt("A")), para(txt("b")), para(txt("c"))),
			want: "# A\n\nb\n\nc",
		},
		{
			name: "paragraph concatenates inline children",
			node: para(txt("plain "), txt("bold", types.Mark{Type: types.MarkBold}), txt(" end")),
			want: "plain **bold** end",
		},
		{
			name: "bullet list",
			node: node(types.KindBulletList, item(para(txt("one"))), item(para(txt("two")))),
			want: "- one\n- two",
		},
		{
			name: "ordered list numbers items",
			node: node(types.KindOrderedList, item(para(txt("a"))), item(para(txt("b")))),
			want: "1. a\n2. b",
		},
		{
			name: "ordered list item starting with a dash keeps it",
			node: node(types.KindOrderedList, item(para(txt("- not a bullet")))),
			want: "1. - not a bullet",
		},
		{
			name: "nested list renders flat",
			node: node(types.KindBulletList,
				item(para(txt("outer")), node(types.KindBulletList, item(para(txt("inner")))))),
			want: "- outer\n- inner",
		},
		{
			name: "list item outside a list gets a bullet",
			node: doc(item(para(txt("stray")))),
			want: "- stray",
		},
		{
			name: "code block with language",
			node: &types.DocumentNode{
				Kind:    types.KindCodeBlock,
				Attrs:   types.Attrs{"language": "js"},
				Content: []*types.DocumentNode{txt("let x=1")},
			},
			want: "```js\nlet x=1\n```",
		},
		{
			name: "code block without language ignores marks",
			node: &types.DocumentNode{
				Kind:    types.KindCodeBlock,
				Content: []*types.DocumentNode{txt("a", types.Mark{Type: types.MarkBold}), txt("b")},
			},
			want: "```\nab\n```",
		},
		{
			name: "blockquote prefixes every line",
			node: node(types.KindBlockquote, para(txt("one")), para(txt("two"))),
			want: "> one\n> two",
		},
		{
			name: "blockquote with hard break",
			node: node(types.KindBlockquote, para(txt("a"), node(types.KindHardBreak), txt("b"))),
			want: "> a  \n> b",
		},
		{
			name: "empty blockquote",
			node: doc(node(types.KindBlockquote)),
			want: "",
		},
		{
			name: "hard break",
			node: para(txt("line1"), node(types.KindHardBreak), txt("line2")),
			want: "line1  \nline2",
		},
		{
			name: "horizontal rule",
			node: doc(para(txt("above")), node(types.KindHorizontalRule), para(txt("below"))),
			want: "above\n\n---\n\nbelow",
		},
		{
			name: "unknown kind concatenates children",
			node: node("callout", txt("x"), txt("y")),
			want: "xy",
		},
		{
			name: "unknown leaf renders empty",
			node: doc(para(txt("a")), node("mention")),
			want: "a",
		},
		{
			name: "nil children are skipped",
			node: para(txt("a"), nil, txt("b")),
			want: "ab",
		},
		{
			name: "snake case aliases",
			node: node("ordered_list", node("list_item", para(txt("x")))),
			want: "1. x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Document(tt.node))
		})
	}
}

func TestRender_FromJSON(t *testing.T) {
	src := `{
		"type": "doc",
		"content": [
			{"type": "heading", "attrs": {"level": 2}, "content": [{"type": "text", "text": "Summary"}]},
			{"type": "paragraph", "content": [
				{"type": "text", "text": "See "},
				{"type": "text", "text": "docs", "marks": [{"type": "strong"}, {"type": "link", "attrs": {"href": "https://example.com"}}]}
			]},
			{"type": "bullet_list", "content": [
				{"type": "list_item", "content": [{"type": "paragraph", "content": [{"type": "text", "text": "first", "marks": [{"type": "em"}]}]}]},
				null,
				{"type": "list_item", "content": "not-an-array"}
			]},
			{"type": "code_block", "attrs": {"language": null}, "content": [{"type": "text", "text": "go test ./..."}]}
		]
	}`

	var root types.DocumentNode
	require.NoError(t, json.Unmarshal([]byte(src), &root))

	want := "## Summary\n\n" +
		"See [**docs**](https://example.com)\n\n" +
		"- *first*\n- \n\n" +
		"```\ngo test ./...\n```"
	assert.Equal(t, want, Document(&root))
}

func TestRender_FromJSONHostileFields(t *testing.T) {
	src := `{
		"type": "document",
		"content": [
			{"type": "heading", "attrs": {"level": 4611686018427387904}, "content": [{"type": "text", "text": "Deep"}]},
			{"type": "paragraph", "content": [{"type": "text", "text": "body"}]}
		]
	}`

	var root types.DocumentNode
	require.NoError(t, json.Unmarshal([]byte(src), &root))

	assert.NotPanics(t, func() { Document(&root) })
	assert.Equal(t, "###### Deep\n\nbody", Document(&root))
}

func TestRender_MarkdownStructure(t *testing.T) {
	out := Document(doc(
		heading(float64(3), txt("Hi")),
		node(types.KindOrderedList, item(para(txt("a"))), item(para(txt("b")))),
		&types.DocumentNode{
			Kind:    types.KindCodeBlock,
			Attrs:   types.Attrs{"language": "js"},
			Content: []*types.DocumentNode{txt("let x=1")},
		},
		node(types.KindBlockquote, para(txt("quoted"))),
	))

	root, src := parseMarkdown(t, out)
	require.Equal(t, 4, root.ChildCount(), "rendered:\n%s", out)

	h, ok := root.FirstChild().(*ast.Heading)
	require.True(t, ok, "first block should be a heading")
	assert.Equal(t, 3, h.Level)

	list, ok := h.NextSibling().(*ast.List)
	require.True(t, ok, "second block should be a list")
	assert.True(t, list.IsOrdered())
	assert.Equal(t, 2, list.ChildCount())

	code, ok := list.NextSibling().(*ast.FencedCodeBlock)
	require.True(t, ok, "third block should be a fenced code block")
	assert.Equal(t, "js", string(code.Language(src)))

	_, ok = code.NextSibling().(*ast.Blockquote)
	assert.True(t, ok, "fourth block should be a blockquote")
}

func TestRender_DepthGuard(t *testing.T) {
	t.Run("deep chain terminates with text", func(t *testing.T) {
		leaf := txt("deep")
		n := leaf
		for i := 0; i < 100000; i++ {
			n = node("wrapper", n)
		}
		assert.Equal(t, "deep", Document(n))
	})

	t.Run("nodes past the limit flatten to text", func(t *testing.T) {
		r := &TreeRenderer{MaxDepth: 1}
		got := r.Render(doc(para(txt("x", types.Mark{Type: types.MarkBold}), txt("y"))))
		assert.Equal(t, "xy", got)
	})

	t.Run("list items past the limit flatten to text", func(t *testing.T) {
		r := &TreeRenderer{MaxDepth: 1}
		got := r.Render(node(types.KindBulletList, item(para(txt("a")), para(txt("b")))))
		assert.Equal(t, "- a\nb", got)
	})
}

func TestRender_Idempotent(t *testing.T) {
	tree := doc(
		heading(float64(2), txt("Agenda")),
		node(types.KindBulletList, item(para(txt("one"))), item(para(txt("two", types.Mark{Type: types.MarkCode})))),
	)
	first := Document(tree)

	var wg sync.WaitGroup
	results := make([]string, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Document(tree)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, first, r)
	}
}

func TestRender_TrimsOuterWhitespace(t *testing.T) {
	got := Document(doc(para(txt("  padded  ")), para(node(types.KindHardBreak))))
	assert.False(t, strings.HasPrefix(got, " "))
	assert.False(t, strings.HasSuffix(got, "\n"))
	assert.Equal(t, "padded", got)
}
