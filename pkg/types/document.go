// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the granola-export pipeline:
// the rich-text document tree returned by the Granola API, transcript
// utterances from the local cache, and per-stage configuration.
package types

import (
	"encoding/json"
	"strconv"
	"strings"
)

// NodeKind identifies the kind of a DocumentNode.
type NodeKind string

const (
	KindDocument       NodeKind = "doc"
	KindParagraph      NodeKind = "paragraph"
	KindHeading        NodeKind = "heading"
	KindText           NodeKind = "text"
	KindBulletList     NodeKind = "bulletList"
	KindOrderedList    NodeKind = "orderedList"
	KindListItem       NodeKind = "listItem"
	KindCodeBlock      NodeKind = "codeBlock"
	KindBlockquote     NodeKind = "blockquote"
	KindHardBreak      NodeKind = "hardBreak"
	KindHorizontalRule NodeKind = "horizontalRule"
)

// kindAliases maps the snake_case spellings some editors emit onto the
// canonical kinds.
var kindAliases = map[string]NodeKind{
	"document":        KindDocument,
	"bullet_list":     KindBulletList,
	"ordered_list":    KindOrderedList,
	"list_item":       KindListItem,
	"code_block":      KindCodeBlock,
	"hard_break":      KindHardBreak,
	"horizontal_rule": KindHorizontalRule,
}

// NormalizeKind returns the canonical NodeKind for s. Unknown kinds are
// returned unchanged so the renderer can apply its fallback.
func NormalizeKind(s string) NodeKind {
	if k, ok := kindAliases[s]; ok {
		return k
	}
	return NodeKind(s)
}

// MarkType identifies an inline formatting mark.
type MarkType string

const (
	MarkBold   MarkType = "bold"
	MarkItalic MarkType = "italic"
	MarkCode   MarkType = "code"
	MarkLink   MarkType = "link"
)

var markAliases = map[string]MarkType{
	"strong": MarkBold,
	"em":     MarkItalic,
}

// NormalizeMark returns the canonical MarkType for s.
func NormalizeMark(s string) MarkType {
	if m, ok := markAliases[s]; ok {
		return m
	}
	return MarkType(s)
}

// Attrs holds kind-specific node or mark attributes as decoded from JSON.
type Attrs map[string]any

// MaxHeadingLevel is the deepest heading Markdown supports.
const MaxHeadingLevel = 6

// Level returns the heading level clamped to [1, MaxHeadingLevel]. Absent or
// non-numeric values yield 1.
func (a Attrs) Level() int {
	var f float64
	switch v := a["level"].(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case json.Number:
		f, _ = v.Float64()
	case string:
		f, _ = strconv.ParseFloat(strings.TrimSpace(v), 64)
	}
	switch {
	case f >= MaxHeadingLevel:
		return MaxHeadingLevel
	case f >= 1:
		return int(f)
	default:
		return 1
	}
}

// Language returns the code block language tag, or "".
func (a Attrs) Language() string {
	return a.str("language")
}

// Href returns a link target, or "".
func (a Attrs) Href() string {
	return a.str("href")
}

func (a Attrs) str(key string) string {
	s, _ := a[key].(string)
	return s
}

// Mark is an inline formatting annotation attached to a text node.
type Mark struct {
	Type  MarkType `json:"type"`
	Attrs Attrs    `json:"attrs,omitempty"`
}

// UnmarshalJSON decodes a mark leniently: malformed fields are left empty.
func (m *Mark) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  json.RawMessage `json:"type"`
		Attrs json.RawMessage `json:"attrs"`
	}
	*m = Mark{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	m.Type = NormalizeMark(lenientString(raw.Type))
	m.Attrs = lenientAttrs(raw.Attrs)
	return nil
}

// DocumentNode is one node of a ProseMirror-style document tree. Kind
// determines which of Content, Text, Attrs, and Marks are meaningful.
type DocumentNode struct {
	Kind    NodeKind        `json:"type"`
	Content []*DocumentNode `json:"content,omitempty"`
	Text    string          `json:"text,omitempty"`
	Attrs   Attrs           `json:"attrs,omitempty"`
	Marks   []Mark          `json:"marks,omitempty"`
}

// UnmarshalJSON decodes a node leniently. Fields with an unexpected JSON
// type are dropped instead of failing the whole tree; null children are
// skipped.
func (n *DocumentNode) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type    json.RawMessage `json:"type"`
		Content json.RawMessage `json:"content"`
		Text    json.RawMessage `json:"text"`
		Attrs   json.RawMessage `json:"attrs"`
		Marks   json.RawMessage `json:"marks"`
	}
	*n = DocumentNode{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	n.Kind = NormalizeKind(lenientString(raw.Type))
	n.Text = lenientString(raw.Text)
	n.Attrs = lenientAttrs(raw.Attrs)

	var children []json.RawMessage
	if err := json.Unmarshal(raw.Content, &children); err == nil && children != nil {
		n.Content = make([]*DocumentNode, 0, len(children))
		for _, c := range children {
			var child *DocumentNode
			if err := json.Unmarshal(c, &child); err != nil || child == nil {
				continue
			}
			n.Content = append(n.Content, child)
		}
	}

	var marks []json.RawMessage
	if err := json.Unmarshal(raw.Marks, &marks); err == nil {
		for _, rm := range marks {
			var m Mark
			_ = json.Unmarshal(rm, &m)
			if m.Type != "" {
				n.Marks = append(n.Marks, m)
			}
		}
	}
	return nil
}

// HasContent reports whether n is a container that carries a content array.
func (n *DocumentNode) HasContent() bool {
	return n != nil && n.Content != nil
}

func lenientString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func lenientAttrs(raw json.RawMessage) Attrs {
	var a Attrs
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil
	}
	return a
}
