/**
 * Copyright 2025 ByteDance Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package doctree defines the document node tree shape shared by the whole
// translation engine, plus the structural predicates and text-leaf
// traversal used to read and rewrite it in place.
package doctree

// NodeType tags a Node's shape. Branch types carry Content; the Text type
// is the only leaf and carries a Text field.
type NodeType string

const (
	TypeDoc          NodeType = "doc"
	TypeHeading      NodeType = "heading"
	TypeParagraph    NodeType = "paragraph"
	TypeBulletList   NodeType = "bulletList"
	TypeOrderedList  NodeType = "orderedList"
	TypeListItem     NodeType = "listItem"
	TypeTable        NodeType = "table"
	TypeTableRow     NodeType = "tableRow"
	TypeTableCell    NodeType = "tableCell"
	TypeTableHeader  NodeType = "tableHeader"
	TypeText         NodeType = "text"
	// TypeRun is the canonical transparent wrapper: an inline container that
	// carries its own attrs but must be traversed, never replaced.
	TypeRun NodeType = "run"
)

// transparentWrappers lists node types that sit between block content and
// text leaves and must be descended through without being altered. New
// wrapper types can be added here without touching any traversal call site.
var transparentWrappers = map[NodeType]bool{
	TypeRun: true,
}

// RegisterTransparentWrapper marks an additional node type as a transparent
// wrapper, so IsTransparentWrapper reports true for it. The traversal
// helpers in traverse.go descend through every branch node whether or not
// its type is registered here.
func RegisterTransparentWrapper(t NodeType) {
	transparentWrappers[t] = true
}

// IsTransparentWrapper reports whether t is a known transparent container.
func IsTransparentWrapper(t NodeType) bool {
	return transparentWrappers[t]
}

// Mark is an inline formatting tag (bold, italic, link, ...) attached to a
// text leaf. Marks are preserved verbatim across translation.
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Node is a single entry in the document tree: either a branch (Content
// populated) or a text leaf (Text populated). The schema producer/consumer
// on the editor side owns serialization; this struct only needs to survive
// a JSON round-trip with structural fidelity.
type Node struct {
	Type    NodeType       `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []*Node        `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
}

// Document is the top-level container: an ordered sequence of block nodes.
type Document struct {
	Type    NodeType `json:"type"`
	Content []*Node  `json:"content"`
}

// IsTextLeaf reports whether n is a text leaf (no Content, carries Text).
func IsTextLeaf(n *Node) bool {
	return n != nil && n.Type == TypeText
}

// IsBranch reports whether n has child content to descend into.
func IsBranch(n *Node) bool {
	return n != nil && len(n.Content) > 0
}

// IsTranslatableBlock reports whether a top-level block type is one the
// batching engine (C7) harvests text from directly (as opposed to having to
// walk into list items or table cells first).
func IsTranslatableBlock(t NodeType) bool {
	return t == TypeParagraph || t == TypeHeading
}

// HeadingLevel returns the heading level recorded in attrs, defaulting to 1
// when absent or malformed.
func HeadingLevel(n *Node) int {
	if n == nil || n.Attrs == nil {
		return 1
	}
	switch v := n.Attrs["level"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 1
}

// ExtractText concatenates every descendant text leaf's Text field,
// space-joined across branches, in document order.
func ExtractText(n *Node) string {
	var parts []string
	collectText(n, &parts)
	return joinNonEmpty(parts, " ")
}

func collectText(n *Node, out *[]string) {
	if n == nil {
		return
	}
	if IsTextLeaf(n) {
		if n.Text != "" {
			*out = append(*out, n.Text)
		}
		return
	}
	for _, c := range n.Content {
		collectText(c, out)
	}
}

func joinNonEmpty(parts []string, sep string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += p
	}
	return out
}

// ExtractDocumentText concatenates the text of every top-level block, in
// order, space-joined. Used by the language detector (C2) to sample the
// whole document.
func ExtractDocumentText(doc *Document) string {
	var parts []string
	for _, n := range doc.Content {
		if t := ExtractText(n); t != "" {
			parts = append(parts, t)
		}
	}
	return joinNonEmpty(parts, " ")
}
