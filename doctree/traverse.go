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

package doctree

import "encoding/json"

// TextLeafVisitor is called once per text leaf encountered, in document
// order, and returns the replacement text for that leaf. Returning the
// leaf's own Text is a no-op edit.
type TextLeafVisitor func(leaf *Node) string

// RewriteText walks block in document order, descending through
// transparent wrappers, and replaces the Text field of every text leaf with
// whatever visit returns. Marks, wrapper attrs, and non-text children are
// never touched. The translation package does not call it: its segment
// writer sets leaf text found through WalkDescendants, and the accumulator
// replaces a paragraph's Content directly.
func RewriteText(block *Node, visit TextLeafVisitor) {
	rewriteTextRec(block, visit)
}

func rewriteTextRec(n *Node, visit TextLeafVisitor) {
	if n == nil {
		return
	}
	if IsTextLeaf(n) {
		n.Text = visit(n)
		return
	}
	for _, c := range n.Content {
		rewriteTextRec(c, visit)
	}
}

// CountTextLeaves returns the number of text leaves reachable from n, in
// document order — used by callers that want to know how many segments a
// rewrite will consume before supplying a bounded visitor.
func CountTextLeaves(n *Node) int {
	count := 0
	var walk func(*Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		if IsTextLeaf(n) {
			count++
			return
		}
		for _, c := range n.Content {
			walk(c)
		}
	}
	walk(n)
	return count
}

// WalkDescendants calls visit for every descendant of n (not n itself) in
// document order, depth-first. Used by the segment translator to collect a
// paragraph's text leaves regardless of how deeply they are nested.
func WalkDescendants(n *Node, visit func(*Node)) {
	if n == nil {
		return
	}
	for _, c := range n.Content {
		visit(c)
		WalkDescendants(c, visit)
	}
}

// CloneDocument performs a deep, JSON-faithful copy of doc. The orchestrator
// uses this to guarantee the caller's original tree is never mutated and
// that each rebuild starts from a pristine copy of the input.
func CloneDocument(doc *Document) *Document {
	if doc == nil {
		return nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	var out Document
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return &out
}

// SanitizeListNode enforces the list-container invariants (I4): every
// orderedList gets a non-null listStyleType (default "decimal") and
// non-null start (default 1); every bulletList gets a non-null
// listStyleType (default "disc"). Applied unconditionally, even over an
// explicit upstream null — matching the source's own (unconditional)
// sanitization rather than trying to preserve explicit nulls.
func SanitizeListNode(n *Node) {
	if n == nil {
		return
	}
	switch n.Type {
	case TypeOrderedList:
		if n.Attrs == nil {
			n.Attrs = map[string]any{}
		}
		if n.Attrs["listStyleType"] == nil {
			n.Attrs["listStyleType"] = "decimal"
		}
		if n.Attrs["start"] == nil {
			n.Attrs["start"] = 1
		}
	case TypeBulletList:
		if n.Attrs == nil {
			n.Attrs = map[string]any{}
		}
		if n.Attrs["listStyleType"] == nil {
			n.Attrs["listStyleType"] = "disc"
		}
	}
}

// SanitizeListsInDocument applies SanitizeListNode to every list node in
// the document, at any depth.
func SanitizeListsInDocument(doc *Document) {
	for _, n := range doc.Content {
		sanitizeListsRec(n)
	}
}

func sanitizeListsRec(n *Node) {
	if n == nil {
		return
	}
	SanitizeListNode(n)
	for _, c := range n.Content {
		sanitizeListsRec(c)
	}
}
