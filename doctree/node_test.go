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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	n := &Node{
		Type: TypeParagraph,
		Content: []*Node{
			{Type: TypeRun, Attrs: map[string]any{"id": "r1"}, Content: []*Node{
				{Type: TypeText, Text: "Hello"},
			}},
			{Type: TypeText, Text: "world"},
		},
	}
	require.Equal(t, "Hello world", ExtractText(n))
}

func TestRewriteTextDescendsThroughWrappers(t *testing.T) {
	n := &Node{
		Type: TypeParagraph,
		Content: []*Node{
			{Type: TypeRun, Attrs: map[string]any{"id": "r1"}, Content: []*Node{
				{Type: TypeText, Text: "Hello", Marks: []Mark{{Type: "bold"}}},
			}},
			{Type: TypeText, Text: "world"},
		},
	}
	var seen []string
	RewriteText(n, func(leaf *Node) string {
		seen = append(seen, leaf.Text)
		return "X:" + leaf.Text
	})
	require.Equal(t, []string{"Hello", "world"}, seen)
	require.Equal(t, "X:Hello", n.Content[0].Content[0].Text)
	require.Equal(t, "bold", n.Content[0].Content[0].Marks[0].Type)
	require.Equal(t, "r1", n.Content[0].Attrs["id"])
	require.Equal(t, "X:world", n.Content[1].Text)
}

func TestSanitizeListNodeDefaults(t *testing.T) {
	ol := &Node{Type: TypeOrderedList}
	SanitizeListNode(ol)
	require.Equal(t, "decimal", ol.Attrs["listStyleType"])
	require.Equal(t, 1, ol.Attrs["start"])

	bl := &Node{Type: TypeBulletList, Attrs: map[string]any{"listStyleType": nil}}
	SanitizeListNode(bl)
	require.Equal(t, "disc", bl.Attrs["listStyleType"])
}

func TestCloneDocumentDeepCopy(t *testing.T) {
	doc := &Document{Type: TypeDoc, Content: []*Node{
		{Type: TypeParagraph, Content: []*Node{{Type: TypeText, Text: "hi"}}},
	}}
	clone := CloneDocument(doc)
	clone.Content[0].Content[0].Text = "changed"
	require.Equal(t, "hi", doc.Content[0].Content[0].Text)
}

func TestCountTextLeaves(t *testing.T) {
	n := &Node{Type: TypeParagraph, Content: []*Node{
		{Type: TypeText, Text: "a"},
		{Type: TypeRun, Content: []*Node{{Type: TypeText, Text: "b"}, {Type: TypeText, Text: "c"}}},
	}}
	require.Equal(t, 3, CountTextLeaves(n))
}
