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

package translation

import (
	"testing"

	"github.com/okidoki/doctranslate/doctree"
	"github.com/stretchr/testify/require"
)

func buildTestDoc(paragraphCount int) *doctree.Document {
	doc := &doctree.Document{Type: doctree.TypeDoc}
	for i := 0; i < paragraphCount; i++ {
		doc.Content = append(doc.Content, &doctree.Node{
			Type: doctree.TypeParagraph,
			Content: []*doctree.Node{
				{Type: doctree.TypeText, Text: "original text"},
			},
		})
	}
	return doc
}

func TestAccumulatorAddBatchMarksProgress(t *testing.T) {
	doc := buildTestDoc(4)
	acc := NewAccumulator(doc)
	refs := HarvestParagraphs(doc)

	refs[0].Node.Content[0].Text = "translated"
	acc.AddBatch(Batch{Paragraphs: refs[:1]})

	translated, total := acc.Progress()
	require.Equal(t, 1, translated)
	require.Equal(t, 4, total)
}

func TestAccumulatorDoesNotDoubleCountRepeatedParagraph(t *testing.T) {
	doc := buildTestDoc(2)
	acc := NewAccumulator(doc)
	refs := HarvestParagraphs(doc)

	acc.AddBatch(Batch{Paragraphs: refs})
	acc.AddBatch(Batch{Paragraphs: refs})

	translated, _ := acc.Progress()
	require.Equal(t, 2, translated)
}

func TestAccumulatorCrossesMilestonesOnlyOnce(t *testing.T) {
	doc := buildTestDoc(4)
	acc := NewAccumulator(doc)
	refs := HarvestParagraphs(doc)

	crossed := acc.AddBatch(Batch{Paragraphs: refs[:1]}) // 25%
	require.Equal(t, []int{10, 25}, crossed)

	crossed = acc.AddBatch(Batch{Paragraphs: refs[1:2]}) // 50%
	require.Equal(t, []int{40}, crossed)

	crossed = acc.AddBatch(Batch{Paragraphs: refs[1:2]}) // no-op repeat
	require.Empty(t, crossed)
}

func TestRebuildDocumentAppliesTranslationsAndLeavesRestOriginal(t *testing.T) {
	doc := buildTestDoc(2)
	acc := NewAccumulator(doc)
	refs := HarvestParagraphs(doc)

	refs[0].Node.Content[0].Text = "bonjour"
	acc.AddBatch(Batch{Paragraphs: refs[:1]})

	rebuilt := acc.RebuildDocument()
	require.Equal(t, "bonjour", rebuilt.Content[0].Content[0].Text)
	require.Equal(t, "original text", rebuilt.Content[1].Content[0].Text)

	// Original document must be untouched by the rebuild.
	require.Equal(t, "bonjour", doc.Content[0].Content[0].Text)
}

func TestRebuildDocumentSanitizesListsEveryTime(t *testing.T) {
	doc := &doctree.Document{
		Type: doctree.TypeDoc,
		Content: []*doctree.Node{
			{Type: doctree.TypeBulletList, Content: []*doctree.Node{
				{Type: doctree.TypeListItem, Content: []*doctree.Node{
					{Type: doctree.TypeParagraph, Content: []*doctree.Node{{Type: doctree.TypeText, Text: "item"}}},
				}},
			}},
		},
	}
	acc := NewAccumulator(doc)
	rebuilt := acc.RebuildDocument()
	require.Equal(t, "disc", rebuilt.Content[0].Attrs["listStyleType"])
}
