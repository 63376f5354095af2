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

// Package translation implements C7 through C11: turning a document tree
// into batches, translating each batch, accumulating translated paragraphs
// back into the tree, persisting progress, and orchestrating the whole
// run end to end.
package translation

import (
	"fmt"
	"strings"

	"github.com/okidoki/doctranslate/doctree"
)

const (
	minBatchWords    = 300
	targetBatchWords = 800
	maxBatchWords    = 1500
)

// ParagraphRef pairs a translatable node (paragraph or heading) with its
// position in document order across the whole document — stable so long
// as HarvestParagraphs is always walked the same way, which is what both
// the batching engine and the accumulator rely on.
type ParagraphRef struct {
	Node        *doctree.Node
	GlobalIndex int
}

// HarvestParagraphs walks doc in document order and returns every
// paragraph or heading node, including ones nested inside list items and
// table cells. A node's GlobalIndex is its position in this walk, which is
// the addressing scheme the accumulator (C9) uses to reapply translated
// text to a freshly cloned tree.
func HarvestParagraphs(doc *doctree.Document) []ParagraphRef {
	var out []ParagraphRef
	var walk func(n *doctree.Node)
	walk = func(n *doctree.Node) {
		if n == nil {
			return
		}
		if doctree.IsTranslatableBlock(n.Type) {
			out = append(out, ParagraphRef{Node: n, GlobalIndex: len(out)})
			return
		}
		for _, c := range n.Content {
			walk(c)
		}
	}
	for _, n := range doc.Content {
		walk(n)
	}
	return out
}

// Section is a heading-bounded span of the document. The first section,
// "Document Start", covers everything before the first top-level heading.
type Section struct {
	Heading    string
	Level      int
	Paragraphs []ParagraphRef
	WordCount  int
}

// ExtractSections groups the document's harvested paragraphs into
// heading-bounded sections. A top-level heading both closes the previous
// section and opens (and is itself a member of) the next one.
func ExtractSections(doc *doctree.Document) []Section {
	var sections []Section
	cur := Section{Heading: "Document Start", Level: 0}
	globalIdx := 0

	add := func(n *doctree.Node) {
		cur.Paragraphs = append(cur.Paragraphs, ParagraphRef{Node: n, GlobalIndex: globalIdx})
		cur.WordCount += wordCount(doctree.ExtractText(n))
		globalIdx++
	}
	flush := func() {
		if len(cur.Paragraphs) > 0 {
			sections = append(sections, cur)
		}
	}
	var harvest func(n *doctree.Node)
	harvest = func(n *doctree.Node) {
		if n == nil {
			return
		}
		if doctree.IsTranslatableBlock(n.Type) {
			add(n)
			return
		}
		for _, c := range n.Content {
			harvest(c)
		}
	}

	for _, top := range doc.Content {
		if top.Type == doctree.TypeHeading {
			flush()
			cur = Section{Heading: doctree.ExtractText(top), Level: doctree.HeadingLevel(top)}
			add(top)
			continue
		}
		harvest(top)
	}
	flush()
	return sections
}

// Batch is a contiguous run of paragraphs from a single section, sized to
// fit one translation call.
type Batch struct {
	ID               string
	SectionHeading   string
	IsPartialSection bool
	PartNumber       int
	TotalParts       int
	Paragraphs       []ParagraphRef
	WordCount        int
}

// BuildBatches packs sections into batches of roughly TARGET words, never
// exceeding MAX unless a single paragraph alone is already over MAX (which
// is left as its own oversized batch rather than split mid-paragraph). A
// trailing batch under MIN words is left as-is — the splitter aims only for
// TARGET, and MIN is not enforced anywhere.
func BuildBatches(sections []Section) []Batch {
	var batches []Batch
	for _, sec := range sections {
		if sec.WordCount <= maxBatchWords {
			batches = append(batches, Batch{
				SectionHeading: sec.Heading,
				Paragraphs:     sec.Paragraphs,
				WordCount:      sec.WordCount,
			})
			continue
		}
		batches = append(batches, splitSection(sec)...)
	}
	for i := range batches {
		batches[i].ID = fmt.Sprintf("batch_%d", i)
	}
	return batches
}

func splitSection(sec Section) []Batch {
	var parts []Batch
	var curParas []ParagraphRef
	curWords := 0

	flush := func() {
		if len(curParas) == 0 {
			return
		}
		parts = append(parts, Batch{
			SectionHeading: sec.Heading,
			Paragraphs:     curParas,
			WordCount:      curWords,
		})
		curParas = nil
		curWords = 0
	}

	for _, p := range sec.Paragraphs {
		w := wordCount(doctree.ExtractText(p.Node))
		if curWords > 0 && curWords+w > targetBatchWords {
			flush()
		}
		curParas = append(curParas, p)
		curWords += w
	}
	flush()

	for i := range parts {
		parts[i].IsPartialSection = true
		parts[i].PartNumber = i + 1
		parts[i].TotalParts = len(parts)
	}
	return parts
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}
