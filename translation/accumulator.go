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
	"sort"
	"sync"

	"github.com/okidoki/doctranslate/doctree"
)

// milestones are the progress percentages that trigger a document rebuild
// and an onUpdate callback. Each is fired at most once per run, the first
// time accumulated progress crosses it.
var milestones = []int{10, 25, 40, 55, 70, 85, 100}

// Accumulator holds every batch translated so far and can rebuild a full,
// translated document tree from the pristine original plus whatever has
// accumulated. It never mutates the original document it was built from.
type Accumulator struct {
	mu       sync.Mutex
	original *doctree.Document
	total    int // total translatable paragraphs in the document

	// translatedParagraphs maps a paragraph's GlobalIndex to the full
	// replacement content for that paragraph: either per-leaf translated
	// text (structured path) or a single collapsed text leaf (fallback
	// path, Open Question #2).
	translatedParagraphs map[int][]*doctree.Node
	translatedCount      int

	crossedMilestones map[int]bool
}

// NewAccumulator builds an accumulator over original, which is never
// mutated — every rebuild starts from a fresh clone.
func NewAccumulator(original *doctree.Document) *Accumulator {
	return &Accumulator{
		original:             original,
		total:                len(HarvestParagraphs(original)),
		translatedParagraphs: make(map[int][]*doctree.Node),
		crossedMilestones:    make(map[int]bool),
	}
}

// AddBatch records a translated batch's paragraphs. It returns the newly
// crossed milestones (in ascending order), which is empty when progress
// hasn't crossed a new threshold since the last call.
func (a *Accumulator) AddBatch(batch Batch) []int {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, p := range batch.Paragraphs {
		if _, already := a.translatedParagraphs[p.GlobalIndex]; already {
			continue
		}
		a.translatedParagraphs[p.GlobalIndex] = cloneNodeContent(p.Node)
		a.translatedCount++
	}

	return a.newlyCrossedMilestonesLocked()
}

func (a *Accumulator) newlyCrossedMilestonesLocked() []int {
	if a.total == 0 {
		return nil
	}
	progress := a.translatedCount * 100 / a.total
	var crossed []int
	for _, m := range milestones {
		if progress >= m && !a.crossedMilestones[m] {
			a.crossedMilestones[m] = true
			crossed = append(crossed, m)
		}
	}
	sort.Ints(crossed)
	return crossed
}

// Progress returns (translated, total) paragraph counts.
func (a *Accumulator) Progress() (int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.translatedCount, a.total
}

// Restore preloads previously-persisted translated paragraphs when
// resuming a run, marking whatever milestones that progress already
// crosses so a resumed run doesn't re-fire onUpdate for milestones the
// original run already reported.
func (a *Accumulator) Restore(translated map[int][]*doctree.Node) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for idx, content := range translated {
		if _, already := a.translatedParagraphs[idx]; already {
			continue
		}
		a.translatedParagraphs[idx] = content
		a.translatedCount++
	}
	a.newlyCrossedMilestonesLocked()
}

// RebuildDocument returns a fresh clone of the original document with
// every accumulated translation applied, then sanitizes its list nodes
// (I4). Untranslated paragraphs keep their original text.
func (a *Accumulator) RebuildDocument() *doctree.Document {
	a.mu.Lock()
	snapshot := make(map[int][]*doctree.Node, len(a.translatedParagraphs))
	for k, v := range a.translatedParagraphs {
		snapshot[k] = v
	}
	a.mu.Unlock()

	clone := doctree.CloneDocument(a.original)
	refs := HarvestParagraphs(clone)
	for _, ref := range refs {
		if content, ok := snapshot[ref.GlobalIndex]; ok {
			ref.Node.Content = content
		}
	}
	doctree.SanitizeListsInDocument(clone)
	return clone
}

// cloneNodeContent deep-copies a paragraph's content so later mutation of
// the live tree (e.g. a subsequent rebuild reusing the same node pointers
// some other way) can never retroactively change an already-accumulated
// batch.
func cloneNodeContent(n *doctree.Node) []*doctree.Node {
	wrapper := &doctree.Document{Type: doctree.TypeDoc, Content: n.Content}
	return doctree.CloneDocument(wrapper).Content
}
