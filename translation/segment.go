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
	"context"
	"fmt"
	"strings"

	"github.com/okidoki/doctranslate/doctree"
	"github.com/okidoki/doctranslate/llm"
	"github.com/okidoki/doctranslate/logging"
)

// segmentRef is one text leaf addressed for translation within a batch.
type segmentRef struct {
	leaf           *doctree.Node
	paragraphIndex int
	segmentIndex   int
	originalText   string
}

func segmentID(paragraphIndex, segmentIndex int) string {
	return fmt.Sprintf("p%d_%d", paragraphIndex, segmentIndex)
}

func collectSegments(batch Batch) []segmentRef {
	var segs []segmentRef
	for pi, p := range batch.Paragraphs {
		sid := 0
		doctree.WalkDescendants(p.Node, func(n *doctree.Node) {
			if doctree.IsTextLeaf(n) {
				segs = append(segs, segmentRef{
					leaf:           n,
					paragraphIndex: pi,
					segmentIndex:   sid,
					originalText:   n.Text,
				})
				sid++
			}
		})
	}
	return segs
}

// BatchResult is what a translated batch hands back to the accumulator
// (C9): the batch whose leaves now hold translated text in place, plus any
// new glossary terms the model surfaced along the way.
type BatchResult struct {
	Batch    Batch
	NewTerms map[string]string
}

type translationItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type newTermItem struct {
	Original   string `json:"original"`
	Translated string `json:"translated"`
}

type structuredTranslation struct {
	Translations []translationItem `json:"translations"`
	NewTerms     []newTermItem     `json:"newTerms"`
}

// TranslateBatch translates every text segment in batch in place, trying
// the structured-output path first and falling back to a prose-parsing
// path if the model (or the host Widget) doesn't support shaped output —
// or if the structured call itself fails. Returns nil only when both paths
// are exhausted, signaling a fatal, unrecoverable batch failure to the
// orchestrator (C11 kind 2 error handling).
func TranslateBatch(ctx context.Context, batch Batch, widget llm.Widget, industryLine, glossaryPrompt, targetLang string) *BatchResult {
	segs := collectSegments(batch)
	if len(segs) == 0 {
		return &BatchResult{Batch: batch}
	}

	if widget.Helpers() != nil {
		if result, ok := translateStructured(ctx, widget, batch, segs, industryLine, glossaryPrompt, targetLang); ok {
			return result
		}
	}
	return translateFallbackProse(ctx, widget, batch, industryLine, glossaryPrompt, targetLang)
}

func translateStructured(ctx context.Context, widget llm.Widget, batch Batch, segs []segmentRef, industryLine, glossaryPrompt, targetLang string) (*BatchResult, bool) {
	helpers := widget.Helpers()

	translationSpec := helpers.Object(map[string]*llm.StructuredSpec{
		"id":   helpers.String(),
		"text": helpers.String(),
	}, []string{"id", "text"})
	newTermSpec := helpers.Object(map[string]*llm.StructuredSpec{
		"original":   helpers.String(),
		"translated": helpers.String(),
	}, []string{"original", "translated"})
	output := helpers.Object(map[string]*llm.StructuredSpec{
		"translations": helpers.Array(translationSpec),
		"newTerms":     helpers.Array(newTermSpec),
	}, []string{"translations"})

	prompt := buildSegmentPrompt(industryLine, glossaryPrompt, targetLang, segs)
	maxTokens := batch.WordCount * 3
	if maxTokens < 256 {
		maxTokens = 256
	}

	res, err := llm.AskStructured[structuredTranslation](ctx, widget, llm.AskRequest{
		Prompt:    prompt,
		Output:    output,
		MaxTokens: maxTokens,
	})
	if err != nil {
		logging.Warn("structured batch translation failed, falling back to prose: %v", err)
		return nil, false
	}

	byID := make(map[string]string, len(res.Translations))
	for _, t := range res.Translations {
		byID[t.ID] = t.Text
	}
	for _, s := range segs {
		if text, ok := byID[segmentID(s.paragraphIndex, s.segmentIndex)]; ok {
			s.leaf.Text = text
		}
		// A missing id keeps the leaf's original text untouched.
	}

	newTerms := make(map[string]string, len(res.NewTerms))
	for _, t := range res.NewTerms {
		if t.Original != "" && t.Translated != "" {
			newTerms[t.Original] = t.Translated
		}
	}
	return &BatchResult{Batch: batch, NewTerms: newTerms}, true
}

func buildSegmentPrompt(industryLine, glossaryPrompt, targetLang string, segs []segmentRef) string {
	var sb strings.Builder
	if industryLine != "" {
		sb.WriteString(industryLine)
		sb.WriteString("\n\n")
	}
	if glossaryPrompt != "" {
		sb.WriteString(glossaryPrompt)
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("Translate the following segments into %s. Preserve each segment's id exactly.\n\n", targetLang))
	sb.WriteString("SEGMENTS TO TRANSLATE:\n")
	for _, s := range segs {
		sb.WriteString("[")
		sb.WriteString(segmentID(s.paragraphIndex, s.segmentIndex))
		sb.WriteString("] \"")
		sb.WriteString(s.originalText)
		sb.WriteString("\"")
		if len(s.leaf.Marks) > 0 {
			names := make([]string, len(s.leaf.Marks))
			for i, m := range s.leaf.Marks {
				names[i] = m.Type
			}
			sb.WriteString("⟨")
			sb.WriteString(strings.Join(names, ","))
			sb.WriteString("⟩")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// translateFallbackProse is used when structured output isn't available
// (or failed): one plain-text call translating every paragraph's whole
// text, separated by blank lines, then splitting the response back apart
// by blank lines. Because this path can't track individual text leaves, it
// collapses each paragraph down to a single text node and drops its marks
// (Open Question #2: marks are not heuristically reapplied).
func translateFallbackProse(ctx context.Context, widget llm.Widget, batch Batch, industryLine, glossaryPrompt, targetLang string) *BatchResult {
	originals := make([]string, len(batch.Paragraphs))
	for i, p := range batch.Paragraphs {
		originals[i] = doctree.ExtractText(p.Node)
	}

	var sb strings.Builder
	if industryLine != "" {
		sb.WriteString(industryLine)
		sb.WriteString("\n\n")
	}
	if glossaryPrompt != "" {
		sb.WriteString(glossaryPrompt)
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf(
		"Translate the following paragraphs into %s. Return them in the same order, separated by a single blank line, with no numbering or commentary.\n\n",
		targetLang,
	))
	sb.WriteString(strings.Join(originals, "\n\n"))

	text, err := askWidgetProse(ctx, widget, sb.String())
	if err != nil {
		logging.Error("prose fallback translation failed for batch %s: %v", batch.ID, err)
		return nil
	}

	translated := strings.Split(strings.TrimSpace(text), "\n\n")
	for i, p := range batch.Paragraphs {
		replacement := originals[i]
		if i < len(translated) && strings.TrimSpace(translated[i]) != "" {
			replacement = strings.TrimSpace(translated[i])
		}
		p.Node.Content = []*doctree.Node{{Type: doctree.TypeText, Text: replacement}}
	}
	return &BatchResult{Batch: batch}
}

func askWidgetProse(ctx context.Context, widget llm.Widget, prompt string) (string, error) {
	resp, err := widget.Ask(ctx, llm.AskRequest{Prompt: prompt})
	if err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("widget ask failed: %s", resp.Error)
	}
	return resp.Result, nil
}
