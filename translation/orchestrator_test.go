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
	"strings"
	"testing"

	"github.com/okidoki/doctranslate/doctree"
	"github.com/okidoki/doctranslate/kvstore"
	"github.com/okidoki/doctranslate/llm"
	"github.com/stretchr/testify/require"
)

// echoWidget has no structured-output support, so every call the
// orchestrator makes goes through a prose fallback path. It echoes the
// paragraph text it was asked to translate back unchanged, which is
// enough to exercise the orchestrator's wiring without depending on any
// particular model output.
type echoWidget struct {
	asks int
}

func (w *echoWidget) Helpers() llm.Helpers { return nil }

func (w *echoWidget) Ask(ctx context.Context, req llm.AskRequest) (llm.AskResponse, error) {
	w.asks++
	if parts := strings.SplitN(req.Prompt, "commentary.\n\n", 2); len(parts) == 2 {
		return llm.AskResponse{Success: true, Result: parts[1]}, nil
	}
	return llm.AskResponse{Success: true, Result: ""}, nil
}

func buildTestDocument(paragraphs ...string) *doctree.Document {
	doc := &doctree.Document{Type: doctree.TypeDoc}
	for _, text := range paragraphs {
		doc.Content = append(doc.Content, &doctree.Node{
			Type:    doctree.TypeParagraph,
			Content: []*doctree.Node{{Type: doctree.TypeText, Text: text}},
		})
	}
	return doc
}

// buildMultiSectionDocument puts each paragraph under its own heading, so
// ExtractSections/BuildBatches produce one batch per paragraph — needed by
// tests that exercise cancellation or milestone crossing mid-run.
func buildMultiSectionDocument(paragraphs ...string) *doctree.Document {
	doc := &doctree.Document{Type: doctree.TypeDoc}
	for _, text := range paragraphs {
		doc.Content = append(doc.Content,
			&doctree.Node{
				Type:    doctree.TypeHeading,
				Attrs:   map[string]any{"level": 1},
				Content: []*doctree.Node{{Type: doctree.TypeText, Text: "Section"}},
			},
			&doctree.Node{
				Type:    doctree.TypeParagraph,
				Content: []*doctree.Node{{Type: doctree.TypeText, Text: text}},
			},
		)
	}
	return doc
}

func TestTranslateRunsToCompletionAndDiscardsPersistence(t *testing.T) {
	store := kvstore.NewMemoryStore()
	orch := NewOrchestrator(store)
	widget := &echoWidget{}
	doc := buildTestDocument("hello there", "second paragraph text")
	original := doctree.CloneDocument(doc)

	var progressEvents []ProgressEvent
	var finalDoc *doctree.Document
	callbacks := Callbacks{
		OnProgress: func(e ProgressEvent) { progressEvents = append(progressEvents, e) },
		OnComplete: func(d *doctree.Document) { finalDoc = d },
	}

	result := orch.Translate(context.Background(), doc, Options{TargetLanguage: "fr"}, widget, callbacks, nil)
	require.Equal(t, StatusCompleted, result.Status)
	require.Equal(t, 100, result.Progress)
	require.NotNil(t, finalDoc)
	require.NotEmpty(t, progressEvents)
	require.Equal(t, 100, progressEvents[len(progressEvents)-1].Percentage)

	documentID := ComputeDocumentID(doc)
	require.False(t, orch.CheckForIncompleteTranslation(context.Background(), documentID))

	// The caller's input document must never be mutated in place.
	require.Equal(t, original, doc)
}

func TestTranslateFiresOnUpdateAtMilestones(t *testing.T) {
	store := kvstore.NewMemoryStore()
	orch := NewOrchestrator(store)
	widget := &echoWidget{}
	// Enough paragraphs that batching splits into multiple single-paragraph
	// sections (each its own "Document Start" paragraph is fine too) so
	// more than one AddBatch call happens.
	doc := buildMultiSectionDocument("alpha beta gamma", "delta epsilon zeta", "eta theta iota", "kappa lambda mu")

	var updates int
	result := orch.Translate(context.Background(), doc, Options{TargetLanguage: "fr"}, widget, Callbacks{}, func(d *doctree.Document) {
		updates++
	})
	require.Equal(t, StatusCompleted, result.Status)
	require.GreaterOrEqual(t, updates, 1)
}

func TestCancelDuringRunKeepsPartialProgress(t *testing.T) {
	store := kvstore.NewMemoryStore()
	orch := NewOrchestrator(store)
	widget := &echoWidget{}
	doc := buildMultiSectionDocument("first paragraph", "second paragraph", "third paragraph")

	callbacks := Callbacks{
		OnProgress: func(e ProgressEvent) {
			orch.Cancel()
		},
		OnCancelRequest: func() CancelChoice { return CancelKeep },
	}

	result := orch.Translate(context.Background(), doc, Options{TargetLanguage: "fr"}, widget, callbacks, nil)
	require.Equal(t, StatusCancelled, result.Status)
	require.Equal(t, CancelKeep, result.UserChoice)

	documentID := ComputeDocumentID(doc)
	require.True(t, orch.CheckForIncompleteTranslation(context.Background(), documentID))
}

func TestCancelRestoreReturnsUntouchedOriginal(t *testing.T) {
	store := kvstore.NewMemoryStore()
	orch := NewOrchestrator(store)
	widget := &echoWidget{}
	doc := buildMultiSectionDocument("first paragraph", "second paragraph", "third paragraph")
	original := doctree.CloneDocument(doc)

	callbacks := Callbacks{
		OnProgress: func(e ProgressEvent) {
			orch.Cancel()
		},
		OnCancelRequest: func() CancelChoice { return CancelRestore },
	}

	result := orch.Translate(context.Background(), doc, Options{TargetLanguage: "fr"}, widget, callbacks, nil)
	require.Equal(t, StatusCancelled, result.Status)
	require.Equal(t, CancelRestore, result.UserChoice)

	documentID := ComputeDocumentID(doc)
	require.False(t, orch.CheckForIncompleteTranslation(context.Background(), documentID))
	require.Equal(t, original, doc)
}

func TestResumeContinuesFromPersistedState(t *testing.T) {
	store := kvstore.NewMemoryStore()
	orch := NewOrchestrator(store)
	widget := &echoWidget{}
	doc := buildMultiSectionDocument("first paragraph", "second paragraph", "third paragraph")

	cancelOnce := false
	callbacks := Callbacks{
		OnProgress: func(e ProgressEvent) {
			if !cancelOnce {
				cancelOnce = true
				orch.Cancel()
			}
		},
		OnCancelRequest: func() CancelChoice { return CancelKeep },
	}
	orch.Translate(context.Background(), doc, Options{TargetLanguage: "fr"}, widget, callbacks, nil)

	documentID := ComputeDocumentID(doc)
	require.True(t, orch.CheckForIncompleteTranslation(context.Background(), documentID))

	var finalDoc *doctree.Document
	result := orch.Resume(context.Background(), doc, widget, Callbacks{OnComplete: func(d *doctree.Document) { finalDoc = d }}, nil)
	require.Equal(t, StatusCompleted, result.Status)
	require.NotNil(t, finalDoc)
	require.False(t, orch.CheckForIncompleteTranslation(context.Background(), documentID))
}

func TestGetProgressReflectsActiveRun(t *testing.T) {
	orch := NewOrchestrator(kvstore.NewMemoryStore())
	completed, total := orch.GetProgress()
	require.Equal(t, 0, completed)
	require.Equal(t, 0, total)
}
