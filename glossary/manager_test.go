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

package glossary

import (
	"testing"

	"github.com/okidoki/doctranslate/industry"
	"github.com/okidoki/doctranslate/terminology"
	"github.com/stretchr/testify/require"
)

func TestSetContextSeedsBaseline(t *testing.T) {
	m := NewManager()
	m.SetContext(industry.Legal, "fr")
	g := m.GetGlossary()
	require.NotEmpty(t, g)

	found := false
	for _, e := range g {
		if e.Term == "plaintiff" {
			found = true
			require.Equal(t, "demandeur", e.Translation)
		}
	}
	require.True(t, found)
}

func TestSetContextResetsPriorGlossary(t *testing.T) {
	m := NewManager()
	m.SetContext(industry.Legal, "fr")
	m.UpdateFromBatch(map[string]string{"widget": "gadget"})
	require.Len(t, m.GetGlossary(), 4)

	m.SetContext(industry.General, "es")
	require.Empty(t, m.GetGlossary())
}

func TestMergeRagTermsOverwritesBaseline(t *testing.T) {
	m := NewManager()
	m.SetContext(industry.Legal, "fr")
	m.MergeRagTerms([]terminology.Term{{Term: "plaintiff", Translation: "requérant", Source: "knowledge_base"}})

	g := m.GetGlossary()
	for _, e := range g {
		if e.Term == "plaintiff" {
			require.Equal(t, "requérant", e.Translation)
			require.True(t, e.FromRAG)
		}
	}
}

func TestExtractTermsNeverOverwritesRAGEntry(t *testing.T) {
	m := NewManager()
	m.MergeRagTerms([]terminology.Term{{Term: "Acme", Translation: "Acme", Source: "knowledge_base"}})
	m.ExtractTerms([]ExtractedTerm{{Term: "Acme", Category: CategoryCompanyName, Action: ActionKeep}})

	g := m.GetGlossary()
	require.Len(t, g, 1)
	require.True(t, g[0].FromRAG)
}

func TestUpdateFromBatchNeverOverwritesTranslatedEntry(t *testing.T) {
	m := NewManager()
	m.MergeRagTerms([]terminology.Term{{Term: "Acme", Translation: "Acme Corp", Source: "knowledge_base"}})
	m.UpdateFromBatch(map[string]string{"Acme": "Acme Inc"})

	g := m.GetGlossary()
	require.Equal(t, "Acme Corp", g[0].Translation)
}

func TestUpdateFromBatchFillsUntranslatedEntries(t *testing.T) {
	m := NewManager()
	m.ExtractTerms([]ExtractedTerm{{Term: "widget", Category: CategoryTechnicalTerm, Action: ActionTranslate}})
	m.UpdateFromBatch(map[string]string{"widget": "gadget"})

	g := m.GetGlossary()
	require.Equal(t, "gadget", g[0].Translation)
}

func TestBuildGlossaryPromptEmptyIsEmptyString(t *testing.T) {
	m := NewManager()
	require.Equal(t, "", m.BuildGlossaryPrompt())
}

func TestBuildGlossaryPromptRAGFirstThenByOccurrence(t *testing.T) {
	m := NewManager()
	m.ExtractTerms([]ExtractedTerm{{Term: "widget", Category: CategoryTechnicalTerm, Action: ActionTranslate}})
	m.UpdateFromBatch(map[string]string{"widget": "gadget"})
	m.MergeRagTerms([]terminology.Term{{Term: "Acme", Translation: "Acme Corp", Source: "knowledge_base"}})

	prompt := m.BuildGlossaryPrompt()
	require.Contains(t, prompt, "Acme -> Acme Corp [company preferred]")
	require.Contains(t, prompt, "widget -> gadget")
	require.Less(t, indexOf(prompt, "Acme"), indexOf(prompt, "widget"))
}

func TestRestoreGlossaryReplacesWholesale(t *testing.T) {
	m := NewManager()
	m.SetContext(industry.Legal, "fr")
	m.RestoreGlossary([]Entry{{Term: "custom", Translation: "personnalisé"}})

	g := m.GetGlossary()
	require.Len(t, g, 1)
	require.Equal(t, "custom", g[0].Term)
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
