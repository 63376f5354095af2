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

// Package glossary implements C6: a per-document glossary that tracks how
// specific terms should be rendered across every batch, seeded from an
// industry baseline, refined by knowledge-base lookups, and filled in as
// batches come back translated.
package glossary

import (
	"sort"
	"strings"
	"sync"

	"github.com/okidoki/doctranslate/industry"
	"github.com/okidoki/doctranslate/terminology"
)

// Action is how a glossary entry should be handled during translation.
type Action string

const (
	ActionTranslate Action = "TRANSLATE"
	ActionKeep      Action = "KEEP"
	ActionSpecific  Action = "SPECIFIC"
)

// Category classifies why a term was picked out as glossary-worthy.
type Category string

const (
	CategoryProperNoun    Category = "proper_noun"
	CategoryTechnicalTerm Category = "technical_term"
	CategoryCompanyName   Category = "company_name"
	CategoryProductName   Category = "product_name"
	CategoryOther         Category = "other"
)

// Entry is one tracked glossary term.
type Entry struct {
	Term            string
	Translation     string
	Action          Action
	Category        Category
	FromRAG         bool
	OccurrenceCount int
}

// Manager owns the glossary for a single translation run. It is not
// goroutine-safe across concurrent batches by design (batches are
// processed one at a time per spec.md §5), but guards its map anyway since
// updateFromBatch can race with a concurrent getGlossary read from a
// progress callback.
type Manager struct {
	mu         sync.Mutex
	entries    map[string]*Entry
	industry   industry.Industry
	targetLang string
}

// NewManager returns an empty glossary manager.
func NewManager() *Manager {
	return &Manager{entries: make(map[string]*Entry)}
}

// baselineSeeds are small, illustrative per-industry/per-language starter
// glossaries: terms that are almost always rendered the same way in that
// industry regardless of what the document itself says.
var baselineSeeds = map[industry.Industry]map[string]map[string]string{
	industry.Legal: {
		"fr": {"plaintiff": "demandeur", "defendant": "défendeur", "herein": "aux présentes"},
		"es": {"plaintiff": "demandante", "defendant": "demandado"},
	},
	industry.Medical: {
		"fr": {"patient": "patient", "diagnosis": "diagnostic"},
		"es": {"patient": "paciente", "diagnosis": "diagnóstico"},
	},
	industry.Financial: {
		"fr": {"equity": "capitaux propres", "dividend": "dividende"},
	},
}

// SetContext resets the glossary for a new industry/target-language pair
// and seeds it from the baseline table, if one exists for that pair.
func (m *Manager) SetContext(ind industry.Industry, targetLang string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.industry = ind
	m.targetLang = normalizeLang(targetLang)
	m.entries = make(map[string]*Entry)

	if byLang, ok := baselineSeeds[ind]; ok {
		if seeds, ok := byLang[m.targetLang]; ok {
			for term, translation := range seeds {
				m.entries[normalizeTerm(term)] = &Entry{
					Term:        term,
					Translation: translation,
					Action:      ActionSpecific,
					Category:    CategoryOther,
				}
			}
		}
	}
}

// MergeRagTerms overlays knowledge-base terms onto the glossary. RAG
// always wins: it overwrites a baseline entry and any prior RAG entry for
// the same term, but it never needs to fight a batch-filled translation
// since RAG runs before any batch is translated.
func (m *Manager) MergeRagTerms(terms []terminology.Term) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range terms {
		key := normalizeTerm(t.Term)
		m.entries[key] = &Entry{
			Term:        t.Term,
			Translation: t.Translation,
			Action:      ActionSpecific,
			Category:    CategoryOther,
			FromRAG:     true,
		}
	}
}

// ExtractedTerm is one term the LLM classification pass identified in the
// document body, before it's merged into the glossary.
type ExtractedTerm struct {
	Term     string
	Category Category
	Action   Action
}

// ExtractTerms merges LLM-identified terms into the glossary. A term
// already present from RAG is left untouched — RAG is authoritative and
// extraction only fills gaps. A term already present from a prior
// extraction pass has its occurrence count bumped instead of being
// replaced.
func (m *Manager) ExtractTerms(terms []ExtractedTerm) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range terms {
		key := normalizeTerm(t.Term)
		if existing, ok := m.entries[key]; ok {
			if existing.FromRAG {
				continue
			}
			existing.OccurrenceCount++
			continue
		}
		m.entries[key] = &Entry{
			Term:            t.Term,
			Action:          t.Action,
			Category:        t.Category,
			OccurrenceCount: 1,
		}
	}
}

// maxGlossaryPromptTerms bounds how many terms are ever embedded in a
// translation prompt. RAG terms sort first and the rest by occurrence
// count, so RAG terms are cut last, but more than 50 RAG terms are cut too.
const maxGlossaryPromptTerms = 50

// BuildGlossaryPrompt renders the current glossary as prompt text: RAG
// terms first (each suffixed "[company preferred]"), then the rest sorted
// by occurrence count descending, capped at 50 terms total. An empty
// glossary renders to the empty string so callers can skip the section
// entirely rather than emit an empty header.
func (m *Manager) BuildGlossaryPrompt() string {
	m.mu.Lock()
	entries := make([]*Entry, 0, len(m.entries))
	for _, e := range m.entries {
		if e.Translation == "" {
			continue
		}
		entries = append(entries, e)
	}
	m.mu.Unlock()

	if len(entries) == 0 {
		return ""
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].FromRAG != entries[j].FromRAG {
			return entries[i].FromRAG
		}
		return entries[i].OccurrenceCount > entries[j].OccurrenceCount
	})
	if len(entries) > maxGlossaryPromptTerms {
		entries = entries[:maxGlossaryPromptTerms]
	}

	var sb strings.Builder
	sb.WriteString("GLOSSARY (use these exact translations):\n")
	for _, e := range entries {
		sb.WriteString("- ")
		sb.WriteString(e.Term)
		sb.WriteString(" -> ")
		sb.WriteString(e.Translation)
		if e.FromRAG {
			sb.WriteString(" [company preferred]")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// UpdateFromBatch fills in translations discovered mid-run (the
// newTerms a batch's translation call returned). It only fills terms that
// don't already have a translation — an already-translated entry (RAG,
// baseline, or an earlier batch) is never overwritten.
func (m *Manager) UpdateFromBatch(newTerms map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for term, translation := range newTerms {
		key := normalizeTerm(term)
		if existing, ok := m.entries[key]; ok {
			if existing.Translation == "" {
				existing.Translation = translation
			}
			continue
		}
		m.entries[key] = &Entry{
			Term:        term,
			Translation: translation,
			Action:      ActionTranslate,
		}
	}
}

// GetGlossary returns a snapshot of every tracked entry, for persistence.
func (m *Manager) GetGlossary() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, *e)
	}
	return out
}

// RestoreGlossary replaces the glossary wholesale, used when resuming a
// persisted translation run.
func (m *Manager) RestoreGlossary(entries []Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*Entry, len(entries))
	for i := range entries {
		e := entries[i]
		m.entries[normalizeTerm(e.Term)] = &e
	}
}

func normalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

func normalizeLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if len(lang) > 2 {
		lang = lang[:2]
	}
	return lang
}
