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
	"testing"

	"github.com/okidoki/doctranslate/kvstore"
	"github.com/stretchr/testify/require"
)

func TestPersistenceStoreSaveThenLoad(t *testing.T) {
	p := NewPersistenceStore(kvstore.NewMemoryStore())
	ctx := context.Background()

	p.Save(ctx, &PersistedState{DocumentID: "doc_1", TargetLanguage: "fr", CompletedBatchIDs: []string{"batch_0"}})

	state, ok := p.Load(ctx, "doc_1")
	require.True(t, ok)
	require.Equal(t, "fr", state.TargetLanguage)
}

func TestPersistenceStoreHasIncompleteTranslation(t *testing.T) {
	p := NewPersistenceStore(kvstore.NewMemoryStore())
	ctx := context.Background()
	require.False(t, p.HasIncompleteTranslation(ctx, "doc_1"))

	p.Save(ctx, &PersistedState{DocumentID: "doc_1", TotalBatches: 3, CompletedBatchIDs: []string{"batch_0"}})
	require.True(t, p.HasIncompleteTranslation(ctx, "doc_1"))
	require.False(t, p.HasIncompleteTranslation(ctx, "doc_2"))
}

func TestPersistenceStoreDiscardRemovesState(t *testing.T) {
	p := NewPersistenceStore(kvstore.NewMemoryStore())
	ctx := context.Background()
	p.Save(ctx, &PersistedState{DocumentID: "doc_1"})
	p.Discard(ctx, "doc_1")

	require.False(t, p.HasIncompleteTranslation(ctx, "doc_1"))
}

func TestPersistenceStoreListIncompleteAcrossDocuments(t *testing.T) {
	p := NewPersistenceStore(kvstore.NewMemoryStore())
	ctx := context.Background()
	p.Save(ctx, &PersistedState{DocumentID: "doc_1", CompletedBatchIDs: []string{"batch_0"}})
	p.Save(ctx, &PersistedState{DocumentID: "doc_2"})

	summaries := p.ListIncomplete(ctx)
	require.Len(t, summaries, 2)
}

func TestPersistenceStoreNilStoreIsNoOp(t *testing.T) {
	p := NewPersistenceStore(nil)
	ctx := context.Background()
	require.NotPanics(t, func() {
		p.Save(ctx, &PersistedState{DocumentID: "doc_1"})
	})
	require.False(t, p.HasIncompleteTranslation(ctx, "doc_1"))
	require.Empty(t, p.ListIncomplete(ctx))
}
