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

package terminology

import (
	"context"
	"testing"

	"github.com/okidoki/doctranslate/kvstore"
	"github.com/okidoki/doctranslate/llm"
	"github.com/stretchr/testify/require"
)

type stubWidget struct {
	result string
	err    error
	helper bool
}

func (s *stubWidget) Helpers() llm.Helpers {
	if !s.helper {
		return nil
	}
	return llm.NewJSONSchemaHelpers()
}

func (s *stubWidget) Ask(ctx context.Context, req llm.AskRequest) (llm.AskResponse, error) {
	if s.err != nil {
		return llm.AskResponse{Success: false, Error: s.err.Error()}, s.err
	}
	return llm.AskResponse{Success: true, Result: s.result}, nil
}

func TestLookupServesFromCacheWithoutTouchingKnowledgeBase(t *testing.T) {
	cache := NewCache(kvstore.NewMemoryStore())
	cache.Put(context.Background(), "widget", "technical", "fr", "gadget", "knowledge_base")

	w := &stubWidget{helper: true, result: `{"terms":[]}`}
	resolved := Lookup(context.Background(), cache, w, []string{"widget"}, "technical", "fr")
	require.Len(t, resolved, 1)
	require.Equal(t, "gadget", resolved[0].Translation)
}

func TestLookupPopulatesCacheOnKnowledgeBaseHit(t *testing.T) {
	cache := NewCache(kvstore.NewMemoryStore())
	w := &stubWidget{helper: true, result: `{"terms":[{"term":"widget","translation":"gadget"}]}`}

	resolved := Lookup(context.Background(), cache, w, []string{"widget"}, "technical", "fr")
	require.Len(t, resolved, 1)

	_, ok := cache.Get("widget", "technical", "fr")
	require.True(t, ok)
}

func TestLookupDegradesToEmptyOnFailure(t *testing.T) {
	cache := NewCache(kvstore.NewMemoryStore())
	w := &stubWidget{helper: true, result: `not json`}

	resolved := Lookup(context.Background(), cache, w, []string{"widget"}, "technical", "fr")
	require.Empty(t, resolved)
}

func TestLookupNoHelpersReturnsEmpty(t *testing.T) {
	cache := NewCache(kvstore.NewMemoryStore())
	w := &stubWidget{helper: false}

	resolved := Lookup(context.Background(), cache, w, []string{"widget"}, "technical", "fr")
	require.Empty(t, resolved)
}
