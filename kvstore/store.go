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

// Package kvstore is the durable key/value backend shared by the
// terminology cache (C4) and the persistence store (C10): a single
// string-keyed table, addressed through bun over sqlite — the same
// storage stack tamara1031-booksage uses for its own catalog.
package kvstore

import "context"

// Store is the minimal durable key/value interface both durable tiers
// need. Implementations must tolerate being asked for a key that was never
// written (ok=false, no error) and must never panic on a storage failure —
// callers are expected to log-and-swallow per spec.md §7 kinds 5 and 6.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Keys returns every key currently stored, for hosts that want to list
	// incomplete translations across documents (see SPEC_FULL.md §10).
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// MemoryStore is an in-memory Store, used by tests and by hosts that don't
// want sqlite wired in (the durable tier is always optional — both C4 and
// C10 degrade to memory-only on any storage error).
type MemoryStore struct {
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func (m *MemoryStore) Close() error { return nil }
