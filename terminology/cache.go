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

// Package terminology implements C4 (the two-tier terminology cache) and
// C5 (the knowledge-base lookup channel that populates it).
package terminology

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/okidoki/doctranslate/kvstore"
	"github.com/okidoki/doctranslate/logging"
)

const (
	cacheKey   = "okidoki_terminology_cache"
	ttl        = 7 * 24 * time.Hour
	maxEntries = 20
)

// Entry is one cached term/translation pair.
type Entry struct {
	Term        string    `json:"term"`
	Industry    string    `json:"industry"`
	TargetLang  string    `json:"targetLang"`
	Translation string    `json:"translation"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (e Entry) expired(now time.Time) bool {
	return now.Sub(e.CreatedAt) > ttl
}

// key combines the term with the dimensions that change its meaning:
// industry and target language. Two documents translating "bank" for
// different industries must not collide.
func key(term, industry, targetLang string) string {
	return industry + "|" + targetLang + "|" + term
}

// Cache is the two-tier (memory + durable) terminology cache. The memory
// tier is authoritative for the lifetime of the process; the durable tier
// is best-effort persistence so a restart doesn't lose everything learned
// so far.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Entry
	store   kvstore.Store
}

// NewCache constructs a Cache. store may be nil, in which case the cache
// is memory-only for its whole life (matching C4's storage-failure
// degrade-to-memory behavior).
func NewCache(store kvstore.Store) *Cache {
	return &Cache{entries: make(map[string]Entry), store: store}
}

// Load reads the persisted cache at startup and evicts anything already
// past its TTL. A storage failure degrades silently to an empty cache —
// it is never fatal to translation.
func (c *Cache) Load(ctx context.Context) {
	if c.store == nil {
		return
	}
	raw, ok, err := c.store.Get(ctx, cacheKey)
	if err != nil {
		logging.Warn("terminology cache load failed, starting empty: %v", err)
		return
	}
	if !ok || raw == "" {
		return
	}
	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		logging.Warn("terminology cache corrupt, starting empty: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for _, e := range entries {
		if e.expired(now) {
			continue
		}
		c.entries[key(e.Term, e.Industry, e.TargetLang)] = e
	}
}

// Get returns the cached translation for term, if present and unexpired.
func (c *Cache) Get(term, industry, targetLang string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key(term, industry, targetLang)]
	if !ok {
		return Entry{}, false
	}
	if e.expired(time.Now()) {
		delete(c.entries, key(term, industry, targetLang))
		return Entry{}, false
	}
	return e, true
}

// Put inserts or refreshes an entry, evicting the oldest entry first when
// the cache is already at MAX capacity, then persists the whole cache
// (best-effort — a write failure is logged and otherwise ignored).
func (c *Cache) Put(ctx context.Context, term, industry, targetLang, translation, source string) {
	c.mu.Lock()
	k := key(term, industry, targetLang)
	c.entries[k] = Entry{
		Term:        term,
		Industry:    industry,
		TargetLang:  targetLang,
		Translation: translation,
		Source:      source,
		CreatedAt:   time.Now(),
	}
	c.evictOldestLocked()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.persist(ctx, snapshot)
}

func (c *Cache) evictOldestLocked() {
	for len(c.entries) <= maxEntries {
		return
	}
	var oldestKey string
	var oldestTime time.Time
	first := true
	for k, e := range c.entries {
		if first || e.CreatedAt.Before(oldestTime) {
			oldestKey, oldestTime, first = k, e.CreatedAt, false
		}
	}
	delete(c.entries, oldestKey)
}

func (c *Cache) snapshotLocked() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	return out
}

func (c *Cache) persist(ctx context.Context, entries []Entry) {
	if c.store == nil {
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		logging.Warn("terminology cache marshal failed: %v", err)
		return
	}
	if err := c.store.Set(ctx, cacheKey, string(raw)); err != nil {
		logging.Warn("terminology cache persist failed: %v", err)
	}
}

// Len reports the current entry count, mostly useful for tests.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
