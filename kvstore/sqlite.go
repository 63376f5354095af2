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

package kvstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// kvRow is the single table backing SQLiteStore: one row per key, last
// writer wins (matching spec.md §5's "C10 is last-writer-wins" note).
type kvRow struct {
	bun.BaseModel `bun:"table:kv_entries"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value"`
	UpdatedAt time.Time `bun:"updated_at"`
}

// SQLiteStore is a Store backed by a single sqlite file through bun.
type SQLiteStore struct {
	db *bun.DB
}

// NewSQLiteStore opens (creating if necessary) a sqlite database at path
// and ensures the kv_entries table exists.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := db.NewCreateTable().Model((*kvRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, errors.Wrap(err, "create kv_entries table")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	row := new(kvRow)
	err := s.db.NewSelect().Model(row).Where("key = ?", key).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, errors.Wrap(err, "get kv entry")
	}
	return row.Value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	row := &kvRow{Key: key, Value: value, UpdatedAt: time.Now()}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "set kv entry")
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.NewDelete().Model((*kvRow)(nil)).Where("key = ?", key).Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "delete kv entry")
	}
	return nil
}

func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	var rows []kvRow
	if err := s.db.NewSelect().Model(&rows).Column("key").Scan(ctx); err != nil {
		return nil, errors.Wrap(err, "list kv keys")
	}
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = r.Key
	}
	return keys, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
