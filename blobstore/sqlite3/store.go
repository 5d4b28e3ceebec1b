// Package sqlite3 persists blobs in a single SQLite table, keyed by name.
package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/postdeck/postdeck/blobstore"
)

const tableBlobs = "blobs"

const (
	blobFieldKey       = "key"
	blobFieldValue     = "value"
	blobFieldUpdatedAt = "updated_at"
)

type Store struct {
	db *sql.DB
}

var _ blobstore.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (store *Store) Get(ctx context.Context, key string) ([]byte, error) {
	q := sq.Select(blobFieldValue).
		From(tableBlobs).
		Where(sq.Eq{blobFieldKey: key})

	q = q.RunWith(store.db)

	var value []byte

	err := q.QueryRowContext(ctx).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, blobstore.KeyNotFoundError{Key: key}
		}

		return nil, fmt.Errorf("failed to scan blob: %w", err)
	}

	return value, nil
}

func (store *Store) Set(ctx context.Context, key string, value []byte) error {
	q := sq.Insert(tableBlobs).
		Columns(blobFieldKey, blobFieldValue, blobFieldUpdatedAt).
		Values(key, value, time.Now()).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at")

	q = q.RunWith(store.db)

	_, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec upsert: %w", err)
	}

	return nil
}

func (store *Store) Delete(ctx context.Context, key string) error {
	q := sq.Delete(tableBlobs).
		Where(sq.Eq{blobFieldKey: key})

	q = q.RunWith(store.db)

	_, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec delete: %w", err)
	}

	return nil
}
