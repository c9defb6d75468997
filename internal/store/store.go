// Package store is the durable cache: library metadata, downloaded
// image indices and the pending-progress outbox, all in one sqlite
// database. Every error returned from this package indicates a local
// storage failure, never missing connectivity.
package store

import (
	"context"
	"database/sql"
	"fmt"
)

type Store struct {
	DB *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{DB: db}
}

// Clean removes every cached row in a single transaction. Settings are
// kept: wiping the image cache must not forget the server connection.
func (s *Store) Clean(ctx context.Context) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clean: %w", err)
	}
	defer tx.Rollback()

	tables := []string{
		"libraries",
		"series",
		"volumes",
		"series_covers",
		"volume_covers",
		"manga_pictures",
		"read_progress",
	}
	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("clean %s: %w", t, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clean: %w", err)
	}
	return nil
}
