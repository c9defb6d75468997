package store

import (
	"context"
	"fmt"

	"manga4deck/pkg/models"
)

// AddLibrary caches one library row, keyed by the remote library id.
func (s *Store) AddLibrary(ctx context.Context, lib models.Library) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO libraries (library_id, title)
		VALUES (?, ?)
		ON CONFLICT(library_id) DO UPDATE SET title = excluded.title
	`, lib.ID, lib.Title)
	if err != nil {
		return fmt.Errorf("upsert library %d: %w", lib.ID, err)
	}
	return nil
}

// Libraries lists all cached libraries.
func (s *Store) Libraries(ctx context.Context) ([]models.Library, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT library_id, title FROM libraries ORDER BY library_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list libraries: %w", err)
	}
	defer rows.Close()

	out := make([]models.Library, 0, 4)
	for rows.Next() {
		var lib models.Library
		if err := rows.Scan(&lib.ID, &lib.Title); err != nil {
			return nil, fmt.Errorf("scan library: %w", err)
		}
		out = append(out, lib)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows libraries: %w", err)
	}
	return out, nil
}
