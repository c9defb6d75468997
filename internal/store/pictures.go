package store

import (
	"context"
	"database/sql"
	"fmt"
)

// AddPicture records the local file holding one page image, keyed by
// (chapter, page). A duplicate fetch never creates a second row.
func (s *Store) AddPicture(ctx context.Context, chapterID, page int, filepath string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO manga_pictures (chapter_id, page, filepath)
		VALUES (?, ?, ?)
		ON CONFLICT(chapter_id, page) DO NOTHING
	`, chapterID, page, filepath)
	if err != nil {
		return fmt.Errorf("upsert picture %d/%d: %w", chapterID, page, err)
	}
	return nil
}

// Picture returns the cached file path for a page, "" on miss.
func (s *Store) Picture(ctx context.Context, chapterID, page int) (string, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT filepath FROM manga_pictures WHERE chapter_id = ? AND page = ?
	`, chapterID, page)

	var path string
	if err := row.Scan(&path); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("get picture %d/%d: %w", chapterID, page, err)
	}
	return path, nil
}
