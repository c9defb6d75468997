package store

import (
	"context"
	"database/sql"
	"fmt"
)

// AddSeriesCover records the local file holding a series cover. The
// unique key absorbs the rare race where an interactive read and the
// worker download the same cover at once.
func (s *Store) AddSeriesCover(ctx context.Context, seriesID int, filepath string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO series_covers (series_id, filepath)
		VALUES (?, ?)
		ON CONFLICT(series_id) DO NOTHING
	`, seriesID, filepath)
	if err != nil {
		return fmt.Errorf("upsert series cover %d: %w", seriesID, err)
	}
	return nil
}

// SeriesCover returns the cached cover path for a series, "" on miss.
func (s *Store) SeriesCover(ctx context.Context, seriesID int) (string, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT filepath FROM series_covers WHERE series_id = ?
	`, seriesID)

	var path string
	if err := row.Scan(&path); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("get series cover %d: %w", seriesID, err)
	}
	return path, nil
}

// AddVolumeCover records the local file holding a volume cover.
func (s *Store) AddVolumeCover(ctx context.Context, volumeID int, filepath string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO volume_covers (volume_id, filepath)
		VALUES (?, ?)
		ON CONFLICT(volume_id) DO NOTHING
	`, volumeID, filepath)
	if err != nil {
		return fmt.Errorf("upsert volume cover %d: %w", volumeID, err)
	}
	return nil
}

// VolumeCover returns the cached cover path for a volume, "" on miss.
func (s *Store) VolumeCover(ctx context.Context, volumeID int) (string, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT filepath FROM volume_covers WHERE volume_id = ?
	`, volumeID)

	var path string
	if err := row.Scan(&path); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("get volume cover %d: %w", volumeID, err)
	}
	return path, nil
}
