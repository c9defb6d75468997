package store

import (
	"context"
	"fmt"

	"manga4deck/pkg/models"
)

// AddVolume upserts one volume row keyed by the remote volume id.
func (s *Store) AddVolume(ctx context.Context, v models.Volume) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO volumes (volume_id, series_id, chapter_id, title, read, pages)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(volume_id) DO UPDATE SET
			read = excluded.read,
			pages = excluded.pages
	`, v.ID, v.SeriesID, v.ChapterID, v.Title, v.Read, v.Pages)
	if err != nil {
		return fmt.Errorf("upsert volume %d: %w", v.ID, err)
	}
	return nil
}

// VolumesBySeries lists cached volumes belonging to one series.
func (s *Store) VolumesBySeries(ctx context.Context, seriesID int) ([]models.Volume, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT volume_id, series_id, chapter_id, title, read, pages
		FROM volumes
		WHERE series_id = ?
		ORDER BY volume_id
	`, seriesID)
	if err != nil {
		return nil, fmt.Errorf("list volumes for series %d: %w", seriesID, err)
	}
	defer rows.Close()

	out := make([]models.Volume, 0, 8)
	for rows.Next() {
		var v models.Volume
		if err := rows.Scan(&v.ID, &v.SeriesID, &v.ChapterID, &v.Title, &v.Read, &v.Pages); err != nil {
			return nil, fmt.Errorf("scan volume: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows volumes: %w", err)
	}
	return out, nil
}

// IsVolumeCached reports whether the volume row exists locally.
func (s *Store) IsVolumeCached(ctx context.Context, volumeID int) (bool, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM volumes WHERE volume_id = ?
	`, volumeID)

	var n int
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("count volume %d: %w", volumeID, err)
	}
	return n > 0, nil
}

// SetVolumeRead updates the cached read counter for a volume. A page
// of 0 marks the volume fully read.
func (s *Store) SetVolumeRead(ctx context.Context, volumeID, seriesID, page int) error {
	var err error
	if page > 0 {
		_, err = s.DB.ExecContext(ctx, `
			UPDATE volumes SET read = ?
			WHERE volume_id = ? AND series_id = ?
		`, page, volumeID, seriesID)
	} else {
		_, err = s.DB.ExecContext(ctx, `
			UPDATE volumes SET read = pages
			WHERE volume_id = ? AND series_id = ?
		`, volumeID, seriesID)
	}
	if err != nil {
		return fmt.Errorf("set volume %d read: %w", volumeID, err)
	}
	return nil
}
