package store

import (
	"context"
	"fmt"

	"manga4deck/pkg/models"
)

// QueueProgress upserts a pending progress record. Repeated page turns
// within the same chapter collapse to the latest page; insertion order
// of distinct keys is preserved through the implicit rowid.
func (s *Store) QueueProgress(ctx context.Context, rec models.ProgressRecord) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO read_progress (series_id, volume_id, chapter_id, page)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(series_id, volume_id, chapter_id) DO UPDATE SET
			page = excluded.page
	`, rec.SeriesID, rec.VolumeID, rec.ChapterID, rec.Page)
	if err != nil {
		return fmt.Errorf("queue progress %d/%d/%d: %w", rec.SeriesID, rec.VolumeID, rec.ChapterID, err)
	}
	return nil
}

// PendingProgress returns queued records in insertion order.
func (s *Store) PendingProgress(ctx context.Context) ([]models.ProgressRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT series_id, volume_id, chapter_id, page
		FROM read_progress
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	out := make([]models.ProgressRecord, 0, 8)
	for rows.Next() {
		var rec models.ProgressRecord
		if err := rows.Scan(&rec.SeriesID, &rec.VolumeID, &rec.ChapterID, &rec.Page); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows progress: %w", err)
	}
	return out, nil
}

// ClearProgress empties the outbox after a successful replay.
func (s *Store) ClearProgress(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM read_progress`); err != nil {
		return fmt.Errorf("clear progress: %w", err)
	}
	return nil
}
