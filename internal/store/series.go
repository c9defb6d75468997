package store

import (
	"context"
	"fmt"

	"manga4deck/pkg/models"
)

// AddSeries upserts one series row. Read and pages are absolute page
// counts; only the mutable counters change on conflict, so a repeated
// bulk-cache run never duplicates the row.
func (s *Store) AddSeries(ctx context.Context, seriesID int, title string, read, pages int) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO series (series_id, title, read, pages)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(series_id) DO UPDATE SET
			read = excluded.read,
			pages = excluded.pages
	`, seriesID, title, read, pages)
	if err != nil {
		return fmt.Errorf("upsert series %d: %w", seriesID, err)
	}
	return nil
}

// ListSeries returns all cached series with read reported as a
// percentage, matching what the server returns when online.
func (s *Store) ListSeries(ctx context.Context) ([]models.Series, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT series_id, title, read, pages FROM series ORDER BY series_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()

	out := make([]models.Series, 0, 16)
	for rows.Next() {
		var (
			sr          models.Series
			read, pages int
		)
		if err := rows.Scan(&sr.ID, &sr.Title, &read, &pages); err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		sr.Read = models.ReadPercent(read, pages)
		sr.Pages = pages
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows series: %w", err)
	}
	return out, nil
}

// IsSeriesCached reports whether a bulk-cache run has recorded this
// series. The row is written before page downloads start, so partially
// cached series also count.
func (s *Store) IsSeriesCached(ctx context.Context, seriesID int) (bool, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM series WHERE series_id = ?
	`, seriesID)

	var n int
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("count series %d: %w", seriesID, err)
	}
	return n > 0, nil
}

// SetSeriesReadPages mirrors an offline progress write into the cached
// series counter. Missing rows are left alone.
func (s *Store) SetSeriesReadPages(ctx context.Context, seriesID, page int) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE series SET read = ? WHERE series_id = ?
	`, page, seriesID)
	if err != nil {
		return fmt.Errorf("set series %d read pages: %w", seriesID, err)
	}
	return nil
}
