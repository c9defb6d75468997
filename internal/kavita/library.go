package kavita

import (
	"context"
	"fmt"

	"manga4deck/pkg/models"
)

type libraryEntry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Libraries lists the server's top-level libraries.
func (c *Client) Libraries(ctx context.Context) ([]models.Library, error) {
	var entries []libraryEntry
	if err := c.getJSON(ctx, "list libraries", "library/libraries", &entries); err != nil {
		return nil, err
	}

	out := make([]models.Library, 0, len(entries))
	for _, e := range entries {
		out = append(out, models.Library{ID: e.ID, Title: e.Name})
	}
	return out, nil
}

type seriesEntry struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	PagesRead int    `json:"pagesRead"`
	Pages     int    `json:"pages"`
}

// seriesFilter is the v2 filter statement selecting series by library.
// Field 19 is the library id; comparison 0 is equality.
type seriesFilter struct {
	Statements  []filterStatement `json:"statements"`
	Combination int               `json:"combination"`
	LimitTo     int               `json:"limitTo"`
}

type filterStatement struct {
	Comparison int    `json:"comparison"`
	Field      int    `json:"field"`
	Value      string `json:"value"`
}

// Series lists the series of one library, with read reported as a
// percentage of total pages.
func (c *Client) Series(ctx context.Context, libraryID int) ([]models.Series, error) {
	filter := seriesFilter{
		Statements: []filterStatement{
			{Comparison: 0, Field: 19, Value: fmt.Sprintf("%d", libraryID)},
		},
		Combination: 1,
		LimitTo:     0,
	}

	var entries []seriesEntry
	if err := c.postJSON(ctx, "list series", "series/v2", filter, &entries); err != nil {
		return nil, err
	}

	out := make([]models.Series, 0, len(entries))
	for _, e := range entries {
		out = append(out, models.Series{
			ID:    e.ID,
			Title: e.Name,
			Read:  models.ReadPercent(e.PagesRead, e.Pages),
			Pages: e.Pages,
		})
	}
	return out, nil
}

type seriesDetail struct {
	Volumes []struct {
		ID        int    `json:"id"`
		Name      string `json:"name"`
		PagesRead int    `json:"pagesRead"`
		Pages     int    `json:"pages"`
		Chapters  []struct {
			ID int `json:"id"`
		} `json:"chapters"`
	} `json:"volumes"`
}

// Volumes lists the volumes of one series in server order. Volumes
// without chapters are dropped; only the first chapter id is retained
// since page images are addressed by chapter.
func (c *Client) Volumes(ctx context.Context, seriesID int) ([]models.Volume, error) {
	var detail seriesDetail
	path := fmt.Sprintf("series/series-detail?seriesId=%d", seriesID)
	if err := c.getJSON(ctx, "list volumes", path, &detail); err != nil {
		return nil, err
	}

	out := make([]models.Volume, 0, len(detail.Volumes))
	for _, vol := range detail.Volumes {
		if len(vol.Chapters) == 0 {
			continue
		}
		out = append(out, models.Volume{
			ID:        vol.ID,
			SeriesID:  seriesID,
			ChapterID: vol.Chapters[0].ID,
			Title:     vol.Name,
			Read:      vol.PagesRead,
			Pages:     vol.Pages,
		})
	}
	return out, nil
}
