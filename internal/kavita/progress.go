package kavita

import (
	"context"

	"manga4deck/pkg/models"
)

// PushProgress reports a reading position to the server.
func (c *Client) PushProgress(ctx context.Context, rec models.ProgressRecord) error {
	body := map[string]int{
		"seriesId":  rec.SeriesID,
		"volumeId":  rec.VolumeID,
		"chapterId": rec.ChapterID,
		"pageNum":   rec.Page,
	}
	return c.postJSON(ctx, "push progress", "reader/progress", body, nil)
}

// MarkVolumeRead flags a whole volume read or unread on the server.
func (c *Client) MarkVolumeRead(ctx context.Context, seriesID, volumeID int, read bool) error {
	path := "reader/mark-volume-read"
	op := "mark volume read"
	if !read {
		path = "reader/mark-volume-unread"
		op = "mark volume unread"
	}
	body := map[string]int{
		"seriesId": seriesID,
		"volumeId": volumeID,
	}
	return c.postJSON(ctx, op, path, body, nil)
}

// ScanLibrary asks the server to rescan all libraries.
func (c *Client) ScanLibrary(ctx context.Context) error {
	body := map[string]bool{"force": true}
	return c.postJSON(ctx, "scan library", "library/scan-all", body, nil)
}
