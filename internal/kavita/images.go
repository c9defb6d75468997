package kavita

import (
	"context"
	"fmt"
)

// SeriesCover fetches the cover image bytes for a series. Image
// endpoints authenticate by api key instead of the bearer token.
func (c *Client) SeriesCover(ctx context.Context, seriesID int) ([]byte, error) {
	path := fmt.Sprintf("image/series-cover?seriesId=%d&apiKey=%s", seriesID, c.settings.APIKey)
	return c.getBytes(ctx, "fetch series cover", path)
}

// VolumeCover fetches the cover image bytes for a volume.
func (c *Client) VolumeCover(ctx context.Context, volumeID int) ([]byte, error) {
	path := fmt.Sprintf("image/volume-cover?volumeId=%d&apiKey=%s", volumeID, c.settings.APIKey)
	return c.getBytes(ctx, "fetch volume cover", path)
}

// Picture fetches one page image of a chapter.
func (c *Client) Picture(ctx context.Context, chapterID, page int) ([]byte, error) {
	path := fmt.Sprintf("reader/image?chapterId=%d&apiKey=%s&page=%d", chapterID, c.settings.APIKey, page)
	return c.getBytes(ctx, "fetch page", path)
}
