package engine

import (
	"context"
	"fmt"

	"manga4deck/pkg/models"
)

// Library lists libraries: from the server when online (persisting the
// rows for offline use), from the cache otherwise.
func (e *Engine) Library(ctx context.Context) ([]models.Library, error) {
	client, offline := e.gateway()
	if offline {
		return e.store.Libraries(ctx)
	}

	libs, err := client.Libraries(ctx)
	if err != nil {
		return nil, err
	}
	for _, lib := range libs {
		if err := e.store.AddLibrary(ctx, lib); err != nil {
			return nil, err
		}
	}
	return libs, nil
}

// Series lists the series of a library. Online results are not
// persisted here: a series row in the cache marks a completed or
// started bulk-cache run, so plain browsing must not create rows.
func (e *Engine) Series(ctx context.Context, libraryID int) ([]models.Series, error) {
	client, offline := e.gateway()
	if offline {
		return e.store.ListSeries(ctx)
	}
	return client.Series(ctx, libraryID)
}

// Volumes lists the volumes of a series, server order when online.
func (e *Engine) Volumes(ctx context.Context, seriesID int) ([]models.Volume, error) {
	client, offline := e.gateway()
	if offline {
		return e.store.VolumesBySeries(ctx, seriesID)
	}
	return client.Volumes(ctx, seriesID)
}

// SeriesCover returns the local path of a series cover, downloading it
// once when necessary. Covers are immutable: a cache hit wins
// regardless of connectivity. Offline misses return "".
func (e *Engine) SeriesCover(ctx context.Context, seriesID int) (string, error) {
	path, err := e.store.SeriesCover(ctx, seriesID)
	if err != nil || path != "" {
		return path, err
	}

	client, offline := e.gateway()
	if offline {
		return "", nil
	}

	data, err := client.SeriesCover(ctx, seriesID)
	if err != nil {
		return "", err
	}
	file, err := e.files.Write(data)
	if err != nil {
		return "", fmt.Errorf("cache series cover %d: %w", seriesID, err)
	}
	if err := e.store.AddSeriesCover(ctx, seriesID, file); err != nil {
		return "", err
	}
	// A concurrent fetch may have won the upsert; the indexed row is
	// the canonical answer.
	return e.store.SeriesCover(ctx, seriesID)
}

// VolumeCover mirrors SeriesCover for volume covers.
func (e *Engine) VolumeCover(ctx context.Context, volumeID int) (string, error) {
	path, err := e.store.VolumeCover(ctx, volumeID)
	if err != nil || path != "" {
		return path, err
	}

	client, offline := e.gateway()
	if offline {
		return "", nil
	}

	data, err := client.VolumeCover(ctx, volumeID)
	if err != nil {
		return "", err
	}
	file, err := e.files.Write(data)
	if err != nil {
		return "", fmt.Errorf("cache volume cover %d: %w", volumeID, err)
	}
	if err := e.store.AddVolumeCover(ctx, volumeID, file); err != nil {
		return "", err
	}
	return e.store.VolumeCover(ctx, volumeID)
}

// Picture returns the local path of one page image, downloading it at
// most once. Offline misses return "".
func (e *Engine) Picture(ctx context.Context, chapterID, page int) (string, error) {
	path, err := e.store.Picture(ctx, chapterID, page)
	if err != nil || path != "" {
		return path, err
	}

	client, offline := e.gateway()
	if offline {
		return "", nil
	}

	data, err := client.Picture(ctx, chapterID, page)
	if err != nil {
		return "", err
	}
	file, err := e.files.Write(data)
	if err != nil {
		return "", fmt.Errorf("cache page %d/%d: %w", chapterID, page, err)
	}
	if err := e.store.AddPicture(ctx, chapterID, page, file); err != nil {
		return "", err
	}
	return e.store.Picture(ctx, chapterID, page)
}

// IsSeriesCached reports whether a bulk-cache run recorded the series.
func (e *Engine) IsSeriesCached(ctx context.Context, seriesID int) (bool, error) {
	return e.store.IsSeriesCached(ctx, seriesID)
}

// IsVolumeCached reports whether the volume is cached locally.
func (e *Engine) IsVolumeCached(ctx context.Context, volumeID int) (bool, error) {
	return e.store.IsVolumeCached(ctx, volumeID)
}
