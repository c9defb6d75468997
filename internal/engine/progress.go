package engine

import (
	"context"

	"manga4deck/pkg/models"
)

// SaveProgress records a reading position. Online it goes straight to
// the server; offline it is queued in the outbox and mirrored into the
// cached counters so offline listings stay consistent with what will
// eventually be pushed.
func (e *Engine) SaveProgress(ctx context.Context, rec models.ProgressRecord) error {
	client, offline := e.gateway()
	if !offline {
		return client.PushProgress(ctx, rec)
	}

	if err := e.store.QueueProgress(ctx, rec); err != nil {
		return err
	}
	if err := e.store.SetVolumeRead(ctx, rec.VolumeID, rec.SeriesID, rec.Page); err != nil {
		return err
	}
	return e.store.SetSeriesReadPages(ctx, rec.SeriesID, rec.Page)
}

// SetVolumeRead marks a volume read or unread. Offline, only the read
// direction is mirrored locally; unread has nothing cached to undo.
func (e *Engine) SetVolumeRead(ctx context.Context, seriesID, volumeID int, read bool) error {
	client, offline := e.gateway()
	if !offline {
		return client.MarkVolumeRead(ctx, seriesID, volumeID, read)
	}
	if read {
		return e.store.SetVolumeRead(ctx, volumeID, seriesID, 0)
	}
	return nil
}

// UpdateServerLibrary triggers a remote library rescan. Offline it is
// a no-op, matching the rest of the write surface.
func (e *Engine) UpdateServerLibrary(ctx context.Context) error {
	client, offline := e.gateway()
	if offline {
		return nil
	}
	return client.ScanLibrary(ctx)
}

// reconcile drains the progress outbox in insertion order, then clears
// it only once every record was accepted. A partial failure keeps the
// whole outbox for the next reconnection.
func (e *Engine) reconcile(ctx context.Context) error {
	client, offline := e.gateway()
	if offline {
		return nil
	}

	pending, err := e.store.PendingProgress(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	for _, rec := range pending {
		if err := client.PushProgress(ctx, rec); err != nil {
			return err
		}
	}

	e.log.Info().Int("records", len(pending)).Msg("replayed offline progress")
	return e.store.ClearProgress(ctx)
}
