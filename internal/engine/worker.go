package engine

import (
	"context"

	"github.com/google/uuid"

	"manga4deck/pkg/models"
)

// CacheSeries enqueues a bulk-cache job for a whole series. onVolume,
// when non-nil, replaces the registered completion callback; it is
// invoked once per finished volume from the worker goroutine and must
// be safe to call there. Enqueueing never blocks.
func (e *Engine) CacheSeries(seriesID int, title string, onVolume func(title string)) {
	e.mu.Lock()
	e.queue = append(e.queue, cacheJob{SeriesID: seriesID, Title: title})
	if onVolume != nil {
		e.onVolume = onVolume
	}
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *Engine) popJob() (cacheJob, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return cacheJob{}, false
	}
	job := e.queue[0]
	e.queue = e.queue[1:]
	return job, true
}

func (e *Engine) volumeCallback() func(string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.onVolume
}

// runWorker drains the job queue one series at a time. It sleeps on
// the wake channel while idle and exits when the engine closes.
func (e *Engine) runWorker() {
	defer close(e.done)

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-e.wake:
		}

		for {
			job, ok := e.popJob()
			if !ok {
				break
			}
			if err := e.runJob(job); err != nil {
				if e.ctx.Err() != nil {
					return
				}
				// The job aborts, partial progress stays cached; the
				// caller re-enqueues to retry.
				e.log.Warn().Err(err).Int("series", job.SeriesID).Msg("bulk-cache job aborted")
			}
		}
	}
}

// runJob downloads every uncached page of a series. The series row is
// upserted before any page download so partial progress is visible
// immediately; fully read volumes are skipped.
func (e *Engine) runJob(job cacheJob) error {
	jobID := uuid.New().String()[:8]
	log := e.log.With().Str("job", jobID).Int("series", job.SeriesID).Logger()
	log.Info().Str("title", job.Title).Msg("bulk-cache start")

	ctx := e.ctx

	volumes, err := e.Volumes(ctx, job.SeriesID)
	if err != nil {
		return err
	}

	var read, pages int
	for _, v := range volumes {
		read += v.Read
		pages += v.Pages
	}
	if err := e.store.AddSeries(ctx, job.SeriesID, job.Title, read, pages); err != nil {
		return err
	}

	for _, v := range volumes {
		if v.Pages == v.Read {
			continue
		}
		if err := e.cacheVolume(ctx, v); err != nil {
			return err
		}
		if cb := e.volumeCallback(); cb != nil {
			cb(v.Title)
		}
	}

	log.Info().Msg("bulk-cache done")
	return nil
}

func (e *Engine) cacheVolume(ctx context.Context, v models.Volume) error {
	for page := 1; page <= v.Pages; page++ {
		// Shutdown interrupts within one page-fetch latency.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, err := e.Picture(ctx, v.ChapterID, page); err != nil {
			return err
		}
	}
	return e.store.AddVolume(ctx, v)
}
