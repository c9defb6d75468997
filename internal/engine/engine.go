// Package engine is the offline-first core: it decides per call
// whether to serve from the durable cache or the Kavita server, runs
// the background bulk-cache worker and replays queued progress on
// reconnect.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"manga4deck/internal/filecache"
	"manga4deck/internal/kavita"
	"manga4deck/internal/store"
)

// Config carries the startup inputs. Settings act as a fallback: values
// already persisted in the server_settings table win over them.
type Config struct {
	Settings kavita.Settings
	CacheDir string
}

type cacheJob struct {
	SeriesID int
	Title    string
}

type Engine struct {
	store *store.Store
	files *filecache.Dir
	log   zerolog.Logger

	mu       sync.Mutex
	client   *kavita.Client
	offline  bool
	queue    []cacheJob
	onVolume func(title string)

	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds the engine, performs the startup login (a failure means
// starting offline, not a startup error), replays any queued progress
// when online and starts the bulk-cache worker.
func New(db *sql.DB, cfg Config, logger zerolog.Logger) (*Engine, error) {
	files, err := filecache.New(cfg.CacheDir)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		store:  store.New(db),
		files:  files,
		log:    logger,
		wake:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	settings, err := e.resolveSettings(ctx, cfg.Settings)
	if err != nil {
		cancel()
		return nil, err
	}

	e.client = kavita.NewClient(settings)
	if err := e.client.Login(ctx); err != nil {
		// Any startup login failure means offline mode, never a
		// process abort.
		e.offline = true
		e.log.Warn().Err(err).Str("server", settings.IP).Msg("startup login failed, running offline")
	} else {
		e.log.Info().
			Str("server", settings.IP).
			Str("user", e.client.LoggedAs()).
			Time("token_expiry", e.client.TokenExpiry()).
			Msg("connected")
		if err := e.reconcile(ctx); err != nil {
			e.log.Warn().Err(err).Msg("progress replay failed, outbox kept")
		}
	}

	go e.runWorker()
	return e, nil
}

// Close stops the worker and waits for it to finish its current unit
// of work.
func (e *Engine) Close() {
	e.cancel()
	<-e.done
}

// Offline reports the current connectivity state.
func (e *Engine) Offline() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.offline
}

// gateway returns the current client and connectivity under the lock.
// Network calls happen outside the lock so a slow exchange cannot
// stall the worker or the interactive path.
func (e *Engine) gateway() (*kavita.Client, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client, e.offline
}

// Status is the queryable connectivity and cache summary.
type Status struct {
	Online       bool      `json:"online"`
	IP           string    `json:"ip"`
	LoggedAs     string    `json:"logged_as"`
	CacheSizeGiB float64   `json:"cache_gib"`
	TokenExpiry  time.Time `json:"token_expiry,omitempty"`
}

func (e *Engine) Status() Status {
	client, offline := e.gateway()

	st := Status{
		Online:      !offline,
		IP:          client.Settings().IP,
		LoggedAs:    client.LoggedAs(),
		TokenExpiry: client.TokenExpiry(),
	}
	if size, err := e.files.Size(); err == nil {
		st.CacheSizeGiB = float64(size) / (1 << 30)
	}
	return st
}

// ClearCache wipes all cached rows and downloaded files. File removal
// is best-effort; a row wipe failure is a storage failure and surfaces.
func (e *Engine) ClearCache(ctx context.Context) error {
	if err := e.files.Clear(); err != nil {
		e.log.Warn().Err(err).Msg("cache file removal incomplete")
	}
	if err := e.store.Clean(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}
