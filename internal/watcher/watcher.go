package watcher

import (
	"context"
	"strconv"
	"sync"
	"time"

	"cardapio/internal/domain"
	"cardapio/internal/logging"
	"cardapio/internal/models"

	"github.com/rs/zerolog"
)

const (
	DefaultLastUpdateInterval = 3 * time.Second
	DefaultSyncInterval       = 10 * time.Second
)

// MenuSource is the read side of the API the watcher polls.
type MenuSource interface {
	Menu(ctx context.Context) ([]models.MenuItem, error)
	Fingerprint(ctx context.Context) (models.Fingerprint, error)
}

// Renderer displays the current menu.
type Renderer interface {
	Render(items []models.MenuItem) error
}

type RendererFunc func(items []models.MenuItem) error

func (f RendererFunc) Render(items []models.MenuItem) error { return f(items) }

type Options struct {
	// InstanceID marks notifications whose item changes should become overrides.
	InstanceID         string
	LastUpdateInterval time.Duration
	SyncInterval       time.Duration
	Logger             *zerolog.Logger
}

// Watcher keeps a rendered menu converged with the server. It reacts to bus
// notifications, lastUpdate changes and hash changes, and every reaction is a
// full re-fetch so repeated signals are harmless.
type Watcher struct {
	source    MenuSource
	bus       domain.NotificationBus
	renderer  Renderer
	overrides *Overrides
	opts      Options
	logger    *zerolog.Logger

	mu         sync.Mutex
	lastUpdate string
	lastHash   string
	primed     bool
	renders    int
}

// New builds a watcher. bus may be nil, in which case only the hash poll runs.
func New(source MenuSource, bus domain.NotificationBus, renderer Renderer, opts Options) *Watcher {
	if opts.LastUpdateInterval <= 0 {
		opts.LastUpdateInterval = DefaultLastUpdateInterval
	}
	if opts.SyncInterval <= 0 {
		opts.SyncInterval = DefaultSyncInterval
	}
	return &Watcher{
		source:    source,
		bus:       bus,
		renderer:  renderer,
		overrides: NewOverrides(),
		opts:      opts,
		logger:    logging.Component(opts.Logger, "watcher"),
	}
}

func (w *Watcher) Overrides() *Overrides { return w.overrides }

// Renders returns how many times the menu has been rendered.
func (w *Watcher) Renders() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.renders
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	var notes <-chan models.UpdateNotification
	if w.bus != nil {
		baseline, err := w.bus.LastUpdate(ctx)
		if err != nil {
			w.logger.Warn().Err(err).Msg("Failed to read lastUpdate baseline")
		}
		w.mu.Lock()
		w.lastUpdate = baseline
		w.mu.Unlock()

		notes, err = w.bus.Subscribe(ctx)
		if err != nil {
			w.logger.Warn().Err(err).Msg("Subscription unavailable, relying on polling")
			notes = nil
		}
	}

	if err := w.Refresh(ctx); err != nil {
		w.logger.Warn().Err(err).Msg("Initial menu fetch failed")
	}

	updateTicker := time.NewTicker(w.opts.LastUpdateInterval)
	defer updateTicker.Stop()
	syncTicker := time.NewTicker(w.opts.SyncInterval)
	defer syncTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-notes:
			if !ok {
				notes = nil
				continue
			}
			w.HandleNotification(ctx, n)
		case <-updateTicker.C:
			w.pollLastUpdate(ctx)
		case <-syncTicker.C:
			w.pollSync(ctx)
		}
	}
}

// HandleNotification applies own-instance item changes and re-renders.
func (w *Watcher) HandleNotification(ctx context.Context, n models.UpdateNotification) {
	if n.Type != "" && n.Type != models.NotificationTypeMenuUpdated {
		return
	}
	if n.InstanceID != "" && n.InstanceID == w.opts.InstanceID && len(n.ItemChanges) > 0 {
		w.overrides.Set(n.ItemChanges)
	}

	w.mu.Lock()
	if n.Timestamp > 0 {
		w.lastUpdate = strconv.FormatInt(n.Timestamp, 10)
	}
	w.mu.Unlock()

	if err := w.Refresh(ctx); err != nil {
		w.logger.Warn().Err(err).Int64("timestamp", n.Timestamp).Msg("Menu refresh after notification failed")
	}
}

func (w *Watcher) pollLastUpdate(ctx context.Context) {
	if w.bus == nil {
		return
	}
	v, err := w.bus.LastUpdate(ctx)
	if err != nil {
		w.logger.Debug().Err(err).Msg("lastUpdate poll failed")
		return
	}

	w.mu.Lock()
	changed := v != "" && v != w.lastUpdate
	w.mu.Unlock()
	if !changed {
		return
	}

	note := models.UpdateNotification{Type: models.NotificationTypeMenuUpdated}
	if latest, err := w.bus.Latest(ctx); err == nil && latest != nil && strconv.FormatInt(latest.Timestamp, 10) == v {
		note = *latest
	} else if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
		note.Timestamp = ts
	}
	w.HandleNotification(ctx, note)

	w.mu.Lock()
	w.lastUpdate = v
	w.mu.Unlock()
}

func (w *Watcher) pollSync(ctx context.Context) {
	fp, err := w.source.Fingerprint(ctx)
	if err != nil {
		w.logger.Debug().Err(err).Msg("Sync poll failed")
		return
	}

	w.mu.Lock()
	first := !w.primed
	changed := w.primed && fp.Hash != w.lastHash
	w.primed = true
	w.lastHash = fp.Hash
	w.mu.Unlock()

	if first || !changed {
		return
	}
	w.logger.Info().Str("hash", fp.Hash).Msg("Menu hash changed")
	if err := w.Refresh(ctx); err != nil {
		w.logger.Warn().Err(err).Msg("Menu refresh after hash change failed")
	}
}

// Refresh fetches the menu, applies overrides and renders.
func (w *Watcher) Refresh(ctx context.Context) error {
	items, err := w.source.Menu(ctx)
	if err != nil {
		return err
	}
	visible := w.overrides.Apply(items)
	if err := w.renderer.Render(visible); err != nil {
		return err
	}

	w.mu.Lock()
	w.renders++
	w.mu.Unlock()
	return nil
}
