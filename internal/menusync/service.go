package menusync

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"cardapio/internal/config"
	"cardapio/internal/domain"
	"cardapio/internal/logging"
	"cardapio/internal/metrics"
	"cardapio/internal/models"
	"cardapio/internal/retry"
	"cardapio/internal/telemetry"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"
)

// Sources a list can be served from, in fallback order.
const (
	SourceRemote   = "remote"
	SourceSnapshot = "snapshot"
	SourceStale    = "stale"
	SourceDefault  = "default"
)

const degradedWarning = "change saved locally only: menu backend unavailable"

var _ domain.MenuService = (*Service)(nil)

// SnapshotStore is the local copy consulted when the backend is down.
type SnapshotStore interface {
	Load() ([]models.MenuItem, error)
	Save(items []models.MenuItem) error
}

type Options struct {
	TTL              time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	BreakerThreshold int
	BreakerTimeout   time.Duration
	ReadRetry        retry.Policy
	WriteRetry       retry.Policy
	Snapshot         SnapshotStore
	Defaults         []models.MenuItem
	Logger           *zerolog.Logger
	Now              func() time.Time
}

// OptionsFromConfig maps the menu config section onto Options.
func OptionsFromConfig(cfg config.MenuConfig) Options {
	return Options{
		TTL:              cfg.CacheTTL,
		ReadTimeout:      cfg.ReadTimeout,
		WriteTimeout:     cfg.WriteTimeout,
		BreakerThreshold: cfg.BreakerThreshold,
		BreakerTimeout:   cfg.BreakerTimeout,
		ReadRetry:        retry.Policy{MaxAttempts: cfg.RetryAttempts, InitialDelay: cfg.ReadRetryDelay, BackoffFactor: 2},
		WriteRetry:       retry.Policy{MaxAttempts: cfg.RetryAttempts, InitialDelay: cfg.WriteRetryDelay, BackoffFactor: 2},
	}
}

type cacheEntry struct {
	items        []models.MenuItem
	loadedAt     time.Time
	lastModified time.Time
	hash         string
	valid        bool

	// gen counts local writes; a list read started before a write must not
	// overwrite it.
	gen uint64
}

// Service is the cached, breaker-guarded view of a MenuBackend. Cache and
// breaker state belong to one Service value; no lock is held across I/O.
type Service struct {
	backend domain.MenuBackend
	opts    Options
	breaker *CircuitBreaker
	logger  *zerolog.Logger
	group   singleflight.Group

	mu     sync.Mutex
	cache  cacheEntry
	source string
}

func NewService(backend domain.MenuBackend, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Second
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 5 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 8 * time.Second
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 30 * time.Second
	}
	return &Service{
		backend: backend,
		opts:    opts,
		breaker: NewCircuitBreaker(opts.BreakerThreshold, opts.BreakerTimeout, opts.Now),
		logger:  logging.Component(opts.Logger, "menusync"),
	}
}

// Breaker exposes the breaker for health reporting.
func (s *Service) Breaker() *CircuitBreaker { return s.breaker }

// ListAll returns every item, active or not. It never fails: when the backend
// is unreachable the snapshot, stale cache or defaults are served instead.
func (s *Service) ListAll(ctx context.Context) []models.MenuItem {
	s.mu.Lock()
	if s.cache.valid && s.opts.Now().Sub(s.cache.loadedAt) < s.opts.TTL {
		items := cloneItems(s.cache.items)
		s.mu.Unlock()
		return items
	}
	s.mu.Unlock()

	items, err := s.fetchRemote(ctx)
	if err == nil {
		return items
	}
	return s.fallback(err)
}

// ListActive returns only items a customer may see.
func (s *Service) ListActive(ctx context.Context) []models.MenuItem {
	all := s.ListAll(ctx)
	visible := make([]models.MenuItem, 0, len(all))
	for _, item := range all {
		if item.Visible() {
			visible = append(visible, item)
		}
	}
	return visible
}

func (s *Service) GetByID(ctx context.Context, id int64) (models.MenuItem, error) {
	s.ensureLoaded(ctx)
	if item, ok := s.lookup(id); ok {
		return item, nil
	}
	if s.remoteHealthy() {
		if err := s.Refresh(ctx); err == nil {
			if item, ok := s.lookup(id); ok {
				return item, nil
			}
		}
	}
	return models.MenuItem{}, notFoundError("get", id)
}

// Refresh reloads the cache from the backend, bypassing the TTL.
func (s *Service) Refresh(ctx context.Context) error {
	if _, err := s.fetchRemote(ctx); err != nil {
		return unavailableError("refresh", err)
	}
	return nil
}

// Invalidate expires the cache so the next read goes to the backend.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cache.loadedAt = time.Time{}
	s.mu.Unlock()
}

func (s *Service) Create(ctx context.Context, in models.MenuItemInput) (models.WriteResult, error) {
	if err := validateInput(in); err != nil {
		return models.WriteResult{}, err
	}
	item := in.Item()
	s.ensureLoaded(ctx)

	var created models.MenuItem
	err := s.call(ctx, "insert", s.opts.WriteTimeout, s.opts.WriteRetry, func(ctx context.Context) error {
		var err error
		created, err = s.backend.Insert(ctx, item)
		return err
	})
	if err == nil {
		s.mutate(func(items []models.MenuItem) []models.MenuItem {
			return append(items, created)
		})
		return models.WriteResult{Item: created}, nil
	}

	s.logger.Warn().Err(err).Str("name", item.Name).Msg("Remote insert failed, keeping item in local cache")
	now := s.opts.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	s.mutate(func(items []models.MenuItem) []models.MenuItem {
		item.ID = maxID(items) + 1
		return append(items, item)
	})
	metrics.IncDegradedWrite("create")
	return models.WriteResult{Item: item, Degraded: true, Warning: degradedWarning}, nil
}

func (s *Service) Patch(ctx context.Context, id int64, patch models.MenuItemPatch) (models.WriteResult, error) {
	if err := validatePatch(patch); err != nil {
		return models.WriteResult{}, err
	}
	if !s.present(ctx, id) {
		return models.WriteResult{}, notFoundError("patch", id)
	}

	var updated models.MenuItem
	err := s.call(ctx, "update", s.opts.WriteTimeout, s.opts.WriteRetry, func(ctx context.Context) error {
		var err error
		updated, err = s.backend.Update(ctx, id, patch)
		return err
	})
	switch {
	case err == nil:
		if _, ok := s.replace(id, func(models.MenuItem) models.MenuItem { return updated }); !ok {
			s.mutate(func(items []models.MenuItem) []models.MenuItem { return append(items, updated) })
		}
		return models.WriteResult{Item: updated}, nil
	case errors.Is(err, domain.ErrNotFound):
		s.remove(id)
		return models.WriteResult{}, notFoundError("patch", id)
	}

	s.logger.Warn().Err(err).Int64("id", id).Msg("Remote update failed, patching local cache")
	now := s.opts.Now()
	item, ok := s.replace(id, func(old models.MenuItem) models.MenuItem {
		next := patch.Apply(old)
		next.UpdatedAt = now
		return next
	})
	if !ok {
		return models.WriteResult{}, notFoundError("patch", id)
	}
	metrics.IncDegradedWrite("patch")
	return models.WriteResult{Item: item, Degraded: true, Warning: degradedWarning}, nil
}

// SoftRemove hides an item by clearing both visibility flags.
func (s *Service) SoftRemove(ctx context.Context, id int64) (models.WriteResult, error) {
	return s.Patch(ctx, id, models.Deactivation())
}

func (s *Service) HardRemove(ctx context.Context, id int64) (models.WriteResult, error) {
	s.ensureLoaded(ctx)
	if s.remoteHealthy() {
		if err := s.Refresh(ctx); err != nil {
			s.logger.Debug().Err(err).Msg("Resync before delete failed")
		}
	}
	item, ok := s.lookup(id)
	if !ok {
		return models.WriteResult{}, notFoundError("delete", id)
	}

	err := s.call(ctx, "delete", s.opts.WriteTimeout, s.opts.WriteRetry, func(ctx context.Context) error {
		return s.backend.Delete(ctx, id)
	})
	switch {
	case err == nil:
		s.remove(id)
		return models.WriteResult{Item: item}, nil
	case errors.Is(err, domain.ErrNotFound):
		s.remove(id)
		return models.WriteResult{}, notFoundError("delete", id)
	}

	s.logger.Warn().Err(err).Int64("id", id).Msg("Remote delete failed, removing from local cache only")
	s.remove(id)
	metrics.IncDegradedWrite("delete")
	return models.WriteResult{Item: item, Degraded: true, Warning: degradedWarning}, nil
}

// CurrentHash returns the cached hash, loading the menu when nothing is cached.
func (s *Service) CurrentHash(ctx context.Context) string {
	s.mu.Lock()
	if s.cache.valid {
		h := s.cache.hash
		s.mu.Unlock()
		return h
	}
	s.mu.Unlock()
	return ComputeHash(s.ListAll(ctx))
}

func (s *Service) SyncFingerprint(ctx context.Context) models.Fingerprint {
	items := s.ListAll(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	fp := models.Fingerprint{Hash: s.cache.hash, Timestamp: s.cache.lastModified, ItemCount: len(items)}
	if !s.cache.valid {
		fp.Hash = ComputeHash(items)
		fp.Timestamp = s.opts.Now()
	}
	return fp
}

func (s *Service) Status() models.SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.SyncStatus{
		Backend:      s.backend.Name(),
		Source:       s.source,
		BreakerState: s.breaker.State(),
		Failures:     s.breaker.Failures(),
		CachedItems:  len(s.cache.items),
		LastModified: s.cache.lastModified,
	}
}

// LastSource reports which source served the latest list.
func (s *Service) LastSource() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// fetchRemote lists the backend and installs the result. Concurrent callers
// share one call, which runs detached from any single caller's cancellation.
func (s *Service) fetchRemote(ctx context.Context) ([]models.MenuItem, error) {
	v, err, _ := s.group.Do("list", func() (any, error) {
		s.mu.Lock()
		gen := s.cache.gen
		s.mu.Unlock()

		var items []models.MenuItem
		err := s.call(context.WithoutCancel(ctx), "list", s.opts.ReadTimeout, s.opts.ReadRetry, func(ctx context.Context) error {
			var err error
			items, err = s.backend.List(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		if s.cache.gen != gen {
			// a local write landed while the list was in flight; keep it and
			// leave the TTL expired so the next read asks again
			current := cloneItems(s.cache.items)
			s.mu.Unlock()
			s.logger.Debug().Msg("Discarding list read that raced a local write")
			return current, nil
		}
		now := s.opts.Now()
		hash := ComputeHash(items)
		if !s.cache.valid || hash != s.cache.hash {
			s.cache.lastModified = now
		}
		s.cache.items = cloneItems(items)
		s.cache.loadedAt = now
		s.cache.hash = hash
		s.cache.valid = true
		s.source = SourceRemote
		s.mu.Unlock()

		metrics.IncCacheSource(SourceRemote)
		s.saveSnapshot(items)
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneItems(v.([]models.MenuItem)), nil
}

// fallback serves snapshot, then stale cache, then defaults. The cache keeps
// its old load time so the next read tries the backend again.
func (s *Service) fallback(cause error) []models.MenuItem {
	if s.opts.Snapshot != nil {
		items, err := s.opts.Snapshot.Load()
		if err == nil && len(items) > 0 {
			s.logger.Warn().Err(cause).Int("items", len(items)).Msg("Serving menu from local snapshot")
			return s.install(items, SourceSnapshot)
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error().Err(err).Msg("Failed to read menu snapshot")
		}
	}

	s.mu.Lock()
	if s.cache.valid && len(s.cache.items) > 0 {
		items := cloneItems(s.cache.items)
		s.source = SourceStale
		s.mu.Unlock()
		s.logger.Warn().Err(cause).Msg("Serving stale menu cache")
		metrics.IncCacheSource(SourceStale)
		return items
	}
	s.mu.Unlock()

	s.logger.Error().Err(cause).Msg("Serving default menu")
	return s.install(s.opts.Defaults, SourceDefault)
}

func (s *Service) install(items []models.MenuItem, source string) []models.MenuItem {
	s.mu.Lock()
	hash := ComputeHash(items)
	if !s.cache.valid || hash != s.cache.hash {
		s.cache.lastModified = s.opts.Now()
	}
	s.cache.items = cloneItems(items)
	s.cache.hash = hash
	s.cache.valid = true
	s.source = source
	s.mu.Unlock()

	metrics.IncCacheSource(source)
	return cloneItems(items)
}

// call runs one remote operation through the breaker with per-attempt timeout
// and retry. A not-found answer proves the backend is up and is not retried.
func (s *Service) call(ctx context.Context, op string, timeout time.Duration, policy retry.Policy, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	backend := s.backend.Name()
	if !s.breaker.Allow() {
		metrics.IncBackendCall(backend, op, "short_circuit")
		return errBreakerOpen
	}

	ctx, span := telemetry.Tracer().Start(ctx, "menu."+op)
	span.SetAttributes(attribute.String("menu.backend", backend))
	defer span.End()

	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		err := fn(attemptCtx)
		if errors.Is(err, domain.ErrNotFound) {
			return retry.Permanent(err)
		}
		return err
	})

	switch {
	case err == nil:
		s.breaker.Success()
		metrics.IncBackendCall(backend, op, "ok")
	case errors.Is(err, domain.ErrNotFound):
		s.breaker.Success()
		metrics.IncBackendCall(backend, op, "not_found")
	case ctx.Err() != nil:
		// the caller gave up; only per-attempt deadlines count against the backend
		s.breaker.Release()
		metrics.IncBackendCall(backend, op, "cancelled")
	default:
		s.breaker.Failure()
		metrics.IncBackendCall(backend, op, "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn().Err(err).Str("op", op).Str("breaker", s.breaker.State()).Msg("Menu backend call failed")
	}
	metrics.SetBreakerOpen(s.breaker.State() == StateOpen)
	return err
}

func (s *Service) remoteHealthy() bool {
	return s.breaker.State() != StateOpen
}

func (s *Service) ensureLoaded(ctx context.Context) {
	s.mu.Lock()
	valid := s.cache.valid
	s.mu.Unlock()
	if !valid {
		s.ListAll(ctx)
	}
}

// present reports whether id is cached, resyncing once on a miss.
func (s *Service) present(ctx context.Context, id int64) bool {
	s.ensureLoaded(ctx)
	if _, ok := s.lookup(id); ok {
		return true
	}
	if !s.remoteHealthy() {
		return false
	}
	if err := s.Refresh(ctx); err != nil {
		return false
	}
	_, ok := s.lookup(id)
	return ok
}

func (s *Service) lookup(id int64) (models.MenuItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.cache.items {
		if item.ID == id {
			return item, true
		}
	}
	return models.MenuItem{}, false
}

// mutate applies fn to the cached list, then rehashes and snapshots it.
func (s *Service) mutate(fn func(items []models.MenuItem) []models.MenuItem) {
	s.mu.Lock()
	s.cache.items = fn(s.cache.items)
	s.cache.gen++
	s.cache.hash = ComputeHash(s.cache.items)
	s.cache.lastModified = s.opts.Now()
	s.cache.valid = true
	items := cloneItems(s.cache.items)
	s.mu.Unlock()

	s.saveSnapshot(items)
}

// replace rewrites the cached item with id. Nothing changes when it is absent.
func (s *Service) replace(id int64, fn func(models.MenuItem) models.MenuItem) (models.MenuItem, bool) {
	var (
		result models.MenuItem
		found  bool
	)
	s.mutate(func(items []models.MenuItem) []models.MenuItem {
		for i := range items {
			if items[i].ID == id {
				items[i] = fn(items[i])
				result, found = items[i], true
				break
			}
		}
		return items
	})
	return result, found
}

func (s *Service) remove(id int64) {
	s.mutate(func(items []models.MenuItem) []models.MenuItem {
		out := items[:0]
		for _, item := range items {
			if item.ID != id {
				out = append(out, item)
			}
		}
		return out
	})
}

func (s *Service) saveSnapshot(items []models.MenuItem) {
	if s.opts.Snapshot == nil {
		return
	}
	if err := s.opts.Snapshot.Save(items); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write menu snapshot")
	}
}

func validateInput(in models.MenuItemInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return validationError("create", "nome is required")
	case strings.TrimSpace(in.Description) == "":
		return validationError("create", "descricao is required")
	case strings.TrimSpace(in.Category) == "":
		return validationError("create", "categoria is required")
	case in.Price == nil:
		return validationError("create", "preco is required")
	case math.IsNaN(*in.Price) || math.IsInf(*in.Price, 0) || *in.Price < 0:
		return validationError("create", "preco must be a number >= 0")
	}
	return nil
}

func validatePatch(p models.MenuItemPatch) error {
	if p.IsEmpty() {
		return validationError("patch", "no fields to update")
	}
	for field, v := range map[string]*string{"nome": p.Name, "descricao": p.Description, "categoria": p.Category} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return validationError("patch", field+" must not be empty")
		}
	}
	if p.Price != nil && (math.IsNaN(*p.Price) || math.IsInf(*p.Price, 0) || *p.Price < 0) {
		return validationError("patch", "preco must be a number >= 0")
	}
	return nil
}

func maxID(items []models.MenuItem) int64 {
	var max int64
	for _, item := range items {
		if item.ID > max {
			max = item.ID
		}
	}
	return max
}

func cloneItems(items []models.MenuItem) []models.MenuItem {
	if items == nil {
		return []models.MenuItem{}
	}
	out := make([]models.MenuItem, len(items))
	copy(out, items)
	return out
}
