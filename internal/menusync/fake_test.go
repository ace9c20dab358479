package menusync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"cardapio/internal/models"
	"cardapio/internal/repository"
	"cardapio/internal/retry"
)

var errDown = errors.New("connection refused")

// flakyBackend wraps the memory backend with a kill switch and call counter.
type flakyBackend struct {
	*repository.MemoryMenuBackend
	down  atomic.Bool
	calls atomic.Int32
}

func newFlakyBackend(seed []models.MenuItem) *flakyBackend {
	return &flakyBackend{MemoryMenuBackend: repository.NewMemoryMenuBackend(seed)}
}

func (b *flakyBackend) List(ctx context.Context) ([]models.MenuItem, error) {
	b.calls.Add(1)
	if b.down.Load() {
		return nil, errDown
	}
	return b.MemoryMenuBackend.List(ctx)
}

func (b *flakyBackend) Insert(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	b.calls.Add(1)
	if b.down.Load() {
		return models.MenuItem{}, errDown
	}
	return b.MemoryMenuBackend.Insert(ctx, item)
}

func (b *flakyBackend) Update(ctx context.Context, id int64, patch models.MenuItemPatch) (models.MenuItem, error) {
	b.calls.Add(1)
	if b.down.Load() {
		return models.MenuItem{}, errDown
	}
	return b.MemoryMenuBackend.Update(ctx, id, patch)
}

func (b *flakyBackend) Delete(ctx context.Context, id int64) error {
	b.calls.Add(1)
	if b.down.Load() {
		return errDown
	}
	return b.MemoryMenuBackend.Delete(ctx, id)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type memorySnapshot struct {
	mu    sync.Mutex
	items []models.MenuItem
	err   error
}

func (s *memorySnapshot) Load() ([]models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]models.MenuItem(nil), s.items...), nil
}

func (s *memorySnapshot) Save(items []models.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]models.MenuItem(nil), items...)
	return nil
}

func testOptions(clock *fakeClock) Options {
	fast := retry.Policy{MaxAttempts: 2, InitialDelay: time.Millisecond}
	return Options{
		TTL:              30 * time.Second,
		ReadTimeout:      time.Second,
		WriteTimeout:     time.Second,
		BreakerThreshold: 3,
		BreakerTimeout:   30 * time.Second,
		ReadRetry:        fast,
		WriteRetry:       fast,
		Defaults:         repository.DefaultMenu(),
		Now:              clock.Now,
	}
}

func seedItems() []models.MenuItem {
	items := repository.DefaultMenu()
	return append(items, models.MenuItem{
		ID: 5, Name: "Batata", Description: "frita", Price: 10, Category: "porcoes",
		Available: true, Active: true,
	})
}
