package repository

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"cardapio/internal/domain"
	"cardapio/internal/models"
)

// MemoryMenuBackend keeps the menu in process memory. Data is lost on restart.
type MemoryMenuBackend struct {
	items  sync.Map
	nextID atomic.Int64
}

func NewMemoryMenuBackend(seed []models.MenuItem) *MemoryMenuBackend {
	r := &MemoryMenuBackend{}
	for _, item := range seed {
		r.items.Store(item.ID, item)
		if item.ID > r.nextID.Load() {
			r.nextID.Store(item.ID)
		}
	}
	return r
}

func (r *MemoryMenuBackend) Name() string { return "memory" }

func (r *MemoryMenuBackend) List(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	r.items.Range(func(_, val any) bool {
		items = append(items, val.(models.MenuItem))
		return true
	})
	sortByID(items)
	return items, nil
}

func (r *MemoryMenuBackend) Insert(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	now := time.Now()
	item.ID = r.nextID.Add(1)
	item.CreatedAt = now
	item.UpdatedAt = now
	r.items.Store(item.ID, item)
	return item, nil
}

func (r *MemoryMenuBackend) Update(ctx context.Context, id int64, patch models.MenuItemPatch) (models.MenuItem, error) {
	val, ok := r.items.Load(id)
	if !ok {
		return models.MenuItem{}, domain.ErrNotFound
	}
	item := patch.Apply(val.(models.MenuItem))
	item.UpdatedAt = time.Now()
	r.items.Store(id, item)
	return item, nil
}

func (r *MemoryMenuBackend) Delete(ctx context.Context, id int64) error {
	if _, loaded := r.items.LoadAndDelete(id); !loaded {
		return domain.ErrNotFound
	}
	return nil
}

func sortByID(items []models.MenuItem) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}
