package watcher

import (
	"sort"
	"sync"

	"cardapio/internal/models"
)

// Overrides holds local item patches layered over fetched data until the
// server catches up.
type Overrides struct {
	mu      sync.RWMutex
	patches map[int64]models.MenuItemPatch
}

func NewOverrides() *Overrides {
	return &Overrides{patches: make(map[int64]models.MenuItemPatch)}
}

// Set merges changes into the existing patches.
func (o *Overrides) Set(changes map[int64]models.MenuItemPatch) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for id, p := range changes {
		if existing, ok := o.patches[id]; ok {
			p = existing.Merge(p)
		}
		o.patches[id] = p
	}
}

func (o *Overrides) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.patches)
}

func (o *Overrides) Clear() {
	o.mu.Lock()
	o.patches = make(map[int64]models.MenuItemPatch)
	o.mu.Unlock()
}

// Apply returns the visible items after patching, ordered by display order then id.
func (o *Overrides) Apply(items []models.MenuItem) []models.MenuItem {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]models.MenuItem, 0, len(items))
	for _, item := range items {
		if p, ok := o.patches[item.ID]; ok {
			item = p.Apply(item)
		}
		if item.Visible() {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}
