package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cardapio/internal/domain"
	"cardapio/internal/models"
)

// Snapshot persists a menu list as a JSON document on local disk.
type Snapshot struct {
	path string
	mu   sync.Mutex
}

type snapshotDoc struct {
	SavedAt time.Time         `json:"savedAt"`
	Items   []models.MenuItem `json:"cardapio"`
}

func NewSnapshot(path string) *Snapshot {
	return &Snapshot{path: path}
}

func (s *Snapshot) Path() string { return s.path }

// Load returns the stored items. A missing file yields domain.ErrNotFound.
func (s *Snapshot) Load() ([]models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Snapshot) load() ([]models.MenuItem, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", s.path, err)
	}
	return doc.Items, nil
}

// Save writes items atomically via a temp file and rename.
func (s *Snapshot) Save(items []models.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(items)
}

func (s *Snapshot) save(items []models.MenuItem) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	data, err := json.MarshalIndent(snapshotDoc{SavedAt: time.Now(), Items: items}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// FileMenuBackend uses a JSON snapshot as the durable store.
type FileMenuBackend struct {
	snap *Snapshot
	seed []models.MenuItem
}

// NewFileMenuBackend stores the menu at path. seed is used until the first write.
func NewFileMenuBackend(path string, seed []models.MenuItem) *FileMenuBackend {
	return &FileMenuBackend{snap: NewSnapshot(path), seed: seed}
}

func (r *FileMenuBackend) Name() string { return "file" }

func (r *FileMenuBackend) current() ([]models.MenuItem, error) {
	items, err := r.snap.load()
	if errors.Is(err, domain.ErrNotFound) {
		return append([]models.MenuItem(nil), r.seed...), nil
	}
	return items, err
}

func (r *FileMenuBackend) List(ctx context.Context) ([]models.MenuItem, error) {
	r.snap.mu.Lock()
	defer r.snap.mu.Unlock()

	items, err := r.current()
	if err != nil {
		return nil, err
	}
	sortByID(items)
	return items, nil
}

func (r *FileMenuBackend) Insert(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	r.snap.mu.Lock()
	defer r.snap.mu.Unlock()

	items, err := r.current()
	if err != nil {
		return models.MenuItem{}, err
	}

	var maxID int64
	for _, it := range items {
		if it.ID > maxID {
			maxID = it.ID
		}
	}
	now := time.Now()
	item.ID = maxID + 1
	item.CreatedAt = now
	item.UpdatedAt = now

	if err := r.snap.save(append(items, item)); err != nil {
		return models.MenuItem{}, err
	}
	return item, nil
}

func (r *FileMenuBackend) Update(ctx context.Context, id int64, patch models.MenuItemPatch) (models.MenuItem, error) {
	r.snap.mu.Lock()
	defer r.snap.mu.Unlock()

	items, err := r.current()
	if err != nil {
		return models.MenuItem{}, err
	}
	for i := range items {
		if items[i].ID != id {
			continue
		}
		items[i] = patch.Apply(items[i])
		items[i].UpdatedAt = time.Now()
		if err := r.snap.save(items); err != nil {
			return models.MenuItem{}, err
		}
		return items[i], nil
	}
	return models.MenuItem{}, domain.ErrNotFound
}

func (r *FileMenuBackend) Delete(ctx context.Context, id int64) error {
	r.snap.mu.Lock()
	defer r.snap.mu.Unlock()

	items, err := r.current()
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ID == id {
			return r.snap.save(append(items[:i], items[i+1:]...))
		}
	}
	return domain.ErrNotFound
}
