package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cardapio/internal/domain"
	"cardapio/internal/models"
)

const menuColumns = `id, nome, descricao, preco, categoria, imagem, ordem, destaque, disponivel, is_active, created_at, updated_at`

// MenuStore is the sqlite implementation of domain.MenuBackend.
type MenuStore struct {
	db *DB
}

func (db *DB) MenuStore() *MenuStore {
	return &MenuStore{db: db}
}

func (s *MenuStore) Name() string { return "sqlite" }

// SeedIfEmpty inserts items, keeping their ids, when the table is empty.
func (s *MenuStore) SeedIfEmpty(ctx context.Context, items []models.MenuItem) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cardapio`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, item := range items {
		_, err := tx.ExecContext(ctx, `INSERT INTO cardapio (`+menuColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.Name, item.Description, item.Price, item.Category, item.Image,
			item.Order, item.Featured, item.Available, item.Active, item.CreatedAt, item.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("seed item %d: %w", item.ID, err)
		}
	}
	s.db.logger.Info().Int("items", len(items)).Msg("Menu table seeded")
	return tx.Commit()
}

func (s *MenuStore) List(ctx context.Context) ([]models.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+menuColumns+` FROM cardapio ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *MenuStore) get(ctx context.Context, id int64) (models.MenuItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+menuColumns+` FROM cardapio WHERE id = ?`, id)
	item, err := scanMenuItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MenuItem{}, domain.ErrNotFound
	}
	return item, err
}

func (s *MenuStore) Insert(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
        INSERT INTO cardapio (nome, descricao, preco, categoria, imagem, ordem, destaque, disponivel, is_active, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Name, item.Description, item.Price, item.Category, item.Image,
		item.Order, item.Featured, item.Available, item.Active, now, now,
	)
	if err != nil {
		return models.MenuItem{}, fmt.Errorf("failed to create menu item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return models.MenuItem{}, fmt.Errorf("failed to get last insert id: %w", err)
	}
	item.ID = id
	item.CreatedAt = now
	item.UpdatedAt = now
	return item, nil
}

func (s *MenuStore) Update(ctx context.Context, id int64, patch models.MenuItemPatch) (models.MenuItem, error) {
	sets, args := patchColumns(patch)
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now(), id)

	result, err := s.db.ExecContext(ctx, `UPDATE cardapio SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return models.MenuItem{}, fmt.Errorf("failed to update menu item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return models.MenuItem{}, domain.ErrNotFound
	}
	return s.get(ctx, id)
}

func (s *MenuStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM cardapio WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete menu item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func patchColumns(p models.MenuItemPatch) ([]string, []any) {
	var sets []string
	var args []any
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.Name != nil {
		add("nome", *p.Name)
	}
	if p.Description != nil {
		add("descricao", *p.Description)
	}
	if p.Price != nil {
		add("preco", *p.Price)
	}
	if p.Category != nil {
		add("categoria", *p.Category)
	}
	if p.Image != nil {
		add("imagem", *p.Image)
	}
	if p.Order != nil {
		add("ordem", *p.Order)
	}
	if p.Featured != nil {
		add("destaque", *p.Featured)
	}
	if p.Available != nil {
		add("disponivel", *p.Available)
	}
	if p.Active != nil {
		add("is_active", *p.Active)
	}
	return sets, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMenuItem(row rowScanner) (models.MenuItem, error) {
	var item models.MenuItem
	err := row.Scan(
		&item.ID, &item.Name, &item.Description, &item.Price, &item.Category, &item.Image,
		&item.Order, &item.Featured, &item.Available, &item.Active, &item.CreatedAt, &item.UpdatedAt,
	)
	return item, err
}
