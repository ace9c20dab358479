package repository

import (
	"context"
	"errors"
	"fmt"

	"cardapio/internal/domain"
	"cardapio/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const menuColumns = `id, nome, descricao, preco, categoria, imagem, ordem, destaque, disponivel, is_active, created_at, updated_at`

// PostgresMenuBackend stores the menu in a Postgres table through a pgx pool.
type PostgresMenuBackend struct {
	pool *pgxpool.Pool
}

func NewPostgresPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	return pool, nil
}

func NewPostgresMenuBackend(pool *pgxpool.Pool) *PostgresMenuBackend {
	return &PostgresMenuBackend{pool: pool}
}

func (r *PostgresMenuBackend) Name() string { return "postgres" }

// Migrate creates the menu table when missing.
func (r *PostgresMenuBackend) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS cardapio (
			id BIGSERIAL PRIMARY KEY,
			nome TEXT NOT NULL,
			descricao TEXT NOT NULL DEFAULT '',
			preco DOUBLE PRECISION NOT NULL CHECK (preco >= 0),
			categoria TEXT NOT NULL,
			imagem TEXT NOT NULL DEFAULT '/img/default.jpg',
			ordem INTEGER NOT NULL DEFAULT 999,
			destaque BOOLEAN NOT NULL DEFAULT FALSE,
			disponivel BOOLEAN NOT NULL DEFAULT TRUE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("migrate cardapio: %w", err)
	}
	return nil
}

func (r *PostgresMenuBackend) List(ctx context.Context) ([]models.MenuItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+menuColumns+` FROM cardapio ORDER BY id`)
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

func (r *PostgresMenuBackend) Insert(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO cardapio (nome, descricao, preco, categoria, imagem, ordem, destaque, disponivel, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+menuColumns,
		item.Name, item.Description, item.Price, item.Category, item.Image,
		item.Order, item.Featured, item.Available, item.Active,
	)
	return scanMenuItem(row)
}

// Update applies only the non-nil patch fields; nil parameters keep the column.
func (r *PostgresMenuBackend) Update(ctx context.Context, id int64, patch models.MenuItemPatch) (models.MenuItem, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE cardapio SET
			nome = COALESCE($2, nome),
			descricao = COALESCE($3, descricao),
			preco = COALESCE($4, preco),
			categoria = COALESCE($5, categoria),
			imagem = COALESCE($6, imagem),
			ordem = COALESCE($7, ordem),
			destaque = COALESCE($8, destaque),
			disponivel = COALESCE($9, disponivel),
			is_active = COALESCE($10, is_active),
			updated_at = now()
		WHERE id = $1
		RETURNING `+menuColumns,
		id, patch.Name, patch.Description, patch.Price, patch.Category, patch.Image,
		patch.Order, patch.Featured, patch.Available, patch.Active,
	)
	item, err := scanMenuItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.MenuItem{}, domain.ErrNotFound
	}
	return item, err
}

func (r *PostgresMenuBackend) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cardapio WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanMenuItem(row pgx.Row) (models.MenuItem, error) {
	var item models.MenuItem
	err := row.Scan(
		&item.ID, &item.Name, &item.Description, &item.Price, &item.Category, &item.Image,
		&item.Order, &item.Featured, &item.Available, &item.Active, &item.CreatedAt, &item.UpdatedAt,
	)
	return item, err
}
