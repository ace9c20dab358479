package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cardapio/internal/domain"
	"cardapio/internal/models"
)

// ErrDuplicateOrderNumber is returned when numero_pedido is already taken.
var ErrDuplicateOrderNumber = errors.New("order number already exists")

const orderColumns = `id, numero_pedido, cliente_nome, cliente_telefone, cliente_endereco, itens, total, status,
        forma_pagamento, troco, observacoes, is_active, created_at, updated_at`

// CreateOrder inserts the order and fills in ID and timestamps.
func (db *DB) CreateOrder(ctx context.Context, order *models.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}

	now := time.Now()
	result, err := db.ExecContext(ctx, `
        INSERT INTO pedidos (numero_pedido, cliente_nome, cliente_telefone, cliente_endereco, itens, total, status,
                             forma_pagamento, troco, observacoes, is_active, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		order.Number, order.CustomerName, order.CustomerPhone, order.CustomerAddress, string(items),
		order.Total, order.Status, order.PaymentMethod, order.ChangeFor, order.Notes, now, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateOrderNumber
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	order.ID = id
	order.IsActive = true
	order.CreatedAt = now
	order.UpdatedAt = now
	return nil
}

func (db *DB) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	row := db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM pedidos WHERE id = ? AND is_active = 1`, id)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return order, err
}

// ListOrders returns active orders, newest first. An empty status matches all.
func (db *DB) ListOrders(ctx context.Context, status string) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM pedidos WHERE is_active = 1`
	var args []any
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (db *DB) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	result, err := db.ExecContext(ctx, `UPDATE pedidos SET status = ?, updated_at = ? WHERE id = ? AND is_active = 1`,
		status, time.Now(), id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (db *DB) DeactivateOrder(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `UPDATE pedidos SET is_active = 0, updated_at = ? WHERE id = ? AND is_active = 1`,
		time.Now(), id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		order     models.Order
		items     string
		changeFor sql.NullFloat64
	)
	err := row.Scan(
		&order.ID, &order.Number, &order.CustomerName, &order.CustomerPhone, &order.CustomerAddress,
		&items, &order.Total, &order.Status, &order.PaymentMethod, &changeFor, &order.Notes,
		&order.IsActive, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if changeFor.Valid {
		order.ChangeFor = &changeFor.Float64
	}
	if err := json.Unmarshal([]byte(items), &order.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %d: %w", order.ID, err)
	}
	return &order, nil
}
