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

// ErrDuplicateEmail is returned when a customer email is already registered.
var ErrDuplicateEmail = errors.New("email already registered")

const customerColumns = `id, nome, email, telefone, endereco, bairro, cidade, estado, cep, observacoes, is_active, created_at, updated_at`

func (db *DB) CreateCustomer(ctx context.Context, c *models.Customer) error {
	now := time.Now()
	result, err := db.ExecContext(ctx, `
        INSERT INTO clientes (nome, email, telefone, endereco, bairro, cidade, estado, cep, observacoes, is_active, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		c.Name, strings.ToLower(c.Email), c.Phone, c.Address, c.District, c.City, c.State, c.ZipCode, c.Notes, now, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	c.ID = id
	c.Email = strings.ToLower(c.Email)
	c.IsActive = true
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

func (db *DB) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	row := db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM clientes WHERE email = ?`, strings.ToLower(email))
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return c, err
}

func (db *DB) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+customerColumns+` FROM clientes WHERE is_active = 1 ORDER BY nome`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (db *DB) DeactivateCustomer(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `UPDATE clientes SET is_active = 0, updated_at = ? WHERE id = ? AND is_active = 1`,
		time.Now(), id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanCustomer(row rowScanner) (*models.Customer, error) {
	var c models.Customer
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.District, &c.City, &c.State, &c.ZipCode,
		&c.Notes, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
