package database

import (
	"context"
	"time"
)

func (db *DB) GetSiteInfo(ctx context.Context) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT chave, valor FROM site_info`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	info := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		info[key] = value
	}
	return info, rows.Err()
}

// SetSiteInfo upserts every entry in one transaction.
func (db *DB) SetSiteInfo(ctx context.Context, values map[string]string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	for key, value := range values {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO site_info (chave, valor, updated_at) VALUES (?, ?, ?)
            ON CONFLICT(chave) DO UPDATE SET valor = excluded.valor, updated_at = excluded.updated_at`,
			key, value, now)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}
