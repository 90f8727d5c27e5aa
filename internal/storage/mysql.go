package storage

import (
	"context"
	"database/sql"
	"errors"
)

// MySQL stores values in the kv_entries table created by
// database.EnsureSchema.
type MySQL struct{ DB *sql.DB }

func NewMySQL(db *sql.DB) *MySQL { return &MySQL{DB: db} }

func (m *MySQL) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := m.DB.QueryRowContext(ctx, "SELECT v FROM kv_entries WHERE k=? LIMIT 1", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return v, err
}

func (m *MySQL) Set(ctx context.Context, key, value string) error {
	_, err := m.DB.ExecContext(ctx,
		"INSERT INTO kv_entries (k, v) VALUES (?,?) ON DUPLICATE KEY UPDATE v=VALUES(v), updated_at=CURRENT_TIMESTAMP",
		key, value)
	return err
}

func (m *MySQL) Delete(ctx context.Context, key string) error {
	_, err := m.DB.ExecContext(ctx, "DELETE FROM kv_entries WHERE k=?", key)
	return err
}
