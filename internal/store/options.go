package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Option is one stored configuration value.
type Option struct {
	Name      string    `json:"name" yaml:"name"`
	Value     string    `json:"value" yaml:"value"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// GetList returns the stored values of names. Names without a value are
// absent from the result.
func (s *Store) GetList(ctx context.Context, names []string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	if len(names) == 0 {
		return out, nil
	}
	args := make([]any, len(names))
	for i, name := range names {
		args[i] = strings.TrimSpace(name)
	}
	rows, err := s.db.QueryContext(ctx, "SELECT name, value FROM options WHERE name IN ("+placeholders(len(names))+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, rows.Err()
}

// GetValue returns the value of name, or "" when unset.
func (s *Store) GetValue(ctx context.Context, name string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM options WHERE name = ?", strings.TrimSpace(name)).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetOptions upserts every value in one transaction.
func (s *Store) SetOptions(ctx context.Context, values map[string]string) (err error) {
	if len(values) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := formatTime(time.Now())
	for name, value := range values {
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("option name is required")
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO options (name, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, name, value, now)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListOptions returns every stored option ordered by name.
func (s *Store) ListOptions(ctx context.Context) ([]Option, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, value, updated_at FROM options ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	options := []Option{}
	for rows.Next() {
		var opt Option
		var updatedAt string
		if err := rows.Scan(&opt.Name, &opt.Value, &updatedAt); err != nil {
			return nil, err
		}
		if opt.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		options = append(options, opt)
	}
	return options, rows.Err()
}

func placeholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimRight(strings.Repeat("?,", count), ",")
}
