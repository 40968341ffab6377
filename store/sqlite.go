package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Load(ctx context.Context, day string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM risk_state WHERE day = ?`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	kv := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		kv[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(kv) == 0 {
		return nil, ErrNotFound
	}
	return kv, nil
}

func (s *SQLite) Save(ctx context.Context, day string, kv map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for k, v := range kv {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO risk_state (day, key, value, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(day, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			day, k, v, now)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLite) Delete(ctx context.Context, day string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM risk_state WHERE day = ?`, day)
	return err
}

// Days lists the days with a saved snapshot, oldest first.
func (s *SQLite) Days(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT day FROM risk_state ORDER BY day ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
