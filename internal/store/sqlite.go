package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// SQLite stores uploads as rows of a single table.
type SQLite struct {
	db *sql.DB
}

const uploadsTable = `
CREATE TABLE IF NOT EXISTS uploads (
	name TEXT PRIMARY KEY,
	content_type TEXT NOT NULL,
	data BLOB NOT NULL,
	created_at DATETIME NOT NULL
);`

// NewSQLite opens (and if needed creates) the database at dsn.
func NewSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if _, err := db.ExecContext(ctx, uploadsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create uploads table: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Save(ctx context.Context, obj *Object) error {
	if err := ValidName(obj.Name); err != nil {
		return err
	}
	created := obj.ModTime
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO uploads (name, content_type, data, created_at) VALUES (?, ?, ?, ?)`,
		obj.Name, obj.ContentType, obj.Data, created)
	if err != nil {
		logrus.WithError(err).WithField("name", obj.Name).Error("Failed to save upload")
		return fmt.Errorf("save %s: %w", obj.Name, err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM uploads ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list uploads: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLite) Open(ctx context.Context, name string) (*Object, error) {
	if err := ValidName(name); err != nil {
		return nil, err
	}
	obj := &Object{Name: name}
	err := s.db.QueryRowContext(ctx,
		`SELECT content_type, data, created_at FROM uploads WHERE name = ?`, name).
		Scan(&obj.ContentType, &obj.Data, &obj.ModTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return obj, nil
}

func (s *SQLite) Delete(ctx context.Context, name string) error {
	if err := ValidName(name); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM uploads WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}
