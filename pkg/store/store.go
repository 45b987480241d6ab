// Package store keeps snapshots of room documents in sqlite so an agent can pick its rooms up
// again after a restart.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer and every :memory: connection is a separate database.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS rooms (
		id text not null primary key,
		content blob not null
		)`,
	); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create rooms table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores the snapshot of room. It reports whether the stored content changed.
func (s *Store) Put(ctx context.Context, room string, content []byte) (bool, error) {
	current, ok, err := s.Get(ctx, room)
	if err != nil {
		return false, err
	}
	if ok && bytes.Equal(current, content) {
		return false, nil
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO rooms (id, content) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET content = excluded.content`,
		room, content,
	); err != nil {
		return false, fmt.Errorf("failed to store room %s: %w", room, err)
	}
	return true, nil
}

func (s *Store) Get(ctx context.Context, room string) ([]byte, bool, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx, `SELECT content FROM rooms WHERE id = ?`, room).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("failed to query room %s: %w", room, err)
	}
	return content, true, nil
}

// All returns every stored snapshot by room id.
func (s *Store) All(ctx context.Context) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, content FROM rooms`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()
	out := make(map[string][]byte)
	for rows.Next() {
		var id string
		var content []byte
		if err := rows.Scan(&id, &content); err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		out[id] = content
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rooms: %w", err)
	}
	return out, nil
}

// Delete removes the snapshot of room, if any.
func (s *Store) Delete(ctx context.Context, room string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, room); err != nil {
		return fmt.Errorf("failed to delete room %s: %w", room, err)
	}
	return nil
}
