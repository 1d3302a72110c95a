package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shiny/service/storage"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) (*Store, error) {
	err := storage.CreateTables(db,
		`CREATE TABLE IF NOT EXISTS devices (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			platform TEXT NOT NULL,
			endpoint TEXT NOT NULL UNIQUE,
			p256dh TEXT NOT NULL,
			auth TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
	)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Add enrolls d. Enrolling an endpoint that already exists refreshes its keys
// and keeps the original ID.
func (s *Store) Add(ctx context.Context, d Device) (*Device, error) {
	if err := d.Normalize(); err != nil {
		return nil, err
	}
	d.ID = uuid.NewString()
	d.CreatedAt = time.Now().UTC()

	var id string
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO devices (id, name, platform, endpoint, p256dh, auth, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(endpoint) DO UPDATE SET
			name = excluded.name,
			platform = excluded.platform,
			p256dh = excluded.p256dh,
			auth = excluded.auth
		RETURNING id
	`, d.ID, d.Name, d.Platform, d.Endpoint, d.P256dh, d.Auth, d.CreatedAt).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to save device: %w", err)
	}

	return s.Get(ctx, id)
}

func (s *Store) Get(ctx context.Context, id string) (*Device, error) {
	var d Device
	err := s.db.GetContext(ctx, &d, `SELECT id, name, platform, endpoint, p256dh, auth, created_at FROM devices WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) List(ctx context.Context) ([]Device, error) {
	devices := make([]Device, 0)
	err := s.db.SelectContext(ctx, &devices, `SELECT id, name, platform, endpoint, p256dh, auth, created_at FROM devices ORDER BY created_at, id`)
	return devices, err
}

// Remove reports whether a device was deleted.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
