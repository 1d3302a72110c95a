package channel

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shiny/service/storage"

	"github.com/jmoiron/sqlx"
)

type SQLStore struct {
	db *sqlx.DB
}

type channelRow struct {
	Identifier  string `db:"identifier"`
	Description string `db:"description"`
	Actions     string `db:"actions"`
}

func NewSQLStore(db *sqlx.DB) (*SQLStore, error) {
	err := storage.CreateTables(db,
		`CREATE TABLE IF NOT EXISTS channels (
			identifier TEXT PRIMARY KEY,
			description TEXT NOT NULL DEFAULT '',
			actions TEXT NOT NULL DEFAULT '[]',
			updated_at TIMESTAMP NOT NULL
		)`,
	)
	if err != nil {
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

func (r channelRow) channel() (Channel, error) {
	c := Channel{Identifier: r.Identifier, Description: r.Description, Actions: []Action{}}
	if err := json.Unmarshal([]byte(r.Actions), &c.Actions); err != nil {
		return Channel{}, fmt.Errorf("failed to decode actions of %q: %w", r.Identifier, err)
	}
	if c.Actions == nil {
		c.Actions = []Action{}
	}
	return c, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*Channel, error) {
	var row channelRow
	err := s.db.GetContext(ctx, &row, `SELECT identifier, description, actions FROM channels WHERE identifier = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c, err := row.channel()
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLStore) GetAll(ctx context.Context) ([]Channel, error) {
	var rows []channelRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT identifier, description, actions FROM channels ORDER BY identifier`); err != nil {
		return nil, err
	}

	channels := make([]Channel, 0, len(rows))
	for _, row := range rows {
		c, err := row.channel()
		if err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}
	return channels, nil
}

func (s *SQLStore) Set(ctx context.Context, id string, c Channel) error {
	actions := c.Actions
	if actions == nil {
		actions = []Action{}
	}
	encoded, err := json.Marshal(actions)
	if err != nil {
		return fmt.Errorf("failed to encode actions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO channels (identifier, description, actions, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(identifier) DO UPDATE SET
			description = excluded.description,
			actions = excluded.actions,
			updated_at = excluded.updated_at
	`, id, c.Description, string(encoded), time.Now().UTC())
	return err
}

func (s *SQLStore) Remove(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM channels WHERE identifier = ?`, id)
	return err
}

func (s *SQLStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM channels`)
	return err
}
