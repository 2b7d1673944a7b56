package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/eventbot/internal/diary"
)

const (
	queryGet = `SELECT entries FROM user_entries WHERE user_id = $1`

	queryPut = `INSERT INTO user_entries (user_id, entries)
VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET entries = EXCLUDED.entries, updated_at = now()`

	queryCreate = `INSERT INTO user_entries (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`

	queryUserIDs = `SELECT user_id FROM user_entries ORDER BY user_id`
)

// Postgres stores one row per user in user_entries.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an open connection pool.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Get(ctx context.Context, userID string) (diary.List, error) {
	var data []byte
	err := p.db.GetContext(ctx, &data, queryGet, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return diary.List{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	return decode(data)
}

// Put replaces the whole list in a single upsert. The record is sent as text so
// lib/pq does not encode it as bytea.
func (p *Postgres) Put(ctx context.Context, userID string, list diary.List) error {
	data, err := encode(list)
	if err != nil {
		return err
	}
	if _, err := p.db.ExecContext(ctx, queryPut, userID, string(data)); err != nil {
		return fmt.Errorf("upsert entries: %w", err)
	}
	return nil
}

func (p *Postgres) Create(ctx context.Context, userID string) error {
	if _, err := p.db.ExecContext(ctx, queryCreate, userID); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (p *Postgres) UserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := p.db.SelectContext(ctx, &ids, queryUserIDs); err != nil {
		return nil, fmt.Errorf("select user ids: %w", err)
	}
	return ids, nil
}

var _ diary.Store = (*Postgres)(nil)
