package whatsapp

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"
)

type Repository interface {
	// Insert is a no-op (created=false) when (id, from, to) already exists.
	Insert(ctx context.Context, m Message) (created bool, err error)
	Get(ctx context.Context, id, from, to string) (Message, error)
	// UpdateStatus reports updated=false when no row matches.
	UpdateStatus(ctx context.Context, id, from, to, status string, at time.Time) (updated bool, err error)
}

// PostgresRepo stores messages in whatsapp_messages.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Insert(ctx context.Context, m Message) (bool, error) {
	const q = `
INSERT INTO whatsapp_messages (id, "from", "to", message, profile_name, sent_received, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id, "from", "to") DO NOTHING
`
	res, err := r.db.ExecContext(ctx, q, m.ID, m.From, m.To, m.Message, m.ProfileName, m.SentReceived, m.Status, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id, from, to string) (Message, error) {
	const q = `
SELECT id, "from", "to", message, profile_name, sent_received, status, created_at, updated_at
FROM whatsapp_messages
WHERE id = $1 AND "from" = $2 AND "to" = $3
`
	var m Message
	err := r.db.QueryRowContext(ctx, q, id, from, to).Scan(
		&m.ID, &m.From, &m.To, &m.Message, &m.ProfileName, &m.SentReceived, &m.Status, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Message{}, ErrNotFound
	}
	return m, err
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, id, from, to, status string, at time.Time) (bool, error) {
	const q = `
UPDATE whatsapp_messages
SET status = $4, updated_at = $5
WHERE id = $1 AND "from" = $2 AND "to" = $3
`
	res, err := r.db.ExecContext(ctx, q, id, from, to, status, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type key struct{ id, from, to string }

type MemoryRepo struct {
	mu   sync.Mutex
	msgs map[key]Message
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{msgs: map[key]Message{}} }

func (r *MemoryRepo) Insert(ctx context.Context, m Message) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{m.ID, m.From, m.To}
	if _, ok := r.msgs[k]; ok {
		return false, nil
	}
	r.msgs[k] = m
	return true, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id, from, to string) (Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.msgs[key{id, from, to}]
	if !ok {
		return Message{}, ErrNotFound
	}
	return m, nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, id, from, to, status string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{id, from, to}
	m, ok := r.msgs[k]
	if !ok {
		return false, nil
	}
	m.Status, m.UpdatedAt = status, at
	r.msgs[k] = m
	return true, nil
}

func (r *MemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}
