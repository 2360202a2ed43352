package voicesettings

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
)

// PostgresRepo reads the host application's voice_call_settings table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Get(ctx context.Context, user string) (Settings, error) {
	const q = `
SELECT "user", twilio_number, call_receiving_device, mobile_no
FROM voice_call_settings
WHERE "user" = $1
`
	var s Settings
	if err := r.db.QueryRowContext(ctx, q, user).Scan(&s.User, &s.TwilioNumber, &s.CallReceivingDevice, &s.MobileNo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Settings{}, ErrNotFound
		}
		return Settings{}, err
	}
	return s, nil
}

func (r *PostgresRepo) Upsert(ctx context.Context, s Settings) error {
	const q = `
INSERT INTO voice_call_settings ("user", twilio_number, call_receiving_device, mobile_no)
VALUES ($1,$2,$3,$4)
ON CONFLICT ("user")
DO UPDATE SET twilio_number = EXCLUDED.twilio_number,
              call_receiving_device = EXCLUDED.call_receiving_device,
              mobile_no = EXCLUDED.mobile_no
`
	_, err := r.db.ExecContext(ctx, q, s.User, s.TwilioNumber, s.CallReceivingDevice, s.MobileNo)
	return err
}

func (r *PostgresRepo) Owners(ctx context.Context, twilioNumber string) ([]Settings, error) {
	const q = `
SELECT "user", twilio_number, call_receiving_device, mobile_no
FROM voice_call_settings
WHERE twilio_number = $1
ORDER BY "user"
`
	rows, err := r.db.QueryContext(ctx, q, twilioNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Settings
	for rows.Next() {
		var s Settings
		if err := rows.Scan(&s.User, &s.TwilioNumber, &s.CallReceivingDevice, &s.MobileNo); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MemoryRepo is an in-memory Repository for tests.
type MemoryRepo struct {
	mu   sync.Mutex
	rows map[string]Settings
}

func NewMemoryRepo(rows ...Settings) *MemoryRepo {
	r := &MemoryRepo{rows: map[string]Settings{}}
	for _, s := range rows {
		r.rows[s.User] = s
	}
	return r
}

func (r *MemoryRepo) Get(ctx context.Context, user string) (Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[user]
	if !ok {
		return Settings{}, ErrNotFound
	}
	return s, nil
}

func (r *MemoryRepo) Upsert(ctx context.Context, s Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[s.User] = s
	return nil
}

func (r *MemoryRepo) Owners(ctx context.Context, twilioNumber string) ([]Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Settings
	for _, s := range r.rows {
		if s.TwilioNumber == twilioNumber {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User < out[j].User })
	return out, nil
}
