package events

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"twilio-integration/pkg/utils"
)

type Repository interface {
	GetSellingStep(ctx context.Context, name string) (SellingStep, error)
	UpsertSellingStep(ctx context.Context, s SellingStep) error
	// InsertEvent returns the stored event for (call log, selling step);
	// created is false when one already existed.
	InsertEvent(ctx context.Context, e Event) (stored Event, created bool, err error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) GetSellingStep(ctx context.Context, name string) (SellingStep, error) {
	const q = `SELECT name, create_event FROM selling_steps WHERE name = $1`
	var s SellingStep
	if err := r.db.QueryRowContext(ctx, q, name).Scan(&s.Name, &s.CreateEvent); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SellingStep{}, ErrSellingStepNotFound
		}
		return SellingStep{}, err
	}
	return s, nil
}

func (r *PostgresRepo) UpsertSellingStep(ctx context.Context, s SellingStep) error {
	const q = `
INSERT INTO selling_steps (name, create_event) VALUES ($1,$2)
ON CONFLICT (name) DO UPDATE SET create_event = EXCLUDED.create_event
`
	_, err := r.db.ExecContext(ctx, q, s.Name, s.CreateEvent)
	return err
}

func (r *PostgresRepo) InsertEvent(ctx context.Context, e Event) (Event, bool, error) {
	var (
		stored  Event
		created bool
	)
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const ins = `
INSERT INTO events (id, starts_on, subject, description, event_category, event_type, custom_call_log, selling_step, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (custom_call_log, selling_step) DO NOTHING
`
		res, err := tx.ExecContext(ctx, ins, e.ID, e.StartsOn, e.Subject, e.Description, e.Category, e.Type, e.CallLog, e.SellingStep, e.CreatedAt)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			stored, err = existingEvent(ctx, tx, e.CallLog, e.SellingStep)
			return err
		}

		const part = `
INSERT INTO event_participants (event, idx, reference_doctype, reference_docname)
VALUES ($1,$2,$3,$4)
`
		for i, p := range e.Participants {
			if _, err := tx.ExecContext(ctx, part, e.ID, i, p.ReferenceDoctype, p.ReferenceDocname); err != nil {
				return err
			}
		}
		stored, created = e, true
		return nil
	})
	return stored, created, err
}

func existingEvent(ctx context.Context, tx *sql.Tx, callLog, step string) (Event, error) {
	const q = `
SELECT id, starts_on, subject, description, event_category, event_type, custom_call_log, selling_step, created_at
FROM events
WHERE custom_call_log = $1 AND selling_step = $2
`
	var e Event
	err := tx.QueryRowContext(ctx, q, callLog, step).Scan(
		&e.ID, &e.StartsOn, &e.Subject, &e.Description, &e.Category, &e.Type, &e.CallLog, &e.SellingStep, &e.CreatedAt,
	)
	if err != nil {
		return Event{}, err
	}

	rows, err := tx.QueryContext(ctx, `
SELECT reference_doctype, reference_docname
FROM event_participants
WHERE event = $1
ORDER BY idx
`, e.ID)
	if err != nil {
		return Event{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ReferenceDoctype, &p.ReferenceDocname); err != nil {
			return Event{}, err
		}
		e.Participants = append(e.Participants, p)
	}
	return e, rows.Err()
}

type eventKey struct{ callLog, step string }

type MemoryRepo struct {
	mu     sync.Mutex
	steps  map[string]SellingStep
	events map[eventKey]Event
}

func NewMemoryRepo(steps ...SellingStep) *MemoryRepo {
	r := &MemoryRepo{steps: map[string]SellingStep{}, events: map[eventKey]Event{}}
	for _, s := range steps {
		r.steps[s.Name] = s
	}
	return r
}

func (r *MemoryRepo) GetSellingStep(ctx context.Context, name string) (SellingStep, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.steps[name]
	if !ok {
		return SellingStep{}, ErrSellingStepNotFound
	}
	return s, nil
}

func (r *MemoryRepo) UpsertSellingStep(ctx context.Context, s SellingStep) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps[s.Name] = s
	return nil
}

func (r *MemoryRepo) InsertEvent(ctx context.Context, e Event) (Event, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := eventKey{e.CallLog, e.SellingStep}
	if existing, ok := r.events[k]; ok {
		return existing, false, nil
	}
	r.events[k] = e
	return e, true, nil
}

func (r *MemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}
