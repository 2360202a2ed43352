package calls

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"twilio-integration/pkg/utils"
)

// Repository is the persistence contract for call logs.
// Call logs are never deleted.
type Repository interface {
	// Insert creates the row unless one with the same ID exists.
	// created is false when the row already existed.
	Insert(ctx context.Context, l CallLog) (created bool, err error)
	Get(ctx context.Context, id string) (CallLog, error)
	// Update persists every mutable column of an existing row.
	Update(ctx context.Context, l CallLog) error
	CountActiveForUser(ctx context.Context, user string) (int, error)
	List(ctx context.Context, from, to time.Time) ([]CallLog, error)
}

// PostgresRepo stores call logs in the host application's tables:
// - call_logs
// - call_log_links (call_log, link_doctype, link_name)
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

// custom_* columns are the host application's custom fields on Call Log.
const callLogColumns = `id, type, "from", "to", status, duration, recording_url, medium, custom_call_info, custom_voip_user,
       custom_ratings, custom_request_call_review, custom_reviewer, custom_sell_type, custom_call_notes, created_at, updated_at`

func (r *PostgresRepo) Insert(ctx context.Context, l CallLog) (bool, error) {
	created := false
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const q = `
INSERT INTO call_logs (` + callLogColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
ON CONFLICT (id) DO NOTHING
`
		res, err := tx.ExecContext(ctx, q,
			l.ID, l.Type, l.From, l.To, l.Status, l.DurationSeconds, l.RecordingURL, l.Medium, l.CallInfo, l.VoIPUser,
			l.Ratings, l.RequestCallReview, l.Reviewer, l.SellType, l.CallNotes, l.CreatedAt, l.UpdatedAt,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		created = true
		return insertLinks(ctx, tx, l.ID, l.Links)
	})
	return created, err
}

func insertLinks(ctx context.Context, tx *sql.Tx, callLogID string, links []Link) error {
	const q = `
INSERT INTO call_log_links (call_log, idx, link_doctype, link_name)
VALUES ($1,$2,$3,$4)
`
	for i, link := range links {
		if _, err := tx.ExecContext(ctx, q, callLogID, i, link.Kind, link.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (CallLog, error) {
	q := `SELECT ` + callLogColumns + ` FROM call_logs WHERE id = $1`
	l, err := scanCallLog(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CallLog{}, ErrNotFound
		}
		return CallLog{}, err
	}
	links, err := r.links(ctx, id)
	if err != nil {
		return CallLog{}, err
	}
	l.Links = links
	return l, nil
}

func (r *PostgresRepo) links(ctx context.Context, id string) ([]Link, error) {
	const q = `
SELECT link_doctype, link_name
FROM call_log_links
WHERE call_log = $1
ORDER BY idx
`
	rows, err := r.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Link
	for rows.Next() {
		var link Link
		if err := rows.Scan(&link.Kind, &link.ID); err != nil {
			return nil, err
		}
		out = append(out, link)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Update(ctx context.Context, l CallLog) error {
	const q = `
UPDATE call_logs SET
  status = $2, duration = $3, recording_url = $4, custom_call_info = $5, custom_voip_user = $6,
  custom_ratings = $7, custom_request_call_review = $8, custom_reviewer = $9, custom_sell_type = $10, custom_call_notes = $11,
  updated_at = $12
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q,
		l.ID, l.Status, l.DurationSeconds, l.RecordingURL, l.CallInfo, l.VoIPUser,
		l.Ratings, l.RequestCallReview, l.Reviewer, l.SellType, l.CallNotes, l.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) CountActiveForUser(ctx context.Context, user string) (int, error) {
	const q = `
SELECT COUNT(*)
FROM call_logs
WHERE custom_voip_user = $1 AND status IN ($2, $3)
`
	var n int
	if err := r.db.QueryRowContext(ctx, q, user, StatusRinging, StatusInProgress).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PostgresRepo) List(ctx context.Context, from, to time.Time) ([]CallLog, error) {
	q := `SELECT ` + callLogColumns + `
FROM call_logs
WHERE created_at >= $1 AND created_at < $2
ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CallLog
	for rows.Next() {
		l, err := scanCallLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCallLog(row rowScanner) (CallLog, error) {
	var l CallLog
	err := row.Scan(
		&l.ID,
		&l.Type,
		&l.From,
		&l.To,
		&l.Status,
		&l.DurationSeconds,
		&l.RecordingURL,
		&l.Medium,
		&l.CallInfo,
		&l.VoIPUser,
		&l.Ratings,
		&l.RequestCallReview,
		&l.Reviewer,
		&l.SellType,
		&l.CallNotes,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	return l, err
}
