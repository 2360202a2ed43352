package contacts

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Contact is the subset of a CRM contact shown on an incoming call.
type Contact struct {
	FirstName   string `json:"first_name"`
	EmailID     string `json:"email_id"`
	PhoneNumber string `json:"phone_number"`
	MobileNo    string `json:"mobile_no,omitempty"`
}

type Repository interface {
	// FindBySuffix returns the most recently modified contact whose phone
	// number or mobile number digits end in suffix.
	FindBySuffix(ctx context.Context, suffix string) (Contact, bool, error)
}

type Service struct {
	repo   Repository
	region string
}

func NewService(repo Repository, defaultRegion string) *Service {
	if defaultRegion == "" {
		defaultRegion = "US"
	}
	return &Service{repo: repo, region: strings.ToUpper(defaultRegion)}
}

// NationalNumber reduces any dialable form ("+1 (555) 000-1111",
// "whatsapp:+15550001111", "5550001111") to its national significant number.
// Unparseable input falls back to its digits.
func NationalNumber(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, ":"); i >= 0 {
		raw = raw[i+1:]
	}
	if raw == "" {
		return ""
	}
	num, err := phonenumbers.Parse(raw, region)
	if err == nil {
		if n := phonenumbers.GetNationalSignificantNumber(num); n != "" {
			return n
		}
	}
	return digits(raw)
}

// E164 formats raw as +CCNNN..., or returns "" when it cannot be parsed.
func E164(raw, region string) string {
	num, err := phonenumbers.Parse(strings.TrimSpace(raw), region)
	if err != nil {
		return ""
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// Lookup finds the contact for a caller's number. A nil contact means no match.
func (s *Service) Lookup(ctx context.Context, phone string) (*Contact, error) {
	national := NationalNumber(phone, s.region)
	if national == "" {
		return nil, nil
	}
	c, ok, err := s.repo.FindBySuffix(ctx, national)
	if err != nil || !ok {
		return nil, err
	}
	c.FirstName = cases.Title(language.Und).String(c.FirstName)
	return &c, nil
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PostgresRepo reads the host application's contacts table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) FindBySuffix(ctx context.Context, suffix string) (Contact, bool, error) {
	const q = `
SELECT first_name, email_id, phone_number, mobile_no
FROM contacts
WHERE regexp_replace(phone_number, '[^0-9]', '', 'g') LIKE '%' || $1
   OR regexp_replace(mobile_no, '[^0-9]', '', 'g') LIKE '%' || $1
ORDER BY modified_at DESC
LIMIT 1
`
	var c Contact
	err := r.db.QueryRowContext(ctx, q, suffix).Scan(&c.FirstName, &c.EmailID, &c.PhoneNumber, &c.MobileNo)
	if errors.Is(err, sql.ErrNoRows) {
		return Contact{}, false, nil
	}
	if err != nil {
		return Contact{}, false, err
	}
	return c, true, nil
}

// MemoryRepo matches in insertion order; later rows count as more recent.
type MemoryRepo struct {
	mu   sync.Mutex
	rows []Contact
}

func NewMemoryRepo(rows ...Contact) *MemoryRepo { return &MemoryRepo{rows: rows} }

func (r *MemoryRepo) FindBySuffix(ctx context.Context, suffix string) (Contact, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.rows) - 1; i >= 0; i-- {
		c := r.rows[i]
		if strings.HasSuffix(digits(c.PhoneNumber), suffix) || (c.MobileNo != "" && strings.HasSuffix(digits(c.MobileNo), suffix)) {
			return c, true, nil
		}
	}
	return Contact{}, false, nil
}
