package telephony

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
)

// Settings is the persisted Twilio configuration (host "Twilio Settings" record).
type Settings struct {
	Enabled bool `json:"enabled"`

	AccountSID string `json:"account_sid"`
	AuthToken  string `json:"auth_token,omitempty"`

	// APIKey/APISecret sign Voice SDK access tokens.
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret,omitempty"`

	// ApplicationSID is the TwiML app the Voice SDK dials through.
	ApplicationSID string `json:"twiml_sid"`

	// ReplyMessage is the WhatsApp auto-reply text.
	ReplyMessage string `json:"reply_message"`

	// WhatsAppNumber is the sender for outbound WhatsApp messages, e.g. "whatsapp:+14155238886".
	WhatsAppNumber string `json:"whatsapp_number"`

	RecordCalls bool `json:"record_calls"`
}

// Complete reports whether the settings are enabled and carry every credential.
func (s Settings) Complete() bool {
	if !s.Enabled {
		return false
	}
	for _, v := range []string{s.AccountSID, s.AuthToken, s.APIKey, s.APISecret, s.ApplicationSID} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// Redacted returns a copy safe to return to admin UIs and logs.
func (s Settings) Redacted() Settings {
	if s.AuthToken != "" {
		s.AuthToken = "********"
	}
	if s.APISecret != "" {
		s.APISecret = "********"
	}
	return s
}

// SettingsSource loads and stores the Twilio settings.
type SettingsSource interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
}

// PostgresSettings keeps the single settings row in twilio_settings.
// Load is a read-through on every call; there is no cache.
type PostgresSettings struct {
	db *sql.DB
}

func NewPostgresSettings(db *sql.DB) *PostgresSettings { return &PostgresSettings{db: db} }

func (p *PostgresSettings) Load(ctx context.Context) (Settings, error) {
	const q = `
SELECT enabled, account_sid, auth_token, api_key, api_secret, twiml_sid,
       reply_message, whatsapp_number, record_calls
FROM twilio_settings
WHERE id = 1
`
	var s Settings
	err := p.db.QueryRowContext(ctx, q).Scan(
		&s.Enabled,
		&s.AccountSID,
		&s.AuthToken,
		&s.APIKey,
		&s.APISecret,
		&s.ApplicationSID,
		&s.ReplyMessage,
		&s.WhatsAppNumber,
		&s.RecordCalls,
	)
	if errors.Is(err, sql.ErrNoRows) {
		// Never configured.
		return Settings{}, nil
	}
	return s, err
}

func (p *PostgresSettings) Save(ctx context.Context, s Settings) error {
	const q = `
INSERT INTO twilio_settings (
  id, enabled, account_sid, auth_token, api_key, api_secret, twiml_sid,
  reply_message, whatsapp_number, record_calls
) VALUES (1,$1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id)
DO UPDATE SET enabled = EXCLUDED.enabled,
              account_sid = EXCLUDED.account_sid,
              auth_token = EXCLUDED.auth_token,
              api_key = EXCLUDED.api_key,
              api_secret = EXCLUDED.api_secret,
              twiml_sid = EXCLUDED.twiml_sid,
              reply_message = EXCLUDED.reply_message,
              whatsapp_number = EXCLUDED.whatsapp_number,
              record_calls = EXCLUDED.record_calls
`
	_, err := p.db.ExecContext(ctx, q,
		s.Enabled,
		s.AccountSID,
		s.AuthToken,
		s.APIKey,
		s.APISecret,
		s.ApplicationSID,
		s.ReplyMessage,
		s.WhatsAppNumber,
		s.RecordCalls,
	)
	return err
}

// StaticSettings is an in-memory SettingsSource for tests and local runs.
type StaticSettings struct {
	mu  sync.Mutex
	s   Settings
	Err error
}

func NewStaticSettings(s Settings) *StaticSettings { return &StaticSettings{s: s} }

func (st *StaticSettings) Load(ctx context.Context) (Settings, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.Err != nil {
		return Settings{}, st.Err
	}
	return st.s, nil
}

func (st *StaticSettings) Save(ctx context.Context, s Settings) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s = s
	return nil
}
