package audit

import "time"

// Event is an immutable, append-only audit record.
//
// Invariants:
// - Events are never updated or deleted.
// - Actor and IP capture are best-effort; audit failures never block a webhook or admin write.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	// ActorUserID is the authenticated user causing the event; empty for provider webhooks.
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`
	IPAddress   string `json:"ip_address,omitempty" db:"ip_address"`

	// Target identifiers, depending on Type.
	Webhook string `json:"webhook,omitempty" db:"webhook"`
	CallSid string `json:"call_sid,omitempty" db:"call_sid"`
	Target  string `json:"target,omitempty" db:"target"`

	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	// EventTypeWebhookFailure records a provider callback that could not be applied.
	EventTypeWebhookFailure EventType = "webhook_failure"
	// EventTypeSettingsChange records an administrator edit of persisted configuration.
	EventTypeSettingsChange EventType = "settings_change"
)
