package calls

import "time"

// CallLog mirrors one Twilio call.
//
// Invariant: ID is the Twilio CallSid. Creating the same sid twice is a no-op,
// which makes the record a safe upsert target for retried webhooks.
type CallLog struct {
	ID   string   `json:"id" db:"id"`
	Type CallType `json:"type" db:"type"`

	From string `json:"from" db:"from"`
	To   string `json:"to" db:"to"`

	Status Status `json:"status" db:"status"`

	// DurationSeconds is the billed call duration reported by Twilio.
	DurationSeconds int `json:"duration" db:"duration"`

	RecordingURL string `json:"recording_url,omitempty" db:"recording_url"`
	Medium       string `json:"medium" db:"medium"`

	// CallInfo is the last raw provider view of the call (JSON).
	CallInfo string `json:"custom_call_info,omitempty" db:"custom_call_info"`

	// VoIPUser is the local user (email) who placed or attends the call.
	VoIPUser string `json:"custom_voip_user,omitempty" db:"custom_voip_user"`

	// Review fields filled in by the agent after the call.
	Ratings           string `json:"custom_ratings,omitempty" db:"custom_ratings"`
	RequestCallReview string `json:"custom_request_call_review,omitempty" db:"custom_request_call_review"`
	Reviewer          string `json:"custom_reviewer,omitempty" db:"custom_reviewer"`
	SellType          string `json:"custom_sell_type,omitempty" db:"custom_sell_type"`
	CallNotes         string `json:"custom_call_notes,omitempty" db:"custom_call_notes"`

	Links []Link `json:"links,omitempty"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Link ties a call log to a business record, e.g. {Kind: "Lead", ID: "LEAD-0001"}.
type Link struct {
	Kind string `json:"link_doctype" binding:"required"`
	ID   string `json:"link_name" binding:"required"`
}

// Details are the review fields merged by SetDetails.
type Details struct {
	Ratings           string
	RequestCallReview string
	Reviewer          string
	SellType          string
	CallNotes         string
}

type CallType string

const (
	CallTypeIncoming CallType = "Incoming"
	CallTypeOutgoing CallType = "Outgoing"
)

// MediumTwilio is the medium stamped on every call log this service creates.
const MediumTwilio = "Twilio"

// Status values match the host application's Call Log options exactly.
type Status string

const (
	StatusQueued     Status = "Queued"
	StatusRinging    Status = "Ringing"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
	StatusBusy       Status = "Busy"
	StatusFailed     Status = "Failed"
	StatusNoAnswer   Status = "No Answer"
	StatusCanceled   Status = "Canceled"
)

// IsTerminal reports whether the call has ended. Terminal statuses are never re-opened.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusBusy, StatusFailed, StatusNoAnswer, StatusCanceled:
		return true
	default:
		return false
	}
}

// IsActive reports whether the call currently occupies its attendee.
func (s Status) IsActive() bool {
	return s == StatusRinging || s == StatusInProgress
}
