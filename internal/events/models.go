package events

import (
	"errors"
	"time"
)

var (
	ErrSellingStepNotFound = errors.New("events: selling step not found")
	ErrInvalidArgument     = errors.New("events: invalid argument")
)

const (
	CategoryCall = "Call"
	TypePrivate  = "Private"
)

// SellingStep is a stage of the sales process; some stages schedule a follow-up event.
type SellingStep struct {
	Name        string `json:"name"`
	CreateEvent bool   `json:"create_event"`
}

type Participant struct {
	ReferenceDoctype string `json:"reference_doctype"`
	ReferenceDocname string `json:"reference_docname"`
}

// Event is a calendar entry created from a call.
type Event struct {
	ID           string        `json:"id"`
	StartsOn     time.Time     `json:"starts_on"`
	Subject      string        `json:"subject"`
	Description  string        `json:"description"`
	Category     string        `json:"event_category"`
	Type         string        `json:"event_type"`
	CallLog      string        `json:"custom_call_log"`
	SellingStep  string        `json:"selling_step"`
	Participants []Participant `json:"event_participants"`
	CreatedAt    time.Time     `json:"created_at"`
}
