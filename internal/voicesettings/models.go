package voicesettings

import (
	"context"
	"errors"
)

// Settings maps one local user to the Twilio number they call from and
// how they receive inbound calls.
type Settings struct {
	User                string `json:"user" db:"user"`
	TwilioNumber        string `json:"twilio_number" db:"twilio_number"`
	CallReceivingDevice Device `json:"call_receiving_device" db:"call_receiving_device"`
	MobileNo            string `json:"mobile_no,omitempty" db:"mobile_no"`
}

type Device string

const (
	DeviceComputer Device = "Computer"
	DevicePhone    Device = "Phone"
)

var (
	ErrNotFound        = errors.New("voicesettings: not found")
	ErrInvalidArgument = errors.New("voicesettings: invalid argument")
)

// Repository is the persistence contract for Voice Call Settings.
type Repository interface {
	Get(ctx context.Context, user string) (Settings, error)
	Upsert(ctx context.Context, s Settings) error
	// Owners returns every user mapped to the given Twilio number, ordered by user.
	Owners(ctx context.Context, twilioNumber string) ([]Settings, error)
}
