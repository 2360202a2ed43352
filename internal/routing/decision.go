package routing

import (
	"errors"

	"twilio-integration/internal/telephony"
)

// Decision is the output of the incoming-call policy.
// It names who attends and how to reach them; rendering is the adapter's job.
type Decision struct {
	// Number is the dialled Twilio number the decision was made for.
	Number string `json:"number"`

	Action    Action `json:"action"`
	ConnectTo string `json:"connect_to,omitempty"`
	CallerID  string `json:"caller_id,omitempty"`

	// Attendee is the user (email) who will take the call; empty when nobody can.
	Attendee string `json:"attendee,omitempty"`
	Message  string `json:"message,omitempty"`

	// Reason is for logs and metrics only.
	Reason string `json:"reason,omitempty"`
}

type Action string

const (
	ActionDialNumber Action = "dial_number"
	ActionDialClient Action = "dial_client"
	ActionSay        Action = "say"
	ActionReject     Action = "reject"
)

// Result maps the decision onto the provider boundary.
func (d Decision) Result() (telephony.InboundCallResult, error) {
	res := telephony.InboundCallResult{ConnectTo: d.ConnectTo, CallerID: d.CallerID, Message: d.Message}
	switch d.Action {
	case ActionDialNumber:
		res.Action = telephony.ActionDialNumber
	case ActionDialClient:
		res.Action = telephony.ActionDialClient
	case ActionSay:
		res.Action = telephony.ActionSay
	case ActionReject:
		res.Action = telephony.ActionReject
	default:
		return telephony.InboundCallResult{}, errors.New("routing: unknown decision action")
	}
	return res, nil
}
