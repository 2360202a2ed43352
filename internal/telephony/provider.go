package telephony

import (
	"context"
	"errors"
)

// Provider is the Twilio account as seen by the rest of the service.
//
// Rules:
// - No Twilio SDK calls outside this package.
// - A Provider only exists while persisted settings are complete; obtain one
//   through Connector.Connect on every request so edits apply immediately.
type Provider interface {
	Settings() Settings

	// PhoneNumbers lists the incoming phone numbers owned by the account.
	PhoneNumbers(ctx context.Context) ([]string, error)

	// VoiceAccessToken mints a Voice SDK token for identity.
	VoiceAccessToken(identity string, allowIncoming bool) (string, error)

	// DialResponse returns TwiML bridging the caller from `from` to `to`.
	DialResponse(from, to string) (string, error)

	// InboundResponse renders an inbound routing result with this account's callbacks.
	InboundResponse(res InboundCallResult) (string, error)

	// CallInfo returns Twilio's current view of a call.
	// Unknown sids return ErrCallNotFound.
	CallInfo(ctx context.Context, callSid string) (CallInfo, error)

	// SendWhatsApp sends body to a WhatsApp address from the configured sender.
	SendWhatsApp(ctx context.Context, to, body string) (SentMessage, error)
}

// Connector yields a Provider, or ok=false when Twilio is not configured.
// ok=false means "feature disabled", never a fatal error.
type Connector interface {
	Connect(ctx context.Context) (p Provider, ok bool)
}

var (
	ErrCallNotFound       = errors.New("telephony: call not found at provider")
	ErrWhatsAppNotEnabled = errors.New("telephony: whatsapp sender number not configured")
)

// CallInfo is the provider's view of one call.
type CallInfo struct {
	Sid       string `json:"sid"`
	From      string `json:"from"`
	To        string `json:"to"`
	Direction string `json:"direction"`

	// Status is the raw Twilio status, e.g. "in-progress".
	Status string `json:"status"`

	DurationSeconds int    `json:"duration"`
	StartTime       string `json:"start_time,omitempty"`
	EndTime         string `json:"end_time,omitempty"`

	// Raw is the full provider payload as JSON.
	Raw string `json:"-"`
}

// SentMessage is the provider acknowledgement of an outbound message.
type SentMessage struct {
	Sid    string `json:"sid"`
	From   string `json:"from"`
	To     string `json:"to"`
	Status string `json:"status"`
}

// InboundCallResult describes the TwiML to return for a call.
type InboundCallResult struct {
	Action InboundCallAction `json:"action"`

	// ConnectTo is a phone number for ActionDialNumber or a client identity for ActionDialClient.
	ConnectTo string `json:"connect_to,omitempty"`

	// CallerID is presented to the dialled party.
	CallerID string `json:"caller_id,omitempty"`

	// Message is spoken for ActionSay.
	Message string `json:"message,omitempty"`
}

type InboundCallAction string

const (
	ActionDialNumber InboundCallAction = "dial_number"
	ActionDialClient InboundCallAction = "dial_client"
	ActionSay        InboundCallAction = "say"
	ActionReject     InboundCallAction = "reject"
	ActionHangup     InboundCallAction = "hangup"
)
