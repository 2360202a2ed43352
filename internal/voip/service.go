package voip

import (
	"context"
	"errors"

	"twilio-integration/internal/audit"
	"twilio-integration/internal/calls"
	"twilio-integration/internal/contacts"
	"twilio-integration/internal/events"
	"twilio-integration/internal/routing"
	"twilio-integration/internal/telephony"
	"twilio-integration/internal/voicesettings"
	"twilio-integration/internal/whatsapp"
	"twilio-integration/pkg/metrics"
)

var (
	// ErrIdentityMismatch means a voice webhook named another account or TwiML app.
	ErrIdentityMismatch = errors.New("voip: webhook account or application does not match settings")
	// ErrCallerIdentityMissing means the user has no Twilio number in Voice Call Settings.
	ErrCallerIdentityMissing = errors.New("voip: phone number is not mapped to the caller")
	// ErrProviderUnavailable is returned by operations that cannot degrade to a no-op.
	ErrProviderUnavailable = errors.New("voip: twilio is not configured")
)

// Service implements every voice and WhatsApp operation. HTTP handlers only
// parse input and render output.
//
// Connect is called once per operation so settings edits apply immediately.
type Service struct {
	conn     telephony.Connector
	settings telephony.SettingsSource

	calls    *calls.Service
	voice    *voicesettings.Service
	router   *routing.RoutingEngine
	whatsapp *whatsapp.Service
	contacts *contacts.Service
	events   *events.Service
	audit    *audit.Service

	callStatuses telephony.StatusTable
	metrics      *metrics.Metrics
}

type Deps struct {
	Connector telephony.Connector
	Settings  telephony.SettingsSource

	Calls    *calls.Service
	Voice    *voicesettings.Service
	Router   *routing.RoutingEngine
	WhatsApp *whatsapp.Service
	Contacts *contacts.Service
	Events   *events.Service
	Audit    *audit.Service

	CallStatuses telephony.StatusTable
	Metrics      *metrics.Metrics
}

func NewService(d Deps) *Service {
	return &Service{
		conn:         d.Connector,
		settings:     d.Settings,
		calls:        d.Calls,
		voice:        d.Voice,
		router:       d.Router,
		whatsapp:     d.WhatsApp,
		contacts:     d.Contacts,
		events:       d.Events,
		audit:        d.Audit,
		callStatuses: d.CallStatuses,
		metrics:      d.Metrics,
	}
}

func (s *Service) connect(ctx context.Context, op string) (telephony.Provider, bool) {
	p, ok := s.conn.Connect(ctx)
	if !ok {
		s.metrics.Unavailable(op)
	}
	return p, ok
}

// auditFailure records a webhook fault; audit errors are ignored.
func (s *Service) auditFailure(ctx context.Context, webhook, callSid string, cause error) {
	if s.audit == nil {
		return
	}
	_ = s.audit.LogWebhookFailure(ctx, webhook, callSid, cause)
}
