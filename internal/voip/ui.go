package voip

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"twilio-integration/internal/calls"
	"twilio-integration/internal/contacts"
	"twilio-integration/internal/events"
	"twilio-integration/internal/telephony"
	"twilio-integration/internal/whatsapp"
	"twilio-integration/pkg/logger"
)

// PhoneNumbers lists the account's incoming numbers; a disabled provider yields none.
func (s *Service) PhoneNumbers(ctx context.Context) ([]string, error) {
	p, ok := s.connect(ctx, "phone_numbers")
	if !ok {
		return []string{}, nil
	}
	return p.PhoneNumbers(ctx)
}

// AccessToken mints a Voice SDK token for user. ok=false means Twilio is disabled.
func (s *Service) AccessToken(ctx context.Context, user string) (token string, ok bool, err error) {
	p, ok := s.connect(ctx, "access_token")
	if !ok {
		return "", false, nil
	}
	from, err := s.voice.TwilioNumber(ctx, user)
	if err != nil {
		return "", true, err
	}
	if from == "" {
		return "", true, ErrCallerIdentityMissing
	}
	token, err = p.VoiceAccessToken(telephony.SafeIdentity(user), true)
	return token, true, err
}

type CreateCallLogInput struct {
	CallSid string
	Type    calls.CallType
	From    string
	To      string
	Status  calls.Status
	User    string
	Links   []calls.Link
}

// CreateCallLog is idempotent on CallSid.
func (s *Service) CreateCallLog(ctx context.Context, in CreateCallLogInput) (string, bool, error) {
	id, created, err := s.calls.Create(ctx, calls.CallLog{
		ID:       in.CallSid,
		Type:     in.Type,
		From:     in.From,
		To:       in.To,
		Status:   in.Status,
		VoIPUser: in.User,
		Links:    in.Links,
	})
	if err != nil {
		return "", false, err
	}
	if created {
		s.metrics.CallLogCreated(string(in.Type))
	}
	return id, created, nil
}

// UpdateCallLog mirrors Twilio's view of the call into its call log.
// It is a no-op (applied=false) when Twilio is disabled or the call log is unknown.
// A non-empty status wins over the provider status.
func (s *Service) UpdateCallLog(ctx context.Context, callSid string, status calls.Status) (bool, error) {
	p, ok := s.connect(ctx, "update_call_log")
	if !ok {
		return false, nil
	}
	exists, err := s.calls.Exists(ctx, callSid)
	if err != nil || !exists {
		return false, err
	}

	info, err := p.CallInfo(ctx, callSid)
	if err != nil {
		return false, err
	}
	if status == "" {
		status = s.callStatus(ctx, info.Status)
	}
	if err := s.calls.ApplyProviderState(ctx, callSid, status, info.DurationSeconds, info.Raw); err != nil {
		return false, err
	}
	return true, nil
}

// callStatus maps a Twilio call status onto a Call Log status.
// Unlisted values map to "", which keeps the stored status.
func (s *Service) callStatus(ctx context.Context, providerStatus string) calls.Status {
	v, ok := s.callStatuses.Lookup(providerStatus)
	if !ok && providerStatus != "" {
		logger.From(ctx).Warn("unmapped twilio call status", "status", providerStatus)
	}
	return calls.Status(v)
}

// SetCallDetails stores the agent's review. No-op when Twilio is disabled or the call log is unknown.
func (s *Service) SetCallDetails(ctx context.Context, callSid, sellType string, d calls.Details) (bool, error) {
	if _, ok := s.connect(ctx, "set_call_details"); !ok {
		return false, nil
	}
	d.SellType = sellType
	err := s.calls.SetDetails(ctx, callSid, d)
	if errors.Is(err, calls.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// CreateEvent schedules the follow-up for a call when the panel requested one
// and the sell type's Selling Step enables event creation.
func (s *Service) CreateEvent(ctx context.Context, callSid, sellType string, values events.Values) (events.Event, bool, error) {
	if !values.Requested() {
		return events.Event{}, false, nil
	}
	l, err := s.calls.Get(ctx, callSid)
	if err != nil {
		return events.Event{}, false, err
	}
	participants := make([]events.Participant, 0, len(l.Links))
	for _, link := range l.Links {
		participants = append(participants, events.Participant{ReferenceDoctype: link.Kind, ReferenceDocname: link.ID})
	}

	ev, created, err := s.events.CreateFromCall(ctx, events.CreateInput{
		CallLog:      l.ID,
		SellType:     sellType,
		Participants: participants,
		Values:       values,
	})
	if err == nil && created {
		s.metrics.EventCreated()
		logger.From(ctx).Info("call event created", "call_sid", l.ID, "event_id", ev.ID, "selling_step", ev.SellingStep)
	}
	return ev, created, err
}

// LookupContact returns the contact for a phone number, or nil.
func (s *Service) LookupContact(ctx context.Context, phone string) (*contacts.Contact, error) {
	return s.contacts.Lookup(ctx, strings.TrimSpace(phone))
}

// SendWhatsApp sends and stores an outbound WhatsApp message.
func (s *Service) SendWhatsApp(ctx context.Context, to, body string) (whatsapp.Message, error) {
	if strings.TrimSpace(to) == "" || strings.TrimSpace(body) == "" {
		return whatsapp.Message{}, fmt.Errorf("%w: to and body required", whatsapp.ErrInvalidArgument)
	}
	p, ok := s.connect(ctx, "send_whatsapp")
	if !ok {
		return whatsapp.Message{}, ErrProviderUnavailable
	}
	sent, err := p.SendWhatsApp(ctx, to, body)
	if err != nil {
		return whatsapp.Message{}, err
	}
	return s.whatsapp.RecordSent(ctx, sent, body)
}

// WhatsAppMessage returns a stored message by (id, from, to).
func (s *Service) WhatsAppMessage(ctx context.Context, id, from, to string) (whatsapp.Message, error) {
	return s.whatsapp.Get(ctx, id, from, to)
}
