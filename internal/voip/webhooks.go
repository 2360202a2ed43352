package voip

import (
	"context"

	"twilio-integration/internal/calls"
	"twilio-integration/internal/routing"
	"twilio-integration/internal/telephony"
	"twilio-integration/pkg/logger"
)

// Webhook names used for audit records and metrics labels.
const (
	WebhookVoice          = "voice"
	WebhookIncomingCall   = "incoming_call"
	WebhookCallStatus     = "call_status"
	WebhookRecording      = "recording"
	WebhookWhatsAppIn     = "whatsapp_incoming"
	WebhookWhatsAppStatus = "whatsapp_status"
)

// Voice answers the TwiML app for a call placed from the Voice SDK: it dials
// To from the caller's mapped number and records an Outgoing call log.
// handled=false means Twilio is disabled and the empty response was returned.
func (s *Service) Voice(ctx context.Context, f telephony.VoiceForm) (twiml string, handled bool, err error) {
	p, ok := s.connect(ctx, WebhookVoice)
	if !ok {
		return telephony.EmptyResponse(), false, nil
	}
	st := p.Settings()
	if f.AccountSid != st.AccountSID || f.ApplicationSid != st.ApplicationSID {
		return "", true, ErrIdentityMismatch
	}

	log := logger.From(ctx).With("call_sid", f.CallSid)
	user := telephony.EmailFromIdentity(f.Caller)
	from, err := s.voice.TwilioNumber(ctx, user)
	if err != nil {
		return "", true, err
	}
	if from == "" {
		// Twilio falls back to the account default caller id.
		log.Warn("caller has no mapped twilio number", "user", user)
	}

	twiml, err = p.DialResponse(from, f.To)
	if err != nil {
		return "", true, err
	}

	if f.CallSid == "" {
		log.Warn("voice webhook without CallSid; call log skipped")
		return twiml, true, nil
	}
	if _, _, err := s.CreateCallLog(ctx, CreateCallLogInput{
		CallSid: f.CallSid,
		Type:    calls.CallTypeOutgoing,
		From:    from,
		To:      f.To,
		User:    user,
	}); err != nil {
		// The caller still gets connected.
		log.Error("create outgoing call log failed", "err", err)
		s.auditFailure(ctx, WebhookVoice, f.CallSid, err)
	}
	return twiml, true, nil
}

// IncomingCall records an Incoming call log and routes the call to the first
// free owner of the dialled number.
func (s *Service) IncomingCall(ctx context.Context, f telephony.VoiceForm) (string, error) {
	log := logger.From(ctx).With("call_sid", f.CallSid)

	if _, _, err := s.CreateCallLog(ctx, CreateCallLogInput{
		CallSid: f.CallSid,
		Type:    calls.CallTypeIncoming,
		From:    f.From,
		To:      f.To,
	}); err != nil {
		log.Error("create incoming call log failed", "err", err)
		s.auditFailure(ctx, WebhookIncomingCall, f.CallSid, err)
	}

	d, err := s.router.Route(ctx, routing.RouteInput{CallSid: f.CallSid, From: f.From, To: f.To})
	if err != nil {
		log.Error("incoming call routing failed", "err", err)
		s.auditFailure(ctx, WebhookIncomingCall, f.CallSid, err)
		d = routing.Decision{Number: f.To, Action: routing.ActionSay, Message: routing.UnavailableMessage, Reason: "routing_error"}
	}
	log.Info("incoming call routed", "action", d.Action, "attendee", d.Attendee, "reason", d.Reason)

	if d.Attendee != "" {
		if err := s.calls.AttachUser(ctx, f.CallSid, d.Attendee); err != nil {
			log.Error("attach attendee failed", "err", err)
		}
	}

	res, err := d.Result()
	if err != nil {
		return "", err
	}
	if p, ok := s.connect(ctx, WebhookIncomingCall); ok {
		return p.InboundResponse(res)
	}
	return telephony.RenderTwiML(res, telephony.DialOptions{})
}

// CallStatus applies a <Dial> leg status callback to the parent call log.
func (s *Service) CallStatus(ctx context.Context, f telephony.CallStatusForm) (bool, error) {
	sid := f.CallSid
	if f.ParentCallSid != "" {
		sid = f.ParentCallSid
	}
	return s.UpdateCallLog(ctx, sid, s.callStatus(ctx, f.CallStatus))
}

// Recording stores the recording URL once Twilio reports it ready.
// It never fails: every fault is logged and audited.
func (s *Service) Recording(ctx context.Context, f telephony.RecordingForm) {
	log := logger.From(ctx).With("call_sid", f.CallSid)

	if _, err := s.UpdateCallLog(ctx, f.CallSid, ""); err != nil {
		log.Error("failed to capture twilio recording", "stage", "update_call_log", "err", err)
		s.auditFailure(ctx, WebhookRecording, f.CallSid, err)
	}
	if f.RecordingURL == "" {
		log.Warn("twilio recording callback without a recording url")
		return
	}
	if err := s.calls.SetRecordingURL(ctx, f.CallSid, f.RecordingURL); err != nil {
		log.Error("failed to capture twilio recording", "stage", "set_recording_url", "err", err)
		s.auditFailure(ctx, WebhookRecording, f.CallSid, err)
	}
}

// WhatsAppIncoming stores an inbound message and answers with the configured auto-reply.
func (s *Service) WhatsAppIncoming(ctx context.Context, f telephony.MessageForm) (string, error) {
	log := logger.From(ctx).With("message_sid", f.MessageSid)

	if created, err := s.whatsapp.Receive(ctx, f); err != nil {
		log.Error("store incoming whatsapp message failed", "err", err)
		s.auditFailure(ctx, WebhookWhatsAppIn, "", err)
	} else if !created {
		log.Info("duplicate whatsapp message ignored")
	}

	reply := ""
	if st, err := s.settings.Load(ctx); err != nil {
		log.Error("load twilio settings failed", "err", err)
	} else {
		reply = st.ReplyMessage
	}
	return telephony.RenderMessage(reply)
}

// WhatsAppStatus applies a delivery status to a known message; unknown messages are ignored.
func (s *Service) WhatsAppStatus(ctx context.Context, f telephony.MessageStatusForm) (bool, error) {
	return s.whatsapp.ApplyStatus(ctx, f)
}
