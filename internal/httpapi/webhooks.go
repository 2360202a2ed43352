package httpapi

import (
	"errors"
	"net/http"

	"twilio-integration/internal/telephony"
	"twilio-integration/internal/voip"
	"twilio-integration/pkg/logger"
	"twilio-integration/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Twilio webhooks answer TwiML. Local faults are logged and swallowed
// except where Twilio needs to see the call fail.

var webhookNames = map[string]string{
	telephony.PathVoice:          voip.WebhookVoice,
	telephony.PathIncomingCall:   voip.WebhookIncomingCall,
	telephony.PathCallStatus:     voip.WebhookCallStatus,
	telephony.PathRecording:      voip.WebhookRecording,
	telephony.PathWhatsAppIn:     voip.WebhookWhatsAppIn,
	telephony.PathWhatsAppStatus: voip.WebhookWhatsAppStatus,
}

// webhookName maps a route path to its metrics label.
func webhookName(path string) string {
	if n, ok := webhookNames[path]; ok {
		return n
	}
	return "unknown"
}

func (h Handlers) rejectWebhook(c *gin.Context, name string, err error) {
	logger.FromGin(c).Warn("invalid twilio webhook", "webhook", name, "err", err)
	h.Metrics.Webhook(name, metrics.OutcomeRejected)
	c.AbortWithStatus(http.StatusBadRequest)
}

// VoiceWebhook answers the TwiML app for calls placed from the Voice SDK.
func (h Handlers) VoiceWebhook(c *gin.Context) {
	f, err := telephony.ParseVoiceForm(c.Request)
	if err != nil {
		h.rejectWebhook(c, voip.WebhookVoice, err)
		return
	}
	out, handled, err := h.VoIP.Voice(c.Request.Context(), f)
	switch {
	case errors.Is(err, voip.ErrIdentityMismatch):
		logger.FromGin(c).Warn("voice webhook for foreign account or app", "call_sid", f.CallSid, "account_sid", f.AccountSid)
		h.Metrics.Webhook(voip.WebhookVoice, metrics.OutcomeRejected)
		c.AbortWithStatus(http.StatusForbidden)
		return
	case err != nil:
		// Local faults are not Twilio's to retry.
		logger.FromGin(c).Error("voice webhook failed", "call_sid", f.CallSid, "err", err)
		h.Metrics.Webhook(voip.WebhookVoice, metrics.OutcomeFailed)
		_ = c.Error(err)
		twiml(c, telephony.EmptyResponse())
		return
	}
	outcome := metrics.OutcomeHandled
	if !handled {
		outcome = metrics.OutcomeNoop
	}
	h.Metrics.Webhook(voip.WebhookVoice, outcome)
	twiml(c, out)
}

// IncomingCallWebhook routes a call to one of the dialled number's owners.
func (h Handlers) IncomingCallWebhook(c *gin.Context) {
	f, err := telephony.ParseIncomingCallForm(c.Request)
	if err != nil {
		h.rejectWebhook(c, voip.WebhookIncomingCall, err)
		return
	}
	out, err := h.VoIP.IncomingCall(c.Request.Context(), f)
	if err != nil {
		logger.FromGin(c).Error("incoming call webhook failed", "call_sid", f.CallSid, "err", err)
		h.Metrics.Webhook(voip.WebhookIncomingCall, metrics.OutcomeFailed)
		_ = c.Error(err)
		twiml(c, telephony.EmptyResponse())
		return
	}
	h.Metrics.Webhook(voip.WebhookIncomingCall, metrics.OutcomeHandled)
	twiml(c, out)
}

// CallStatusWebhook mirrors a <Dial> leg status into the parent call log.
func (h Handlers) CallStatusWebhook(c *gin.Context) {
	f, err := telephony.ParseCallStatusForm(c.Request)
	if err != nil {
		h.rejectWebhook(c, voip.WebhookCallStatus, err)
		return
	}
	applied, err := h.VoIP.CallStatus(c.Request.Context(), f)
	switch {
	case err != nil:
		logger.FromGin(c).Error("call status webhook failed", "call_sid", f.CallSid, "parent_call_sid", f.ParentCallSid, "err", err)
		h.Metrics.Webhook(voip.WebhookCallStatus, metrics.OutcomeFailed)
	case applied:
		h.Metrics.Webhook(voip.WebhookCallStatus, metrics.OutcomeHandled)
	default:
		h.Metrics.Webhook(voip.WebhookCallStatus, metrics.OutcomeNoop)
	}
	twiml(c, telephony.EmptyResponse())
}

// RecordingWebhook always answers 200.
func (h Handlers) RecordingWebhook(c *gin.Context) {
	f, err := telephony.ParseRecordingForm(c.Request)
	if err != nil {
		logger.FromGin(c).Error("failed to capture twilio recording", "stage", "parse", "err", err)
		h.Metrics.Webhook(voip.WebhookRecording, metrics.OutcomeRejected)
		twiml(c, telephony.EmptyResponse())
		return
	}
	h.VoIP.Recording(c.Request.Context(), f)
	h.Metrics.Webhook(voip.WebhookRecording, metrics.OutcomeHandled)
	twiml(c, telephony.EmptyResponse())
}

func (h Handlers) WhatsAppIncomingWebhook(c *gin.Context) {
	f, err := telephony.ParseMessageForm(c.Request)
	if err != nil {
		h.rejectWebhook(c, voip.WebhookWhatsAppIn, err)
		return
	}
	out, err := h.VoIP.WhatsAppIncoming(c.Request.Context(), f)
	if err != nil {
		logger.FromGin(c).Error("whatsapp incoming webhook failed", "message_sid", f.MessageSid, "err", err)
		h.Metrics.Webhook(voip.WebhookWhatsAppIn, metrics.OutcomeFailed)
		twiml(c, telephony.EmptyResponse())
		return
	}
	h.Metrics.Webhook(voip.WebhookWhatsAppIn, metrics.OutcomeHandled)
	twiml(c, out)
}

func (h Handlers) WhatsAppStatusWebhook(c *gin.Context) {
	f, err := telephony.ParseMessageStatusForm(c.Request)
	if err != nil {
		h.rejectWebhook(c, voip.WebhookWhatsAppStatus, err)
		return
	}
	updated, err := h.VoIP.WhatsAppStatus(c.Request.Context(), f)
	switch {
	case err != nil:
		logger.FromGin(c).Error("whatsapp status webhook failed", "message_sid", f.MessageSid, "err", err)
		h.Metrics.Webhook(voip.WebhookWhatsAppStatus, metrics.OutcomeFailed)
	case updated:
		h.Metrics.Webhook(voip.WebhookWhatsAppStatus, metrics.OutcomeHandled)
	default:
		h.Metrics.Webhook(voip.WebhookWhatsAppStatus, metrics.OutcomeNoop)
	}
	twiml(c, telephony.EmptyResponse())
}
