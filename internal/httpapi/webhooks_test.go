package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"twilio-integration/internal/audit"
	"twilio-integration/internal/calls"
	"twilio-integration/internal/telephony"
	"twilio-integration/internal/voip"

	"github.com/gin-gonic/gin"
)

func webhookRouter(e *env) *gin.Engine {
	r := gin.New()
	r.POST(telephony.PathVoice, e.h.VoiceWebhook)
	r.POST(telephony.PathIncomingCall, e.h.IncomingCallWebhook)
	r.POST(telephony.PathCallStatus, e.h.CallStatusWebhook)
	r.POST(telephony.PathRecording, e.h.RecordingWebhook)
	r.POST(telephony.PathWhatsAppIn, e.h.WhatsAppIncomingWebhook)
	r.POST(telephony.PathWhatsAppStatus, e.h.WhatsAppStatusWebhook)
	return r
}

func voiceForm(account string) url.Values {
	return url.Values{
		"CallSid":        {"CA900"},
		"AccountSid":     {account},
		"ApplicationSid": {"AP1"},
		"Caller":         {"client:alice@example.com"},
		"To":             {"+15557654321"},
	}
}

func TestVoiceWebhook_DialsAndLogs(t *testing.T) {
	e := newEnv(t)
	w := postForm(webhookRouter(e), telephony.PathVoice, voiceForm("AC1"), nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/xml") {
		t.Fatalf("expected text/xml, got %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, `<Dial callerId="+15551234567">`) || !strings.Contains(body, "+15557654321</Number>") {
		t.Fatalf("unexpected twiml: %s", body)
	}
	l, err := e.calls.Get(context.Background(), "CA900")
	if err != nil || l.VoIPUser != "alice@example.com" {
		t.Fatalf("expected call log for alice, got %+v %v", l, err)
	}
}

func TestVoiceWebhook_ForeignAccountIs403(t *testing.T) {
	e := newEnv(t)
	w := postForm(webhookRouter(e), telephony.PathVoice, voiceForm("AC-other"), nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestVoiceWebhook_MissingFieldsIs400(t *testing.T) {
	e := newEnv(t)
	w := postForm(webhookRouter(e), telephony.PathVoice, url.Values{"CallSid": {"CA1"}}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestVoiceWebhook_DisabledIsEmptyTwiML(t *testing.T) {
	e := newEnv(t)
	e.conn.enabled = false
	w := postForm(webhookRouter(e), telephony.PathVoice, voiceForm("AC1"), nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<Response></Response>") {
		t.Fatalf("expected empty twiml, got %d %s", w.Code, w.Body.String())
	}
}

func TestVoiceWebhook_LocalFaultIsEmptyTwiML(t *testing.T) {
	e := newEnv(t)
	e.provider.renderErr = errors.New("render failed")
	w := postForm(webhookRouter(e), telephony.PathVoice, voiceForm("AC1"), nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<Response></Response>") {
		t.Fatalf("expected empty twiml, got %d %s", w.Code, w.Body.String())
	}
}

func TestIncomingCallWebhook_LocalFaultIsEmptyTwiML(t *testing.T) {
	e := newEnv(t)
	e.provider.renderErr = errors.New("render failed")
	w := postForm(webhookRouter(e), telephony.PathIncomingCall, url.Values{
		"CallSid": {"CA902"},
		"From":    {"+15550001111"},
		"To":      {"+15551234567"},
	}, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<Response></Response>") {
		t.Fatalf("expected empty twiml, got %d %s", w.Code, w.Body.String())
	}
}

func TestIncomingCallWebhook_DialsOwnerClient(t *testing.T) {
	e := newEnv(t)
	w := postForm(webhookRouter(e), telephony.PathIncomingCall, url.Values{
		"CallSid": {"CA901"},
		"From":    {"+15550001111"},
		"To":      {"+15551234567"},
	}, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "alice(at)example.com</Client>") {
		t.Fatalf("expected client dial, got %d %s", w.Code, w.Body.String())
	}
}

func TestRecordingWebhook_UnknownCallStill200(t *testing.T) {
	e := newEnv(t)
	w := postForm(webhookRouter(e), telephony.PathRecording, url.Values{
		"CallSid":      {"CA404"},
		"RecordingUrl": {"https://api.twilio.com/rec/RE1"},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	evs := e.audit.Events()
	if len(evs) == 0 || evs[0].Type != audit.EventTypeWebhookFailure {
		t.Fatalf("expected webhook failure audit, got %+v", evs)
	}

	// Even a malformed callback gets 200.
	if w := postForm(webhookRouter(e), telephony.PathRecording, url.Values{}, nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty form, got %d", w.Code)
	}
}

func TestRecordingWebhook_MissingURLKeepsStoredRecording(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, _, _ = e.h.VoIP.CreateCallLog(ctx, voip.CreateCallLogInput{CallSid: "CA950", Type: calls.CallTypeOutgoing})
	e.provider.calls["CA950"] = telephony.CallInfo{Sid: "CA950", Status: "completed"}

	r := webhookRouter(e)
	_ = postForm(r, telephony.PathRecording, url.Values{"CallSid": {"CA950"}, "RecordingUrl": {"https://api.twilio.com/rec/RE9"}}, nil)
	if w := postForm(r, telephony.PathRecording, url.Values{"CallSid": {"CA950"}}, nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	l, _ := e.calls.Get(ctx, "CA950")
	if l.RecordingURL != "https://api.twilio.com/rec/RE9" {
		t.Fatalf("expected stored recording url, got %q", l.RecordingURL)
	}
}

func TestCallStatusWebhook_UpdatesParent(t *testing.T) {
	e := newEnv(t)
	r := webhookRouter(e)
	_ = postForm(r, telephony.PathVoice, voiceForm("AC1"), nil)
	e.provider.calls["CA900"] = telephony.CallInfo{Sid: "CA900", Status: "completed", DurationSeconds: 33}

	w := postForm(r, telephony.PathCallStatus, url.Values{
		"CallSid":       {"CA950"},
		"ParentCallSid": {"CA900"},
		"CallStatus":    {"busy"},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	l, _ := e.calls.Get(context.Background(), "CA900")
	if l.Status != "Busy" || l.DurationSeconds != 33 {
		t.Fatalf("unexpected call log: %+v", l)
	}
}

func TestWhatsAppWebhooks(t *testing.T) {
	e := newEnv(t)
	r := webhookRouter(e)

	w := postForm(r, telephony.PathWhatsAppIn, url.Values{
		"MessageSid": {"SM1"},
		"From":       {"whatsapp:+15550001111"},
		"To":         {"whatsapp:+14155238886"},
		"Body":       {"hello"},
	}, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<Message>We will get back to you.</Message>") {
		t.Fatalf("expected auto-reply, got %d %s", w.Code, w.Body.String())
	}

	w = postForm(r, telephony.PathWhatsAppStatus, url.Values{
		"MessageSid":    {"SM1"},
		"From":          {"whatsapp:+15550001111"},
		"To":            {"whatsapp:+14155238886"},
		"MessageStatus": {"delivered"},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	m, err := e.h.VoIP.WhatsAppMessage(context.Background(), "SM1", "whatsapp:+15550001111", "whatsapp:+14155238886")
	if err != nil || m.Status != "Delivered" {
		t.Fatalf("expected Delivered, got %+v %v", m, err)
	}
}
