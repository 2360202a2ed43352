package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
)

func postForm(v url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/voice", strings.NewReader(v.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestParseVoiceFormRequiresFields(t *testing.T) {
	_, err := ParseVoiceForm(postForm(url.Values{"AccountSid": {"AC1"}, "To": {"+15550001111"}}))
	if !errors.Is(err, ErrInvalidWebhook) {
		t.Fatalf("expected ErrInvalidWebhook, got %v", err)
	}
	if !strings.Contains(err.Error(), "ApplicationSid") || !strings.Contains(err.Error(), "Caller") {
		t.Fatalf("expected missing field names, got %v", err)
	}
}

func TestParseRecordingFormRequiresURL(t *testing.T) {
	_, err := ParseRecordingForm(postForm(url.Values{"CallSid": {"CA1"}, "RecordingStatus": {"completed"}}))
	if !errors.Is(err, ErrInvalidWebhook) || !strings.Contains(err.Error(), "RecordingUrl") {
		t.Fatalf("expected missing RecordingUrl, got %v", err)
	}
	f, err := ParseRecordingForm(postForm(url.Values{"CallSid": {"CA1"}, "RecordingUrl": {"https://api.twilio.com/rec"}}))
	if err != nil || f.RecordingURL != "https://api.twilio.com/rec" {
		t.Fatalf("unexpected form: %+v %v", f, err)
	}
}

func TestParseVoiceForm(t *testing.T) {
	f, err := ParseVoiceForm(postForm(url.Values{
		"CallSid":        {"CA1"},
		"AccountSid":     {"AC1"},
		"ApplicationSid": {"AP1"},
		"Caller":         {"client:alice(at)example.com"},
		"To":             {"+15550001111"},
	}))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if f.CallSid != "CA1" || f.Caller != "client:alice(at)example.com" {
		t.Fatalf("unexpected form: %+v", f)
	}
}

func TestParseCallStatusFormDuration(t *testing.T) {
	f, err := ParseCallStatusForm(postForm(url.Values{
		"CallSid":       {"CA2"},
		"ParentCallSid": {"CA1"},
		"CallStatus":    {"completed"},
		"CallDuration":  {"42"},
	}))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if f.CallDuration != 42 || f.ParentCallSid != "CA1" {
		t.Fatalf("unexpected form: %+v", f)
	}

	if _, err := ParseCallStatusForm(postForm(url.Values{"CallSid": {"CA2"}, "CallDuration": {"-1"}})); err == nil {
		t.Fatalf("expected error for negative duration")
	}
}

func TestParseMessageStatusFallsBackToSmsStatus(t *testing.T) {
	f, err := ParseMessageStatusForm(postForm(url.Values{
		"MessageSid": {"SM1"},
		"From":       {"whatsapp:+1"},
		"To":         {"whatsapp:+2"},
		"SmsStatus":  {"delivered"},
	}))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if f.MessageStatus != "delivered" {
		t.Fatalf("unexpected status %q", f.MessageStatus)
	}
}

func sign(token, fullURL string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params[k])
	}
	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestValidSignature(t *testing.T) {
	const u = "https://crm.example.com/webhooks/twilio/voice"
	params := map[string]string{"CallSid": "CA1", "To": "+15550001111"}
	sig := sign("token", u, params)

	if !ValidSignature("token", u, params, sig) {
		t.Fatalf("expected valid signature")
	}
	if ValidSignature("other", u, params, sig) {
		t.Fatalf("expected invalid signature for wrong token")
	}
	if ValidSignature("token", u, params, "") {
		t.Fatalf("expected invalid for empty signature")
	}
}
