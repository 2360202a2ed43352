package httpapi

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"twilio-integration/internal/audit"
	"twilio-integration/internal/auth"
	"twilio-integration/internal/calls"
	"twilio-integration/internal/contacts"
	"twilio-integration/internal/events"
	"twilio-integration/internal/reporting"
	"twilio-integration/internal/routing"
	"twilio-integration/internal/telephony"
	"twilio-integration/internal/voicesettings"
	"twilio-integration/internal/voip"
	"twilio-integration/internal/whatsapp"

	"github.com/gin-gonic/gin"
)

const testBaseURL = "https://crm.example.com"

type stubProvider struct {
	settings telephony.Settings
	calls    map[string]telephony.CallInfo

	// renderErr fails TwiML rendering.
	renderErr error
}

func (p *stubProvider) Settings() telephony.Settings { return p.settings }

func (p *stubProvider) PhoneNumbers(ctx context.Context) ([]string, error) {
	return []string{"+15551234567"}, nil
}

func (p *stubProvider) VoiceAccessToken(identity string, allowIncoming bool) (string, error) {
	return "jwt." + identity, nil
}

func (p *stubProvider) DialResponse(from, to string) (string, error) {
	if p.renderErr != nil {
		return "", p.renderErr
	}
	return telephony.RenderTwiML(telephony.InboundCallResult{Action: telephony.ActionDialNumber, ConnectTo: to, CallerID: from}, telephony.DialOptions{})
}

func (p *stubProvider) InboundResponse(res telephony.InboundCallResult) (string, error) {
	if p.renderErr != nil {
		return "", p.renderErr
	}
	return telephony.RenderTwiML(res, telephony.DialOptions{})
}

func (p *stubProvider) CallInfo(ctx context.Context, sid string) (telephony.CallInfo, error) {
	info, ok := p.calls[sid]
	if !ok {
		return telephony.CallInfo{}, telephony.ErrCallNotFound
	}
	return info, nil
}

func (p *stubProvider) SendWhatsApp(ctx context.Context, to, body string) (telephony.SentMessage, error) {
	return telephony.SentMessage{Sid: "SM1", From: "whatsapp:+14155238886", To: telephony.WhatsAppAddress(to), Status: "queued"}, nil
}

type stubConnector struct {
	p       *stubProvider
	enabled bool
}

func (c *stubConnector) Connect(ctx context.Context) (telephony.Provider, bool) {
	if !c.enabled {
		return nil, false
	}
	return c.p, true
}

type env struct {
	h        Handlers
	conn     *stubConnector
	provider *stubProvider
	settings *telephony.StaticSettings
	calls    *calls.MemoryRepo
	audit    *audit.MemoryRepo
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := telephony.Settings{
		Enabled:        true,
		AccountSID:     "AC1",
		AuthToken:      "authtoken",
		APIKey:         "SK1",
		APISecret:      "apisecret",
		ApplicationSID: "AP1",
		ReplyMessage:   "We will get back to you.",
	}
	p := &stubProvider{settings: st, calls: map[string]telephony.CallInfo{}}
	conn := &stubConnector{p: p, enabled: true}
	settings := telephony.NewStaticSettings(st)

	callRepo := calls.NewMemoryRepo()
	callSvc := calls.NewService(callRepo)
	voiceSvc := voicesettings.NewService(voicesettings.NewMemoryRepo(
		voicesettings.Settings{User: "alice@example.com", TwilioNumber: "+15551234567", CallReceivingDevice: voicesettings.DeviceComputer},
	))
	eventSvc := events.NewService(events.NewMemoryRepo(events.SellingStep{Name: "Demo", CreateEvent: true}))
	auditRepo := audit.NewMemoryRepo()
	auditSvc := audit.NewService(auditRepo)

	svc := voip.NewService(voip.Deps{
		Connector:    conn,
		Settings:     settings,
		Calls:        callSvc,
		Voice:        voiceSvc,
		Router:       routing.NewRoutingEngine(voiceSvc, callSvc),
		WhatsApp:     whatsapp.NewService(whatsapp.NewMemoryRepo(), telephony.NewStatusTable(nil, nil)),
		Contacts:     contacts.NewService(contacts.NewMemoryRepo(contacts.Contact{FirstName: "jane", EmailID: "jane@example.com", PhoneNumber: "+1 555 000 4444"}), "US"),
		Events:       eventSvc,
		Audit:        auditSvc,
		CallStatuses: telephony.NewStatusTable(telephony.DefaultCallStatuses, nil),
	})

	return &env{
		h: Handlers{
			VoIP:           svc,
			Reports:        reporting.NewService(callRepo),
			VoiceSettings:  voiceSvc,
			TwilioSettings: settings,
			Events:         eventSvc,
			Audit:          auditSvc,
		},
		conn:     conn,
		provider: p,
		settings: settings,
		calls:    callRepo,
		audit:    auditRepo,
	}
}

// as injects the identity RequireAccessToken would set.
func as(user, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), user, role))
		c.Next()
	}
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postForm(r http.Handler, path string, form url.Values, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func twilioSign(token, fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(form.Get(k))
	}
	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
