package telephony

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeAPI struct {
	numbers []string
	calls   map[string]*openapi.ApiV2010Call
	sent    []*openapi.CreateMessageParams
	err     error
}

func (f *fakeAPI) ListIncomingPhoneNumber(params *openapi.ListIncomingPhoneNumberParams) ([]openapi.ApiV2010IncomingPhoneNumber, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]openapi.ApiV2010IncomingPhoneNumber, 0, len(f.numbers))
	for i := range f.numbers {
		n := f.numbers[i]
		out = append(out, openapi.ApiV2010IncomingPhoneNumber{PhoneNumber: &n})
	}
	return out, nil
}

func (f *fakeAPI) FetchCall(sid string, params *openapi.FetchCallParams) (*openapi.ApiV2010Call, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.calls[sid]
	if !ok {
		return nil, &client.TwilioRestError{Status: 404, Message: "not found"}
	}
	return c, nil
}

func (f *fakeAPI) CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	sid, status := "SM1", "queued"
	return &openapi.ApiV2010Message{Sid: &sid, From: params.From, To: params.To, Status: &status}, nil
}

func strp(s string) *string { return &s }

func completeSettings() Settings {
	return Settings{
		Enabled:        true,
		AccountSID:     "AC1",
		AuthToken:      "tok",
		APIKey:         "SK1",
		APISecret:      "secret",
		ApplicationSID: "AP1",
		WhatsAppNumber: "+14155238886",
		RecordCalls:    true,
	}
}

func newTestConnector(src SettingsSource, api *fakeAPI) *TwilioConnector {
	c := NewTwilioConnector(src, "https://crm.example.com/", time.Hour)
	c.newAPI = func(Settings) twilioAPI { return api }
	return c
}

func TestConnectDisabledOrIncomplete(t *testing.T) {
	ctx := context.Background()

	s := completeSettings()
	s.Enabled = false
	if _, ok := newTestConnector(NewStaticSettings(s), &fakeAPI{}).Connect(ctx); ok {
		t.Fatalf("expected disabled provider")
	}

	s = completeSettings()
	s.APISecret = ""
	if _, ok := newTestConnector(NewStaticSettings(s), &fakeAPI{}).Connect(ctx); ok {
		t.Fatalf("expected incomplete settings to disable provider")
	}

	src := NewStaticSettings(completeSettings())
	src.Err = errors.New("db down")
	if _, ok := newTestConnector(src, &fakeAPI{}).Connect(ctx); ok {
		t.Fatalf("expected load failure to disable provider")
	}
}

func TestConnectReadsSettingsEveryTime(t *testing.T) {
	ctx := context.Background()
	src := NewStaticSettings(Settings{})
	c := newTestConnector(src, &fakeAPI{})

	if _, ok := c.Connect(ctx); ok {
		t.Fatalf("expected disabled provider")
	}
	_ = src.Save(ctx, completeSettings())
	p, ok := c.Connect(ctx)
	if !ok {
		t.Fatalf("expected provider after settings change")
	}
	if p.Settings().AccountSID != "AC1" {
		t.Fatalf("unexpected settings: %+v", p.Settings())
	}
}

func TestPhoneNumbers(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestConnector(NewStaticSettings(completeSettings()), &fakeAPI{numbers: []string{"+15550001111", "+15550002222"}}).Connect(ctx)

	got, err := p.PhoneNumbers(ctx)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 || got[0] != "+15550001111" {
		t.Fatalf("unexpected numbers: %v", got)
	}
}

func TestCallInfo(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{calls: map[string]*openapi.ApiV2010Call{
		"CA1": {Sid: strp("CA1"), Status: strp("completed"), Duration: strp("37"), From: strp("+1"), To: strp("+2")},
	}}
	p, _ := newTestConnector(NewStaticSettings(completeSettings()), api).Connect(ctx)

	info, err := p.CallInfo(ctx, "CA1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if info.Status != "completed" || info.DurationSeconds != 37 {
		t.Fatalf("unexpected info: %+v", info)
	}
	if !strings.Contains(info.Raw, `"sid":"CA1"`) {
		t.Fatalf("expected raw payload, got %s", info.Raw)
	}

	if _, err := p.CallInfo(ctx, "CA404"); !errors.Is(err, ErrCallNotFound) {
		t.Fatalf("expected ErrCallNotFound, got %v", err)
	}
}

func TestDialResponseUsesCallbacks(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestConnector(NewStaticSettings(completeSettings()), &fakeAPI{}).Connect(ctx)

	xml, err := p.DialResponse("+15557654321", "+15550001111")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.Contains(xml, `statusCallback="https://crm.example.com/webhooks/twilio/call-status"`) {
		t.Fatalf("expected status callback: %s", xml)
	}
	if !strings.Contains(xml, `recordingStatusCallback="https://crm.example.com/webhooks/twilio/recording"`) {
		t.Fatalf("expected recording callback: %s", xml)
	}
}

func TestSendWhatsApp(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	p, _ := newTestConnector(NewStaticSettings(completeSettings()), api).Connect(ctx)

	msg, err := p.SendWhatsApp(ctx, "+15550001111", "hello")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if msg.Sid != "SM1" || msg.To != "whatsapp:+15550001111" || msg.From != "whatsapp:+14155238886" {
		t.Fatalf("unexpected message: %+v", msg)
	}

	s := completeSettings()
	s.WhatsAppNumber = ""
	p, _ = newTestConnector(NewStaticSettings(s), api).Connect(ctx)
	if _, err := p.SendWhatsApp(ctx, "+1", "x"); !errors.Is(err, ErrWhatsAppNotEnabled) {
		t.Fatalf("expected ErrWhatsAppNotEnabled, got %v", err)
	}
}
