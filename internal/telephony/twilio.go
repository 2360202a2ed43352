package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	twilio "github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"twilio-integration/pkg/logger"
)

// Callback paths registered in cmd/api/routes.go.
const (
	PathVoice          = "/webhooks/twilio/voice"
	PathIncomingCall   = "/webhooks/twilio/incoming-call"
	PathCallStatus     = "/webhooks/twilio/call-status"
	PathRecording      = "/webhooks/twilio/recording"
	PathWhatsAppIn     = "/webhooks/twilio/whatsapp/incoming"
	PathWhatsAppStatus = "/webhooks/twilio/whatsapp/status"
)

const whatsappPrefix = "whatsapp:"

// twilioAPI is the subset of the Twilio REST API the service calls.
type twilioAPI interface {
	ListIncomingPhoneNumber(params *openapi.ListIncomingPhoneNumberParams) ([]openapi.ApiV2010IncomingPhoneNumber, error)
	FetchCall(sid string, params *openapi.FetchCallParams) (*openapi.ApiV2010Call, error)
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

func newRestAPI(s Settings) twilioAPI {
	c := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: s.AccountSID,
		Password: s.AuthToken,
	})
	return c.Api
}

// TwilioConnector reads settings on every Connect; nothing is cached.
type TwilioConnector struct {
	source   SettingsSource
	baseURL  string
	tokenTTL time.Duration

	now    func() time.Time
	newAPI func(Settings) twilioAPI
}

func NewTwilioConnector(source SettingsSource, publicBaseURL string, tokenTTL time.Duration) *TwilioConnector {
	return &TwilioConnector{
		source:   source,
		baseURL:  strings.TrimRight(publicBaseURL, "/"),
		tokenTTL: tokenTTL,
		now:      time.Now,
		newAPI:   newRestAPI,
	}
}

func (c *TwilioConnector) Connect(ctx context.Context) (Provider, bool) {
	s, err := c.source.Load(ctx)
	if err != nil {
		logger.From(ctx).Error("twilio settings load failed", "err", err)
		return nil, false
	}
	if !s.Complete() {
		return nil, false
	}
	return &TwilioClient{
		settings: s,
		api:      c.newAPI(s),
		baseURL:  c.baseURL,
		tokenTTL: c.tokenTTL,
		now:      c.now,
	}, true
}

// TwilioClient is a Provider bound to one snapshot of settings.
type TwilioClient struct {
	settings Settings
	api      twilioAPI
	baseURL  string
	tokenTTL time.Duration
	now      func() time.Time
}

func (t *TwilioClient) Settings() Settings { return t.settings }

func (t *TwilioClient) PhoneNumbers(ctx context.Context) ([]string, error) {
	params := &openapi.ListIncomingPhoneNumberParams{}
	params.SetLimit(1000)
	rows, err := t.api.ListIncomingPhoneNumber(params)
	if err != nil {
		return nil, fmt.Errorf("twilio: list incoming numbers: %w", err)
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if n := deref(r.PhoneNumber); n != "" {
			out = append(out, n)
		}
	}
	return out, nil
}

func (t *TwilioClient) VoiceAccessToken(identity string, allowIncoming bool) (string, error) {
	return mintVoiceToken(tokenParams{
		AccountSID:     t.settings.AccountSID,
		APIKey:         t.settings.APIKey,
		APISecret:      t.settings.APISecret,
		ApplicationSID: t.settings.ApplicationSID,
		Identity:       identity,
		AllowIncoming:  allowIncoming,
		TTL:            t.tokenTTL,
		Now:            t.now(),
	})
}

func (t *TwilioClient) dialOptions() DialOptions {
	if t.baseURL == "" {
		return DialOptions{}
	}
	return DialOptions{
		StatusCallback:          t.baseURL + PathCallStatus,
		RecordingStatusCallback: t.baseURL + PathRecording,
		Record:                  t.settings.RecordCalls,
	}
}

func (t *TwilioClient) DialResponse(from, to string) (string, error) {
	return t.InboundResponse(InboundCallResult{
		Action:    ActionDialNumber,
		ConnectTo: to,
		CallerID:  from,
	})
}

func (t *TwilioClient) InboundResponse(res InboundCallResult) (string, error) {
	return RenderTwiML(res, t.dialOptions())
}

func (t *TwilioClient) CallInfo(ctx context.Context, callSid string) (CallInfo, error) {
	call, err := t.api.FetchCall(callSid, &openapi.FetchCallParams{})
	if err != nil {
		var restErr *client.TwilioRestError
		if errors.As(err, &restErr) && restErr.Status == http.StatusNotFound {
			return CallInfo{}, ErrCallNotFound
		}
		return CallInfo{}, fmt.Errorf("twilio: fetch call %s: %w", callSid, err)
	}
	if call == nil {
		return CallInfo{}, ErrCallNotFound
	}

	info := CallInfo{
		Sid:       deref(call.Sid),
		From:      deref(call.From),
		To:        deref(call.To),
		Direction: deref(call.Direction),
		Status:    deref(call.Status),
		StartTime: deref(call.StartTime),
		EndTime:   deref(call.EndTime),
	}
	if d := deref(call.Duration); d != "" {
		if n, err := strconv.Atoi(d); err == nil {
			info.DurationSeconds = n
		}
	}
	if raw, err := json.Marshal(call); err == nil {
		info.Raw = string(raw)
	}
	return info, nil
}

func (t *TwilioClient) SendWhatsApp(ctx context.Context, to, body string) (SentMessage, error) {
	from := strings.TrimSpace(t.settings.WhatsAppNumber)
	if from == "" {
		return SentMessage{}, ErrWhatsAppNotEnabled
	}
	params := &openapi.CreateMessageParams{}
	params.SetFrom(WhatsAppAddress(from))
	params.SetTo(WhatsAppAddress(to))
	params.SetBody(body)
	if t.baseURL != "" {
		params.SetStatusCallback(t.baseURL + PathWhatsAppStatus)
	}

	msg, err := t.api.CreateMessage(params)
	if err != nil {
		return SentMessage{}, fmt.Errorf("twilio: create message: %w", err)
	}
	return SentMessage{
		Sid:    deref(msg.Sid),
		From:   deref(msg.From),
		To:     deref(msg.To),
		Status: deref(msg.Status),
	}, nil
}

// WhatsAppAddress adds the "whatsapp:" channel prefix when missing.
func WhatsAppAddress(n string) string {
	n = strings.TrimSpace(n)
	if strings.HasPrefix(strings.ToLower(n), whatsappPrefix) {
		return n
	}
	return whatsappPrefix + n
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
