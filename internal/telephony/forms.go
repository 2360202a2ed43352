package telephony

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

var ErrInvalidWebhook = errors.New("telephony: invalid webhook payload")

// VoiceForm is posted to the TwiML app voice URL for outgoing SDK calls
// and to the number's voice URL for incoming calls.
type VoiceForm struct {
	CallSid        string
	AccountSid     string
	ApplicationSid string
	Caller         string
	From           string
	To             string
	Direction      string
	CallStatus     string
}

// CallStatusForm is posted by <Dial><Number statusCallback>.
type CallStatusForm struct {
	CallSid       string
	ParentCallSid string
	CallStatus    string
	CallDuration  int
}

// RecordingForm is posted by the recording status callback.
type RecordingForm struct {
	CallSid         string
	RecordingSid    string
	RecordingURL    string
	RecordingStatus string
}

// MessageForm is an inbound WhatsApp message.
type MessageForm struct {
	MessageSid  string
	AccountSid  string
	From        string
	To          string
	Body        string
	ProfileName string
	NumMedia    int
}

// MessageStatusForm is a WhatsApp delivery status update.
type MessageStatusForm struct {
	MessageSid    string
	From          string
	To            string
	MessageStatus string
}

func field(r *http.Request, name string) string {
	return strings.TrimSpace(r.PostFormValue(name))
}

func missing(fields map[string]string) error {
	var names []string
	for _, k := range []string{"CallSid", "MessageSid", "AccountSid", "ApplicationSid", "Caller", "From", "To", "MessageStatus", "RecordingUrl"} {
		if v, ok := fields[k]; ok && v == "" {
			names = append(names, k)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return fmt.Errorf("%w: missing %s", ErrInvalidWebhook, strings.Join(names, ", "))
}

// ParseVoiceForm requires AccountSid, ApplicationSid, Caller and To.
func ParseVoiceForm(r *http.Request) (VoiceForm, error) {
	if err := r.ParseForm(); err != nil {
		return VoiceForm{}, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	f := VoiceForm{
		CallSid:        field(r, "CallSid"),
		AccountSid:     field(r, "AccountSid"),
		ApplicationSid: field(r, "ApplicationSid"),
		Caller:         field(r, "Caller"),
		From:           field(r, "From"),
		To:             field(r, "To"),
		Direction:      field(r, "Direction"),
		CallStatus:     field(r, "CallStatus"),
	}
	return f, missing(map[string]string{
		"AccountSid":     f.AccountSid,
		"ApplicationSid": f.ApplicationSid,
		"Caller":         f.Caller,
		"To":             f.To,
	})
}

// ParseIncomingCallForm requires CallSid, From and To.
func ParseIncomingCallForm(r *http.Request) (VoiceForm, error) {
	if err := r.ParseForm(); err != nil {
		return VoiceForm{}, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	f := VoiceForm{
		CallSid:    field(r, "CallSid"),
		AccountSid: field(r, "AccountSid"),
		Caller:     field(r, "Caller"),
		From:       field(r, "From"),
		To:         field(r, "To"),
		Direction:  field(r, "Direction"),
		CallStatus: field(r, "CallStatus"),
	}
	return f, missing(map[string]string{"CallSid": f.CallSid, "From": f.From, "To": f.To})
}

func ParseCallStatusForm(r *http.Request) (CallStatusForm, error) {
	if err := r.ParseForm(); err != nil {
		return CallStatusForm{}, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	f := CallStatusForm{
		CallSid:       field(r, "CallSid"),
		ParentCallSid: field(r, "ParentCallSid"),
		CallStatus:    field(r, "CallStatus"),
	}
	if d := field(r, "CallDuration"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil || n < 0 {
			return f, fmt.Errorf("%w: CallDuration must be a non-negative integer", ErrInvalidWebhook)
		}
		f.CallDuration = n
	}
	return f, missing(map[string]string{"CallSid": f.CallSid})
}

func ParseRecordingForm(r *http.Request) (RecordingForm, error) {
	if err := r.ParseForm(); err != nil {
		return RecordingForm{}, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	f := RecordingForm{
		CallSid:         field(r, "CallSid"),
		RecordingSid:    field(r, "RecordingSid"),
		RecordingURL:    field(r, "RecordingUrl"),
		RecordingStatus: field(r, "RecordingStatus"),
	}
	return f, missing(map[string]string{"CallSid": f.CallSid, "RecordingUrl": f.RecordingURL})
}

func ParseMessageForm(r *http.Request) (MessageForm, error) {
	if err := r.ParseForm(); err != nil {
		return MessageForm{}, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	f := MessageForm{
		MessageSid:  field(r, "MessageSid"),
		AccountSid:  field(r, "AccountSid"),
		From:        field(r, "From"),
		To:          field(r, "To"),
		Body:        r.PostFormValue("Body"),
		ProfileName: field(r, "ProfileName"),
	}
	if n, err := strconv.Atoi(field(r, "NumMedia")); err == nil {
		f.NumMedia = n
	}
	return f, missing(map[string]string{"MessageSid": f.MessageSid, "From": f.From, "To": f.To})
}

func ParseMessageStatusForm(r *http.Request) (MessageStatusForm, error) {
	if err := r.ParseForm(); err != nil {
		return MessageStatusForm{}, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	f := MessageStatusForm{
		MessageSid:    field(r, "MessageSid"),
		From:          field(r, "From"),
		To:            field(r, "To"),
		MessageStatus: field(r, "MessageStatus"),
	}
	if f.MessageStatus == "" {
		// Older callbacks only carry SmsStatus.
		f.MessageStatus = field(r, "SmsStatus")
	}
	return f, missing(map[string]string{
		"MessageSid":    f.MessageSid,
		"From":          f.From,
		"To":            f.To,
		"MessageStatus": f.MessageStatus,
	})
}

// FormParams flattens the POST form for signature validation.
// Call after one of the Parse functions (or r.ParseForm).
func FormParams(r *http.Request) map[string]string {
	out := make(map[string]string, len(r.PostForm))
	for k, v := range r.PostForm {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
