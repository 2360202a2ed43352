package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"
)

// TwiML response builder. Only the verbs the service answers with are modelled.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlReject struct {
	XMLName xml.Name `xml:"Reject"`
	Reason  string   `xml:"reason,attr,omitempty"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Text    string   `xml:",chardata"`
}

type twimlMessage struct {
	XMLName xml.Name `xml:"Message"`
	Body    string   `xml:",chardata"`
}

type twimlDial struct {
	XMLName  xml.Name `xml:"Dial"`
	CallerID string   `xml:"callerId,attr,omitempty"`

	Record                        string `xml:"record,attr,omitempty"`
	RecordingStatusCallback       string `xml:"recordingStatusCallback,attr,omitempty"`
	RecordingStatusCallbackEvent  string `xml:"recordingStatusCallbackEvent,attr,omitempty"`
	RecordingStatusCallbackMethod string `xml:"recordingStatusCallbackMethod,attr,omitempty"`

	Number *twimlEndpoint `xml:"Number,omitempty"`
	Client *twimlEndpoint `xml:"Client,omitempty"`
}

type twimlEndpoint struct {
	StatusCallbackEvent  string `xml:"statusCallbackEvent,attr,omitempty"`
	StatusCallback       string `xml:"statusCallback,attr,omitempty"`
	StatusCallbackMethod string `xml:"statusCallbackMethod,attr,omitempty"`
	Value                string `xml:",chardata"`
}

// DialOptions carries the callbacks attached to <Dial>. Zero value dials without callbacks.
type DialOptions struct {
	StatusCallback          string
	RecordingStatusCallback string
	Record                  bool
}

// RenderTwiML maps an InboundCallResult to TwiML.
func RenderTwiML(res InboundCallResult, opts DialOptions) (string, error) {
	var r twimlResponse

	switch res.Action {
	case ActionReject:
		r.Verbs = append(r.Verbs, twimlReject{Reason: "busy"})
	case ActionHangup:
		r.Verbs = append(r.Verbs, twimlHangup{})
	case ActionSay:
		if strings.TrimSpace(res.Message) == "" {
			return "", errors.New("telephony: message required for say action")
		}
		r.Verbs = append(r.Verbs, twimlSay{Text: res.Message})
	case ActionDialNumber, ActionDialClient:
		if strings.TrimSpace(res.ConnectTo) == "" {
			return "", errors.New("telephony: connect_to required for dial action")
		}
		d := twimlDial{CallerID: res.CallerID}
		if opts.Record && opts.RecordingStatusCallback != "" {
			d.Record = "record-from-answer"
			d.RecordingStatusCallback = opts.RecordingStatusCallback
			d.RecordingStatusCallbackEvent = "completed"
			d.RecordingStatusCallbackMethod = "POST"
		}
		ep := &twimlEndpoint{Value: res.ConnectTo}
		if opts.StatusCallback != "" {
			ep.StatusCallbackEvent = "initiated ringing answered completed"
			ep.StatusCallback = opts.StatusCallback
			ep.StatusCallbackMethod = "POST"
		}
		if res.Action == ActionDialClient {
			d.Client = ep
		} else {
			d.Number = ep
		}
		r.Verbs = append(r.Verbs, d)
	default:
		return "", errors.New("telephony: unknown inbound action")
	}

	return encodeTwiML(r)
}

// RenderMessage answers an inbound message with a single reply.
// An empty body yields an empty response.
func RenderMessage(body string) (string, error) {
	var r twimlResponse
	if strings.TrimSpace(body) != "" {
		r.Verbs = append(r.Verbs, twimlMessage{Body: body})
	}
	return encodeTwiML(r)
}

// EmptyResponse is the TwiML no-op.
func EmptyResponse() string {
	return xml.Header + "<Response></Response>"
}

func encodeTwiML(r twimlResponse) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
