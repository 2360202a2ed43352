package telephony

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultCallStatuses maps Twilio call statuses to Call Log statuses.
// "initiated" is a <Dial> leg event: the parent call is still ringing.
var DefaultCallStatuses = map[string]string{
	"initiated":   "Ringing",
	"queued":      "Queued",
	"ringing":     "Ringing",
	"in-progress": "In Progress",
	"completed":   "Completed",
	"busy":        "Busy",
	"failed":      "Failed",
	"no-answer":   "No Answer",
	"canceled":    "Canceled",
}

// StatusTable translates provider status strings into local status values.
// Unlisted values are title-cased (hyphens and underscores become spaces), so
// a status Twilio adds later still maps to exactly one local value.
type StatusTable struct {
	m map[string]string
}

// NewStatusTable merges overrides on top of defaults. Keys are case-insensitive.
func NewStatusTable(defaults, overrides map[string]string) StatusTable {
	m := make(map[string]string, len(defaults)+len(overrides))
	for k, v := range defaults {
		m[strings.ToLower(k)] = v
	}
	for k, v := range overrides {
		m[strings.ToLower(k)] = v
	}
	return StatusTable{m: m}
}

// Translate returns the local status for a provider status; "" stays "".
func (t StatusTable) Translate(providerStatus string) string {
	if v, ok := t.Lookup(providerStatus); ok {
		return v
	}
	k := strings.ToLower(strings.TrimSpace(providerStatus))
	if k == "" {
		return ""
	}
	return TitleCase(strings.NewReplacer("-", " ", "_", " ").Replace(k))
}

// Lookup returns the listed local status for a provider status.
// ok is false for "" and for values missing from the table.
func (t StatusTable) Lookup(providerStatus string) (string, bool) {
	k := strings.ToLower(strings.TrimSpace(providerStatus))
	if k == "" {
		return "", false
	}
	v, ok := t.m[k]
	return v, ok
}

// TitleCase upper-cases the first letter of every word.
func TitleCase(s string) string {
	// Casers are stateful; build one per call.
	return cases.Title(language.Und).String(s)
}
