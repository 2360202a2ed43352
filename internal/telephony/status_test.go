package telephony

import "testing"

func TestStatusTableTranslate(t *testing.T) {
	tbl := NewStatusTable(DefaultCallStatuses, map[string]string{"answered": "In Progress"})

	cases := map[string]string{
		"in-progress": "In Progress",
		"No-Answer":   "No Answer",
		"completed":   "Completed",
		"answered":    "In Progress",
		"on-hold":     "On Hold",
		"initiated":   "Ringing",
		"":            "",
	}
	for in, want := range cases {
		if got := tbl.Translate(in); got != want {
			t.Fatalf("Translate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStatusTableLookupReportsUnlisted(t *testing.T) {
	tbl := NewStatusTable(DefaultCallStatuses, nil)

	if v, ok := tbl.Lookup("Initiated"); !ok || v != "Ringing" {
		t.Fatalf("Lookup(initiated) = %q,%v", v, ok)
	}
	if v, ok := tbl.Lookup("answered-elsewhere"); ok || v != "" {
		t.Fatalf("expected unlisted status to miss, got %q,%v", v, ok)
	}
	if _, ok := tbl.Lookup(" "); ok {
		t.Fatalf("expected blank status to miss")
	}
}

// Every status Twilio reports on a <Dial> leg lands on a listed Call Log status.
func TestDefaultCallStatusesCoverDialEvents(t *testing.T) {
	tbl := NewStatusTable(DefaultCallStatuses, nil)
	listed := map[string]bool{
		"Queued": true, "Ringing": true, "In Progress": true, "Completed": true,
		"Busy": true, "Failed": true, "No Answer": true, "Canceled": true,
	}
	for _, s := range []string{"initiated", "queued", "ringing", "in-progress", "completed", "busy", "failed", "no-answer", "canceled"} {
		v, ok := tbl.Lookup(s)
		if !ok || !listed[v] {
			t.Fatalf("Lookup(%q) = %q,%v", s, v, ok)
		}
	}
}

func TestStatusTableOverrideWins(t *testing.T) {
	tbl := NewStatusTable(DefaultCallStatuses, map[string]string{"Busy": "Line Busy"})
	if got := tbl.Translate("busy"); got != "Line Busy" {
		t.Fatalf("expected override, got %q", got)
	}
}

func TestIdentityRoundTrip(t *testing.T) {
	id := SafeIdentity("alice@example.com")
	if id != "alice(at)example.com" {
		t.Fatalf("unexpected identity %q", id)
	}
	if got := EmailFromIdentity("client:" + id); got != "alice@example.com" {
		t.Fatalf("unexpected email %q", got)
	}
	if got := EmailFromIdentity("client:alice@example.com"); got != "alice@example.com" {
		t.Fatalf("unexpected email %q", got)
	}
	if !IsClientCaller("client:x") || IsClientCaller("+15550001111") {
		t.Fatalf("IsClientCaller mismatch")
	}
}
