package audit

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestService_AppendRequiresType(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	if err := svc.Append(context.Background(), Event{Message: "x"}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestService_LogWebhookFailure(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := WithClientIP(context.Background(), "54.1.2.3")

	if err := svc.LogWebhookFailure(ctx, "recording", "CA404", errors.New("calls: call log not found")); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	e := evs[0]
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Fatalf("expected id and created_at")
	}
	if e.Type != EventTypeWebhookFailure || e.CallSid != "CA404" || e.IPAddress != "54.1.2.3" {
		t.Fatalf("unexpected event: %+v", e)
	}
}

func TestService_LogSettingsChangeStoresJSON(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	err := svc.LogSettingsChange(context.Background(), "admin@example.com", "admin", "voice_call_settings/alice@example.com",
		map[string]string{"twilio_number": "+15550001111"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	e := repo.Events()[0]
	if e.Type != EventTypeSettingsChange || !strings.Contains(e.Metadata, `"twilio_number":"+15550001111"`) {
		t.Fatalf("unexpected event: %+v", e)
	}
}
