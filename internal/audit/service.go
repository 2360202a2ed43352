package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events. Append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service writes internal audit records. Callers treat it as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s == nil || s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	if e.IPAddress == "" {
		e.IPAddress = ClientIPFromContext(ctx)
	}
	return s.repo.Append(ctx, e)
}

// LogWebhookFailure records a provider callback that failed locally.
func (s *Service) LogWebhookFailure(ctx context.Context, webhook, callSid string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return s.Append(ctx, Event{
		Type:    EventTypeWebhookFailure,
		Webhook: webhook,
		CallSid: callSid,
		Message: msg,
	})
}

// LogSettingsChange records an administrator edit. after is stored as JSON
// and must already have secrets redacted.
func (s *Service) LogSettingsChange(ctx context.Context, actorUserID, actorRole, target string, after any) error {
	meta := ""
	if after != nil {
		b, err := json.Marshal(after)
		if err != nil {
			return err
		}
		meta = string(b)
	}
	return s.Append(ctx, Event{
		Type:        EventTypeSettingsChange,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		Target:      target,
		Message:     "settings updated",
		Metadata:    meta,
	})
}
