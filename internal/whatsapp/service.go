package whatsapp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"twilio-integration/internal/telephony"
)

type Service struct {
	repo     Repository
	statuses telephony.StatusTable
	clock    func() time.Time
}

func NewService(repo Repository, statuses telephony.StatusTable) *Service {
	return &Service{repo: repo, statuses: statuses, clock: time.Now}
}

// Receive persists an inbound message. Redelivery of the same
// (id, from, to) returns created=false and leaves the row untouched.
func (s *Service) Receive(ctx context.Context, f telephony.MessageForm) (bool, error) {
	if f.MessageSid == "" || f.From == "" || f.To == "" {
		return false, fmt.Errorf("%w: message sid, from and to required", ErrInvalidArgument)
	}
	now := s.clock().UTC()
	return s.repo.Insert(ctx, Message{
		ID:           f.MessageSid,
		From:         f.From,
		To:           f.To,
		Message:      f.Body,
		ProfileName:  f.ProfileName,
		SentReceived: DirectionReceived,
		Status:       string(DirectionReceived),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// ApplyStatus translates and stores a delivery status.
// Unknown messages are ignored (updated=false).
func (s *Service) ApplyStatus(ctx context.Context, f telephony.MessageStatusForm) (bool, error) {
	status := s.statuses.Translate(f.MessageStatus)
	if status == "" {
		return false, fmt.Errorf("%w: status required", ErrInvalidArgument)
	}
	return s.repo.UpdateStatus(ctx, f.MessageSid, f.From, f.To, status, s.clock().UTC())
}

// RecordSent persists an outbound message acknowledged by the provider.
func (s *Service) RecordSent(ctx context.Context, sent telephony.SentMessage, body string) (Message, error) {
	now := s.clock().UTC()
	m := Message{
		ID:           sent.Sid,
		From:         sent.From,
		To:           sent.To,
		Message:      body,
		SentReceived: DirectionSent,
		Status:       s.statuses.Translate(sent.Status),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if m.Status == "" {
		m.Status = string(DirectionSent)
	}
	if _, err := s.repo.Insert(ctx, m); err != nil {
		return Message{}, err
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, id, from, to string) (Message, error) {
	return s.repo.Get(ctx, strings.TrimSpace(id), from, to)
}
