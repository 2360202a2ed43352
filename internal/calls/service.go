package calls

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound        = errors.New("calls: call log not found")
	ErrInvalidArgument = errors.New("calls: invalid argument")
)

// Service owns call log writes. Every write is committed before it returns.
type Service struct {
	repo Repository
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// Create inserts a call log keyed by the Twilio CallSid.
// Creating an existing sid returns the sid and created=false without touching the row.
func (s *Service) Create(ctx context.Context, l CallLog) (string, bool, error) {
	l.ID = strings.TrimSpace(l.ID)
	if l.ID == "" {
		return "", false, fmt.Errorf("%w: call sid required", ErrInvalidArgument)
	}
	if l.Type != CallTypeIncoming && l.Type != CallTypeOutgoing {
		return "", false, fmt.Errorf("%w: type must be Incoming or Outgoing", ErrInvalidArgument)
	}
	if l.Medium == "" {
		l.Medium = MediumTwilio
	}
	if l.Status == "" {
		l.Status = StatusRinging
	}
	for _, link := range l.Links {
		if link.Kind == "" || link.ID == "" {
			return "", false, fmt.Errorf("%w: link kind and id required", ErrInvalidArgument)
		}
	}

	now := s.clock().UTC()
	l.CreatedAt, l.UpdatedAt = now, now

	created, err := s.repo.Insert(ctx, l)
	if err != nil {
		return "", false, err
	}
	return l.ID, created, nil
}

func (s *Service) Get(ctx context.Context, id string) (CallLog, error) {
	return s.repo.Get(ctx, id)
}

// Exists reports whether a call log with this sid exists.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// AttachUser records which local user placed or attends the call.
func (s *Service) AttachUser(ctx context.Context, id, user string) error {
	return s.mutate(ctx, id, func(l *CallLog) {
		l.VoIPUser = user
	})
}

// ApplyProviderState stores the provider's view of the call.
// A terminal status is kept when a late non-terminal status arrives.
func (s *Service) ApplyProviderState(ctx context.Context, id string, status Status, durationSeconds int, callInfo string) error {
	return s.mutate(ctx, id, func(l *CallLog) {
		if !(l.Status.IsTerminal() && !status.IsTerminal()) && status != "" {
			l.Status = status
		}
		l.DurationSeconds = durationSeconds
		l.CallInfo = callInfo
	})
}

func (s *Service) SetRecordingURL(ctx context.Context, id, url string) error {
	return s.mutate(ctx, id, func(l *CallLog) {
		l.RecordingURL = url
	})
}

// SetDetails merges the agent's review of the call.
func (s *Service) SetDetails(ctx context.Context, id string, d Details) error {
	return s.mutate(ctx, id, func(l *CallLog) {
		l.Ratings = d.Ratings
		l.RequestCallReview = d.RequestCallReview
		l.Reviewer = d.Reviewer
		l.SellType = d.SellType
		l.CallNotes = d.CallNotes
	})
}

// HasActiveCall reports whether the user is on a ringing or in-progress call.
func (s *Service) HasActiveCall(ctx context.Context, user string) (bool, error) {
	n, err := s.repo.CountActiveForUser(ctx, user)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Service) mutate(ctx context.Context, id string, fn func(l *CallLog)) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: call sid required", ErrInvalidArgument)
	}
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	fn(&l)
	l.UpdatedAt = s.clock().UTC()
	return s.repo.Update(ctx, l)
}
