package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Values is the free-form form payload sent by the call panel.
type Values map[string]any

func (v Values) str(key string) string {
	switch x := v[key].(type) {
	case string:
		return strings.TrimSpace(x)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// truthy mirrors how the panel submits checkboxes and selects: false, 0, "" and null are unset.
func (v Values) truthy(key string) bool {
	switch x := v[key].(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		s := strings.TrimSpace(x)
		return s != "" && s != "0" && !strings.EqualFold(s, "false")
	default:
		return true
	}
}

// Requested reports whether the panel asked for a follow-up event.
func (v Values) Requested() bool { return v.truthy("selling_step") }

// CreateInput describes a follow-up requested for a call.
type CreateInput struct {
	CallLog      string
	SellType     string
	Participants []Participant
	Values       Values
}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service { return &Service{repo: repo, clock: time.Now} }

// CreateFromCall creates the follow-up event for a call when the panel asked for
// one and the sell type's Selling Step has event creation enabled.
// A zero Event with created=false means nothing was requested.
func (s *Service) CreateFromCall(ctx context.Context, in CreateInput) (Event, bool, error) {
	if !in.Values.Requested() {
		return Event{}, false, nil
	}
	if strings.TrimSpace(in.CallLog) == "" {
		return Event{}, false, fmt.Errorf("%w: call log required", ErrInvalidArgument)
	}
	step, err := s.repo.GetSellingStep(ctx, strings.TrimSpace(in.SellType))
	if err != nil {
		return Event{}, false, err
	}
	if !step.CreateEvent {
		return Event{}, false, nil
	}

	now := s.clock().UTC()
	startsOn := now
	if raw := in.Values.str("starts_on"); raw != "" {
		t, err := parseDateTime(raw)
		if err != nil {
			return Event{}, false, fmt.Errorf("%w: starts_on: %v", ErrInvalidArgument, err)
		}
		startsOn = t
	}

	return s.repo.InsertEvent(ctx, Event{
		ID:           uuid.NewString(),
		StartsOn:     startsOn,
		Subject:      in.Values.str("subject"),
		Description:  in.Values.str("descriptions"),
		Category:     CategoryCall,
		Type:         TypePrivate,
		CallLog:      in.CallLog,
		SellingStep:  step.Name,
		Participants: in.Participants,
		CreatedAt:    now,
	})
}

func (s *Service) SellingStep(ctx context.Context, name string) (SellingStep, error) {
	return s.repo.GetSellingStep(ctx, name)
}

func (s *Service) SaveSellingStep(ctx context.Context, st SellingStep) error {
	st.Name = strings.TrimSpace(st.Name)
	if st.Name == "" {
		return fmt.Errorf("%w: selling step name required", ErrInvalidArgument)
	}
	return s.repo.UpsertSellingStep(ctx, st)
}

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseDateTime(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateTimeLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
