package reporting

import (
	"context"
	"errors"
	"strings"
	"time"

	"twilio-integration/internal/calls"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// CallSource lists call logs created in [from, to). calls.Repository satisfies it.
type CallSource interface {
	List(ctx context.Context, from, to time.Time) ([]calls.CallLog, error)
}

type Service struct {
	calls CallSource
}

func NewService(src CallSource) *Service { return &Service{calls: src} }

const unsetSellType = "Unset"

func (s *Service) CallsSummary(ctx context.Context, req CallsSummaryRequest) (CallsSummary, error) {
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return CallsSummary{}, ErrInvalidRequest
	}
	if s.calls == nil {
		return CallsSummary{}, errors.New("reporting: call source not configured")
	}

	rows, err := s.calls.List(ctx, req.Range.From, req.Range.To)
	if err != nil {
		return CallsSummary{}, err
	}

	out := CallsSummary{
		Range:      req.Range,
		VoIPUser:   req.VoIPUser,
		ByStatus:   map[string]int{},
		BySellType: map[string]int{},
		ByAgent:    map[string]int{},
	}
	for _, c := range rows {
		if req.VoIPUser != "" && c.VoIPUser != req.VoIPUser {
			continue
		}
		out.TotalCalls++
		switch c.Type {
		case calls.CallTypeIncoming:
			out.IncomingCalls++
		case calls.CallTypeOutgoing:
			out.OutgoingCalls++
		}
		out.ByStatus[string(c.Status)]++

		sell := c.SellType
		if sell == "" {
			sell = unsetSellType
		}
		out.BySellType[sell]++
		if c.VoIPUser != "" {
			out.ByAgent[c.VoIPUser]++
		}

		out.TotalDurationSeconds += c.DurationSeconds
		if c.RecordingURL != "" {
			out.RecordedCalls++
		}
		if reviewRequested(c.RequestCallReview) {
			out.ReviewRequestedCalls++
		}
	}
	if out.TotalCalls > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalCalls
	}
	return out, nil
}

// The panel stores the checkbox as "1"/"0" (older rows: "Yes"/"No").
func reviewRequested(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "no", "false":
		return false
	default:
		return true
	}
}
