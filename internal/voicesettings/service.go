package voicesettings

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

// TwilioNumber returns the number mapped to the user, or "" if none is mapped.
func (s *Service) TwilioNumber(ctx context.Context, user string) (string, error) {
	st, err := s.repo.Get(ctx, user)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(st.TwilioNumber), nil
}

// Get returns the user's settings.
func (s *Service) Get(ctx context.Context, user string) (Settings, error) {
	return s.repo.Get(ctx, user)
}

// Save validates and stores a user's settings.
func (s *Service) Save(ctx context.Context, st Settings) error {
	st.User = strings.TrimSpace(st.User)
	st.TwilioNumber = strings.TrimSpace(st.TwilioNumber)
	st.MobileNo = strings.TrimSpace(st.MobileNo)
	if st.User == "" {
		return fmt.Errorf("%w: user required", ErrInvalidArgument)
	}
	if st.CallReceivingDevice == "" {
		st.CallReceivingDevice = DeviceComputer
	}
	switch st.CallReceivingDevice {
	case DeviceComputer:
	case DevicePhone:
		if st.MobileNo == "" {
			return fmt.Errorf("%w: mobile_no required when receiving calls on Phone", ErrInvalidArgument)
		}
	default:
		return fmt.Errorf("%w: call_receiving_device must be Computer or Phone", ErrInvalidArgument)
	}
	return s.repo.Upsert(ctx, st)
}

// Owners returns the users whose settings map to the dialled number.
func (s *Service) Owners(ctx context.Context, twilioNumber string) ([]Settings, error) {
	twilioNumber = strings.TrimSpace(twilioNumber)
	if twilioNumber == "" {
		return nil, nil
	}
	return s.repo.Owners(ctx, twilioNumber)
}
