package voicesettings

import (
	"context"
	"errors"
	"testing"
)

func TestTwilioNumber_UnmappedUserIsEmpty(t *testing.T) {
	svc := NewService(NewMemoryRepo(Settings{User: "alice@example.com", TwilioNumber: " +15551234567 "}))

	n, err := svc.TwilioNumber(context.Background(), "alice@example.com")
	if err != nil || n != "+15551234567" {
		t.Fatalf("expected trimmed mapped number, got %q err=%v", n, err)
	}
	n, err = svc.TwilioNumber(context.Background(), "bob@example.com")
	if err != nil || n != "" {
		t.Fatalf("expected empty number for unmapped user, got %q err=%v", n, err)
	}
}

func TestSave_PhoneDeviceNeedsMobile(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	err := svc.Save(context.Background(), Settings{User: "a@example.com", TwilioNumber: "+1", CallReceivingDevice: DevicePhone})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if err := svc.Save(context.Background(), Settings{User: "a@example.com", TwilioNumber: "+1"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	st, _ := svc.Get(context.Background(), "a@example.com")
	if st.CallReceivingDevice != DeviceComputer {
		t.Fatalf("expected Computer default, got %q", st.CallReceivingDevice)
	}
}

func TestOwners_SortedByUser(t *testing.T) {
	svc := NewService(NewMemoryRepo(
		Settings{User: "zed@example.com", TwilioNumber: "+1555"},
		Settings{User: "amy@example.com", TwilioNumber: "+1555"},
		Settings{User: "bob@example.com", TwilioNumber: "+1666"},
	))
	owners, err := svc.Owners(context.Background(), "+1555")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(owners) != 2 || owners[0].User != "amy@example.com" {
		t.Fatalf("unexpected owners: %+v", owners)
	}
}
