package routing

import (
	"context"
	"errors"
	"strings"

	"twilio-integration/internal/telephony"
	"twilio-integration/internal/voicesettings"
)

// UnavailableMessage is spoken when no owner of the dialled number can attend.
const UnavailableMessage = "Agent is unavailable to take the call, please call after some time."

// RoutingEngine picks the attendee for an incoming call.
//
// Priority:
//  1. Owners of the dialled number, in user order.
//  2. First owner without a Ringing or In Progress call attends.
//  3. Otherwise the caller hears UnavailableMessage.
//
// Route has no side effects: no DB writes, no provider calls.
type RoutingEngine struct {
	Owners   OwnerDirectory
	Presence Presence
}

// OwnerDirectory lists the users whose Voice Call Settings map to a number.
type OwnerDirectory interface {
	Owners(ctx context.Context, twilioNumber string) ([]voicesettings.Settings, error)
}

// Presence reports whether a user is already on a call.
type Presence interface {
	HasActiveCall(ctx context.Context, user string) (bool, error)
}

type RouteInput struct {
	CallSid string
	From    string
	To      string
}

func NewRoutingEngine(owners OwnerDirectory, presence Presence) *RoutingEngine {
	return &RoutingEngine{Owners: owners, Presence: presence}
}

func (e *RoutingEngine) Route(ctx context.Context, in RouteInput) (Decision, error) {
	to := strings.TrimSpace(in.To)
	if to == "" {
		return Decision{}, errors.New("routing: dialled number required")
	}
	if e.Owners == nil || e.Presence == nil {
		return Decision{}, errors.New("routing: engine not configured")
	}

	owners, err := e.Owners.Owners(ctx, to)
	if err != nil {
		return Decision{}, err
	}
	for _, o := range owners {
		busy, err := e.Presence.HasActiveCall(ctx, o.User)
		if err != nil {
			return Decision{}, err
		}
		if busy {
			continue
		}
		return connect(to, in.From, o), nil
	}

	reason := "all_owners_busy"
	if len(owners) == 0 {
		reason = "no_owner"
	}
	return Decision{Number: to, Action: ActionSay, Message: UnavailableMessage, Reason: reason}, nil
}

func connect(number, from string, owner voicesettings.Settings) Decision {
	d := Decision{Number: number, CallerID: from, Attendee: owner.User}
	if owner.CallReceivingDevice == voicesettings.DevicePhone && strings.TrimSpace(owner.MobileNo) != "" {
		d.Action = ActionDialNumber
		d.ConnectTo = strings.TrimSpace(owner.MobileNo)
		d.Reason = "owner_phone"
		return d
	}
	d.Action = ActionDialClient
	d.ConnectTo = telephony.SafeIdentity(owner.User)
	d.Reason = "owner_client"
	return d
}
