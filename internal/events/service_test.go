package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

func links() []Participant {
	return []Participant{{ReferenceDoctype: "Lead", ReferenceDocname: "LEAD-0001"}}
}

func TestCreateFromCall_OnlyWhenStepCreatesEvents(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo(
		SellingStep{Name: "Demo", CreateEvent: true},
		SellingStep{Name: "Intro", CreateEvent: false},
	)
	svc := NewService(repo)

	ev, created, err := svc.CreateFromCall(ctx, CreateInput{
		CallLog:      "CA1",
		SellType:     "Intro",
		Participants: links(),
		Values:       Values{"selling_step": true, "subject": "Follow up"},
	})
	if err != nil || created || ev.ID != "" {
		t.Fatalf("expected no event for Intro, got %+v %v %v", ev, created, err)
	}

	ev, created, err = svc.CreateFromCall(ctx, CreateInput{
		CallLog:      "CA1",
		SellType:     "Demo",
		Participants: links(),
		Values:       Values{"selling_step": "Demo", "subject": "Product demo", "descriptions": "bring slides", "starts_on": "2026-03-01 10:30:00"},
	})
	if err != nil || !created {
		t.Fatalf("expected event, got %v %v", created, err)
	}
	if ev.Category != CategoryCall || ev.Type != TypePrivate || ev.Description != "bring slides" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if !ev.StartsOn.Equal(time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected starts_on: %v", ev.StartsOn)
	}
	if len(ev.Participants) != 1 || ev.Participants[0].ReferenceDocname != "LEAD-0001" {
		t.Fatalf("expected participants copied from links, got %+v", ev.Participants)
	}
}

func TestCreateFromCall_SkipsWithoutSellingStepValue(t *testing.T) {
	repo := NewMemoryRepo(SellingStep{Name: "Demo", CreateEvent: true})
	svc := NewService(repo)

	for _, v := range []Values{{}, {"selling_step": ""}, {"selling_step": false}, {"selling_step": float64(0)}} {
		_, created, err := svc.CreateFromCall(context.Background(), CreateInput{CallLog: "CA1", SellType: "Demo", Values: v})
		if err != nil || created {
			t.Fatalf("expected skip for %v, got %v %v", v, created, err)
		}
	}
	if repo.Len() != 0 {
		t.Fatalf("expected no events")
	}
}

func TestCreateFromCall_OneEventPerCallAndStep(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo(SellingStep{Name: "Demo", CreateEvent: true})
	svc := NewService(repo)
	in := CreateInput{CallLog: "CA1", SellType: "Demo", Values: Values{"selling_step": 1.0}}

	first, created, err := svc.CreateFromCall(ctx, in)
	if err != nil || !created {
		t.Fatalf("expected created, got %v %v", created, err)
	}
	second, created, err := svc.CreateFromCall(ctx, in)
	if err != nil || created {
		t.Fatalf("expected existing event, got %v %v", created, err)
	}
	if first.ID != second.ID || repo.Len() != 1 {
		t.Fatalf("expected one event, got %s %s (%d)", first.ID, second.ID, repo.Len())
	}
}

func TestCreateFromCall_UnknownStep(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	_, _, err := svc.CreateFromCall(context.Background(), CreateInput{CallLog: "CA1", SellType: "Nope", Values: Values{"selling_step": true}})
	if !errors.Is(err, ErrSellingStepNotFound) {
		t.Fatalf("expected ErrSellingStepNotFound, got %v", err)
	}
}
