package chat_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	chat "github.com/zhouzirui/k2-chat/backend/internal/service/chat"
)

func TestServiceGetSession(t *testing.T) {
	svc := chat.NewService(chat.Options{})
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "k2")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	got, err := svc.GetSession(ctx, session.ID())
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}

	if got.ID() != session.ID() {
		t.Fatalf("unexpected session ID: got %s want %s", got.ID(), session.ID())
	}
	if got.Info().ProfileID != "k2" {
		t.Fatalf("unexpected profile ID: got %s", got.Info().ProfileID)
	}
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := chat.NewService(chat.Options{})
	ctx := context.Background()

	if _, err := svc.GetSession(ctx, "missing"); err != chat.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestServiceCreateSessionRequiresProfile(t *testing.T) {
	svc := chat.NewService(chat.Options{})

	if _, err := svc.CreateSession(context.Background(), ""); err != chat.ErrProfileRequired {
		t.Fatalf("expected ErrProfileRequired, got %v", err)
	}
}

func TestServiceDeleteSession(t *testing.T) {
	svc := chat.NewService(chat.Options{})
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "k2")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	if err := svc.DeleteSession(ctx, session.ID()); err != nil {
		t.Fatalf("DeleteSession err: %v", err)
	}
	if svc.Len() != 0 {
		t.Fatalf("expected no sessions, got %d", svc.Len())
	}
	if _, ok := session.Submit("hello"); ok {
		t.Fatal("deleted session should reject input")
	}
	if err := svc.DeleteSession(ctx, session.ID()); err != chat.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound on second delete, got %v", err)
	}
}

func TestServiceSweepEvictsIdleSessions(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := chat.NewService(chat.Options{
		MinDelay: time.Second,
		MaxDelay: time.Second,
		IdleTTL:  10 * time.Minute,
		Clock:    clock,
	})
	ctx := context.Background()

	idle, _ := svc.CreateSession(ctx, "k2")
	clock.Advance(6 * time.Minute)
	active, _ := svc.CreateSession(ctx, "k2")
	reply, ok := idle.Submit("policy")
	if !ok {
		t.Fatal("expected submit to be accepted")
	}
	clock.Advance(30 * time.Second)
	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, err := reply.Wait(waitCtx); err != nil {
		t.Fatalf("reply err: %v", err)
	}

	clock.Advance(9 * time.Minute)
	if removed := svc.Sweep(clock.Now()); removed != 0 {
		t.Fatalf("expected nothing swept yet, removed %d", removed)
	}

	clock.Advance(2 * time.Minute)
	if removed := svc.Sweep(clock.Now()); removed != 2 {
		t.Fatalf("expected both sessions swept, removed %d", removed)
	}
	if _, err := svc.GetSession(ctx, active.ID()); err != chat.ErrSessionNotFound {
		t.Fatalf("expected swept session to be gone, got %v", err)
	}
}

func TestServiceSweepDisabledWithoutTTL(t *testing.T) {
	svc := chat.NewService(chat.Options{})
	if _, err := svc.CreateSession(context.Background(), "k2"); err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	if removed := svc.Sweep(time.Now().Add(24 * time.Hour)); removed != 0 {
		t.Fatalf("expected no eviction, removed %d", removed)
	}
}

func TestServiceCloseEndsAllSessions(t *testing.T) {
	svc := chat.NewService(chat.Options{})
	session, _ := svc.CreateSession(context.Background(), "k2")

	svc.Close()
	if svc.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", svc.Len())
	}
	if _, ok := session.Submit("hi"); ok {
		t.Fatal("closed session should reject input")
	}
}

func TestServiceSweepKeepsAttachedSessions(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := chat.NewService(chat.Options{IdleTTL: 10 * time.Minute, Clock: clock})
	defer svc.Close()

	session, _ := svc.CreateSession(context.Background(), "k2")
	_, unsubscribe := session.Subscribe(1)

	clock.Advance(time.Hour)
	if removed := svc.Sweep(clock.Now()); removed != 0 {
		t.Fatalf("attached session swept, removed %d", removed)
	}

	unsubscribe()
	clock.Advance(5 * time.Minute)
	if removed := svc.Sweep(clock.Now()); removed != 0 {
		t.Fatalf("idle clock should restart on detach, removed %d", removed)
	}

	clock.Advance(6 * time.Minute)
	if removed := svc.Sweep(clock.Now()); removed != 1 {
		t.Fatalf("expected detached session swept, removed %d", removed)
	}
}
