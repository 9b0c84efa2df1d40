package chat

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestExportFilenameUsesUTCDate(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*60*60)
	now := time.Date(2026, 3, 1, 20, 0, 0, 0, loc)

	if got := ExportFilename(now); got != "k2-chat-history-2026-03-02.json" {
		t.Fatalf("ExportFilename() = %q", got)
	}
}

func TestTranscriptFilenameUsesSnapshotDate(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*60*60)
	tr := NewTranscript(nil, time.Date(2026, 3, 1, 20, 0, 0, 0, loc))

	if got := tr.Filename(); got != "k2-chat-history-2026-03-02.json" {
		t.Fatalf("Filename() = %q", got)
	}
}

func TestTranscriptFilenameWithoutTimestamp(t *testing.T) {
	tr := Transcript{Timestamp: "yesterday"}

	if got := tr.Filename(); got != "k2-chat-history.json" {
		t.Fatalf("Filename() = %q", got)
	}
}

func TestNewTranscriptFormatsISOTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 5, 7, 250_000_000, time.UTC)
	tr := NewTranscript(nil, now)

	if tr.Timestamp != "2026-03-01T09:05:07.250Z" {
		t.Fatalf("Timestamp = %q", tr.Timestamp)
	}
	if tr.Messages == nil || len(tr.Messages) != 0 {
		t.Fatalf("expected empty non-nil messages, got %#v", tr.Messages)
	}
}

func TestMarshalTranscriptEmptyMessagesIsArray(t *testing.T) {
	data, err := MarshalTranscript(Transcript{Timestamp: "x"})
	if err != nil {
		t.Fatalf("MarshalTranscript err: %v", err)
	}
	if !strings.Contains(string(data), `"messages": []`) {
		t.Fatalf("expected empty array in %s", data)
	}
}

func TestUnmarshalTranscriptMissingMessages(t *testing.T) {
	tr, err := UnmarshalTranscript([]byte(`{"timestamp":"2026-03-01T00:00:00.000Z"}`))
	if err != nil {
		t.Fatalf("UnmarshalTranscript err: %v", err)
	}
	if len(tr.Messages) != 0 {
		t.Fatalf("expected no messages, got %d", len(tr.Messages))
	}
}

func TestUnmarshalTranscriptRejectsUnknownSender(t *testing.T) {
	_, err := UnmarshalTranscript([]byte(`{"messages":[{"text":"hi","sender":"system","timestamp":"01:00 PM"}]}`))
	if !errors.Is(err, ErrInvalidTranscript) {
		t.Fatalf("expected ErrInvalidTranscript, got %v", err)
	}
}

func TestUnmarshalTranscriptRejectsWrongTypes(t *testing.T) {
	_, err := UnmarshalTranscript([]byte(`{"messages":[{"text":5,"sender":"user"}]}`))
	if !errors.Is(err, ErrInvalidTranscript) {
		t.Fatalf("expected ErrInvalidTranscript, got %v", err)
	}
}

func TestNewMessageClockLabel(t *testing.T) {
	msg := NewMessage("hi", SenderUser, time.Date(2026, 3, 1, 15, 4, 0, 0, time.UTC))
	if msg.Timestamp != "03:04 PM" {
		t.Fatalf("Timestamp = %q", msg.Timestamp)
	}
}
