package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTranscript marks import data that cannot become a history.
var ErrInvalidTranscript = errors.New("invalid transcript")

// ExportTimeLayout matches the ISO-8601 form browsers emit from toISOString.
const ExportTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Transcript is the export/import envelope of a conversation history.
type Transcript struct {
	Timestamp string    `json:"timestamp"`
	Messages  []Message `json:"messages"`
}

// NewTranscript snapshots messages at now. The slice is copied.
func NewTranscript(messages []Message, now time.Time) Transcript {
	copied := make([]Message, len(messages))
	copy(copied, messages)
	return Transcript{
		Timestamp: now.UTC().Format(ExportTimeLayout),
		Messages:  copied,
	}
}

// Validate checks every entry carries a known sender.
func (t Transcript) Validate() error {
	for i, msg := range t.Messages {
		if !msg.Sender.Valid() {
			return fmt.Errorf("%w: message %d has sender %q", ErrInvalidTranscript, i, msg.Sender)
		}
	}
	return nil
}

// ExportFilename names the download for a snapshot taken at now.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("k2-chat-history-%s.json", now.UTC().Format("2006-01-02"))
}

// Filename names the download for t, dated by its snapshot timestamp. A
// transcript without a parseable timestamp gets an undated name.
func (t Transcript) Filename() string {
	at, err := time.Parse(ExportTimeLayout, t.Timestamp)
	if err != nil {
		return "k2-chat-history.json"
	}
	return ExportFilename(at)
}

// MarshalTranscript encodes t with two-space indentation.
func MarshalTranscript(t Transcript) ([]byte, error) {
	if t.Messages == nil {
		t.Messages = []Message{}
	}
	return json.MarshalIndent(t, "", "  ")
}

// UnmarshalTranscript decodes and validates an exported history.
// A document without messages yields an empty history.
func UnmarshalTranscript(data []byte) (Transcript, error) {
	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return Transcript{}, fmt.Errorf("%w: %v", ErrInvalidTranscript, err)
	}
	if t.Messages == nil {
		t.Messages = []Message{}
	}
	if err := t.Validate(); err != nil {
		return Transcript{}, err
	}
	return t, nil
}
