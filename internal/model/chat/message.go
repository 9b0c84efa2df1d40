package chat

import "time"

// Sender identifies who produced a chat turn.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Valid reports whether s is one of the known senders.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderBot
}

// ClockLayout renders the bubble timestamp, e.g. "03:04 PM".
const ClockLayout = "03:04 PM"

// Message is a single chat turn. Values are never mutated after creation.
type Message struct {
	Text      string `json:"text"`
	Sender    Sender `json:"sender"`
	Timestamp string `json:"timestamp"`
}

// NewMessage stamps text with the wall-clock label for now.
func NewMessage(text string, sender Sender, now time.Time) Message {
	return Message{
		Text:      text,
		Sender:    sender,
		Timestamp: now.Format(ClockLayout),
	}
}
