package chat

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/zhouzirui/k2-chat/backend/internal/analysis/keyword"
	"github.com/zhouzirui/k2-chat/backend/internal/model/chat"
)

const (
	DefaultMinDelay = time.Second
	DefaultMaxDelay = 3 * time.Second
	DefaultIdleTTL  = 30 * time.Minute
)

// Responder produces the bot text for a user turn.
type Responder interface {
	Respond(ctx context.Context, userText string) string
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, userText string) string

// Respond calls f.
func (f ResponderFunc) Respond(ctx context.Context, userText string) string {
	return f(ctx, userText)
}

// Options tune session behaviour. Zero delays reply on the next timer tick.
type Options struct {
	MinDelay  time.Duration
	MaxDelay  time.Duration
	IdleTTL   time.Duration
	Responder Responder
	Clock     clockwork.Clock
	Logger    *zap.Logger
}

// DefaultOptions mirrors the widget: 1-3s thinking time, keyword replies.
func DefaultOptions() Options {
	return Options{
		MinDelay: DefaultMinDelay,
		MaxDelay: DefaultMaxDelay,
		IdleTTL:  DefaultIdleTTL,
	}
}

func (o Options) withDefaults() Options {
	if o.Responder == nil {
		o.Responder = keyword.DefaultTable()
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.MinDelay < 0 {
		o.MinDelay = 0
	}
	if o.MaxDelay < o.MinDelay {
		o.MaxDelay = o.MinDelay
	}
	return o
}

// EventType names a session notification.
type EventType string

const (
	EventMessage EventType = "message"
	EventTyping  EventType = "typing"
	EventCleared EventType = "cleared"
	EventLoaded  EventType = "loaded"
)

// Event is delivered to subscribers whenever session state changes.
type Event struct {
	Type    EventType     `json:"type"`
	Message *chat.Message `json:"message,omitempty"`
	Typing  bool          `json:"typing"`
}

// Session owns one conversation: its history, typing flag and welcome
// flag. At most one reply is outstanding at any time.
type Session struct {
	info chat.Session
	opts Options

	mu          sync.Mutex
	history     []chat.Message
	typing      bool
	welcome     bool
	closed      bool
	pending     *Reply
	lastActive  time.Time
	subscribers map[int]chan Event
	nextSubID   int
}

// NewSession builds a session in the initial welcome state.
func NewSession(info chat.Session, opts Options) *Session {
	opts = opts.withDefaults()
	return &Session{
		info:        info,
		opts:        opts,
		history:     make([]chat.Message, 0, 16),
		welcome:     true,
		lastActive:  opts.Clock.Now(),
		subscribers: make(map[int]chan Event),
	}
}

// Info returns the session metadata.
func (s *Session) Info() chat.Session {
	return s.info
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.info.ID
}

// Submit records a user message and schedules the bot reply. Blank text,
// a reply already in flight, or a closed session make it a no-op that
// returns false; the message is dropped, not queued.
func (s *Session) Submit(text string) (*Reply, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, false
	}
	now := s.opts.Clock.Now()
	s.lastActive = now
	if s.typing {
		s.opts.Logger.Debug("dropped message while typing", zap.String("session", s.info.ID))
		return nil, false
	}

	s.addMessageLocked(chat.NewMessage(trimmed, chat.SenderUser, now))
	s.welcome = false
	s.typing = true
	s.publishLocked(Event{Type: EventTyping, Typing: true})

	ctx, cancel := context.WithCancel(context.Background())
	reply := newReply(cancel)
	delay := s.nextDelay()
	reply.timer = s.opts.Clock.AfterFunc(delay, func() {
		s.completeResponseCycle(ctx, reply, trimmed)
	})
	s.pending = reply

	s.opts.Logger.Debug("scheduled reply",
		zap.String("session", s.info.ID),
		zap.Duration("delay", delay))
	return reply, true
}

// completeResponseCycle runs when the typing delay expires.
func (s *Session) completeResponseCycle(ctx context.Context, reply *Reply, userText string) {
	text := s.opts.Responder.Respond(ctx, userText)

	s.mu.Lock()
	if s.pending != reply || ctx.Err() != nil {
		s.mu.Unlock()
		return
	}

	now := s.opts.Clock.Now()
	msg := chat.NewMessage(text, chat.SenderBot, now)
	s.addMessageLocked(msg)
	s.typing = false
	s.pending = nil
	s.lastActive = now
	s.publishLocked(Event{Type: EventTyping, Typing: false})
	s.mu.Unlock()

	reply.cancel()
	reply.resolve(msg, nil)
}

// Clear empties the history, restores the welcome state and cancels any
// pending reply.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActive = s.opts.Clock.Now()
	s.cancelPendingLocked()
	s.history = make([]chat.Message, 0, 16)
	s.welcome = true
	s.publishLocked(Event{Type: EventCleared})
}

// Export snapshots the history with the current time.
func (s *Session) Export() chat.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Clock.Now()
	s.lastActive = now
	return chat.NewTranscript(s.history, now)
}

// Load replaces the history with t.Messages and cancels any pending reply.
// Entries with an unknown sender reject the whole transcript and leave the
// session untouched.
func (s *Session) Load(t chat.Transcript) error {
	if err := t.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActive = s.opts.Clock.Now()
	s.cancelPendingLocked()
	s.history = make([]chat.Message, len(t.Messages), max(len(t.Messages), 16))
	copy(s.history, t.Messages)
	s.welcome = false
	s.publishLocked(Event{Type: EventLoaded})
	return nil
}

// AcknowledgeUpload answers a file upload with a bot message.
func (s *Session) AcknowledgeUpload(fileName string) chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Clock.Now()
	s.lastActive = now
	msg := chat.NewMessage(
		"I received your file: "+fileName+". File upload processing will be implemented soon.",
		chat.SenderBot, now)
	s.addMessageLocked(msg)
	s.welcome = false
	return msg
}

// History returns a copy of the conversation so far.
func (s *Session) History() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]chat.Message, len(s.history))
	copy(copied, s.history)
	return copied
}

// Typing reports whether a reply is in flight.
func (s *Session) Typing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing
}

// Welcome reports whether the welcome panel should be visible.
func (s *Session) Welcome() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.welcome
}

// LastActive returns the time of the most recent interaction.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Attached reports whether any subscriber is listening, i.e. a page still
// holds the session open.
func (s *Session) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers) > 0
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = s.opts.Clock.Now()
	s.mu.Unlock()
}

// Subscribe streams session events until the returned func is called or the
// session closes. Events are dropped for subscribers whose buffer is full.
// Unsubscribing restarts the idle clock.
func (s *Session) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(sub)
				s.lastActive = s.opts.Clock.Now()
			}
		})
	}
}

// Close cancels the pending reply and ends all subscriptions.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.cancelPendingLocked()
	s.closed = true
	for id, sub := range s.subscribers {
		delete(s.subscribers, id)
		close(sub)
	}
}

func (s *Session) addMessageLocked(msg chat.Message) {
	s.history = append(s.history, msg)
	s.publishLocked(Event{Type: EventMessage, Message: &msg, Typing: s.typing})
}

func (s *Session) publishLocked(ev Event) {
	for _, sub := range s.subscribers {
		select {
		case sub <- ev:
		default:
			s.opts.Logger.Warn("subscriber buffer full, dropping event",
				zap.String("session", s.info.ID),
				zap.String("event", string(ev.Type)))
		}
	}
}

func (s *Session) cancelPendingLocked() {
	if s.pending == nil {
		return
	}

	reply := s.pending
	s.pending = nil
	s.typing = false
	reply.timer.Stop()
	reply.cancel()
	reply.resolve(chat.Message{}, ErrReplyCancelled)
	s.publishLocked(Event{Type: EventTyping, Typing: false})

	s.opts.Logger.Debug("cancelled pending reply", zap.String("session", s.info.ID))
}

func (s *Session) nextDelay() time.Duration {
	spread := s.opts.MaxDelay - s.opts.MinDelay
	if spread <= 0 {
		return s.opts.MinDelay
	}
	return s.opts.MinDelay + time.Duration(rand.Int63n(int64(spread)))
}
