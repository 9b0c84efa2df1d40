package chat

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/zhouzirui/k2-chat/backend/internal/model/chat"
)

// Reply is the future result of a submitted message.
type Reply struct {
	done   chan struct{}
	once   sync.Once
	msg    chat.Message
	err    error
	timer  clockwork.Timer
	cancel context.CancelFunc
}

func newReply(cancel context.CancelFunc) *Reply {
	return &Reply{
		done:   make(chan struct{}),
		cancel: cancel,
	}
}

func (r *Reply) resolve(msg chat.Message, err error) {
	r.once.Do(func() {
		r.msg = msg
		r.err = err
		close(r.done)
	})
}

// Done is closed once the reply has been delivered or cancelled.
func (r *Reply) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the bot message is appended. It returns
// ErrReplyCancelled when the session was cleared or reloaded first.
func (r *Reply) Wait(ctx context.Context) (chat.Message, error) {
	select {
	case <-r.done:
		return r.msg, r.err
	case <-ctx.Done():
		return chat.Message{}, ctx.Err()
	}
}
