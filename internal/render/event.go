package render

import chatService "github.com/zhouzirui/k2-chat/backend/internal/service/chat"

// EventView is the wire form of a session event pushed to browsers.
type EventView struct {
	Type    string       `json:"type"`
	Typing  bool         `json:"typing"`
	Message *MessageView `json:"message,omitempty"`
}

// Event renders ev for SSE and WebSocket clients.
func (f *Formatter) Event(ev chatService.Event) EventView {
	view := EventView{Type: string(ev.Type), Typing: ev.Typing}
	if ev.Message != nil {
		body, err := f.HTML(ev.Message.Text)
		if err != nil {
			body = ""
		}
		view.Message = &MessageView{Message: *ev.Message, HTML: body}
	}
	return view
}
