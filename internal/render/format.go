// Package render turns chat text into HTML for the message bubble.
package render

import (
	"bytes"
	"fmt"
	stdhtml "html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/zhouzirui/k2-chat/backend/internal/model/chat"
)

// Formatter renders **bold**, *italic* and line breaks. Everything else,
// HTML tags and markdown block syntax included, is shown as typed.
type Formatter struct {
	md goldmark.Markdown
}

// NewFormatter builds a Formatter that only knows paragraphs and emphasis.
func NewFormatter() *Formatter {
	p := parser.NewParser(
		parser.WithBlockParsers(util.Prioritized(parser.NewParagraphParser(), 1000)),
		parser.WithInlineParsers(util.Prioritized(parser.NewEmphasisParser(), 500)),
	)
	return &Formatter{
		md: goldmark.New(
			goldmark.WithParser(p),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

// HTML renders text.
func (f *Formatter) HTML(text string) (string, error) {
	var buf bytes.Buffer
	if err := f.md.Convert([]byte(stdhtml.EscapeString(text)), &buf); err != nil {
		return "", fmt.Errorf("render message: %w", err)
	}
	return buf.String(), nil
}

// MessageView is a Message paired with its rendered body.
type MessageView struct {
	chat.Message
	HTML string `json:"html"`
}

// Messages renders every message; a message that fails to render falls
// back to an empty body rather than failing the batch.
func (f *Formatter) Messages(messages []chat.Message) []MessageView {
	views := make([]MessageView, 0, len(messages))
	for _, msg := range messages {
		body, err := f.HTML(msg.Text)
		if err != nil {
			body = ""
		}
		views = append(views, MessageView{Message: msg, HTML: body})
	}
	return views
}
