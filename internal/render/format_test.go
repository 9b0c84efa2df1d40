package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/k2-chat/backend/internal/model/chat"
	chatService "github.com/zhouzirui/k2-chat/backend/internal/service/chat"
)

func TestHTMLEmphasis(t *testing.T) {
	out, err := NewFormatter().HTML("This is **important** and *subtle*")
	require.NoError(t, err)

	require.Contains(t, out, "<strong>important</strong>")
	require.Contains(t, out, "<em>subtle</em>")
}

func TestHTMLLineBreaks(t *testing.T) {
	out, err := NewFormatter().HTML("line one\nline two")
	require.NoError(t, err)

	require.Contains(t, out, "<br")
}

func TestHTMLDropsRawHTML(t *testing.T) {
	out, err := NewFormatter().HTML("<script>alert(1)</script>")
	require.NoError(t, err)

	require.False(t, strings.Contains(out, "<script>"), "raw html leaked: %s", out)
}

func TestHTMLKeepsTagsAsText(t *testing.T) {
	out, err := NewFormatter().HTML("use <div> tags")
	require.NoError(t, err)

	require.Contains(t, out, "use &lt;div&gt; tags")
}

func TestHTMLIgnoresBlockSyntax(t *testing.T) {
	cases := []struct {
		input string
		tag   string
	}{
		{"# not a heading", "<h1>"},
		{"1. first point", "<ol>"},
		{"- bullet", "<ul>"},
		{"> quoted", "<blockquote>"},
	}

	for _, tc := range cases {
		out, err := NewFormatter().HTML(tc.input)
		require.NoError(t, err)
		require.NotContains(t, out, tc.tag, "input %q", tc.input)
		require.Contains(t, out, "<p>", "input %q", tc.input)
	}
	out, _ := NewFormatter().HTML("# not a heading")
	require.Contains(t, out, "# not a heading")
	out, _ = NewFormatter().HTML("1. first point")
	require.Contains(t, out, "1. first point")
}

func TestHTMLEscapedEntityStaysLiteral(t *testing.T) {
	out, err := NewFormatter().HTML("type &lt; to compare")
	require.NoError(t, err)

	require.Contains(t, out, "&amp;lt;")
}

func TestMessagesKeepsOrder(t *testing.T) {
	views := NewFormatter().Messages([]chat.Message{
		{Text: "first", Sender: chat.SenderUser},
		{Text: "**second**", Sender: chat.SenderBot},
	})

	require.Len(t, views, 2)
	require.Equal(t, "first", views[0].Text)
	require.Contains(t, views[1].HTML, "<strong>second</strong>")
}

func TestEventRendersMessage(t *testing.T) {
	msg := chat.Message{Text: "*hi*", Sender: chat.SenderBot, Timestamp: "01:00 PM"}
	view := NewFormatter().Event(chatService.Event{Type: chatService.EventMessage, Message: &msg})

	require.Equal(t, "message", view.Type)
	require.NotNil(t, view.Message)
	require.Contains(t, view.Message.HTML, "<em>hi</em>")
}

func TestEventWithoutMessage(t *testing.T) {
	view := NewFormatter().Event(chatService.Event{Type: chatService.EventTyping, Typing: true})

	require.Equal(t, "typing", view.Type)
	require.True(t, view.Typing)
	require.Nil(t, view.Message)
}
