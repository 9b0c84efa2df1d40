package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/zhouzirui/k2-chat/backend/internal/model/chat"
	"github.com/zhouzirui/k2-chat/backend/internal/model/profile"
	chatService "github.com/zhouzirui/k2-chat/backend/internal/service/chat"
)

var errQuit = errors.New("quit")

// REPL is a line-oriented chat client for a single session.
type REPL struct {
	session *chatService.Session
	profile profile.Profile
	in      io.Reader
	out     io.Writer
	theme   Theme
	logger  *zap.Logger
}

// New creates a REPL reading commands from in and writing to out.
func New(session *chatService.Session, p profile.Profile, in io.Reader, out io.Writer, logger *zap.Logger) *REPL {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &REPL{
		session: session,
		profile: p,
		in:      in,
		out:     out,
		theme:   NewTheme(out),
		logger:  logger,
	}
}

// Run processes input until /quit, end of input or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	r.printWelcome()

	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, r.theme.User.Render("> "))
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}

		err := r.handleLine(ctx, scanner.Text())
		switch {
		case errors.Is(err, errQuit):
			return nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		case err != nil:
			r.printError(err)
		}
	}
}

func (r *REPL) handleLine(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, "/") {
		return r.submit(ctx, line)
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)

	if index, err := strconv.Atoi(cmd); err == nil {
		text, ok := r.profile.QuickActionMessage(index)
		if !ok {
			return fmt.Errorf("no quick action %d", index)
		}
		return r.submit(ctx, text)
	}

	switch cmd {
	case "quit", "exit":
		return errQuit
	case "help":
		r.printHelp()
	case "clear":
		r.session.Clear()
		r.printWelcome()
	case "export":
		return r.export(arg)
	case "load":
		return r.load(arg)
	case "upload":
		return r.upload(arg)
	default:
		return fmt.Errorf("unknown command /%s, try /help", cmd)
	}
	return nil
}

func (r *REPL) submit(ctx context.Context, text string) error {
	reply, ok := r.session.Submit(text)
	if !ok {
		r.printInfo("Still thinking about your last message.")
		return nil
	}
	history := r.session.History()
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Sender == chat.SenderUser {
			r.printMessage(history[i])
			break
		}
	}
	r.printInfo(r.profile.Name + " is typing...")

	msg, err := reply.Wait(ctx)
	if err != nil {
		return err
	}
	r.printMessage(msg)
	return nil
}

func (r *REPL) export(path string) error {
	transcript := r.session.Export()
	if path == "" {
		path = transcript.Filename()
	}

	data, err := chat.MarshalTranscript(transcript)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}

	r.logger.Debug("exported transcript", zap.String("path", path), zap.Int("messages", len(transcript.Messages)))
	r.printInfo(fmt.Sprintf("Saved %d messages to %s", len(transcript.Messages), path))
	return nil
}

func (r *REPL) load(path string) error {
	if path == "" {
		return errors.New("usage: /load <file>")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}
	transcript, err := chat.UnmarshalTranscript(data)
	if err != nil {
		return err
	}
	if err := r.session.Load(transcript); err != nil {
		return err
	}

	r.printInfo(fmt.Sprintf("Loaded %d messages from %s", len(transcript.Messages), path))
	for _, msg := range r.session.History() {
		r.printMessage(msg)
	}
	return nil
}

func (r *REPL) upload(path string) error {
	if path == "" {
		return errors.New("usage: /upload <file>")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("upload: %s is a directory", path)
	}
	r.printMessage(r.session.AcknowledgeUpload(filepath.Base(path)))
	return nil
}

func (r *REPL) printWelcome() {
	fmt.Fprintln(r.out, r.theme.Title.Render(r.profile.Name+" · "+r.profile.Title))
	if r.profile.Welcome != "" {
		fmt.Fprintln(r.out, r.profile.Welcome)
	}
	for i, action := range r.profile.QuickActions {
		fmt.Fprintf(r.out, "  %s %s\n", r.theme.Command.Render(fmt.Sprintf("/%d", i+1)), action.Label)
	}
	fmt.Fprintln(r.out, r.theme.Info.Render("Type /help for commands."))
}

func (r *REPL) printHelp() {
	commands := [][2]string{
		{"/clear", "start a new conversation"},
		{"/export [file]", "save the conversation as JSON"},
		{"/load <file>", "replace the conversation with a saved one"},
		{"/upload <file>", "attach a file"},
		{"/1../" + strconv.Itoa(len(r.profile.QuickActions)), "send a quick action"},
		{"/quit", "leave"},
	}
	for _, c := range commands {
		fmt.Fprintf(r.out, "  %-16s %s\n", r.theme.Command.Render(c[0]), c[1])
	}
}

func (r *REPL) printMessage(msg chat.Message) {
	name := r.theme.User.Render("You")
	if msg.Sender == chat.SenderBot {
		name = r.theme.Bot.Render(r.profile.Name)
	}
	fmt.Fprintf(r.out, "%s %s: %s\n", r.theme.Time.Render("["+msg.Timestamp+"]"), name, msg.Text)
}

func (r *REPL) printInfo(text string) {
	fmt.Fprintln(r.out, r.theme.Info.Render(text))
}

func (r *REPL) printError(err error) {
	fmt.Fprintln(r.out, r.theme.Error.Render("error: "+err.Error()))
}
