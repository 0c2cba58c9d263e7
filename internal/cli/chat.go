package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/pressline/internal/presentation/tui"
	"github.com/aretw0/pressline/pkg/conversation"
	"github.com/aretw0/pressline/pkg/domain"
	"github.com/aretw0/pressline/pkg/input"
	"github.com/muesli/termenv"
)

// ChatOptions configures a terminal chat.
type ChatOptions struct {
	In  io.Reader
	Out io.Writer

	// Rich renders bot text as markdown.
	Rich bool

	Sanitizer *input.Sanitizer
	Vars      map[string]any
}

// Chat is an interactive terminal front end over one Controller. It keeps the
// list of conversations opened during the run so the user can switch between
// them.
type Chat struct {
	actions   *conversation.Actions
	ctrl      *conversation.Controller
	switcher  *conversation.Switcher
	sanitizer *input.Sanitizer
	render    func(string) string
	term      *termenv.Output
	in        *bufio.Scanner
	out       io.Writer
	vars      map[string]any

	open      []conversation.Conversation
	focus     int
	nextLocal int
	printed   int
	replies   []domain.QuickReply
}

// NewChat creates a chat acting on behalf of actorID.
func NewChat(actions *conversation.Actions, actorID string, opts ChatOptions) *Chat {
	sanitizer := opts.Sanitizer
	if sanitizer == nil {
		sanitizer = input.New(0)
	}
	return &Chat{
		actions:   actions,
		ctrl:      conversation.NewController(actions, actorID),
		switcher:  conversation.NewSwitcher(actions),
		sanitizer: sanitizer,
		render:    tui.NewRenderer(opts.Rich),
		term:      termenv.NewOutput(opts.Out),
		in:        bufio.NewScanner(opts.In),
		out:       opts.Out,
		vars:      opts.Vars,
		focus:     -1,
	}
}

// Run starts flowID and reads turns until the input ends, the user quits or
// ends the chat, or ctx is cancelled.
func (c *Chat) Run(ctx context.Context, flowID string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := c.start(ctx, flowID); err != nil {
		return err
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		for c.in.Scan() {
			select {
			case lines <- c.in.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		c.prompt()
		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				return c.in.Err()
			}
			line = strings.TrimSpace(l)
		}

		done, err := c.handle(ctx, line)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (c *Chat) handle(ctx context.Context, line string) (bool, error) {
	switch {
	case line == "":
		return false, nil
	case line == "/quit":
		return true, nil
	case line == "/list":
		c.list()
		return false, nil
	case strings.HasPrefix(line, "/new "):
		c.remember()
		if err := c.start(ctx, strings.TrimSpace(strings.TrimPrefix(line, "/new "))); err != nil {
			c.notice(err.Error())
		}
		return false, nil
	case strings.HasPrefix(line, "/switch "):
		c.switchTo(ctx, strings.TrimSpace(strings.TrimPrefix(line, "/switch ")))
		return false, nil
	}

	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(c.replies) {
		line = c.replies[n-1].Value
	}
	text, err := c.sanitizer.Sanitize(line)
	if err != nil {
		c.notice(err.Error())
		return false, nil
	}

	if strings.EqualFold(strings.TrimSpace(text), domain.EndChatLabel) && c.ctrl.OffersEndChat(ctx) {
		return true, c.end(ctx)
	}

	res, err := c.ctrl.Send(ctx, text)
	switch {
	case errors.Is(err, domain.ErrSessionEnded):
		c.notice("this conversation has ended; /new <flow> starts another")
		return false, nil
	case err != nil:
		return false, err
	}
	c.show(res.Messages, res.QuickReplies)
	return false, nil
}

func (c *Chat) start(ctx context.Context, flowID string) error {
	res, err := c.ctrl.Start(ctx, flowID, nil, c.vars)
	if err != nil {
		return err
	}
	c.nextLocal++
	c.open = append(c.open, c.ctrl.Snapshot(fmt.Sprintf("local-%d", c.nextLocal)))
	c.focus = len(c.open) - 1
	c.printed = 0
	c.show(res.Messages, res.QuickReplies)
	return nil
}

// remember refreshes the record of the focused conversation.
func (c *Chat) remember() {
	if c.focus < 0 || c.focus >= len(c.open) {
		return
	}
	localID := c.open[c.focus].ID
	status := c.open[c.focus].Status
	c.open[c.focus] = c.ctrl.Snapshot(localID)
	c.open[c.focus].Status = status
}

func (c *Chat) switchTo(ctx context.Context, arg string) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(c.open) {
		c.notice("usage: /switch <number from /list>")
		return
	}
	c.remember()

	target := c.open[n-1]
	res, err := c.ctrl.Resume(ctx, c.switcher, target.ID, c.open)
	if err != nil {
		c.notice(err.Error())
		return
	}
	c.focus = n - 1
	c.printed = 0
	fmt.Fprintln(c.out, c.term.String(fmt.Sprintf("── %s ──", target.FlowID)).Faint())
	c.show(res.Messages, res.QuickReplies)
}

func (c *Chat) end(ctx context.Context) error {
	sessionID := c.ctrl.State().SessionID
	if err := c.ctrl.End(ctx, ""); err != nil {
		return err
	}
	if c.focus >= 0 && c.focus < len(c.open) {
		c.open[c.focus].Status = domain.StatusEnded
	}
	if sessionID != "" {
		c.show(c.actions.Gateway().FetchSessionMessages(ctx, sessionID), nil)
	}
	c.notice("conversation ended")
	return nil
}

func (c *Chat) list() {
	c.remember()
	for i, conv := range c.open {
		marker := " "
		if i == c.focus {
			marker = "*"
		}
		status := conv.Status
		if status == "" {
			status = domain.StatusActive
		}
		fmt.Fprintf(c.out, "%s %d. %s (%s)\n", marker, i+1, conv.FlowID, status)
	}
}

// show prints the messages not printed yet and the quick replies.
func (c *Chat) show(msgs []domain.Message, replies []domain.QuickReply) {
	if c.printed > len(msgs) {
		c.printed = 0
	}
	for _, m := range msgs[c.printed:] {
		if m.Role == domain.RoleUser {
			continue
		}
		fmt.Fprintf(c.out, "%s %s\n", c.term.String("bot ›").Bold(), c.render(m.Text))
	}
	c.printed = len(msgs)

	c.replies = replies
	if len(replies) == 0 {
		return
	}
	parts := make([]string, len(replies))
	for i, r := range replies {
		parts[i] = fmt.Sprintf("[%d] %s", i+1, r.Label)
	}
	fmt.Fprintln(c.out, c.term.String("  "+strings.Join(parts, "  ")).Faint())
}

func (c *Chat) prompt() {
	fmt.Fprint(c.out, c.term.String("you › ").Bold())
}

func (c *Chat) notice(msg string) {
	fmt.Fprintln(c.out, c.term.String("! "+msg).Italic())
}
