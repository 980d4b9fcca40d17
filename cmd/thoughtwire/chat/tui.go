package chatcmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/papercomputeco/thoughtwire/pkg/cliui"
	"github.com/papercomputeco/thoughtwire/pkg/llm"
	"github.com/papercomputeco/thoughtwire/pkg/logger"
	"github.com/papercomputeco/thoughtwire/pkg/render"
	"github.com/papercomputeco/thoughtwire/pkg/sse"
)

func init() {
	// Force TrueColor profile to fix lipgloss color detection issue
	// See: https://github.com/charmbracelet/lipgloss/issues/439
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)
}

// eventBuffer is the capacity of the channel between a stream and the UI.
const eventBuffer = 64

// chromeHeight is the number of rows around the transcript viewport:
// header, status line, input and help.
const chromeHeight = 4

var (
	chatTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	chatMutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	chatStatusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
)

// chatClient is the part of the thoughtwire client the TUI drives.
type chatClient interface {
	Stream(ctx context.Context, q llm.ChatQuery, sink sse.Sink) (sse.Result, error)
	History(ctx context.Context, chatID string, limit int) ([]*llm.ChatMessage, error)
}

type entryKind int

const (
	entryUser entryKind = iota
	entrySegment
	entryNote
)

// entry is one block of the transcript. rendered caches the styled text and
// is cleared whenever text or the terminal width changes.
type entry struct {
	kind     entryKind
	segType  string
	text     string
	rendered string
}

type chatKeyMap struct {
	Send   key.Binding
	Abort  key.Binding
	Scroll key.Binding
	Quit   key.Binding
}

func (k chatKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Abort, k.Scroll, k.Quit}
}

func (k chatKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Send, k.Abort}, {k.Scroll, k.Quit}}
}

func defaultKeyMap() chatKeyMap {
	return chatKeyMap{
		Send:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Abort:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "abort")),
		Scroll: key.NewBinding(key.WithKeys("pgup", "pgdown"), key.WithHelp("pgup/pgdn", "scroll")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

type historyLoadedMsg struct {
	messages []*llm.ChatMessage
	err      error
}

type segmentMsg struct {
	segment render.Segment
}

type streamDoneMsg struct {
	result sse.Result
	stats  render.Stats
	// tail is the narration still buffered when the stream ended, in bytes.
	tail    int
	elapsed time.Duration
	err     error
}

// markdownFactory builds a markdown renderer wrapping at width columns.
type markdownFactory func(width int) (*glamour.TermRenderer, error)

type chatModelOpts struct {
	client   chatClient
	chatID   string
	userID   string
	profile  render.Profile
	initial  render.Profile
	window   time.Duration
	markdown markdownFactory
	logger   *slog.Logger
}

type chatModel struct {
	client   chatClient
	chatID   string
	userID   string
	window   time.Duration
	markdown markdownFactory
	logger   *slog.Logger

	// configured is the profile asked for; profile is the one in effect and
	// follows the terminal width when configured is auto.
	configured render.Profile
	profile    render.Profile

	entries []entry
	status  string

	streaming  bool
	aborted    bool
	turnFailed bool
	cancel     context.CancelFunc
	events     chan bubbletea.Msg

	width    int
	height   int
	renderer *glamour.TermRenderer

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	keys     chatKeyMap
	help     help.Model
}

func newChatModel(opts chatModelOpts) chatModel {
	input := textinput.New()
	input.Placeholder = "Ask something"
	input.Prompt = "› "
	input.CharLimit = 4000
	input.Focus()

	l := opts.logger
	if l == nil {
		l = logger.Nop()
	}

	profile := opts.initial
	if profile == "" || profile == render.ProfileAuto {
		profile = render.ProfileVerbose
	}

	return chatModel{
		client:     opts.client,
		chatID:     opts.chatID,
		userID:     opts.userID,
		window:     opts.window,
		markdown:   opts.markdown,
		logger:     l,
		configured: opts.profile,
		profile:    profile,
		input:      input,
		viewport:   viewport.New(0, 0),
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		keys:       defaultKeyMap(),
		help:       help.New(),
	}
}

func (m chatModel) Init() bubbletea.Cmd {
	return bubbletea.Batch(textinput.Blink, loadHistoryCmd(m.client, m.chatID))
}

func (m chatModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		return m.resize(msg.Width, msg.Height), nil
	case historyLoadedMsg:
		return m.loadHistory(msg), nil
	case segmentMsg:
		m = m.appendSegment(msg.segment)
		return m, waitForEvent(m.events)
	case streamDoneMsg:
		return m.finishStream(msg)
	case spinner.TickMsg:
		if !m.streaming {
			return m, nil
		}
		var cmd bubbletea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case bubbletea.KeyMsg:
		return m.handleKey(msg)
	case bubbletea.MouseMsg:
		var cmd bubbletea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd bubbletea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) View() string {
	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.viewStatus())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(chatMutedStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m chatModel) handleKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.cancel != nil {
			m.cancel()
		}
		return m, bubbletea.Quit
	case key.Matches(msg, m.keys.Abort):
		if m.streaming && m.cancel != nil {
			m.cancel()
			m.aborted = true
			m.status = "aborting"
		}
		return m, nil
	case key.Matches(msg, m.keys.Scroll):
		var cmd bubbletea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case key.Matches(msg, m.keys.Send):
		if m.streaming {
			return m, nil
		}
		return m.submit()
	}

	// Input is disabled while an answer is streaming.
	if m.streaming {
		return m, nil
	}
	var cmd bubbletea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the current input to the relay and starts listening for its
// segments.
func (m chatModel) submit() (chatModel, bubbletea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	q := llm.ChatQuery{UserQuery: text, ChatID: m.chatID, UserID: m.userID}
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan bubbletea.Msg, eventBuffer)

	m.cancel = cancel
	m.events = events
	m.streaming = true
	m.aborted = false
	m.turnFailed = false
	m.status = ""
	m.input.Reset()
	m.input.Blur()
	m.entries = append(m.entries, entry{kind: entryUser, text: text})
	m = m.refresh(true)

	opts := []render.Option{
		render.WithProfile(m.profile),
		render.WithWindow(m.window),
		render.WithLogger(m.logger),
	}

	m.logger.Debug("submitting query", "chat_id", m.chatID, "profile", string(m.profile))

	return m, bubbletea.Batch(
		streamCmd(ctx, m.client, q, opts, events),
		waitForEvent(events),
		m.spinner.Tick,
	)
}

func (m chatModel) appendSegment(seg render.Segment) chatModel {
	if seg.Type == sse.TypeError {
		m.turnFailed = true
	}

	last := len(m.entries) - 1
	if seg.Type == sse.TypeThoughtStream && last >= 0 &&
		m.entries[last].kind == entrySegment && m.entries[last].segType == sse.TypeThoughtStream {
		m.entries[last].text += seg.Text
		m.entries[last].rendered = ""
	} else {
		m.entries = append(m.entries, entry{kind: entrySegment, segType: seg.Type, text: seg.Text})
	}
	return m.refresh(false)
}

func (m chatModel) finishStream(msg streamDoneMsg) (chatModel, bubbletea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	m.cancel = nil
	m.events = nil
	m.streaming = false

	switch {
	case msg.err != nil && (m.aborted || errors.Is(msg.err, context.Canceled)):
		m.entries = append(m.entries, entry{kind: entryNote, text: "answer aborted"})
	case msg.err != nil:
		m.entries = append(m.entries, entry{kind: entryNote, text: "relay error: " + msg.err.Error()})
	case !msg.result.Done && !m.turnFailed:
		m.entries = append(m.entries, entry{kind: entryNote, text: "stream closed before the answer completed"})
	}

	m.status = fmt.Sprintf("%d events · %d segments · %s",
		msg.stats.Events, msg.stats.Commits, cliui.FormatDuration(msg.elapsed))
	m.logger.Debug("stream finished",
		"events", msg.stats.Events,
		"suppressed", msg.stats.Suppressed,
		"commits", msg.stats.Commits,
		"timer_fires", msg.stats.TimerFires,
		"tail_bytes", msg.tail,
		"done", msg.result.Done,
	)

	m = m.refresh(false)
	cmd := m.input.Focus()
	return m, cmd
}

func (m chatModel) loadHistory(msg historyLoadedMsg) chatModel {
	if msg.err != nil {
		m.logger.Debug("history unavailable", "error", msg.err)
		m.entries = append([]entry{{kind: entryNote, text: "history unavailable: " + msg.err.Error()}}, m.entries...)
		return m.refresh(true)
	}

	past := make([]entry, 0, len(msg.messages))
	for _, message := range msg.messages {
		switch message.Role {
		case llm.RoleUser:
			past = append(past, entry{kind: entryUser, text: message.Text})
		case llm.RoleAssistant:
			past = append(past, entry{kind: entrySegment, segType: sse.TypeThoughtStream, text: message.Text})
		}
	}
	m.entries = append(past, m.entries...)
	return m.refresh(true)
}

func (m chatModel) resize(width, height int) chatModel {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(height-chromeHeight, 1)
	m.input.Width = max(width-4, 10)
	m.help.Width = width

	if m.configured == render.ProfileAuto {
		m.profile = render.ProfileForWidth(width)
	}

	m.renderer = nil
	if m.markdown != nil {
		r, err := m.markdown(max(width-2, 20))
		if err != nil {
			m.logger.Debug("markdown renderer unavailable", "error", err)
		} else {
			m.renderer = r
		}
	}

	for i := range m.entries {
		m.entries[i].rendered = ""
	}
	return m.refresh(true)
}

// refresh re-renders stale entries into the viewport. The view follows the
// transcript when it was already at the bottom or follow is set.
func (m chatModel) refresh(follow bool) chatModel {
	atBottom := m.viewport.AtBottom()

	blocks := make([]string, 0, len(m.entries))
	for i := range m.entries {
		if m.entries[i].rendered == "" {
			m.entries[i].rendered = m.renderEntry(m.entries[i])
		}
		blocks = append(blocks, m.entries[i].rendered)
	}
	m.viewport.SetContent(strings.Join(blocks, "\n"))

	if follow || atBottom {
		m.viewport.GotoBottom()
	}
	return m
}

func (m chatModel) renderEntry(e entry) string {
	width := max(m.width-2, 20)

	switch e.kind {
	case entryUser:
		return cliui.UserStyle.Render("you ") + ansi.Wordwrap(e.text, width-4, "")
	case entryNote:
		return cliui.DimStyle.Render(ansi.Wordwrap(e.text, width, ""))
	}

	if e.segType == sse.TypeError {
		return cliui.WarningStyle.Render(ansi.Wordwrap(e.text, width, ""))
	}
	if m.renderer != nil {
		out, err := m.renderer.Render(e.text)
		if err == nil {
			return strings.TrimRight(out, "\n")
		}
	}
	return ansi.Wordwrap(e.text, width, "")
}

func (m chatModel) viewHeader() string {
	left := chatTitleStyle.Render("thoughtwire")
	right := chatMutedStyle.Render(fmt.Sprintf("chat %s · %s", m.chatID, m.profile))
	line := left + "  " + right
	if m.width > 0 {
		line = ansi.Truncate(line, m.width, "…")
	}
	return line
}

func (m chatModel) viewStatus() string {
	status := m.status
	if m.streaming {
		status = m.spinner.View() + " streaming"
		if m.status != "" {
			status += " · " + m.status
		}
	}
	if m.width > 0 {
		status = ansi.Truncate(status, m.width, "…")
	}
	return chatStatusStyle.Render(status)
}

func loadHistoryCmd(c chatClient, chatID string) bubbletea.Cmd {
	return func() bubbletea.Msg {
		messages, err := c.History(context.Background(), chatID, historyLimit)
		return historyLoadedMsg{messages: messages, err: err}
	}
}

// streamCmd runs one query through a render scheduler. Committed segments
// and the final streamDoneMsg are delivered in order on events, which is
// closed afterwards.
func streamCmd(ctx context.Context, c chatClient, q llm.ChatQuery, opts []render.Option, events chan<- bubbletea.Msg) bubbletea.Cmd {
	return func() bubbletea.Msg {
		defer close(events)

		sched := render.NewScheduler(render.SurfaceFunc(func(seg render.Segment) {
			events <- segmentMsg{segment: seg}
		}), opts...)

		start := time.Now()
		res, err := c.Stream(ctx, q, sse.SinkFunc(sched.Event))
		tail := len(sched.Pending())
		sched.End()

		events <- streamDoneMsg{
			result:  res,
			stats:   sched.Stats(),
			tail:    tail,
			elapsed: time.Since(start),
			err:     err,
		}
		return nil
	}
}

func waitForEvent(events <-chan bubbletea.Msg) bubbletea.Cmd {
	if events == nil {
		return nil
	}
	return func() bubbletea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

// markdownRenderer returns a factory for glamour renderers in the standard
// style matching the terminal background.
func markdownRenderer(dark bool) markdownFactory {
	style := "light"
	if dark {
		style = "dark"
	}
	return func(width int) (*glamour.TermRenderer, error) {
		return glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
	}
}
