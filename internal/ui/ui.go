// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ashutoshrp06/search-agent/internal/session"
	"github.com/ashutoshrp06/search-agent/pkg/models"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Backend is the conversation the UI drives. *session.Session implements it.
type Backend interface {
	Send(ctx context.Context, input string) <-chan models.Event
	History() []models.Message
	Reset() error
	Policy() session.Policy
	SetMode(mode session.Mode) error
	SetMaxRounds(n int) error
	SetStream(stream bool)
	Model() string
}

// Model is the Bubble Tea model for the chat UI.
type Model struct {
	// UI Components
	textInput textinput.Model
	spinner   spinner.Model
	viewport  viewport.Model
	styles    Styles

	// State
	state       models.AgentState
	messages    []chatMessage
	currentTool *toolExecution
	partial     strings.Builder
	width       int
	height      int
	ready       bool
	quitting    bool
	err         error

	backend Backend
	events  <-chan models.Event
	cancel  context.CancelFunc
}

// chatMessage represents a message in the chat history.
type chatMessage struct {
	role    string // "user", "assistant", "system", "tool"
	content string
	tool    *toolExecution
	failed  bool
}

// toolExecution tracks a tool call and its result.
type toolExecution struct {
	name      string
	arguments string
	output    string
	success   bool
	error     string
	duration  string
	done      bool
}

// eventMsg carries one agent event into the update loop.
type eventMsg struct{ event models.Event }

// turnEndedMsg is sent once the event channel is closed.
type turnEndedMsg struct{}

// NewModel creates a new UI model.
func NewModel(backend Backend) *Model {
	ti := textinput.New()
	ti.Placeholder = "Ask anything... (e.g., 'Who won the 2024 Nobel Prize in Physics?')"
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 80

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED"))

	vp := viewport.New(0, 0)
	vp.KeyMap = viewport.DefaultKeyMap()

	return &Model{
		textInput: ti,
		spinner:   s,
		viewport:  vp,
		styles:    DefaultStyles(),
		state:     models.StateIdle,
		backend:   backend,
	}
}

// Run starts the full-screen UI and blocks until the user quits.
func Run(backend Backend) error {
	p := tea.NewProgram(NewModel(backend), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
	)
}

// waitForEvent reads the next event of the running turn.
func waitForEvent(ch <-chan models.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return turnEndedMsg{}
		}
		return eventMsg{event: ev}
	}
}

func (m *Model) headerHeight() int {
	banner := m.styles.BannerTitle.Render(Banner())
	return lipgloss.Height(banner) + 2
}

// footerHeight is the blank line, the input line and the help bar.
func (m *Model) footerHeight() int {
	return 4
}

// updateViewport rebuilds the viewport content and scrolls to the bottom.
func (m *Model) updateViewport() {
	var b strings.Builder

	for _, msg := range m.messages {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}

	if m.partial.Len() > 0 {
		b.WriteString(m.styles.AssistantMessage.Render("Assistant: " + m.partial.String()))
		b.WriteString("\n")
	}

	if m.currentTool != nil && !m.currentTool.done {
		b.WriteString(m.renderToolInProgress())
		b.WriteString("\n")
	}

	if m.state != models.StateIdle {
		b.WriteString(m.renderStatus())
		b.WriteString("\n")
	}

	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			if m.state == models.StateIdle {
				m.quitting = true
				return m, tea.Quit
			}
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil

		case tea.KeyEnter:
			if m.state != models.StateIdle {
				return m, nil
			}

			query := strings.TrimSpace(m.textInput.Value())
			if query == "" {
				return m, nil
			}
			m.textInput.SetValue("")

			if handled, cmd := m.handleCommand(query); handled {
				m.updateViewport()
				return m, cmd
			}

			return m, m.startTurn(query)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 10

		vpHeight := msg.Height - m.headerHeight() - m.footerHeight()
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.viewport.KeyMap = viewport.DefaultKeyMap()
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}

		m.ready = true
		m.updateViewport()

	case eventMsg:
		m.handleEvent(msg.event)
		m.updateViewport()
		return m, waitForEvent(m.events)

	case turnEndedMsg:
		m.endTurn()
		m.updateViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		m.updateViewport()
	}

	if m.state == models.StateIdle {
		var tiCmd tea.Cmd
		m.textInput, tiCmd = m.textInput.Update(msg)
		cmds = append(cmds, tiCmd)
	}

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, vpCmd)

	return m, tea.Batch(cmds...)
}

// startTurn sends query to the backend and begins consuming its events.
func (m *Model) startTurn(query string) tea.Cmd {
	m.messages = append(m.messages, chatMessage{role: "user", content: query})
	m.state = models.StateThinking
	m.err = nil

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.events = m.backend.Send(ctx, query)
	m.updateViewport()

	return tea.Batch(waitForEvent(m.events), m.spinner.Tick)
}

func (m *Model) endTurn() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.events = nil
	m.partial.Reset()
	m.currentTool = nil
	m.state = models.StateIdle
}

// handleEvent applies one agent event to the view state.
func (m *Model) handleEvent(ev models.Event) {
	switch e := ev.(type) {
	case models.ContentEvent:
		m.state = models.StateResponding
		m.partial.WriteString(e.Text)

	case models.ToolCallDeltaEvent, models.ToolCallCompleteEvent:
		m.state = models.StateToolCall

	case models.ToolStartEvent:
		m.state = models.StateToolExecuting
		m.flushPartial()

	case models.ToolExecutingEvent:
		m.currentTool = &toolExecution{name: e.Call.Name, arguments: e.Call.Arguments}

	case models.ToolResultEvent:
		m.finishTool(e.Call, e.Result)

	case models.ToolErrorEvent:
		m.finishTool(e.Call, e.Result)

	case models.CeilingReachedEvent:
		m.messages = append(m.messages, chatMessage{
			role:    "system",
			content: fmt.Sprintf("Round limit reached after %d rounds, summarizing.", e.Rounds),
		})

	case models.DoneEvent:
		m.partial.Reset()
		m.messages = append(m.messages, chatMessage{role: "assistant", content: e.Text})
		m.state = models.StateIdle

	case models.ErrorEvent:
		m.err = e.Err
		m.partial.Reset()
		m.messages = append(m.messages, chatMessage{
			role:    "system",
			content: fmt.Sprintf("Error: %v", e.Err),
			failed:  true,
		})
		m.state = models.StateIdle
	}
}

// flushPartial turns streamed text that preceded tool calls into a message.
func (m *Model) flushPartial() {
	if strings.TrimSpace(m.partial.String()) != "" {
		m.messages = append(m.messages, chatMessage{role: "assistant", content: m.partial.String()})
	}
	m.partial.Reset()
}

func (m *Model) finishTool(call models.ToolCall, result models.ToolResult) {
	t := m.currentTool
	if t == nil || t.name != call.Name {
		t = &toolExecution{name: call.Name, arguments: call.Arguments}
	}
	t.success = result.Success
	t.output = result.Output
	t.error = result.Error
	t.duration = result.Duration.String()
	t.done = true

	m.messages = append(m.messages, chatMessage{role: "tool", tool: t})
	m.currentTool = nil
}

// handleCommand processes REPL commands. It reports whether input was one.
func (m *Model) handleCommand(input string) (bool, tea.Cmd) {
	fields := strings.Fields(input)
	name := strings.ToLower(fields[0])
	arg := ""
	if len(fields) > 1 {
		arg = strings.ToLower(fields[1])
	}

	switch name {
	case "exit", "quit", "/exit", "/quit":
		m.quitting = true
		return true, tea.Quit

	case "/clear":
		m.messages = nil
		return true, nil

	case "/reset":
		if err := m.backend.Reset(); err != nil {
			m.system(fmt.Sprintf("Reset failed: %v", err))
		} else {
			m.messages = nil
			m.system("Conversation reset.")
		}
		return true, nil

	case "/history":
		m.system(FormatHistory(m.backend.History()))
		return true, nil

	case "/mode":
		if err := m.backend.SetMode(session.Mode(arg)); err != nil {
			m.system(err.Error())
		} else {
			m.system("Tool mode: " + arg)
		}
		return true, nil

	case "/rounds":
		n, err := strconv.Atoi(arg)
		if err == nil {
			err = m.backend.SetMaxRounds(n)
		}
		if err != nil {
			m.system(fmt.Sprintf("Invalid round limit %q", arg))
		} else {
			m.system(fmt.Sprintf("Round limit: %d", n))
		}
		return true, nil

	case "/stream":
		switch arg {
		case "on":
			m.backend.SetStream(true)
		case "off":
			m.backend.SetStream(false)
		default:
			m.system("Usage: /stream on|off")
			return true, nil
		}
		m.system("Streaming: " + arg)
		return true, nil

	case "/status":
		p := m.backend.Policy()
		m.system(fmt.Sprintf("Model: %s | mode: %s | rounds: %d | stream: %t",
			m.backend.Model(), p.Mode, p.MaxRounds, p.Stream))
		return true, nil

	case "/help", "help", "?":
		m.system(`Available commands:
  /history          Show the conversation log
  /reset            Start a new conversation
  /mode <m>         Tool mode: never, auto, always
  /rounds <n>       Maximum tool rounds per question
  /stream on|off    Toggle streaming output
  /status           Show current settings
  /clear            Clear the screen
  exit              Quit`)
		return true, nil
	}

	return false, nil
}

func (m *Model) system(text string) {
	m.messages = append(m.messages, chatMessage{role: "system", content: text})
}

// FormatHistory renders a conversation log as plain text.
func FormatHistory(history []models.Message) string {
	if len(history) == 0 {
		return "No messages yet."
	}

	var b strings.Builder
	for i, msg := range history {
		fmt.Fprintf(&b, "%d. [%s]", i+1, msg.Role)
		if msg.Content != "" {
			b.WriteString(" " + truncate(msg.Content, 200))
		}
		for _, call := range msg.ToolCalls {
			fmt.Fprintf(&b, "\n     -> %s %s (%s)", call.Name, truncate(call.Arguments, 80), call.ID)
		}
		if msg.ToolCallID != "" {
			fmt.Fprintf(&b, " (for %s)", msg.ToolCallID)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// View renders the UI.
func (m *Model) View() string {
	if m.quitting {
		return m.styles.SystemMessage.Render("Goodbye!\n")
	}

	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder

	b.WriteString(m.styles.BannerTitle.Render(Banner()))
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	b.WriteString(m.styles.Prompt.Render("> "))
	if m.state == models.StateIdle {
		b.WriteString(m.textInput.View())
	} else {
		b.WriteString(m.styles.StatusText.Render("(processing... esc to cancel)"))
	}
	b.WriteString("\n")
	b.WriteString(m.renderHelpBar())

	return m.styles.App.Render(b.String())
}

// renderMessage renders a single chat message.
func (m *Model) renderMessage(msg chatMessage) string {
	switch msg.role {
	case "user":
		return m.styles.UserMessage.Render("You: " + msg.content)

	case "assistant":
		return m.styles.AssistantMessage.Render("Assistant: " + msg.content)

	case "system":
		if msg.failed {
			return m.styles.ErrorText.Render(msg.content)
		}
		return m.styles.SystemMessage.Render(msg.content)

	case "tool":
		if msg.tool != nil {
			return m.renderToolResult(msg.tool)
		}
	}
	return ""
}

// renderToolResult renders a completed tool execution.
func (m *Model) renderToolResult(t *toolExecution) string {
	var b strings.Builder

	b.WriteString(m.styles.ToolName.Render("Tool: " + t.name))
	if t.arguments != "" {
		b.WriteString(" ")
		b.WriteString(m.styles.ToolParams.Render(truncate(t.arguments, 80)))
	}
	b.WriteString("\n")

	if t.success {
		b.WriteString(m.styles.ToolSuccess.Render("  Success"))
		if t.duration != "" && t.duration != "0s" {
			b.WriteString(m.styles.ToolParams.Render(fmt.Sprintf(" (%s)", t.duration)))
		}
		b.WriteString("\n")
		for _, line := range strings.Split(truncate(t.output, 300), "\n") {
			if line != "" {
				b.WriteString(m.styles.ToolOutput.Render("  | " + line))
				b.WriteString("\n")
			}
		}
	} else {
		b.WriteString(m.styles.ToolError.Render("  Failed: " + t.error))
		b.WriteString("\n")
	}

	return m.styles.ToolBox.Render(b.String())
}

// renderToolInProgress renders a tool that's currently executing.
func (m *Model) renderToolInProgress() string {
	var b strings.Builder

	b.WriteString(m.styles.ToolName.Render("Tool: " + m.currentTool.name))
	if m.currentTool.arguments != "" {
		b.WriteString(" ")
		b.WriteString(m.styles.ToolParams.Render(truncate(m.currentTool.arguments, 80)))
	}
	b.WriteString("\n")
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(m.styles.StatusText.Render("Executing..."))

	return m.styles.ToolBox.Render(b.String())
}

// renderStatus renders the current processing status.
func (m *Model) renderStatus() string {
	return fmt.Sprintf("%s %s",
		m.spinner.View(),
		m.styles.StateLabel.Render(m.state.String()+"..."),
	)
}

// renderHelpBar renders the bottom help bar.
func (m *Model) renderHelpBar() string {
	help := []string{
		m.styles.HelpKey.Render("enter") + m.styles.HelpValue.Render(" send"),
		m.styles.HelpKey.Render("esc") + m.styles.HelpValue.Render(" cancel/quit"),
		m.styles.HelpKey.Render("/help") + m.styles.HelpValue.Render(" commands"),
		m.styles.HelpKey.Render("/mode") + m.styles.HelpValue.Render(" tool mode"),
	}
	return m.styles.HelpBar.Render(strings.Join(help, "  |  "))
}

func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
