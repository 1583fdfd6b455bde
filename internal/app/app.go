package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/mailchat/internal/chat"
	"github.com/nhle/mailchat/internal/keys"
	"github.com/nhle/mailchat/internal/theme"
	"github.com/nhle/mailchat/internal/ui"
	"github.com/nhle/mailchat/internal/ui/command"
	"github.com/nhle/mailchat/internal/ui/conversation"
	helpview "github.com/nhle/mailchat/internal/ui/help"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewChat ViewState = iota
	ViewHelp
	ViewCommand
)

// Model is the root Bubble Tea model that routes between the chat, the
// help overlay and the command palette.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	chat         conversation.Model
	helpView     helpview.Model
	commandView  command.Model
	mode         string
	cancel       context.CancelFunc
	ready        bool
}

// New creates the root model driving exec. mode is shown in the header.
// Service calls are cancelled when the program quits.
func New(ctx context.Context, exec *chat.Executor, mode string, log *zap.Logger) Model {
	ctx, cancel := context.WithCancel(ctx)
	k := keys.DefaultKeyMap()

	return Model{
		currentView: ViewChat,
		keys:        k,
		chat:        conversation.New(ctx, exec, k, 80, 24, log),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
		mode:        mode,
		cancel:      cancel,
	}
}

// Init starts the chat view.
func (m Model) Init() tea.Cmd {
	return m.chat.Init()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		height := m.layout.ContentHeight()
		m.chat.SetSize(msg.Width, height)
		m.helpView.SetSize(msg.Width, height)
		m.commandView.SetSize(msg.Width, height)
		return m.updateActiveView(msg)

	case command.CommandMsg:
		m.currentView = ViewChat
		return m, m.executeCommand(string(msg))

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m.quit()

		case key.Matches(msg, m.keys.Back) && m.currentView != ViewChat:
			m.currentView = ViewChat
			return m, m.chat.Focus()

		case key.Matches(msg, m.keys.Help) && m.canToggle(ViewHelp):
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case key.Matches(msg, m.keys.Command) && m.canToggle(ViewCommand):
			if m.currentView == ViewCommand {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewCommand
			return m, m.commandView.Focus()
		}

		return m.updateActiveView(msg)
	}

	// Service results and transcript ticks must reach the chat even while
	// an overlay is open.
	if m.currentView == ViewChat {
		return m.updateActiveView(msg)
	}
	var chatCmd tea.Cmd
	m.chat, chatCmd = m.chat.Update(msg)
	next, cmd := m.updateActiveView(msg)
	return next, tea.Batch(chatCmd, cmd)
}

// canToggle reports whether a printable shortcut may open or close v.
// Inside the chat input they are ordinary characters.
func (m Model) canToggle(v ViewState) bool {
	switch m.currentView {
	case ViewChat:
		return !m.chat.Typing()
	case v:
		return v == ViewHelp
	default:
		return false
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	return m, tea.Quit
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewChat:
		m.chat, cmd = m.chat.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	switch cmd {
	case command.List:
		return tea.Batch(m.chat.Focus(), m.chat.Refresh())
	case command.Help:
		m.previousView = ViewChat
		m.currentView = ViewHelp
		return nil
	case command.Quit:
		if m.cancel != nil {
			m.cancel()
		}
		return tea.Quit
	default:
		// Anything else is treated as something said in the chat.
		return tea.Batch(m.chat.Focus(), m.chat.Submit(cmd))
	}
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Mail Chat", m.status())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return m.chat.View()
	}
}

// status returns the header's right-hand text.
func (m Model) status() string {
	state := "idle"
	if n := m.chat.Pending(); n > 0 {
		state = fmt.Sprintf("working (%d)", n)
	}
	if m.mode == "" {
		return state
	}
	return state + " | " + m.mode
}

// FailureHint replaces the key hints after a failed action.
const FailureHint = "last action failed; details are in the log"

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	}

	// Details go to the log; the bar only flags the failure.
	if m.chat.Err() != nil {
		return theme.ErrorStyle.Render(FailureHint)
	}

	if m.chat.Typing() {
		return "enter send | tab cards | ctrl+c quit"
	}
	return "j/k move | r reply | d delete | s send | tab input | : command | ? help"
}
