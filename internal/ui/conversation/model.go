package conversation

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nhle/mailchat/internal/chat"
	"github.com/nhle/mailchat/internal/keys"
	"github.com/nhle/mailchat/internal/theme"
)

// transcriptChangedMsg is delivered after every transcript mutation.
type transcriptChangedMsg struct{}

// settledMsg carries the outcome of one awaited invocation.
type settledMsg struct {
	Outcome chat.Outcome
}

type focusArea int

const (
	focusInput focusArea = iota
	focusCards
)

// Model is the chat view: a scrolling transcript above an input box.
type Model struct {
	ctx      context.Context
	exec     *chat.Executor
	changes  <-chan struct{}
	keys     *keys.KeyMap
	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	focus    focusArea
	selected int
	cards    []Card
	pending  int
	lastErr  error
	log      *zap.Logger

	confirm   *huh.Form
	confirmed *bool
	deleteID  string

	width  int
	height int
}

// New creates a chat view driving exec. Service calls run under ctx and
// failures are logged to log.
func New(ctx context.Context, exec *chat.Executor, k *keys.KeyMap, width, height int, log *zap.Logger) Model {
	if log == nil {
		log = zap.NewNop()
	}

	ta := textarea.New()
	ta.Placeholder = `Try "check my email"...`
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.SetWidth(max(width-4, 10))
	ta.SetHeight(3)
	ta.CharLimit = 2000
	ta.Focus()

	vp := viewport.New(max(width-4, 10), max(height-5, 3))
	vp.Style = lipgloss.NewStyle()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.StatusLineStyle

	m := Model{
		ctx:      ctx,
		exec:     exec,
		changes:  exec.Transcript().Subscribe(),
		keys:     k,
		input:    ta,
		viewport: vp,
		spinner:  sp,
		selected: -1,
		log:      log,
		width:    width,
		height:   height,
	}
	m.refresh()
	return m
}

// Init starts the cursor blink, the spinner and the transcript watch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, waitForChange(m.changes))
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return transcriptChangedMsg{}
	}
}

func (m Model) await(inv *chat.Invocation) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return settledMsg{Outcome: inv.Await(ctx)}
	}
}

// Update handles messages for the chat view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case transcriptChangedMsg:
		m.refresh()
		return m, waitForChange(m.changes)

	case settledMsg:
		m.pending = max(m.pending-1, 0)
		m.lastErr = msg.Outcome.Err
		if m.lastErr != nil {
			m.log.Error("chat action failed", zap.Error(m.lastErr))
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.pending > 0 {
			m.refresh()
		}
		return m, cmd
	}

	// The form also needs its own internal messages to advance.
	if m.confirm != nil {
		return m.updateConfirm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.focus == focusCards {
			return m.handleCardKey(msg)
		}
		return m.handleInputKey(msg)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) handleInputKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		text := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		return m, m.Submit(text)

	case key.Matches(msg, m.keys.Focus):
		if len(m.cards) == 0 {
			return m, nil
		}
		m.focus = focusCards
		m.input.Blur()
		if m.selected < 0 {
			m.selected = len(m.cards) - 1
		}
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleCardKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Focus), key.Matches(msg, m.keys.Back):
		m.focus = focusInput
		m.refresh()
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.cards)-1 {
			m.selected++
			m.refresh()
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
			m.refresh()
		}
		return m, nil

	case key.Matches(msg, m.keys.Reply):
		card, ok := m.selectedCard()
		if !ok || !card.IsEmail() {
			return m, nil
		}
		m.pending++
		return m, m.await(m.exec.StartGenerateReply(card.Email))

	case key.Matches(msg, m.keys.SendDraft):
		card, ok := m.selectedCard()
		if !ok || !card.IsDraft() {
			return m, nil
		}
		m.pending++
		return m, m.await(m.exec.StartSendReply(card.Draft))

	case key.Matches(msg, m.keys.Delete):
		card, ok := m.selectedCard()
		if !ok || !card.IsEmail() {
			return m, nil
		}
		return m, m.openConfirm(card.Email.ID)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// openConfirm shows the delete confirmation for emailID.
func (m *Model) openConfirm(emailID string) tea.Cmd {
	m.confirmed = new(bool)
	m.deleteID = emailID
	m.confirm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(chat.DeleteQuestion).
				Affirmative("Delete").
				Negative("Cancel").
				Value(m.confirmed),
		),
	).WithWidth(max(m.width-8, 20)).WithShowHelp(false)
	return m.confirm.Init()
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && key.Matches(km, m.keys.Back) {
		m.closeConfirm()
		return m, nil
	}

	form, cmd := m.confirm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.confirm = f
	}

	switch m.confirm.State {
	case huh.StateCompleted:
		yes := *m.confirmed
		id := m.deleteID
		m.closeConfirm()
		inv := m.exec.StartDeleteEmail(m.ctx, id, chat.Answer(yes))
		if inv == nil {
			return m, nil
		}
		m.pending++
		return m, m.await(inv)

	case huh.StateAborted:
		m.closeConfirm()
		return m, nil
	}

	return m, cmd
}

func (m *Model) closeConfirm() {
	m.confirm = nil
	m.confirmed = nil
	m.deleteID = ""
}

func (m Model) selectedCard() (Card, bool) {
	if m.selected < 0 || m.selected >= len(m.cards) {
		return Card{}, false
	}
	return m.cards[m.selected], true
}

// refresh re-renders the transcript into the viewport.
func (m *Model) refresh() {
	msgs := m.exec.Transcript().Snapshot()
	m.cards = Cards(msgs)
	if m.selected >= len(m.cards) {
		m.selected = len(m.cards) - 1
	}

	selected := -1
	if m.focus == focusCards {
		selected = m.selected
	}

	atBottom := m.viewport.AtBottom() || m.focus == focusInput
	m.viewport.SetContent(Render(msgs, RenderOptions{
		Width:    m.viewport.Width,
		Selected: selected,
		Spinner:  m.spinner.View(),
	}))
	if atBottom {
		m.viewport.GotoBottom()
	}
}

// View renders the chat view.
func (m Model) View() string {
	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-6, 80), 0)))

	bottom := m.input.View()
	if m.confirm != nil {
		bottom = m.confirm.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		separator,
		bottom,
	)
}

// SetSize updates the chat view dimensions. height is the space left for
// the transcript and the input box together.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.SetWidth(max(width-4, 10))
	m.viewport.Width = max(width-4, 10)
	m.viewport.Height = max(height-m.input.Height()-1, 3)
	m.refresh()
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	m.focus = focusInput
	return m.input.Focus()
}

// Typing reports whether key presses go to the text input, so the parent
// should not treat printable keys as shortcuts.
func (m Model) Typing() bool {
	return m.focus == focusInput || m.confirm != nil
}

// Pending returns the number of invocations still in flight.
func (m Model) Pending() int { return m.pending }

// Err returns the failure of the most recently settled invocation.
func (m Model) Err() error { return m.lastErr }

// Submit runs a free-text utterance as if it had been typed. Blank input
// and hint replies return a nil command.
func (m *Model) Submit(text string) tea.Cmd {
	inv, _, err := m.exec.StartSubmit(text)
	if err != nil || inv == nil {
		return nil
	}
	m.pending++
	return m.await(inv)
}

// Refresh starts a new fetch of the recent emails.
func (m *Model) Refresh() tea.Cmd {
	m.pending++
	return m.await(m.exec.StartListEmails())
}
