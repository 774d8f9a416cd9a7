// Package tui is the terminal chat interface: a transcript viewport over the
// current session, a text input, and a spinner while a query is in flight.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/techtranslator/techtranslator/internal/chat"
	"github.com/techtranslator/techtranslator/internal/dispatch"
)

// welcomeText greets every session. It is rendered into the transcript but
// never stored, so it survives restarts without polluting saved history.
const welcomeText = `Hello! I'm TechTranslator. I can explain data science and machine learning concepts for insurance professionals. Try asking me about concepts like "R-squared", "loss ratio", or "predictive models".`

// replyMsg carries the bot's turn back from the dispatch goroutine.
type replyMsg struct {
	reply *chat.Message
}

// ---------- styles ----------

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2")).
			Bold(true)

	sessionTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	sessionTabActiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true)

	userLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	botLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2")).
			Bold(true)

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

var thinkingSpinner = spinner.Spinner{
	Frames: []string{"·", "✢", "✳", "✶", "✻", "✽", "✻", "✶", "✳", "✢"},
	FPS:    120 * time.Millisecond,
}

// Model is the bubbletea model managing the full TUI state.
type Model struct {
	store      *chat.Store
	dispatcher *dispatch.Dispatcher

	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model

	width  int
	height int
	ready  bool
	busy   bool

	quitting bool

	mdRenderer      *glamour.TermRenderer
	mdRendererWidth int
}

// NewModel creates the initial bubbletea model over the given store and
// dispatcher.
func NewModel(store *chat.Store, dispatcher *dispatch.Dispatcher) Model {
	ti := textinput.New()
	ti.Prompt = "❯ "
	ti.Placeholder = "Ask about a data science concept..."
	ti.CharLimit = 1024
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = thinkingSpinner
	sp.Style = spinnerStyle

	return Model{
		store:      store,
		dispatcher: dispatcher,
		input:      ti,
		spinner:    sp,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = m.width - 4

		vpHeight := m.height - 5
		if vpHeight < 3 {
			vpHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.refreshTranscript()

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case replyMsg:
		m.busy = false
		m.input.Focus()
		m.refreshTranscript()
		cmds = append(cmds, textinput.Blink)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			if m.busy {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.SetValue("")
			m.input.Blur()
			m.busy = true
			m.refreshTranscriptWithPending(text)
			cmds = append(cmds, m.spinner.Tick, m.sendCmd(text))

		case "ctrl+n":
			if m.busy {
				return m, nil
			}
			m.store.NewSession()
			m.refreshTranscript()

		case "tab":
			if !m.busy {
				m.cycleSession(1)
			}

		case "shift+tab":
			if !m.busy {
				m.cycleSession(-1)
			}

		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)

		default:
			if !m.busy {
				var cmd tea.Cmd
				m.input, cmd = m.input.Update(msg)
				cmds = append(cmds, cmd)
			}
		}
	}

	return m, tea.Batch(cmds...)
}

// sendCmd runs the exchange off the UI goroutine.
func (m Model) sendCmd(text string) tea.Cmd {
	dispatcher := m.dispatcher
	return func() tea.Msg {
		reply := dispatcher.Send(context.Background(), text)
		return replyMsg{reply: reply}
	}
}

// cycleSession moves to the next or previous session in creation order.
func (m *Model) cycleSession(step int) {
	sessions := m.store.Sessions()
	if len(sessions) < 2 {
		return
	}
	current := m.store.CurrentID()
	for i, s := range sessions {
		if s.ID == current {
			next := (i + step + len(sessions)) % len(sessions)
			m.store.SwitchTo(sessions[next].ID)
			break
		}
	}
	m.refreshTranscript()
}

func (m *Model) refreshTranscript() {
	m.refreshTranscriptWithPending("")
}

// refreshTranscriptWithPending rebuilds the viewport content. pending is a
// just-submitted user line shown before the dispatcher has appended it.
func (m *Model) refreshTranscriptWithPending(pending string) {
	if !m.ready {
		return
	}

	var b strings.Builder
	b.WriteString(m.renderBot(welcomeText, nil))

	if session := m.store.Current(); session != nil {
		for _, msg := range session.Messages {
			if msg.IsUser {
				b.WriteString(m.renderUser(msg.Content))
			} else {
				b.WriteString(m.renderBot(msg.Content, msg.Extra))
			}
		}
	}
	if pending != "" {
		b.WriteString(m.renderUser(pending))
	}

	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *Model) renderUser(content string) string {
	return userLabelStyle.Render("You") + "\n" + content + "\n\n"
}

func (m *Model) renderBot(content string, extra *chat.Extra) string {
	body := content
	if r := m.markdownRenderer(); r != nil {
		if out, err := r.Render(content); err == nil {
			body = strings.TrimRight(out, "\n") + "\n"
		}
	}

	var tag string
	if extra != nil && extra.Concept != "" {
		tag = tagStyle.Render(fmt.Sprintf("  [%s · %s]", extra.Concept, extra.Audience)) + "\n"
	}
	return botLabelStyle.Render("TechTranslator") + "\n" + body + tag + "\n"
}

// markdownRenderer lazily builds a glamour renderer sized to the viewport,
// rebuilding when the width changes.
func (m *Model) markdownRenderer() *glamour.TermRenderer {
	width := m.viewport.Width - 2
	if width < 20 {
		width = 20
	}
	if m.mdRenderer != nil && m.mdRendererWidth == width {
		return m.mdRenderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	m.mdRenderer = r
	m.mdRendererWidth = width
	return r
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "loading..."
	}

	header := m.renderHeader()

	inputLine := m.input.View()
	if m.busy {
		inputLine = m.spinner.View() + " thinking..."
	}

	hint := hintStyle.Render("enter send · ctrl+n new chat · tab switch chat · ctrl+c quit")

	return header + "\n" + m.viewport.View() + "\n" + borderStyle.Width(m.width-2).Render(inputLine) + "\n" + hint
}

// renderHeader shows the app title and one tab per session.
func (m Model) renderHeader() string {
	title := titleStyle.Render("TechTranslator")

	var tabs []string
	current := m.store.CurrentID()
	for _, s := range m.store.Sessions() {
		label := s.Title
		if r := []rune(label); len(r) > 20 {
			label = string(r[:20])
		}
		if s.ID == current {
			tabs = append(tabs, sessionTabActiveStyle.Render("["+label+"]"))
		} else {
			tabs = append(tabs, sessionTabStyle.Render(label))
		}
	}
	if len(tabs) == 0 {
		return title
	}
	return title + "  " + strings.Join(tabs, "  ")
}
