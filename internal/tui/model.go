// Package tui is the terminal front end over a single chat session.
package tui

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/chat-widget/internal/model/chat"
	"github.com/zhouzirui/chat-widget/internal/model/profile"
	chatService "github.com/zhouzirui/chat-widget/internal/service/chat"
	"github.com/zhouzirui/chat-widget/internal/view"
)

const (
	headerHeight = 2
	statusHeight = 1
	inputHeight  = 5
	footerHeight = 1
)

// changeMsg wakes the model after the session changed.
type changeMsg struct{}

// Model renders a session transcript and feeds the input box into it.
type Model struct {
	session  *chatService.Session
	profile  profile.Profile
	renderer view.Renderer

	changes   <-chan struct{}
	stop      func()
	done      chan struct{}
	closeOnce *sync.Once

	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	markdown *glamour.TermRenderer
	styles   styles

	view   view.View
	width  int
	height int
}

// New builds a model subscribed to session changes.
func New(session *chatService.Session, p profile.Profile, renderer view.Renderer) Model {
	ta := textarea.New()
	ta.Placeholder = p.InputHint
	ta.ShowLineNumbers = false
	ta.SetWidth(80)
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	changes, stop := session.Changes()

	m := Model{
		session:   session,
		profile:   p,
		renderer:  renderer,
		changes:   changes,
		stop:      stop,
		done:      make(chan struct{}),
		closeOnce: &sync.Once{},
		textarea:  ta,
		viewport:  viewport.New(80, 20),
		spinner:   sp,
		styles:    defaultStyles(),
	}
	m.markdown = newMarkdown(76)
	m.refresh()
	return m
}

func newMarkdown(width int) *glamour.TermRenderer {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// Init starts the cursor blink, the spinner and the change watcher.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, m.waitForChange())
}

func (m Model) waitForChange() tea.Cmd {
	changes, done := m.changes, m.done
	return func() tea.Msg {
		select {
		case <-changes:
			return changeMsg{}
		case <-done:
			return nil
		}
	}
}

// Close stops watching the session.
func (m Model) Close() {
	m.closeOnce.Do(func() {
		m.stop()
		close(m.done)
	})
}

// Update handles keys, resizes, spinner ticks and session changes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.Close()
			return m, tea.Quit
		case tea.KeyEnter:
			if !msg.Alt {
				return m.submit(), nil
			}
		}
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		return m.resize(msg.Width, msg.Height), nil

	case changeMsg:
		m.refresh()
		return m, m.waitForChange()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// submit hands the textarea to the session; the box is cleared only when accepted.
func (m Model) submit() Model {
	m.session.SetInput(m.textarea.Value())
	if m.session.SubmitInput() {
		m.textarea.Reset()
	}
	m.refresh()
	return m
}

func (m Model) resize(width, height int) Model {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	m.width = width
	m.height = height

	vpHeight := height - headerHeight - statusHeight - inputHeight - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = width
	m.viewport.Height = vpHeight

	inputWidth := width - 2
	if inputWidth < 1 {
		inputWidth = 1
	}
	m.textarea.SetWidth(inputWidth)
	m.markdown = newMarkdown(width - 4)

	m.refresh()
	return m
}

// refresh re-reads the session and scrolls to the newest message.
func (m *Model) refresh() {
	m.view = m.renderer.Render(m.session.Snapshot())
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	var b strings.Builder
	for i, item := range m.view.Items {
		if i > 0 {
			b.WriteString("\n")
		}
		label := m.styles.Assistant.Render(m.profile.Name)
		if item.Role == chat.RoleUser {
			label = m.styles.User.Render("You")
		}
		b.WriteString(label + " " + m.styles.Time.Render(item.Time) + "\n")
		b.WriteString(m.renderContent(item) + "\n")
	}
	return b.String()
}

func (m Model) renderContent(item view.Item) string {
	if item.Role == chat.RoleAssistant && m.markdown != nil {
		if out, err := m.markdown.Render(item.Content); err == nil {
			return strings.TrimRight(out, "\n")
		}
	}
	return m.styles.Body.Render(item.Content)
}

// View draws header, transcript, indicator, input and footer.
func (m Model) View() string {
	header := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Header.Render(m.profile.Name),
		m.styles.Tagline.Render(m.profile.Tagline),
	)

	status := ""
	if m.view.Searching {
		status = m.spinner.View() + " " + m.styles.Status.Render(m.view.Indicator)
	}

	footer := m.styles.Footer.Render(m.profile.Footer+" ") + m.styles.Highlight.Render(m.profile.FooterHighlight) +
		m.styles.Footer.Render("  (Enter send, Alt+Enter newline, Ctrl+C quit)")

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		status,
		m.styles.Input.Render(m.textarea.View()),
		footer,
	)
}

// Run drives the terminal program until the user quits or ctx ends.
func Run(ctx context.Context, session *chatService.Session, p profile.Profile, renderer view.Renderer) error {
	m := New(session, p, renderer)
	defer m.Close()

	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
