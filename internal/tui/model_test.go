package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/chat-widget/internal/model/chat"
	"github.com/zhouzirui/chat-widget/internal/model/profile"
	chatService "github.com/zhouzirui/chat-widget/internal/service/chat"
	"github.com/zhouzirui/chat-widget/internal/view"
)

type gateResponder struct {
	release chan struct{}
}

func (g *gateResponder) Reply(_ context.Context, req chat.SessionRequest) (string, error) {
	<-g.release
	return "**echo** " + req.Message, nil
}

func newTestModel(t *testing.T) (Model, *chatService.Session, *gateResponder) {
	t.Helper()
	responder := &gateResponder{release: make(chan struct{})}
	session := chatService.NewSession(context.Background(), responder, chatService.WithGreeting("Hi there"))

	m := New(session, profile.Default(), view.NewRenderer(time.UTC, ""))
	t.Cleanup(func() {
		m.Close()
		select {
		case <-responder.release:
		default:
			close(responder.release)
		}
		session.Wait()
	})

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model), session, responder
}

func press(m Model, msg tea.KeyMsg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestNewModelShowsGreeting(t *testing.T) {
	m, _, _ := newTestModel(t)

	require.Len(t, m.view.Items, 1)
	assert.Equal(t, "Hi there", m.view.Items[0].Content)
	assert.False(t, m.view.Searching)
	assert.Contains(t, m.View(), "Atos AI Assistant")
}

func TestEnterSubmitsAndClearsInput(t *testing.T) {
	m, session, responder := newTestModel(t)

	m.textarea.SetValue("What is Go?")
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Empty(t, m.textarea.Value())
	require.Len(t, m.view.Items, 2)
	assert.Equal(t, "What is Go?", m.view.Items[1].Content)
	assert.True(t, m.view.Searching)
	assert.Contains(t, m.View(), view.DefaultSearchingLabel)

	close(responder.release)
	session.Wait()

	next, cmd := m.Update(changeMsg{})
	m = next.(Model)
	require.NotNil(t, cmd)
	require.Len(t, m.view.Items, 3)
	assert.Equal(t, chat.RoleAssistant, m.view.Items[2].Role)
	assert.False(t, m.view.Searching)
	assert.True(t, m.viewport.AtBottom())
}

func TestEnterIgnoredForBlankInput(t *testing.T) {
	m, session, _ := newTestModel(t)

	m.textarea.SetValue("   ")
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "   ", m.textarea.Value())
	assert.Len(t, m.view.Items, 1)
	assert.False(t, session.Busy())
}

func TestEnterIgnoredWhileBusyKeepsText(t *testing.T) {
	m, session, _ := newTestModel(t)

	m.textarea.SetValue("first")
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, session.Busy())

	m.textarea.SetValue("second")
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "second", m.textarea.Value())
	assert.Len(t, session.Transcript(), 2)
}

func TestAltEnterInsertsNewline(t *testing.T) {
	m, session, _ := newTestModel(t)

	m.textarea.SetValue("line one")
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter, Alt: true})

	assert.Equal(t, "line one\n", m.textarea.Value())
	assert.False(t, session.Busy())

	m = press(m, tea.KeyMsg{Type: tea.KeyCtrlJ})
	assert.Equal(t, 3, strings.Count(m.textarea.Value()+"\n", "\n"))
}

func TestWaitForChangeFiresOnSessionUpdate(t *testing.T) {
	m, session, _ := newTestModel(t)

	cmd := m.waitForChange()
	session.SetInput("typing")

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	select {
	case msg := <-done:
		assert.IsType(t, changeMsg{}, msg)
	case <-time.After(time.Second):
		t.Fatal("expected change notification")
	}
}

func TestCtrlCQuitsAndStopsWatching(t *testing.T) {
	m, _, _ := newTestModel(t)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	assert.Nil(t, next.(Model).waitForChange()())
}

func TestResizeHandlesTinyWindows(t *testing.T) {
	m, _, _ := newTestModel(t)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 0, Height: 0})
	m = next.(Model)
	assert.Equal(t, 1, m.width)
	assert.GreaterOrEqual(t, m.viewport.Height, 1)
}
