package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/chat-widget/internal/logging"
	"github.com/zhouzirui/chat-widget/internal/model/chat"
)

// Apology opens every assistant message produced by a failed turn.
const Apology = "I apologize, but I'm currently experiencing technical difficulties. Please try again later."

// DefaultGreeting seeds a session when no greeting option is given.
const DefaultGreeting = "Hello! How can I help you today?"

// Responder answers one user turn.
type Responder interface {
	Reply(ctx context.Context, req chat.SessionRequest) (string, error)
}

// Listener observes state changes. It runs on the mutating goroutine and must not block
// or call back into the session. Deliveries from concurrent mutations may arrive out of
// order; compare Snapshot.Version, or re-read Snapshot, to get the latest state.
type Listener func(chat.Snapshot)

// Session owns one transcript, the input buffer and the busy flag.
// At most one outbound call is in flight; submits while busy are dropped.
type Session struct {
	id        string
	ctx       context.Context
	responder Responder
	logger    *zap.Logger
	greeting  string

	mu           sync.Mutex
	transcript   []chat.Message
	input        string
	busy         bool
	version      uint64
	lastActive   time.Time
	listeners    map[int]Listener
	nextListener int

	inflight sync.WaitGroup
	tracker  *sync.WaitGroup
}

// Option customises a Session.
type Option func(*Session)

// WithGreeting sets the seeded assistant message.
func WithGreeting(greeting string) Option {
	return func(s *Session) {
		if greeting != "" {
			s.greeting = greeting
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		s.logger = logging.OrNop(l)
	}
}

// trackedBy also counts outbound calls on wg, so a registry can drain sessions it no
// longer holds.
func trackedBy(wg *sync.WaitGroup) Option {
	return func(s *Session) {
		s.tracker = wg
	}
}

// NewSession seeds a session with the assistant greeting. ctx bounds every outbound call
// and should live as long as the view, not a single request.
func NewSession(ctx context.Context, responder Responder, opts ...Option) *Session {
	s := &Session{
		id:        uuid.NewString(),
		ctx:       ctx,
		responder: responder,
		logger:    zap.NewNop(),
		greeting:  DefaultGreeting,
		listeners: make(map[int]Listener),
	}
	s.lastActive = time.Now()
	for _, opt := range opts {
		opt(s)
	}
	s.transcript = []chat.Message{chat.NewMessage(chat.RoleAssistant, s.greeting)}
	s.logger = s.logger.With(zap.String("session", s.id))
	return s
}

// ID identifies the session.
func (s *Session) ID() string {
	return s.id
}

// SetInput replaces the input buffer.
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.touchLocked()
	s.mu.Unlock()
	s.notify()
}

// Input returns the input buffer.
func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// SubmitInput submits the current input buffer.
func (s *Session) SubmitInput() bool {
	return s.Submit(s.Input())
}

// Submit appends a user message and starts the outbound call. It returns false, changing
// nothing, when text is blank or a call is already in flight.
func (s *Session) Submit(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		s.logger.Debug("submit ignored while awaiting response")
		return false
	}
	s.transcript = append(s.transcript, chat.NewMessage(chat.RoleUser, text))
	s.input = ""
	s.busy = true
	s.touchLocked()
	s.inflight.Add(1)
	if s.tracker != nil {
		s.tracker.Add(1)
	}
	s.mu.Unlock()

	s.notify()

	go s.resolve(chat.NewSessionRequest(text))
	return true
}

func (s *Session) resolve(req chat.SessionRequest) {
	defer func() {
		s.inflight.Done()
		if s.tracker != nil {
			s.tracker.Done()
		}
	}()

	content, err := s.responder.Reply(s.ctx, req)
	if err != nil {
		s.logger.Warn("turn failed", zap.String("sessionId", req.SessionID), zap.Error(err))
		content = FailureMessage(err)
	} else {
		s.logger.Info("turn completed", zap.String("sessionId", req.SessionID), zap.Int("length", len(content)))
	}

	s.mu.Lock()
	s.transcript = append(s.transcript, chat.NewMessage(chat.RoleAssistant, content))
	s.busy = false
	s.touchLocked()
	s.mu.Unlock()

	s.notify()
}

// FailureMessage renders the assistant text for a failed turn.
func FailureMessage(err error) string {
	return fmt.Sprintf("%s\n\nError: %v", Apology, err)
}

// Busy reports whether a call is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Transcript returns a copy of the messages in display order.
func (s *Session) Transcript() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]chat.Message(nil), s.transcript...)
}

// Snapshot returns a copy of the observable state.
func (s *Session) Snapshot() chat.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() chat.Snapshot {
	return chat.Snapshot{
		SessionID:  s.id,
		Transcript: append([]chat.Message(nil), s.transcript...),
		Input:      s.input,
		Busy:       s.busy,
		Version:    s.version,
	}
}

func (s *Session) touchLocked() {
	s.version++
	s.lastActive = time.Now()
}

// IdleFor reports how long the session has gone unchanged as of now. A session that is
// busy or still observed is never idle.
func (s *Session) IdleFor(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy || len(s.listeners) > 0 {
		return 0
	}
	return now.Sub(s.lastActive)
}

// Subscribe registers fn for every subsequent state change.
func (s *Session) Subscribe(fn Listener) (cancel func()) {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Changes returns a channel signalled after state changes. Signals coalesce, so
// consumers should read Snapshot on every wake-up.
func (s *Session) Changes() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	cancel := s.Subscribe(func(chat.Snapshot) {
		select {
		case ch <- struct{}{}:
		default:
		}
	})
	return ch, cancel
}

// Wait blocks until no outbound call is outstanding.
func (s *Session) Wait() {
	s.inflight.Wait()
}

func (s *Session) notify() {
	s.mu.Lock()
	if len(s.listeners) == 0 {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}
