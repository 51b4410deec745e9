package chat_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zhouzirui/chat-widget/internal/model/chat"
	chatService "github.com/zhouzirui/chat-widget/internal/service/chat"
)

type echoResponder struct{}

func (echoResponder) Reply(_ context.Context, req chat.SessionRequest) (string, error) {
	return req.Message, nil
}

func TestServiceGetSession(t *testing.T) {
	svc := chatService.NewService(context.Background(), echoResponder{}, nil, chatService.WithGreeting("hi"))
	ctx := context.Background()

	session, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	got, err := svc.GetSession(ctx, session.ID())
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}
	if got != session {
		t.Fatalf("unexpected session: got %s want %s", got.ID(), session.ID())
	}
	if greeting := got.Transcript()[0].Content; greeting != "hi" {
		t.Fatalf("unexpected greeting: %q", greeting)
	}
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := chatService.NewService(context.Background(), echoResponder{}, nil)

	if _, err := svc.GetSession(context.Background(), "missing"); !errors.Is(err, chatService.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestServiceCloseSession(t *testing.T) {
	svc := chatService.NewService(context.Background(), echoResponder{}, nil)
	ctx := context.Background()

	session, _ := svc.CreateSession(ctx)
	if svc.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", svc.Len())
	}

	session.Submit("bye")
	if err := svc.CloseSession(ctx, session.ID()); err != nil {
		t.Fatalf("CloseSession err: %v", err)
	}
	session.Wait()

	if svc.Len() != 0 {
		t.Fatalf("expected no sessions, got %d", svc.Len())
	}
	if err := svc.CloseSession(ctx, session.ID()); !errors.Is(err, chatService.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on second close, got %v", err)
	}
}

func TestServiceWait(t *testing.T) {
	svc := chatService.NewService(context.Background(), echoResponder{}, nil)
	session, _ := svc.CreateSession(context.Background())

	session.Submit("ping")
	svc.Wait()

	if got := session.Transcript()[2].Content; got != "ping" {
		t.Fatalf("unexpected reply: %q", got)
	}
}

type gatedResponder struct {
	release chan struct{}
}

func (g gatedResponder) Reply(_ context.Context, req chat.SessionRequest) (string, error) {
	<-g.release
	return req.Message, nil
}

func TestServiceWaitDrainsClosedSessions(t *testing.T) {
	release := make(chan struct{})
	svc := chatService.NewService(context.Background(), gatedResponder{release: release}, nil)
	ctx := context.Background()

	session, _ := svc.CreateSession(ctx)
	if !session.Submit("late") {
		t.Fatal("expected submit to be accepted")
	}
	if err := svc.CloseSession(ctx, session.ID()); err != nil {
		t.Fatalf("CloseSession err: %v", err)
	}

	done := make(chan struct{})
	go func() {
		svc.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned while a closed session still had a call in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after the call completed")
	}
	if n := len(session.Transcript()); n != 3 {
		t.Fatalf("expected reply in detached session, got %d messages", n)
	}
}

func TestServiceCloseIdle(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	svc := chatService.NewService(context.Background(), gatedResponder{release: release}, nil)
	ctx := context.Background()

	idle, _ := svc.CreateSession(ctx)
	busy, _ := svc.CreateSession(ctx)
	watched, _ := svc.CreateSession(ctx)

	busy.Submit("pending")
	_, stop := watched.Changes()
	defer stop()

	later := time.Now().Add(time.Hour)
	if n := svc.CloseIdle(later, 30*time.Minute); n != 1 {
		t.Fatalf("expected 1 expired session, got %d", n)
	}
	if _, err := svc.GetSession(ctx, idle.ID()); !errors.Is(err, chatService.ErrSessionNotFound) {
		t.Fatalf("expected idle session to be gone, got %v", err)
	}
	if svc.Len() != 2 {
		t.Fatalf("expected busy and watched sessions to remain, got %d", svc.Len())
	}

	if n := svc.CloseIdle(time.Now(), 30*time.Minute); n != 0 {
		t.Fatalf("expected nothing to expire yet, got %d", n)
	}
}
