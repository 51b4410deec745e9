package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/chat-widget/internal/model/chat"
	chatService "github.com/zhouzirui/chat-widget/internal/service/chat"
	"github.com/zhouzirui/chat-widget/internal/view"
)

type gateResponder struct {
	release chan struct{}
}

func (g *gateResponder) Reply(ctx context.Context, req chat.SessionRequest) (string, error) {
	if g.release != nil {
		<-g.release
	}
	return "echo: " + req.Message, nil
}

func setupRouter(responder chatService.Responder) (*chi.Mux, *chatService.Service) {
	chatSvc := chatService.NewService(context.Background(), responder, nil, chatService.WithGreeting("Hello!"))
	handler := New(chatSvc, view.NewRenderer(time.UTC, ""))

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, chatSvc
}

func createSession(t *testing.T, r http.Handler) view.View {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	var v view.View
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return v
}

func submit(t *testing.T, r http.Handler, sessionID, text string) (*httptest.ResponseRecorder, submitResponse) {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"text": text})
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sessionID+"/messages", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	var out submitResponse
	if resp.Code < 300 {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode submit response: %v", err)
		}
	}
	return resp, out
}

func TestCreateSessionSeedsGreeting(t *testing.T) {
	r, _ := setupRouter(&gateResponder{})
	v := createSession(t, r)

	if v.SessionID == "" {
		t.Fatal("expected session id")
	}
	if len(v.Items) != 1 || v.Items[0].Role != chat.RoleAssistant || v.Items[0].Content != "Hello!" {
		t.Fatalf("unexpected initial items: %+v", v.Items)
	}
	if v.Searching {
		t.Fatal("new session must be idle")
	}
}

func TestSubmitAcceptedThenResolved(t *testing.T) {
	responder := &gateResponder{release: make(chan struct{})}
	r, chatSvc := setupRouter(responder)
	v := createSession(t, r)

	resp, out := submit(t, r, v.SessionID, "hello")
	if resp.Code != http.StatusAccepted || !out.Accepted {
		t.Fatalf("expected accepted submit, got %d %+v", resp.Code, out)
	}
	if !out.View.Searching || out.View.Indicator == "" {
		t.Fatal("expected searching indicator while busy")
	}
	if len(out.View.Items) != 2 || out.View.Items[1].Content != "hello" {
		t.Fatalf("unexpected items: %+v", out.View.Items)
	}

	resp, out = submit(t, r, v.SessionID, "second")
	if resp.Code != http.StatusOK || out.Accepted {
		t.Fatalf("expected ignored submit while busy, got %d %+v", resp.Code, out)
	}
	if out.View.Input != "second" {
		t.Fatalf("ignored submit must keep the input buffer, got %q", out.View.Input)
	}

	close(responder.release)
	chatSvc.Wait()

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+v.SessionID, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var final view.View
	if err := json.NewDecoder(rec.Body).Decode(&final); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if final.Searching || len(final.Items) != 3 || final.Items[2].Content != "echo: hello" {
		t.Fatalf("unexpected final view: %+v", final)
	}
	if final.Version <= out.View.Version {
		t.Fatalf("resolved view must be newer than the busy one: %d <= %d", final.Version, out.View.Version)
	}
}

func TestSubmitBlankIsIgnored(t *testing.T) {
	r, _ := setupRouter(&gateResponder{})
	v := createSession(t, r)

	resp, out := submit(t, r, v.SessionID, "   ")
	if resp.Code != http.StatusOK || out.Accepted {
		t.Fatalf("expected ignored submit, got %d %+v", resp.Code, out)
	}
	if len(out.View.Items) != 1 || out.View.Searching {
		t.Fatalf("blank submit must not change the transcript: %+v", out.View)
	}
}

func TestSubmitInvalidBody(t *testing.T) {
	r, _ := setupRouter(&gateResponder{})
	v := createSession(t, r)

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+v.SessionID+"/messages", bytes.NewReader([]byte("{")))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestUnknownSession(t *testing.T) {
	r, _ := setupRouter(&gateResponder{})

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		req := httptest.NewRequest(method, "/sessions/missing", nil)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		if resp.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", method, resp.Code)
		}
	}

	resp, _ := submit(t, r, "missing", "hello")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestCloseSession(t *testing.T) {
	r, chatSvc := setupRouter(&gateResponder{})
	v := createSession(t, r)

	req := httptest.NewRequest(http.MethodDelete, "/sessions/"+v.SessionID, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if chatSvc.Len() != 0 {
		t.Fatalf("expected session to be removed")
	}
}

func TestInterleavedSubmitsKeepEachText(t *testing.T) {
	responder := &gateResponder{release: make(chan struct{})}
	r, chatSvc := setupRouter(responder)
	v := createSession(t, r)

	session, err := chatSvc.GetSession(context.Background(), v.SessionID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}

	// the second request lands while the first is still between state changes
	var second submitResponse
	var fired atomic.Bool
	cancel := session.Subscribe(func(chat.Snapshot) {
		if fired.CompareAndSwap(false, true) {
			_, second = submit(t, r, v.SessionID, "from B")
		}
	})
	defer cancel()

	resp, first := submit(t, r, v.SessionID, "from A")
	if resp.Code != http.StatusAccepted || !first.Accepted {
		t.Fatalf("expected first submit accepted, got %d %+v", resp.Code, first)
	}
	if second.Accepted {
		t.Fatal("expected second submit to be ignored while busy")
	}

	close(responder.release)
	chatSvc.Wait()

	var users []string
	for _, msg := range session.Transcript() {
		if msg.Role == chat.RoleUser {
			users = append(users, msg.Content)
		}
	}
	if len(users) != 1 || users[0] != "from A" {
		t.Fatalf("accepted text must be stored as sent, got %q", users)
	}
	if got := session.Input(); got != "from B" {
		t.Fatalf("ignored text must stay in the buffer, got %q", got)
	}
}
