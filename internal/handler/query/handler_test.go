package query

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/parentpass/adminchat/backend/internal/model/chat"
	chatservice "github.com/parentpass/adminchat/backend/internal/service/chat"
	sessionservice "github.com/parentpass/adminchat/backend/internal/service/session"
)

type fakeEngine struct {
	err  error
	last string
}

func (f *fakeEngine) ProcessMessage(_ context.Context, _ string, text string) (chat.Turn, error) {
	f.last = text
	if f.err != nil {
		return chat.Turn{}, f.err
	}
	return chat.NewTurn(chat.RoleAssistant, "re: "+text), nil
}

func setupRouter(engine *fakeEngine) *chi.Mux {
	r := chi.NewRouter()
	New(engine).RegisterRoutes(r)
	return r
}

func postQuery(r http.Handler, sessionID, message string) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(map[string]string{"message": message})
	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set("X-Session-ID", sessionID)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestQuerySuccess(t *testing.T) {
	engine := &fakeEngine{}
	resp := postQuery(setupRouter(engine), "sid-1", "How many events this week?")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Response != "re: How many events this week?" {
		t.Fatalf("unexpected response: %q", body.Response)
	}
	if body.SessionID != "sid-1" {
		t.Fatalf("unexpected session_id: %q", body.SessionID)
	}
	if engine.last != "How many events this week?" {
		t.Fatalf("engine received %q", engine.last)
	}
}

func TestQueryMissingSessionHeader(t *testing.T) {
	resp := postQuery(setupRouter(&fakeEngine{}), "", "hello")

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestQueryEmptyMessage(t *testing.T) {
	resp := postQuery(setupRouter(&fakeEngine{}), "sid-1", "   ")

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestQueryInvalidBody(t *testing.T) {
	r := setupRouter(&fakeEngine{})

	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewReader([]byte("not json")))
	req.Header.Set("X-Session-ID", "sid-1")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestQuerySessionNotFound(t *testing.T) {
	resp := postQuery(setupRouter(&fakeEngine{err: sessionservice.ErrNotFound}), "sid-1", "hello")

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestQueryTransientFailure(t *testing.T) {
	resp := postQuery(setupRouter(&fakeEngine{err: chatservice.ErrTransient}), "sid-1", "hello")

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}
