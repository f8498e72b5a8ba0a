package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	sessionservice "github.com/parentpass/adminchat/backend/internal/service/session"
)

func setupRouter() (*chi.Mux, *sessionservice.Store) {
	store := sessionservice.NewStore(sessionservice.DefaultTTL)
	handler := New(store)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, store
}

func TestCreateSession(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	var body sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.SessionID == "" {
		t.Fatal("expected non-empty session_id")
	}
	if len(body.State.Messages) != 0 {
		t.Fatalf("new session state should carry no messages, got %d", len(body.State.Messages))
	}
	if body.State.Welcome == "" {
		t.Fatal("expected welcome line in creation response")
	}
}

func TestGetSession(t *testing.T) {
	r, store := setupRouter()
	created, _ := store.Create(context.Background())

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+created.ID, nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.SessionID != created.ID {
		t.Fatalf("unexpected session_id: %s", body.SessionID)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/sessions/missing", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestDeleteSessionIsIdempotentAtHTTPLayer(t *testing.T) {
	r, store := setupRouter()
	created, _ := store.Create(context.Background())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodDelete, "/sessions/"+created.ID, nil)
		resp := httptest.NewRecorder()

		r.ServeHTTP(resp, req)

		if resp.Code != http.StatusOK {
			t.Fatalf("delete attempt %d: expected 200, got %d", i+1, resp.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+created.ID, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.Code)
	}
}
