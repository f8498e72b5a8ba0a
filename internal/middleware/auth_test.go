package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func authedHandler(apiKey string) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return Auth(apiKey)(ok)
}

func TestAuthValidKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/abc", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp := httptest.NewRecorder()

	authedHandler("secret").ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestAuthRejections(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusForbidden},
		{"wrong key", "Bearer nope", http.StatusForbidden},
		{"wrong scheme", "Basic secret", http.StatusForbidden},
		{"no scheme", "secret", http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/query", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp := httptest.NewRecorder()

			authedHandler("secret").ServeHTTP(resp, req)

			if resp.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.Code)
			}
		})
	}
}

func TestAuthUnconfiguredKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/query", nil)
	req.Header.Set("Authorization", "Bearer anything")
	resp := httptest.NewRecorder()

	authedHandler("").ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for unconfigured key, got %d", resp.Code)
	}
}

func TestAuthHealthBypass(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp := httptest.NewRecorder()

	authedHandler("secret").ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected health bypass, got %d", resp.Code)
	}
}
