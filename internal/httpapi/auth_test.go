package httpapi

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func minimalRouter() *Router {
	return &Router{
		cfg:    testRouterConfig(),
		logger: log.New(io.Discard, "", 0),
	}
}

func TestTokenRoundTrip(t *testing.T) {
	r := minimalRouter()

	token, expiresAt, err := r.issueToken("session-123")
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}
	if token == "" {
		t.Fatal("token should not be empty")
	}
	if time.Until(expiresAt) < 50*time.Minute {
		t.Error("token should expire in about an hour")
	}

	id, err := r.parseToken(token)
	if err != nil {
		t.Fatalf("parseToken: %v", err)
	}
	if id != "session-123" {
		t.Errorf("session ID = %q, want %q", id, "session-123")
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	r := minimalRouter()

	token, _, err := r.issueToken("session-123")
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}

	other := minimalRouter()
	other.cfg.JWTSecret = "different-secret"
	if _, err := other.parseToken(token); err == nil {
		t.Error("token signed with another secret should not parse")
	}
}

func TestParseToken_Garbage(t *testing.T) {
	r := minimalRouter()
	if _, err := r.parseToken("not-a-token"); err == nil {
		t.Error("garbage should not parse")
	}
}

func TestWithAuthMiddleware(t *testing.T) {
	r := minimalRouter()

	var gotSessionID string
	protected := r.withAuth(func(w http.ResponseWriter, req *http.Request) {
		gotSessionID = sessionIDFrom(req)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("missing authorization header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		rec := httptest.NewRecorder()

		protected(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer invalid-token")
		rec := httptest.NewRecorder()

		protected(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		token, _, err := r.issueToken("session-456")
		if err != nil {
			t.Fatalf("issueToken: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		protected(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if gotSessionID != "session-456" {
			t.Errorf("session ID in context = %q, want %q", gotSessionID, "session-456")
		}
	})
}

func TestWithDebugKey(t *testing.T) {
	r := minimalRouter()
	handler := r.withDebugKey(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("correct key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/debug", nil)
		req.Header.Set("X-Debug-Key", "debug-key")
		rec := httptest.NewRecorder()

		handler(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/debug", nil)
		req.Header.Set("X-Debug-Key", "wrong")
		rec := httptest.NewRecorder()

		handler(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("hidden when no key configured", func(t *testing.T) {
		disabled := minimalRouter()
		disabled.cfg.DebugAPIKey = ""
		handler := disabled.withDebugKey(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/debug", nil)
		req.Header.Set("X-Debug-Key", "anything")
		rec := httptest.NewRecorder()

		handler(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}
