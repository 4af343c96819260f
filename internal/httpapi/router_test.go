package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mkoehler/medimatch/internal/conversation"
	"github.com/mkoehler/medimatch/internal/directory"
	"github.com/mkoehler/medimatch/internal/llm"
)

type fakeSTT struct {
	text string
	err  error
}

func (f *fakeSTT) Transcribe(_ context.Context, _ []byte) (string, error) {
	return f.text, f.err
}

type fakeExtractor struct {
	intent *llm.Intent
	err    error
}

func (f *fakeExtractor) Extract(_ context.Context, _ string) (*llm.Intent, error) {
	if f.err != nil {
		return nil, f.err
	}
	intent := *f.intent
	return &intent, nil
}

type fakeDirectory struct {
	providers []directory.Provider
}

func (f *fakeDirectory) ResolveSpecialty(_ context.Context, _ string) (*directory.Specialty, error) {
	return &directory.Specialty{ID: 1302, Slug: "zahnarzt", Name: "Zahnarzt"}, nil
}

func (f *fakeDirectory) ResolveLocation(_ context.Context, _ string) (*directory.PlaceSuggestion, error) {
	return &directory.PlaceSuggestion{PlaceID: "abc", Description: "Berlin, Germany"}, nil
}

func (f *fakeDirectory) Search(_ context.Context, _ directory.SearchQuery) ([]directory.Provider, error) {
	return f.providers, nil
}

func (f *fakeDirectory) BaseURL() string { return "https://www.doctolib.de" }

type fakeTTS struct {
	audio []byte
	err   error
}

func (f *fakeTTS) Synthesize(_ context.Context, _ string) ([]byte, error) {
	return f.audio, f.err
}

func testRouterConfig() RouterConfig {
	return RouterConfig{
		JWTSecret:     "test-secret-key",
		JWTExpiry:     1 * time.Hour,
		RecordSeconds: 5,
		SampleRate:    44100,
		Channels:      1,
		DebugAPIKey:   "debug-key",
	}
}

// newTestRouter builds a full handler over fake gateways, returning the
// registry for white-box assertions.
func newTestRouter(t *testing.T, cfg RouterConfig) (http.Handler, *conversation.Registry) {
	t.Helper()

	logger := log.New(io.Discard, "", 0)
	registry := conversation.NewRegistry(0)
	controller := conversation.NewController(
		&fakeSTT{text: "I have a toothache, I'm in Berlin"},
		&fakeExtractor{intent: &llm.Intent{Specialty: "dentist", Location: "Berlin"}},
		&fakeDirectory{providers: []directory.Provider{
			{ID: "1", Name: "Dr. A", Link: "/z/a"},
			{ID: "2", Name: "Dr. B", Link: "/z/b"},
		}},
		logger,
		conversation.ControllerConfig{},
	)

	h := NewRouter(cfg, logger, controller, registry, &fakeTTS{audio: []byte("mp3-bytes")})
	return h, registry
}

// createSession drives POST /v1/sessions and returns the token and
// session ID.
func createSession(t *testing.T, h http.Handler) (string, string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("create session status = %d, want %d, body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("create response should carry a token")
	}
	return resp.Token, resp.Session.ID
}

func doTurn(t *testing.T, h http.Handler, token, body string) (*httptest.ResponseRecorder, turnResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/turn", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp turnResponse
	if rec.Code == http.StatusOK {
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode turn response: %v", err)
		}
	}
	return rec, resp
}

func wavBody(t *testing.T, speak bool) string {
	t.Helper()
	audio := base64.StdEncoding.EncodeToString([]byte("RIFF-fake-wav"))
	b, err := json.Marshal(turnRequest{Audio: audio, DurationS: 5, Speak: speak})
	if err != nil {
		t.Fatalf("marshal turn request: %v", err)
	}
	return string(b)
}

func TestHealthz(t *testing.T) {
	h, _ := newTestRouter(t, testRouterConfig())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "ok")
	}
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestRouter(t, testRouterConfig())

	req := httptest.NewRequest(http.MethodOptions, "/v1/sessions", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "*")
	}
}

func TestClampDuration(t *testing.T) {
	tests := []struct {
		seconds, def, want int
	}{
		{0, 5, 5},
		{3, 5, 3},
		{-1, 5, 1},
		{31, 5, 30},
		{30, 5, 30},
		{1, 5, 1},
	}
	for _, tt := range tests {
		if got := clampDuration(tt.seconds, tt.def); got != tt.want {
			t.Errorf("clampDuration(%d, %d) = %d, want %d", tt.seconds, tt.def, got, tt.want)
		}
	}
}
