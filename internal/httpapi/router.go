package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/mkoehler/medimatch/internal/conversation"
	"github.com/mkoehler/medimatch/internal/tts"
)

type RouterConfig struct {
	PublicBaseURL string

	// JWT session tokens
	JWTSecret string
	JWTExpiry time.Duration

	// Recording settings
	RecordSeconds int // default capture duration, clamped 1-30
	SampleRate    int
	Channels      int

	// Debug API access; debug endpoints are disabled when empty
	DebugAPIKey string
}

type Router struct {
	cfg        RouterConfig
	logger     *log.Logger
	controller *conversation.Controller
	registry   *conversation.Registry
	tts        tts.Client
	mux        *http.ServeMux
}

func NewRouter(cfg RouterConfig, logger *log.Logger, controller *conversation.Controller, registry *conversation.Registry, ttsClient tts.Client) http.Handler {
	r := &Router{
		cfg:        cfg,
		logger:     logger,
		controller: controller,
		registry:   registry,
		tts:        ttsClient,
		mux:        http.NewServeMux(),
	}

	r.routes()
	return withSentryRecovery(withCORS(r.mux))
}

func (r *Router) routes() {
	// Health check
	r.mux.HandleFunc("GET /healthz", r.handleHealthz)

	// Session lifecycle (create is public, the rest carries the session token)
	r.mux.HandleFunc("POST /v1/sessions", r.handleCreateSession)
	r.mux.HandleFunc("GET /v1/sessions/state", r.withAuth(r.handleSessionState))
	r.mux.HandleFunc("POST /v1/sessions/turn", r.withAuth(r.handleTurn))
	r.mux.HandleFunc("POST /v1/sessions/reset", r.withAuth(r.handleReset))
	r.mux.HandleFunc("DELETE /v1/sessions", r.withAuth(r.handleDeleteSession))

	// Voice media stream (token carried in the start frame)
	r.mux.HandleFunc("GET /media", r.handleMediaWS)

	// Debug endpoints (key-gated, for inspecting session diagnostics)
	r.mux.HandleFunc("GET /v1/debug/sessions/{sessionID}/events", r.withDebugKey(r.handleDebugEvents))
}

func (r *Router) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withSentryRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				hub := sentry.CurrentHub().Clone()
				hub.Scope().SetRequest(req)
				hub.RecoverWithContext(req.Context(), err)
				hub.Flush(2 * time.Second)
				http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, req)
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,X-Debug-Key")
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// captureError sends an error to Sentry with request context.
func captureError(req *http.Request, err error, msg string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(req)
		scope.SetExtra("message", msg)
		sentry.CaptureException(err)
	})
}

// clampDuration bounds a requested capture duration to the allowed range.
func clampDuration(seconds, def int) int {
	if seconds == 0 {
		seconds = def
	}
	if seconds < 1 {
		return 1
	}
	if seconds > 30 {
		return 30
	}
	return seconds
}
