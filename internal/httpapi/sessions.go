package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mkoehler/medimatch/internal/conversation"
)

type sessionResponse struct {
	Token     string                `json:"token,omitempty"`
	ExpiresAt *time.Time            `json:"expires_at,omitempty"`
	Session   conversation.Snapshot `json:"session"`
}

type turnRequest struct {
	// Audio is a base64-encoded WAV recording of the user's turn.
	Audio     string `json:"audio"`
	DurationS int    `json:"duration_s"`
	// Speak requests a synthesized audio reply alongside the text.
	Speak bool `json:"speak"`
}

type turnResponse struct {
	Session    conversation.Snapshot `json:"session"`
	ReplyText  string                `json:"reply_text,omitempty"`
	ReplyAudio string                `json:"reply_audio,omitempty"`
	ErrorKind  string                `json:"error_kind,omitempty"`
}

func (r *Router) handleCreateSession(w http.ResponseWriter, req *http.Request) {
	s, err := r.registry.Create()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "shutting down"})
		return
	}

	r.controller.Greet(s)
	snap := s.Snapshot()

	token, expiresAt, err := r.issueToken(s.ID)
	if err != nil {
		r.registry.Remove(s.ID)
		captureError(req, err, "issuing session token")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not create session"})
		return
	}

	r.logger.Printf("session %s created", s.ID)
	writeJSON(w, http.StatusCreated, sessionResponse{
		Token:     token,
		ExpiresAt: &expiresAt,
		Session:   snap,
	})
}

func (r *Router) handleSessionState(w http.ResponseWriter, req *http.Request) {
	var snap conversation.Snapshot
	err := r.registry.Do(sessionIDFrom(req), func(s *conversation.Session) {
		snap = s.Snapshot()
	})
	if !r.checkDoErr(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: snap})
}

func (r *Router) handleTurn(w http.ResponseWriter, req *http.Request) {
	var body turnRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	audio, err := base64.StdEncoding.DecodeString(body.Audio)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "audio must be base64-encoded"})
		return
	}

	duration := clampDuration(body.DurationS, r.cfg.RecordSeconds)
	maxBytes := duration*r.cfg.SampleRate*r.cfg.Channels*2 + 1024

	var captureErr error
	if len(audio) == 0 {
		captureErr = errors.New("empty audio payload")
	} else if len(audio) > maxBytes {
		captureErr = fmt.Errorf("audio payload %d bytes exceeds %ds capture window", len(audio), duration)
	}

	var (
		snap conversation.Snapshot
		terr *conversation.TurnError
	)
	doErr := r.registry.Do(sessionIDFrom(req), func(s *conversation.Session) {
		if captureErr != nil {
			terr = r.controller.HandleCaptureFailure(s, captureErr)
		} else {
			terr = r.controller.HandleTurn(req.Context(), s, audio)
		}
		snap = s.Snapshot()
	})
	if !r.checkDoErr(w, doErr) {
		return
	}

	resp := turnResponse{Session: snap, ReplyText: lastAssistantText(snap)}
	if terr != nil {
		resp.ErrorKind = string(terr.Kind)
		captureError(req, terr, "conversation turn failed")
		r.logger.Printf("session %s turn error: %v", snap.ID, terr)
	}

	if body.Speak && resp.ReplyText != "" {
		resp.ReplyAudio = r.synthesizeReply(req, resp.ReplyText)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (r *Router) handleReset(w http.ResponseWriter, req *http.Request) {
	var snap conversation.Snapshot
	err := r.registry.Do(sessionIDFrom(req), func(s *conversation.Session) {
		s.Reset()
		r.controller.Greet(s)
		snap = s.Snapshot()
	})
	if !r.checkDoErr(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: snap})
}

func (r *Router) handleDeleteSession(w http.ResponseWriter, req *http.Request) {
	id := sessionIDFrom(req)
	r.registry.Remove(id)
	r.logger.Printf("session %s removed", id)
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleDebugEvents(w http.ResponseWriter, req *http.Request) {
	s, ok := r.registry.Get(req.PathValue("sessionID"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown session"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": s.Diag.Events()})
}

// synthesizeReply converts reply text to speech, returning base64 audio
// or empty when synthesis is unavailable. Synthesis failures never fail
// the turn; the text reply stands on its own.
func (r *Router) synthesizeReply(req *http.Request, text string) string {
	if r.tts == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(req.Context(), 10*time.Second)
	defer cancel()

	audio, err := r.tts.Synthesize(ctx, text)
	if err != nil {
		captureError(req, err, "synthesizing reply audio")
		r.logger.Printf("reply synthesis failed: %v", err)
		return ""
	}
	return base64.StdEncoding.EncodeToString(audio)
}

func (r *Router) checkDoErr(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, conversation.ErrDraining):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "shutting down"})
	case errors.Is(err, conversation.ErrUnknownSession):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown session"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
	return false
}

func lastAssistantText(snap conversation.Snapshot) string {
	for i := len(snap.Messages) - 1; i >= 0; i-- {
		if snap.Messages[i].Role == conversation.RoleAssistant {
			return snap.Messages[i].Text
		}
	}
	return ""
}
