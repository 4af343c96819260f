package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/mkoehler/medimatch/internal/audio"
	"github.com/mkoehler/medimatch/internal/conversation"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

var (
	errInvalidToken  = errors.New("invalid session token")
	errCaptureFailed = errors.New("audio capture failed")
	errEmptyCapture  = errors.New("no audio captured")
)

// mediaMessage is the JSON frame format on the voice stream. Clients
// open a recording window with "start" (carrying the session token),
// push base64 PCM16 frames with "media", and close the window with
// "stop", which runs the conversation turn on the captured audio.
type mediaMessage struct {
	Event      string `json:"event"`
	Token      string `json:"token,omitempty"`
	Payload    string `json:"payload,omitempty"` // base64 PCM16
	SampleRate int    `json:"sample_rate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
	Speak      bool   `json:"speak,omitempty"`
}

type mediaReply struct {
	Event     string                 `json:"event"`
	Message   string                 `json:"message,omitempty"`
	Payload   string                 `json:"payload,omitempty"` // base64 reply audio
	ReplyText string                 `json:"reply_text,omitempty"`
	ErrorKind string                 `json:"error_kind,omitempty"`
	Session   *conversation.Snapshot `json:"session,omitempty"`
}

// mediaSession manages one websocket voice connection. A connection
// serves a single conversation session but may carry many recording
// windows over its lifetime.
type mediaSession struct {
	router *Router
	logger *log.Logger

	conn   *websocket.Conn
	connMu sync.Mutex

	sessionID  string
	sampleRate int
	channels   int
	speak      bool

	capture *audio.Capture
}

func (r *Router) handleMediaWS(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Printf("media_ws: upgrade failed: %v", err)
		return
	}

	ms := &mediaSession{
		router: r,
		logger: r.logger,
		conn:   conn,
	}
	ms.run(req)
}

func (ms *mediaSession) run(req *http.Request) {
	defer ms.cleanup()

	for {
		_, raw, err := ms.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ms.logger.Printf("media_ws: connection closed for session %s", ms.sessionID)
			} else {
				ms.logger.Printf("media_ws: read error for session %s: %v", ms.sessionID, err)
			}
			return
		}

		var msg mediaMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			ms.logger.Printf("media_ws: failed to parse message: %v", err)
			continue
		}

		switch msg.Event {
		case "start":
			if err := ms.handleStart(msg); err != nil {
				ms.sendError(err.Error())
				return
			}

		case "media":
			if err := ms.handleMedia(msg); err != nil {
				ms.logger.Printf("media_ws: media error: %v", err)
				ms.sendError("recording failed")
				ms.dropCapture()
			}

		case "stop":
			ms.handleStop(req)

		default:
			ms.logger.Printf("media_ws: unknown event %q", msg.Event)
		}
	}
}

func (ms *mediaSession) handleStart(msg mediaMessage) error {
	if ms.sessionID == "" {
		id, err := ms.router.parseToken(msg.Token)
		if err != nil {
			return errInvalidToken
		}
		ms.sessionID = id
		ms.logger.Printf("media_ws: stream started for session %s", id)
	}

	ms.sampleRate = msg.SampleRate
	if ms.sampleRate == 0 {
		ms.sampleRate = ms.router.cfg.SampleRate
	}
	ms.channels = msg.Channels
	if ms.channels == 0 {
		ms.channels = ms.router.cfg.Channels
	}
	ms.speak = msg.Speak

	ms.dropCapture()
	capture, err := audio.NewCapture()
	if err != nil {
		ms.logger.Printf("media_ws: capture spool failed: %v", err)
		return errCaptureFailed
	}
	ms.capture = capture
	return nil
}

func (ms *mediaSession) handleMedia(msg mediaMessage) error {
	if ms.capture == nil {
		return nil // frame outside a recording window, drop it
	}

	frame, err := base64.StdEncoding.DecodeString(msg.Payload)
	if err != nil {
		return err
	}
	return ms.capture.Write(frame)
}

func (ms *mediaSession) handleStop(req *http.Request) {
	if ms.sessionID == "" {
		ms.sendError("no active stream")
		return
	}

	var (
		wav        []byte
		captureErr error
	)
	if ms.capture == nil {
		captureErr = errCaptureFailed
	} else {
		wav, captureErr = ms.capture.WAV(ms.sampleRate, ms.channels)
		if captureErr == nil && ms.capture.Size() == 0 {
			captureErr = errEmptyCapture
		}
		ms.dropCapture()
	}

	var (
		snap conversation.Snapshot
		terr *conversation.TurnError
	)
	doErr := ms.router.registry.Do(ms.sessionID, func(s *conversation.Session) {
		if captureErr != nil {
			terr = ms.router.controller.HandleCaptureFailure(s, captureErr)
		} else {
			terr = ms.router.controller.HandleTurn(req.Context(), s, wav)
		}
		snap = s.Snapshot()
	})
	if doErr != nil {
		ms.logger.Printf("media_ws: turn failed for session %s: %v", ms.sessionID, doErr)
		ms.sendError("session unavailable")
		return
	}

	reply := mediaReply{
		Event:     "state",
		Session:   &snap,
		ReplyText: lastAssistantText(snap),
	}
	if terr != nil {
		reply.ErrorKind = string(terr.Kind)
		captureError(req, terr, "media stream turn failed")
		ms.logger.Printf("media_ws: session %s turn error: %v", ms.sessionID, terr)
	}
	if ms.speak && reply.ReplyText != "" {
		reply.Payload = ms.router.synthesizeReply(req, reply.ReplyText)
	}
	ms.send(reply)
}

func (ms *mediaSession) send(reply mediaReply) {
	ms.connMu.Lock()
	defer ms.connMu.Unlock()
	if err := ms.conn.WriteJSON(reply); err != nil {
		ms.logger.Printf("media_ws: write failed for session %s: %v", ms.sessionID, err)
	}
}

func (ms *mediaSession) sendError(message string) {
	ms.send(mediaReply{Event: "error", Message: message})
}

func (ms *mediaSession) dropCapture() {
	if ms.capture != nil {
		_ = ms.capture.Close()
		ms.capture = nil
	}
}

func (ms *mediaSession) cleanup() {
	ms.dropCapture()
	ms.connMu.Lock()
	_ = ms.conn.Close()
	ms.connMu.Unlock()
	ms.logger.Printf("media_ws: session cleaned up for %s", ms.sessionID)
}
