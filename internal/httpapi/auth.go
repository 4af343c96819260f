package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const sessionIDKey contextKey = "sessionID"

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// issueToken mints a signed session token carrying the session ID.
func (r *Router) issueToken(sessionID string) (string, time.Time, error) {
	expiresAt := time.Now().Add(r.cfg.JWTExpiry)
	claims := sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(r.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing session token: %w", err)
	}
	return signed, expiresAt, nil
}

// parseToken validates a session token and returns the session ID it
// carries.
func (r *Router) parseToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(r.cfg.JWTSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("parsing session token: %w", err)
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", fmt.Errorf("invalid session token")
	}
	return claims.SessionID, nil
}

// withAuth requires a valid Bearer session token and stores the session
// ID on the request context.
func (r *Router) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		header := req.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			return
		}

		sessionID, err := r.parseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid session token"})
			return
		}

		ctx := context.WithValue(req.Context(), sessionIDKey, sessionID)
		next(w, req.WithContext(ctx))
	}
}

// withDebugKey gates debug endpoints behind the X-Debug-Key header.
// With no key configured the endpoints act as if they do not exist.
func (r *Router) withDebugKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if r.cfg.DebugAPIKey == "" {
			http.NotFound(w, req)
			return
		}
		if req.Header.Get("X-Debug-Key") != r.cfg.DebugAPIKey {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next(w, req)
	}
}

func sessionIDFrom(req *http.Request) string {
	id, _ := req.Context().Value(sessionIDKey).(string)
	return id
}
