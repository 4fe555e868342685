package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/middleware/trace"
)

// HeaderUserID carries the user id resolved by the authenticating proxy.
const HeaderUserID = "X-User-ID"

type contextKey string

const userIDKey contextKey = "user_id"

// userIDFrom returns the user resolved by requireUser.
func userIDFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}

// requireUser rejects requests without a positive X-User-ID header.
func requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(HeaderUserID))
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			UnauthorizedError("missing or invalid " + HeaderUserID).Write(w)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, id)
		next(w, r.WithContext(ctx))
	}
}

// rateLimitKey buckets authenticated callers by user and everyone else by IP.
func rateLimitKey(r *http.Request) string {
	if raw := strings.TrimSpace(r.Header.Get(HeaderUserID)); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			return "user:" + raw
		}
	}
	return "ip:" + trace.ClientIP(r)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
