package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type ctxKey string

const (
	userIDKey ctxKey = "userID"
	tokenKey  ctxKey = "token"
)

// authMiddleware extracts the Bearer token, resolves the user and keeps the raw
// token for forwarding to the farm calendar.
func (a *App) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		raw := strings.TrimPrefix(authz, "Bearer ")
		uid, err := parseJWT(a.cfg.JWTSecret, raw)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, uid)
		ctx = context.WithValue(ctx, tokenKey, raw)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// mustUserID returns the userID from context or "" if missing.
func mustUserID(r *http.Request) string {
	uid, _ := r.Context().Value(userIDKey).(string)
	return uid
}

func bearerToken(r *http.Request) string {
	tok, _ := r.Context().Value(tokenKey).(string)
	return tok
}

// requestLogger logs one line per request at debug, or warn for server errors.
func (a *App) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		}
		if ww.Status() >= http.StatusInternalServerError {
			a.log.Warn("request", fields...)
			return
		}
		a.log.Debug("request", fields...)
	})
}
