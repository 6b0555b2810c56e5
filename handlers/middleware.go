package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"taskmanager/models"
	"taskmanager/utils"
)

type ctxKey int

const sessionKey ctxKey = 0

func withSession(ctx context.Context, s *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func sessionFrom(ctx context.Context) *models.Session {
	s, _ := ctx.Value(sessionKey).(*models.Session)
	return s
}

func isAppPath(p string) bool {
	return p == "/app" || strings.HasPrefix(p, "/app/")
}

func isAuthPage(p string) bool {
	return p == "/auth/login" || p == "/auth/sign-up"
}

// gate resolves the session once per request and keeps unauthenticated
// callers out of /app and authenticated ones out of the login and sign-up
// pages.
func (h *Handler) gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := h.sessions.Resolve(r)
		if err != nil && !errors.Is(err, utils.ErrNoSession) && !errors.Is(err, utils.ErrInvalidToken) {
			h.log.Warn("resolving session", "error", err)
		}

		path := r.URL.Path
		switch {
		case isAppPath(path) && session == nil:
			target := "/auth/login?callbackUrl=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		case isAuthPage(path) && session != nil:
			http.Redirect(w, r, "/app", http.StatusSeeOther)
			return
		}

		if session != nil && isAppPath(path) {
			if err := h.sessions.Touch(r.Context(), session); err != nil {
				h.log.Warn("updating last activity", "error", err)
			}
		}

		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
	})
}

// requireCSRF rejects state-changing requests whose csrf token does not
// match the session.
func (h *Handler) requireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		session := sessionFrom(r.Context())
		if session == nil || h.sessions.CheckCSRF(r, session) != nil {
			h.log.Warn("csrf check failed", "path", r.URL.Path)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"ip", utils.GetIP(r),
		)
	})
}
