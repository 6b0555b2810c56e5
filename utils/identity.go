package utils

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"taskmanager/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

var (
	ErrNoSession    = errors.New("no session")
	ErrInvalidToken = errors.New("invalid session token")
	ErrInvalidCSRF  = errors.New("invalid csrf token")
)

const issuer = "taskmanager"

// SessionClaims is the payload of the signed session cookie.
type SessionClaims struct {
	Email     string `json:"email"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionManager issues and resolves sessions. The cookie carries a signed
// JWT naming the user's email and a session id; the session record in redis
// must still exist for the token to be accepted, so logout revokes it.
type SessionManager struct {
	client *redis.Client
	secret []byte
	ttl    time.Duration
	secure bool
}

func NewSessionManager(client *redis.Client, secret string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		client: client,
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
	}
}

// Issue creates a session for user and sets the session cookie.
func (m *SessionManager) Issue(ctx context.Context, w http.ResponseWriter, r *http.Request, user *models.User) (*models.Session, error) {
	sessionID, err := GenerateToken(32)
	if err != nil {
		return nil, err
	}
	csrfToken, err := GenerateToken(32)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := models.Session{
		SessionID:    sessionID,
		UserID:       user.ID.String(),
		Email:        user.Email,
		CreatedAt:    now.Format(time.RFC3339),
		ExpiresAt:    now.Add(m.ttl).Format(time.RFC3339),
		LastActivity: now.Format(time.RFC3339),
		CSRFToken:    csrfToken,
		UserAgent:    GetUserAgent(r),
		IPAddress:    GetIP(r),
	}

	token, err := m.sign(session, now)
	if err != nil {
		return nil, err
	}
	if err := StoreSession(ctx, m.client, session, m.ttl); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}

	setSessionCookie(w, token, m.ttl, m.secure)
	return &session, nil
}

func (m *SessionManager) sign(session models.Session, now time.Time) (string, error) {
	claims := SessionClaims{
		Email:     session.Email,
		SessionID: session.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   session.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return token, nil
}

func (m *SessionManager) parse(token string) (*SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid || claims.Email == "" || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Resolve returns the live session behind the request's cookie.
// It returns ErrNoSession when there is no cookie and ErrInvalidToken when
// the token is forged, expired or revoked.
func (m *SessionManager) Resolve(r *http.Request) (*models.Session, error) {
	if !CookieExists(r, SessionCookie) {
		return nil, ErrNoSession
	}
	c, _ := r.Cookie(SessionCookie)

	claims, err := m.parse(c.Value)
	if err != nil {
		return nil, err
	}

	session, err := ValidateSession(r.Context(), m.client, claims.SessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if session.Email != claims.Email {
		return nil, ErrInvalidToken
	}
	return session, nil
}

// Identity converts a resolved session into the caller identity. A nil
// session yields a nil identity.
func Identity(session *models.Session) *models.Identity {
	if session == nil {
		return nil
	}
	return &models.Identity{Email: session.Email}
}

// Touch records activity on the session.
func (m *SessionManager) Touch(ctx context.Context, session *models.Session) error {
	return UpdateLastActivity(ctx, m.client, session.SessionID)
}

// CheckCSRF compares the submitted csrf token (form field or X-CSRF-Token
// header) with the one stored on the session.
func (m *SessionManager) CheckCSRF(r *http.Request, session *models.Session) error {
	got := r.Header.Get("X-CSRF-Token")
	if got == "" {
		got = r.PostFormValue(CSRFField)
	}
	if got == "" || session.CSRFToken == "" ||
		subtle.ConstantTimeCompare([]byte(got), []byte(session.CSRFToken)) != 1 {
		return ErrInvalidCSRF
	}
	return nil
}

// Destroy revokes the request's session, if any, and clears the cookie.
func (m *SessionManager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	defer clearSessionCookie(w, m.secure)

	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	claims, err := m.parse(c.Value)
	if err != nil {
		return nil
	}
	return DeleteSession(ctx, m.client, claims.SessionID)
}

// DestroyAll revokes every session of the request's user and clears the
// cookie.
func (m *SessionManager) DestroyAll(ctx context.Context, w http.ResponseWriter, session *models.Session) error {
	clearSessionCookie(w, m.secure)
	return DeleteAllUserSessions(ctx, m.client, session.UserID)
}

// Active returns how many live sessions the user has.
func (m *SessionManager) Active(ctx context.Context, userID string) (int64, error) {
	return CountUserSessions(ctx, m.client, userID)
}
