package middleware

import (
	"context"
	"net/http"

	"github.com/spotmap/spot-api/internal/model"
)

const SessionCookieName = "session"

type contextKey string

const SessionContextKey contextKey = "session"

// SessionResolver turns a cookie value into the request's session, creating
// one when the value does not identify a live session.
type SessionResolver interface {
	Resolve(ctx context.Context, cookieValue string) (session model.Session, created bool, err error)
}

// GetSession returns the session attached by SessionMiddleware.
func GetSession(ctx context.Context) (model.Session, bool) {
	session, ok := ctx.Value(SessionContextKey).(model.Session)
	return session, ok
}

func WithSession(ctx context.Context, session model.Session) context.Context {
	return context.WithValue(ctx, SessionContextKey, session)
}

// SessionMiddleware guarantees that every wrapped handler runs with a live
// session. When the session store fails, the handler is not invoked.
type SessionMiddleware struct {
	sessions SessionResolver
	sameSite http.SameSite
}

func NewSessionMiddleware(sessions SessionResolver, sameSite http.SameSite) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, sameSite: sameSite}
}

func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var cookieValue string
		if cookie, err := r.Cookie(SessionCookieName); err == nil {
			cookieValue = cookie.Value
		}

		session, created, err := m.sessions.Resolve(r.Context(), cookieValue)
		if err != nil {
			writeError(w, err)
			return
		}

		if created {
			SetSessionCookie(w, session, m.sameSite)
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// SetSessionCookie issues the session cookie. It is always Secure and
// HttpOnly and expires together with the session record.
func SetSessionCookie(w http.ResponseWriter, session model.Session, sameSite http.SameSite) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: sameSite,
	})
}
