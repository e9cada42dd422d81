package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/npezzotti/go-musicroom/internal/database"
)

const sessionCookieKey = "musicroom_session"

type contextKey string

const sessionCtxKey contextKey = "session"

func WithSession(ctx context.Context, sess database.Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, sess)
}

func SessionFrom(ctx context.Context) (database.Session, bool) {
	sess, ok := ctx.Value(sessionCtxKey).(database.Session)

	return sess, ok
}

func newSessionCookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieKey,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// sessionMiddleware attaches the caller's server-side session to the request
// context, creating one and setting its cookie when the client has none.
// Handlers never see a request without a session.
func (s *MusicroomApp) sessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sess database.Session

		cookie, err := r.Cookie(sessionCookieKey)
		if err == nil {
			sess, err = s.db.GetSession(cookie.Value)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				errResp := NewInternalServerError(err)
				s.writeJson(w, errResp.StatusCode, errResp)
				return
			}
		}

		if sess.Id == "" {
			sess, err = s.db.CreateSession(s.newSessionId())
			if err != nil {
				s.log.Println("create session:", err)
				errResp := NewInternalServerError(err)
				s.writeJson(w, errResp.StatusCode, errResp)
				return
			}

			http.SetCookie(w, newSessionCookie(sess.Id))
		}

		ctx := WithSession(r.Context(), sess)
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")

		next(w, r.WithContext(ctx))
	}
}
