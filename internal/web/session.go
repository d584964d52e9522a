package web

import (
	"context"
	"net/http"

	"guffcircle/internal/session"
)

// requestSession ties a session.State to the browser cookie. Every mutation
// is written through to the store; a signed-out state removes the record.
// Signing in always issues a fresh id, and cookie ids the store does not
// know are dropped.
type requestSession struct {
	*session.State
	id  string
	err error
}

func (s *Server) openSession(w http.ResponseWriter, r *http.Request) (*requestSession, error) {
	ctx := r.Context()
	rs := &requestSession{id: s.sessionID(r)}

	var persisted session.Session
	if rs.id != "" {
		v, ok, err := s.Store.Get(ctx, rs.id)
		if err != nil {
			return nil, err
		}
		if ok {
			persisted = v
		} else {
			rs.id = ""
		}
	}

	rs.State = session.NewState(
		session.WithLogger(s.logger()),
		session.WithSession(persisted),
	)
	rs.State.Subscribe(func(cur session.Session) {
		rs.err = s.persist(ctx, w, rs, cur)
	})
	return rs, nil
}

func (s *Server) persist(ctx context.Context, w http.ResponseWriter, rs *requestSession, cur session.Session) error {
	if cur.SignedIn() {
		old := rs.id
		id := s.Store.NewID()
		if err := s.Store.Put(ctx, id, cur); err != nil {
			return err
		}
		rs.id = id
		if old != "" {
			if err := s.Store.Delete(ctx, old); err != nil {
				return err
			}
		}
		setSessionCookie(w, id)
		return nil
	}
	if rs.id != "" {
		if err := s.Store.Delete(ctx, rs.id); err != nil {
			return err
		}
	}
	clearSessionCookie(w)
	return nil
}

func (s *Server) sessionID(r *http.Request) string {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
