package web

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"guffcircle/internal/backend"
	"guffcircle/internal/config"
	"guffcircle/internal/route"
	"guffcircle/internal/session"
	"guffcircle/internal/views"
)

type Server struct {
	Table    *route.Table[*views.View]
	Store    session.Store[session.Session]
	Verifier backend.TokenVerifier
	Firebase config.Credentials
	Log      *zap.Logger
}

const cookieName = "guff_sid"

func (s *Server) Routes() http.Handler {
	base := s.Table.Base()
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+base+"healthz", s.handleHealth)
	mux.HandleFunc("GET "+base+"firebase-config.json", s.handleFirebaseConfig)

	mux.HandleFunc("GET "+base+"api/session", s.handleGetSession)
	mux.HandleFunc("POST "+base+"api/session", s.handleSetSession)
	mux.HandleFunc("DELETE "+base+"api/session", s.handleClearSession)

	mux.HandleFunc("GET "+base, s.handlePage)
	return s.logRequests(mux)
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET {base}firebase-config.json serves the public web SDK record.
func (s *Server) handleFirebaseConfig(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSON(w, http.StatusOK, s.Firebase)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	m, err := s.Table.Resolve(r.URL.EscapedPath())
	if errors.Is(err, route.ErrNoRoute) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger().Error("resolve route", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if m.RedirectedFrom != "" {
		http.Redirect(w, r, s.href(m.Path), http.StatusFound)
		return
	}

	view, err := m.Route.Component.Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger().Error("load view", zap.String("route", m.Route.Name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	rs, err := s.openSession(w, r)
	if err != nil {
		s.logger().Error("open session", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	err = view.Render(&buf, views.Page{
		Route:   m.Route.Name,
		Base:    s.Table.Base(),
		Params:  m.Params,
		Props:   m.Props,
		Session: rs.Session(),
	})
	if err != nil {
		s.logger().Error("render view", zap.String("route", m.Route.Name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) href(path string) string {
	return s.Table.Base() + strings.TrimPrefix(path, "/")
}
