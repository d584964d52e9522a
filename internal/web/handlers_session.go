package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"guffcircle/internal/backend"
	"guffcircle/internal/session"
)

type sessionResponse struct {
	UID   *string `json:"uid"`
	Email *string `json:"email"`
}

func toResponse(sess session.Session) sessionResponse {
	if !sess.SignedIn() {
		return sessionResponse{}
	}
	return sessionResponse{UID: &sess.UID, Email: &sess.Email}
}

type signInRequest struct {
	IDToken string `json:"idToken"`
}

// GET {base}api/session
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	rs, err := s.openSession(w, r)
	if err != nil {
		s.logger().Error("open session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, toResponse(rs.Session()))
}

// POST {base}api/session exchanges a Firebase ID token for a signed-in session.
func (s *Server) handleSetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req signInRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil || req.IDToken == "" {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if s.Verifier == nil {
		writeError(w, http.StatusServiceUnavailable, "authentication unavailable")
		return
	}

	tok, err := s.Verifier.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		s.logger().Info("id token rejected", zap.Error(err))
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	user, err := backend.UserFromToken(tok)
	if err != nil && !errors.Is(err, backend.ErrNoEmail) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	rs, err := s.openSession(w, r)
	if err != nil {
		s.logger().Error("open session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	if err := rs.SetUser(user); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if rs.err != nil {
		s.logger().Error("persist session", zap.Error(rs.err))
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return
	}

	s.logger().Info("signed in", zap.String("uid", user.UID))
	writeJSON(w, http.StatusOK, toResponse(rs.Session()))
}

// DELETE {base}api/session signs the browser out. It always succeeds for an
// already signed-out browser.
func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	rs, err := s.openSession(w, r)
	if err != nil {
		s.logger().Error("open session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	uid := rs.Session().UID
	rs.ClearUser(r.Context())
	if rs.err != nil {
		s.logger().Error("persist session", zap.Error(rs.err))
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	if uid != "" {
		s.logger().Info("signed out", zap.String("uid", uid))
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
