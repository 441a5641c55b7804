package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/unitrack/internal/api"
	"github.com/JonMunkholm/unitrack/internal/core"
	"github.com/JonMunkholm/unitrack/internal/store"
)

func (s *Server) sessionStore(r *http.Request) (*store.SessionStore, error) {
	ss := s.sessions.get(chi.URLParam(r, "courseID"))
	if ss.Loaded() {
		return ss, nil
	}
	if err := ss.Hydrate(r.Context()); err != nil {
		s.logger.Warn("session cache unreadable", "error", err)
	}
	if err := ss.Load(r.Context()); err != nil {
		return nil, err
	}
	return ss, nil
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ss, err := s.sessionStore(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	v := ss.View()
	if p := pageParam(r); p > 0 {
		v = ss.SetPage(p)
	}
	writeJSON(w, r, http.StatusOK, v)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req api.CreateSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	ss := s.sessions.get(chi.URLParam(r, "courseID"))
	sess, err := ss.Start(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, sess)
}

// handleEndSession ends the session through whichever loaded course owns
// it, so that course's list stays current. Unknown sessions go straight to
// the backend.
func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var owner *store.SessionStore
	s.sessions.each(func(ss *store.SessionStore) {
		if owner != nil {
			return
		}
		for _, sess := range ss.Items() {
			if sess.ID == sessionID {
				owner = ss
				return
			}
		}
	})

	var (
		ended *core.Session
		err   error
	)
	if owner != nil {
		ended, err = owner.End(r.Context(), sessionID)
	} else {
		ended, err = s.backend.EndSession(r.Context(), sessionID)
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ended)
}
