package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/unitrack/internal/api"
	"github.com/JonMunkholm/unitrack/internal/core"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// pageParam returns ?page as an int, or 0 when absent or invalid.
func pageParam(r *http.Request) int {
	p, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || p < 1 {
		return 0
	}
	return p
}

// confirmed reports whether ?confirm is a true boolean.
func confirmed(r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return ok
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return &core.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":          "ok",
		"imports":         s.limiter.Status(),
		"pending_imports": s.pending.len(),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := s.auth.SignIn(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.auth.ForgetCourses(r.Context(), s.forgetAccount(r.Context())...); err != nil {
		s.logger.Warn("clearing previous account cache failed", "error", err)
	}
	if err := s.courses.Refresh(r.Context()); err != nil {
		s.logger.Warn("course refresh after sign-in failed", "error", err)
	}
	writeJSON(w, r, http.StatusOK, user)
}

// forgetAccount drops every in-memory list and pending import of the
// signed-in account and returns the course ids they covered.
func (s *Server) forgetAccount(ctx context.Context) []string {
	ids, err := s.courses.Reset(ctx)
	if err != nil {
		s.logger.Warn("course cache not cleared", "error", err)
	}
	ids = append(ids, s.rosters.clear()...)
	ids = append(ids, s.sessions.clear()...)
	s.pending.clear()
	return ids
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.SignOut(r.Context(), s.forgetAccount(r.Context())...); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.User(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

func (s *Server) handleFAQs(w http.ResponseWriter, r *http.Request) {
	faqs, err := s.support.FAQs(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if faqs == nil {
		faqs = []core.FAQ{}
	}
	writeJSON(w, r, http.StatusOK, faqs)
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var req api.ContactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.support.Contact(r.Context(), req); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
