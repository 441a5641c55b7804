package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListCourses serves one page of courses. The first call fetches
// from the backend; a failed first fetch still serves a hydrated cache.
func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	if !s.courses.Loaded() {
		if err := s.courses.Refresh(r.Context()); err != nil {
			if s.courses.View().Meta.TotalCount == 0 {
				respondError(w, r, err)
				return
			}
			s.logger.Warn("serving cached courses", "error", err)
		}
	}

	v := s.courses.View()
	if p := pageParam(r); p > 0 {
		v = s.courses.SetPage(p)
	}
	writeJSON(w, r, http.StatusOK, v)
}

func (s *Server) handleRefreshCourses(w http.ResponseWriter, r *http.Request) {
	if err := s.courses.Refresh(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.courses.View())
}

func (s *Server) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	if err := s.courses.Delete(r.Context(), courseID, confirmed(r)); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
