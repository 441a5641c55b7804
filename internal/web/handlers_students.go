package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/unitrack/internal/core"
	"github.com/JonMunkholm/unitrack/internal/store"
)

// roster returns the course's roster, loading it on first use.
func (s *Server) roster(r *http.Request) (*store.RosterStore, error) {
	rs := s.rosters.get(chi.URLParam(r, "courseID"))
	if rs.Loaded() {
		return rs, nil
	}
	if err := rs.Hydrate(r.Context()); err != nil {
		s.logger.Warn("roster cache unreadable", "course_id", rs.CourseID(), "error", err)
	}
	if err := rs.Load(r.Context()); err != nil {
		return nil, err
	}
	return rs, nil
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	rs, err := s.roster(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	v := rs.View()
	if p := pageParam(r); p > 0 {
		v = rs.SetPage(p)
	}
	writeJSON(w, r, http.StatusOK, v)
}

type copyRequest struct {
	SourceCourseID string `json:"source_course_id"`
}

func (s *Server) handleCopyStudents(w http.ResponseWriter, r *http.Request) {
	var req copyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	rs := s.rosters.get(chi.URLParam(r, "courseID"))
	report, err := rs.Copy(r.Context(), req.SourceCourseID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

func (s *Server) handleRemoveStudent(w http.ResponseWriter, r *http.Request) {
	rs, err := s.roster(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := rs.Remove(r.Context(), chi.URLParam(r, "studentID")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bulkRemoveRequest struct {
	StudentIDs []string `json:"student_ids"`
}

func (s *Server) handleBulkRemoveStudents(w http.ResponseWriter, r *http.Request) {
	var req bulkRemoveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if len(req.StudentIDs) == 0 {
		respondError(w, r, &core.ValidationError{Field: "student_ids", Message: "at least one student is required"})
		return
	}

	rs, err := s.roster(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := rs.BulkRemove(r.Context(), req.StudentIDs); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveAllStudents(w http.ResponseWriter, r *http.Request) {
	if !confirmed(r) {
		respondError(w, r, core.ErrConfirmationRequired)
		return
	}

	rs, err := s.roster(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := rs.RemoveAll(r.Context(), true); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
