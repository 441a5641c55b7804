package web

// handlers_imports.go is the two-step roster import:
//
//  1. POST /courses/{courseID}/imports parses the uploaded file and parks
//     the outcome under a fresh import id. Nothing is sent to the backend.
//  2. POST /imports/{importID}/confirm submits the valid records with the
//     lecturer's group and level, or DELETE /imports/{importID} drops them.

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/unitrack/internal/core"
	"github.com/JonMunkholm/unitrack/internal/store"
)

// multipartOverhead is allowed on top of the file cap for form framing.
const multipartOverhead = 64 << 10

func (s *Server) handleUploadImport(w http.ResponseWriter, r *http.Request) {
	if err := s.limiter.Acquire(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}
	defer s.limiter.Release()

	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			err = core.NewValidationError(core.ErrFileTooLarge, "file too large (maximum %d bytes)", maxSize)
		} else {
			err = &core.ValidationError{Field: "file", Message: "invalid upload form"}
		}
		respondError(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, &core.ValidationError{Field: "file", Message: "no file provided"})
		return
	}
	defer file.Close()

	rs := s.rosters.get(chi.URLParam(r, "courseID"))
	outcome, err := s.parseUpload(rs, file, header)
	if err != nil {
		s.metrics.importOutcome(importRejected)
		respondError(w, r, err)
		return
	}

	s.metrics.importOutcome(importPreviewed)
	s.metrics.importParsed(len(outcome.ValidRecords), len(outcome.RejectedRows))

	pi := s.pending.add(rs.CourseID(), header.Filename, outcome)
	s.logger.Info("import previewed",
		"import_id", pi.ID,
		"course_id", pi.CourseID,
		"filename", pi.Filename,
		"valid", len(outcome.ValidRecords),
		"rejected", len(outcome.RejectedRows),
	)
	writeJSON(w, r, http.StatusCreated, pi)
}

// parseUpload picks the reader by extension: .xlsx goes through the
// workbook reader, .csv and .txt through the text reader.
func (s *Server) parseUpload(rs *store.RosterStore, file multipart.File, header *multipart.FileHeader) (*core.ImportOutcome, error) {
	maxSize := s.cfg.Import.MaxFileSize
	if header.Size > maxSize {
		return nil, core.NewValidationError(core.ErrFileTooLarge, "file too large: %d bytes (maximum %d)", header.Size, maxSize)
	}

	switch ext := strings.ToLower(filepath.Ext(header.Filename)); ext {
	case ".xlsx":
		rows, err := core.ReadWorkbookRows(file)
		if err != nil {
			return nil, err
		}
		return rs.PreviewWorkbook(rows)
	case ".csv", ".txt", ".tsv", "":
		text, err := core.ReadImportText(file, maxSize)
		if err != nil {
			return nil, err
		}
		return rs.PreviewImport(text)
	default:
		return nil, &core.ValidationError{Field: "file", Value: ext, Message: "unsupported file type, use .csv, .txt or .xlsx"}
	}
}

func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	pi, err := s.pending.get(chi.URLParam(r, "importID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, pi)
}

func (s *Server) handleConfirmImport(w http.ResponseWriter, r *http.Request) {
	var ec core.EnrollmentContext
	if err := decodeJSON(w, r, &ec); err != nil {
		respondError(w, r, err)
		return
	}

	pi, err := s.pending.take(chi.URLParam(r, "importID"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	rs := s.rosters.get(pi.CourseID)
	report, err := rs.ConfirmImport(r.Context(), pi.Outcome.ValidRecords, ec)
	if err != nil {
		// Retryable failures keep the preview so the lecturer can confirm again.
		if core.IsRetryable(err) || errors.Is(err, core.ErrActionInFlight) {
			s.pending.restore(pi)
		}
		s.metrics.importOutcome(importFailed)
		respondError(w, r, err)
		return
	}

	s.metrics.importOutcome(importConfirmed)
	s.logger.Info("import confirmed",
		"import_id", pi.ID,
		"course_id", pi.CourseID,
		"successful", len(report.Successful),
		"skipped", len(report.Skipped),
		"failed", len(report.Failed),
	)
	writeJSON(w, r, http.StatusOK, report)
}

func (s *Server) handleDiscardImport(w http.ResponseWriter, r *http.Request) {
	if !s.pending.remove(chi.URLParam(r, "importID")) {
		respondError(w, r, errImportNotFound)
		return
	}
	s.metrics.importOutcome(importDiscarded)
	w.WriteHeader(http.StatusNoContent)
}
