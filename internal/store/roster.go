package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/JonMunkholm/unitrack/internal/core"
	"github.com/JonMunkholm/unitrack/internal/kv"
	"github.com/JonMunkholm/unitrack/internal/paging"
)

// RosterAPI is the backend surface RosterStore needs.
type RosterAPI interface {
	ListStudents(ctx context.Context, courseID string) ([]core.Student, error)
	BulkAddStudents(ctx context.Context, courseID string, rows []core.EnrollmentRow) (*core.SubmitReport, error)
	CopyStudents(ctx context.Context, courseID, sourceCourseID string) (*core.CopyReport, error)
	RemoveStudent(ctx context.Context, courseID, studentID string) error
	BulkRemoveStudents(ctx context.Context, courseID string, studentIDs []string) error
	RemoveAllStudents(ctx context.Context, courseID string) error
}

func studentTotals(s core.Student) (int, int) { return s.AttendedSessions, s.MissedSessions }

func studentKey(s core.Student) string { return s.ID }

// RosterStore is the enrollee list of one course. Aggregates are attended
// and missed sessions.
type RosterStore struct {
	courseID string
	api      RosterAPI
	kv       kv.Store
	importer *core.Importer
	guard    *Guard
	logger   *slog.Logger

	mu       sync.Mutex
	gen      uint64
	students *paging.Collection[core.Student]
}

// NewRosterStore creates the roster container for courseID.
func NewRosterStore(courseID string, client RosterAPI, store kv.Store, importer *core.Importer, opts Options) *RosterStore {
	if importer == nil {
		importer = core.NewImporter(core.WithLogger(opts.logger()))
	}
	return &RosterStore{
		courseID: courseID,
		api:      client,
		kv:       store,
		importer: importer,
		guard:    NewGuard(),
		logger:   opts.logger().With("course_id", courseID),
		students: paging.New(opts.PageSize, studentTotals),
	}
}

// CourseID returns the course this roster belongs to.
func (s *RosterStore) CourseID() string { return s.courseID }

// Hydrate loads the cached roster for an instant first render.
func (s *RosterStore) Hydrate(ctx context.Context) error {
	cached, ok, err := restore[[]core.Student](ctx, s.kv, kv.StudentsKey(s.courseID))
	if err != nil || !ok {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == 0 {
		s.students.Replace(cached)
	}
	return nil
}

// Load fetches the roster, keeping the current page if it still exists.
func (s *RosterStore) Load(ctx context.Context) error {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	students, err := s.api.ListStudents(ctx, s.courseID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		s.logger.Debug("dropping stale roster")
		return nil
	}
	s.gen++
	s.students.Reload(students)
	s.mu.Unlock()

	persist(ctx, s.logger, s.kv, kv.StudentsKey(s.courseID), students)
	return nil
}

// Loaded reports whether the roster has been fetched or changed since
// construction.
func (s *RosterStore) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen > 0
}

// View returns the current page.
func (s *RosterStore) View() View[core.Student] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return viewOf(s.students)
}

// SetPage moves to page p (clamped) and returns it.
func (s *RosterStore) SetPage(p int) View[core.Student] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students.SetPage(p)
	return viewOf(s.students)
}

// PreviewImport parses an import file. Nothing is sent; the outcome is shown
// to the lecturer for confirmation.
func (s *RosterStore) PreviewImport(text string) (*core.ImportOutcome, error) {
	return s.importer.Run(text)
}

// PreviewWorkbook parses spreadsheet rows the same way.
func (s *RosterStore) PreviewWorkbook(rows [][]string) (*core.ImportOutcome, error) {
	return s.importer.RunRows(rows)
}

// ConfirmImport submits previewed records and reloads the roster. The
// server's report is returned even when the reload fails.
func (s *RosterStore) ConfirmImport(ctx context.Context, records []core.StudentRecord, ec core.EnrollmentContext) (*core.SubmitReport, error) {
	var report *core.SubmitReport
	err := s.guard.Run("import", func() error {
		submit := func(ctx context.Context, rows []core.EnrollmentRow) (*core.SubmitReport, error) {
			return s.api.BulkAddStudents(ctx, s.courseID, rows)
		}
		r, err := s.importer.Submit(ctx, records, ec, submit)
		if err != nil {
			return err
		}
		report = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.Load(ctx); err != nil {
		s.logger.Warn("roster reload after import failed", "error", err)
	}
	return report, nil
}

// Copy copies every enrollee of another course into this one.
func (s *RosterStore) Copy(ctx context.Context, sourceCourseID string) (*core.CopyReport, error) {
	var report *core.CopyReport
	err := s.guard.Run("copy", func() error {
		copyFn := func(ctx context.Context, src string) (*core.CopyReport, error) {
			return s.api.CopyStudents(ctx, s.courseID, src)
		}
		r, err := s.importer.Copy(ctx, sourceCourseID, copyFn)
		if err != nil {
			return err
		}
		report = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if report.Added > 0 {
		if err := s.Load(ctx); err != nil {
			s.logger.Warn("roster reload after copy failed", "error", err)
		}
	}
	return report, nil
}

// Remove drops one enrollee, optimistically.
func (s *RosterStore) Remove(ctx context.Context, studentID string) error {
	return s.guard.Run("remove:"+studentID, func() error {
		return s.optimistic(ctx, func(st core.Student) bool { return st.ID == studentID }, func() error {
			return s.api.RemoveStudent(ctx, s.courseID, studentID)
		})
	})
}

// BulkRemove drops several enrollees, optimistically.
func (s *RosterStore) BulkRemove(ctx context.Context, studentIDs []string) error {
	ids := make(map[string]bool, len(studentIDs))
	for _, id := range studentIDs {
		ids[id] = true
	}
	return s.guard.Run("bulk-remove", func() error {
		return s.optimistic(ctx, func(st core.Student) bool { return ids[st.ID] }, func() error {
			return s.api.BulkRemoveStudents(ctx, s.courseID, studentIDs)
		})
	})
}

// RemoveAll clears the roster. confirmed must be true.
func (s *RosterStore) RemoveAll(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return core.ErrConfirmationRequired
	}
	return s.guard.Run("remove-all", func() error {
		return s.optimistic(ctx, func(core.Student) bool { return true }, func() error {
			return s.api.RemoveAllStudents(ctx, s.courseID)
		})
	})
}

// optimistic applies drop locally and runs call. If call fails, only the
// students this change dropped come back; removals that succeeded meanwhile
// stay applied.
func (s *RosterStore) optimistic(ctx context.Context, drop func(core.Student) bool, call func() error) error {
	s.mu.Lock()
	snapshot := s.students.Items()
	s.gen++
	s.students.Reload(without(snapshot, drop))
	s.mu.Unlock()

	if err := call(); err != nil {
		s.mu.Lock()
		s.gen++
		s.students.Reload(reinstate(snapshot, s.students.Items(), drop, studentKey))
		s.mu.Unlock()
		s.logger.Info("roster change rolled back", "error", err)
		return err
	}

	s.mu.Lock()
	items := s.students.Items()
	s.mu.Unlock()
	persist(ctx, s.logger, s.kv, kv.StudentsKey(s.courseID), items)
	return nil
}
