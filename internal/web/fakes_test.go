package web

import (
	"context"
	"sync"

	"github.com/JonMunkholm/unitrack/internal/api"
	"github.com/JonMunkholm/unitrack/internal/core"
)

// fakeBackend is an in-memory Backend.
type fakeBackend struct {
	mu sync.Mutex

	courses  []core.Course
	students []core.Student
	sessions []core.Session
	faqs     []core.FAQ

	listErr     error
	studentsErr error
	submitErr   error

	submitted [][]core.EnrollmentRow
	ended     []string
}

func (f *fakeBackend) Login(_ context.Context, req api.LoginRequest) (*api.AuthResult, error) {
	return &api.AuthResult{Token: "jwt", User: core.User{ID: "u1", Email: req.Email}}, nil
}

// signOutBackend makes every list call fail the way an expired token does.
func (f *fakeBackend) signOutBackend() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = &core.AuthError{Status: 401}
	f.studentsErr = &core.AuthError{Status: 401}
}

func (f *fakeBackend) ListCourses(context.Context) ([]core.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]core.Course(nil), f.courses...), nil
}

func (f *fakeBackend) CreateCourse(_ context.Context, in api.CourseInput) (*core.Course, error) {
	return &core.Course{ID: "new", Code: in.Code, Title: in.Title}, nil
}

func (f *fakeBackend) DeleteCourse(context.Context, string) error { return nil }

func (f *fakeBackend) ListStudents(context.Context, string) ([]core.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.studentsErr != nil {
		return nil, f.studentsErr
	}
	return append([]core.Student(nil), f.students...), nil
}

func (f *fakeBackend) BulkAddStudents(_ context.Context, _ string, rows []core.EnrollmentRow) (*core.SubmitReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submitted = append(f.submitted, rows)
	report := &core.SubmitReport{}
	for _, r := range rows {
		report.Successful = append(report.Successful, core.RowResult{MatricNo: r.MatricNo})
	}
	return report, nil
}

func (f *fakeBackend) CopyStudents(context.Context, string, string) (*core.CopyReport, error) {
	return &core.CopyReport{Added: 0, Skipped: 2, TotalProcessed: 2}, nil
}

func (f *fakeBackend) RemoveStudent(context.Context, string, string) error        { return nil }
func (f *fakeBackend) BulkRemoveStudents(context.Context, string, []string) error { return nil }
func (f *fakeBackend) RemoveAllStudents(context.Context, string) error            { return nil }

func (f *fakeBackend) ListSessions(context.Context, api.SessionFilter) (*api.SessionList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &api.SessionList{Sessions: append([]core.Session(nil), f.sessions...), Page: 1, TotalPages: 1}, nil
}

func (f *fakeBackend) CreateSession(_ context.Context, req api.CreateSessionRequest) (*core.Session, error) {
	return &core.Session{ID: "s-new", CourseID: req.CourseID, Status: core.SessionActive}, nil
}

func (f *fakeBackend) EndSession(_ context.Context, id string) (*core.Session, error) {
	f.mu.Lock()
	f.ended = append(f.ended, id)
	f.mu.Unlock()
	return &core.Session{ID: id}, nil
}

func (f *fakeBackend) MarkAttendance(context.Context, string, api.MarkRequest) error { return nil }

func (f *fakeBackend) BulkMarkAttendance(context.Context, string, []api.MarkRequest) error {
	return nil
}

func (f *fakeBackend) ListFAQs(context.Context) ([]core.FAQ, error) { return f.faqs, nil }

func (f *fakeBackend) SubmitContact(context.Context, api.ContactRequest) error { return nil }
