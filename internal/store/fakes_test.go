package store

import (
	"context"
	"sync"

	"github.com/JonMunkholm/unitrack/internal/api"
	"github.com/JonMunkholm/unitrack/internal/core"
)

// fakeAPI implements every backend interface the containers use.
type fakeAPI struct {
	mu sync.Mutex

	courses  []core.Course
	students []core.Student
	sessions []core.Session
	faqs     []core.FAQ

	listErr   error
	deleteErr error
	removeErr error
	faqErr    error

	// listGate, when set, blocks ListCourses until closed.
	listGate chan struct{}

	// removeFn and deleteFn, when set, decide each removal by id.
	removeFn func(studentID string) error
	deleteFn func(courseID string) error

	listCalls int
	submitted []core.EnrollmentRow
	report    *core.SubmitReport
	copied    *core.CopyReport
	marks     []api.MarkRequest
	contacts  []api.ContactRequest
	token     string
}

func (f *fakeAPI) Login(_ context.Context, req api.LoginRequest) (*api.AuthResult, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &api.AuthResult{Token: f.token, User: core.User{ID: "u1", Email: req.Email}}, nil
}

func (f *fakeAPI) ListCourses(context.Context) ([]core.Course, error) {
	f.mu.Lock()
	f.listCalls++
	gate := f.listGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]core.Course(nil), f.courses...), nil
}

func (f *fakeAPI) CreateCourse(_ context.Context, in api.CourseInput) (*core.Course, error) {
	return &core.Course{ID: "new", Code: in.Code, Title: in.Title}, nil
}

func (f *fakeAPI) DeleteCourse(_ context.Context, courseID string) error {
	if f.deleteFn != nil {
		return f.deleteFn(courseID)
	}
	return f.deleteErr
}

func (f *fakeAPI) ListStudents(context.Context, string) ([]core.Student, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]core.Student(nil), f.students...), nil
}

func (f *fakeAPI) BulkAddStudents(_ context.Context, _ string, rows []core.EnrollmentRow) (*core.SubmitReport, error) {
	f.submitted = rows
	return f.report, nil
}

func (f *fakeAPI) CopyStudents(context.Context, string, string) (*core.CopyReport, error) {
	return f.copied, nil
}

func (f *fakeAPI) RemoveStudent(_ context.Context, _ string, studentID string) error {
	if f.removeFn != nil {
		return f.removeFn(studentID)
	}
	return f.removeErr
}

func (f *fakeAPI) BulkRemoveStudents(context.Context, string, []string) error { return f.removeErr }
func (f *fakeAPI) RemoveAllStudents(context.Context, string) error           { return f.removeErr }

func (f *fakeAPI) ListSessions(_ context.Context, flt api.SessionFilter) (*api.SessionList, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	// Two sessions per server page.
	start := (flt.Page - 1) * 2
	end := start + 2
	if end > len(f.sessions) {
		end = len(f.sessions)
	}
	pages := (len(f.sessions) + 1) / 2
	return &api.SessionList{Sessions: f.sessions[start:end], Page: flt.Page, TotalPages: pages}, nil
}

func (f *fakeAPI) CreateSession(_ context.Context, req api.CreateSessionRequest) (*core.Session, error) {
	return &core.Session{ID: "s-new", CourseID: req.CourseID, Status: core.SessionActive}, nil
}

func (f *fakeAPI) EndSession(_ context.Context, id string) (*core.Session, error) {
	return &core.Session{ID: id, Status: core.SessionEnded}, nil
}

func (f *fakeAPI) MarkAttendance(_ context.Context, _ string, req api.MarkRequest) error {
	f.marks = append(f.marks, req)
	return nil
}

func (f *fakeAPI) BulkMarkAttendance(_ context.Context, _ string, marks []api.MarkRequest) error {
	f.marks = append(f.marks, marks...)
	return nil
}

func (f *fakeAPI) ListFAQs(context.Context) ([]core.FAQ, error) {
	if f.faqErr != nil {
		return nil, f.faqErr
	}
	return f.faqs, nil
}

func (f *fakeAPI) SubmitContact(_ context.Context, req api.ContactRequest) error {
	f.contacts = append(f.contacts, req)
	return nil
}
