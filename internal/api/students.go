package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/unitrack/internal/core"
)

// AddStudentRequest enrolls one student.
type AddStudentRequest struct {
	MatricNo string `json:"matricNo" validate:"required,notblank"`
	Name     string `json:"name" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,email"`
	Group    string `json:"group,omitempty"`
	Level    string `json:"level,omitempty"`
}

type bulkAddBody struct {
	Students []core.EnrollmentRow `json:"students" validate:"required,min=1,dive"`
}

type bulkRemoveBody struct {
	StudentIDs []string `json:"studentIds" validate:"required,min=1,dive,required"`
}

type copyBody struct {
	SourceCourseID string `json:"sourceCourseId" validate:"required,notblank"`
}

// noStudentsToCopy is the backend's 400 message for copying from an empty
// course. It is not a failure: nothing needed copying.
const noStudentsToCopy = "no students found to copy"

// ListStudents returns the enrollees of a course.
func (c *Client) ListStudents(ctx context.Context, courseID string) ([]core.Student, error) {
	if err := requireID("course_id", courseID); err != nil {
		return nil, err
	}

	resp, err := c.authed(ctx, escape("courses", courseID, "students"), CallOptions{Resource: StudentsFamily})
	if err != nil {
		return nil, err
	}

	var students []core.Student
	if err := resp.DecodeFirst(&students, "students", "studentData", "data"); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// AddStudent enrolls one student in a course.
func (c *Client) AddStudent(ctx context.Context, courseID string, req AddStudentRequest) (*core.Student, error) {
	if err := requireID("course_id", courseID); err != nil {
		return nil, err
	}
	req.MatricNo = strings.ToUpper(strings.TrimSpace(req.MatricNo))
	req.Email = normalizeEmail(req.Email)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	resp, err := c.authed(ctx, escape("courses", courseID, "students"), CallOptions{
		Method:   http.MethodPost,
		Body:     req,
		Resource: StudentsFamily,
	})
	if err != nil {
		return nil, err
	}

	var student core.Student
	if err := resp.DecodeFirst(&student, "student", "data"); err != nil {
		return nil, fmt.Errorf("add student: %w", err)
	}
	return &student, nil
}

// BulkAddStudents enrolls imported rows. The server's per-row verdicts are
// returned as-is; a partially accepted batch is not an error.
func (c *Client) BulkAddStudents(ctx context.Context, courseID string, rows []core.EnrollmentRow) (*core.SubmitReport, error) {
	if err := requireID("course_id", courseID); err != nil {
		return nil, err
	}
	body := bulkAddBody{Students: rows}
	if err := validateRequest(body); err != nil {
		return nil, err
	}

	resp, err := c.authed(ctx, escape("courses", courseID, "students", "bulk"), CallOptions{
		Method:   http.MethodPost,
		Body:     body,
		Resource: BulkFamily,
	})
	if err != nil {
		return nil, err
	}

	var report core.SubmitReport
	if err := resp.DecodeFirst(&report, "results", "data"); err != nil {
		// Flat shape: the lists sit next to the message.
		if err := resp.decodeBody(&report); err != nil {
			return nil, fmt.Errorf("bulk add students: %w", err)
		}
	}
	if report.Message == "" {
		report.Message = resp.Message
	}
	return &report, nil
}

// SubmitFunc binds BulkAddStudents to a course for core.Importer.Submit.
func (c *Client) SubmitFunc(courseID string) core.SubmitFunc {
	return func(ctx context.Context, rows []core.EnrollmentRow) (*core.SubmitReport, error) {
		return c.BulkAddStudents(ctx, courseID, rows)
	}
}

// RemoveStudent removes one enrollee from a course.
func (c *Client) RemoveStudent(ctx context.Context, courseID, studentID string) error {
	if err := requireID("course_id", courseID); err != nil {
		return err
	}
	if err := requireID("student_id", studentID); err != nil {
		return err
	}
	_, err := c.authed(ctx, escape("courses", courseID, "students", studentID), CallOptions{
		Method:   http.MethodDelete,
		Resource: StudentsFamily,
	})
	return err
}

// BulkRemoveStudents removes several enrollees from a course.
func (c *Client) BulkRemoveStudents(ctx context.Context, courseID string, studentIDs []string) error {
	if err := requireID("course_id", courseID); err != nil {
		return err
	}
	body := bulkRemoveBody{StudentIDs: studentIDs}
	if err := validateRequest(body); err != nil {
		return err
	}
	_, err := c.authed(ctx, escape("courses", courseID, "students", "bulk-remove"), CallOptions{
		Method:   http.MethodPost,
		Body:     body,
		Resource: StudentsFamily,
	})
	return err
}

// RemoveAllStudents clears the roster of a course.
func (c *Client) RemoveAllStudents(ctx context.Context, courseID string) error {
	if err := requireID("course_id", courseID); err != nil {
		return err
	}
	_, err := c.authed(ctx, escape("courses", courseID, "students"), CallOptions{
		Method:   http.MethodDelete,
		Resource: StudentsFamily,
	})
	return err
}

// CopyStudents copies every enrollee of sourceCourseID into courseID. The
// server skips students already enrolled. Copying from an empty course
// yields a zero report.
func (c *Client) CopyStudents(ctx context.Context, courseID, sourceCourseID string) (*core.CopyReport, error) {
	if err := requireID("course_id", courseID); err != nil {
		return nil, err
	}
	body := copyBody{SourceCourseID: sourceCourseID}
	if err := validateRequest(body); err != nil {
		return nil, err
	}

	resp, err := c.authed(ctx, escape("courses", courseID, "students", "copy"), CallOptions{
		Method:   http.MethodPost,
		Body:     body,
		Resource: CopyFamily,
	})
	if err != nil {
		var httpErr *core.HTTPError
		if errors.As(err, &httpErr) && httpErr.Status == http.StatusBadRequest &&
			strings.Contains(strings.ToLower(httpErr.ServerMessage), noStudentsToCopy) {
			return &core.CopyReport{}, nil
		}
		return nil, err
	}

	var report core.CopyReport
	if err := resp.DecodeFirst(&report, "results", "data"); err != nil {
		if err := resp.decodeBody(&report); err != nil {
			return nil, fmt.Errorf("copy students: %w", err)
		}
	}
	return &report, nil
}

// CopyFunc binds CopyStudents to a target course for core.Importer.Copy.
func (c *Client) CopyFunc(courseID string) core.CopyFunc {
	return func(ctx context.Context, sourceCourseID string) (*core.CopyReport, error) {
		return c.CopyStudents(ctx, courseID, sourceCourseID)
	}
}
