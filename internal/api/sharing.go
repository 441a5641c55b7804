package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/JonMunkholm/unitrack/internal/core"
)

// ShareRequestInput asks another lecturer for some of their enrollees.
type ShareRequestInput struct {
	ToTeacherID    string   `json:"toTeacherId" validate:"required,notblank"`
	SourceCourseID string   `json:"sourceCourseId" validate:"required,notblank"`
	TargetCourseID string   `json:"targetCourseId" validate:"required,notblank"`
	StudentIDs     []string `json:"studentIds" validate:"required,min=1,dive,required"`
	Message        string   `json:"message,omitempty" validate:"max=500"`
}

// ShareDirection selects incoming or outgoing share requests.
type ShareDirection string

const (
	ShareIncoming ShareDirection = "incoming"
	ShareOutgoing ShareDirection = "outgoing"
)

// ListTeachers returns the other lecturers that can be asked for students.
func (c *Client) ListTeachers(ctx context.Context) ([]core.Teacher, error) {
	resp, err := c.authed(ctx, "teachers", CallOptions{Resource: SharingFamily})
	if err != nil {
		return nil, err
	}
	var teachers []core.Teacher
	if err := resp.DecodeFirst(&teachers, "teachers", "data"); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// TeacherCourses returns another lecturer's courses.
func (c *Client) TeacherCourses(ctx context.Context, teacherID string) ([]core.Course, error) {
	if err := requireID("teacher_id", teacherID); err != nil {
		return nil, err
	}
	resp, err := c.authed(ctx, escape("teachers", teacherID, "courses"), CallOptions{Resource: CourseFamily})
	if err != nil {
		return nil, err
	}
	var courses []core.Course
	if err := resp.DecodeFirst(&courses, "courses", "data"); err != nil {
		return nil, fmt.Errorf("teacher courses: %w", err)
	}
	return courses, nil
}

// TeacherCourseStudents returns the enrollees of another lecturer's course.
func (c *Client) TeacherCourseStudents(ctx context.Context, teacherID, courseID string) ([]core.Student, error) {
	if err := requireID("teacher_id", teacherID); err != nil {
		return nil, err
	}
	if err := requireID("course_id", courseID); err != nil {
		return nil, err
	}
	resp, err := c.authed(ctx, escape("teachers", teacherID, "courses", courseID, "students"), CallOptions{Resource: StudentsFamily})
	if err != nil {
		return nil, err
	}
	var students []core.Student
	if err := resp.DecodeFirst(&students, "students", "studentData", "data"); err != nil {
		return nil, fmt.Errorf("teacher course students: %w", err)
	}
	return students, nil
}

// CreateShareRequest sends a share request.
func (c *Client) CreateShareRequest(ctx context.Context, in ShareRequestInput) (*core.ShareRequest, error) {
	if err := validateRequest(in); err != nil {
		return nil, err
	}
	resp, err := c.authed(ctx, "share-requests", CallOptions{
		Method:   http.MethodPost,
		Body:     in,
		Resource: SharingFamily,
	})
	if err != nil {
		return nil, err
	}
	var sr core.ShareRequest
	if err := resp.DecodeFirst(&sr, "request", "shareRequest", "data"); err != nil {
		return nil, fmt.Errorf("create share request: %w", err)
	}
	return &sr, nil
}

// ListShareRequests returns incoming or outgoing share requests.
func (c *Client) ListShareRequests(ctx context.Context, dir ShareDirection) ([]core.ShareRequest, error) {
	if dir != ShareIncoming && dir != ShareOutgoing {
		return nil, &core.ValidationError{Field: "direction", Value: string(dir), Message: "direction must be incoming or outgoing"}
	}
	resp, err := c.authed(ctx, "share-requests", CallOptions{
		Query:    url.Values{"direction": {string(dir)}},
		Resource: SharingFamily,
	})
	if err != nil {
		return nil, err
	}
	var requests []core.ShareRequest
	if err := resp.DecodeFirst(&requests, "requests", "data"); err != nil {
		return nil, fmt.Errorf("list share requests: %w", err)
	}
	return requests, nil
}

// ApproveShareRequest approves an incoming request; the backend copies the
// students.
func (c *Client) ApproveShareRequest(ctx context.Context, requestID string) error {
	return c.respondShare(ctx, requestID, "approve")
}

// RejectShareRequest rejects an incoming request.
func (c *Client) RejectShareRequest(ctx context.Context, requestID string) error {
	return c.respondShare(ctx, requestID, "reject")
}

// CancelShareRequest withdraws an outgoing request.
func (c *Client) CancelShareRequest(ctx context.Context, requestID string) error {
	return c.respondShare(ctx, requestID, "cancel")
}

func (c *Client) respondShare(ctx context.Context, requestID, action string) error {
	if err := requireID("request_id", requestID); err != nil {
		return err
	}
	_, err := c.authed(ctx, escape("share-requests", requestID, action), CallOptions{
		Method:   http.MethodPatch,
		Resource: Generic,
	})
	return err
}
