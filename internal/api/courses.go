package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/unitrack/internal/core"
)

// CourseInput creates or updates a course.
type CourseInput struct {
	Code     string `json:"code" validate:"required,notblank,max=16"`
	Title    string `json:"title" validate:"required,notblank,max=200"`
	Level    string `json:"level,omitempty" validate:"omitempty,numeric"`
	Semester string `json:"semester,omitempty" validate:"omitempty,oneof=first second"`
}

// ListCourses returns every course of the signed-in lecturer.
func (c *Client) ListCourses(ctx context.Context) ([]core.Course, error) {
	resp, err := c.authed(ctx, "courses", CallOptions{Resource: CourseFamily})
	if err != nil {
		return nil, err
	}

	var courses []core.Course
	if err := resp.DecodeFirst(&courses, "courses", "data"); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// GetCourse returns one course.
func (c *Client) GetCourse(ctx context.Context, courseID string) (*core.Course, error) {
	if err := requireID("course_id", courseID); err != nil {
		return nil, err
	}

	resp, err := c.authed(ctx, escape("courses", courseID), CallOptions{Resource: CourseFamily})
	if err != nil {
		return nil, err
	}

	var course core.Course
	if err := resp.DecodeFirst(&course, "course", "data"); err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	return &course, nil
}

// CreateCourse creates a course. The code is normalised ("csc101" becomes
// "CSC 101") before validation.
func (c *Client) CreateCourse(ctx context.Context, in CourseInput) (*core.Course, error) {
	in.Code = core.FormatCourseCode(in.Code)
	if err := validateRequest(in); err != nil {
		return nil, err
	}

	resp, err := c.authed(ctx, "courses", CallOptions{
		Method:   http.MethodPost,
		Body:     in,
		Resource: CourseFamily,
	})
	if err != nil {
		return nil, err
	}

	var course core.Course
	if err := resp.DecodeFirst(&course, "course", "data"); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	return &course, nil
}

// UpdateCourse replaces the editable fields of a course.
func (c *Client) UpdateCourse(ctx context.Context, courseID string, in CourseInput) (*core.Course, error) {
	if err := requireID("course_id", courseID); err != nil {
		return nil, err
	}
	in.Code = core.FormatCourseCode(in.Code)
	if err := validateRequest(in); err != nil {
		return nil, err
	}

	resp, err := c.authed(ctx, escape("courses", courseID), CallOptions{
		Method:   http.MethodPut,
		Body:     in,
		Resource: CourseFamily,
	})
	if err != nil {
		return nil, err
	}

	var course core.Course
	if err := resp.DecodeFirst(&course, "course", "data"); err != nil {
		return nil, fmt.Errorf("update course: %w", err)
	}
	return &course, nil
}

// DeleteCourse deletes a course with its enrollments and sessions.
func (c *Client) DeleteCourse(ctx context.Context, courseID string) error {
	if err := requireID("course_id", courseID); err != nil {
		return err
	}
	_, err := c.authed(ctx, escape("courses", courseID), CallOptions{
		Method:   http.MethodDelete,
		Resource: CourseFamily,
	})
	return err
}
