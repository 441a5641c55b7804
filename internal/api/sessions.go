package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/JonMunkholm/unitrack/internal/core"
)

// CreateSessionRequest opens an attendance window for a course. The backend
// validates student positions against the geofence.
type CreateSessionRequest struct {
	CourseID        string  `json:"courseId" validate:"required,notblank"`
	Topic           string  `json:"topic,omitempty" validate:"max=200"`
	Latitude        float64 `json:"latitude" validate:"latitude"`
	Longitude       float64 `json:"longitude" validate:"longitude"`
	RadiusMeters    int     `json:"radius" validate:"required,min=10,max=5000"`
	DurationMinutes int     `json:"duration" validate:"required,min=1,max=480"`
}

// SessionFilter narrows ListSessions. Zero values are omitted.
type SessionFilter struct {
	CourseID string             `json:"courseId,omitempty"`
	Status   core.SessionStatus `json:"status,omitempty" validate:"omitempty,oneof=active ended"`
	Page     int                `json:"page,omitempty" validate:"min=0"`
	Limit    int                `json:"limit,omitempty" validate:"min=0,max=100"`
}

func (f SessionFilter) query() url.Values {
	q := url.Values{}
	if f.CourseID != "" {
		q.Set("courseId", f.CourseID)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// SessionList is one server-side page of sessions.
type SessionList struct {
	Sessions   []core.Session `json:"sessions"`
	Page       int            `json:"page"`
	TotalPages int            `json:"totalPages"`
	Total      int            `json:"total"`
}

// MarkRequest sets one student's attendance mark.
type MarkRequest struct {
	StudentID string                `json:"studentId" validate:"required,notblank"`
	Status    core.AttendanceStatus `json:"status" validate:"required,oneof=present absent excused"`
}

type bulkMarkBody struct {
	Marks []MarkRequest `json:"records" validate:"required,min=1,dive"`
}

// CreateSession starts an attendance session.
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*core.Session, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	resp, err := c.authed(ctx, "sessions", CallOptions{
		Method:   http.MethodPost,
		Body:     req,
		Resource: SessionFamily,
	})
	if err != nil {
		return nil, err
	}

	var session core.Session
	if err := resp.DecodeFirst(&session, "session", "data"); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &session, nil
}

// ListSessions returns one page of sessions matching the filter.
func (c *Client) ListSessions(ctx context.Context, f SessionFilter) (*SessionList, error) {
	if err := validateRequest(f); err != nil {
		return nil, err
	}

	resp, err := c.authed(ctx, "sessions", CallOptions{
		Query:    f.query(),
		Resource: SessionFamily,
	})
	if err != nil {
		return nil, err
	}

	list := &SessionList{Page: 1}
	if err := resp.DecodeFirst(&list.Sessions, "sessions", "data"); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var pg struct {
		Page       int `json:"page"`
		TotalPages int `json:"totalPages"`
		Total      int `json:"total"`
	}
	if err := resp.Decode("pagination", &pg); err == nil {
		list.Page, list.TotalPages, list.Total = pg.Page, pg.TotalPages, pg.Total
	} else {
		list.Total = len(list.Sessions)
		list.TotalPages = 1
	}
	return list, nil
}

// GetSession returns one session.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*core.Session, error) {
	if err := requireID("session_id", sessionID); err != nil {
		return nil, err
	}

	resp, err := c.authed(ctx, escape("sessions", sessionID), CallOptions{Resource: SessionFamily})
	if err != nil {
		return nil, err
	}

	var session core.Session
	if err := resp.DecodeFirst(&session, "session", "data"); err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &session, nil
}

// EndSession closes an active session.
func (c *Client) EndSession(ctx context.Context, sessionID string) (*core.Session, error) {
	if err := requireID("session_id", sessionID); err != nil {
		return nil, err
	}

	resp, err := c.authed(ctx, escape("sessions", sessionID, "end"), CallOptions{
		Method:   http.MethodPatch,
		Resource: SessionFamily,
	})
	if err != nil {
		return nil, err
	}

	var session core.Session
	if err := resp.DecodeFirst(&session, "session", "data"); err != nil {
		// The message alone confirms the end; the caller keeps its copy.
		return &core.Session{ID: sessionID, Status: core.SessionEnded}, nil
	}
	return &session, nil
}

// MarkAttendance sets one student's mark in a session.
func (c *Client) MarkAttendance(ctx context.Context, sessionID string, req MarkRequest) error {
	if err := requireID("session_id", sessionID); err != nil {
		return err
	}
	if err := validateRequest(req); err != nil {
		return err
	}
	_, err := c.authed(ctx, escape("sessions", sessionID, "attendance"), CallOptions{
		Method:   http.MethodPost,
		Body:     req,
		Resource: Generic,
	})
	return err
}

// BulkMarkAttendance sets several marks in one request.
func (c *Client) BulkMarkAttendance(ctx context.Context, sessionID string, marks []MarkRequest) error {
	if err := requireID("session_id", sessionID); err != nil {
		return err
	}
	body := bulkMarkBody{Marks: marks}
	if err := validateRequest(body); err != nil {
		return err
	}
	_, err := c.authed(ctx, escape("sessions", sessionID, "attendance", "bulk"), CallOptions{
		Method:   http.MethodPost,
		Body:     body,
		Resource: Generic,
	})
	return err
}

// SessionStats returns the attendance summary of a session.
func (c *Client) SessionStats(ctx context.Context, sessionID string) (*core.SessionStats, error) {
	if err := requireID("session_id", sessionID); err != nil {
		return nil, err
	}

	resp, err := c.authed(ctx, escape("sessions", sessionID, "stats"), CallOptions{Resource: StatsFamily})
	if err != nil {
		return nil, err
	}

	var stats core.SessionStats
	if err := resp.DecodeFirst(&stats, "stats", "data"); err != nil {
		return nil, fmt.Errorf("session stats: %w", err)
	}
	return &stats, nil
}
