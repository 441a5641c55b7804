package core

import (
	"fmt"
	"time"
)

// Delimiter is the field separator detected for an import file.
type Delimiter rune

const (
	Comma     Delimiter = ','
	Semicolon Delimiter = ';'
	Tab       Delimiter = '\t'
	Pipe      Delimiter = '|'
)

// Rune returns the separator character.
func (d Delimiter) Rune() rune { return rune(d) }

func (d Delimiter) String() string {
	switch d {
	case Comma:
		return "comma"
	case Semicolon:
		return "semicolon"
	case Tab:
		return "tab"
	case Pipe:
		return "pipe"
	default:
		return "unknown"
	}
}

// MarshalText renders the delimiter by name so JSON outcomes stay readable.
func (d Delimiter) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (d *Delimiter) UnmarshalText(b []byte) error {
	for _, c := range []Delimiter{Comma, Semicolon, Tab, Pipe} {
		if c.String() == string(b) {
			*d = c
			return nil
		}
	}
	return fmt.Errorf("unknown delimiter %q", b)
}

// StudentRecord is one enrollee candidate parsed from an import file.
// MatricNo is upper-case, Email lower-case, Name trimmed.
type StudentRecord struct {
	MatricNo string `json:"matricNo" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
}

// RejectedRow is a data line that could not become a StudentRecord.
type RejectedRow struct {
	LineNumber int    `json:"lineNumber"`
	RawLine    string `json:"rawLine"`
	Reason     string `json:"reason"`
}

// ImportOutcome is the result of parsing one import file, before submission.
// len(ValidRecords) + len(RejectedRows) == TotalRowsParsed.
type ImportOutcome struct {
	TotalRowsParsed int             `json:"totalRowsParsed"`
	ValidRecords    []StudentRecord `json:"validRecords"`
	RejectedRows    []RejectedRow   `json:"rejectedRows"`
	Delimiter       Delimiter       `json:"delimiter"`
}

// EnrollmentContext is the caller-known group and level appended to every
// submitted record.
type EnrollmentContext struct {
	Group string `json:"group,omitempty"`
	Level string `json:"level,omitempty"`
}

// EnrollmentRow is a StudentRecord enriched with its enrollment context,
// the shape sent to the bulk enrollment endpoint.
type EnrollmentRow struct {
	MatricNo string `json:"matricNo"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Group    string `json:"group,omitempty"`
	Level    string `json:"level,omitempty"`
}

// RowResult is the server's verdict on a single submitted row.
type RowResult struct {
	MatricNo string `json:"matricNo,omitempty"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// SubmitReport is the server's per-row summary of a bulk enrollment.
// A partial failure is reported here, never collapsed into an error.
type SubmitReport struct {
	Message    string      `json:"message,omitempty"`
	Successful []RowResult `json:"successful"`
	Skipped    []RowResult `json:"skipped"`
	Failed     []RowResult `json:"failed"`
}

// Partial reports whether the server accepted some rows but not all.
func (r SubmitReport) Partial() bool {
	return len(r.Successful) > 0 && (len(r.Skipped) > 0 || len(r.Failed) > 0)
}

// Total returns the number of rows the server accounted for.
func (r SubmitReport) Total() int {
	return len(r.Successful) + len(r.Skipped) + len(r.Failed)
}

// CopyReport is the server summary for copying enrollees between courses.
type CopyReport struct {
	Added          int `json:"added"`
	Skipped        int `json:"skipped"`
	TotalProcessed int `json:"totalProcessed"`
}

// User is the signed-in account.
type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	IsVerified bool   `json:"isVerified"`
}

// Course is a lecturer-owned course.
type Course struct {
	ID           string    `json:"id"`
	Code         string    `json:"code"`
	Title        string    `json:"title"`
	Level        string    `json:"level,omitempty"`
	Semester     string    `json:"semester,omitempty"`
	StudentCount int       `json:"studentCount"`
	SessionCount int       `json:"sessionCount"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}

// Student is an enrollee of a course, with attendance counters.
type Student struct {
	ID               string `json:"id"`
	MatricNo         string `json:"matricNo"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Group            string `json:"group,omitempty"`
	Level            string `json:"level,omitempty"`
	AttendedSessions int    `json:"attendedSessions"`
	MissedSessions   int    `json:"missedSessions"`
}

// SessionStatus is the lifecycle state of an attendance session.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

// Session is a time-boxed, geofenced attendance window for a course.
// Geofence validation is performed by the backend.
type Session struct {
	ID           string        `json:"id"`
	CourseID     string        `json:"courseId"`
	Topic        string        `json:"topic,omitempty"`
	Status       SessionStatus `json:"status"`
	Latitude     float64       `json:"latitude"`
	Longitude    float64       `json:"longitude"`
	RadiusMeters int           `json:"radius"`
	StartsAt     time.Time     `json:"startTime"`
	EndsAt       time.Time     `json:"endTime"`
	PresentCount int           `json:"presentCount"`
	AbsentCount  int           `json:"absentCount"`
}

// AttendanceStatus is the mark a lecturer assigns to a student in a session.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceExcused AttendanceStatus = "excused"
)

// AttendanceRecord is one student's mark in one session.
type AttendanceRecord struct {
	SessionID string           `json:"sessionId"`
	StudentID string           `json:"studentId"`
	MatricNo  string           `json:"matricNo,omitempty"`
	Name      string           `json:"name,omitempty"`
	Status    AttendanceStatus `json:"status"`
	MarkedAt  time.Time        `json:"markedAt,omitempty"`
}

// SessionStats summarises attendance for one session.
type SessionStats struct {
	TotalStudents int     `json:"totalStudents"`
	Present       int     `json:"present"`
	Absent        int     `json:"absent"`
	Rate          float64 `json:"attendanceRate"`
}

// Teacher is another lecturer visible to the student-sharing flow.
type Teacher struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ShareStatus is the state of a share request.
type ShareStatus string

const (
	SharePending   ShareStatus = "pending"
	ShareApproved  ShareStatus = "approved"
	ShareRejected  ShareStatus = "rejected"
	ShareCancelled ShareStatus = "cancelled"
)

// ShareRequest asks another lecturer to copy a subset of their enrolled
// students into one of the requester's courses.
type ShareRequest struct {
	ID             string      `json:"id"`
	FromTeacherID  string      `json:"fromTeacherId"`
	ToTeacherID    string      `json:"toTeacherId"`
	SourceCourseID string      `json:"sourceCourseId"`
	TargetCourseID string      `json:"targetCourseId"`
	StudentIDs     []string    `json:"studentIds"`
	Message        string      `json:"message,omitempty"`
	Status         ShareStatus `json:"status"`
	CreatedAt      time.Time   `json:"createdAt,omitempty"`
}

// FAQ is a read-only help entry.
type FAQ struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category,omitempty"`
}
