package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/JonMunkholm/unitrack/internal/api"
	"github.com/JonMunkholm/unitrack/internal/core"
	"github.com/JonMunkholm/unitrack/internal/kv"
	"github.com/JonMunkholm/unitrack/internal/paging"
)

// sessionFetchLimit is the server page size used when loading every session
// of a course.
const sessionFetchLimit = 100

// SessionAPI is the backend surface SessionStore needs.
type SessionAPI interface {
	ListSessions(ctx context.Context, f api.SessionFilter) (*api.SessionList, error)
	CreateSession(ctx context.Context, req api.CreateSessionRequest) (*core.Session, error)
	EndSession(ctx context.Context, sessionID string) (*core.Session, error)
	MarkAttendance(ctx context.Context, sessionID string, req api.MarkRequest) error
	BulkMarkAttendance(ctx context.Context, sessionID string, marks []api.MarkRequest) error
}

func sessionTotals(s core.Session) (int, int) { return s.PresentCount, s.AbsentCount }

// SessionStore is the attendance sessions of one course. Aggregates are
// present and absent marks.
type SessionStore struct {
	courseID string
	api      SessionAPI
	kv       kv.Store
	guard    *Guard
	logger   *slog.Logger

	mu       sync.Mutex
	gen      uint64
	sessions *paging.Collection[core.Session]
}

// NewSessionStore creates the session container for courseID.
func NewSessionStore(courseID string, client SessionAPI, store kv.Store, opts Options) *SessionStore {
	return &SessionStore{
		courseID: courseID,
		api:      client,
		kv:       store,
		guard:    NewGuard(),
		logger:   opts.logger().With("course_id", courseID),
		sessions: paging.New(opts.PageSize, sessionTotals),
	}
}

// Hydrate loads the cached sessions for an instant first render.
func (s *SessionStore) Hydrate(ctx context.Context) error {
	cached, ok, err := restore[[]core.Session](ctx, s.kv, kv.SessionsKey(s.courseID))
	if err != nil || !ok {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == 0 {
		s.sessions.Replace(cached)
	}
	return nil
}

// Load fetches every session of the course, walking the server's pages.
func (s *SessionStore) Load(ctx context.Context) error {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	var all []core.Session
	for page := 1; ; page++ {
		list, err := s.api.ListSessions(ctx, api.SessionFilter{
			CourseID: s.courseID,
			Page:     page,
			Limit:    sessionFetchLimit,
		})
		if err != nil {
			return err
		}
		all = append(all, list.Sessions...)
		if page >= list.TotalPages || len(list.Sessions) == 0 {
			break
		}
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		s.logger.Debug("dropping stale session list")
		return nil
	}
	s.gen++
	s.sessions.Reload(all)
	s.mu.Unlock()

	persist(ctx, s.logger, s.kv, kv.SessionsKey(s.courseID), all)
	return nil
}

// Loaded reports whether sessions have been fetched or changed since
// construction.
func (s *SessionStore) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen > 0
}

// View returns the current page.
func (s *SessionStore) View() View[core.Session] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return viewOf(s.sessions)
}

// Items returns every loaded session.
func (s *SessionStore) Items() []core.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Items()
}

// SetPage moves to page p (clamped) and returns it.
func (s *SessionStore) SetPage(p int) View[core.Session] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.SetPage(p)
	return viewOf(s.sessions)
}

// Start opens a session for the course and puts it first in the list.
func (s *SessionStore) Start(ctx context.Context, req api.CreateSessionRequest) (*core.Session, error) {
	req.CourseID = s.courseID

	var started *core.Session
	err := s.guard.Run("start", func() error {
		sess, err := s.api.CreateSession(ctx, req)
		if err != nil {
			return err
		}
		started = sess
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.gen++
	s.sessions.Replace(append([]core.Session{*started}, s.sessions.Items()...))
	s.mu.Unlock()

	s.logger.Info("session started", "session_id", started.ID)
	return started, nil
}

// End closes a session and updates it in place.
func (s *SessionStore) End(ctx context.Context, sessionID string) (*core.Session, error) {
	var ended *core.Session
	err := s.guard.Run("end:"+sessionID, func() error {
		sess, err := s.api.EndSession(ctx, sessionID)
		if err != nil {
			return err
		}
		ended = sess
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	items := s.sessions.Items()
	for i := range items {
		if items[i].ID == sessionID {
			if ended.CourseID == "" {
				// Message-only reply: keep our copy, flip the status.
				items[i].Status = core.SessionEnded
				*ended = items[i]
			} else {
				items[i] = *ended
			}
		}
	}
	s.gen++
	s.sessions.Reload(items)
	s.mu.Unlock()

	return ended, nil
}

// Mark sets one student's attendance.
func (s *SessionStore) Mark(ctx context.Context, sessionID string, req api.MarkRequest) error {
	return s.guard.Run("mark:"+sessionID+":"+req.StudentID, func() error {
		return s.api.MarkAttendance(ctx, sessionID, req)
	})
}

// BulkMark sets several marks in one request.
func (s *SessionStore) BulkMark(ctx context.Context, sessionID string, marks []api.MarkRequest) error {
	return s.guard.Run("bulk-mark:"+sessionID, func() error {
		return s.api.BulkMarkAttendance(ctx, sessionID, marks)
	})
}
