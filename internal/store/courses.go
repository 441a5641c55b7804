package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/JonMunkholm/unitrack/internal/api"
	"github.com/JonMunkholm/unitrack/internal/core"
	"github.com/JonMunkholm/unitrack/internal/flight"
	"github.com/JonMunkholm/unitrack/internal/kv"
	"github.com/JonMunkholm/unitrack/internal/paging"
)

// CourseAPI is the backend surface CourseStore needs.
type CourseAPI interface {
	ListCourses(ctx context.Context) ([]core.Course, error)
	CreateCourse(ctx context.Context, in api.CourseInput) (*core.Course, error)
	DeleteCourse(ctx context.Context, courseID string) error
}

func courseTotals(c core.Course) (int, int) { return c.StudentCount, c.SessionCount }

func courseKey(c core.Course) string { return c.ID }

// CourseStore is the lecturer's course list. Aggregates are total students
// and total sessions.
type CourseStore struct {
	api    CourseAPI
	kv     kv.Store
	flight *flight.Group[[]core.Course]
	guard  *Guard
	logger *slog.Logger

	mu      sync.Mutex
	gen     uint64
	loaded  bool
	courses *paging.Collection[core.Course]
}

// NewCourseStore creates an empty CourseStore.
func NewCourseStore(client CourseAPI, store kv.Store, opts Options) *CourseStore {
	return &CourseStore{
		api:     client,
		kv:      store,
		flight:  flight.New[[]core.Course](opts.DedupeTimeout),
		guard:   NewGuard(),
		logger:  opts.logger(),
		courses: paging.New(opts.PageSize, courseTotals),
	}
}

// Hydrate loads the cached list for an instant first render. It does nothing
// once real data has been applied.
func (s *CourseStore) Hydrate(ctx context.Context) error {
	cached, ok, err := restore[[]core.Course](ctx, s.kv, kv.KeyCourses)
	if err != nil || !ok {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}
	s.courses.Replace(cached)
	return nil
}

// Refresh fetches the list again. Concurrent refreshes share one request.
// The current page is kept if it still exists.
func (s *CourseStore) Refresh(ctx context.Context) error {
	s.mu.Lock()
	gen := s.gen
	fallback := s.courses.Items()
	s.mu.Unlock()

	courses, _, err := s.flight.Do(ctx, "courses", fallback, s.api.ListCourses)
	if errors.Is(err, flight.ErrTimeout) {
		s.logger.Warn("course refresh still running, keeping current list")
		return nil
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	if current := s.gen; current != gen {
		s.mu.Unlock()
		s.logger.Debug("dropping stale course list", "started_gen", gen, "current_gen", current)
		return nil
	}
	s.gen++
	s.loaded = true
	s.courses.Reload(courses)
	s.mu.Unlock()

	persist(ctx, s.logger, s.kv, kv.KeyCourses, courses)
	return nil
}

// Loaded reports whether a backend list has been applied.
func (s *CourseStore) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Reset forgets every course, in memory and in the cache, and returns the
// ids that were loaded. A refresh still in flight is dropped when it lands.
func (s *CourseStore) Reset(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	items := s.courses.Items()
	s.gen++
	s.loaded = false
	s.courses.Replace(nil)
	s.mu.Unlock()

	s.flight.Forget("courses")

	ids := make([]string, len(items))
	for i, c := range items {
		ids[i] = c.ID
	}
	if err := s.kv.Delete(ctx, kv.KeyCourses); err != nil {
		return ids, fmt.Errorf("reset courses: %w", err)
	}
	return ids, nil
}

// View returns the current page.
func (s *CourseStore) View() View[core.Course] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return viewOf(s.courses)
}

// SetPage moves to page p (clamped) and returns it.
func (s *CourseStore) SetPage(p int) View[core.Course] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses.SetPage(p)
	return viewOf(s.courses)
}

// Find returns the course with id.
func (s *CourseStore) Find(id string) (core.Course, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.courses.Items() {
		if c.ID == id {
			return c, true
		}
	}
	return core.Course{}, false
}

// Create creates a course and appends it to the list.
func (s *CourseStore) Create(ctx context.Context, in api.CourseInput) (*core.Course, error) {
	var created *core.Course
	err := s.guard.Run("create-course", func() error {
		c, err := s.api.CreateCourse(ctx, in)
		if err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.gen++
	s.courses.Reload(append(s.courses.Items(), *created))
	items := s.courses.Items()
	s.mu.Unlock()

	persist(ctx, s.logger, s.kv, kv.KeyCourses, items)
	return created, nil
}

// Delete removes a course. It is applied locally at once and rolled back if
// the backend refuses. confirmed must be true.
func (s *CourseStore) Delete(ctx context.Context, courseID string, confirmed bool) error {
	if !confirmed {
		return core.ErrConfirmationRequired
	}

	dropped := func(c core.Course) bool { return c.ID == courseID }
	return s.guard.Run("delete-course:"+courseID, func() error {
		s.mu.Lock()
		snapshot := s.courses.Items()
		s.gen++
		s.courses.Reload(without(snapshot, dropped))
		s.mu.Unlock()

		if err := s.api.DeleteCourse(ctx, courseID); err != nil {
			s.mu.Lock()
			s.gen++
			s.courses.Reload(reinstate(snapshot, s.courses.Items(), dropped, courseKey))
			s.mu.Unlock()
			s.logger.Info("course delete rolled back", "course_id", courseID, "error", err)
			return err
		}

		s.mu.Lock()
		items := s.courses.Items()
		s.mu.Unlock()
		persist(ctx, s.logger, s.kv, kv.KeyCourses, items)
		s.logger.Info("course deleted", "course_id", courseID)
		return nil
	})
}
