package store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/JonMunkholm/unitrack/internal/api"
	"github.com/JonMunkholm/unitrack/internal/core"
	"github.com/JonMunkholm/unitrack/internal/flight"
	"github.com/JonMunkholm/unitrack/internal/kv"
)

// SupportAPI is the backend surface SupportStore needs.
type SupportAPI interface {
	ListFAQs(ctx context.Context) ([]core.FAQ, error)
	SubmitContact(ctx context.Context, req api.ContactRequest) error
}

// SupportStore serves the help screen.
type SupportStore struct {
	api    SupportAPI
	kv     kv.Store
	flight *flight.Group[[]core.FAQ]
	guard  *Guard
	logger *slog.Logger
}

// NewSupportStore creates a SupportStore.
func NewSupportStore(client SupportAPI, store kv.Store, opts Options) *SupportStore {
	return &SupportStore{
		api:    client,
		kv:     store,
		flight: flight.New[[]core.FAQ](opts.DedupeTimeout),
		guard:  NewGuard(),
		logger: opts.logger(),
	}
}

// FAQs returns the help entries. Concurrent callers share one request; if
// the backend is slow or unreachable the cached list is served instead.
func (s *SupportStore) FAQs(ctx context.Context) ([]core.FAQ, error) {
	cached, haveCache, err := restore[[]core.FAQ](ctx, s.kv, kv.KeyHelp)
	if err != nil {
		s.logger.Warn("faq cache unreadable", "error", err)
	}

	faqs, _, err := s.flight.Do(ctx, "faqs", cached, s.api.ListFAQs)
	switch {
	case errors.Is(err, flight.ErrTimeout):
		return faqs, nil
	case err != nil && haveCache:
		s.logger.Warn("serving cached faqs", "error", err)
		return cached, nil
	case err != nil:
		return nil, err
	}

	persist(ctx, s.logger, s.kv, kv.KeyHelp, faqs)
	return faqs, nil
}

// Contact sends a support message.
func (s *SupportStore) Contact(ctx context.Context, req api.ContactRequest) error {
	return s.guard.Run("contact", func() error {
		return s.api.SubmitContact(ctx, req)
	})
}
