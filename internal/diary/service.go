package diary

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmhodges/clock"

	"github.com/m3rciful/eventbot/core/logger"
)

const component = "service.entries"

// Store persists one List per user id. A missing user reads as an empty list.
type Store interface {
	Get(ctx context.Context, userID string) (List, error)
	Put(ctx context.Context, userID string, list List) error
	// Create stores an empty list unless the user already has one.
	Create(ctx context.Context, userID string) error
	UserIDs(ctx context.Context) ([]string, error)
}

// Service applies entry operations against a Store, one user at a time.
type Service struct {
	store Store
	clock clock.Clock
	loc   *time.Location
	locks *keyedMutex
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the wall clock used to date new entries.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLocation sets the timezone "today" is computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewService wires a Service over store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		clock: clock.New(),
		loc:   time.Local,
		locks: newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today formats the current date in the configured timezone.
func (s *Service) Today() string {
	return s.clock.Now().In(s.loc).Format(DateLayout)
}

// Start makes sure the user has a list. An existing list is never reset.
func (s *Service) Start(ctx context.Context, userID string) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	if err := s.store.Create(ctx, userID); err != nil {
		return s.storeFailed(ctx, "entries.create", userID, err)
	}
	return nil
}

// Entries returns the user's current list.
func (s *Service) Entries(ctx context.Context, userID string) (List, error) {
	list, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, s.storeFailed(ctx, "entries.get", userID, err)
	}
	return list, nil
}

// Add records text under today's date.
func (s *Service) Add(ctx context.Context, userID, text string) (Entry, error) {
	var added Entry
	err := s.mutate(ctx, "entries.add", userID, func(list List) (List, error) {
		next, err := Add(list, text, s.Today())
		if err == nil {
			added = next[len(next)-1]
		}
		return next, err
	})
	return added, err
}

// Update applies a "<position>: <text>" reply.
func (s *Service) Update(ctx context.Context, userID, raw string) (Item, error) {
	var updated Item
	err := s.mutate(ctx, "entries.update", userID, func(list List) (List, error) {
		next, pos, err := Update(list, raw)
		if err == nil {
			updated = Item{Position: pos, Entry: next[pos-1]}
		}
		return next, err
	})
	return updated, err
}

// Delete applies a "<position>" reply.
func (s *Service) Delete(ctx context.Context, userID, raw string) (Entry, error) {
	var removed Entry
	err := s.mutate(ctx, "entries.delete", userID, func(list List) (List, error) {
		next, entry, err := Delete(list, raw)
		removed = entry
		return next, err
	})
	return removed, err
}

// UserIDs lists every user that has a stored list.
func (s *Service) UserIDs(ctx context.Context) ([]string, error) {
	ids, err := s.store.UserIDs(ctx)
	if err != nil {
		return nil, s.storeFailed(ctx, "entries.users", "", err)
	}
	return ids, nil
}

// mutate runs read, apply, write under the user's lock. Nothing is written when apply fails.
func (s *Service) mutate(ctx context.Context, op, userID string, apply func(List) (List, error)) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	start := time.Now()
	list, err := s.store.Get(ctx, userID)
	if err != nil {
		return s.storeFailed(ctx, op, userID, err)
	}

	next, err := apply(list)
	if err != nil {
		logger.Debug(ctx, component, op,
			slog.String("status", "skip"),
			slog.String("entry_user", userID),
			slog.String("err_code", string(KindOf(err))),
		)
		return err
	}

	if err := s.store.Put(ctx, userID, next); err != nil {
		return s.storeFailed(ctx, op, userID, err)
	}
	logger.Info(ctx, component, op,
		slog.String("status", "ok"),
		slog.String("entry_user", userID),
		slog.Int("entries", len(next)),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

func (s *Service) storeFailed(ctx context.Context, op, userID string, err error) error {
	wrapped := storeUnavailable(op, err)
	logger.Error(ctx, component, op,
		slog.String("status", "fail"),
		slog.String("entry_user", userID),
		logger.Err(err),
		slog.String("err_code", string(KindStoreUnavailable)),
	)
	return wrapped
}
