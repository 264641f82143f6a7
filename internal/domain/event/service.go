package event

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// Service serves the event log and fans new events out to live subscribers.
type Service struct {
	repo   Repository
	logger *slog.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

// NewService creates a new event service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger, subs: make(map[int]chan Event)}
}

// Recent lists stored events with filtering.
func (s *Service) Recent(ctx context.Context, opts ListOptions) ([]Event, error) {
	return s.repo.List(ctx, opts)
}

// Subscribe registers a live listener. The returned cancel func must be called
// to release it. Slow subscribers miss events rather than block the ledger.
func (s *Service) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers a committed event to every subscriber.
func (s *Service) Publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.logger.Warn("dropping event for slow subscriber", "subscriber", id, "event", ev.Name, "tx", ev.TxHash)
		}
	}
}
