package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/socialxp/internal/domain/event"
	"github.com/rpggio/socialxp/internal/repository"
)

// Config fixes the identities and custody policy of a ledger.
type Config struct {
	Relay    Address
	Owner    Address
	Treasury Address
	// RelayBPS is the share of each deposit, in basis points, forwarded to the
	// relay and credited to the project. The rest goes to Treasury.
	RelayBPS    uint32
	DefaultFees FeeSchedule
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Relay.IsZero() {
		return fmt.Errorf("%w: relay address required", ErrInvalidArgument)
	}
	if c.Owner.IsZero() {
		return fmt.Errorf("%w: owner address required", ErrInvalidArgument)
	}
	if c.RelayBPS == 0 || c.RelayBPS > 10_000 {
		return fmt.Errorf("%w: relay share must be in 1..10000 bps", ErrInvalidArgument)
	}
	if c.RelayBPS < 10_000 && c.Treasury.IsZero() {
		return fmt.Errorf("%w: treasury address required for a split custody policy", ErrInvalidArgument)
	}
	return nil
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the wall clock used for time locks and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithPublisher registers the receiver of committed events.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// Service is the ledger state machine. Mutations are applied one at a time,
// each inside one store transaction.
type Service struct {
	store     Store
	prices    PriceSource
	publisher Publisher
	cfg       Config
	now       func() time.Time
	logger    *slog.Logger

	mu sync.RWMutex
}

// NewService creates a new ledger service.
func NewService(store Store, prices PriceSource, cfg Config, logger *slog.Logger, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.DefaultFees == (FeeSchedule{}) {
		cfg.DefaultFees = DefaultFees()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{
		store:  store,
		prices: prices,
		cfg:    cfg,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// mutation builds the event for one operation inside its transaction.
type mutation func(ctx context.Context, repos Repositories, now time.Time) (*Receipt, error)

func (s *Service) apply(ctx context.Context, req request, fn mutation) (*Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, call := req.op, req.call
	digest, err := req.digest()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var receipt *Receipt
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos Repositories) error {
		if call.RequestID != "" {
			prev, err := repos.Events.GetByRequestID(ctx, call.RequestID)
			if err == nil {
				if req.authorize != nil {
					if err := req.authorize(ctx, repos); err != nil {
						return err
					}
				}
				if prev.RequestDigest != digest {
					return fmt.Errorf("%w: request id %q belongs to a different call (%s)", ErrRequestConflict, call.RequestID, prev.Name)
				}
				receipt = &Receipt{Event: *prev, Replayed: true}
				return nil
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("checking request id: %w", err)
			}
		}

		r, err := fn(ctx, repos, now)
		if err != nil {
			return err
		}
		r.Event.RequestID = call.RequestID
		if call.RequestID != "" {
			r.Event.RequestDigest = digest
		}
		if err := event.Stamp(&r.Event, now); err != nil {
			return fmt.Errorf("stamping event: %w", err)
		}
		if err := repos.Events.Append(ctx, &r.Event); err != nil {
			return fmt.Errorf("appending event: %w", err)
		}
		receipt = r
		return nil
	})
	if err != nil {
		s.logger.Debug("ledger operation rejected", "op", op, "caller", call.Caller.String(), "error", err)
		return nil, err
	}

	if receipt.Replayed {
		s.logger.Info("ledger operation replayed", "op", op, "request_id", call.RequestID, "tx", receipt.Event.TxHash)
		return receipt, nil
	}
	if s.publisher != nil {
		s.publisher.Publish(receipt.Event)
	}
	s.logger.Info("ledger operation applied",
		"op", op,
		"project_id", receipt.Event.ProjectID,
		"event", string(receipt.Event.Name),
		"fee", receipt.Fee,
		"tx", receipt.Event.TxHash,
	)
	return receipt, nil
}

// view runs a read-only query under the read lock.
func (s *Service) view(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.WithinTx(ctx, fn)
}

func (s *Service) unitPrice(ctx context.Context) (uint64, error) {
	price, err := s.prices.UnitPrice(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading unit price: %w", err)
	}
	return price, nil
}

// loadProject returns the stored project or its zero default.
func loadProject(ctx context.Context, repos Repositories, id string, now time.Time) (*Project, error) {
	proj, err := repos.Projects.Get(ctx, id)
	if err == nil {
		return proj, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("loading project: %w", err)
	}
	return &Project{ID: id, CreatedAt: now}, nil
}

func loadFees(ctx context.Context, repos Repositories, fallback FeeSchedule) (FeeSchedule, error) {
	fees, err := repos.Settings.Fees(ctx)
	if err == nil {
		return *fees, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return FeeSchedule{}, fmt.Errorf("loading fees: %w", err)
	}
	return fallback, nil
}

func requireProjectID(projectID string) error {
	if projectID == "" {
		return fmt.Errorf("%w: project id required", ErrInvalidArgument)
	}
	return nil
}
