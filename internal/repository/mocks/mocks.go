package mocks

import (
	"context"

	"github.com/rpggio/socialxp/internal/domain/event"
	"github.com/rpggio/socialxp/internal/domain/ledger"
	"github.com/stretchr/testify/mock"
)

// ProjectRepository is a mock for ledger.ProjectRepository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Get(ctx context.Context, id string) (*ledger.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*ledger.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Save(ctx context.Context, proj *ledger.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) TotalDeposit(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

// MemberRepository is a mock for ledger.MemberRepository.
type MemberRepository struct {
	mock.Mock
}

func (m *MemberRepository) Get(ctx context.Context, projectID, memberID string) (*ledger.Member, error) {
	args := m.Called(ctx, projectID, memberID)
	if member, ok := args.Get(0).(*ledger.Member); ok {
		return member, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MemberRepository) Save(ctx context.Context, member *ledger.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

// HolderRepository is a mock for ledger.HolderRepository.
type HolderRepository struct {
	mock.Mock
}

func (m *HolderRepository) Get(ctx context.Context, projectID string, account ledger.Address) (*ledger.Holding, error) {
	args := m.Called(ctx, projectID, account)
	if h, ok := args.Get(0).(*ledger.Holding); ok {
		return h, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *HolderRepository) Save(ctx context.Context, projectID string, h *ledger.Holding) error {
	args := m.Called(ctx, projectID, h)
	return args.Error(0)
}

func (m *HolderRepository) CountAbove(ctx context.Context, projectID string, balance uint64) (int, error) {
	args := m.Called(ctx, projectID, balance)
	return args.Int(0), args.Error(1)
}

func (m *HolderRepository) List(ctx context.Context, projectID string, limit int) ([]ledger.Holding, error) {
	args := m.Called(ctx, projectID, limit)
	if list, ok := args.Get(0).([]ledger.Holding); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// SettingsRepository is a mock for ledger.SettingsRepository.
type SettingsRepository struct {
	mock.Mock
}

func (m *SettingsRepository) Fees(ctx context.Context) (*ledger.FeeSchedule, error) {
	args := m.Called(ctx)
	if fees, ok := args.Get(0).(*ledger.FeeSchedule); ok {
		return fees, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SettingsRepository) SaveFees(ctx context.Context, fees ledger.FeeSchedule) error {
	args := m.Called(ctx, fees)
	return args.Error(0)
}

func (m *SettingsRepository) Admin(ctx context.Context) (*ledger.Admin, error) {
	args := m.Called(ctx)
	if admin, ok := args.Get(0).(*ledger.Admin); ok {
		return admin, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SettingsRepository) SaveAdmin(ctx context.Context, admin ledger.Admin) error {
	args := m.Called(ctx, admin)
	return args.Error(0)
}

// EventRepository is a mock for event.Repository.
type EventRepository struct {
	mock.Mock
}

func (m *EventRepository) Append(ctx context.Context, ev *event.Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *EventRepository) GetByRequestID(ctx context.Context, requestID string) (*event.Event, error) {
	args := m.Called(ctx, requestID)
	if ev, ok := args.Get(0).(*event.Event); ok {
		return ev, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EventRepository) List(ctx context.Context, opts event.ListOptions) ([]event.Event, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]event.Event); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Store runs transactions directly against its Repos without isolation.
type Store struct {
	mock.Mock
	Repos ledger.Repositories
}

func (m *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos ledger.Repositories) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, m.Repos)
}

// PriceSource is a mock for ledger.PriceSource.
type PriceSource struct {
	mock.Mock
}

func (m *PriceSource) UnitPrice(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

// Publisher is a mock for ledger.Publisher.
type Publisher struct {
	mock.Mock
}

func (m *Publisher) Publish(ev event.Event) {
	m.Called(ev)
}
