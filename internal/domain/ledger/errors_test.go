package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rpggio/socialxp/internal/domain/ledger"
	"github.com/rpggio/socialxp/internal/repository"
	"github.com/rpggio/socialxp/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepos struct {
	projects *mocks.ProjectRepository
	members  *mocks.MemberRepository
	holders  *mocks.HolderRepository
	settings *mocks.SettingsRepository
	events   *mocks.EventRepository
	store    *mocks.Store
	prices   *mocks.PriceSource
}

func newMockService(t *testing.T) (*ledger.Service, *mockRepos) {
	t.Helper()
	m := &mockRepos{
		projects: &mocks.ProjectRepository{},
		members:  &mocks.MemberRepository{},
		holders:  &mocks.HolderRepository{},
		settings: &mocks.SettingsRepository{},
		events:   &mocks.EventRepository{},
		prices:   &mocks.PriceSource{},
	}
	m.store = &mocks.Store{Repos: ledger.Repositories{
		Projects: m.projects,
		Members:  m.members,
		Holders:  m.holders,
		Settings: m.settings,
		Events:   m.events,
	}}
	svc, err := ledger.NewService(m.store, m.prices, ledger.Config{
		Relay:    relay,
		Owner:    owner,
		RelayBPS: 10_000,
	}, nil)
	require.NoError(t, err)
	return svc, m
}

func TestDeposit_PropagatesLoadError(t *testing.T) {
	ctx := context.Background()
	svc, m := newMockService(t)
	boom := errors.New("disk on fire")

	m.store.On("WithinTx", ctx).Return(nil)
	m.projects.On("Get", ctx, "p").Return(nil, boom)

	_, err := svc.Deposit(ctx, ledger.Call{Caller: alice}, "p", 10)
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "loading project")
	m.projects.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	m.events.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestMint_PropagatesPriceError(t *testing.T) {
	ctx := context.Background()
	svc, m := newMockService(t)
	boom := errors.New("price feed down")

	m.store.On("WithinTx", ctx).Return(nil)
	m.projects.On("Get", ctx, "p").Return(&ledger.Project{ID: "p", Deposit: 1_000_000}, nil)
	m.holders.On("Get", ctx, "p", alice).Return(nil, repository.ErrNotFound)
	m.settings.On("Fees", ctx).Return(nil, repository.ErrNotFound)
	m.prices.On("UnitPrice", ctx).Return(uint64(0), boom)

	_, err := svc.Mint(ctx, asRelay(), "p", alice, 1)
	require.ErrorIs(t, err, boom)
	m.holders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestReplay_LookupError(t *testing.T) {
	ctx := context.Background()
	svc, m := newMockService(t)
	boom := errors.New("index corrupt")

	m.store.On("WithinTx", ctx).Return(nil)
	m.events.On("GetByRequestID", ctx, "r1").Return(nil, boom)

	_, err := svc.Deposit(ctx, ledger.Call{Caller: alice, RequestID: "r1"}, "p", 10)
	require.ErrorIs(t, err, boom)
	m.projects.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestSetProjectMember_SavesChargedProject(t *testing.T) {
	ctx := context.Background()
	svc, m := newMockService(t)

	m.store.On("WithinTx", ctx).Return(nil)
	m.members.On("Get", ctx, "p", "7").Return(nil, repository.ErrNotFound)
	m.projects.On("Get", ctx, "p").Return(&ledger.Project{ID: "p", Deposit: 60_000}, nil)
	m.settings.On("Fees", ctx).Return(nil, repository.ErrNotFound)
	m.prices.On("UnitPrice", ctx).Return(uint64(1), nil)
	m.projects.On("Save", ctx, mock.MatchedBy(func(p *ledger.Project) bool {
		return p.Deposit == 10_000
	})).Return(nil)
	m.members.On("Save", ctx, mock.MatchedBy(func(mem *ledger.Member) bool {
		return mem.MemberID == "7" && mem.Address == bob
	})).Return(nil)
	m.events.On("Append", ctx, mock.Anything).Return(nil)

	receipt, err := svc.SetProjectMember(ctx, asRelay(), "p", "7", bob)
	require.NoError(t, err)
	require.Equal(t, uint64(50_000), receipt.Fee)
	m.projects.AssertExpectations(t)
	m.members.AssertExpectations(t)
	m.events.AssertExpectations(t)
}
