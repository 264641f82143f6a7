package sqlite

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rpggio/socialxp/internal/domain/event"
	"github.com/rpggio/socialxp/internal/domain/ledger"
	"github.com/rpggio/socialxp/internal/repository"
	"github.com/stretchr/testify/require"
)

var (
	alice = ledger.MustParseAddress("0x00000000000000000000000000000000000000a1")
	bob   = ledger.MustParseAddress("0x00000000000000000000000000000000000000b2")
	carol = ledger.MustParseAddress("0x00000000000000000000000000000000000000c3")
)

func insertProject(t *testing.T, db *DB, id string) {
	t.Helper()
	err := NewProjectRepository(db).Save(context.Background(), &ledger.Project{ID: id, CreatedAt: time.Now()})
	require.NoError(t, err)
}

func TestProjectRepository_SaveGet(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	_, err := repo.Get(ctx, "chat_id")
	require.Equal(t, repository.ErrNotFound, err)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	proj := &ledger.Project{
		ID:               "chat_id",
		Deposit:          90,
		DepositUpdatedAt: now,
		Owner:            alice,
		OwnerUpdatedAt:   now,
		TotalSupply:      10,
		CreatedAt:        now,
	}
	require.NoError(t, repo.Save(ctx, proj))

	got, err := repo.Get(ctx, "chat_id")
	require.NoError(t, err)
	require.Equal(t, uint64(90), got.Deposit)
	require.Equal(t, alice, got.Owner)
	require.True(t, now.Equal(got.OwnerUpdatedAt))
	require.Equal(t, uint64(10), got.TotalSupply)

	proj.Deposit = 40
	require.NoError(t, repo.Save(ctx, proj))
	got, err = repo.Get(ctx, "chat_id")
	require.NoError(t, err)
	require.Equal(t, uint64(40), got.Deposit)
}

func TestProjectRepository_TotalDeposit(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	total, err := repo.TotalDeposit(ctx)
	require.NoError(t, err)
	require.Zero(t, total)

	require.NoError(t, repo.Save(ctx, &ledger.Project{ID: "a", Deposit: 30, CreatedAt: time.Now()}))
	require.NoError(t, repo.Save(ctx, &ledger.Project{ID: "b", Deposit: 12, CreatedAt: time.Now()}))

	total, err = repo.TotalDeposit(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(42), total)
}

func TestProjectRepository_TotalDepositNearMax(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &ledger.Project{ID: "a", Deposit: math.MaxInt64, CreatedAt: time.Now()}))
	require.NoError(t, repo.Save(ctx, &ledger.Project{ID: "b", Deposit: math.MaxInt64, CreatedAt: time.Now()}))

	total, err := repo.TotalDeposit(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxInt64)*2, total)

	require.NoError(t, repo.Save(ctx, &ledger.Project{ID: "c", Deposit: 2, CreatedAt: time.Now()}))
	_, err = repo.TotalDeposit(ctx)
	require.ErrorIs(t, err, ledger.ErrInvalidArgument)
}

func TestMemberRepository_SaveGet(t *testing.T) {
	db := NewTestDB(t)
	insertProject(t, db, "p1")
	repo := NewMemberRepository(db)
	ctx := context.Background()

	_, err := repo.Get(ctx, "p1", "42")
	require.Equal(t, repository.ErrNotFound, err)

	now := time.Now().UTC()
	require.NoError(t, repo.Save(ctx, &ledger.Member{ProjectID: "p1", MemberID: "42", Address: bob, UpdatedAt: now}))

	got, err := repo.Get(ctx, "p1", "42")
	require.NoError(t, err)
	require.Equal(t, bob, got.Address)
	require.True(t, now.Equal(got.UpdatedAt))

	// Bindings are scoped to the project
	_, err = repo.Get(ctx, "p2", "42")
	require.Equal(t, repository.ErrNotFound, err)
}

func TestHolderRepository_SequenceAndOrder(t *testing.T) {
	db := NewTestDB(t)
	insertProject(t, db, "p1")
	insertProject(t, db, "p2")
	repo := NewHolderRepository(db)
	ctx := context.Background()

	a := &ledger.Holding{Account: alice, Balance: 100}
	b := &ledger.Holding{Account: bob, Balance: 50}
	c := &ledger.Holding{Account: carol, Balance: 100}
	require.NoError(t, repo.Save(ctx, "p1", a))
	require.NoError(t, repo.Save(ctx, "p1", b))
	require.NoError(t, repo.Save(ctx, "p1", c))
	require.Equal(t, int64(1), a.Seq)
	require.Equal(t, int64(2), b.Seq)
	require.Equal(t, int64(3), c.Seq)

	// Sequences are per project
	other := &ledger.Holding{Account: alice, Balance: 1}
	require.NoError(t, repo.Save(ctx, "p2", other))
	require.Equal(t, int64(1), other.Seq)

	holdings, err := repo.List(ctx, "p1", 0)
	require.NoError(t, err)
	require.Len(t, holdings, 3)
	require.Equal(t, alice, holdings[0].Account)
	require.Equal(t, carol, holdings[1].Account)
	require.Equal(t, bob, holdings[2].Account)

	limited, err := repo.List(ctx, "p1", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)

	above, err := repo.CountAbove(ctx, "p1", 50)
	require.NoError(t, err)
	require.Equal(t, 2, above)

	b.Balance = 0
	require.NoError(t, repo.Save(ctx, "p1", b))
	got, err := repo.Get(ctx, "p1", bob)
	require.NoError(t, err)
	require.Zero(t, got.Balance)
	require.Equal(t, int64(2), got.Seq)
}

func TestSettingsRepository(t *testing.T) {
	db := NewTestDB(t)
	repo := NewSettingsRepository(db)
	ctx := context.Background()

	_, err := repo.Fees(ctx)
	require.Equal(t, repository.ErrNotFound, err)
	_, err = repo.Admin(ctx)
	require.Equal(t, repository.ErrNotFound, err)

	fees := ledger.FeeSchedule{ProjectMemberFee: 1, ProjectOwnerFee: 2, MintFee: 3, BurnFee: 4}
	require.NoError(t, repo.SaveFees(ctx, fees))
	got, err := repo.Fees(ctx)
	require.NoError(t, err)
	require.Equal(t, fees, *got)

	require.NoError(t, repo.SaveAdmin(ctx, ledger.Admin{Owner: alice, PendingOwner: bob}))
	admin, err := repo.Admin(ctx)
	require.NoError(t, err)
	require.Equal(t, alice, admin.Owner)
	require.Equal(t, bob, admin.PendingOwner)
}

func TestEventRepository_AppendList(t *testing.T) {
	db := NewTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	now := time.Now()
	first := &event.Event{Name: event.NameDeposit, ProjectID: "p1", Args: map[string]string{"amount": "100"}}
	second := &event.Event{Name: event.NameMint, ProjectID: "p1", Args: map[string]string{"amount": "5"}, RequestID: "req-1", RequestDigest: "d1"}
	third := &event.Event{Name: event.NameSetFees, Args: map[string]string{}}
	for _, ev := range []*event.Event{first, second, third} {
		require.NoError(t, event.Stamp(ev, now))
		require.NoError(t, repo.Append(ctx, ev))
	}
	require.Less(t, first.Seq, second.Seq)

	events, err := repo.List(ctx, event.ListOptions{ProjectID: "p1"})
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, event.NameMint, events[0].Name)
	require.Equal(t, "100", events[1].Arg("amount"))

	name := event.NameSetFees
	events, err = repo.List(ctx, event.ListOptions{Name: &name})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Empty(t, events[0].ProjectID)

	events, err = repo.List(ctx, event.ListOptions{AfterSeq: first.Seq, Limit: 1})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, third.ID, events[0].ID)

	got, err := repo.GetByRequestID(ctx, "req-1")
	require.NoError(t, err)
	require.Equal(t, second.TxHash, got.TxHash)
	require.Equal(t, "d1", got.RequestDigest)
	require.Empty(t, events[0].RequestDigest)

	_, err = repo.GetByRequestID(ctx, "req-2")
	require.Equal(t, repository.ErrNotFound, err)

	dup := &event.Event{Name: event.NameMint, RequestID: "req-1"}
	require.NoError(t, event.Stamp(dup, now))
	require.Equal(t, repository.ErrConflict, repo.Append(ctx, dup))
}

func TestStore_RollsBackOnError(t *testing.T) {
	db := NewTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context, repos ledger.Repositories) error {
		require.NoError(t, repos.Projects.Save(ctx, &ledger.Project{ID: "p1", Deposit: 10, CreatedAt: time.Now()}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = NewProjectRepository(db).Get(ctx, "p1")
	require.Equal(t, repository.ErrNotFound, err)

	err = store.WithinTx(ctx, func(ctx context.Context, repos ledger.Repositories) error {
		return repos.Projects.Save(ctx, &ledger.Project{ID: "p1", Deposit: 10, CreatedAt: time.Now()})
	})
	require.NoError(t, err)
	proj, err := NewProjectRepository(db).Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, uint64(10), proj.Deposit)
}

func TestAPIKeyResolver(t *testing.T) {
	db := NewTestDB(t)
	resolver := NewAPIKeyResolver(db)
	ctx := context.Background()

	require.NoError(t, resolver.AddKey(ctx, "secret", alice, "relay bot"))

	addr, err := resolver.ResolveCaller(ctx, "secret")
	require.NoError(t, err)
	require.Equal(t, alice, addr)

	_, err = resolver.ResolveCaller(ctx, "wrong")
	require.ErrorIs(t, err, ErrUnknownKey)

	require.ErrorIs(t, resolver.AddKey(ctx, "", alice, ""), ledger.ErrInvalidArgument)
}
