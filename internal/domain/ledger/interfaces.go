package ledger

import (
	"context"

	"github.com/rpggio/socialxp/internal/domain/event"
)

// ProjectRepository provides persistence for projects.
type ProjectRepository interface {
	Get(ctx context.Context, id string) (*Project, error)
	Save(ctx context.Context, proj *Project) error
	TotalDeposit(ctx context.Context) (uint64, error)
}

// MemberRepository provides persistence for member bindings.
type MemberRepository interface {
	Get(ctx context.Context, projectID, memberID string) (*Member, error)
	Save(ctx context.Context, m *Member) error
}

// HolderRepository provides the per-project balance sheet. Save assigns the
// next sequence number to a holding whose Seq is zero.
type HolderRepository interface {
	Get(ctx context.Context, projectID string, account Address) (*Holding, error)
	Save(ctx context.Context, projectID string, h *Holding) error
	CountAbove(ctx context.Context, projectID string, balance uint64) (int, error)
	List(ctx context.Context, projectID string, limit int) ([]Holding, error)
}

// SettingsRepository stores process-wide configuration.
type SettingsRepository interface {
	Fees(ctx context.Context) (*FeeSchedule, error)
	SaveFees(ctx context.Context, fees FeeSchedule) error
	Admin(ctx context.Context) (*Admin, error)
	SaveAdmin(ctx context.Context, admin Admin) error
}

// Repositories is the set of repositories bound to one transaction.
type Repositories struct {
	Projects ProjectRepository
	Members  MemberRepository
	Holders  HolderRepository
	Settings SettingsRepository
	Events   event.Repository
}

// Store runs fn inside a single atomic transaction.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// PriceSource supplies the unit price fee units are converted at.
type PriceSource interface {
	UnitPrice(ctx context.Context) (uint64, error)
}

// Publisher receives committed events.
type Publisher interface {
	Publish(ev event.Event)
}
