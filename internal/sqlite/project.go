package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/bits"

	"github.com/rpggio/socialxp/internal/db"
	"github.com/rpggio/socialxp/internal/domain/ledger"
	"github.com/rpggio/socialxp/internal/repository"
)

// ProjectRepository implements ledger.ProjectRepository for SQLite
type ProjectRepository struct {
	db db.DBTX
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(q db.DBTX) *ProjectRepository {
	return &ProjectRepository{db: q}
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id string) (*ledger.Project, error) {
	query := `
		SELECT id, deposit, deposit_updated_at, owner, owner_updated_at, total_supply, created_at
		FROM projects
		WHERE id = ?
	`

	var (
		proj             ledger.Project
		depositUpdatedAt sql.NullString
		owner            sql.NullString
		ownerUpdatedAt   sql.NullString
		createdAt        sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&proj.ID,
		&proj.Deposit,
		&depositUpdatedAt,
		&owner,
		&ownerUpdatedAt,
		&proj.TotalSupply,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	proj.DepositUpdatedAt = parseNullableTime(depositUpdatedAt)
	proj.Owner = ledger.Address(owner.String)
	proj.OwnerUpdatedAt = parseNullableTime(ownerUpdatedAt)
	proj.CreatedAt = parseNullableTime(createdAt)
	return &proj, nil
}

// Save inserts or replaces a project
func (r *ProjectRepository) Save(ctx context.Context, proj *ledger.Project) error {
	query := `
		INSERT INTO projects (id, deposit, deposit_updated_at, owner, owner_updated_at, total_supply, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			deposit = excluded.deposit,
			deposit_updated_at = excluded.deposit_updated_at,
			owner = excluded.owner,
			owner_updated_at = excluded.owner_updated_at,
			total_supply = excluded.total_supply
	`

	_, err := r.db.ExecContext(ctx, query,
		proj.ID,
		proj.Deposit,
		nullableTime(proj.DepositUpdatedAt),
		nullableString(string(proj.Owner)),
		nullableTime(proj.OwnerUpdatedAt),
		proj.TotalSupply,
		proj.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

// TotalDeposit sums the deposit of every project. Deposits may each reach
// MaxInt64, so the sum is taken in Go rather than by SQLite.
func (r *ProjectRepository) TotalDeposit(ctx context.Context) (uint64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT deposit FROM projects WHERE deposit > 0`)
	if err != nil {
		return 0, fmt.Errorf("failed to sum deposits: %w", err)
	}
	defer rows.Close()

	var total uint64
	for rows.Next() {
		var deposit uint64
		if err := rows.Scan(&deposit); err != nil {
			return 0, fmt.Errorf("failed to scan deposit: %w", err)
		}
		sum, carry := bits.Add64(total, deposit, 0)
		if carry != 0 {
			return 0, fmt.Errorf("%w: total deposit overflows", ledger.ErrInvalidArgument)
		}
		total = sum
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating project rows: %w", err)
	}
	return total, nil
}
