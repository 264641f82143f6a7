package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/socialxp/internal/db"
	"github.com/rpggio/socialxp/internal/domain/ledger"
	"github.com/rpggio/socialxp/internal/repository"
)

// MemberRepository implements ledger.MemberRepository for SQLite
type MemberRepository struct {
	db db.DBTX
}

// NewMemberRepository creates a new MemberRepository
func NewMemberRepository(q db.DBTX) *MemberRepository {
	return &MemberRepository{db: q}
}

// Get retrieves a member binding
func (r *MemberRepository) Get(ctx context.Context, projectID, memberID string) (*ledger.Member, error) {
	query := `
		SELECT project_id, member_id, address, updated_at
		FROM members
		WHERE project_id = ? AND member_id = ?
	`

	var (
		m         ledger.Member
		updatedAt sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, projectID, memberID).Scan(
		&m.ProjectID,
		&m.MemberID,
		&m.Address,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	m.UpdatedAt = parseNullableTime(updatedAt)
	return &m, nil
}

// Save inserts or replaces a member binding
func (r *MemberRepository) Save(ctx context.Context, m *ledger.Member) error {
	query := `
		INSERT INTO members (project_id, member_id, address, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(project_id, member_id) DO UPDATE SET
			address = excluded.address,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		m.ProjectID,
		m.MemberID,
		string(m.Address),
		m.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save member: %w", err)
	}
	return nil
}
