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

// HolderRepository implements ledger.HolderRepository for SQLite
type HolderRepository struct {
	db db.DBTX
}

// NewHolderRepository creates a new HolderRepository
func NewHolderRepository(q db.DBTX) *HolderRepository {
	return &HolderRepository{db: q}
}

// Get retrieves one balance entry
func (r *HolderRepository) Get(ctx context.Context, projectID string, account ledger.Address) (*ledger.Holding, error) {
	query := `
		SELECT account, balance, seq
		FROM holders
		WHERE project_id = ? AND account = ?
	`

	var h ledger.Holding
	err := r.db.QueryRowContext(ctx, query, projectID, string(account)).Scan(&h.Account, &h.Balance, &h.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return &h, nil
}

// Save writes a balance entry. A holding without a sequence number is
// appended after the project's last holder.
func (r *HolderRepository) Save(ctx context.Context, projectID string, h *ledger.Holding) error {
	if h.Seq != 0 {
		result, err := r.db.ExecContext(ctx,
			`UPDATE holders SET balance = ? WHERE project_id = ? AND account = ?`,
			h.Balance, projectID, string(h.Account),
		)
		if err != nil {
			return fmt.Errorf("failed to update holding: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return repository.ErrNotFound
		}
		return nil
	}

	var next int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM holders WHERE project_id = ?`,
		projectID,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("failed to allocate holder seq: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO holders (project_id, account, balance, seq) VALUES (?, ?, ?, ?)`,
		projectID, string(h.Account), h.Balance, next,
	)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to insert holding: %w", err)
	}
	h.Seq = next
	return nil
}

// CountAbove counts the project's holders with a balance strictly above balance
func (r *HolderRepository) CountAbove(ctx context.Context, projectID string, balance uint64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM holders WHERE project_id = ? AND balance > ?`,
		projectID, balance,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count holders: %w", err)
	}
	return count, nil
}

// List returns the project's holders by descending balance, then first-seen order
func (r *HolderRepository) List(ctx context.Context, projectID string, limit int) ([]ledger.Holding, error) {
	query := `
		SELECT account, balance, seq
		FROM holders
		WHERE project_id = ?
		ORDER BY balance DESC, seq ASC
	`
	args := []any{projectID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list holders: %w", err)
	}
	defer rows.Close()

	var holdings []ledger.Holding
	for rows.Next() {
		var h ledger.Holding
		if err := rows.Scan(&h.Account, &h.Balance, &h.Seq); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holder rows: %w", err)
	}
	return holdings, nil
}
