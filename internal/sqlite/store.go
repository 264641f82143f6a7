package sqlite

import (
	"context"
	"fmt"

	"github.com/rpggio/socialxp/internal/db"
	"github.com/rpggio/socialxp/internal/domain/ledger"
)

// Store implements ledger.Store on SQLite transactions.
type Store struct {
	db *DB
}

// NewStore creates a new Store
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Repositories binds every ledger repository to q.
func Repositories(q db.DBTX) ledger.Repositories {
	return ledger.Repositories{
		Projects: NewProjectRepository(q),
		Members:  NewMemberRepository(q),
		Holders:  NewHolderRepository(q),
		Settings: NewSettingsRepository(q),
		Events:   NewEventRepository(q),
	}
}

// WithinTx runs fn in one transaction, committing only if fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos ledger.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, Repositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
