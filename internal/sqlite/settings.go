package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/socialxp/internal/db"
	"github.com/rpggio/socialxp/internal/domain/ledger"
	"github.com/rpggio/socialxp/internal/repository"
)

const (
	settingFees  = "fees"
	settingAdmin = "admin"
)

// SettingsRepository implements ledger.SettingsRepository for SQLite
type SettingsRepository struct {
	db db.DBTX
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(q db.DBTX) *SettingsRepository {
	return &SettingsRepository{db: q}
}

// Fees returns the stored fee schedule
func (r *SettingsRepository) Fees(ctx context.Context) (*ledger.FeeSchedule, error) {
	var fees ledger.FeeSchedule
	if err := r.get(ctx, settingFees, &fees); err != nil {
		return nil, err
	}
	return &fees, nil
}

// SaveFees replaces the stored fee schedule
func (r *SettingsRepository) SaveFees(ctx context.Context, fees ledger.FeeSchedule) error {
	return r.put(ctx, settingFees, fees)
}

// Admin returns the stored administrative owner
func (r *SettingsRepository) Admin(ctx context.Context) (*ledger.Admin, error) {
	var admin ledger.Admin
	if err := r.get(ctx, settingAdmin, &admin); err != nil {
		return nil, err
	}
	return &admin, nil
}

// SaveAdmin replaces the stored administrative owner
func (r *SettingsRepository) SaveAdmin(ctx context.Context, admin ledger.Admin) error {
	return r.put(ctx, settingAdmin, admin)
}

func (r *SettingsRepository) get(ctx context.Context, key string, dst any) error {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(value), dst); err != nil {
		return fmt.Errorf("failed to decode setting %s: %w", key, err)
	}
	return nil
}

func (r *SettingsRepository) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode setting %s: %w", key, err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(data), time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}
