package sqlite

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/socialxp/internal/domain/ledger"
)

// ErrUnknownKey indicates a bearer token with no registered caller.
var ErrUnknownKey = errors.New("unauthorized: invalid token")

// APIKeyResolver maps bearer tokens to caller addresses.
type APIKeyResolver struct {
	db *DB
}

// NewAPIKeyResolver creates a new APIKeyResolver
func NewAPIKeyResolver(db *DB) *APIKeyResolver {
	return &APIKeyResolver{db: db}
}

// ResolveCaller returns the address a token was issued to.
func (r *APIKeyResolver) ResolveCaller(ctx context.Context, token string) (ledger.Address, error) {
	hash := HashToken(token)
	var address string
	err := r.db.QueryRowContext(ctx, `SELECT address FROM api_keys WHERE key_hash = ?`, hash).Scan(&address)
	if err != nil || address == "" {
		return "", ErrUnknownKey
	}
	_, _ = r.db.ExecContext(ctx, `UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, time.Now().UTC(), hash)
	return ledger.Address(address), nil
}

// AddKey registers token for address.
func (r *APIKeyResolver) AddKey(ctx context.Context, token string, address ledger.Address, description string) error {
	if token == "" || address.IsZero() {
		return fmt.Errorf("%w: token and address required", ledger.ErrInvalidArgument)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, address, created_at, description) VALUES (?, ?, ?, ?)`,
		HashToken(token), string(address), time.Now().UTC(), description,
	)
	if err != nil {
		return fmt.Errorf("failed to add api key: %w", err)
	}
	return nil
}

// HashToken returns the stored form of a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
