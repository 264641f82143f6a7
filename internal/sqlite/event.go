package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rpggio/socialxp/internal/db"
	"github.com/rpggio/socialxp/internal/domain/event"
	"github.com/rpggio/socialxp/internal/repository"
)

// EventRepository implements event.Repository for SQLite
type EventRepository struct {
	db db.DBTX
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(q db.DBTX) *EventRepository {
	return &EventRepository{db: q}
}

// Append inserts an event and assigns its sequence number
func (r *EventRepository) Append(ctx context.Context, ev *event.Event) error {
	args, err := json.Marshal(ev.Args)
	if err != nil {
		return fmt.Errorf("failed to encode event args: %w", err)
	}

	query := `
		INSERT INTO events (id, name, project_id, args, request_id, request_digest, tx_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		ev.ID,
		string(ev.Name),
		nullableString(ev.ProjectID),
		string(args),
		nullableString(ev.RequestID),
		nullableString(ev.RequestDigest),
		ev.TxHash,
		ev.CreatedAt.UTC().Format(timeLayout),
	)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read event seq: %w", err)
	}
	ev.Seq = seq
	return nil
}

// GetByRequestID returns the event applied for an idempotency key
func (r *EventRepository) GetByRequestID(ctx context.Context, requestID string) (*event.Event, error) {
	row := r.db.QueryRowContext(ctx, selectEvents+` WHERE request_id = ?`, requestID)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return ev, nil
}

// List returns events matching the given filters, newest first
func (r *EventRepository) List(ctx context.Context, opts event.ListOptions) ([]event.Event, error) {
	query := selectEvents + ` WHERE seq > ?`
	args := []any{opts.AfterSeq}

	if opts.ProjectID != "" {
		query += " AND project_id = ?"
		args = append(args, opts.ProjectID)
	}
	if opts.Name != nil {
		query += " AND name = ?"
		args = append(args, string(*opts.Name))
	}

	query += " ORDER BY seq DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return events, nil
}

const selectEvents = `
		SELECT seq, id, name, project_id, args, request_id, request_digest, tx_hash, created_at
		FROM events`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*event.Event, error) {
	var (
		ev        event.Event
		projectID sql.NullString
		args      string
		requestID sql.NullString
		digest    sql.NullString
		createdAt sql.NullString
	)
	if err := row.Scan(&ev.Seq, &ev.ID, &ev.Name, &projectID, &args, &requestID, &digest, &ev.TxHash, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(args), &ev.Args); err != nil {
		return nil, fmt.Errorf("decoding event args: %w", err)
	}
	ev.ProjectID = projectID.String
	ev.RequestID = requestID.String
	ev.RequestDigest = digest.String
	ev.CreatedAt = parseNullableTime(createdAt)
	return &ev, nil
}
