package event

import "context"

// Repository provides persistence operations for events.
type Repository interface {
	Append(ctx context.Context, ev *Event) error
	GetByRequestID(ctx context.Context, requestID string) (*Event, error)
	List(ctx context.Context, opts ListOptions) ([]Event, error)
}
