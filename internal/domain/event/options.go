package event

// ListOptions provides filtering options for listing events.
type ListOptions struct {
	ProjectID string
	Name      *Name
	AfterSeq  int64
	Limit     int
}
