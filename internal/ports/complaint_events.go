package ports

import (
	"context"

	domain "civicdesk/internal/domain/complaint"
)

type ComplaintEventKind string

const (
	ComplaintCreated      ComplaintEventKind = "created"
	ComplaintTransitioned ComplaintEventKind = "transitioned"
)

// ComplaintEvent describes a committed lifecycle change.
type ComplaintEvent struct {
	Kind         ComplaintEventKind
	ComplaintID  uint64
	TrackingCode string
	Owner        domain.Owner
	From         domain.Status
	To           domain.Status
	Actor        *string
	Observation  string
	OccurredAt   string
}

// ComplaintEventHandler runs after the lifecycle change has committed.
// Returned errors are logged by the caller and never undo the change.
type ComplaintEventHandler interface {
	Name() string
	HandleComplaintEvent(ctx context.Context, event ComplaintEvent) error
}
