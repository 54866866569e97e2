package ports

import (
	"context"

	domain "civicdesk/internal/domain/complaint"
	"civicdesk/internal/errs"
)

var (
	ErrComplaintNotFound = errs.New(errs.KindNotFound, "complaint not found")
	ErrTrackingCodeTaken = errs.New(errs.KindConflict, "tracking code already taken")
	ErrStaleComplaint    = errs.New(errs.KindConflict, "complaint was modified concurrently")
)

type Location struct {
	Latitude  float64
	Longitude float64
	District  string
	Address   *string
	Reference *string
}

type ComplaintRecord struct {
	ComplaintID    uint64
	TrackingCode   string
	TrackingYear   int
	CategoryKey    string
	Description    string
	Location       Location
	VehiclePlate   *string
	EvidenceRefs   []string
	Owner          domain.Owner
	JurisdictionID *uint64
	Status         domain.Status
	Version        uint64
	CreatedAt      string
	UpdatedAt      string
}

type StatusUpdate struct {
	ComplaintID     uint64
	From            domain.Status
	To              domain.Status
	ExpectedVersion uint64
	UpdatedAt       string
}

type TransitionRecord struct {
	TransitionID uint64
	ComplaintID  uint64
	Actor        *string
	FromStatus   domain.Status
	ToStatus     domain.Status
	Observation  string
	CreatedAt    string
}

type TransitionCreate struct {
	ComplaintID uint64
	Actor       *string
	FromStatus  domain.Status
	ToStatus    domain.Status
	Observation string
	CreatedAt   string
}

type QueueFilter struct {
	Status         domain.Status
	JurisdictionID *uint64
	Limit          int
}

type ComplaintReadRepository interface {
	GetComplaint(ctx context.Context, complaintID uint64) (ComplaintRecord, error)
	GetComplaintByTrackingCode(ctx context.Context, trackingCode string) (ComplaintRecord, error)
	ListComplaintsByOwner(ctx context.Context, citizenID uint64) ([]ComplaintRecord, error)
	ListComplaintQueue(ctx context.Context, filter QueueFilter) ([]ComplaintRecord, error)
	CountComplaintsInYear(ctx context.Context, year int) (int64, error)
	ListTransitions(ctx context.Context, complaintID uint64) ([]TransitionRecord, error)
}

// ComplaintRepository persists complaints and their append-only transition log.
// There is intentionally no way to edit or delete a transition.
type ComplaintRepository interface {
	ComplaintReadRepository
	// CreateComplaint returns ErrTrackingCodeTaken when the code collides.
	CreateComplaint(ctx context.Context, record ComplaintRecord) (ComplaintRecord, error)
	// UpdateComplaintStatus returns ErrStaleComplaint when status or version moved.
	UpdateComplaintStatus(ctx context.Context, update StatusUpdate) error
	AppendTransition(ctx context.Context, input TransitionCreate) (TransitionRecord, error)
}
