package complaint

import (
	"context"
	"errors"

	domain "civicdesk/internal/domain/complaint"
	"civicdesk/internal/errs"
	"civicdesk/internal/ports"
)

const defaultQueueLimit = 50

type QueueQuery struct {
	Status         string
	JurisdictionID *uint64
	Limit          int
}

// QueueItem is the authority-side view of a pending complaint.
type QueueItem struct {
	ComplaintID    uint64
	TrackingCode   string
	Category       string
	Description    string
	District       string
	JurisdictionID *uint64
	Status         domain.Status
	CreatedAt      string
	UpdatedAt      string
}

// ListQueue returns complaints waiting in one status, oldest first. An empty
// status means RECEIVED.
func (s *Service) ListQueue(ctx context.Context, query QueueQuery) ([]QueueItem, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return nil, errRepoRequired
	}

	status := domain.StatusReceived
	if query.Status != "" {
		parsed, err := domain.ParseStatus(query.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultQueueLimit
	}

	complaints, err := s.repo.ListComplaintQueue(ctx, ports.QueueFilter{
		Status:         status,
		JurisdictionID: query.JurisdictionID,
		Limit:          limit,
	})
	if err != nil {
		return nil, err
	}

	items := make([]QueueItem, 0, len(complaints))
	for _, complaint := range complaints {
		items = append(items, QueueItem{
			ComplaintID:    complaint.ComplaintID,
			TrackingCode:   complaint.TrackingCode,
			Category:       complaint.CategoryKey,
			Description:    complaint.Description,
			District:       complaint.Location.District,
			JurisdictionID: complaint.JurisdictionID,
			Status:         complaint.Status,
			CreatedAt:      complaint.CreatedAt,
			UpdatedAt:      complaint.UpdatedAt,
		})
	}
	return items, nil
}
