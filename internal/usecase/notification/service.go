package notification

import (
	"context"
	"errors"
	"time"

	domain "civicdesk/internal/domain/complaint"
	"civicdesk/internal/errs"
	"civicdesk/internal/ports"
)

var errCitizenRequired = errs.New(errs.KindValidation, "citizen id is required")

// Service is the citizen-facing notification inbox.
type Service struct {
	repo ports.NotificationRepository
	now  func() time.Time
}

func NewService(repo ports.NotificationRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

type Item struct {
	NotificationID uint64
	Kind           domain.NotificationKind
	Message        string
	ComplaintID    *uint64
	IsRead         bool
	CreatedAt      string
	ReadAt         string
}

// ListForCitizen returns the citizen's notifications, newest first.
func (s *Service) ListForCitizen(ctx context.Context, citizenID uint64, unreadOnly bool) ([]Item, error) {
	if err := s.check(ctx, citizenID); err != nil {
		return nil, err
	}

	records, err := s.repo.ListNotifications(ctx, ports.NotificationFilter{
		RecipientID: citizenID,
		UnreadOnly:  unreadOnly,
	})
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(records))
	for _, record := range records {
		item := Item{
			NotificationID: record.NotificationID,
			Kind:           record.Kind,
			Message:        record.Message,
			ComplaintID:    record.ComplaintID,
			IsRead:         record.IsRead,
			CreatedAt:      record.CreatedAt,
		}
		if record.ReadAt != nil {
			item.ReadAt = *record.ReadAt
		}
		items = append(items, item)
	}
	return items, nil
}

// MarkRead flags one of the citizen's own notifications as read.
func (s *Service) MarkRead(ctx context.Context, citizenID uint64, notificationID uint64) error {
	if err := s.check(ctx, citizenID); err != nil {
		return err
	}
	return s.repo.MarkNotificationRead(ctx, citizenID, notificationID, s.timestamp())
}

// MarkAllRead flags every unread notification of the citizen and returns how many changed.
func (s *Service) MarkAllRead(ctx context.Context, citizenID uint64) (int64, error) {
	if err := s.check(ctx, citizenID); err != nil {
		return 0, err
	}
	return s.repo.MarkAllNotificationsRead(ctx, citizenID, s.timestamp())
}

func (s *Service) check(ctx context.Context, citizenID uint64) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return errors.New("notification repository is required")
	}
	if citizenID == 0 {
		return errCitizenRequired
	}
	return nil
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}
