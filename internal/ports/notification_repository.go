package ports

import (
	"context"

	domain "civicdesk/internal/domain/complaint"
	"civicdesk/internal/errs"
)

var ErrNotificationNotFound = errs.New(errs.KindNotFound, "notification not found")

type NotificationRecord struct {
	NotificationID uint64
	RecipientID    uint64
	Kind           domain.NotificationKind
	Message        string
	ComplaintID    *uint64
	IsRead         bool
	CreatedAt      string
	ReadAt         *string
}

type NotificationCreate struct {
	RecipientID uint64
	Kind        domain.NotificationKind
	Message     string
	ComplaintID *uint64
	CreatedAt   string
}

type NotificationFilter struct {
	RecipientID uint64
	UnreadOnly  bool
	ComplaintID *uint64
}

type NotificationRepository interface {
	CreateNotification(ctx context.Context, input NotificationCreate) (NotificationRecord, error)
	ListNotifications(ctx context.Context, filter NotificationFilter) ([]NotificationRecord, error)
	// MarkNotificationRead returns ErrNotificationNotFound when the id does not
	// belong to the recipient.
	MarkNotificationRead(ctx context.Context, recipientID uint64, notificationID uint64, readAt string) error
	MarkAllNotificationsRead(ctx context.Context, recipientID uint64, readAt string) (int64, error)
}
