package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "civicdesk/internal/domain/complaint"
	"civicdesk/internal/errs"
	"civicdesk/internal/infrastructure/persistence/sqlstore/model"
	"civicdesk/internal/ports"
)

type NotificationRepository struct {
	db *gorm.DB
}

var _ ports.NotificationRepository = (*NotificationRepository)(nil)

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) CreateNotification(ctx context.Context, input ports.NotificationCreate) (ports.NotificationRecord, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.NotificationRecord{}, err
	}
	if input.RecipientID == 0 {
		return ports.NotificationRecord{}, errors.New("notification recipient is required")
	}

	row := model.Notification{
		RecipientID: input.RecipientID,
		Kind:        string(input.Kind),
		Message:     input.Message,
		ComplaintID: input.ComplaintID,
		IsRead:      false,
		CreatedAt:   input.CreatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.NotificationRecord{}, errs.Wrap(err, "insert notification")
	}
	return mapNotification(row), nil
}

func (r *NotificationRepository) ListNotifications(ctx context.Context, filter ports.NotificationFilter) ([]ports.NotificationRecord, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Notification{}).Where("recipient_citizen_id = ?", filter.RecipientID)
	if filter.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if filter.ComplaintID != nil {
		query = query.Where("complaint_id = ?", *filter.ComplaintID)
	}

	var rows []model.Notification
	if err := query.Order("notification_id desc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query notifications")
	}

	items := make([]ports.NotificationRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapNotification(row))
	}
	return items, nil
}

func (r *NotificationRepository) MarkNotificationRead(ctx context.Context, recipientID uint64, notificationID uint64, readAt string) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	var row model.Notification
	if err := db.
		Where("notification_id = ? AND recipient_citizen_id = ?", notificationID, recipientID).
		Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: id=%d", ports.ErrNotificationNotFound, notificationID)
		}
		return errs.Wrap(err, "query notification")
	}
	if row.IsRead {
		return nil
	}

	if err := db.Model(&model.Notification{}).
		Where("notification_id = ?", notificationID).
		Updates(map[string]any{
			"is_read": true,
			"read_at": readAt,
		}).Error; err != nil {
		return errs.Wrap(err, "mark notification read")
	}
	return nil
}

func (r *NotificationRepository) MarkAllNotificationsRead(ctx context.Context, recipientID uint64, readAt string) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	result := db.Model(&model.Notification{}).
		Where("recipient_citizen_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]any{
			"is_read": true,
			"read_at": readAt,
		})
	if result.Error != nil {
		return 0, errs.Wrap(result.Error, "mark all notifications read")
	}
	return result.RowsAffected, nil
}

func mapNotification(row model.Notification) ports.NotificationRecord {
	return ports.NotificationRecord{
		NotificationID: row.NotificationID,
		RecipientID:    row.RecipientID,
		Kind:           domain.NotificationKind(row.Kind),
		Message:        row.Message,
		ComplaintID:    row.ComplaintID,
		IsRead:         row.IsRead,
		CreatedAt:      row.CreatedAt,
		ReadAt:         row.ReadAt,
	}
}
