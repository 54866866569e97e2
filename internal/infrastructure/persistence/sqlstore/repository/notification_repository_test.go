package repository

import (
	"context"
	"errors"
	"testing"

	domain "civicdesk/internal/domain/complaint"
	"civicdesk/internal/ports"
)

func TestNotificationReadFlags(t *testing.T) {
	repo := NewNotificationRepository(setupDB(t))
	ctx := context.Background()

	var ids []uint64
	for _, recipient := range []uint64{42, 42, 42, 7} {
		row, err := repo.CreateNotification(ctx, ports.NotificationCreate{
			RecipientID: recipient,
			Kind:        domain.NotificationGeneric,
			Message:     "status changed",
			CreatedAt:   "2026-10-16T10:00:00Z",
		})
		if err != nil {
			t.Fatalf("CreateNotification() error = %v", err)
		}
		ids = append(ids, row.NotificationID)
	}

	items, err := repo.ListNotifications(ctx, ports.NotificationFilter{RecipientID: 42})
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(items) != 3 || items[0].NotificationID != ids[2] {
		t.Fatalf("ListNotifications() = %#v", items)
	}

	if err := repo.MarkNotificationRead(ctx, 42, ids[0], "2026-10-16T11:00:00Z"); err != nil {
		t.Fatalf("MarkNotificationRead() error = %v", err)
	}
	if err := repo.MarkNotificationRead(ctx, 42, ids[3], "2026-10-16T11:00:00Z"); !errors.Is(err, ports.ErrNotificationNotFound) {
		t.Fatalf("MarkNotificationRead(other recipient) error = %v, want ErrNotificationNotFound", err)
	}

	unread, err := repo.ListNotifications(ctx, ports.NotificationFilter{RecipientID: 42, UnreadOnly: true})
	if err != nil {
		t.Fatalf("ListNotifications(unread) error = %v", err)
	}
	if len(unread) != 2 {
		t.Fatalf("unread = %d, want 2", len(unread))
	}

	changed, err := repo.MarkAllNotificationsRead(ctx, 42, "2026-10-16T12:00:00Z")
	if err != nil {
		t.Fatalf("MarkAllNotificationsRead() error = %v", err)
	}
	if changed != 2 {
		t.Fatalf("changed = %d, want 2", changed)
	}

	others, err := repo.ListNotifications(ctx, ports.NotificationFilter{RecipientID: 7, UnreadOnly: true})
	if err != nil {
		t.Fatalf("ListNotifications(7) error = %v", err)
	}
	if len(others) != 1 {
		t.Fatalf("other recipient unread = %d, want 1", len(others))
	}
}

func TestCreateNotificationRequiresRecipient(t *testing.T) {
	repo := NewNotificationRepository(setupDB(t))
	if _, err := repo.CreateNotification(context.Background(), ports.NotificationCreate{Message: "x"}); err == nil {
		t.Fatalf("CreateNotification() error = nil, want error")
	}
}
