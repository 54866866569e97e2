package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"civicdesk/internal/bootstrap/logging"
	domain "civicdesk/internal/domain/complaint"
	"civicdesk/internal/errs"
	"civicdesk/internal/infrastructure/metrics"
	"civicdesk/internal/ports"
)

const minDeliveryAttempts = 2

var ErrDeliveryFailed = errs.New(errs.KindDegraded, "notification delivery failed")

// Dispatcher turns committed complaint events into owner notifications.
// Anonymous complaints never produce any.
type Dispatcher struct {
	repo          ports.NotificationRepository
	attempts      int
	now           func() time.Time
	retryInterval time.Duration
}

var _ ports.ComplaintEventHandler = (*Dispatcher)(nil)

// NewDispatcher stores each notification with up to attempts tries; fewer
// than two is raised to two.
func NewDispatcher(repo ports.NotificationRepository, attempts int) *Dispatcher {
	if attempts < minDeliveryAttempts {
		attempts = minDeliveryAttempts
	}
	return &Dispatcher{
		repo:          repo,
		attempts:      attempts,
		now:           time.Now,
		retryInterval: 20 * time.Millisecond,
	}
}

func (d *Dispatcher) Name() string {
	return "notification"
}

func (d *Dispatcher) HandleComplaintEvent(ctx context.Context, event ports.ComplaintEvent) error {
	switch event.Kind {
	case ports.ComplaintCreated:
		return d.NotifyOnCreation(ctx, event.Owner, event.ComplaintID, event.TrackingCode)
	case ports.ComplaintTransitioned:
		return d.NotifyOnTransition(ctx, event.Owner, event.ComplaintID, event.TrackingCode, event.To)
	default:
		return nil
	}
}

func (d *Dispatcher) NotifyOnCreation(ctx context.Context, owner domain.Owner, complaintID uint64, trackingCode string) error {
	recipient, ok := owner.CitizenID()
	if !ok {
		return nil
	}

	kind, message := domain.NotificationForCreation(trackingCode)
	return d.deliver(ctx, recipient, complaintID, kind, message)
}

func (d *Dispatcher) NotifyOnTransition(ctx context.Context, owner domain.Owner, complaintID uint64, trackingCode string, newStatus domain.Status) error {
	recipient, ok := owner.CitizenID()
	if !ok {
		return nil
	}

	kind, message, notify := domain.NotificationForTransition(trackingCode, newStatus)
	if !notify {
		return nil
	}
	return d.deliver(ctx, recipient, complaintID, kind, message)
}

func (d *Dispatcher) deliver(ctx context.Context, recipient uint64, complaintID uint64, kind domain.NotificationKind, message string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if d.repo == nil {
		return errors.New("notification repository is required")
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.notification"),
		slog.Uint64("recipient_id", recipient),
		slog.String("notification_kind", string(kind)),
	)

	var linked *uint64
	if complaintID != 0 {
		id := complaintID
		linked = &id
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = d.retryInterval
	exp.MaxInterval = 10 * d.retryInterval

	tries := 0
	_, err := backoff.Retry(ctx, func() (ports.NotificationRecord, error) {
		tries++
		record, err := d.repo.CreateNotification(ctx, ports.NotificationCreate{
			RecipientID: recipient,
			Kind:        kind,
			Message:     message,
			ComplaintID: linked,
			CreatedAt:   d.now().UTC().Format(time.RFC3339Nano),
		})
		if err != nil && tries < d.attempts {
			logging.Warn(logCtx, "notification store failed, retrying", slog.Int("attempt", tries), slog.Any("err", errs.Loggable(err)))
		}
		return record, err
	}, backoff.WithBackOff(exp), backoff.WithMaxTries(uint(d.attempts)))
	if err != nil {
		metrics.NotificationDeliveryFailuresTotal.Inc()
		return fmt.Errorf("%w after %d attempts: %w", ErrDeliveryFailed, tries, err)
	}

	metrics.NotificationsCreatedTotal.WithLabelValues(string(kind)).Inc()
	return nil
}
