package complaint

import (
	"context"
	"log/slog"

	"civicdesk/internal/bootstrap/logging"
	"civicdesk/internal/errs"
	"civicdesk/internal/infrastructure/metrics"
	"civicdesk/internal/ports"
)

// dispatch hands a committed event to every hook. Hook failures are logged
// and counted; the lifecycle change they follow is already durable.
func (s *Service) dispatch(ctx context.Context, event ports.ComplaintEvent) {
	if len(s.hooks) == 0 {
		return
	}

	hookCtx := context.WithoutCancel(ctx)
	for _, hook := range s.hooks {
		if hook == nil {
			continue
		}
		if err := hook.HandleComplaintEvent(hookCtx, event); err != nil {
			metrics.EventHandlerFailuresTotal.WithLabelValues(hook.Name(), string(event.Kind)).Inc()
			logging.Error(
				logging.WithAttrs(hookCtx, slog.String("component", "usecase.complaint.events")),
				"complaint event handler failed",
				slog.String("handler", hook.Name()),
				slog.String("event", string(event.Kind)),
				slog.String("tracking_code", event.TrackingCode),
				slog.String("kind", string(errs.KindDegraded)),
				slog.Any("err", errs.Loggable(err)),
			)
		}
	}
}
