package complaint

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"civicdesk/internal/bootstrap/logging"
	domain "civicdesk/internal/domain/complaint"
	"civicdesk/internal/errs"
	"civicdesk/internal/infrastructure/metrics"
	"civicdesk/internal/ports"
)

type appliedTransition struct {
	complaint  ports.ComplaintRecord
	transition ports.TransitionRecord
}

// TransitionComplaint moves a complaint to a new status. The status update
// and the audit entry commit in one transaction; an illegal request leaves
// both untouched. A request that loses a race re-reads the complaint and is
// evaluated again against its new status.
func (s *Service) TransitionComplaint(ctx context.Context, input TransitionInput) (TransitionResult, error) {
	if ctx == nil {
		return TransitionResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return TransitionResult{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return TransitionResult{}, errRepoRequired
	}
	if s.uow == nil {
		return TransitionResult{}, errUOWRequired
	}

	target, err := domain.ParseStatus(input.Target)
	if err != nil {
		return TransitionResult{}, err
	}
	observation := strings.TrimSpace(input.Observation)
	actor := optionalString(strings.TrimSpace(input.Actor))

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.complaint"),
		slog.Uint64("complaint_id", input.ComplaintID),
		slog.String("to", string(target)),
	)

	applied, err := retryConflicts(ctx, s.newBackOff(), s.opts.TransitionAttempts, func(err error) {
		metrics.TransitionRetriesTotal.Inc()
		logging.Warn(logCtx, "concurrent transition detected, re-evaluating", slog.Any("err", errs.Loggable(err)))
	}, func() (appliedTransition, error) {
		return s.applyTransition(ctx, input.ComplaintID, target, actor, observation)
	})
	if err != nil {
		metrics.TransitionsTotal.WithLabelValues(string(target), transitionResultLabel(err)).Inc()
		return TransitionResult{}, err
	}
	metrics.TransitionsTotal.WithLabelValues(string(target), "applied").Inc()

	complaint := applied.complaint
	s.invalidatePublicView(ctx, complaint.TrackingCode, complaint.Version)
	logging.Info(logCtx, "complaint transitioned",
		slog.String("tracking_code", complaint.TrackingCode),
		slog.String("from", string(complaint.Status)),
	)

	s.dispatch(ctx, ports.ComplaintEvent{
		Kind:         ports.ComplaintTransitioned,
		ComplaintID:  complaint.ComplaintID,
		TrackingCode: complaint.TrackingCode,
		Owner:        complaint.Owner,
		From:         complaint.Status,
		To:           target,
		Actor:        actor,
		Observation:  observation,
		OccurredAt:   applied.transition.CreatedAt,
	})

	return TransitionResult{
		ComplaintID:  complaint.ComplaintID,
		TrackingCode: complaint.TrackingCode,
		TransitionID: applied.transition.TransitionID,
		From:         complaint.Status,
		To:           target,
		CreatedAt:    applied.transition.CreatedAt,
	}, nil
}

// applyTransition returns the complaint as it was before the change.
func (s *Service) applyTransition(ctx context.Context, complaintID uint64, target domain.Status, actor *string, observation string) (appliedTransition, error) {
	var applied appliedTransition
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetComplaint(txCtx, complaintID)
		if err != nil {
			return err
		}
		if err := domain.CheckTransition(current.Status, target, observation); err != nil {
			return err
		}

		now := formatTimestamp(s.nowUTC())
		if err := s.repo.UpdateComplaintStatus(txCtx, ports.StatusUpdate{
			ComplaintID:     complaintID,
			From:            current.Status,
			To:              target,
			ExpectedVersion: current.Version,
			UpdatedAt:       now,
		}); err != nil {
			return err
		}

		transition, err := s.repo.AppendTransition(txCtx, ports.TransitionCreate{
			ComplaintID: complaintID,
			Actor:       actor,
			FromStatus:  current.Status,
			ToStatus:    target,
			Observation: observation,
			CreatedAt:   now,
		})
		if err != nil {
			return err
		}

		applied = appliedTransition{complaint: current, transition: transition}
		return nil
	})
	return applied, err
}

func transitionResultLabel(err error) string {
	switch errs.KindOf(err) {
	case errs.KindIllegalTransition:
		return "illegal"
	case errs.KindValidation:
		return "invalid"
	case errs.KindNotFound:
		return "not_found"
	case errs.KindConflict:
		return "conflict"
	default:
		return "error"
	}
}
