package complaint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"civicdesk/internal/bootstrap/logging"
	domain "civicdesk/internal/domain/complaint"
	"civicdesk/internal/errs"
	"civicdesk/internal/infrastructure/metrics"
	"civicdesk/internal/ports"
)

var errCitizenRequired = errs.New(errs.KindValidation, "citizen id is required")

// GetByTrackingCode returns the public view of a complaint. Anyone holding
// the code may call it, so the view never carries owner or internal id.
func (s *Service) GetByTrackingCode(ctx context.Context, trackingCode string) (PublicComplaintView, error) {
	if ctx == nil {
		return PublicComplaintView{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return PublicComplaintView{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return PublicComplaintView{}, errRepoRequired
	}

	if _, err := domain.ParseTrackingCode(trackingCode); err != nil {
		return PublicComplaintView{}, err
	}
	code := strings.ToUpper(strings.TrimSpace(trackingCode))

	complaint, err := s.repo.GetComplaintByTrackingCode(ctx, code)
	if err != nil {
		return PublicComplaintView{}, err
	}
	// Entries are keyed by version, so a view built from an older row is
	// never served once a transition has committed.
	key := cachePublicViewKey(complaint.TrackingCode, complaint.Version)
	if view, ok := s.cachedPublicView(ctx, key); ok {
		return view, nil
	}

	transitions, err := s.repo.ListTransitions(ctx, complaint.ComplaintID)
	if err != nil {
		return PublicComplaintView{}, err
	}

	view := buildPublicView(complaint, transitions)
	s.storePublicView(ctx, key, view)
	return view, nil
}

// ListForOwner returns the citizen's complaints, newest first.
func (s *Service) ListForOwner(ctx context.Context, citizenID uint64) ([]ComplaintSummary, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return nil, errRepoRequired
	}
	if citizenID == 0 {
		return nil, errCitizenRequired
	}

	complaints, err := s.repo.ListComplaintsByOwner(ctx, citizenID)
	if err != nil {
		return nil, err
	}

	items := make([]ComplaintSummary, 0, len(complaints))
	for _, complaint := range complaints {
		items = append(items, ComplaintSummary{
			TrackingCode: complaint.TrackingCode,
			Category:     complaint.CategoryKey,
			District:     complaint.Location.District,
			Status:       complaint.Status,
			CreatedAt:    complaint.CreatedAt,
			UpdatedAt:    complaint.UpdatedAt,
		})
	}
	return items, nil
}

// History returns the full audit trail of a complaint, actors included.
func (s *Service) History(ctx context.Context, complaintID uint64) ([]HistoryItem, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return nil, errRepoRequired
	}

	if _, err := s.repo.GetComplaint(ctx, complaintID); err != nil {
		return nil, err
	}
	transitions, err := s.repo.ListTransitions(ctx, complaintID)
	if err != nil {
		return nil, err
	}

	items := make([]HistoryItem, 0, len(transitions))
	for _, transition := range transitions {
		items = append(items, HistoryItem{
			TransitionID: transition.TransitionID,
			Actor:        derefString(transition.Actor),
			From:         transition.FromStatus,
			To:           transition.ToStatus,
			Observation:  transition.Observation,
			CreatedAt:    transition.CreatedAt,
		})
	}
	return items, nil
}

// VerifyAuditTrail replays the stored transitions of a complaint and reports
// whether they reproduce its current status.
func (s *Service) VerifyAuditTrail(ctx context.Context, complaintID uint64) (domain.Status, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}
	if s.repo == nil {
		return "", errRepoRequired
	}

	complaint, err := s.repo.GetComplaint(ctx, complaintID)
	if err != nil {
		return "", err
	}
	transitions, err := s.repo.ListTransitions(ctx, complaintID)
	if err != nil {
		return "", err
	}

	targets := make([]domain.Status, 0, len(transitions))
	for _, transition := range transitions {
		targets = append(targets, transition.ToStatus)
	}
	replayed, err := domain.Replay(targets)
	if err != nil {
		return replayed, err
	}
	if replayed != complaint.Status {
		return replayed, fmt.Errorf("audit trail of complaint %d replays to %s, stored status is %s", complaintID, replayed, complaint.Status)
	}
	return replayed, nil
}

func buildPublicView(complaint ports.ComplaintRecord, transitions []ports.TransitionRecord) PublicComplaintView {
	timeline := make([]TimelineEntry, 0, len(transitions)+1)
	timeline = append(timeline, TimelineEntry{
		Status: domain.StatusReceived,
		At:     complaint.CreatedAt,
	})
	for _, transition := range transitions {
		timeline = append(timeline, TimelineEntry{
			Status:      transition.ToStatus,
			Observation: transition.Observation,
			At:          transition.CreatedAt,
		})
	}

	return PublicComplaintView{
		TrackingCode: complaint.TrackingCode,
		Category:     complaint.CategoryKey,
		Description:  complaint.Description,
		District:     complaint.Location.District,
		Address:      derefString(complaint.Location.Address),
		Reference:    derefString(complaint.Location.Reference),
		Status:       complaint.Status,
		Assigned:     complaint.JurisdictionID != nil,
		CreatedAt:    complaint.CreatedAt,
		UpdatedAt:    complaint.UpdatedAt,
		Timeline:     timeline,
	}
}

func cachePublicViewKey(trackingCode string, version uint64) string {
	return fmt.Sprintf("complaint:public:%s:v%d", trackingCode, version)
}

func (s *Service) cachedPublicView(ctx context.Context, key string) (PublicComplaintView, bool) {
	if s.cache == nil {
		return PublicComplaintView{}, false
	}

	raw, found, err := s.cache.Get(ctx, key)
	if err != nil {
		s.cacheFailed(ctx, "get", key, err)
		return PublicComplaintView{}, false
	}
	if !found {
		return PublicComplaintView{}, false
	}

	var view PublicComplaintView
	if err := json.Unmarshal([]byte(raw), &view); err != nil {
		s.cacheFailed(ctx, "decode", key, err)
		return PublicComplaintView{}, false
	}
	return view, true
}

func (s *Service) storePublicView(ctx context.Context, key string, view PublicComplaintView) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(view)
	if err != nil {
		s.cacheFailed(ctx, "encode", key, err)
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.opts.PublicViewTTL); err != nil {
		s.cacheFailed(ctx, "set", key, err)
	}
}

// invalidatePublicView drops the view cached for a superseded version.
func (s *Service) invalidatePublicView(ctx context.Context, trackingCode string, version uint64) {
	if s.cache == nil {
		return
	}

	key := cachePublicViewKey(trackingCode, version)
	if err := s.cache.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.cacheFailed(ctx, "delete", key, err)
	}
}

func (s *Service) cacheFailed(ctx context.Context, op string, key string, err error) {
	metrics.CacheErrorsTotal.WithLabelValues(op).Inc()
	logging.Warn(
		logging.WithAttrs(ctx, slog.String("component", "usecase.complaint.cache")),
		"public view cache operation failed",
		slog.String("op", op),
		slog.String("key", key),
		slog.Any("err", errs.Loggable(err)),
	)
}
