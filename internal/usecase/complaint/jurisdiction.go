package complaint

import (
	"context"
	"log/slog"
	"sort"

	"civicdesk/internal/bootstrap/logging"
	domain "civicdesk/internal/domain/complaint"
	"civicdesk/internal/errs"
	"civicdesk/internal/infrastructure/metrics"
	"civicdesk/internal/ports"
)

const (
	resolutionAssigned   = "assigned"
	resolutionUnassigned = "unassigned"
	resolutionAmbiguous  = "ambiguous"
	resolutionDegraded   = "degraded"
)

type directoryResult struct {
	matches []ports.Jurisdiction
	err     error
}

// resolveJurisdiction picks the owning jurisdiction for a declared district.
// It never fails: lookup errors, timeouts and empty results leave the
// complaint unassigned, several matches pick the lowest id.
func (s *Service) resolveJurisdiction(ctx context.Context, district string) *uint64 {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.complaint.resolver"))

	key := domain.NormalizeDistrict(district)
	if key == "" || s.directory == nil {
		metrics.JurisdictionResolutionsTotal.WithLabelValues(resolutionUnassigned).Inc()
		return nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.opts.ResolveTimeout)
	defer cancel()

	done := make(chan directoryResult, 1)
	go func() {
		matches, err := s.directory.FindActiveJurisdictions(lookupCtx, key)
		done <- directoryResult{matches: matches, err: err}
	}()

	var result directoryResult
	select {
	case result = <-done:
	case <-lookupCtx.Done():
		result = directoryResult{err: errs.Wrap(lookupCtx.Err(), "jurisdiction lookup")}
	}

	if result.err != nil {
		metrics.JurisdictionResolutionsTotal.WithLabelValues(resolutionDegraded).Inc()
		logging.Warn(
			logCtx,
			"jurisdiction lookup degraded, complaint left unassigned",
			slog.String("kind", string(errs.KindDegraded)),
			slog.String("district", key),
			slog.Any("err", errs.Loggable(result.err)),
		)
		return nil
	}

	active := make([]ports.Jurisdiction, 0, len(result.matches))
	for _, candidate := range result.matches {
		if candidate.Active {
			active = append(active, candidate)
		}
	}

	switch len(active) {
	case 0:
		metrics.JurisdictionResolutionsTotal.WithLabelValues(resolutionUnassigned).Inc()
		return nil
	case 1:
		metrics.JurisdictionResolutionsTotal.WithLabelValues(resolutionAssigned).Inc()
		id := active[0].JurisdictionID
		return &id
	}

	sort.Slice(active, func(i, j int) bool {
		return active[i].JurisdictionID < active[j].JurisdictionID
	})
	ids := make([]uint64, 0, len(active))
	for _, candidate := range active {
		ids = append(ids, candidate.JurisdictionID)
	}
	metrics.JurisdictionResolutionsTotal.WithLabelValues(resolutionAmbiguous).Inc()
	logging.Warn(
		logCtx,
		"several active jurisdictions share a district, picking the lowest id",
		slog.String("district", key),
		slog.Any("jurisdiction_ids", ids),
	)

	id := active[0].JurisdictionID
	return &id
}
