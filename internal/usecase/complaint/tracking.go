package complaint

import (
	"context"

	domain "civicdesk/internal/domain/complaint"
)

// nextTrackingCode derives the next code for year from the number of
// complaints already stored in it. It must run inside the intake transaction
// so that the count and the insert see the same snapshot; the unique index
// on tracking_code rejects the loser of a race.
func (s *Service) nextTrackingCode(txCtx context.Context, year int) (string, error) {
	count, err := s.repo.CountComplaintsInYear(txCtx, year)
	if err != nil {
		return "", err
	}
	return domain.FormatTrackingCode(s.opts.TrackingPrefix, year, count+1), nil
}
