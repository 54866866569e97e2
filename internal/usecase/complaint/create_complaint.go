package complaint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"civicdesk/internal/bootstrap/logging"
	domain "civicdesk/internal/domain/complaint"
	"civicdesk/internal/errs"
	"civicdesk/internal/infrastructure/metrics"
	"civicdesk/internal/ports"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CreateComplaint admits a complaint in RECEIVED with a fresh tracking code.
// Validation happens before anything is written; tracking code collisions
// are retried with a recomputed count.
func (s *Service) CreateComplaint(ctx context.Context, input IntakeInput) (IntakeResult, error) {
	if ctx == nil {
		return IntakeResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return IntakeResult{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return IntakeResult{}, errRepoRequired
	}
	if s.uow == nil {
		return IntakeResult{}, errUOWRequired
	}

	input = normalizeIntake(input)
	if err := validateIntake(input); err != nil {
		return IntakeResult{}, err
	}
	if err := s.checkCategory(ctx, input.CategoryKey); err != nil {
		return IntakeResult{}, err
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.complaint"),
		slog.String("owner", input.Owner.String()),
	)

	jurisdictionID := s.resolveJurisdiction(ctx, input.District)

	created, err := retryConflicts(ctx, s.newBackOff(), s.opts.CodeAttempts, func(err error) {
		metrics.TrackingCodeRetriesTotal.Inc()
		logging.Warn(logCtx, "tracking code collision, retrying intake", slog.Any("err", errs.Loggable(err)))
	}, func() (ports.ComplaintRecord, error) {
		return s.insertComplaint(ctx, input, jurisdictionID)
	})
	if err != nil {
		return IntakeResult{}, err
	}

	ownership := "anonymous"
	if !created.Owner.IsAnonymous() {
		ownership = "identified"
	}
	metrics.ComplaintsCreatedTotal.WithLabelValues(ownership).Inc()
	logging.Info(logCtx, "complaint created",
		slog.String("tracking_code", created.TrackingCode),
		slog.Bool("jurisdiction_assigned", created.JurisdictionID != nil),
	)

	s.dispatch(ctx, ports.ComplaintEvent{
		Kind:         ports.ComplaintCreated,
		ComplaintID:  created.ComplaintID,
		TrackingCode: created.TrackingCode,
		Owner:        created.Owner,
		To:           created.Status,
		OccurredAt:   created.CreatedAt,
	})

	return IntakeResult{
		ComplaintID:    created.ComplaintID,
		TrackingCode:   created.TrackingCode,
		Status:         created.Status,
		JurisdictionID: created.JurisdictionID,
		CreatedAt:      created.CreatedAt,
	}, nil
}

func (s *Service) insertComplaint(ctx context.Context, input IntakeInput, jurisdictionID *uint64) (ports.ComplaintRecord, error) {
	nowTime := s.nowUTC()
	now := formatTimestamp(nowTime)
	year := nowTime.Year()

	var created ports.ComplaintRecord
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		code, err := s.nextTrackingCode(txCtx, year)
		if err != nil {
			return err
		}

		created, err = s.repo.CreateComplaint(txCtx, ports.ComplaintRecord{
			TrackingCode: code,
			TrackingYear: year,
			CategoryKey:  input.CategoryKey,
			Description:  input.Description,
			Location: ports.Location{
				Latitude:  *input.Latitude,
				Longitude: *input.Longitude,
				District:  input.District,
				Address:   input.Address,
				Reference: input.Reference,
			},
			VehiclePlate:   input.VehiclePlate,
			EvidenceRefs:   input.EvidenceRefs,
			Owner:          input.Owner,
			JurisdictionID: jurisdictionID,
			Status:         domain.StatusReceived,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		return err
	})
	return created, err
}

func (s *Service) checkCategory(ctx context.Context, key string) error {
	if s.categories == nil {
		return nil
	}

	category, err := s.categories.GetCategory(ctx, key)
	if err != nil {
		return err
	}
	if !category.Active {
		return fmt.Errorf("%w: %q is inactive", ports.ErrCategoryNotFound, key)
	}
	return nil
}

func normalizeIntake(input IntakeInput) IntakeInput {
	input.CategoryKey = strings.ToLower(strings.TrimSpace(input.CategoryKey))
	input.Description = strings.TrimSpace(input.Description)
	input.District = strings.Join(strings.Fields(input.District), " ")
	input.Address = trimOptional(input.Address)
	input.Reference = trimOptional(input.Reference)

	if plate := trimOptional(input.VehiclePlate); plate != nil {
		upper := strings.ToUpper(*plate)
		input.VehiclePlate = &upper
	} else {
		input.VehiclePlate = nil
	}

	refs := make([]string, 0, len(input.EvidenceRefs))
	for _, ref := range input.EvidenceRefs {
		if trimmed := strings.TrimSpace(ref); trimmed != "" {
			refs = append(refs, trimmed)
		}
	}
	input.EvidenceRefs = refs
	return input
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	return optionalString(strings.TrimSpace(*value))
}

func validateIntake(input IntakeInput) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidIntake, err)
	}

	reasons := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		reasons = append(reasons, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidIntake, strings.Join(reasons, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := toSnake(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s exceeds %s", field, fe.Param())
	case "gte", "lte":
		return field + " is out of range"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

func toSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
