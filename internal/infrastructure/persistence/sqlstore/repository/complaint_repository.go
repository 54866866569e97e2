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

type ComplaintRepository struct {
	db *gorm.DB
}

var _ ports.ComplaintRepository = (*ComplaintRepository)(nil)

func NewComplaintRepository(db *gorm.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

func (r *ComplaintRepository) CreateComplaint(ctx context.Context, record ports.ComplaintRecord) (ports.ComplaintRecord, error) {
	var created ports.ComplaintRecord
	err := inTx(ctx, r.db, func(_ context.Context, db *gorm.DB) error {
		row := model.Complaint{
			TrackingCode:   record.TrackingCode,
			TrackingYear:   record.TrackingYear,
			CategoryKey:    record.CategoryKey,
			Description:    record.Description,
			Latitude:       record.Location.Latitude,
			Longitude:      record.Location.Longitude,
			District:       record.Location.District,
			Address:        record.Location.Address,
			Reference:      record.Location.Reference,
			VehiclePlate:   record.VehiclePlate,
			OwnerCitizenID: record.Owner.Nullable(),
			JurisdictionID: record.JurisdictionID,
			Status:         string(record.Status),
			CreatedAt:      record.CreatedAt,
			UpdatedAt:      record.UpdatedAt,
		}
		if err := db.Create(&row).Error; err != nil {
			if IsUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ports.ErrTrackingCodeTaken, record.TrackingCode)
			}
			return errs.Wrap(err, "insert complaint")
		}

		if len(record.EvidenceRefs) > 0 {
			evidence := make([]model.ComplaintEvidence, 0, len(record.EvidenceRefs))
			for i, ref := range record.EvidenceRefs {
				evidence = append(evidence, model.ComplaintEvidence{
					ComplaintID: row.ComplaintID,
					Position:    i,
					Ref:         ref,
				})
			}
			if err := db.Create(&evidence).Error; err != nil {
				return errs.Wrap(err, "insert complaint evidence")
			}
		}

		created = mapComplaint(row, record.EvidenceRefs)
		return nil
	})
	if err != nil {
		return ports.ComplaintRecord{}, err
	}
	return created, nil
}

func (r *ComplaintRepository) CountComplaintsInYear(ctx context.Context, year int) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.Complaint{}).Where("tracking_year = ?", year).Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count complaints in year")
	}
	return count, nil
}

func (r *ComplaintRepository) GetComplaint(ctx context.Context, complaintID uint64) (ports.ComplaintRecord, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.ComplaintRecord{}, err
	}
	return r.takeComplaint(db, "complaint_id = ?", complaintID)
}

func (r *ComplaintRepository) GetComplaintByTrackingCode(ctx context.Context, trackingCode string) (ports.ComplaintRecord, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.ComplaintRecord{}, err
	}
	return r.takeComplaint(db, "tracking_code = ?", trackingCode)
}

func (r *ComplaintRepository) ListComplaintsByOwner(ctx context.Context, citizenID uint64) ([]ports.ComplaintRecord, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.Complaint
	if err := db.
		Where("owner_citizen_id = ?", citizenID).
		Order("complaint_id desc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query complaints by owner")
	}
	return withEvidence(db, rows)
}

// ListComplaintQueue returns complaints in one status, oldest first.
func (r *ComplaintRepository) ListComplaintQueue(ctx context.Context, filter ports.QueueFilter) ([]ports.ComplaintRecord, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Where("status = ?", string(filter.Status))
	if filter.JurisdictionID != nil {
		query = query.Where("jurisdiction_id = ?", *filter.JurisdictionID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []model.Complaint
	if err := query.Order("complaint_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query complaint queue")
	}
	return withEvidence(db, rows)
}

func withEvidence(db *gorm.DB, rows []model.Complaint) ([]ports.ComplaintRecord, error) {
	ids := make([]uint64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ComplaintID)
	}
	evidence, err := loadEvidence(db, ids)
	if err != nil {
		return nil, err
	}

	items := make([]ports.ComplaintRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapComplaint(row, evidence[row.ComplaintID]))
	}
	return items, nil
}

func (r *ComplaintRepository) UpdateComplaintStatus(ctx context.Context, update ports.StatusUpdate) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	result := db.Model(&model.Complaint{}).
		Where("complaint_id = ? AND status = ? AND version = ?", update.ComplaintID, string(update.From), update.ExpectedVersion).
		Updates(map[string]any{
			"status":     string(update.To),
			"version":    gorm.Expr("version + 1"),
			"updated_at": update.UpdatedAt,
		})
	if result.Error != nil {
		return errs.Wrap(result.Error, "update complaint status")
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := db.Model(&model.Complaint{}).Where("complaint_id = ?", update.ComplaintID).Count(&count).Error; err != nil {
		return errs.Wrap(err, "check complaint existence")
	}
	if count == 0 {
		return fmt.Errorf("%w: id=%d", ports.ErrComplaintNotFound, update.ComplaintID)
	}
	return fmt.Errorf("%w: id=%d expected %s@v%d", ports.ErrStaleComplaint, update.ComplaintID, update.From, update.ExpectedVersion)
}

func (r *ComplaintRepository) AppendTransition(ctx context.Context, input ports.TransitionCreate) (ports.TransitionRecord, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.TransitionRecord{}, err
	}

	row := model.ComplaintTransition{
		ComplaintID: input.ComplaintID,
		Actor:       input.Actor,
		FromStatus:  string(input.FromStatus),
		ToStatus:    string(input.ToStatus),
		Observation: input.Observation,
		CreatedAt:   input.CreatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.TransitionRecord{}, errs.Wrap(err, "insert complaint transition")
	}
	return mapTransition(row), nil
}

func (r *ComplaintRepository) ListTransitions(ctx context.Context, complaintID uint64) ([]ports.TransitionRecord, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.ComplaintTransition
	if err := db.
		Where("complaint_id = ?", complaintID).
		Order("transition_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query complaint transitions")
	}

	items := make([]ports.TransitionRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapTransition(row))
	}
	return items, nil
}

func (r *ComplaintRepository) takeComplaint(db *gorm.DB, query string, arg any) (ports.ComplaintRecord, error) {
	var row model.Complaint
	if err := db.Where(query, arg).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ComplaintRecord{}, fmt.Errorf("%w: %v", ports.ErrComplaintNotFound, arg)
		}
		return ports.ComplaintRecord{}, errs.Wrap(err, "query complaint")
	}

	evidence, err := loadEvidence(db, []uint64{row.ComplaintID})
	if err != nil {
		return ports.ComplaintRecord{}, err
	}
	return mapComplaint(row, evidence[row.ComplaintID]), nil
}

func loadEvidence(db *gorm.DB, complaintIDs []uint64) (map[uint64][]string, error) {
	out := make(map[uint64][]string, len(complaintIDs))
	if len(complaintIDs) == 0 {
		return out, nil
	}

	var rows []model.ComplaintEvidence
	if err := db.
		Where("complaint_id IN ?", complaintIDs).
		Order("complaint_id asc, position asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query complaint evidence")
	}
	for _, row := range rows {
		out[row.ComplaintID] = append(out[row.ComplaintID], row.Ref)
	}
	return out, nil
}

func mapComplaint(row model.Complaint, evidence []string) ports.ComplaintRecord {
	return ports.ComplaintRecord{
		ComplaintID:  row.ComplaintID,
		TrackingCode: row.TrackingCode,
		TrackingYear: row.TrackingYear,
		CategoryKey:  row.CategoryKey,
		Description:  row.Description,
		Location: ports.Location{
			Latitude:  row.Latitude,
			Longitude: row.Longitude,
			District:  row.District,
			Address:   row.Address,
			Reference: row.Reference,
		},
		VehiclePlate:   row.VehiclePlate,
		EvidenceRefs:   evidence,
		Owner:          domain.OwnerFromNullable(row.OwnerCitizenID),
		JurisdictionID: row.JurisdictionID,
		Status:         domain.Status(row.Status),
		Version:        row.Version,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

func mapTransition(row model.ComplaintTransition) ports.TransitionRecord {
	return ports.TransitionRecord{
		TransitionID: row.TransitionID,
		ComplaintID:  row.ComplaintID,
		Actor:        row.Actor,
		FromStatus:   domain.Status(row.FromStatus),
		ToStatus:     domain.Status(row.ToStatus),
		Observation:  row.Observation,
		CreatedAt:    row.CreatedAt,
	}
}
