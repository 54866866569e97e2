package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "civicdesk/internal/domain/complaint"
	"civicdesk/internal/errs"
	"civicdesk/internal/infrastructure/persistence/sqlstore/model"
	"civicdesk/internal/ports"
)

type CatalogRepository struct {
	db *gorm.DB
}

var _ ports.CatalogRepository = (*CatalogRepository)(nil)

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) GetCategory(ctx context.Context, key string) (ports.Category, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Category{}, err
	}

	var row model.Category
	if err := db.Where("key = ?", strings.TrimSpace(key)).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Category{}, fmt.Errorf("%w: %q", ports.ErrCategoryNotFound, key)
		}
		return ports.Category{}, errs.Wrap(err, "query category")
	}
	return mapCategory(row), nil
}

func (r *CatalogRepository) ListCategories(ctx context.Context) ([]ports.Category, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.Category
	if err := db.Order("key asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query categories")
	}
	items := make([]ports.Category, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapCategory(row))
	}
	return items, nil
}

func (r *CatalogRepository) FindActiveJurisdictions(ctx context.Context, districtKey string) ([]ports.Jurisdiction, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.Jurisdiction
	if err := db.
		Where("district_key = ? AND active = ?", districtKey, true).
		Order("jurisdiction_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query jurisdictions by district")
	}

	items := make([]ports.Jurisdiction, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapJurisdiction(row))
	}
	return items, nil
}

func (r *CatalogRepository) ListJurisdictions(ctx context.Context) ([]ports.Jurisdiction, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.Jurisdiction
	if err := db.Order("jurisdiction_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query jurisdictions")
	}
	items := make([]ports.Jurisdiction, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapJurisdiction(row))
	}
	return items, nil
}

func (r *CatalogRepository) UpsertCategory(ctx context.Context, category ports.Category) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	key := strings.TrimSpace(category.Key)
	if key == "" {
		return errors.New("category key is required")
	}

	row := model.Category{
		Key:         key,
		Name:        strings.TrimSpace(category.Name),
		Description: strings.TrimSpace(category.Description),
		Active:      category.Active,
		UpdatedAt:   time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"name":        row.Name,
			"description": row.Description,
			"active":      row.Active,
			"updated_at":  row.UpdatedAt,
		}),
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert category")
	}
	return nil
}

// UpsertJurisdiction matches existing rows by name.
func (r *CatalogRepository) UpsertJurisdiction(ctx context.Context, jurisdiction ports.Jurisdiction) (ports.Jurisdiction, error) {
	name := strings.TrimSpace(jurisdiction.Name)
	if name == "" {
		return ports.Jurisdiction{}, errors.New("jurisdiction name is required")
	}
	district := strings.TrimSpace(jurisdiction.District)
	if district == "" {
		return ports.Jurisdiction{}, errors.New("jurisdiction district is required")
	}

	var saved ports.Jurisdiction
	err := inTx(ctx, r.db, func(_ context.Context, db *gorm.DB) error {
		now := time.Now().UTC().Format(time.RFC3339Nano)

		var row model.Jurisdiction
		result := db.Where("name = ?", name).Limit(1).Find(&row)
		switch {
		case result.Error != nil:
			return errs.Wrap(result.Error, "query jurisdiction by name")
		case result.RowsAffected == 0:
			row = model.Jurisdiction{
				Name:        name,
				District:    district,
				DistrictKey: domain.NormalizeDistrict(district),
				Active:      jurisdiction.Active,
				UpdatedAt:   now,
			}
			if err := db.Create(&row).Error; err != nil {
				return errs.Wrap(err, "insert jurisdiction")
			}
		default:
			row.District = district
			row.DistrictKey = domain.NormalizeDistrict(district)
			row.Active = jurisdiction.Active
			row.UpdatedAt = now
			if err := db.Model(&model.Jurisdiction{}).
				Where("jurisdiction_id = ?", row.JurisdictionID).
				Updates(map[string]any{
					"district":     row.District,
					"district_key": row.DistrictKey,
					"active":       row.Active,
					"updated_at":   row.UpdatedAt,
				}).Error; err != nil {
				return errs.Wrap(err, "update jurisdiction")
			}
		}

		saved = mapJurisdiction(row)
		return nil
	})
	if err != nil {
		return ports.Jurisdiction{}, err
	}
	return saved, nil
}

func mapCategory(row model.Category) ports.Category {
	return ports.Category{
		Key:         row.Key,
		Name:        row.Name,
		Description: row.Description,
		Active:      row.Active,
	}
}

func mapJurisdiction(row model.Jurisdiction) ports.Jurisdiction {
	return ports.Jurisdiction{
		JurisdictionID: row.JurisdictionID,
		Name:           row.Name,
		District:       row.District,
		Active:         row.Active,
	}
}
