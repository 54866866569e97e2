package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"civicdesk/internal/bootstrap/logging"
	"civicdesk/internal/errs"
	"civicdesk/internal/ports"
)

// Service seeds and lists the category and jurisdiction catalog.
type Service struct {
	repo ports.CatalogRepository
	uow  ports.UnitOfWork
}

func NewService(repo ports.CatalogRepository, uow ports.UnitOfWork) *Service {
	return &Service{repo: repo, uow: uow}
}

type LoadResult struct {
	Categories    int
	Jurisdictions int
}

// Load upserts every entry of a catalog file in one transaction. Loading the
// same file twice leaves the catalog unchanged.
func (s *Service) Load(ctx context.Context, path string) (LoadResult, error) {
	if ctx == nil {
		return LoadResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return LoadResult{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return LoadResult{}, errors.New("catalog repository is required")
	}
	if s.uow == nil {
		return LoadResult{}, errors.New("catalog unit of work is required")
	}

	file, err := loadCatalogFile(path)
	if err != nil {
		return LoadResult{}, errs.Wrap(err, "load catalog file")
	}

	err = s.uow.WithTx(ctx, func(txCtx context.Context) error {
		for _, entry := range file.Categories {
			if err := s.repo.UpsertCategory(txCtx, ports.Category{
				Key:         strings.ToLower(strings.TrimSpace(entry.Key)),
				Name:        strings.TrimSpace(entry.Name),
				Description: strings.TrimSpace(entry.Description),
				Active:      activeOrDefault(entry.Active),
			}); err != nil {
				return err
			}
		}
		for _, entry := range file.Jurisdictions {
			if _, err := s.repo.UpsertJurisdiction(txCtx, ports.Jurisdiction{
				Name:     strings.TrimSpace(entry.Name),
				District: strings.TrimSpace(entry.District),
				Active:   activeOrDefault(entry.Active),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return LoadResult{}, err
	}

	result := LoadResult{Categories: len(file.Categories), Jurisdictions: len(file.Jurisdictions)}
	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "usecase.catalog")),
		"catalog loaded",
		slog.String("path", path),
		slog.Int("categories", result.Categories),
		slog.Int("jurisdictions", result.Jurisdictions),
	)
	return result, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]ports.Category, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if s.repo == nil {
		return nil, errors.New("catalog repository is required")
	}
	return s.repo.ListCategories(ctx)
}

func (s *Service) ListJurisdictions(ctx context.Context) ([]ports.Jurisdiction, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if s.repo == nil {
		return nil, errors.New("catalog repository is required")
	}
	return s.repo.ListJurisdictions(ctx)
}
