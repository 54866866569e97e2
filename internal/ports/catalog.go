package ports

import (
	"context"

	"civicdesk/internal/errs"
)

var ErrCategoryNotFound = errs.New(errs.KindValidation, "unknown complaint category")

type Category struct {
	Key         string
	Name        string
	Description string
	Active      bool
}

type Jurisdiction struct {
	JurisdictionID uint64
	Name           string
	District       string
	Active         bool
}

// CategoryProvider confirms category keys used at intake.
type CategoryProvider interface {
	GetCategory(ctx context.Context, key string) (Category, error)
}

// JurisdictionDirectory is the read-only organization directory.
type JurisdictionDirectory interface {
	// FindActiveJurisdictions returns active jurisdictions whose normalized
	// district equals districtKey, ordered by id ascending.
	FindActiveJurisdictions(ctx context.Context, districtKey string) ([]Jurisdiction, error)
}

type CatalogWriter interface {
	UpsertCategory(ctx context.Context, category Category) error
	UpsertJurisdiction(ctx context.Context, jurisdiction Jurisdiction) (Jurisdiction, error)
}

type CatalogRepository interface {
	CategoryProvider
	JurisdictionDirectory
	CatalogWriter
	ListCategories(ctx context.Context) ([]Category, error)
	ListJurisdictions(ctx context.Context) ([]Jurisdiction, error)
}
