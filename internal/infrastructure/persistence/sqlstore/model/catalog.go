package model

type Category struct {
	Key         string `gorm:"column:key;type:text;primaryKey"`
	Name        string `gorm:"column:name;type:text;not null"`
	Description string `gorm:"column:description;type:text;not null;default:''"`
	Active      bool   `gorm:"column:active;not null"`
	UpdatedAt   string `gorm:"column:updated_at;type:text;not null"`
}

func (Category) TableName() string {
	return "categories"
}

type Jurisdiction struct {
	JurisdictionID uint64 `gorm:"column:jurisdiction_id;primaryKey;autoIncrement"`
	Name           string `gorm:"column:name;type:text;not null;uniqueIndex"`
	District       string `gorm:"column:district;type:text;not null"`
	DistrictKey    string `gorm:"column:district_key;type:text;not null;index"`
	Active         bool   `gorm:"column:active;not null"`
	UpdatedAt      string `gorm:"column:updated_at;type:text;not null"`
}

func (Jurisdiction) TableName() string {
	return "jurisdictions"
}
