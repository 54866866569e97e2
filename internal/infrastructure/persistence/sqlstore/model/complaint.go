package model

type Complaint struct {
	ComplaintID    uint64  `gorm:"column:complaint_id;primaryKey;autoIncrement"`
	TrackingCode   string  `gorm:"column:tracking_code;type:text;not null;uniqueIndex"`
	TrackingYear   int     `gorm:"column:tracking_year;not null;index"`
	CategoryKey    string  `gorm:"column:category_key;type:text;not null"`
	Description    string  `gorm:"column:description;type:text;not null"`
	Latitude       float64 `gorm:"column:latitude;not null"`
	Longitude      float64 `gorm:"column:longitude;not null"`
	District       string  `gorm:"column:district;type:text;not null"`
	Address        *string `gorm:"column:address;type:text"`
	Reference      *string `gorm:"column:reference;type:text"`
	VehiclePlate   *string `gorm:"column:vehicle_plate;type:text"`
	OwnerCitizenID *uint64 `gorm:"column:owner_citizen_id;index"`
	JurisdictionID *uint64 `gorm:"column:jurisdiction_id;index"`
	Status         string  `gorm:"column:status;type:text;not null;index"`
	Version        uint64  `gorm:"column:version;not null;default:0"`
	CreatedAt      string  `gorm:"column:created_at;type:text;not null"`
	UpdatedAt      string  `gorm:"column:updated_at;type:text;not null"`
}

func (Complaint) TableName() string {
	return "complaints"
}
