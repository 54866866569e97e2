package model

type ComplaintTransition struct {
	TransitionID uint64  `gorm:"column:transition_id;primaryKey;autoIncrement"`
	ComplaintID  uint64  `gorm:"column:complaint_id;not null;index"`
	Actor        *string `gorm:"column:actor;type:text"`
	FromStatus   string  `gorm:"column:from_status;type:text;not null"`
	ToStatus     string  `gorm:"column:to_status;type:text;not null"`
	Observation  string  `gorm:"column:observation;type:text;not null"`
	CreatedAt    string  `gorm:"column:created_at;type:text;not null"`
}

func (ComplaintTransition) TableName() string {
	return "complaint_transitions"
}
