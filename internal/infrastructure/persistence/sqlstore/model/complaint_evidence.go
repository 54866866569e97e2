package model

type ComplaintEvidence struct {
	ComplaintID uint64 `gorm:"column:complaint_id;not null;primaryKey"`
	Position    int    `gorm:"column:position;not null;primaryKey"`
	Ref         string `gorm:"column:ref;type:text;not null"`
}

func (ComplaintEvidence) TableName() string {
	return "complaint_evidence"
}
