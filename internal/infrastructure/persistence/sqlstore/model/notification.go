package model

type Notification struct {
	NotificationID uint64  `gorm:"column:notification_id;primaryKey;autoIncrement"`
	RecipientID    uint64  `gorm:"column:recipient_citizen_id;not null;index"`
	Kind           string  `gorm:"column:kind;type:text;not null"`
	Message        string  `gorm:"column:message;type:text;not null"`
	ComplaintID    *uint64 `gorm:"column:complaint_id;index"`
	IsRead         bool    `gorm:"column:is_read;not null;default:false"`
	CreatedAt      string  `gorm:"column:created_at;type:text;not null"`
	ReadAt         *string `gorm:"column:read_at;type:text"`
}

func (Notification) TableName() string {
	return "notifications"
}
