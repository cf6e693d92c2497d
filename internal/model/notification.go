package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// notifications — входящие уведомления пользователя внутри приложения.
type Notification struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	UserID uuid.UUID `gorm:"type:uuid;not null;index"`

	Title    string `gorm:"type:varchar(255);not null"`
	Message  string `gorm:"type:text"`
	Category string `gorm:"type:varchar(64);not null;index"`
	Payload  datatypes.JSON

	IsRead bool `gorm:"not null;default:false"`
	ReadAt *time.Time

	CreatedAt time.Time `gorm:"not null;index"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
