package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Доступность провайдера. Ядро её только читает.
type ProviderAvailability string

const (
	ProviderAvailable ProviderAvailability = "available"
	ProviderBusy      ProviderAvailability = "busy"
	ProviderOnBreak   ProviderAvailability = "break"
	ProviderOffline   ProviderAvailability = "offline"
)

// DefaultDailyCapacity — потолок записей в день, если у провайдера не задан свой.
const DefaultDailyCapacity = 15

// Provider — мастер, у которого есть своя очередь.
type Provider struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	// Пользователь, которому уходят уведомления провайдера.
	UserID uuid.UUID `gorm:"type:uuid;not null;index"`

	DisplayName string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`

	Availability ProviderAvailability `gorm:"type:varchar(16);not null;default:'available'"`

	// 0 — используется DefaultDailyCapacity.
	DailyCapacity int `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (p *Provider) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Availability == "" {
		p.Availability = ProviderAvailable
	}
	return nil
}

// Capacity возвращает дневной потолок провайдера.
func (p *Provider) Capacity(fallback int) int {
	if p.DailyCapacity > 0 {
		return p.DailyCapacity
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultDailyCapacity
}

func (a ProviderAvailability) Valid() bool {
	switch a {
	case ProviderAvailable, ProviderBusy, ProviderOnBreak, ProviderOffline:
		return true
	}
	return false
}
