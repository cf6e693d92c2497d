package model

import (
	"time"

	"github.com/google/uuid"
)

// queue_partitions — одна строка на (провайдер, день).
// Строка блокируется на время любой мутации партиции, Revision растёт с каждой.
type QueuePartition struct {
	ProviderID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Date       string    `gorm:"type:varchar(10);primaryKey"`

	Revision int64 `gorm:"not null;default:0"`

	UpdatedAt time.Time `gorm:"not null"`
}
