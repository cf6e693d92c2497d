package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Статус записи в очереди.
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusOngoing   AppointmentStatus = "ongoing"
	AppointmentStatusDone      AppointmentStatus = "done"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// QueueNumberServing — номер очереди у записи, которую сейчас обслуживают.
const QueueNumberServing = 0

// DateLayout — формат календарного дня партиции.
const DateLayout = "2006-01-02"

// appointments
//
// Очередь строится в рамках партиции (provider_id, date). Номер в очереди
// имеет смысл только в статусах scheduled (1..N) и ongoing (0).
type Appointment struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	CustomerID uuid.UUID `gorm:"type:uuid;not null;index"`
	ProviderID uuid.UUID `gorm:"type:uuid;not null;index:idx_appointments_partition,priority:1;uniqueIndex:idx_appointments_one_ongoing,priority:1,where:status = 'ongoing'"`
	Date       string    `gorm:"type:varchar(10);not null;index:idx_appointments_partition,priority:2;uniqueIndex:idx_appointments_one_ongoing,priority:2,where:status = 'ongoing'"`

	ServiceID            uuid.UUID                      `gorm:"type:uuid;not null;index"`
	AdditionalServiceIDs datatypes.JSONSlice[uuid.UUID] `gorm:"column:additional_service_ids"`
	AddOnIDs             datatypes.JSONSlice[uuid.UUID] `gorm:"column:add_on_ids"`

	Status      AppointmentStatus `gorm:"type:varchar(16);not null;index"`
	QueueNumber *int              `gorm:"index"`

	IsUrgent       bool       `gorm:"not null;default:false"`
	IsRebooking    bool       `gorm:"not null;default:false"`
	RebookedFromID *uuid.UUID `gorm:"type:uuid;index"`

	Notes              string `gorm:"type:text"`
	CancellationReason string `gorm:"type:text"`

	// Снимок цены и длительности на момент заявки; каталог потом не влияет.
	TotalPrice       int64 `gorm:"not null;default:0"`
	TotalDurationMin int   `gorm:"not null;default:0"`

	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
	ConfirmedAt *time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time

	// Услуги не связаны внешним ключом: неизвестная услуга в заявке просто стоит 0.
	Provider *Provider `gorm:"foreignKey:ProviderID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// IsTerminal — done и cancelled больше не меняются.
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentStatusDone || s == AppointmentStatusCancelled
}

// HoldsQueueNumber сообщает, должен ли у записи в этом статусе быть номер очереди.
func (s AppointmentStatus) HoldsQueueNumber() bool {
	return s == AppointmentStatusScheduled || s == AppointmentStatusOngoing
}

// Valid проверяет, что статус из известного набора.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusScheduled, AppointmentStatusOngoing,
		AppointmentStatusDone, AppointmentStatusCancelled:
		return true
	}
	return false
}

// Position возвращает номер очереди или 0, если он не назначен.
func (a *Appointment) Position() int {
	if a == nil || a.QueueNumber == nil {
		return 0
	}
	return *a.QueueNumber
}

// ServiceIDs — основная услуга и дополнительные в порядке выбора.
func (a *Appointment) ServiceIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, 1+len(a.AdditionalServiceIDs))
	ids = append(ids, a.ServiceID)
	return append(ids, a.AdditionalServiceIDs...)
}
