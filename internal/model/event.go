package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Тип события аудита.
type EventType string

const (
	EventTypeBookingRequested   EventType = "booking_requested"
	EventTypeRebookingRequested EventType = "rebooking_requested"
	EventTypeBookingAccepted    EventType = "booking_request_accepted"
	EventTypeBookingDeclined    EventType = "booking_request_declined"
	EventTypeAppointmentStarted EventType = "appointment_started"
	EventTypeAppointmentDone    EventType = "appointment_completed"
	EventTypeAppointmentCancel  EventType = "appointment_cancelled"
)

// events — события аудита, пишутся в той же транзакции, что и изменение.
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;index"`

	ActorID       *uuid.UUID `gorm:"type:uuid;index"`
	AppointmentID *uuid.UUID `gorm:"type:uuid;index"`
	ProviderID    *uuid.UUID `gorm:"type:uuid;index"`

	Details datatypes.JSON
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
