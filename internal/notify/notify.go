// Package notify доставляет уведомления участникам очереди.
//
// Доставка best effort: ошибка уведомления никогда не откатывает изменение записи.
package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/Leganyst/appointment-queue/internal/apperrors"
)

// Категории уведомлений.
const (
	CategoryBookingRequest       = "booking_request"
	CategoryUrgentBooking        = "urgent_booking"
	CategoryAppointmentConfirmed = "appointment_confirmed"
	CategoryAppointmentDeclined  = "appointment_declined"
	CategoryAppointmentCancelled = "appointment_cancelled"
	CategoryAppointment          = "appointment"
	CategoryQueue                = "queue"
)

// Notice — одно уведомление одному пользователю.
type Notice struct {
	UserID        uuid.UUID
	AppointmentID uuid.UUID
	Title         string
	Message       string
	Category      string
	Payload       map[string]any
}

type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// Fanout отправляет уведомление во все каналы. Сбой одного канала не мешает остальным.
type Fanout struct {
	notifiers []Notifier
}

func NewFanout(notifiers ...Notifier) *Fanout {
	list := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			list = append(list, n)
		}
	}
	return &Fanout{notifiers: list}
}

func (f *Fanout) Notify(ctx context.Context, n Notice) error {
	var errs []error
	for _, notifier := range f.notifiers {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return apperrors.NewNotificationDeliveryError("deliver "+n.Category, errors.Join(errs...))
}

// Recorder запоминает уведомления в памяти, для тестов.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
	// Если задан, Notify возвращает эту ошибку после записи.
	Err error
}

func (r *Recorder) Notify(_ context.Context, n Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return r.Err
}

func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// For — уведомления конкретного пользователя.
func (r *Recorder) For(userID uuid.UUID) []Notice {
	var out []Notice
	for _, n := range r.Notices() {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = nil
}
