package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Leganyst/appointment-queue/internal/apperrors"
	"github.com/Leganyst/appointment-queue/internal/model"
	"github.com/Leganyst/appointment-queue/internal/notify"
	"github.com/Leganyst/appointment-queue/internal/queue"
	"github.com/Leganyst/appointment-queue/internal/repository"
)

// Причины отмены по умолчанию.
const (
	ReasonDeclined          = "Declined by provider"
	ReasonCancelledCustomer = "cancelled by customer"
	ReasonCancelledProvider = "Cancelled by provider"
)

// Origin — кто инициировал переход.
type Origin string

const (
	OriginProvider   Origin = "provider"
	OriginCustomer   Origin = "customer"
	OriginManagement Origin = "management"
)

type Request struct {
	To      model.AppointmentStatus
	ActorID uuid.UUID
	Origin  Origin
	Reason  string
	At      time.Time
}

// Outcome — результат перехода. Notices доставляются только после коммита.
type Outcome struct {
	Appointment *model.Appointment
	From        model.AppointmentStatus
	Revision    int64
	// Оставшиеся scheduled после ухода записи из очереди.
	Queue   []model.Appointment
	Notices []notify.Notice
}

type Machine struct {
	engine *queue.Engine
}

func NewMachine(engine *queue.Engine) *Machine {
	return &Machine{engine: engine}
}

// Apply выполняет переход внутри транзакции tx.
// Партиция должна быть заблокирована, appt перечитана с блокировкой.
func (m *Machine) Apply(
	ctx context.Context,
	tx *repository.Store,
	provider *model.Provider,
	appt *model.Appointment,
	req Request,
) (*Outcome, error) {
	from := appt.Status
	if err := Validate(from, req.To); err != nil {
		return nil, err
	}

	at := req.At
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()

	out := &Outcome{From: from}
	fields := map[string]any{"status": req.To}
	details := map[string]any{
		"from":        from,
		"to":          req.To,
		"customer_id": appt.CustomerID.String(),
		"origin":      req.Origin,
	}

	var eventType model.EventType

	switch req.To {
	case model.AppointmentStatusScheduled:
		number, err := m.engine.Assign(ctx, tx, appt.ProviderID, appt.Date, appt.IsUrgent)
		if err != nil {
			return nil, err
		}
		fields["queue_number"] = number
		fields["confirmed_at"] = at
		details["queue_number"] = number
		details["is_urgent"] = appt.IsUrgent
		eventType = model.EventTypeBookingAccepted
		out.Notices = append(out.Notices, confirmedNotice(appt, number))

	case model.AppointmentStatusOngoing:
		busy, err := tx.Appointments.CountByStatus(ctx, appt.ProviderID, appt.Date, model.AppointmentStatusOngoing)
		if err != nil {
			return nil, fmt.Errorf("count ongoing: %w", err)
		}
		if busy > 0 {
			return nil, apperrors.NewPreconditionFailedError("provider is already serving another appointment on %s", appt.Date)
		}
		fields["queue_number"] = model.QueueNumberServing
		fields["started_at"] = at
		eventType = model.EventTypeAppointmentStarted
		out.Notices = append(out.Notices, notify.Notice{
			UserID:        appt.CustomerID,
			AppointmentID: appt.ID,
			Title:         "Appointment Started",
			Message:       "Your appointment has started.",
			Category:      notify.CategoryAppointment,
			Payload:       map[string]any{"status": req.To},
		})

	case model.AppointmentStatusDone:
		fields["queue_number"] = nil
		fields["completed_at"] = at
		eventType = model.EventTypeAppointmentDone
		out.Notices = append(out.Notices, notify.Notice{
			UserID:        appt.CustomerID,
			AppointmentID: appt.ID,
			Title:         "Appointment Completed",
			Message:       "Your appointment has been marked as done. Thank you for visiting!",
			Category:      notify.CategoryAppointment,
			Payload:       map[string]any{"status": req.To},
		})

	case model.AppointmentStatusCancelled:
		reason := cancellationReason(from, req)
		fields["queue_number"] = nil
		fields["cancelled_at"] = at
		fields["cancellation_reason"] = reason
		details["reason"] = reason

		switch {
		case req.Origin == OriginCustomer:
			eventType = model.EventTypeAppointmentCancel
			out.Notices = append(out.Notices, customerCancelledNotice(provider, appt))
		case from == model.AppointmentStatusPending:
			eventType = model.EventTypeBookingDeclined
			out.Notices = append(out.Notices, declinedNotice(appt, reason))
		default:
			eventType = model.EventTypeAppointmentCancel
			out.Notices = append(out.Notices, notify.Notice{
				UserID:        appt.CustomerID,
				AppointmentID: appt.ID,
				Title:         "Appointment Cancelled",
				Message:       fmt.Sprintf("Your appointment has been cancelled. Reason: %s", reason),
				Category:      notify.CategoryAppointmentCancelled,
				Payload:       map[string]any{"reason": reason},
			})
		}
	}

	if err := tx.Appointments.UpdateIfStatus(ctx, appt.ID, from, fields); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return nil, apperrors.NewPreconditionFailedError("appointment %s is no longer %s", appt.ID, from)
		}
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	if compacts(from, req.To) {
		survivors, rev, err := m.engine.Compact(ctx, tx, appt.ProviderID, appt.Date)
		if err != nil {
			return nil, err
		}
		out.Queue = survivors
		out.Revision = rev

		if req.To == model.AppointmentStatusDone {
			if head := queue.Head(queue.Ranked(survivors, 0)); head != nil {
				out.Notices = append(out.Notices, upNextNotice(head.Appointment))
			}
		}
	} else {
		rev, err := m.engine.Touch(ctx, tx, appt.ProviderID, appt.Date)
		if err != nil {
			return nil, err
		}
		out.Revision = rev
	}

	if err := WriteEvent(ctx, tx, eventType, req.ActorID, appt, details); err != nil {
		return nil, err
	}

	updated, err := tx.Appointments.GetByID(ctx, appt.ID)
	if err != nil {
		return nil, fmt.Errorf("reload appointment: %w", err)
	}
	out.Appointment = updated

	return out, nil
}

func cancellationReason(from model.AppointmentStatus, req Request) string {
	if req.Origin == OriginCustomer {
		return ReasonCancelledCustomer
	}
	if req.Reason != "" {
		return req.Reason
	}
	if from == model.AppointmentStatusPending {
		return ReasonDeclined
	}
	return ReasonCancelledProvider
}

// WriteEvent пишет событие аудита по записи в той же транзакции.
func WriteEvent(
	ctx context.Context,
	tx *repository.Store,
	eventType model.EventType,
	actorID uuid.UUID,
	appt *model.Appointment,
	details map[string]any,
) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encode event details: %w", err)
	}

	providerID := appt.ProviderID
	appointmentID := appt.ID
	ev := &model.Event{
		EventType:     eventType,
		AppointmentID: &appointmentID,
		ProviderID:    &providerID,
		Details:       datatypes.JSON(raw),
	}
	if actorID != uuid.Nil {
		ev.ActorID = &actorID
	}

	if err := tx.Events.Create(ctx, ev); err != nil {
		return fmt.Errorf("write event %s: %w", eventType, err)
	}
	return nil
}
