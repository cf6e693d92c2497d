package booking

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Leganyst/appointment-queue/internal/apperrors"
	"github.com/Leganyst/appointment-queue/internal/model"
	"github.com/Leganyst/appointment-queue/internal/queue"
	"github.com/Leganyst/appointment-queue/internal/repository"
	"github.com/Leganyst/appointment-queue/internal/status"
)

// Decision — ответ провайдера на заявку.
type Decision struct {
	Accept bool
	Reason string
}

// Respond принимает или отклоняет pending-заявку.
// Срочная заявка при принятии встаёт первой, остальные сдвигаются.
func (c *Controller) Respond(ctx context.Context, id uuid.UUID, d Decision, actorID uuid.UUID) (_ *model.Appointment, err error) {
	ctx, span, started := c.start(ctx, "respond")
	defer func() { err = c.finish(ctx, "respond", span, started, err) }()
	span.SetAttributes(attribute.String("queuecore.appointment_id", id.String()), attribute.Bool("queuecore.accept", d.Accept))

	req := status.Request{
		To:      model.AppointmentStatusCancelled,
		ActorID: actorID,
		Origin:  status.OriginProvider,
		Reason:  d.Reason,
	}
	if d.Accept {
		req.To = model.AppointmentStatusScheduled
	}

	return c.transition(ctx, id, func(appt *model.Appointment) (status.Request, error) {
		if appt.Status != model.AppointmentStatusPending {
			return req, apperrors.NewInvalidTransitionError(string(appt.Status), string(req.To))
		}
		return req, nil
	})
}

// Advance переводит запись в ongoing или done по действию провайдера.
func (c *Controller) Advance(ctx context.Context, id uuid.UUID, target model.AppointmentStatus, actorID uuid.UUID) (_ *model.Appointment, err error) {
	ctx, span, started := c.start(ctx, "advance")
	defer func() { err = c.finish(ctx, "advance", span, started, err) }()
	span.SetAttributes(attribute.String("queuecore.appointment_id", id.String()), attribute.String("queuecore.target", string(target)))

	if target != model.AppointmentStatusOngoing && target != model.AppointmentStatusDone {
		return nil, apperrors.NewValidationError("advance target must be %q or %q, got %q",
			model.AppointmentStatusOngoing, model.AppointmentStatusDone, target)
	}

	return c.transition(ctx, id, func(*model.Appointment) (status.Request, error) {
		return status.Request{To: target, ActorID: actorID, Origin: status.OriginProvider}, nil
	})
}

// CancelByCustomer — отмена клиентом своей pending или scheduled записи.
func (c *Controller) CancelByCustomer(ctx context.Context, id, customerID uuid.UUID) (_ *model.Appointment, err error) {
	ctx, span, started := c.start(ctx, "cancel_by_customer")
	defer func() { err = c.finish(ctx, "cancel_by_customer", span, started, err) }()
	span.SetAttributes(attribute.String("queuecore.appointment_id", id.String()))

	return c.transition(ctx, id, func(appt *model.Appointment) (status.Request, error) {
		req := status.Request{To: model.AppointmentStatusCancelled, ActorID: customerID, Origin: status.OriginCustomer}
		if appt.CustomerID != customerID {
			return req, apperrors.NewValidationError("appointment %s does not belong to customer %s", appt.ID, customerID)
		}
		return req, nil
	})
}

// Cancel — отмена провайдером или администратором с причиной.
func (c *Controller) Cancel(ctx context.Context, id uuid.UUID, reason string, actorID uuid.UUID, origin status.Origin) (_ *model.Appointment, err error) {
	ctx, span, started := c.start(ctx, "cancel")
	defer func() { err = c.finish(ctx, "cancel", span, started, err) }()
	span.SetAttributes(attribute.String("queuecore.appointment_id", id.String()))

	if origin == "" || origin == status.OriginCustomer {
		origin = status.OriginProvider
	}

	return c.transition(ctx, id, func(*model.Appointment) (status.Request, error) {
		return status.Request{To: model.AppointmentStatusCancelled, ActorID: actorID, Origin: origin, Reason: reason}, nil
	})
}

// StartNext начинает обслуживание первой по рангу записи партиции.
func (c *Controller) StartNext(ctx context.Context, providerID uuid.UUID, date string, actorID uuid.UUID) (_ *model.Appointment, err error) {
	ctx, span, started := c.start(ctx, "start_next")
	defer func() { err = c.finish(ctx, "start_next", span, started, err) }()
	span.SetAttributes(attribute.String("queuecore.provider_id", providerID.String()), attribute.String("queuecore.date", date))

	var out *status.Outcome
	err = c.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := c.engine.Lock(ctx, tx, providerID, date); err != nil {
			return err
		}

		scheduled, err := tx.Appointments.ListPartition(ctx, providerID, date, model.AppointmentStatusScheduled)
		if err != nil {
			return fmt.Errorf("list scheduled: %w", err)
		}
		head := queue.Head(queue.Ranked(scheduled, c.opts.WaitFallback))
		if head == nil {
			return apperrors.NewNotFoundError("no scheduled appointments for provider %s on %s", providerID, date)
		}

		appt, err := tx.Appointments.GetByIDForUpdate(ctx, head.Appointment.ID)
		if err != nil {
			return notFoundAppointment(err, head.Appointment.ID)
		}
		provider, err := providerOf(ctx, tx, appt)
		if err != nil {
			return err
		}

		out, err = c.machine.Apply(ctx, tx, provider, appt, status.Request{
			To:      model.AppointmentStatusOngoing,
			ActorID: actorID,
			Origin:  status.OriginProvider,
			At:      c.now(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	c.committed(ctx, out)
	return out.Appointment, nil
}

// transition — общий путь мутации одной записи.
// build получает запись, перечитанную под блокировкой, и решает, какой переход запросить.
func (c *Controller) transition(
	ctx context.Context,
	id uuid.UUID,
	build func(appt *model.Appointment) (status.Request, error),
) (*model.Appointment, error) {
	// провайдер и день записи неизменны, их можно прочитать до блокировки
	current, err := c.store.Appointments.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAppointment(err, id)
	}

	var out *status.Outcome
	err = c.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := c.engine.Lock(ctx, tx, current.ProviderID, current.Date); err != nil {
			return err
		}

		appt, err := tx.Appointments.GetByIDForUpdate(ctx, id)
		if err != nil {
			return notFoundAppointment(err, id)
		}

		req, err := build(appt)
		if err != nil {
			return err
		}
		if req.At.IsZero() {
			req.At = c.now()
		}

		provider, err := providerOf(ctx, tx, appt)
		if err != nil {
			return err
		}

		out, err = c.machine.Apply(ctx, tx, provider, appt, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.committed(ctx, out)
	return out.Appointment, nil
}

func (c *Controller) committed(ctx context.Context, out *status.Outcome) {
	a := out.Appointment
	c.metrics.ObserveTransition(string(out.From), string(a.Status))
	c.log.Info().
		Str("appointment_id", a.ID.String()).
		Str("provider_id", a.ProviderID.String()).
		Str("date", a.Date).
		Str("from", string(out.From)).
		Str("to", string(a.Status)).
		Int("queue_number", a.Position()).
		Int64("revision", out.Revision).
		Msg("appointment transitioned")

	c.afterCommit(ctx, out.Notices, transitionSignal(out))
}
