package booking

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Leganyst/appointment-queue/internal/apperrors"
	"github.com/Leganyst/appointment-queue/internal/calendar"
	"github.com/Leganyst/appointment-queue/internal/feed"
	"github.com/Leganyst/appointment-queue/internal/model"
	"github.com/Leganyst/appointment-queue/internal/notify"
	"github.com/Leganyst/appointment-queue/internal/pricing"
	"github.com/Leganyst/appointment-queue/internal/repository"
	"github.com/Leganyst/appointment-queue/internal/status"
)

type SubmitRequest struct {
	CustomerID           uuid.UUID
	ProviderID           uuid.UUID
	ServiceID            uuid.UUID
	AdditionalServiceIDs []uuid.UUID
	AddOnIDs             []uuid.UUID
	Date                 string
	IsUrgent             bool
	Notes                string
	// Повторная запись по прошлой записи клиента.
	RebookedFromID *uuid.UUID
}

func (c *Controller) validateSubmit(req SubmitRequest) error {
	if req.CustomerID == uuid.Nil {
		return apperrors.NewValidationError("customer_id is required")
	}
	if req.ProviderID == uuid.Nil {
		return apperrors.NewValidationError("provider_id is required")
	}
	if req.ServiceID == uuid.Nil {
		return apperrors.NewValidationError("service_id is required")
	}
	if req.Date == "" {
		return apperrors.NewValidationError("date is required")
	}
	if err := calendar.CheckBookingWindow(req.Date, c.now(), c.opts.Location, c.opts.AdvanceDays); err != nil {
		return apperrors.NewValidationError("%s", err.Error())
	}
	if n := 1 + len(req.AdditionalServiceIDs); n > c.opts.MaxServices {
		return apperrors.NewValidationError("too many services: %d (max %d)", n, c.opts.MaxServices)
	}
	if n := len(req.AddOnIDs); n > c.opts.MaxAddOns {
		return apperrors.NewValidationError("too many add-ons: %d (max %d)", n, c.opts.MaxAddOns)
	}
	return nil
}

// Submit создаёт заявку в статусе pending.
func (c *Controller) Submit(ctx context.Context, req SubmitRequest) (_ *model.Appointment, err error) {
	ctx, span, started := c.start(ctx, "submit")
	defer func() { err = c.finish(ctx, "submit", span, started, err) }()
	span.SetAttributes(
		attribute.String("queuecore.provider_id", req.ProviderID.String()),
		attribute.String("queuecore.date", req.Date),
		attribute.Bool("queuecore.urgent", req.IsUrgent),
	)

	if err := c.validateSubmit(req); err != nil {
		return nil, err
	}

	var (
		appt     *model.Appointment
		provider *model.Provider
		rev      int64
	)

	err = c.store.Transaction(ctx, func(tx *repository.Store) error {
		p, err := tx.Providers.GetByID(ctx, req.ProviderID)
		if err != nil {
			return notFoundProvider(err, req.ProviderID)
		}
		if p.Availability == model.ProviderOffline {
			return apperrors.NewValidationError("provider %s is offline", p.ID)
		}
		provider = p

		if req.RebookedFromID != nil {
			prev, err := tx.Appointments.GetByID(ctx, *req.RebookedFromID)
			if err != nil {
				return notFoundAppointment(err, *req.RebookedFromID)
			}
			if prev.CustomerID != req.CustomerID {
				return apperrors.NewValidationError("appointment %s does not belong to customer", prev.ID)
			}
		}

		if _, err := c.engine.Lock(ctx, tx, p.ID, req.Date); err != nil {
			return err
		}
		if err := c.engine.CapacityCheck(ctx, tx, p, req.Date, req.IsUrgent); err != nil {
			return err
		}

		quote, err := c.quote(ctx, tx, req)
		if err != nil {
			return err
		}

		appt = &model.Appointment{
			CustomerID:           req.CustomerID,
			ProviderID:           p.ID,
			Date:                 req.Date,
			ServiceID:            req.ServiceID,
			AdditionalServiceIDs: req.AdditionalServiceIDs,
			AddOnIDs:             req.AddOnIDs,
			Status:               model.AppointmentStatusPending,
			IsUrgent:             req.IsUrgent,
			IsRebooking:          req.RebookedFromID != nil,
			RebookedFromID:       req.RebookedFromID,
			Notes:                req.Notes,
			TotalPrice:           int64(quote.Price),
			TotalDurationMin:     quote.DurationMin,
		}
		if err := tx.Appointments.Create(ctx, appt); err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		eventType := model.EventTypeBookingRequested
		if appt.IsRebooking {
			eventType = model.EventTypeRebookingRequested
		}
		details := map[string]any{
			"customer_id":  appt.CustomerID.String(),
			"is_urgent":    appt.IsUrgent,
			"total_price":  appt.TotalPrice,
			"duration_min": appt.TotalDurationMin,
		}
		if appt.RebookedFromID != nil {
			details["rebooked_from"] = appt.RebookedFromID.String()
		}
		if err := status.WriteEvent(ctx, tx, eventType, appt.CustomerID, appt, details); err != nil {
			return err
		}

		rev, err = c.engine.Touch(ctx, tx, p.ID, req.Date)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.metrics.ObserveSubmission(appt.IsUrgent, appt.IsRebooking)
	c.log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("provider_id", appt.ProviderID.String()).
		Str("date", appt.Date).
		Bool("urgent", appt.IsUrgent).
		Int64("total_price", appt.TotalPrice).
		Msg("booking submitted")

	c.afterCommit(ctx, []notify.Notice{status.RequestNotice(provider, appt)}, feed.Signal{
		Kind:          feed.KindSubmitted,
		ProviderID:    appt.ProviderID,
		Date:          appt.Date,
		AppointmentID: appt.ID,
		CustomerID:    appt.CustomerID,
		To:            string(appt.Status),
		Revision:      rev,
	})

	return appt, nil
}

// quote считает цену по каталогу. Неизвестные позиции стоят 0.
func (c *Controller) quote(ctx context.Context, tx *repository.Store, req SubmitRequest) (pricing.Result, error) {
	serviceIDs := append([]uuid.UUID{req.ServiceID}, req.AdditionalServiceIDs...)

	services, err := tx.Catalog.ListServicesByIDs(ctx, serviceIDs)
	if err != nil {
		return pricing.Result{}, fmt.Errorf("load services: %w", err)
	}
	addOns, err := tx.Catalog.ListAddOnsByIDs(ctx, req.AddOnIDs)
	if err != nil {
		return pricing.Result{}, fmt.Errorf("load add-ons: %w", err)
	}

	return pricing.NewCatalog(services, addOns).QuoteIDs(serviceIDs, req.AddOnIDs, req.IsUrgent), nil
}

// Quote — предварительный расчёт без создания заявки.
func (c *Controller) Quote(ctx context.Context, req SubmitRequest) (pricing.Result, error) {
	return c.quote(ctx, c.store, req)
}
