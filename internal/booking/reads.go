package booking

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Leganyst/appointment-queue/internal/calendar"
	"github.com/Leganyst/appointment-queue/internal/feed"
	"github.com/Leganyst/appointment-queue/internal/model"
	"github.com/Leganyst/appointment-queue/internal/queue"
)

// QueueView — состояние партиции, прочитанное из хранилища целиком.
type QueueView struct {
	ProviderID uuid.UUID
	Date       string
	Revision   int64
	// Обслуживается сейчас, nil если никто.
	Current  *model.Appointment
	Entries  []queue.Entry
	Pending  []model.Appointment
	Capacity queue.CapacityInfo
}

// Position — ранг записи в очереди (0, если её там нет).
func (v QueueView) Position(id uuid.UUID) int {
	for _, e := range v.Entries {
		if e.Appointment.ID == id {
			return e.Rank
		}
	}
	return 0
}

func (c *Controller) Get(ctx context.Context, id uuid.UUID) (_ *model.Appointment, err error) {
	ctx, span, started := c.start(ctx, "get")
	defer func() { err = c.finish(ctx, "get", span, started, err) }()

	appt, err := c.store.Appointments.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAppointment(err, id)
	}
	return appt, nil
}

// Queue — авторитетное чтение партиции. Все наблюдатели строятся поверх него.
func (c *Controller) Queue(ctx context.Context, providerID uuid.UUID, date string) (_ *QueueView, err error) {
	ctx, span, started := c.start(ctx, "queue")
	defer func() { err = c.finish(ctx, "queue", span, started, err) }()

	return c.readQueue(ctx, providerID, date)
}

func (c *Controller) readQueue(ctx context.Context, providerID uuid.UUID, date string) (*QueueView, error) {
	provider, err := c.store.Providers.GetByID(ctx, providerID)
	if err != nil {
		return nil, notFoundProvider(err, providerID)
	}

	rev, err := c.store.Partitions.Revision(ctx, providerID, date)
	if err != nil {
		return nil, fmt.Errorf("partition revision: %w", err)
	}

	active, err := c.store.Appointments.ListPartition(ctx, providerID, date,
		model.AppointmentStatusOngoing,
		model.AppointmentStatusScheduled,
		model.AppointmentStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("list partition: %w", err)
	}

	view := &QueueView{ProviderID: providerID, Date: date, Revision: rev}
	for i := range active {
		switch active[i].Status {
		case model.AppointmentStatusOngoing:
			view.Current = &active[i]
		case model.AppointmentStatusPending:
			view.Pending = append(view.Pending, active[i])
		}
	}
	view.Entries = queue.Ranked(active, c.opts.WaitFallback)

	// обслуживаемая сейчас запись задерживает всю очередь на свою длительность
	if view.Current != nil {
		extra := queue.Duration(*view.Current, c.opts.WaitFallback)
		for i := range view.Entries {
			view.Entries[i].EstimatedWait += extra
		}
	}

	info, err := c.engine.Capacity(ctx, c.store, provider, date)
	if err != nil {
		return nil, err
	}
	view.Capacity = info

	return view, nil
}

func (c *Controller) Capacity(ctx context.Context, providerID uuid.UUID, date string) (_ queue.CapacityInfo, err error) {
	ctx, span, started := c.start(ctx, "capacity")
	defer func() { err = c.finish(ctx, "capacity", span, started, err) }()

	provider, err := c.store.Providers.GetByID(ctx, providerID)
	if err != nil {
		return queue.CapacityInfo{}, notFoundProvider(err, providerID)
	}
	return c.engine.Capacity(ctx, c.store, provider, date)
}

// ListPending — заявки, ждущие ответа провайдера; срочные первыми. Пустой date — все дни.
func (c *Controller) ListPending(ctx context.Context, providerID uuid.UUID, date string, page, pageSize int) (_ calendar.Page[model.Appointment], err error) {
	ctx, span, started := c.start(ctx, "list_pending")
	defer func() { err = c.finish(ctx, "list_pending", span, started, err) }()

	page, pageSize = calendar.Normalize(page, pageSize)
	items, total, err := c.store.Appointments.ListPending(ctx, providerID, date, pageSize, calendar.Offset(page, pageSize))
	if err != nil {
		return calendar.Page[model.Appointment]{}, fmt.Errorf("list pending: %w", err)
	}
	return calendar.NewPage(items, page, pageSize, total), nil
}

func (c *Controller) ListByCustomer(ctx context.Context, customerID uuid.UUID, page, pageSize int) (_ calendar.Page[model.Appointment], err error) {
	ctx, span, started := c.start(ctx, "list_by_customer")
	defer func() { err = c.finish(ctx, "list_by_customer", span, started, err) }()

	page, pageSize = calendar.Normalize(page, pageSize)
	items, total, err := c.store.Appointments.ListByCustomer(ctx, customerID, pageSize, calendar.Offset(page, pageSize))
	if err != nil {
		return calendar.Page[model.Appointment]{}, fmt.Errorf("list by customer: %w", err)
	}
	return calendar.NewPage(items, page, pageSize, total), nil
}

// History — журнал событий записи по страницам. Событий у одной записи единицы,
// поэтому журнал читается целиком и режется в памяти.
func (c *Controller) History(ctx context.Context, id uuid.UUID, page, pageSize int) (_ calendar.Page[model.Event], err error) {
	ctx, span, started := c.start(ctx, "history")
	defer func() { err = c.finish(ctx, "history", span, started, err) }()

	events, err := c.store.Events.ListByAppointment(ctx, id)
	if err != nil {
		return calendar.Page[model.Event]{}, fmt.Errorf("list events: %w", err)
	}
	return calendar.Paginate(events, page, pageSize), nil
}

// Watch вызывает fn с текущим состоянием партиции и затем на каждый сигнал ленты.
// Сигнал не используется как данные: состояние каждый раз перечитывается.
// Возвращается, когда ctx отменён, лента закрыта или fn вернула ошибку.
func (c *Controller) Watch(ctx context.Context, providerID uuid.UUID, date string, fn func(*QueueView) error) error {
	signals, err := c.feed.Subscribe(ctx, feed.PartitionChannel(providerID, date))
	if err != nil {
		return classify(fmt.Errorf("subscribe: %w", err))
	}

	var lastRev int64 = -1
	emit := func() error {
		view, err := c.readQueue(ctx, providerID, date)
		if err != nil {
			return classify(err)
		}
		if view.Revision == lastRev {
			return nil
		}
		lastRev = view.Revision
		return fn(view)
	}

	if err := emit(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-signals:
			if !ok {
				return nil
			}
			if err := emit(); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}
