// Package booking — жизненный цикл заявки: подача, ответ провайдера,
// обслуживание, отмена и чтение очереди.
//
// Каждая мутация — одна транзакция: блокировка партиции, перечитывание записи
// с блокировкой, проверки, условная запись. Уведомления и сигнал в ленту
// отправляются после коммита и на результат не влияют.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/Leganyst/appointment-queue/internal/apperrors"
	"github.com/Leganyst/appointment-queue/internal/feed"
	"github.com/Leganyst/appointment-queue/internal/logging"
	"github.com/Leganyst/appointment-queue/internal/metrics"
	"github.com/Leganyst/appointment-queue/internal/model"
	"github.com/Leganyst/appointment-queue/internal/notify"
	"github.com/Leganyst/appointment-queue/internal/queue"
	"github.com/Leganyst/appointment-queue/internal/repository"
	"github.com/Leganyst/appointment-queue/internal/status"
)

var tracer = otel.Tracer("queuecore.internal.booking")

// Options — правила приёма заявок.
type Options struct {
	AdvanceDays  int
	MaxServices  int
	MaxAddOns    int
	Location     *time.Location
	WaitFallback time.Duration
}

func (o Options) withDefaults() Options {
	if o.AdvanceDays <= 0 {
		o.AdvanceDays = 30
	}
	if o.MaxServices <= 0 {
		o.MaxServices = 5
	}
	if o.MaxAddOns <= 0 {
		o.MaxAddOns = 5
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.WaitFallback <= 0 {
		o.WaitFallback = queue.DefaultServiceDuration
	}
	return o
}

type Controller struct {
	store    *repository.Store
	engine   *queue.Engine
	machine  *status.Machine
	notifier notify.Notifier
	feed     feed.Feed
	metrics  *metrics.QueueMetrics
	log      zerolog.Logger
	now      func() time.Time
	opts     Options
}

// Deps — внешние зависимости контроллера. Notifier, Feed и Metrics необязательны.
type Deps struct {
	Store    *repository.Store
	Engine   *queue.Engine
	Notifier notify.Notifier
	Feed     feed.Feed
	Metrics  *metrics.QueueMetrics
	Logger   zerolog.Logger
	Clock    func() time.Time
}

func NewController(d Deps, opts Options) *Controller {
	if d.Engine == nil {
		d.Engine = queue.NewEngine(0, "")
	}
	if d.Notifier == nil {
		d.Notifier = notify.NewFanout()
	}
	if d.Feed == nil {
		d.Feed = feed.Nop{}
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return &Controller{
		store:    d.Store,
		engine:   d.Engine,
		machine:  status.NewMachine(d.Engine),
		notifier: d.Notifier,
		feed:     d.Feed,
		metrics:  d.Metrics,
		log:      d.Logger.With().Str("component", "booking").Logger(),
		now:      d.Clock,
		opts:     opts.withDefaults(),
	}
}

func (c *Controller) start(ctx context.Context, op string) (context.Context, trace.Span, time.Time) {
	ctx, span := tracer.Start(ctx, "booking."+op)
	return ctx, span, time.Now()
}

// finish приводит ошибку к AppError, пишет её в спан и метрики.
func (c *Controller) finish(ctx context.Context, op string, span trace.Span, started time.Time, err error) error {
	defer span.End()
	c.metrics.ObserveOperation(op, started)
	if err == nil {
		return nil
	}

	err = classify(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(apperrors.TypeOf(err)))
	c.metrics.ObserveRejection(op, string(apperrors.TypeOf(err)))

	log := logging.FromContext(ctx, c.log)
	if apperrors.Is(err, apperrors.ErrorTypeStoreUnavailable) {
		log.Error().Err(err).Str("op", op).Msg("operation failed")
	} else {
		log.Info().Err(err).Str("op", op).Msg("operation rejected")
	}
	return err
}

// classify: ошибки приложения как есть, отсутствие записи — NotFound, прочее — хранилище.
func classify(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NewNotFoundError("record not found")
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewStoreUnavailableError("operation interrupted", err)
	}
	return apperrors.NewStoreUnavailableError("store operation failed", err)
}

// afterCommit доставляет уведомления и сигнал ленты. Ошибки только логируются.
func (c *Controller) afterCommit(ctx context.Context, notices []notify.Notice, sig feed.Signal) {
	// доставка не должна обрываться вместе с запросом
	ctx = context.WithoutCancel(ctx)
	log := logging.FromContext(ctx, c.log)

	for _, n := range notices {
		err := c.notifier.Notify(ctx, n)
		c.metrics.ObserveNotification(n.Category, err)
		if err != nil {
			log.Warn().Err(err).
				Str("category", n.Category).
				Str("user_id", n.UserID.String()).
				Str("appointment_id", n.AppointmentID.String()).
				Msg("notification delivery failed")
		}
	}

	if sig.At.IsZero() {
		sig.At = c.now().UTC()
	}
	err := feed.Broadcast(ctx, c.feed, sig)
	c.metrics.ObserveFeedPublish(sig.Kind, err)
	if err != nil {
		log.Warn().Err(err).
			Str("provider_id", sig.ProviderID.String()).
			Str("date", sig.Date).
			Msg("feed publish failed")
	}
}

func transitionSignal(out *status.Outcome) feed.Signal {
	a := out.Appointment
	return feed.Signal{
		Kind:          feed.KindTransition,
		ProviderID:    a.ProviderID,
		Date:          a.Date,
		AppointmentID: a.ID,
		CustomerID:    a.CustomerID,
		From:          string(out.From),
		To:            string(a.Status),
		Revision:      out.Revision,
	}
}

func notFoundAppointment(err error, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NewNotFoundError("appointment %v not found", id)
	}
	return err
}

func notFoundProvider(err error, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NewNotFoundError("provider %v not found", id)
	}
	return err
}

// providerOf читает провайдера записи внутри транзакции.
func providerOf(ctx context.Context, tx *repository.Store, appt *model.Appointment) (*model.Provider, error) {
	p, err := tx.Providers.GetByID(ctx, appt.ProviderID)
	if err != nil {
		return nil, notFoundProvider(err, appt.ProviderID)
	}
	return p, nil
}
