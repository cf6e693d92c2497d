// Package queue отвечает за номера в очереди партиции (провайдер, день):
// выдачу номера, срочную вставку в голову, лимит записей и уплотнение.
//
// Все методы Engine рассчитаны на вызов внутри транзакции после Lock.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/appointment-queue/internal/apperrors"
	"github.com/Leganyst/appointment-queue/internal/model"
	"github.com/Leganyst/appointment-queue/internal/repository"
)

// UrgentPosition — номер, который получает принятая срочная заявка.
const UrgentPosition = 1

// DefaultServiceDuration — оценка длительности, если у записи она не сохранена.
const DefaultServiceDuration = 35 * time.Minute

// CompactionPolicy определяет, что происходит с номерами после ухода записи из очереди.
type CompactionPolicy string

const (
	// Номера оставшихся не меняются, дырки допустимы. Порядок читается по рангу.
	CompactionGapTolerant CompactionPolicy = "gap_tolerant"
	// Оставшиеся перенумеровываются в 1..N.
	CompactionRenumber CompactionPolicy = "renumber"
)

// Статусы, которые занимают место в дневном лимите.
var capacityStatuses = []model.AppointmentStatus{
	model.AppointmentStatusPending,
	model.AppointmentStatusScheduled,
}

type Engine struct {
	defaultCapacity int
	policy          CompactionPolicy
}

func NewEngine(defaultCapacity int, policy CompactionPolicy) *Engine {
	if defaultCapacity <= 0 {
		defaultCapacity = model.DefaultDailyCapacity
	}
	if policy == "" {
		policy = CompactionGapTolerant
	}
	return &Engine{defaultCapacity: defaultCapacity, policy: policy}
}

func (e *Engine) Policy() CompactionPolicy {
	return e.policy
}

// Lock блокирует строку партиции до конца транзакции tx.
func (e *Engine) Lock(ctx context.Context, tx *repository.Store, providerID uuid.UUID, date string) (*model.QueuePartition, error) {
	p, err := tx.Partitions.Lock(ctx, providerID, date)
	if err != nil {
		return nil, fmt.Errorf("lock partition %s/%s: %w", providerID, date, err)
	}
	return p, nil
}

// NextPosition = max(queue_number среди scheduled, 0) + 1.
func (e *Engine) NextPosition(ctx context.Context, tx *repository.Store, providerID uuid.UUID, date string) (int, error) {
	max, err := tx.Appointments.MaxQueueNumber(ctx, providerID, date)
	if err != nil {
		return 0, fmt.Errorf("max queue number: %w", err)
	}
	return max + 1, nil
}

// InsertUrgent сдвигает всех scheduled на один номер вниз и освобождает первый.
// Вызывающий записывает UrgentPosition в свою заявку той же транзакцией.
func (e *Engine) InsertUrgent(ctx context.Context, tx *repository.Store, providerID uuid.UUID, date string) (int, error) {
	if _, err := tx.Appointments.ShiftQueue(ctx, providerID, date, 1); err != nil {
		return 0, fmt.Errorf("shift queue: %w", err)
	}
	return UrgentPosition, nil
}

// Assign выбирает номер для принимаемой заявки по её срочности.
func (e *Engine) Assign(ctx context.Context, tx *repository.Store, providerID uuid.UUID, date string, urgent bool) (int, error) {
	if urgent {
		return e.InsertUrgent(ctx, tx, providerID, date)
	}
	return e.NextPosition(ctx, tx, providerID, date)
}

// CheckCapacity — срочная заявка проходит всегда, обычная только ниже потолка.
func CheckCapacity(current, ceiling int64, urgent bool) error {
	if urgent || current < ceiling {
		return nil
	}
	return apperrors.NewCapacityExceededError(current, ceiling)
}

// CapacityCheck считает pending и scheduled в партиции и сверяет с потолком провайдера.
func (e *Engine) CapacityCheck(ctx context.Context, tx *repository.Store, provider *model.Provider, date string, urgent bool) error {
	info, err := e.Capacity(ctx, tx, provider, date)
	if err != nil {
		return err
	}
	return CheckCapacity(info.Current, info.Max, urgent)
}

// CapacityInfo — загрузка партиции относительно дневного потолка.
type CapacityInfo struct {
	Current   int64
	Max       int64
	Available int64
	IsFull    bool
}

func (e *Engine) Capacity(ctx context.Context, tx *repository.Store, provider *model.Provider, date string) (CapacityInfo, error) {
	current, err := tx.Appointments.CountByStatus(ctx, provider.ID, date, capacityStatuses...)
	if err != nil {
		return CapacityInfo{}, fmt.Errorf("count partition: %w", err)
	}

	max := int64(provider.Capacity(e.defaultCapacity))
	available := max - current
	if available < 0 {
		available = 0
	}

	return CapacityInfo{
		Current:   current,
		Max:       max,
		Available: available,
		IsFull:    current >= max,
	}, nil
}

// Compact вызывается после ухода записи из scheduled/ongoing.
// Возвращает оставшиеся scheduled в порядке очереди и новую ревизию партиции.
func (e *Engine) Compact(ctx context.Context, tx *repository.Store, providerID uuid.UUID, date string) ([]model.Appointment, int64, error) {
	survivors, err := tx.Appointments.ListPartition(ctx, providerID, date, model.AppointmentStatusScheduled)
	if err != nil {
		return nil, 0, fmt.Errorf("list scheduled: %w", err)
	}

	if e.policy == CompactionRenumber {
		for i := range survivors {
			number := i + 1
			if survivors[i].Position() == number {
				continue
			}
			if err := tx.Appointments.SetQueueNumber(ctx, survivors[i].ID, number); err != nil {
				return nil, 0, fmt.Errorf("renumber %s: %w", survivors[i].ID, err)
			}
			survivors[i].QueueNumber = &number
		}
	}

	rev, err := tx.Partitions.Bump(ctx, providerID, date)
	if err != nil {
		return nil, 0, fmt.Errorf("bump partition: %w", err)
	}
	return survivors, rev, nil
}

// Touch отмечает изменение партиции без пересчёта номеров.
func (e *Engine) Touch(ctx context.Context, tx *repository.Store, providerID uuid.UUID, date string) (int64, error) {
	rev, err := tx.Partitions.Bump(ctx, providerID, date)
	if err != nil {
		return 0, fmt.Errorf("bump partition: %w", err)
	}
	return rev, nil
}
