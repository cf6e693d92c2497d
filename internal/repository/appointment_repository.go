package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/appointment-queue/internal/model"
)

// ErrStatusChanged — условная запись не прошла: статус уже не тот, что ожидался.
var ErrStatusChanged = errors.New("appointment status changed concurrently")

type AppointmentRepository interface {
	// Создать новую запись.
	Create(ctx context.Context, appt *model.Appointment) error
	// Получить запись по ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	// Получить запись по ID с блокировкой строки до конца транзакции.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	// Условно обновить запись: только если её статус всё ещё expected.
	UpdateIfStatus(ctx context.Context, id uuid.UUID, expected model.AppointmentStatus, fields map[string]any) error
	// Максимальный номер среди scheduled в партиции (0, если пусто).
	MaxQueueNumber(ctx context.Context, providerID uuid.UUID, date string) (int, error)
	// Сдвинуть номера всех scheduled в партиции на by.
	ShiftQueue(ctx context.Context, providerID uuid.UUID, date string, by int) (int64, error)
	// Выставить номер очереди без проверки статуса (перенумерация под блокировкой партиции).
	SetQueueNumber(ctx context.Context, id uuid.UUID, number int) error
	// Количество записей партиции в указанных статусах.
	CountByStatus(ctx context.Context, providerID uuid.UUID, date string, statuses ...model.AppointmentStatus) (int64, error)
	// Записи партиции в указанных статусах, по номеру очереди.
	ListPartition(ctx context.Context, providerID uuid.UUID, date string, statuses ...model.AppointmentStatus) ([]model.Appointment, error)
	// Заявки, ожидающие ответа провайдера, с пагинацией.
	ListPending(ctx context.Context, providerID uuid.UUID, date string, limit, offset int) ([]model.Appointment, int64, error)
	// История записей клиента с пагинацией.
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]model.Appointment, int64, error)
}

// Реализация на GORM.
type GormAppointmentRepository struct {
	db *gorm.DB
}

func NewGormAppointmentRepository(db *gorm.DB) *GormAppointmentRepository {
	return &GormAppointmentRepository{db: db}
}

func (r *GormAppointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	return r.db.WithContext(ctx).Create(appt).Error
}

func (r *GormAppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var a model.Appointment
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormAppointmentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var a model.Appointment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&a, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormAppointmentRepository) UpdateIfStatus(
	ctx context.Context,
	id uuid.UUID,
	expected model.AppointmentStatus,
	fields map[string]any,
) error {
	update := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		update[k] = v
	}
	update["updated_at"] = time.Now().UTC()

	res := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(update)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusChanged
	}
	return nil
}

func (r *GormAppointmentRepository) MaxQueueNumber(ctx context.Context, providerID uuid.UUID, date string) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("provider_id = ? AND date = ? AND status = ?", providerID, date, model.AppointmentStatusScheduled).
		Select("COALESCE(MAX(queue_number), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max, nil
}

func (r *GormAppointmentRepository) ShiftQueue(ctx context.Context, providerID uuid.UUID, date string, by int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("provider_id = ? AND date = ? AND status = ?", providerID, date, model.AppointmentStatusScheduled).
		Where("queue_number IS NOT NULL").
		Updates(map[string]any{
			"queue_number": gorm.Expr("queue_number + ?", by),
			"updated_at":   time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *GormAppointmentRepository) SetQueueNumber(ctx context.Context, id uuid.UUID, number int) error {
	return r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"queue_number": number,
			"updated_at":   time.Now().UTC(),
		}).Error
}

func (r *GormAppointmentRepository) CountByStatus(
	ctx context.Context,
	providerID uuid.UUID,
	date string,
	statuses ...model.AppointmentStatus,
) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("provider_id = ? AND date = ?", providerID, date).
		Where("status IN ?", statuses).
		Count(&total).Error
	return total, err
}

func (r *GormAppointmentRepository) ListPartition(
	ctx context.Context,
	providerID uuid.UUID,
	date string,
	statuses ...model.AppointmentStatus,
) ([]model.Appointment, error) {
	var appts []model.Appointment
	err := r.db.WithContext(ctx).
		Where("provider_id = ? AND date = ?", providerID, date).
		Where("status IN ?", statuses).
		Order("CASE WHEN queue_number IS NULL THEN 1 ELSE 0 END").
		Order("queue_number ASC").
		Order("created_at ASC").
		Find(&appts).Error
	if err != nil {
		return nil, err
	}
	return appts, nil
}

func (r *GormAppointmentRepository) ListPending(
	ctx context.Context,
	providerID uuid.UUID,
	date string,
	limit, offset int,
) ([]model.Appointment, int64, error) {
	var (
		appts []model.Appointment
		total int64
	)

	q := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("provider_id = ? AND status = ?", providerID, model.AppointmentStatusPending)
	if date != "" {
		q = q.Where("date = ?", date)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	// Срочные заявки показываем первыми, дальше по времени создания.
	if err := q.Order("is_urgent DESC").Order("created_at ASC").Find(&appts).Error; err != nil {
		return nil, 0, err
	}

	return appts, total, nil
}

func (r *GormAppointmentRepository) ListByCustomer(
	ctx context.Context,
	customerID uuid.UUID,
	limit, offset int,
) ([]model.Appointment, int64, error) {
	var (
		appts []model.Appointment
		total int64
	)

	q := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("customer_id = ?", customerID)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Order("date DESC").Order("created_at DESC").Find(&appts).Error; err != nil {
		return nil, 0, err
	}

	return appts, total, nil
}
