package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/appointment-queue/internal/model"
)

type PartitionRepository interface {
	// Заблокировать строку партиции до конца транзакции, создав её при необходимости.
	Lock(ctx context.Context, providerID uuid.UUID, date string) (*model.QueuePartition, error)
	// Увеличить ревизию партиции и вернуть новое значение.
	Bump(ctx context.Context, providerID uuid.UUID, date string) (int64, error)
	// Текущая ревизия (0, если партиция ещё не создавалась).
	Revision(ctx context.Context, providerID uuid.UUID, date string) (int64, error)
}

type GormPartitionRepository struct {
	db *gorm.DB
}

func NewGormPartitionRepository(db *gorm.DB) *GormPartitionRepository {
	return &GormPartitionRepository{db: db}
}

func (r *GormPartitionRepository) Lock(ctx context.Context, providerID uuid.UUID, date string) (*model.QueuePartition, error) {
	p := model.QueuePartition{ProviderID: providerID, Date: date}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&p).Error
	if err != nil {
		return nil, err
	}

	var locked model.QueuePartition
	err = r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&locked, "provider_id = ? AND date = ?", providerID, date).Error
	if err != nil {
		return nil, err
	}
	return &locked, nil
}

func (r *GormPartitionRepository) Bump(ctx context.Context, providerID uuid.UUID, date string) (int64, error) {
	err := r.db.WithContext(ctx).
		Model(&model.QueuePartition{}).
		Where("provider_id = ? AND date = ?", providerID, date).
		Updates(map[string]any{
			"revision":   gorm.Expr("revision + 1"),
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return 0, err
	}
	return r.Revision(ctx, providerID, date)
}

func (r *GormPartitionRepository) Revision(ctx context.Context, providerID uuid.UUID, date string) (int64, error) {
	var parts []model.QueuePartition
	err := r.db.WithContext(ctx).
		Where("provider_id = ? AND date = ?", providerID, date).
		Limit(1).
		Find(&parts).Error
	if err != nil {
		return 0, err
	}
	if len(parts) == 0 {
		return 0, nil
	}
	return parts[0].Revision, nil
}
