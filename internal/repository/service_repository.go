package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/appointment-queue/internal/model"
)

// CatalogRepository — услуги и доп. опции, из которых считается цена заявки.
type CatalogRepository interface {
	GetServiceByID(ctx context.Context, id uuid.UUID) (*model.Service, error)
	CreateService(ctx context.Context, service *model.Service) error
	CreateAddOn(ctx context.Context, addOn *model.AddOn) error
	ListServices(ctx context.Context, onlyActive bool, limit, offset int) ([]model.Service, int64, error)
	ListServicesByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Service, error)
	ListAddOnsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.AddOn, error)
}

type GormCatalogRepository struct {
	db *gorm.DB
}

func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

func (r *GormCatalogRepository) GetServiceByID(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	var s model.Service
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormCatalogRepository) CreateService(ctx context.Context, service *model.Service) error {
	return r.db.WithContext(ctx).Create(service).Error
}

func (r *GormCatalogRepository) CreateAddOn(ctx context.Context, addOn *model.AddOn) error {
	return r.db.WithContext(ctx).Create(addOn).Error
}

func (r *GormCatalogRepository) ListServices(ctx context.Context, onlyActive bool, limit, offset int) ([]model.Service, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Service{})
	if onlyActive {
		q = q.Where("is_active = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var services []model.Service
	if err := q.Order("name ASC").Limit(limit).Offset(offset).Find(&services).Error; err != nil {
		return nil, 0, err
	}
	return services, total, nil
}

func (r *GormCatalogRepository) ListServicesByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Service, error) {
	if len(ids) == 0 {
		return []model.Service{}, nil
	}
	var services []model.Service
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&services).Error
	if err != nil {
		return nil, err
	}
	return services, nil
}

func (r *GormCatalogRepository) ListAddOnsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.AddOn, error) {
	if len(ids) == 0 {
		return []model.AddOn{}, nil
	}
	var addOns []model.AddOn
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&addOns).Error
	if err != nil {
		return nil, err
	}
	return addOns, nil
}
