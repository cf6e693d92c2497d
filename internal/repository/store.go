package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store собирает репозитории поверх одного *gorm.DB.
// Внутри Transaction все репозитории работают в рамках одной транзакции.
type Store struct {
	db *gorm.DB

	Appointments  AppointmentRepository
	Partitions    PartitionRepository
	Providers     ProviderRepository
	Catalog       CatalogRepository
	Events        EventRepository
	Notifications NotificationRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Appointments:  NewGormAppointmentRepository(db),
		Partitions:    NewGormPartitionRepository(db),
		Providers:     NewGormProviderRepository(db),
		Catalog:       NewGormCatalogRepository(db),
		Events:        NewGormEventRepository(db),
		Notifications: NewGormNotificationRepository(db),
	}
}

// Transaction выполняет fn в транзакции. Ошибка из fn откатывает всё целиком.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// DB отдаёт нижележащее соединение (миграции, healthcheck).
func (s *Store) DB() *gorm.DB {
	return s.db
}
