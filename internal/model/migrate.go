package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей ядра очереди.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Provider{},
		&Service{},
		&AddOn{},
		&QueuePartition{},
		&Appointment{},
		&Event{},
		&Notification{},
	)
}
