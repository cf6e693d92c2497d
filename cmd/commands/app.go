package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Leganyst/appointment-queue/internal/booking"
	"github.com/Leganyst/appointment-queue/internal/db"
	"github.com/Leganyst/appointment-queue/internal/feed"
	"github.com/Leganyst/appointment-queue/internal/metrics"
	"github.com/Leganyst/appointment-queue/internal/notify"
	"github.com/Leganyst/appointment-queue/internal/queue"
	"github.com/Leganyst/appointment-queue/internal/repository"
)

// app — собранные зависимости процесса.
type app struct {
	db         *gorm.DB
	store      *repository.Store
	controller *booking.Controller
	registry   *prometheus.Registry

	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func openDB() (*gorm.DB, func() error, error) {
	gormDB, err := db.NewGormDB(cfg.DB, log)
	if err != nil {
		return nil, nil, fmt.Errorf("init db: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("sql DB: %w", err)
	}
	return gormDB, sqlDB.Close, nil
}

// newApp подключает хранилище, ленту и доставку уведомлений.
// Redis и Kafka необязательны: без адресов работает только внутренний inbox.
func newApp(ctx context.Context) (*app, error) {
	gormDB, closeDB, err := openDB()
	if err != nil {
		return nil, err
	}
	a := &app{
		db:       gormDB,
		store:    repository.NewStore(gormDB),
		registry: prometheus.NewRegistry(),
		closers:  []func() error{closeDB},
	}

	notifiers := []notify.Notifier{notify.NewStoreNotifier(a.store.Notifications)}
	if len(cfg.KafkaBrokers) > 0 {
		kn := notify.NewKafkaNotifier(notify.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaNotificationsTopic))
		notifiers = append(notifiers, kn)
		a.closers = append(a.closers, kn.Close)
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaNotificationsTopic).Msg("kafka notifications enabled")
	}

	var changes feed.Feed = feed.Nop{}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			_ = a.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		rf := feed.NewRedisFeed(client, log)
		changes = rf
		a.closers = append(a.closers, client.Close, rf.Close)
		log.Info().Str("addr", cfg.RedisAddr).Msg("redis change feed enabled")
	}

	a.controller = booking.NewController(booking.Deps{
		Store:    a.store,
		Engine:   queue.NewEngine(cfg.Queue.DefaultCapacity, queue.CompactionPolicy(cfg.Queue.CompactionPolicy)),
		Notifier: notify.NewFanout(notifiers...),
		Feed:     changes,
		Metrics:  metrics.NewQueueMetrics(a.registry),
		Logger:   log,
	}, booking.Options{
		AdvanceDays: cfg.Queue.AdvanceDays,
		MaxServices: cfg.Queue.MaxServices,
		MaxAddOns:   cfg.Queue.MaxAddOns,
		Location:    cfg.Queue.Location,
	})

	return a, nil
}
