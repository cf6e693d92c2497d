package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config — настройки процесса целиком.
type Config struct {
	ServiceName string

	DB *DBConfig

	// Пустой адрес — лента изменений выключена.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Пустой список — уведомления пишутся только во внутренний inbox.
	KafkaBrokers            []string
	KafkaNotificationsTopic string

	GRPCAddr    string
	MetricsAddr string

	LogLevel  string
	LogPretty bool

	Queue QueueConfig
}

// QueueConfig — правила очереди и приёма заявок.
type QueueConfig struct {
	DefaultCapacity int
	AdvanceDays     int
	MaxServices     int
	MaxAddOns       int
	// renumber | gap_tolerant
	CompactionPolicy string
	Location         *time.Location
}

// LoadConfig читает .env (если есть) и переменные окружения.
func LoadConfig() (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	dbCfg, err := LoadDBConfig()
	if err != nil {
		return nil, err
	}

	tz := getEnv("QUEUE_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid QUEUE_TIMEZONE %q: %w", tz, err)
	}

	cfg := &Config{
		ServiceName:             getEnv("SERVICE_NAME", "queuecore"),
		DB:                      dbCfg,
		RedisAddr:               getEnv("REDIS_ADDR", ""),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		RedisDB:                 getEnvInt("REDIS_DB", 0),
		KafkaBrokers:            splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaNotificationsTopic: getEnv("KAFKA_NOTIFICATIONS_TOPIC", "queue.notifications"),
		GRPCAddr:                getEnv("GRPC_ADDR", ":50051"),
		MetricsAddr:             getEnv("METRICS_ADDR", ":9090"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogPretty:               getEnvBool("LOG_PRETTY", false),
		Queue: QueueConfig{
			DefaultCapacity:  getEnvInt("QUEUE_DEFAULT_CAPACITY", 15),
			AdvanceDays:      getEnvInt("QUEUE_ADVANCE_DAYS", 30),
			MaxServices:      getEnvInt("QUEUE_MAX_SERVICES", 5),
			MaxAddOns:        getEnvInt("QUEUE_MAX_ADD_ONS", 5),
			CompactionPolicy: getEnv("QUEUE_COMPACTION_POLICY", "gap_tolerant"),
			Location:         loc,
		},
	}

	if cfg.Queue.DefaultCapacity <= 0 {
		return nil, fmt.Errorf("invalid QUEUE_DEFAULT_CAPACITY: must be positive")
	}
	if cfg.Queue.AdvanceDays <= 0 {
		return nil, fmt.Errorf("invalid QUEUE_ADVANCE_DAYS: must be positive")
	}
	switch cfg.Queue.CompactionPolicy {
	case "gap_tolerant", "renumber":
	default:
		return nil, fmt.Errorf("invalid QUEUE_COMPACTION_POLICY %q", cfg.Queue.CompactionPolicy)
	}

	return cfg, nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
