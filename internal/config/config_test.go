package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("QUEUE_DEFAULT_CAPACITY", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, DriverPostgres, cfg.DB.Driver)
	require.Equal(t, 15, cfg.Queue.DefaultCapacity)
	require.Equal(t, 30, cfg.Queue.AdvanceDays)
	require.Equal(t, 5, cfg.Queue.MaxServices)
	require.Equal(t, "gap_tolerant", cfg.Queue.CompactionPolicy)
	require.Empty(t, cfg.KafkaBrokers)
	require.Equal(t, ":50051", cfg.GRPCAddr)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", "/tmp/q.db")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("QUEUE_DEFAULT_CAPACITY", "20")
	t.Setenv("QUEUE_TIMEZONE", "Europe/Moscow")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, DriverSQLite, cfg.DB.Driver)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 20, cfg.Queue.DefaultCapacity)
	require.Equal(t, "Europe/Moscow", cfg.Queue.Location.String())
	require.True(t, cfg.LogPretty)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "mysql")
		_, err := LoadConfig()
		require.Error(t, err)
	})

	t.Run("bad timezone", func(t *testing.T) {
		t.Setenv("QUEUE_TIMEZONE", "Mars/Olympus")
		_, err := LoadConfig()
		require.Error(t, err)
	})

	t.Run("bad policy", func(t *testing.T) {
		t.Setenv("QUEUE_COMPACTION_POLICY", "shuffle")
		_, err := LoadConfig()
		require.Error(t, err)
	})
}

func TestDBConfig_DSN(t *testing.T) {
	cfg := &DBConfig{Host: "h", User: "u", Password: "p", Name: "n", Port: 5433, SSLMode: "disable", TimeZone: "UTC"}
	require.Equal(t, "host=h user=u password=p dbname=n port=5433 sslmode=disable TimeZone=UTC", cfg.DSN())
}
