package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "LOG_LEVEL", "PORT", "STORAGE_DRIVER", "DATABASE_URL",
		"DB_HOST", "DB_NAME", "DB_USER", "DB_PASSWORD", "DB_PORT",
		"MYSQL_DSN", "MONGO_URI", "MONGO_DATABASE", "DB_TX_RETRIES",
		"REDIS_ADDR", "KAFKA_BROKERS", "KAFKA_TOPIC", "JWT_SECRET",
		"CORS_ORIGINS", "SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, 3, cfg.TxRetries)
	assert.Equal(t, "brewery.orders", cfg.KafkaTopic)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "MONGO")
	t.Setenv("CORS_ORIGINS", "https://shop.example, https://admin.example")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("DB_TX_RETRIES", "not-a-number")

	cfg := Load()
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, DriverMongo, cfg.StorageDriver)
	assert.Equal(t, []string{"https://shop.example", "https://admin.example"}, cfg.CORSOrigins)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 3, cfg.TxRetries, "unparsable values fall back to the default")
}

func TestDatabaseURLFromParts(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "brewery")
	t.Setenv("DB_USER", "brewer")
	t.Setenv("DB_PASSWORD", "hops")

	assert.Equal(t, "host=db user=brewer password=hops dbname=brewery port=5432 sslmode=disable", Load().DatabaseURL)

	t.Setenv("DATABASE_URL", "postgres://x@y/z")
	assert.Equal(t, "postgres://x@y/z", Load().DatabaseURL)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_DRIVER", DriverMemory)
	t.Setenv("JWT_SECRET", "s3cret")
	require.NoError(t, Load().Validate())

	cfg := Load()
	cfg.JWTSecret = ""
	cfg.StorageDriver = DriverPostgres
	cfg.HTTPPort = 70000
	cfg.TxRetries = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "JWT_SECRET is required")
	assert.ErrorContains(t, err, "DATABASE_URL")
	assert.ErrorContains(t, err, "invalid PORT 70000")
	assert.ErrorContains(t, err, "invalid DB_TX_RETRIES -1")

	cfg = Load()
	cfg.StorageDriver = DriverMySQL
	assert.ErrorContains(t, cfg.Validate(), "MYSQL_DSN")

	cfg.StorageDriver = "sqlite"
	assert.ErrorContains(t, cfg.Validate(), `unknown STORAGE_DRIVER "sqlite"`)
}

func TestValidateRejectsEmptyCORSOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_DRIVER", DriverMemory)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CORS_ORIGINS", " , ")

	cfg := Load()
	assert.Empty(t, cfg.CORSOrigins)
	assert.ErrorContains(t, cfg.Validate(), "CORS_ORIGINS must list at least one origin")
}
