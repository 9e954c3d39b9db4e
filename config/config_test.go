package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, 5000, cfg.DBBusyTimeoutMS)
	assert.Equal(t, "permissive", cfg.OrderTransitions)
	assert.False(t, cfg.RequireAuth)
	assert.Equal(t, devSecret, cfg.SecretKey)
	assert.Empty(t, cfg.Brokers())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "4100")
	t.Setenv("DB_PATH", "/tmp/orders.db")
	t.Setenv("REQUIRE_AUTH", "true")
	t.Setenv("ORDER_TRANSITIONS", "strict")
	t.Setenv("JWT_SECRET_KEY", "s3cret")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "4100", cfg.Port)
	assert.Equal(t, "/tmp/orders.db", cfg.DBPath)
	assert.True(t, cfg.RequireAuth)
	assert.Equal(t, "strict", cfg.OrderTransitions)
	assert.Equal(t, "s3cret", cfg.SecretKey)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers())
}
