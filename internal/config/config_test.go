package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", "does-not-exist.env")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "Europe/Istanbul", cfg.BusinessTimezone)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Empty(t, cfg.RedisAddr)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, 10, cfg.LoginRateLimit)
	assert.Len(t, cfg.Warnings(), 2)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{JWTSecret: testSecret, StoreDriver: StoreDriverMongo, BusinessTimezone: "UTC", LoginRateLimit: 5}
	}

	require.NoError(t, base().Validate())

	c := base()
	c.JWTSecret = ""
	assert.Error(t, c.Validate())

	c = base()
	c.JWTSecret = "short"
	assert.Error(t, c.Validate())

	c = base()
	c.StoreDriver = "sqlite"
	assert.Error(t, c.Validate())

	c = base()
	c.BusinessTimezone = "Mars/Olympus"
	assert.Error(t, c.Validate())

	c = base()
	c.LoginRateLimit = 0
	assert.Error(t, c.Validate())
}
