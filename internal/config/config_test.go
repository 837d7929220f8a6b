package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:        "development",
		Port:       "8000",
		JWTSecret:  "secure-secret-at-least-32-chars-long",
		DBDriver:   "postgres",
		DBPassword: "secure-password",
		DBSSLMode:  "require",
	}
}

func TestConfig_ValidateProduction(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"development defaults are accepted", func(c *Config) { c.JWTSecret = "short" }, false},
		{"production with strong secrets", func(c *Config) { c.Env = "production" }, false},
		{"production with default secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = defaultJWTSecret
		}, true},
		{"prod with short secret", func(c *Config) {
			c.Env = "prod"
			c.JWTSecret = "too-short"
		}, true},
		{"production with default db password", func(c *Config) {
			c.Env = "production"
			c.DBPassword = "password"
		}, true},
		{"production sqlite needs no db password", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "sqlite"
			c.DBPassword = ""
		}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"unknown db driver", func(c *Config) { c.DBDriver = "mysql" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateBackends(t *testing.T) {
	t.Run("minio requires endpoint and bucket", func(t *testing.T) {
		c := validConfig()
		c.StorageBackend = "minio"
		assert.Error(t, c.Validate())

		c.MinioEndpoint = "localhost:9000"
		c.MinioBucket = "media"
		assert.NoError(t, c.Validate())
	})

	t.Run("unknown storage backend", func(t *testing.T) {
		c := validConfig()
		c.StorageBackend = "ftp"
		assert.Error(t, c.Validate())
	})

	t.Run("kafka requires brokers and topic", func(t *testing.T) {
		c := validConfig()
		c.EventsBackend = "kafka"
		c.KafkaBrokers = " , "
		c.KafkaTopic = "events"
		assert.Error(t, c.Validate())

		c.KafkaBrokers = "kafka-1:9092, kafka-2:9092"
		assert.NoError(t, c.Validate())
		assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, c.KafkaBrokerList())
	})

	t.Run("unknown events backend", func(t *testing.T) {
		c := validConfig()
		c.EventsBackend = "nats"
		assert.Error(t, c.Validate())
	})
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "test")
	t.Setenv("PORT", "9999")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("INDEX_CACHE_TTL", "45s")
	t.Setenv("EVENTS_BACKEND", "redis")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "test", c.Env)
	assert.Equal(t, "9999", c.Port)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, 45*time.Second, c.IndexCacheTTL)
	assert.Equal(t, "redis", c.EventsBackend)
	assert.Equal(t, "local", c.StorageBackend)
	assert.False(t, c.IsProduction())
}
