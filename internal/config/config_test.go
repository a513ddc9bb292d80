package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "3306", cfg.Database.Port)
	assert.Equal(t, "root:@tcp(localhost:3306)/hospital?charset=utf8mb4&parseTime=True&loc=Local", cfg.Database.DSN)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 5*time.Minute, cfg.Redis.RoomsCacheTTL)
	assert.Equal(t, 15, cfg.JWTExpirationMinutes)
}

func TestLoadConfig_Postgres(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_USERNAME", "clinic")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "host=localhost port=5432 user=clinic password=secret dbname=hospital sslmode=disable", cfg.Database.DSN)
	assert.True(t, cfg.Redis.Enabled())
}

func TestLoadConfig_ExplicitDSNWins(t *testing.T) {
	t.Setenv("DB_DSN", "user:pw@tcp(db:3306)/x")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "user:pw@tcp(db:3306)/x", cfg.Database.DSN)
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"DB_DRIVER":              "sqlite",
		"JWT_EXPIRATION_MINUTES": "soon",
		"ROOM_CACHE_TTL_SECONDS": "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadConfig()
			assert.ErrorContains(t, err, key)
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "UTC"}
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	cfg.Timezone = "Mars/Olympus"
	_, err = cfg.Location()
	assert.Error(t, err)
}
