package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Port                      string
	Origin                    string
	Environment               string
	LogLevel                  string
	Timezone                  string
	JWTSecret                 string
	JWTRefreshSecret          string
	JWTExpirationMinutes      int
	JWTRefreshExpirationHours int
	Database                  DatabaseConfig
	Redis                     RedisConfig
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// RedisConfig holds the eligible-room cache connection. An empty Addr
// disables the cache.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	RoomsCacheTTL time.Duration
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

var keys = []string{
	"PORT", "ORIGIN", "APP_ENV", "LOG_LEVEL", "TIMEZONE",
	"JWT_SECRET", "JWT_REFRESH_SECRET", "JWT_EXPIRATION_MINUTES", "JWT_REFRESH_EXPIRATION_HOURS",
	"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USERNAME", "DB_PASSWORD", "DB_NAME", "DB_DSN",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "ROOM_CACHE_TTL_SECONDS",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3001")
	v.SetDefault("ORIGIN", "http://localhost:4200")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("JWT_SECRET", "default_jwt_secret")
	v.SetDefault("JWT_REFRESH_SECRET", "default_refresh_secret")
	v.SetDefault("JWT_EXPIRATION_MINUTES", 15)
	v.SetDefault("JWT_REFRESH_EXPIRATION_HOURS", 168) // 7 days
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_USERNAME", "root")
	v.SetDefault("DB_NAME", "hospital")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ROOM_CACHE_TTL_SECONDS", 300)
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	driver := strings.ToLower(v.GetString("DB_DRIVER"))
	if driver != "mysql" && driver != "postgres" {
		return nil, fmt.Errorf("invalid DB_DRIVER %q: must be mysql or postgres", driver)
	}

	dbConfig := DatabaseConfig{
		Driver:   driver,
		Host:     v.GetString("DB_HOST"),
		Port:     v.GetString("DB_PORT"),
		Username: v.GetString("DB_USERNAME"),
		Password: v.GetString("DB_PASSWORD"),
		Name:     v.GetString("DB_NAME"),
		DSN:      v.GetString("DB_DSN"),
	}
	if dbConfig.Port == "" {
		dbConfig.Port = defaultPort(driver)
	}
	if dbConfig.DSN == "" {
		dbConfig.DSN = buildDSN(dbConfig)
	}

	jwtExpMinutes := v.GetInt("JWT_EXPIRATION_MINUTES")
	if jwtExpMinutes <= 0 {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_MINUTES: %q", v.GetString("JWT_EXPIRATION_MINUTES"))
	}
	jwtRefreshExpHours := v.GetInt("JWT_REFRESH_EXPIRATION_HOURS")
	if jwtRefreshExpHours <= 0 {
		return nil, fmt.Errorf("invalid JWT_REFRESH_EXPIRATION_HOURS: %q", v.GetString("JWT_REFRESH_EXPIRATION_HOURS"))
	}
	ttlSeconds := v.GetInt("ROOM_CACHE_TTL_SECONDS")
	if ttlSeconds <= 0 {
		return nil, fmt.Errorf("invalid ROOM_CACHE_TTL_SECONDS: %q", v.GetString("ROOM_CACHE_TTL_SECONDS"))
	}

	return &Config{
		Port:                      v.GetString("PORT"),
		Origin:                    v.GetString("ORIGIN"),
		Environment:               v.GetString("APP_ENV"),
		LogLevel:                  v.GetString("LOG_LEVEL"),
		Timezone:                  v.GetString("TIMEZONE"),
		JWTSecret:                 v.GetString("JWT_SECRET"),
		JWTRefreshSecret:          v.GetString("JWT_REFRESH_SECRET"),
		JWTExpirationMinutes:      jwtExpMinutes,
		JWTRefreshExpirationHours: jwtRefreshExpHours,
		Database:                  dbConfig,
		Redis: RedisConfig{
			Addr:          v.GetString("REDIS_ADDR"),
			Password:      v.GetString("REDIS_PASSWORD"),
			DB:            v.GetInt("REDIS_DB"),
			RoomsCacheTTL: time.Duration(ttlSeconds) * time.Second,
		},
	}, nil
}

// Location resolves Timezone. It decides what "today" means for visit dates.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func defaultPort(driver string) string {
	if driver == "postgres" {
		return "5432"
	}
	return "3306"
}

func buildDSN(db DatabaseConfig) string {
	if db.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			db.Host, db.Port, db.Username, db.Password, db.Name)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		db.Username, db.Password, db.Host, db.Port, db.Name)
}
