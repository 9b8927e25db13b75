package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	AppEnv             string `yaml:"app_env"`
	AppPort            string `yaml:"app_port"`
	AllowedOrigins     string `yaml:"allowed_origins"`
	DBDriver           string `yaml:"db_driver"`
	DBHost             string `yaml:"db_host"`
	DBPort             string `yaml:"db_port"`
	DBUser             string `yaml:"db_user"`
	DBPassword         string `yaml:"db_password"`
	DBName             string `yaml:"db_name"`
	DBPath             string `yaml:"db_path"`
	DBMaxIdleConns     int    `yaml:"db_max_idle_conns"`
	DBMaxOpenConns     int    `yaml:"db_max_open_conns"`
	NATSURL            string `yaml:"nats_url"`
	RedisAddr          string `yaml:"redis_addr"`
	RateLimitPerSecond int    `yaml:"rate_limit_per_second"`
	JWTSecret          string `yaml:"jwt_secret"`
	JWTExpirationHours int    `yaml:"jwt_expiration_hours"`
	AutosaveDelayMs    int    `yaml:"autosave_delay_ms"`
	EventPollInterval  int    `yaml:"event_poll_interval_ms"`
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c Config) AutosaveDelay() time.Duration {
	return time.Duration(c.AutosaveDelayMs) * time.Millisecond
}

func (c Config) EventPollDuration() time.Duration {
	return time.Duration(c.EventPollInterval) * time.Millisecond
}

// PostgresDSN builds the connection string for the postgres driver.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost,
		c.DBPort,
		c.DBUser,
		c.DBPassword,
		c.DBName,
	)
}

// SQLiteDSN builds the connection string for the sqlite driver with foreign
// keys enforced.
func (c Config) SQLiteDSN() string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", c.DBPath)
}

func Defaults() Config {
	return Config{
		AppEnv:             "development",
		AppPort:            "8080",
		AllowedOrigins:     "*",
		DBDriver:           DriverPostgres,
		DBHost:             "localhost",
		DBPort:             "5432",
		DBUser:             "quickjot",
		DBPassword:         "quickjot",
		DBName:             "quickjot",
		DBPath:             "quickjot.db",
		DBMaxIdleConns:     10,
		DBMaxOpenConns:     100,
		RateLimitPerSecond: 50,
		JWTSecret:          "your-super-secret-key-change-this-in-production",
		JWTExpirationHours: 24,
		AutosaveDelayMs:    500,
		EventPollInterval:  1000,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid integer value for %s: %q", key, value)
	}
	return intVal, nil
}

// loadFile overlays the YAML file at path onto cfg.
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Load resolves configuration from defaults, an optional YAML file named by
// QUICKJOT_CONFIG, a .env file and the process environment, later sources
// taking precedence.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Defaults()
	if path := os.Getenv("QUICKJOT_CONFIG"); path != "" {
		if err := loadFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	cfg.AppPort = getEnv("APP_PORT", cfg.AppPort)
	cfg.AllowedOrigins = getEnv("ALLOWED_ORIGINS", cfg.AllowedOrigins)
	cfg.DBDriver = getEnv("DB_DRIVER", cfg.DBDriver)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.NATSURL = getEnv("NATS_URL", cfg.NATSURL)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)

	ints := []struct {
		key string
		dst *int
	}{
		{"DB_MAX_IDLE_CONNS", &cfg.DBMaxIdleConns},
		{"DB_MAX_OPEN_CONNS", &cfg.DBMaxOpenConns},
		{"RATE_LIMIT_PER_SECOND", &cfg.RateLimitPerSecond},
		{"JWT_EXPIRATION_HOURS", &cfg.JWTExpirationHours},
		{"AUTOSAVE_DELAY_MS", &cfg.AutosaveDelayMs},
		{"EVENT_POLL_INTERVAL_MS", &cfg.EventPollInterval},
	}
	for _, entry := range ints {
		value, err := getEnvAsInt(entry.key, *entry.dst)
		if err != nil {
			return Config{}, err
		}
		*entry.dst = value
	}

	if cfg.DBDriver != DriverPostgres && cfg.DBDriver != DriverSQLite {
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.AutosaveDelayMs <= 0 {
		return Config{}, fmt.Errorf("AUTOSAVE_DELAY_MS must be positive")
	}

	return cfg, nil
}
