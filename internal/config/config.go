package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	RateLimit RateLimitConfig
	Intake    IntakeConfig
	Redis     RedisConfig
	Email     EmailConfig
	CORS      CORSConfig
	LogLevel  string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DBConfig configures the optional Postgres lead sink. An empty DSN disables it.
type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type RateLimitConfig struct {
	Policy         string
	Requests       int
	Window         time.Duration
	IdentityHeader string
	SweepInterval  time.Duration
}

type IntakeConfig struct {
	QueueSize    int
	Workers      int
	MaxBodyBytes int64
}

// RedisConfig configures limiter decision stats. An empty Addr disables them.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// EmailConfig configures new-lead notifications. Both APIKey and NotifyTo are
// needed for notifications to be sent.
type EmailConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	NotifyTo       string
}

type CORSConfig struct {
	AllowedOrigins []string
}

func LoadConfig() (*Config, error) {
	var errs []string
	fail := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	serverConfig := ServerConfig{
		Port:         getEnv("SERVER_PORT", "8080"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	dbConfig := DBConfig{DSN: getEnv("DATABASE_URL", "")}
	var err error
	dbConfig.MaxOpenConns, err = getEnvAsInt("DB_MAX_OPEN_CONNS", 10)
	fail(err)
	dbConfig.ConnMaxLifetime, err = getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	fail(err)

	rateLimitConfig := RateLimitConfig{
		Policy:         getEnv("RATE_LIMIT_POLICY", "fixed"),
		IdentityHeader: getEnv("RATE_LIMIT_IDENTITY_HEADER", "X-Forwarded-For"),
	}
	rateLimitConfig.Requests, err = getEnvAsInt("RATE_LIMIT_REQUESTS", 5)
	fail(err)
	rateLimitConfig.Window, err = getEnvAsDuration("RATE_LIMIT_WINDOW", 60*time.Second)
	fail(err)
	rateLimitConfig.SweepInterval, err = getEnvAsDuration("RATE_LIMIT_SWEEP_INTERVAL", 0)
	fail(err)

	var intakeConfig IntakeConfig
	intakeConfig.QueueSize, err = getEnvAsInt("INTAKE_QUEUE_SIZE", 100)
	fail(err)
	intakeConfig.Workers, err = getEnvAsInt("INTAKE_WORKERS", 2)
	fail(err)
	maxBody, err := getEnvAsInt("INTAKE_MAX_BODY_BYTES", 64<<10)
	fail(err)
	intakeConfig.MaxBodyBytes = int64(maxBody)

	redisConfig := RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
	}
	redisConfig.DB, err = getEnvAsInt("REDIS_DB", 0)
	fail(err)

	emailConfig := EmailConfig{
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		FromEmail:      getEnv("SENDGRID_FROM_EMAIL", ""),
		FromName:       getEnv("SENDGRID_FROM_NAME", "Solar Leads"),
		NotifyTo:       getEnv("LEAD_NOTIFY_EMAIL", ""),
	}

	corsConfig := CORSConfig{
		AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}

	if rateLimitConfig.Requests <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS must be positive")
	}
	if rateLimitConfig.Window <= 0 {
		errs = append(errs, "RATE_LIMIT_WINDOW must be positive")
	}
	if intakeConfig.Workers <= 0 {
		errs = append(errs, "INTAKE_WORKERS must be positive")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	return &Config{
		Server:    serverConfig,
		DB:        dbConfig,
		RateLimit: rateLimitConfig,
		Intake:    intakeConfig,
		Redis:     redisConfig,
		Email:     emailConfig,
		CORS:      corsConfig,
		LogLevel:  getEnv("LOG_LEVEL", "info"),
	}, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return d, nil
}

func getEnvAsList(key string, fallback []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
