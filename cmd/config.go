package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	HTTPPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	// RedisAddr enables the cross-instance chain lock and the reputation
	// cache. Without it locks are process local and nothing is cached.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// RabbitMQURL enables carrier notifications; without it they are logged.
	RabbitMQURL              string
	NotificationExchange     string
	KafkaBrokers             []string
	KafkaDispatchEventsTopic string

	EscalationServiceURL    string
	EscalationServiceAPIKey string
	EscalationCallbackURL   string
	OrderServiceURL         string
	OrderServiceAPIKey      string
	ReputationServiceURL    string
	ReputationServiceAPIKey string
	ReputationCacheTTL      time.Duration
	OutboundTimeout         time.Duration

	// PublicBaseURL is where carriers reach the responses endpoint.
	PublicBaseURL string

	MonitorSchedule         string
	MonitorWorkers          int
	SideEffectTimeout       time.Duration
	EscalationRetrySchedule string
	StaleReportSchedule     string
	StaleEscalationAfter    time.Duration

	// LaneFile, when set, is imported at serve start-up.
	LaneFile string
}

// LoadConfig reads the environment after loading .env when one exists.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var problems []error
	config := Config{
		AppEnv:   goDotEnvVariable("APP_ENV", "prod"),
		HTTPPort: goDotEnvVariable("HTTP_PORT", "8080"),

		DBHost:     goDotEnvVariable("DB_HOST", "localhost"),
		DBPort:     goDotEnvVariable("DB_PORT", "5432"),
		DBUser:     goDotEnvVariable("DB_USER", "postgres"),
		DBPassword: goDotEnvVariable("DB_PASSWORD", ""),
		DBName:     goDotEnvVariable("DB_NAME", "freightdispatch"),
		DBSslMode:  goDotEnvVariable("DB_SSLMODE", "disable"),

		RedisAddr:     goDotEnvVariable("REDIS_ADDR", ""),
		RedisPassword: goDotEnvVariable("REDIS_PASSWORD", ""),
		RedisDB:       intVariable("REDIS_DB", 0, &problems),

		RabbitMQURL:              goDotEnvVariable("RABBITMQ_URL", ""),
		NotificationExchange:     goDotEnvVariable("NOTIFICATION_EXCHANGE", "carrier.notifications"),
		KafkaBrokers:             listVariable("KAFKA_BROKERS"),
		KafkaDispatchEventsTopic: goDotEnvVariable("KAFKA_DISPATCH_EVENTS_TOPIC", "dispatch.events"),

		EscalationServiceURL:    goDotEnvVariable("ESCALATION_SERVICE_URL", ""),
		EscalationServiceAPIKey: goDotEnvVariable("ESCALATION_SERVICE_API_KEY", ""),
		EscalationCallbackURL:   goDotEnvVariable("ESCALATION_CALLBACK_URL", ""),
		OrderServiceURL:         goDotEnvVariable("ORDER_SERVICE_URL", ""),
		OrderServiceAPIKey:      goDotEnvVariable("ORDER_SERVICE_API_KEY", ""),
		ReputationServiceURL:    goDotEnvVariable("REPUTATION_SERVICE_URL", ""),
		ReputationServiceAPIKey: goDotEnvVariable("REPUTATION_SERVICE_API_KEY", ""),
		ReputationCacheTTL:      durationVariable("REPUTATION_CACHE_TTL", 15*time.Minute, &problems),
		OutboundTimeout:         durationVariable("OUTBOUND_TIMEOUT", 5*time.Second, &problems),

		PublicBaseURL: goDotEnvVariable("PUBLIC_BASE_URL", "http://localhost:8080"),

		MonitorSchedule:         goDotEnvVariable("MONITOR_SCHEDULE", "@every 60s"),
		MonitorWorkers:          intVariable("MONITOR_WORKERS", 8, &problems),
		SideEffectTimeout:       durationVariable("SIDE_EFFECT_TIMEOUT", 10*time.Second, &problems),
		EscalationRetrySchedule: goDotEnvVariable("ESCALATION_RETRY_SCHEDULE", "@every 1m"),
		StaleReportSchedule:     goDotEnvVariable("STALE_REPORT_SCHEDULE", "@hourly"),
		StaleEscalationAfter:    durationVariable("STALE_ESCALATION_AFTER", 4*time.Hour, &problems),

		LaneFile: goDotEnvVariable("LANE_FILE", ""),
	}

	if err := errors.Join(problems...); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks what serving requires on top of the database settings.
func (c Config) Validate() error {
	var problems []error
	for _, required := range []struct{ name, value string }{
		{"ESCALATION_SERVICE_URL", c.EscalationServiceURL},
		{"ESCALATION_CALLBACK_URL", c.EscalationCallbackURL},
		{"ORDER_SERVICE_URL", c.OrderServiceURL},
		{"REPUTATION_SERVICE_URL", c.ReputationServiceURL},
	} {
		if required.value == "" {
			problems = append(problems, fmt.Errorf("%s is required", required.name))
		}
	}
	if c.MonitorWorkers <= 0 {
		problems = append(problems, fmt.Errorf("MONITOR_WORKERS must be positive, got %d", c.MonitorWorkers))
	}
	return errors.Join(problems...)
}

// DSN is the gorm postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

func goDotEnvVariable(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func intVariable(key string, fallback int, problems *[]error) int {
	raw := goDotEnvVariable(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*problems = append(*problems, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func durationVariable(key string, fallback time.Duration, problems *[]error) time.Duration {
	raw := goDotEnvVariable(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*problems = append(*problems, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func listVariable(key string) []string {
	raw := goDotEnvVariable(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
