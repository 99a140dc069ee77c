package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	SLA       SLAConfig
	Scheduler SchedulerConfig
	Routing   RoutingConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string
	AccessTokenTTLMinutes   int
	PasswordResetTTLMinutes int
	BcryptCost              int
}

// SLAConfig holds the per-priority resolution budgets in hours.
type SLAConfig struct {
	CriticalHours int
	HighHours     int
	MediumHours   int
	LowHours      int
}

// Hours returns the budget table keyed by priority.
func (s SLAConfig) Hours() map[domain.ComplaintPriority]int {
	return map[domain.ComplaintPriority]int{
		domain.ComplaintPriorityCritical: s.CriticalHours,
		domain.ComplaintPriorityHigh:     s.HighHours,
		domain.ComplaintPriorityMedium:   s.MediumHours,
		domain.ComplaintPriorityLow:      s.LowHours,
	}
}

// SchedulerConfig drives the background sweep cadence.
type SchedulerConfig struct {
	EscalationIntervalMinutes int
	ReminderIntervalMinutes   int
	CleanupIntervalMinutes    int
	ReminderWindowHours       int
	NotificationRetentionDays int
}

// EscalationInterval returns the escalation sweep period.
func (s SchedulerConfig) EscalationInterval() time.Duration {
	return time.Duration(s.EscalationIntervalMinutes) * time.Minute
}

// ReminderInterval returns the reminder sweep period.
func (s SchedulerConfig) ReminderInterval() time.Duration {
	return time.Duration(s.ReminderIntervalMinutes) * time.Minute
}

// CleanupInterval returns the period for the low-priority pruning tasks.
func (s SchedulerConfig) CleanupInterval() time.Duration {
	return time.Duration(s.CleanupIntervalMinutes) * time.Minute
}

// ReminderWindow returns how far ahead of the deadline reminders fire.
func (s SchedulerConfig) ReminderWindow() time.Duration {
	return time.Duration(s.ReminderWindowHours) * time.Hour
}

// RoutingConfig maps complaint categories to staff departments.
// Categories absent from the map route to the fallback department.
type RoutingConfig struct {
	CategoryDepartments map[domain.ComplaintCategory]domain.Department
	Fallback            domain.Department
}

// DepartmentFor resolves the department a category routes to.
func (r RoutingConfig) DepartmentFor(category domain.ComplaintCategory) domain.Department {
	if dept, ok := r.CategoryDepartments[category]; ok {
		return dept
	}
	return r.Fallback
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	routing, err := loadRouting()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "complaint-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:   getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		SLA: SLAConfig{
			CriticalHours: getEnvAsInt("SLA_CRITICAL_HOURS", 4),
			HighHours:     getEnvAsInt("SLA_HIGH_HOURS", 12),
			MediumHours:   getEnvAsInt("SLA_MEDIUM_HOURS", 24),
			LowHours:      getEnvAsInt("SLA_LOW_HOURS", 48),
		},
		Scheduler: SchedulerConfig{
			EscalationIntervalMinutes: getEnvAsInt("SWEEP_ESCALATION_INTERVAL_MINUTES", 60),
			ReminderIntervalMinutes:   getEnvAsInt("SWEEP_REMINDER_INTERVAL_MINUTES", 30),
			CleanupIntervalMinutes:    getEnvAsInt("SWEEP_CLEANUP_INTERVAL_MINUTES", 360),
			ReminderWindowHours:       getEnvAsInt("SWEEP_REMINDER_WINDOW_HOURS", 2),
			NotificationRetentionDays: getEnvAsInt("NOTIFICATION_RETENTION_DAYS", 90),
		},
		Routing: routing,
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	for name, hours := range map[string]int{
		"SLA_CRITICAL_HOURS": cfg.SLA.CriticalHours,
		"SLA_HIGH_HOURS":     cfg.SLA.HighHours,
		"SLA_MEDIUM_HOURS":   cfg.SLA.MediumHours,
		"SLA_LOW_HOURS":      cfg.SLA.LowHours,
	} {
		if hours <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, hours)
		}
	}
	if cfg.Scheduler.EscalationIntervalMinutes <= 0 || cfg.Scheduler.ReminderIntervalMinutes <= 0 {
		return fmt.Errorf("sweep intervals must be positive")
	}
	if cfg.Scheduler.ReminderWindowHours <= 0 {
		return fmt.Errorf("SWEEP_REMINDER_WINDOW_HOURS must be positive")
	}
	return nil
}

// defaultCategoryMap routes each concrete category to its department.
// OTHER is deliberately absent and falls through to the general pool.
func defaultCategoryMap() map[domain.ComplaintCategory]domain.Department {
	return map[domain.ComplaintCategory]domain.Department{
		domain.ComplaintCategoryPlumbing:   domain.DepartmentPlumbing,
		domain.ComplaintCategoryElectrical: domain.DepartmentElectrical,
		domain.ComplaintCategoryFacility:   domain.DepartmentFacility,
		domain.ComplaintCategoryIT:         domain.DepartmentITSupport,
	}
}

// loadRouting parses ROUTING_CATEGORY_MAP, a comma-separated list of
// CATEGORY=DEPARTMENT pairs, and fails fast on unknown names so a typo
// cannot silently route complaints to an empty pool.
func loadRouting() (RoutingConfig, error) {
	routing := RoutingConfig{
		CategoryDepartments: defaultCategoryMap(),
		Fallback:            domain.Department(getEnv("ROUTING_FALLBACK_DEPARTMENT", string(domain.DepartmentGeneral))),
	}
	if !domain.ValidDepartment(routing.Fallback) {
		return RoutingConfig{}, fmt.Errorf("unknown fallback department %q", routing.Fallback)
	}

	raw := os.Getenv("ROUTING_CATEGORY_MAP")
	if raw == "" {
		return routing, nil
	}

	overrides := make(map[domain.ComplaintCategory]domain.Department)
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			return RoutingConfig{}, fmt.Errorf("malformed ROUTING_CATEGORY_MAP entry %q", pair)
		}
		category := domain.ComplaintCategory(strings.ToUpper(strings.TrimSpace(parts[0])))
		dept := domain.Department(strings.ToUpper(strings.TrimSpace(parts[1])))
		if !domain.ValidCategory(category) {
			return RoutingConfig{}, fmt.Errorf("unknown category %q in ROUTING_CATEGORY_MAP", parts[0])
		}
		if !domain.ValidDepartment(dept) {
			return RoutingConfig{}, fmt.Errorf("unknown department %q in ROUTING_CATEGORY_MAP", parts[1])
		}
		overrides[category] = dept
	}
	routing.CategoryDepartments = overrides
	return routing, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
