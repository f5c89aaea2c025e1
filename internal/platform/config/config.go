package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures process level configuration.
type Server struct {
	Addr           string
	RequestTimeout time.Duration
	LogLevel       string
	LogFormat      string

	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Workflow WorkflowConfig
	Login    LoginConfig
}

// DatabaseConfig selects the storage engine. An empty URL runs the in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the member cache and login lockout counters.
// An empty URL disables Redis.
type RedisConfig struct {
	URL            string
	PoolSize       int
	MinIdleConns   int
	DialTimeout    time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MemberCacheTTL time.Duration
}

// KafkaConfig configures the membership event producer. No brokers means events
// are only logged.
type KafkaConfig struct {
	Brokers         []string
	MembershipTopic string
	ClientID        string
}

// WorkflowConfig holds the policy switches for the application lifecycle.
type WorkflowConfig struct {
	// AccessPolicy is "open" (every caller may do everything) or "role".
	AccessPolicy string
	// CertifyRequiresApplication rejects certifications for unknown codes.
	CertifyRequiresApplication bool
	CodeAttempts               int
	MemberNumberAttempts       int
}

// LoginConfig bounds failed login attempts per identifier.
type LoginConfig struct {
	MaxFailures int
	Window      time.Duration
}

// Load reads a .env file when one exists, then builds the config from the
// environment. Malformed numbers and durations are errors.
func Load() (Server, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	p := &parser{}
	cfg := Server{
		Addr:           getenv("HEALTHFUND_ADDR", ":8080"),
		RequestTimeout: p.duration("REQUEST_TIMEOUT", 30*time.Second),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogFormat:      getenv("LOG_FORMAT", "json"),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    p.int("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    p.int("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: p.duration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:            os.Getenv("REDIS_URL"),
			PoolSize:       p.int("REDIS_POOL_SIZE", 10),
			MinIdleConns:   p.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:    p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:    p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:   p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			MemberCacheTTL: p.duration("MEMBER_CACHE_TTL", 24*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers:         splitList(os.Getenv("KAFKA_BROKERS")),
			MembershipTopic: getenv("KAFKA_MEMBERSHIP_TOPIC", "healthfund.membership.issued"),
			ClientID:        getenv("KAFKA_CLIENT_ID", "healthfund"),
		},
		Workflow: WorkflowConfig{
			AccessPolicy:               strings.ToLower(getenv("ACCESS_POLICY", "open")),
			CertifyRequiresApplication: p.bool("CERTIFY_REQUIRE_APPLICATION", false),
			CodeAttempts:               p.int("APPLICATION_CODE_ATTEMPTS", 5),
			MemberNumberAttempts:       p.int("MEMBER_NUMBER_ATTEMPTS", 5),
		},
		Login: LoginConfig{
			MaxFailures: p.int("LOGIN_MAX_FAILURES", 5),
			Window:      p.duration("LOGIN_LOCKOUT_WINDOW", 15*time.Minute),
		},
	}
	if p.err != nil {
		return Server{}, p.err
	}
	switch cfg.Workflow.AccessPolicy {
	case "open", "role":
	default:
		return Server{}, fmt.Errorf("ACCESS_POLICY: unknown policy %q", cfg.Workflow.AccessPolicy)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parser records the first malformed variable so FromEnv can report it once.
type parser struct {
	err error
}

func (p *parser) fail(key, raw string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%s: invalid value %q: %w", key, raw, err)
	}
}

func (p *parser) int(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return v
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return v
}

func (p *parser) bool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return v
}
