package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	LogLevel        string
	LogFormat       string
	SeedFile        string
	Database        DatabaseConfig
	Redis           RedisConfig
	Kafka           KafkaConfig
	Auth            AuthConfig
	Resolver        ResolverConfig
	RateLimit       RateLimitConfig
}

// DatabaseConfig configures the Postgres pool. An empty URL selects the
// in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	TxTimeout       time.Duration
}

// RedisConfig configures the candidate cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the activity outbox relay. No brokers disables it.
type KafkaConfig struct {
	Brokers           []string
	Topic             string
	Partitions        int32
	ReplicationFactor int16
	BatchSize         int
	RelayInterval     time.Duration
}

type AuthConfig struct {
	JWTSigningKey string
	Issuer        string
	TokenTTL      time.Duration
}

type ResolverConfig struct {
	CandidateCacheTTL time.Duration
}

// RateLimitConfig sets per-caller allowances. Buckets live in Redis when it
// is configured.
type RateLimitConfig struct {
	Disabled      bool
	ReadRequests  int
	WriteRequests int
	Window        time.Duration
}

// Enabled reports whether an outbox relay should run.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:            stringEnv("BLOODLINK_ADDR", ":8080"),
		ShutdownTimeout: durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second),
		LogLevel:        stringEnv("LOG_LEVEL", "info"),
		LogFormat:       stringEnv("LOG_FORMAT", "json"),
		SeedFile:        os.Getenv("BLOODLINK_SEED_FILE"),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    intEnv("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    intEnv("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: durationEnv("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			TxTimeout:       durationEnv("DATABASE_TX_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: intEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:           listEnv("KAFKA_BROKERS"),
			Topic:             stringEnv("KAFKA_ACTIVITY_TOPIC", "bloodlink.activity"),
			Partitions:        int32(intEnv("KAFKA_ACTIVITY_PARTITIONS", 3)),
			ReplicationFactor: int16(intEnv("KAFKA_ACTIVITY_REPLICATION", 1)),
			BatchSize:         intEnv("OUTBOX_BATCH_SIZE", 100),
			RelayInterval:     durationEnv("OUTBOX_RELAY_INTERVAL", time.Second),
		},
		Auth: AuthConfig{
			// Use a default for development - should be overridden in production
			JWTSigningKey: stringEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:        stringEnv("JWT_ISSUER", "bloodlink"),
			TokenTTL:      durationEnv("JWT_TTL", time.Hour),
		},
		Resolver: ResolverConfig{
			CandidateCacheTTL: durationEnv("NEARBY_CACHE_TTL", 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			Disabled:      os.Getenv("RATE_LIMIT_DISABLED") == "true",
			ReadRequests:  intEnv("RATE_LIMIT_READ", 120),
			WriteRequests: intEnv("RATE_LIMIT_WRITE", 30),
			Window:        durationEnv("RATE_LIMIT_WINDOW", time.Minute),
		},
	}
}

func stringEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func listEnv(key string) []string {
	var out []string
	for part := range strings.SplitSeq(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
