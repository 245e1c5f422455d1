package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Server captures process-level configuration.
type Server struct {
	Addr string

	// JWTSigningKey signs session tokens. Empty means the process must not
	// start; there is no development fallback for the signing secret.
	JWTSigningKey string

	// TokenTTL is the absolute session token lifetime. The unit is a Go
	// duration, parsed from e.g. "30m" or "2h"; the value is deliberately
	// explicit so nobody has to guess seconds versus milliseconds again.
	TokenTTL time.Duration

	// BcryptCost tunes password hashing. Default keeps interactive login
	// responsive while staying slow enough against brute force.
	BcryptCost int

	// DatabaseURL selects the postgres stores; empty falls back to in-memory.
	DatabaseURL string

	Redis RedisConfig
	Kafka KafkaConfig
}

// RedisConfig configures the optional tally cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	TallyTTL     time.Duration
}

// KafkaConfig configures the optional audit event sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("BALLOTGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
		TokenTTL:      envDuration("TOKEN_TTL", 30*time.Minute),
		BcryptCost:    envInt("BCRYPT_COST", bcrypt.DefaultCost),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			TallyTTL:     envDuration("TALLY_CACHE_TTL", 5*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: envList("KAFKA_BROKERS"),
			Topic:   envDefault("KAFKA_AUDIT_TOPIC", "ballotgate.audit"),
		},
	}
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
