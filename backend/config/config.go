package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver   string // sqlite or postgres
	DBPath     string // sqlite database file
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret  string
	ServerPort string

	DataDir string // flat key-value files (legacy data, sync queue, archives)

	CacheCapacity int
	CacheTTL      time.Duration
	StatsCacheTTL time.Duration

	SyncProbeURL      string
	SyncProbeInterval time.Duration
	SyncProbeTimeout  time.Duration

	SessionRetention time.Duration
	AttemptRetention time.Duration
	ArchiveEnabled   bool

	CounterUpstreamURL string
	CounterToken       string
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	return &Config{
		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		DBPath:     getEnv("DB_PATH", "quizmaster.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "quiz_master"),

		JWTSecret:  getEnv("JWT_SECRET", "secret"),
		ServerPort: getEnv("SERVER_PORT", "8080"),

		DataDir: getEnv("DATA_DIR", "data"),

		CacheCapacity: getEnvInt("CACHE_CAPACITY", 1000),
		CacheTTL:      getEnvDuration("CACHE_TTL", 5*time.Minute),
		StatsCacheTTL: getEnvDuration("STATS_CACHE_TTL", time.Minute),

		SyncProbeURL:      getEnv("SYNC_PROBE_URL", ""),
		SyncProbeInterval: getEnvDuration("SYNC_PROBE_INTERVAL", 30*time.Second),
		SyncProbeTimeout:  getEnvDuration("SYNC_PROBE_TIMEOUT", 5*time.Second),

		SessionRetention: getEnvDuration("SESSION_RETENTION", 30*24*time.Hour),
		AttemptRetention: getEnvDuration("ATTEMPT_RETENTION", 90*24*time.Hour),
		ArchiveEnabled:   getEnvBool("ARCHIVE_ENABLED", true),

		CounterUpstreamURL: getEnv("COUNTER_UPSTREAM_URL", ""),
		CounterToken:       getEnv("COUNTER_TOKEN", ""),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
