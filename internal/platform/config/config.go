// Pacote config centraliza o carregamento das variáveis de ambiente usadas pelos binários.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	LockMemory = "memory"
	LockRedis  = "redis"
)

// Config agrega todos os parâmetros necessários para API e worker.
type Config struct {
	HTTPAddress string
	LogLevel    string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	FilaKey           string
	ContadorKeyPrefix string
	AsyncAttemptLog   bool

	LockBackend   string
	LockKeyPrefix string
	LockTTL       time.Duration

	RateLimitEnabled       bool
	RateLimitMaxActions    int
	RateLimitWindowSeconds int
	RateLimitKeyPrefix     string

	AutoMigrate bool

	WorkerMetricsAddress string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
	// Opcionais; sem eles vale a cadeia padrão de credenciais da AWS.
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// Load lê um .env opcional (arquivo indicado em ENV_FILE ou ./.env) e depois o ambiente.
// Variáveis já exportadas têm precedência sobre o arquivo.
func Load() (Config, error) {
	if err := loadDotEnv(getEnv("ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	// Defaults priorizam execução local; variáveis permitem sobrescrever em Docker/K8s.
	cfg := Config{
		HTTPAddress:            getEnv("HTTP_ADDRESS", ":8080"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		PostgresHost:           getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:           getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:           getEnv("POSTGRES_USER", "campus"),
		PostgresPassword:       getEnv("POSTGRES_PASSWORD", "campus"),
		PostgresDB:             getEnv("POSTGRES_DB", "campus_votes"),
		PostgresSSLMode:        getEnv("POSTGRES_SSLMODE", "disable"),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		FilaKey:                getEnv("REDIS_QUEUE_KEY", "fila:tentativas"),
		ContadorKeyPrefix:      getEnv("REDIS_COUNTER_PREFIX", "contador"),
		AsyncAttemptLog:        getEnvAsBool("ASYNC_ATTEMPT_LOG", true),
		LockBackend:            getEnv("LOCK_BACKEND", LockMemory),
		LockKeyPrefix:          getEnv("LOCK_KEY_PREFIX", "lock:admissao"),
		LockTTL:                time.Duration(getEnvAsInt("LOCK_TTL_SECONDS", 10)) * time.Second,
		RateLimitEnabled:       getEnvAsBool("RATE_LIMIT_ENABLED", true),
		RateLimitMaxActions:    getEnvAsInt("RATE_LIMIT_MAX", 30),
		RateLimitWindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW", 60),
		RateLimitKeyPrefix:     getEnv("RATE_LIMIT_PREFIX", "ratelimit"),
		AutoMigrate:            getEnvAsBool("DB_AUTO_MIGRATE", true),
		WorkerMetricsAddress:   getEnv("WORKER_METRICS_ADDRESS", ":9090"),
		S3Bucket:               os.Getenv("S3_BUCKET"),
		S3Region:               getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:             os.Getenv("S3_ENDPOINT"),
		S3PathStyle:            getEnvAsBool("S3_PATH_STYLE", false),
		S3AccessKeyID:          os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey:      os.Getenv("S3_SECRET_ACCESS_KEY"),
	}

	dbStr := getEnv("REDIS_DB", "0")
	dbInt, err := strconv.Atoi(dbStr)
	if err != nil {
		return Config{}, fmt.Errorf("config: REDIS_DB invalido: %w", err)
	}
	cfg.RedisDB = dbInt

	if cfg.LockBackend != LockMemory && cfg.LockBackend != LockRedis {
		return Config{}, fmt.Errorf("config: LOCK_BACKEND invalido: %q", cfg.LockBackend)
	}
	if cfg.LockTTL <= 0 {
		return Config{}, fmt.Errorf("config: LOCK_TTL_SECONDS deve ser positivo")
	}

	return cfg, nil
}

func (c Config) PostgresDSN() string {
	// Mantemos o formato DSN compatível com GORM e ferramentas de migração.
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
		c.PostgresSSLMode,
	)
}

// SnapshotsEnabled indica se há bucket configurado para publicar os resultados.
func (c Config) SnapshotsEnabled() bool {
	return c.S3Bucket != ""
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("config: lendo %s: %w", path, err)
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getEnvAsBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	switch value {
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return true
	}
}
