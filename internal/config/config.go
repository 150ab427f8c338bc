package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// FAQ backend
	APIBaseURL string
	APITimeout time.Duration
	// Seed credential; applied once at startup if the store is empty.
	APIKey string

	// Ask defaults (backend accepts num_variants 1..5)
	GenerateVariants bool
	NumVariants      int

	// Credential storage: "sqlite", "mysql" or "redis"
	CredentialBackend string
	DBDSN             string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Optional turn-event audit queue; disabled when RabbitURL is empty.
	RabbitURL   string
	RabbitQueue string

	// Local HTTP adapter (faqchatd)
	HTTPAddr string
}

func Load() Config {
	baseURL := os.Getenv("FAQ_API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	timeout := 30 * time.Second
	if v := os.Getenv("FAQ_API_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			timeout = time.Duration(n) * time.Second
		}
	}

	generateVariants := true
	if v := os.Getenv("FAQ_GENERATE_VARIANTS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			generateVariants = b
		}
	}

	numVariants := 3
	if v := os.Getenv("FAQ_NUM_VARIANTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 5 {
			numVariants = n
		}
	}

	backend := os.Getenv("CREDENTIAL_BACKEND")
	if backend == "" {
		backend = "sqlite"
	}

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "faqchat.db"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	rabbitQueue := os.Getenv("RABBIT_QUEUE")
	if rabbitQueue == "" {
		rabbitQueue = "faq_turn_events"
	}

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8090"
	}

	return Config{
		APIBaseURL: baseURL,
		APITimeout: timeout,
		APIKey:     os.Getenv("FAQ_API_KEY"),

		GenerateVariants: generateVariants,
		NumVariants:      numVariants,

		CredentialBackend: backend,
		DBDSN:             dsn,

		RedisAddr:     redisAddr,
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		RabbitURL:   os.Getenv("RABBIT_URL"),
		RabbitQueue: rabbitQueue,

		HTTPAddr: httpAddr,
	}
}
