package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	DbHost    string
	DbPort    string
	DbUser    string
	DbPass    string
	DbName    string
	DbSSLMode string

	JWTSecret string

	Log      string
	LogLevel string
	Env      string // dev|prod

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	FrontendURL string

	// memory|postgres|redis
	TokenStore              string
	ResetTokenSweepInterval time.Duration
	RedisAddr               string
	RedisPassword           string
	RedisDB                 int
	RedisPrefix             string

	// memory|postgres
	LedgerStore     string
	LedgerBatchSize int
	RabbitMQURL     string
	LedgerQueue     string

	CheckoutAPIURL     string
	CheckoutSecret     string
	CheckoutSuccessURL string
	CheckoutCancelURL  string
	CheckoutCurrency   string
}

// LoadConfig загружает .env, читает переменные окружения и выставляет дефолты.
// Ничего не логирует, чтобы не создавать зависимость от logger.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	def := func(v, d string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return d
		}
		return v
	}

	sweep, err := time.ParseDuration(def(os.Getenv("RESET_TOKEN_SWEEP_INTERVAL"), "15m"))
	if err != nil {
		return nil, fmt.Errorf("RESET_TOKEN_SWEEP_INTERVAL: %w", err)
	}
	batchSize, err := strconv.Atoi(def(os.Getenv("LEDGER_BATCH_SIZE"), "50"))
	if err != nil {
		return nil, fmt.Errorf("LEDGER_BATCH_SIZE: %w", err)
	}
	redisDB, err := strconv.Atoi(def(os.Getenv("REDIS_DB"), "0"))
	if err != nil {
		return nil, fmt.Errorf("REDIS_DB: %w", err)
	}

	cfg := &Config{
		Port:      def(os.Getenv("PORT"), "8080"),
		DbHost:    os.Getenv("DB_HOST"),
		DbPort:    def(os.Getenv("DB_PORT"), "5432"),
		DbUser:    os.Getenv("DB_USER"),
		DbPass:    os.Getenv("DB_PASSWORD"),
		DbName:    os.Getenv("DB_NAME"),
		DbSSLMode: def(os.Getenv("DB_SSLMODE"), "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		Log:      os.Getenv("LOG"),
		LogLevel: strings.ToLower(def(os.Getenv("LOGLEVEL"), "info")),
		Env:      strings.ToLower(def(os.Getenv("ENV"), "prod")),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     def(os.Getenv("SMTP_PORT"), "587"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     os.Getenv("MAIL_FROM"),

		FrontendURL: strings.TrimRight(os.Getenv("FRONTEND_URL"), "/"),

		TokenStore:              strings.ToLower(def(os.Getenv("TOKEN_STORE"), "postgres")),
		ResetTokenSweepInterval: sweep,
		RedisAddr:               def(os.Getenv("REDIS_ADDR"), "localhost:6379"),
		RedisPassword:           os.Getenv("REDIS_PASSWORD"),
		RedisDB:                 redisDB,
		RedisPrefix:             def(os.Getenv("REDIS_PREFIX"), "reset:"),

		LedgerStore:     strings.ToLower(def(os.Getenv("LEDGER_STORE"), "postgres")),
		LedgerBatchSize: batchSize,
		RabbitMQURL:     os.Getenv("RABBITMQ_URL"),
		LedgerQueue:     def(os.Getenv("LEDGER_QUEUE"), "ledger.transactions"),

		CheckoutAPIURL:     strings.TrimRight(def(os.Getenv("CHECKOUT_API_URL"), "https://api.checkout.example.com"), "/"),
		CheckoutSecret:     os.Getenv("CHECKOUT_SECRET"),
		CheckoutSuccessURL: os.Getenv("CHECKOUT_SUCCESS_URL"),
		CheckoutCancelURL:  os.Getenv("CHECKOUT_CANCEL_URL"),
		CheckoutCurrency:   strings.ToLower(def(os.Getenv("CHECKOUT_CURRENCY"), "usd")),
	}

	if cfg.MailFrom == "" {
		cfg.MailFrom = cfg.SMTPUser
	}

	return cfg, nil
}

// Validate возвращает предупреждения и фатальную ошибку (если критично).
func (c *Config) Validate() (warnings []string, err error) {
	// Критичные: БД (profiles живут только в Postgres)
	if c.DbHost == "" || c.DbUser == "" || c.DbName == "" {
		return nil, fmt.Errorf("incomplete DB config (DB_HOST/DB_USER/DB_NAME)")
	}

	switch c.TokenStore {
	case "memory", "postgres", "redis":
	default:
		return nil, fmt.Errorf("unknown TOKEN_STORE %q", c.TokenStore)
	}
	switch c.LedgerStore {
	case "memory", "postgres":
	default:
		return nil, fmt.Errorf("unknown LEDGER_STORE %q", c.LedgerStore)
	}

	if c.LedgerBatchSize <= 0 {
		return nil, fmt.Errorf("LEDGER_BATCH_SIZE must be positive, got %d", c.LedgerBatchSize)
	}

	if strings.TrimSpace(c.JWTSecret) == "" {
		warnings = append(warnings, "JWT_SECRET is empty")
	}

	if c.CheckoutSecret == "" {
		warnings = append(warnings, "checkout credentials are not set")
	}

	if c.SMTPHost == "" || c.SMTPUser == "" {
		warnings = append(warnings, "SMTP is not fully configured")
	}

	if c.FrontendURL == "" {
		warnings = append(warnings, "FRONTEND_URL is empty, reset links will be relative")
	}

	if c.RabbitMQURL == "" {
		warnings = append(warnings, "RABBITMQ_URL is empty, ledger events are not published")
	}

	return warnings, nil
}

// GetDSN: полная DSN (с паролем)
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DbUser, c.DbPass, c.DbHost, c.DbPort, c.DbName, c.DbSSLMode,
	)
}

// GetDSNSafe: DSN без пароля (для логов)
func (c *Config) GetDSNSafe() string {
	return fmt.Sprintf(
		"postgres://%s:***@%s:%s/%s?sslmode=%s",
		c.DbUser, c.DbHost, c.DbPort, c.DbName, c.DbSSLMode,
	)
}
