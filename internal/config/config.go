package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
	BackendMemory   = "memory"
)

type Config struct {
	// Storage
	StoreBackend string
	ProfileTable string
	AuthTable    string

	// Postgres (STORE_BACKEND=postgres)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// DynamoDB (STORE_BACKEND=dynamodb)
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	DynamoDBEndpoint   string

	// JWT
	JWTSecret       string
	JWTAlgorithm    string
	JWTIssuer       string
	JWTAccessExpiry time.Duration
	BcryptCost      int

	// Plan generation
	OpenAIAPIKey string
	OpenAIAPIURL string
	OpenAIModel  string
	AITimeout    time.Duration

	// Server
	Port        string
	CORSOrigins string
	AppEnv      string
	SentryDSN   string
}

// Load reads the process environment once. A .env file in the working
// directory, when present, is applied first without overriding variables
// that are already set.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err)
	}

	return &Config{
		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),
		ProfileTable: getEnv("PROFILE_TABLE", "users-data"),
		AuthTable:    getEnv("AUTH_TABLE", "users-auth"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "fitplan_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		AWSRegion:          getEnv("AWS_REGION", "eu-north-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoDBEndpoint:   getEnv("DYNAMODB_ENDPOINT", ""),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		JWTAlgorithm:    strings.ToUpper(getEnv("JWT_ALGORITHM", "HS256")),
		JWTIssuer:       getEnv("JWT_ISSUER", "fitplan-backend"),
		JWTAccessExpiry: parseMinutes(getEnv("ACCESS_TOKEN_EXPIRE_MINUTES", "30")),
		BcryptCost:      parseInt(getEnv("BCRYPT_COST", ""), bcrypt.DefaultCost),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIAPIURL: getEnv("OPENAI_API_URL", "https://api.openai.com/v1/chat/completions"),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		AITimeout:    parseDuration(getEnv("AI_TIMEOUT", "60s"), 60*time.Second),

		Port:        getEnv("PORT", "8000"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		AppEnv:      getEnv("APP_ENV", "development"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
	}
}

// Validate reports the first required setting that is missing or unusable.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	switch c.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return errors.New("JWT_ALGORITHM must be one of HS256, HS384, HS512")
	}
	switch c.StoreBackend {
	case BackendPostgres:
		if c.DBPassword == "" {
			return errors.New("DB_PASSWORD environment variable is required")
		}
	case BackendDynamoDB, BackendMemory:
	default:
		return errors.New("STORE_BACKEND must be one of postgres, dynamodb, memory")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return errors.New("BCRYPT_COST is out of range")
	}
	return nil
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseMinutes(s string) time.Duration {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(n) * time.Minute
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
