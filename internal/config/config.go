package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Search     SearchConfig
	AI         AIConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, takes precedence
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
}

// SearchConfig holds search-related configuration
type SearchConfig struct {
	DefaultK           int
	MaxK               int
	DefaultTemperature float64
	ListDefaultLimit   int
	ListMaxLimit       int
}

// AIConfig holds configuration for the OpenAI-compatible model API
type AIConfig struct {
	APIKey              string
	APIBase             string
	ChatModels          []string // rotation list, selected round-robin
	ChatTopP            float64
	ChatMaxTokens       int
	EmbeddingModel      string
	EmbeddingDimensions int
	Timeout             int
	Enabled             bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "property_search"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Search: SearchConfig{
			DefaultK:           getEnvAsInt("SEARCH_DEFAULT_K", 10),
			MaxK:               getEnvAsInt("SEARCH_MAX_K", 50),
			DefaultTemperature: getEnvAsFloat("SEARCH_DEFAULT_TEMPERATURE", 0.2),
			ListDefaultLimit:   getEnvAsInt("SEARCH_LIST_DEFAULT_LIMIT", 50),
			ListMaxLimit:       getEnvAsInt("SEARCH_LIST_MAX_LIMIT", 100),
		},
		AI: AIConfig{
			APIKey:              getEnv("AI_API_KEY", getEnv("GOOGLE_API_KEY", "")),
			APIBase:             getEnv("AI_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
			ChatModels:          getEnvAsSlice("AI_CHAT_MODELS", []string{"gemini-2.5-flash", "gemini-2.5-flash-lite"}),
			ChatTopP:            getEnvAsFloat("AI_CHAT_TOP_P", 0.7),
			ChatMaxTokens:       getEnvAsInt("AI_CHAT_MAX_TOKENS", 8192),
			EmbeddingModel:      getEnv("AI_EMBEDDING_MODEL", "gemini-embedding-001"),
			EmbeddingDimensions: getEnvAsInt("AI_EMBEDDING_DIMENSIONS", 768),
			Timeout:             getEnvAsInt("AI_TIMEOUT", 60),
			Enabled:             getEnv("AI_API_KEY", getEnv("GOOGLE_API_KEY", "")) != "",
		},
	}

	return cfg, nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
