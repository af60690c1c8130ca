package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Memory scoping modes. Global reproduces a single shared conversation for
// every caller; session keys conversations by session ID.
const (
	MemoryScopeGlobal  = "global"
	MemoryScopeSession = "session"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	LLM      LLMConfig
	Chat     ChatConfig
	LogLevel string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Type     string // "mysql", "postgresql", "sqlite"
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	FilePath string // sqlite only
}

type LLMConfig struct {
	Model          string
	Token          string
	BaseURL        string
	EmbeddingModel string
	Timeout        time.Duration
}

type ChatConfig struct {
	TopK            int // few-shot examples per prompt
	HistoryMaxTurns int // 0 = unbounded
	MemoryScope     string
	QueryTimeout    time.Duration
}

// Load reads configuration from the environment, optionally seeded from a
// .env file. Environment variables always win over defaults.
func Load() (*Config, error) {
	// .env is optional; plain environment variables work for Docker/K8s.
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout := getEnvInt("SERVER_READ_TIMEOUT", 30)
	writeTimeout := getEnvInt("SERVER_WRITE_TIMEOUT", 30)
	llmTimeout := getEnvInt("LLM_TIMEOUT", 60)
	queryTimeout := getEnvInt("DB_QUERY_TIMEOUT", 30)

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Database: DatabaseConfig{
			Type:     getEnv("DB_TYPE", "mysql"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 3306),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", ""),
			FilePath: getEnv("DB_FILE", ""),
		},
		LLM: LLMConfig{
			Model:          getEnv("LLM_MODEL", "gpt-4o-mini"),
			Token:          getEnv("LLM_TOKEN", ""),
			BaseURL:        getEnv("LLM_BASE_URL", ""),
			EmbeddingModel: getEnv("LLM_EMBEDDING_MODEL", "text-embedding-3-small"),
			Timeout:        time.Duration(llmTimeout) * time.Second,
		},
		Chat: ChatConfig{
			TopK:            getEnvInt("CHAT_TOP_K", 3),
			HistoryMaxTurns: getEnvInt("CHAT_HISTORY_MAX_TURNS", 0),
			MemoryScope:     getEnv("MEMORY_SCOPE", MemoryScopeGlobal),
			QueryTimeout:    time.Duration(queryTimeout) * time.Second,
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if cfg.LLM.Token == "" {
		return nil, fmt.Errorf("LLM_TOKEN is required")
	}
	if cfg.Chat.MemoryScope != MemoryScopeGlobal && cfg.Chat.MemoryScope != MemoryScopeSession {
		return nil, fmt.Errorf("MEMORY_SCOPE must be %q or %q, got %q",
			MemoryScopeGlobal, MemoryScopeSession, cfg.Chat.MemoryScope)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
