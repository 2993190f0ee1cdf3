package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Embedding  EmbeddingConfig
	Rerank     RerankConfig
	Generation GenerationConfig
	Retrieval  RetrievalConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	TitleTopic         string
}

type DatabaseConfig struct {
	Connection string
}

type EmbeddingConfig struct {
	Model    string
	Token    string
	BaseURL  string
	TaskType string
}

type RerankConfig struct {
	Model   string
	BaseURL string
	// APIKey authenticates against the rerank endpoint. It is a separate
	// credential from the generation key; the two services are different
	// vendors in the default deployment.
	APIKey string
}

type GenerationConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type RetrievalConfig struct {
	CollectionName string
	TopK           int
	RerankTopK     int
	HistoryTurns   int
	ContextBudget  int
	MessageMaxLen  int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			TitleTopic:         getEnv("CONVERSATION_TITLE_TOPIC_NAME", "CONVERSATION_TITLE"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Embedding: EmbeddingConfig{
			Model:    getEnv("EMBEDDING_MODEL", ""),
			Token:    getEnv("NOMIC_TOKEN", ""),
			BaseURL:  getEnv("NOMIC_API_URL", "https://api-atlas.nomic.ai/v1/embedding/text"),
			TaskType: getEnv("NOMIC_TASK_TYPE", "search_query"),
		},
		Rerank: RerankConfig{
			Model:   getEnv("RERANK_MODEL", ""),
			BaseURL: getEnv("RERANK_API_URL", ""),
			APIKey:  getEnv("RERANK_API_KEY", ""),
		},
		Generation: GenerationConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			BaseURL: getEnv("OPENAI_API_URL", "https://api.openai.com/v1"),
			Model:   getEnv("OPENAI_MODEL", ""),
		},
		Retrieval: RetrievalConfig{
			CollectionName: getEnv("COLLECTION_NAME", ""),
			TopK:           getEnvAsInt("TOP_K", 10),
			RerankTopK:     getEnvAsInt("RERANK_TOP_K", 5),
			HistoryTurns:   getEnvAsInt("HISTORY_TURNS", 10),
			ContextBudget:  getEnvAsInt("CONTEXT_BUDGET_CHARS", 12000),
			MessageMaxLen:  getEnvAsInt("CHAT_MESSAGE_MAX_LENGTH", 200),
		},
	}
}

// Validate enumerates the required settings. A missing credential or endpoint
// is a startup error, never a runtime one.
func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"DB_CONNECTION_STRING", c.Database.Connection},
		{"EMBEDDING_MODEL", c.Embedding.Model},
		{"NOMIC_TOKEN", c.Embedding.Token},
		{"RERANK_MODEL", c.Rerank.Model},
		{"OPENAI_API_KEY", c.Generation.APIKey},
		{"OPENAI_MODEL", c.Generation.Model},
		{"COLLECTION_NAME", c.Retrieval.CollectionName},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("missing required environment variable %s", r.key)
		}
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("TOP_K must be positive, got %d", c.Retrieval.TopK)
	}
	if c.Retrieval.RerankTopK <= 0 {
		return fmt.Errorf("RERANK_TOP_K must be positive, got %d", c.Retrieval.RerankTopK)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
