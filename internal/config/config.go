package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Batch policy defaults, overridable through the environment.
const (
	DefaultMaxBatchSize        = 50
	DefaultSimilarityThreshold = 90.0
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Grader   GraderConfig
	Pipeline PipelineConfig
	Rubric   RubricConfig
	Qdrant   QdrantConfig
	Storage  StorageConfig
	Worker   WorkerConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type GraderConfig struct {
	Provider    string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
}

type PipelineConfig struct {
	MaxBatchSize        int
	SimilarityThreshold float64
	Concurrency         int
}

type RubricConfig struct {
	Source       string
	Path         string
	Course       string
	EmbeddingKey string
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
}

type StorageConfig struct {
	UploadPath    string
	ReportPath    string
	MaxFileSize   int64
	// MaxBatchBytes bounds a whole multipart upload.
	MaxBatchBytes int64
}

type WorkerConfig struct {
	Concurrency  int
	PollInterval time.Duration
}

type LogConfig struct {
	Level  string
	Pretty bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	provider := strings.ToLower(getEnv("GRADER_PROVIDER", "gemini"))
	maxBatchSize := getEnvAsInt("MAX_BATCH_SIZE", DefaultMaxBatchSize)
	maxFileSize := getEnvAsInt64("MAX_FILE_SIZE", 52428800)

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "assignment_grader"),
		},
		Grader: GraderConfig{
			Provider:    provider,
			APIKey:      graderAPIKey(provider),
			Model:       getEnv("GRADER_MODEL", ""),
			Temperature: getEnvAsFloat32("GRADER_TEMPERATURE", 0.3),
			MaxTokens:   getEnvAsInt("GRADER_MAX_TOKENS", 2000),
			Timeout:     getEnvAsDuration("GRADER_TIMEOUT", "2m"),
			MaxRetries:  getEnvAsInt("GRADER_MAX_RETRIES", 3),
		},
		Pipeline: PipelineConfig{
			MaxBatchSize:        maxBatchSize,
			SimilarityThreshold: getEnvAsFloat64("SIMILARITY_THRESHOLD", DefaultSimilarityThreshold),
			Concurrency:         getEnvAsInt("PIPELINE_CONCURRENCY", 3),
		},
		Rubric: RubricConfig{
			Source:       strings.ToLower(getEnv("RUBRIC_SOURCE", "embedded")),
			Path:         getEnv("RUBRIC_PATH", ""),
			Course:       getEnv("RUBRIC_COURSE", ""),
			EmbeddingKey: embeddingAPIKey(provider),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", "http://localhost:6333"),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "assignment_rubrics"),
		},
		Storage: StorageConfig{
			UploadPath:    getEnv("UPLOAD_PATH", "./uploads"),
			ReportPath:    getEnv("REPORT_PATH", "./reports"),
			MaxFileSize:   maxFileSize,
			MaxBatchBytes: getEnvAsInt64("MAX_BATCH_BYTES", maxFileSize*int64(maxBatchSize)),
		},
		Worker: WorkerConfig{
			Concurrency:  getEnvAsInt("WORKER_CONCURRENCY", 2),
			PollInterval: getEnvAsDuration("WORKER_POLL_INTERVAL", "10s"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvAsBool("LOG_PRETTY", true),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// graderAPIKey prefers GRADER_API_KEY and falls back to the provider's own variable.
func graderAPIKey(provider string) string {
	if key := getEnv("GRADER_API_KEY", ""); key != "" {
		return key
	}
	switch provider {
	case "anthropic":
		return getEnv("ANTHROPIC_API_KEY", "")
	default:
		return getEnv("GEMINI_API_KEY", "")
	}
}

// embeddingAPIKey is always a Gemini key; rubric retrieval embeds with Gemini
// whichever provider grades.
func embeddingAPIKey(provider string) string {
	if key := getEnv("GEMINI_API_KEY", ""); key != "" {
		return key
	}
	if provider == "gemini" {
		return getEnv("GRADER_API_KEY", "")
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	return float32(getEnvAsFloat64(key, float64(defaultValue)))
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
