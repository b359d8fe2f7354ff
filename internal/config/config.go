package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	DatabaseURL   string

	// Language handling
	BridgeLanguage     string // language routed through the translation bridge
	ProcessingLanguage string // language the model operates in
	GlobalLanguage     string // initial process-wide override ("auto" = detect)

	// Gemini
	GeminiAPIKey  string
	GeminiModelID string

	// OpenAI (Whisper STT, TTS, embeddings)
	OpenAIAPIKey   string
	WhisperModelID string
	TTSModelID     string
	TTSVoice       string
	EmbeddingModel string

	// LAfricaMobile (Wolof STT/TTS/translation)
	LAMBaseURL  string
	LAMUsername string
	LAMPassword string

	// Provider budgets
	ProviderTimeout time.Duration
	ProviderRetries int

	// Retrieval
	RAGTopK int

	// Redis (translation cache)
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Audio artifacts
	ArtifactDir      string
	ArtifactS3Bucket string
	AWSRegion        string
	AWSAccessKeyID   string
	AWSSecretKey     string

	AdminJWTSecret string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		BridgeLanguage:     getEnv("BRIDGE_LANGUAGE", "wo"),
		ProcessingLanguage: getEnv("PROCESSING_LANGUAGE", "fr"),
		GlobalLanguage:     strings.ToLower(strings.TrimSpace(getEnv("GLOBAL_LANGUAGE", "auto"))),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		WhisperModelID: getEnv("WHISPER_MODEL_ID", "whisper-1"),
		TTSModelID:     getEnv("TTS_MODEL_ID", "tts-1"),
		TTSVoice:       getEnv("TTS_VOICE", "alloy"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),

		LAMBaseURL:  getEnv("LAM_BASE_URL", ""),
		LAMUsername: getEnv("LAM_USERNAME", ""),
		LAMPassword: getEnv("LAM_PASSWORD", ""),

		ProviderTimeout: getEnvAsDuration("PROVIDER_TIMEOUT", 60*time.Second),
		ProviderRetries: getEnvAsInt("PROVIDER_RETRIES", 2),

		RAGTopK: getEnvAsInt("RAG_TOP_K", 3),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		ArtifactDir:      getEnv("ARTIFACT_DIR", "uploads"),
		ArtifactS3Bucket: getEnv("ARTIFACT_S3_BUCKET", ""),
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:   getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:     getEnv("AWS_SECRET_ACCESS_KEY", ""),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
