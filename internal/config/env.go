package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string
	SslCertPath  string
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string

	AIAPIKey   string
	EmbedModel string
	EmbedDim   int
	GenModel   string

	// OCR providers. OcrEndpoint is the default-tier REST provider;
	// the premium tier (handwriting/complex scans) rides on the Gemini key.
	OcrEndpoint string
	OcrAPIKey   string

	// Optional local-ML sidecar (embedding + entity extraction).
	SidecarURL string

	// Chunking budgets.
	ParentMaxTokens int
	ChildMaxTokens  int
	OverlapTokens   int
	CharsPerToken   int

	// Embedding batches.
	EmbedBatchSize  int
	EmbedMaxRetries int
	EmbedBatchDelay int // milliseconds between batches

	// Pipeline execution.
	StepMaxAttempts int
	WorkerCount     int

	Port string
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		SslCertPath:  getEnv("SSL_CERT_PATH", ""),
		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", "docura-docs"),

		AIAPIKey:   getEnv("GEMINI_API_KEY", ""),
		EmbedModel: getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedDim:   getEnvInt("EMBED_DIM", 1536),
		GenModel:   getEnv("GEN_MODEL", "gemini-1.5-flash"),

		OcrEndpoint: getEnv("OCR_ENDPOINT", ""),
		OcrAPIKey:   getEnv("OCR_API_KEY", ""),
		SidecarURL:  getEnv("SIDECAR_URL", ""),

		ParentMaxTokens: getEnvInt("PARENT_MAX_TOKENS", 1000),
		ChildMaxTokens:  getEnvInt("CHILD_MAX_TOKENS", 256),
		OverlapTokens:   getEnvInt("OVERLAP_TOKENS", 50),
		CharsPerToken:   getEnvInt("CHARS_PER_TOKEN", 4),

		EmbedBatchSize:  getEnvInt("EMBED_BATCH_SIZE", 20),
		EmbedMaxRetries: getEnvInt("EMBED_MAX_RETRIES", 3),
		EmbedBatchDelay: getEnvInt("EMBED_BATCH_DELAY_MS", 200),

		StepMaxAttempts: getEnvInt("STEP_MAX_ATTEMPTS", 4),
		WorkerCount:     getEnvInt("WORKER_COUNT", 4),

		Port: getEnv("PORT", "8080"),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}
