package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string

	// AI provider config
	AIProvider    string // "gemini", "ollama" or "auto"
	GeminiApiKey  string
	OllamaBaseURL string
	OllamaModel   string

	// Gmail / Google Cloud config
	GoogleClientID      string
	GoogleClientSecret  string
	GoogleProjectID     string
	GooglePubSubTopic   string
	GoogleCredentials   string
	FirebaseCredentials string

	// Triage mailbox config
	MailProvider      string // "gmail" or "imap"
	GmailAccessToken  string
	GmailRefreshToken string
	IMAPServer        string // host:port
	IMAPEmail         string
	IMAPPassword      string

	// Tenant the watched triage mailbox belongs to
	TriageTenantID string

	// Chroma vector store config (optional, semantic correlation)
	ChromaAPIKey   string
	ChromaTenant   string
	ChromaDatabase string

	// Gmail label applied after a message has been triaged
	ProcessedLabelID string

	// Upper bound on wall-clock time for one triage run
	TriageTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	triageTimeout := 2 * time.Minute
	if t := os.Getenv("TRIAGE_TIMEOUT"); t != "" {
		if parsed, err := time.ParseDuration(t); err == nil {
			triageTimeout = parsed
		}
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=prodboard port=5432 sslmode=disable"),
		JWTSecret:   getEnv("JWT_SECRET", "your-secret-key-change-in-production"),

		AIProvider:    getEnv("AI_PROVIDER", "auto"),
		GeminiApiKey:  getEnv("GEMINI_API_KEY", ""),
		OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "llama3"),

		GoogleClientID:      getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:  getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleProjectID:     getEnv("GOOGLE_PROJECT_ID", ""),
		GooglePubSubTopic:   getEnv("GOOGLE_PUBSUB_TOPIC", "gmail-updates"),
		GoogleCredentials:   getEnv("GOOGLE_CREDENTIALS", ""),
		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),

		MailProvider:      getEnv("MAIL_PROVIDER", "gmail"),
		GmailAccessToken:  getEnv("GMAIL_ACCESS_TOKEN", ""),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),
		IMAPServer:        getEnv("IMAP_SERVER", ""),
		IMAPEmail:         getEnv("IMAP_EMAIL", ""),
		IMAPPassword:      getEnv("IMAP_PASSWORD", ""),

		TriageTenantID: getEnv("TRIAGE_TENANT_ID", ""),

		ChromaAPIKey:   getEnv("CHROMA_API_KEY", ""),
		ChromaTenant:   getEnv("CHROMA_TENANT", ""),
		ChromaDatabase: getEnv("CHROMA_DATABASE", ""),

		ProcessedLabelID: getEnv("PROCESSED_LABEL_ID", ""),

		TriageTimeout: triageTimeout,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
