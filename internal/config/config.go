package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values loaded from environment variables.
type Config struct {
	HTTPPort        string
	JWTSecret       string
	TokenExpiration time.Duration
	DataDir         string // root of the file-backed store

	// Direct LLM path. Empty API key disables it and clients fall back to
	// the relay bridge.
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	// Voice replies via the edge-tts CLI.
	TTSEnabled bool
	TTSVoice   string
}

// WorkerConfig holds configuration for the relay automation worker.
type WorkerConfig struct {
	BridgeURL     string // base URL of the bridge surface, e.g. http://localhost:8080/
	BridgeUser    string // username whose conversation the worker serves
	TargetChatURL string // web chat the worker drives in the sandboxed browser
	BrowserImage  string
	PollInterval  time.Duration
	ReplyWait     time.Duration
	FaultLimit    int
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file (useful for development)
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: Could not load .env file. Using environment variables only.", err)
	}

	port := getEnv("HTTP_PORT", "8080")
	jwtSecret := getEnv("JWT_SECRET", "default-super-secret-key") // CHANGE THIS IN PRODUCTION!
	dataDir := getEnv("DATA_DIR", "./data")

	tokenExpStr := getEnv("JWT_EXPIRATION_HOURS", "168") // Default 7 days
	tokenExpHours, err := strconv.Atoi(tokenExpStr)
	if err != nil {
		log.Printf("Warning: Invalid JWT_EXPIRATION_HOURS '%s', using default 168h. Error: %v", tokenExpStr, err)
		tokenExpHours = 168
	}

	cfg := &Config{
		HTTPPort:        port,
		JWTSecret:       jwtSecret,
		TokenExpiration: time.Hour * time.Duration(tokenExpHours),
		DataDir:         dataDir,
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", ""),
		GeminiBaseURL:   getEnv("GEMINI_BASE_URL", ""),
		TTSEnabled:      getEnvBool("TTS_ENABLED", true),
		TTSVoice:        getEnv("TTS_VOICE", ""),
	}

	log.Printf("Loaded config: Port=%s, DataDir=%s, TokenExp=%s, LLM=%v, TTS=%v",
		cfg.HTTPPort, cfg.DataDir, cfg.TokenExpiration, cfg.GeminiAPIKey != "", cfg.TTSEnabled)

	return cfg, nil
}

// LoadWorkerConfig loads the relay worker configuration from environment
// variables. BRIDGE_USER and TARGET_CHAT_URL have no sensible defaults and
// cause a fatal exit when missing.
func LoadWorkerConfig() (*WorkerConfig, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: Could not load .env file. Using environment variables only.", err)
	}

	bridgeUser := getEnv("BRIDGE_USER", "")
	if bridgeUser == "" {
		log.Fatal("FATAL: BRIDGE_USER environment variable is not set.")
	}
	targetURL := getEnv("TARGET_CHAT_URL", "")
	if targetURL == "" {
		log.Fatal("FATAL: TARGET_CHAT_URL environment variable is not set.")
	}

	cfg := &WorkerConfig{
		BridgeURL:     getEnv("BRIDGE_URL", "http://localhost:8080/"),
		BridgeUser:    bridgeUser,
		TargetChatURL: targetURL,
		BrowserImage:  getEnv("BROWSER_IMAGE", ""),
		PollInterval:  getEnvDuration("POLL_INTERVAL", 5*time.Second),
		ReplyWait:     getEnvDuration("REPLY_WAIT", 15*time.Second),
		FaultLimit:    getEnvInt("FAULT_LIMIT", 3),
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			log.Printf("Warning: Invalid %s '%s', using default %v. Error: %v", key, value, fallback, err)
			return fallback
		}
		return parsed
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("Warning: Invalid %s '%s', using default %d. Error: %v", key, value, fallback, err)
			return fallback
		}
		return parsed
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			log.Printf("Warning: Invalid %s '%s', using default %s. Error: %v", key, value, fallback, err)
			return fallback
		}
		return parsed
	}
	return fallback
}
