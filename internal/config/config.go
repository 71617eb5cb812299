package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress string

	// Collaborator endpoints.
	ASRAPIURL     string
	TTSAPIURL     string
	LLMAPIURL     string
	LLMAPIKey     string
	LLMModelID    string
	DeepgramKey   string
	DeepgramModel string

	// Survey flow.
	CompanyName string
	MaxRetries  int

	// Persistence.
	SQLitePath string

	// Recording storage.
	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string

	// Outbound dialing.
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	StreamBaseURL    string
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Error loading .env file")
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = ":8080"
	}

	asrURL := os.Getenv("ASR_API_URL")
	if asrURL == "" {
		log.Println("Warning: ASR_API_URL not set - transcription will not work")
	}

	ttsURL := os.Getenv("TTS_API_URL")
	deepgramKey := os.Getenv("DEEPGRAM_API_KEY")
	if ttsURL == "" && deepgramKey == "" {
		log.Println("Warning: neither TTS_API_URL nor DEEPGRAM_API_KEY set - synthesis will not work")
	}

	llmURL := os.Getenv("LLM_API_URL")
	llmKey := os.Getenv("LLM_API_KEY")
	llmModel := os.Getenv("LLM_MODEL_ID")
	if llmModel == "" {
		llmModel = "gemini-2.0-flash"
	}
	if llmKey == "" {
		log.Println("Warning: LLM_API_KEY not set - answer extraction will not work")
	}

	company := os.Getenv("COMPANY_NAME")
	if company == "" {
		company = "L&T Finance"
	}

	maxRetries := 3
	if v := os.Getenv("MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxRetries = n
		}
	}

	dbPath := os.Getenv("SQLITE_PATH")
	if dbPath == "" {
		dbPath = "survey.db"
	}

	streamBase := os.Getenv("STREAM_BASE_URL")
	if streamBase == "" {
		log.Println("Warning: STREAM_BASE_URL not set - outbound calls cannot reach the media stream")
	}

	log.Printf("config: HTTP_ADDRESS=%s", addr)
	return Config{
		HTTPAddress:      addr,
		ASRAPIURL:        asrURL,
		TTSAPIURL:        ttsURL,
		LLMAPIURL:        llmURL,
		LLMAPIKey:        llmKey,
		LLMModelID:       llmModel,
		DeepgramKey:      deepgramKey,
		DeepgramModel:    os.Getenv("DEEPGRAM_TTS_MODEL"),
		CompanyName:      company,
		MaxRetries:       maxRetries,
		SQLitePath:       dbPath,
		SupabaseURL:      os.Getenv("SUPABASE_URL"),
		SupabaseKey:      os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		SupabaseBucket:   os.Getenv("SUPABASE_BUCKET"),
		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: os.Getenv("TWILIO_FROM_NUMBER"),
		StreamBaseURL:    streamBase,
	}
}
