package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv  string
	Port    string
	BaseURL string
	DevMode bool

	PostgresURL string

	RedisAddr string
	RedisPass string
	RedisDB   int
	CacheTTL  time.Duration

	JWTSecret string
	JWTTTL    time.Duration

	LLMProvider      string
	LLMModel         string
	LLMBaseURL       string
	LLMMaxIterations int
	LLMTimeout       time.Duration
	OpenAIKey        string
	AnthropicKey     string
	GeminiKey        string

	EmbeddingProvider string
	EmbeddingModel    string
	EmbeddingBaseURL  string

	GoogleAPIKey   string
	GoogleRPS      int
	AmadeusKey     string
	AmadeusSecret  string
	AmadeusBaseURL string
	AmadeusRPS     int
	BookingMode    string
	CurrencyAPIURL string

	PlanWorkers int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// Load reads the environment, after merging a .env file when one is present.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	llmProvider := strings.ToLower(env("LLM_PROVIDER", "ollama"))
	embedProvider := strings.ToLower(env("EMBEDDING_PROVIDER", llmProvider))

	c := Config{
		AppEnv:  env("APP_ENV", "prod"),
		Port:    env("PORT", "8080"),
		BaseURL: strings.TrimRight(env("BASE_URL", "http://localhost:8080"), "/"),
		DevMode: boolean("DEV_MODE", false),

		PostgresURL: os.Getenv("POSTGRES_URL"),

		RedisAddr: os.Getenv("REDIS_ADDR"),
		RedisPass: os.Getenv("REDIS_PASSWORD"),
		RedisDB:   atoi("REDIS_DB", 0),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 86400)) * time.Second,

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    time.Duration(atoi("JWT_TTL_MINUTES", 60)) * time.Minute,

		LLMProvider:      llmProvider,
		LLMModel:         env("LLM_MODEL", defaultChatModel(llmProvider)),
		LLMBaseURL:       env("LLM_BASE_URL", defaultBaseURL(llmProvider)),
		LLMMaxIterations: atoi("LLM_MAX_ITERATIONS", 8),
		LLMTimeout:       time.Duration(atoi("LLM_TIMEOUT_SECONDS", 300)) * time.Second,
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		AnthropicKey:     os.Getenv("ANTHROPIC_API_KEY"),
		GeminiKey:        os.Getenv("GEMINI_API_KEY"),

		EmbeddingProvider: embedProvider,
		EmbeddingModel:    env("EMBEDDING_MODEL", defaultEmbeddingModel(embedProvider)),
		EmbeddingBaseURL:  env("EMBEDDING_BASE_URL", defaultBaseURL(embedProvider)),

		GoogleAPIKey:   os.Getenv("GOOGLE_API_KEY"),
		GoogleRPS:      atoi("GOOGLE_RPS", 5),
		AmadeusKey:     os.Getenv("AMADEUS_API_KEY"),
		AmadeusSecret:  os.Getenv("AMADEUS_API_SECRET"),
		AmadeusBaseURL: strings.TrimRight(env("AMADEUS_BASE_URL", "https://test.api.amadeus.com"), "/"),
		AmadeusRPS:     atoi("AMADEUS_RPS", 1),
		BookingMode:    strings.ToLower(env("BOOKING_MODE", "mock")),
		CurrencyAPIURL: strings.TrimRight(env("CURRENCY_API_URL", "https://open.er-api.com/v6/latest"), "/"),

		PlanWorkers: atoi("PLAN_WORKERS", 2),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     atoi("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
	}

	switch c.BookingMode {
	case "mock", "live", "auto":
	default:
		log.Warn().Str("booking_mode", c.BookingMode).Msg("unknown BOOKING_MODE, using mock")
		c.BookingMode = "mock"
	}
	if c.PlanWorkers <= 0 {
		c.PlanWorkers = 1
	}
	if c.LLMMaxIterations <= 0 {
		c.LLMMaxIterations = 8
	}
	if c.GoogleAPIKey == "" {
		log.Warn().Msg("GOOGLE_API_KEY is empty; places and routes tools will fail")
	}
	if c.BookingMode != "mock" && (c.AmadeusKey == "" || c.AmadeusSecret == "") {
		log.Warn().Str("booking_mode", c.BookingMode).Msg("Amadeus credentials missing, using mock")
		c.BookingMode = "mock"
	}
	return c
}

// Validate reports the keys the HTTP server cannot start without.
func (c Config) Validate() []string {
	var missing []string
	if c.PostgresURL == "" {
		missing = append(missing, "POSTGRES_URL")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	return missing
}

func defaultChatModel(provider string) string {
	switch provider {
	case "openai":
		return "gpt-4o-mini"
	case "anthropic":
		return "claude-3-5-haiku-latest"
	case "gemini":
		return "gemini-1.5-flash"
	default:
		return "gpt-oss:20b"
	}
}

func defaultEmbeddingModel(provider string) string {
	switch provider {
	case "openai":
		return "text-embedding-3-small"
	case "gemini":
		return "text-embedding-004"
	default:
		return "all-minilm"
	}
}

func defaultBaseURL(provider string) string {
	if provider == "ollama" {
		return "http://localhost:11434/v1"
	}
	return ""
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		return def
	}
	return n
}

func boolean(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("not a boolean, using default")
		return def
	}
	return b
}
