package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string

	DatabaseURL string
	SQLitePath  string

	ObjectStoreType string
	UploadDir       string
	GeneratedDir    string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	LLMAPIKey         string
	ProviderAPIKeys   map[string]string
	OpenAIBaseURL     string
	PerplexityBaseURL string
	LLMTimeout        time.Duration

	AMQPURL      string
	AMQPExchange string

	GenerateRatePerMinute float64
	GenerateBurst         int

	Models []ModelConfig
}

// ModelConfig describes one selectable model in the catalog.
type ModelConfig struct {
	Provider     string `json:"provider"`
	ModelID      string `json:"model_id"`
	DisplayName  string `json:"display_name"`
	Description  string `json:"description"`
	APIModelName string `json:"-"`
}

// DefaultModels is the catalog served when MODEL_CATALOG is not set.
var DefaultModels = []ModelConfig{
	{
		Provider:     "perplexity",
		ModelID:      "sonar-pro",
		DisplayName:  "Perplexity Sonar Pro",
		Description:  "Advanced online reasoning model by Perplexity",
		APIModelName: "sonar-pro",
	},
	{
		Provider:     "gemini",
		ModelID:      "gemini-2.5-flash",
		DisplayName:  "Gemini 2.5 Flash",
		Description:  "Fast general-purpose model by Google",
		APIModelName: "gemini-2.5-flash",
	},
	{
		Provider:     "openai",
		ModelID:      "gpt-4o-mini",
		DisplayName:  "GPT-4o mini",
		Description:  "Small, fast OpenAI model",
		APIModelName: "gpt-4o-mini",
	},
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is empty in production; falling back to SQLITE_PATH")
	}

	models, err := parseModelCatalog(os.Getenv("MODEL_CATALOG"))
	if err != nil {
		log.Printf("MODEL_CATALOG invalid, using defaults: %v", err)
		models = DefaultModels
	}

	return Config{
		Port:                  getEnv("PORT", "8080"),
		CORSAllowOrigin:       splitAndTrim(getEnv("CORS_ORIGINS", "*")),
		Env:                   env,
		DatabaseURL:           dbURL,
		SQLitePath:            getEnv("SQLITE_PATH", "./data/resume_builder.db"),
		ObjectStoreType:       normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		UploadDir:             getEnv("UPLOAD_DIR", "./data/uploads"),
		GeneratedDir:          getEnv("GENERATED_DIR", "./data/generated"),
		AWSRegion:             getEnv("AWS_REGION", ""),
		S3Bucket:              getEnv("S3_BUCKET", ""),
		S3Prefix:              getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:           getEnv("SSE_KMS_KEY_ID", ""),
		LLMAPIKey:             getEnv("LLM_API_KEY", ""),
		ProviderAPIKeys:       providerKeysFromEnv(),
		OpenAIBaseURL:         getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		PerplexityBaseURL:     getEnv("PERPLEXITY_BASE_URL", "https://api.perplexity.ai"),
		LLMTimeout:            getEnvDuration("LLM_TIMEOUT", 120*time.Second),
		AMQPURL:               getEnv("AMQP_URL", ""),
		AMQPExchange:          getEnv("AMQP_EXCHANGE", "application_updates"),
		GenerateRatePerMinute: getEnvFloat("GENERATE_RATE_PER_MINUTE", 6),
		GenerateBurst:         getEnvInt("GENERATE_BURST", 3),
		Models:                models,
	}
}

// LookupModel resolves a catalog entry by its public model id.
func (c Config) LookupModel(modelID string) (ModelConfig, error) {
	for _, m := range c.Models {
		if m.ModelID == modelID {
			return m, nil
		}
	}
	return ModelConfig{}, fmt.Errorf("unknown model id: %s", modelID)
}

// APIKeyFor returns the credential for a provider, falling back to LLM_API_KEY.
func (c Config) APIKeyFor(provider string) string {
	if key := strings.TrimSpace(c.ProviderAPIKeys[provider]); key != "" {
		return key
	}
	return strings.TrimSpace(c.LLMAPIKey)
}

func providerKeysFromEnv() map[string]string {
	out := map[string]string{}
	for provider, key := range map[string]string{
		"openai":     "OPENAI_API_KEY",
		"perplexity": "PERPLEXITY_API_KEY",
		"gemini":     "GEMINI_API_KEY",
	} {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			out[provider] = val
		}
	}
	return out
}

// parseModelCatalog reads entries of the form provider:model_id[:api_model_name],
// separated by commas. Display name defaults to the model id.
func parseModelCatalog(raw string) ([]ModelConfig, error) {
	if strings.TrimSpace(raw) == "" {
		return DefaultModels, nil
	}
	var out []ModelConfig
	for _, entry := range splitAndTrim(raw) {
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("malformed catalog entry %q", entry)
		}
		m := ModelConfig{
			Provider:     strings.ToLower(strings.TrimSpace(parts[0])),
			ModelID:      strings.TrimSpace(parts[1]),
			DisplayName:  strings.TrimSpace(parts[1]),
			APIModelName: strings.TrimSpace(parts[1]),
		}
		if len(parts) == 3 {
			m.APIModelName = strings.TrimSpace(parts[2])
		}
		if m.Provider == "" || m.ModelID == "" || m.APIModelName == "" {
			return nil, fmt.Errorf("malformed catalog entry %q", entry)
		}
		out = append(out, m)
	}
	return out, nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	log.Printf("config %s invalid duration %q, using %s", key, raw, def)
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config %s invalid int %q, using %d", key, raw, def)
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config %s invalid float %q, using %v", key, raw, def)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
