package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	BackendLocal  = "local"
	BackendChroma = "chroma"

	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Knowledge KnowledgeConfig `toml:"knowledge"`
	LLM       LLMConfig       `toml:"llm"`
	Chroma    ChromaConfig    `toml:"chroma"`
	Redis     RedisConfig     `toml:"redis"`
	Twilio    TwilioConfig    `toml:"twilio"`
}

type ServerConfig struct {
	Name      string `toml:"name"`
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	GinMode   string `toml:"gin_mode"`
	ClientDir string `toml:"client_dir"`
}

type KnowledgeConfig struct {
	DocsDir          string  `toml:"docs_dir"`
	IndexPath        string  `toml:"index_path"`
	Backend          string  `toml:"backend"`
	ChunkSize        int     `toml:"chunk_size"`
	ChunkOverlap     int     `toml:"chunk_overlap"`
	TopK             int     `toml:"top_k"`
	WatchDocs        bool    `toml:"watch_docs"`
	RateLimit        float64 `toml:"rate_limit"`
	RateBurst        int     `toml:"rate_burst"`
	UnidocLicenseKey string  `toml:"unidoc_license_key"`
}

type LLMConfig struct {
	Provider                 string `toml:"provider"`
	OpenAIAPIKey             string `toml:"openai_api_key"`
	GeminiAPIKey             string `toml:"gemini_api_key"`
	OllamaURL                string `toml:"ollama_url"`
	ChatModel                string `toml:"chat_model"`
	EmbeddingModel           string `toml:"embedding_model"`
	GenerationTimeoutSeconds int    `toml:"generation_timeout_seconds"`
}

type ChromaConfig struct {
	URL        string `toml:"url"`
	Collection string `toml:"collection"`
}

type RedisConfig struct {
	Addr                  string `toml:"addr"`
	Password              string `toml:"password"`
	DB                    int    `toml:"db"`
	AnswerCacheTTLSeconds int    `toml:"answer_cache_ttl_seconds"`
}

type TwilioConfig struct {
	AuthToken            string `toml:"auth_token"`
	PublicBaseURL        string `toml:"public_base_url"`
	Voice                string `toml:"voice"`
	GatherTimeoutSeconds int    `toml:"gather_timeout_seconds"`
}

// Load builds the configuration from defaults, an optional TOML file and the
// environment (a .env file in the working directory is honoured).
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("CONFIG: No .env file found, relying on environment variables.")
	}

	cfg := defaultConfig()

	if path == "" {
		path = getEnv("CONFIG_FILE", "config.toml")
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	}

	overrideByEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.LLM.GenerationTimeoutSeconds) * time.Second
}

func (c *Config) AnswerCacheTTL() time.Duration {
	return time.Duration(c.Redis.AnswerCacheTTLSeconds) * time.Second
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Knowledge.Backend {
	case BackendLocal, BackendChroma:
	default:
		errs = append(errs, fmt.Errorf("unknown index backend %q", c.Knowledge.Backend))
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}
	if c.Knowledge.ChunkSize <= 0 {
		errs = append(errs, errors.New("chunk size must be positive"))
	}
	if c.Knowledge.ChunkOverlap < 0 || c.Knowledge.ChunkOverlap >= c.Knowledge.ChunkSize {
		errs = append(errs, errors.New("chunk overlap must be in [0, chunk size)"))
	}
	if c.Knowledge.TopK <= 0 {
		errs = append(errs, errors.New("top k must be positive"))
	}
	if c.Server.Port <= 0 {
		errs = append(errs, errors.New("port must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:      "voicecare",
			Host:      "0.0.0.0",
			Port:      3000,
			GinMode:   "release",
			ClientDir: "client",
		},
		Knowledge: KnowledgeConfig{
			DocsDir:      "docs",
			IndexPath:    "knowledge-index",
			Backend:      BackendLocal,
			ChunkSize:    500,
			ChunkOverlap: 50,
			TopK:         3,
			RateBurst:    1,
		},
		LLM: LLMConfig{
			Provider:                 ProviderOpenAI,
			OllamaURL:                "http://localhost:11434",
			GenerationTimeoutSeconds: 30,
		},
		Chroma: ChromaConfig{
			URL:        "http://localhost:8000",
			Collection: "voicecare-knowledge",
		},
		Redis: RedisConfig{
			AnswerCacheTTLSeconds: 300,
		},
		Twilio: TwilioConfig{
			Voice:                "Polly.Joanna-Neural",
			GatherTimeoutSeconds: 10,
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.Server.Name = getEnv("APP_NAME", cfg.Server.Name)
	cfg.Server.Host = getEnv("HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvAsInt("PORT", cfg.Server.Port)
	cfg.Server.GinMode = getEnv("GIN_MODE", cfg.Server.GinMode)
	cfg.Server.ClientDir = getEnv("CLIENT_DIR", cfg.Server.ClientDir)

	cfg.Knowledge.DocsDir = getEnv("DOCS_DIR", cfg.Knowledge.DocsDir)
	cfg.Knowledge.IndexPath = getEnv("INDEX_PATH", cfg.Knowledge.IndexPath)
	cfg.Knowledge.Backend = strings.ToLower(getEnv("INDEX_BACKEND", cfg.Knowledge.Backend))
	cfg.Knowledge.ChunkSize = getEnvAsInt("CHUNK_SIZE", cfg.Knowledge.ChunkSize)
	cfg.Knowledge.ChunkOverlap = getEnvAsInt("CHUNK_OVERLAP", cfg.Knowledge.ChunkOverlap)
	cfg.Knowledge.TopK = getEnvAsInt("TOP_K", cfg.Knowledge.TopK)
	cfg.Knowledge.WatchDocs = getEnvAsBool("WATCH_DOCS", cfg.Knowledge.WatchDocs)
	cfg.Knowledge.RateLimit = getEnvAsFloat("KNOWLEDGE_RATE_LIMIT", cfg.Knowledge.RateLimit)
	cfg.Knowledge.RateBurst = getEnvAsInt("KNOWLEDGE_RATE_BURST", cfg.Knowledge.RateBurst)
	cfg.Knowledge.UnidocLicenseKey = getEnv("UNIDOC_LICENSE_KEY", cfg.Knowledge.UnidocLicenseKey)

	cfg.LLM.Provider = strings.ToLower(getEnv("LLM_PROVIDER", cfg.LLM.Provider))
	cfg.LLM.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.LLM.OpenAIAPIKey)
	cfg.LLM.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.LLM.GeminiAPIKey)
	cfg.LLM.OllamaURL = getEnv("OLLAMA_URL", cfg.LLM.OllamaURL)
	cfg.LLM.ChatModel = getEnv("CHAT_MODEL", cfg.LLM.ChatModel)
	cfg.LLM.EmbeddingModel = getEnv("EMBEDDING_MODEL", cfg.LLM.EmbeddingModel)
	cfg.LLM.GenerationTimeoutSeconds = getEnvAsInt("GENERATION_TIMEOUT_SECONDS", cfg.LLM.GenerationTimeoutSeconds)

	cfg.Chroma.URL = getEnv("CHROMA_URL", cfg.Chroma.URL)
	cfg.Chroma.Collection = getEnv("CHROMA_COLLECTION", cfg.Chroma.Collection)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.AnswerCacheTTLSeconds = getEnvAsInt("ANSWER_CACHE_TTL_SECONDS", cfg.Redis.AnswerCacheTTLSeconds)

	cfg.Twilio.AuthToken = getEnv("TWILIO_AUTH_TOKEN", cfg.Twilio.AuthToken)
	cfg.Twilio.PublicBaseURL = getEnv("PUBLIC_BASE_URL", cfg.Twilio.PublicBaseURL)
	cfg.Twilio.Voice = getEnv("TWILIO_VOICE", cfg.Twilio.Voice)
	cfg.Twilio.GatherTimeoutSeconds = getEnvAsInt("GATHER_TIMEOUT_SECONDS", cfg.Twilio.GatherTimeoutSeconds)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
