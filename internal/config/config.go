package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultMinRatio = 0.5
	MinRatioFloor   = 0.1
	MinRatioCeiling = 0.95
)

type Config struct {
	Server   ServerConfig
	Redis    RedisConfig
	LLM      LLMConfig
	STT      STTConfig
	Storage  StorageConfig
	Media    MediaConfig
	Summary  SummaryConfig
	Pipeline PipelineConfig
	Queue    QueueConfig
	Log      LogConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	MaxUploadMB  int
	MetricsPath  string
	AllowOrigins []string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LLMConfig struct {
	OpenAIKey        string
	AnthropicKey     string
	OllamaURL        string
	DefaultProvider  string
	FallbackProvider string
	MaxRetries       int
}

type STTConfig struct {
	Backend       string // "openai" or "local"
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	LocalBaseURL  string // default: "http://localhost:8178/v1"
	Language      string
}

type StorageConfig struct {
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	SupabaseURL        string
	SupabaseKey        string
}

// S3Enabled reports whether static AWS credentials were supplied.
func (s StorageConfig) S3Enabled() bool {
	return s.AWSAccessKeyID != "" && s.AWSSecretAccessKey != ""
}

type MediaConfig struct {
	FFmpegPath       string // explicit override
	FFmpegStaticPath string // bundled binary location
	TempDir          string
}

type SummaryConfig struct {
	MinRatioRaw    string
	StructureModel string
	ExpandModel    string
}

// MinRatio parses the configured ratio, falling back to DefaultMinRatio and
// clamping to [MinRatioFloor, MinRatioCeiling].
func (s SummaryConfig) MinRatio() float64 {
	ratio, err := strconv.ParseFloat(strings.TrimSpace(s.MinRatioRaw), 64)
	if err != nil || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		ratio = DefaultMinRatio
	}
	return ClampRatio(ratio)
}

// ClampRatio bounds ratio to [MinRatioFloor, MinRatioCeiling].
func ClampRatio(ratio float64) float64 {
	return math.Max(MinRatioFloor, math.Min(MinRatioCeiling, ratio))
}

type PipelineConfig struct {
	Timeout time.Duration
}

// QueueConfig controls background processing of URL jobs.
type QueueConfig struct {
	WorkerConcurrency int
	JobTTL            time.Duration
	CallbackSecret    string
}

type LogConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxUpload, err := getEnvInt("MAX_UPLOAD_MB", 25)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_MB: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxRetries, err := getEnvInt("LLM_MAX_RETRIES", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_RETRIES: %w", err)
	}

	timeout, err := getEnvDuration("PIPELINE_TIMEOUT", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid PIPELINE_TIMEOUT: %w", err)
	}

	concurrency, err := getEnvInt("WORKER_CONCURRENCY", 4)
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_CONCURRENCY: %w", err)
	}

	jobTTL, err := getEnvDuration("JOB_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid JOB_TTL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         port,
			MaxUploadMB:  maxUpload,
			MetricsPath:  getEnv("METRICS_PATH", "/metrics"),
			AllowOrigins: splitList(getEnv("CORS_ALLOW_ORIGINS", "*")),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		LLM: LLMConfig{
			OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
			AnthropicKey:     getEnv("ANTHROPIC_API_KEY", ""),
			OllamaURL:        getEnv("OLLAMA_URL", ""),
			DefaultProvider:  getEnv("LLM_DEFAULT_PROVIDER", "openai"),
			FallbackProvider: getEnv("LLM_FALLBACK_PROVIDER", ""),
			MaxRetries:       maxRetries,
		},
		STT: STTConfig{
			Backend:       getEnv("STT_BACKEND", "openai"),
			OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("STT_OPENAI_BASE_URL", ""),
			OpenAIModel:   getEnv("STT_OPENAI_MODEL", ""),
			LocalBaseURL:  getEnv("STT_LOCAL_BASE_URL", "http://localhost:8178/v1"),
			Language:      getEnv("STT_LANGUAGE", "es"),
		},
		Storage: StorageConfig{
			AWSRegion:          unquote(getEnv("AWS_REGION", "us-east-1")),
			AWSAccessKeyID:     unquote(getEnv("AWS_ACCESS_KEY_ID", "")),
			AWSSecretAccessKey: unquote(getEnv("AWS_SECRET_ACCESS_KEY", "")),
			SupabaseURL:        getEnv("SUPABASE_URL", ""),
			SupabaseKey:        getEnv("SUPABASE_SERVICE_KEY", ""),
		},
		Media: MediaConfig{
			FFmpegPath:       getEnv("FFMPEG_PATH", ""),
			FFmpegStaticPath: getEnv("FFMPEG_STATIC_PATH", "/usr/local/bin/ffmpeg"),
			TempDir:          getEnv("AUDIO_TEMP_DIR", os.TempDir()),
		},
		Summary: SummaryConfig{
			MinRatioRaw:    getEnv("AUDIO_SUMMARY_MIN_RATIO", ""),
			StructureModel: getEnv("SUMMARY_STRUCTURE_MODEL", "gpt-4o"),
			ExpandModel:    getEnv("SUMMARY_EXPAND_MODEL", "gpt-4o"),
		},
		Pipeline: PipelineConfig{
			Timeout: timeout,
		},
		Queue: QueueConfig{
			WorkerConcurrency: concurrency,
			JobTTL:            jobTTL,
			CallbackSecret:    getEnv("JOB_CALLBACK_SECRET", ""),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = "us-east-1"
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.STT.Backend == "openai" && c.STT.OpenAIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.LLM.OpenAIKey == "" && c.LLM.AnthropicKey == "" && c.LLM.OllamaURL == "" {
		missing = append(missing, "OPENAI_API_KEY|ANTHROPIC_API_KEY|OLLAMA_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

// unquote strips whitespace and one pair of surrounding quotes, which some
// deployment tools leave in credential values.
func unquote(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 1 && (v[0] == '"' || v[0] == '\'') {
		v = v[1:]
	}
	if n := len(v); n >= 1 && (v[n-1] == '"' || v[n-1] == '\'') {
		v = v[:n-1]
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
