package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	ConfigPathEnv   = "CONTENT_PIPELINE_CONFIG"

	databaseDSNEnv       = "DATABASE_DSN"
	openAIAPIKeyEnv      = "OPENAI_API_KEY"
	cohereAPIKeyEnv      = "COHERE_API_KEY"
	mlAPIKeyEnv          = "ML_API_KEY"
	redisAddrEnv         = "REDIS_ADDR"
	kafkaBrokersEnv      = "KAFKA_BROKERS"
	s3BucketEnv          = "S3_BUCKET"
	telegramTokenEnv     = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv    = "TELEGRAM_CHAT_ID"
	generationBackendEnv = "GENERATION_BACKEND"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Fetcher       FetcherConfig      `yaml:"fetcher"`
	Sentiment     AnalysisConfig     `yaml:"sentiment"`
	Topics        AnalysisConfig     `yaml:"topics"`
	Generation    GenerationConfig   `yaml:"generation"`
	SEO           SEOConfig          `yaml:"seo"`
	Outreach      OutreachConfig     `yaml:"outreach"`
	Monetization  MonetizationConfig `yaml:"monetization"`
	ML            MLConfig           `yaml:"ml"`
	Cache         CacheConfig        `yaml:"cache"`
	Database      DatabaseConfig     `yaml:"database"`
	Kafka         KafkaConfig        `yaml:"kafka"`
	S3            S3Config           `yaml:"s3"`
	Notifications NotificationConfig `yaml:"notifications"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	HTTP          HTTPConfig         `yaml:"http"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PipelineConfig controls the article fan-out.
type PipelineConfig struct {
	Workers int    `yaml:"workers"`
	SiteURL string `yaml:"siteUrl"`
}

// FetcherConfig selects the scanner strategy used to read a site.
type FetcherConfig struct {
	Strategy    string        `yaml:"strategy"`
	FollowLinks bool          `yaml:"followLinks"`
	UserAgent   string        `yaml:"userAgent"`
	Timeout     time.Duration `yaml:"timeout"`
}

// AnalysisConfig picks a local or remote backend for sentiment and topics.
type AnalysisConfig struct {
	Backend string `yaml:"backend"`
}

// GenerationConfig holds the backend id, token budget and per-backend settings.
type GenerationConfig struct {
	Backend           string       `yaml:"backend"`
	MaxTokens         int          `yaml:"maxTokens"`
	Seed              *int64       `yaml:"seed"`
	RequestsPerMinute int          `yaml:"requestsPerMinute"`
	GPT2              GPT2Config   `yaml:"gpt2"`
	OpenAI            OpenAIConfig `yaml:"openai"`
	Cohere            CohereConfig `yaml:"cohere"`
}

type GPT2Config struct {
	Model          string `yaml:"model"`
	MaxInputTokens int    `yaml:"maxInputTokens"`
}

// OpenAIConfig defines how to contact an OpenAI-compatible chat API.
type OpenAIConfig struct {
	BaseURL      string `yaml:"baseUrl"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

type CohereConfig struct {
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
	Preamble string `yaml:"preamble"`
}

type SEOConfig struct {
	Analyzer string `yaml:"analyzer"`
	Limit    int    `yaml:"limit"`
}

// OutreachConfig fills the proposal letter; an empty Template uses the built-in letter.
type OutreachConfig struct {
	Template     string `yaml:"template"`
	SenderName   string `yaml:"senderName"`
	Topic        string `yaml:"topic"`
	FallbackName string `yaml:"fallbackName"`
}

// MonetizationConfig lists opportunities inline or points at a YAML catalog file.
type MonetizationConfig struct {
	Catalog     []string `yaml:"catalog"`
	CatalogFile string   `yaml:"catalogFile"`
	Template    string   `yaml:"template"`
}

// MLConfig describes the remote inference service.
type MLConfig struct {
	InferenceURL string        `yaml:"inferenceUrl"`
	APIKey       string        `yaml:"apiKey"`
	Timeout      time.Duration `yaml:"timeout"`
}

type CacheConfig struct {
	RedisAddr string        `yaml:"redisAddr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	TTL       time.Duration `yaml:"ttl"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	DSN     string `yaml:"dsn"`
	Migrate bool   `yaml:"migrate"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type S3Config struct {
	Bucket       string `yaml:"bucket"`
	Region       string `yaml:"region"`
	Prefix       string `yaml:"prefix"`
	Endpoint     string `yaml:"endpoint"`
	UsePathStyle bool   `yaml:"usePathStyle"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// SchedulerConfig defines when and which sites are processed unattended.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	Sites          []string       `yaml:"sites"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads YAML configuration (if present) over the defaults and applies
// environment overrides. An empty path falls back to CONTENT_PIPELINE_CONFIG.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if err := decode(raw, &cfg); err != nil {
			log.Printf("config: %v (falling back to defaults)", err)
			cfg = defaultConfig()
		}
	}

	cfg.applyEnvOverrides()
	cfg.normalize()
	cfg.bindTimezone()

	return cfg
}

// decode overlays YAML onto cfg; keys absent from raw keep their current values.
func decode(raw []byte, cfg *Config) error {
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.Generation.OpenAI.APIKey = v
	}
	if v := os.Getenv(cohereAPIKeyEnv); v != "" {
		c.Generation.Cohere.APIKey = v
	}
	if v := os.Getenv(mlAPIKeyEnv); v != "" {
		c.ML.APIKey = v
	}
	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv(kafkaBrokersEnv); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv(s3BucketEnv); v != "" {
		c.S3.Bucket = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
	if v := os.Getenv(generationBackendEnv); v != "" {
		c.Generation.Backend = v
	}
}

func (c *Config) normalize() {
	def := defaultConfig()
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = def.Pipeline.Workers
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = def.Generation.MaxTokens
	}
	if c.Fetcher.Timeout <= 0 {
		c.Fetcher.Timeout = def.Fetcher.Timeout
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Pipeline: PipelineConfig{Workers: 4},
		Fetcher: FetcherConfig{
			Strategy:  "html",
			UserAgent: "ContentPipeline/1.0",
			Timeout:   30 * time.Second,
		},
		Sentiment: AnalysisConfig{Backend: "vader"},
		Topics:    AnalysisConfig{Backend: "prose"},
		Generation: GenerationConfig{
			Backend:           "gpt2-small",
			MaxTokens:         500,
			RequestsPerMinute: 60,
			GPT2:              GPT2Config{Model: "gpt2", MaxInputTokens: 1024},
			OpenAI: OpenAIConfig{
				BaseURL:      "https://api.openai.com/v1",
				Model:        "gpt-4o-mini",
				SystemPrompt: "You rewrite news articles into short original pieces for a content site.",
			},
			Cohere: CohereConfig{Model: "command-r"},
		},
		SEO: SEOConfig{Analyzer: "none", Limit: 10},
		Outreach: OutreachConfig{
			SenderName:   "Content Partnerships Team",
			Topic:        "news",
			FallbackName: "Editor",
		},
		ML:        MLConfig{InferenceURL: "http://localhost:8080", Timeout: 60 * time.Second},
		Cache:     CacheConfig{TTL: 24 * time.Hour},
		Kafka:     KafkaConfig{Topic: "content-pipeline.results"},
		S3:        S3Config{Region: "us-east-1", Prefix: "content-pipeline/"},
		Scheduler: SchedulerConfig{CronExpression: "0 6 * * *", Timezone: defaultTimezone, location: tz},
		HTTP:      HTTPConfig{Addr: ":8080"},
	}
}
