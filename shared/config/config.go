package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendOllama = "ollama"
	BackendGemini = "gemini"

	MetadataModeFull  = "full"
	MetadataModeBasic = "basic"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	LLM      LLMConfig      `yaml:"llm"`
	YouTube  YouTubeConfig  `yaml:"youtube"`
	Metadata MetadataConfig `yaml:"metadata"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Storage  StorageConfig  `yaml:"storage"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port int `yaml:"port" env:"PORT"`
	// RateLimitPerMinute limits POST /process per client. Unset means 30,
	// a negative value turns the limit off.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

type LLMConfig struct {
	Backend        string `yaml:"backend" env:"LLM_BACKEND"`
	OllamaURL      string `yaml:"ollama_url" env:"OLLAMA_URL"`
	GeminiAPIKey   string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model          string `yaml:"model" env:"DEFAULT_MODEL"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type YouTubeConfig struct {
	APIKey       string   `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	ClientID     string   `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret string   `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	TokenFile    string   `yaml:"token_file"`
	Languages    []string `yaml:"languages"`
}

// HasOAuth reports whether OAuth client credentials are configured.
func (y YouTubeConfig) HasOAuth() bool {
	return y.ClientID != "" && y.ClientSecret != ""
}

type MetadataConfig struct {
	Mode string `yaml:"mode"`
}

type PipelineConfig struct {
	DefaultStyle    string `yaml:"default_style"`
	DefaultLanguage string `yaml:"default_language"`
	// MaxPromptChars caps the transcript text placed in the summary prompt.
	// Zero means no cap.
	MaxPromptChars int `yaml:"max_prompt_chars"`
}

type StorageConfig struct {
	OutputDir     string `yaml:"output_dir"`
	RetentionDays int    `yaml:"retention_days"`
}

// ScheduleConfig holds cron specs with seconds. ScheduleOff disables a job.
type ScheduleConfig struct {
	Probe string `yaml:"probe"`
	Prune string `yaml:"prune"`
}

const ScheduleOff = "off"

type LoggingConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

// Load reads .env, then the YAML file named by CONFIG_FILE (config.yaml by
// default), applies environment overrides and defaults, and validates.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}
	return LoadFile(configFile)
}

// LoadFile is Load without the .env step. A missing file is not an error.
func LoadFile(configFile string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.LLM.Backend, "LLM_BACKEND")
	setString(&c.LLM.OllamaURL, "OLLAMA_URL")
	setString(&c.LLM.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.LLM.Model, "DEFAULT_MODEL")
	setString(&c.YouTube.APIKey, "YOUTUBE_API_KEY")
	setString(&c.YouTube.ClientID, "GOOGLE_CLIENT_ID")
	setString(&c.YouTube.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&c.Logging.Level, "LOG_LEVEL")

	if c.Server.Port == 0 {
		if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
			c.Server.Port = port
		}
	}
}

// setString fills an unset value from the environment. File values win.
func setString(dst *string, key string) {
	if *dst == "" {
		*dst = os.Getenv(key)
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	switch {
	case c.Server.RateLimitPerMinute == 0:
		c.Server.RateLimitPerMinute = 30
	case c.Server.RateLimitPerMinute < 0:
		c.Server.RateLimitPerMinute = 0
	}

	c.LLM.Backend = strings.ToLower(strings.TrimSpace(c.LLM.Backend))
	if c.LLM.Backend == "" {
		c.LLM.Backend = BackendOllama
	}
	if c.LLM.OllamaURL == "" {
		c.LLM.OllamaURL = "http://localhost:11434"
	}
	c.LLM.OllamaURL = strings.TrimRight(c.LLM.OllamaURL, "/")
	if c.LLM.Model == "" {
		if c.LLM.Backend == BackendGemini {
			c.LLM.Model = "gemini-2.5-flash"
		} else {
			c.LLM.Model = "mistral:7b-instruct-q4_K_M"
		}
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 300
	}

	if c.YouTube.TokenFile == "" {
		c.YouTube.TokenFile = "youtube_token.json"
	}
	if len(c.YouTube.Languages) == 0 {
		c.YouTube.Languages = []string{"en"}
	}

	c.Metadata.Mode = strings.ToLower(strings.TrimSpace(c.Metadata.Mode))
	if c.Metadata.Mode == "" {
		c.Metadata.Mode = MetadataModeFull
	}

	if c.Pipeline.DefaultStyle == "" {
		c.Pipeline.DefaultStyle = "educational"
	}
	if c.Pipeline.DefaultLanguage == "" {
		c.Pipeline.DefaultLanguage = "es"
	}

	if c.Storage.OutputDir == "" {
		c.Storage.OutputDir = "outputs"
	}
	if c.Storage.RetentionDays == 0 {
		c.Storage.RetentionDays = 30
	}

	c.Schedule.Probe = scheduleOrDefault(c.Schedule.Probe, "0 */5 * * * *") // every 5 minutes
	c.Schedule.Prune = scheduleOrDefault(c.Schedule.Prune, "0 0 3 * * *")   // daily at 3 AM
}

// scheduleOrDefault maps ScheduleOff to the empty spec the scheduler skips.
func scheduleOrDefault(spec, def string) string {
	spec = strings.TrimSpace(spec)
	switch {
	case spec == "":
		return def
	case strings.EqualFold(spec, ScheduleOff):
		return ""
	}
	return spec
}

func (c *Config) validate() error {
	switch c.LLM.Backend {
	case BackendOllama:
	case BackendGemini:
		if c.LLM.GeminiAPIKey == "" {
			return fmt.Errorf("Gemini API key is required for the gemini backend (set GEMINI_API_KEY or llm.gemini_api_key)")
		}
	default:
		return fmt.Errorf("unknown llm backend %q (expected %q or %q)", c.LLM.Backend, BackendOllama, BackendGemini)
	}

	switch c.Metadata.Mode {
	case MetadataModeFull, MetadataModeBasic:
	default:
		return fmt.Errorf("unknown metadata mode %q (expected %q or %q)", c.Metadata.Mode, MetadataModeFull, MetadataModeBasic)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Pipeline.MaxPromptChars < 0 {
		return fmt.Errorf("pipeline.max_prompt_chars cannot be negative")
	}
	if c.Storage.RetentionDays < 0 {
		return fmt.Errorf("storage.retention_days cannot be negative")
	}
	return nil
}
