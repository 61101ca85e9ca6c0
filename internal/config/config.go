// Package config loads runtime settings from an optional .env file and
// ZUVY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/zuvy/assess/internal/llm"
	"github.com/zuvy/assess/internal/store"
)

// AppName names the log file.
const AppName = "zuvy"

type Config struct {
	APIURL    string `validate:"required,url"`
	LLMAPIURL string `validate:"required,url"`
	DBPath    string
	Timeout   time.Duration `validate:"gt=0"`

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`
	LogFile   string

	SpeechEngine string
	SpeechVoice  string
	ReportDir    string

	ServeAddr    string `validate:"required,hostname_port"`
	JWTSecret    string `validate:"required,min=16"`
	RedisURL     string `validate:"omitempty,url"`
	KafkaBrokers []string
	KafkaTopic   string `validate:"required"`

	LLM llm.Config `validate:"-"`
}

// Default returns a Config pointing at a local development server.
func Default() Config {
	return Config{
		APIURL:       "http://localhost:8080",
		LLMAPIURL:    "http://localhost:8080",
		Timeout:      30 * time.Second,
		LogLevel:     "info",
		LogFormat:    "text",
		SpeechEngine: "auto",
		ReportDir:    defaultReportDir(),
		ServeAddr:    "localhost:8080",
		JWTSecret:    "zuvy-development-secret",
		KafkaTopic:   "assessment.submitted",
		LLM:          llm.DefaultConfig(),
	}
}

// Load reads envFile (or ./.env when empty and present) and then the
// environment. Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	cfg.APIURL = getEnv("ZUVY_API_URL", cfg.APIURL)
	cfg.LLMAPIURL = getEnv("ZUVY_LLM_API_URL", cfg.APIURL)
	cfg.DBPath = os.Getenv("ZUVY_DB")
	cfg.LogLevel = strings.ToLower(getEnv("ZUVY_LOG_LEVEL", cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(getEnv("ZUVY_LOG_FORMAT", cfg.LogFormat))
	cfg.LogFile = os.Getenv("ZUVY_LOG_FILE")
	cfg.SpeechEngine = getEnv("ZUVY_SPEECH_ENGINE", cfg.SpeechEngine)
	cfg.SpeechVoice = os.Getenv("ZUVY_SPEECH_VOICE")
	cfg.ReportDir = getEnv("ZUVY_REPORT_DIR", cfg.ReportDir)
	cfg.ServeAddr = getEnv("ZUVY_SERVE_ADDR", cfg.ServeAddr)
	cfg.JWTSecret = getEnv("ZUVY_JWT_SECRET", cfg.JWTSecret)
	cfg.RedisURL = os.Getenv("ZUVY_REDIS_URL")
	cfg.KafkaTopic = getEnv("ZUVY_KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.KafkaBrokers = splitList(os.Getenv("ZUVY_KAFKA_BROKERS"))

	if v := os.Getenv("ZUVY_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("ZUVY_HTTP_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}

	if os.Getenv("ZUVY_LLM_PROVIDER") != "" {
		cfg.LLM = llm.ConfigFromEnv()
	} else if discovered, ok := llm.DiscoverConfig(); ok {
		cfg.LLM = discovered
	} else {
		cfg.LLM.Provider = ""
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var structValidator = validator.New()

// Validate checks field formats.
func (c *Config) Validate() error {
	err := structValidator.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// LLMEnabled reports whether an LLM provider is configured.
func (c *Config) LLMEnabled() bool {
	return c.LLM.Provider != ""
}

// LogPath returns the configured log file or zuvy.log in the data directory.
func (c *Config) LogPath() (string, error) {
	if c.LogFile != "" {
		return c.LogFile, nil
	}
	dir, err := store.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName+".log"), nil
}

func defaultReportDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	downloads := filepath.Join(home, "Downloads")
	if info, err := os.Stat(downloads); err == nil && info.IsDir() {
		return downloads
	}
	return "."
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
