// Package config loads service configuration from file and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Language LanguageConfig
	Sarvam   SarvamConfig
	Gemini   GeminiConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// LanguageConfig holds instruction-language settings.
type LanguageConfig struct {
	// Default is the fallback instruction language for sessions that have
	// no sticky language yet.
	Default string

	// ConfirmationKeywords overrides the built-in confirmation keyword set
	// when non-empty.
	ConfirmationKeywords []string `mapstructure:"confirmation_keywords"`
}

// SarvamConfig holds speech service settings.
type SarvamConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKeyEnv string `mapstructure:"api_key_env"`
	APIKey    string `mapstructure:"api_key"`
	Timeout   time.Duration
}

// GeminiConfig holds field-inference settings.
type GeminiConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKeyEnv string `mapstructure:"api_key_env"`
	APIKey    string `mapstructure:"api_key"`
	Model     string
	Timeout   time.Duration
	Warmup    bool
}

// Load reads configuration from file and env. Env var overrides use prefix SPEAK2FILL_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "speak2fill", "sessions.db"))
	v.SetDefault("language.default", "en")
	v.SetDefault("language.confirmation_keywords", []string{})
	v.SetDefault("sarvam.base_url", "https://api.sarvam.ai")
	v.SetDefault("sarvam.api_key_env", "SARVAM_API_KEY")
	v.SetDefault("sarvam.api_key", "")
	v.SetDefault("sarvam.timeout", 15*time.Second)
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("gemini.api_key_env", "GEMINI_API_KEY")
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash-lite")
	v.SetDefault("gemini.timeout", 30*time.Second)
	v.SetDefault("gemini.warmup", true)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("SPEAK2FILL_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "speak2fill"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("SPEAK2FILL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// ResolveAPIKey returns the literal key if set, otherwise the value of the
// named environment variable. An empty result disables the client.
func ResolveAPIKey(key, keyEnv string) string {
	if key != "" {
		return key
	}
	if keyEnv == "" {
		return ""
	}
	return os.Getenv(keyEnv)
}
