// Package config loads analyser configuration.
//
// Values are resolved from (highest to lowest priority):
//  1. Environment variables (ANALYSER_*)
//  2. The YAML config file (--config, default ~/.analyser/config.yaml)
//  3. Defaults
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/analyser/internal/llm"
	"github.com/HendryAvila/analyser/internal/store"
)

// Config holds all analyser configuration.
type Config struct {
	// DataDir holds the SQLite database.
	DataDir string `yaml:"data_dir"`

	// User is the identity the MCP server acts as.
	User string `yaml:"user"`

	// MaxSearchResults caps evidence search results.
	MaxSearchResults int `yaml:"max_search_results"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	LLM  LLMConfig  `yaml:"llm"`
	HTTP HTTPConfig `yaml:"http"`
}

// LLMConfig locates the completion service.
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// HTTPConfig configures the HTTP API.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
	// Tokens maps bearer tokens to user IDs.
	Tokens map[string]string `yaml:"tokens"`
}

// Defaults.
const (
	DefaultUser     = "local"
	DefaultModel    = "gpt-4o-mini"
	DefaultHTTPAddr = "127.0.0.1:8787"
	defaultLogLevel = "info"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DataDir:          defaultDataDir(),
		User:             DefaultUser,
		MaxSearchResults: 20,
		LogLevel:         defaultLogLevel,
		LLM:              LLMConfig{Model: DefaultModel},
		HTTP:             HTTPConfig{Addr: DefaultHTTPAddr, Tokens: map[string]string{}},
	}
}

// Load resolves configuration. An empty path reads the default config
// file if it exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		fileCfg, err := loadFromPath(path)
		switch {
		case err == nil:
			merge(cfg, fileCfg)
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// DefaultPath returns ~/.analyser/config.yaml, or "" when the home
// directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".analyser", "config.yaml")
}

// UserForToken returns the user ID a bearer token authenticates as.
func (c *Config) UserForToken(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	user, ok := c.HTTP.Tokens[token]
	return user, ok && user != ""
}

// Store returns the store configuration.
func (c *Config) Store() store.Config {
	return store.Config{DataDir: c.DataDir, MaxSearchResults: c.MaxSearchResults}
}

// Completion returns the completion service configuration.
func (c *Config) Completion() llm.Config {
	return llm.Config{APIKey: c.LLM.APIKey, BaseURL: c.LLM.BaseURL, Model: c.LLM.Model}
}

// Level returns the slog level for LogLevel, defaulting to info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".analyser"
	}
	return filepath.Join(home, ".analyser")
}

func loadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config) {
	mergeStr(&cfg.LLM.APIKey, os.Getenv("ANALYSER_API_KEY"))
	mergeStr(&cfg.LLM.BaseURL, os.Getenv("ANALYSER_BASE_URL"))
	mergeStr(&cfg.LLM.Model, os.Getenv("ANALYSER_MODEL"))
	mergeStr(&cfg.DataDir, os.Getenv("ANALYSER_DATA_DIR"))
	mergeStr(&cfg.HTTP.Addr, os.Getenv("ANALYSER_HTTP_ADDR"))
	mergeStr(&cfg.User, os.Getenv("ANALYSER_USER"))
	mergeStr(&cfg.LogLevel, os.Getenv("ANALYSER_LOG_LEVEL"))
	if v := os.Getenv("ANALYSER_MAX_SEARCH_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			mergeInt(&cfg.MaxSearchResults, n)
		}
	}
}

// mergeStr overwrites dst with src when src is non-empty.
func mergeStr(dst *string, src string) {
	if src = strings.TrimSpace(src); src != "" {
		*dst = src
	}
}

// mergeInt overwrites dst with src when src is positive.
func mergeInt(dst *int, src int) {
	if src > 0 {
		*dst = src
	}
}

// merge copies set fields of src over dst.
func merge(dst, src *Config) {
	mergeStr(&dst.DataDir, src.DataDir)
	mergeStr(&dst.User, src.User)
	mergeInt(&dst.MaxSearchResults, src.MaxSearchResults)
	mergeStr(&dst.LogLevel, src.LogLevel)
	mergeStr(&dst.LLM.APIKey, src.LLM.APIKey)
	mergeStr(&dst.LLM.BaseURL, src.LLM.BaseURL)
	mergeStr(&dst.LLM.Model, src.LLM.Model)
	mergeStr(&dst.HTTP.Addr, src.HTTP.Addr)
	for token, user := range src.HTTP.Tokens {
		dst.HTTP.Tokens[token] = user
	}
}
