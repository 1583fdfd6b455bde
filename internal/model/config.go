package model

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Service modes select which email service implementation the chat uses.
const (
	ServiceModeRemote = "remote"
	ServiceModeLocal  = "local"
)

// Status policies control which placeholders a settling action removes.
const (
	StatusPolicyAll = "all"
	StatusPolicyOwn = "own"
)

// ServiceConfig selects and locates the email service.
type ServiceConfig struct {
	// Mode is "remote" (REST backend at BaseURL) or "local" (in-process
	// IMAP/SMTP backend).
	Mode string `mapstructure:"mode" yaml:"mode"`

	// BaseURL is the root URL of the REST backend in remote mode.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds each REST call in remote mode. Zero keeps the
	// client default of 60 seconds.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// ChatConfig holds settings for the conversation orchestrator.
type ChatConfig struct {
	StatusPolicy      string `mapstructure:"status_policy" yaml:"status_policy"`
	Instructions      string `mapstructure:"instructions" yaml:"instructions"`
	RequestTimeoutSec int    `mapstructure:"request_timeout_sec" yaml:"request_timeout_sec"`
}

// MailboxConfig holds the IMAP/SMTP settings used by the local backend.
// The password lives in the keyring, never in this file.
type MailboxConfig struct {
	IMAPHost    string `mapstructure:"imap_host" yaml:"imap_host"`
	IMAPPort    string `mapstructure:"imap_port" yaml:"imap_port"`
	SMTPHost    string `mapstructure:"smtp_host" yaml:"smtp_host"`
	SMTPPort    string `mapstructure:"smtp_port" yaml:"smtp_port"`
	Username    string `mapstructure:"username" yaml:"username"`
	TLS         bool   `mapstructure:"tls" yaml:"tls"`
	RecentLimit int    `mapstructure:"recent_limit" yaml:"recent_limit"`
	TrashFolder string `mapstructure:"trash_folder" yaml:"trash_folder"`
	CachePath   string `mapstructure:"cache_path" yaml:"cache_path"`
}

// AIConfig holds settings for the summarization and drafting engine.
type AIConfig struct {
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
}

// ServerConfig holds settings for the REST backend served by "serve".
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Service ServiceConfig `mapstructure:"service" yaml:"service"`
	Chat    ChatConfig    `mapstructure:"chat" yaml:"chat"`
	Mailbox MailboxConfig `mapstructure:"mailbox" yaml:"mailbox"`
	AI      AIConfig      `mapstructure:"ai" yaml:"ai"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// ConfigDir returns ~/.config/mailchat, or the working directory when the
// home directory cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "mailchat")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mailchat/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

var defaults = map[string]any{
	"service.mode":             ServiceModeRemote,
	"service.base_url":         "http://localhost:8001",
	"service.timeout_sec":      0,
	"chat.status_policy":       StatusPolicyAll,
	"chat.instructions":        "positive professional",
	"chat.request_timeout_sec": 0,
	"mailbox.imap_host":        "",
	"mailbox.imap_port":        "993",
	"mailbox.smtp_host":        "",
	"mailbox.smtp_port":        "465",
	"mailbox.username":         "",
	"mailbox.tls":              true,
	"mailbox.recent_limit":     5,
	"mailbox.trash_folder":     "",
	"mailbox.cache_path":       "",
	"ai.model":                 "claude-sonnet-4-5-20250929",
	"ai.max_tokens":            1024,
	"ai.base_url":              "https://api.anthropic.com",
	"server.addr":              ":8001",
	"log.level":                "info",
	"log.file":                 "",
	"display.theme":            "default",
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Service: ServiceConfig{
			Mode:    ServiceModeRemote,
			BaseURL: "http://localhost:8001",
		},
		Chat: ChatConfig{
			StatusPolicy: StatusPolicyAll,
			Instructions: "positive professional",
		},
		Mailbox: MailboxConfig{
			IMAPPort:    "993",
			SMTPPort:    "465",
			TLS:         true,
			RecentLimit: 5,
		},
		AI: AIConfig{
			Model:     "claude-sonnet-4-5-20250929",
			MaxTokens: 1024,
			BaseURL:   "https://api.anthropic.com",
		},
		Server:  ServerConfig{Addr: ":8001"},
		Log:     LogConfig{Level: "info"},
		Display: DisplayConfig{Theme: "default"},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A missing file is not an error: defaults apply. MAILCHAT_* environment
// variables override file values (MAILCHAT_SERVICE_BASE_URL for
// service.base_url).
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MAILCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks enumerated settings.
func (c *AppConfig) Validate() error {
	switch c.Service.Mode {
	case ServiceModeRemote, ServiceModeLocal:
	default:
		return fmt.Errorf("service.mode must be %q or %q, got %q",
			ServiceModeRemote, ServiceModeLocal, c.Service.Mode)
	}

	switch c.Chat.StatusPolicy {
	case StatusPolicyAll, StatusPolicyOwn:
	default:
		return fmt.Errorf("chat.status_policy must be %q or %q, got %q",
			StatusPolicyAll, StatusPolicyOwn, c.Chat.StatusPolicy)
	}

	if c.Mailbox.RecentLimit < 1 {
		return fmt.Errorf("mailbox.recent_limit must be positive, got %d", c.Mailbox.RecentLimit)
	}

	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("service", cfg.Service)
	v.Set("chat", cfg.Chat)
	v.Set("mailbox", cfg.Mailbox)
	v.Set("ai", cfg.AI)
	v.Set("server", cfg.Server)
	v.Set("log", cfg.Log)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
