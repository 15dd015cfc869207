package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BackendConfig holds settings for the triage backend service.
type BackendConfig struct {
	// BaseURL is the root URL of the backend API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds every backend request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// HealthIntervalSec is how often the keep-alive ping runs.
	HealthIntervalSec int `mapstructure:"health_interval_sec" yaml:"health_interval_sec"`

	// ProcessDaysBack and ProcessMaxResults shape POST /emails/process.
	ProcessDaysBack   int `mapstructure:"process_days_back" yaml:"process_days_back"`
	ProcessMaxResults int `mapstructure:"process_max_results" yaml:"process_max_results"`

	// InboxMaxResults shapes POST /emails/inbox.
	InboxMaxResults int `mapstructure:"inbox_max_results" yaml:"inbox_max_results"`
}

// GoogleConfig holds the OAuth client used for device-code sign in.
// The client secret lives in the keyring, never in this file.
type GoogleConfig struct {
	ClientID string `mapstructure:"client_id" yaml:"client_id"`
}

// StorageConfig controls where local state is persisted.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// LogConfig controls the log file sink.
type LogConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Level string `mapstructure:"level" yaml:"level"`
}

// IMAPConfig configures optional direct mailbox ingestion. The password
// is read from the keyring under "imap-<username>".
type IMAPConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`
	Mailbox  string `mapstructure:"mailbox" yaml:"mailbox"`
	Limit    int    `mapstructure:"limit" yaml:"limit"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`
	Google  GoogleConfig  `mapstructure:"google" yaml:"google"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	IMAP    IMAPConfig    `mapstructure:"imap" yaml:"imap"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// Environment overrides, named after the variables the web client used.
const (
	EnvAPIURL         = "MAILSORT_API_URL"
	EnvGoogleClientID = "MAILSORT_GOOGLE_CLIENT_ID"
)

const (
	DefaultBaseURL           = "http://localhost:8000"
	DefaultTimeoutSec        = 30
	DefaultHealthIntervalSec = 15 * 60
	DefaultProcessDaysBack   = 30
	DefaultProcessMaxResults = 10
	DefaultInboxMaxResults   = 100
)

// configDir returns ~/.config/mailsort, falling back to the working
// directory when the home directory is unknown.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "mailsort")
}

// stateDir returns ~/.local/state/mailsort.
func stateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "state", "mailsort")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mailsort/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Backend: BackendConfig{
			BaseURL:           DefaultBaseURL,
			TimeoutSec:        DefaultTimeoutSec,
			HealthIntervalSec: DefaultHealthIntervalSec,
			ProcessDaysBack:   DefaultProcessDaysBack,
			ProcessMaxResults: DefaultProcessMaxResults,
			InboxMaxResults:   DefaultInboxMaxResults,
		},
		Storage: StorageConfig{
			DBPath: filepath.Join(stateDir(), "mailsort.db"),
		},
		Log: LogConfig{
			Path:  filepath.Join(stateDir(), "mailsort.log"),
			Level: "info",
		},
		IMAP: IMAPConfig{
			Port:    "993",
			TLS:     true,
			Mailbox: "INBOX",
			Limit:   50,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A .env file in the working directory is loaded first so that
// MAILSORT_* variables can override file values. If the config file does
// not exist, defaults are used.
func LoadConfig(path string) (*AppConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	def := defaultAppConfig()
	v.SetDefault("backend.base_url", def.Backend.BaseURL)
	v.SetDefault("backend.timeout_sec", def.Backend.TimeoutSec)
	v.SetDefault("backend.health_interval_sec", def.Backend.HealthIntervalSec)
	v.SetDefault("backend.process_days_back", def.Backend.ProcessDaysBack)
	v.SetDefault("backend.process_max_results", def.Backend.ProcessMaxResults)
	v.SetDefault("backend.inbox_max_results", def.Backend.InboxMaxResults)
	v.SetDefault("storage.db_path", def.Storage.DBPath)
	v.SetDefault("log.path", def.Log.Path)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("imap.port", def.IMAP.Port)
	v.SetDefault("imap.tls", def.IMAP.TLS)
	v.SetDefault("imap.mailbox", def.IMAP.Mailbox)
	v.SetDefault("imap.limit", def.IMAP.Limit)
	v.SetDefault("display.theme", def.Display.Theme)

	_ = v.BindEnv("backend.base_url", EnvAPIURL)
	_ = v.BindEnv("google.client_id", EnvGoogleClientID)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Backend.TimeoutSec <= 0 {
		cfg.Backend.TimeoutSec = DefaultTimeoutSec
	}
	if cfg.Backend.HealthIntervalSec <= 0 {
		cfg.Backend.HealthIntervalSec = DefaultHealthIntervalSec
	}

	return cfg, nil
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

	v.Set("backend", cfg.Backend)
	v.Set("google", cfg.Google)
	v.Set("storage", cfg.Storage)
	v.Set("log", cfg.Log)
	v.Set("imap", cfg.IMAP)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
