// Package config loads and saves the fueltank TOML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/fueltank/fueltank/internal/model"
)

// Environment overrides for secrets.
const (
	EnvSMTPPassword  = "FUELTANK_SMTP_PASSWORD"
	EnvGeneratorKey  = "FUELTANK_GENERATOR_KEY"
	EnvRedisPassword = "FUELTANK_REDIS_PASSWORD"
)

// Config holds all fueltank configuration.
type Config struct {
	General       GeneralConfig              `toml:"general"`
	Storage       StorageConfig              `toml:"storage"`
	Notifications model.NotificationSettings `toml:"notifications"`
	SMTP          SMTPConfig                 `toml:"smtp"`
	Suggestions   SuggestionsConfig          `toml:"suggestions"`
	Daemon        DaemonConfig               `toml:"daemon"`
	Inbox         InboxConfig                `toml:"inbox"`
	Appearance    AppearanceConfig           `toml:"appearance"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	Currency string `toml:"currency"`
	LogLevel string `toml:"log_level"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend       string `toml:"backend"`
	Path          string `toml:"path,omitempty"`
	RedisAddr     string `toml:"redis_addr,omitempty"`
	RedisPrefix   string `toml:"redis_prefix,omitempty"`
	RedisDB       int    `toml:"redis_db,omitempty"`
	RedisPassword string `toml:"redis_password,omitempty"`
}

// SMTPConfig holds email delivery settings. Email is off unless Enabled.
type SMTPConfig struct {
	Enabled            bool   `toml:"enabled"`
	Host               string `toml:"host,omitempty"`
	Port               int    `toml:"port,omitempty"`
	Username           string `toml:"username,omitempty"`
	Password           string `toml:"password,omitempty"`
	From               string `toml:"from,omitempty"`
	To                 string `toml:"to,omitempty"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify,omitempty"`
}

// SuggestionsConfig holds the optional external suggestion generator.
type SuggestionsConfig struct {
	GeneratorURL   string `toml:"generator_url,omitempty"`
	APIKey         string `toml:"api_key,omitempty"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the generator timeout, falling back to 8s.
func (s SuggestionsConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 8 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// DaemonConfig holds settings for `fueltank daemon`.
type DaemonConfig struct {
	Addr          string `toml:"addr"`
	ReminderCron  string `toml:"reminder_cron"`
	BillCheckCron string `toml:"bill_check_cron"`
	SuggestCron   string `toml:"suggest_cron"`
}

// InboxConfig points at a directory of statement exports to import.
// An empty Dir disables the inbox.
type InboxConfig struct {
	Dir  string `toml:"dir,omitempty"`
	Cron string `toml:"cron"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Currency: "₹",
			LogLevel: "info",
		},
		Storage: StorageConfig{
			Backend: "sqlite",
		},
		Notifications: model.DefaultNotificationSettings(),
		SMTP: SMTPConfig{
			Port: 587,
		},
		Suggestions: SuggestionsConfig{
			TimeoutSeconds: 8,
		},
		Daemon: DaemonConfig{
			Addr:          "127.0.0.1:8765",
			ReminderCron:  "0 20 * * *",
			BillCheckCron: "0 */6 * * *",
			SuggestCron:   "0 */12 * * *",
		},
		Inbox: InboxConfig{
			Cron: "*/30 * * * *",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fueltank")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "fueltank")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "fueltank")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "fueltank")
}

// DatabasePath returns the sqlite file, honoring storage.path.
func DatabasePath(cfg Config) string {
	if cfg.Storage.Path != "" {
		return cfg.Storage.Path
	}
	return filepath.Join(DataDir(), "fueltank.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFile(ConfigPath())
}

// LoadFile reads the config at path, returning defaults if it doesn't exist.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// LoadEnv reads KEY=VALUE pairs from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored. With no arguments it tries ./.env and the config dir.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env", filepath.Join(ConfigDir(), ".env")}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// GetSMTPPassword returns the SMTP password from env var or config, in that order.
func GetSMTPPassword(cfg Config) string {
	if v := os.Getenv(EnvSMTPPassword); v != "" {
		return v
	}
	return cfg.SMTP.Password
}

// GetGeneratorKey returns the suggestion generator key from env var or config, in that order.
func GetGeneratorKey(cfg Config) string {
	if v := os.Getenv(EnvGeneratorKey); v != "" {
		return v
	}
	return cfg.Suggestions.APIKey
}

// GetRedisPassword returns the redis password from env var or config, in that order.
func GetRedisPassword(cfg Config) string {
	if v := os.Getenv(EnvRedisPassword); v != "" {
		return v
	}
	return cfg.Storage.RedisPassword
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
