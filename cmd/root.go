// Package cmd implements the fueltank CLI commands.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fueltank/fueltank/internal/cli"
	"github.com/fueltank/fueltank/internal/config"
	"github.com/fueltank/fueltank/internal/engine"
	"github.com/fueltank/fueltank/internal/model"
	"github.com/fueltank/fueltank/internal/notify"
	"github.com/fueltank/fueltank/internal/store"
	"github.com/fueltank/fueltank/internal/suggest"
	"github.com/fueltank/fueltank/internal/tui/theme"
)

var (
	flagConfig   string
	flagJSON     bool
	flagLogLevel string
	flagBackend  string
	flagDBPath   string
)

var rootCmd = &cobra.Command{
	Use:   "fueltank",
	Short: "Salary runway tracker",
	Long:  "Track how many days your salary will last: expenses, recurring bills, alerts and tips.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return loadConfig()
	},
	RunE: runStatus,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "  error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print machine-readable JSON")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Storage backend override (sqlite, redis, memory)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "SQLite database path override")
}

var (
	cfg    config.Config
	logger = logrus.New()
)

// loadConfig reads .env files and the TOML config, then applies flag overrides.
func loadConfig() error {
	if err := config.LoadEnv(); err != nil {
		return err
	}

	var err error
	if flagConfig != "" {
		cfg, err = config.LoadFile(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if flagBackend != "" {
		cfg.Storage.Backend = flagBackend
	}
	if flagDBPath != "" {
		cfg.Storage.Path = flagDBPath
	}

	level := cfg.General.LogLevel
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.WarnLevel
	}
	logger.SetLevel(lvl)
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	if cfg.General.Currency != "" {
		cli.Currency = cfg.General.Currency
	}
	theme.SetActive(cfg.Appearance.Theme)
	return nil
}

// notifiers returns the delivery channels configured for this run.
func notifiers() notify.Fanout {
	out := notify.Fanout{notify.NewLogNotifier(logger)}
	if cfg.SMTP.Enabled {
		out = append(out, notify.NewEmailNotifier(notify.SMTPConfig{
			Host:               cfg.SMTP.Host,
			Port:               cfg.SMTP.Port,
			Username:           cfg.SMTP.Username,
			Password:           config.GetSMTPPassword(cfg),
			From:               cfg.SMTP.From,
			To:                 cfg.SMTP.To,
			InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
		}, logger))
	}
	return out
}

// openEngine opens the configured storage and returns a loaded engine along
// with the storage itself. Fields already set in opts are kept. The returned
// func closes both.
func openEngine(ctx context.Context, opts engine.Options) (*engine.Engine, store.Storage, func(), error) {
	backend := cfg.Storage.Backend
	path := ""
	if backend == "" || strings.EqualFold(backend, "sqlite") {
		path = config.DatabasePath(cfg)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, nil, nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	st, closer, err := store.Open(ctx, store.Options{
		Backend:     backend,
		Path:        path,
		RedisAddr:   cfg.Storage.RedisAddr,
		RedisPrefix: cfg.Storage.RedisPrefix,
		RedisDB:     cfg.Storage.RedisDB,
		RedisPass:   config.GetRedisPassword(cfg),
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open storage: %w", err)
	}

	opts.Storage = st
	if opts.Notifier == nil {
		opts.Notifier = notifiers()
	}
	if opts.Generator == nil {
		// A nil *HTTPGenerator must not become a non-nil interface.
		if g := suggest.NewHTTPGenerator(cfg.Suggestions.GeneratorURL, config.GetGeneratorKey(cfg), cfg.Suggestions.Timeout()); g != nil {
			opts.Generator = g
			opts.GenerateTimeout = cfg.Suggestions.Timeout()
		}
	}
	if opts.Settings == nil {
		settings := cfg.Notifications
		opts.Settings = &settings
	}
	if opts.Logger == nil {
		opts.Logger = logger
	}

	eng := engine.New(opts)
	if err := eng.Load(ctx); err != nil {
		_ = eng.Close()
		_ = closer.Close()
		return nil, nil, nil, fmt.Errorf("load state: %w", err)
	}

	closeAll := func() {
		_ = eng.Close()
		_ = closer.Close()
	}
	return eng, st, closeAll, nil
}

// withEngine runs fn against a freshly loaded engine and closes it afterwards,
// flushing any pending writes.
func withEngine(cmd *cobra.Command, fn func(*engine.Engine) error) error {
	eng, _, closeAll, err := openEngine(cmd.Context(), engine.Options{})
	if err != nil {
		return err
	}
	defer closeAll()
	return fn(eng)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseAmount accepts "1,250.50" style input with an optional currency symbol.
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), cli.Currency))
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	v, _ := d.Round(2).Float64()
	return v, nil
}

func parseCategory(s string) (model.Category, error) {
	if s == "" {
		return model.CategoryOther, nil
	}
	c := model.Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q (want one of %s)", s, joinValues(model.Categories))
	}
	return c, nil
}

func parseFrequency(s string) (model.Frequency, error) {
	f := model.Frequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("unknown frequency %q (want one of %s)", s, joinValues(model.Frequencies))
	}
	return f, nil
}

// parseDate reads a YYYY-MM-DD date in local time. Empty means now.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

func joinValues[T ~string](vals []T) string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strings.ToLower(string(v))
	}
	return strings.Join(out, ", ")
}

// resolveID matches arg against ids, either exactly or as a unique suffix
// (the short form printed by list commands).
func resolveID(ids []string, arg string) (string, error) {
	var match string
	for _, id := range ids {
		if id == arg {
			return id, nil
		}
		if strings.HasSuffix(id, arg) {
			if match != "" {
				return "", fmt.Errorf("id %q is ambiguous", arg)
			}
			match = id
		}
	}
	if match == "" {
		return "", fmt.Errorf("no record with id %q", arg)
	}
	return match, nil
}
