package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fueltank/fueltank/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	path := config.ConfigPath()
	if flagConfig != "" {
		path = flagConfig
	}
	fmt.Printf("  Config file: %s\n", path)
	if config.Exists() || flagConfig != "" {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Currency:  %s\n", cfg.General.Currency)
	fmt.Printf("    Log level: %s\n", cfg.General.LogLevel)
	fmt.Println()

	fmt.Println("  [Storage]")
	fmt.Printf("    Backend: %s\n", cfg.Storage.Backend)
	switch cfg.Storage.Backend {
	case "redis":
		fmt.Printf("    Address: %s (db %d, prefix %q)\n", cfg.Storage.RedisAddr, cfg.Storage.RedisDB, cfg.Storage.RedisPrefix)
		if config.GetRedisPassword(cfg) != "" {
			fmt.Println("    Password: set")
		}
	case "memory":
	default:
		fmt.Printf("    Database: %s\n", config.DatabasePath(cfg))
	}
	fmt.Println()

	fmt.Println("  [SMTP]")
	if cfg.SMTP.Enabled {
		fmt.Printf("    Server:   %s:%d\n", cfg.SMTP.Host, cfg.SMTP.Port)
		fmt.Printf("    To:       %s\n", cfg.SMTP.To)
		if pw := config.GetSMTPPassword(cfg); pw != "" {
			fmt.Printf("    Password: %s\n", maskSecret(pw))
		} else {
			fmt.Printf("    Password: not set (%s)\n", config.EnvSMTPPassword)
		}
	} else {
		fmt.Println("    Email alerts: off")
	}
	fmt.Println()

	fmt.Println("  [Suggestions]")
	if cfg.Suggestions.GeneratorURL != "" {
		fmt.Printf("    Generator: %s (timeout %s)\n", cfg.Suggestions.GeneratorURL, cfg.Suggestions.Timeout())
		if key := config.GetGeneratorKey(cfg); key != "" {
			fmt.Printf("    API key:   %s\n", maskSecret(key))
		}
	} else {
		fmt.Println("    Generator: built-in rules only")
	}
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:        %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Daily reminder: %s\n", cfg.Daemon.ReminderCron)
	fmt.Printf("    Bill check:     %s\n", cfg.Daemon.BillCheckCron)
	fmt.Printf("    Suggestions:    %s\n", cfg.Daemon.SuggestCron)
	fmt.Println()

	fmt.Println("  [Inbox]")
	if cfg.Inbox.Dir != "" {
		fmt.Printf("    Directory: %s\n", cfg.Inbox.Dir)
		fmt.Printf("    Schedule:  %s\n", cfg.Inbox.Cron)
	} else {
		fmt.Println("    Directory: not set")
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `fueltank setup` to reconfigure.")
	return nil
}

func maskSecret(key string) string {
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}
