package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fueltank/fueltank/internal/config"
	"github.com/fueltank/fueltank/internal/daemon"
	"github.com/fueltank/fueltank/internal/engine"
	"github.com/fueltank/fueltank/internal/inbox"
	"github.com/fueltank/fueltank/internal/notify"
)

var (
	flagDaemonAddr      string
	flagDaemonDetach    bool
	flagDaemonStateFile string
	flagDaemonLogFile   string
	flagDaemonBuffer    int
	flagDaemonChild     bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the background service with an HTTP/SSE API and scheduled reminders",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the daemon is up and what its jobs are doing",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Ask the running daemon to shut down",
	RunE:  runDaemonStop,
}

func init() {
	pf := daemonCmd.PersistentFlags()
	pf.StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	pf.StringVar(&flagDaemonStateFile, "state-file", filepath.Join(config.DataDir(), "fueltankd.json"), "Daemon state file")
	pf.StringVar(&flagDaemonLogFile, "log-file", filepath.Join(config.DataDir(), "fueltankd.log"), "Log file when detached")
	pf.IntVar(&flagDaemonBuffer, "events-buffer", 200, "Stream events kept in memory")

	daemonCmd.Flags().BoolVarP(&flagDaemonDetach, "detach", "d", false, "Start in the background and return")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd, daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

func daemonAddr() string {
	if flagDaemonAddr != "" {
		return flagDaemonAddr
	}
	return cfg.Daemon.Addr
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	files := daemonFiles{state: flagDaemonStateFile, log: flagDaemonLogFile}
	if rec, running := files.running(); running {
		return fmt.Errorf("daemon already running (pid %d, %s)", rec.PID, rec.Addr)
	}

	if flagDaemonDetach {
		pid, err := files.spawn(childArgs(cmd))
		if err != nil {
			return err
		}
		fmt.Printf("  fueltank daemon started in the background (pid %d)\n", pid)
		fmt.Printf("  Status:  http://%s/v1/status\n", daemonAddr())
		fmt.Printf("  Log:     %s\n", files.log)
		return nil
	}
	return serveDaemon(files)
}

func serveDaemon(files daemonFiles) error {
	addr := daemonAddr()
	if err := files.claim(addr, cfg.Storage.Backend); err != nil {
		return err
	}
	defer files.release()

	// Detached output lands in a log file meant for machine reading.
	if flagDaemonChild {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if logger.GetLevel() < logrus.InfoLevel {
		logger.SetLevel(logrus.InfoLevel)
	}

	ctx, stop := shutdownContext()
	defer stop()

	hub := daemon.NewHub(flagDaemonBuffer)
	eng, st, closeAll, err := openEngine(ctx, engine.Options{
		Notifier: append(notify.Fanout{hub}, notifiers()...),
		OnChange: hub.PublishMetrics,
	})
	if err != nil {
		return err
	}
	defer closeAll()

	dcfg := daemon.Config{
		Addr:          addr,
		EventsBuffer:  flagDaemonBuffer,
		ReminderCron:  cfg.Daemon.ReminderCron,
		BillCheckCron: cfg.Daemon.BillCheckCron,
		SuggestCron:   cfg.Daemon.SuggestCron,
	}
	if cfg.Inbox.Dir != "" {
		dcfg.Inbox = inbox.New(cfg.Inbox.Dir, st, eng, logger)
		dcfg.InboxCron = cfg.Inbox.Cron
	}

	logger.WithFields(logrus.Fields{
		"addr":    addr,
		"backend": cfg.Storage.Backend,
		"inbox":   cfg.Inbox.Dir,
	}).Info("daemon starting")
	if !flagDaemonChild {
		fmt.Printf("  Serving on http://%s (stream at /v1/stream)\n", addr)
		fmt.Println("  Press Ctrl+C or run `fueltank daemon stop` to quit.")
	}

	err = daemon.New(dcfg, eng, hub, logger).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	files := daemonFiles{state: flagDaemonStateFile}
	rec, running := files.running()
	if !running {
		fmt.Println("  Daemon is not running.")
		return nil
	}

	st, statusErr := fetchDaemonStatus(rec.Addr)
	if flagJSON {
		return printJSON(struct {
			Process daemonRecord   `json:"process"`
			API     *daemon.Status `json:"api,omitempty"`
		}{rec, st})
	}

	fmt.Printf("  Daemon   pid %d on http://%s (%s storage)\n", rec.PID, rec.Addr, orDefault(rec.Backend, "sqlite"))
	fmt.Printf("  Up since %s\n", rec.StartedAt.Local().Format(time.DateTime))
	if statusErr != nil {
		fmt.Printf("  API      %v\n", statusErr)
		return nil
	}

	last := "pending"
	if !st.LastJobAt.IsZero() {
		last = st.LastJobAt.Local().Format(time.DateTime)
	}
	fmt.Printf("  Jobs     %s (%d runs, last %s)\n", strings.Join(st.Jobs, ", "), st.JobRuns, last)
	fmt.Printf("  Alerts   %d unread, %d scheduled\n", st.UnreadCount, st.ScheduledAlerts)
	fmt.Printf("  Stream   %d events, %d listeners\n", st.EventCount, st.SubscriberCount)
	if st.LastError != "" {
		fmt.Printf("  Error    %s\n", st.LastError)
	}
	return nil
}

func runDaemonStop(cmd *cobra.Command, _ []string) error {
	files := daemonFiles{state: flagDaemonStateFile}
	rec, running := files.running()
	if !running {
		return errors.New("daemon is not running")
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 8*time.Second)
	defer cancel()
	if err := files.terminate(ctx, rec.PID); err != nil {
		return err
	}
	fmt.Printf("  Daemon stopped (pid %d)\n", rec.PID)
	return nil
}

// fetchDaemonStatus asks a running daemon for its status.
func fetchDaemonStatus(addr string) (*daemon.Status, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected HTTP %d", resp.StatusCode)
	}

	var st daemon.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, fmt.Errorf("malformed status: %w", err)
	}
	return &st, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
