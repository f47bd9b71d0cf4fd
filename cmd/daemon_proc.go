package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// daemonRecord is written to the state file while a daemon is serving.
type daemonRecord struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	Backend   string    `json:"backend,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// daemonFiles manages the on-disk footprint of a daemon process.
type daemonFiles struct {
	state string
	log   string
}

// running reports the recorded daemon if its process is still alive.
// A record left behind by a dead process is removed.
func (f daemonFiles) running() (daemonRecord, bool) {
	var rec daemonRecord
	data, err := os.ReadFile(f.state)
	if err != nil {
		return rec, false
	}
	if err := json.Unmarshal(data, &rec); err != nil || rec.PID <= 0 || !pidAlive(rec.PID) {
		_ = os.Remove(f.state)
		return daemonRecord{}, false
	}
	return rec, true
}

// claim records the current process as the serving daemon.
func (f daemonFiles) claim(addr, backend string) error {
	if err := os.MkdirAll(filepath.Dir(f.state), 0o750); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	data, err := json.MarshalIndent(daemonRecord{
		PID:       os.Getpid(),
		Addr:      addr,
		Backend:   backend,
		StartedAt: time.Now(),
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.state, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write daemon state: %w", err)
	}
	return nil
}

func (f daemonFiles) release() {
	_ = os.Remove(f.state)
}

// spawn re-executes the binary as a detached child that appends to the log file.
func (f daemonFiles) spawn(args []string) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("locate executable: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.log), 0o750); err != nil {
		return 0, fmt.Errorf("create log directory: %w", err)
	}
	out, err := os.OpenFile(f.log, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600) //nolint:gosec // user-chosen path
	if err != nil {
		return 0, fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = out.Close() }()

	child := exec.Command(exe, args...) //nolint:gosec // our own binary and flags
	child.Stdout, child.Stderr = out, out
	child.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := child.Start(); err != nil {
		return 0, fmt.Errorf("start daemon: %w", err)
	}
	pid := child.Process.Pid
	_ = child.Process.Release()
	return pid, nil
}

// terminate sends SIGTERM and waits for the process to go away.
func (f daemonFiles) terminate(ctx context.Context, pid int) error {
	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal pid %d: %w", pid, err)
	}
	tick := time.NewTicker(150 * time.Millisecond)
	defer tick.Stop()
	for {
		if !pidAlive(pid) {
			f.release()
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("pid %d still running after SIGTERM", pid)
		case <-tick.C:
		}
	}
}

func pidAlive(pid int) bool {
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}

// childArgs rebuilds the daemon invocation from the flags the user set,
// dropping --detach and marking the result as the child.
func childArgs(cmd *cobra.Command) []string {
	args := []string{"daemon", "--child"}
	cmd.Flags().Visit(func(fl *pflag.Flag) {
		if fl.Name == "detach" || fl.Name == "child" {
			return
		}
		args = append(args, "--"+fl.Name+"="+fl.Value.String())
	})
	return args
}

func shutdownContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
