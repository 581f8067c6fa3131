//go:build !windows

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ilyklain/khlan-saas/internal/config"
)

var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// cmdStart re-executes the binary with "run" in a new session and records
// the child's PID.
func cmdStart(cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()

	if pid, err := readPidFile(cfg.PidFile); err == nil {
		if processExists(pid) {
			return fmt.Errorf("khlan is already running (PID %d)", pid)
		}
		// Stale PID file
		os.Remove(cfg.PidFile)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("find executable: %w", err)
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", cfg.LogFile, err)
	}
	defer logFile.Close()

	childArgs := daemonArgs(cmd.Flags())
	child := &exec.Cmd{
		Path:   exe,
		Args:   append([]string{filepath.Base(exe)}, childArgs...),
		Stdout: logFile,
		Stderr: logFile,
		SysProcAttr: &syscall.SysProcAttr{
			Setsid: true, // detach from terminal
		},
	}
	if err := child.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	pid := child.Process.Pid
	if err := writePidFile(cfg.PidFile, pid); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to write PID file: %v\n", err)
	}
	child.Process.Release()

	fmt.Fprintf(out, "khlan started (PID %d)\n", pid)
	printSummary(cmd, cfg)
	return nil
}

func cmdStop(cmd *cobra.Command, cfg *config.Config) error {
	pid, err := readPidFile(cfg.PidFile)
	if err != nil {
		return fmt.Errorf("khlan is not running (no PID file: %s)", cfg.PidFile)
	}

	if !processExists(pid) {
		os.Remove(cfg.PidFile)
		return fmt.Errorf("khlan is not running (stale PID %d)", pid)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("stop PID %d: %w", pid, err)
	}

	// Wait for process to exit (up to 10 seconds)
	for i := 0; i < 100; i++ {
		time.Sleep(100 * time.Millisecond)
		if !processExists(pid) {
			os.Remove(cfg.PidFile)
			fmt.Fprintf(cmd.OutOrStdout(), "khlan stopped (PID %d)\n", pid)
			return nil
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "khlan stop signal sent (PID %d), waiting for exit...\n", pid)
	os.Remove(cfg.PidFile)
	return nil
}

func cmdStatus(cmd *cobra.Command, cfg *config.Config) error {
	pid, err := readPidFile(cfg.PidFile)
	if err != nil {
		return fmt.Errorf("khlan is stopped")
	}
	if !processExists(pid) {
		os.Remove(cfg.PidFile)
		return fmt.Errorf("khlan is stopped (stale PID file, was PID %d)", pid)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "khlan is running (PID %d)\n", pid)
	printSummary(cmd, cfg)
	return nil
}

func printSummary(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  Listen : http://%s\n", cfg.Listen)
	fmt.Fprintf(out, "  Base   : %s\n", cfg.BasePath)
	fmt.Fprintf(out, "  Config : %s\n", cfg.ConfigPath)
	fmt.Fprintf(out, "  PID    : %s\n", cfg.PidFile)
	fmt.Fprintf(out, "  Log    : %s\n", cfg.LogFile)
}

func processExists(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 checks existence without actually sending a signal
	return proc.Signal(syscall.Signal(0)) == nil
}
