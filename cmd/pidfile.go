package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// daemonRuntime is written next to the pid file so `daemon status` can
// find the listen address of a running daemon.
type daemonRuntime struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	BaseURL   string    `json:"base_url,omitempty"`
}

// runtimeFiles manages the pid file and its JSON sidecar.
type runtimeFiles string

func (f runtimeFiles) pidPath() string   { return string(f) }
func (f runtimeFiles) statePath() string { return string(f) + ".json" }

// claim records rt as the running daemon.
func (f runtimeFiles) claim(rt daemonRuntime) error {
	if err := os.MkdirAll(filepath.Dir(f.pidPath()), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	if err := os.WriteFile(f.pidPath(), []byte(strconv.Itoa(rt.PID)+"\n"), 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rt, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.statePath(), append(data, '\n'), 0o600)
}

func (f runtimeFiles) release() {
	_ = os.Remove(f.pidPath())
	_ = os.Remove(f.statePath())
}

// pid reads the recorded process id.
func (f runtimeFiles) pid() (int, error) {
	//nolint:gosec // daemon pid path is configured by the local user
	data, err := os.ReadFile(f.pidPath())
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", f.pidPath())
	}
	return pid, nil
}

// runtime reads the sidecar; a missing sidecar yields a zero value.
func (f runtimeFiles) runtime() daemonRuntime {
	var rt daemonRuntime
	//nolint:gosec // daemon state path is configured by the local user
	if data, err := os.ReadFile(f.statePath()); err == nil {
		_ = json.Unmarshal(data, &rt)
	}
	return rt
}

// ensureFree fails if a live daemon owns the files and clears stale ones.
func (f runtimeFiles) ensureFree() error {
	pid, err := f.pid()
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return err
	case processAlive(pid):
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	f.release()
	return nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// childArgs turns the current invocation into the detached child's.
func childArgs(args []string) []string {
	out := make([]string, 0, len(args)+1)
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return append(out, "--child")
}
