package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/theirongolddev/ratewatch/internal/cli"
	"github.com/theirongolddev/ratewatch/internal/config"
	"github.com/theirongolddev/ratewatch/internal/daemon"
	"github.com/theirongolddev/ratewatch/internal/fetcher"

	"github.com/spf13/cobra"
)

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonOrigins      []string
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Poll the indicator API in the background and serve HTTP/SSE endpoints",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	defaultPID := filepath.Join(config.CacheDir(), "ratewatchd.pid")
	defaultLog := filepath.Join(config.CacheDir(), "ratewatchd.log")

	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", daemon.DefaultAddr, "HTTP listen address")
	daemonCmd.PersistentFlags().DurationVar(&flagDaemonInterval, "interval", 0, "Polling interval, at least 30s (default from config)")
	daemonCmd.PersistentFlags().StringSliceVar(&flagDaemonOrigins, "allow-origin", nil, "CORS allowed origins (default *)")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonPIDFile, "pid-file", defaultPID, "PID file path")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonLogFile, "log-file", defaultLog, "Log file path for detached mode")
	daemonCmd.PersistentFlags().IntVar(&flagDaemonEventsBuffer, "events-buffer", 200, "Max in-memory events retained")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(_ *cobra.Command, _ []string) error {
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("invalid daemon launch mode")
	}
	if flagDaemonDetach {
		return startDaemonDetached()
	}
	return runDaemonForeground()
}

func startDaemonDetached() error {
	files := runtimeFiles(flagDaemonPIDFile)
	if err := files.ensureFree(); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(flagDaemonLogFile), 0o750); err != nil {
		return fmt.Errorf("create daemon log directory: %w", err)
	}

	//nolint:gosec // daemon log path is configured by the local user
	logf, err := os.OpenFile(flagDaemonLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, childArgs(os.Args[1:])...) //nolint:gosec // args come from current process invocation
	child.Stdout = logf
	child.Stderr = logf
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  Started daemon (pid %d)\n", child.Process.Pid)
	fmt.Printf("  PID file: %s\n", files.pidPath())
	fmt.Printf("  API: http://%s/v1/status\n", flagDaemonAddr)
	fmt.Printf("  Log: %s\n", flagDaemonLogFile)
	return nil
}

func runDaemonForeground() error {
	files := runtimeFiles(flagDaemonPIDFile)
	if err := files.ensureFree(); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	params, err := parameters(cfg)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cfg, "")
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	interval := pollInterval(flagDaemonInterval, cfg)

	// A missing or invalid base URL keeps the daemon up in the error
	// phase so /v1/status can report it.
	var poller *fetcher.Poller
	var apiURL string
	client, err := newClient(cfg)
	if err != nil {
		log.Error().Err(err).Msg("indicator API not configured")
		poller = fetcher.NewFailedPoller(err, log)
	} else {
		apiURL = client.BaseURL()
		poller = fetcher.NewPoller(client, interval, log)
	}

	if err := files.claim(daemonRuntime{
		PID:       os.Getpid(),
		Addr:      flagDaemonAddr,
		StartedAt: time.Now(),
		BaseURL:   apiURL,
	}); err != nil {
		return err
	}
	defer files.release()

	svc := daemon.New(daemon.Config{
		Addr:           flagDaemonAddr,
		BaseURL:        apiURL,
		Params:         params,
		EventsBuffer:   flagDaemonEventsBuffer,
		HistoryKeep:    cfg.History.Keep,
		AllowedOrigins: flagDaemonOrigins,
	}, poller, log)

	hist, err := openHistory(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("history unavailable")
	} else if hist != nil {
		defer func() { _ = hist.Close() }()
		svc.SetHistory(hist)
	}

	fmt.Printf("  ratewatch daemon listening on http://%s\n", flagDaemonAddr)
	if apiURL != "" {
		fmt.Printf("  Polling %s every %s\n", apiURL, interval)
	} else {
		fmt.Println(cli.RenderWarning("No indicator API configured; serving error status only"))
	}
	fmt.Printf("  Stop with: ratewatch daemon stop --pid-file %s\n", files.pidPath())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// pollInterval applies the --interval override with the same floor the
// config file enforces.
func pollInterval(flag time.Duration, cfg config.Config) time.Duration {
	if flag <= 0 {
		return cfg.RefreshInterval()
	}
	return max(flag, config.MinRefreshIntervalSec*time.Second)
}

func runDaemonStatus(cmd *cobra.Command, _ []string) error {
	files := runtimeFiles(flagDaemonPIDFile)
	pid, err := files.pid()
	if err != nil {
		fmt.Println("  Daemon: not running (pid file not found)")
		return nil
	}
	if !processAlive(pid) {
		fmt.Printf("  Daemon: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	addr := flagDaemonAddr
	if rt := files.runtime(); rt.Addr != "" {
		addr = rt.Addr
	}
	fmt.Printf("  Daemon PID: %d\n", pid)
	fmt.Printf("  Address: http://%s\n", addr)

	st, err := probeDaemon(cmd.Context(), addr)
	if err != nil {
		fmt.Printf("  API status: %v\n", err)
		return nil
	}

	fmt.Printf("  Phase: %s\n", st.Phase)
	if st.BaseURL != "" {
		fmt.Printf("  Indicator API: %s\n", st.BaseURL)
	}
	if st.LastPollAt.IsZero() {
		fmt.Println("  Last poll: pending")
	} else {
		fmt.Printf("  Last poll: %s\n", st.LastPollAt.Local().Format(time.RFC3339))
	}
	if !st.LastSuccessAt.IsZero() {
		fmt.Printf("  Last success: %s\n", st.LastSuccessAt.Local().Format(time.RFC3339))
	}
	fmt.Printf("  Poll interval: %s\n", time.Duration(st.PollIntervalSec)*time.Second)
	fmt.Printf("  Polls: %d (%d failed)\n", st.PollCount, st.FailureCount)
	fmt.Printf("  Events: %d, subscribers: %d\n", st.EventCount, st.SubscriberCount)
	if st.Message != "" {
		fmt.Printf("  Message: %s\n", st.Message)
	}
	switch {
	case st.LastError == "":
	case st.LastErrorSource != "":
		fmt.Printf("  Last error (%s): %s\n", st.LastErrorSource, st.LastError)
	default:
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

// probeDaemon fetches /v1/status from a running daemon.
func probeDaemon(ctx context.Context, addr string) (daemon.Status, error) {
	var st daemon.Status
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return st, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, fmt.Errorf("unreachable (%w)", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("malformed response (%w)", err)
	}
	return st, nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	files := runtimeFiles(flagDaemonPIDFile)
	pid, err := files.pid()
	if err != nil {
		return errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}

	deadline := time.Now().Add(8 * time.Second)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			files.release()
			fmt.Printf("  Stopped daemon (pid %d)\n", pid)
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}
	return fmt.Errorf("daemon (pid %d) did not exit in time", pid)
}
