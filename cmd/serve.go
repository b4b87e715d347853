package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/chargesense/internal/cli"
	"github.com/theirongolddev/chargesense/internal/config"
	"github.com/theirongolddev/chargesense/internal/daemon"
	"github.com/theirongolddev/chargesense/internal/model"
	"github.com/theirongolddev/chargesense/internal/pipeline"
	"github.com/theirongolddev/chargesense/internal/store"
	"github.com/theirongolddev/chargesense/internal/upload"
)

type serveRuntimeState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	InboxDir  string    `json:"inbox_dir"`
}

var (
	flagServeAddr         string
	flagServeInbox        string
	flagServeInterval     time.Duration
	flagServeDetach       bool
	flagServePIDFile      string
	flagServeLogFile      string
	flagServeEventsBuffer int
	flagServeAccessLog    bool
	flagServeChild        bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Watch an inbox folder for exports and serve the dashboard over HTTP/SSE",
	RunE:  runServe,
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server process and API status",
	RunE:  runServeStatus,
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running server",
	RunE:  runServeStop,
}

func init() {
	defaultPID := filepath.Join(pipeline.CacheDir(), "chargesense.pid")
	defaultLog := filepath.Join(pipeline.CacheDir(), "chargesense.log")

	pf := serveCmd.PersistentFlags()
	pf.StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default from config)")
	pf.StringVar(&flagServePIDFile, "pid-file", defaultPID, "PID file path")

	f := serveCmd.Flags()
	f.StringVar(&flagServeInbox, "inbox", "", "Folder to watch for bookings and marketing exports")
	f.DurationVar(&flagServeInterval, "interval", 0, "Polling interval (default from config)")
	f.StringVar(&flagServeLogFile, "log-file", defaultLog, "Log file path for detached mode")
	f.IntVar(&flagServeEventsBuffer, "events-buffer", 200, "Max in-memory events retained")
	f.BoolVar(&flagServeAccessLog, "access-log", false, "Write one line per HTTP request to stderr")
	f.BoolVar(&flagServeDetach, "detach", false, "Run the server as a background process")
	f.BoolVar(&flagServeChild, "child", false, "Internal: mark detached child process")
	_ = f.MarkHidden("child")

	serveCmd.AddCommand(serveStatusCmd)
	serveCmd.AddCommand(serveStopCmd)
	rootCmd.AddCommand(serveCmd)
}

func serveAddr() string {
	return firstNonEmpty(flagServeAddr, cfg.Serve.Addr)
}

func runServe(_ *cobra.Command, _ []string) error {
	if flagServeDetach && flagServeChild {
		return errors.New("invalid serve launch mode")
	}

	inbox := firstNonEmpty(flagServeInbox, cfg.Serve.InboxDir)
	if inbox == "" {
		return errors.New("no inbox folder: pass --inbox or set [serve] inbox_dir")
	}
	if st, err := os.Stat(inbox); err != nil || !st.IsDir() {
		return fmt.Errorf("inbox %s is not a directory", inbox)
	}

	if flagServeDetach {
		return startServeDetached()
	}
	return runServeForeground(inbox)
}

func startServeDetached() error {
	if err := ensureServeNotRunning(flagServePIDFile); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	args := filterDetachArg(os.Args[1:])
	args = append(args, "--child")

	if err := os.MkdirAll(filepath.Dir(flagServePIDFile), 0o750); err != nil {
		return fmt.Errorf("create server directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(flagServeLogFile), 0o750); err != nil {
		return fmt.Errorf("create server log directory: %w", err)
	}

	//nolint:gosec // log path is configured by the local user
	logf, err := os.OpenFile(flagServeLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open server log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, args...) //nolint:gosec // exe/args come from current process invocation
	child.Stdout = logf
	child.Stderr = logf
	child.Stdin = nil
	child.Env = os.Environ()

	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached server: %w", err)
	}

	fmt.Printf("  Started server (pid %d)\n", child.Process.Pid)
	fmt.Printf("  PID file: %s\n", flagServePIDFile)
	fmt.Printf("  API: http://%s/v1/status\n", serveAddr())
	fmt.Printf("  Log: %s\n", flagServeLogFile)
	return nil
}

func runServeForeground(inbox string) error {
	if err := ensureServeNotRunning(flagServePIDFile); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(flagServePIDFile), 0o750); err != nil {
		return fmt.Errorf("create server directory: %w", err)
	}

	apiURL, _ := config.GetAPIURL(cfg, flagAPIURL)
	client, err := upload.NewClient(apiURL, upload.WithTimeout(cfg.UploadTimeout()))
	if err != nil {
		return err
	}

	var (
		tracker  pipeline.FileTracker = store.NewMemTracker()
		recorder daemon.RunRecorder
		initial  *model.Dashboard
	)
	if !flagNoCache {
		cache, err := store.Open(pipeline.CachePath())
		if err != nil {
			slog.Warn("cache unavailable, tracking files in memory", "err", err)
		} else {
			defer func() { _ = cache.Close() }()
			tracker, recorder = cache, cache
			if initial, err = cache.LatestDashboard(); err != nil {
				slog.Warn("reading last dashboard failed", "err", err)
			}
		}
	}

	pid := os.Getpid()
	if err := writePID(flagServePIDFile, pid); err != nil {
		return err
	}
	defer func() { _ = os.Remove(flagServePIDFile) }()

	addr := serveAddr()
	_ = writeState(statePath(flagServePIDFile), serveRuntimeState{
		PID:       pid,
		Addr:      addr,
		StartedAt: time.Now(),
		InboxDir:  inbox,
	})
	defer func() { _ = os.Remove(statePath(flagServePIDFile)) }()

	interval := flagServeInterval
	if interval <= 0 {
		interval = cfg.PollInterval()
	}

	dcfg := daemon.Config{
		InboxDir:     inbox,
		Interval:     interval,
		Addr:         addr,
		EventsBuffer: flagServeEventsBuffer,
		NoticeTTL:    cfg.NoticeTTL(),
		Initial:      initial,
	}
	if flagServeAccessLog {
		dcfg.AccessLog = os.Stderr
	}
	svc := daemon.New(dcfg, client, tracker, recorder)

	fmt.Printf("  chargesense listening on http://%s\n", addr)
	fmt.Printf("  Watching %s every %s\n", inbox, interval)
	fmt.Printf("  Uploading to %s\n", client.Endpoint())
	fmt.Printf("  Stop with: chargesense serve stop --pid-file %s\n", flagServePIDFile)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runServeStatus(_ *cobra.Command, _ []string) error {
	pid, err := readPID(flagServePIDFile)
	if err != nil {
		fmt.Println("  Server: not running (pid file not found)")
		return nil
	}
	if !processAlive(pid) {
		fmt.Printf("  Server: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	addr := serveAddr()
	if st, err := readState(statePath(flagServePIDFile)); err == nil && st.Addr != "" {
		addr = st.Addr
	}

	fmt.Printf("  Server PID: %d\n", pid)
	fmt.Printf("  Address: http://%s\n", addr)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/v1/status") //nolint:noctx // short status probe
	if err != nil {
		fmt.Printf("  API status: unreachable (%v)\n", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("  API status: HTTP %d\n", resp.StatusCode)
		return nil
	}

	var st daemon.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		fmt.Printf("  API status: malformed response (%v)\n", err)
		return nil
	}

	fmt.Printf("  Inbox: %s\n", st.InboxDir)
	if st.LastPollAt.IsZero() {
		fmt.Println("  Last poll: pending")
	} else {
		fmt.Printf("  Last poll: %s\n", st.LastPollAt.Local().Format(time.RFC3339))
	}
	fmt.Printf("  Polls: %d  Runs: %d\n", st.PollCount, st.RunCount)
	if st.LastOutcome != "" {
		fmt.Printf("  Last outcome: %s\n", st.LastOutcome)
	}
	if st.Summary.RunID != "" {
		fmt.Printf("  Students: %d\n", st.Summary.Students)
		fmt.Printf("  Charges: %s\n", cli.FormatCurrency(st.Summary.TotalActual))
		fmt.Printf("  Avg per booking: %s\n", cli.FormatCurrency(st.Summary.AvgChargePerBooking))
	}
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

func runServeStop(_ *cobra.Command, _ []string) error {
	pid, err := readPID(flagServePIDFile)
	if err != nil {
		return errors.New("server is not running")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find server process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal server process: %w", err)
	}

	deadline := time.Now().Add(8 * time.Second)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			_ = os.Remove(flagServePIDFile)
			_ = os.Remove(statePath(flagServePIDFile))
			fmt.Printf("  Stopped server (pid %d)\n", pid)
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}
	return fmt.Errorf("server (pid %d) did not exit in time", pid)
}

func filterDetachArg(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return out
}

func ensureServeNotRunning(pidFile string) error {
	pid, err := readPID(pidFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if processAlive(pid) {
		return fmt.Errorf("server already running (pid %d)", pid)
	}
	_ = os.Remove(pidFile)
	_ = os.Remove(statePath(pidFile))
	return nil
}

func writePID(path string, pid int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o600)
}

func readPID(path string) (int, error) {
	//nolint:gosec // pid path is configured by the local user
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", path)
	}
	return pid, nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func statePath(pidFile string) string {
	return pidFile + ".json"
}

func writeState(path string, st serveRuntimeState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func readState(path string) (serveRuntimeState, error) {
	var st serveRuntimeState
	//nolint:gosec // state path is configured by the local user
	data, err := os.ReadFile(path)
	if err != nil {
		return st, err
	}
	err = json.Unmarshal(data, &st)
	return st, err
}
