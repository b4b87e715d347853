// Package daemon provides the long-running inbox watcher and its HTTP API.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/theirongolddev/chargesense/internal/model"
	"github.com/theirongolddev/chargesense/internal/notify"
	"github.com/theirongolddev/chargesense/internal/pipeline"
)

// Config controls the service runtime behavior.
type Config struct {
	InboxDir     string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	NoticeTTL    time.Duration
	// AccessLog receives one common-log line per request; nil disables it.
	AccessLog io.Writer
	// Initial is shown until the first successful run.
	Initial *model.Dashboard
}

// RunRecorder persists dashboards after successful runs.
type RunRecorder interface {
	SaveRun(bookingsFile, marketingFile, outcome string, d *model.Dashboard) error
}

// Snapshot is a compact dashboard state for status and event payloads.
type Snapshot struct {
	RunID               string    `json:"run_id,omitempty"`
	At                  time.Time `json:"at"`
	WeekStart           string    `json:"week_start,omitempty"`
	TotalActual         float64   `json:"total_actual"`
	AvgChargePerBooking float64   `json:"avg_charge_per_booking"`
	Students            int       `json:"students"`
	Bookings            int       `json:"bookings"`
	BusUsage            int       `json:"bus_usage"`
	HasMarketing        bool      `json:"has_marketing"`
	MarketingSpend      float64   `json:"marketing_spend,omitempty"`
}

// Event is emitted for runs and notices.
type Event struct {
	ID        int64          `json:"id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Snapshot  *Snapshot      `json:"snapshot,omitempty"`
	Outcome   string         `json:"outcome,omitempty"`
	Notice    *notify.Notice `json:"notice,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Event types.
const (
	EventSnapshot      = "snapshot"
	EventRun           = "run"
	EventRunFailed     = "run_failed"
	EventNotice        = "notice"
	EventNoticeCleared = "notice_cleared"
)

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	LastRunAt       time.Time `json:"last_run_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	RunCount        int64     `json:"run_count"`
	InboxDir        string    `json:"inbox_dir"`
	LastOutcome     string    `json:"last_outcome,omitempty"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// ErrRunInProgress is returned when a forced run overlaps another run.
var ErrRunInProgress = errors.New("a run is already in progress")

// Service provides the watcher runtime and HTTP API.
type Service struct {
	cfg      Config
	uploader pipeline.Uploader
	tracker  pipeline.FileTracker
	recorder RunRecorder
	board    *notify.Board

	// runMu serializes runs; polls wait, forced refreshes fail fast.
	runMu sync.Mutex

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	lastRunAt   time.Time
	pollCount   int64
	runCount    int64
	lastError   string
	lastOutcome string
	dashboard   *model.Dashboard
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a service. recorder may be nil.
func New(cfg Config, up pipeline.Uploader, tracker pipeline.FileTracker, recorder RunRecorder) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 15 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}

	s := &Service{
		cfg:       cfg,
		uploader:  up,
		tracker:   tracker,
		recorder:  recorder,
		board:     notify.NewBoard(cfg.NoticeTTL),
		startedAt: time.Now(),
		dashboard: cfg.Initial,
		subs:      make(map[int]chan Event),
	}
	s.board.OnChange = s.onNotice
	return s
}

// Handler returns the HTTP API without access logging.
func (s *Service) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	v1.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	v1.HandleFunc("/notice", s.handleNotice).Methods(http.MethodGet)
	v1.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	v1.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)
	v1.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost)
	return r
}

// Run starts HTTP endpoints and inbox polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	var h http.Handler = s.Handler()
	if s.cfg.AccessLog != nil {
		h = handlers.LoggingHandler(s.cfg.AccessLog, h)
	}

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	defer s.board.Stop()

	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("http server: %w", err)
		}
	}
}

// pollOnce scans the inbox and runs the workflow when exports changed.
func (s *Service) pollOnce(ctx context.Context) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	scan, err := pipeline.ScanInbox(s.cfg.InboxDir, s.tracker)

	s.mu.Lock()
	s.lastPollAt = time.Now()
	s.pollCount++
	if err != nil {
		s.lastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		slog.Error("inbox scan failed", "dir", s.cfg.InboxDir, "err", err)
		return
	}

	req, ok := scan.Request()
	if !ok {
		return
	}
	s.runLocked(ctx, req, scan)
}

// Refresh runs the workflow on the newest exports whether or not they
// changed. It fails with ErrRunInProgress instead of waiting.
func (s *Service) Refresh(ctx context.Context) error {
	if !s.runMu.TryLock() {
		return ErrRunInProgress
	}
	defer s.runMu.Unlock()

	scan, err := pipeline.ScanInbox(s.cfg.InboxDir, s.tracker)
	if err != nil {
		return err
	}
	req, ok := scan.LatestRequest()
	if !ok {
		return pipeline.ErrNoBookingsFile
	}
	return s.runLocked(ctx, req, scan)
}

// runLocked executes one run. Files are marked processed even when the
// upload fails so a rejected export is not re-sent every poll.
func (s *Service) runLocked(ctx context.Context, req pipeline.Request, scan *pipeline.InboxScan) error {
	slog.Info("starting run", "bookings", req.BookingsPath, "marketing", req.MarketingPath)

	res, err := pipeline.Run(ctx, s.uploader, req)
	if markErr := pipeline.MarkProcessed(s.tracker, scan.Changed); markErr != nil {
		slog.Warn("tracking inbox files failed", "err", markErr)
	}

	now := time.Now()
	if err != nil {
		msg := pipeline.ErrorMessage(err)
		s.mu.Lock()
		s.lastError = msg
		s.lastRunAt = now
		s.nextEventID++
		ev := Event{ID: s.nextEventID, Type: EventRunFailed, Timestamp: now, Error: msg}
		s.mu.Unlock()

		slog.Error("run failed", "err", err)
		s.publishEvent(ev)
		s.postNotice(notify.LevelError, msg)
		return err
	}

	s.mu.Lock()
	next := pipeline.Apply(s.dashboard, res, now)
	s.dashboard = next
	s.lastRunAt = now
	s.runCount++
	s.lastError = ""
	s.lastOutcome = res.Outcome.String()
	snap := snapshotFromDashboard(next)
	s.nextEventID++
	ev := Event{ID: s.nextEventID, Type: EventRun, Timestamp: now, Snapshot: &snap, Outcome: res.Outcome.String()}
	s.mu.Unlock()

	if s.recorder != nil {
		if err := s.recorder.SaveRun(req.BookingsPath, req.MarketingPath, res.Outcome.String(), next); err != nil {
			slog.Warn("saving run failed", "run", res.RunID, "err", err)
		}
	}

	s.publishEvent(ev)
	level, msg := res.Notice()
	s.postNotice(level, msg)
	return nil
}

func (s *Service) postNotice(level notify.Level, msg string) {
	s.board.Post(level, msg)
}

// onNotice turns board changes into events so stream clients can show
// and hide notices in step with the server.
func (s *Service) onNotice(n notify.Notice, ok bool) {
	ev := Event{Type: EventNoticeCleared, Timestamp: time.Now()}
	if ok {
		ev.Type, ev.Timestamp, ev.Notice = EventNotice, n.PostedAt, &n
	}

	s.mu.Lock()
	s.nextEventID++
	ev.ID = s.nextEventID
	s.mu.Unlock()

	s.publishEvent(ev)
}

// Dashboard returns the current view-model, or nil before the first run.
func (s *Service) Dashboard() *model.Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dashboard
}

func snapshotFromDashboard(d *model.Dashboard) Snapshot {
	if d == nil {
		return Snapshot{}
	}
	snap := Snapshot{
		RunID:               d.RunID,
		At:                  d.GeneratedAt,
		WeekStart:           d.WeekStart,
		TotalActual:         d.TotalActual(),
		AvgChargePerBooking: d.AvgChargePerBooking,
		Students:            len(d.StudentData),
		Bookings:            d.TotalBookings(),
		BusUsage:            d.TotalBusUsage(),
		HasMarketing:        d.MarketingAnalytics != nil,
	}
	if d.MarketingAnalytics != nil {
		snap.MarketingSpend = d.MarketingAnalytics.TotalSpend
	}
	return snap
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		LastRunAt:       s.lastRunAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		RunCount:        s.runCount,
		InboxDir:        s.cfg.InboxDir,
		LastOutcome:     s.lastOutcome,
		Summary:         snapshotFromDashboard(s.dashboard),
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	d := s.Dashboard()
	if d == nil {
		writeError(w, http.StatusNotFound, "no dashboard yet")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Service) handleNotice(w http.ResponseWriter, _ *http.Request) {
	n, ok := s.board.Current()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		if n < len(events) {
			events = events[len(events)-n:]
		}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleRefresh(w http.ResponseWriter, r *http.Request) {
	err := s.Refresh(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, s.snapshotStatus())
	case errors.Is(err, ErrRunInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, pipeline.ErrNoBookingsFile):
		writeError(w, http.StatusNotFound, "no bookings export in inbox")
	default:
		writeError(w, http.StatusBadGateway, pipeline.ErrorMessage(err))
	}
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	summary := s.snapshotStatus().Summary
	writeSSE(w, Event{Type: EventSnapshot, Timestamp: time.Now(), Snapshot: &summary})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w io.Writer, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if ev.ID > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
