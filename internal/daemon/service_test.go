package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/chargesense/internal/model"
	"github.com/theirongolddev/chargesense/internal/notify"
	"github.com/theirongolddev/chargesense/internal/store"
	"github.com/theirongolddev/chargesense/internal/upload"
)

type stubUploader struct {
	mu    sync.Mutex
	calls []string
	fn    func(path string) (*model.Upload, error)
}

func (u *stubUploader) Upload(_ context.Context, path string) (*model.Upload, error) {
	u.mu.Lock()
	u.calls = append(u.calls, filepath.Base(path))
	u.mu.Unlock()
	return u.fn(path)
}

func (u *stubUploader) Calls() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.calls...)
}

func analytics(path string) (*model.Upload, error) {
	if strings.Contains(filepath.Base(path), "marketing") {
		return &model.Upload{Marketing: &model.MarketingUpload{
			Weeks: []model.MarketingWeek{{SearchSpend: 100, SocialSpend: 20, Revenue: 500}},
		}}, nil
	}
	return &model.Upload{
		Charges:  []model.ChargeEntry{{Day: "Mon", Amount: 100}, {Day: "Fri", Amount: 60}},
		Segments: []model.Segment{{ID: "Ada", BookingCount: 2}, {ID: "Alan", BookingCount: 2}},
		Bus:      []model.BusObservation{{Service: "Mon AM", Usage: 5}},
	}, nil
}

type memRecorder struct {
	mu   sync.Mutex
	runs []string
}

func (m *memRecorder) SaveRun(_, _, outcome string, _ *model.Dashboard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, outcome)
	return nil
}

func writeExport(t *testing.T, dir, name string, mtime time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(name), 0o600))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func newTestService(t *testing.T, up *stubUploader, rec RunRecorder) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	s := New(Config{
		InboxDir:     dir,
		Interval:     10 * time.Second,
		EventsBuffer: 50,
		NoticeTTL:    time.Hour,
	}, up, store.NewMemTracker(), rec)
	t.Cleanup(s.board.Stop)
	return s, dir
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{Interval: 10 * time.Second, EventsBuffer: 2}, nil, store.NewMemTracker(), nil)

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	require.Len(t, s.events, 2)
	assert.Equal(t, int64(2), s.events[0].ID)
	assert.Equal(t, int64(3), s.events[1].ID)
}

func TestPollOnce_RunsOnChangesOnly(t *testing.T) {
	up := &stubUploader{fn: analytics}
	rec := &memRecorder{}
	s, dir := newTestService(t, up, rec)
	base := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)

	s.pollOnce(context.Background())
	assert.Nil(t, s.Dashboard(), "empty inbox")

	writeExport(t, dir, "week-36.xlsx", base)
	writeExport(t, dir, "marketing.xlsx", base)
	s.pollOnce(context.Background())

	d := s.Dashboard()
	require.NotNil(t, d)
	require.NotNil(t, d.MarketingAnalytics)
	assert.InDelta(t, 120.0, d.MarketingAnalytics.TotalSpend, 1e-9)
	assert.InDelta(t, 40.0, d.AvgChargePerBooking, 1e-9)
	assert.Equal(t, []string{"week-36.xlsx", "marketing.xlsx"}, up.Calls())

	s.pollOnce(context.Background())
	assert.Len(t, up.Calls(), 2, "unchanged inbox does not re-upload")

	// A new bookings export alone keeps the previous marketing section.
	writeExport(t, dir, "week-37.xlsx", base.Add(24*time.Hour))
	s.pollOnce(context.Background())

	next := s.Dashboard()
	assert.NotEqual(t, d.RunID, next.RunID)
	assert.Same(t, d.MarketingAnalytics, next.MarketingAnalytics)
	assert.Equal(t, []string{"complete", "bookings-only"}, rec.runs)

	st := s.snapshotStatus()
	assert.Equal(t, int64(4), st.PollCount)
	assert.Equal(t, int64(2), st.RunCount)
	assert.Equal(t, "bookings-only", st.LastOutcome)
	assert.True(t, st.Summary.HasMarketing)
	assert.Equal(t, 4, st.Summary.Bookings)
}

func TestPollOnce_FailureKeepsPreviousDashboard(t *testing.T) {
	fail := false
	up := &stubUploader{fn: func(path string) (*model.Upload, error) {
		if fail {
			return nil, &upload.Error{StatusCode: 400, Message: "Missing sheet: Mon"}
		}
		return analytics(path)
	}}
	s, dir := newTestService(t, up, nil)
	base := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)

	writeExport(t, dir, "week-36.xlsx", base)
	s.pollOnce(context.Background())
	before := s.Dashboard()
	require.NotNil(t, before)

	fail = true
	writeExport(t, dir, "week-37.xlsx", base.Add(time.Hour))
	s.pollOnce(context.Background())

	assert.Same(t, before, s.Dashboard())
	st := s.snapshotStatus()
	assert.Equal(t, "Missing sheet: Mon", st.LastError)

	n, ok := s.board.Current()
	require.True(t, ok)
	assert.Equal(t, "Missing sheet: Mon", n.Message)

	s.pollOnce(context.Background())
	assert.Len(t, up.Calls(), 2, "rejected export is not retried")
}

func TestHandlers(t *testing.T) {
	up := &stubUploader{fn: analytics}
	s, dir := newTestService(t, up, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v1/dashboard")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v1/notice")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/v1/refresh", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "no bookings export yet")

	writeExport(t, dir, "week-36.xlsx", time.Now())
	resp, err = http.Post(srv.URL+"/v1/refresh", "application/json", nil)
	require.NoError(t, err)
	var st Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(1), st.RunCount)

	resp, err = http.Get(srv.URL + "/v1/dashboard")
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	resp.Body.Close()
	assert.Equal(t, "null", string(raw["marketingAnalytics"]))
	var weekly []model.WeeklyChargePoint
	require.NoError(t, json.Unmarshal(raw["weeklyWithPredicted"], &weekly))
	assert.Len(t, weekly, 5)
	var bus []model.BusSlot
	require.NoError(t, json.Unmarshal(raw["normalizedBus"], &bus))
	assert.Len(t, bus, 20)

	resp, err = http.Get(srv.URL + "/v1/notice")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/v1/events?limit=1")
	require.NoError(t, err)
	var events []Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	resp.Body.Close()
	require.Len(t, events, 1)
	assert.Equal(t, EventNotice, events[0].Type)
	require.NotNil(t, events[0].Notice)
	assert.NotEmpty(t, events[0].Notice.Message)

	resp, err = http.Get(srv.URL + "/v1/events?limit=x")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v1/refresh")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRefresh_InProgress(t *testing.T) {
	s, _ := newTestService(t, &stubUploader{fn: analytics}, nil)

	s.runMu.Lock()
	err := s.Refresh(context.Background())
	s.runMu.Unlock()
	assert.True(t, errors.Is(err, ErrRunInProgress))

	rec := httptest.NewRecorder()
	s.runMu.Lock()
	s.handleRefresh(rec, httptest.NewRequest(http.MethodPost, "/v1/refresh", nil))
	s.runMu.Unlock()
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestWriteSSE(t *testing.T) {
	var b strings.Builder
	writeSSE(&b, Event{ID: 7, Type: EventRun, Outcome: "complete"})
	out := b.String()
	assert.True(t, strings.HasPrefix(out, "id: 7\nevent: run\ndata: {"))
	assert.True(t, strings.HasSuffix(out, "}\n\n"))
}

func TestSnapshotFromDashboard(t *testing.T) {
	assert.Equal(t, Snapshot{}, snapshotFromDashboard(nil))

	d := &model.Dashboard{
		RunID:               "r",
		WeeklyWithPredicted: []model.WeeklyChargePoint{{Actual: 10}, {Actual: 5}},
		StudentData:         []model.CustomerSegment{{BookingCount: 3}},
		NormalizedBus:       []model.BusSlot{{Usage: 2}, {Usage: 4}},
		MarketingAnalytics:  &model.MarketingSummary{TotalSpend: 99},
	}
	snap := snapshotFromDashboard(d)
	assert.InDelta(t, 15.0, snap.TotalActual, 1e-9)
	assert.Equal(t, 3, snap.Bookings)
	assert.Equal(t, 6, snap.BusUsage)
	assert.True(t, snap.HasMarketing)
	assert.InDelta(t, 99.0, snap.MarketingSpend, 1e-9)
}

func TestNoticeExpiryPublishesClearedEvent(t *testing.T) {
	s := New(Config{InboxDir: t.TempDir(), NoticeTTL: 20 * time.Millisecond}, &stubUploader{}, store.NewMemTracker(), nil)
	defer s.board.Stop()

	s.postNotice(notify.LevelInfo, "hello")

	require.Eventually(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(s.events) == 2
	}, time.Second, 10*time.Millisecond)

	s.mu.RLock()
	defer s.mu.RUnlock()
	assert.Equal(t, EventNotice, s.events[0].Type)
	assert.Equal(t, "hello", s.events[0].Notice.Message)
	assert.Equal(t, EventNoticeCleared, s.events[1].Type)
	assert.Nil(t, s.events[1].Notice)
}
