package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/chargesense/internal/config"
	"github.com/theirongolddev/chargesense/internal/model"
	"github.com/theirongolddev/chargesense/internal/notify"
	"github.com/theirongolddev/chargesense/internal/pipeline"
	"github.com/theirongolddev/chargesense/internal/tui/components"
)

type fakeUploader struct {
	byPath map[string]*model.Upload
	err    error
}

func (f fakeUploader) Upload(_ context.Context, path string) (*model.Upload, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byPath[path], nil
}

type recorded struct {
	bookings, outcome string
	d                 *model.Dashboard
}

type fakeRecorder struct{ runs []recorded }

func (r *fakeRecorder) SaveRun(bookings, _ string, outcome string, d *model.Dashboard) error {
	r.runs = append(r.runs, recorded{bookings: bookings, outcome: outcome, d: d})
	return nil
}

func bookingsUpload() *model.Upload {
	return &model.Upload{
		Charges: []model.ChargeEntry{
			{Day: "Mon", Amount: 100}, {Day: "Tue", Amount: 80},
			{Day: "Wed", Amount: 120}, {Day: "Thu", Amount: 90}, {Day: "Fri", Amount: 130},
		},
		Segments: []model.Segment{{ID: "S1", Day: "Mon", BookingCount: 5, TotalCharge: 520}},
	}
}

func newTestApp(rec Recorder) App {
	cfg := config.DefaultConfig()
	cfg.Upload.APIURL = "http://localhost:8000"
	return NewApp(Options{
		Config:  cfg,
		Request: pipeline.Request{BookingsPath: "week.xlsx"},
		NewUploader: func(config.Config, string) (pipeline.Uploader, error) {
			return fakeUploader{byPath: map[string]*model.Upload{"week.xlsx": bookingsUpload()}}, nil
		},
		Recorder: rec,
	})
}

func runResult(t *testing.T) *pipeline.Result {
	t.Helper()
	up := fakeUploader{byPath: map[string]*model.Upload{"week.xlsx": bookingsUpload()}}
	res, err := pipeline.Run(context.Background(), up, pipeline.Request{BookingsPath: "week.xlsx"})
	require.NoError(t, err)
	return res
}

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	next, ok := m.(App)
	require.True(t, ok)
	return next, cmd
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 0
		for i, tab := range components.Tabs {
			w := components.TabVisualWidth(tab, i == active)
			assert.Equal(t, i, a.tabAtX(pos+w/2), "active=%d tab=%d", active, i)
			pos += w + 1
		}
		assert.Equal(t, -1, a.tabAtX(pos+50))
	}
}

func TestRunDoneAppliesDashboardAndRecords(t *testing.T) {
	rec := &fakeRecorder{}
	a := newTestApp(rec)
	a.running = true

	a, cmd := update(t, a, runDoneMsg{res: runResult(t)})
	assert.NotNil(t, cmd, "notice expiry should be scheduled")
	assert.False(t, a.running)
	require.NotNil(t, a.dashboard)
	assert.InDelta(t, 520.0, a.dashboard.TotalActual(), 1e-9)
	assert.InDelta(t, 104.0, a.dashboard.AvgChargePerBooking, 1e-9)

	require.NotNil(t, a.notice)
	assert.Equal(t, notify.LevelSuccess, a.notice.Level)
	assert.Equal(t, "Weekly bookings uploaded successfully.", a.notice.Message)

	require.Len(t, rec.runs, 1)
	assert.Equal(t, "week.xlsx", rec.runs[0].bookings)
	assert.Equal(t, pipeline.OutcomeBookingsOnly.String(), rec.runs[0].outcome)
	assert.Same(t, a.dashboard, rec.runs[0].d)
}

func TestRunFailureKeepsDashboard(t *testing.T) {
	a := newTestApp(nil)
	prev := &model.Dashboard{AvgChargePerBooking: 42}
	a.dashboard = prev
	a.running = true

	a, _ = update(t, a, runDoneMsg{err: &uploadErr{}})
	assert.Same(t, prev, a.dashboard)
	require.NotNil(t, a.notice)
	assert.Equal(t, notify.LevelError, a.notice.Level)
	assert.Contains(t, a.notice.Message, "Failed to process files")
}

type uploadErr struct{}

func (*uploadErr) Error() string { return "connection refused" }

func TestNoticeExpiryOnlyClearsMatchingID(t *testing.T) {
	a := newTestApp(nil)
	a.postNotice(notify.LevelInfo, "first")
	first := a.notice.ID
	a.postNotice(notify.LevelWarn, "second")
	second := a.notice.ID
	require.NotEqual(t, first, second)

	// The timer from the superseded notice must not clear the new one.
	a, _ = update(t, a, noticeExpiredMsg{id: first})
	require.NotNil(t, a.notice)
	assert.Equal(t, "second", a.notice.Message)

	a, _ = update(t, a, noticeExpiredMsg{id: second})
	assert.Nil(t, a.notice)
}

func TestRerunIgnoredWhileRunning(t *testing.T) {
	a := newTestApp(nil)
	a.running = true

	a, cmd := update(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Nil(t, cmd)
	assert.True(t, a.running)
	assert.Nil(t, a.notice)
}

func TestRerunWithoutBookingsPostsError(t *testing.T) {
	a := newTestApp(nil)
	a.req = pipeline.Request{}

	a, cmd := update(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.NotNil(t, cmd)
	assert.False(t, a.running)
	require.NotNil(t, a.notice)
	assert.Equal(t, "Please select your Weekly Bookings file.", a.notice.Message)
}

func TestStartRunSurfacesUploaderError(t *testing.T) {
	a := newTestApp(nil)
	a.opts.NewUploader = func(config.Config, string) (pipeline.Uploader, error) {
		return nil, errors.New("boom")
	}

	cmd := a.startRun()
	assert.NotNil(t, cmd)
	assert.False(t, a.running)
	require.NotNil(t, a.notice)
	assert.Equal(t, "Failed to process files: boom", a.notice.Message)
}

func TestTabKeys(t *testing.T) {
	a := newTestApp(nil)
	for key, want := range map[string]int{"s": tabStudents, "b": tabBus, "m": tabMarketing, "o": tabOverview} {
		a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
		assert.Equal(t, want, a.activeTab, key)
	}
}

func TestStudentsScrollClamps(t *testing.T) {
	var s studentsState
	s.scroll(-3, 10)
	assert.Equal(t, 0, s.offset)
	s.scroll(25, 10)
	assert.Equal(t, 9, s.offset)
	assert.True(t, s.handleKey("a", 10, 20))
	assert.True(t, s.showAll)
	assert.Equal(t, 0, s.offset)
	assert.False(t, s.handleKey("x", 10, 20))
}

func TestViewRendersEveryTab(t *testing.T) {
	a := newTestApp(nil)
	a, _ = update(t, a, tea.WindowSizeMsg{Width: 140, Height: 40})
	a, _ = update(t, a, runDoneMsg{res: runResult(t)})

	for i := range components.Tabs {
		a.activeTab = i
		assert.NotEmpty(t, a.View(), "tab %d", i)
	}
}

func TestSpendShare(t *testing.T) {
	assert.InDelta(t, 0.25, spendShare(250, 1000), 1e-9)
	assert.InDelta(t, 1.0, spendShare(50, 0), 1e-9)
	assert.Zero(t, spendShare(0, 0))
}

func TestMarketingTabShowsSpendGauge(t *testing.T) {
	a := newTestApp(nil)
	a, _ = update(t, a, tea.WindowSizeMsg{Width: 140, Height: 40})
	a, _ = update(t, a, runDoneMsg{res: runResult(t)})

	d := *a.dashboard
	d.MarketingAnalytics = &model.MarketingSummary{
		CampaignCount:         2,
		TotalSpend:            250,
		TotalPredictedRevenue: 1000,
		Weeks: []model.MarketingWeekPoint{
			{Label: "Week 1", Spend: 100, Revenue: 400},
			{Label: "Week 2", Spend: 150, Revenue: 600},
		},
	}
	a.dashboard = &d

	out := a.renderMarketingTab(120)
	assert.Contains(t, out, "Cost")
	assert.Contains(t, out, "25%")
}
