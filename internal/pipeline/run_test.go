package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/chargesense/internal/model"
	"github.com/theirongolddev/chargesense/internal/notify"
	"github.com/theirongolddev/chargesense/internal/upload"
)

type fakeUploader struct {
	responses map[string]*model.Upload
	errs      map[string]error
	calls     []string
}

func (f *fakeUploader) Upload(_ context.Context, path string) (*model.Upload, error) {
	f.calls = append(f.calls, path)
	if err := f.errs[path]; err != nil {
		return nil, err
	}
	if u, ok := f.responses[path]; ok {
		return u, nil
	}
	return &model.Upload{}, nil
}

func bookingsUpload() *model.Upload {
	return &model.Upload{
		Charges: scenarioCharges(),
		Segments: []model.Segment{
			{ID: "A", BookingCount: 2},
			{ID: "B", BookingCount: 3},
		},
		Bus:       []model.BusObservation{{Service: "Mon AM", Usage: 5}},
		WeekStart: "2025-09-01",
	}
}

func marketingUpload(weeks int) *model.Upload {
	m := &model.MarketingUpload{ROAS: model.ChannelROAS{Search: 2}}
	for i := 0; i < weeks; i++ {
		m.Weeks = append(m.Weeks, model.MarketingWeek{SearchSpend: 10, Revenue: 40})
	}
	return &model.Upload{Marketing: m}
}

func TestRun_NoBookingsFile(t *testing.T) {
	up := &fakeUploader{}
	_, err := Run(context.Background(), up, Request{MarketingPath: "m.xlsx"})
	require.ErrorIs(t, err, ErrNoBookingsFile)
	assert.Empty(t, up.calls)
	assert.Equal(t, "Please select your Weekly Bookings file.", ErrorMessage(err))
}

func TestRun_BookingsFailureStopsBeforeMarketing(t *testing.T) {
	up := &fakeUploader{errs: map[string]error{"b.xlsx": &upload.Error{StatusCode: 400, Message: "Missing sheet: Mon"}}}

	res, err := Run(context.Background(), up, Request{BookingsPath: "b.xlsx", MarketingPath: "m.xlsx"})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, []string{"b.xlsx"}, up.calls)
	assert.Equal(t, "Missing sheet: Mon", ErrorMessage(err))
}

func TestRun_BookingsOnly(t *testing.T) {
	up := &fakeUploader{responses: map[string]*model.Upload{"b.xlsx": bookingsUpload()}}

	res, err := Run(context.Background(), up, Request{BookingsPath: "b.xlsx"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeBookingsOnly, res.Outcome)
	assert.True(t, res.Outcome.Partial())
	assert.NotEmpty(t, res.RunID)
	assert.Nil(t, res.Marketing)

	assert.InDelta(t, 104.0, res.Bookings.AvgChargePerBooking, 1e-9)
	require.Len(t, res.Bookings.Students, 2)
	assert.Equal(t, 208.0, res.Bookings.Students[0].Predicted)
	assert.Equal(t, 312.0, res.Bookings.Students[1].Predicted)
	assert.Len(t, res.Bookings.Bus, 20)
	assert.Len(t, res.Bookings.Weekly, 5)

	level, msg := res.Notice()
	assert.Equal(t, notify.LevelSuccess, level)
	assert.Equal(t, "Weekly bookings uploaded successfully.", msg)
}

func TestRun_Complete(t *testing.T) {
	up := &fakeUploader{responses: map[string]*model.Upload{
		"b.xlsx": bookingsUpload(),
		"m.xlsx": marketingUpload(2),
	}}

	res, err := Run(context.Background(), up, Request{BookingsPath: "b.xlsx", MarketingPath: "m.xlsx"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.xlsx", "m.xlsx"}, up.calls, "sequential, bookings first")
	assert.Equal(t, OutcomeComplete, res.Outcome)
	assert.False(t, res.Outcome.Partial())
	require.NotNil(t, res.Marketing)
	assert.Equal(t, 2, res.Marketing.CampaignCount)

	level, _ := res.Notice()
	assert.Equal(t, notify.LevelSuccess, level)
}

func TestRun_MarketingEmpty(t *testing.T) {
	up := &fakeUploader{responses: map[string]*model.Upload{
		"b.xlsx": bookingsUpload(),
		"m.xlsx": marketingUpload(0),
	}}

	res, err := Run(context.Background(), up, Request{BookingsPath: "b.xlsx", MarketingPath: "m.xlsx"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeMarketingEmpty, res.Outcome)
	assert.Nil(t, res.Marketing)

	level, msg := res.Notice()
	assert.Equal(t, notify.LevelWarn, level)
	assert.Contains(t, msg, "Marketing file uploaded, but no analytics returned.")
}

func TestRun_MarketingFailed(t *testing.T) {
	up := &fakeUploader{
		responses: map[string]*model.Upload{"b.xlsx": bookingsUpload()},
		errs:      map[string]error{"m.xlsx": &upload.Error{StatusCode: 500}},
	}

	res, err := Run(context.Background(), up, Request{BookingsPath: "b.xlsx", MarketingPath: "m.xlsx"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeMarketingFailed, res.Outcome)
	require.Error(t, res.MarketingErr)
	assert.Len(t, res.Bookings.Students, 2, "bookings result survives")

	_, msg := res.Notice()
	assert.Equal(t, "Weekly bookings uploaded. Marketing upload failed: Upload failed", msg)
}

func TestRun_EmptyBookingsResponse(t *testing.T) {
	up := &fakeUploader{}
	res, err := Run(context.Background(), up, Request{BookingsPath: "b.xlsx"})
	require.NoError(t, err)
	assert.True(t, res.Bookings.Empty)

	level, msg := res.Notice()
	assert.Equal(t, notify.LevelWarn, level)
	assert.Contains(t, msg, "Upload successful, but no analytics returned.")
}

func TestErrorMessage(t *testing.T) {
	assert.Empty(t, ErrorMessage(nil))
	assert.Equal(t, upload.ErrMissingEndpoint.Error(), ErrorMessage(upload.ErrMissingEndpoint))
	assert.Equal(t, "Failed to process files: boom", ErrorMessage(errors.New("boom")))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "complete", OutcomeComplete.String())
	assert.Equal(t, "bookings-only", OutcomeBookingsOnly.String())
	assert.Equal(t, "marketing-empty", OutcomeMarketingEmpty.String())
	assert.Equal(t, "marketing-failed", OutcomeMarketingFailed.String())
	assert.Equal(t, "outcome(9)", Outcome(9).String())
}

func TestApply(t *testing.T) {
	prevMarketing := &model.MarketingSummary{CampaignCount: 4}
	prev := &model.Dashboard{RunID: "prev", MarketingAnalytics: prevMarketing}
	now := time.Date(2025, 9, 5, 12, 0, 0, 0, time.UTC)

	newMarketing := &model.MarketingSummary{CampaignCount: 1}
	tests := []struct {
		name    string
		outcome Outcome
		summary *model.MarketingSummary
		want    *model.MarketingSummary
	}{
		{"complete replaces", OutcomeComplete, newMarketing, newMarketing},
		{"empty clears", OutcomeMarketingEmpty, nil, nil},
		{"skipped keeps", OutcomeBookingsOnly, nil, prevMarketing},
		{"failed keeps", OutcomeMarketingFailed, nil, prevMarketing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := &Result{
				RunID:     "next",
				Bookings:  Derive(bookingsUpload()),
				Outcome:   tt.outcome,
				Marketing: tt.summary,
			}
			next := Apply(prev, res, now)

			assert.NotSame(t, prev, next)
			assert.Equal(t, "prev", prev.RunID, "previous dashboard untouched")
			assert.Same(t, prevMarketing, prev.MarketingAnalytics)

			assert.Equal(t, "next", next.RunID)
			assert.Equal(t, now, next.GeneratedAt)
			assert.Equal(t, "2025-09-01", next.WeekStart)
			assert.Len(t, next.WeeklyWithPredicted, 5)
			assert.Len(t, next.NormalizedBus, 20)
			assert.Equal(t, tt.want, next.MarketingAnalytics)
		})
	}
}

func TestApply_NilPrevious(t *testing.T) {
	res := &Result{RunID: "r", Bookings: Derive(nil), Outcome: OutcomeBookingsOnly}
	d := Apply(nil, res, time.Now())
	assert.Nil(t, d.MarketingAnalytics)
	assert.Len(t, d.WeeklyWithPredicted, 5)
	assert.Len(t, d.NormalizedBus, 20)
	assert.Empty(t, d.StudentData)
}

func TestRequestDescribe(t *testing.T) {
	assert.Equal(t, "week.xlsx", Request{BookingsPath: "/in/week.xlsx"}.Describe())
	assert.Equal(t, "week.xlsx + marketing.csv",
		Request{BookingsPath: "/in/week.xlsx", MarketingPath: "/in/marketing.csv"}.Describe())
}
