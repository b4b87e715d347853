package pipeline

import (
	"errors"

	"github.com/theirongolddev/chargesense/internal/notify"
	"github.com/theirongolddev/chargesense/internal/upload"
)

const noAnalyticsMessage = "Upload successful, but no analytics returned."

// Notice maps a result to the single message shown for the run.
func (r *Result) Notice() (notify.Level, string) {
	var level notify.Level
	var msg string

	switch r.Outcome {
	case OutcomeComplete:
		level, msg = notify.LevelSuccess, "Weekly bookings and marketing data uploaded successfully."
	case OutcomeMarketingEmpty:
		level, msg = notify.LevelWarn, "Weekly bookings uploaded. Marketing file uploaded, but no analytics returned."
	case OutcomeMarketingFailed:
		level, msg = notify.LevelWarn, "Weekly bookings uploaded. Marketing upload failed: "+ErrorMessage(r.MarketingErr)
	default:
		level, msg = notify.LevelSuccess, "Weekly bookings uploaded successfully."
	}

	if r.Bookings.Empty {
		return notify.LevelWarn, noAnalyticsMessage + " " + msg
	}
	return level, msg
}

// ErrorMessage turns a run error into the text shown to the user.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var upErr *upload.Error
	switch {
	case errors.Is(err, ErrNoBookingsFile):
		return "Please select your Weekly Bookings file."
	case errors.Is(err, upload.ErrMissingEndpoint):
		return upload.ErrMissingEndpoint.Error()
	case errors.As(err, &upErr):
		return upErr.Error()
	default:
		return "Failed to process files: " + err.Error()
	}
}
