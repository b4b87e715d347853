package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/chargesense/internal/model"
)

// ErrNoBookingsFile is returned before any I/O when no bookings export was given.
var ErrNoBookingsFile = errors.New("no weekly bookings file selected")

// Uploader sends one export file and returns the decoded response.
type Uploader interface {
	Upload(ctx context.Context, path string) (*model.Upload, error)
}

// Request names the files for one run. MarketingPath is optional.
type Request struct {
	BookingsPath  string
	MarketingPath string
}

// Describe names the request's files for status lines.
func (r Request) Describe() string {
	if r.MarketingPath == "" {
		return filepath.Base(r.BookingsPath)
	}
	return filepath.Base(r.BookingsPath) + " + " + filepath.Base(r.MarketingPath)
}

// Outcome describes how far a run got once the bookings upload succeeded.
type Outcome int

const (
	// OutcomeComplete: both files uploaded and marketing analytics returned.
	OutcomeComplete Outcome = iota
	// OutcomeBookingsOnly: no marketing file was given.
	OutcomeBookingsOnly
	// OutcomeMarketingEmpty: marketing uploaded but carried no weeks.
	OutcomeMarketingEmpty
	// OutcomeMarketingFailed: the marketing upload itself failed.
	OutcomeMarketingFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeComplete:
		return "complete"
	case OutcomeBookingsOnly:
		return "bookings-only"
	case OutcomeMarketingEmpty:
		return "marketing-empty"
	case OutcomeMarketingFailed:
		return "marketing-failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Partial reports whether bookings succeeded but marketing was skipped,
// empty or failed.
func (o Outcome) Partial() bool {
	return o != OutcomeComplete
}

// Result is the outcome of a run whose bookings step succeeded.
type Result struct {
	RunID     string
	Request   Request
	Bookings  Bookings
	Marketing *model.MarketingSummary
	Outcome   Outcome
	// MarketingErr is set only for OutcomeMarketingFailed.
	MarketingErr error
	Elapsed      time.Duration
}

// Run uploads the bookings export, derives its analytics and then, only if
// that worked, uploads the optional marketing export. A bookings failure
// is returned as an error; a marketing failure is recorded on the result.
func Run(ctx context.Context, up Uploader, req Request) (*Result, error) {
	if req.BookingsPath == "" {
		return nil, ErrNoBookingsFile
	}

	start := time.Now()
	upload, err := up.Upload(ctx, req.BookingsPath)
	if err != nil {
		return nil, fmt.Errorf("uploading bookings: %w", err)
	}

	res := &Result{
		RunID:    uuid.NewString(),
		Request:  req,
		Bookings: Derive(upload),
		Outcome:  OutcomeBookingsOnly,
	}
	slog.Info("bookings processed",
		"run", res.RunID,
		"charges", len(upload.Charges),
		"segments", len(upload.Segments),
		"bus", len(upload.Bus),
	)

	if req.MarketingPath != "" {
		res.runMarketing(ctx, up)
	}

	res.Elapsed = time.Since(start)
	return res, nil
}

func (r *Result) runMarketing(ctx context.Context, up Uploader) {
	upload, err := up.Upload(ctx, r.Request.MarketingPath)
	if err != nil {
		slog.Warn("marketing upload failed", "run", r.RunID, "err", err)
		r.Outcome = OutcomeMarketingFailed
		r.MarketingErr = err
		return
	}

	r.Marketing = AggregateMarketing(upload.Marketing)
	if r.Marketing == nil {
		r.Outcome = OutcomeMarketingEmpty
		return
	}
	r.Outcome = OutcomeComplete
	slog.Info("marketing processed", "run", r.RunID, "weeks", r.Marketing.CampaignCount)
}
