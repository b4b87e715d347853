// Package store provides a SQLite-backed cache of past runs and the inbox
// files already processed.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/chargesense/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// timeLayout has a fixed width so generated_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Cache provides SQLite-backed run history.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// RunRecord is one row of run history.
type RunRecord struct {
	RunID         string
	GeneratedAt   time.Time
	WeekStart     string
	BookingsFile  string
	MarketingFile string
	Outcome       string
	TotalActual   float64
	TotalBookings int
	AvgCharge     float64
	Students      int
	HasMarketing  bool
}

// SaveRun stores the dashboard produced by a run.
func (c *Cache) SaveRun(bookingsFile, marketingFile, outcome string, d *model.Dashboard) error {
	if d == nil {
		return errors.New("store: nil dashboard")
	}
	blob, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding dashboard: %w", err)
	}

	_, err = c.db.Exec(`INSERT OR REPLACE INTO runs (
		run_id, generated_at, week_start, bookings_file, marketing_file, outcome,
		total_actual, total_bookings, avg_charge, students, has_marketing, dashboard_json
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.RunID,
		d.GeneratedAt.UTC().Format(timeLayout),
		d.WeekStart,
		bookingsFile,
		nullStr(marketingFile),
		outcome,
		d.TotalActual(),
		d.TotalBookings(),
		d.AvgChargePerBooking,
		len(d.StudentData),
		boolToInt(d.MarketingAnalytics != nil),
		string(blob),
	)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// LatestDashboard returns the most recent stored dashboard, or nil if no
// run has been recorded.
func (c *Cache) LatestDashboard() (*model.Dashboard, error) {
	var blob string
	err := c.db.QueryRow(
		"SELECT dashboard_json FROM runs ORDER BY generated_at DESC LIMIT 1",
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading latest run: %w", err)
	}

	var d model.Dashboard
	if err := json.Unmarshal([]byte(blob), &d); err != nil {
		return nil, fmt.Errorf("decoding dashboard: %w", err)
	}
	return &d, nil
}

// ListRuns returns up to limit runs, newest first.
func (c *Cache) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := c.db.Query(`SELECT
		run_id, generated_at, week_start, bookings_file, marketing_file, outcome,
		total_actual, total_bookings, avg_charge, students, has_marketing
		FROM runs ORDER BY generated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var generatedAt string
		var weekStart, marketing sql.NullString
		var hasMarketing int
		if err := rows.Scan(
			&r.RunID, &generatedAt, &weekStart, &r.BookingsFile, &marketing, &r.Outcome,
			&r.TotalActual, &r.TotalBookings, &r.AvgCharge, &r.Students, &hasMarketing,
		); err != nil {
			return nil, err
		}
		r.GeneratedAt, _ = time.Parse(timeLayout, generatedAt)
		r.WeekStart = weekStart.String
		r.MarketingFile = marketing.String
		r.HasMarketing = hasMarketing != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunCount returns the number of stored runs.
func (c *Cache) RunCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	return count, err
}

// PruneRuns keeps the newest keep runs and deletes the rest.
func (c *Cache) PruneRuns(keep int) (int64, error) {
	res, err := c.db.Exec(`DELETE FROM runs WHERE run_id NOT IN (
		SELECT run_id FROM runs ORDER BY generated_at DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// FileInfo holds the tracked mtime and size for a file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
	Kind      string
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (c *Cache) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := c.db.Query("SELECT file_path, mtime_ns, size_bytes, kind FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes, &fi.Kind); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// TrackFile records an inbox file as processed.
func (c *Cache) TrackFile(path string, mtimeNs, sizeBytes int64, kind string) error {
	_, err := c.db.Exec(`INSERT OR REPLACE INTO file_tracker
		(file_path, mtime_ns, size_bytes, kind, processed_at) VALUES (?, ?, ?, ?, ?)`,
		path, mtimeNs, sizeBytes, kind, time.Now().UTC().Format(time.RFC3339))
	return err
}

// DeleteFileTracker removes a file tracking entry.
func (c *Cache) DeleteFileTracker(filePath string) error {
	_, err := c.db.Exec("DELETE FROM file_tracker WHERE file_path = ?", filePath)
	return err
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
