package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    run_id               TEXT PRIMARY KEY,
    generated_at         TEXT NOT NULL,
    week_start           TEXT,
    bookings_file        TEXT NOT NULL,
    marketing_file       TEXT,
    outcome              TEXT NOT NULL,
    total_actual         REAL,
    total_bookings       INTEGER,
    avg_charge           REAL,
    students             INTEGER,
    has_marketing        INTEGER NOT NULL DEFAULT 0,
    dashboard_json       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS file_tracker (
    file_path            TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL,
    kind                 TEXT NOT NULL DEFAULT 'bookings',
    processed_at         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_generated ON runs(generated_at);
`
