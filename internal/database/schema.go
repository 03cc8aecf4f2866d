package database

// Schema contains all SQL statements for creating tables and indexes
const Schema = `
-- Step samples table: One row per step-count sample from the export.
-- Truncated and reloaded on every pipeline run.
CREATE TABLE IF NOT EXISTS step_samples (
    id INTEGER PRIMARY KEY AUTOINCREMENT,

    -- Calendar day the sample belongs to, as written by the source device
    date TEXT NOT NULL,

    -- Sample interval (Unix timestamps)
    start_ts INTEGER NOT NULL,
    end_ts INTEGER NOT NULL,

    value INTEGER NOT NULL,
    unit TEXT,
    source_name TEXT
);

CREATE INDEX IF NOT EXISTS idx_step_samples_date ON step_samples(date);
CREATE INDEX IF NOT EXISTS idx_step_samples_source ON step_samples(source_name);

-- Workouts table: One row per workout session from the export.
-- Truncated and reloaded on every pipeline run.
CREATE TABLE IF NOT EXISTS workouts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,

    date TEXT NOT NULL,
    activity_type TEXT NOT NULL,

    -- Session interval (Unix timestamps); duration is derived from it
    start_ts INTEGER NOT NULL,
    end_ts INTEGER NOT NULL,
    duration_sec INTEGER NOT NULL,

    -- Optional measured quantities
    distance REAL,
    distance_unit TEXT,
    energy_kcal REAL,
    energy_unit TEXT,

    source_name TEXT
);

CREATE INDEX IF NOT EXISTS idx_workouts_date ON workouts(date);
CREATE INDEX IF NOT EXISTS idx_workouts_activity_type ON workouts(activity_type);

-- Dates dimension: One row per calendar day spanning the full range of
-- loaded facts, so daily marts include zero-activity days
CREATE TABLE IF NOT EXISTS dates (
    date TEXT PRIMARY KEY,
    year INTEGER NOT NULL,
    quarter INTEGER NOT NULL,
    month INTEGER NOT NULL,
    day_of_month INTEGER NOT NULL,
    iso_dow INTEGER NOT NULL,     -- 1 = Monday .. 7 = Sunday
    year_month TEXT NOT NULL,     -- e.g. "2023-10"
    is_weekend INTEGER NOT NULL
);

-- Daily step totals
CREATE TABLE IF NOT EXISTS steps_daily (
    date TEXT PRIMARY KEY,
    steps INTEGER NOT NULL
);

-- Daily activity summary: steps and workout rollups per calendar day,
-- zero-filled across the whole dates dimension
CREATE TABLE IF NOT EXISTS activity_daily (
    date TEXT PRIMARY KEY,
    steps INTEGER NOT NULL,
    workouts_ct INTEGER NOT NULL,
    workout_minutes REAL NOT NULL,
    workout_distance REAL NOT NULL,
    workout_energy REAL NOT NULL
);

-- Per-type daily workout rollup
CREATE TABLE IF NOT EXISTS workouts_by_type_daily (
    date TEXT NOT NULL,
    activity_type TEXT NOT NULL,
    workouts_ct INTEGER NOT NULL,
    minutes_total REAL NOT NULL,
    distance_total REAL NOT NULL,
    energy_total REAL NOT NULL,

    PRIMARY KEY (date, activity_type)
);

-- Monthly re-grouping of activity_daily
CREATE TABLE IF NOT EXISTS activity_monthly (
    year_month TEXT PRIMARY KEY,
    days_ct INTEGER NOT NULL,
    steps_total INTEGER NOT NULL,
    steps_avg REAL NOT NULL,
    workouts_ct INTEGER NOT NULL,
    workout_minutes REAL NOT NULL,
    workout_distance REAL NOT NULL,
    workout_energy REAL NOT NULL
);

-- Weekday re-grouping of activity_daily
CREATE TABLE IF NOT EXISTS activity_weekday (
    iso_dow INTEGER PRIMARY KEY,
    weekday TEXT NOT NULL,
    days_ct INTEGER NOT NULL,
    steps_total INTEGER NOT NULL,
    steps_avg REAL NOT NULL,
    workouts_ct INTEGER NOT NULL,
    workout_minutes REAL NOT NULL
);

-- Step streaks: Runs of consecutive days meeting the step goal
CREATE TABLE IF NOT EXISTS step_streaks (
    streak_no INTEGER PRIMARY KEY,
    start_date TEXT NOT NULL,
    end_date TEXT NOT NULL,
    length INTEGER NOT NULL,
    is_current BOOLEAN NOT NULL DEFAULT 0
);

-- Streak summary: Single-row rollup of the streak computation
CREATE TABLE IF NOT EXISTS streak_summary (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    threshold INTEGER NOT NULL,
    longest_length INTEGER NOT NULL,
    longest_start TEXT,
    longest_end TEXT,
    current_length INTEGER NOT NULL,
    computed_at INTEGER NOT NULL
);

-- ETL runs table: Ledger of pipeline runs and their outcomes
CREATE TABLE IF NOT EXISTS etl_runs (
    run_id TEXT PRIMARY KEY,
    export_path TEXT,

    started_at INTEGER NOT NULL,
    finished_at INTEGER,

    -- Extract counters
    records_seen INTEGER NOT NULL DEFAULT 0,
    step_rows INTEGER NOT NULL DEFAULT 0,
    workout_rows INTEGER NOT NULL DEFAULT 0,
    skipped_total INTEGER NOT NULL DEFAULT 0,
    skipped_json TEXT,

    status TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_etl_runs_started ON etl_runs(started_at);
`
