package database

// Schema contains all SQL statements for creating tables and indexes
const Schema = `
-- Strava tokens table: OAuth credentials for connected Strava accounts
CREATE TABLE IF NOT EXISTS strava_tokens (
    id INTEGER PRIMARY KEY AUTOINCREMENT,

    user_id TEXT NOT NULL,
    strava_athlete_id TEXT NOT NULL,

    access_token TEXT NOT NULL,
    refresh_token TEXT NOT NULL,
    expires_at INTEGER NOT NULL,  -- Unix timestamp

    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- User settings table: per-user preferences
CREATE TABLE IF NOT EXISTS user_settings (
    user_id TEXT PRIMARY KEY,
    watch_activities BOOLEAN NOT NULL DEFAULT 0,

    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Activities table: local denormalized copies of Strava activities
CREATE TABLE IF NOT EXISTS activities (
    id INTEGER PRIMARY KEY AUTOINCREMENT,

    strava_id INTEGER NOT NULL,
    user_id TEXT NOT NULL,

    name TEXT NOT NULL,
    type TEXT NOT NULL,
    distance REAL NOT NULL DEFAULT 0,
    moving_time INTEGER NOT NULL DEFAULT 0,
    total_elevation_gain REAL NOT NULL DEFAULT 0,
    start_date TEXT NOT NULL,

    start_latlng TEXT,  -- JSON array [lat, lng]
    end_latlng TEXT,
    average_speed REAL NOT NULL DEFAULT 0,
    max_speed REAL NOT NULL DEFAULT 0,

    created_at INTEGER NOT NULL
);

-- Indexes for strava_tokens table
-- Note: no unique constraint on (user_id, strava_athlete_id). Multiple rows
-- per athlete are tolerated; lookups take the oldest row.
CREATE INDEX IF NOT EXISTS idx_strava_tokens_athlete_id ON strava_tokens(strava_athlete_id);
CREATE INDEX IF NOT EXISTS idx_strava_tokens_user_id ON strava_tokens(user_id);

-- Indexes for activities table
CREATE INDEX IF NOT EXISTS idx_activities_user_id ON activities(user_id);
CREATE INDEX IF NOT EXISTS idx_activities_strava_id ON activities(strava_id);
CREATE INDEX IF NOT EXISTS idx_activities_user_start ON activities(user_id, start_date DESC);
`
