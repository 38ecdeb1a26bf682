package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ennygo-server/internal/metrics"
)

// TokenRecord represents a user's linked Strava credential
type TokenRecord struct {
	ID              int64
	UserID          string
	StravaAthleteID string
	AccessToken     string
	RefreshToken    string
	ExpiresAt       int64
	CreatedAt       int64
	UpdatedAt       int64
}

// CreateToken inserts a new token record
func (db *DB) CreateToken(t *TokenRecord) error {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpCreateToken))
	defer timer.ObserveDuration()

	now := time.Now().Unix()
	t.CreatedAt = now
	t.UpdatedAt = now

	result, err := db.conn.Exec(`
		INSERT INTO strava_tokens (
			user_id, strava_athlete_id, access_token, refresh_token, expires_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.UserID, t.StravaAthleteID, t.AccessToken, t.RefreshToken, t.ExpiresAt,
		t.CreatedAt, t.UpdatedAt)

	if err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpCreateToken).Inc()
		return fmt.Errorf("failed to create token: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	t.ID = id

	return nil
}

// FindTokenByAthleteID retrieves the token record for a Strava athlete id.
// Multiple rows per athlete are tolerated; the oldest row wins.
// Returns nil if no record exists.
func (db *DB) FindTokenByAthleteID(athleteID string) (*TokenRecord, error) {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpFindTokenByAthleteID))
	defer timer.ObserveDuration()

	return db.findToken(`
		SELECT id, user_id, strava_athlete_id, access_token, refresh_token, expires_at,
		       created_at, updated_at
		FROM strava_tokens WHERE strava_athlete_id = ?
		ORDER BY id ASC LIMIT 1
	`, athleteID)
}

// FindTokenByUserID retrieves the token record for an internal user id.
// Returns nil if no record exists.
func (db *DB) FindTokenByUserID(userID string) (*TokenRecord, error) {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpFindTokenByUserID))
	defer timer.ObserveDuration()

	return db.findToken(`
		SELECT id, user_id, strava_athlete_id, access_token, refresh_token, expires_at,
		       created_at, updated_at
		FROM strava_tokens WHERE user_id = ?
		ORDER BY id ASC LIMIT 1
	`, userID)
}

func (db *DB) findToken(query string, arg any) (*TokenRecord, error) {
	var t TokenRecord
	err := db.conn.QueryRow(query, arg).Scan(
		&t.ID, &t.UserID, &t.StravaAthleteID, &t.AccessToken, &t.RefreshToken, &t.ExpiresAt,
		&t.CreatedAt, &t.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find token: %w", err)
	}
	return &t, nil
}

// UpdateTokenByAthleteID replaces the stored tokens for all rows matching
// a Strava athlete id
func (db *DB) UpdateTokenByAthleteID(athleteID, accessToken, refreshToken string, expiresAt int64) error {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpUpdateToken))
	defer timer.ObserveDuration()

	result, err := db.conn.Exec(`
		UPDATE strava_tokens
		SET access_token = ?, refresh_token = ?, expires_at = ?, updated_at = ?
		WHERE strava_athlete_id = ?
	`, accessToken, refreshToken, expiresAt, time.Now().Unix(), athleteID)

	if err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpUpdateToken).Inc()
		return fmt.Errorf("failed to update token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("token not found")
	}

	return nil
}

// DeleteTokensByUserID removes all token rows for a user
func (db *DB) DeleteTokensByUserID(userID string) error {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpDeleteTokens))
	defer timer.ObserveDuration()

	_, err := db.conn.Exec(`DELETE FROM strava_tokens WHERE user_id = ?`, userID)
	if err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpDeleteTokens).Inc()
		return fmt.Errorf("failed to delete tokens: %w", err)
	}
	return nil
}
