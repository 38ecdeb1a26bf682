package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ennygo-server/internal/metrics"
)

// UserSettings represents a user's preferences
type UserSettings struct {
	UserID          string
	WatchActivities bool
	CreatedAt       int64
	UpdatedAt       int64
}

// FindSettingsByUserID retrieves the settings row for a user.
// Returns nil if no row exists.
func (db *DB) FindSettingsByUserID(userID string) (*UserSettings, error) {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpFindSettingsByUserID))
	defer timer.ObserveDuration()

	var s UserSettings
	err := db.conn.QueryRow(`
		SELECT user_id, watch_activities, created_at, updated_at
		FROM user_settings WHERE user_id = ?
	`, userID).Scan(&s.UserID, &s.WatchActivities, &s.CreatedAt, &s.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpFindSettingsByUserID).Inc()
		return nil, fmt.Errorf("failed to find settings: %w", err)
	}
	return &s, nil
}

// UpsertSettings creates or updates the settings row for a user
func (db *DB) UpsertSettings(userID string, watchActivities bool) error {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpUpsertSettings))
	defer timer.ObserveDuration()

	now := time.Now().Unix()

	_, err := db.conn.Exec(`
		INSERT INTO user_settings (user_id, watch_activities, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			watch_activities = excluded.watch_activities,
			updated_at = excluded.updated_at
	`, userID, watchActivities, now, now)

	if err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpUpsertSettings).Inc()
		return fmt.Errorf("failed to upsert settings: %w", err)
	}
	return nil
}
