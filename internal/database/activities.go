package database

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ennygo-server/internal/metrics"
)

// ActivityRecord is a local denormalized copy of a Strava activity
type ActivityRecord struct {
	ID                 int64
	StravaID           int64
	UserID             string
	Name               string
	Type               string
	Distance           float64
	MovingTime         int64
	TotalElevationGain float64
	StartDate          string
	StartLatLng        *string
	EndLatLng          *string
	AverageSpeed       float64
	MaxSpeed           float64
	CreatedAt          int64
}

// InsertActivity inserts a new activity record
func (db *DB) InsertActivity(a *ActivityRecord) error {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpInsertActivity))
	defer timer.ObserveDuration()

	a.CreatedAt = time.Now().Unix()

	result, err := db.conn.Exec(`
		INSERT INTO activities (
			strava_id, user_id, name, type, distance, moving_time,
			total_elevation_gain, start_date, start_latlng, end_latlng,
			average_speed, max_speed, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.StravaID, a.UserID, a.Name, a.Type, a.Distance, a.MovingTime,
		a.TotalElevationGain, a.StartDate, a.StartLatLng, a.EndLatLng,
		a.AverageSpeed, a.MaxSpeed, a.CreatedAt)

	if err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpInsertActivity).Inc()
		return fmt.Errorf("failed to insert activity: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	a.ID = id

	return nil
}

// ListActivitiesByUser returns a page of a user's activities, newest first
func (db *DB) ListActivitiesByUser(userID string, page, perPage int) ([]*ActivityRecord, error) {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpListActivitiesByUser))
	defer timer.ObserveDuration()

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 200 {
		perPage = 30
	}
	offset := (page - 1) * perPage

	rows, err := db.conn.Query(`
		SELECT id, strava_id, user_id, name, type, distance, moving_time,
		       total_elevation_gain, start_date, start_latlng, end_latlng,
		       average_speed, max_speed, created_at
		FROM activities
		WHERE user_id = ?
		ORDER BY start_date DESC, id DESC
		LIMIT ? OFFSET ?
	`, userID, perPage, offset)
	if err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpListActivitiesByUser).Inc()
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*ActivityRecord
	for rows.Next() {
		var a ActivityRecord
		err := rows.Scan(
			&a.ID, &a.StravaID, &a.UserID, &a.Name, &a.Type, &a.Distance, &a.MovingTime,
			&a.TotalElevationGain, &a.StartDate, &a.StartLatLng, &a.EndLatLng,
			&a.AverageSpeed, &a.MaxSpeed, &a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}

	return activities, nil
}

// CountActivitiesByUser returns the number of stored activities for a user
func (db *DB) CountActivitiesByUser(userID string) (int, error) {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpCountActivitiesByUser))
	defer timer.ObserveDuration()

	var count int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM activities WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpCountActivitiesByUser).Inc()
		return 0, fmt.Errorf("failed to count activities: %w", err)
	}
	return count, nil
}
