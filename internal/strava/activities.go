package strava

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ennygo-server/internal/metrics"
)

// Activity is the subset of a Strava activity this service cares about
type Activity struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Type               string    `json:"type"`
	Distance           float64   `json:"distance"`
	MovingTime         int64     `json:"moving_time"`
	ElapsedTime        int64     `json:"elapsed_time"`
	TotalElevationGain float64   `json:"total_elevation_gain"`
	StartDate          string    `json:"start_date"`
	StartLatLng        []float64 `json:"start_latlng,omitempty"`
	EndLatLng          []float64 `json:"end_latlng,omitempty"`
	AverageSpeed       float64   `json:"average_speed"`
	MaxSpeed           float64   `json:"max_speed"`
}

// CreateActivityParams are the fields accepted by the manual activity upload
type CreateActivityParams struct {
	Name           string
	Type           string
	StartDateLocal string
	ElapsedTime    int64
	Description    string
	Distance       float64
	Trainer        int
	Commute        int
}

// GetActivity fetches the full details of one activity
func (c *Client) GetActivity(ctx context.Context, activityID int64, accessToken string) (*Activity, error) {
	path := fmt.Sprintf("/activities/%d", activityID)

	body, err := c.doRequest(ctx, metrics.OpGetActivity, http.MethodGet, path, accessToken, nil, "")
	if err != nil {
		c.logger.Error("failed to fetch activity", "activity_id", activityID, "error", err)
		return nil, ErrFetchActivity
	}

	var activity Activity
	if err := json.Unmarshal(body, &activity); err != nil {
		c.logger.Error("failed to decode activity", "activity_id", activityID, "error", err)
		return nil, ErrFetchActivity
	}

	return &activity, nil
}

// UpdateActivityTitle renames a remote activity and returns the updated copy
func (c *Client) UpdateActivityTitle(ctx context.Context, activityID int64, title, accessToken string) (*Activity, error) {
	path := fmt.Sprintf("/activities/%d", activityID)

	payload, err := json.Marshal(map[string]string{"name": title})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal title update: %w", err)
	}

	body, err := c.doRequest(ctx, metrics.OpUpdateActivityTitle, http.MethodPut, path, accessToken, bytes.NewReader(payload), "application/json")
	if err != nil {
		c.logger.Error("failed to update activity title", "activity_id", activityID, "error", err)
		return nil, ErrUpdateActivityTitle
	}

	var activity Activity
	if err := json.Unmarshal(body, &activity); err != nil {
		c.logger.Error("failed to decode updated activity", "activity_id", activityID, "error", err)
		return nil, ErrUpdateActivityTitle
	}

	return &activity, nil
}

// ListAthleteActivities fetches a page of the authenticated athlete's activities
func (c *Client) ListAthleteActivities(ctx context.Context, accessToken string, page, perPage int) ([]*Activity, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 200 {
		perPage = 30
	}

	params := url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}
	path := "/athlete/activities?" + params.Encode()

	body, err := c.doRequest(ctx, metrics.OpListAthleteActivities, http.MethodGet, path, accessToken, nil, "")
	if err != nil {
		c.logger.Error("failed to fetch athlete activities", "page", page, "error", err)
		return nil, ErrFetchAthleteActivity
	}

	var activities []*Activity
	if err := json.Unmarshal(body, &activities); err != nil {
		c.logger.Error("failed to decode athlete activities", "error", err)
		return nil, ErrFetchAthleteActivity
	}

	return activities, nil
}

// GetAthlete fetches the authenticated athlete's profile
func (c *Client) GetAthlete(ctx context.Context, accessToken string) (json.RawMessage, error) {
	body, err := c.doRequest(ctx, metrics.OpGetAthlete, http.MethodGet, "/athlete", accessToken, nil, "")
	if err != nil {
		c.logger.Error("failed to fetch athlete data", "error", err)
		return nil, ErrFetchAthlete
	}

	return json.RawMessage(body), nil
}

// CreateActivity creates a manual activity. Unlike the other operations the
// raw error is propagated so the caller can surface it.
func (c *Client) CreateActivity(ctx context.Context, accessToken string, p CreateActivityParams) (*Activity, error) {
	if p.StartDateLocal == "" {
		p.StartDateLocal = time.Now().Format(time.RFC3339)
	}

	data := url.Values{
		"name":             {p.Name},
		"type":             {p.Type},
		"start_date_local": {p.StartDateLocal},
		"elapsed_time":     {strconv.FormatInt(p.ElapsedTime, 10)},
		"description":      {p.Description},
		"distance":         {strconv.FormatFloat(p.Distance, 'f', -1, 64)},
		"trainer":          {strconv.Itoa(p.Trainer)},
		"commute":          {strconv.Itoa(p.Commute)},
	}

	body, err := c.doRequest(ctx, metrics.OpCreateActivity, http.MethodPost, "/activities", accessToken,
		strings.NewReader(data.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		c.logger.Error("failed to create activity", "error", err)
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	var activity Activity
	if err := json.Unmarshal(body, &activity); err != nil {
		return nil, fmt.Errorf("failed to decode created activity: %w", err)
	}

	return &activity, nil
}
