// Package processor runs the webhook event pipeline: token lookup, refresh,
// settings check, remote title rewrite, and local persistence.
package processor

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"ennygo-server/internal/database"
	"ennygo-server/internal/metrics"
	"ennygo-server/internal/strava"
	"ennygo-server/internal/titles"
)

// Store is the persistence surface the processor depends on
type Store interface {
	FindTokenByAthleteID(athleteID string) (*database.TokenRecord, error)
	UpdateTokenByAthleteID(athleteID, accessToken, refreshToken string, expiresAt int64) error
	FindSettingsByUserID(userID string) (*database.UserSettings, error)
	InsertActivity(a *database.ActivityRecord) error
}

// API is the Strava surface the processor depends on
type API interface {
	RefreshToken(ctx context.Context, refreshToken string) (*strava.TokenResponse, error)
	GetActivity(ctx context.Context, activityID int64, accessToken string) (*strava.Activity, error)
	UpdateActivityTitle(ctx context.Context, activityID int64, title, accessToken string) (*strava.Activity, error)
}

// Event is a Strava webhook push notification
type Event struct {
	ObjectType     string `json:"object_type"`
	AspectType     string `json:"aspect_type"`
	ObjectID       int64  `json:"object_id"`
	OwnerID        int64  `json:"owner_id"`
	SubscriptionID int64  `json:"subscription_id"`
	EventTime      int64  `json:"event_time"`
}

// Status classifies how an event's processing ended
type Status string

const (
	StatusProcessed Status = "processed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Skip and failure reasons
const (
	ReasonIgnoredEvent      = "ignored_event"
	ReasonNoToken           = "no_token"
	ReasonTokenLookupFailed = "token_lookup_failed"
	ReasonRefreshFailed     = "refresh_failed"
	ReasonTokenUpdateFailed = "token_update_failed"
	ReasonNoSettings        = "no_settings"
	ReasonWatchDisabled     = "watch_disabled"
	ReasonFetchFailed       = "fetch_failed"
	ReasonUpdateTitleFailed = "update_title_failed"
	ReasonInsertFailed      = "insert_failed"
)

// Outcome is the explicit result of processing one event. The remote sender
// never sees it; it exists for logs, metrics, and tests.
type Outcome struct {
	Status Status
	Reason string
	Err    error
}

// Processor orchestrates webhook event handling
type Processor struct {
	store  Store
	api    API
	titles *titles.Generator
	logger *slog.Logger
	now    func() time.Time
}

// New creates a processor
func New(store Store, api API, gen *titles.Generator) *Processor {
	return &Processor{
		store:  store,
		api:    api,
		titles: gen,
		logger: slog.Default(),
		now:    time.Now,
	}
}

// Process handles one webhook event. Each step is best-effort: any failure
// or miss stops processing without retry, and a late persistence failure
// does not undo the remote title change.
func (p *Processor) Process(ctx context.Context, event Event) Outcome {
	start := time.Now()
	outcome := p.process(ctx, event)

	reason := outcome.Reason
	if reason == "" {
		reason = "ok"
	}
	metrics.WebhookOutcomesTotal.WithLabelValues(string(outcome.Status), reason).Inc()
	metrics.WebhookProcessingDuration.WithLabelValues(string(outcome.Status)).Observe(time.Since(start).Seconds())

	switch outcome.Status {
	case StatusFailed:
		p.logger.Error("webhook event failed",
			"object_id", event.ObjectID,
			"owner_id", event.OwnerID,
			"reason", outcome.Reason,
			"error", outcome.Err)
	case StatusSkipped:
		p.logger.Info("webhook event skipped",
			"object_id", event.ObjectID,
			"owner_id", event.OwnerID,
			"reason", outcome.Reason)
	default:
		p.logger.Info("webhook event processed",
			"object_id", event.ObjectID,
			"owner_id", event.OwnerID)
	}

	return outcome
}

func (p *Processor) process(ctx context.Context, event Event) Outcome {
	// Only activity creations trigger processing
	if event.ObjectType != "activity" || event.AspectType != "create" {
		return Outcome{Status: StatusSkipped, Reason: ReasonIgnoredEvent}
	}

	athleteID := strconv.FormatInt(event.OwnerID, 10)

	token, err := p.store.FindTokenByAthleteID(athleteID)
	if err != nil {
		return Outcome{Status: StatusFailed, Reason: ReasonTokenLookupFailed, Err: err}
	}
	if token == nil {
		return Outcome{Status: StatusSkipped, Reason: ReasonNoToken}
	}

	accessToken := token.AccessToken
	if token.ExpiresAt <= p.now().Unix() {
		p.logger.Info("token expired, refreshing", "athlete_id", athleteID)

		refreshed, err := p.api.RefreshToken(ctx, token.RefreshToken)
		if err != nil {
			// Never fall back to the stale token
			return Outcome{Status: StatusFailed, Reason: ReasonRefreshFailed, Err: err}
		}

		if err := p.store.UpdateTokenByAthleteID(athleteID, refreshed.AccessToken, refreshed.RefreshToken, refreshed.ExpiresAt); err != nil {
			return Outcome{Status: StatusFailed, Reason: ReasonTokenUpdateFailed, Err: err}
		}

		accessToken = refreshed.AccessToken
	}

	settings, err := p.store.FindSettingsByUserID(token.UserID)
	if err != nil || settings == nil {
		return Outcome{Status: StatusSkipped, Reason: ReasonNoSettings, Err: err}
	}
	if !settings.WatchActivities {
		return Outcome{Status: StatusSkipped, Reason: ReasonWatchDisabled}
	}

	activity, err := p.api.GetActivity(ctx, event.ObjectID, accessToken)
	if err != nil {
		return Outcome{Status: StatusFailed, Reason: ReasonFetchFailed, Err: err}
	}

	title := p.titles.Next()

	if _, err := p.api.UpdateActivityTitle(ctx, event.ObjectID, title, accessToken); err != nil {
		return Outcome{Status: StatusFailed, Reason: ReasonUpdateTitleFailed, Err: err}
	}

	metrics.TitlesAssignedTotal.Inc()
	p.logger.Info("updated activity title",
		"activity_id", event.ObjectID,
		"title", title)

	record := buildRecord(event.ObjectID, token.UserID, title, activity)
	if err := p.store.InsertActivity(record); err != nil {
		// The remote title change is not rolled back
		p.logger.Error("failed to store activity", "activity_id", event.ObjectID, "error", err)
		return Outcome{Status: StatusProcessed, Reason: ReasonInsertFailed, Err: err}
	}

	metrics.ActivitiesStoredTotal.Inc()
	return Outcome{Status: StatusProcessed}
}

func buildRecord(stravaID int64, userID, title string, activity *strava.Activity) *database.ActivityRecord {
	return &database.ActivityRecord{
		StravaID:           stravaID,
		UserID:             userID,
		Name:               title,
		Type:               activity.Type,
		Distance:           activity.Distance,
		MovingTime:         activity.MovingTime,
		TotalElevationGain: activity.TotalElevationGain,
		StartDate:          activity.StartDate,
		StartLatLng:        encodeLatLng(activity.StartLatLng),
		EndLatLng:          encodeLatLng(activity.EndLatLng),
		AverageSpeed:       activity.AverageSpeed,
		MaxSpeed:           activity.MaxSpeed,
	}
}

func encodeLatLng(coords []float64) *string {
	if len(coords) != 2 {
		return nil
	}
	b, err := json.Marshal(coords)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}
