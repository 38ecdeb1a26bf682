package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label value constants to prevent typos
const (
	// HTTP endpoints
	EndpointWebhook         = "webhook"
	EndpointActivities      = "activities"
	EndpointAthlete         = "athlete"
	EndpointAthleteActivity = "athlete_activities"
	EndpointOAuthStart      = "oauth_start"
	EndpointOAuthCallback   = "oauth_callback"
	EndpointOAuthDisconnect = "oauth_disconnect"
	EndpointHealth          = "health"

	// Strava API operations
	OpExchangeCode          = "exchange_code"
	OpRefreshToken          = "refresh_token"
	OpGetActivity           = "get_activity"
	OpUpdateActivityTitle   = "update_activity_title"
	OpListAthleteActivities = "list_athlete_activities"
	OpGetAthlete            = "get_athlete"
	OpCreateActivity        = "create_activity"

	// Token refresh results
	ResultSuccess = "success"
	ResultFailure = "failure"

	// Rate limit windows and buckets
	Window15Min = "15min"
	WindowDaily = "daily"
	BucketLimit = "limit"
	BucketUsage = "usage"

	// Database operations
	DBOpCreateToken           = "create_token"
	DBOpFindTokenByAthleteID  = "find_token_by_athlete_id"
	DBOpFindTokenByUserID     = "find_token_by_user_id"
	DBOpUpdateToken           = "update_token"
	DBOpDeleteTokens          = "delete_tokens"
	DBOpFindSettingsByUserID  = "find_settings_by_user_id"
	DBOpUpsertSettings        = "upsert_settings"
	DBOpInsertActivity        = "insert_activity"
	DBOpListActivitiesByUser  = "list_activities_by_user"
	DBOpCountActivitiesByUser = "count_activities_by_user"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint", "status_code"},
	)
)

// Webhook Metrics
var (
	WebhookEventsReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_received_total",
			Help: "Total number of webhook events received",
		},
		[]string{"object_type", "aspect_type"},
	)

	WebhookOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_outcomes_total",
			Help: "Webhook processing outcomes by status and reason",
		},
		[]string{"status", "reason"},
	)

	WebhookProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_processing_duration_seconds",
			Help:    "Time spent processing a webhook event after acknowledgment",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"status"},
	)
)

// Strava API Metrics
var (
	StravaAPIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strava_api_requests_total",
			Help: "Total number of Strava API requests",
		},
		[]string{"operation", "status_code"},
	)

	StravaAPIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strava_api_request_duration_seconds",
			Help:    "Strava API request latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"operation", "status_code"},
	)

	StravaRateLimitUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "strava_rate_limit_usage",
			Help: "Strava API rate limit usage as reported by response headers",
		},
		[]string{"window", "bucket"},
	)

	TokenRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_refreshes_total",
			Help: "Total number of OAuth token refreshes",
		},
		[]string{"result"},
	)
)

// Database Metrics
var (
	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Database operation latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	DBOperationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_operation_errors_total",
			Help: "Total number of database operation errors",
		},
		[]string{"operation"},
	)
)

// Business Metrics
var (
	TitlesAssignedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "titles_assigned_total",
			Help: "Total number of generated titles pushed to Strava activities",
		},
	)

	ActivitiesStoredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "activities_stored_total",
			Help: "Total number of activity records stored locally",
		},
	)

	AthletesConnectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "athletes_connected_total",
			Help: "Total number of completed Strava OAuth connections",
		},
	)
)
