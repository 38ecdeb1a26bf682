package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"ennygo-server/internal/database"
	"ennygo-server/internal/strava"
)

// ActivityStore is the persistence surface for locally stored activities
type ActivityStore interface {
	FindTokenByUserID(userID string) (*database.TokenRecord, error)
	ListActivitiesByUser(userID string, page, perPage int) ([]*database.ActivityRecord, error)
	CountActivitiesByUser(userID string) (int, error)
}

// ActivityCreator uploads a manual activity to Strava
type ActivityCreator interface {
	CreateActivity(ctx context.Context, accessToken string, params strava.CreateActivityParams) (*strava.Activity, error)
}

// TokenSource resolves a usable access token for a stored token record
type TokenSource interface {
	ValidAccessToken(ctx context.Context, rec *database.TokenRecord) (string, error)
}

// ActivitiesHandler serves the local activity history and manual creation
type ActivitiesHandler struct {
	store   ActivityStore
	creator ActivityCreator
	tokens  TokenSource
	logger  *slog.Logger
}

func NewActivitiesHandler(store ActivityStore, creator ActivityCreator, tokens TokenSource) *ActivitiesHandler {
	return &ActivitiesHandler{
		store:   store,
		creator: creator,
		tokens:  tokens,
		logger:  slog.Default(),
	}
}

func (h *ActivitiesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type activityJSON struct {
	ID                 int64     `json:"id"`
	StravaID           int64     `json:"strava_id"`
	Name               string    `json:"name"`
	Type               string    `json:"type"`
	Distance           float64   `json:"distance"`
	MovingTime         int64     `json:"moving_time"`
	TotalElevationGain float64   `json:"total_elevation_gain"`
	StartDate          string    `json:"start_date"`
	StartLatLng        []float64 `json:"start_latlng,omitempty"`
	EndLatLng          []float64 `json:"end_latlng,omitempty"`
	AverageSpeed       float64   `json:"average_speed"`
	MaxSpeed           float64   `json:"max_speed"`
}

func (h *ActivitiesHandler) handleList(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if _, err := uuid.Parse(userID); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 30)

	records, err := h.store.ListActivitiesByUser(userID, page, perPage)
	if err != nil {
		h.logger.Error("failed to list activities", "user_id", userID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to fetch activities")
		return
	}
	total, err := h.store.CountActivitiesByUser(userID)
	if err != nil {
		h.logger.Error("failed to count activities", "user_id", userID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to fetch activities")
		return
	}

	out := make([]activityJSON, 0, len(records))
	for _, rec := range records {
		out = append(out, toActivityJSON(rec))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"activities": out,
		"total":      total,
		"page":       page,
		"per_page":   perPage,
	})
}

func (h *ActivitiesHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID         string  `json:"user_id"`
		Name           string  `json:"name"`
		Type           string  `json:"type"`
		StartDateLocal string  `json:"start_date_local"`
		ElapsedTime    int64   `json:"elapsed_time"`
		Description    string  `json:"description"`
		Distance       float64 `json:"distance"`
		Trainer        int     `json:"trainer"`
		Commute        int     `json:"commute"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, err := uuid.Parse(body.UserID); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	token, err := h.store.FindTokenByUserID(body.UserID)
	if err != nil || token == nil {
		writeJSONError(w, http.StatusUnauthorized, "Unable to fetch user tokens")
		return
	}

	accessToken, err := h.tokens.ValidAccessToken(r.Context(), token)
	if err != nil {
		h.logger.Error("failed to refresh token", "user_id", body.UserID, "error", err)
		writeJSONError(w, http.StatusUnauthorized, "Unable to fetch user tokens")
		return
	}

	params := strava.CreateActivityParams{
		Name:           body.Name,
		Type:           body.Type,
		StartDateLocal: body.StartDateLocal,
		ElapsedTime:    body.ElapsedTime,
		Description:    body.Description,
		Distance:       body.Distance,
		Trainer:        body.Trainer,
		Commute:        body.Commute,
	}
	applyCreateDefaults(&params)

	activity, err := h.creator.CreateActivity(r.Context(), accessToken, params)
	if err != nil {
		h.logger.Error("failed to create activity", "user_id", body.UserID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Activity created successfully",
		"activity": activity,
	})
}

// applyCreateDefaults fills the optional fields of a manual upload
func applyCreateDefaults(p *strava.CreateActivityParams) {
	if p.Name == "" {
		p.Name = "My Activity"
	}
	if p.Type == "" {
		p.Type = "Run"
	}
	if p.ElapsedTime == 0 {
		p.ElapsedTime = 3600
	}
	if p.Description == "" {
		p.Description = "Activity created via EnnyGo"
	}
	if p.Distance == 0 {
		p.Distance = 10000
	}
}

func toActivityJSON(rec *database.ActivityRecord) activityJSON {
	return activityJSON{
		ID:                 rec.ID,
		StravaID:           rec.StravaID,
		Name:               rec.Name,
		Type:               rec.Type,
		Distance:           rec.Distance,
		MovingTime:         rec.MovingTime,
		TotalElevationGain: rec.TotalElevationGain,
		StartDate:          rec.StartDate,
		StartLatLng:        decodeLatLng(rec.StartLatLng),
		EndLatLng:          decodeLatLng(rec.EndLatLng),
		AverageSpeed:       rec.AverageSpeed,
		MaxSpeed:           rec.MaxSpeed,
	}
}

func decodeLatLng(s *string) []float64 {
	if s == nil {
		return nil
	}
	var coords []float64
	if err := json.Unmarshal([]byte(*s), &coords); err != nil {
		return nil
	}
	return coords
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
