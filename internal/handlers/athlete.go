package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"ennygo-server/internal/database"
	"ennygo-server/internal/strava"
)

// AthleteAPI is the upstream surface for profile and activity proxies
type AthleteAPI interface {
	GetAthlete(ctx context.Context, accessToken string) (json.RawMessage, error)
	ListAthleteActivities(ctx context.Context, accessToken string, page, perPage int) ([]*strava.Activity, error)
}

// TokenFinder looks up a stored token by user
type TokenFinder interface {
	FindTokenByUserID(userID string) (*database.TokenRecord, error)
}

// AthleteHandler proxies athlete profile and activity reads to Strava
type AthleteHandler struct {
	store  TokenFinder
	api    AthleteAPI
	tokens TokenSource
	logger *slog.Logger
}

func NewAthleteHandler(store TokenFinder, api AthleteAPI, tokens TokenSource) *AthleteHandler {
	return &AthleteHandler{
		store:  store,
		api:    api,
		tokens: tokens,
		logger: slog.Default(),
	}
}

// accessTokenFor validates the user_id query parameter and resolves a live
// access token, writing the error response itself on failure.
func (h *AthleteHandler) accessTokenFor(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.URL.Query().Get("user_id")
	if _, err := uuid.Parse(userID); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid user id")
		return "", false
	}

	token, err := h.store.FindTokenByUserID(userID)
	if err != nil || token == nil {
		writeJSONError(w, http.StatusUnauthorized, "Unable to fetch user tokens")
		return "", false
	}

	accessToken, err := h.tokens.ValidAccessToken(r.Context(), token)
	if err != nil {
		h.logger.Error("failed to refresh token", "user_id", userID, "error", err)
		writeJSONError(w, http.StatusUnauthorized, "Unable to fetch user tokens")
		return "", false
	}
	return accessToken, true
}

// HandleProfile serves GET /athlete
func (h *AthleteHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	accessToken, ok := h.accessTokenFor(w, r)
	if !ok {
		return
	}

	athlete, err := h.api.GetAthlete(r.Context(), accessToken)
	if err != nil {
		h.logger.Error("failed to fetch athlete", "error", err)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(athlete)
}

// HandleActivities serves GET /athlete/activities
func (h *AthleteHandler) HandleActivities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	accessToken, ok := h.accessTokenFor(w, r)
	if !ok {
		return
	}

	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 30)

	activities, err := h.api.ListAthleteActivities(r.Context(), accessToken, page, perPage)
	if err != nil {
		h.logger.Error("failed to fetch athlete activities", "error", err)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if activities == nil {
		activities = []*strava.Activity{}
	}

	writeJSON(w, http.StatusOK, activities)
}
