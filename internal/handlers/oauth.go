package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// Connector is the connect and disconnect flow the handlers drive
type Connector interface {
	AuthURL(userID, redirectURI string) (string, error)
	HandleCallback(ctx context.Context, code, state string) (string, error)
	Disconnect(userID string) error
}

// OAuthHandler serves the Strava connect endpoints
type OAuthHandler struct {
	connector   Connector
	redirectURI string
	logger      *slog.Logger
}

func NewOAuthHandler(connector Connector, redirectURI string) *OAuthHandler {
	return &OAuthHandler{
		connector:   connector,
		redirectURI: redirectURI,
		logger:      slog.Default(),
	}
}

// HandleStart serves GET /oauth/start, redirecting the browser to Strava
func (h *OAuthHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if _, err := uuid.Parse(userID); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	authURL, err := h.connector.AuthURL(userID, h.redirectURI)
	if err != nil {
		h.logger.Error("failed to build auth url", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to start authorization")
		return
	}

	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// HandleCallback serves GET /oauth/callback, the redirect target from Strava
func (h *OAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	if errParam := q.Get("error"); errParam != "" {
		h.logger.Warn("authorization denied", "error", errParam)
		writeJSONError(w, http.StatusBadRequest, "Authorization denied")
		return
	}

	code := q.Get("code")
	state := q.Get("state")
	if code == "" || state == "" {
		writeJSONError(w, http.StatusBadRequest, "Missing code or state")
		return
	}

	userID, err := h.connector.HandleCallback(r.Context(), code, state)
	if err != nil {
		h.logger.Error("oauth callback failed", "error", err)
		writeJSONError(w, http.StatusBadRequest, "Failed to connect Strava account")
		return
	}

	h.logger.Info("oauth callback succeeded", "user_id", userID)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("<html><body><h1>Strava account connected</h1><p>You can close this window.</p></body></html>"))
}

// HandleDisconnect serves POST /oauth/disconnect
func (h *OAuthHandler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, err := uuid.Parse(body.UserID); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	if err := h.connector.Disconnect(body.UserID); err != nil {
		h.logger.Error("disconnect failed", "user_id", body.UserID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to disconnect Strava account")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Strava account disconnected"})
}
