// Package handlers contains the HTTP endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"ennygo-server/internal/metrics"
	"ennygo-server/internal/processor"
)

// EventProcessor handles a decoded webhook event
type EventProcessor interface {
	Process(ctx context.Context, event processor.Event) processor.Outcome
}

// WebhookHandler serves the Strava webhook callback endpoint
type WebhookHandler struct {
	verifyToken string
	processor   EventProcessor
	logger      *slog.Logger
}

func NewWebhookHandler(verifyToken string, p EventProcessor) *WebhookHandler {
	return &WebhookHandler{
		verifyToken: verifyToken,
		processor:   p,
		logger:      slog.Default(),
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleVerification(w, r)
	case http.MethodPost:
		h.handleEvent(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleVerification answers the subscription handshake. Strava sends the
// challenge on subscription creation and expects it echoed back.
func (h *WebhookHandler) handleVerification(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode != "subscribe" || token != h.verifyToken {
		h.logger.Warn("webhook verification rejected", "mode", mode)
		http.Error(w, "verification failed", http.StatusForbidden)
		return
	}

	h.logger.Info("webhook verified")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"hub.challenge": challenge})
}

// handleEvent acknowledges the push immediately, then processes it in the
// background. Strava retries deliveries that are not acked within its
// timeout, so the ack must not wait on processing.
func (h *WebhookHandler) handleEvent(w http.ResponseWriter, r *http.Request) {
	var event processor.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.logger.Warn("invalid webhook payload", "error", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	metrics.WebhookEventsReceivedTotal.WithLabelValues(event.ObjectType, event.AspectType).Inc()
	h.logger.Info("webhook event received",
		"object_type", event.ObjectType,
		"aspect_type", event.AspectType,
		"object_id", event.ObjectID,
		"owner_id", event.OwnerID)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("EVENT_RECEIVED"))

	// Detached from the request context: the ack has already been sent
	go h.processor.Process(context.Background(), event)
}
