// Package oauth handles the Strava account connect and disconnect flow.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	"ennygo-server/internal/database"
	"ennygo-server/internal/metrics"
	"ennygo-server/internal/strava"
)

const (
	authorizeURL = "https://www.strava.com/oauth/authorize"
	scopes       = "read,profile:read_all,activity:read,activity:read_all,activity:write"

	stateTTL = 10 * time.Minute
)

// Exchanger is the token endpoint surface the manager depends on
type Exchanger interface {
	ExchangeCode(ctx context.Context, code string) (*strava.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*strava.TokenResponse, error)
}

// Store is the persistence surface the manager depends on
type Store interface {
	CreateToken(t *database.TokenRecord) error
	FindTokenByUserID(userID string) (*database.TokenRecord, error)
	UpdateTokenByAthleteID(athleteID, accessToken, refreshToken string, expiresAt int64) error
	DeleteTokensByUserID(userID string) error
	UpsertSettings(userID string, watchActivities bool) error
}

type pendingState struct {
	userID  string
	expires time.Time
}

// Manager drives the authorization-code flow. Each AuthURL call mints a
// one-time state value bound to the requesting user; the callback consumes
// it or rejects the exchange.
type Manager struct {
	clientID  string
	exchanger Exchanger
	store     Store
	logger    *slog.Logger

	mu     sync.Mutex
	states map[string]pendingState

	now func() time.Time
}

func NewManager(clientID string, exchanger Exchanger, store Store) *Manager {
	return &Manager{
		clientID:  clientID,
		exchanger: exchanger,
		store:     store,
		logger:    slog.Default(),
		states:    make(map[string]pendingState),
		now:       time.Now,
	}
}

// AuthURL returns the Strava authorization URL for userID
func (m *Manager) AuthURL(userID, redirectURI string) (string, error) {
	state, err := generateState()
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}

	m.mu.Lock()
	m.states[state] = pendingState{userID: userID, expires: m.now().Add(stateTTL)}
	m.pruneLocked()
	m.mu.Unlock()

	q := url.Values{}
	q.Set("client_id", m.clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "code")
	q.Set("approval_prompt", "force")
	q.Set("scope", scopes)
	q.Set("state", state)

	return authorizeURL + "?" + q.Encode(), nil
}

// HandleCallback exchanges the authorization code and stores the resulting
// token for the user bound to state. New connections start with activity
// watching disabled.
func (m *Manager) HandleCallback(ctx context.Context, code, state string) (string, error) {
	userID, ok := m.consumeState(state)
	if !ok {
		return "", fmt.Errorf("unknown or expired state")
	}

	resp, err := m.exchanger.ExchangeCode(ctx, code)
	if err != nil {
		return "", err
	}

	athleteID, err := athleteIDFrom(resp.Athlete)
	if err != nil {
		return "", fmt.Errorf("parse athlete: %w", err)
	}

	rec := &database.TokenRecord{
		UserID:          userID,
		StravaAthleteID: athleteID,
		AccessToken:     resp.AccessToken,
		RefreshToken:    resp.RefreshToken,
		ExpiresAt:       resp.ExpiresAt,
	}
	if err := m.store.CreateToken(rec); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}

	if err := m.store.UpsertSettings(userID, false); err != nil {
		return "", fmt.Errorf("store settings: %w", err)
	}

	metrics.AthletesConnectedTotal.Inc()
	m.logger.Info("connected strava account", "user_id", userID, "athlete_id", athleteID)
	return userID, nil
}

// Disconnect removes the user's stored tokens and disables watching
func (m *Manager) Disconnect(userID string) error {
	if err := m.store.DeleteTokensByUserID(userID); err != nil {
		return fmt.Errorf("delete tokens: %w", err)
	}
	if err := m.store.UpsertSettings(userID, false); err != nil {
		return fmt.Errorf("store settings: %w", err)
	}
	m.logger.Info("disconnected strava account", "user_id", userID)
	return nil
}

// ValidAccessToken returns an access token for rec, refreshing and
// persisting the rotation first if the stored one has expired.
func (m *Manager) ValidAccessToken(ctx context.Context, rec *database.TokenRecord) (string, error) {
	if rec.ExpiresAt > m.now().Unix() {
		return rec.AccessToken, nil
	}

	resp, err := m.exchanger.RefreshToken(ctx, rec.RefreshToken)
	if err != nil {
		return "", err
	}
	if err := m.store.UpdateTokenByAthleteID(rec.StravaAthleteID, resp.AccessToken, resp.RefreshToken, resp.ExpiresAt); err != nil {
		return "", fmt.Errorf("store refreshed token: %w", err)
	}
	return resp.AccessToken, nil
}

func (m *Manager) consumeState(state string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending, ok := m.states[state]
	if !ok {
		return "", false
	}
	delete(m.states, state)
	if m.now().After(pending.expires) {
		return "", false
	}
	return pending.userID, true
}

// pruneLocked drops expired states. Caller holds mu.
func (m *Manager) pruneLocked() {
	now := m.now()
	for state, pending := range m.states {
		if now.After(pending.expires) {
			delete(m.states, state)
		}
	}
}

func generateState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func athleteIDFrom(raw json.RawMessage) (string, error) {
	var athlete struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(raw, &athlete); err != nil {
		return "", err
	}
	if athlete.ID == 0 {
		return "", fmt.Errorf("missing athlete id")
	}
	return strconv.FormatInt(athlete.ID, 10), nil
}
