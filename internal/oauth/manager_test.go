package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"ennygo-server/internal/database"
	"ennygo-server/internal/strava"
)

type fakeExchanger struct {
	exchangeResp *strava.TokenResponse
	exchangeErr  error
	exchangedFor string

	refreshResp *strava.TokenResponse
	refreshErr  error
}

func (e *fakeExchanger) ExchangeCode(ctx context.Context, code string) (*strava.TokenResponse, error) {
	e.exchangedFor = code
	return e.exchangeResp, e.exchangeErr
}

func (e *fakeExchanger) RefreshToken(ctx context.Context, refreshToken string) (*strava.TokenResponse, error) {
	return e.refreshResp, e.refreshErr
}

type fakeStore struct {
	created   *database.TokenRecord
	createErr error

	token *database.TokenRecord

	updated   *database.TokenRecord
	updateErr error

	deletedUser string
	deleteErr   error

	settingsUser  string
	settingsWatch bool
	settingsErr   error
}

func (s *fakeStore) CreateToken(t *database.TokenRecord) error {
	s.created = t
	return s.createErr
}

func (s *fakeStore) FindTokenByUserID(userID string) (*database.TokenRecord, error) {
	return s.token, nil
}

func (s *fakeStore) UpdateTokenByAthleteID(athleteID, accessToken, refreshToken string, expiresAt int64) error {
	s.updated = &database.TokenRecord{
		StravaAthleteID: athleteID,
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		ExpiresAt:       expiresAt,
	}
	return s.updateErr
}

func (s *fakeStore) DeleteTokensByUserID(userID string) error {
	s.deletedUser = userID
	return s.deleteErr
}

func (s *fakeStore) UpsertSettings(userID string, watchActivities bool) error {
	s.settingsUser = userID
	s.settingsWatch = watchActivities
	return s.settingsErr
}

func successExchange() *strava.TokenResponse {
	return &strava.TokenResponse{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Unix() + 3600,
		Athlete:      json.RawMessage(`{"id":456,"username":"runner"}`),
	}
}

func extractState(t *testing.T, authURL string) string {
	t.Helper()

	parsed, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("parse auth url: %v", err)
	}
	state := parsed.Query().Get("state")
	if state == "" {
		t.Fatal("auth url has no state")
	}
	return state
}

func TestAuthURL(t *testing.T) {
	m := NewManager("12345", &fakeExchanger{}, &fakeStore{})

	authURL, err := m.AuthURL("user-1", "https://ennygo.example.com/oauth/callback")
	if err != nil {
		t.Fatalf("AuthURL: %v", err)
	}
	if !strings.HasPrefix(authURL, "https://www.strava.com/oauth/authorize?") {
		t.Errorf("unexpected base: %q", authURL)
	}

	parsed, _ := url.Parse(authURL)
	q := parsed.Query()
	if q.Get("client_id") != "12345" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("redirect_uri") != "https://ennygo.example.com/oauth/callback" {
		t.Errorf("redirect_uri = %q", q.Get("redirect_uri"))
	}
	if q.Get("response_type") != "code" {
		t.Errorf("response_type = %q", q.Get("response_type"))
	}
	if q.Get("approval_prompt") != "force" {
		t.Errorf("approval_prompt = %q", q.Get("approval_prompt"))
	}
	if !strings.Contains(q.Get("scope"), "activity:write") {
		t.Errorf("scope = %q", q.Get("scope"))
	}
}

func TestAuthURLStatesAreUnique(t *testing.T) {
	m := NewManager("12345", &fakeExchanger{}, &fakeStore{})

	u1, _ := m.AuthURL("user-1", "r")
	u2, _ := m.AuthURL("user-1", "r")
	if extractState(t, u1) == extractState(t, u2) {
		t.Error("two AuthURL calls produced the same state")
	}
}

func TestHandleCallback(t *testing.T) {
	exchanger := &fakeExchanger{exchangeResp: successExchange()}
	store := &fakeStore{}
	m := NewManager("12345", exchanger, store)

	authURL, _ := m.AuthURL("user-1", "r")
	state := extractState(t, authURL)

	userID, err := m.HandleCallback(context.Background(), "auth-code", state)
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("userID = %q", userID)
	}
	if exchanger.exchangedFor != "auth-code" {
		t.Errorf("exchanged code = %q", exchanger.exchangedFor)
	}

	if store.created == nil {
		t.Fatal("token not stored")
	}
	if store.created.UserID != "user-1" || store.created.StravaAthleteID != "456" {
		t.Errorf("stored token = %+v", store.created)
	}
	if store.created.AccessToken != "access-1" || store.created.RefreshToken != "refresh-1" {
		t.Errorf("stored token = %+v", store.created)
	}

	// New connections start with watching off
	if store.settingsUser != "user-1" || store.settingsWatch {
		t.Errorf("settings = %q watch=%v", store.settingsUser, store.settingsWatch)
	}
}

func TestHandleCallbackStateIsOneTimeUse(t *testing.T) {
	exchanger := &fakeExchanger{exchangeResp: successExchange()}
	m := NewManager("12345", exchanger, &fakeStore{})

	authURL, _ := m.AuthURL("user-1", "r")
	state := extractState(t, authURL)

	if _, err := m.HandleCallback(context.Background(), "code", state); err != nil {
		t.Fatalf("first callback: %v", err)
	}
	if _, err := m.HandleCallback(context.Background(), "code", state); err == nil {
		t.Fatal("state accepted twice")
	}
}

func TestHandleCallbackUnknownState(t *testing.T) {
	m := NewManager("12345", &fakeExchanger{exchangeResp: successExchange()}, &fakeStore{})

	if _, err := m.HandleCallback(context.Background(), "code", "forged"); err == nil {
		t.Fatal("forged state accepted")
	}
}

func TestHandleCallbackExpiredState(t *testing.T) {
	m := NewManager("12345", &fakeExchanger{exchangeResp: successExchange()}, &fakeStore{})

	now := time.Now()
	m.now = func() time.Time { return now }

	authURL, _ := m.AuthURL("user-1", "r")
	state := extractState(t, authURL)

	m.now = func() time.Time { return now.Add(stateTTL + time.Second) }
	if _, err := m.HandleCallback(context.Background(), "code", state); err == nil {
		t.Fatal("expired state accepted")
	}
}

func TestHandleCallbackExchangeFailure(t *testing.T) {
	m := NewManager("12345", &fakeExchanger{exchangeErr: strava.ErrExchangeToken}, &fakeStore{})

	authURL, _ := m.AuthURL("user-1", "r")
	state := extractState(t, authURL)

	_, err := m.HandleCallback(context.Background(), "bad-code", state)
	if !errors.Is(err, strava.ErrExchangeToken) {
		t.Errorf("err = %v", err)
	}
}

func TestHandleCallbackMissingAthlete(t *testing.T) {
	resp := successExchange()
	resp.Athlete = json.RawMessage(`{}`)
	m := NewManager("12345", &fakeExchanger{exchangeResp: resp}, &fakeStore{})

	authURL, _ := m.AuthURL("user-1", "r")
	state := extractState(t, authURL)

	if _, err := m.HandleCallback(context.Background(), "code", state); err == nil {
		t.Fatal("callback succeeded without athlete id")
	}
}

func TestDisconnect(t *testing.T) {
	store := &fakeStore{}
	m := NewManager("12345", &fakeExchanger{}, store)

	if err := m.Disconnect("user-1"); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if store.deletedUser != "user-1" {
		t.Errorf("deleted user = %q", store.deletedUser)
	}
	if store.settingsUser != "user-1" || store.settingsWatch {
		t.Errorf("settings after disconnect = %q watch=%v", store.settingsUser, store.settingsWatch)
	}
}

func TestValidAccessTokenStillValid(t *testing.T) {
	m := NewManager("12345", &fakeExchanger{}, &fakeStore{})

	rec := &database.TokenRecord{
		StravaAthleteID: "456",
		AccessToken:     "access-1",
		RefreshToken:    "refresh-1",
		ExpiresAt:       time.Now().Unix() + 3600,
	}
	got, err := m.ValidAccessToken(context.Background(), rec)
	if err != nil {
		t.Fatalf("ValidAccessToken: %v", err)
	}
	if got != "access-1" {
		t.Errorf("token = %q", got)
	}
}

func TestValidAccessTokenRefreshesExpired(t *testing.T) {
	store := &fakeStore{}
	exchanger := &fakeExchanger{
		refreshResp: &strava.TokenResponse{
			AccessToken:  "access-2",
			RefreshToken: "refresh-2",
			ExpiresAt:    time.Now().Unix() + 3600,
		},
	}
	m := NewManager("12345", exchanger, store)

	rec := &database.TokenRecord{
		StravaAthleteID: "456",
		AccessToken:     "stale",
		RefreshToken:    "refresh-1",
		ExpiresAt:       time.Now().Unix() - 10,
	}
	got, err := m.ValidAccessToken(context.Background(), rec)
	if err != nil {
		t.Fatalf("ValidAccessToken: %v", err)
	}
	if got != "access-2" {
		t.Errorf("token = %q, want refreshed access-2", got)
	}
	if store.updated == nil || store.updated.RefreshToken != "refresh-2" {
		t.Errorf("rotation not persisted: %+v", store.updated)
	}
}

func TestValidAccessTokenRefreshFailure(t *testing.T) {
	m := NewManager("12345", &fakeExchanger{refreshErr: strava.ErrRefreshToken}, &fakeStore{})

	rec := &database.TokenRecord{
		StravaAthleteID: "456",
		AccessToken:     "stale",
		RefreshToken:    "revoked",
		ExpiresAt:       time.Now().Unix() - 10,
	}
	_, err := m.ValidAccessToken(context.Background(), rec)
	if !errors.Is(err, strava.ErrRefreshToken) {
		t.Errorf("err = %v", err)
	}
}
