package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"ennygo-server/internal/database"
	"ennygo-server/internal/strava"
)

type fakeActivityStore struct {
	token   *database.TokenRecord
	records []*database.ActivityRecord
	listErr error
}

func (s *fakeActivityStore) FindTokenByUserID(userID string) (*database.TokenRecord, error) {
	return s.token, nil
}

func (s *fakeActivityStore) ListActivitiesByUser(userID string, page, perPage int) ([]*database.ActivityRecord, error) {
	return s.records, s.listErr
}

func (s *fakeActivityStore) CountActivitiesByUser(userID string) (int, error) {
	return len(s.records), s.listErr
}

type fakeCreator struct {
	params    strava.CreateActivityParams
	activity  *strava.Activity
	createErr error
}

func (c *fakeCreator) CreateActivity(ctx context.Context, accessToken string, params strava.CreateActivityParams) (*strava.Activity, error) {
	c.params = params
	return c.activity, c.createErr
}

type staticTokenSource struct {
	token string
	err   error
}

func (s *staticTokenSource) ValidAccessToken(ctx context.Context, rec *database.TokenRecord) (string, error) {
	return s.token, s.err
}

func testUserID() string {
	return uuid.NewString()
}

func TestListActivities(t *testing.T) {
	latlng := `[51.5,-0.1]`
	store := &fakeActivityStore{
		records: []*database.ActivityRecord{
			{ID: 2, StravaID: 1001, Name: "Title B", Type: "Run", StartDate: "2026-08-02T07:00:00Z", StartLatLng: &latlng},
			{ID: 1, StravaID: 1000, Name: "Title A", Type: "Ride", StartDate: "2026-08-01T07:00:00Z"},
		},
	}
	handler := NewActivitiesHandler(store, &fakeCreator{}, &staticTokenSource{token: "access-1"})

	req := httptest.NewRequest(http.MethodGet, "/activities?user_id="+testUserID(), nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Activities []activityJSON `json:"activities"`
		Total      int            `json:"total"`
		Page       int            `json:"page"`
		PerPage    int            `json:"per_page"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Total != 2 || len(body.Activities) != 2 {
		t.Errorf("total = %d, activities = %d", body.Total, len(body.Activities))
	}
	if body.Page != 1 || body.PerPage != 30 {
		t.Errorf("paging defaults = %d/%d", body.Page, body.PerPage)
	}
	if body.Activities[0].Name != "Title B" {
		t.Errorf("first activity = %+v", body.Activities[0])
	}
	if got := body.Activities[0].StartLatLng; len(got) != 2 || got[0] != 51.5 {
		t.Errorf("start_latlng = %v", got)
	}
	if body.Activities[1].StartLatLng != nil {
		t.Errorf("start_latlng = %v, want nil", body.Activities[1].StartLatLng)
	}
}

func TestListActivitiesInvalidUserID(t *testing.T) {
	handler := NewActivitiesHandler(&fakeActivityStore{}, &fakeCreator{}, &staticTokenSource{})

	req := httptest.NewRequest(http.MethodGet, "/activities?user_id=not-a-uuid", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestListActivitiesStoreError(t *testing.T) {
	handler := NewActivitiesHandler(&fakeActivityStore{listErr: errors.New("disk error")}, &fakeCreator{}, &staticTokenSource{})

	req := httptest.NewRequest(http.MethodGet, "/activities?user_id="+testUserID(), nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestCreateActivity(t *testing.T) {
	store := &fakeActivityStore{token: &database.TokenRecord{UserID: "user-1", AccessToken: "access-1"}}
	creator := &fakeCreator{activity: &strava.Activity{ID: 42, Name: "Evening Swim"}}
	handler := NewActivitiesHandler(store, creator, &staticTokenSource{token: "access-1"})

	payload := `{"user_id":"` + testUserID() + `","name":"Evening Swim","type":"Swim","elapsed_time":1200,"distance":800}`
	req := httptest.NewRequest(http.MethodPost, "/activities", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Message  string          `json:"message"`
		Activity strava.Activity `json:"activity"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Message != "Activity created successfully" {
		t.Errorf("message = %q", body.Message)
	}
	if body.Activity.ID != 42 {
		t.Errorf("activity = %+v", body.Activity)
	}

	if creator.params.Name != "Evening Swim" || creator.params.Type != "Swim" {
		t.Errorf("params = %+v", creator.params)
	}
	// Unset optional fields get defaults
	if creator.params.Description != "Activity created via EnnyGo" {
		t.Errorf("description = %q", creator.params.Description)
	}
	if creator.params.Trainer != 0 || creator.params.Commute != 0 {
		t.Errorf("trainer/commute = %d/%d", creator.params.Trainer, creator.params.Commute)
	}
}

func TestCreateActivityAppliesAllDefaults(t *testing.T) {
	store := &fakeActivityStore{token: &database.TokenRecord{UserID: "user-1"}}
	creator := &fakeCreator{activity: &strava.Activity{ID: 1}}
	handler := NewActivitiesHandler(store, creator, &staticTokenSource{token: "access-1"})

	payload := `{"user_id":"` + testUserID() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/activities", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	p := creator.params
	if p.Name != "My Activity" || p.Type != "Run" {
		t.Errorf("params = %+v", p)
	}
	if p.ElapsedTime != 3600 || p.Distance != 10000 {
		t.Errorf("params = %+v", p)
	}
}

func TestCreateActivityNoToken(t *testing.T) {
	handler := NewActivitiesHandler(&fakeActivityStore{}, &fakeCreator{}, &staticTokenSource{})

	payload := `{"user_id":"` + testUserID() + `","name":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/activities", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["error"] != "Unable to fetch user tokens" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestCreateActivityUpstreamError(t *testing.T) {
	store := &fakeActivityStore{token: &database.TokenRecord{UserID: "user-1"}}
	creator := &fakeCreator{createErr: errors.New("failed to create activity: strava api error (status 400): bad request")}
	handler := NewActivitiesHandler(store, creator, &staticTokenSource{token: "access-1"})

	payload := `{"user_id":"` + testUserID() + `","name":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/activities", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if !strings.Contains(body["error"], "failed to create activity") {
		t.Errorf("error = %q", body["error"])
	}
}

func TestCreateActivityInvalidBody(t *testing.T) {
	handler := NewActivitiesHandler(&fakeActivityStore{}, &fakeCreator{}, &staticTokenSource{})

	req := httptest.NewRequest(http.MethodPost, "/activities", strings.NewReader("{broken"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
