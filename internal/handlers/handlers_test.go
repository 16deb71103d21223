package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/untibullet/review-reputation/internal/matching"
	"github.com/untibullet/review-reputation/internal/models"
	"github.com/untibullet/review-reputation/internal/repository"
	"github.com/untibullet/review-reputation/internal/review"
	"go.uber.org/zap"
)

type fakeReputation struct {
	lastLimit  int
	lastPeriod int
	lastAction models.ReputationAction
	err        error
}

func (f *fakeReputation) Recompute(_ context.Context, userID string) (*models.Reputation, error) {
	if f.err != nil {
		return nil, f.err
	}
	if userID == "ghost" {
		return nil, nil
	}
	return &models.Reputation{Points: 49, Level: models.LevelBeginner}, nil
}

func (f *fakeReputation) Apply(_ context.Context, _ string, action models.ReputationAction) (*models.Reputation, error) {
	f.lastAction = action
	if f.err != nil {
		return nil, f.err
	}
	return &models.Reputation{Points: 10, Level: models.LevelBeginner, ReviewsGiven: 1}, nil
}

func (f *fakeReputation) Leaderboard(_ context.Context, limit int) ([]models.LeaderboardEntry, error) {
	f.lastLimit = limit
	return []models.LeaderboardEntry{{UserID: "top"}}, nil
}

func (f *fakeReputation) ActivityStats(_ context.Context, userID string, periodDays int) (*models.ActivityStats, error) {
	f.lastPeriod = periodDays
	if f.err != nil {
		return nil, f.err
	}
	return &models.ActivityStats{
		UserID:      userID,
		PeriodDays:  periodDays,
		Submissions: models.SubmissionActivity{Count: 2, TotalViews: 37, Languages: []string{"go"}},
		Reviews:     models.ReviewActivity{Count: 1, AverageRating: 4, TotalHelpful: 1},
	}, nil
}

type fakeMatcher struct {
	lastLimit int
	err       error
}

func (f *fakeMatcher) Suggest(_ context.Context, _ string, limit int) ([]models.Candidate, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []models.Candidate{{User: models.User{UserID: "r1"}, MatchScore: 11.3}}, nil
}

func (f *fakeMatcher) Availability(_ context.Context, userID string) (*matching.Availability, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &matching.Availability{UserID: userID, Active: 2, Available: true}, nil
}

type fakeReviews struct {
	err error
}

func (f *fakeReviews) Quality(_ context.Context, reviewID string) (*review.QualityResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &review.QualityResult{ReviewID: reviewID, Score: 39}, nil
}

func (f *fakeReviews) Insights(_ context.Context, _ string) (*models.ReviewInsights, error) {
	return nil, f.err
}

func (f *fakeReviews) Submit(_ context.Context, reviewID string) (*models.Review, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Review{ReviewID: reviewID, Status: models.ReviewSubmitted}, nil
}

func (f *fakeReviews) MarkHelpful(_ context.Context, _, _ string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return true, nil
}

type testEnv struct {
	e       *echo.Echo
	rep     *fakeReputation
	matcher *fakeMatcher
	reviews *fakeReviews
}

func newTestEnv() *testEnv {
	env := &testEnv{
		e:       echo.New(),
		rep:     &fakeReputation{},
		matcher: &fakeMatcher{},
		reviews: &fakeReviews{},
	}
	h := New(env.rep, env.matcher, env.reviews, Limits{Suggest: 5, Leaderboard: 10}, zap.NewNop())
	h.RegisterRoutes(env.e)
	return env
}

func (env *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSuggestReviewers(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodGet, "/reviewers/suggest?submission_id=s1&limit=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, env.matcher.lastLimit)

	var body struct {
		SubmissionID string             `json:"submission_id"`
		Reviewers    []models.Candidate `json:"reviewers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "s1", body.SubmissionID)
	require.Len(t, body.Reviewers, 1)
	assert.Equal(t, "r1", body.Reviewers[0].User.UserID)
}

func TestSuggestReviewers_InvalidLimitFallsBack(t *testing.T) {
	env := newTestEnv()

	for _, raw := range []string{"abc", "0", "-4"} {
		rec := env.do(http.MethodGet, "/reviewers/suggest?submission_id=s1&limit="+raw, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 5, env.matcher.lastLimit, "limit=%s", raw)
	}
}

func TestSuggestReviewers_MissingParam(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodGet, "/reviewers/suggest", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrCodeInvalidInput, decodeError(t, rec).Error.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{repository.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
		{fmt.Errorf("failed to get submission: %w", repository.ErrNotFound), http.StatusNotFound, ErrCodeNotFound},
		{repository.ErrInvalidInput, http.StatusBadRequest, ErrCodeInvalidInput},
		{repository.ErrAlreadyExists, http.StatusConflict, ErrCodeAlreadyExists},
		{repository.ErrAlreadySubmitted, http.StatusConflict, ErrCodeAlreadySubmitted},
		{repository.ErrSelfAction, http.StatusForbidden, ErrCodeSelfAction},
		{repository.ErrInconsistent, http.StatusUnprocessableEntity, ErrCodeInconsistent},
		{fmt.Errorf("connection refused"), http.StatusInternalServerError, ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			env := newTestEnv()
			env.reviews.err = tt.err

			rec := env.do(http.MethodPost, "/reviews/submit", `{"review_id":"r1"}`)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Error.Code)
		})
	}
}

func TestApplyReputationEvent(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodPost, "/reputation/event", `{"user_id":"u1","action":"review_given"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ActionReviewGiven, env.rep.lastAction)

	var body struct {
		Updated    bool              `json:"updated"`
		Reputation models.Reputation `json:"reputation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Updated)
	assert.Equal(t, 10, body.Reputation.Points)
}

func TestApplyReputationEvent_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"unknown action", `{"user_id":"u1","action":"bribe"}`, "action must be one of"},
		{"missing user", `{"action":"review_given"}`, "user_id is required"},
		{"malformed json", `{"user_id":`, "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()

			rec := env.do(http.MethodPost, "/reputation/event", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, ErrCodeInvalidInput, resp.Error.Code)
			assert.Contains(t, resp.Error.Message, tt.message)
			assert.Empty(t, env.rep.lastAction)
		})
	}
}

func TestRecomputeReputation_MissingUser(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodPost, "/reputation/recompute", `{"user_id":"ghost"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["updated"])
	assert.Nil(t, body["reputation"])
}

func TestGetLeaderboard(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodGet, "/users/leaderboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, env.rep.lastLimit)

	rec = env.do(http.MethodGet, "/users/leaderboard?limit=25", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 25, env.rep.lastLimit)
}

func TestGetUserActivity(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantPeriod int
	}{
		{name: "default period", query: "", wantPeriod: 30},
		{name: "explicit period", query: "&period=7", wantPeriod: 7},
		{name: "invalid period falls back", query: "&period=week", wantPeriod: 30},
		{name: "zero period falls back", query: "&period=0", wantPeriod: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()

			rec := env.do(http.MethodGet, "/users/activity?user_id=u1"+tt.query, "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantPeriod, env.rep.lastPeriod)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "u1", body["user_id"])
			assert.EqualValues(t, tt.wantPeriod, body["period"])

			submissions, ok := body["submissions"].(map[string]interface{})
			require.True(t, ok)
			assert.EqualValues(t, 37, submissions["total_views"])
			assert.Contains(t, body, "calculated_at")
		})
	}
}

func TestGetUserActivity_Errors(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodGet, "/users/activity", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrCodeInvalidInput, decodeError(t, rec).Error.Code)
	assert.Zero(t, env.rep.lastPeriod)

	env.rep.err = repository.ErrNotFound
	rec = env.do(http.MethodGet, "/users/activity?user_id=ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	env.rep.err = fmt.Errorf("activity period 5000 exceeds 3650 days: %w", repository.ErrInvalidInput)
	rec = env.do(http.MethodGet, "/users/activity?user_id=u1&period=5000", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 5000, env.rep.lastPeriod)
}

func TestGetReviewQuality(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodGet, "/reviews/quality?review_id=r1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body review.QualityResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, review.QualityResult{ReviewID: "r1", Score: 39}, body)

	rec = env.do(http.MethodGet, "/reviews/quality", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkHelpful_Self(t *testing.T) {
	env := newTestEnv()
	env.reviews.err = repository.ErrSelfAction

	rec := env.do(http.MethodPost, "/reviews/helpful", `{"review_id":"r1","user_id":"reviewer"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReviewerAvailability(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodGet, "/reviewers/availability?user_id=u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body matching.Availability
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Available)
	assert.Equal(t, 2, body.Active)
}
