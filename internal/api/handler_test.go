package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"hallpass-backend/internal/clock"
	"hallpass-backend/internal/db"
	"hallpass-backend/internal/escalation"
	"hallpass-backend/internal/model"
	"hallpass-backend/internal/pass"
	"hallpass-backend/internal/store"
)

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	clock  *clock.Fake
}

func setupEnv(t *testing.T, webpushOptions *webpush.Options) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	t.Cleanup(func() {
		sqlDB, _ := gormDB.DB()
		sqlDB.Close()
	})

	appStore := store.NewGormStore(gormDB)
	clk := clock.NewFake(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	passService := pass.NewService(appStore, clk)
	resolver := escalation.NewResolver(appStore, model.EscalationThresholds{Warning: 10, Alert: 20})
	monitor := escalation.NewMonitor(appStore, resolver, nil, clk, time.Minute)

	router := NewRouter(appStore, passService, monitor, webpushOptions, RouterConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTL:        time.Millisecond,
	})
	return testEnv{router: router, db: gormDB, clock: clk}
}

func (e testEnv) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(payload)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func createPassBody(studentID string) map[string]any {
	return map[string]any{
		"studentId":               studentID,
		"studentName":             "Alex Rivera",
		"originLocationId":        "room-101",
		"originLocationName":      "Room 101",
		"destinationLocationId":   "lib",
		"destinationLocationName": "Library",
		"issuedById":              "staff-1",
		"issuedByName":            "Ms. Chen",
	}
}

func TestPassEndpoints(t *testing.T) {
	env := setupEnv(t, nil)

	require.NoError(t, env.db.Create(&model.Location{
		ID: "lib", Name: "Library", Type: model.LocationLibrary, IsCheckInEligible: true,
	}).Error)
	require.NoError(t, env.db.Create(&model.Location{
		ID: "restroom-2f", Name: "Restroom 2F", Type: model.LocationRestroom, IsCheckInEligible: true,
	}).Error)

	w := env.request(t, "POST", "/api/passes", createPassBody("stu-1"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		PassID string `json:"passId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.PassID)

	t.Run("duplicate active pass conflicts", func(t *testing.T) {
		w := env.request(t, "POST", "/api/passes", createPassBody("stu-1"))
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		req, _ := http.NewRequest("POST", "/api/passes", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("same origin and destination is a bad request", func(t *testing.T) {
		body := createPassBody("stu-2")
		body["destinationLocationId"] = body["originLocationId"]
		w := env.request(t, "POST", "/api/passes", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get pass returns legs", func(t *testing.T) {
		w := env.request(t, "GET", "/api/passes/"+created.PassID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Pass model.Pass      `json:"pass"`
			Legs []model.PassLeg `json:"legs"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, created.PassID, resp.Pass.ID)
		require.Len(t, resp.Legs, 1)
	})

	t.Run("unknown pass is not found", func(t *testing.T) {
		w := env.request(t, "GET", "/api/passes/missing", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("restroom check-in conflicts", func(t *testing.T) {
		w := env.request(t, "POST", "/api/passes/"+created.PassID+"/checkin",
			map[string]any{"locationId": "restroom-2f", "actorId": "staff-2"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("eligible check-in succeeds", func(t *testing.T) {
		w := env.request(t, "POST", "/api/passes/"+created.PassID+"/checkin",
			map[string]any{"locationId": "lib", "actorId": "staff-2", "actorName": "Mr. Okafor"})
		assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	})

	t.Run("return closes the pass once", func(t *testing.T) {
		w := env.request(t, "POST", "/api/passes/"+created.PassID+"/return",
			map[string]any{"actorId": "staff-1", "actorName": "Ms. Chen"})
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = env.request(t, "POST", "/api/passes/"+created.PassID+"/return",
			map[string]any{"actorId": "staff-1", "actorName": "Ms. Chen"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestEscalationEndpoints(t *testing.T) {
	env := setupEnv(t, nil)

	w := env.request(t, "POST", "/api/passes", createPassBody("stu-1"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.request(t, "GET", "/api/passes/active", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var active []model.Pass
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &active))
	require.Len(t, active, 1)

	env.clock.Advance(15 * time.Minute)

	w = env.request(t, "POST", "/api/escalations/check", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sweep struct {
		Checked   int `json:"checked"`
		Escalated int `json:"escalated"`
		Errors    int `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sweep))
	assert.Equal(t, 1, sweep.Checked)
	assert.Equal(t, 1, sweep.Escalated)
	assert.Equal(t, 0, sweep.Errors)

	w = env.request(t, "GET", "/api/escalations/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats escalation.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalActive)
	assert.Equal(t, 1, stats.Warnings)
}

func TestSubscriptionEndpoints(t *testing.T) {
	env := setupEnv(t, nil)

	t.Run("missing fields are rejected", func(t *testing.T) {
		w := env.request(t, "PUT", "/api/subscriptions", map[string]any{"endpoint": "https://example.com/push"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	w := env.request(t, "PUT", "/api/subscriptions", map[string]any{
		"endpoint": "https://example.com/push",
		"userId":   "user-1",
		"p256dh":   "key",
		"auth":     "secret",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("list by user", func(t *testing.T) {
		w := env.request(t, "GET", "/api/subscriptions?userId=user-1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Endpoints []string `json:"endpoints"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, []string{"https://example.com/push"}, resp.Endpoints)
	})

	t.Run("list requires userId", func(t *testing.T) {
		w := env.request(t, "GET", "/api/subscriptions", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := env.request(t, "DELETE", "/api/subscriptions", map[string]any{
			"endpoint": "https://example.com/push",
		})
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestVAPIDPublicKeyEndpoint(t *testing.T) {
	t.Run("unconfigured", func(t *testing.T) {
		env := setupEnv(t, nil)
		w := env.request(t, "GET", "/api/vapid_public_key", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("configured", func(t *testing.T) {
		env := setupEnv(t, &webpush.Options{VAPIDPublicKey: "public-key"})
		w := env.request(t, "GET", "/api/vapid_public_key", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"public_key":"public-key"}`, w.Body.String())
	})
}
