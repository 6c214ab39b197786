package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moodlog/internal/config"
	"github.com/moodlog/internal/db"
	"github.com/moodlog/internal/handler"
	"github.com/moodlog/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

var routerDBSeq atomic.Int64

type testServer struct {
	t       *testing.T
	engine  *gin.Engine
	cookies []*http.Cookie
	bearer  string
}

func newTestServer(t *testing.T) (*testServer, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	require.NoError(t, db.Init(db.Options{
		Driver: config.DatabaseDriverSQLite,
		Path:   fmt.Sprintf("file:router-test-%d?mode=memory&cache=shared", routerDBSeq.Add(1)),
		Logger: logger.Default.LogMode(logger.Silent),
	}))
	gdb := db.DB
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	uploadDir := t.TempDir()
	store, err := storage.NewLocalStore(uploadDir, "/static/uploads", nil)
	require.NoError(t, err)

	api := handler.NewAPI(handler.Options{
		DB:    gdb,
		Store: store,
		Config: config.AppConfig{
			JWTSecret:    "router-test-secret",
			JWTTTL:       time.Hour,
			MemeMaxBytes: 1 << 20,
		},
		Location: time.Local,
	})
	engine := SetupRouter(api, Options{
		SessionSecret: "router-test-session",
		CORSOrigins:   []string{"http://localhost:5173"},
		UploadDir:     uploadDir,
		UploadURLPath: "/static/uploads",
	})
	return &testServer{t: t, engine: engine}, uploadDir
}

func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range s.cookies {
		req.AddCookie(cookie)
	}
	if s.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+s.bearer)
	}
	rr := httptest.NewRecorder()
	s.engine.ServeHTTP(rr, req)
	if cookies := rr.Result().Cookies(); len(cookies) > 0 {
		s.cookies = cookies
	}
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := srv.do(http.MethodGet, "/api/insights/trend", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	srv.bearer = "not-a-token"
	rr = srv.do(http.MethodGet, "/api/moods", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSessionFlowAndInsights(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := srv.do(http.MethodPost, "/api/auth/register", gin.H{"username": "uma", "password": "secret-pass"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = srv.do(http.MethodPost, "/api/auth/register", gin.H{"username": "uma", "password": "secret-pass"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	today := time.Now().Format(db.DateLayout)
	rr = srv.do(http.MethodPut, "/api/moods/"+today, gin.H{"mood": "😊"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = srv.do(http.MethodPut, "/api/moods/"+today, gin.H{"mood": "meh"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = srv.do(http.MethodPut, "/api/moods/"+today+"/journal", gin.H{"journal_text": "**good** day"})
	require.Equal(t, http.StatusOK, rr.Code)
	entry := decode(t, rr)["entry"].(map[string]interface{})
	assert.Contains(t, entry["journal_html"], "<strong>good</strong>")

	rr = srv.do(http.MethodPost, "/api/moods/"+today+"/activities", gin.H{
		"start_time": "07:00", "end_time": "07:45", "description": "Run", "is_energy_booster": true,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	activityID := decode(t, rr)["activity"].(map[string]interface{})["id"]

	rr = srv.do(http.MethodGet, "/api/insights/trend", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	trend := decode(t, rr)
	points := trend["points"].([]interface{})
	require.Len(t, points, 1)
	assert.EqualValues(t, 5, points[0].(map[string]interface{})["score"])
	assert.NotNil(t, trend["best"])

	// 未配置 API Key 时情感分按中性计算
	rr = srv.do(http.MethodGet, "/api/insights/suggestions", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	suggestions := decode(t, rr)["suggestions"].([]interface{})
	require.Len(t, suggestions, 1)
	first := suggestions[0].(map[string]interface{})
	assert.Equal(t, "Run", first["activity"])
	assert.InDelta(t, 0.75, first["score"], 1e-9)
	assert.Equal(t, "This activity was marked as energy-boosting 1 out of 1 times.", first["explanation"])

	rr = srv.do(http.MethodDelete, fmt.Sprintf("/api/activities/%v", activityID), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = srv.do(http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = srv.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestBearerTokenFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	require.Equal(t, http.StatusCreated, srv.do(http.MethodPost, "/api/auth/register", gin.H{"username": "vic", "password": "secret-pass"}).Code)
	srv.cookies = nil

	rr := srv.do(http.MethodPost, "/api/auth/token", gin.H{"username": "vic", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = srv.do(http.MethodPost, "/api/auth/token", gin.H{"username": "vic", "password": "secret-pass"})
	require.Equal(t, http.StatusOK, rr.Code)
	srv.bearer = decode(t, rr)["token"].(string)
	srv.cookies = nil

	rr = srv.do(http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "vic", decode(t, rr)["user"].(map[string]interface{})["username"])

	rr = srv.do(http.MethodGet, "/api/moods/2025-01-01", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSetupRouterServesUploads(t *testing.T) {
	srv, uploadDir := newTestServer(t)

	fileContent := []byte("hello uploads")
	require.NoError(t, os.MkdirAll(filepath.Join(uploadDir, "1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(uploadDir, "1", "example.txt"), fileContent, 0o644))

	rr := srv.do(http.MethodGet, "/static/uploads/1/example.txt", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, string(fileContent), rr.Body.String())
}

func TestOperationalEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := srv.do(http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = srv.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode(t, rr)["status"])

	rr = srv.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "moodlog_http_requests_total")
}

func TestSettingsRequireAdmin(t *testing.T) {
	srv, _ := newTestServer(t)
	_, err := db.EnsureUser(db.DB, "root", "root-secret", true)
	require.NoError(t, err)

	require.Equal(t, http.StatusCreated, srv.do(http.MethodPost, "/api/auth/register", gin.H{"username": "stranger", "password": "secret-pass"}).Code)

	rr := srv.do(http.MethodPut, "/api/settings", gin.H{"sentiment_provider": "openai", "openai_api_key": "sk-attacker-key"})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	rr = srv.do(http.MethodGet, "/api/settings", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	rr = srv.do(http.MethodPost, "/api/settings/test-sentiment", gin.H{"provider": "huggingface"})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = srv.do(http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, false, decode(t, rr)["user"].(map[string]interface{})["is_admin"])

	// 管理员看到的仍是未被修改的默认设置
	srv.cookies = nil
	require.Equal(t, http.StatusOK, srv.do(http.MethodPost, "/api/auth/login", gin.H{"username": "root", "password": "root-secret"}).Code)
	rr = srv.do(http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	settings := decode(t, rr)["settings"].(map[string]interface{})
	assert.NotEqual(t, "openai", settings["sentiment_provider"])
	assert.Equal(t, "", settings["openai_api_key"])
}
