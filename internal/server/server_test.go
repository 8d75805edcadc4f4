package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plantcare/internal/auth"
	"plantcare/internal/care"
	"plantcare/internal/metrics"
	"plantcare/internal/storage/sqlite"
)

type testServer struct {
	*Server
	token string
}

func newTestServer(t *testing.T, staticDir string) *testServer {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "plantcare.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	m, err := metrics.New()
	require.NoError(t, err)

	now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	svc := care.New(store, care.Options{
		Metrics:  m,
		Location: time.UTC,
		Now:      func() time.Time { return now },
	})
	return &testServer{Server: New(svc, auth.NewSessions(time.Hour, 0), m, nil, staticDir)}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	rec := httptest.NewRecorder()
	ts.Engine().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) login(t *testing.T, username string) {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/auth/login", map[string]string{"username": username})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	ts.token = resp.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, "")
	rec := ts.do(t, http.MethodGet, "/api/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequiresSession(t *testing.T) {
	ts := newTestServer(t, "")
	for _, path := range []string{"/api/plants", "/api/tasks/counts", "/api/auth/me", "/api/digest"} {
		rec := ts.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := ts.do(t, http.MethodPost, "/api/plants", map[string]string{"name": "Fern"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ts.login(t, "Alice")
	list := ts.do(t, http.MethodGet, "/api/plants", nil)
	require.Equal(t, http.StatusOK, list.Code)
	assert.JSONEq(t, `{"plants":[]}`, list.Body.String(), "rejected create left no state")
}

func TestLoginCookieAndLogout(t *testing.T) {
	ts := newTestServer(t, "")

	rec := ts.do(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "Alice Smith"})
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookies[0])
	me := httptest.NewRecorder()
	ts.Engine().ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)
	user := decode(t, me)["user"].(map[string]any)
	assert.Equal(t, "alice-smith", user["ownerId"])

	req = httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(cookies[0])
	out := httptest.NewRecorder()
	ts.Engine().ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookies[0])
	again := httptest.NewRecorder()
	ts.Engine().ServeHTTP(again, req)
	assert.Equal(t, http.StatusUnauthorized, again.Code)
}

func TestPlantLifecycle(t *testing.T) {
	ts := newTestServer(t, "")
	ts.login(t, "alice")

	rec := ts.do(t, http.MethodPost, "/api/plants", map[string]any{"light": "sunny"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	fields := body["fields"].(map[string]any)
	assert.Equal(t, "is required", fields["name"])
	assert.Equal(t, "must be one of: low, medium, bright", fields["light"])

	rec = ts.do(t, http.MethodPost, "/api/plants", map[string]any{"name": "Snake Plant", "waterIntervalDays": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	plant := decode(t, rec)["plant"].(map[string]any)
	assert.Equal(t, "snake-plant", plant["id"])

	rec = ts.do(t, http.MethodPost, "/api/plants", map[string]any{"name": "Snake plant"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPatch, "/api/plants/snake-plant", map[string]any{"health": "sick"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "sick", decode(t, rec)["plant"].(map[string]any)["health"])

	rec = ts.do(t, http.MethodPost, "/api/plants/snake-plant/water", map[string]any{"waterMl": 150})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode(t, rec)["plant"].(map[string]any)["lastWateredAt"])

	rec = ts.do(t, http.MethodPost, "/api/plants/snake-plant/events", map[string]any{"note": "rotated", "minutes": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/plants/snake-plant", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode(t, rec)
	assert.Len(t, detail["events"], 2)
	assert.EqualValues(t, 180, detail["recommendedWaterMl"])
	assert.NotContains(t, detail, "weather")

	rec = ts.do(t, http.MethodGet, "/api/plants?q=snake", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["plants"], 1)

	rec = ts.do(t, http.MethodDelete, "/api/plants/snake-plant", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodGet, "/api/plants/snake-plant", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOwnersAreIsolated(t *testing.T) {
	ts := newTestServer(t, "")
	ts.login(t, "alice")
	rec := ts.do(t, http.MethodPost, "/api/plants", map[string]any{"name": "Fern"})
	require.Equal(t, http.StatusCreated, rec.Code)

	ts.login(t, "bob")
	rec = ts.do(t, http.MethodGet, "/api/plants/fern", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(t, http.MethodPost, "/api/plants/fern/water", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTasksFlow(t *testing.T) {
	ts := newTestServer(t, "")
	ts.login(t, "alice")

	rec := ts.do(t, http.MethodPost, "/api/plants", map[string]any{"name": "Fern"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/tasks", map[string]any{"plantId": "fern", "type": "repot", "scheduledFor": "2025-03-09T10:00:00Z"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	task := decode(t, rec)["task"].(map[string]any)
	id := int64(task["id"].(float64))

	rec = ts.do(t, http.MethodGet, "/api/tasks/counts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"overdue":1,"today":0,"open":1}`, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/tasks/"+itoa(id)+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode(t, rec)["task"].(map[string]any)["completedAt"])

	rec = ts.do(t, http.MethodGet, "/api/tasks/today", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode(t, rec)
	assert.Len(t, view["completed"], 1)
	assert.Empty(t, view["overdue"])

	rec = ts.do(t, http.MethodPost, "/api/tasks/abc/complete", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(t, http.MethodPost, "/api/tasks/999/complete", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/tasks/generate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"generated":0,"created":0}`, rec.Body.String())
}

func TestSeedDigestAnalytics(t *testing.T) {
	ts := newTestServer(t, "")
	ts.login(t, "alice")

	rec := ts.do(t, http.MethodPost, "/api/plants/seed", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode(t, rec)
	assert.EqualValues(t, 53, res["plantsCreated"])
	assert.Positive(t, res["tasksGenerated"].(float64))

	rec = ts.do(t, http.MethodGet, "/api/digest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["buckets"])

	rec = ts.do(t, http.MethodGet, "/api/analytics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	a := decode(t, rec)
	assert.Contains(t, a, "nextDays")
	assert.Contains(t, a, "careTimeWeeks")

	rec = ts.do(t, http.MethodPost, "/api/plants/fix-images", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["updated"])
}

func TestRoomsSettingsWeather(t *testing.T) {
	ts := newTestServer(t, "")
	ts.login(t, "alice")

	rec := ts.do(t, http.MethodGet, "/api/weather", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"No coordinates configured"}`, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/weather?lat=abc&lon=1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "must be a number", decode(t, rec)["fields"].(map[string]any)["lat"])

	rec = ts.do(t, http.MethodGet, "/api/user-settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "metric", decode(t, rec)["settings"].(map[string]any)["unit"])

	rec = ts.do(t, http.MethodPatch, "/api/user-settings", map[string]any{"lat": 52.5, "lon": 13.4, "unit": "imperial"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// No weather source is configured on the test server.
	rec = ts.do(t, http.MethodGet, "/api/weather", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/rooms", map[string]any{"name": "Kitchen", "lat": 52.5, "lon": 13.4})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	room := decode(t, rec)["room"].(map[string]any)

	rec = ts.do(t, http.MethodGet, "/api/rooms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["rooms"], 1)

	rec = ts.do(t, http.MethodDelete, "/api/rooms/"+itoa(int64(room["id"].(float64))), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodDelete, "/api/rooms/"+itoa(int64(room["id"].(float64))), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMalformedBody(t *testing.T) {
	ts := newTestServer(t, "")
	ts.login(t, "alice")

	req := httptest.NewRequest(http.MethodPost, "/api/plants", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ts.token)
	rec := httptest.NewRecorder()
	ts.Engine().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid request body"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, "")
	ts.login(t, "alice")
	ts.do(t, http.MethodGet, "/api/plants", nil)

	rec := ts.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `plantcare_http_requests_total{method="GET",route="/api/plants",status="200"} 1`)
}

func TestStaticFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0o600))

	ts := newTestServer(t, dir)

	rec := ts.do(t, http.MethodGet, "/plants/fern", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "app")

	rec = ts.do(t, http.MethodGet, "/assets/app.js", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "immutable")

	rec = ts.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"endpoint not found"}`, rec.Body.String())
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
