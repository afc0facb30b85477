package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkrause09/web-to-do/internal/api"
	"github.com/vkrause09/web-to-do/internal/core"
	"github.com/vkrause09/web-to-do/internal/store"
)

type testEnv struct {
	store   *store.Store
	handler http.Handler
}

func setupTestServer(t *testing.T, authToken string) *testEnv {
	t.Helper()
	s, err := store.Open(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := func() time.Time { return time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC) }
	metrics := core.NewMetrics(s, logger, time.UTC, now)
	lifecycle := core.NewLifecycle(s, logger, time.UTC, now, nil)

	srv, err := api.NewServer("127.0.0.1:0", authToken, metrics, lifecycle, logger)
	require.NoError(t, err)
	return &testEnv{store: s, handler: srv.Handler()}
}

func (e *testEnv) seed(t *testing.T, sheet string, rows ...[]any) {
	t.Helper()
	for _, cells := range rows {
		require.NoError(t, e.store.Append(context.Background(), sheet, cells))
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestListTasksShape(t *testing.T) {
	env := setupTestServer(t, "")
	env.seed(t, core.SheetAllTasks, []any{"task b", "2", "2024-03-01 08:00:00"})
	env.seed(t, core.SheetAllTasks, []any{"task a", "1", "2024-03-02 08:00:00"})
	env.seed(t, core.SheetCompletedTasks,
		[]any{"done", "1", "2024-03-10 08:00:00", "all good", core.StatusCompleted, int64(0)})

	rec := env.do(t, http.MethodGet, "/v1/tasks/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]json.RawMessage](t, rec)
	require.Contains(t, body, "all")
	require.Contains(t, body, "completed")

	var all []map[string]string
	require.NoError(t, json.Unmarshal(body["all"], &all))
	require.Len(t, all, 2)
	assert.Equal(t, "task a", all[0]["name"])
	assert.Equal(t, "1", all[0]["priority"])
	assert.Equal(t, "2024-03-02 08:00:00", all[0]["date_added"])
	assert.Equal(t, "task b", all[1]["name"])

	var done []map[string]any
	require.NoError(t, json.Unmarshal(body["completed"], &done))
	require.Len(t, done, 1)
	assert.Equal(t, "all good", done[0]["comment"])
	assert.Equal(t, core.StatusCompleted, done[0]["status"])
	assert.Equal(t, false, done[0]["flagged"])
}

func TestListTasksEmptySheetsYieldEmptyArrays(t *testing.T) {
	env := setupTestServer(t, "")
	rec := env.do(t, http.MethodGet, "/v1/tasks/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"all":[],"completed":[]}`, rec.Body.String())
}

func TestCompleteTask(t *testing.T) {
	env := setupTestServer(t, "")
	env.seed(t, core.SheetAllTasks, []any{"fix printer", "1", "2024-03-01 08:00:00"})

	payload := []byte(`{"name":"fix printer","comment":"toner replaced"}`)
	rec := env.do(t, http.MethodPost, "/v1/tasks/complete", payload)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// A second attempt finds nothing left to move.
	rec = env.do(t, http.MethodPost, "/v1/tasks/complete", payload)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode[map[string]map[string]string](t, rec)
	assert.Equal(t, "not_found", body["error"]["code"])
}

func TestCompleteTaskRejectsBadInput(t *testing.T) {
	env := setupTestServer(t, "")

	rec := env.do(t, http.MethodPost, "/v1/tasks/complete", []byte(`{not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[map[string]map[string]string](t, rec)
	assert.Equal(t, "invalid_json", body["error"]["code"])

	rec = env.do(t, http.MethodPost, "/v1/tasks/complete", []byte(`{"name":"  "}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body = decode[map[string]map[string]string](t, rec)
	assert.Equal(t, "invalid_input", body["error"]["code"])
}

func TestPassFailEmptyReturnsEmptyObject(t *testing.T) {
	env := setupTestServer(t, "")
	rec := env.do(t, http.MethodGet, "/v1/pass_fail", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestPassFailLatestSnapshot(t *testing.T) {
	env := setupTestServer(t, "")
	env.seed(t, core.SheetPassFail,
		[]any{"2024-02-01 00:00:00", int64(4), int64(2)},
		[]any{"2024-03-01 00:00:00", int64(7), int64(1)})

	rec := env.do(t, http.MethodGet, "/v1/pass_fail", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"date":"2024-03-01 00:00:00","pass":7,"fail":1}`, rec.Body.String())
}

func TestTurnAroundTimeSeries(t *testing.T) {
	env := setupTestServer(t, "")
	env.seed(t, core.SheetTurnAround,
		[]any{"2024-02-10 00:00:00", 4.0},
		[]any{"2024-02-20 00:00:00", 6.0})

	rec := env.do(t, http.MethodGet, "/v1/turn_around_time", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"date":"2024-02-01 00:00:00","turn_around_time":5}]`, rec.Body.String())
}

func TestOpenCloseMonthlySeries(t *testing.T) {
	env := setupTestServer(t, "")
	env.seed(t, core.SheetOpenClose,
		[]any{"2024-03-01 00:00:00", int64(3), int64(2)})

	rec := env.do(t, http.MethodGet, "/v1/open_close_monthly", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"date":"2024-03-01 00:00:00","open":3,"close":2}]`, rec.Body.String())
}

func TestTypesEndpoint(t *testing.T) {
	env := setupTestServer(t, "")
	env.seed(t, core.SheetTypes,
		[]any{"Hardware", int64(3)},
		[]any{"Software", int64(5)})

	rec := env.do(t, http.MethodGet, "/v1/types", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"type":"Hardware","qty":3},{"type":"Software","qty":5}]`, rec.Body.String())
}

func TestCompletedThisWeekEndpoint(t *testing.T) {
	env := setupTestServer(t, "")
	env.seed(t, core.SheetCompletedTasks,
		[]any{"in week", "1", "2024-03-12 10:00:00"},
		[]any{"before week", "1", "2024-03-03 10:00:00"})

	rec := env.do(t, http.MethodGet, "/v1/tasks_completed_this_week", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":1}`, rec.Body.String())
}

func TestAuthMiddleware(t *testing.T) {
	env := setupTestServer(t, "secret-token")

	rec := env.do(t, http.MethodGet, "/v1/types", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/types", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	out := httptest.NewRecorder()
	env.handler.ServeHTTP(out, req)
	assert.Equal(t, http.StatusOK, out.Code)

	rec = env.do(t, http.MethodGet, "/v1/types?token=secret-token", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/types", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	out = httptest.NewRecorder()
	env.handler.ServeHTTP(out, req)
	assert.Equal(t, http.StatusUnauthorized, out.Code)
}

func TestIndexServesDashboard(t *testing.T) {
	env := setupTestServer(t, "")
	rec := env.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<html")
}
