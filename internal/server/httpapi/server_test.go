package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timegrid/timegrid/internal/logging"
	"github.com/timegrid/timegrid/internal/server/auth"
	"github.com/timegrid/timegrid/internal/server/config"
	"github.com/timegrid/timegrid/internal/server/models"
	"github.com/timegrid/timegrid/internal/server/repositories/repomanager"
	"github.com/timegrid/timegrid/internal/server/services"

	_ "modernc.org/sqlite"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := sql.Open("sqlite", "file:httpapi_tests?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	m := repomanager.NewSQLiteRepositoryManager()
	require.NoError(t, m.RunMigrations(context.Background(), db))
	_, err = db.Exec(`DELETE FROM timesheet_entries`)
	require.NoError(t, err)
	_, err = db.Exec(`DELETE FROM weekly_timesheets`)
	require.NoError(t, err)

	log := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	svc := services.NewTimesheetService(db, m, log)

	cfg := &config.Config{EndpointAddr: ":0", SecretKey: testSecret}
	return NewServer(svc, cfg, log)
}

func token(t *testing.T, userID string, role models.Role) string {
	t.Helper()
	tok, err := auth.GenerateToken(models.Identity{UserID: userID, Role: role}, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return tok
}

func doJSON(t *testing.T, h http.Handler, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestAuth_MissingOrBadToken(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodGet, "/api/v1/timesheets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/timesheets", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body errorResponse
	decodeInto(t, rec, &body)
	assert.Equal(t, "unauthenticated", body.Code)
}

func TestEnsureDraft_Endpoint(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()
	tok := token(t, "alice", models.RoleMember)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/timesheets/ensure", tok, ensureRequest{WeekStart: "2026-08-24"})
	require.Equal(t, http.StatusOK, rec.Code)

	var header HeaderDTO
	decodeInto(t, rec, &header)
	assert.NotEmpty(t, header.ID)
	assert.Equal(t, "alice", header.UserID)
	assert.Equal(t, "2026-08-24", header.WeekStart)
	assert.Equal(t, "draft", header.Status)

	// non-Monday → validation
	rec = doJSON(t, h, http.MethodPost, "/api/v1/timesheets/ensure", tok, ensureRequest{WeekStart: "2026-08-26"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// malformed body → validation
	req := httptest.NewRequest(http.MethodPost, "/api/v1/timesheets/ensure", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveGrid_Endpoint(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()
	tok := token(t, "alice", models.RoleMember)

	hours := 2.5
	save := saveRequest{
		WeekStart: "2026-08-24",
		Rows: []EntryDTO{{
			ProjectID:   "p1",
			Description: "api work",
			Days: [7]DaySlotDTO{
				{}, {Hours: &hours}, {}, {}, {}, {}, {},
			},
		}},
	}

	rec := doJSON(t, h, http.MethodPost, "/api/v1/timesheets/save", tok, save)
	require.Equal(t, http.StatusOK, rec.Code)

	var view TimesheetDTO
	decodeInto(t, rec, &view)
	assert.Equal(t, "draft", view.Header.Status)
	require.Len(t, view.Entries, 1)
	require.NotNil(t, view.Entries[0].Days[1].Hours)
	assert.Equal(t, "09:00", view.Entries[0].Days[1].StartTime)
	assert.Equal(t, "11:30", view.Entries[0].Days[1].EndTime)

	// fetch it back
	rec = doJSON(t, h, http.MethodGet, "/api/v1/timesheets/"+view.Header.ID, tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// another member cannot see it
	rec = doJSON(t, h, http.MethodGet, "/api/v1/timesheets/"+view.Header.ID, token(t, "bob", models.RoleMember), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// unknown id
	rec = doJSON(t, h, http.MethodGet, "/api/v1/timesheets/missing", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLifecycle_Endpoints(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()
	member := token(t, "alice", models.RoleMember)
	owner := token(t, "boss", models.RoleOwner)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/timesheets/ensure", member, ensureRequest{WeekStart: "2026-08-24"})
	require.Equal(t, http.StatusOK, rec.Code)
	var header HeaderDTO
	decodeInto(t, rec, &header)

	// approve before submit conflicts
	rec = doJSON(t, h, http.MethodPost, "/api/v1/timesheets/"+header.ID+"/approve", owner, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	var body errorResponse
	decodeInto(t, rec, &body)
	assert.Equal(t, "status_conflict", body.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/timesheets/"+header.ID+"/submit", member, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// members cannot moderate
	rec = doJSON(t, h, http.MethodPost, "/api/v1/timesheets/"+header.ID+"/approve", member, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/timesheets/"+header.ID+"/reject", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/timesheets/"+header.ID+"/reopen", member, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []EntryDTO
	decodeInto(t, rec, &rows)
	assert.Empty(t, rows)

	// status filter on the list endpoint
	rec = doJSON(t, h, http.MethodGet, "/api/v1/timesheets?status=rejected", member, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var headers []HeaderDTO
	decodeInto(t, rec, &headers)
	require.Len(t, headers, 1)
	assert.Equal(t, header.ID, headers[0].ID)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/timesheets?status=bogus", member, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNextOpenWeek_Endpoint(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()
	tok := token(t, "alice", models.RoleMember)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/weeks/next-open?from=2026-08-26", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var open OpenWeekDTO
	decodeInto(t, rec, &open)
	assert.Empty(t, open.DraftID)
	assert.Equal(t, "2026-08-24", open.WeekStart)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/weeks/next-open?from=bogus", tok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTimerStop_Endpoint(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()
	tok := token(t, "alice", models.RoleMember)

	start := time.Date(2026, 8, 25, 9, 0, 0, 0, time.Local)
	rec := doJSON(t, h, http.MethodPost, "/api/v1/timers/stop", tok, timerStopRequest{
		Start:       start,
		End:         start.Add(150 * time.Minute),
		ProjectID:   "p1",
		Description: "timer work",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var entry EntryDTO
	decodeInto(t, rec, &entry)
	require.NotNil(t, entry.Days[1].Hours)
	assert.InDelta(t, 2.5, *entry.Days[1].Hours, 0.001)
	assert.Equal(t, "09:00", entry.Days[1].StartTime)
	assert.Equal(t, "11:30", entry.Days[1].EndTime)

	// interval without a project is refused
	rec = doJSON(t, h, http.MethodPost, "/api/v1/timers/stop", tok, timerStopRequest{
		Start: start, End: start.Add(time.Hour),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCopyPrevious_Endpoint(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()
	tok := token(t, "alice", models.RoleMember)

	// nothing to copy
	rec := doJSON(t, h, http.MethodPost, "/api/v1/timesheets/copy-previous", tok, ensureRequest{WeekStart: "2026-08-24"})
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []EntryDTO
	decodeInto(t, rec, &rows)
	assert.Empty(t, rows)

	// seed the previous week, copy into the next
	hours := 8.0
	save := saveRequest{
		WeekStart: "2026-08-17",
		Rows: []EntryDTO{{
			ProjectID:   "p1",
			Description: "recurring",
			Days:        [7]DaySlotDTO{{Hours: &hours}},
		}},
	}
	rec = doJSON(t, h, http.MethodPost, "/api/v1/timesheets/save", tok, save)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/timesheets/copy-previous", tok, ensureRequest{WeekStart: "2026-08-24"})
	require.Equal(t, http.StatusOK, rec.Code)
	rows = nil
	decodeInto(t, rec, &rows)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].ID)
	assert.Equal(t, "p1", rows[0].ProjectID)
	require.NotNil(t, rows[0].Days[0].Hours)
	assert.InDelta(t, 8.0, *rows[0].Days[0].Hours, 0.001)
}
