package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/triviastake/internal/testutil"
)

func newRouter(t *testing.T, h http.HandlerFunc) (http.Handler, *testutil.LogCapture) {
	t.Helper()
	logger, logs := testutil.CaptureLogger()

	r := mux.NewRouter()
	r.Use(RequestID)
	r.Use(Logging(logger))
	r.Use(Recovery(logger, func(w http.ResponseWriter, _ *http.Request, _ any) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	r.HandleFunc("/api/v1/games/{id}", h)
	r.HandleFunc("/api/v1/health", h)
	return r, logs
}

func TestRequestIDIsGeneratedAndEchoed(t *testing.T) {
	var seen string
	router, _ := newRouter(t, func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/games/g1", nil))

	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDKeepsCallerID(t *testing.T) {
	id := uuid.NewString()
	router, _ := newRouter(t, func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/games/g1", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDReplacesMalformedID(t *testing.T) {
	router, _ := newRouter(t, func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/games/g1", nil)
	req.Header.Set(RequestIDHeader, "not\nan id")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.NotEqual(t, "not\nan id", rec.Header().Get(RequestIDHeader))
}

func TestLoggingUsesRouteTemplate(t *testing.T) {
	router, logs := newRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("full"))
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/games/g1", nil))

	records := logs.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "WARN", records[0]["level"])
	assert.Equal(t, "/api/v1/games/{id}", records[0]["route"])
	assert.Equal(t, "g1", records[0]["game_id"])
	assert.EqualValues(t, http.StatusForbidden, records[0]["status"])
	assert.EqualValues(t, 4, records[0]["size"])
}

func TestLoggingHealthAtDebug(t *testing.T) {
	router, logs := newRouter(t, func(w http.ResponseWriter, r *http.Request) {})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	records := logs.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "DEBUG", records[0]["level"])
	assert.NotContains(t, records[0], "game_id")
}

func TestRecoveryLogsAndResponds(t *testing.T) {
	router, logs := newRouter(t, func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/games/g1", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	records := logs.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "handler panicked", records[0]["msg"])
	assert.Equal(t, "boom", records[0]["panic"])
	assert.Equal(t, "ERROR", records[1]["level"])
	assert.EqualValues(t, http.StatusInternalServerError, records[1]["status"])
}

func TestRecoveryRethrowsAbort(t *testing.T) {
	router, _ := newRouter(t, func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	})

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/games/g1", nil))
	})
}
