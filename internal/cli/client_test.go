package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientDecodesSuccess(t *testing.T) {
	var gotID, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-ID")
		gotType = r.Header.Get("Content-Type")
		_ = json.NewEncoder(w).Encode(SubmitResult{Score: 4})
	}))
	defer srv.Close()

	var result SubmitResult
	err := NewClient(srv.URL+"/", false).Post("/api/v1/games/g1/submit", map[string]int{"stage": 1}, &result)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Score)
	assert.NotEmpty(t, gotID)
	assert.Equal(t, "application/json", gotType)
}

func TestClientReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":{"code":"ALREADY_SUBMITTED","message":"stage already submitted"}}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, false).Post("/api/v1/games/g1/submit", nil, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "ALREADY_SUBMITTED", apiErr.Code)
	assert.NotEmpty(t, apiErr.RequestID)
	assert.Equal(t, "stage already submitted (ALREADY_SUBMITTED)", err.Error())
}

func TestClientFallsBackToRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, false).Get("/api/v1/health", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
}
