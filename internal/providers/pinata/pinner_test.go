package pinata

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestPinJSON(t *testing.T) {
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/pinning/pinJSONToIPFS", r.URL.Path)
		assert.Equal(t, "Bearer jwt-1", r.Header.Get("Authorization"))
		body, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"IpfsHash":"bafyabc","PinSize":120,"Timestamp":"2024-01-01T00:00:00Z"}`))
	}))
	t.Cleanup(server.Close)

	pinner := New(Config{JWT: "jwt-1", APIBase: server.URL + "/"}, server.Client())
	hash, err := pinner.PinJSON(context.Background(), "trivia-game-1", map[string]any{"game_id": "game-1"})
	require.NoError(t, err)
	assert.Equal(t, "bafyabc", hash)

	assert.Equal(t, "trivia-game-1", gjson.GetBytes(body, "pinataMetadata.name").String())
	assert.Equal(t, "game-1", gjson.GetBytes(body, "pinataContent.game_id").String())
}

func TestPinJSONErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"invalid jwt"}`},
		{"no hash", http.StatusOK, `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			t.Cleanup(server.Close)

			_, err := New(Config{JWT: "jwt-1", APIBase: server.URL}, server.Client()).PinJSON(context.Background(), "n", struct{}{})
			assert.Error(t, err)
		})
	}
}

func TestPinJSONUnencodablePayload(t *testing.T) {
	_, err := New(Config{APIBase: "http://127.0.0.1:0"}, nil).PinJSON(context.Background(), "n", make(chan int))
	assert.Error(t, err)
}
