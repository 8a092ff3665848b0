package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlatform struct {
	server     *httptest.Server
	forms      []url.Values
	rotate     bool
	meHandle   string
	meStatus   int
	lastBearer string
}

func newFakePlatform(t *testing.T) *fakePlatform {
	f := &fakePlatform{rotate: true, meHandle: "alice", meStatus: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		f.forms = append(f.forms, r.PostForm)
		w.Header().Set("Content-Type", "application/json")
		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			if r.PostForm.Get("code") == "bad" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			w.Write([]byte(`{"access_token":"access-1","refresh_token":"refresh-1","token_type":"bearer","expires_in":7200}`))
		case "refresh_token":
			if f.rotate {
				w.Write([]byte(`{"access_token":"access-2","refresh_token":"refresh-2","token_type":"bearer","expires_in":7200}`))
				return
			}
			w.Write([]byte(`{"access_token":"access-2","token_type":"bearer","expires_in":7200}`))
		}
	})
	mux.HandleFunc("/2/users/me", func(w http.ResponseWriter, r *http.Request) {
		f.lastBearer = r.Header.Get("Authorization")
		w.WriteHeader(f.meStatus)
		w.Write([]byte(`{"data":{"id":"42","name":"Alice","username":"` + f.meHandle + `"}}`))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakePlatform) provider() *Provider {
	return New(Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/callback",
		AuthURL:      f.server.URL + "/oauth2/authorize",
		TokenURL:     f.server.URL + "/oauth2/token",
		Scopes:       []string{"tweet.read", "users.read"},
		APIBase:      f.server.URL,
	}, f.server.Client())
}

func TestAuthCodeURL(t *testing.T) {
	f := newFakePlatform(t)

	raw := f.provider().AuthCodeURL("state-1", "verifier-1")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "client", q.Get("client_id"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
	assert.NotEqual(t, "verifier-1", q.Get("code_challenge"))
	assert.Equal(t, "tweet.read users.read", q.Get("scope"))
}

func TestExchange(t *testing.T) {
	f := newFakePlatform(t)

	token, err := f.provider().Exchange(context.Background(), "code-1", "verifier-1")
	require.NoError(t, err)
	assert.Equal(t, "access-1", token.AccessToken)
	assert.Equal(t, "refresh-1", token.RefreshToken)
	assert.False(t, token.Expiry.IsZero())

	require.Len(t, f.forms, 1)
	assert.Equal(t, "verifier-1", f.forms[0].Get("code_verifier"))
	assert.Equal(t, "code-1", f.forms[0].Get("code"))
}

func TestExchangeRejected(t *testing.T) {
	f := newFakePlatform(t)

	_, err := f.provider().Exchange(context.Background(), "bad", "verifier-1")
	assert.Error(t, err)
}

func TestRefresh(t *testing.T) {
	f := newFakePlatform(t)

	token, err := f.provider().Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "access-2", token.AccessToken)
	assert.Equal(t, "refresh-2", token.RefreshToken)
	assert.Equal(t, "refresh-1", f.forms[0].Get("refresh_token"))
}

func TestRefreshWithoutRotation(t *testing.T) {
	f := newFakePlatform(t)
	f.rotate = false

	token, err := f.provider().Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", token.RefreshToken)
}

func TestRefreshRequiresToken(t *testing.T) {
	f := newFakePlatform(t)

	_, err := f.provider().Refresh(context.Background(), "")
	assert.Error(t, err)
	assert.Empty(t, f.forms)
}

func TestLookupHandle(t *testing.T) {
	f := newFakePlatform(t)

	handle, err := f.provider().LookupHandle(context.Background(), "access-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", handle)
	assert.Equal(t, "Bearer access-1", f.lastBearer)
}

func TestLookupHandleErrors(t *testing.T) {
	f := newFakePlatform(t)

	f.meStatus = http.StatusUnauthorized
	_, err := f.provider().LookupHandle(context.Background(), "access-1")
	assert.Error(t, err)

	f.meStatus = http.StatusOK
	f.meHandle = ""
	_, err = f.provider().LookupHandle(context.Background(), "access-1")
	assert.Error(t, err)
}
