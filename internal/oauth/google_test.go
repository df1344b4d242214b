package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/shrutimovaliya24/softcool/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		BaseURL:            "http://localhost:3000",
		GoogleClientID:     "client-123",
		GoogleClientSecret: "shh",
	}
}

func fakeProvider(t *testing.T, profile map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "client-123", r.PostForm.Get("client_id"))
		assert.Equal(t, "shh", r.PostForm.Get("client_secret"))
		assert.Equal(t, "http://localhost:3000/api/auth/google/callback", r.PostForm.Get("redirect_uri"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(profile)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(testConfig(), zap.NewNop(),
		WithEndpoint(srv.URL+"/auth", srv.URL+"/token"),
		WithUserInfoURL(srv.URL+"/userinfo"),
		WithHTTPClient(srv.Client()))
}

func TestAuthURL(t *testing.T) {
	c := NewClient(testConfig(), zap.NewNop())
	require.True(t, c.Configured())

	u, err := url.Parse(c.AuthURL(""))
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "/o/oauth2/v2/auth", u.Path)

	q := u.Query()
	assert.Equal(t, "client-123", q.Get("client_id"))
	assert.Equal(t, "http://localhost:3000/api/auth/google/callback", q.Get("redirect_uri"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
}

func TestExchange(t *testing.T) {
	srv := fakeProvider(t, map[string]string{
		"email":   "asha@gmail.com",
		"name":    "Asha Rao",
		"picture": "https://example.com/a.png",
	})

	profile, err := newTestClient(srv).Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, Profile{Email: "asha@gmail.com", Name: "Asha Rao", Picture: "https://example.com/a.png"}, profile)
}

func TestExchangeBadCode(t *testing.T) {
	srv := fakeProvider(t, map[string]string{"email": "asha@gmail.com"})
	_, err := newTestClient(srv).Exchange(context.Background(), "bad-code")
	assert.Error(t, err)
}

func TestExchangeProfileWithoutEmail(t *testing.T) {
	srv := fakeProvider(t, map[string]string{"name": "Nobody"})
	_, err := newTestClient(srv).Exchange(context.Background(), "good-code")
	assert.ErrorIs(t, err, ErrMissingEmail)
}
