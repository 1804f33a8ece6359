package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeProvider serves a token endpoint plus the given API routes.
func fakeProvider(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer"}`))
	})
	for path, body := range routes {
		body := body
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testEndpoint(srv *httptest.Server) oauth2.Endpoint {
	return oauth2.Endpoint{AuthURL: srv.URL + "/authorize", TokenURL: srv.URL + "/token", AuthStyle: oauth2.AuthStyleInParams}
}

func TestGitHubExchange(t *testing.T) {
	tests := []struct {
		name   string
		routes map[string]string
		want   Identity
	}{
		{
			name:   "public email",
			routes: map[string]string{"/user": `{"id":1,"login":"octo","name":"Octo Cat","email":"octo@example.com"}`},
			want:   Identity{Email: "octo@example.com", DisplayName: "Octo Cat"},
		},
		{
			name: "primary verified from emails endpoint",
			routes: map[string]string{
				"/user":        `{"id":1,"login":"octo","email":null}`,
				"/user/emails": `[{"email":"old@example.com","primary":false,"verified":true},{"email":"main@example.com","primary":true,"verified":true}]`,
			},
			want: Identity{Email: "main@example.com", DisplayName: "octo"},
		},
		{
			name: "withheld email falls back to noreply",
			routes: map[string]string{
				"/user":        `{"id":1,"login":"octo"}`,
				"/user/emails": `[]`,
			},
			want: Identity{Email: "octo@users.noreply.github.com", DisplayName: "octo"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := fakeProvider(t, tt.routes)
			p := NewGitHubProvider("id", "secret", "http://localhost:3000/api/auth/github/callback")
			p.config.Endpoint = testEndpoint(srv)
			p.apiBase = srv.URL

			got, err := p.Exchange(context.Background(), "the-code")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGoogleExchange(t *testing.T) {
	srv := fakeProvider(t, map[string]string{"/userinfo": `{"email":"ann@example.com","name":"Ann"}`})
	p := NewGoogleProvider("id", "secret", "http://localhost:3000/api/auth/google/callback")
	p.config.Endpoint = testEndpoint(srv)
	p.userInfoURL = srv.URL + "/userinfo"

	got, err := p.Exchange(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, Identity{Email: "ann@example.com", DisplayName: "Ann"}, got)
}

func TestGoogleExchangeWithoutEmail(t *testing.T) {
	srv := fakeProvider(t, map[string]string{"/userinfo": `{"name":"Ann"}`})
	p := NewGoogleProvider("id", "secret", "cb")
	p.config.Endpoint = testEndpoint(srv)
	p.userInfoURL = srv.URL + "/userinfo"

	_, err := p.Exchange(context.Background(), "the-code")
	assert.ErrorIs(t, err, ErrNoEmail)
}

func TestAuthURLCarriesState(t *testing.T) {
	p := NewGitHubProvider("cid", "secret", "http://localhost:3000/api/auth/github/callback")
	u, err := url.Parse(p.AuthURL("state-123"))
	require.NoError(t, err)
	assert.Equal(t, "github.com", u.Host)
	assert.Equal(t, "state-123", u.Query().Get("state"))
	assert.Equal(t, "cid", u.Query().Get("client_id"))
	assert.Equal(t, "user:email", u.Query().Get("scope"))
}

func TestDisplayNameFor(t *testing.T) {
	assert.Equal(t, "Ann Lee", DisplayNameFor(Identity{DisplayName: " Ann Lee ", Email: "ann@x.io"}))
	assert.Equal(t, "ann", DisplayNameFor(Identity{Email: "ann@x.io"}))
	assert.Equal(t, "User", DisplayNameFor(Identity{}))
}
