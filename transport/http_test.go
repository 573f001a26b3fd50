package transport

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	})
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ok", http.StatusFound)
	})
	mux.HandleFunc("/basic", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "user" || pass != "pass" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("authenticated"))
	})
	mux.HandleFunc("/bearer", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("Authorization")))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestHTTPFetch(t *testing.T) {
	upstream := fixtureUpstream(t)
	fetcher := NewHTTP(5 * time.Second)

	res, err := fetcher.Fetch(upstream.URL+"/ok", NoAuth())
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "hello", string(res.Body))
	assert.Equal(t, upstream.URL+"/ok", res.BaseURI)
}

func TestHTTPFetchFollowsRedirects(t *testing.T) {
	upstream := fixtureUpstream(t)
	fetcher := NewHTTP(5 * time.Second)

	res, err := fetcher.Fetch(upstream.URL+"/redirect", NoAuth())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, upstream.URL+"/ok", res.BaseURI)
}

func TestHTTPFetchNotFound(t *testing.T) {
	upstream := fixtureUpstream(t)
	fetcher := NewHTTP(5 * time.Second)

	res, err := fetcher.Fetch(upstream.URL+"/missing", NoAuth())
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "404 Not Found", res.Status)
}

func TestHTTPFetchAuth(t *testing.T) {
	upstream := fixtureUpstream(t)
	fetcher := NewHTTP(5 * time.Second)

	tests := []struct {
		name     string
		path     string
		auth     Auth
		wantCode int
		wantBody string
	}{
		{name: "valid basic", path: "/basic", auth: BasicAuth("user", "pass"), wantCode: 200, wantBody: "authenticated"},
		{name: "wrong basic", path: "/basic", auth: BasicAuth("user", "wrong"), wantCode: 401},
		{name: "no auth", path: "/basic", auth: NoAuth(), wantCode: 401},
		{name: "opaque header", path: "/bearer", auth: OpaqueAuth("Bearer t0k3n"), wantCode: 200, wantBody: "Bearer t0k3n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := fetcher.Fetch(upstream.URL+tt.path, tt.auth)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, res.StatusCode)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, string(res.Body))
			}
		})
	}
}

func TestHTTPFetchTransportErrors(t *testing.T) {
	fetcher := NewHTTP(2 * time.Second)

	_, err := fetcher.Fetch("http://127.0.0.1:1/unreachable", NoAuth())
	assert.Error(t, err)

	_, err = fetcher.Fetch("://not a url", NoAuth())
	assert.Error(t, err)
}
