// Fixtures for end-to-end tests of the proxy and the cache
package tests

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/iTrooz/webcache/internal/config"
	"github.com/iTrooz/webcache/internal/proxy"
)

// upstream is a test origin counting the requests it receives
type upstream struct {
	*httptest.Server
	hits atomic.Int32
}

// fixture_upstream creates a test upstream server
func fixture_upstream() *upstream {
	u := &upstream{}
	mux := http.NewServeMux()
	mux.HandleFunc("/not_found", func(w http.ResponseWriter, requ *http.Request) {
		u.hits.Add(1)
		http.NotFound(w, requ)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, requ *http.Request) {
		u.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message": "Hello from upstream", "path": "` + requ.URL.Path + `"}`))
	})
	u.Server = httptest.NewServer(mux)
	return u
}

// fixture_config creates a test config with optional rules
func fixture_config(tempDir string, rules *config.RulesConfig) *config.Config {
	cfg := config.Default()
	cfg.Cache.Dir = tempDir
	cfg.Cache.Life = "1h"

	if rules != nil {
		cfg.Rules = *rules
	}

	return &cfg
}

// fixture_proxy creates a proxy server with the given config and returns the server, test server, and HTTP client
func fixture_proxy(cfg *config.Config) (*proxy.Server, *httptest.Server, *http.Client, error) {
	proxyServer, err := proxy.New(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	// Create test proxy HTTP server using goproxy
	proxyTestServer := httptest.NewServer(proxyServer.GetProxy())

	// Create HTTP client that uses our proxy
	proxyURL, _ := url.Parse(proxyTestServer.URL)
	client := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyURL(proxyURL),
		},
		Timeout: 10 * time.Second,
	}

	return proxyServer, proxyTestServer, client, nil
}
