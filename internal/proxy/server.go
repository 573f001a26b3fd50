// Serves a caching forward proxy backed by the web cache
package proxy

import (
	"fmt"
	"io"
	"net/http"

	"github.com/elazarl/goproxy"
	"github.com/iTrooz/webcache"
	"github.com/iTrooz/webcache/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server represents the caching proxy server
type Server struct {
	config *config.Config
	cache  *webcache.Cache
	closer io.Closer
	proxy  *goproxy.ProxyHttpServer
	rules  []Rule
}

// New creates a new proxy server and the cache described by cfg
func New(cfg *config.Config) (*Server, error) {
	c, closer, err := cfg.NewCache()
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	s, err := NewWithCache(cfg, c)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	s.closer = closer
	return s, nil
}

// NewWithCache creates a proxy server answering through an existing cache
func NewWithCache(cfg *config.Config, c *webcache.Cache) (*Server, error) {
	s := &Server{
		config: cfg,
		cache:  c,
		proxy:  goproxy.NewProxyHttpServer(),
	}

	for _, rule := range cfg.Rules.Rules {
		s.rules = append(s.rules, &ConfigRule{CacheRule: rule})
	}

	if cfg.Server.HTTPS.Intercept {
		if err := s.setupHTTPSProxyHandler(); err != nil {
			return nil, err
		}
	}

	s.proxy.OnRequest().DoFunc(s.handleRequest)
	s.proxy.NonproxyHandler = s.nonProxyHandler()

	return s, nil
}

// GetProxy returns the underlying goproxy handler
func (s *Server) GetProxy() *goproxy.ProxyHttpServer {
	return s.proxy
}

// Cache returns the cache answering proxied requests
func (s *Server) Cache() *webcache.Cache {
	return s.cache
}

// Start starts the proxy server
func (s *Server) Start() error {
	logrus.Infof("Starting caching proxy on port %d", s.config.Server.Port)
	logrus.Infof("Cache backend: %s", s.config.Cache.Backend)
	logrus.Infof("Cache directory: %s", s.cache.Dir())
	logrus.Infof("Cache life: %s", s.cache.Life())
	logrus.Infof("Rules mode: %s", s.config.Rules.Mode)

	return http.ListenAndServe(fmt.Sprintf(":%d", s.config.Server.Port), s.proxy)
}

// Close releases the cache storage
func (s *Server) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func (s *Server) handleRequest(requ *http.Request, ctx *goproxy.ProxyCtx) (*http.Request, *http.Response) {
	// Only GET requests have cacheable semantics
	if requ.Method != http.MethodGet {
		return requ, nil
	}

	if !s.shouldBeCached(requ) {
		logrus.Debugf("Forwarding %s without cache (excluded by rules)", requ.URL)
		return requ, nil
	}

	return requ, s.getCachedResponse(requ)
}

func (s *Server) nonProxyHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "This is a caching proxy server. Configure it as your HTTP proxy.", http.StatusNotFound)
	})
	return mux
}
