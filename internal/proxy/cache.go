package proxy

import (
	"net/http"

	"github.com/elazarl/goproxy"
	"github.com/iTrooz/webcache"
	"github.com/sirupsen/logrus"
)

// getCachedResponse answers requ through the cache, fetching on a miss
func (s *Server) getCachedResponse(requ *http.Request) *http.Response {
	targetURL := getTargetURL(requ)
	hit := s.cache.Enabled() && s.cache.Cached(targetURL)

	cached, err := s.cache.Get(targetURL)
	if err != nil {
		logrus.Errorf("Failed to get cached data for %s: %v", targetURL, err)
		return goproxy.NewResponse(requ, goproxy.ContentTypeText, http.StatusInternalServerError, err.Error())
	}

	status := cached.Code()
	if status == 0 {
		// no status line was received from upstream
		status = http.StatusBadGateway
	}

	resp := goproxy.NewResponse(requ, http.DetectContentType(cached.Content()), status, cached.String())
	if hit {
		resp.Header.Set("X-Cache", "HIT")
	} else {
		resp.Header.Set("X-Cache", "MISS")
	}
	resp.Header.Set("X-Cache-Key", webcache.Key(targetURL))

	logrus.Infof("Served %s %s -> %d (%s)", requ.Method, targetURL, status, resp.Header.Get("X-Cache"))
	return resp
}

// shouldBeCached determines if a request is answered through the cache based on rules
func (s *Server) shouldBeCached(requ *http.Request) bool {
	targetURL := getTargetURL(requ)

	matched := false
	for _, rule := range s.rules {
		if rule.Match(targetURL) {
			matched = true
			break
		}
	}

	if s.config.Rules.Mode == "whitelist" {
		return matched
	}
	return !matched
}
