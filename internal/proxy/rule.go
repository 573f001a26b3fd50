package proxy

import (
	"strings"

	"github.com/iTrooz/webcache/internal/config"
)

// Rule interface for matching requests against caching rules
type Rule interface {
	Match(targetURL string) bool
}

// ConfigRule implements Rule interface for config-based rules
type ConfigRule struct {
	config.CacheRule
}

// Match checks if a URL starts with the rule base URI
func (r *ConfigRule) Match(targetURL string) bool {
	return strings.HasPrefix(targetURL, r.BaseURI)
}
