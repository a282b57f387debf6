package ratelimit

import (
	"strings"
)

var unlimited = &EndpointConfig{Pattern: "/health", Method: "GET"}

// MatchEndpoint returns the config for a request, or nil when none applies. Exact and wildcard
// patterns win over prefix patterns.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	if path == "/health" && method == "GET" {
		return unlimited
	}

	for i := range configs {
		c := &configs[i]
		if c.Method == method && !strings.HasSuffix(c.Pattern, "/") && segmentsMatch(c.Pattern, path) {
			return c
		}
	}
	for i := range configs {
		c := &configs[i]
		if c.Method == method && strings.HasSuffix(c.Pattern, "/") && strings.HasPrefix(path, c.Pattern) {
			return c
		}
	}
	return nil
}

func segmentsMatch(pattern, path string) bool {
	ps := strings.Split(strings.Trim(pattern, "/"), "/")
	xs := strings.Split(strings.Trim(path, "/"), "/")
	if len(ps) != len(xs) {
		return false
	}
	for i := range ps {
		if ps[i] != "*" && ps[i] != xs[i] {
			return false
		}
		if ps[i] == "*" && xs[i] == "" {
			return false
		}
	}
	return true
}
