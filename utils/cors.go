package utils

import "net/url"

// IsAllowedOrigin checks whether an Origin header value should be trusted.
// Exact matches against the configured frontend origins are allowed, plus
// localhost in any scheme/port for development.
func IsAllowedOrigin(origin string, allowed []string) bool {
	if origin == "" {
		return false
	}

	for _, a := range allowed {
		if origin == a {
			return true
		}
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	hostname := parsed.Hostname()
	return hostname == "localhost" || hostname == "127.0.0.1"
}
