package playback

import (
	"net/url"

	"flixhaven/models"
)

// BuildProxyURL rewrites a source's origin URL and required headers into one
// same-origin URL under base. A browser player cannot attach arbitrary
// request headers and scraped origins rarely send permissive CORS headers;
// the proxy endpoint re-issues the request server-side with the forwarded
// headers instead.
func BuildProxyURL(base string, src models.SourceRecord) string {
	values := url.Values{}
	values.Set("url", src.URL)
	for key, val := range src.Headers {
		values.Set(key, val)
	}
	// url.Values.Encode sorts keys, keeping the output deterministic.
	return base + "?" + values.Encode()
}
