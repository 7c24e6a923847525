package records

import (
	"net/url"
	"strings"
)

// ResolveURL turns an attachment reference returned by the backend into an
// absolute URL. Absolute URLs are kept; relative ones are resolved against the
// API host, i.e. apiBase with a trailing "/api" removed.
func ResolveURL(apiBase, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		return raw
	}
	if u, err := url.Parse(raw); err == nil && u.IsAbs() {
		return raw
	}
	host := strings.TrimSuffix(strings.TrimRight(apiBase, "/"), "/api")
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return host + raw
}
