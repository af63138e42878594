package media

import (
	"net/url"
	"strings"
)

// ResolvePath turns a stored path into the URL handed to clients. Stored
// absolute URLs, protocol-relative ones included, are returned unchanged;
// relative paths are joined to base with exactly one separating slash.
func ResolvePath(base, stored string) string {
	if isAbsoluteURL(stored) {
		return stored
	}
	rel := strings.TrimLeft(stored, "/")
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	return base + "/" + rel
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Host != ""
}
