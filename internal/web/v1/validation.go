package v1

import (
	"net/url"
	"strconv"
	"strings"
)

// parseUserID accepts only positive decimal ids from route params.
// Anything else is treated as an unknown user.
func parseUserID(raw string) (int, bool) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// safeReturnPath keeps redirects on this site. Absolute URLs,
// scheme-relative paths and anything unparsable fall back to "/".
func safeReturnPath(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return u.RequestURI()
}

// websiteHref turns a bare host like "hildegard.org" into a link target.
func websiteHref(site string) string {
	site = strings.TrimSpace(site)
	if strings.HasPrefix(site, "http://") || strings.HasPrefix(site, "https://") {
		return site
	}
	return "http://" + site
}
