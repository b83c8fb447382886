package goimagesitemap

import (
	"errors"
	"strings"

	whatwg "github.com/nlnwa/whatwg-url/url"
)

// resolveContext is what raw image references are resolved against.
type resolveContext struct {
	site       string
	pageURL    string
	pagePath   string
	stripQuery bool
}

// resolveURL turns a raw reference into an absolute URL. An empty result
// means the reference is discarded.
func resolveURL(raw string, rc resolveContext) (string, error) {
	switch {
	case raw == "":
		return "", nil
	case hasPrefixFold(raw, "data:"):
		return "", nil
	case isHTTPURL(raw):
		return raw, nil
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw, nil
	case strings.HasPrefix(raw, "/"):
		return resolveReference(rc.site, raw)
	}
	// Themes emit asset links relative to the site root but without the
	// leading slash, e.g. "2024/01/post/a.jpg" on that post's own page.
	if rc.pagePath != "" && strings.HasPrefix(raw, strings.TrimPrefix(rc.pagePath, "/")) {
		return resolveReference(rc.site, "/"+raw)
	}
	return resolveReference(rc.pageURL, raw)
}

// normalizeURL trims raw, strips query and fragment when enabled and
// resolves the remainder.
func normalizeURL(raw string, rc resolveContext) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", nil
	}
	if rc.stripQuery {
		if i := strings.IndexByte(value, '?'); i >= 0 {
			value = value[:i]
		}
		if i := strings.IndexByte(value, '#'); i >= 0 {
			value = value[:i]
		}
	}
	return resolveURL(value, rc)
}

func resolveReference(base, ref string) (string, error) {
	resolved, err := whatwg.ParseRef(base, ref)
	if err != nil {
		return "", err
	}
	return resolved.Href(false), nil
}

// parseSiteURL validates the site base and strips trailing slashes.
func parseSiteURL(raw string) (string, error) {
	site := strings.TrimRight(strings.TrimSpace(raw), "/")
	if site == "" {
		site = defaultSiteURL
	}
	parsed, err := whatwg.Parse(site)
	if err != nil {
		return "", &ErrInvalidURL{URL: raw, Err: err}
	}
	if !isHTTPURL(parsed.Href(false)) {
		return "", &ErrInvalidURL{URL: raw, Err: errors.New("scheme must be http or https")}
	}
	return site, nil
}

// pageLocation returns the page's absolute URL and its path with trailing
// slashes collapsed to one.
func pageLocation(page Page, site string) (string, string, error) {
	loc := page.Permalink
	if strings.TrimSpace(loc) == "" {
		ref := page.Path
		if ref == "" {
			ref = "/"
		}
		resolved, err := resolveReference(site, ref)
		if err != nil {
			return "", "", &ErrInvalidURL{URL: page.Path, Err: err}
		}
		loc = resolved
	}
	parsed, err := whatwg.Parse(loc)
	if err != nil {
		return "", "", &ErrInvalidURL{URL: loc, Err: err}
	}
	return loc, collapseTrailingSlashes(parsed.Pathname()), nil
}

func collapseTrailingSlashes(p string) string {
	trimmed := strings.TrimRight(p, "/")
	if len(trimmed) == len(p) {
		return p
	}
	return trimmed + "/"
}

func isHTTPURL(u string) bool {
	return hasPrefixFold(u, "http://") || hasPrefixFold(u, "https://")
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
