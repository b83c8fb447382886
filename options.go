package goimagesitemap

import (
	"strings"
)

const (
	defaultSiteURL         = "http://localhost:4000"
	defaultName            = "sitemap-image.xml"
	defaultMaxImages       = 1000
	defaultRobotsUserAgent = "Googlebot-Image"
)

// Target selects which page groups end up in the sitemap.
type Target string

const (
	TargetPosts Target = "posts"
	TargetPages Target = "pages"
	TargetBoth  Target = "both"
)

// ParseTarget maps a config value to a Target. Unknown values select posts.
func ParseTarget(value string) Target {
	switch Target(strings.ToLower(strings.TrimSpace(value))) {
	case TargetPages:
		return TargetPages
	case TargetBoth:
		return TargetBoth
	default:
		return TargetPosts
	}
}

// DefaultCoverFields lists the front matter fields checked for a cover image.
func DefaultCoverFields() []string {
	return []string{"cover", "image", "thumbnail", "banner"}
}

// DefaultOptions returns the generator defaults. Options{} on its own
// disables query stripping, cover fields and emits no images, so callers
// building options by hand should start from here.
func DefaultOptions() Options {
	return Options{
		SiteURL:         defaultSiteURL,
		Target:          TargetPosts,
		MaxImagesPerURL: defaultMaxImages,
		StripQuery:      true,
		Name:            defaultName,
		CoverFields:     DefaultCoverFields(),
		RobotsUserAgent: defaultRobotsUserAgent,
	}
}
