package goimagesitemap

import (
	"fmt"
	"iter"
	"log/slog"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
	".avif": {},
	".svg":  {},
}

// run holds the state of one generation pass.
type run struct {
	opts   Options
	site   string
	robots *robotsRules
	logger *slog.Logger
}

// collectPageImages gathers the page's images from cover fields, inline
// HTML, gallery widgets and its asset directory, in that order. ok is false
// when the page has nothing to list.
func (r *run) collectPageImages(page Page) (entry Entry, ok bool, err error) {
	loc, pagePath, err := pageLocation(page, r.site)
	if err != nil {
		return Entry{}, false, err
	}
	if !r.robots.allowed(loc) {
		r.logger.Debug(fmt.Sprintf("robots.txt disallows %s", loc))
		return Entry{}, false, nil
	}

	doc := parseHTML(page.Content)
	sources := []iter.Seq[string]{
		slices.Values(coverImages(page, r.opts.CoverFields)),
		extractHTMLImages(doc),
		extractGalleryImages(doc, r.logger),
		slices.Values(r.assetImages(page)),
	}

	rc := resolveContext{
		site:       r.site,
		pageURL:    loc,
		pagePath:   pagePath,
		stripQuery: r.opts.StripQuery,
	}
	limit := r.opts.MaxImagesPerURL
	seen := make(map[string]struct{})
	var images []string

collect:
	for _, source := range sources {
		for raw := range source {
			if limit >= 0 && len(images) >= limit {
				break collect
			}
			candidate := strings.TrimSpace(raw)
			if candidate == "" || !looksLikeImage(candidate) {
				continue
			}
			resolved, err := normalizeURL(candidate, rc)
			if err != nil {
				r.logger.Debug(fmt.Sprintf("invalid image URL %q on %s: %v", candidate, loc, err))
				continue
			}
			if resolved == "" {
				continue
			}
			if _, dup := seen[resolved]; dup {
				continue
			}
			seen[resolved] = struct{}{}
			images = append(images, resolved)
		}
	}

	if len(images) == 0 {
		return Entry{}, false, nil
	}
	return Entry{Loc: loc, Images: images}, true, nil
}

// coverImages returns the values of the configured cover fields in field
// order.
func coverImages(page Page, fields []string) []string {
	var covers []string
	for _, field := range fields {
		if value, ok := page.Attributes[field]; ok {
			covers = append(covers, value)
		}
	}
	return covers
}

func (r *run) assetImages(page Page) []string {
	if !r.opts.IncludeAssets || page.AssetDir == "" {
		return nil
	}
	dir := page.AssetDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(r.opts.SourceDir, dir)
	}
	files, err := listAssetImages(dir)
	if err != nil {
		r.logger.Debug(fmt.Sprintf("skipping asset dir %s: %v", dir, err))
		return nil
	}
	return files
}

// looksLikeImage accepts absolute URLs as they are and relative ones only
// with a known image extension.
func looksLikeImage(u string) bool {
	if isHTTPURL(u) || strings.HasPrefix(u, "//") {
		return true
	}
	p, _, _ := strings.Cut(u, "?")
	p, _, _ = strings.Cut(p, "#")
	_, ok := imageExtensions[strings.ToLower(path.Ext(p))]
	return ok
}
