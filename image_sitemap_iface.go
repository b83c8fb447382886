package goimagesitemap

import (
	"context"
	"time"
)

// PageSource exposes the site's rendered content to the generator.
type PageSource interface {
	// Posts returns every post known to the site, drafts included.
	Posts(ctx context.Context) ([]Page, error)
	// Pages returns every standalone page in source order.
	Pages(ctx context.Context) ([]Page, error)
}

// Page is a rendered post or page as seen by the generator.
type Page struct {
	// Path is the site-relative output path, e.g. "2024/01/02/hello/".
	Path string
	// Permalink is the absolute page URL. When empty, Path is resolved
	// against the site URL instead.
	Permalink string
	// Content is the rendered HTML.
	Content string
	Date    time.Time
	Draft   bool
	// Attributes holds string-valued front matter, keyed by field name.
	Attributes map[string]string
	// AssetDir is the page's asset directory, absolute or relative to
	// Options.SourceDir.
	AssetDir string
}

// Entry is one <url> block of the image sitemap.
type Entry struct {
	Loc    string
	Images []string
}

// Output is the generated sitemap file.
type Output struct {
	Path    string
	Data    []byte
	Entries []Entry
}
