package goimagesitemap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
)

// ===================== Configuration =====================

// Options configures page selection, image discovery and output naming.
// Start from DefaultOptions when building options by hand.
type Options struct {
	// SiteURL is the absolute site base. Trailing slashes are ignored.
	SiteURL string
	// SourceDir is the root that relative asset directories are joined to.
	SourceDir string
	Target    Target

	IncludeDrafts bool
	// IncludeAssets lists every image in a page's asset directory.
	IncludeAssets bool
	// MaxImagesPerURL caps images per page. Negative means no cap.
	MaxImagesPerURL int
	// StripQuery drops ?query and #fragment before resolving.
	StripQuery bool
	// Name is the output file name.
	Name string
	// CoverFields are page attributes holding a representative image, in
	// priority order.
	CoverFields []string

	// RobotsTxt, when set, excludes pages it disallows for RobotsUserAgent.
	RobotsTxt []byte
	// RobotsFile is read at the start of every Generate and takes
	// precedence over RobotsTxt while it is readable.
	RobotsFile      string
	RobotsUserAgent string

	// Concurrency bounds how many pages are scanned at once.
	Concurrency int
	Logger      *slog.Logger
}

// Generator builds image sitemaps from a PageSource.
// A Generator is safe for concurrent use.
type Generator struct {
	opts   Options
	logger *slog.Logger
}

// ===================== Public API =====================

// New builds a Generator, filling in defaults for unset names, target,
// concurrency and logger.
func New(opts Options) *Generator {
	if opts.Name == "" {
		opts.Name = defaultName
	}
	opts.Target = ParseTarget(string(opts.Target))
	if opts.RobotsUserAgent == "" {
		opts.RobotsUserAgent = defaultRobotsUserAgent
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Generator{
		opts:   opts,
		logger: opts.Logger,
	}
}

// Generate scans the selected pages and renders the sitemap document.
// Per-page problems (bad gallery data, missing asset directories) only drop
// the affected images; an invalid site URL or page location fails the run.
func (g *Generator) Generate(ctx context.Context, src PageSource) (*Output, error) {
	if src == nil {
		return nil, &ErrNilSource{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	site, err := parseSiteURL(g.opts.SiteURL)
	if err != nil {
		return nil, err
	}
	r := &run{
		opts:   g.opts,
		site:   site,
		robots: newRobotsRules(g.robotsTxt(), g.opts.RobotsUserAgent, g.logger),
		logger: g.logger,
	}

	pages, err := g.selectPages(ctx, src)
	if err != nil {
		return nil, err
	}

	results := make([]*Entry, len(pages))
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Concurrency)
	for i, page := range pages {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			entry, ok, err := r.collectPageImages(page)
			if err != nil {
				return err
			}
			if ok {
				results[i] = &entry
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(results))
	for _, entry := range results {
		if entry != nil {
			entries = append(entries, *entry)
		}
	}

	var buf bytes.Buffer
	if err := writeSitemap(&buf, entries); err != nil {
		return nil, err
	}
	g.logger.Info(fmt.Sprintf("scanned %d pages, %d with images", len(pages), len(entries)))

	return &Output{
		Path:    g.opts.Name,
		Data:    buf.Bytes(),
		Entries: entries,
	}, nil
}

// WriteTo generates the sitemap and writes it into dir.
func (g *Generator) WriteTo(ctx context.Context, src PageSource, dir string) (*Output, error) {
	out, err := g.Generate(ctx, src)
	if err != nil {
		return nil, err
	}
	target := filepath.Join(dir, out.Path)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, &ErrWriteOutput{Path: target, Err: err}
	}
	if err := os.WriteFile(target, out.Data, 0o644); err != nil {
		return nil, &ErrWriteOutput{Path: target, Err: err}
	}
	return out, nil
}

// ===================== Page Selection =====================

// selectPages returns posts newest first, pages in source order, or posts
// followed by pages, with drafts removed unless requested.
func (g *Generator) selectPages(ctx context.Context, src PageSource) ([]Page, error) {
	var selected []Page
	if g.opts.Target == TargetPosts || g.opts.Target == TargetBoth {
		posts, err := src.Posts(ctx)
		if err != nil {
			return nil, &ErrPageSource{Group: "posts", Err: err}
		}
		posts = slices.Clone(posts)
		slices.SortStableFunc(posts, func(a, b Page) int {
			return b.Date.Compare(a.Date)
		})
		selected = append(selected, posts...)
	}
	if g.opts.Target == TargetPages || g.opts.Target == TargetBoth {
		pages, err := src.Pages(ctx)
		if err != nil {
			return nil, &ErrPageSource{Group: "pages", Err: err}
		}
		selected = append(selected, pages...)
	}

	if g.opts.IncludeDrafts {
		return selected, nil
	}
	return slices.DeleteFunc(selected, func(p Page) bool {
		if p.Draft {
			g.logger.Debug(fmt.Sprintf("skipping draft %s", p.Path))
		}
		return p.Draft
	}), nil
}
