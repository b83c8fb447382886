package goimagesitemap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

type staticSource struct {
	posts    []Page
	pages    []Page
	postsErr error
	pagesErr error
}

func (s *staticSource) Posts(context.Context) ([]Page, error) {
	return s.posts, s.postsErr
}

func (s *staticSource) Pages(context.Context) ([]Page, error) {
	return s.pages, s.pagesErr
}

func newTestGenerator(mutate func(*Options)) *Generator {
	opts := DefaultOptions()
	opts.SiteURL = "https://ex.com/"
	opts.Logger = discardLogger()
	if mutate != nil {
		mutate(&opts)
	}
	return New(opts)
}

func entryLocs(entries []Entry) []string {
	locs := make([]string, 0, len(entries))
	for _, entry := range entries {
		locs = append(locs, entry.Loc)
	}
	return locs
}

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerator_Generate_EndToEnd(t *testing.T) {
	src := &staticSource{posts: []Page{{
		Permalink:  "https://ex.com/p/",
		Content:    `<img src="b.png">`,
		Attributes: map[string]string{"cover": "c.jpg"},
	}}}

	out, err := newTestGenerator(nil).Generate(context.Background(), src)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	const want = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9" xmlns:image="http://www.google.com/schemas/sitemap-image/1.1">
  <url>
    <loc>https://ex.com/p/</loc>
    <image:image><image:loc>https://ex.com/p/c.jpg</image:loc></image:image>
    <image:image><image:loc>https://ex.com/p/b.png</image:loc></image:image>
  </url>
</urlset>
`
	if string(out.Data) != want {
		t.Fatalf("unexpected document:\n%s", out.Data)
	}
	if out.Path != "sitemap-image.xml" {
		t.Fatalf("expected default name, got %q", out.Path)
	}
}

func TestGenerator_Generate_Targets(t *testing.T) {
	src := &staticSource{
		posts: []Page{
			{Path: "old/", Date: day(1), Content: `<img src="o.jpg">`},
			{Path: "new/", Date: day(3), Content: `<img src="n.jpg">`},
			{Path: "mid/", Date: day(2), Content: `<img src="m.jpg">`},
		},
		pages: []Page{
			{Path: "about/", Content: `<img src="a.jpg">`},
			{Path: "contact/", Content: `<img src="c.jpg">`},
		},
	}

	tests := []struct {
		target Target
		want   []string
	}{
		{target: TargetPosts, want: []string{"https://ex.com/new/", "https://ex.com/mid/", "https://ex.com/old/"}},
		{target: TargetPages, want: []string{"https://ex.com/about/", "https://ex.com/contact/"}},
		{target: TargetBoth, want: []string{
			"https://ex.com/new/", "https://ex.com/mid/", "https://ex.com/old/",
			"https://ex.com/about/", "https://ex.com/contact/",
		}},
		{target: Target("unknown"), want: []string{"https://ex.com/new/", "https://ex.com/mid/", "https://ex.com/old/"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.target), func(t *testing.T) {
			gen := newTestGenerator(func(o *Options) {
				o.Target = tt.target
				o.Concurrency = 4
			})
			out, err := gen.Generate(context.Background(), src)
			if err != nil {
				t.Fatalf("generate failed: %v", err)
			}
			if got := entryLocs(out.Entries); !slices.Equal(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}

	if src.posts[0].Path != "old/" {
		t.Fatalf("expected source slice to be left unsorted")
	}
}

func TestGenerator_Generate_Drafts(t *testing.T) {
	src := &staticSource{posts: []Page{
		{Path: "draft/", Date: day(2), Draft: true, Content: `<img src="d.jpg">`},
		{Path: "live/", Date: day(1), Content: `<img src="l.jpg">`},
	}}

	out, err := newTestGenerator(nil).Generate(context.Background(), src)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if got := entryLocs(out.Entries); !slices.Equal(got, []string{"https://ex.com/live/"}) {
		t.Fatalf("expected drafts to be skipped, got %v", got)
	}

	out, err = newTestGenerator(func(o *Options) { o.IncludeDrafts = true }).Generate(context.Background(), src)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(out.Entries) != 2 {
		t.Fatalf("expected drafts to be included, got %v", entryLocs(out.Entries))
	}
}

func TestGenerator_Generate_OmitsEmptyPages(t *testing.T) {
	src := &staticSource{posts: []Page{
		{Path: "text/", Date: day(2), Content: `<p>no images</p><link href="style.css">`},
		{Path: "pics/", Date: day(1), Content: `<img src="p.jpg">`},
	}}

	out, err := newTestGenerator(nil).Generate(context.Background(), src)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if got := entryLocs(out.Entries); !slices.Equal(got, []string{"https://ex.com/pics/"}) {
		t.Fatalf("expected only pages with images, got %v", got)
	}
}

func TestGenerator_Generate_RespectRobots(t *testing.T) {
	src := &staticSource{pages: []Page{
		{Path: "private/secret/", Content: `<img src="s.jpg">`},
		{Path: "public/", Content: `<img src="p.jpg">`},
	}}
	robots := []byte("User-agent: Googlebot-Image\nDisallow: /private/\n")

	out, err := newTestGenerator(func(o *Options) {
		o.Target = TargetPages
		o.RobotsTxt = robots
	}).Generate(context.Background(), src)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if got := entryLocs(out.Entries); !slices.Equal(got, []string{"https://ex.com/public/"}) {
		t.Fatalf("expected robots.txt to exclude private page, got %v", got)
	}

	out, err = newTestGenerator(func(o *Options) {
		o.Target = TargetPages
		o.RobotsTxt = robots
		o.RobotsUserAgent = "SomeOtherBot"
	}).Generate(context.Background(), src)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(out.Entries) != 2 {
		t.Fatalf("expected other agents to see both pages, got %v", entryLocs(out.Entries))
	}
}

func TestGenerator_Generate_RereadsRobotsFile(t *testing.T) {
	src := &staticSource{pages: []Page{
		{Path: "private/", Content: `<img src="s.jpg">`},
		{Path: "public/", Content: `<img src="p.jpg">`},
	}}
	robotsPath := filepath.Join(t.TempDir(), "robots.txt")
	writeRobots := func(body string) {
		t.Helper()
		if err := os.WriteFile(robotsPath, []byte(body), 0o644); err != nil {
			t.Fatalf("failed to write robots.txt: %v", err)
		}
	}

	gen := newTestGenerator(func(o *Options) {
		o.Target = TargetPages
		o.RobotsFile = robotsPath
	})

	out, err := gen.Generate(context.Background(), src)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(out.Entries) != 2 {
		t.Fatalf("expected missing robots.txt to allow everything, got %v", entryLocs(out.Entries))
	}

	writeRobots("User-agent: *\nDisallow: /private/\n")
	out, err = gen.Generate(context.Background(), src)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if got := entryLocs(out.Entries); !slices.Equal(got, []string{"https://ex.com/public/"}) {
		t.Fatalf("expected new robots.txt to apply, got %v", got)
	}

	writeRobots("User-agent: *\nDisallow: /public/\n")
	out, err = gen.Generate(context.Background(), src)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if got := entryLocs(out.Entries); !slices.Equal(got, []string{"https://ex.com/private/"}) {
		t.Fatalf("expected edited robots.txt to apply, got %v", got)
	}
}

func TestGenerator_Generate_Errors(t *testing.T) {
	gen := newTestGenerator(nil)

	var nilSource *ErrNilSource
	if _, err := gen.Generate(context.Background(), nil); !errors.As(err, &nilSource) {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}

	listErr := errors.New("database locked")
	var sourceErr *ErrPageSource
	_, err := gen.Generate(context.Background(), &staticSource{postsErr: listErr})
	if !errors.As(err, &sourceErr) || !errors.Is(err, listErr) {
		t.Fatalf("expected ErrPageSource wrapping cause, got %v", err)
	}

	var invalid *ErrInvalidURL
	bad := newTestGenerator(func(o *Options) { o.SiteURL = "mailto:someone@ex.com" })
	if _, err := bad.Generate(context.Background(), &staticSource{}); !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
}

func TestGenerator_Generate_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &staticSource{posts: []Page{{Path: "a/", Content: `<img src="a.jpg">`}}}
	_, err := newTestGenerator(nil).Generate(ctx, src)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGenerator_WriteTo(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "public")
	src := &staticSource{posts: []Page{{Path: "a/", Content: `<img src="a.jpg">`}}}

	gen := newTestGenerator(func(o *Options) { o.Name = "images/sitemap.xml" })
	out, err := gen.WriteTo(context.Background(), src, dir)
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "images", "sitemap.xml"))
	if err != nil {
		t.Fatalf("expected sitemap on disk: %v", err)
	}
	if string(data) != string(out.Data) {
		t.Fatalf("written data differs from output")
	}
}

func TestGenerator_WriteTo_Failure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create blocker: %v", err)
	}

	var writeErr *ErrWriteOutput
	_, err := newTestGenerator(nil).WriteTo(context.Background(), &staticSource{}, blocker)
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected ErrWriteOutput, got %v", err)
	}
}
