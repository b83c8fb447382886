// Package content reads a Hexo-style source tree and exposes it as a
// goimagesitemap.PageSource.
//
// Posts live under _posts (and _drafts, always marked as drafts). Every
// other Markdown or HTML file outside directories starting with "_" or "."
// is a page. Files may start with a YAML front matter block.
package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kennygrant/sanitize"
	"github.com/saintfish/chardet"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html/charset"
	"gopkg.in/yaml.v3"

	goimagesitemap "github.com/kotylevskiy/go-image-sitemap"
)

const (
	postsDir  = "_posts"
	draftsDir = "_drafts"

	defaultPermalink = ":year/:month/:day/:title/"
)

var frontMatterPattern = regexp.MustCompile(`\A---[ \t]*\r?\n(?:([\s\S]*?)\r?\n)?---[ \t]*(?:\r?\n|\z)`)

// Options configures a Source.
type Options struct {
	// Dir is the source directory.
	Dir string
	// Permalink is the post path pattern. Supported placeholders are
	// :year :month :day :hour :minute :second :title and :name.
	Permalink string
	// PostAssetFolder gives every file an asset directory named after it.
	PostAssetFolder bool
	// FilenameCase converts the case of :title and :name. Zero keeps the
	// file name as written.
	FilenameCase int
	// SlugTitles rewrites :title and :name as lowercase ASCII slugs.
	SlugTitles bool
	Logger     *slog.Logger
}

// Source loads pages from disk on every call.
type Source struct {
	opts     Options
	markdown goldmark.Markdown
	logger   *slog.Logger
}

// New builds a Source.
func New(opts Options) *Source {
	if opts.Permalink == "" {
		opts.Permalink = defaultPermalink
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Source{
		opts: opts,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
		),
		logger: opts.Logger,
	}
}

// Posts returns published posts followed by drafts, in directory order.
func (s *Source) Posts(ctx context.Context) ([]goimagesitemap.Page, error) {
	posts, err := s.walk(ctx, postsDir, kindPost)
	if err != nil {
		return nil, err
	}
	drafts, err := s.walk(ctx, draftsDir, kindDraft)
	if err != nil {
		return nil, err
	}
	return append(posts, drafts...), nil
}

// Pages returns standalone pages in directory order.
func (s *Source) Pages(ctx context.Context) ([]goimagesitemap.Page, error) {
	return s.walk(ctx, "", kindPage)
}

type kind int

const (
	kindPost kind = iota
	kindDraft
	kindPage
)

func (s *Source) walk(ctx context.Context, sub string, k kind) ([]goimagesitemap.Page, error) {
	root := filepath.Join(s.opts.Dir, sub)
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) && sub != "" {
			return nil, nil
		}
		return nil, err
	}

	var pages []goimagesitemap.Page
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == root {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") || (k == kindPage && strings.HasPrefix(name, "_")) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isContentFile(name) {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		page, err := s.load(p, sub, filepath.ToSlash(rel), k)
		if err != nil {
			return err
		}
		pages = append(pages, page)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pages, nil
}

func isContentFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".html", ".htm":
		return true
	}
	return false
}

func isMarkdown(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// load reads one file. rel is slash-separated and relative to sub.
func (s *Source) load(file, sub, rel string, k kind) (goimagesitemap.Page, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return goimagesitemap.Page{}, fmt.Errorf("read %s: %w", file, err)
	}
	info, err := os.Stat(file)
	if err != nil {
		return goimagesitemap.Page{}, fmt.Errorf("stat %s: %w", file, err)
	}
	data = s.toUTF8(file, data)

	fm, body := s.splitFrontMatter(file, data)
	page := goimagesitemap.Page{
		Date:       info.ModTime(),
		Draft:      k == kindDraft,
		Attributes: make(map[string]string),
	}
	for key, value := range fm {
		if str, ok := value.(string); ok {
			page.Attributes[key] = str
		}
	}
	if date := parseTimeValue(fm["date"]); date != nil {
		page.Date = *date
	}
	if draft, ok := fm["draft"].(bool); ok && draft {
		page.Draft = true
	}
	if published, ok := fm["published"].(bool); ok && !published {
		page.Draft = true
	}

	page.Content = string(body)
	if isMarkdown(rel) {
		var out bytes.Buffer
		if err := s.markdown.Convert(body, &out); err != nil {
			s.logger.Warn(fmt.Sprintf("rendering %s as plain HTML: %v", file, err))
		} else {
			page.Content = out.String()
		}
	}

	stem := strings.TrimSuffix(rel, path.Ext(rel))
	switch permalink := strings.TrimSpace(page.Attributes["permalink"]); {
	case strings.HasPrefix(permalink, "http://") || strings.HasPrefix(permalink, "https://"):
		page.Permalink = permalink
	case permalink != "":
		page.Path = strings.TrimPrefix(permalink, "/")
	case k == kindPage:
		page.Path = stem + ".html"
	default:
		page.Path = expandPermalink(s.opts.Permalink, s.titleSlug(stem), page.Date)
	}

	switch {
	case page.Attributes["asset_dir"] != "":
		page.AssetDir = page.Attributes["asset_dir"]
	case s.opts.PostAssetFolder:
		page.AssetDir = path.Join(sub, stem) + "/"
	}
	return page, nil
}

// toUTF8 transcodes files saved in a legacy encoding. Undetectable input is
// returned unchanged.
func (s *Source) toUTF8(file string, data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil {
		s.logger.Debug(fmt.Sprintf("charset detection failed for %s: %v", file, err))
		return data
	}
	reader, err := charset.NewReaderLabel(result.Charset, bytes.NewReader(data))
	if err != nil {
		s.logger.Debug(fmt.Sprintf("unsupported charset %s for %s: %v", result.Charset, file, err))
		return data
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		s.logger.Debug(fmt.Sprintf("transcoding %s from %s failed: %v", file, result.Charset, err))
		return data
	}
	return decoded
}

// splitFrontMatter separates the YAML header from the body. A header that
// fails to parse is logged and ignored.
func (s *Source) splitFrontMatter(file string, data []byte) (map[string]any, []byte) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	match := frontMatterPattern.FindSubmatchIndex(data)
	if match == nil {
		return nil, data
	}
	body := data[match[1]:]
	if match[2] < 0 {
		return nil, body
	}

	var fm map[string]any
	if err := yaml.Unmarshal(data[match[2]:match[3]], &fm); err != nil {
		s.logger.Warn(fmt.Sprintf("ignoring front matter in %s: %v", file, err))
		return nil, body
	}
	return fm, body
}

// Filename case conversions applied to :title and :name, as in Hexo's
// filename_case setting.
const (
	FilenameCaseKeep  = 0
	FilenameCaseLower = 1
	FilenameCaseUpper = 2
)

// titleSlug turns a file stem into the path used for :title. Each segment
// is escaped for use in a URL path.
func (s *Source) titleSlug(stem string) string {
	switch s.opts.FilenameCase {
	case FilenameCaseLower:
		stem = strings.ToLower(stem)
	case FilenameCaseUpper:
		stem = strings.ToUpper(stem)
	}
	if s.opts.SlugTitles {
		return sanitize.Path(stem)
	}
	segments := strings.Split(stem, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

func expandPermalink(pattern, title string, date time.Time) string {
	replacer := strings.NewReplacer(
		":year", date.Format("2006"),
		":month", date.Format("01"),
		":day", date.Format("02"),
		":hour", date.Format("15"),
		":minute", date.Format("04"),
		":second", date.Format("05"),
		":title", title,
		":name", path.Base(title),
	)
	return strings.TrimPrefix(replacer.Replace(pattern), "/")
}

func parseTimeValue(value any) *time.Time {
	switch v := value.(type) {
	case time.Time:
		return &v
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		layouts := []string{
			time.RFC3339Nano,
			time.RFC3339,
			"2006-01-02 15:04:05",
			"2006-01-02 15:04",
			"2006-01-02",
			"2006-01-02T15:04:05",
			time.RFC1123,
			time.RFC1123Z,
		}
		for _, layout := range layouts {
			if parsed, err := time.Parse(layout, trimmed); err == nil {
				return &parsed
			}
		}
	}
	return nil
}
