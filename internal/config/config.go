// Package config loads the site configuration file and turns it into
// generator options.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	goimagesitemap "github.com/kotylevskiy/go-image-sitemap"
)

const (
	defaultSourceDir = "source"
	defaultPublicDir = "public"
	defaultPermalink = ":year/:month/:day/:title/"
	robotsFileName   = "robots.txt"
)

// Config mirrors the parts of a Hexo-style _config.yml the generator reads.
type Config struct {
	URL             string       `yaml:"url"`
	SourceDir       string       `yaml:"source_dir"`
	PublicDir       string       `yaml:"public_dir"`
	Permalink       string       `yaml:"permalink"`
	PostAssetFolder bool         `yaml:"post_asset_folder"`
	FilenameCase    int          `yaml:"filename_case"`
	ImageSitemap    ImageSitemap `yaml:"image_sitemap"`

	// BaseDir is the directory holding the config file. Relative source and
	// public dirs are resolved against it.
	BaseDir string `yaml:"-"`
}

// ImageSitemap holds the image_sitemap section. Pointer fields distinguish
// an absent option from an explicit zero value.
type ImageSitemap struct {
	Target           string    `yaml:"target"`
	IncludeDrafts    bool      `yaml:"include_drafts"`
	IncludeAssetsAll bool      `yaml:"include_assets_all"`
	MaxImagesPerURL  *int      `yaml:"max_images_per_url"`
	StripQuery       *bool     `yaml:"strip_query"`
	Name             string    `yaml:"name"`
	RawCoverFields   yaml.Node `yaml:"cover_fields"`
	RespectRobots    bool      `yaml:"respect_robots"`
	RobotsUserAgent  string    `yaml:"robots_user_agent"`
	Concurrency      int       `yaml:"concurrency"`
	SlugTitles       bool      `yaml:"slug_titles"`
}

// Load reads the config file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{BaseDir: filepath.Dir(path)}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg.setDefaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.SourceDir == "" {
		c.SourceDir = defaultSourceDir
	}
	if c.PublicDir == "" {
		c.PublicDir = defaultPublicDir
	}
	if c.Permalink == "" {
		c.Permalink = defaultPermalink
	}
}

// SourcePath returns the absolute-or-base-relative source directory.
func (c *Config) SourcePath() string {
	return c.resolve(c.SourceDir)
}

// PublicPath returns the absolute-or-base-relative output directory.
func (c *Config) PublicPath() string {
	return c.resolve(c.PublicDir)
}

func (c *Config) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(c.BaseDir, dir)
}

// CoverFields returns the configured cover fields, or the defaults unless
// the option is a YAML sequence.
func (s *ImageSitemap) CoverFields() []string {
	if s.RawCoverFields.Kind != yaml.SequenceNode {
		return goimagesitemap.DefaultCoverFields()
	}
	fields := make([]string, 0, len(s.RawCoverFields.Content))
	for _, item := range s.RawCoverFields.Content {
		if item.Kind == yaml.ScalarNode {
			fields = append(fields, item.Value)
		}
	}
	return fields
}

// ToOptions builds the generator options for one run.
func (c *Config) ToOptions(logger *slog.Logger) goimagesitemap.Options {
	opts := goimagesitemap.DefaultOptions()
	is := c.ImageSitemap

	site := strings.TrimRight(strings.TrimSpace(c.URL), "/")
	if site != "" {
		opts.SiteURL = site
	}
	opts.SourceDir = c.SourcePath()
	opts.Target = goimagesitemap.ParseTarget(is.Target)
	opts.IncludeDrafts = is.IncludeDrafts
	opts.IncludeAssets = is.IncludeAssetsAll
	if is.MaxImagesPerURL != nil {
		opts.MaxImagesPerURL = *is.MaxImagesPerURL
	}
	if is.StripQuery != nil {
		opts.StripQuery = *is.StripQuery
	}
	if is.Name != "" {
		opts.Name = is.Name
	}
	opts.CoverFields = is.CoverFields()
	if is.RobotsUserAgent != "" {
		opts.RobotsUserAgent = is.RobotsUserAgent
	}
	opts.Concurrency = is.Concurrency
	opts.Logger = logger

	if is.RespectRobots {
		opts.RobotsFile = filepath.Join(opts.SourceDir, robotsFileName)
	}
	return opts
}
