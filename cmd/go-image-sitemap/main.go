package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	goimagesitemap "github.com/kotylevskiy/go-image-sitemap"
	"github.com/kotylevskiy/go-image-sitemap/internal/config"
	"github.com/kotylevskiy/go-image-sitemap/internal/content"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// flagValues holds command line overrides for the config file.
type flagValues struct {
	configPath string
	outDir     string
	target     string
	drafts     bool
	assets     bool
	maxImages  int
	keepQuery  bool
	name       string
	robots     bool
	logLevel   string
}

func newRootCommand() *cobra.Command {
	var flags flagValues

	root := &cobra.Command{
		Use:          "go-image-sitemap",
		Short:        "Generate an image sitemap for a static site",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, &flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "_config.yml", "Path to the site config file")
	pf.StringVar(&flags.outDir, "out", "", "Output directory (overrides public_dir)")
	pf.StringVar(&flags.target, "target", "", "Pages to include: posts, pages or both")
	pf.BoolVar(&flags.drafts, "drafts", false, "Include drafts")
	pf.BoolVar(&flags.assets, "assets", false, "List every image in post asset folders")
	pf.IntVar(&flags.maxImages, "max", 0, "Maximum images per page (negative = no limit)")
	pf.BoolVar(&flags.keepQuery, "keep-query", false, "Keep ?query and #fragment in image URLs")
	pf.StringVar(&flags.name, "name", "", "Output file name")
	pf.BoolVar(&flags.robots, "respect-robots", false, "Skip pages disallowed by source/robots.txt")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		&cobra.Command{
			Use:   "generate",
			Short: "Write the image sitemap once",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runGenerate(cmd, &flags)
			},
		},
		newWatchCommand(&flags),
		newServeCommand(&flags),
	)
	return root
}

// app is everything a command needs for one invocation.
type app struct {
	generator *goimagesitemap.Generator
	source    goimagesitemap.PageSource
	sourceDir string
	outDir    string
	name      string
	logger    *slog.Logger
}

func newApp(cmd *cobra.Command, flags *flagValues) (*app, error) {
	level, err := resolveLogLevel(flags.logLevel)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	set := cmd.Flags()
	if set.Changed("target") {
		cfg.ImageSitemap.Target = flags.target
	}
	if set.Changed("drafts") {
		cfg.ImageSitemap.IncludeDrafts = flags.drafts
	}
	if set.Changed("assets") {
		cfg.ImageSitemap.IncludeAssetsAll = flags.assets
	}
	if set.Changed("max") {
		cfg.ImageSitemap.MaxImagesPerURL = &flags.maxImages
	}
	if set.Changed("keep-query") {
		strip := !flags.keepQuery
		cfg.ImageSitemap.StripQuery = &strip
	}
	if set.Changed("name") {
		cfg.ImageSitemap.Name = flags.name
	}
	if set.Changed("respect-robots") {
		cfg.ImageSitemap.RespectRobots = flags.robots
	}

	opts := cfg.ToOptions(logger)
	outDir := cfg.PublicPath()
	if set.Changed("out") {
		outDir = flags.outDir
	}

	return &app{
		generator: goimagesitemap.New(opts),
		source: content.New(content.Options{
			Dir:             cfg.SourcePath(),
			Permalink:       cfg.Permalink,
			PostAssetFolder: cfg.PostAssetFolder,
			FilenameCase:    cfg.FilenameCase,
			SlugTitles:      cfg.ImageSitemap.SlugTitles,
			Logger:          logger,
		}),
		sourceDir: cfg.SourcePath(),
		outDir:    outDir,
		name:      opts.Name,
		logger:    logger,
	}, nil
}

func (a *app) generate(ctx context.Context) (string, error) {
	out, err := a.generator.WriteTo(ctx, a.source, a.outDir)
	if err != nil {
		return "", err
	}
	written := filepath.Join(a.outDir, out.Path)
	a.logger.Info(fmt.Sprintf("wrote %s with %d urls", written, len(out.Entries)))
	return written, nil
}

func runGenerate(cmd *cobra.Command, flags *flagValues) error {
	a, err := newApp(cmd, flags)
	if err != nil {
		return err
	}
	written, err := a.generate(cmd.Context())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), written)
	return err
}

func resolveLogLevel(flagValue string) (slog.Level, error) {
	value := strings.TrimSpace(flagValue)
	if value == "" {
		value = strings.TrimSpace(os.Getenv("GO_IMAGE_SITEMAP_LOG_LEVEL"))
	}
	if value == "" {
		return slog.LevelError, nil
	}
	switch strings.ToLower(value) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q (use debug, info, warn, error)", value)
	}
}
