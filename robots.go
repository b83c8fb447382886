package goimagesitemap

import (
	"fmt"
	"log/slog"
	"os"

	whatwg "github.com/nlnwa/whatwg-url/url"
	"github.com/temoto/robotstxt"
)

// robotsRules decides whether a page location may be listed.
type robotsRules struct {
	group *robotstxt.Group
}

// newRobotsRules parses robots.txt content for userAgent. Unparseable
// content allows everything.
func newRobotsRules(data []byte, userAgent string, logger *slog.Logger) *robotsRules {
	if data == nil {
		return &robotsRules{}
	}
	parsed, err := robotstxt.FromBytes(data)
	if err != nil {
		logger.Debug(fmt.Sprintf("ignoring unparseable robots.txt: %v", err))
		return &robotsRules{}
	}
	return &robotsRules{group: parsed.FindGroup(userAgent)}
}

// robotsTxt returns the robots.txt content for one run.
func (g *Generator) robotsTxt() []byte {
	if g.opts.RobotsFile == "" {
		return g.opts.RobotsTxt
	}
	data, err := os.ReadFile(g.opts.RobotsFile)
	if err != nil {
		g.logger.Debug(fmt.Sprintf("robots.txt unreadable: %v", err))
		return g.opts.RobotsTxt
	}
	return data
}

func (r *robotsRules) allowed(loc string) bool {
	if r == nil || r.group == nil {
		return true
	}
	parsed, err := whatwg.Parse(loc)
	if err != nil {
		return true
	}
	return r.group.Test(parsed.Pathname() + parsed.Search())
}
