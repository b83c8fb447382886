package goimagesitemap

import (
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// gallerySelector matches the data-driven gallery widget of the Butterfly
// theme, which embeds its images as a JSON array.
const gallerySelector = `.gallery-container[data-type="data"] .gallery-items`

// parseHTML parses rendered page content. The parser is lenient, so a nil
// document only comes from a failing reader; extractors treat it as empty.
func parseHTML(content string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil
	}
	return doc
}

// extractHTMLImages yields raw image references from <img> tags in document
// order: src (or data-src) and then the first srcset candidate.
func extractHTMLImages(doc *goquery.Document) iter.Seq[string] {
	return func(yield func(string) bool) {
		if doc == nil {
			return
		}
		doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
			src := img.AttrOr("src", "")
			if src == "" {
				src = img.AttrOr("data-src", "")
			}
			if src != "" && !yield(src) {
				return false
			}
			if first := firstSrcsetCandidate(img.AttrOr("srcset", "")); first != "" {
				return yield(first)
			}
			return true
		})
	}
}

// firstSrcsetCandidate returns the URL of the first srcset candidate,
// without its width or density descriptor.
func firstSrcsetCandidate(srcset string) string {
	if srcset == "" {
		return ""
	}
	first, _, _ := strings.Cut(srcset, ",")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// extractGalleryImages yields the url of every item declared in gallery
// widgets. Containers with malformed JSON are skipped.
func extractGalleryImages(doc *goquery.Document, logger *slog.Logger) iter.Seq[string] {
	return func(yield func(string) bool) {
		if doc == nil {
			return
		}
		doc.Find(gallerySelector).EachWithBreak(func(_ int, items *goquery.Selection) bool {
			raw := strings.TrimSpace(items.Text())
			if raw == "" {
				return true
			}
			var entries []any
			if err := json.Unmarshal([]byte(raw), &entries); err != nil {
				logger.Debug(fmt.Sprintf("skipping malformed gallery data: %v", err))
				return true
			}
			for _, entry := range entries {
				item, ok := entry.(map[string]any)
				if !ok {
					continue
				}
				u, ok := item["url"].(string)
				if !ok {
					continue
				}
				if u = strings.TrimSpace(u); u != "" && !yield(u) {
					return false
				}
			}
			return true
		})
	}
}
