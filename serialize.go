package goimagesitemap

import (
	"bufio"
	"encoding/xml"
	"io"
)

const (
	sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"
	imageNamespace   = "http://www.google.com/schemas/sitemap-image/1.1"
)

// writeSitemap writes the image sitemap for entries. Entries without images
// are left out.
func writeSitemap(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(xml.Header)
	bw.WriteString(`<urlset xmlns="` + sitemapNamespace + `" xmlns:image="` + imageNamespace + `">` + "\n")

	written := 0
	for _, entry := range entries {
		if len(entry.Images) == 0 {
			continue
		}
		if written > 0 {
			bw.WriteString("\n")
		}
		written++

		bw.WriteString("  <url>\n    <loc>")
		xml.EscapeText(bw, []byte(entry.Loc))
		bw.WriteString("</loc>\n")
		for _, image := range entry.Images {
			bw.WriteString("    <image:image><image:loc>")
			xml.EscapeText(bw, []byte(image))
			bw.WriteString("</image:loc></image:image>\n")
		}
		bw.WriteString("  </url>")
	}

	bw.WriteString("\n</urlset>\n")
	return bw.Flush()
}
