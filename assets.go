package goimagesitemap

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// assetImagePattern is matched against lowercased, slash-separated paths.
var assetImagePattern = glob.MustCompile("**.{jpg,jpeg,png,gif,webp,avif,svg}", '/')

// listAssetImages returns image files under dir as slash-separated paths
// relative to dir. Hidden files and directories are skipped. Callers treat
// an error as an empty listing.
func listAssetImages(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == dir {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if assetImagePattern.Match(strings.ToLower(rel)) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
