package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RewriteRelativePaths turns relative img[src] and a[href] paths into
// absolute file:// URLs resolved against sourceDir. The HTML file lives in
// the output directory, not next to the Markdown, so relative references
// would otherwise break. Returns the number of attributes rewritten.
//
// Left alone: URLs, anchors, absolute paths, and paths that resolve outside
// sourceDir.
func RewriteRelativePaths(doc *goquery.Document, sourceDir string) (int, error) {
	if sourceDir == "" {
		return 0, nil
	}

	absSourceDir, err := filepath.Abs(sourceDir)
	if err != nil {
		return 0, err
	}

	rewritten := 0
	rewrite := func(s *goquery.Selection, attr string) {
		v, ok := s.Attr(attr)
		if !ok || !isRelativePath(v) {
			return
		}

		absPath := filepath.Join(absSourceDir, v)
		if !isPathUnderDir(absPath, absSourceDir) {
			return
		}

		s.SetAttr(attr, pathToFileURL(absPath))
		rewritten++
	}

	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) { rewrite(s, "src") })
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) { rewrite(s, "href") })

	return rewritten, nil
}

// isRelativePath reports whether path is a relative filesystem reference.
func isRelativePath(path string) bool {
	if path == "" || strings.HasPrefix(path, "#") || strings.HasPrefix(path, "//") {
		return false
	}
	// Single-letter schemes are Windows drive letters.
	if u, err := url.Parse(path); err == nil && len(u.Scheme) > 1 {
		return false
	}
	return !filepath.IsAbs(path)
}

// isPathUnderDir checks that absPath does not escape dir.
func isPathUnderDir(absPath, dir string) bool {
	cleanDir := filepath.Clean(dir)
	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}
	return strings.HasPrefix(filepath.Clean(absPath)+string(filepath.Separator), cleanDir)
}

// pathToFileURL converts an absolute path to a file:// URL.
func pathToFileURL(absPath string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(absPath)}
	return u.String()
}
