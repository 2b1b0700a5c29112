package content

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/ardlang/ardoc/internal/frontmatter"
)

// Page represents a discovered content page.
//
// Identity is the Slug, derived from the file's location under the content
// root (extension stripped, slash-separated, lowercase).
type Page struct {
	Path         string             // Absolute path to the source file
	RelativePath string             // Path relative to the content root
	Slug         string             // Path-derived identity
	Section      string             // Containing directory ("" at root)
	Fields       frontmatter.Fields // Parsed frontmatter
	Body         []byte             // Markdown body (frontmatter removed)
	ContentHash  string             // sha256 of the raw file content
}

// Title returns the frontmatter title.
func (p *Page) Title() string { return p.Fields.Title }

// Description returns the frontmatter description.
func (p *Page) Description() string { return p.Fields.Description }

// Asset represents a discovered non-markdown file (images etc.) copied
// verbatim into the generated site.
type Asset struct {
	Path         string
	RelativePath string
}

// SlugFromRelPath derives a page slug from a path relative to the content
// root. "index" and "_index" files take the slug of their directory.
func SlugFromRelPath(relPath string) string {
	p := filepath.ToSlash(relPath)
	ext := path.Ext(p)
	p = strings.TrimSuffix(p, ext)
	p = strings.ToLower(p)

	base := path.Base(p)
	if base == "index" || base == "_index" {
		p = path.Dir(p)
		if p == "." {
			return "index"
		}
	}
	return p
}

// IsMarkdownFile reports whether the path names a markdown content file.
func IsMarkdownFile(p string) bool {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// IsAssetFile reports whether the path names a static asset we copy through.
func IsAssetFile(p string) bool {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp":
		return true
	}
	return false
}
