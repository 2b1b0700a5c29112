package site

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ardlang/ardoc/internal/content"
)

// renderPage converts a page body to HTML, wraps it in the site layout and
// writes it under the output directory as <slug>/index.html.
func (g *Generator) renderPage(bs *BuildState, page *content.Page) error {
	html, err := renderBody(page, bs.Set)
	if err != nil {
		return err
	}

	view := g.pageViewFor(bs, page, html)
	var buf bytes.Buffer
	if err := layoutTemplate.Execute(&buf, view); err != nil {
		return fmt.Errorf("execute layout: %w", err)
	}

	dst := filepath.Join(g.outputDir, filepath.FromSlash(outputPath(page.Slug)))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, buf.Bytes(), 0o644)
}

// renderBody parses the Markdown body, rewrites relative page links into
// site-absolute permalinks and renders the result to HTML.
func renderBody(page *content.Page, set *content.Set) (template.HTML, error) {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(page.Body))

	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Link:
			node.Destination = []byte(rewriteDestination(page, string(node.Destination), set))
		case *gmast.Image:
			node.Destination = []byte(rewriteDestination(page, string(node.Destination), set))
		}
		return gmast.WalkContinue, nil
	})

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, page.Body, root); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// rewriteDestination maps a relative Markdown destination to the permalink of
// the page or asset it resolves to. Destinations that are external, absolute
// or unresolvable pass through unchanged.
func rewriteDestination(page *content.Page, dest string, set *content.Set) string {
	if dest == "" || strings.HasPrefix(dest, "#") {
		return dest
	}
	u, err := url.Parse(dest)
	if err != nil || u.Scheme != "" || u.Host != "" || strings.HasPrefix(dest, "/") {
		return dest
	}

	target := dest
	fragment := ""
	if i := strings.IndexByte(dest, '#'); i >= 0 {
		target, fragment = dest[:i], dest[i:]
	}

	joined := path.Join(page.Section, target)
	if set.HasAsset(joined) {
		return "/" + joined
	}
	slug := content.SlugFromRelPath(joined)
	if _, ok := set.PageBySlug(slug); ok {
		return pageHref(slug) + fragment
	}
	// Section index written as "dir/" resolves to the dir's index page.
	if strings.HasSuffix(target, "/") {
		if _, ok := set.PageBySlug(path.Join(slug, "index")); ok {
			return pageHref(path.Join(slug, "index")) + fragment
		}
	}
	return dest
}

// pageHref returns the site-absolute pretty URL for a slug.
func pageHref(slug string) string {
	if slug == "index" {
		return "/"
	}
	return "/" + slug + "/"
}

// outputPath returns the file path of a rendered page relative to the output
// directory.
func outputPath(slug string) string {
	if slug == "index" {
		return "index.html"
	}
	return slug + "/index.html"
}
