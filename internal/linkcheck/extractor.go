package linkcheck

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// Link is a link-like reference extracted from rendered HTML.
type Link struct {
	URL        string // destination URL or path
	Text       string // link text or alt text
	Tag        string // a, img, script, link
	Attribute  string // href or src
	IsExternal bool   // points outside the site
}

// ExtractLinks extracts all links from a rendered HTML file.
func ExtractLinks(htmlPath, baseURL string) ([]*Link, error) {
	file, err := os.Open(filepath.Clean(htmlPath))
	if err != nil {
		return nil, fmt.Errorf("open HTML file: %w", err)
	}
	defer file.Close()
	return ExtractLinksFromReader(file, baseURL)
}

// ExtractLinksFromReader extracts all links from an HTML document.
func ExtractLinksFromReader(r io.Reader, baseURL string) ([]*Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	var links []*Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			collectElementLinks(n, &links, base)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func collectElementLinks(n *html.Node, links *[]*Link, base *url.URL) {
	add := func(dest, text, attr string) {
		if dest == "" {
			return
		}
		*links = append(*links, &Link{
			URL:        dest,
			Text:       text,
			Tag:        n.Data,
			Attribute:  attr,
			IsExternal: isExternalLink(dest, base),
		})
	}
	switch n.Data {
	case "a":
		add(getAttr(n, "href"), nodeText(n), "href")
	case "img":
		add(getAttr(n, "src"), getAttr(n, "alt"), "src")
	case "script":
		add(getAttr(n, "src"), "", "src")
	case "link":
		add(getAttr(n, "href"), getAttr(n, "rel"), "href")
	}
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeText(c))
	}
	return strings.TrimSpace(sb.String())
}

// isExternalLink reports whether a destination points outside the site.
// Fragments, special protocols and relative paths are site-internal; absolute
// URLs sharing the base host also count as internal.
func isExternalLink(dest string, base *url.URL) bool {
	if strings.HasPrefix(dest, "#") ||
		strings.HasPrefix(dest, "mailto:") ||
		strings.HasPrefix(dest, "tel:") ||
		strings.HasPrefix(dest, "javascript:") ||
		strings.HasPrefix(dest, "data:") {
		return false
	}
	u, err := url.Parse(dest)
	if err != nil {
		return false
	}
	if u.Scheme == "" || u.Host == "" {
		return false
	}
	if base != nil && u.Host == base.Host {
		return false
	}
	return true
}

// ShouldVerify reports whether a link is worth an HTTP request. Only external
// http(s) links qualify; internal link integrity is checked at lint time.
func ShouldVerify(link *Link) bool {
	if !link.IsExternal {
		return false
	}
	u, err := url.Parse(link.URL)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
