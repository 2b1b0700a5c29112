package lint

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/ardlang/ardoc/internal/content"
	"github.com/ardlang/ardoc/internal/markdown"
)

// SlugUniqueRule reports content files resolving to the same slug.
type SlugUniqueRule struct{}

// Name returns the name of the rule.
func (r *SlugUniqueRule) Name() string { return "slug-unique" }

// CheckSet reports slug collisions recorded during discovery.
func (r *SlugUniqueRule) CheckSet(ctx *Context) ([]Issue, error) {
	var issues []Issue
	for _, d := range ctx.Set.Duplicates {
		issues = append(issues, Issue{
			FilePath:    d.ExcludedPath,
			Severity:    SeverityError,
			Rule:        r.Name(),
			Message:     fmt.Sprintf("Slug %q already taken by %s", d.Slug, d.KeptPath),
			Explanation: "Slugs are derived from file paths; two files must not resolve to the same slug",
			Fix:         "Rename one of the files",
		})
	}
	return issues, nil
}

// SidebarRefsRule checks sidebar link integrity in both directions:
// every sidebar slug must name an existing page (error), and every page
// should be reachable from the sidebar (warning).
type SidebarRefsRule struct{}

// Name returns the name of the rule.
func (r *SidebarRefsRule) Name() string { return "sidebar-refs" }

// CheckSet validates sidebar references against the content set.
func (r *SidebarRefsRule) CheckSet(ctx *Context) ([]Issue, error) {
	var issues []Issue

	listed := map[string]bool{}
	for _, ref := range ctx.Sidebar {
		listed[ref.Slug] = true
		if _, ok := ctx.Set.PageBySlug(ref.Slug); !ok {
			issues = append(issues, Issue{
				FilePath:    "site.yaml",
				Severity:    SeverityError,
				Rule:        r.Name(),
				Message:     fmt.Sprintf("Sidebar entry %q (group %q) references unknown slug %q", ref.Label, ref.Group, ref.Slug),
				Explanation: "Every sidebar item must reference an existing content file",
				Fix:         fmt.Sprintf("Create %s.md under the content directory or fix the slug", ref.Slug),
			})
		}
	}

	for _, page := range ctx.Set.Pages {
		if !listed[page.Slug] {
			issues = append(issues, Issue{
				FilePath:    page.RelativePath,
				Severity:    SeverityWarning,
				Rule:        r.Name(),
				Message:     fmt.Sprintf("Page %q is not listed in the sidebar", page.Slug),
				Explanation: "Unlisted pages are rendered but unreachable through navigation",
				Fix:         "Add the slug to a sidebar group, or remove the page",
			})
		}
	}

	return issues, nil
}

// InternalLinksRule checks that relative Markdown link destinations resolve
// to an existing page or asset.
type InternalLinksRule struct{}

// Name returns the name of the rule.
func (r *InternalLinksRule) Name() string { return "internal-links" }

// CheckSet extracts links from every page body and resolves the relative ones.
func (r *InternalLinksRule) CheckSet(ctx *Context) ([]Issue, error) {
	var issues []Issue

	for _, page := range ctx.Set.Pages {
		links, err := markdown.ExtractLinks(page.Body)
		if err != nil {
			return nil, fmt.Errorf("extract links from %s: %w", page.RelativePath, err)
		}

		for _, link := range links {
			dest := strings.TrimSpace(link.Destination)
			if dest == "" || !isRelative(dest) {
				continue
			}

			target, _ := splitFragment(dest)
			if target == "" {
				continue // pure fragment, same-page anchor
			}

			if resolvesInSet(ctx.Set, page, target) {
				continue
			}

			issues = append(issues, Issue{
				FilePath:    page.RelativePath,
				Severity:    SeverityError,
				Rule:        r.Name(),
				Message:     fmt.Sprintf("Broken internal link %q", dest),
				Explanation: "Relative link destinations must resolve to an existing page or asset",
				Fix:         "Fix the destination path or create the missing page",
			})
		}
	}

	return issues, nil
}

func isRelative(dest string) bool {
	if strings.HasPrefix(dest, "#") {
		return true
	}
	u, err := url.Parse(dest)
	if err != nil {
		return true // unparseable destinations are treated as relative and will fail resolution
	}
	return u.Scheme == "" && u.Host == "" && !strings.HasPrefix(dest, "/")
}

func splitFragment(dest string) (target, fragment string) {
	if i := strings.IndexByte(dest, '#'); i >= 0 {
		return dest[:i], dest[i+1:]
	}
	return dest, ""
}

// resolvesInSet resolves a relative destination against the linking page's
// section and checks for a matching page slug or asset path. Authors may
// link with or without the .md extension.
func resolvesInSet(set *content.Set, page *content.Page, target string) bool {
	resolved := path.Join(page.Section, target)
	resolved = strings.TrimPrefix(resolved, "./")

	if content.IsAssetFile(resolved) {
		return set.HasAsset(resolved)
	}

	slug := content.SlugFromRelPath(resolved)
	if _, ok := set.PageBySlug(slug); ok {
		return true
	}
	// Directory-style link to a section index page.
	if _, ok := set.PageBySlug(strings.TrimSuffix(slug, "/")); ok {
		return true
	}
	return false
}
