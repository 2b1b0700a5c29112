package site

import (
	"embed"
	"html/template"

	"github.com/ardlang/ardoc/internal/config"
	"github.com/ardlang/ardoc/internal/content"
)

//go:embed templates/layout.html
var templateFS embed.FS

var layoutTemplate = template.Must(template.ParseFS(templateFS, "templates/layout.html"))

// siteView is the site-wide portion of the template model.
type siteView struct {
	Title       string
	Description string
	BaseURL     string
	Social      []config.Social
}

// navLinkView is a single sidebar, prev or next link.
type navLinkView struct {
	Label  string
	Href   string
	Active bool
}

// groupView is one labeled sidebar group.
type groupView struct {
	Label string
	Items []navLinkView
}

// pageView is the full model passed to the layout template.
type pageView struct {
	Site         siteView
	Title        string
	Description  string
	Content      template.HTML
	Permalink    string
	LastModified string
	Commit       string
	Prev         *navLinkView
	Next         *navLinkView
	Sidebar      []groupView
	LiveReload   bool
}

func (g *Generator) pageViewFor(bs *BuildState, page *content.Page, body template.HTML) pageView {
	view := pageView{
		Site: siteView{
			Title:       g.cfg.Title,
			Description: g.cfg.Description,
			BaseURL:     g.cfg.BaseURL,
			Social:      g.cfg.Social,
		},
		Title:       page.Title(),
		Description: page.Description(),
		Content:     body,
		Permalink:   pageHref(page.Slug),
		LiveReload:  g.livereload,
	}

	if meta, ok := bs.PageMeta[page.Slug]; ok {
		view.LastModified = meta.LastModified.Format("January 2, 2006")
		view.Commit = meta.Commit
	}

	for _, group := range bs.Sidebar.Groups {
		gv := groupView{Label: group.Label}
		for _, entry := range group.Entries {
			gv.Items = append(gv.Items, navLinkView{
				Label:  entry.Label,
				Href:   pageHref(entry.Slug),
				Active: entry.Slug == page.Slug,
			})
		}
		view.Sidebar = append(view.Sidebar, gv)
	}

	prev, next := bs.Sidebar.PrevNext(page.Slug)
	if prev != nil {
		view.Prev = &navLinkView{Label: prev.Label, Href: pageHref(prev.Slug)}
	}
	if next != nil {
		view.Next = &navLinkView{Label: next.Label, Href: pageHref(next.Slug)}
	}
	return view
}
