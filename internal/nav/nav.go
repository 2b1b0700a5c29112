// Package nav resolves the declarative sidebar configuration against the
// discovered content set.
//
// A sidebar item is valid only when its slug names an existing page; the
// resolved tree carries page pointers so rendering never re-resolves slugs.
package nav

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ardlang/ardoc/internal/config"
	"github.com/ardlang/ardoc/internal/content"
)

// ErrUnknownSlug indicates a sidebar item references a slug with no page.
var ErrUnknownSlug = errors.New("sidebar references unknown slug")

// Sidebar is the resolved navigation tree.
type Sidebar struct {
	Groups []Group

	ordered []*Entry
}

// Group is a resolved sidebar group.
type Group struct {
	Label   string
	Entries []*Entry
}

// Entry binds a sidebar item to its page.
type Entry struct {
	Label string
	Slug  string
	Page  *content.Page
}

var titleCaser = cases.Title(language.English)

// Resolve binds every sidebar item to a discovered page.
//
// Items without an explicit label take the page title, falling back to a
// humanized form of the slug's last segment. All unknown slugs are collected
// into a single error so authors see every broken reference at once.
func Resolve(groups []config.SidebarGroup, set *content.Set) (*Sidebar, error) {
	sb := &Sidebar{}
	var unknown []string

	for _, g := range groups {
		group := Group{Label: g.Label}
		for _, item := range g.Items {
			page, ok := set.PageBySlug(item.Slug)
			if !ok {
				unknown = append(unknown, item.Slug)
				continue
			}
			entry := &Entry{Label: item.Label, Slug: item.Slug, Page: page}
			if entry.Label == "" {
				entry.Label = page.Title()
			}
			if entry.Label == "" {
				entry.Label = HumanizeSlug(item.Slug)
			}
			group.Entries = append(group.Entries, entry)
			sb.ordered = append(sb.ordered, entry)
		}
		sb.Groups = append(sb.Groups, group)
	}

	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSlug, strings.Join(unknown, ", "))
	}
	return sb, nil
}

// PrevNext returns the entries before and after the given slug in sidebar
// order. Either may be nil at the ends, and both are nil for unlisted pages.
func (s *Sidebar) PrevNext(slug string) (prev, next *Entry) {
	for i, e := range s.ordered {
		if e.Slug != slug {
			continue
		}
		if i > 0 {
			prev = s.ordered[i-1]
		}
		if i+1 < len(s.ordered) {
			next = s.ordered[i+1]
		}
		return prev, next
	}
	return nil, nil
}

// Listed reports whether the slug appears anywhere in the sidebar.
func (s *Sidebar) Listed(slug string) bool {
	for _, e := range s.ordered {
		if e.Slug == slug {
			return true
		}
	}
	return false
}

// Entries returns the flattened entries in sidebar order.
func (s *Sidebar) Entries() []*Entry { return s.ordered }

// HumanizeSlug turns the last segment of a slug into a display label,
// e.g. "getting-started/installation" -> "Installation".
func HumanizeSlug(slug string) string {
	seg := path.Base(slug)
	seg = strings.NewReplacer("-", " ", "_", " ").Replace(seg)
	return titleCaser.String(seg)
}
