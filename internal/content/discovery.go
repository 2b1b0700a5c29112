package content

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ardlang/ardoc/internal/frontmatter"
)

// ErrContentDirMissing indicates the configured content root does not exist.
var ErrContentDirMissing = errors.New("content directory does not exist")

// ErrDuplicateSlug indicates two content files resolve to the same slug.
var ErrDuplicateSlug = errors.New("duplicate slug")

// Set is the result of a discovery walk: all pages keyed by slug plus assets.
//
// Malformed pages and slug collisions do not abort the walk; they are
// recorded so lint can report them with file context. Builds treat a
// non-empty Duplicates or Malformed as fatal.
type Set struct {
	Pages      []*Page
	Assets     []Asset
	Duplicates []DuplicateSlug
	Malformed  []MalformedPage

	bySlug map[string]*Page
}

// DuplicateSlug records two content files resolving to the same slug.
// The first file wins; the second is excluded from the set.
type DuplicateSlug struct {
	Slug         string
	KeptPath     string
	ExcludedPath string
}

// MalformedPage records a page whose frontmatter could not be parsed.
type MalformedPage struct {
	RelativePath string
	Err          error
}

// Clean reports whether the walk found no duplicate slugs or malformed pages.
func (s *Set) Clean() bool {
	return len(s.Duplicates) == 0 && len(s.Malformed) == 0
}

// PageBySlug looks up a page by its slug.
func (s *Set) PageBySlug(slug string) (*Page, bool) {
	p, ok := s.bySlug[slug]
	return p, ok
}

// Slugs returns all page slugs in walk order.
func (s *Set) Slugs() []string {
	out := make([]string, 0, len(s.Pages))
	for _, p := range s.Pages {
		out = append(out, p.Slug)
	}
	return out
}

// HasAsset reports whether the set contains an asset at the given
// slash-separated relative path.
func (s *Set) HasAsset(relPath string) bool {
	for _, a := range s.Assets {
		if filepath.ToSlash(a.RelativePath) == relPath {
			return true
		}
	}
	return false
}

// Discover walks the content root and loads every markdown page and asset.
// Hidden files and directories are skipped.
func Discover(contentDir string) (*Set, error) {
	info, err := os.Stat(contentDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrContentDirMissing, contentDir)
	}

	set := &Set{bySlug: map[string]*Page{}}

	err = filepath.WalkDir(contentDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if strings.HasPrefix(d.Name(), ".") && d.Name() != "." {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(contentDir, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}

		switch {
		case IsMarkdownFile(path):
			page, err := loadPage(path, relPath)
			if err != nil {
				set.Malformed = append(set.Malformed, MalformedPage{RelativePath: relPath, Err: err})
				slog.Warn("Skipping malformed page", "file", relPath, "error", err)
				return nil
			}
			if prev, dup := set.bySlug[page.Slug]; dup {
				set.Duplicates = append(set.Duplicates, DuplicateSlug{
					Slug:         page.Slug,
					KeptPath:     prev.RelativePath,
					ExcludedPath: page.RelativePath,
				})
				slog.Warn("Duplicate slug", "slug", page.Slug, "kept", prev.RelativePath, "excluded", page.RelativePath)
				return nil
			}
			set.bySlug[page.Slug] = page
			set.Pages = append(set.Pages, page)
			slog.Debug("Discovered page", "slug", page.Slug, "file", relPath)
		case IsAssetFile(path):
			set.Assets = append(set.Assets, Asset{Path: path, RelativePath: relPath})
			slog.Debug("Discovered asset", "file", relPath)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(set.Pages, func(i, j int) bool { return set.Pages[i].Slug < set.Pages[j].Slug })
	sort.Slice(set.Assets, func(i, j int) bool { return set.Assets[i].RelativePath < set.Assets[j].RelativePath })

	slog.Info("Content discovered", "pages", len(set.Pages), "assets", len(set.Assets))
	return set, nil
}

func loadPage(path, relPath string) (*Page, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path produced by the discovery walk
	if err != nil {
		return nil, fmt.Errorf("read page %s: %w", relPath, err)
	}

	fm, body, had, _, err := frontmatter.Split(data)
	if err != nil {
		return nil, fmt.Errorf("page %s: %w", relPath, err)
	}

	fields := frontmatter.Fields{Extra: map[string]any{}}
	if had {
		fields, err = frontmatter.ParseFields(fm)
		if err != nil {
			return nil, fmt.Errorf("page %s: %w", relPath, err)
		}
	}

	section := filepath.Dir(relPath)
	if section == "." {
		section = ""
	}

	sum := sha256.Sum256(data)

	return &Page{
		Path:         path,
		RelativePath: relPath,
		Slug:         SlugFromRelPath(relPath),
		Section:      filepath.ToSlash(section),
		Fields:       fields,
		Body:         body,
		ContentHash:  hex.EncodeToString(sum[:]),
	}, nil
}
