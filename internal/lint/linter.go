package lint

import (
	"fmt"

	"github.com/ardlang/ardoc/internal/config"
	"github.com/ardlang/ardoc/internal/content"
)

// Config contains configuration for the linter.
type Config struct {
	// Quiet suppresses warnings, only showing errors.
	Quiet bool

	// Format specifies output format (text, json).
	Format string

	// RequireUID enables the uid rule.
	RequireUID bool
}

// Linter performs linting operations on a content set.
type Linter struct {
	cfg       *Config
	pageRules []PageRule
	setRules  []SetRule
}

// NewLinter creates a new linter with the given configuration.
func NewLinter(cfg *Config) *Linter {
	if cfg == nil {
		cfg = &Config{Format: "text"}
	}

	pageRules := []PageRule{
		&FrontmatterRule{},
	}
	if cfg.RequireUID {
		pageRules = append(pageRules, &UIDRule{})
	}

	return &Linter{
		cfg:       cfg,
		pageRules: pageRules,
		setRules: []SetRule{
			&SlugUniqueRule{},
			&SidebarRefsRule{},
			&InternalLinksRule{},
		},
	}
}

// Lint discovers the content set and applies all rules.
func (l *Linter) Lint(siteCfg *config.Config) (*Result, error) {
	set, err := content.Discover(siteCfg.Content.Dir)
	if err != nil {
		return nil, err
	}
	return l.LintSet(set, siteCfg)
}

// LintSet applies all rules to an already-discovered content set.
func (l *Linter) LintSet(set *content.Set, siteCfg *config.Config) (*Result, error) {
	result := &Result{
		Issues:     []Issue{},
		FilesTotal: len(set.Pages) + len(set.Malformed),
	}

	// Pages that failed to parse never reach the page rules; surface the
	// parse error itself.
	for _, m := range set.Malformed {
		result.Issues = append(result.Issues, Issue{
			FilePath:    m.RelativePath,
			Severity:    SeverityError,
			Rule:        "frontmatter",
			Message:     fmt.Sprintf("Invalid frontmatter: %v", m.Err),
			Explanation: "Frontmatter must be valid YAML between --- delimiters",
			Fix:         "Fix YAML syntax errors in frontmatter",
			Line:        1,
		})
	}

	for _, page := range set.Pages {
		for _, rule := range l.pageRules {
			issues, err := rule.Check(page)
			if err != nil {
				return nil, fmt.Errorf("rule %s on %s: %w", rule.Name(), page.RelativePath, err)
			}
			result.Issues = append(result.Issues, issues...)
		}
	}

	ctx := &Context{
		Set:        set,
		ContentDir: siteCfg.Content.Dir,
		Sidebar:    flattenSidebar(siteCfg.Sidebar),
	}
	for _, rule := range l.setRules {
		issues, err := rule.CheckSet(ctx)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.Name(), err)
		}
		result.Issues = append(result.Issues, issues...)
	}

	if l.cfg.Quiet {
		filtered := result.Issues[:0]
		for _, issue := range result.Issues {
			if issue.Severity == SeverityError {
				filtered = append(filtered, issue)
			}
		}
		result.Issues = filtered
	}

	return result, nil
}

func flattenSidebar(groups []config.SidebarGroup) []SidebarRef {
	var refs []SidebarRef
	for _, g := range groups {
		for _, item := range g.Items {
			refs = append(refs, SidebarRef{Group: g.Label, Label: item.Label, Slug: item.Slug})
		}
	}
	return refs
}
