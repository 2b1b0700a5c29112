package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for authoring mistakes that would
// otherwise only surface midway through a build.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Title) == "" {
		problems = append(problems, "title must not be empty")
	}

	for i, s := range c.Social {
		if strings.TrimSpace(s.Href) == "" {
			problems = append(problems, fmt.Sprintf("social[%d]: href must not be empty", i))
		}
		if strings.TrimSpace(s.Label) == "" {
			problems = append(problems, fmt.Sprintf("social[%d]: label must not be empty", i))
		}
	}

	seen := map[string]string{}
	for gi, g := range c.Sidebar {
		if strings.TrimSpace(g.Label) == "" {
			problems = append(problems, fmt.Sprintf("sidebar[%d]: group label must not be empty", gi))
		}
		if len(g.Items) == 0 {
			problems = append(problems, fmt.Sprintf("sidebar[%d] (%q): group has no items", gi, g.Label))
		}
		for ii, item := range g.Items {
			slug := strings.TrimSpace(item.Slug)
			if slug == "" {
				problems = append(problems, fmt.Sprintf("sidebar[%d].items[%d]: slug must not be empty", gi, ii))
				continue
			}
			if strings.HasPrefix(slug, "/") || strings.HasSuffix(slug, "/") {
				problems = append(problems, fmt.Sprintf("sidebar[%d].items[%d]: slug %q must not have leading or trailing slashes", gi, ii, slug))
			}
			if prev, dup := seen[slug]; dup {
				problems = append(problems, fmt.Sprintf("sidebar[%d].items[%d]: slug %q already listed under group %q", gi, ii, slug, prev))
			} else {
				seen[slug] = g.Label
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
