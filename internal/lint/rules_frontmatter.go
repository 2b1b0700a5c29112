package lint

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ardlang/ardoc/internal/content"
)

// FrontmatterRule checks that pages carry non-empty title and description
// frontmatter fields.
type FrontmatterRule struct{}

// Name returns the name of the rule.
func (r *FrontmatterRule) Name() string { return "frontmatter" }

// Check validates the page's required frontmatter fields.
func (r *FrontmatterRule) Check(page *content.Page) ([]Issue, error) {
	var issues []Issue

	if page.Title() == "" {
		issues = append(issues, Issue{
			FilePath:    page.RelativePath,
			Severity:    SeverityError,
			Rule:        r.Name(),
			Message:     "Missing or empty 'title' in frontmatter",
			Explanation: "Every page needs a non-empty title; it names the page in navigation and the rendered HTML",
			Fix:         "Add 'title: ...' to the frontmatter",
			Line:        1,
		})
	}

	if page.Description() == "" {
		issues = append(issues, Issue{
			FilePath:    page.RelativePath,
			Severity:    SeverityError,
			Rule:        r.Name(),
			Message:     "Missing or empty 'description' in frontmatter",
			Explanation: "Every page needs a non-empty description; it feeds the HTML meta description",
			Fix:         "Add 'description: ...' to the frontmatter",
			Line:        1,
		})
	}

	return issues, nil
}

// UIDRule checks that pages carry a valid UUID uid field.
// Only active when the site config enables require_uid.
type UIDRule struct{}

// Name returns the name of the rule.
func (r *UIDRule) Name() string { return "uid" }

// Check validates the page uid.
func (r *UIDRule) Check(page *content.Page) ([]Issue, error) {
	if page.Fields.UID == "" {
		return []Issue{{
			FilePath:    page.RelativePath,
			Severity:    SeverityWarning,
			Rule:        r.Name(),
			Message:     "Missing uid in frontmatter",
			Explanation: "Pages carry a UUID uid so permalinks survive renames",
			Fix:         "Run 'ardoc lint --fix' to generate missing uids",
			Line:        1,
		}}, nil
	}

	if _, err := uuid.Parse(page.Fields.UID); err != nil {
		return []Issue{{
			FilePath:    page.RelativePath,
			Severity:    SeverityWarning,
			Rule:        r.Name(),
			Message:     fmt.Sprintf("Invalid uid %q in frontmatter", page.Fields.UID),
			Explanation: "uid must be a valid UUID",
			Fix:         "Replace the uid with a valid UUID, or delete it and run 'ardoc lint --fix'",
			Line:        1,
		}}, nil
	}

	return nil, nil
}
