package lint

import (
	"encoding/json"

	"github.com/ardlang/ardoc/internal/content"
)

// Severity indicates the importance level of a linting issue.
type Severity int

const (
	// SeverityInfo indicates informational messages.
	SeverityInfo Severity = iota
	// SeverityWarning indicates issues that should be fixed but don't block builds.
	SeverityWarning
	// SeverityError indicates issues that will prevent site builds from succeeding.
	SeverityError
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON renders the severity as its name for tooling output.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Issue represents a single linting problem found in a file.
type Issue struct {
	FilePath    string   `json:"file_path"`             // Path to the file (relative to the content root when known)
	Severity    Severity `json:"severity"`              // Issue severity level
	Rule        string   `json:"rule"`                  // Rule identifier (e.g., "frontmatter")
	Message     string   `json:"message"`               // Brief description of the issue
	Explanation string   `json:"explanation,omitempty"` // Detailed explanation with context
	Fix         string   `json:"fix,omitempty"`         // Suggested fix
	Line        int      `json:"line,omitempty"`        // Line number (0 if file-level issue)
}

// Result contains all issues found during linting.
type Result struct {
	Issues     []Issue `json:"issues"`
	FilesTotal int     `json:"files_total"` // Total files scanned
}

// HasErrors returns true if any error-level issues exist.
func (r *Result) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of error-level issues.
func (r *Result) ErrorCount() int {
	count := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			count++
		}
	}
	return count
}

// WarningCount returns the number of warning-level issues.
func (r *Result) WarningCount() int {
	count := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			count++
		}
	}
	return count
}

// PageRule validates a single discovered page.
type PageRule interface {
	// Name returns the unique identifier for this rule.
	Name() string

	// Check validates a page and returns any issues found.
	Check(page *content.Page) ([]Issue, error)
}

// SetRule validates properties spanning the whole content set
// (slug uniqueness, sidebar references, internal links).
type SetRule interface {
	Name() string
	CheckSet(ctx *Context) ([]Issue, error)
}

// Context carries everything set-level rules need.
type Context struct {
	Set        *content.Set
	ContentDir string
	Sidebar    []SidebarRef
}

// SidebarRef is a flattened sidebar item reference.
type SidebarRef struct {
	Group string
	Label string
	Slug  string
}
