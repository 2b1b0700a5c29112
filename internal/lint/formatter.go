package lint

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formatter formats linting results for output.
type Formatter interface {
	Format(w io.Writer, result *Result, contentDir string) error
}

// NewFormatter returns the formatter for the given format name.
func NewFormatter(format string) Formatter {
	if format == "json" {
		return &JSONFormatter{}
	}
	return &TextFormatter{}
}

// TextFormatter formats results as human-readable text.
type TextFormatter struct{}

// Format outputs results in human-readable text format.
func (f *TextFormatter) Format(w io.Writer, result *Result, contentDir string) error {
	fmt.Fprintf(w, "Linting documentation in: %s\n", contentDir)
	fmt.Fprintln(w, strings.Repeat("━", 60))

	for _, issue := range result.Issues {
		fmt.Fprintf(w, "\n%s: %s\n", issue.Severity, issue.Message)
		fmt.Fprintf(w, "  file: %s", issue.FilePath)
		if issue.Line > 0 {
			fmt.Fprintf(w, ":%d", issue.Line)
		}
		fmt.Fprintf(w, "\n  rule: %s\n", issue.Rule)
		if issue.Fix != "" {
			fmt.Fprintf(w, "  fix:  %s\n", issue.Fix)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("━", 60))
	fmt.Fprintf(w, "Results:\n  %d files scanned\n", result.FilesTotal)

	if n := result.ErrorCount(); n > 0 {
		fmt.Fprintf(w, "  %d error%s (blocks build)\n", n, pluralize(n))
	}
	if n := result.WarningCount(); n > 0 {
		fmt.Fprintf(w, "  %d warning%s (should fix)\n", n, pluralize(n))
	}
	if len(result.Issues) == 0 {
		fmt.Fprintln(w, "  no issues found")
	}
	return nil
}

// JSONFormatter formats results as JSON for tooling.
type JSONFormatter struct{}

// Format outputs results as indented JSON.
func (f *JSONFormatter) Format(w io.Writer, result *Result, contentDir string) error {
	out := struct {
		ContentDir string `json:"content_dir"`
		*Result
		Errors   int `json:"errors"`
		Warnings int `json:"warnings"`
	}{
		ContentDir: contentDir,
		Result:     result,
		Errors:     result.ErrorCount(),
		Warnings:   result.WarningCount(),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
