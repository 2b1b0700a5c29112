package site

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardlang/ardoc/internal/config"
)

func writeContent(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return root
}

func buildConfig(t *testing.T, contentDir string, groups ...config.SidebarGroup) *config.Config {
	t.Helper()
	return &config.Config{
		Title:       "Ard",
		Description: "The Ard language",
		BaseURL:     "https://ard.dev",
		Social:      []config.Social{{Icon: "github", Label: "GitHub", Href: "https://github.com/ardlang/ard"}},
		Sidebar:     groups,
		Content:     config.ContentConfig{Dir: contentDir},
		Output:      config.OutputConfig{Directory: filepath.Join(t.TempDir(), "site"), Clean: true},
	}
}

func fullSidebar() []config.SidebarGroup {
	return []config.SidebarGroup{
		{Label: "Getting Started", Items: []config.SidebarItem{
			{Slug: "getting-started/introduction"},
			{Slug: "getting-started/installation"},
		}},
		{Label: "Language", Items: []config.SidebarItem{
			{Slug: "language/values"},
		}},
	}
}

func fixtureTree(t *testing.T) string {
	return writeContent(t, map[string]string{
		"getting-started/introduction.md": "---\ntitle: Introduction\ndescription: What Ard is\n---\n# Introduction\n\nSee [values](../language/values) and ![logo](../logo.png).\n",
		"getting-started/installation.md": "---\ntitle: Installation\ndescription: Installing the toolchain\n---\nRun `ard init`.\n",
		"language/values.md":              "---\ntitle: Values\ndescription: Value semantics\n---\nValues are immutable.\n",
		"logo.png":                        "png-bytes",
	})
}

func TestBuild_RendersFullSite(t *testing.T) {
	cfg := buildConfig(t, fixtureTree(t), fullSidebar()...)
	report, err := NewGenerator(cfg).Build(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, OutcomeSuccess, report.Outcome)
	assert.Equal(t, 3, report.Pages)
	assert.Equal(t, 3, report.RenderedPages)
	assert.Equal(t, 1, report.Assets)
	assert.NotEmpty(t, report.BuildID)
	assert.NotEmpty(t, report.ContentHash)

	out := cfg.Output.Directory
	for _, rel := range []string{
		"getting-started/introduction/index.html",
		"getting-started/installation/index.html",
		"language/values/index.html",
		"logo.png",
		"search.json",
		"build-report.json",
		"build-report.txt",
	} {
		_, statErr := os.Stat(filepath.Join(out, filepath.FromSlash(rel)))
		assert.NoError(t, statErr, "expected output file %s", rel)
	}
}

func TestBuild_RewritesInternalLinks(t *testing.T) {
	cfg := buildConfig(t, fixtureTree(t), fullSidebar()...)
	_, err := NewGenerator(cfg).Build(context.Background())
	require.NoError(t, err)

	html, err := os.ReadFile(filepath.Join(cfg.Output.Directory, "getting-started", "introduction", "index.html"))
	require.NoError(t, err)
	page := string(html)
	assert.Contains(t, page, `href="/language/values/"`)
	assert.Contains(t, page, `src="/logo.png"`)
	assert.Contains(t, page, "Introduction | Ard")
	assert.Contains(t, page, `href="https://github.com/ardlang/ard"`)
	// First sidebar entry has no previous page.
	assert.Contains(t, page, `rel="next"`)
	assert.NotContains(t, page, `rel="prev"`)
}

func TestBuild_SearchIndexContent(t *testing.T) {
	cfg := buildConfig(t, fixtureTree(t), fullSidebar()...)
	_, err := NewGenerator(cfg).Build(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(cfg.Output.Directory, "search.json"))
	require.NoError(t, err)
	var entries []map[string]string
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, "getting-started/installation", entries[0]["slug"])
	assert.Equal(t, "/getting-started/installation/", entries[0]["href"])
	assert.Equal(t, "Installation", entries[0]["title"])
}

func TestBuild_LintErrorsAbort(t *testing.T) {
	dir := writeContent(t, map[string]string{
		"bare.md": "# No frontmatter\n",
	})
	cfg := buildConfig(t, dir, config.SidebarGroup{Label: "G", Items: []config.SidebarItem{{Slug: "bare"}}})

	report, err := NewGenerator(cfg).Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.Equal(t, 0, report.RenderedPages)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorFatal, se.Kind)
	assert.Equal(t, "lint", se.Stage)
}

func TestBuild_LintWarningsDoNotAbort(t *testing.T) {
	dir := writeContent(t, map[string]string{
		"listed.md":   "---\ntitle: Listed\ndescription: d\n---\n",
		"unlisted.md": "---\ntitle: Unlisted\ndescription: d\n---\n",
	})
	cfg := buildConfig(t, dir, config.SidebarGroup{Label: "G", Items: []config.SidebarItem{{Slug: "listed"}}})

	report, err := NewGenerator(cfg).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeWarning, report.Outcome)
	assert.Equal(t, 2, report.RenderedPages)
	require.Len(t, report.Warnings, 1)
}

func TestBuild_UnknownSidebarSlugAborts(t *testing.T) {
	dir := writeContent(t, map[string]string{
		"a.md": "---\ntitle: A\ndescription: d\n---\n",
	})
	cfg := buildConfig(t, dir, config.SidebarGroup{Label: "G", Items: []config.SidebarItem{{Slug: "missing"}}})

	report, err := NewGenerator(cfg).Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, report.Outcome)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "resolve_nav", se.Stage)
}

func TestBuild_MissingContentDirAborts(t *testing.T) {
	cfg := buildConfig(t, filepath.Join(t.TempDir(), "nope"))
	_, err := NewGenerator(cfg).Build(context.Background())
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "discover", se.Stage)
}

func TestBuild_CanceledContext(t *testing.T) {
	cfg := buildConfig(t, fixtureTree(t), fullSidebar()...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewGenerator(cfg).Build(ctx)
	require.Error(t, err)
	assert.Equal(t, OutcomeCanceled, report.Outcome)
}

func TestBuild_ReportPersisted(t *testing.T) {
	cfg := buildConfig(t, fixtureTree(t), fullSidebar()...)
	report, err := NewGenerator(cfg).Build(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(cfg.Output.Directory, "build-report.json"))
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, report.BuildID, decoded["build_id"])
	assert.Equal(t, "success", decoded["outcome"])
	assert.NotEmpty(t, decoded["stage_durations"])
}

func TestBuild_LiveReloadScriptInjection(t *testing.T) {
	cfg := buildConfig(t, fixtureTree(t), fullSidebar()...)
	_, err := NewGenerator(cfg).WithLiveReload(true).Build(context.Background())
	require.NoError(t, err)

	html, err := os.ReadFile(filepath.Join(cfg.Output.Directory, "language", "values", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "EventSource")

	cfg2 := buildConfig(t, fixtureTree(t), fullSidebar()...)
	_, err = NewGenerator(cfg2).Build(context.Background())
	require.NoError(t, err)
	html, err = os.ReadFile(filepath.Join(cfg2.Output.Directory, "language", "values", "index.html"))
	require.NoError(t, err)
	assert.NotContains(t, string(html), "EventSource")
}
