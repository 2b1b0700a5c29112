package nav

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardlang/ardoc/internal/config"
	"github.com/ardlang/ardoc/internal/content"
)

func discoverFixture(t *testing.T, pages map[string]string) *content.Set {
	t.Helper()
	root := t.TempDir()
	for rel, body := range pages {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	set, err := content.Discover(root)
	require.NoError(t, err)
	return set
}

func fixtureSet(t *testing.T) *content.Set {
	return discoverFixture(t, map[string]string{
		"getting-started/introduction.md": "---\ntitle: Introduction\ndescription: d\n---\n",
		"getting-started/installation.md": "---\ntitle: Installation\ndescription: d\n---\n",
		"language/values.md":              "---\ntitle: Values\ndescription: d\n---\n",
	})
}

func fixtureSidebar() []config.SidebarGroup {
	return []config.SidebarGroup{
		{Label: "Getting Started", Items: []config.SidebarItem{
			{Label: "Intro", Slug: "getting-started/introduction"},
			{Slug: "getting-started/installation"},
		}},
		{Label: "Language", Items: []config.SidebarItem{
			{Slug: "language/values"},
		}},
	}
}

func TestResolve_BindsEntriesToPages(t *testing.T) {
	sb, err := Resolve(fixtureSidebar(), fixtureSet(t))
	require.NoError(t, err)

	require.Len(t, sb.Groups, 2)
	require.Len(t, sb.Groups[0].Entries, 2)

	// Explicit label wins; missing label falls back to the page title.
	assert.Equal(t, "Intro", sb.Groups[0].Entries[0].Label)
	assert.Equal(t, "Installation", sb.Groups[0].Entries[1].Label)
	require.NotNil(t, sb.Groups[0].Entries[1].Page)
	assert.Equal(t, "Installation", sb.Groups[0].Entries[1].Page.Title())
}

func TestResolve_UnknownSlugsCollected(t *testing.T) {
	groups := []config.SidebarGroup{
		{Label: "Guide", Items: []config.SidebarItem{
			{Slug: "missing/one"},
			{Slug: "missing/two"},
		}},
	}

	_, err := Resolve(groups, fixtureSet(t))
	require.ErrorIs(t, err, ErrUnknownSlug)
	assert.Contains(t, err.Error(), "missing/one")
	assert.Contains(t, err.Error(), "missing/two")
}

func TestPrevNext_FollowsSidebarOrder(t *testing.T) {
	sb, err := Resolve(fixtureSidebar(), fixtureSet(t))
	require.NoError(t, err)

	prev, next := sb.PrevNext("getting-started/installation")
	require.NotNil(t, prev)
	require.NotNil(t, next)
	assert.Equal(t, "getting-started/introduction", prev.Slug)
	assert.Equal(t, "language/values", next.Slug)

	prev, _ = sb.PrevNext("getting-started/introduction")
	assert.Nil(t, prev)
	_, next = sb.PrevNext("language/values")
	assert.Nil(t, next)

	prev, next = sb.PrevNext("not/listed")
	assert.Nil(t, prev)
	assert.Nil(t, next)
}

func TestListed(t *testing.T) {
	sb, err := Resolve(fixtureSidebar(), fixtureSet(t))
	require.NoError(t, err)

	assert.True(t, sb.Listed("language/values"))
	assert.False(t, sb.Listed("language/types"))
}

func TestHumanizeSlug(t *testing.T) {
	assert.Equal(t, "Installation", HumanizeSlug("getting-started/installation"))
	assert.Equal(t, "Error Handling", HumanizeSlug("language/error-handling"))
	assert.Equal(t, "Standard Library", HumanizeSlug("standard_library"))
}
