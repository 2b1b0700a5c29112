package linkcheck

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardlang/ardoc/internal/config"
	"github.com/ardlang/ardoc/internal/content"
	"github.com/ardlang/ardoc/internal/frontmatter"
)

func checkConfig(baseURL string) *config.Config {
	return &config.Config{
		Title:   "Ard",
		BaseURL: baseURL,
		LinkCheck: config.LinkCheckConfig{
			Enabled:        true,
			MaxConcurrent:  4,
			RequestTimeout: "2s",
			RateLimitDelay: "1ms",
		},
	}
}

func writeRendered(t *testing.T, outputDir, slug, body string) *content.Page {
	t.Helper()
	rel := renderedPath(slug)
	path := filepath.Join(outputDir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("<html><body>"+body+"</body></html>"), 0o644))
	return &content.Page{
		Slug:         slug,
		RelativePath: slug + ".md",
		Fields:       frontmatter.Fields{Title: slug},
	}
}

func TestCheckSite_ReportsBrokenLinks(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	out := t.TempDir()
	page := writeRendered(t, out, "guide/intro", fmt.Sprintf(
		`<a href="%s/ok">ok</a> <a href="%s/missing">gone</a> <a href="/internal/">internal</a>`,
		upstream.URL, upstream.URL))
	set := &content.Set{Pages: []*content.Page{page}}

	svc, err := NewService(checkConfig("https://ard.dev"))
	require.NoError(t, err)
	defer svc.Close()

	result, err := svc.CheckSite(context.Background(), set, out)
	require.NoError(t, err)

	assert.Equal(t, 1, result.PagesScanned)
	assert.Equal(t, 2, result.LinksChecked)
	require.Len(t, result.Broken, 1)
	broken := result.Broken[0]
	assert.Equal(t, upstream.URL+"/missing", broken.URL)
	assert.Equal(t, http.StatusNotFound, broken.Status)
	assert.Equal(t, "guide/intro", broken.SourceSlug)
	assert.Equal(t, 1, broken.FailureCount)
}

func TestCheckSite_CacheDeduplicatesAcrossRuns(t *testing.T) {
	var hits int
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	out := t.TempDir()
	page := writeRendered(t, out, "guide/intro", fmt.Sprintf(`<a href="%s/page">x</a>`, upstream.URL))
	set := &content.Set{Pages: []*content.Page{page}}

	svc, err := NewService(checkConfig("https://ard.dev"))
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.CheckSite(context.Background(), set, out)
	require.NoError(t, err)
	result, err := svc.CheckSite(context.Background(), set, out)
	require.NoError(t, err)

	assert.Equal(t, 1, hits, "second run must be served from cache")
	assert.Equal(t, 1, result.CacheHits)
	assert.Equal(t, 0, result.LinksChecked)
}

func TestCheckSite_AuthWallsAreNotBroken(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer upstream.Close()

	out := t.TempDir()
	page := writeRendered(t, out, "guide/intro", fmt.Sprintf(`<a href="%s/private">x</a>`, upstream.URL))
	set := &content.Set{Pages: []*content.Page{page}}

	svc, err := NewService(checkConfig("https://ard.dev"))
	require.NoError(t, err)
	defer svc.Close()

	result, err := svc.CheckSite(context.Background(), set, out)
	require.NoError(t, err)
	assert.Empty(t, result.Broken)
}

func TestCheckSite_RedirectPolicy(t *testing.T) {
	var target *httptest.Server
	target = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/moved" {
			http.Redirect(w, r, target.URL+"/final", http.StatusMovedPermanently)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	out := t.TempDir()
	page := writeRendered(t, out, "guide/intro", fmt.Sprintf(`<a href="%s/moved">x</a>`, target.URL))
	set := &content.Set{Pages: []*content.Page{page}}

	// Redirects not followed: the 301 itself is below 400, so the link passes.
	svc, err := NewService(checkConfig("https://ard.dev"))
	require.NoError(t, err)
	defer svc.Close()
	result, err := svc.CheckSite(context.Background(), set, out)
	require.NoError(t, err)
	assert.Empty(t, result.Broken)

	// Following redirects lands on the final 200.
	cfg := checkConfig("https://ard.dev")
	cfg.LinkCheck.FollowRedirects = true
	cfg.LinkCheck.MaxRedirects = 5
	svc2, err := NewService(cfg)
	require.NoError(t, err)
	defer svc2.Close()
	result, err = svc2.CheckSite(context.Background(), set, out)
	require.NoError(t, err)
	assert.Empty(t, result.Broken)
}

func TestNewService_DisabledConfig(t *testing.T) {
	cfg := checkConfig("https://ard.dev")
	cfg.LinkCheck.Enabled = false
	_, err := NewService(cfg)
	require.Error(t, err)
}
