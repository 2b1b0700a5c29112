// Package linkcheck verifies the external links of a rendered site. Internal
// link integrity is covered by lint; this package makes real HTTP requests,
// caches results (NATS JetStream KV when configured, in-memory otherwise) and
// publishes broken-link events for downstream consumers.
package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/ardlang/ardoc/internal/config"
	"github.com/ardlang/ardoc/internal/content"
)

const userAgent = "ardoc-linkcheck/1.0"

// Result summarizes one verification run.
type Result struct {
	PagesScanned int
	LinksChecked int
	CacheHits    int
	Broken       []*BrokenLinkEvent
}

// Service runs bounded-concurrency link verification.
type Service struct {
	cfg        *config.LinkCheckConfig
	baseURL    string
	cache      cacheClient
	httpClient *http.Client
	delay      time.Duration
	linkSem    chan struct{} // limit concurrent HTTP checks
	pageSem    chan struct{} // limit concurrent page scans

	mu      sync.Mutex
	running bool
	result  *Result
}

// NewService creates a verification service from the site configuration.
func NewService(siteCfg *config.Config) (*Service, error) {
	cfg := &siteCfg.LinkCheck
	if !cfg.Enabled {
		return nil, errors.New("link checking is disabled in config")
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}

	timeout := parseDurationDefault(cfg.RequestTimeout, 10*time.Second)
	delay := parseDurationDefault(cfg.RateLimitDelay, 100*time.Millisecond)
	ttlOK := parseDurationDefault(cfg.CacheTTL, time.Hour)
	ttlFailures := parseDurationDefault(cfg.CacheTTLFailures, 10*time.Minute)

	var cache cacheClient
	if cfg.NATSURL != "" {
		nc, err := newNATSCache(cfg, ttlOK, ttlFailures)
		if err != nil {
			return nil, err
		}
		cache = nc
	} else {
		slog.Debug("no NATS URL configured, using in-memory link cache")
		cache = newMemoryCache(ttlOK, ttlFailures)
	}

	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if !cfg.FollowRedirects {
				return http.ErrUseLastResponse
			}
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", cfg.MaxRedirects)
			}
			return nil
		},
	}

	return &Service{
		cfg:        cfg,
		baseURL:    siteCfg.BaseURL,
		cache:      cache,
		httpClient: httpClient,
		delay:      delay,
		linkSem:    make(chan struct{}, maxConcurrent),
		pageSem:    make(chan struct{}, min(maxConcurrent, 4)),
	}, nil
}

func parseDurationDefault(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// CheckSite verifies all external links of the rendered pages in outputDir.
func (s *Service) CheckSite(ctx context.Context, set *content.Set, outputDir string) (*Result, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, errors.New("verification already running")
	}
	s.running = true
	s.result = &Result{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	slog.Info("starting link verification", "pages", len(set.Pages))

	var pagesWG sync.WaitGroup
	for _, page := range set.Pages {
		select {
		case <-ctx.Done():
			pagesWG.Wait()
			return s.takeResult(), ctx.Err()
		case s.pageSem <- struct{}{}:
		}
		pagesWG.Add(1)
		go func(page *content.Page) {
			defer pagesWG.Done()
			defer func() { <-s.pageSem }()
			s.checkPage(ctx, page, outputDir)
		}(page)
	}
	pagesWG.Wait()

	result := s.takeResult()
	slog.Info("link verification completed",
		"pages", result.PagesScanned, "links", result.LinksChecked,
		"cache_hits", result.CacheHits, "broken", len(result.Broken))
	return result, nil
}

func (s *Service) takeResult() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *Service) checkPage(ctx context.Context, page *content.Page, outputDir string) {
	htmlPath := filepath.Join(outputDir, filepath.FromSlash(renderedPath(page.Slug)))
	links, err := ExtractLinks(htmlPath, s.baseURL)
	if err != nil {
		slog.Warn("could not extract links", "page", page.Slug, "error", err)
		return
	}
	s.mu.Lock()
	s.result.PagesScanned++
	s.mu.Unlock()

	var linksWG sync.WaitGroup
	for _, link := range links {
		if !ShouldVerify(link) {
			continue
		}
		time.Sleep(s.delay)
		select {
		case <-ctx.Done():
			linksWG.Wait()
			return
		case s.linkSem <- struct{}{}:
		}
		linksWG.Add(1)
		go func(link *Link) {
			defer linksWG.Done()
			defer func() { <-s.linkSem }()
			s.verifyLink(ctx, link, page)
		}(link)
	}
	linksWG.Wait()
}

func (s *Service) verifyLink(ctx context.Context, link *Link, page *content.Page) {
	cached, err := s.cache.GetCachedResult(ctx, link.URL)
	if err != nil {
		slog.Debug("cache lookup error", "url", link.URL, "error", err)
	} else if cached != nil && s.cache.IsCacheValid(cached) {
		s.mu.Lock()
		s.result.CacheHits++
		s.mu.Unlock()
		if !cached.IsValid {
			s.reportBroken(ctx, link, page, cached.Status, cached.Error, cached)
		}
		return
	}

	status, verifyErr := s.checkURL(ctx, link.URL)
	s.mu.Lock()
	s.result.LinksChecked++
	s.mu.Unlock()

	entry := &CacheEntry{
		URL:         link.URL,
		Status:      status,
		IsValid:     verifyErr == nil,
		LastChecked: time.Now(),
	}
	if verifyErr != nil {
		entry.Error = verifyErr.Error()
		trackFailure(entry, cached)
		s.reportBroken(ctx, link, page, status, verifyErr.Error(), entry)
	}
	if err := s.cache.SetCachedResult(ctx, entry); err != nil {
		slog.Warn("could not update link cache", "url", link.URL, "error", err)
	}
}

func trackFailure(entry, cached *CacheEntry) {
	if cached != nil {
		entry.FailureCount = cached.FailureCount + 1
		entry.FirstFailedAt = cached.FirstFailedAt
	} else {
		entry.FailureCount = 1
	}
	if entry.FirstFailedAt.IsZero() {
		entry.FirstFailedAt = time.Now()
	}
	entry.ConsecutiveFail = true
}

// checkURL performs a HEAD request, falling back to GET for servers that
// reject HEAD outright.
func (s *Service) checkURL(ctx context.Context, linkURL string) (int, error) {
	status, err := s.request(ctx, http.MethodHead, linkURL)
	if err == nil && status == http.StatusMethodNotAllowed {
		return s.request(ctx, http.MethodGet, linkURL)
	}
	if err != nil {
		return status, err
	}
	return status, nil
}

func (s *Service) request(ctx context.Context, method, linkURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, linkURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	// Auth walls mean the URL exists but needs credentials.
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return resp.StatusCode, nil
	}
	if resp.StatusCode == http.StatusMethodNotAllowed {
		return resp.StatusCode, nil
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return resp.StatusCode, nil
}

func (s *Service) reportBroken(ctx context.Context, link *Link, page *content.Page, status int, errMsg string, cache *CacheEntry) {
	event := &BrokenLinkEvent{
		URL:         link.URL,
		Status:      status,
		Error:       errMsg,
		SourceSlug:  page.Slug,
		SourcePath:  page.RelativePath,
		Title:       page.Title(),
		Description: page.Description(),
	}
	if cache != nil {
		event.FailureCount = cache.FailureCount
		event.FirstFailedAt = cache.FirstFailedAt
		event.LastChecked = cache.LastChecked
	}

	s.mu.Lock()
	s.result.Broken = append(s.result.Broken, event)
	s.mu.Unlock()

	if err := s.cache.PublishBrokenLink(ctx, event); err != nil {
		slog.Error("could not publish broken link event", "url", link.URL, "error", err)
	} else {
		slog.Warn("broken link", "url", link.URL, "source", page.Slug, "status", status, "error", errMsg)
	}
}

// Close releases cache resources.
func (s *Service) Close() error {
	return s.cache.Close()
}

// renderedPath maps a slug to the HTML file the build wrote for it.
func renderedPath(slug string) string {
	if slug == "index" {
		return "index.html"
	}
	return slug + "/index.html"
}
