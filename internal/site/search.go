package site

import (
	"context"
	"encoding/json"
	"path/filepath"
)

// searchEntry is one record in the generated client-side search index.
type searchEntry struct {
	Slug        string `json:"slug"`
	Href        string `json:"href"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// stageSearchIndexFn writes search.json with one entry per page, ordered by
// slug so repeated builds of the same content produce identical output.
func stageSearchIndexFn(_ context.Context, bs *BuildState) error {
	entries := make([]searchEntry, 0, len(bs.Set.Pages))
	for _, page := range bs.Set.Pages {
		entries = append(entries, searchEntry{
			Slug:        page.Slug,
			Href:        pageHref(page.Slug),
			Title:       page.Title(),
			Description: page.Description(),
		})
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return newFatalStageError(stageSearchIndex, err)
	}
	if err := atomicWrite(filepath.Join(bs.Generator.outputDir, "search.json"), data); err != nil {
		return newFatalStageError(stageSearchIndex, err)
	}
	return nil
}
