// Package history persists build outcomes so `ardoc history` can show how
// the docs have been building over time.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ardlang/ardoc/internal/site"
)

// ErrNotFound is returned when no record matches a lookup.
var ErrNotFound = errors.New("build record not found")

// Record is one persisted build outcome.
type Record struct {
	ID            int64
	BuildID       string
	Outcome       string
	Pages         int
	RenderedPages int
	Assets        int
	Errors        int
	Warnings      int
	ContentHash   string
	Start         time.Time
	End           time.Time
	Report        []byte // full build report JSON
}

// Duration returns the wall-clock time of the recorded build.
func (r *Record) Duration() time.Duration { return r.End.Sub(r.Start) }

// Store persists and retrieves build records.
type Store interface {
	RecordBuild(ctx context.Context, rec *Record) error
	Recent(ctx context.Context, limit int) ([]*Record, error)
	ByBuildID(ctx context.Context, buildID string) (*Record, error)
	Range(ctx context.Context, start, end time.Time) ([]*Record, error)
	Close() error
}

// FromReport converts a build report into a record ready for persistence.
func FromReport(report *site.BuildReport) (*Record, error) {
	payload, err := json.Marshal(map[string]any{
		"stage_durations":   report.StageDurations,
		"stage_error_kinds": report.StageErrorKinds,
		"stage_counts":      report.StageCounts,
	})
	if err != nil {
		return nil, err
	}
	return &Record{
		BuildID:       report.BuildID,
		Outcome:       string(report.Outcome),
		Pages:         report.Pages,
		RenderedPages: report.RenderedPages,
		Assets:        report.Assets,
		Errors:        len(report.Errors),
		Warnings:      len(report.Warnings),
		ContentHash:   report.ContentHash,
		Start:         report.Start,
		End:           report.End,
		Report:        payload,
	}, nil
}
