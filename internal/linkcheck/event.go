package linkcheck

import "time"

// BrokenLinkEvent is published when an external link fails verification.
// Consumers (dashboards, issue bots) subscribe to the configured subject.
type BrokenLinkEvent struct {
	URL    string `json:"url"`
	Status int    `json:"status"`
	Error  string `json:"error"`

	// Source page metadata.
	SourceSlug  string `json:"source_slug"`
	SourcePath  string `json:"source_path"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	// Failure tracking.
	FailureCount  int       `json:"failure_count"`
	FirstFailedAt time.Time `json:"first_failed_at,omitempty"`
	LastChecked   time.Time `json:"last_checked"`

	Timestamp time.Time `json:"timestamp"`
}
