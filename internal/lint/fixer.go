package lint

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/ardlang/ardoc/internal/content"
	"github.com/ardlang/ardoc/internal/frontmatter"
)

// FixResult summarizes what a fixer run changed.
type FixResult struct {
	Fixed   []string // relative paths of rewritten files
	Skipped []string // relative paths that needed no change
}

// FixUIDs generates a uid for every page missing one and rewrites the file.
//
// When dryRun is true, files are left untouched and Fixed lists what would
// change. Existing uids (valid or not) are never overwritten; the uid rule
// reports invalid ones instead.
func FixUIDs(set *content.Set, dryRun bool) (*FixResult, error) {
	result := &FixResult{}

	for _, page := range set.Pages {
		if page.Fields.UID != "" {
			result.Skipped = append(result.Skipped, page.RelativePath)
			continue
		}

		if dryRun {
			result.Fixed = append(result.Fixed, page.RelativePath)
			continue
		}

		if err := writeUID(page, uuid.NewString()); err != nil {
			return result, fmt.Errorf("fix uid for %s: %w", page.RelativePath, err)
		}
		result.Fixed = append(result.Fixed, page.RelativePath)
		slog.Info("Generated uid", "file", page.RelativePath)
	}

	return result, nil
}

func writeUID(page *content.Page, uid string) error {
	data, err := os.ReadFile(page.Path) // #nosec G304 -- path produced by the discovery walk
	if err != nil {
		return err
	}

	fm, body, had, style, err := frontmatter.Split(data)
	if err != nil {
		return err
	}

	fields := map[string]any{}
	if had {
		fields, err = frontmatter.ParseYAML(fm)
		if err != nil {
			return err
		}
	}
	fields["uid"] = uid

	serialized, err := frontmatter.SerializeYAML(fields, style)
	if err != nil {
		return err
	}

	out := frontmatter.Join(serialized, body, true, style)
	return os.WriteFile(page.Path, out, 0o644) // #nosec G306 -- rewriting an authored docs file
}
