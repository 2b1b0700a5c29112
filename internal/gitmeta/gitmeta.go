// Package gitmeta derives page metadata from the git history of the content
// tree. When the content directory is not inside a git repository, lookups
// fall back to filesystem modification times so builds still carry a
// last-updated date.
package gitmeta

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
)

// PageMeta describes the most recent change to a single content file.
type PageMeta struct {
	LastModified time.Time
	Commit       string // abbreviated commit hash, empty when derived from mtime
	FromGit      bool
}

// Resolver answers last-modified queries for files under a content directory.
type Resolver struct {
	repo    *git.Repository
	workdir string // repository worktree root, empty when repo is nil
}

// NewResolver opens the git repository enclosing contentDir, searching parent
// directories the way the git CLI does. A missing repository is not an error;
// the resolver degrades to mtime lookups.
func NewResolver(contentDir string) *Resolver {
	repo, err := git.PlainOpenWithOptions(contentDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if !errors.Is(err, git.ErrRepositoryNotExists) {
			slog.Debug("git metadata unavailable", "dir", contentDir, "error", err)
		}
		return &Resolver{}
	}
	wt, err := repo.Worktree()
	if err != nil {
		return &Resolver{}
	}
	return &Resolver{repo: repo, workdir: wt.Filesystem.Root()}
}

// Lookup returns change metadata for the file at path. Paths may be relative
// to the current working directory or absolute.
func (r *Resolver) Lookup(path string) (PageMeta, error) {
	if r.repo != nil {
		if meta, ok := r.fromHistory(path); ok {
			return meta, nil
		}
	}
	fi, err := os.Stat(path)
	if err != nil {
		return PageMeta{}, err
	}
	return PageMeta{LastModified: fi.ModTime()}, nil
}

func (r *Resolver) fromHistory(path string) (PageMeta, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return PageMeta{}, false
	}
	rel, err := filepath.Rel(r.workdir, abs)
	if err != nil {
		return PageMeta{}, false
	}
	rel = filepath.ToSlash(rel)

	iter, err := r.repo.Log(&git.LogOptions{FileName: &rel, Order: git.LogOrderCommitterTime})
	if err != nil {
		return PageMeta{}, false
	}
	defer iter.Close()

	commit, err := iter.Next()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			slog.Debug("git log failed", "file", rel, "error", err)
		}
		return PageMeta{}, false
	}
	hash := commit.Hash.String()
	if len(hash) > 12 {
		hash = hash[:12]
	}
	return PageMeta{
		LastModified: commit.Author.When,
		Commit:       hash,
		FromGit:      true,
	}, true
}
