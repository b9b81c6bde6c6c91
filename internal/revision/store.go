// Package revision stores page contents as files in one git repository per
// wiki, driving the git binary directly. The database keeps the metadata;
// the commit hash recorded on each revision row points back here.
package revision

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"wellspring/internal/normalize"
)

// CommitInfo carries the attribution for a store commit.
type CommitInfo struct {
	Username string
	Message  string
}

// Store is a git repository holding the page contents of a single wiki,
// one file per slug. All mutating operations serialize on an internal
// lock; reads of historical versions go through git and only take the
// read side.
type Store struct {
	mu     sync.RWMutex
	repo   string
	domain string
}

// NewStore returns a store rooted at repo for the given wiki domain. The
// domain is only used for commit attribution; it should not carry a
// protocol prefix.
func NewStore(repo, domain string) *Store {
	return &Store{repo: repo, domain: domain}
}

// SetDomain changes the domain used for commit attribution.
func (s *Store) SetDomain(domain string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.domain = domain
}

// git runs a git command inside the repository with authorship taken from
// info, returning stdout.
func (s *Store) git(ctx context.Context, info *CommitInfo, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.repo
	cmd.Env = append(os.Environ(),
		"GIT_CONFIG_GLOBAL=/dev/null",
		"GIT_CONFIG_SYSTEM=/dev/null",
	)
	if info != nil {
		email := fmt.Sprintf("noreply@%s", s.domain)
		cmd.Env = append(cmd.Env,
			"GIT_AUTHOR_NAME="+info.Username,
			"GIT_AUTHOR_EMAIL="+email,
			"GIT_COMMITTER_NAME="+info.Username,
			"GIT_COMMITTER_EMAIL="+email,
		)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// head returns the commit hash the repository is at.
func (s *Store) head(ctx context.Context) (string, error) {
	out, err := s.git(ctx, nil, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	hash := strings.TrimSpace(string(out))
	if err := CheckHash(hash); err != nil {
		return "", err
	}
	return hash, nil
}

// Init creates the repository directory and its initial empty commit. An
// already-initialized repository is left alone and its current head
// returned.
func (s *Store) Init(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(filepath.Join(s.repo, ".git")); err == nil {
		return s.head(ctx)
	}
	if err := os.MkdirAll(s.repo, 0o755); err != nil {
		return "", fmt.Errorf("failed to create repository directory: %w", err)
	}
	if _, err := s.git(ctx, nil, "init", "--quiet"); err != nil {
		return "", err
	}

	info := &CommitInfo{Username: "wellspring", Message: "Initial commit"}
	if _, err := s.git(ctx, info, "commit", "--quiet", "--allow-empty",
		"--message", info.Message); err != nil {
		return "", err
	}
	return s.head(ctx)
}

// checkSlug rejects slugs that are not in normal form before they reach
// the filesystem. Normal form cannot traverse directories.
func checkSlug(slug string) error {
	if !normalize.IsSlug(slug) {
		return fmt.Errorf("slug %q not in normal form", slug)
	}
	return nil
}

// path returns the file backing a slug. Category separators map onto a
// flat encoding rather than subdirectories.
func (s *Store) path(slug string) string {
	return filepath.Join(s.repo, strings.ReplaceAll(slug, ":", "$"))
}

// Commit creates or edits the page behind slug to hold content and
// commits it, returning the commit hash. A nil content leaves the file
// as-is and records an empty commit.
func (s *Store) Commit(ctx context.Context, slug string, content []byte, info CommitInfo) (string, error) {
	if err := checkSlug(slug); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if content == nil {
		if _, err := s.git(ctx, &info, "commit", "--quiet", "--allow-empty",
			"--message", info.Message); err != nil {
			return "", err
		}
		return s.head(ctx)
	}

	if err := os.WriteFile(s.path(slug), content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write page file: %w", err)
	}
	if _, err := s.git(ctx, nil, "add", "--", s.path(slug)); err != nil {
		return "", err
	}
	if _, err := s.git(ctx, &info, "commit", "--quiet", "--allow-empty",
		"--message", info.Message, "--", s.path(slug)); err != nil {
		return "", err
	}
	return s.head(ctx)
}

// Remove deletes the page behind slug and commits the removal. Returns
// ("", nil) if the page does not exist.
func (s *Store) Remove(ctx context.Context, slug string, info CommitInfo) (string, error) {
	if err := checkSlug(slug); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(slug)); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to remove page file: %w", err)
	}
	if _, err := s.git(ctx, nil, "add", "--all", "--", s.path(slug)); err != nil {
		return "", err
	}
	if _, err := s.git(ctx, &info, "commit", "--quiet",
		"--message", info.Message, "--", s.path(slug)); err != nil {
		return "", err
	}
	return s.head(ctx)
}

// Rename moves a page from oldSlug to newSlug and commits the move.
func (s *Store) Rename(ctx context.Context, oldSlug, newSlug string, info CommitInfo) (string, error) {
	if err := checkSlug(oldSlug); err != nil {
		return "", err
	}
	if err := checkSlug(newSlug); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.git(ctx, nil, "mv", s.path(oldSlug), s.path(newSlug)); err != nil {
		return "", err
	}
	if _, err := s.git(ctx, &info, "commit", "--quiet",
		"--message", info.Message); err != nil {
		return "", err
	}
	return s.head(ctx)
}

// Restore brings a removed page back under slug, taking its contents from
// oldSlug at the given commit.
func (s *Store) Restore(ctx context.Context, slug, oldSlug, hash string, info CommitInfo) (string, error) {
	if err := checkSlug(slug); err != nil {
		return "", err
	}
	content, err := s.GetPageVersion(ctx, oldSlug, hash)
	if err != nil {
		return "", err
	}
	if content == nil {
		return "", fmt.Errorf("no content for %q at %s", oldSlug, hash)
	}
	return s.Commit(ctx, slug, content, info)
}

// GetPage returns the current contents of a page, or nil if it does not
// exist.
func (s *Store) GetPage(ctx context.Context, slug string) ([]byte, error) {
	if err := checkSlug(slug); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	content, err := os.ReadFile(s.path(slug))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read page file: %w", err)
	}
	return content, nil
}

// GetPageVersion returns the contents of a page at the given commit, or
// nil if the page did not exist at that point.
func (s *Store) GetPageVersion(ctx context.Context, slug, hash string) ([]byte, error) {
	if err := checkSlug(slug); err != nil {
		return nil, err
	}
	if err := CheckHash(hash); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	spec := fmt.Sprintf("%s:%s", hash, strings.ReplaceAll(slug, ":", "$"))
	out, err := s.git(ctx, nil, "show", spec)
	if err != nil {
		// git show fails when the path is absent from the commit.
		return nil, nil
	}
	return out, nil
}

// Diff returns the unified diff of a page between two commits.
func (s *Store) Diff(ctx context.Context, slug, first, second string) ([]byte, error) {
	if err := checkSlug(slug); err != nil {
		return nil, err
	}
	if err := CheckHash(first); err != nil {
		return nil, err
	}
	if err := CheckHash(second); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out, err := s.git(ctx, nil, "diff", first, second, "--", s.path(slug))
	if err != nil {
		return nil, err
	}
	return out, nil
}
