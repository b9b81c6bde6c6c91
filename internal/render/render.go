// Package render turns stored page markdown into sanitized HTML, with a
// cache in front keyed by the revision that produced the content.
package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"wellspring/internal/cache"
)

// ttl bounds how long rendered HTML stays cached. Keys include the
// commit hash, so stale reads are impossible; the TTL only bounds
// storage.
const ttl = 24 * time.Hour

// Renderer converts markdown to HTML and strips anything the sanitizer
// policy disallows. Output is safe to serve as-is.
type Renderer struct {
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
	cache     *cache.Cache
}

// New creates a Renderer backed by the given cache. A nil cache disables
// caching.
func New(c *cache.Cache) *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
		// UGCPolicy permits basic formatting and links while stripping
		// scripts and event handlers.
		sanitizer: bluemonday.UGCPolicy(),
		cache:     c,
	}
}

// Key builds the cache key for a page at a commit.
func Key(wikiID int64, slug, commit string) string {
	return fmt.Sprintf("html:%d:%s:%s", wikiID, slug, commit)
}

// Render converts source markdown to sanitized HTML, consulting the
// cache under key first. Cache failures are ignored; rendering always
// succeeds or fails on its own.
func (r *Renderer) Render(key string, source []byte) ([]byte, error) {
	if r.cache != nil {
		if cached, err := r.cache.Get(key); err == nil && cached != nil {
			return cached, nil
		}
	}

	var buf bytes.Buffer
	if err := r.md.Convert(source, &buf); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}
	html := r.sanitizer.SanitizeBytes(buf.Bytes())

	if r.cache != nil {
		_ = r.cache.Set(key, html, ttl)
	}
	return html, nil
}
