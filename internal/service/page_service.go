package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"wellspring/internal/data"
	"wellspring/internal/logger"
	"wellspring/internal/normalize"
	"wellspring/internal/revision"
)

// PageRepository defines the interface for database operations on pages,
// their locks and their parent links.
type PageRepository interface {
	Create(ctx context.Context, page *data.Page) error
	GetLive(ctx context.Context, wikiID int64, slug string) (*data.Page, error)
	GetByID(ctx context.Context, id int64) (*data.Page, error)
	ListLive(ctx context.Context, wikiID int64) ([]*data.Page, error)
	GetLastDeleted(ctx context.Context, wikiID int64, slug string) (*data.Page, error)
	UpdateTitles(ctx context.Context, id int64, title string, altTitle *string) error
	UpdateSlug(ctx context.Context, id int64, slug string) error
	SetTags(ctx context.Context, id int64, tags []string) error
	SoftDelete(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64, slug string) error
	GetLock(ctx context.Context, pageID int64) (*data.PageLock, error)
	UpsertLock(ctx context.Context, lock *data.PageLock) error
	DeleteLock(ctx context.Context, pageID int64) error
	AddParent(ctx context.Context, parent *data.PageParent) error
	RemoveParent(ctx context.Context, pageID, parentPageID int64) error
	ListParents(ctx context.Context, pageID int64) ([]*data.PageParent, error)
	ListChildren(ctx context.Context, parentPageID int64) ([]*data.PageParent, error)
}

// RevisionRepository defines the interface for revision and tag-history
// rows.
type RevisionRepository interface {
	Create(ctx context.Context, rev *data.Revision) error
	GetByID(ctx context.Context, id int64) (*data.Revision, error)
	ListByPage(ctx context.Context, pageID int64) ([]*data.Revision, error)
	UpdateMessage(ctx context.Context, id int64, message string) error
	LastCommit(ctx context.Context, pageID int64) (string, error)
	LastCommitExcluding(ctx context.Context, pageID int64, exclude data.ChangeType) (string, error)
	CreateTagHistory(ctx context.Context, th *data.TagHistory) error
	GetTagHistory(ctx context.Context, revisionID int64) (*data.TagHistory, error)
}

// AuthorRepository defines the interface for authorship credits.
type AuthorRepository interface {
	Add(ctx context.Context, author *data.Author) error
	Remove(ctx context.Context, pageID, userID int64, authorType data.AuthorType) error
	ListByPage(ctx context.Context, pageID int64) ([]*data.Author, error)
	ListByUser(ctx context.Context, userID int64) ([]*data.Author, error)
}

// FileRepository defines the interface for uploaded file records.
type FileRepository interface {
	Create(ctx context.Context, file *data.File) error
	GetByName(ctx context.Context, name string) (*data.File, error)
	ListByPage(ctx context.Context, pageID int64) ([]*data.File, error)
	Delete(ctx context.Context, id int64) error
}

// SettingsGetter provides the per-wiki settings needed for page locks.
type SettingsGetter interface {
	GetSettings(ctx context.Context, wikiID int64) (*data.WikiSettings, error)
}

// PageStore is the revision store of one wiki.
type PageStore interface {
	Init(ctx context.Context) (string, error)
	Commit(ctx context.Context, slug string, content []byte, info revision.CommitInfo) (string, error)
	Remove(ctx context.Context, slug string, info revision.CommitInfo) (string, error)
	Rename(ctx context.Context, oldSlug, newSlug string, info revision.CommitInfo) (string, error)
	Restore(ctx context.Context, slug, oldSlug, hash string, info revision.CommitInfo) (string, error)
	GetPage(ctx context.Context, slug string) ([]byte, error)
	GetPageVersion(ctx context.Context, slug, hash string) ([]byte, error)
	Diff(ctx context.Context, slug, first, second string) ([]byte, error)
	SetDomain(domain string)
}

// StoreFactory opens or creates the revision store for a wiki.
type StoreFactory func(wiki *data.Wiki) PageStore

// PageCommit identifies the page a change applies to and who makes it.
// Message is recorded on the revision row and used as the git commit
// message; when empty a message is generated from the change type.
type PageCommit struct {
	WikiID   int64
	Slug     string
	UserID   int64
	Username string
	Message  string
}

// PageService implements the page lifecycle. Every change touches both
// halves: the page row is written first, so slug conflicts and lock
// checks surface before anything lands in the wiki's revision store, then
// the git commit and the revision row referencing it follow.
type PageService struct {
	pages     PageRepository
	revisions RevisionRepository
	authors   AuthorRepository
	files     FileRepository
	settings  SettingsGetter
	factory   StoreFactory
	log       logger.Logger

	mu     sync.RWMutex
	stores map[int64]PageStore
}

// NewPageService creates a new PageService.
func NewPageService(pages PageRepository, revisions RevisionRepository, authors AuthorRepository,
	files FileRepository, settings SettingsGetter, factory StoreFactory, log logger.Logger) *PageService {
	return &PageService{
		pages:     pages,
		revisions: revisions,
		authors:   authors,
		files:     files,
		settings:  settings,
		factory:   factory,
		log:       log,
		stores:    make(map[int64]PageStore),
	}
}

// AddStore opens the revision store for a wiki, initializing it on first
// use. Implements StoreManager for the wiki service.
func (s *PageService) AddStore(ctx context.Context, wiki *data.Wiki) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stores[wiki.ID]; ok {
		return nil
	}
	store := s.factory(wiki)
	if _, err := store.Init(ctx); err != nil {
		return err
	}
	s.stores[wiki.ID] = store
	return nil
}

// SetStoreDomain updates the commit attribution domain of a wiki's store.
// Implements StoreManager for the wiki service.
func (s *PageService) SetStoreDomain(wikiID int64, domain string) error {
	store, err := s.store(wikiID)
	if err != nil {
		return err
	}
	store.SetDomain(domain)
	return nil
}

func (s *PageService) store(wikiID int64) (PageStore, error) {
	s.mu.RLock()
	store, ok := s.stores[wikiID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrWikiNotFound
	}
	return store, nil
}

// info builds the git attribution for a commit, filling in a generated
// message when the user gave none.
func (c *PageCommit) info(changeType data.ChangeType) revision.CommitInfo {
	message := c.Message
	if message == "" {
		message = fmt.Sprintf("%s %s page %s", c.Username, changeType.Verb(), c.Slug)
	}
	return revision.CommitInfo{Username: c.Username, Message: message}
}

// record inserts the revision row for a committed change.
func (s *PageService) record(ctx context.Context, c PageCommit, pageID int64, hash string, changeType data.ChangeType) (*data.Revision, error) {
	rev := &data.Revision{
		PageID:     pageID,
		UserID:     c.UserID,
		Message:    c.info(changeType).Message,
		GitCommit:  hash,
		ChangeType: changeType,
	}
	if err := s.revisions.Create(ctx, rev); err != nil {
		return nil, fmt.Errorf("failed to record revision: %w", err)
	}
	return rev, nil
}

// checkLock fails with ErrPageLocked when another user holds an unexpired
// editing lock on the page.
func (s *PageService) checkLock(ctx context.Context, pageID, userID int64) error {
	lock, err := s.pages.GetLock(ctx, pageID)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil
		}
		return err
	}
	if lock.UserID != userID && !lock.Expired(time.Now()) {
		return ErrPageLocked
	}
	return nil
}

// Create makes a new page: commits the initial content to the wiki's
// store and inserts the page row plus a "create" revision. Fails with
// ErrPageExists when a live page already holds the slug.
func (s *PageService) Create(ctx context.Context, c PageCommit, title string, altTitle *string, content []byte) (*data.Page, *data.Revision, error) {
	if !normalize.IsSlug(c.Slug) {
		return nil, nil, ErrInvalidSlug
	}
	store, err := s.store(c.WikiID)
	if err != nil {
		return nil, nil, err
	}

	page := &data.Page{WikiID: c.WikiID, Slug: c.Slug, Title: title, AltTitle: altTitle}
	if err := s.pages.Create(ctx, page); err != nil {
		if errors.Is(err, data.ErrExists) {
			return nil, nil, ErrPageExists
		}
		return nil, nil, err
	}

	hash, err := store.Commit(ctx, c.Slug, content, c.info(data.ChangeCreate))
	if err != nil {
		// Take the row back out so the slug is free for a retry instead
		// of pointing at content that never reached the store.
		if delErr := s.pages.SoftDelete(ctx, page.ID); delErr != nil {
			s.log.Error(delErr, "failed to roll back page row after store error")
		}
		return nil, nil, err
	}
	rev, err := s.record(ctx, c, page.ID, hash, data.ChangeCreate)
	if err != nil {
		return nil, nil, err
	}

	s.log.With(map[string]interface{}{
		"wiki_id": c.WikiID, "slug": c.Slug, "user_id": c.UserID,
	}).Info("page created")
	return page, rev, nil
}

// Edit changes a page's content and optionally its titles. A nil content
// leaves the stored file untouched and records an empty commit, so
// title-only edits still appear in the history.
func (s *PageService) Edit(ctx context.Context, c PageCommit, title *string, altTitle *string, content []byte) (*data.Revision, error) {
	store, err := s.store(c.WikiID)
	if err != nil {
		return nil, err
	}
	page, err := s.getLive(ctx, c.WikiID, c.Slug)
	if err != nil {
		return nil, err
	}
	if err := s.checkLock(ctx, page.ID, c.UserID); err != nil {
		return nil, err
	}

	if title != nil || altTitle != nil {
		newTitle := page.Title
		if title != nil {
			newTitle = *title
		}
		newAlt := page.AltTitle
		if altTitle != nil {
			newAlt = altTitle
		}
		if err := s.pages.UpdateTitles(ctx, page.ID, newTitle, newAlt); err != nil {
			return nil, err
		}
	}

	hash, err := store.Commit(ctx, c.Slug, content, c.info(data.ChangeModify))
	if err != nil {
		return nil, err
	}
	return s.record(ctx, c, page.ID, hash, data.ChangeModify)
}

// Rename moves a page to a new slug, in the store and in the row, and
// records a "rename" revision. Fails with ErrPageExists when a live page
// holds the target slug.
func (s *PageService) Rename(ctx context.Context, c PageCommit, newSlug string) (*data.Revision, error) {
	if !normalize.IsSlug(newSlug) {
		return nil, ErrInvalidSlug
	}
	store, err := s.store(c.WikiID)
	if err != nil {
		return nil, err
	}
	page, err := s.getLive(ctx, c.WikiID, c.Slug)
	if err != nil {
		return nil, err
	}
	if err := s.checkLock(ctx, page.ID, c.UserID); err != nil {
		return nil, err
	}

	if err := s.pages.UpdateSlug(ctx, page.ID, newSlug); err != nil {
		if errors.Is(err, data.ErrExists) {
			return nil, ErrPageExists
		}
		return nil, err
	}
	hash, err := store.Rename(ctx, c.Slug, newSlug, c.info(data.ChangeRename))
	if err != nil {
		return nil, err
	}

	c.Slug = newSlug
	return s.record(ctx, c, page.ID, hash, data.ChangeRename)
}

// Remove soft-deletes a page, removing its file from the store and
// freeing the slug, and records a "delete" revision. The page row and its
// history stay behind for a later restore.
func (s *PageService) Remove(ctx context.Context, c PageCommit) (*data.Revision, error) {
	store, err := s.store(c.WikiID)
	if err != nil {
		return nil, err
	}
	page, err := s.getLive(ctx, c.WikiID, c.Slug)
	if err != nil {
		return nil, err
	}
	if err := s.checkLock(ctx, page.ID, c.UserID); err != nil {
		return nil, err
	}

	if err := s.pages.SoftDelete(ctx, page.ID); err != nil {
		return nil, err
	}
	hash, err := store.Remove(ctx, c.Slug, c.info(data.ChangeDelete))
	if err != nil {
		return nil, err
	}
	if hash == "" {
		// The store had no file for this slug; nothing to reference.
		return nil, nil
	}
	return s.record(ctx, c, page.ID, hash, data.ChangeDelete)
}

// Restore brings back the most recently deleted page under c.Slug,
// restoring its content from the commit before the deletion. Fails with
// ErrPageExists when a live page has since taken the slug.
func (s *PageService) Restore(ctx context.Context, c PageCommit) (*data.Page, *data.Revision, error) {
	store, err := s.store(c.WikiID)
	if err != nil {
		return nil, nil, err
	}
	page, err := s.pages.GetLastDeleted(ctx, c.WikiID, c.Slug)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, nil, ErrPageNotFound
		}
		return nil, nil, err
	}

	hash, err := s.revisions.LastCommitExcluding(ctx, page.ID, data.ChangeDelete)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find pre-deletion commit: %w", err)
	}

	if err := s.pages.Restore(ctx, page.ID, c.Slug); err != nil {
		if errors.Is(err, data.ErrExists) {
			return nil, nil, ErrPageExists
		}
		return nil, nil, err
	}
	newHash, err := store.Restore(ctx, c.Slug, page.Slug, hash, c.info(data.ChangeRestore))
	if err != nil {
		return nil, nil, err
	}
	rev, err := s.record(ctx, c, page.ID, newHash, data.ChangeRestore)
	if err != nil {
		return nil, nil, err
	}

	page.Slug = c.Slug
	page.DeletedAt = nil
	return page, rev, nil
}

// Undo reverts a page to the content it had just before the given
// revision, recorded as an "undo" revision. Fails when the revision is
// the page's first.
func (s *PageService) Undo(ctx context.Context, c PageCommit, revisionID int64) (*data.Revision, error) {
	store, err := s.store(c.WikiID)
	if err != nil {
		return nil, err
	}
	page, err := s.getLive(ctx, c.WikiID, c.Slug)
	if err != nil {
		return nil, err
	}
	if err := s.checkLock(ctx, page.ID, c.UserID); err != nil {
		return nil, err
	}

	revs, err := s.revisions.ListByPage(ctx, page.ID)
	if err != nil {
		return nil, err
	}
	// Revisions come back newest first; the entry after the target is its
	// predecessor.
	var prior *data.Revision
	for i, rev := range revs {
		if rev.ID == revisionID {
			if i+1 < len(revs) {
				prior = revs[i+1]
			}
			break
		}
	}
	if prior == nil {
		return nil, fmt.Errorf("revision %d has no predecessor to revert to", revisionID)
	}

	content, err := store.GetPageVersion(ctx, c.Slug, prior.GitCommit)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, fmt.Errorf("no content for %q at revision %d", c.Slug, prior.ID)
	}
	hash, err := store.Commit(ctx, c.Slug, content, c.info(data.ChangeUndo))
	if err != nil {
		return nil, err
	}
	return s.record(ctx, c, page.ID, hash, data.ChangeUndo)
}

// SetTags replaces a page's tag list and records a "tags" revision with
// the delta. Tags are lowercased, deduplicated and sorted. Returns a nil
// revision when the new list equals the old one.
func (s *PageService) SetTags(ctx context.Context, c PageCommit, tags []string) (*data.Revision, error) {
	store, err := s.store(c.WikiID)
	if err != nil {
		return nil, err
	}
	page, err := s.getLive(ctx, c.WikiID, c.Slug)
	if err != nil {
		return nil, err
	}
	if err := s.checkLock(ctx, page.ID, c.UserID); err != nil {
		return nil, err
	}

	newTags := normalizeTags(tags)
	added, removed := tagDiff(page.Tags, newTags)
	if len(added) == 0 && len(removed) == 0 {
		return nil, nil
	}

	if err := s.pages.SetTags(ctx, page.ID, newTags); err != nil {
		return nil, err
	}
	// Tag changes do not touch content; the empty commit anchors the
	// revision in the history.
	hash, err := store.Commit(ctx, c.Slug, nil, c.info(data.ChangeTags))
	if err != nil {
		return nil, err
	}
	rev, err := s.record(ctx, c, page.ID, hash, data.ChangeTags)
	if err != nil {
		return nil, err
	}
	if err := s.revisions.CreateTagHistory(ctx, &data.TagHistory{
		RevisionID:  rev.ID,
		AddedTags:   added,
		RemovedTags: removed,
	}); err != nil {
		return nil, err
	}
	return rev, nil
}

// normalizeTags lowercases, deduplicates and sorts a tag list.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = normalize.Lower(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// tagDiff returns the tags present only in new and only in old. Both
// inputs must be normalized.
func tagDiff(old, new []string) (added, removed []string) {
	oldSet := make(map[string]bool, len(old))
	for _, tag := range old {
		oldSet[tag] = true
	}
	newSet := make(map[string]bool, len(new))
	for _, tag := range new {
		newSet[tag] = true
		if !oldSet[tag] {
			added = append(added, tag)
		}
	}
	for _, tag := range old {
		if !newSet[tag] {
			removed = append(removed, tag)
		}
	}
	return added, removed
}

func (s *PageService) getLive(ctx context.Context, wikiID int64, slug string) (*data.Page, error) {
	page, err := s.pages.GetLive(ctx, wikiID, slug)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return page, nil
}

// Get returns the live page under a slug.
func (s *PageService) Get(ctx context.Context, wikiID int64, slug string) (*data.Page, error) {
	return s.getLive(ctx, wikiID, slug)
}

// List returns the live pages of a wiki.
func (s *PageService) List(ctx context.Context, wikiID int64) ([]*data.Page, error) {
	return s.pages.ListLive(ctx, wikiID)
}

// GetContents returns the current content of a live page.
func (s *PageService) GetContents(ctx context.Context, wikiID int64, slug string) ([]byte, error) {
	store, err := s.store(wikiID)
	if err != nil {
		return nil, err
	}
	if _, err := s.getLive(ctx, wikiID, slug); err != nil {
		return nil, err
	}
	content, err := store.GetPage(ctx, slug)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, ErrPageNotFound
	}
	return content, nil
}

// GetContentsAt returns the content of a page as of a given revision.
func (s *PageService) GetContentsAt(ctx context.Context, wikiID int64, slug string, revisionID int64) ([]byte, error) {
	store, err := s.store(wikiID)
	if err != nil {
		return nil, err
	}
	rev, err := s.revisions.GetByID(ctx, revisionID)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	content, err := store.GetPageVersion(ctx, slug, rev.GitCommit)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, ErrPageNotFound
	}
	return content, nil
}

// Diff returns the unified diff of a page between two of its revisions.
func (s *PageService) Diff(ctx context.Context, wikiID int64, slug string, firstRevID, secondRevID int64) ([]byte, error) {
	store, err := s.store(wikiID)
	if err != nil {
		return nil, err
	}
	first, err := s.revisions.GetByID(ctx, firstRevID)
	if err != nil {
		return nil, err
	}
	second, err := s.revisions.GetByID(ctx, secondRevID)
	if err != nil {
		return nil, err
	}
	return store.Diff(ctx, slug, first.GitCommit, second.GitCommit)
}

// Revisions returns a page's revision history, newest first.
func (s *PageService) Revisions(ctx context.Context, wikiID int64, slug string) ([]*data.Revision, error) {
	page, err := s.getLive(ctx, wikiID, slug)
	if err != nil {
		return nil, err
	}
	return s.revisions.ListByPage(ctx, page.ID)
}

// LatestCommit returns the commit hash of a page's newest revision.
func (s *PageService) LatestCommit(ctx context.Context, wikiID int64, slug string) (string, error) {
	page, err := s.getLive(ctx, wikiID, slug)
	if err != nil {
		return "", err
	}
	hash, err := s.revisions.LastCommit(ctx, page.ID)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return "", ErrPageNotFound
		}
		return "", err
	}
	return hash, nil
}

// TagChange returns the tag delta recorded with a "tags" revision.
func (s *PageService) TagChange(ctx context.Context, revisionID int64) (*data.TagHistory, error) {
	return s.revisions.GetTagHistory(ctx, revisionID)
}

// EditRevisionMessage changes a revision's message. Only the row is
// touched; the git commit message is immutable.
func (s *PageService) EditRevisionMessage(ctx context.Context, revisionID int64, message string) error {
	return s.revisions.UpdateMessage(ctx, revisionID, message)
}

// --- Page locks ---

// AcquireLock takes the editing lock on a page for the wiki's configured
// duration, or extends it when the caller already holds it. Fails with
// ErrPageLocked when another user's lock has not expired.
func (s *PageService) AcquireLock(ctx context.Context, wikiID int64, slug string, userID int64) (*data.PageLock, error) {
	page, err := s.getLive(ctx, wikiID, slug)
	if err != nil {
		return nil, err
	}
	if err := s.checkLock(ctx, page.ID, userID); err != nil {
		return nil, err
	}

	settings, err := s.settings.GetSettings(ctx, wikiID)
	if err != nil {
		return nil, err
	}
	lock := &data.PageLock{
		PageID:      page.ID,
		UserID:      userID,
		LockedUntil: time.Now().Add(time.Duration(settings.PageLockDuration) * time.Second),
	}
	if err := s.pages.UpsertLock(ctx, lock); err != nil {
		return nil, err
	}
	return lock, nil
}

// ReleaseLock drops the editing lock on a page. Only the holder may
// release an unexpired lock; anyone may clear an expired one.
func (s *PageService) ReleaseLock(ctx context.Context, wikiID int64, slug string, userID int64) error {
	page, err := s.getLive(ctx, wikiID, slug)
	if err != nil {
		return err
	}
	lock, err := s.pages.GetLock(ctx, page.ID)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil
		}
		return err
	}
	if lock.UserID != userID && !lock.Expired(time.Now()) {
		return ErrPageLocked
	}
	return s.pages.DeleteLock(ctx, page.ID)
}

// --- Parent links ---

// AddParent links a page under a parent page, both named by slug.
func (s *PageService) AddParent(ctx context.Context, wikiID int64, slug, parentSlug string, byUserID int64) error {
	page, err := s.getLive(ctx, wikiID, slug)
	if err != nil {
		return err
	}
	parent, err := s.getLive(ctx, wikiID, parentSlug)
	if err != nil {
		return err
	}
	return s.pages.AddParent(ctx, &data.PageParent{
		PageID:       page.ID,
		ParentPageID: parent.ID,
		ParentedBy:   byUserID,
	})
}

// RemoveParent removes a parent link.
func (s *PageService) RemoveParent(ctx context.Context, wikiID int64, slug, parentSlug string) error {
	page, err := s.getLive(ctx, wikiID, slug)
	if err != nil {
		return err
	}
	parent, err := s.getLive(ctx, wikiID, parentSlug)
	if err != nil {
		return err
	}
	return s.pages.RemoveParent(ctx, page.ID, parent.ID)
}

// Parents returns a page's parent links.
func (s *PageService) Parents(ctx context.Context, wikiID int64, slug string) ([]*data.PageParent, error) {
	page, err := s.getLive(ctx, wikiID, slug)
	if err != nil {
		return nil, err
	}
	return s.pages.ListParents(ctx, page.ID)
}

// Children returns the links in which a page is the parent.
func (s *PageService) Children(ctx context.Context, wikiID int64, slug string) ([]*data.PageParent, error) {
	page, err := s.getLive(ctx, wikiID, slug)
	if err != nil {
		return nil, err
	}
	return s.pages.ListChildren(ctx, page.ID)
}

// --- Authors ---

// AddAuthor credits a user on a page.
func (s *PageService) AddAuthor(ctx context.Context, wikiID int64, slug string, userID int64, authorType data.AuthorType) error {
	if !authorType.Valid() {
		return fmt.Errorf("invalid author type %q", authorType)
	}
	page, err := s.getLive(ctx, wikiID, slug)
	if err != nil {
		return err
	}
	return s.authors.Add(ctx, &data.Author{PageID: page.ID, UserID: userID, AuthorType: authorType})
}

// RemoveAuthor removes a user's credit from a page.
func (s *PageService) RemoveAuthor(ctx context.Context, wikiID int64, slug string, userID int64, authorType data.AuthorType) error {
	page, err := s.getLive(ctx, wikiID, slug)
	if err != nil {
		return err
	}
	return s.authors.Remove(ctx, page.ID, userID, authorType)
}

// Authors returns the authorship credits on a page.
func (s *PageService) Authors(ctx context.Context, wikiID int64, slug string) ([]*data.Author, error) {
	page, err := s.getLive(ctx, wikiID, slug)
	if err != nil {
		return nil, err
	}
	return s.authors.ListByPage(ctx, page.ID)
}

// AuthoredBy returns a user's authorship credits across all pages.
func (s *PageService) AuthoredBy(ctx context.Context, userID int64) ([]*data.Author, error) {
	return s.authors.ListByUser(ctx, userID)
}

// --- Files ---

// AttachFile records an uploaded file against a page.
func (s *PageService) AttachFile(ctx context.Context, wikiID int64, slug string, file *data.File) error {
	page, err := s.getLive(ctx, wikiID, slug)
	if err != nil {
		return err
	}
	file.PageID = page.ID
	return s.files.Create(ctx, file)
}

// Files returns the files attached to a page.
func (s *PageService) Files(ctx context.Context, wikiID int64, slug string) ([]*data.File, error) {
	page, err := s.getLive(ctx, wikiID, slug)
	if err != nil {
		return nil, err
	}
	return s.files.ListByPage(ctx, page.ID)
}

// FileByName returns a file by its globally unique name.
func (s *PageService) FileByName(ctx context.Context, name string) (*data.File, error) {
	return s.files.GetByName(ctx, name)
}

// RemoveFile deletes a file record.
func (s *PageService) RemoveFile(ctx context.Context, fileID int64) error {
	return s.files.Delete(ctx, fileID)
}
