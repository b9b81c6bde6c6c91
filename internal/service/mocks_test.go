//go:build unit

package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"wellspring/internal/data"
	"wellspring/internal/logger"
	"wellspring/internal/revision"
)

// nopLogger discards everything.
type nopLogger struct{}

func (nopLogger) Debug(msg string)                         {}
func (nopLogger) Info(msg string)                          {}
func (nopLogger) Warn(msg string)                          {}
func (nopLogger) Error(err error, msg string)              {}
func (nopLogger) Fatal(err error, msg string)              {}
func (l nopLogger) With(map[string]interface{}) logger.Logger { return l }

// fakeStore is an in-memory stand-in for a git-backed revision store. It
// keeps every committed version so historical reads work.
type fakeStore struct {
	domain   string
	nextHash int
	files    map[string][]byte
	versions map[string][]byte // hash:slug -> content
	commits  int
	// commitErr makes the next Commit fail, once.
	commitErr error
}

var _ PageStore = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		files:    make(map[string][]byte),
		versions: make(map[string][]byte),
	}
}

func (s *fakeStore) hash() string {
	s.nextHash++
	return fmt.Sprintf("%040x", s.nextHash)
}

func (s *fakeStore) snapshot() string {
	h := s.hash()
	for slug, content := range s.files {
		s.versions[h+":"+slug] = content
	}
	s.commits++
	return h
}

func (s *fakeStore) Init(ctx context.Context) (string, error) {
	return s.snapshot(), nil
}

func (s *fakeStore) Commit(ctx context.Context, slug string, content []byte, info revision.CommitInfo) (string, error) {
	if s.commitErr != nil {
		err := s.commitErr
		s.commitErr = nil
		return "", err
	}
	if content != nil {
		s.files[slug] = content
	}
	return s.snapshot(), nil
}

func (s *fakeStore) Remove(ctx context.Context, slug string, info revision.CommitInfo) (string, error) {
	if _, ok := s.files[slug]; !ok {
		return "", nil
	}
	delete(s.files, slug)
	return s.snapshot(), nil
}

func (s *fakeStore) Rename(ctx context.Context, oldSlug, newSlug string, info revision.CommitInfo) (string, error) {
	content, ok := s.files[oldSlug]
	if !ok {
		return "", fmt.Errorf("no file for %q", oldSlug)
	}
	delete(s.files, oldSlug)
	s.files[newSlug] = content
	return s.snapshot(), nil
}

func (s *fakeStore) Restore(ctx context.Context, slug, oldSlug, hash string, info revision.CommitInfo) (string, error) {
	content, ok := s.versions[hash+":"+oldSlug]
	if !ok {
		return "", fmt.Errorf("no content for %q at %s", oldSlug, hash)
	}
	return s.Commit(ctx, slug, content, info)
}

func (s *fakeStore) GetPage(ctx context.Context, slug string) ([]byte, error) {
	return s.files[slug], nil
}

func (s *fakeStore) GetPageVersion(ctx context.Context, slug, hash string) ([]byte, error) {
	return s.versions[hash+":"+slug], nil
}

func (s *fakeStore) Diff(ctx context.Context, slug, first, second string) ([]byte, error) {
	return []byte(fmt.Sprintf("diff %s..%s -- %s", first, second, slug)), nil
}

func (s *fakeStore) SetDomain(domain string) { s.domain = domain }

// fakePageRepo is a map-backed PageRepository.
type fakePageRepo struct {
	nextID  int64
	pages   map[int64]*data.Page
	locks   map[int64]*data.PageLock
	parents []*data.PageParent
}

var _ PageRepository = (*fakePageRepo)(nil)

func newFakePageRepo() *fakePageRepo {
	return &fakePageRepo{
		pages: make(map[int64]*data.Page),
		locks: make(map[int64]*data.PageLock),
	}
}

func (r *fakePageRepo) live(wikiID int64, slug string) *data.Page {
	for _, p := range r.pages {
		if p.WikiID == wikiID && p.Slug == slug && p.DeletedAt == nil {
			return p
		}
	}
	return nil
}

func (r *fakePageRepo) Create(ctx context.Context, page *data.Page) error {
	if r.live(page.WikiID, page.Slug) != nil {
		return data.ErrExists
	}
	r.nextID++
	page.ID = r.nextID
	page.CreatedAt = time.Now()
	clone := *page
	r.pages[page.ID] = &clone
	return nil
}

func (r *fakePageRepo) GetLive(ctx context.Context, wikiID int64, slug string) (*data.Page, error) {
	if p := r.live(wikiID, slug); p != nil {
		clone := *p
		return &clone, nil
	}
	return nil, data.ErrNotFound
}

func (r *fakePageRepo) GetByID(ctx context.Context, id int64) (*data.Page, error) {
	p, ok := r.pages[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *fakePageRepo) ListLive(ctx context.Context, wikiID int64) ([]*data.Page, error) {
	var out []*data.Page
	for _, p := range r.pages {
		if p.WikiID == wikiID && p.DeletedAt == nil {
			clone := *p
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (r *fakePageRepo) GetLastDeleted(ctx context.Context, wikiID int64, slug string) (*data.Page, error) {
	var latest *data.Page
	for _, p := range r.pages {
		if p.WikiID != wikiID || p.Slug != slug || p.DeletedAt == nil {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, data.ErrNotFound
	}
	clone := *latest
	return &clone, nil
}

func (r *fakePageRepo) UpdateTitles(ctx context.Context, id int64, title string, altTitle *string) error {
	p, ok := r.pages[id]
	if !ok {
		return data.ErrNotFound
	}
	p.Title = title
	p.AltTitle = altTitle
	return nil
}

func (r *fakePageRepo) UpdateSlug(ctx context.Context, id int64, slug string) error {
	p, ok := r.pages[id]
	if !ok {
		return data.ErrNotFound
	}
	if other := r.live(p.WikiID, slug); other != nil && other.ID != id {
		return data.ErrExists
	}
	p.Slug = slug
	return nil
}

func (r *fakePageRepo) SetTags(ctx context.Context, id int64, tags []string) error {
	p, ok := r.pages[id]
	if !ok {
		return data.ErrNotFound
	}
	p.Tags = tags
	return nil
}

func (r *fakePageRepo) SoftDelete(ctx context.Context, id int64) error {
	p, ok := r.pages[id]
	if !ok || p.DeletedAt != nil {
		return data.ErrNotFound
	}
	now := time.Now()
	p.DeletedAt = &now
	return nil
}

func (r *fakePageRepo) Restore(ctx context.Context, id int64, slug string) error {
	p, ok := r.pages[id]
	if !ok || p.DeletedAt == nil {
		return data.ErrNotFound
	}
	if r.live(p.WikiID, slug) != nil {
		return data.ErrExists
	}
	p.DeletedAt = nil
	p.Slug = slug
	return nil
}

func (r *fakePageRepo) GetLock(ctx context.Context, pageID int64) (*data.PageLock, error) {
	lock, ok := r.locks[pageID]
	if !ok {
		return nil, data.ErrNotFound
	}
	clone := *lock
	return &clone, nil
}

func (r *fakePageRepo) UpsertLock(ctx context.Context, lock *data.PageLock) error {
	clone := *lock
	r.locks[lock.PageID] = &clone
	return nil
}

func (r *fakePageRepo) DeleteLock(ctx context.Context, pageID int64) error {
	delete(r.locks, pageID)
	return nil
}

func (r *fakePageRepo) AddParent(ctx context.Context, parent *data.PageParent) error {
	clone := *parent
	clone.ParentedAt = time.Now()
	r.parents = append(r.parents, &clone)
	return nil
}

func (r *fakePageRepo) RemoveParent(ctx context.Context, pageID, parentPageID int64) error {
	for i, p := range r.parents {
		if p.PageID == pageID && p.ParentPageID == parentPageID {
			r.parents = append(r.parents[:i], r.parents[i+1:]...)
			return nil
		}
	}
	return data.ErrNotFound
}

func (r *fakePageRepo) ListParents(ctx context.Context, pageID int64) ([]*data.PageParent, error) {
	var out []*data.PageParent
	for _, p := range r.parents {
		if p.PageID == pageID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePageRepo) ListChildren(ctx context.Context, parentPageID int64) ([]*data.PageParent, error) {
	var out []*data.PageParent
	for _, p := range r.parents {
		if p.ParentPageID == parentPageID {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeRevisionRepo is a slice-backed RevisionRepository.
type fakeRevisionRepo struct {
	nextID    int64
	revisions []*data.Revision
	tags      map[int64]*data.TagHistory
}

var _ RevisionRepository = (*fakeRevisionRepo)(nil)

func newFakeRevisionRepo() *fakeRevisionRepo {
	return &fakeRevisionRepo{tags: make(map[int64]*data.TagHistory)}
}

func (r *fakeRevisionRepo) Create(ctx context.Context, rev *data.Revision) error {
	if !rev.ChangeType.Valid() {
		return data.ErrInvalid
	}
	r.nextID++
	rev.ID = r.nextID
	rev.CreatedAt = time.Now()
	clone := *rev
	r.revisions = append(r.revisions, &clone)
	return nil
}

func (r *fakeRevisionRepo) GetByID(ctx context.Context, id int64) (*data.Revision, error) {
	for _, rev := range r.revisions {
		if rev.ID == id {
			clone := *rev
			return &clone, nil
		}
	}
	return nil, data.ErrNotFound
}

func (r *fakeRevisionRepo) ListByPage(ctx context.Context, pageID int64) ([]*data.Revision, error) {
	var out []*data.Revision
	// Newest first, matching the real repository.
	for i := len(r.revisions) - 1; i >= 0; i-- {
		if r.revisions[i].PageID == pageID {
			clone := *r.revisions[i]
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeRevisionRepo) UpdateMessage(ctx context.Context, id int64, message string) error {
	for _, rev := range r.revisions {
		if rev.ID == id {
			rev.Message = message
			return nil
		}
	}
	return data.ErrNotFound
}

func (r *fakeRevisionRepo) LastCommit(ctx context.Context, pageID int64) (string, error) {
	for i := len(r.revisions) - 1; i >= 0; i-- {
		if r.revisions[i].PageID == pageID {
			return r.revisions[i].GitCommit, nil
		}
	}
	return "", data.ErrNotFound
}

func (r *fakeRevisionRepo) LastCommitExcluding(ctx context.Context, pageID int64, exclude data.ChangeType) (string, error) {
	for i := len(r.revisions) - 1; i >= 0; i-- {
		if r.revisions[i].PageID == pageID && r.revisions[i].ChangeType != exclude {
			return r.revisions[i].GitCommit, nil
		}
	}
	return "", data.ErrNotFound
}

func (r *fakeRevisionRepo) CreateTagHistory(ctx context.Context, th *data.TagHistory) error {
	clone := *th
	r.tags[th.RevisionID] = &clone
	return nil
}

func (r *fakeRevisionRepo) GetTagHistory(ctx context.Context, revisionID int64) (*data.TagHistory, error) {
	th, ok := r.tags[revisionID]
	if !ok {
		return nil, data.ErrNotFound
	}
	clone := *th
	return &clone, nil
}

// fakeAuthorRepo is a slice-backed AuthorRepository.
type fakeAuthorRepo struct {
	authors []*data.Author
}

var _ AuthorRepository = (*fakeAuthorRepo)(nil)

func (r *fakeAuthorRepo) Add(ctx context.Context, author *data.Author) error {
	for _, a := range r.authors {
		if a.PageID == author.PageID && a.UserID == author.UserID && a.AuthorType == author.AuthorType {
			return data.ErrExists
		}
	}
	clone := *author
	clone.CreatedAt = time.Now()
	r.authors = append(r.authors, &clone)
	return nil
}

func (r *fakeAuthorRepo) Remove(ctx context.Context, pageID, userID int64, authorType data.AuthorType) error {
	for i, a := range r.authors {
		if a.PageID == pageID && a.UserID == userID && a.AuthorType == authorType {
			r.authors = append(r.authors[:i], r.authors[i+1:]...)
			return nil
		}
	}
	return data.ErrNotFound
}

func (r *fakeAuthorRepo) ListByPage(ctx context.Context, pageID int64) ([]*data.Author, error) {
	var out []*data.Author
	for _, a := range r.authors {
		if a.PageID == pageID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAuthorRepo) ListByUser(ctx context.Context, userID int64) ([]*data.Author, error) {
	var out []*data.Author
	for _, a := range r.authors {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

// fakeFileRepo is a map-backed FileRepository.
type fakeFileRepo struct {
	nextID int64
	files  map[int64]*data.File
}

var _ FileRepository = (*fakeFileRepo)(nil)

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{files: make(map[int64]*data.File)}
}

func (r *fakeFileRepo) Create(ctx context.Context, file *data.File) error {
	for _, f := range r.files {
		if f.Name == file.Name || f.URI == file.URI {
			return data.ErrExists
		}
	}
	r.nextID++
	file.ID = r.nextID
	file.CreatedAt = time.Now()
	clone := *file
	r.files[file.ID] = &clone
	return nil
}

func (r *fakeFileRepo) GetByName(ctx context.Context, name string) (*data.File, error) {
	for _, f := range r.files {
		if f.Name == name {
			clone := *f
			return &clone, nil
		}
	}
	return nil, data.ErrNotFound
}

func (r *fakeFileRepo) ListByPage(ctx context.Context, pageID int64) ([]*data.File, error) {
	var out []*data.File
	for _, f := range r.files {
		if f.PageID == pageID {
			clone := *f
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeFileRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.files[id]; !ok {
		return data.ErrNotFound
	}
	delete(r.files, id)
	return nil
}

// fakeWikiRepo is a map-backed WikiRepository. It also serves as the
// SettingsGetter for the page service.
type fakeWikiRepo struct {
	nextID   int64
	wikis    map[int64]*data.Wiki
	settings map[int64]*data.WikiSettings
}

var _ WikiRepository = (*fakeWikiRepo)(nil)
var _ SettingsGetter = (*fakeWikiRepo)(nil)

func newFakeWikiRepo() *fakeWikiRepo {
	return &fakeWikiRepo{
		wikis:    make(map[int64]*data.Wiki),
		settings: make(map[int64]*data.WikiSettings),
	}
}

func (r *fakeWikiRepo) Create(ctx context.Context, wiki *data.Wiki, settings *data.WikiSettings) error {
	for _, w := range r.wikis {
		if w.Slug == wiki.Slug || w.Domain == wiki.Domain {
			return data.ErrExists
		}
	}
	r.nextID++
	wiki.ID = r.nextID
	wiki.CreatedAt = time.Now()
	clone := *wiki
	r.wikis[wiki.ID] = &clone

	duration := settings.PageLockDuration
	if duration <= 0 {
		duration = 900
	}
	r.settings[wiki.ID] = &data.WikiSettings{WikiID: wiki.ID, PageLockDuration: duration}
	return nil
}

func (r *fakeWikiRepo) GetByID(ctx context.Context, id int64) (*data.Wiki, error) {
	w, ok := r.wikis[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	clone := *w
	return &clone, nil
}

func (r *fakeWikiRepo) GetBySlug(ctx context.Context, slug string) (*data.Wiki, error) {
	for _, w := range r.wikis {
		if w.Slug == slug {
			clone := *w
			return &clone, nil
		}
	}
	return nil, data.ErrNotFound
}

func (r *fakeWikiRepo) GetAll(ctx context.Context) ([]*data.Wiki, error) {
	var out []*data.Wiki
	for _, w := range r.wikis {
		clone := *w
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeWikiRepo) UpdateName(ctx context.Context, id int64, name string) error {
	w, ok := r.wikis[id]
	if !ok {
		return data.ErrNotFound
	}
	w.Name = name
	return nil
}

func (r *fakeWikiRepo) UpdateDomain(ctx context.Context, id int64, domain string) error {
	w, ok := r.wikis[id]
	if !ok {
		return data.ErrNotFound
	}
	w.Domain = domain
	return nil
}

func (r *fakeWikiRepo) GetSettings(ctx context.Context, wikiID int64) (*data.WikiSettings, error) {
	s, ok := r.settings[wikiID]
	if !ok {
		return nil, data.ErrNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *fakeWikiRepo) UpdateSettings(ctx context.Context, settings *data.WikiSettings) error {
	if _, ok := r.settings[settings.WikiID]; !ok {
		return data.ErrNotFound
	}
	clone := *settings
	r.settings[settings.WikiID] = &clone
	return nil
}

// fakeMembershipRepo is a map-backed MembershipRepository.
type fakeMembershipRepo struct {
	members map[string]*data.WikiMembership
}

var _ MembershipRepository = (*fakeMembershipRepo)(nil)

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{members: make(map[string]*data.WikiMembership)}
}

func memberKey(wikiID, userID int64) string {
	return fmt.Sprintf("%d:%d", wikiID, userID)
}

func (r *fakeMembershipRepo) Join(ctx context.Context, wikiID, userID int64) (*data.WikiMembership, error) {
	key := memberKey(wikiID, userID)
	if _, ok := r.members[key]; ok {
		return nil, data.ErrExists
	}
	now := time.Now()
	m := &data.WikiMembership{WikiID: wikiID, UserID: userID, AppliedAt: now, JoinedAt: now}
	r.members[key] = m
	clone := *m
	return &clone, nil
}

func (r *fakeMembershipRepo) Get(ctx context.Context, wikiID, userID int64) (*data.WikiMembership, error) {
	m, ok := r.members[memberKey(wikiID, userID)]
	if !ok {
		return nil, data.ErrNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *fakeMembershipRepo) ListByWiki(ctx context.Context, wikiID int64) ([]*data.WikiMembership, error) {
	var out []*data.WikiMembership
	for _, m := range r.members {
		if m.WikiID == wikiID {
			clone := *m
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeMembershipRepo) SetBan(ctx context.Context, wikiID, userID int64, until *time.Time) error {
	m, ok := r.members[memberKey(wikiID, userID)]
	if !ok {
		return data.ErrNotFound
	}
	now := time.Now()
	m.BannedAt = &now
	m.BannedUntil = until
	return nil
}

func (r *fakeMembershipRepo) ClearBan(ctx context.Context, wikiID, userID int64) error {
	m, ok := r.members[memberKey(wikiID, userID)]
	if !ok {
		return data.ErrNotFound
	}
	m.BannedAt = nil
	m.BannedUntil = nil
	return nil
}

// fakeUserRepo is a map-backed UserRepository, doubling as the UserLookup
// for the auth service.
type fakeUserRepo struct {
	nextID int64
	users  map[int64]*data.User
}

var _ UserRepository = (*fakeUserRepo)(nil)
var _ UserLookup = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: data.FirstRegularUserID - 1, users: make(map[int64]*data.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *data.User) error {
	for _, u := range r.users {
		if u.Name == user.Name || u.Email == user.Email {
			return data.ErrExists
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*data.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetByName(ctx context.Context, name string) (*data.User, error) {
	for _, u := range r.users {
		if u.Name == name {
			clone := *u
			return &clone, nil
		}
	}
	return nil, data.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*data.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, data.ErrNotFound
}

func (r *fakeUserRepo) UpdateProfile(ctx context.Context, user *data.User) error {
	u, ok := r.users[user.ID]
	if !ok || u.DeletedAt != nil {
		return data.ErrNotFound
	}
	u.AuthorPage = user.AuthorPage
	u.Website = user.Website
	u.About = user.About
	u.Gender = user.Gender
	u.Location = user.Location
	return nil
}

func (r *fakeUserRepo) SetVerified(ctx context.Context, id int64) error {
	u, ok := r.users[id]
	if !ok {
		return data.ErrNotFound
	}
	u.IsVerified = true
	return nil
}

func (r *fakeUserRepo) SoftDelete(ctx context.Context, id int64) error {
	u, ok := r.users[id]
	if !ok || u.DeletedAt != nil {
		return data.ErrNotFound
	}
	now := time.Now()
	u.DeletedAt = &now
	return nil
}

// fakeAuthRepo is a map-backed AuthRepository.
type fakeAuthRepo struct {
	nextID    int64
	passwords map[int64]*data.Password
	attempts  []*data.LoginAttempt
	sessions  map[int64]*data.Session
}

var _ AuthRepository = (*fakeAuthRepo)(nil)

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{
		passwords: make(map[int64]*data.Password),
		sessions:  make(map[int64]*data.Session),
	}
}

func (r *fakeAuthRepo) SetPassword(ctx context.Context, p *data.Password) error {
	clone := *p
	r.passwords[p.UserID] = &clone
	return nil
}

func (r *fakeAuthRepo) GetPassword(ctx context.Context, userID int64) (*data.Password, error) {
	p, ok := r.passwords[userID]
	if !ok {
		return nil, data.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *fakeAuthRepo) RecordLoginAttempt(ctx context.Context, attempt *data.LoginAttempt) error {
	r.nextID++
	attempt.ID = r.nextID
	attempt.AttemptedAt = time.Now()
	clone := *attempt
	r.attempts = append(r.attempts, &clone)
	return nil
}

func (r *fakeAuthRepo) ListLoginAttempts(ctx context.Context, userID int64) ([]*data.LoginAttempt, error) {
	var out []*data.LoginAttempt
	for i := len(r.attempts) - 1; i >= 0; i-- {
		if r.attempts[i].UserID != nil && *r.attempts[i].UserID == userID {
			clone := *r.attempts[i]
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeAuthRepo) CreateSession(ctx context.Context, s *data.Session) error {
	if _, ok := r.sessions[s.UserID]; ok {
		return data.ErrExists
	}
	r.nextID++
	s.ID = r.nextID
	s.CreatedAt = time.Now()
	clone := *s
	r.sessions[s.UserID] = &clone
	return nil
}

func (r *fakeAuthRepo) GetSessionByUser(ctx context.Context, userID int64) (*data.Session, error) {
	s, ok := r.sessions[userID]
	if !ok {
		return nil, data.ErrNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *fakeAuthRepo) GetSessionByToken(ctx context.Context, token string) (*data.Session, error) {
	for _, s := range r.sessions {
		if s.Token == token {
			clone := *s
			return &clone, nil
		}
	}
	return nil, data.ErrNotFound
}

func (r *fakeAuthRepo) DeleteSessionByUser(ctx context.Context, userID int64) (bool, error) {
	if _, ok := r.sessions[userID]; !ok {
		return false, nil
	}
	delete(r.sessions, userID)
	return true, nil
}

// fakeRatingRepo is a map-backed RatingRepository.
type fakeRatingRepo struct {
	nextID  int64
	current map[string]*data.Rating
	history []*data.RatingHistory
}

var _ RatingRepository = (*fakeRatingRepo)(nil)

func newFakeRatingRepo() *fakeRatingRepo {
	return &fakeRatingRepo{current: make(map[string]*data.Rating)}
}

func ratingKey(pageID, userID int64) string {
	return fmt.Sprintf("%d:%d", pageID, userID)
}

func (r *fakeRatingRepo) Set(ctx context.Context, rating *data.Rating) error {
	if rating.Rating != -1 && rating.Rating != 1 {
		return data.ErrInvalid
	}
	clone := *rating
	r.current[ratingKey(rating.PageID, rating.UserID)] = &clone
	r.nextID++
	value := rating.Rating
	r.history = append(r.history, &data.RatingHistory{
		ID: r.nextID, PageID: rating.PageID, UserID: rating.UserID,
		Rating: &value, CreatedAt: time.Now(),
	})
	return nil
}

func (r *fakeRatingRepo) Retract(ctx context.Context, pageID, userID int64) error {
	key := ratingKey(pageID, userID)
	if _, ok := r.current[key]; !ok {
		return data.ErrNotFound
	}
	delete(r.current, key)
	r.nextID++
	r.history = append(r.history, &data.RatingHistory{
		ID: r.nextID, PageID: pageID, UserID: userID, CreatedAt: time.Now(),
	})
	return nil
}

func (r *fakeRatingRepo) Get(ctx context.Context, pageID, userID int64) (*data.Rating, error) {
	rating, ok := r.current[ratingKey(pageID, userID)]
	if !ok {
		return nil, data.ErrNotFound
	}
	clone := *rating
	return &clone, nil
}

func (r *fakeRatingRepo) Score(ctx context.Context, pageID int64) (*data.PageScore, error) {
	score := &data.PageScore{PageID: pageID}
	for _, rating := range r.current {
		if rating.PageID == pageID {
			score.Score += int64(rating.Rating)
			score.Votes++
		}
	}
	return score, nil
}

func (r *fakeRatingRepo) History(ctx context.Context, pageID int64) ([]*data.RatingHistory, error) {
	var out []*data.RatingHistory
	for i := len(r.history) - 1; i >= 0; i-- {
		if r.history[i].PageID == pageID {
			clone := *r.history[i]
			out = append(out, &clone)
		}
	}
	return out, nil
}

// fakeRoleRepo is a map-backed RoleRepository.
type fakeRoleRepo struct {
	nextID  int64
	roles   map[int64]*data.Role
	members []*data.RoleMembership
}

var _ RoleRepository = (*fakeRoleRepo)(nil)

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: make(map[int64]*data.Role)}
}

func (r *fakeRoleRepo) Create(ctx context.Context, role *data.Role) error {
	for _, existing := range r.roles {
		if existing.WikiID == role.WikiID && existing.Name == role.Name {
			return data.ErrExists
		}
	}
	r.nextID++
	role.ID = r.nextID
	clone := *role
	r.roles[role.ID] = &clone
	return nil
}

func (r *fakeRoleRepo) GetByID(ctx context.Context, id int64) (*data.Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	clone := *role
	return &clone, nil
}

func (r *fakeRoleRepo) ListByWiki(ctx context.Context, wikiID int64) ([]*data.Role, error) {
	var out []*data.Role
	for _, role := range r.roles {
		if role.WikiID == wikiID {
			clone := *role
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeRoleRepo) UpdatePermissions(ctx context.Context, id int64, set data.PermissionSet) error {
	role, ok := r.roles[id]
	if !ok {
		return data.ErrNotFound
	}
	role.PermissionSet = set
	return nil
}

func (r *fakeRoleRepo) AddMember(ctx context.Context, m *data.RoleMembership) error {
	for _, existing := range r.members {
		if existing.RoleID == m.RoleID && existing.UserID == m.UserID {
			return data.ErrExists
		}
	}
	clone := *m
	clone.AppliedAt = time.Now()
	r.members = append(r.members, &clone)
	return nil
}

func (r *fakeRoleRepo) RemoveMember(ctx context.Context, wikiID, roleID, userID int64) error {
	for i, m := range r.members {
		if m.WikiID == wikiID && m.RoleID == roleID && m.UserID == userID {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return nil
		}
	}
	return data.ErrNotFound
}

func (r *fakeRoleRepo) ListMembers(ctx context.Context, roleID int64) ([]*data.RoleMembership, error) {
	var out []*data.RoleMembership
	for _, m := range r.members {
		if m.RoleID == roleID {
			clone := *m
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeRoleRepo) ListUserRoles(ctx context.Context, wikiID, userID int64) ([]*data.Role, error) {
	var out []*data.Role
	for _, m := range r.members {
		if m.WikiID == wikiID && m.UserID == userID {
			if role, ok := r.roles[m.RoleID]; ok {
				clone := *role
				out = append(out, &clone)
			}
		}
	}
	return out, nil
}
