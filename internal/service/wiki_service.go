package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"wellspring/internal/data"
	"wellspring/internal/logger"
	"wellspring/internal/normalize"
)

// WikiRepository defines the interface for database operations on wikis.
type WikiRepository interface {
	Create(ctx context.Context, wiki *data.Wiki, settings *data.WikiSettings) error
	GetByID(ctx context.Context, id int64) (*data.Wiki, error)
	GetBySlug(ctx context.Context, slug string) (*data.Wiki, error)
	GetAll(ctx context.Context) ([]*data.Wiki, error)
	UpdateName(ctx context.Context, id int64, name string) error
	UpdateDomain(ctx context.Context, id int64, domain string) error
	GetSettings(ctx context.Context, wikiID int64) (*data.WikiSettings, error)
	UpdateSettings(ctx context.Context, settings *data.WikiSettings) error
}

// MembershipRepository defines the interface for wiki membership rows.
type MembershipRepository interface {
	Join(ctx context.Context, wikiID, userID int64) (*data.WikiMembership, error)
	Get(ctx context.Context, wikiID, userID int64) (*data.WikiMembership, error)
	ListByWiki(ctx context.Context, wikiID int64) ([]*data.WikiMembership, error)
	SetBan(ctx context.Context, wikiID, userID int64, until *time.Time) error
	ClearBan(ctx context.Context, wikiID, userID int64) error
}

// StoreManager manages the per-wiki revision stores. It is implemented by
// the page service, which owns them.
type StoreManager interface {
	AddStore(ctx context.Context, wiki *data.Wiki) error
	SetStoreDomain(wikiID int64, domain string) error
}

// WikiService manages wikis and their memberships. Known wikis are kept
// in an in-memory map so domain and slug lookups on the request path skip
// the database. Cached structs are never mutated once published: updates
// swap in a fresh copy under the lock, so readers can hold a returned
// pointer without synchronization.
type WikiService struct {
	repo        WikiRepository
	memberships MembershipRepository
	stores      StoreManager
	log         logger.Logger

	mu     sync.RWMutex
	byID   map[int64]*data.Wiki
	bySlug map[string]*data.Wiki
}

// NewWikiService creates a new WikiService. Call Warm before serving to
// populate the lookup maps and open the revision stores of existing wikis.
func NewWikiService(repo WikiRepository, memberships MembershipRepository, stores StoreManager, log logger.Logger) *WikiService {
	return &WikiService{
		repo:        repo,
		memberships: memberships,
		stores:      stores,
		log:         log,
		byID:        make(map[int64]*data.Wiki),
		bySlug:      make(map[string]*data.Wiki),
	}
}

// Warm loads every wiki from the database into the lookup maps and
// registers its revision store.
func (s *WikiService) Warm(ctx context.Context) error {
	wikis, err := s.repo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load wikis: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, wiki := range wikis {
		if err := s.stores.AddStore(ctx, wiki); err != nil {
			return fmt.Errorf("failed to open store for wiki %q: %w", wiki.Slug, err)
		}
		s.byID[wiki.ID] = wiki
		s.bySlug[wiki.Slug] = wiki
	}
	s.log.With(map[string]interface{}{"count": len(wikis)}).Info("wikis loaded")
	return nil
}

// Create registers a new wiki with default settings and initializes its
// revision store. The slug must already be in normal form; the domain is
// lowercased.
func (s *WikiService) Create(ctx context.Context, name, slug, domain string) (*data.Wiki, error) {
	if !normalize.IsSlug(slug) {
		return nil, ErrInvalidSlug
	}

	wiki := &data.Wiki{Name: name, Slug: slug, Domain: normalize.Lower(domain)}
	if err := s.repo.Create(ctx, wiki, &data.WikiSettings{}); err != nil {
		if errors.Is(err, data.ErrExists) {
			return nil, ErrWikiExists
		}
		return nil, err
	}
	if err := s.stores.AddStore(ctx, wiki); err != nil {
		return nil, fmt.Errorf("failed to initialize store for wiki %q: %w", wiki.Slug, err)
	}

	s.mu.Lock()
	s.byID[wiki.ID] = wiki
	s.bySlug[wiki.Slug] = wiki
	s.mu.Unlock()

	s.log.With(map[string]interface{}{"wiki_id": wiki.ID, "slug": wiki.Slug}).Info("wiki created")
	return wiki, nil
}

// GetByID returns a wiki by ID, consulting the map first.
func (s *WikiService) GetByID(ctx context.Context, id int64) (*data.Wiki, error) {
	s.mu.RLock()
	wiki, ok := s.byID[id]
	s.mu.RUnlock()
	if ok {
		return wiki, nil
	}

	wiki, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, ErrWikiNotFound
		}
		return nil, err
	}
	s.cache(wiki)
	return wiki, nil
}

// GetBySlug returns a wiki by slug, consulting the map first.
func (s *WikiService) GetBySlug(ctx context.Context, slug string) (*data.Wiki, error) {
	s.mu.RLock()
	wiki, ok := s.bySlug[slug]
	s.mu.RUnlock()
	if ok {
		return wiki, nil
	}

	wiki, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, ErrWikiNotFound
		}
		return nil, err
	}
	s.cache(wiki)
	return wiki, nil
}

// List returns all wikis.
func (s *WikiService) List(ctx context.Context) ([]*data.Wiki, error) {
	return s.repo.GetAll(ctx)
}

func (s *WikiService) cache(wiki *data.Wiki) {
	s.mu.Lock()
	s.byID[wiki.ID] = wiki
	s.bySlug[wiki.Slug] = wiki
	s.mu.Unlock()
}

// Rename changes a wiki's display name. The slug is permanent.
func (s *WikiService) Rename(ctx context.Context, id int64, name string) error {
	if err := s.repo.UpdateName(ctx, id, name); err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return ErrWikiNotFound
		}
		return err
	}

	s.mu.Lock()
	if wiki, ok := s.byID[id]; ok {
		updated := *wiki
		updated.Name = name
		s.byID[id] = &updated
		s.bySlug[updated.Slug] = &updated
	}
	s.mu.Unlock()
	return nil
}

// SetDomain changes a wiki's domain and updates the commit attribution of
// its revision store.
func (s *WikiService) SetDomain(ctx context.Context, id int64, domain string) error {
	domain = normalize.Lower(domain)
	if err := s.repo.UpdateDomain(ctx, id, domain); err != nil {
		switch {
		case errors.Is(err, data.ErrNotFound):
			return ErrWikiNotFound
		case errors.Is(err, data.ErrExists):
			return ErrWikiExists
		}
		return err
	}
	if err := s.stores.SetStoreDomain(id, domain); err != nil {
		return err
	}

	s.mu.Lock()
	if wiki, ok := s.byID[id]; ok {
		updated := *wiki
		updated.Domain = domain
		s.byID[id] = &updated
		s.bySlug[updated.Slug] = &updated
	}
	s.mu.Unlock()
	return nil
}

// Settings returns a wiki's settings row.
func (s *WikiService) Settings(ctx context.Context, wikiID int64) (*data.WikiSettings, error) {
	settings, err := s.repo.GetSettings(ctx, wikiID)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, ErrWikiNotFound
		}
		return nil, err
	}
	return settings, nil
}

// UpdateSettings writes a wiki's settings row. The lock duration must be
// positive; the schema enforces the same.
func (s *WikiService) UpdateSettings(ctx context.Context, settings *data.WikiSettings) error {
	if settings.PageLockDuration <= 0 {
		return fmt.Errorf("page lock duration must be positive")
	}
	if err := s.repo.UpdateSettings(ctx, settings); err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return ErrWikiNotFound
		}
		return err
	}
	return nil
}

// Join adds a user as a member of a wiki.
func (s *WikiService) Join(ctx context.Context, wikiID, userID int64) (*data.WikiMembership, error) {
	m, err := s.memberships.Join(ctx, wikiID, userID)
	if err != nil {
		return nil, err
	}
	s.log.With(map[string]interface{}{"wiki_id": wikiID, "user_id": userID}).Info("user joined wiki")
	return m, nil
}

// Membership returns a user's membership in a wiki, or ErrNotMember.
func (s *WikiService) Membership(ctx context.Context, wikiID, userID int64) (*data.WikiMembership, error) {
	m, err := s.memberships.Get(ctx, wikiID, userID)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, ErrNotMember
		}
		return nil, err
	}
	return m, nil
}

// Members lists the memberships of a wiki.
func (s *WikiService) Members(ctx context.Context, wikiID int64) ([]*data.WikiMembership, error) {
	return s.memberships.ListByWiki(ctx, wikiID)
}

// Ban bans a member until the given time, or indefinitely when until is
// nil.
func (s *WikiService) Ban(ctx context.Context, wikiID, userID int64, until *time.Time) error {
	if err := s.memberships.SetBan(ctx, wikiID, userID, until); err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return ErrNotMember
		}
		return err
	}
	s.log.With(map[string]interface{}{"wiki_id": wikiID, "user_id": userID}).Warn("member banned")
	return nil
}

// Unban lifts a member's ban.
func (s *WikiService) Unban(ctx context.Context, wikiID, userID int64) error {
	if err := s.memberships.ClearBan(ctx, wikiID, userID); err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return ErrNotMember
		}
		return err
	}
	return nil
}

// CheckMember verifies that a user is a member of a wiki and not banned.
func (s *WikiService) CheckMember(ctx context.Context, wikiID, userID int64) error {
	m, err := s.Membership(ctx, wikiID, userID)
	if err != nil {
		return err
	}
	if m.Banned(time.Now()) {
		return ErrBanned
	}
	return nil
}
