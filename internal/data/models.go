package data

import (
	"time"

	"github.com/lib/pq"
)

// Sentinel accounts seeded by the initial migration at fixed identifiers.
const (
	UserUnknown       int64 = 0
	UserAdministrator int64 = 1
	UserSystem        int64 = 2
	UserAnonymous     int64 = 3
	UserNobody        int64 = 4

	// FirstRegularUserID is where the user sequence starts for real accounts.
	FirstRegularUserID int64 = 5
)

// User represents an account identity. Users are soft-deleted: DeletedAt is
// set instead of removing the row, so revisions and ratings keep their
// references.
type User struct {
	ID         int64      `db:"user_id" json:"id"`
	Name       string     `db:"name" json:"name"`
	Email      string     `db:"email" json:"email"`
	IsVerified bool       `db:"is_verified" json:"is_verified"`
	IsBot      bool       `db:"is_bot" json:"is_bot"`
	AuthorPage string     `db:"author_page" json:"author_page"`
	Website    string     `db:"website" json:"website"`
	About      string     `db:"about" json:"about"`
	Gender     string     `db:"gender" json:"gender"`
	Location   string     `db:"location" json:"location"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	DeletedAt  *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Active reports whether the account has not been soft-deleted.
func (u *User) Active() bool {
	return u.DeletedAt == nil
}

// Sentinel reports whether the user is one of the fixed seed accounts.
func (u *User) Sentinel() bool {
	return u.ID < FirstRegularUserID
}

// Wiki is a named site keyed by a URL-safe slug and a unique domain.
type Wiki struct {
	ID        int64     `db:"wiki_id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	Domain    string    `db:"domain" json:"domain"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// WikiSettings holds per-wiki tunables. PageLockDuration is in seconds and
// must be positive.
type WikiSettings struct {
	WikiID           int64 `db:"wiki_id" json:"wiki_id"`
	PageLockDuration int16 `db:"page_lock_duration" json:"page_lock_duration"`
}

// WikiMembership records a user's membership in a wiki, including an
// optional ban window. A null BannedUntil with BannedAt set means the ban
// is indefinite.
type WikiMembership struct {
	WikiID      int64      `db:"wiki_id" json:"wiki_id"`
	UserID      int64      `db:"user_id" json:"user_id"`
	AppliedAt   time.Time  `db:"applied_at" json:"applied_at"`
	JoinedAt    time.Time  `db:"joined_at" json:"joined_at"`
	BannedAt    *time.Time `db:"banned_at" json:"banned_at,omitempty"`
	BannedUntil *time.Time `db:"banned_until" json:"banned_until,omitempty"`
}

// Banned reports whether the membership is banned as of now.
func (m *WikiMembership) Banned(now time.Time) bool {
	if m.BannedAt == nil {
		return false
	}
	if m.BannedUntil == nil {
		return true // indefinite
	}
	return now.Before(*m.BannedUntil)
}

// Role is a named permission set scoped to a wiki.
type Role struct {
	ID            int64         `db:"role_id" json:"id"`
	WikiID        int64         `db:"wiki_id" json:"wiki_id"`
	Name          string        `db:"name" json:"name"`
	PermissionSet PermissionSet `db:"permission_set" json:"permission_set"`
}

// RoleMembership assigns a role to a user within a wiki.
type RoleMembership struct {
	WikiID    int64     `db:"wiki_id" json:"wiki_id"`
	RoleID    int64     `db:"role_id" json:"role_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	AppliedAt time.Time `db:"applied_at" json:"applied_at"`
}

// Page is a content unit scoped to a wiki and identified by slug. Content
// itself lives in the wiki's revision store; the row carries the metadata.
type Page struct {
	ID        int64          `db:"page_id" json:"id"`
	WikiID    int64          `db:"wiki_id" json:"wiki_id"`
	Slug      string         `db:"slug" json:"slug"`
	Title     string         `db:"title" json:"title"`
	AltTitle  *string        `db:"alt_title" json:"alt_title,omitempty"`
	Tags      pq.StringArray `db:"tags" json:"tags"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	DeletedAt *time.Time     `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Exists reports whether the page has not been soft-deleted.
func (p *Page) Exists() bool {
	return p.DeletedAt == nil
}

// PageLock is an advisory editing lock on a page. Mutual exclusion is
// enforced by the service layer, not the schema.
type PageLock struct {
	PageID      int64     `db:"page_id" json:"page_id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	LockedUntil time.Time `db:"locked_until" json:"locked_until"`
}

// Expired reports whether the lock has lapsed as of now.
func (l *PageLock) Expired(now time.Time) bool {
	return !now.Before(l.LockedUntil)
}

// PageParent links a page to one of its parent pages.
type PageParent struct {
	PageID       int64     `db:"page_id" json:"page_id"`
	ParentPageID int64     `db:"parent_page_id" json:"parent_page_id"`
	ParentedBy   int64     `db:"parented_by" json:"parented_by"`
	ParentedAt   time.Time `db:"parented_at" json:"parented_at"`
}

// ChangeType classifies a revision's effect on a page.
type ChangeType string

const (
	ChangeCreate  ChangeType = "create"
	ChangeModify  ChangeType = "modify"
	ChangeDelete  ChangeType = "delete"
	ChangeRestore ChangeType = "restore"
	ChangeRename  ChangeType = "rename"
	ChangeUndo    ChangeType = "undo"
	ChangeTags    ChangeType = "tags"
)

// Valid reports whether c is one of the closed enumeration values.
func (c ChangeType) Valid() bool {
	switch c {
	case ChangeCreate, ChangeModify, ChangeDelete, ChangeRestore,
		ChangeRename, ChangeUndo, ChangeTags:
		return true
	}
	return false
}

// Verb returns the past-tense verb used in generated commit messages.
func (c ChangeType) Verb() string {
	switch c {
	case ChangeCreate:
		return "created"
	case ChangeModify:
		return "modified"
	case ChangeDelete:
		return "deleted"
	case ChangeRestore:
		return "restored"
	case ChangeRename:
		return "renamed"
	case ChangeUndo:
		return "undid"
	case ChangeTags:
		return "changed tags for"
	}
	return "changed"
}

// Revision is an append-only record of a page edit, referencing the git
// commit holding the content at that point.
type Revision struct {
	ID         int64      `db:"revision_id" json:"id"`
	PageID     int64      `db:"page_id" json:"page_id"`
	UserID     int64      `db:"user_id" json:"user_id"`
	Message    string     `db:"message" json:"message"`
	GitCommit  string     `db:"git_commit" json:"git_commit"`
	ChangeType ChangeType `db:"change_type" json:"change_type"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// TagHistory extends a revision of type "tags" with the tag delta. The
// schema forbids a tag appearing in both sets.
type TagHistory struct {
	RevisionID  int64          `db:"revision_id" json:"revision_id"`
	AddedTags   pq.StringArray `db:"added_tags" json:"added_tags"`
	RemovedTags pq.StringArray `db:"removed_tags" json:"removed_tags"`
}

// Rating is the current rating a user has given a page. Re-rating
// overwrites the row.
type Rating struct {
	PageID int64 `db:"page_id" json:"page_id"`
	UserID int64 `db:"user_id" json:"user_id"`
	Rating int16 `db:"rating" json:"rating"`
}

// RatingHistory logs every rating event. A null rating records a
// retraction.
type RatingHistory struct {
	ID        int64     `db:"rating_id" json:"id"`
	PageID    int64     `db:"page_id" json:"page_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Rating    *int16    `db:"rating" json:"rating"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AuthorType classifies an authorship credit.
type AuthorType string

const (
	AuthorAuthor     AuthorType = "author"
	AuthorRewrite    AuthorType = "rewrite"
	AuthorTranslator AuthorType = "translator"
	AuthorMaintainer AuthorType = "maintainer"
)

// Valid reports whether a is one of the closed enumeration values.
func (a AuthorType) Valid() bool {
	switch a {
	case AuthorAuthor, AuthorRewrite, AuthorTranslator, AuthorMaintainer:
		return true
	}
	return false
}

// Author credits a user's contribution to a page, typed by the kind of
// contribution.
type Author struct {
	PageID     int64      `db:"page_id" json:"page_id"`
	UserID     int64      `db:"user_id" json:"user_id"`
	AuthorType AuthorType `db:"author_type" json:"author_type"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// File is an uploaded asset attached to exactly one page. Names and
// storage URIs are globally unique.
type File struct {
	ID          int64     `db:"file_id" json:"id"`
	PageID      int64     `db:"page_id" json:"page_id"`
	Name        string    `db:"name" json:"name"`
	URI         string    `db:"uri" json:"uri"`
	Description string    `db:"description" json:"description"`
	MimeType    string    `db:"mime_type" json:"mime_type"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Password is a user's credential record with the scrypt cost parameters
// used to derive the stored hash.
type Password struct {
	UserID int64  `db:"user_id" json:"-"`
	Hash   []byte `db:"hash" json:"-"`
	Salt   []byte `db:"salt" json:"-"`
	LogN   int16  `db:"logn" json:"-"`
	ParamR int32  `db:"param_r" json:"-"`
	ParamP int32  `db:"param_p" json:"-"`
}

// LoginAttempt is an immutable audit record of an authentication attempt.
// UserID is nil when the submitted identifier matched no account.
type LoginAttempt struct {
	ID              int64     `db:"login_attempt_id" json:"id"`
	UserID          *int64    `db:"user_id" json:"user_id,omitempty"`
	UsernameOrEmail string    `db:"username_or_email" json:"username_or_email"`
	RemoteAddress   *string   `db:"remote_address" json:"remote_address,omitempty"`
	Success         bool      `db:"success" json:"success"`
	AttemptedAt     time.Time `db:"attempted_at" json:"attempted_at"`
}

// Session is an active login session, referencing the login attempt that
// created it. Each user has at most one.
type Session struct {
	ID             int64     `db:"session_id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	Token          string    `db:"token" json:"token"`
	IPAddress      *string   `db:"ip_address" json:"ip_address,omitempty"`
	LoginAttemptID int64     `db:"login_attempt_id" json:"login_attempt_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	ExpiresAt      time.Time `db:"expires_at" json:"expires_at"`
}

// Expired reports whether the session has lapsed as of now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
