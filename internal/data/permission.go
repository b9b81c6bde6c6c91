package data

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Permission is a single capability a role can grant within a wiki.
type Permission uint

// The capability bits, in declaration order. The earlier schema stored
// these as a fixed-width bitstring; the JSON encoding that replaced it
// serializes the names of the set bits instead, so new capabilities can be
// appended without rewriting stored rows.
const (
	PermPageCreate Permission = iota
	PermPageEdit
	PermPageRename
	PermPageDelete
	PermPageRestore
	PermPageTags
	PermPageLock
	PermPageParent
	PermRatingSet
	PermRatingRetract
	PermFileUpload
	PermFileDelete
	PermAuthorManage
	PermMemberInvite
	PermMemberBan
	PermRoleManage
	PermWikiSettings
	PermWikiRename
	PermWikiDomain
	PermUserModerate

	permCount // must stay last
)

var permissionNames = [permCount]string{
	"page:create",
	"page:edit",
	"page:rename",
	"page:delete",
	"page:restore",
	"page:tags",
	"page:lock",
	"page:parent",
	"rating:set",
	"rating:retract",
	"file:upload",
	"file:delete",
	"author:manage",
	"member:invite",
	"member:ban",
	"role:manage",
	"wiki:settings",
	"wiki:rename",
	"wiki:domain",
	"user:moderate",
}

// String returns the capability name, e.g. "page:edit".
func (p Permission) String() string {
	if p >= permCount {
		return fmt.Sprintf("permission(%d)", uint(p))
	}
	return permissionNames[p]
}

// ParsePermission resolves a capability name back to its bit.
func ParsePermission(name string) (Permission, error) {
	for i, n := range permissionNames {
		if n == name {
			return Permission(i), nil
		}
	}
	return 0, fmt.Errorf("unknown permission %q", name)
}

// PermissionSet is a bit-per-capability encoding of a role's allowed
// actions. The zero value grants nothing.
type PermissionSet uint32

// NewPermissionSet builds a set from individual capabilities.
func NewPermissionSet(perms ...Permission) PermissionSet {
	var s PermissionSet
	for _, p := range perms {
		s = s.With(p)
	}
	return s
}

// Has reports whether the capability is granted.
func (s PermissionSet) Has(p Permission) bool {
	return s&(1<<p) != 0
}

// With returns a copy of the set with the capability granted.
func (s PermissionSet) With(p Permission) PermissionSet {
	return s | (1 << p)
}

// Without returns a copy of the set with the capability revoked.
func (s PermissionSet) Without(p Permission) PermissionSet {
	return s &^ (1 << p)
}

// Names lists the granted capabilities in declaration order.
func (s PermissionSet) Names() []string {
	names := make([]string, 0)
	for p := Permission(0); p < permCount; p++ {
		if s.Has(p) {
			names = append(names, p.String())
		}
	}
	return names
}

// MarshalJSON encodes the set as an array of capability names.
func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

// UnmarshalJSON decodes an array of capability names. Unknown names are an
// error so a stale binary cannot silently drop capabilities.
func (s *PermissionSet) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	var set PermissionSet
	for _, name := range names {
		p, err := ParsePermission(name)
		if err != nil {
			return err
		}
		set = set.With(p)
	}
	*s = set
	return nil
}

// Value implements driver.Valuer, storing the set as JSONB.
func (s PermissionSet) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Scan implements sql.Scanner for JSONB columns.
func (s *PermissionSet) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return s.UnmarshalJSON(v)
	case string:
		return s.UnmarshalJSON([]byte(v))
	case nil:
		*s = 0
		return nil
	}
	return fmt.Errorf("cannot scan %T into PermissionSet", src)
}
