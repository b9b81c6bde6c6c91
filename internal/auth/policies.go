package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"

	"wellspring/internal/logger"
)

// Subjects used by the route policies. Authenticated requests run as
// "user"; the administrator account runs as "admin". Both inherit the
// anonymous read-only surface.
const (
	SubjectAnonymous = "anonymous"
	SubjectUser      = "user"
	SubjectAdmin     = "admin"
)

// SeedDefaultPolicies installs the baseline route policies. Each policy
// is checked before insertion so the seeding is idempotent across
// restarts.
func SeedDefaultPolicies(e casbin.IEnforcer, log logger.Logger) {
	log.Info("seeding default authorization policies")

	policies := [][]string{
		// Anyone can read wikis, pages and their histories, and log in.
		{SubjectAnonymous, "/api/auth/login", "POST"},
		{SubjectAnonymous, "/api/users", "POST"},
		{SubjectAnonymous, "/api/users/:id", "GET"},
		{SubjectAnonymous, "/api/users/:id/pages", "GET"},
		{SubjectAnonymous, "/api/wikis", "GET"},
		{SubjectAnonymous, "/api/wikis/:wiki", "GET"},
		{SubjectAnonymous, "/api/wikis/:wiki/pages", "GET"},
		{SubjectAnonymous, "/api/wikis/:wiki/pages/*", "GET"},
		{SubjectAnonymous, "/api/wikis/:wiki/roles", "GET"},
		{SubjectAnonymous, "/api/wikis/:wiki/roles/*", "GET"},
		{SubjectAnonymous, "/api/files/:name", "GET"},

		// Logged-in users additionally write content and manage their own
		// account surface.
		{SubjectUser, "/api/auth/logout", "POST"},
		{SubjectUser, "/api/users/:id", "PUT"},
		{SubjectUser, "/api/users/:id/password", "PUT"},
		{SubjectUser, "/api/users/:id/logins", "GET"},
		{SubjectUser, "/api/wikis/:wiki/members", "POST"},
		{SubjectUser, "/api/wikis/:wiki/pages", "POST"},
		{SubjectUser, "/api/wikis/:wiki/pages/*", "POST"},
		{SubjectUser, "/api/wikis/:wiki/pages/*", "PUT"},
		{SubjectUser, "/api/wikis/:wiki/pages/*", "DELETE"},

		// Administrators manage wikis, roles, members and users.
		{SubjectAdmin, "/api/wikis", "POST"},
		{SubjectAdmin, "/api/wikis/:wiki", "PUT"},
		{SubjectAdmin, "/api/wikis/:wiki/settings", "GET"},
		{SubjectAdmin, "/api/wikis/:wiki/settings", "PUT"},
		{SubjectAdmin, "/api/wikis/:wiki/members", "GET"},
		{SubjectAdmin, "/api/wikis/:wiki/members/*", "GET"},
		{SubjectAdmin, "/api/wikis/:wiki/members/*", "POST"},
		{SubjectAdmin, "/api/wikis/:wiki/members/*", "DELETE"},
		{SubjectAdmin, "/api/wikis/:wiki/roles", "POST"},
		{SubjectAdmin, "/api/wikis/:wiki/roles/*", "PUT"},
		{SubjectAdmin, "/api/wikis/:wiki/roles/*", "POST"},
		{SubjectAdmin, "/api/wikis/:wiki/roles/*", "DELETE"},
		{SubjectAdmin, "/api/users/:id", "DELETE"},
		{SubjectAdmin, "/api/users/:id/verify", "POST"},
	}
	for _, p := range policies {
		if has, _ := e.HasPolicy(p); !has {
			if _, err := e.AddPolicy(p); err != nil {
				log.Error(err, fmt.Sprintf("failed to add policy %v", p))
			}
		}
	}

	// user inherits anonymous, admin inherits user.
	for _, g := range [][2]string{
		{SubjectUser, SubjectAnonymous},
		{SubjectAdmin, SubjectUser},
	} {
		if has, _ := e.HasRoleForUser(g[0], g[1]); !has {
			if _, err := e.AddRoleForUser(g[0], g[1]); err != nil {
				log.Error(err, fmt.Sprintf("failed to add role inheritance %s -> %s", g[0], g[1]))
			}
		}
	}
	log.Info("policy seeding complete")
}
