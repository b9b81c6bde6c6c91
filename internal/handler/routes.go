package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"wellspring/internal/logger"
	"wellspring/internal/middleware"
)

// Handlers bundles the API surface for the router.
type Handlers struct {
	Auth   *AuthHandler
	User   *UserHandler
	Wiki   *WikiHandler
	Page   *PageHandler
	Role   *RoleHandler
	Rating *RatingHandler
}

// NewRouter creates and configures a new chi router. Every request is
// authenticated (falling back to the anonymous subject), checked
// against the route policies, then dispatched to an error-wrapped
// handler.
func NewRouter(h Handlers, authn, authz func(http.Handler) http.Handler, log logger.Logger) *chi.Mux {
	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	wrap := middleware.Error(log)

	r.Route("/api", func(r chi.Router) {
		r.Use(authn)
		r.Use(authz)

		r.Route("/auth", func(r chi.Router) {
			r.Method(http.MethodPost, "/login", wrap(h.Auth.login))
			r.Method(http.MethodPost, "/logout", wrap(h.Auth.logout))
		})

		r.Route("/users", func(r chi.Router) {
			r.Method(http.MethodPost, "/", wrap(h.User.create))
			r.Route("/{id}", func(r chi.Router) {
				r.Method(http.MethodGet, "/", wrap(h.User.get))
				r.Method(http.MethodPut, "/", wrap(h.User.update))
				r.Method(http.MethodDelete, "/", wrap(h.User.delete))
				r.Method(http.MethodPost, "/verify", wrap(h.User.verify))
				r.Method(http.MethodPut, "/password", wrap(h.User.setPassword))
				r.Method(http.MethodGet, "/logins", wrap(h.User.logins))
				r.Method(http.MethodGet, "/pages", wrap(h.Page.authoredBy))
			})
		})

		r.Method(http.MethodGet, "/files/{name}", wrap(h.Page.fileByName))

		r.Route("/wikis", func(r chi.Router) {
			r.Method(http.MethodGet, "/", wrap(h.Wiki.list))
			r.Method(http.MethodPost, "/", wrap(h.Wiki.create))
			r.Route("/{wiki}", func(r chi.Router) {
				r.Method(http.MethodGet, "/", wrap(h.Wiki.get))
				r.Method(http.MethodPut, "/", wrap(h.Wiki.update))
				r.Method(http.MethodGet, "/settings", wrap(h.Wiki.settings))
				r.Method(http.MethodPut, "/settings", wrap(h.Wiki.updateSettings))

				r.Route("/members", func(r chi.Router) {
					r.Method(http.MethodGet, "/", wrap(h.Wiki.members))
					r.Method(http.MethodPost, "/", wrap(h.Wiki.join))
					r.Route("/{user}", func(r chi.Router) {
						r.Method(http.MethodPost, "/ban", wrap(h.Wiki.ban))
						r.Method(http.MethodDelete, "/ban", wrap(h.Wiki.unban))
						r.Method(http.MethodGet, "/roles", wrap(h.Role.userRoles))
					})
				})

				r.Route("/roles", func(r chi.Router) {
					r.Method(http.MethodGet, "/", wrap(h.Role.list))
					r.Method(http.MethodPost, "/", wrap(h.Role.create))
					r.Route("/{role}", func(r chi.Router) {
						r.Method(http.MethodGet, "/", wrap(h.Role.get))
						r.Method(http.MethodPut, "/permissions", wrap(h.Role.setPermissions))
						r.Method(http.MethodGet, "/members", wrap(h.Role.members))
						r.Method(http.MethodPost, "/members/{user}", wrap(h.Role.assign))
						r.Method(http.MethodDelete, "/members/{user}", wrap(h.Role.unassign))
					})
				})

				r.Route("/pages", func(r chi.Router) {
					r.Method(http.MethodGet, "/", wrap(h.Page.list))
					r.Method(http.MethodPost, "/", wrap(h.Page.create))
					r.Route("/{page}", func(r chi.Router) {
						r.Method(http.MethodGet, "/", wrap(h.Page.get))
						r.Method(http.MethodPut, "/", wrap(h.Page.edit))
						r.Method(http.MethodDelete, "/", wrap(h.Page.remove))
						r.Method(http.MethodPost, "/rename", wrap(h.Page.rename))
						r.Method(http.MethodPost, "/restore", wrap(h.Page.restore))
						r.Method(http.MethodPost, "/undo", wrap(h.Page.undo))
						r.Method(http.MethodGet, "/content", wrap(h.Page.content))
						r.Method(http.MethodGet, "/html", wrap(h.Page.html))
						r.Method(http.MethodPut, "/tags", wrap(h.Page.setTags))
						r.Method(http.MethodGet, "/diff", wrap(h.Page.diff))

						r.Route("/revisions", func(r chi.Router) {
							r.Method(http.MethodGet, "/", wrap(h.Page.revisions))
							r.Method(http.MethodGet, "/{rev}/content", wrap(h.Page.revisionContent))
							r.Method(http.MethodGet, "/{rev}/tags", wrap(h.Page.revisionTags))
							r.Method(http.MethodPut, "/{rev}/message", wrap(h.Page.setRevisionMessage))
						})

						r.Method(http.MethodPost, "/lock", wrap(h.Page.lock))
						r.Method(http.MethodDelete, "/lock", wrap(h.Page.unlock))

						r.Method(http.MethodGet, "/parents", wrap(h.Page.parents))
						r.Method(http.MethodPost, "/parents", wrap(h.Page.addParent))
						r.Method(http.MethodDelete, "/parents/{parent}", wrap(h.Page.removeParent))
						r.Method(http.MethodGet, "/children", wrap(h.Page.children))

						r.Method(http.MethodGet, "/authors", wrap(h.Page.authors))
						r.Method(http.MethodPost, "/authors", wrap(h.Page.addAuthor))
						r.Method(http.MethodDelete, "/authors/{user}", wrap(h.Page.removeAuthor))

						r.Method(http.MethodGet, "/files", wrap(h.Page.files))
						r.Method(http.MethodPost, "/files", wrap(h.Page.attachFile))
						r.Method(http.MethodDelete, "/files/{file}", wrap(h.Page.removeFile))

						r.Method(http.MethodPut, "/rating", wrap(h.Rating.rate))
						r.Method(http.MethodDelete, "/rating", wrap(h.Rating.retract))
						r.Method(http.MethodGet, "/rating", wrap(h.Rating.get))
						r.Method(http.MethodGet, "/score", wrap(h.Rating.score))
						r.Method(http.MethodGet, "/ratings", wrap(h.Rating.history))
					})
				})
			})
		})
	})

	return r
}
