package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"wellspring/internal/data"
	"wellspring/internal/logger"
	"wellspring/internal/middleware"
	"wellspring/internal/render"
	"wellspring/internal/service"
)

// PageHandler serves the page lifecycle: content, revisions, tags,
// locks, parent links, authors and files.
type PageHandler struct {
	pages    *service.PageService
	wikis    *service.WikiService
	renderer *render.Renderer
	log      logger.Logger
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(pages *service.PageService, wikis *service.WikiService, renderer *render.Renderer, log logger.Logger) *PageHandler {
	return &PageHandler{pages: pages, wikis: wikis, renderer: renderer, log: log}
}

func (h *PageHandler) wiki(r *http.Request) (*data.Wiki, *middleware.AppError) {
	wiki, err := h.wikis.GetBySlug(r.Context(), chi.URLParam(r, "wiki"))
	if err != nil {
		return nil, fail(err, "failed to resolve wiki")
	}
	return wiki, nil
}

// commit builds the change attribution from the route and the caller.
func (h *PageHandler) commit(r *http.Request, wiki *data.Wiki, message string) (service.PageCommit, *middleware.AppError) {
	userInfo := middleware.GetUserInfo(r.Context())
	if userInfo.Anonymous() {
		return service.PageCommit{}, &middleware.AppError{Message: "login required", Code: http.StatusUnauthorized}
	}
	return service.PageCommit{
		WikiID:   wiki.ID,
		Slug:     chi.URLParam(r, "page"),
		UserID:   userInfo.UserID,
		Username: userInfo.Name,
		Message:  message,
	}, nil
}

func revisionID(r *http.Request) (int64, *middleware.AppError) {
	id, err := strconv.ParseInt(chi.URLParam(r, "rev"), 10, 64)
	if err != nil {
		return 0, &middleware.AppError{Err: err, Message: "invalid revision id", Code: http.StatusBadRequest}
	}
	return id, nil
}

type createPageRequest struct {
	Slug     string  `json:"slug"`
	Title    string  `json:"title"`
	AltTitle *string `json:"alt_title"`
	Content  string  `json:"content"`
	Message  string  `json:"message"`
}

type pageResponse struct {
	Page     *data.Page     `json:"page"`
	Revision *data.Revision `json:"revision,omitempty"`
}

// create makes a new page with its initial content.
func (h *PageHandler) create(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	var req createPageRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}
	commit, appErr := h.commit(r, wiki, req.Message)
	if appErr != nil {
		return appErr
	}
	commit.Slug = req.Slug

	page, rev, err := h.pages.Create(r.Context(), commit, req.Title, req.AltTitle, []byte(req.Content))
	if err != nil {
		return fail(err, "failed to create page")
	}
	return respondJSON(w, http.StatusCreated, pageResponse{Page: page, Revision: rev})
}

// list returns the live pages of the wiki.
func (h *PageHandler) list(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	pages, err := h.pages.List(r.Context(), wiki.ID)
	if err != nil {
		return fail(err, "failed to list pages")
	}
	return respondJSON(w, http.StatusOK, pages)
}

// get returns a page's metadata.
func (h *PageHandler) get(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	page, err := h.pages.Get(r.Context(), wiki.ID, chi.URLParam(r, "page"))
	if err != nil {
		return fail(err, "failed to get page")
	}
	return respondJSON(w, http.StatusOK, page)
}

type editPageRequest struct {
	Title    *string `json:"title"`
	AltTitle *string `json:"alt_title"`
	Content  *string `json:"content"`
	Message  string  `json:"message"`
}

// edit updates a page's content and/or titles.
func (h *PageHandler) edit(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	var req editPageRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}
	commit, appErr := h.commit(r, wiki, req.Message)
	if appErr != nil {
		return appErr
	}

	var content []byte
	if req.Content != nil {
		content = []byte(*req.Content)
	}
	rev, err := h.pages.Edit(r.Context(), commit, req.Title, req.AltTitle, content)
	if err != nil {
		return fail(err, "failed to edit page")
	}
	return respondJSON(w, http.StatusOK, pageResponse{Revision: rev})
}

type messageRequest struct {
	Message string `json:"message"`
}

// remove soft-deletes a page.
func (h *PageHandler) remove(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	commit, appErr := h.commit(r, wiki, "")
	if appErr != nil {
		return appErr
	}
	rev, err := h.pages.Remove(r.Context(), commit)
	if err != nil {
		return fail(err, "failed to remove page")
	}
	return respondJSON(w, http.StatusOK, pageResponse{Revision: rev})
}

type renameRequest struct {
	NewSlug string `json:"new_slug"`
	Message string `json:"message"`
}

// rename moves a page to a new slug.
func (h *PageHandler) rename(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	var req renameRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}
	commit, appErr := h.commit(r, wiki, req.Message)
	if appErr != nil {
		return appErr
	}
	rev, err := h.pages.Rename(r.Context(), commit, req.NewSlug)
	if err != nil {
		return fail(err, "failed to rename page")
	}
	return respondJSON(w, http.StatusOK, pageResponse{Revision: rev})
}

// restore brings back the last deleted page under the slug.
func (h *PageHandler) restore(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	var req messageRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}
	commit, appErr := h.commit(r, wiki, req.Message)
	if appErr != nil {
		return appErr
	}
	page, rev, err := h.pages.Restore(r.Context(), commit)
	if err != nil {
		return fail(err, "failed to restore page")
	}
	return respondJSON(w, http.StatusOK, pageResponse{Page: page, Revision: rev})
}

type undoRequest struct {
	RevisionID int64  `json:"revision_id"`
	Message    string `json:"message"`
}

// undo reverts the page to the state before the given revision.
func (h *PageHandler) undo(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	var req undoRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}
	commit, appErr := h.commit(r, wiki, req.Message)
	if appErr != nil {
		return appErr
	}
	rev, err := h.pages.Undo(r.Context(), commit, req.RevisionID)
	if err != nil {
		return fail(err, "failed to undo revision")
	}
	return respondJSON(w, http.StatusOK, pageResponse{Revision: rev})
}

// content returns the page's raw markdown.
func (h *PageHandler) content(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	content, err := h.pages.GetContents(r.Context(), wiki.ID, chi.URLParam(r, "page"))
	if err != nil {
		return fail(err, "failed to get page content")
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write(content)
	return nil
}

// html returns the page rendered to sanitized HTML, cached by commit.
func (h *PageHandler) html(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	slug := chi.URLParam(r, "page")

	hash, err := h.pages.LatestCommit(r.Context(), wiki.ID, slug)
	if err != nil {
		return fail(err, "failed to get page revision")
	}
	content, err := h.pages.GetContents(r.Context(), wiki.ID, slug)
	if err != nil {
		return fail(err, "failed to get page content")
	}
	html, err := h.renderer.Render(render.Key(wiki.ID, slug, hash), content)
	if err != nil {
		return fail(err, "failed to render page")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(html)
	return nil
}

type setTagsRequest struct {
	Tags    []string `json:"tags"`
	Message string   `json:"message"`
}

// setTags replaces the page's tag list.
func (h *PageHandler) setTags(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	var req setTagsRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}
	commit, appErr := h.commit(r, wiki, req.Message)
	if appErr != nil {
		return appErr
	}
	rev, err := h.pages.SetTags(r.Context(), commit, req.Tags)
	if err != nil {
		return fail(err, "failed to set tags")
	}
	return respondJSON(w, http.StatusOK, pageResponse{Revision: rev})
}

// revisions returns the page's history, newest first.
func (h *PageHandler) revisions(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	revs, err := h.pages.Revisions(r.Context(), wiki.ID, chi.URLParam(r, "page"))
	if err != nil {
		return fail(err, "failed to list revisions")
	}
	return respondJSON(w, http.StatusOK, revs)
}

// revisionContent returns the page content as of one revision.
func (h *PageHandler) revisionContent(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	id, appErr := revisionID(r)
	if appErr != nil {
		return appErr
	}
	content, err := h.pages.GetContentsAt(r.Context(), wiki.ID, chi.URLParam(r, "page"), id)
	if err != nil {
		return fail(err, "failed to get revision content")
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write(content)
	return nil
}

// revisionTags returns the tag delta of a "tags" revision.
func (h *PageHandler) revisionTags(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if _, appErr := h.wiki(r); appErr != nil {
		return appErr
	}
	id, appErr := revisionID(r)
	if appErr != nil {
		return appErr
	}
	th, err := h.pages.TagChange(r.Context(), id)
	if err != nil {
		return fail(err, "failed to get tag change")
	}
	return respondJSON(w, http.StatusOK, th)
}

// setRevisionMessage edits a revision's message.
func (h *PageHandler) setRevisionMessage(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if _, appErr := h.wiki(r); appErr != nil {
		return appErr
	}
	id, appErr := revisionID(r)
	if appErr != nil {
		return appErr
	}
	var req messageRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}
	if err := h.pages.EditRevisionMessage(r.Context(), id, req.Message); err != nil {
		return fail(err, "failed to edit revision message")
	}
	return respondJSON(w, http.StatusNoContent, nil)
}

// diff returns the unified diff between two revisions, from the "from"
// and "to" query parameters.
func (h *PageHandler) diff(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	from, err := strconv.ParseInt(r.URL.Query().Get("from"), 10, 64)
	if err != nil {
		return &middleware.AppError{Err: err, Message: "invalid from revision", Code: http.StatusBadRequest}
	}
	to, err := strconv.ParseInt(r.URL.Query().Get("to"), 10, 64)
	if err != nil {
		return &middleware.AppError{Err: err, Message: "invalid to revision", Code: http.StatusBadRequest}
	}
	diff, err := h.pages.Diff(r.Context(), wiki.ID, chi.URLParam(r, "page"), from, to)
	if err != nil {
		return fail(err, "failed to diff revisions")
	}
	w.Header().Set("Content-Type", "text/x-diff; charset=utf-8")
	_, _ = w.Write(diff)
	return nil
}

// lock takes the editing lock for the caller.
func (h *PageHandler) lock(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	userInfo := middleware.GetUserInfo(r.Context())
	lock, err := h.pages.AcquireLock(r.Context(), wiki.ID, chi.URLParam(r, "page"), userInfo.UserID)
	if err != nil {
		return fail(err, "failed to lock page")
	}
	return respondJSON(w, http.StatusOK, lock)
}

// unlock releases the editing lock.
func (h *PageHandler) unlock(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	userInfo := middleware.GetUserInfo(r.Context())
	if err := h.pages.ReleaseLock(r.Context(), wiki.ID, chi.URLParam(r, "page"), userInfo.UserID); err != nil {
		return fail(err, "failed to unlock page")
	}
	return respondJSON(w, http.StatusNoContent, nil)
}

type parentRequest struct {
	ParentSlug string `json:"parent_slug"`
}

// addParent links the page under a parent page.
func (h *PageHandler) addParent(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	var req parentRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}
	userInfo := middleware.GetUserInfo(r.Context())
	if err := h.pages.AddParent(r.Context(), wiki.ID, chi.URLParam(r, "page"), req.ParentSlug, userInfo.UserID); err != nil {
		return fail(err, "failed to add parent")
	}
	return respondJSON(w, http.StatusNoContent, nil)
}

// removeParent removes a parent link.
func (h *PageHandler) removeParent(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	if err := h.pages.RemoveParent(r.Context(), wiki.ID, chi.URLParam(r, "page"), chi.URLParam(r, "parent")); err != nil {
		return fail(err, "failed to remove parent")
	}
	return respondJSON(w, http.StatusNoContent, nil)
}

// parents lists the page's parent links.
func (h *PageHandler) parents(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	parents, err := h.pages.Parents(r.Context(), wiki.ID, chi.URLParam(r, "page"))
	if err != nil {
		return fail(err, "failed to list parents")
	}
	return respondJSON(w, http.StatusOK, parents)
}

// children lists the links in which the page is the parent.
func (h *PageHandler) children(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	children, err := h.pages.Children(r.Context(), wiki.ID, chi.URLParam(r, "page"))
	if err != nil {
		return fail(err, "failed to list children")
	}
	return respondJSON(w, http.StatusOK, children)
}

type authorRequest struct {
	UserID     int64           `json:"user_id"`
	AuthorType data.AuthorType `json:"author_type"`
}

// addAuthor credits a user on the page.
func (h *PageHandler) addAuthor(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	var req authorRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}
	if err := h.pages.AddAuthor(r.Context(), wiki.ID, chi.URLParam(r, "page"), req.UserID, req.AuthorType); err != nil {
		return fail(err, "failed to add author")
	}
	return respondJSON(w, http.StatusNoContent, nil)
}

// removeAuthor removes a user's credit, typed by the "type" query
// parameter.
func (h *PageHandler) removeAuthor(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	user, appErr := memberID(r)
	if appErr != nil {
		return appErr
	}
	authorType := data.AuthorType(r.URL.Query().Get("type"))
	if !authorType.Valid() {
		return &middleware.AppError{Message: "invalid author type", Code: http.StatusBadRequest}
	}
	if err := h.pages.RemoveAuthor(r.Context(), wiki.ID, chi.URLParam(r, "page"), user, authorType); err != nil {
		return fail(err, "failed to remove author")
	}
	return respondJSON(w, http.StatusNoContent, nil)
}

// authors lists the page's authorship credits.
func (h *PageHandler) authors(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	authors, err := h.pages.Authors(r.Context(), wiki.ID, chi.URLParam(r, "page"))
	if err != nil {
		return fail(err, "failed to list authors")
	}
	return respondJSON(w, http.StatusOK, authors)
}

type attachFileRequest struct {
	Name        string `json:"name"`
	URI         string `json:"uri"`
	Description string `json:"description"`
	MimeType    string `json:"mime_type"`
}

// attachFile records an uploaded file against the page.
func (h *PageHandler) attachFile(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	var req attachFileRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}
	file := &data.File{
		Name:        req.Name,
		URI:         req.URI,
		Description: req.Description,
		MimeType:    req.MimeType,
	}
	if err := h.pages.AttachFile(r.Context(), wiki.ID, chi.URLParam(r, "page"), file); err != nil {
		return fail(err, "failed to attach file")
	}
	return respondJSON(w, http.StatusCreated, file)
}

// files lists the files attached to the page.
func (h *PageHandler) files(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	files, err := h.pages.Files(r.Context(), wiki.ID, chi.URLParam(r, "page"))
	if err != nil {
		return fail(err, "failed to list files")
	}
	return respondJSON(w, http.StatusOK, files)
}

// removeFile deletes a file attachment.
func (h *PageHandler) removeFile(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if _, appErr := h.wiki(r); appErr != nil {
		return appErr
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "file"), 10, 64)
	if err != nil {
		return &middleware.AppError{Err: err, Message: "invalid file id", Code: http.StatusBadRequest}
	}
	if err := h.pages.RemoveFile(r.Context(), id); err != nil {
		return fail(err, "failed to remove file")
	}
	return respondJSON(w, http.StatusNoContent, nil)
}

// authoredBy lists the pages a user is credited on.
func (h *PageHandler) authoredBy(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := userID(r)
	if appErr != nil {
		return appErr
	}
	authors, err := h.pages.AuthoredBy(r.Context(), id)
	if err != nil {
		return fail(err, "failed to list authored pages")
	}
	return respondJSON(w, http.StatusOK, authors)
}

// fileByName resolves a file by its globally unique name.
func (h *PageHandler) fileByName(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	file, err := h.pages.FileByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		return fail(err, "failed to get file")
	}
	return respondJSON(w, http.StatusOK, file)
}
