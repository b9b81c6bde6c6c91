//go:build unit

package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"wellspring/internal/data"
)

// pageFixture wires a page service against in-memory fakes with one wiki
// already registered.
type pageFixture struct {
	service   *PageService
	pages     *fakePageRepo
	revisions *fakeRevisionRepo
	store     *fakeStore
	wiki      *data.Wiki
}

func newPageFixture(t *testing.T) *pageFixture {
	t.Helper()

	f := &pageFixture{
		pages:     newFakePageRepo(),
		revisions: newFakeRevisionRepo(),
		store:     newFakeStore(),
	}
	wikis := newFakeWikiRepo()
	f.service = NewPageService(f.pages, f.revisions, &fakeAuthorRepo{}, newFakeFileRepo(),
		wikis, func(*data.Wiki) PageStore { return f.store }, nopLogger{})

	f.wiki = &data.Wiki{Name: "Test", Slug: "test", Domain: "test.example.com"}
	if err := wikis.Create(context.Background(), f.wiki, &data.WikiSettings{}); err != nil {
		t.Fatalf("failed to create wiki: %v", err)
	}
	if err := f.service.AddStore(context.Background(), f.wiki); err != nil {
		t.Fatalf("failed to add store: %v", err)
	}
	return f
}

func (f *pageFixture) commit(slug string, userID int64) PageCommit {
	return PageCommit{
		WikiID:   f.wiki.ID,
		Slug:     slug,
		UserID:   userID,
		Username: "squirrelbird",
	}
}

func TestPageServiceCreate(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()
	content := []byte("**Item #:** SCP-1000\n")

	page, rev, err := f.service.Create(ctx, f.commit("scp-1000", 5), "SCP-1000", nil, content)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if rev.ChangeType != data.ChangeCreate {
		t.Errorf("expected create revision, got %q", rev.ChangeType)
	}
	if rev.PageID != page.ID {
		t.Errorf("revision references page %d, want %d", rev.PageID, page.ID)
	}
	if rev.Message == "" {
		t.Error("expected a generated commit message")
	}

	got, err := f.service.GetContents(ctx, f.wiki.ID, "scp-1000")
	if err != nil {
		t.Fatalf("get contents failed: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("contents %q, want %q", got, content)
	}

	// A second live page under the same slug is rejected before any commit.
	commits := f.store.commits
	if _, _, err := f.service.Create(ctx, f.commit("scp-1000", 5), "Dup", nil, content); !errors.Is(err, ErrPageExists) {
		t.Errorf("expected ErrPageExists, got %v", err)
	}
	if f.store.commits != commits {
		t.Error("duplicate create should not have committed to the store")
	}

	if _, _, err := f.service.Create(ctx, f.commit("Bad Slug", 5), "Bad", nil, content); !errors.Is(err, ErrInvalidSlug) {
		t.Errorf("expected ErrInvalidSlug, got %v", err)
	}
}

func TestPageServiceCreateRollsBackOnStoreFailure(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()
	content := []byte("**Item #:** SCP-1000\n")

	f.store.commitErr = errors.New("disk full")
	if _, _, err := f.service.Create(ctx, f.commit("scp-1000", 5), "SCP-1000", nil, content); err == nil {
		t.Fatal("expected create to fail when the store commit fails")
	}

	// The failed create must not leave a live row claiming the slug.
	if _, err := f.service.Get(ctx, f.wiki.ID, "scp-1000"); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound after rollback, got %v", err)
	}

	// A retry under the same slug goes through cleanly.
	page, rev, err := f.service.Create(ctx, f.commit("scp-1000", 5), "SCP-1000", nil, content)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if rev.PageID != page.ID {
		t.Errorf("revision references page %d, want %d", rev.PageID, page.ID)
	}
	got, err := f.service.GetContents(ctx, f.wiki.ID, "scp-1000")
	if err != nil {
		t.Fatalf("get contents failed: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("contents %q, want %q", got, content)
	}
}

func TestPageServiceEditRespectsLock(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()

	if _, _, err := f.service.Create(ctx, f.commit("scp-1000", 5), "SCP-1000", nil, []byte("v1")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := f.service.AcquireLock(ctx, f.wiki.ID, "scp-1000", 5); err != nil {
		t.Fatalf("lock failed: %v", err)
	}

	// Another user can neither edit nor take the lock.
	if _, err := f.service.Edit(ctx, f.commit("scp-1000", 6), nil, nil, []byte("v2")); !errors.Is(err, ErrPageLocked) {
		t.Errorf("expected ErrPageLocked on edit, got %v", err)
	}
	if _, err := f.service.AcquireLock(ctx, f.wiki.ID, "scp-1000", 6); !errors.Is(err, ErrPageLocked) {
		t.Errorf("expected ErrPageLocked on acquire, got %v", err)
	}
	if err := f.service.ReleaseLock(ctx, f.wiki.ID, "scp-1000", 6); !errors.Is(err, ErrPageLocked) {
		t.Errorf("expected ErrPageLocked on release, got %v", err)
	}

	// The holder edits freely; release opens the page up again.
	if _, err := f.service.Edit(ctx, f.commit("scp-1000", 5), nil, nil, []byte("v2")); err != nil {
		t.Errorf("holder edit failed: %v", err)
	}
	if err := f.service.ReleaseLock(ctx, f.wiki.ID, "scp-1000", 5); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if _, err := f.service.Edit(ctx, f.commit("scp-1000", 6), nil, nil, []byte("v3")); err != nil {
		t.Errorf("edit after release failed: %v", err)
	}

	// An expired lock no longer blocks anyone.
	f.pages.locks[1] = &data.PageLock{PageID: 1, UserID: 5, LockedUntil: time.Now().Add(-time.Minute)}
	if _, err := f.service.Edit(ctx, f.commit("scp-1000", 6), nil, nil, []byte("v4")); err != nil {
		t.Errorf("edit with expired lock failed: %v", err)
	}
}

func TestPageServiceEditTitles(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()

	if _, _, err := f.service.Create(ctx, f.commit("scp-1000", 5), "SCP-1000", nil, []byte("v1")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	title := "SCP-1000 (revised)"
	alt := "The Bigfoot One"
	rev, err := f.service.Edit(ctx, f.commit("scp-1000", 5), &title, &alt, nil)
	if err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if rev.ChangeType != data.ChangeModify {
		t.Errorf("expected modify revision, got %q", rev.ChangeType)
	}

	page, err := f.service.Get(ctx, f.wiki.ID, "scp-1000")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if page.Title != title {
		t.Errorf("title %q, want %q", page.Title, title)
	}
	if page.AltTitle == nil || *page.AltTitle != alt {
		t.Errorf("alt title %v, want %q", page.AltTitle, alt)
	}

	// Content untouched by the metadata-only edit.
	content, err := f.service.GetContents(ctx, f.wiki.ID, "scp-1000")
	if err != nil {
		t.Fatalf("get contents failed: %v", err)
	}
	if string(content) != "v1" {
		t.Errorf("content %q changed by metadata edit", content)
	}
}

func TestPageServiceRename(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()

	if _, _, err := f.service.Create(ctx, f.commit("old-name", 5), "Old", nil, []byte("v1")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, _, err := f.service.Create(ctx, f.commit("taken", 5), "Taken", nil, []byte("x")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := f.service.Rename(ctx, f.commit("old-name", 5), "taken"); !errors.Is(err, ErrPageExists) {
		t.Errorf("expected ErrPageExists for taken slug, got %v", err)
	}

	rev, err := f.service.Rename(ctx, f.commit("old-name", 5), "new-name")
	if err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if rev.ChangeType != data.ChangeRename {
		t.Errorf("expected rename revision, got %q", rev.ChangeType)
	}
	if _, err := f.service.Get(ctx, f.wiki.ID, "old-name"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("old slug should be gone, got %v", err)
	}
	content, err := f.service.GetContents(ctx, f.wiki.ID, "new-name")
	if err != nil {
		t.Fatalf("get contents failed: %v", err)
	}
	if string(content) != "v1" {
		t.Errorf("content %q, want v1", content)
	}
}

func TestPageServiceRemoveAndRestore(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()
	content := []byte("**Item #:** SCP-1000\n")

	page, _, err := f.service.Create(ctx, f.commit("scp-1000", 5), "SCP-1000", nil, content)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	rev, err := f.service.Remove(ctx, f.commit("scp-1000", 5))
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if rev.ChangeType != data.ChangeDelete {
		t.Errorf("expected delete revision, got %q", rev.ChangeType)
	}
	if _, err := f.service.Get(ctx, f.wiki.ID, "scp-1000"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("removed page should be gone, got %v", err)
	}

	restored, rev, err := f.service.Restore(ctx, f.commit("scp-1000", 6))
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if restored.ID != page.ID {
		t.Errorf("restore resurrected page %d, want %d", restored.ID, page.ID)
	}
	if rev.ChangeType != data.ChangeRestore {
		t.Errorf("expected restore revision, got %q", rev.ChangeType)
	}
	got, err := f.service.GetContents(ctx, f.wiki.ID, "scp-1000")
	if err != nil {
		t.Fatalf("get contents failed: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("restored content %q, want %q", got, content)
	}

	// Full history: create, delete, restore.
	revs, err := f.service.Revisions(ctx, f.wiki.ID, "scp-1000")
	if err != nil {
		t.Fatalf("revisions failed: %v", err)
	}
	if len(revs) != 3 {
		t.Fatalf("expected 3 revisions, got %d", len(revs))
	}
	if revs[0].ChangeType != data.ChangeRestore || revs[2].ChangeType != data.ChangeCreate {
		t.Errorf("unexpected revision order: %q, %q, %q",
			revs[0].ChangeType, revs[1].ChangeType, revs[2].ChangeType)
	}
}

func TestPageServiceSetTags(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()

	if _, _, err := f.service.Create(ctx, f.commit("scp-1000", 5), "SCP-1000", nil, []byte("v1")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	rev, err := f.service.SetTags(ctx, f.commit("scp-1000", 5), []string{"SCP", "keter", "scp"})
	if err != nil {
		t.Fatalf("set tags failed: %v", err)
	}
	if rev.ChangeType != data.ChangeTags {
		t.Errorf("expected tags revision, got %q", rev.ChangeType)
	}

	page, err := f.service.Get(ctx, f.wiki.ID, "scp-1000")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(page.Tags) != 2 || page.Tags[0] != "keter" || page.Tags[1] != "scp" {
		t.Errorf("tags %v, want [keter scp]", page.Tags)
	}

	th, err := f.service.TagChange(ctx, rev.ID)
	if err != nil {
		t.Fatalf("tag change failed: %v", err)
	}
	if len(th.AddedTags) != 2 || len(th.RemovedTags) != 0 {
		t.Errorf("tag delta added=%v removed=%v", th.AddedTags, th.RemovedTags)
	}

	// Replacing one tag records the delta only.
	rev, err = f.service.SetTags(ctx, f.commit("scp-1000", 5), []string{"scp", "euclid"})
	if err != nil {
		t.Fatalf("set tags failed: %v", err)
	}
	th, err = f.service.TagChange(ctx, rev.ID)
	if err != nil {
		t.Fatalf("tag change failed: %v", err)
	}
	if len(th.AddedTags) != 1 || th.AddedTags[0] != "euclid" {
		t.Errorf("added %v, want [euclid]", th.AddedTags)
	}
	if len(th.RemovedTags) != 1 || th.RemovedTags[0] != "keter" {
		t.Errorf("removed %v, want [keter]", th.RemovedTags)
	}

	// No change, no revision.
	rev, err = f.service.SetTags(ctx, f.commit("scp-1000", 5), []string{"euclid", "scp"})
	if err != nil {
		t.Fatalf("set tags failed: %v", err)
	}
	if rev != nil {
		t.Error("identical tag list should not create a revision")
	}
}

func TestPageServiceUndo(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()

	if _, _, err := f.service.Create(ctx, f.commit("scp-1000", 5), "SCP-1000", nil, []byte("v1")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	badRev, err := f.service.Edit(ctx, f.commit("scp-1000", 6), nil, nil, []byte("vandalized"))
	if err != nil {
		t.Fatalf("edit failed: %v", err)
	}

	rev, err := f.service.Undo(ctx, f.commit("scp-1000", 5), badRev.ID)
	if err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if rev.ChangeType != data.ChangeUndo {
		t.Errorf("expected undo revision, got %q", rev.ChangeType)
	}
	content, err := f.service.GetContents(ctx, f.wiki.ID, "scp-1000")
	if err != nil {
		t.Fatalf("get contents failed: %v", err)
	}
	if string(content) != "v1" {
		t.Errorf("content %q, want v1", content)
	}

	// The first revision has nothing before it to revert to.
	revs, err := f.service.Revisions(ctx, f.wiki.ID, "scp-1000")
	if err != nil {
		t.Fatalf("revisions failed: %v", err)
	}
	first := revs[len(revs)-1]
	if _, err := f.service.Undo(ctx, f.commit("scp-1000", 5), first.ID); err == nil {
		t.Error("undoing the first revision should fail")
	}
}

func TestPageServiceParents(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()

	for _, slug := range []string{"hub", "scp-1000"} {
		if _, _, err := f.service.Create(ctx, f.commit(slug, 5), slug, nil, []byte("x")); err != nil {
			t.Fatalf("create %s failed: %v", slug, err)
		}
	}

	if err := f.service.AddParent(ctx, f.wiki.ID, "scp-1000", "hub", 5); err != nil {
		t.Fatalf("add parent failed: %v", err)
	}
	parents, err := f.service.Parents(ctx, f.wiki.ID, "scp-1000")
	if err != nil {
		t.Fatalf("parents failed: %v", err)
	}
	if len(parents) != 1 || parents[0].ParentedBy != 5 {
		t.Errorf("unexpected parents %v", parents)
	}
	children, err := f.service.Children(ctx, f.wiki.ID, "hub")
	if err != nil {
		t.Fatalf("children failed: %v", err)
	}
	if len(children) != 1 {
		t.Errorf("expected 1 child, got %d", len(children))
	}

	if err := f.service.RemoveParent(ctx, f.wiki.ID, "scp-1000", "hub"); err != nil {
		t.Fatalf("remove parent failed: %v", err)
	}
	parents, err = f.service.Parents(ctx, f.wiki.ID, "scp-1000")
	if err != nil {
		t.Fatalf("parents failed: %v", err)
	}
	if len(parents) != 0 {
		t.Errorf("expected no parents, got %v", parents)
	}
}
