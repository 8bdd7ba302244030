package portal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jun/formdesk/internal/model"
	"github.com/jun/formdesk/internal/store"
)

func newTestRouter(t *testing.T, provider *Provider, docs store.Store) (*Router, *Editor) {
	t.Helper()
	e, _ := newTestEditor(provider, docs)
	r := NewRouter(NewCatalog(), e, provider, docs, 10, zerolog.Nop())
	return r, e
}

func TestRouterStartsOnList(t *testing.T) {
	r, _ := newTestRouter(t, anonymousProvider(t), nil)
	if got := r.Current(); got != ViewList {
		t.Errorf("expected list view, got %v", got)
	}
}

func TestRouterOpenEditorLoadsTemplate(t *testing.T) {
	r, e := newTestRouter(t, anonymousProvider(t), nil)

	if err := r.OpenEditor("appointment-letter"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.Current(); got != ViewEditor {
		t.Errorf("expected editor view, got %v", got)
	}
	if doc := e.Document(); doc == nil || doc.TemplateID != "appointment-letter" {
		t.Errorf("unexpected document %+v", doc)
	}
}

func TestRouterOpenEditorUnknownTemplate(t *testing.T) {
	r, _ := newTestRouter(t, anonymousProvider(t), nil)

	if err := r.OpenEditor("missing"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound, got %v", err)
	}
	if got := r.Current(); got != ViewList {
		t.Errorf("failed open must stay on the list, got %v", got)
	}
}

func TestRouterEditorToHistoryForbidden(t *testing.T) {
	r, _ := newTestRouter(t, anonymousProvider(t), nil)
	if err := r.OpenEditor("appointment-letter"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := r.OpenHistory(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if got := r.Current(); got != ViewEditor {
		t.Errorf("expected to remain in editor, got %v", got)
	}
}

func TestRouterBackClosesEditor(t *testing.T) {
	r, e := newTestRouter(t, anonymousProvider(t), nil)
	if err := r.OpenEditor("appointment-letter"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r.Back()
	if got := r.Current(); got != ViewList {
		t.Errorf("expected list view, got %v", got)
	}
	if e.Document() != nil {
		t.Error("back must discard the working document")
	}
}

func TestRouterHistorySkipsStoreForAnonymous(t *testing.T) {
	docs := &fakeStore{}
	r, _ := newTestRouter(t, anonymousProvider(t), docs)

	if err := r.OpenHistory(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docs.queryCalls != 0 {
		t.Errorf("anonymous history must not query the store, got %d calls", docs.queryCalls)
	}
	if len(r.Records()) != 0 {
		t.Error("expected no records")
	}
	if r.HistoryNotice() == "" {
		t.Error("expected a notice for anonymous users")
	}
}

func TestRouterHistoryLoadsNewestFirst(t *testing.T) {
	docs := &fakeStore{records: []model.SavedDocumentRecord{
		{ID: "b", CreatedAt: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)},
		{ID: "a", CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
	}}
	r, _ := newTestRouter(t, authenticatedProvider(t), docs)

	if err := r.OpenHistory(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := r.Records()
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Errorf("unexpected records %+v", got)
	}
	if r.HistoryNotice() != "" {
		t.Errorf("unexpected notice %q", r.HistoryNotice())
	}
}

func TestRouterHistoryFetchErrorShowsNotice(t *testing.T) {
	docs := &fakeStore{queryErr: errors.New("dynamo unavailable")}
	r, _ := newTestRouter(t, authenticatedProvider(t), docs)

	if err := r.OpenHistory(context.Background()); err != nil {
		t.Fatalf("fetch failure must not block the view: %v", err)
	}
	if got := r.Current(); got != ViewHistory {
		t.Errorf("expected history view, got %v", got)
	}
	if len(r.Records()) != 0 {
		t.Error("expected no records on fetch failure")
	}
	if r.HistoryNotice() == "" {
		t.Error("expected a failure notice")
	}
}

func TestRouterBackClearsHistory(t *testing.T) {
	docs := &fakeStore{records: []model.SavedDocumentRecord{{ID: "a"}}}
	r, _ := newTestRouter(t, authenticatedProvider(t), docs)
	if err := r.OpenHistory(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r.Back()
	if len(r.Records()) != 0 {
		t.Error("back must clear loaded records")
	}
}
