package portal

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jun/formdesk/internal/model"
	"github.com/jun/formdesk/internal/store"
)

// View enumerates the three screens of the portal.
type View int

const (
	ViewList View = iota
	ViewEditor
	ViewHistory
)

func (v View) String() string {
	switch v {
	case ViewEditor:
		return "editor"
	case ViewHistory:
		return "history"
	default:
		return "list"
	}
}

// Router owns the active view and the transitions between views. It starts
// on the template list.
type Router struct {
	catalog  *Catalog
	editor   *Editor
	provider *Provider
	docs     store.Store
	limit    int
	log      zerolog.Logger

	current View
	records []model.SavedDocumentRecord
	notice  string
}

// NewRouter wires the router to its collaborators. docs may be nil when
// persistence is disabled; the history view then renders empty.
func NewRouter(catalog *Catalog, editor *Editor, provider *Provider, docs store.Store, historyLimit int, log zerolog.Logger) *Router {
	return &Router{
		catalog:  catalog,
		editor:   editor,
		provider: provider,
		docs:     docs,
		limit:    historyLimit,
		log:      log,
		current:  ViewList,
	}
}

// Current returns the active view.
func (r *Router) Current() View {
	return r.current
}

// OpenEditor moves from the list view into the editor, loading the chosen
// template into a fresh working document. It is only legal from the list.
func (r *Router) OpenEditor(templateID string) error {
	if r.current != ViewList {
		return fmt.Errorf("open editor from %s: %w", r.current, ErrInvalidTransition)
	}
	tpl, err := r.catalog.Get(templateID)
	if err != nil {
		return err
	}
	r.editor.Open(tpl)
	r.current = ViewEditor
	return nil
}

// OpenHistory moves from the list view into the saved-document history.
// The editor never transitions to history directly.
func (r *Router) OpenHistory(ctx context.Context) error {
	if r.current != ViewList {
		return fmt.Errorf("open history from %s: %w", r.current, ErrInvalidTransition)
	}

	r.records = nil
	r.notice = ""

	sess := r.provider.Current()
	switch {
	case sess.State != StateAuthenticated:
		r.notice = "Sign in to see your saved documents."
	case r.docs == nil:
		r.notice = "Saved documents are not available."
	default:
		records, err := r.docs.Query(ctx, store.OwnerPrefix(sess.UserID), r.limit)
		if err != nil {
			// The view still opens; it just shows nothing.
			r.log.Error().Err(err).Msg("history fetch failed")
			r.notice = "Could not load your saved documents."
		} else {
			r.records = records
		}
	}

	r.current = ViewHistory
	return nil
}

// Back returns to the template list from either the editor or the history
// view. On the list it is a no-op.
func (r *Router) Back() {
	if r.current == ViewEditor {
		r.editor.Close()
	}
	r.records = nil
	r.notice = ""
	r.current = ViewList
}

// Records returns the documents loaded for the history view, newest first.
func (r *Router) Records() []model.SavedDocumentRecord {
	return r.records
}

// HistoryNotice returns the message shown in place of records when the
// history view has nothing to display.
func (r *Router) HistoryNotice() string {
	return r.notice
}
