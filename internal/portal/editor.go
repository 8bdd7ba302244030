package portal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jun/formdesk/internal/export"
	"github.com/jun/formdesk/internal/model"
	"github.com/jun/formdesk/internal/store"
)

// ViewRealizer turns document source into the rendered view the PDF
// exporter consumes. *render.Realizer satisfies it.
type ViewRealizer interface {
	Realize(source []byte) ([]byte, error)
}

// Exporter produces the downloadable file formats. *export.Adapter
// satisfies it.
type Exporter interface {
	ToPDF(renderedView []byte, title string) ([]byte, error)
	ToDOCX(plainText, title string) ([]byte, error)
}

// WorkingDocument is the editor's in-memory document. It exists only while
// the editor view is open.
type WorkingDocument struct {
	TemplateID string
	Title      string
	Content    string
	Dirty      bool
}

// Editor manages the working document, its rendered view, and the export
// and save operations on it.
type Editor struct {
	realizer ViewRealizer
	exporter Exporter
	provider *Provider
	docs     store.Store
	log      zerolog.Logger

	doc    *WorkingDocument
	view   []byte
	saving bool
	now    func() time.Time
}

// NewEditor wires the editor to its collaborators. docs may be nil when
// persistence is disabled.
func NewEditor(realizer ViewRealizer, exporter Exporter, provider *Provider, docs store.Store, log zerolog.Logger) *Editor {
	return &Editor{
		realizer: realizer,
		exporter: exporter,
		provider: provider,
		docs:     docs,
		log:      log,
		now:      time.Now,
	}
}

// Open initializes a fresh working document from the template. Any previous
// working document and its rendered view are discarded.
func (e *Editor) Open(tpl model.Template) {
	e.doc = &WorkingDocument{
		TemplateID: tpl.ID,
		Title:      tpl.Title,
		Content:    tpl.InitialContent,
	}
	e.view = nil
	e.saving = false
}

// Close discards the working document.
func (e *Editor) Close() {
	e.doc = nil
	e.view = nil
	e.saving = false
}

// Document returns the working document, or nil when the editor is closed.
func (e *Editor) Document() *WorkingDocument {
	return e.doc
}

// Edit replaces the document content and invalidates the rendered view.
func (e *Editor) Edit(content string) error {
	if e.doc == nil {
		return &ValidationError{Field: "document", Reason: "no document is open"}
	}
	e.doc.Content = content
	e.doc.Dirty = true
	e.view = nil
	return nil
}

// SetTitle replaces the document title.
func (e *Editor) SetTitle(title string) error {
	if e.doc == nil {
		return &ValidationError{Field: "document", Reason: "no document is open"}
	}
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	e.doc.Title = title
	e.doc.Dirty = true
	return nil
}

// Realize renders the current content and mounts the result as the active
// view. The PDF export reads from this view.
func (e *Editor) Realize() ([]byte, error) {
	if e.doc == nil {
		return nil, &ValidationError{Field: "document", Reason: "no document is open"}
	}
	view, err := e.realizer.Realize([]byte(e.doc.Content))
	if err != nil {
		return nil, &ExportError{Format: "view", Err: err}
	}
	e.view = view
	return view, nil
}

// ExportPDF produces a PDF from the mounted rendered view. The view must
// have been realized since the last edit.
func (e *Editor) ExportPDF() ([]byte, error) {
	if e.doc == nil {
		return nil, &ValidationError{Field: "document", Reason: "no document is open"}
	}
	if e.view == nil {
		return nil, &ExportError{Format: "pdf", Err: ErrRenderNotReady}
	}
	out, err := e.exporter.ToPDF(e.view, e.doc.Title)
	if err != nil {
		return nil, &ExportError{Format: "pdf", Err: err}
	}
	return out, nil
}

// ExportDOCX produces a DOCX from the flattened plain text of the current
// content. The content is rendered here so structural markers never reach
// the document; the mounted view and its PDF gate are not involved.
func (e *Editor) ExportDOCX() ([]byte, error) {
	if e.doc == nil {
		return nil, &ValidationError{Field: "document", Reason: "no document is open"}
	}
	view, err := e.realizer.Realize([]byte(e.doc.Content))
	if err != nil {
		return nil, &ExportError{Format: "docx", Err: err}
	}
	plain := strings.Join(export.Flatten(string(view)), "\n")
	out, err := e.exporter.ToDOCX(plain, e.doc.Title)
	if err != nil {
		return nil, &ExportError{Format: "docx", Err: err}
	}
	return out, nil
}

// Save persists the working document for the signed-in user. Anonymous
// sessions are refused before the store is contacted, and a second save
// cannot start while one is in flight.
func (e *Editor) Save(ctx context.Context) (*model.SavedDocumentRecord, error) {
	if e.doc == nil {
		return nil, &ValidationError{Field: "document", Reason: "no document is open"}
	}

	sess := e.provider.Current()
	if sess.State != StateAuthenticated {
		return nil, &CapabilityDeniedError{Capability: "save"}
	}
	if e.docs == nil {
		return nil, &PersistenceError{Op: "save", Err: ErrPersistenceDisabled}
	}
	if e.saving {
		return nil, &PersistenceError{Op: "save", Err: ErrSaveInFlight}
	}

	e.saving = true
	defer func() { e.saving = false }()

	rec := model.SavedDocumentRecord{
		ID:        fmt.Sprintf("%s-%d", e.doc.TemplateID, e.now().UnixMilli()),
		Title:     e.doc.Title,
		Content:   e.doc.Content,
		OwnerID:   sess.UserID,
		CreatedAt: e.now().UTC(),
	}
	if err := e.docs.Put(ctx, store.DocPath(sess.UserID, rec.ID), rec); err != nil {
		return nil, &PersistenceError{Op: "save", Err: err}
	}

	e.doc.Dirty = false
	e.log.Info().Str("doc_id", rec.ID).Msg("document saved")
	return &rec, nil
}

// CanSave reports whether the current session is allowed to save at all.
// The portal uses it to disable the save affordance for anonymous users.
func (e *Editor) CanSave() bool {
	return e.provider.Current().State == StateAuthenticated && e.docs != nil
}
