// Package store provides the document store boundary used by the
// persistence variant. Saved records live under a per-application namespace,
// then per-user, then per-document identifier.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jun/formdesk/internal/model"
)

// Namespace is the per-application prefix for all stored documents.
const Namespace = "formdesk"

// ErrInvalidPath is returned when a path does not follow the
// namespace/owner/document convention.
var ErrInvalidPath = errors.New("invalid document path")

// Store is the interface for the external document store. Records are
// written once and never mutated; Query returns newest-first.
type Store interface {
	// Put persists a record at the given path.
	Put(ctx context.Context, path string, rec model.SavedDocumentRecord) error

	// Query lists up to limit records under the given owner prefix,
	// ordered newest-first.
	Query(ctx context.Context, ownerPrefix string, limit int) ([]model.SavedDocumentRecord, error)
}

// DocPath builds the storage path for a document.
func DocPath(ownerID, docID string) string {
	return fmt.Sprintf("%s/%s/%s", Namespace, ownerID, docID)
}

// OwnerPrefix builds the query prefix for all of an owner's documents.
func OwnerPrefix(ownerID string) string {
	return fmt.Sprintf("%s/%s", Namespace, ownerID)
}

// splitPath validates a document path and returns its owner and document
// segments.
func splitPath(path string) (ownerID, docID string, err error) {
	parts := strings.Split(path, "/")
	if len(parts) != 3 || parts[0] != Namespace || parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return parts[1], parts[2], nil
}
