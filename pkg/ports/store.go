package ports

import (
	"context"

	"github.com/halu886/warehouse/pkg/domain"
)

// DocumentStore defines the interface for persisting documents of one
// collection. Documents are handed over in their persisted form (the output
// of the schema's Value conversion).
type DocumentStore interface {
	// Save persists the document under id, replacing any previous version.
	Save(ctx context.Context, id string, doc domain.Document) error

	// Load retrieves the document stored under id.
	// Returns domain.ErrDocumentNotFound if the document does not exist.
	Load(ctx context.Context, id string) (domain.Document, error)

	// Delete removes the document stored under id. Deleting a missing id is
	// not an error.
	Delete(ctx context.Context, id string) error

	// List returns the ids of every stored document.
	List(ctx context.Context) ([]string, error)
}
