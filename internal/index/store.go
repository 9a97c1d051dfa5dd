// Package index keeps the external inverted-index store consistent with
// the object graph: full rebuilds, incremental per-object updates, and
// metadata roll-ups, with batching and a single-rebuild guard.
package index

import (
	"context"

	"github.com/stelae/stelae/internal/docs"
)

// Store is the opaque add/commit API of one logical index. Add stages
// documents; Commit makes everything staged since the last commit
// durable and visible. The object and metadata indices are addressed
// through independent Store instances.
type Store interface {
	// Add stages documents. Patch documents merge into the existing
	// document's fields with set/add semantics; create documents
	// replace the document wholesale.
	Add(ctx context.Context, documents []*docs.Document) error

	// Commit flushes all staged documents.
	Commit(ctx context.Context) error

	// Close releases the index.
	Close() error
}
