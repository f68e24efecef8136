package storage

import (
	"context"

	"github.com/poiesic/ticketrank/core"
)

// MatrixStore persists the embedding matrix built over the corpus.
type MatrixStore interface {
	// LoadMatrix returns the stored matrix.
	// Returns ErrNotFound if no matrix has been saved.
	// A partially written or corrupt matrix is reported with ErrTruncatedData
	// or ErrSerializationFailed; callers rebuild in either case.
	LoadMatrix(ctx context.Context) (*core.EmbeddingMatrix, error)

	// SaveMatrix replaces any stored matrix with m.
	SaveMatrix(ctx context.Context, m *core.EmbeddingMatrix) error
}

// LedgerStore persists the feedback ledger document.
// Every save rewrites the whole document.
type LedgerStore interface {
	// LoadLedger returns the stored document.
	// Returns ErrNotFound if no document has been saved.
	LoadLedger(ctx context.Context) (*core.LedgerDocument, error)

	// SaveLedger replaces the stored document with doc.
	SaveLedger(ctx context.Context, doc *core.LedgerDocument) error
}
