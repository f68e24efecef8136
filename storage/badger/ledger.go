package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ticketrank/core"
	"github.com/poiesic/ticketrank/storage"
)

// LedgerStore implements storage.LedgerStore for BadgerDB.
// The document is stored as JSON under a single key.
type LedgerStore struct {
	backend *Backend
}

var _ storage.LedgerStore = (*LedgerStore)(nil)

// NewLedgerStore creates a new LedgerStore.
func NewLedgerStore(backend *Backend) *LedgerStore {
	return &LedgerStore{backend: backend}
}

// SaveLedger replaces the stored document.
func (s *LedgerStore) SaveLedger(ctx context.Context, doc *core.LedgerDocument) error {
	value, err := storage.MarshalLedger(doc)
	if err != nil {
		return err
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte(ledgerKey), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadLedger retrieves the stored document.
func (s *LedgerStore) LoadLedger(ctx context.Context) (*core.LedgerDocument, error) {
	var doc *core.LedgerDocument
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(ledgerKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			doc, unmarshalErr = storage.UnmarshalLedger(val)
			return unmarshalErr
		})
	}, false)
	return doc, err
}
