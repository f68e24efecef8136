// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ticketrank/core"
	"github.com/poiesic/ticketrank/storage"
)

// MatrixStore implements storage.MatrixStore for BadgerDB.
// The header and each row are stored under separate keys.
type MatrixStore struct {
	backend *Backend
}

var _ storage.MatrixStore = (*MatrixStore)(nil)

// NewMatrixStore creates a new MatrixStore.
func NewMatrixStore(backend *Backend) *MatrixStore {
	return &MatrixStore{backend: backend}
}

// SaveMatrix replaces the stored matrix. The header is written last so an
// interrupted save leaves no readable matrix behind.
func (s *MatrixStore) SaveMatrix(ctx context.Context, m *core.EmbeddingMatrix) error {
	if err := s.backend.DropPrefix([]byte(matrixPrefix)); err != nil {
		return fmt.Errorf("clearing matrix: %w", err)
	}

	err := s.backend.WriteBatch(func(wb *badger.WriteBatch) error {
		for i := 0; i < m.Rows; i++ {
			if i%256 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			if err := wb.Set(makeMatrixRowKey(i), storage.MarshalVector(m.Row(i))); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing matrix rows: %w", err)
	}

	err = s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte(matrixHeaderKey), storage.MarshalMatrixHeader(m.Header())); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return fmt.Errorf("writing matrix header: %w", err)
	}

	s.backend.logger.Debug("saved embedding matrix", "rows", m.Rows, "dim", m.Dim)
	return nil
}

// LoadMatrix reads the stored matrix.
func (s *MatrixStore) LoadMatrix(ctx context.Context) (*core.EmbeddingMatrix, error) {
	var m *core.EmbeddingMatrix

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(matrixHeaderKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}

		var header core.MatrixHeader
		err = item.Value(func(val []byte) error {
			header, err = storage.UnmarshalMatrixHeader(val)
			return err
		})
		if err != nil {
			return err
		}

		m = &core.EmbeddingMatrix{
			Rows:         header.Rows,
			Dim:          header.Dim,
			Model:        header.Model,
			CorpusDigest: header.CorpusDigest,
			BuiltAt:      header.BuiltAt,
			Data:         make([]float32, header.Rows*header.Dim),
		}
		return s.readRows(ctx, tx, m)
	}, false)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MatrixStore) readRows(ctx context.Context, tx *badger.Txn, m *core.EmbeddingMatrix) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(matrixRowPrefix)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	seen := 0
	for iter.Rewind(); iter.Valid(); iter.Next() {
		item := iter.Item()
		i, ok := parseMatrixRowKey(item.Key())
		if !ok || i >= m.Rows {
			return fmt.Errorf("%w: unexpected row key %q", storage.ErrSerializationFailed, item.Key())
		}
		if seen%256 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		err := item.Value(func(val []byte) error {
			v, err := storage.UnmarshalVector(val)
			if err != nil {
				return err
			}
			if len(v) != m.Dim {
				return fmt.Errorf("%w: row %d has %d values, header says %d", storage.ErrSerializationFailed, i, len(v), m.Dim)
			}
			copy(m.Data[i*m.Dim:], v)
			return nil
		})
		if err != nil {
			return err
		}
		seen++
	}

	if seen != m.Rows {
		return fmt.Errorf("%w: found %d of %d matrix rows", storage.ErrTruncatedData, seen, m.Rows)
	}
	return nil
}
