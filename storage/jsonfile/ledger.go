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


// Package jsonfile stores the feedback ledger as a single JSON document on disk.
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/poiesic/ticketrank/core"
	"github.com/poiesic/ticketrank/storage"
)

// LedgerStore implements storage.LedgerStore over one file.
// Saves go through a temporary file and a rename, so readers never see a
// partially written document.
type LedgerStore struct {
	path string
	mu   sync.Mutex
}

var _ storage.LedgerStore = (*LedgerStore)(nil)

// NewLedgerStore creates a store for the document at path.
// The file and its directory are created on first save.
func NewLedgerStore(path string) *LedgerStore {
	return &LedgerStore{path: path}
}

// Path returns the document location.
func (s *LedgerStore) Path() string {
	return s.path
}

// LoadLedger reads and parses the document.
func (s *LedgerStore) LoadLedger(ctx context.Context) (*core.LedgerDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return storage.UnmarshalLedger(data)
}

// SaveLedger rewrites the document.
func (s *LedgerStore) SaveLedger(ctx context.Context, doc *core.LedgerDocument) error {
	data, err := storage.MarshalLedger(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}
