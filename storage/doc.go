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


// Package storage provides the persistence abstractions for ticketrank.
//
// Two artifacts outlive a process: the embedding matrix computed over the
// corpus and the feedback ledger. MatrixStore and LedgerStore decouple the
// search and feedback packages from where those artifacts live.
//
// # Implementations
//
//   - storage/badger: BadgerDB-backed MatrixStore and LedgerStore
//   - storage/jsonfile: LedgerStore writing a single JSON document
//
// # Formats
//
// Matrix headers and rows are encoded with mus-go (see core.MatrixHeaderMUS
// and core.VectorMUS). The ledger is JSON with "templates" and "history"
// sections so existing ledger files remain readable.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	matrices := badger.NewMatrixStore(backend)
//	m, err := matrices.LoadMatrix(ctx)
//	if errors.Is(err, storage.ErrNotFound) {
//	    // build and save
//	}
//
// # Thread Safety
//
// All implementations are safe for concurrent use.
package storage
