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


package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/poiesic/ticketrank/core"
)

// Bounds a persisted matrix header must satisfy before rows are allocated.
const (
	MaxMatrixRows   = 1 << 24
	MaxMatrixDim    = 1 << 16
	MaxMatrixValues = 1 << 28
)

// MarshalMatrixHeader serializes a matrix header to bytes.
func MarshalMatrixHeader(h core.MatrixHeader) []byte {
	buf := make([]byte, core.MatrixHeaderMUS.Size(h))
	core.MatrixHeaderMUS.Marshal(h, buf)
	return buf
}

// UnmarshalMatrixHeader deserializes a matrix header from bytes.
func UnmarshalMatrixHeader(data []byte) (core.MatrixHeader, error) {
	h, _, err := core.MatrixHeaderMUS.Unmarshal(data)
	if err != nil {
		return core.MatrixHeader{}, fmt.Errorf("%w: matrix header: %w", ErrSerializationFailed, err)
	}
	if err := checkMatrixShape(h.Rows, h.Dim); err != nil {
		return core.MatrixHeader{}, err
	}
	h.BuiltAt = h.BuiltAt.UTC()
	return h, nil
}

func checkMatrixShape(rows, dim int) error {
	switch {
	case rows < 0 || dim < 0:
		return fmt.Errorf("%w: negative matrix shape %dx%d", ErrSerializationFailed, rows, dim)
	case rows > MaxMatrixRows || dim > MaxMatrixDim:
		return fmt.Errorf("%w: matrix shape %dx%d out of range", ErrSerializationFailed, rows, dim)
	case int64(rows)*int64(dim) > MaxMatrixValues:
		return fmt.Errorf("%w: matrix of %dx%d values too large", ErrSerializationFailed, rows, dim)
	}
	return nil
}

// MarshalVector serializes one matrix row to bytes.
func MarshalVector(v []float32) []byte {
	buf := make([]byte, core.VectorMUS.Size(v))
	core.VectorMUS.Marshal(v, buf)
	return buf
}

// UnmarshalVector deserializes one matrix row from bytes.
func UnmarshalVector(data []byte) ([]float32, error) {
	v, _, err := core.VectorMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: vector: %w", ErrSerializationFailed, err)
	}
	return v, nil
}

// MarshalLedger serializes the ledger document as indented JSON.
// Non-ASCII text is written as-is.
func MarshalLedger(doc *core.LedgerDocument) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("%w: ledger: %w", ErrSerializationFailed, err)
	}
	return buf.Bytes(), nil
}

// UnmarshalLedger deserializes a ledger document.
// Missing sections are returned empty rather than nil.
func UnmarshalLedger(data []byte) (*core.LedgerDocument, error) {
	doc := core.NewLedgerDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: ledger: %w", ErrSerializationFailed, err)
	}
	if doc.Templates == nil {
		doc.Templates = make(map[string]*core.FeedbackRecord)
	}
	if doc.History == nil {
		doc.History = []core.FeedbackEvent{}
	}
	for id, rec := range doc.Templates {
		if rec == nil {
			delete(doc.Templates, id)
		}
	}
	return doc, nil
}
