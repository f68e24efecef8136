package core

import (
	"fmt"
	"time"
)

// NewEmbeddingMatrix packs vectors into a matrix, normalizing every row.
// All vectors must share the same dimension.
func NewEmbeddingMatrix(vectors [][]float32, model string, digest uint64) (*EmbeddingMatrix, error) {
	m := &EmbeddingMatrix{
		Rows:         len(vectors),
		Model:        model,
		CorpusDigest: digest,
		BuiltAt:      time.Now().UTC(),
	}
	if len(vectors) == 0 {
		return m, nil
	}

	m.Dim = len(vectors[0])
	if m.Dim == 0 {
		return nil, fmt.Errorf("%w: row 0 is empty", ErrDimensionMismatch)
	}
	m.Data = make([]float32, 0, m.Rows*m.Dim)
	for i, v := range vectors {
		if len(v) != m.Dim {
			return nil, fmt.Errorf("%w: row %d has %d values, expected %d", ErrDimensionMismatch, i, len(v), m.Dim)
		}
		m.Data = append(m.Data, NormalizeVector(v)...)
	}
	return m, nil
}

// Row returns a view of row i. The slice must not be modified.
func (m *EmbeddingMatrix) Row(i int) []float32 {
	return m.Data[i*m.Dim : (i+1)*m.Dim]
}

// Similarities returns the cosine similarity of query against every row.
// Rows are stored normalized, so only the query needs normalizing.
func (m *EmbeddingMatrix) Similarities(query []float32) ([]float64, error) {
	if len(query) != m.Dim {
		return nil, fmt.Errorf("%w: query has %d values, matrix has %d", ErrDimensionMismatch, len(query), m.Dim)
	}
	q := NormalizeVector(query)
	out := make([]float64, m.Rows)
	for i := 0; i < m.Rows; i++ {
		out[i] = Dot(m.Data[i*m.Dim:(i+1)*m.Dim], q)
	}
	return out, nil
}

// CheckCorpus verifies that the matrix was built from the given corpus.
// A zero digest on the matrix skips the content check.
func (m *EmbeddingMatrix) CheckCorpus(articles int, digest uint64) error {
	if m.Rows != articles {
		return &IndexMismatchError{Rows: m.Rows, Articles: articles}
	}
	if m.CorpusDigest != 0 && m.CorpusDigest != digest {
		return &IndexMismatchError{Rows: m.Rows, Articles: articles, DigestChanged: true}
	}
	return nil
}
