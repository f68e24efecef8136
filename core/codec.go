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


package core

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MatrixHeader is the persisted description of an embedding matrix.
// Rows are stored separately, one record per row. Its codec,
// MatrixHeaderMUS, is generated by cmd/musgen.
type MatrixHeader struct {
	Rows         int
	Dim          int
	Model        string
	CorpusDigest uint64
	BuiltAt      time.Time
}

// Header returns the header describing m.
func (m *EmbeddingMatrix) Header() MatrixHeader {
	return MatrixHeader{
		Rows:         m.Rows,
		Dim:          m.Dim,
		Model:        m.Model,
		CorpusDigest: m.CorpusDigest,
		BuiltAt:      m.BuiltAt,
	}
}

// VectorMUS encodes a float32 vector as a length followed by fixed-width
// values. The length is checked against the remaining bytes before the
// vector is allocated.
var VectorMUS = vectorMUS{}

type vectorMUS struct{}

func (vectorMUS) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Int64.Marshal(int64(len(v)), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return
}

func (vectorMUS) Unmarshal(bs []byte) (v []float32, n int, err error) {
	var (
		n1     int
		length int64
	)
	length, n, err = varint.Int64.Unmarshal(bs)
	if err != nil {
		return
	}
	if length < 0 || int(length)*4 > len(bs)-n {
		err = fmt.Errorf("vector length %d exceeds %d remaining bytes", length, len(bs)-n)
		return
	}
	v = make([]float32, length)
	for i := range v {
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (vectorMUS) Size(v []float32) (size int) {
	size = varint.Int64.Size(int64(len(v)))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return
}
