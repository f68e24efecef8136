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


package pipeline

import "errors"

var (
	// ErrCanonicalizerRequired is returned when a canonicalizer is not provided.
	ErrCanonicalizerRequired = errors.New("canonicalizer required")

	// ErrCompressorRequired is returned when a compressor is not provided.
	ErrCompressorRequired = errors.New("compressor required")

	// ErrIndexRequired is returned when a search index is not provided.
	ErrIndexRequired = errors.New("search index required")

	// ErrLedgerRequired is returned when a feedback ledger is not provided.
	ErrLedgerRequired = errors.New("feedback ledger required")
)
