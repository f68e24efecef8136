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


// Package pipeline runs a support request through canonicalization,
// compression, two-phase semantic search and feedback reranking, and picks
// the template answer to suggest.
//
// Each stage is also exposed on its own so callers can drive the steps
// individually:
//
//	p, err := pipeline.New(canonicalizer, compressor, index, ledger)
//	resp, err := p.Process(ctx, pipeline.Request{Text: "карта заблокирована"})
//	fmt.Println(resp.Answer, resp.Confidence)
//
// A rate-limited provider call surfaces as an error matching
// ai.ErrRateLimited; use ai.Attempts to report how many attempts were made.
package pipeline
