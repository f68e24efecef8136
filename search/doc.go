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


// Package search implements the semantic index over the support corpus.
//
// An Index moves through three states. It starts Empty, becomes
// CorpusLoaded once articles are read, and is IndexReady after Prepare has
// either loaded a persisted embedding matrix that still matches the corpus
// or embedded the corpus again on a worker pool.
//
// Search embeds the query (through a bounded FIFO cache), scores every
// article by cosine similarity, drops scores under the similarity threshold,
// applies the soft category filter and returns the best topK results.
// TwoPhaseSearch reruns without the filter when the filtered run is empty or
// weak and keeps whichever run has the better top score.
//
// A SearchMonitor can be passed to observe cache hits, filtering and
// fallback decisions without changing results.
package search
