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


// Package feedback records helpfulness signals for answer templates and
// turns them into a ranking bonus.
//
// Each article identity keeps helpful and total counters. Once an article has
// at least MinSamples signals it earns a bonus of
//
//	rate × MaxBonus × min(total / SaturationSamples, 1)
//
// which Rerank adds to search similarities. The ledger also keeps a bounded
// history of individual events. Every mutation rewrites the persisted
// document; a failed write is logged and the in-memory counters stay
// authoritative.
package feedback
