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


// Package ai provides abstractions for the AI services used by ticketrank.
//
// Two services are defined: an Embedder that turns text into vectors for the
// semantic index and a Completer that answers chat transcripts for the
// category classifier. AIProvider aggregates both.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible APIs through langchaingo
//   - ai/goopenai: OpenAI-compatible APIs through go-openai
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, goopenai.NewEmbedder, etc.) return
// INTERFACE types to enforce abstraction. Test constructors in ai/mock return
// CONCRETE types so tests can inject behavior and read call counts.
//
// # Rate Limits
//
// Providers retry calls rejected with HTTP 429 using Config.RetrySchedule,
// up to Config.MaxRetries extra attempts. When the budget is spent the error
// matches both ErrRateLimited and ErrMaxRetriesExceeded, and Attempts reports
// how many calls were made. Any other upstream failure is returned at once as
// an *UpstreamError.
//
//	provider, err := openai.NewProvider(ai.NewConfig(ai.WithAPIKey(key)))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "заблокирована карта")
//	if errors.Is(err, ai.ErrMaxRetriesExceeded) {
//	    // provider kept rate limiting
//	}
package ai
