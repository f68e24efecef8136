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


// Package canon rewrites jargon, transliterations and misspellings in
// support requests to a fixed vocabulary before retrieval.
//
// A Canonicalizer applies an ordered list of rules. Each rule is either a
// Literal (every match becomes a fixed string) or a Transform (every match
// is rebuilt from its capture groups by a function). Rules run in
// declaration order and each sees the output of the previous one, so the
// order of a rule set is part of its meaning.
//
// Patterns are compiled case-insensitively with Unicode-aware word
// boundaries and support lookaround:
//
//	c, err := canon.New(canon.DefaultRules())
//	if err != nil {
//		return err
//	}
//	text, changes := c.NormalizeWithChanges("забыл пин кот")
//	// text == "забыл ПИН-код", changes == ["'пин кот' → 'ПИН-код'"]
package canon
