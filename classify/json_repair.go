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


package classify

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// bareKey matches an object key whose opening quote the model dropped,
// e.g. `, category": "x"`.
var bareKey = regexp2.MustCompile(`([{,]\s*)([\p{L}_][\p{L}\p{N}_]*)":`, regexp2.None)

// extractObject returns the outermost JSON object in a model reply, with
// markdown code fences stripped and bare keys quoted.
func extractObject(reply string) (string, bool) {
	text := strings.TrimSpace(reply)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return repairJSON(text[start : end+1]), true
}

// repairJSON fixes keys that are missing their opening quote.
func repairJSON(s string) string {
	out, err := bareKey.Replace(s, `$1"$2":`, -1, -1)
	if err != nil {
		return s
	}
	return out
}
