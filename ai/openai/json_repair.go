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


package openai

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	// a key with one or both quotes missing: `{city": `, `, confidence:`
	looseKey      = regexp.MustCompile(`([{,]\s*)"?([A-Za-z_][A-Za-z0-9_]*)"?\s*:`)
	trailingComma = regexp.MustCompile(`,\s*}`)
	smartQuotes   = strings.NewReplacer("\u201c", `"`, "\u201d", `"`)
)

// cleanResponse extracts the JSON object from a model reply. Replies that
// are already valid JSON are returned as they are; others have code fences,
// surrounding prose, typographic quotes, loose keys and a trailing comma
// repaired.
func cleanResponse(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	if json.Valid([]byte(s)) {
		return s
	}
	return repairJSON(s)
}

// repairJSON fixes the mistakes small models make when asked for a single
// flat object.
func repairJSON(s string) string {
	if start, end := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}'); start >= 0 && end > start {
		s = s[start : end+1]
	}
	s = smartQuotes.Replace(s)
	s = looseKey.ReplaceAllString(s, `$1"$2":`)
	return trailingComma.ReplaceAllString(s, "}")
}
