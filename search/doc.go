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


// Package search resolves free-text city queries to city records.
//
// A query passes through a chain of corrections before it is embedded:
//
//   - Direct: a query that already names a known city is used as is.
//   - Spell-check: an external speller fixes typos ("Масква").
//   - Advanced: the query is matched against alternate names and their
//     transliterations, which resolves abbreviations ("МСК", "СПБ").
//   - LLM: an optional model-based corrector is consulted last.
//
// The resulting name is embedded and compared by cosine similarity against
// every city name vector. The top k records are returned as matches.
package search
