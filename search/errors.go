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


package search

import (
	"errors"

	"github.com/poiesic/geofind/index"
)

var (
	// ErrEmptyQuery is returned when the query is blank.
	ErrEmptyQuery = errors.New("empty query")

	// ErrInvalidTopK is returned when fewer than one match is requested.
	ErrInvalidTopK = index.ErrInvalidTopK

	// ErrIndexEmpty is returned when a finder is built without records.
	ErrIndexEmpty = errors.New("no city records to search")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrRepositoryRequired is returned when a catalog repository is not provided.
	ErrRepositoryRequired = errors.New("catalog repository required")

	// ErrDimensionMismatch is returned when the query vector and the city
	// vectors have different lengths.
	ErrDimensionMismatch = index.ErrDimensionMismatch

	// ErrInvalidCoordinates is returned by Nearest for an out of range point.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)
