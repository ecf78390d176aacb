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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidCity indicates a City failed validation.
	ErrInvalidCity = errors.New("invalid city")

	// ErrInvalidCountry indicates a Country failed validation.
	ErrInvalidCountry = errors.New("invalid country")

	// ErrInvalidAdminDivision indicates an AdminDivision failed validation.
	ErrInvalidAdminDivision = errors.New("invalid admin division")

	// ErrInvalidEmbedding indicates an Embedding failed validation.
	ErrInvalidEmbedding = errors.New("invalid embedding")

	// ErrEmptyName indicates a required name field is empty.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrInvalidCoordinates indicates latitude or longitude is out of range.
	ErrInvalidCoordinates = errors.New("coordinates out of range")

	// ErrEmptyCountryCode indicates the country code is empty.
	ErrEmptyCountryCode = errors.New("country code cannot be empty")

	// ErrEmptyAdminCode indicates the admin code is empty or malformed.
	ErrEmptyAdminCode = errors.New("admin code cannot be empty")

	// ErrEmptyVector indicates an embedding has no components.
	ErrEmptyVector = errors.New("vector cannot be empty")
)
