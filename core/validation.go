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

import (
	"fmt"
	"strings"
)

// ValidateCity validates a City according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - CountryCode must not be empty
//   - AdminCode must have the "<CountryCode>.<code>" form
//   - Latitude in [-90, 90], Longitude in [-180, 180]
func ValidateCity(city *City) error {
	if city == nil {
		return fmt.Errorf("%w: city is nil", ErrInvalidCity)
	}

	if city.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCity, ErrEmptyName)
	}

	if city.CountryCode == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCity, ErrEmptyCountryCode)
	}

	if !IsValidAdminCode(city.AdminCode) {
		return fmt.Errorf("%w: %w: %q", ErrInvalidCity, ErrEmptyAdminCode, city.AdminCode)
	}

	if !IsValidCoordinate(city.Latitude, city.Longitude) {
		return fmt.Errorf("%w: %w: (%f, %f)", ErrInvalidCity, ErrInvalidCoordinates, city.Latitude, city.Longitude)
	}

	return nil
}

// ValidateCountry validates a Country. ISO and Name are required.
func ValidateCountry(country *Country) error {
	if country == nil {
		return fmt.Errorf("%w: country is nil", ErrInvalidCountry)
	}
	if country.ISO == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCountry, ErrEmptyCountryCode)
	}
	if country.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCountry, ErrEmptyName)
	}
	return nil
}

// ValidateAdminDivision validates an AdminDivision.
func ValidateAdminDivision(admin *AdminDivision) error {
	if admin == nil {
		return fmt.Errorf("%w: admin division is nil", ErrInvalidAdminDivision)
	}
	if !IsValidAdminCode(admin.Code) {
		return fmt.Errorf("%w: %w: %q", ErrInvalidAdminDivision, ErrEmptyAdminCode, admin.Code)
	}
	if admin.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidAdminDivision, ErrEmptyName)
	}
	return nil
}

// ValidateEmbedding validates an Embedding.
func ValidateEmbedding(e *Embedding) error {
	if e == nil {
		return fmt.Errorf("%w: embedding is nil", ErrInvalidEmbedding)
	}
	if e.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEmbedding, ErrEmptyName)
	}
	if len(e.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEmbedding, ErrEmptyVector)
	}
	return nil
}

// IsValidAdminCode reports whether code looks like "<CC>.<admin1>".
func IsValidAdminCode(code string) bool {
	cc, admin, ok := strings.Cut(code, ".")
	return ok && cc != "" && admin != ""
}

// IsValidCoordinate reports whether lat and lon are within WGS84 bounds.
func IsValidCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
