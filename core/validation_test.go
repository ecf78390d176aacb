package core

import (
	"errors"
	"testing"
)

func TestValidateCity(t *testing.T) {
	valid := City{
		GeonameID:   1526384,
		Name:        "Almaty",
		CountryCode: "KZ",
		AdminCode:   "KZ.02",
		Latitude:    43.25,
		Longitude:   76.91,
	}

	tests := []struct {
		name    string
		mutate  func(c *City)
		nilCity bool
		wantErr error
	}{
		{name: "valid city", mutate: func(c *City) {}},
		{name: "nil city", nilCity: true, wantErr: ErrInvalidCity},
		{name: "empty name", mutate: func(c *City) { c.Name = "" }, wantErr: ErrEmptyName},
		{name: "empty country", mutate: func(c *City) { c.CountryCode = "" }, wantErr: ErrEmptyCountryCode},
		{name: "malformed admin code", mutate: func(c *City) { c.AdminCode = "KZ" }, wantErr: ErrEmptyAdminCode},
		{name: "latitude out of range", mutate: func(c *City) { c.Latitude = 91 }, wantErr: ErrInvalidCoordinates},
		{name: "longitude out of range", mutate: func(c *City) { c.Longitude = -181 }, wantErr: ErrInvalidCoordinates},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.nilCity {
				err = ValidateCity(nil)
			} else {
				c := valid
				tt.mutate(&c)
				err = ValidateCity(&c)
			}

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateCity() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCity() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidCity) {
				t.Errorf("ValidateCity() error = %v, want wrapped %v", err, ErrInvalidCity)
			}
		})
	}
}

func TestValidateCountry(t *testing.T) {
	if err := ValidateCountry(&Country{ISO: "NA", Name: "Namibia"}); err != nil {
		t.Errorf("ValidateCountry() error = %v", err)
	}
	if err := ValidateCountry(&Country{Name: "Namibia"}); !errors.Is(err, ErrEmptyCountryCode) {
		t.Errorf("ValidateCountry() error = %v, want %v", err, ErrEmptyCountryCode)
	}
	if err := ValidateCountry(&Country{ISO: "RU"}); !errors.Is(err, ErrEmptyName) {
		t.Errorf("ValidateCountry() error = %v, want %v", err, ErrEmptyName)
	}
}

func TestValidateAdminDivision(t *testing.T) {
	if err := ValidateAdminDivision(&AdminDivision{Code: "RU.48", Name: "Moscow"}); err != nil {
		t.Errorf("ValidateAdminDivision() error = %v", err)
	}
	if err := ValidateAdminDivision(&AdminDivision{Code: ".48", Name: "Moscow"}); !errors.Is(err, ErrEmptyAdminCode) {
		t.Errorf("ValidateAdminDivision() error = %v, want %v", err, ErrEmptyAdminCode)
	}
	if err := ValidateAdminDivision(&AdminDivision{Code: "RU.48"}); !errors.Is(err, ErrEmptyName) {
		t.Errorf("ValidateAdminDivision() error = %v, want %v", err, ErrEmptyName)
	}
}

func TestValidateEmbedding(t *testing.T) {
	if err := ValidateEmbedding(&Embedding{Name: "Moscow", Vector: []float32{1}}); err != nil {
		t.Errorf("ValidateEmbedding() error = %v", err)
	}
	if err := ValidateEmbedding(&Embedding{Name: "Moscow"}); !errors.Is(err, ErrEmptyVector) {
		t.Errorf("ValidateEmbedding() error = %v, want %v", err, ErrEmptyVector)
	}
	if err := ValidateEmbedding(nil); !errors.Is(err, ErrInvalidEmbedding) {
		t.Errorf("ValidateEmbedding() error = %v, want %v", err, ErrInvalidEmbedding)
	}
}

func TestIsValidCoordinate(t *testing.T) {
	tests := []struct {
		lat, lon float64
		want     bool
	}{
		{0, 0, true},
		{90, 180, true},
		{-90, -180, true},
		{90.1, 0, false},
		{0, 180.5, false},
	}
	for _, tt := range tests {
		if got := IsValidCoordinate(tt.lat, tt.lon); got != tt.want {
			t.Errorf("IsValidCoordinate(%f, %f) = %v, want %v", tt.lat, tt.lon, got, tt.want)
		}
	}
}
