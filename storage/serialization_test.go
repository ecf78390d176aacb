package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/poiesic/geofind/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("Moscow")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalCity(t *testing.T) {
	tests := []struct {
		name string
		city *core.City
	}{
		{
			name: "minimal city",
			city: &core.City{GeonameID: 1, Name: "A", CountryCode: "RU", AdminCode: "RU.48"},
		},
		{
			name: "full city",
			city: &core.City{
				GeonameID:      524901,
				Name:           "Moscow",
				ASCIIName:      "Moscow",
				AlternateNames: "MOW, Moskau, Moskva, Москва",
				Latitude:       55.75222,
				Longitude:      37.61556,
				FeatureClass:   "P",
				FeatureCode:    "PPLC",
				CountryCode:    "RU",
				AdminCode:      "RU.48",
				Population:     10381222,
				Timezone:       "Europe/Moscow",
				Cell:           "46b54a",
			},
		},
		{
			name: "negative coordinates",
			city: &core.City{GeonameID: 3435910, Name: "Buenos Aires", Latitude: -34.61315, Longitude: -58.37723},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalCity(tt.city)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalCity(data)
			require.NoError(t, err)
			assert.Equal(t, tt.city, decoded)
		})
	}
}

func TestMarshalUnmarshalCountry(t *testing.T) {
	country := &core.Country{
		ISO:          "KZ",
		ISO3:         "KAZ",
		Name:         "Kazakhstan",
		Capital:      "Astana",
		AreaSqKm:     2724900,
		Population:   "18276499",
		Continent:    "AS",
		TLD:          ".kz",
		CurrencyCode: "KZT",
		CurrencyName: "Tenge",
		Phone:        "7",
		Languages:    "kk, ru",
	}

	decoded, err := UnmarshalCountry(MarshalCountry(country))
	require.NoError(t, err)
	assert.Equal(t, country, decoded)
}

func TestMarshalUnmarshalAdminDivision(t *testing.T) {
	admin := &core.AdminDivision{Code: "RU.48", Name: "Moskva", NameASCII: "Moskva"}

	decoded, err := UnmarshalAdminDivision(MarshalAdminDivision(admin))
	require.NoError(t, err)
	assert.Equal(t, admin, decoded)
}

func TestMarshalUnmarshalEmbedding(t *testing.T) {
	tests := []struct {
		name string
		emb  *core.Embedding
	}{
		{"short vector", &core.Embedding{Name: "Almaty", Vector: []float32{0.1, -0.2, 0.3}}},
		{"long vector", &core.Embedding{Name: "Алматы", Vector: make([]float32, 768)}},
		{"no vector", &core.Embedding{Name: "Astana"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := UnmarshalEmbedding(MarshalEmbedding(tt.emb))
			require.NoError(t, err)
			assert.Equal(t, tt.emb.Name, decoded.Name)
			if len(tt.emb.Vector) == 0 {
				assert.Empty(t, decoded.Vector)
			} else {
				assert.Equal(t, tt.emb.Vector, decoded.Vector)
			}
		})
	}
}

func TestUnmarshalEmbedding_TruncatedVector(t *testing.T) {
	data := MarshalEmbedding(&core.Embedding{Name: "Omsk", Vector: []float32{1, 2, 3, 4}})

	_, err := UnmarshalEmbedding(data[:len(data)-3])
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSerializationFailed))
	assert.True(t, errors.Is(err, ErrTruncatedData))
}

func TestUnmarshal_Invalid(t *testing.T) {
	inputs := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"invalid data", []byte{0xFF, 0xFF, 0xFF}},
		{"partial data", []byte{1, 2, 3}},
	}

	for _, tt := range inputs {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalCity(tt.data)
			assert.Error(t, err)
			_, err = UnmarshalCountry(tt.data)
			assert.Error(t, err)
			_, err = UnmarshalCheckpoint(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestMarshalUnmarshalCheckpoint(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	checkpoint := &core.Checkpoint{
		Stage:     "embed",
		Model:     "sentence-transformers/LaBSE",
		Count:     12345,
		UpdatedAt: now,
	}

	decoded, err := UnmarshalCheckpoint(MarshalCheckpoint(checkpoint))
	require.NoError(t, err)
	assert.Equal(t, checkpoint.Stage, decoded.Stage)
	assert.Equal(t, checkpoint.Model, decoded.Model)
	assert.Equal(t, checkpoint.Count, decoded.Count)
	assert.True(t, checkpoint.UpdatedAt.Equal(decoded.UpdatedAt))
}
