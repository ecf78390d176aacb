package badger

import (
	"context"
	"testing"

	"github.com/poiesic/geofind/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetRepository_Cities(t *testing.T) {
	datasets, _, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	cities := []core.City{
		{GeonameID: 1526384, Name: "Almaty", CountryCode: "KZ", AdminCode: "KZ.02", Population: 2000900},
		{GeonameID: 524901, Name: "Moscow", CountryCode: "RU", AdminCode: "RU.48", Population: 10381222},
		{GeonameID: 1496153, Name: "Omsk", CountryCode: "RU", AdminCode: "RU.54", Population: 1129281},
	}

	require.NoError(t, datasets.SaveCities(ctx, cities))

	loaded, err := datasets.LoadCities(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	// Ordered by geoname id
	assert.Equal(t, int64(524901), loaded[0].GeonameID)
	assert.Equal(t, int64(1496153), loaded[1].GeonameID)
	assert.Equal(t, int64(1526384), loaded[2].GeonameID)
	assert.Equal(t, "KZ.02", loaded[2].AdminCode)
}

func TestDatasetRepository_SaveReplaces(t *testing.T) {
	datasets, _, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, datasets.SaveAdminDivisions(ctx, []core.AdminDivision{
		{Code: "RU.48", Name: "Moscow", NameASCII: "Moscow"},
		{Code: "RU.54", Name: "Omsk", NameASCII: "Omsk"},
	}))
	require.NoError(t, datasets.SaveAdminDivisions(ctx, []core.AdminDivision{
		{Code: "KZ.02", Name: "Almaty", NameASCII: "Almaty"},
	}))

	loaded, err := datasets.LoadAdminDivisions(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "KZ.02", loaded[0].Code)
}

func TestDatasetRepository_CountriesAndEmbeddings(t *testing.T) {
	datasets, _, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, datasets.SaveCountries(ctx, []core.Country{
		{ISO: "RU", Name: "Russia", Capital: "Moscow"},
		{ISO: "KZ", Name: "Kazakhstan", Capital: "Astana"},
	}))
	require.NoError(t, datasets.SaveEmbeddings(ctx, []core.Embedding{
		{Name: "Omsk", Vector: []float32{0, 1}},
		{Name: "Almaty", Vector: []float32{1, 0}},
	}))

	countries, err := datasets.LoadCountries(ctx)
	require.NoError(t, err)
	require.Len(t, countries, 2)
	assert.Equal(t, "KZ", countries[0].ISO)

	embeddings, err := datasets.LoadEmbeddings(ctx)
	require.NoError(t, err)
	require.Len(t, embeddings, 2)
	assert.Equal(t, "Almaty", embeddings[0].Name)
	assert.Equal(t, []float32{1, 0}, embeddings[0].Vector)

	stats, err := datasets.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Countries)
	assert.Equal(t, 2, stats.Embeddings)
	assert.Equal(t, 0, stats.Cities)
	assert.Equal(t, 0, stats.AdminDivisions)
}
