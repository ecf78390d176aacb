package geonames

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_LoadCities(t *testing.T) {
	dir := writeFixtures(t)
	loader, err := NewLoader(dir)
	require.NoError(t, err)

	cities, stats, err := loader.LoadCities(context.Background())
	require.NoError(t, err)

	// Bad coordinates and the short row are skipped.
	assert.Equal(t, 6, stats.Rows)
	assert.Equal(t, 4, stats.Kept)
	assert.Equal(t, 2, stats.Skipped)
	require.Len(t, cities, 4)

	moscow := cities[0]
	assert.Equal(t, int64(524901), moscow.GeonameID)
	assert.Equal(t, "Moscow", moscow.Name)
	assert.Equal(t, "MOW,Moskau,Moskva,Москва", moscow.AlternateNames)
	assert.InDelta(t, 55.75222, moscow.Latitude, 1e-9)
	assert.Equal(t, "RU", moscow.CountryCode)
	assert.Equal(t, "48", moscow.AdminCode)
	assert.Equal(t, int64(10381222), moscow.Population)
	assert.Equal(t, "Europe/Moscow", moscow.Timezone)

	assert.Greater(t, stats.Reduction(), 0.0)
}

func TestLoader_LoadCountries(t *testing.T) {
	dir := writeFixtures(t)
	loader, err := NewLoader(dir)
	require.NoError(t, err)

	countries, stats, err := loader.LoadCountries(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Kept)
	require.Len(t, countries, 3)
	assert.Equal(t, "RU", countries[0].ISO)
	assert.Equal(t, "Russia", countries[0].Name)
	assert.Equal(t, "Ruble", countries[0].CurrencyName)
	assert.Equal(t, 17100000.0, countries[0].AreaSqKm)
	assert.Equal(t, "144478050", countries[0].Population)
	assert.Equal(t, "NA", countries[2].ISO)
}

func TestLoader_LoadAdminDivisions(t *testing.T) {
	dir := writeFixtures(t)
	loader, err := NewLoader(dir)
	require.NoError(t, err)

	admins, _, err := loader.LoadAdminDivisions(context.Background())
	require.NoError(t, err)
	require.Len(t, admins, 2)
	assert.Equal(t, "RU.48", admins[0].Code)
	assert.Equal(t, "Almaty Oblysy", admins[1].NameASCII)
}

func TestLoader_LoadAll(t *testing.T) {
	dir := writeFixtures(t)
	loader, err := NewLoader(dir)
	require.NoError(t, err)

	tables, err := loader.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, tables.Cities, 4)
	assert.Len(t, tables.Countries, 3)
	assert.Len(t, tables.AdminDivisions, 2)
	assert.Len(t, tables.Stats, 3)
}

func TestLoader_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("empty file name", func(t *testing.T) {
		loader, err := NewLoader(dir, WithCitiesFile(""))
		require.NoError(t, err)
		_, _, err = loader.LoadCities(context.Background())
		assert.ErrorIs(t, err, ErrEmptyFileName)
	})

	t.Run("missing file", func(t *testing.T) {
		loader, err := NewLoader(dir)
		require.NoError(t, err)
		_, _, err = loader.LoadCountries(context.Background())
		assert.ErrorIs(t, err, ErrFileNotAccessible)
	})

	t.Run("missing file fails LoadAll", func(t *testing.T) {
		loader, err := NewLoader(dir)
		require.NoError(t, err)
		_, err = loader.LoadAll(context.Background())
		assert.ErrorIs(t, err, ErrFileNotAccessible)
	})
}

func TestLoader_ZipArchive(t *testing.T) {
	t.Run("explicit zip name", func(t *testing.T) {
		dir := t.TempDir()
		writeZip(t, filepath.Join(dir, "cities500.zip"), "cities500.txt", citiesFixture)

		loader, err := NewLoader(dir, WithCitiesFile("cities500.zip"))
		require.NoError(t, err)
		cities, _, err := loader.LoadCities(context.Background())
		require.NoError(t, err)
		assert.Len(t, cities, 4)
	})

	t.Run("txt name falls back to zip sibling", func(t *testing.T) {
		dir := t.TempDir()
		writeZip(t, filepath.Join(dir, "cities500.zip"), "cities500.txt", citiesFixture)

		loader, err := NewLoader(dir)
		require.NoError(t, err)
		cities, _, err := loader.LoadCities(context.Background())
		require.NoError(t, err)
		assert.Len(t, cities, 4)
	})

	t.Run("zip without entry", func(t *testing.T) {
		dir := t.TempDir()
		writeZip(t, filepath.Join(dir, "cities500.zip"), "readme.txt", "hello")

		loader, err := NewLoader(dir, WithCitiesFile("cities500.zip"))
		require.NoError(t, err)
		_, _, err = loader.LoadCities(context.Background())
		assert.ErrorIs(t, err, ErrFileNotAccessible)
	})
}

func TestLoader_Cancelled(t *testing.T) {
	dir := t.TempDir()
	var rows []byte
	for i := 0; i < ctxCheckInterval+1; i++ {
		rows = append(rows, "RU.01\tA\tA\t1\n"...)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultAdminFile), rows, 0644))

	loader, err := NewLoader(dir)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = loader.LoadAdminDivisions(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
