package geofind

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/geofind/ai/mock"
	"github.com/poiesic/geofind/config"
	"github.com/poiesic/geofind/core"
	"github.com/poiesic/geofind/search"
	"github.com/poiesic/geofind/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	citiesDump = strings.Join([]string{
		"524901\tMoscow\tMoscow\tMOW,Moskau,Moskva,Москва\t55.75222\t37.61556\tP\tPPLC\tRU\t\t48\t\t\t\t10381222\t\t144\tEurope/Moscow\t2022-12-10",
		"1526384\tAlmaty\tAlmaty\tAlma-Ata,Almaty,Алматы\t43.25\t76.91667\tP\tPPLA\tKZ\t\t02\t\t\t\t2000900\t\t786\tAsia/Almaty\t2023-01-01",
		"1496153\tOmsk\t\t\t54.99244\t73.36859\tP\tPPLA\tRU\t\t54\t\t\t\t1129281\t\t94\tAsia/Omsk\t2019-09-05",
	}, "\n") + "\n"

	countriesDump = strings.Join([]string{
		"#ISO\tISO3\tISO-Numeric\tfips\tCountry\tCapital\tArea(in sq km)\tPopulation\tContinent\ttld\tCurrencyCode\tCurrencyName\tPhone\tPostal Code Format\tPostal Code Regex\tLanguages\tgeonameid\tneighbours\tEquivalentFipsCode",
		"RU\tRUS\t643\tRS\tRussia\tMoscow\t17100000\t144478050\tEU\t.ru\tRUB\tRuble\t7\t######\t^(\\d{6})$\tru,tt,xal\t2017370\tGE,CN\t",
		"KZ\tKAZ\t398\tKZ\tKazakhstan\tAstana\t2717300\t18276499\tAS\t.kz\tKZT\tTenge\t7\t######\t^(\\d{6})$\tkk,ru\t1522867\tTM,CN\t",
	}, "\n") + "\n"

	adminDump = "RU.48\tMoscow\tMoscow\t524894\nKZ.02\tAlmaty Oblysy\tAlmaty Oblysy\t1537162\n"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	source := filepath.Join(root, "raw")
	require.NoError(t, os.MkdirAll(source, 0755))

	cfg := config.Default()
	require.NoError(t, os.WriteFile(filepath.Join(source, cfg.Files.Cities), []byte(citiesDump), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(source, cfg.Files.Countries), []byte(countriesDump), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(source, cfg.Files.Admin), []byte(adminDump), 0644))

	cfg.Paths.Source = source
	cfg.Paths.Data = filepath.Join(root, "store")
	cfg.Paths.Output = filepath.Join(root, "output")
	cfg.Database.URL = "sqlite://" + filepath.Join(root, "geonames.db")
	cfg.Speller.Enabled = false
	cfg.Search.Population = 0
	return cfg
}

func TestOpen(t *testing.T) {
	t.Run("valid configuration", func(t *testing.T) {
		g, err := Open(testConfig(t), WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		defer g.Close()

		assert.NotNil(t, g.Datasets())
		assert.NotNil(t, g.backend)
	})

	t.Run("invalid configuration", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Search.TopK = 0
		_, err := Open(cfg, WithProvider(mock.NewMockProvider()))
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})

	t.Run("data path is a file", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Paths.Data = filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(cfg.Paths.Data, []byte("test"), 0644))
		_, err := Open(cfg, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
	})
}

func TestPipeline(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	provider := mock.NewMockProvider()

	g, err := Open(cfg, WithProvider(provider), WithProgress(io.Discard))
	require.NoError(t, err)
	defer g.Close()

	stats, err := g.BuildDatasets(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.DatasetStats{Cities: 3, Countries: 2, AdminDivisions: 3, Embeddings: 3}, stats)

	counts, err := g.FillDatabase(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.CatalogCounts{Cities: 3, Countries: 2, AdminDivisions: 3, Embeddings: 3}, counts)

	// refilling leaves existing rows in place
	counts, err = g.FillDatabase(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts.Cities)

	finder, err := g.NewFinder(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, finder.Len())

	res, err := finder.Find(ctx, search.Query{Text: "Москва", TopK: 2, AdvancedSpellCheck: true, SaveJSON: true})
	require.NoError(t, err)
	assert.Equal(t, "Moscow", res.Corrected)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, "Moscow", res.Matches[0].Name)
	assert.Equal(t, "Russia", res.Matches[0].Country)
	assert.Equal(t, "Moscow", res.Matches[0].Region)

	_, err = os.Stat(filepath.Join(cfg.Paths.Output, "Moscow.json"))
	assert.NoError(t, err)
}

func TestBuildDatasets_ReusesCachedEmbeddings(t *testing.T) {
	ctx := context.Background()
	embedder := mock.NewMockEmbedder()
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockCorrector())

	g, err := Open(testConfig(t), WithProvider(provider), WithProgress(io.Discard))
	require.NoError(t, err)
	defer g.Close()

	_, err = g.BuildDatasets(ctx)
	require.NoError(t, err)
	calls := embedder.CallCount()
	require.Positive(t, calls)

	_, err = g.BuildDatasets(ctx)
	require.NoError(t, err)
	assert.Equal(t, calls, embedder.CallCount())
}

func TestBuildDatasets_MissingDumps(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.Source = t.TempDir()

	g, err := Open(cfg, WithProvider(mock.NewMockProvider()), WithProgress(io.Discard))
	require.NoError(t, err)
	defer g.Close()

	_, err = g.BuildDatasets(context.Background())
	assert.Error(t, err)
}

func TestBuildDatasets_SkipsInvalidRecords(t *testing.T) {
	cfg := testConfig(t)
	nameless := "XX\tXXX\t999\tXX\t\t\t0\t0\tEU\t\t\t\t\t\t\t\t0\t\t\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Paths.Source, cfg.Files.Countries),
		[]byte(countriesDump+nameless), 0644))

	g, err := Open(cfg, WithProvider(mock.NewMockProvider()), WithProgress(io.Discard))
	require.NoError(t, err)
	defer g.Close()

	stats, err := g.BuildDatasets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Countries)
	assert.Equal(t, 3, stats.Cities)
}

func TestBuildDatasets_RejectsEmptyVectors(t *testing.T) {
	ctx := context.Background()
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		return make([][]float32, len(texts)), nil
	}
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockCorrector())

	g, err := Open(testConfig(t), WithProvider(provider), WithProgress(io.Discard))
	require.NoError(t, err)
	defer g.Close()

	_, err = g.BuildDatasets(ctx)
	require.ErrorIs(t, err, core.ErrInvalidEmbedding)

	stats, err := g.Datasets().Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Cities, "nothing is saved when an embedding is invalid")
	assert.Zero(t, stats.Embeddings)
}

func TestKeepValid(t *testing.T) {
	admins := []core.AdminDivision{
		{Code: "RU.48", Name: "Moscow"},
		{Code: "RU", Name: "Broken"},
		{Code: "KZ.02", Name: ""},
		{Code: "KZ.02", Name: "Almaty Oblysy"},
	}

	kept := keepValid(slog.New(slog.NewTextHandler(io.Discard, nil)), "admin divisions", admins, core.ValidateAdminDivision)
	require.Len(t, kept, 2)
	assert.Equal(t, "RU.48", kept[0].Code)
	assert.Equal(t, "Almaty Oblysy", kept[1].Name)
}
