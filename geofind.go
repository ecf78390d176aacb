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


package geofind

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/poiesic/geofind/ai"
	"github.com/poiesic/geofind/ai/openai"
	"github.com/poiesic/geofind/config"
	"github.com/poiesic/geofind/core"
	"github.com/poiesic/geofind/embed"
	"github.com/poiesic/geofind/geonames"
	"github.com/poiesic/geofind/search"
	"github.com/poiesic/geofind/speller"
	"github.com/poiesic/geofind/storage"
	"github.com/poiesic/geofind/storage/badger"
	"github.com/poiesic/geofind/storage/sql"
)

// Geofind ties the pipeline stores, the model services and the catalog
// together.
type Geofind struct {
	config      *config.Config
	backend     *badger.Backend
	datasets    storage.DatasetRepository
	cache       storage.EmbeddingCache
	checkpoints storage.CheckpointRepository
	catalog     storage.CatalogRepository
	provider    ai.AIProvider
	progress    io.Writer
	logger      *slog.Logger
}

// Option configures a Geofind.
type Option func(*options)

type options struct {
	provider ai.AIProvider
	catalog  storage.CatalogRepository
	progress io.Writer
}

// WithProvider uses provider instead of the OpenAI-compatible services
// described by the configuration.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithCatalog uses catalog instead of opening the configured database.
func WithCatalog(catalog storage.CatalogRepository) Option {
	return func(o *options) {
		o.catalog = catalog
	}
}

// WithProgress sets where embedding progress is written.
// Default is os.Stderr.
func WithProgress(w io.Writer) Option {
	return func(o *options) {
		o.progress = w
	}
}

// Open opens the dataset store under cfg.Paths.Data and the model services.
// The catalog is connected on first use so that the catalog database can be
// created first.
func Open(cfg *config.Config, opts ...Option) (*Geofind, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &options{progress: os.Stderr}
	for _, opt := range opts {
		opt(o)
	}

	backend, err := badger.OpenBackend(cfg.Paths.Data, false)
	if err != nil {
		return nil, fmt.Errorf("opening dataset store: %w", err)
	}

	datasets, err := badger.NewDatasetRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := o.provider
	if provider == nil {
		provider, err = openai.NewProvider(cfg.AIConfig())
		if err != nil {
			datasets.Close()
			backend.Close()
			return nil, fmt.Errorf("creating AI provider: %w", err)
		}
	}

	return &Geofind{
		config:      cfg,
		backend:     backend,
		datasets:    datasets,
		cache:       badger.NewEmbeddingCache(backend),
		checkpoints: badger.NewCheckpointRepository(backend),
		catalog:     o.catalog,
		provider:    provider,
		progress:    o.progress,
		logger:      slog.Default().With("component", "geofind"),
	}, nil
}

func (g *Geofind) Close() error {
	var errs []error
	if err := g.provider.Close(); err != nil {
		g.logger.Error("error closing AI provider", "err", err)
	}
	if g.catalog != nil {
		if err := g.catalog.Close(); err != nil {
			g.logger.Error("error closing catalog", "err", err)
			errs = append(errs, err)
		}
	}
	if err := g.datasets.Close(); err != nil {
		g.logger.Error("error closing dataset repository", "err", err)
		errs = append(errs, err)
	}
	if err := g.backend.Close(); err != nil {
		g.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (g *Geofind) Datasets() storage.DatasetRepository {
	return g.datasets
}

// Catalog returns the relational catalog, connecting on first call.
func (g *Geofind) Catalog() (storage.CatalogRepository, error) {
	if g.catalog != nil {
		return g.catalog, nil
	}
	catalog, err := sql.Open(g.config.DSN(), sql.WithChunkSize(g.config.Database.ChunkSize))
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	g.catalog = catalog
	return catalog, nil
}

// Download fetches the GeoNames dumps into the source directory.
func (g *Geofind) Download(ctx context.Context, force bool) error {
	d := geonames.NewDownloader(g.config.Paths.Source, geonames.WithForce(force))
	return d.Download(ctx)
}

// BuildDatasets loads the GeoNames dumps, cleans them, embeds every distinct
// city name and replaces the contents of the dataset store.
func (g *Geofind) BuildDatasets(ctx context.Context) (storage.DatasetStats, error) {
	loader, err := geonames.NewLoader(g.config.Paths.Source,
		geonames.WithCitiesFile(g.config.Files.Cities),
		geonames.WithCountriesFile(g.config.Files.Countries),
		geonames.WithAdminFile(g.config.Files.Admin),
	)
	if err != nil {
		return storage.DatasetStats{}, err
	}

	tables, err := loader.LoadAll(ctx)
	if err != nil {
		return storage.DatasetStats{}, fmt.Errorf("loading dumps: %w", err)
	}
	for _, s := range tables.Stats {
		g.logger.Info("loaded file", "file", s.File, "rows", s.Rows, "kept", s.Kept, "skipped", s.Skipped,
			"reduction", fmt.Sprintf("%.1f%%", s.Reduction()))
	}

	cities, dropped := geonames.PreprocessCities(tables.Cities)
	cities = keepValid(g.logger, "cities", cities, core.ValidateCity)
	countries := keepValid(g.logger, "countries", geonames.PreprocessCountries(tables.Countries), core.ValidateCountry)
	admins, added := geonames.ReconcileAdminDivisions(cities, tables.AdminDivisions)
	admins = keepValid(g.logger, "admin divisions", admins, core.ValidateAdminDivision)
	g.logger.Info("preprocessed tables", "cities", len(cities), "dropped", dropped, "placeholder_admins", added)

	generator, err := embed.NewGenerator(g.provider.Embedder(), g.config.AI.EmbeddingModel,
		embed.WithCache(g.cache),
		embed.WithCheckpoints(g.checkpoints),
		embed.WithConfig(g.config.EmbedConfig()),
		embed.WithProgress(g.progress),
	)
	if err != nil {
		return storage.DatasetStats{}, err
	}
	embeddings, err := generator.Run(ctx, geonames.UniqueNames(cities))
	if err != nil {
		return storage.DatasetStats{}, fmt.Errorf("embedding city names: %w", err)
	}
	for i := range embeddings {
		if err := core.ValidateEmbedding(&embeddings[i]); err != nil {
			return storage.DatasetStats{}, fmt.Errorf("embedding %q: %w", embeddings[i].Name, err)
		}
	}

	if err := g.datasets.SaveCities(ctx, cities); err != nil {
		return storage.DatasetStats{}, fmt.Errorf("saving cities: %w", err)
	}
	if err := g.datasets.SaveCountries(ctx, countries); err != nil {
		return storage.DatasetStats{}, fmt.Errorf("saving countries: %w", err)
	}
	if err := g.datasets.SaveAdminDivisions(ctx, admins); err != nil {
		return storage.DatasetStats{}, fmt.Errorf("saving admin divisions: %w", err)
	}
	if err := g.datasets.SaveEmbeddings(ctx, embeddings); err != nil {
		return storage.DatasetStats{}, fmt.Errorf("saving embeddings: %w", err)
	}
	return g.datasets.Stats(ctx)
}

// keepValid drops the records validate rejects, logging how many went.
func keepValid[T any](logger *slog.Logger, table string, records []T, validate func(*T) error) []T {
	kept := records[:0]
	var skipped int
	for i := range records {
		if err := validate(&records[i]); err != nil {
			if skipped == 0 {
				logger.Warn("skipping invalid record", "table", table, "err", err)
			}
			skipped++
			continue
		}
		kept = append(kept, records[i])
	}
	if skipped > 0 {
		logger.Warn("invalid records skipped", "table", table, "skipped", skipped)
	}
	return kept
}

// CreateDatabase creates the catalog database on the server. An existing
// database is left alone.
func (g *Geofind) CreateDatabase(ctx context.Context) error {
	return sql.CreateDatabase(ctx, g.config.DefaultDSN(), g.config.DatabaseName())
}

// FillDatabase creates the catalog schema and copies the dataset store into
// it, parents before the cities that reference them.
func (g *Geofind) FillDatabase(ctx context.Context) (storage.CatalogCounts, error) {
	catalog, err := g.Catalog()
	if err != nil {
		return storage.CatalogCounts{}, err
	}
	if err := catalog.CreateSchema(ctx); err != nil {
		return storage.CatalogCounts{}, fmt.Errorf("creating schema: %w", err)
	}

	admins, err := g.datasets.LoadAdminDivisions(ctx)
	if err != nil {
		return storage.CatalogCounts{}, err
	}
	if err := catalog.LoadAdminDivisions(ctx, admins); err != nil {
		return storage.CatalogCounts{}, fmt.Errorf("loading admin divisions: %w", err)
	}

	embeddings, err := g.datasets.LoadEmbeddings(ctx)
	if err != nil {
		return storage.CatalogCounts{}, err
	}
	if err := catalog.LoadEmbeddings(ctx, embeddings); err != nil {
		return storage.CatalogCounts{}, fmt.Errorf("loading embeddings: %w", err)
	}

	countries, err := g.datasets.LoadCountries(ctx)
	if err != nil {
		return storage.CatalogCounts{}, err
	}
	if err := catalog.LoadCountries(ctx, countries); err != nil {
		return storage.CatalogCounts{}, fmt.Errorf("loading countries: %w", err)
	}

	cities, err := g.datasets.LoadCities(ctx)
	if err != nil {
		return storage.CatalogCounts{}, err
	}
	if err := catalog.LoadCities(ctx, cities); err != nil {
		return storage.CatalogCounts{}, fmt.Errorf("loading cities: %w", err)
	}

	return catalog.Counts(ctx)
}

// NewFinder loads the searchable cities from the catalog and builds a
// finder configured from the spell-check, corrector and output settings.
func (g *Geofind) NewFinder(ctx context.Context, opts ...search.Option) (*search.Finder, error) {
	catalog, err := g.Catalog()
	if err != nil {
		return nil, err
	}

	finderOpts := []search.Option{search.WithOutputDir(g.config.Paths.Output)}
	if g.config.Speller.Enabled {
		finderOpts = append(finderOpts, search.WithSpeller(speller.New(g.config.SpellerOptions()...)))
	}
	if g.config.AI.Corrector {
		finderOpts = append(finderOpts, search.WithCorrector(g.provider.Corrector()))
	}
	finderOpts = append(finderOpts, opts...)

	return search.Load(ctx, catalog, g.config.CityFilter(), g.provider.Embedder(), finderOpts...)
}
