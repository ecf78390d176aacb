package storage

import (
	"context"

	"github.com/poiesic/geofind/core"
)

// DatasetRepository holds the cleaned GeoNames tables and name embeddings
// between pipeline stages. Each Save call replaces the stored dataset.
// Implementations must be thread-safe.
type DatasetRepository interface {
	// SaveCities replaces the stored city table.
	SaveCities(ctx context.Context, cities []core.City) error
	// LoadCities returns every stored city ordered by geoname id.
	LoadCities(ctx context.Context) ([]core.City, error)

	// SaveCountries replaces the stored country table.
	SaveCountries(ctx context.Context, countries []core.Country) error
	// LoadCountries returns every stored country ordered by ISO code.
	LoadCountries(ctx context.Context) ([]core.Country, error)

	// SaveAdminDivisions replaces the stored admin division table.
	SaveAdminDivisions(ctx context.Context, admins []core.AdminDivision) error
	// LoadAdminDivisions returns every stored admin division ordered by code.
	LoadAdminDivisions(ctx context.Context) ([]core.AdminDivision, error)

	// SaveEmbeddings replaces the stored name embeddings.
	SaveEmbeddings(ctx context.Context, embeddings []core.Embedding) error
	// LoadEmbeddings returns every stored embedding ordered by name.
	LoadEmbeddings(ctx context.Context) ([]core.Embedding, error)

	// Stats reports how many rows each dataset holds.
	Stats(ctx context.Context) (DatasetStats, error)

	// Close releases resources held by the repository.
	Close() error
}

// DatasetStats counts the rows of each stored dataset.
type DatasetStats struct {
	Cities         int
	Countries      int
	AdminDivisions int
	Embeddings     int
}

// EmbeddingCache stores computed name vectors keyed by content ID so that
// interrupted or repeated embedding runs skip work already done.
type EmbeddingCache interface {
	// GetEmbeddings returns the cached vectors for the given keys.
	// Missing keys are absent from the result map.
	GetEmbeddings(ctx context.Context, keys ...core.ID) (map[core.ID][]float32, error)

	// PutEmbeddings stores vectors under the given keys.
	PutEmbeddings(ctx context.Context, entries map[core.ID][]float32) error
}

// CheckpointRepository persists pipeline progress.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint for a pipeline stage.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a stage.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, stage string) (*core.Checkpoint, error)

	// CheckpointFor retrieves the checkpoint for a stage written with model.
	// Returns nil, nil if no checkpoint exists, and the stored checkpoint
	// with ErrModelMismatch if it was written with another model.
	CheckpointFor(ctx context.Context, stage, model string) (*core.Checkpoint, error)
}

// CityFilter restricts the rows returned by CatalogRepository.CityRecords.
type CityFilter struct {
	// Countries lists country names (not codes) to include. Must not be empty.
	Countries []string
	// MinPopulation excludes cities with a smaller population.
	MinPopulation int64
}

// CatalogCounts reports the row count of each relational table.
type CatalogCounts struct {
	Cities         int64
	Countries      int64
	AdminDivisions int64
	Embeddings     int64
}

// CatalogRepository is the relational store the web lookup reads from.
type CatalogRepository interface {
	// CreateSchema creates tables and foreign keys if they do not exist.
	CreateSchema(ctx context.Context) error

	// LoadAdminDivisions inserts admin divisions. Existing keys are left unchanged.
	LoadAdminDivisions(ctx context.Context, admins []core.AdminDivision) error
	// LoadEmbeddings inserts name embeddings. Existing keys are left unchanged.
	LoadEmbeddings(ctx context.Context, embeddings []core.Embedding) error
	// LoadCountries inserts countries. Existing keys are left unchanged.
	LoadCountries(ctx context.Context, countries []core.Country) error
	// LoadCities inserts cities. Referenced admin divisions, embeddings and
	// countries must already be loaded.
	LoadCities(ctx context.Context, cities []core.City) error

	// CityRecords returns cities joined with their country, admin division and
	// embedding, ordered by city name.
	CityRecords(ctx context.Context, filter CityFilter) ([]core.CityRecord, error)

	// Counts reports how many rows each table holds.
	Counts(ctx context.Context) (CatalogCounts, error)

	// Close closes the underlying connection pool.
	Close() error
}
