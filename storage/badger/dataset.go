package badger

import (
	"context"
	"fmt"

	"github.com/poiesic/geofind/core"
	"github.com/poiesic/geofind/storage"
)

// DatasetRepository implements storage.DatasetRepository for BadgerDB.
type DatasetRepository struct {
	backend *Backend
}

var _ storage.DatasetRepository = (*DatasetRepository)(nil)

// NewDatasetRepository creates a new DatasetRepository.
func NewDatasetRepository(backend *Backend) (storage.DatasetRepository, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	return &DatasetRepository{
		backend: backend,
	}, nil
}

// Close releases resources. DatasetRepository has no resources to release.
func (r *DatasetRepository) Close() error {
	return nil
}

// SaveCities replaces the stored city table.
func (r *DatasetRepository) SaveCities(ctx context.Context, cities []core.City) error {
	return r.backend.replacePrefix([]byte(cityPrefix), len(cities), func(i int) ([]byte, []byte) {
		return makeCityKey(cities[i].GeonameID), storage.MarshalCity(&cities[i])
	})
}

// LoadCities returns every stored city ordered by geoname id.
func (r *DatasetRepository) LoadCities(ctx context.Context) ([]core.City, error) {
	var cities []core.City
	err := r.backend.scanPrefix([]byte(cityPrefix), func(val []byte) error {
		city, err := storage.UnmarshalCity(val)
		if err != nil {
			return err
		}
		cities = append(cities, *city)
		return nil
	})
	return cities, err
}

// SaveCountries replaces the stored country table.
func (r *DatasetRepository) SaveCountries(ctx context.Context, countries []core.Country) error {
	return r.backend.replacePrefix([]byte(countryPrefix), len(countries), func(i int) ([]byte, []byte) {
		return makeCountryKey(countries[i].ISO), storage.MarshalCountry(&countries[i])
	})
}

// LoadCountries returns every stored country ordered by ISO code.
func (r *DatasetRepository) LoadCountries(ctx context.Context) ([]core.Country, error) {
	var countries []core.Country
	err := r.backend.scanPrefix([]byte(countryPrefix), func(val []byte) error {
		country, err := storage.UnmarshalCountry(val)
		if err != nil {
			return err
		}
		countries = append(countries, *country)
		return nil
	})
	return countries, err
}

// SaveAdminDivisions replaces the stored admin division table.
func (r *DatasetRepository) SaveAdminDivisions(ctx context.Context, admins []core.AdminDivision) error {
	return r.backend.replacePrefix([]byte(adminPrefix), len(admins), func(i int) ([]byte, []byte) {
		return makeAdminKey(admins[i].Code), storage.MarshalAdminDivision(&admins[i])
	})
}

// LoadAdminDivisions returns every stored admin division ordered by code.
func (r *DatasetRepository) LoadAdminDivisions(ctx context.Context) ([]core.AdminDivision, error) {
	var admins []core.AdminDivision
	err := r.backend.scanPrefix([]byte(adminPrefix), func(val []byte) error {
		admin, err := storage.UnmarshalAdminDivision(val)
		if err != nil {
			return err
		}
		admins = append(admins, *admin)
		return nil
	})
	return admins, err
}

// SaveEmbeddings replaces the stored name embeddings.
func (r *DatasetRepository) SaveEmbeddings(ctx context.Context, embeddings []core.Embedding) error {
	return r.backend.replacePrefix([]byte(embeddingPrefix), len(embeddings), func(i int) ([]byte, []byte) {
		return makeEmbeddingKey(embeddings[i].Name), storage.MarshalEmbedding(&embeddings[i])
	})
}

// LoadEmbeddings returns every stored embedding ordered by name.
func (r *DatasetRepository) LoadEmbeddings(ctx context.Context) ([]core.Embedding, error) {
	var embeddings []core.Embedding
	err := r.backend.scanPrefix([]byte(embeddingPrefix), func(val []byte) error {
		emb, err := storage.UnmarshalEmbedding(val)
		if err != nil {
			return err
		}
		embeddings = append(embeddings, *emb)
		return nil
	})
	return embeddings, err
}

// Stats reports how many rows each dataset holds.
func (r *DatasetRepository) Stats(ctx context.Context) (storage.DatasetStats, error) {
	var stats storage.DatasetStats
	var err error
	if stats.Cities, err = r.backend.countPrefix([]byte(cityPrefix)); err != nil {
		return stats, err
	}
	if stats.Countries, err = r.backend.countPrefix([]byte(countryPrefix)); err != nil {
		return stats, err
	}
	if stats.AdminDivisions, err = r.backend.countPrefix([]byte(adminPrefix)); err != nil {
		return stats, err
	}
	stats.Embeddings, err = r.backend.countPrefix([]byte(embeddingPrefix))
	return stats, err
}
