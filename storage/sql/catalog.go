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


package sql

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/geofind/core"
	"github.com/poiesic/geofind/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const cityRecordColumns = `city.city_geoname_id AS geoname_id,
	city.name,
	city.alternatenames,
	admincode.name AS oblast,
	country.country,
	country.capital,
	country.currency_name,
	city.timezone,
	city.latitude,
	city.longitude,
	city.population,
	embeddings.embeddings`

// Catalog implements storage.CatalogRepository with gorm.
type Catalog struct {
	db        *gorm.DB
	dialect   string
	chunkSize int
	logger    *slog.Logger
}

var _ storage.CatalogRepository = (*Catalog)(nil)

// CreateSchema creates the four catalog tables and their foreign keys.
func (c *Catalog) CreateSchema(ctx context.Context) error {
	db := c.db.WithContext(ctx)
	if c.dialect == dialectPostgres {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
			return fmt.Errorf("creating vector extension: %w", err)
		}
	}
	if err := db.AutoMigrate(&adminRow{}, &embeddingRow{}, &countryRow{}, &cityRow{}); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	c.logger.Info("catalog schema ready")
	return nil
}

// LoadAdminDivisions inserts admin divisions. Existing keys are left unchanged.
func (c *Catalog) LoadAdminDivisions(ctx context.Context, admins []core.AdminDivision) error {
	rows := make([]adminRow, len(admins))
	for i, a := range admins {
		rows[i] = adminRow{Code: a.Code, Name: a.Name, NameASCII: a.NameASCII}
	}
	return insert(ctx, c, "admincode", rows)
}

// LoadEmbeddings inserts name embeddings. Existing keys are left unchanged.
func (c *Catalog) LoadEmbeddings(ctx context.Context, embeddings []core.Embedding) error {
	rows := make([]embeddingRow, len(embeddings))
	for i, e := range embeddings {
		rows[i] = embeddingRow{Key: e.Name, Embeddings: pgvector.NewVector(e.Vector)}
	}
	return insert(ctx, c, "embeddings", rows)
}

// LoadCountries inserts countries. Existing keys are left unchanged.
func (c *Catalog) LoadCountries(ctx context.Context, countries []core.Country) error {
	rows := make([]countryRow, len(countries))
	for i := range countries {
		rows[i] = fromCountry(&countries[i])
	}
	return insert(ctx, c, "country", rows)
}

// LoadCities inserts cities. Existing keys are left unchanged.
func (c *Catalog) LoadCities(ctx context.Context, cities []core.City) error {
	rows := make([]cityRow, len(cities))
	for i := range cities {
		rows[i] = fromCity(&cities[i])
	}
	return insert(ctx, c, "city", rows)
}

// insert writes rows in chunks, skipping rows whose key already exists.
func insert[T any](ctx context.Context, c *Catalog, table string, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	err := c.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		CreateInBatches(&rows, c.chunkSize).Error
	if err != nil {
		return fmt.Errorf("loading %s: %w", table, err)
	}
	c.logger.Info("loaded table", "table", table, "rows", len(rows))
	return nil
}

// CityRecords returns cities of the filtered countries joined with their
// region, country and embedding, ordered by city name.
func (c *Catalog) CityRecords(ctx context.Context, filter storage.CityFilter) ([]core.CityRecord, error) {
	if len(filter.Countries) == 0 {
		return nil, fmt.Errorf("%w: at least one country is required", storage.ErrInvalidQuery)
	}
	if filter.MinPopulation < 0 {
		return nil, fmt.Errorf("%w: negative population %d", storage.ErrInvalidQuery, filter.MinPopulation)
	}

	var rows []cityRecordRow
	err := c.db.WithContext(ctx).
		Table("city").
		Select(cityRecordColumns).
		Joins("JOIN country ON city.country_code_iso = country.iso").
		Joins("JOIN embeddings ON embeddings.name = city.name").
		Joins("JOIN admincode ON admincode.admin_code = city.admin_code").
		Where("country.country IN ?", filter.Countries).
		Where("city.population >= ?", filter.MinPopulation).
		Order("city.name ASC").
		Order("city.city_geoname_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying city records: %w", err)
	}

	records := make([]core.CityRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].record()
	}
	c.logger.Debug("loaded city records", "countries", filter.Countries, "population", filter.MinPopulation, "records", len(records))
	return records, nil
}

// Counts reports how many rows each table holds.
func (c *Catalog) Counts(ctx context.Context) (storage.CatalogCounts, error) {
	var counts storage.CatalogCounts
	db := c.db.WithContext(ctx)
	for _, q := range []struct {
		model any
		dest  *int64
	}{
		{&cityRow{}, &counts.Cities},
		{&countryRow{}, &counts.Countries},
		{&adminRow{}, &counts.AdminDivisions},
		{&embeddingRow{}, &counts.Embeddings},
	} {
		if err := db.Model(q.model).Count(q.dest).Error; err != nil {
			return counts, err
		}
	}
	return counts, nil
}

// Close closes the underlying connection pool.
func (c *Catalog) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
