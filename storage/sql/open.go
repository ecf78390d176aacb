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
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/poiesic/geofind/storage"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	dialectPostgres = "postgres"
	dialectSQLite   = "sqlite"

	// DefaultChunkSize is the number of rows inserted per statement.
	DefaultChunkSize = 10000

	// duplicateDatabase is the SQLSTATE for CREATE DATABASE on an existing name.
	duplicateDatabase = "42P04"
)

type options struct {
	logger        *slog.Logger
	chunkSize     int
	slowThreshold time.Duration
}

// Option configures a catalog.
type Option func(*options)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithChunkSize sets how many rows are inserted per statement.
func WithChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithSlowThreshold sets the duration above which statements are logged
// as slow.
func WithSlowThreshold(d time.Duration) Option {
	return func(o *options) {
		o.slowThreshold = d
	}
}

// ParseDSN returns the dialect and driver DSN for a database URL.
// SQLAlchemy style postgres prefixes are accepted.
func ParseDSN(dsn string) (dialect, driverDSN string, err error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return "", "", fmt.Errorf("%w: empty database url", storage.ErrUnsupportedDialect)
	case strings.HasPrefix(dsn, "postgresql+psycopg2://"):
		return dialectPostgres, "postgres://" + strings.TrimPrefix(dsn, "postgresql+psycopg2://"), nil
	case strings.HasPrefix(dsn, "postgresql://"):
		return dialectPostgres, "postgres://" + strings.TrimPrefix(dsn, "postgresql://"), nil
	case strings.HasPrefix(dsn, "postgres://"):
		return dialectPostgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return dialectSQLite, strings.TrimPrefix(dsn, "sqlite://"), nil
	case strings.HasPrefix(dsn, "file:"), dsn == ":memory:":
		return dialectSQLite, dsn, nil
	case strings.Contains(dsn, "://"):
		scheme, _, _ := strings.Cut(dsn, "://")
		return "", "", fmt.Errorf("%w: %s", storage.ErrUnsupportedDialect, scheme)
	default:
		// key=value PostgreSQL DSN
		return dialectPostgres, dsn, nil
	}
}

// Open connects to the catalog database at dsn.
//
// Returns storage.CatalogRepository interface to enforce abstraction.
func Open(dsn string, opts ...Option) (storage.CatalogRepository, error) {
	return open(dsn, opts...)
}

func open(dsn string, opts ...Option) (*Catalog, error) {
	o := options{
		logger:        slog.Default(),
		chunkSize:     DefaultChunkSize,
		slowThreshold: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&o)
	}

	dialect, driverDSN, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}

	logger := o.logger.With("component", "catalog", "dialect", dialect)
	config := &gorm.Config{
		Logger: newGormLogger(logger, o.slowThreshold),
	}

	var dialector gorm.Dialector
	switch dialect {
	case dialectPostgres:
		dialector = postgres.Open(driverDSN)
	case dialectSQLite:
		dialector = sqlite.Open(driverDSN)
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, fmt.Errorf("opening %s catalog: %w", dialect, err)
	}

	return &Catalog{
		db:        db,
		dialect:   dialect,
		chunkSize: o.chunkSize,
		logger:    logger,
	}, nil
}

// CreateDatabase creates database name on the PostgreSQL server reached
// through defaultDSN (usually its "postgres" database). An existing
// database is not an error.
func CreateDatabase(ctx context.Context, defaultDSN, name string) error {
	dialect, driverDSN, err := ParseDSN(defaultDSN)
	if err != nil {
		return err
	}
	if dialect != dialectPostgres {
		return fmt.Errorf("%w: CREATE DATABASE needs postgres, got %s", storage.ErrUnsupportedDialect, dialect)
	}

	db, err := sql.Open("postgres", driverDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name))
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == duplicateDatabase {
		slog.Default().Info("database already exists", "component", "catalog", "database", name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("creating database %q: %w", name, err)
	}
	slog.Default().Info("created database", "component", "catalog", "database", name)
	return nil
}
