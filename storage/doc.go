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


// Package storage provides the storage abstraction layer for geofind.
//
// Two kinds of store sit behind these interfaces:
//
//   - A local key-value dataset store (package storage/badger) that holds the
//     cleaned GeoNames tables, the embedding cache and pipeline checkpoints.
//   - A relational catalog (package storage/sql) that the lookup service reads
//     joined city records from.
//
// # Constructor Return Type Pattern
//
// Public constructors return the interfaces defined here:
//
//	repo, err := badger.NewDatasetRepository(backend)  // storage.DatasetRepository
//	cat, err := sql.Open(dsn)                          // storage.CatalogRepository
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/data", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// Use in tests with in-memory storage:
//
//	datasets, cache, checkpoints, backend, err := badger.NewMemoryRepositories()
//
// # Serialization
//
// Records stored in BadgerDB are encoded with MUS (see serialization.go).
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support.
package storage
