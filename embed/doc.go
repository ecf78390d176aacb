// Package embed turns city names into normalized embedding vectors.
//
// Names are embedded in small batches on a worker pool, with retry and
// exponential backoff around each embedding call. Vectors already present
// in the embedding cache are reused, so an interrupted run picks up where
// it stopped.
package embed
