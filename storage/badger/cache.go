package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/geofind/core"
	"github.com/poiesic/geofind/storage"
)

// EmbeddingCache implements storage.EmbeddingCache for BadgerDB.
// Vectors are stored as MUS-encoded embeddings with an empty name.
type EmbeddingCache struct {
	backend *Backend
}

var _ storage.EmbeddingCache = (*EmbeddingCache)(nil)

// NewEmbeddingCache creates a new EmbeddingCache.
func NewEmbeddingCache(backend *Backend) *EmbeddingCache {
	return &EmbeddingCache{
		backend: backend,
	}
}

// GetEmbeddings returns the cached vectors for the given keys.
func (c *EmbeddingCache) GetEmbeddings(ctx context.Context, keys ...core.ID) (map[core.ID][]float32, error) {
	found := make(map[core.ID][]float32, len(keys))
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range keys {
			item, err := tx.Get(makeCacheKey(id))
			if err != nil {
				if err == badger.ErrKeyNotFound {
					continue
				}
				return err
			}
			err = item.Value(func(val []byte) error {
				emb, err := storage.UnmarshalEmbedding(val)
				if err != nil {
					return err
				}
				found[id] = emb.Vector
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	return found, err
}

// PutEmbeddings stores vectors under the given keys.
func (c *EmbeddingCache) PutEmbeddings(ctx context.Context, entries map[core.ID][]float32) error {
	return c.backend.WithTx(func(tx *badger.Txn) error {
		for id, vector := range entries {
			value := storage.MarshalEmbedding(&core.Embedding{Vector: vector})
			if err := tx.Set(makeCacheKey(id), value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}
