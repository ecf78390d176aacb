// Package index implements exact nearest neighbor search over unit
// vectors by cosine similarity.
package index

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidTopK is returned when fewer than one result is requested.
	ErrInvalidTopK = errors.New("top k must be at least 1")

	// ErrDimensionMismatch is returned when a vector's length differs from
	// the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Hit is a search result: the position of a stored vector and its cosine
// similarity to the query.
type Hit struct {
	Pos   int
	Score float32
}

// Index is a brute-force cosine similarity index. Vectors are normalized
// on insert so that a search is one dot product per stored vector.
// An Index is not safe for concurrent Add; concurrent Search is fine.
type Index struct {
	dim     int
	vectors [][]float32
}

// New creates an empty index. The dimension is fixed by the first Add.
func New() *Index {
	return &Index{}
}

// Add stores a normalized copy of v and returns its position.
func (idx *Index) Add(v []float32) (int, error) {
	if len(v) == 0 {
		return 0, fmt.Errorf("%w: empty vector", ErrDimensionMismatch)
	}
	if idx.dim == 0 {
		idx.dim = len(v)
	}
	if len(v) != idx.dim {
		return 0, fmt.Errorf("%w: index has %d, vector has %d", ErrDimensionMismatch, idx.dim, len(v))
	}
	idx.vectors = append(idx.vectors, Normalize(v))
	return len(idx.vectors) - 1, nil
}

// Len returns the number of stored vectors.
func (idx *Index) Len() int {
	return len(idx.vectors)
}

// Dim returns the vector dimension, zero while the index is empty.
func (idx *Index) Dim() int {
	return idx.dim
}

// Search returns the min(k, Len()) stored vectors most similar to query,
// by descending score. Equal scores keep insertion order.
func (idx *Index) Search(query []float32, k int) ([]Hit, error) {
	if k < 1 {
		return nil, ErrInvalidTopK
	}
	if len(idx.vectors) == 0 {
		return []Hit{}, nil
	}
	if len(query) != idx.dim {
		return nil, fmt.Errorf("%w: index has %d, query has %d", ErrDimensionMismatch, idx.dim, len(query))
	}

	q := Normalize(query)
	hits := make([]Hit, len(idx.vectors))
	for i, v := range idx.vectors {
		hits[i] = Hit{Pos: i, Score: Dot(q, v)}
	}

	slices.SortStableFunc(hits, func(a, b Hit) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return hits[:min(k, len(hits))], nil
}
