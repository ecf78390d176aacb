package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Corrector maps a misspelled, abbreviated or transliterated city query
// to a canonical city name.
// Implementations must be thread-safe for concurrent use.
type Corrector interface {
	// Correct proposes the city the query most likely refers to. candidates,
	// when not empty, are known names the answer should be drawn from.
	// Returns a zero Correction if no city can be identified.
	Correct(ctx context.Context, query string, candidates []string) (Correction, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Corrector returns the query correction service.
	Corrector() Corrector

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
