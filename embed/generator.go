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


package embed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/geofind/ai"
	"github.com/poiesic/geofind/core"
	"github.com/poiesic/geofind/index"
	"github.com/poiesic/geofind/storage"
)

// CheckpointStage is the checkpoint name written after each successful run.
const CheckpointStage = "embed"

// Config holds configuration for an embedding run.
type Config struct {
	// BatchSize is the number of names sent to the embedder per call
	BatchSize int

	// PoolSize is the number of batches embedded concurrently
	PoolSize int

	// ReportInterval is how often to report progress (number of names)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      8,
		PoolSize:       max(runtime.NumCPU()/2, 1),
		ReportInterval: 1000,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Generator embeds city names.
type Generator struct {
	embedder    ai.Embedder
	model       string
	cache       storage.EmbeddingCache
	checkpoints storage.CheckpointRepository
	config      *Config
	progress    io.Writer
	logger      *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithCache reuses and stores vectors in cache.
func WithCache(cache storage.EmbeddingCache) Option {
	return func(g *Generator) {
		g.cache = cache
	}
}

// WithCheckpoints records a checkpoint after every successful run.
func WithCheckpoints(checkpoints storage.CheckpointRepository) Option {
	return func(g *Generator) {
		g.checkpoints = checkpoints
	}
}

// WithConfig replaces the default run configuration.
func WithConfig(config *Config) Option {
	return func(g *Generator) {
		if config != nil {
			g.config = config
		}
	}
}

// WithProgress writes a progress line to w while running.
func WithProgress(w io.Writer) Option {
	return func(g *Generator) {
		if w == nil {
			w = io.Discard
		}
		g.progress = w
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger
	}
}

// NewGenerator creates a generator. model names the embedding model and is
// part of every cache key, so switching models never reuses stale vectors.
func NewGenerator(embedder ai.Embedder, model string, opts ...Option) (*Generator, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	g := &Generator{
		embedder: embedder,
		model:    model,
		config:   DefaultConfig(),
		progress: io.Discard,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("component", "embed", "model", model)
	if g.config.BatchSize < 1 {
		g.config.BatchSize = 1
	}
	if g.config.PoolSize < 1 {
		g.config.PoolSize = 1
	}
	if g.config.ReportInterval < 1 {
		g.config.ReportInterval = 1
	}
	return g, nil
}

// CacheKey returns the embedding cache key of name under model.
func CacheKey(model, name string) core.ID {
	return core.IDFromContent(model + "\x00" + name)
}

// Run embeds the distinct names, in order of first appearance, and returns
// one normalized embedding per distinct name.
func (g *Generator) Run(ctx context.Context, names []string) ([]core.Embedding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names = distinct(names)
	if len(names) == 0 {
		return nil, nil
	}

	if err := g.checkPrevious(ctx); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(names))
	pending, err := g.fromCache(ctx, names, vectors)
	if err != nil {
		return nil, err
	}
	g.logger.Info("embedding names", "total", len(names), "cached", len(names)-len(pending))

	if len(pending) > 0 {
		if err := g.embedPending(ctx, names, pending, vectors); err != nil {
			return nil, err
		}
	}

	if g.checkpoints != nil {
		checkpoint := &core.Checkpoint{Stage: CheckpointStage, Model: g.model, Count: len(names)}
		if err := g.checkpoints.SaveCheckpoint(ctx, checkpoint); err != nil {
			return nil, fmt.Errorf("saving checkpoint: %w", err)
		}
	}

	embeddings := make([]core.Embedding, len(names))
	for i, name := range names {
		embeddings[i] = core.Embedding{Name: name, Vector: vectors[i]}
	}
	return embeddings, nil
}

// checkPrevious logs how the last completed run relates to this one. A run
// under another model shares no cache entries with this one.
func (g *Generator) checkPrevious(ctx context.Context) error {
	if g.checkpoints == nil {
		return nil
	}
	prev, err := g.checkpoints.CheckpointFor(ctx, CheckpointStage, g.model)
	switch {
	case errors.Is(err, storage.ErrModelMismatch):
		g.logger.Warn("embedding model changed, every name is embedded again",
			"previous_model", prev.Model, "previous_count", prev.Count)
	case err != nil:
		return fmt.Errorf("reading checkpoint: %w", err)
	case prev != nil:
		g.logger.Info("previous run found", "count", prev.Count, "at", prev.UpdatedAt)
	}
	return nil
}

// fromCache fills vectors with cached entries and returns the indices still
// missing.
func (g *Generator) fromCache(ctx context.Context, names []string, vectors [][]float32) ([]int, error) {
	pending := make([]int, 0, len(names))
	if g.cache == nil {
		for i := range names {
			pending = append(pending, i)
		}
		return pending, nil
	}

	keys := make([]core.ID, len(names))
	for i, name := range names {
		keys[i] = CacheKey(g.model, name)
	}
	cached, err := g.cache.GetEmbeddings(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("reading embedding cache: %w", err)
	}
	for i, key := range keys {
		if v, ok := cached[key]; ok && len(v) > 0 {
			vectors[i] = v
			continue
		}
		pending = append(pending, i)
	}
	return pending, nil
}

func (g *Generator) embedPending(ctx context.Context, names []string, pending []int, vectors [][]float32) error {
	pool, err := ants.NewPool(g.config.PoolSize)
	if err != nil {
		return err
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tracker := NewProgressTracker(g.progress, len(pending), g.config.ReportInterval)
	tracker.Start()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	for start := 0; start < len(pending); start += g.config.BatchSize {
		batch := pending[start:min(start+g.config.BatchSize, len(pending))]
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				fail(err)
				return
			}
			if err := g.embedBatch(ctx, names, batch, vectors); err != nil {
				fail(err)
				return
			}
			tracker.Increment(len(batch))
		})
		if submitErr != nil {
			wg.Done()
			fail(submitErr)
			break
		}
	}
	wg.Wait()

	// a cancelled parent leaves batches unembedded without reporting
	if firstErr == nil && ctx.Err() != nil {
		firstErr = ctx.Err()
	}
	if firstErr != nil {
		g.logger.Error("embedding run failed", "err", firstErr)
		return firstErr
	}
	tracker.Finish()
	g.logger.Info("embedding complete", "embedded", len(pending), "elapsed", tracker.Elapsed().Round(time.Millisecond))
	return nil
}

// embedBatch embeds names[i] for every i in batch, storing normalized
// vectors at the same indices.
func (g *Generator) embedBatch(ctx context.Context, names []string, batch []int, vectors [][]float32) error {
	texts := make([]string, len(batch))
	for j, i := range batch {
		texts[j] = names[i]
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		out, err := g.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return err
		}
		if len(out) != len(texts) {
			return Permanent(fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(texts), len(out)))
		}
		embeddings = out
		return nil
	}, g.config.MaxRetries, g.config.RetryDelay)
	if err != nil {
		return fmt.Errorf("embedding batch of %d names: %w", len(texts), err)
	}

	entries := make(map[core.ID][]float32, len(batch))
	for j, i := range batch {
		vectors[i] = index.Normalize(embeddings[j])
		entries[CacheKey(g.model, texts[j])] = vectors[i]
	}

	if g.cache != nil {
		if err := g.cache.PutEmbeddings(ctx, entries); err != nil {
			return fmt.Errorf("writing embedding cache: %w", err)
		}
	}
	return nil
}

func distinct(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
