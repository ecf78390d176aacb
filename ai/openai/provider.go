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


package openai

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/poiesic/geofind/ai"
)

// Provider implements ai.AIProvider on OpenAI-compatible endpoints. The
// embedder is built up front; the corrector only when first asked for, since
// dataset builds never consult it.
type Provider struct {
	config   *ai.Config
	embedder *Embedder
	logger   *slog.Logger

	correctorOnce sync.Once
	corrector     ai.Corrector
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is normalized and validated before use.
//
// Returns ai.AIProvider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	config.Normalize()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, fmt.Errorf("embedding client: %w", err)
	}

	return &Provider{
		config:   config,
		embedder: embedder,
		logger:   slog.Default().With("component", "openai-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Corrector returns the query correction service. If the classifier client
// cannot be built, the returned corrector reports that error on every call.
func (p *Provider) Corrector() ai.Corrector {
	p.correctorOnce.Do(func() {
		corrector, err := newCorrector(p.config)
		if err != nil {
			p.logger.Error("classifier client unavailable", "host", p.config.ClassifierHost, "err", err)
			p.corrector = unavailableCorrector{err: fmt.Errorf("classifier client: %w", err)}
			return
		}
		p.corrector = corrector
	})
	return p.corrector
}

// Close releases resources held by the provider. The HTTP clients hold no
// connections of their own, so there is nothing to release yet.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}

type unavailableCorrector struct {
	err error
}

func (c unavailableCorrector) Correct(context.Context, string, []string) (ai.Correction, error) {
	return ai.Correction{}, c.err
}
