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
	"encoding/json"
	"log/slog"

	"github.com/poiesic/geofind/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const maxParseAttempts = 3

// Corrector implements ai.Corrector using OpenAI-compatible chat APIs.
type Corrector struct {
	client        llms.Model
	minConfidence int
	logger        *slog.Logger
}

// correction is the JSON object the model is asked to return.
type correction struct {
	City       string `json:"city"`
	Confidence int    `json:"confidence"`
}

// newCorrector is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newCorrector(config *ai.Config) (*Corrector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ClassifierHost),
		openai.WithToken(config.Token),
		openai.WithModel(config.ClassifierModel),
	)
	if err != nil {
		return nil, err
	}

	return newCorrectorWithModel(client, config.MinConfidence), nil
}

func newCorrectorWithModel(model llms.Model, minConfidence int) *Corrector {
	return &Corrector{
		client:        model,
		minConfidence: minConfidence,
		logger:        slog.Default().With("component", "openai-corrector"),
	}
}

// NewCorrector creates a new query corrector using the provided configuration.
//
// Returns ai.Corrector interface to enforce abstraction.
func NewCorrector(config *ai.Config) (ai.Corrector, error) {
	return newCorrector(config)
}

// Correct asks the model which city the query refers to. Answers below the
// configured confidence, or outside candidates when candidates are given,
// are reported as no correction.
func (c *Corrector) Correct(ctx context.Context, query string, candidates []string) (ai.Correction, error) {
	query = scrubQuery(query)
	if query == "" {
		return ai.Correction{}, nil
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(buildSystemPrompt(candidates))},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(query)},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result correction
	var lastErr error
	for attempt := 0; attempt < maxParseAttempts; attempt++ {
		response, err := c.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			c.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return ai.Correction{}, err
		}

		if len(response.Choices) < 1 {
			c.logger.Debug("no choices returned from model")
			return ai.Correction{}, nil
		}

		responseText := cleanResponse(response.Choices[0].Content)
		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			c.logger.Warn("error parsing corrector response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		c.logger.Error("failed to parse corrector response after retries", "err", lastErr)
		return ai.Correction{}, lastErr
	}

	fix := ai.Correction{City: scrubQuery(result.City), Confidence: result.Confidence}
	if fix.Confidence < c.minConfidence {
		c.logger.Debug("discarding low confidence correction", "query", query, "city", fix.City, "confidence", fix.Confidence)
		return ai.Correction{}, nil
	}
	if len(candidates) > 0 {
		canonical, ok := matchFold(candidates, fix.City)
		if !ok {
			c.logger.Debug("discarding correction outside candidates", "query", query, "city", fix.City)
			return ai.Correction{}, nil
		}
		fix.City = canonical
	}

	c.logger.Debug("corrected query", "query", query, "city", fix.City, "confidence", fix.Confidence)
	return fix, nil
}
