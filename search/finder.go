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


package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang/geo/s2"
	"github.com/google/uuid"
	"github.com/poiesic/geofind/ai"
	"github.com/poiesic/geofind/core"
	"github.com/poiesic/geofind/export"
	"github.com/poiesic/geofind/index"
	"github.com/poiesic/geofind/storage"
)

// maxCorrectorCandidates bounds the known names offered to the corrector.
const maxCorrectorCandidates = 20

// Speller corrects spelling mistakes in a text.
type Speller interface {
	Correct(ctx context.Context, text string) (string, error)
}

// Query is a single lookup request.
type Query struct {
	// Text is the free-text city name.
	Text string
	// TopK is the number of matches to return, at least 1.
	TopK int
	// AdvancedSpellCheck enables alternate-name and transliteration matching.
	AdvancedSpellCheck bool
	// SaveJSON writes the matches to the output directory.
	SaveJSON bool
}

// Finder resolves city queries against a fixed set of city records.
// A Finder is safe for concurrent use once built.
type Finder struct {
	records   []core.CityRecord
	points    []s2.LatLng
	index     *index.Index
	names     *nameTable
	embedder  ai.Embedder
	speller   Speller
	corrector ai.Corrector
	monitor   SearchMonitor
	outputDir string
	logger    *slog.Logger
}

// Option configures a Finder.
type Option func(*Finder)

// WithSpeller enables the spell-check stage.
func WithSpeller(speller Speller) Option {
	return func(f *Finder) {
		f.speller = speller
	}
}

// WithCorrector enables the model-based correction stage. It only runs for
// advanced queries that alternate names could not resolve.
func WithCorrector(corrector ai.Corrector) Option {
	return func(f *Finder) {
		f.corrector = corrector
	}
}

// WithMonitor observes every query.
func WithMonitor(monitor SearchMonitor) Option {
	return func(f *Finder) {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		f.monitor = monitor
	}
}

// WithOutputDir sets the directory SaveJSON queries write to.
func WithOutputDir(dir string) Option {
	return func(f *Finder) {
		f.outputDir = dir
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(f *Finder) {
		if logger == nil {
			logger = slog.Default()
		}
		f.logger = logger
	}
}

// NewFinder builds a finder over records. Every record must carry a name
// vector, all of the same dimension.
func NewFinder(records []core.CityRecord, embedder ai.Embedder, opts ...Option) (*Finder, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if len(records) == 0 {
		return nil, ErrIndexEmpty
	}

	f := &Finder{
		records:  records,
		points:   make([]s2.LatLng, len(records)),
		index:    index.New(),
		names:    newNameTable(records),
		embedder: embedder,
		monitor:  &noopMonitor{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("component", "finder")

	for i := range records {
		if _, err := f.index.Add(records[i].Vector); err != nil {
			return nil, fmt.Errorf("city %d (%s): %w", records[i].GeonameID, records[i].Name, err)
		}
		f.points[i] = s2.LatLngFromDegrees(records[i].Latitude, records[i].Longitude)
	}

	f.logger.Info("finder ready", "records", len(records), "names", len(f.names.names), "dim", f.index.Dim())
	return f, nil
}

// Load reads the records matching filter from catalog and builds a finder.
func Load(ctx context.Context, catalog storage.CatalogRepository, filter storage.CityFilter, embedder ai.Embedder, opts ...Option) (*Finder, error) {
	if catalog == nil {
		return nil, ErrRepositoryRequired
	}
	records, err := catalog.CityRecords(ctx, filter)
	if err != nil {
		return nil, err
	}
	return NewFinder(records, embedder, opts...)
}

// Len returns the number of searchable records.
func (f *Finder) Len() int {
	return len(f.records)
}

// Names returns the distinct city names, sorted.
func (f *Finder) Names() []string {
	return f.names.names
}

// Find resolves q to at most q.TopK matches ordered by descending cosine
// similarity.
func (f *Finder) Find(ctx context.Context, q Query) (*core.Resolution, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, ErrEmptyQuery
	}
	if q.TopK < 1 {
		return nil, ErrInvalidTopK
	}

	f.monitor.Start(text)
	res := &core.Resolution{
		ID:     uuid.NewString(),
		Query:  text,
		Stages: []core.Stage{},
	}
	res.Corrected = f.correct(ctx, text, q.AdvancedSpellCheck, res)

	vector, err := f.embedder.EmbedText(ctx, res.Corrected)
	if err != nil {
		f.logger.Error("error generating embedding for query", "query", res.Corrected, "err", err)
		return nil, fmt.Errorf("embedding %q: %w", res.Corrected, err)
	}
	f.monitor.AfterEmbedding(res.Corrected, len(vector))

	hits, err := f.index.Search(vector, q.TopK)
	if err != nil {
		return nil, err
	}

	res.Matches = make([]core.Match, len(hits))
	for i, hit := range hits {
		res.Matches[i] = core.MatchFromRecord(&f.records[hit.Pos], hit.Score)
	}

	if q.SaveJSON {
		path, err := export.SaveJSON(f.outputDir, res.Corrected, res.Matches)
		if err != nil {
			return nil, fmt.Errorf("saving matches: %w", err)
		}
		f.logger.Debug("saved matches", "path", path)
	}

	f.logger.Info("resolved query", "id", res.ID, "query", text, "corrected", res.Corrected, "stages", res.Stages, "matches", len(res.Matches))
	f.monitor.Finish(res)
	return res, nil
}

// correct runs the correction chain and returns the text to embed.
func (f *Finder) correct(ctx context.Context, text string, advanced bool, res *core.Resolution) string {
	if name, ok := f.names.lookup(text); ok {
		f.monitor.DirectHit(name)
		res.Stages = append(res.Stages, core.StageDirect)
		return name
	}

	if f.speller != nil {
		fixed, err := f.speller.Correct(ctx, text)
		switch {
		case err != nil:
			f.logger.Warn("spell-check failed, keeping query", "query", text, "err", err)
		case fixed != "" && fixed != text:
			f.monitor.AfterSpellCheck(text, fixed)
			res.Stages = append(res.Stages, core.StageSpellCheck)
			text = fixed
		default:
			f.monitor.AfterSpellCheck(text, text)
		}
		if name, ok := f.names.lookup(text); ok {
			return name
		}
	}

	if !advanced {
		return text
	}

	candidates, chosen := f.names.resolve(text)
	f.monitor.AfterAdvanced(candidates, chosen)
	if len(candidates) > 0 {
		res.Stages = append(res.Stages, core.StageAdvanced)
		return chosen
	}

	if f.corrector != nil {
		fix, err := f.corrector.Correct(ctx, text, f.names.nearest(text, maxCorrectorCandidates))
		switch {
		case err != nil:
			f.logger.Warn("query correction failed, keeping query", "query", text, "err", err)
		case !fix.IsZero():
			f.monitor.AfterCorrection(fix)
			res.Stages = append(res.Stages, core.StageLLM)
			if name, ok := f.names.lookup(fix.City); ok {
				return name
			}
			return fix.City
		}
	}

	if chosen != text {
		res.Stages = append(res.Stages, core.StageAdvanced)
	}
	return chosen
}
