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


package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/poiesic/geofind"
	"github.com/poiesic/geofind/config"
	"github.com/poiesic/geofind/core"
	"github.com/poiesic/geofind/export"
	"github.com/poiesic/geofind/search"
	"github.com/poiesic/geofind/server"
	"github.com/urfave/cli/v2"
)

var errMissingQuery = errors.New("a city name is required")

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "geofind",
		Usage: "Fuzzy city search over GeoNames data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "database-url",
				Usage: "Catalog database URL (overrides database settings in the config)",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "download",
				Usage:  "Download the GeoNames dumps into the source directory",
				Action: downloadCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Download files that already exist",
					},
				},
			},
			{
				Name:   "make-datasets",
				Usage:  "Clean the dumps, embed city names and store the datasets",
				Action: makeDatasetsCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of names sent to the embedding service per call",
					},
				},
			},
			{
				Name:   "create-database",
				Usage:  "Create the catalog database",
				Action: createDatabaseCommand,
			},
			{
				Name:   "fill-database",
				Usage:  "Create the catalog schema and load the stored datasets into it",
				Action: fillDatabaseCommand,
			},
			{
				Name:      "search",
				Usage:     "Look up a city by name",
				ArgsUsage: "<city>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of matches to return (defaults to search.top_k)",
					},
					&cli.BoolFlag{
						Name:    "advanced",
						Aliases: []string{"a"},
						Usage:   "Match alternate names and transliterations",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print matches as JSON and save them to the output directory",
					},
					&cli.StringFlag{
						Name:  "xlsx",
						Usage: "Write matches to this spreadsheet file",
					},
				},
			},
			{
				Name:   "nearest",
				Usage:  "List the cities closest to a location",
				Action: nearestCommand,
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:     "lat",
						Usage:    "Latitude in degrees",
						Required: true,
					},
					&cli.Float64Flag{
						Name:     "lon",
						Usage:    "Longitude in degrees",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "k",
						Usage: "Number of cities to return",
						Value: 5,
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the web front-end",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (defaults to server.addr)",
					},
				},
			},
		},
	}
}

// loadConfig reads the config file and applies the global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("database-url") {
		cfg.Database.URL = c.String("database-url")
	}
	if c.IsSet("embedding-host") {
		cfg.AI.EmbeddingHost = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.AI.EmbeddingModel = c.String("embedding-model")
	}
	if c.IsSet("batch-size") {
		cfg.AI.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openGeofind(c *cli.Context) (*geofind.Geofind, *config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	g, err := geofind.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open geofind: %w", err)
	}
	return g, cfg, nil
}

func downloadCommand(c *cli.Context) error {
	g, _, err := openGeofind(c)
	if err != nil {
		return err
	}
	defer g.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return g.Download(ctx, c.Bool("force"))
}

func makeDatasetsCommand(c *cli.Context) error {
	g, cfg, err := openGeofind(c)
	if err != nil {
		return err
	}
	defer g.Close()

	fmt.Fprintf(os.Stderr, "Source: %s\n", cfg.Paths.Source)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	stats, err := g.BuildDatasets(ctx)
	if err != nil {
		return fmt.Errorf("building datasets failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "cities: %d\ncountries: %d\nadmin divisions: %d\nembeddings: %d\n",
		stats.Cities, stats.Countries, stats.AdminDivisions, stats.Embeddings)
	return nil
}

func createDatabaseCommand(c *cli.Context) error {
	g, cfg, err := openGeofind(c)
	if err != nil {
		return err
	}
	defer g.Close()

	if err := g.CreateDatabase(c.Context); err != nil {
		return fmt.Errorf("creating database failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "database %q is ready\n", cfg.DatabaseName())
	return nil
}

func fillDatabaseCommand(c *cli.Context) error {
	g, _, err := openGeofind(c)
	if err != nil {
		return err
	}
	defer g.Close()

	counts, err := g.FillDatabase(c.Context)
	if err != nil {
		return fmt.Errorf("filling database failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "city: %d\ncountry: %d\nadmincode: %d\nembeddings: %d\n",
		counts.Cities, counts.Countries, counts.AdminDivisions, counts.Embeddings)
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errMissingQuery
	}

	g, cfg, err := openGeofind(c)
	if err != nil {
		return err
	}
	defer g.Close()

	finder, err := g.NewFinder(c.Context)
	if err != nil {
		return err
	}

	topK := cfg.Search.TopK
	if c.IsSet("top-k") {
		topK = min(c.Int("top-k"), cfg.Search.MaxTopK)
	}
	res, err := finder.Find(c.Context, search.Query{
		Text:               query,
		TopK:               topK,
		AdvancedSpellCheck: c.Bool("advanced"),
		SaveJSON:           c.Bool("json"),
	})
	if err != nil {
		return err
	}

	if path := c.String("xlsx"); path != "" {
		if err := writeXLSXFile(path, res.Matches); err != nil {
			return err
		}
	}
	if c.Bool("json") {
		return export.WriteJSON(c.App.Writer, res.Matches)
	}
	printResolution(c.App.Writer, res)
	return nil
}

func nearestCommand(c *cli.Context) error {
	g, _, err := openGeofind(c)
	if err != nil {
		return err
	}
	defer g.Close()

	finder, err := g.NewFinder(c.Context)
	if err != nil {
		return err
	}
	matches, err := finder.Nearest(c.Float64("lat"), c.Float64("lon"), c.Int("k"))
	if err != nil {
		return err
	}
	for i, m := range matches {
		fmt.Fprintf(c.App.Writer, "%d: %s, %s, %s [%.1f km]\n", i+1, m.Name, m.Region, m.Country, m.DistanceKm)
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	g, cfg, err := openGeofind(c)
	if err != nil {
		return err
	}
	defer g.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	finder, err := g.NewFinder(ctx)
	if err != nil {
		return err
	}
	srv := server.New(finder, server.WithTopK(cfg.Search.TopK, cfg.Search.MaxTopK))
	return srv.Run(ctx, cfg.Server.Addr)
}

func printResolution(w io.Writer, res *core.Resolution) {
	if res.Corrected != res.Query {
		fmt.Fprintf(w, "Searched for %q instead of %q\n", res.Corrected, res.Query)
	}
	fmt.Fprintf(w, "Found %d matches\n", len(res.Matches))
	for i, m := range res.Matches {
		fmt.Fprintf(w, "%d: %s, %s, %s (%d)[%0.3f]\n", i+1, m.Name, m.Region, m.Country, m.GeonameID, m.Score)
	}
}

func writeXLSXFile(path string, matches []core.Match) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteXLSX(f, matches); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
