package geonames

import (
	"archive/zip"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/poiesic/geofind/core"
	"golang.org/x/sync/errgroup"
)

const (
	// maxLineSize bounds a single row. Alternate name lists of large cities
	// run to tens of kilobytes.
	maxLineSize = 1 << 20

	ctxCheckInterval = 10000
)

// LoadStats describes one file load.
type LoadStats struct {
	File      string
	Rows      int   // data rows read, excluding comments and blank lines
	Kept      int   // rows parsed into records
	Skipped   int   // malformed rows
	RawBytes  int64 // bytes of all data rows as read
	KeptBytes int64 // estimated in-memory bytes of the kept columns
}

// Reduction returns the percentage of memory saved by keeping only the
// used columns as typed values.
func (s LoadStats) Reduction() float64 {
	if s.RawBytes == 0 {
		return 0
	}
	return 100 * (1 - float64(s.KeptBytes)/float64(s.RawBytes))
}

// Tables holds the three GeoNames tables as loaded from disk.
type Tables struct {
	Cities         []core.City
	Countries      []core.Country
	AdminDivisions []core.AdminDivision
	Stats          []LoadStats
}

// Loader reads GeoNames dumps from a directory.
type Loader struct {
	dir           string
	citiesFile    string
	countriesFile string
	adminFile     string
	logger        *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader) error

// WithCitiesFile sets the cities file name. A ".zip" name is read through
// the archive.
func WithCitiesFile(name string) Option {
	return func(l *Loader) error {
		l.citiesFile = name
		return nil
	}
}

// WithCountriesFile sets the country info file name.
func WithCountriesFile(name string) Option {
	return func(l *Loader) error {
		l.countriesFile = name
		return nil
	}
}

// WithAdminFile sets the admin1 codes file name.
func WithAdminFile(name string) Option {
	return func(l *Loader) error {
		l.adminFile = name
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) error {
		if logger != nil {
			l.logger = logger
		}
		return nil
	}
}

// NewLoader creates a Loader reading from dir.
func NewLoader(dir string, opts ...Option) (*Loader, error) {
	l := &Loader{
		dir:           dir,
		citiesFile:    DefaultCitiesFile,
		countriesFile: DefaultCountriesFile,
		adminFile:     DefaultAdminFile,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	l.logger = l.logger.With("component", "geonames-loader")
	return l, nil
}

// LoadAll loads the three tables concurrently.
func (l *Loader) LoadAll(ctx context.Context) (*Tables, error) {
	var (
		tables                           Tables
		cityStats, countryStats, adminSt LoadStats
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tables.Cities, cityStats, err = l.LoadCities(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		tables.Countries, countryStats, err = l.LoadCountries(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		tables.AdminDivisions, adminSt, err = l.LoadAdminDivisions(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tables.Stats = []LoadStats{cityStats, countryStats, adminSt}
	return &tables, nil
}

// LoadCities reads the cities file. AdminCode holds the bare admin1 code
// until PreprocessCities qualifies it with the country code.
func (l *Loader) LoadCities(ctx context.Context) ([]core.City, LoadStats, error) {
	var cities []core.City
	stats, err := l.scan(ctx, l.citiesFile, func(line string) (int64, error) {
		fields := strings.SplitN(line, "\t", cityColumns)
		if len(fields) != cityColumns {
			return 0, fmt.Errorf("%w: %d columns", ErrMalformedRow, len(fields))
		}

		id, err := strconv.ParseInt(fields[cityColGeonameID], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: geoname id: %w", ErrMalformedRow, err)
		}
		lat, errLat := strconv.ParseFloat(fields[cityColLatitude], 64)
		lon, errLon := strconv.ParseFloat(fields[cityColLongitude], 64)
		if errLat != nil || errLon != nil || !core.IsValidCoordinate(lat, lon) {
			return 0, fmt.Errorf("%w: coordinates %q %q", ErrMalformedRow, fields[cityColLatitude], fields[cityColLongitude])
		}
		var pop int64
		if p := fields[cityColPopulation]; p != "" {
			if pop, err = strconv.ParseInt(p, 10, 64); err != nil {
				return 0, fmt.Errorf("%w: population: %w", ErrMalformedRow, err)
			}
		}

		c := core.City{
			GeonameID:      id,
			Name:           strings.TrimSpace(fields[cityColName]),
			ASCIIName:      strings.TrimSpace(fields[cityColASCIIName]),
			AlternateNames: fields[cityColAlternateNames],
			Latitude:       lat,
			Longitude:      lon,
			FeatureClass:   fields[cityColFeatureClass],
			FeatureCode:    fields[cityColFeatureCode],
			CountryCode:    fields[cityColCountryCode],
			AdminCode:      fields[cityColAdmin1],
			Population:     pop,
			Timezone:       fields[cityColTimezone],
		}
		cities = append(cities, c)
		return citySize(&c), nil
	})
	return cities, stats, err
}

// LoadCountries reads the country info file, skipping '#' comment lines.
func (l *Loader) LoadCountries(ctx context.Context) ([]core.Country, LoadStats, error) {
	var countries []core.Country
	stats, err := l.scan(ctx, l.countriesFile, func(line string) (int64, error) {
		fields := strings.SplitN(line, "\t", countryColumns)
		if len(fields) != countryColumns {
			return 0, fmt.Errorf("%w: %d columns", ErrMalformedRow, len(fields))
		}

		var area float64
		if a := fields[countryColArea]; a != "" {
			var err error
			if area, err = strconv.ParseFloat(a, 64); err != nil {
				return 0, fmt.Errorf("%w: area: %w", ErrMalformedRow, err)
			}
		}

		c := core.Country{
			ISO:          fields[countryColISO],
			ISO3:         fields[countryColISO3],
			Name:         fields[countryColName],
			Capital:      fields[countryColCapital],
			AreaSqKm:     area,
			Population:   fields[countryColPopulation],
			Continent:    fields[countryColContinent],
			TLD:          fields[countryColTLD],
			CurrencyCode: fields[countryColCurrencyCode],
			CurrencyName: fields[countryColCurrencyName],
			Phone:        fields[countryColPhone],
			Languages:    fields[countryColLanguages],
		}
		countries = append(countries, c)
		return countrySize(&c), nil
	})
	return countries, stats, err
}

// LoadAdminDivisions reads the admin1 codes file.
func (l *Loader) LoadAdminDivisions(ctx context.Context) ([]core.AdminDivision, LoadStats, error) {
	var admins []core.AdminDivision
	stats, err := l.scan(ctx, l.adminFile, func(line string) (int64, error) {
		fields := strings.SplitN(line, "\t", adminColumns)
		if len(fields) != adminColumns || fields[adminColCode] == "" {
			return 0, fmt.Errorf("%w: %d columns", ErrMalformedRow, len(fields))
		}

		a := core.AdminDivision{
			Code:      fields[adminColCode],
			Name:      fields[adminColName],
			NameASCII: fields[adminColNameASCII],
		}
		admins = append(admins, a)
		return int64(len(a.Code) + len(a.Name) + len(a.NameASCII)), nil
	})
	return admins, stats, err
}

// scan feeds every data line of name to parse. parse returns the estimated
// kept size of the row or an error wrapping ErrMalformedRow to skip it.
func (l *Loader) scan(ctx context.Context, name string, parse func(line string) (int64, error)) (LoadStats, error) {
	stats := LoadStats{File: name}

	rc, err := l.open(name)
	if err != nil {
		return stats, err
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}

		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || line[0] == '#' {
			continue
		}

		stats.Rows++
		stats.RawBytes += int64(len(line) + 1)
		size, err := parse(line)
		if err != nil {
			if !errors.Is(err, ErrMalformedRow) {
				return stats, err
			}
			stats.Skipped++
			l.logger.Debug("skipping row", "file", name, "line", lineNo, "error", err)
			continue
		}
		stats.Kept++
		stats.KeptBytes += size
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("reading %s: %w", name, err)
	}

	l.logger.Info("loaded file",
		"file", name,
		"rows", stats.Rows,
		"kept", stats.Kept,
		"skipped", stats.Skipped,
		"reduction_pct", fmt.Sprintf("%.1f", stats.Reduction()))
	return stats, nil
}

// open opens name in the loader directory. A ".zip" name, or a ".txt" name
// that is missing on disk but has a ".zip" sibling, is read from the
// archive entry of the same base name.
func (l *Loader) open(name string) (io.ReadCloser, error) {
	if name == "" {
		return nil, ErrEmptyFileName
	}
	path := filepath.Join(l.dir, name)

	if strings.HasSuffix(name, ".zip") {
		return openZipEntry(path, strings.TrimSuffix(name, ".zip")+".txt")
	}

	f, err := os.Open(path)
	if err == nil {
		return f, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		zipPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".zip"
		if _, statErr := os.Stat(zipPath); statErr == nil {
			return openZipEntry(zipPath, name)
		}
	}
	return nil, fmt.Errorf("%w: %w", ErrFileNotAccessible, err)
}

// zipEntry closes both the entry and its archive.
type zipEntry struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (z *zipEntry) Close() error {
	err := z.ReadCloser.Close()
	if cerr := z.archive.Close(); err == nil {
		err = cerr
	}
	return err
}

func openZipEntry(path, entry string) (io.ReadCloser, error) {
	rz, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileNotAccessible, err)
	}
	for _, f := range rz.File {
		if filepath.Base(f.Name) != entry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			rz.Close()
			return nil, fmt.Errorf("opening %s in %s: %w", entry, path, err)
		}
		return &zipEntry{ReadCloser: rc, archive: rz}, nil
	}
	rz.Close()
	return nil, fmt.Errorf("%w: %s has no entry %s", ErrFileNotAccessible, path, entry)
}

func citySize(c *core.City) int64 {
	return int64(len(c.Name)+len(c.ASCIIName)+len(c.AlternateNames)+
		len(c.FeatureClass)+len(c.FeatureCode)+len(c.CountryCode)+
		len(c.AdminCode)+len(c.Timezone)) + 8*4
}

func countrySize(c *core.Country) int64 {
	return int64(len(c.ISO)+len(c.ISO3)+len(c.Name)+len(c.Capital)+
		len(c.Population)+len(c.Continent)+len(c.TLD)+len(c.CurrencyCode)+
		len(c.CurrencyName)+len(c.Phone)+len(c.Languages)) + 8
}
