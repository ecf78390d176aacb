package geonames

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DefaultBaseURL is the GeoNames export directory.
const DefaultBaseURL = "https://download.geonames.org/export/dump/"

// Datasets lists the files Downloader fetches by default.
var Datasets = []string{"cities500.zip", DefaultCountriesFile, DefaultAdminFile}

// Downloader fetches GeoNames dumps into a local directory.
type Downloader struct {
	dir     string
	baseURL string
	client  *http.Client
	force   bool
	logger  *slog.Logger
}

// DownloadOption configures a Downloader.
type DownloadOption func(*Downloader)

// WithBaseURL overrides the export URL.
func WithBaseURL(url string) DownloadOption {
	return func(d *Downloader) {
		d.baseURL = url
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) DownloadOption {
	return func(d *Downloader) {
		d.client = client
	}
}

// WithForce re-downloads files that already exist.
func WithForce(force bool) DownloadOption {
	return func(d *Downloader) {
		d.force = force
	}
}

// WithDownloadLogger sets the logger.
func WithDownloadLogger(logger *slog.Logger) DownloadOption {
	return func(d *Downloader) {
		d.logger = logger
	}
}

// NewDownloader creates a Downloader writing into dir.
func NewDownloader(dir string, opts ...DownloadOption) *Downloader {
	d := &Downloader{
		dir:     dir,
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Minute},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "geonames-downloader")
	return d
}

// Download fetches the named files, or Datasets when none are given.
// Existing files are skipped unless the downloader was built WithForce.
func (d *Downloader) Download(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		names = Datasets
	}
	for _, name := range names {
		if !isKnownDataset(name) {
			return fmt.Errorf("%w: %s", ErrUnknownDataset, name)
		}
	}

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	for _, name := range names {
		path := filepath.Join(d.dir, name)
		if !d.force {
			if _, err := os.Stat(path); err == nil {
				d.logger.Info("file exists, skipping", "file", name)
				continue
			}
		}
		start := time.Now()
		n, err := d.fetch(ctx, d.baseURL+name, path)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrDownloadFailed, name, err)
		}
		d.logger.Info("downloaded", "file", name, "bytes", n, "elapsed", time.Since(start).Round(time.Millisecond))
	}
	return nil
}

// fetch streams url into path through a temporary file so a failed
// transfer never leaves a partial dataset behind.
func (d *Downloader) fetch(ctx context.Context, url, path string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.part")
	if err != nil {
		return 0, err
	}
	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		return n, err
	}
	if err := tmp.Close(); err != nil {
		return n, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return n, err
	}
	success = true
	return n, nil
}

func isKnownDataset(name string) bool {
	switch name {
	case "cities500.zip", "cities1000.zip", "cities5000.zip", "cities15000.zip",
		"allCountries.zip", DefaultCountriesFile, DefaultAdminFile:
		return true
	}
	return false
}
