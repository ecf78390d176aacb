package geonames

import "errors"

var (
	// ErrEmptyFileName indicates a dataset file name was not configured.
	ErrEmptyFileName = errors.New("file name cannot be empty")

	// ErrFileNotAccessible indicates a dataset file could not be opened.
	ErrFileNotAccessible = errors.New("file not accessible")

	// ErrMalformedRow indicates a row with the wrong column count or
	// unparsable fields. Such rows are skipped.
	ErrMalformedRow = errors.New("malformed row")

	// ErrUnknownDataset indicates a dataset name Downloader does not know.
	ErrUnknownDataset = errors.New("unknown dataset")

	// ErrDownloadFailed indicates a dataset could not be fetched.
	ErrDownloadFailed = errors.New("download failed")
)
