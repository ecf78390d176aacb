// Package export writes lookup results as JSON or XLSX.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/geofind/core"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Cities"

// ErrEmptyDir is returned by SaveJSON when no directory is given.
var ErrEmptyDir = errors.New("output directory required")

var header = []any{
	"geoname_id", "name", "oblast", "country", "capital", "currency_name",
	"timezone", "latitude", "longitude", "cos_sim_score", "distance_km",
}

// WriteJSON writes matches as an indented JSON list.
func WriteJSON(w io.Writer, matches []core.Match) error {
	if matches == nil {
		matches = []core.Match{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(matches)
}

// SaveJSON writes matches to <dir>/<name>.json and returns the file path.
// name is reduced to a safe file name first.
func SaveJSON(dir, name string, matches []core.Match) (string, error) {
	if dir == "" {
		return "", ErrEmptyDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, FileName(name)+".json")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := WriteJSON(f, matches); err != nil {
		f.Close()
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, f.Close()
}

// maxFileNameBytes leaves room for an extension under the common 255 byte
// file name limit.
const maxFileNameBytes = 200

// FileName replaces characters that are unsafe in file names with "_" and
// cuts the result to maxFileNameBytes on a rune boundary.
// An empty or dot-only name becomes "result".
func FileName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if len(cleaned) > maxFileNameBytes {
		cut := 0
		for i, r := range cleaned {
			if i+utf8.RuneLen(r) > maxFileNameBytes {
				break
			}
			cut = i + utf8.RuneLen(r)
		}
		cleaned = cleaned[:cut]
	}
	if strings.Trim(cleaned, ".") == "" {
		return "result"
	}
	return cleaned
}

// WriteXLSX writes matches as a single worksheet workbook with a header row.
func WriteXLSX(w io.Writer, matches []core.Match) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}

	for i, m := range matches {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			m.GeonameID, m.Name, m.Region, m.Country, m.Capital, m.CurrencyName,
			m.Timezone, m.Latitude, m.Longitude, m.Score, m.DistanceKm,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	return f.Write(w)
}
