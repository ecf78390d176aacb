package geonames

import (
	"slices"
	"strings"

	"github.com/golang/geo/s2"
	"github.com/poiesic/geofind/core"
)

// CellLevel is the S2 level of the cell token stored on each city
// (roughly 1 km cells).
const CellLevel = 13

// PreprocessCities cleans loaded cities in place and returns the rows kept
// along with the number dropped.
//
// Rules:
//   - rows missing name, country code or admin1 code are dropped
//   - AdminCode becomes "<CountryCode>.<admin1>"
//   - commas in alternate names gain a following space
//   - empty alternate names and ASCII names fall back to the name
//   - Cell is set to the S2 cell token of the location
func PreprocessCities(cities []core.City) ([]core.City, int) {
	kept := cities[:0]
	for _, c := range cities {
		if c.Name == "" || c.CountryCode == "" || c.AdminCode == "" {
			continue
		}
		if !strings.Contains(c.AdminCode, ".") {
			c.AdminCode = c.CountryCode + "." + c.AdminCode
		}
		c.AlternateNames = spaceCommas(c.AlternateNames)
		if c.AlternateNames == "" {
			c.AlternateNames = c.Name
		}
		if c.ASCIIName == "" {
			c.ASCIIName = c.Name
		}
		c.Cell = CellToken(c.Latitude, c.Longitude)
		kept = append(kept, c)
	}
	return kept, len(cities) - len(kept)
}

// PreprocessCountries cleans loaded countries in place.
//
// Commas in the language list gain a following space. Namibia's ISO code
// "NA" is restored when a reader has turned it into an empty value.
func PreprocessCountries(countries []core.Country) []core.Country {
	for i := range countries {
		c := &countries[i]
		c.Languages = spaceCommas(c.Languages)
		if c.ISO == "" && c.Name == "Namibia" {
			c.ISO = "NA"
		}
	}
	return countries
}

// ReconcileAdminDivisions returns admins extended with a placeholder entry
// for every admin code referenced by cities but absent from admins.
// Placeholders are named core.NoAdminName and appended in code order.
// Cities must already be preprocessed.
func ReconcileAdminDivisions(cities []core.City, admins []core.AdminDivision) ([]core.AdminDivision, int) {
	known := make(map[string]struct{}, len(admins))
	for _, a := range admins {
		known[a.Code] = struct{}{}
	}

	var missing []string
	for _, c := range cities {
		if _, ok := known[c.AdminCode]; ok {
			continue
		}
		known[c.AdminCode] = struct{}{}
		missing = append(missing, c.AdminCode)
	}
	slices.Sort(missing)

	for _, code := range missing {
		admins = append(admins, core.AdminDivision{
			Code:      code,
			Name:      core.NoAdminName,
			NameASCII: core.NoAdminName,
		})
	}
	return admins, len(missing)
}

// UniqueNames returns the distinct city names in sorted order.
func UniqueNames(cities []core.City) []string {
	names := make([]string, 0, len(cities))
	for _, c := range cities {
		names = append(names, c.Name)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// CellToken returns the S2 cell token at CellLevel for a location.
func CellToken(lat, lon float64) string {
	ll := s2.LatLngFromDegrees(lat, lon)
	return s2.CellIDFromLatLng(ll).Parent(CellLevel).ToToken()
}

func spaceCommas(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}
	return strings.Join(core.SplitNames(s), ", ")
}
