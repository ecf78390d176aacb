// Package geonames reads and cleans the GeoNames text dumps.
//
// Three files are used, all tab separated without a header row:
//
//   - cities500.txt (or cities500.zip): populated places, 19 columns
//   - countryInfo.txt: country metadata, 19 columns, '#' comment lines
//   - admin1CodesASCII.txt: first-level administrative divisions, 4 columns
//
// Rows are parsed directly into the typed core structs, keeping only the
// columns the lookup service needs. Malformed rows are skipped and counted
// in LoadStats rather than failing the load.
//
// After loading, PreprocessCities and PreprocessCountries normalize the
// tables and ReconcileAdminDivisions fills admin codes that cities reference
// but the admin file lacks.
package geonames
