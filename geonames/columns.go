package geonames

// Column positions in cities500.txt. Columns not listed (cc2, admin2-4,
// elevation, dem, modification date) are not read.
const (
	cityColGeonameID      = 0
	cityColName           = 1
	cityColASCIIName      = 2
	cityColAlternateNames = 3
	cityColLatitude       = 4
	cityColLongitude      = 5
	cityColFeatureClass   = 6
	cityColFeatureCode    = 7
	cityColCountryCode    = 8
	cityColAdmin1         = 10
	cityColPopulation     = 14
	cityColTimezone       = 17

	cityColumns = 19
)

// Column positions in countryInfo.txt. Numeric ISO, FIPS, postal code
// format and regex, geoname id, neighbours and equivalent FIPS code are
// not read.
const (
	countryColISO          = 0
	countryColISO3         = 1
	countryColName         = 4
	countryColCapital      = 5
	countryColArea         = 6
	countryColPopulation   = 7
	countryColContinent    = 8
	countryColTLD          = 9
	countryColCurrencyCode = 10
	countryColCurrencyName = 11
	countryColPhone        = 12
	countryColLanguages    = 15

	countryColumns = 19
)

// Column positions in admin1CodesASCII.txt. The trailing geoname id is
// not read.
const (
	adminColCode      = 0
	adminColName      = 1
	adminColNameASCII = 2

	adminColumns = 4
)

// Default file names as published on download.geonames.org.
const (
	DefaultCitiesFile    = "cities500.txt"
	DefaultCountriesFile = "countryInfo.txt"
	DefaultAdminFile     = "admin1CodesASCII.txt"
)
