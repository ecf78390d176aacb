package sql

import (
	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/geofind/core"
)

// embeddingRow is a row of the embeddings table.
type embeddingRow struct {
	Key        string          `gorm:"column:name;primaryKey"`
	Embeddings pgvector.Vector `gorm:"column:embeddings;type:vector"`
}

func (embeddingRow) TableName() string { return "embeddings" }

// countryRow is a row of the country table.
type countryRow struct {
	ISO          string  `gorm:"column:iso;primaryKey"`
	ISO3         string  `gorm:"column:iso_3"`
	Country      string  `gorm:"column:country;index"`
	Capital      string  `gorm:"column:capital"`
	AreaSqKm     float64 `gorm:"column:area_in_sq_km"`
	Population   string  `gorm:"column:population"`
	Continent    string  `gorm:"column:continent"`
	TLD          string  `gorm:"column:tld"`
	CurrencyCode string  `gorm:"column:currency_code"`
	CurrencyName string  `gorm:"column:currency_name"`
	Phone        string  `gorm:"column:phone"`
	Languages    string  `gorm:"column:languages"`
}

func (countryRow) TableName() string { return "country" }

// adminRow is a row of the admincode table.
type adminRow struct {
	Code      string `gorm:"column:admin_code;primaryKey"`
	Name      string `gorm:"column:name"`
	NameASCII string `gorm:"column:name_ascii"`
}

func (adminRow) TableName() string { return "admincode" }

// cityRow is a row of the city table. Its name, country and admin code
// reference the other three tables.
type cityRow struct {
	GeonameID      int64   `gorm:"column:city_geoname_id;primaryKey;autoIncrement:false"`
	Name           string  `gorm:"column:name;index"`
	ASCIIName      string  `gorm:"column:asciiname"`
	AlternateNames string  `gorm:"column:alternatenames"`
	Latitude       float64 `gorm:"column:latitude"`
	Longitude      float64 `gorm:"column:longitude"`
	FeatureClass   string  `gorm:"column:feature_class"`
	FeatureCode    string  `gorm:"column:feature_code"`
	CountryCodeISO string  `gorm:"column:country_code_iso"`
	AdminCode      string  `gorm:"column:admin_code"`
	Population     int64   `gorm:"column:population;index"`
	Timezone       string  `gorm:"column:timezone"`
	Cell           string  `gorm:"column:cell"`

	Embedding embeddingRow `gorm:"foreignKey:Name;references:Key;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Country   countryRow   `gorm:"foreignKey:CountryCodeISO;references:ISO;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Admin     adminRow     `gorm:"foreignKey:AdminCode;references:Code;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (cityRow) TableName() string { return "city" }

// cityRecordRow receives the joined lookup query.
type cityRecordRow struct {
	GeonameID      int64           `gorm:"column:geoname_id"`
	Name           string          `gorm:"column:name"`
	AlternateNames string          `gorm:"column:alternatenames"`
	Oblast         string          `gorm:"column:oblast"`
	Country        string          `gorm:"column:country"`
	Capital        string          `gorm:"column:capital"`
	CurrencyName   string          `gorm:"column:currency_name"`
	Timezone       string          `gorm:"column:timezone"`
	Latitude       float64         `gorm:"column:latitude"`
	Longitude      float64         `gorm:"column:longitude"`
	Population     int64           `gorm:"column:population"`
	Embeddings     pgvector.Vector `gorm:"column:embeddings"`
}

func (r *cityRecordRow) record() core.CityRecord {
	return core.CityRecord{
		GeonameID:      r.GeonameID,
		Name:           r.Name,
		AlternateNames: r.AlternateNames,
		Region:         r.Oblast,
		Country:        r.Country,
		Capital:        r.Capital,
		CurrencyName:   r.CurrencyName,
		Timezone:       r.Timezone,
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		Population:     r.Population,
		Vector:         r.Embeddings.Slice(),
	}
}

func fromCity(c *core.City) cityRow {
	return cityRow{
		GeonameID:      c.GeonameID,
		Name:           c.Name,
		ASCIIName:      c.ASCIIName,
		AlternateNames: c.AlternateNames,
		Latitude:       c.Latitude,
		Longitude:      c.Longitude,
		FeatureClass:   c.FeatureClass,
		FeatureCode:    c.FeatureCode,
		CountryCodeISO: c.CountryCode,
		AdminCode:      c.AdminCode,
		Population:     c.Population,
		Timezone:       c.Timezone,
		Cell:           c.Cell,
	}
}

func fromCountry(c *core.Country) countryRow {
	return countryRow{
		ISO:          c.ISO,
		ISO3:         c.ISO3,
		Country:      c.Name,
		Capital:      c.Capital,
		AreaSqKm:     c.AreaSqKm,
		Population:   c.Population,
		Continent:    c.Continent,
		TLD:          c.TLD,
		CurrencyCode: c.CurrencyCode,
		CurrencyName: c.CurrencyName,
		Phone:        c.Phone,
		Languages:    c.Languages,
	}
}
