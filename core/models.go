package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// NoAdminName is the placeholder name given to admin divisions that cities
// reference but the admin codes file does not define.
const NoAdminName = "No admin"

// City is a populated place from the GeoNames cities dump after preprocessing.
type City struct {
	GeonameID      int64
	Name           string
	ASCIIName      string
	AlternateNames string // ", "-joined list of alternate spellings
	Latitude       float64
	Longitude      float64
	FeatureClass   string
	FeatureCode    string
	CountryCode    string // ISO 3166-1 alpha-2
	AdminCode      string // "<CountryCode>.<admin1>"
	Population     int64
	Timezone       string
	Cell           string // S2 cell token of the location
}

// AlternateNameList splits AlternateNames into trimmed, non-empty names.
func (c *City) AlternateNameList() []string {
	return SplitNames(c.AlternateNames)
}

// Country is a row of the GeoNames country info table.
type Country struct {
	ISO          string
	ISO3         string
	Name         string
	Capital      string
	AreaSqKm     float64
	Population   string
	Continent    string
	TLD          string
	CurrencyCode string
	CurrencyName string
	Phone        string
	Languages    string
}

// AdminDivision is a first-level administrative subdivision of a country.
type AdminDivision struct {
	Code      string
	Name      string
	NameASCII string
}

// Embedding associates a distinct city name with its embedding vector.
type Embedding struct {
	Name   string
	Vector []float32
}

// CityRecord is a city joined with its country, admin division and name embedding.
// It is the unit the finder searches over.
type CityRecord struct {
	GeonameID      int64
	Name           string
	AlternateNames string
	Region         string
	Country        string
	Capital        string
	CurrencyName   string
	Timezone       string
	Latitude       float64
	Longitude      float64
	Population     int64
	Vector         []float32
}

// Match is a city record returned from a lookup along with its relevance.
type Match struct {
	GeonameID    int64   `json:"geoname_id"`
	Name         string  `json:"name"`
	Region       string  `json:"oblast"`
	Country      string  `json:"country"`
	Capital      string  `json:"capital"`
	CurrencyName string  `json:"currency_name"`
	Timezone     string  `json:"timezone"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Score        float32 `json:"cos_sim_score"`
	DistanceKm   float64 `json:"distance_km,omitempty"`
}

// MatchFromRecord builds a Match from a record and a score.
func MatchFromRecord(r *CityRecord, score float32) Match {
	return Match{
		GeonameID:    r.GeonameID,
		Name:         r.Name,
		Region:       r.Region,
		Country:      r.Country,
		Capital:      r.Capital,
		CurrencyName: r.CurrencyName,
		Timezone:     r.Timezone,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		Score:        score,
	}
}

// Stage identifies a step of query resolution that changed or confirmed the query.
type Stage string

const (
	StageDirect     Stage = "direct"
	StageSpellCheck Stage = "spellcheck"
	StageAdvanced   Stage = "advanced"
	StageLLM        Stage = "llm"
)

// Resolution is the outcome of resolving one free-text query.
type Resolution struct {
	ID        string  `json:"id"`
	Query     string  `json:"query"`
	Corrected string  `json:"corrected"`
	Stages    []Stage `json:"stages"`
	Matches   []Match `json:"matches"`
}

// Checkpoint records progress of a long-running pipeline stage.
type Checkpoint struct {
	Stage     string
	Model     string
	Count     int
	UpdatedAt time.Time
}

// SplitNames splits a comma separated name list, trimming blanks and
// dropping empty entries.
func SplitNames(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
