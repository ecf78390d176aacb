package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/geofind/core"
)

// Key prefixes for different data types
const (
	cityPrefix       = "city:"
	countryPrefix    = "country:"
	adminPrefix      = "admin:"
	embeddingPrefix  = "emb:"
	cachePrefix      = "embcache:"
	checkpointPrefix = "chkpt:"
)

// makeCityKey generates a key for a city by geoname id.
// Format: prefix + 8 byte big-endian id, so iteration follows id order.
func makeCityKey(id int64) []byte {
	buf := make([]byte, len(cityPrefix)+8)
	offset := copy(buf, cityPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeCountryKey generates a key for a country by ISO code.
func makeCountryKey(iso string) []byte {
	return []byte(countryPrefix + iso)
}

// makeAdminKey generates a key for an admin division by its code.
func makeAdminKey(code string) []byte {
	return []byte(adminPrefix + code)
}

// makeEmbeddingKey generates a key for a name embedding.
// Keys embed the name itself so iteration is in name order.
func makeEmbeddingKey(name string) []byte {
	return []byte(embeddingPrefix + name)
}

// makeCacheKey generates a key for a cached vector.
func makeCacheKey(id core.ID) []byte {
	buf := make([]byte, len(cachePrefix)+8)
	offset := copy(buf, cachePrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeCheckpointKey generates a key for pipeline checkpoints.
func makeCheckpointKey(stage string) []byte {
	return []byte(fmt.Sprintf("%s%s", checkpointPrefix, stage))
}
