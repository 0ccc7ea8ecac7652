package lookout

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ahamadey27/wake-app/geo"
	"github.com/bbailey1024/geohash"
)

// GeoIndex is a geohash-ordered view of one scan's sightings, built once
// when the scan completes and immutable after that. The interleaved integer
// hash keeps vessels that are near each other near in the list, so a
// rectangle query only walks the hash span of its two corners.
type GeoIndex struct {
	entries   []geoEntry
	sightings []Sighting
}

type geoEntry struct {
	hash uint64
	idx  int
}

func NewGeoIndex(sightings []Sighting) *GeoIndex {
	entries := make([]geoEntry, 0, len(sightings))
	for i, s := range sightings {
		entries = append(entries, geoEntry{
			hash: geohash.EncodeInt(s.Pos.Lat, s.Pos.Lon),
			idx:  i,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].hash < entries[j].hash })

	return &GeoIndex{entries: entries, sightings: sightings}
}

// InBox returns the sightings inside the rectangle given by its southwest
// and northeast corners. The hash span of the corners overcovers a Z-order
// curve, so every candidate is checked against the exact bounds.
func (g *GeoIndex) InBox(sw, ne geo.Point) []Sighting {
	out := []Sighting{}
	if len(g.entries) == 0 {
		return out
	}

	lo := geohash.EncodeInt(sw.Lat, sw.Lon)
	hi := geohash.EncodeInt(ne.Lat, ne.Lon)

	begin := sort.Search(len(g.entries), func(i int) bool { return g.entries[i].hash >= lo })
	for i := begin; i < len(g.entries) && g.entries[i].hash <= hi; i++ {
		s := g.sightings[g.entries[i].idx]
		if s.Pos.Lat < sw.Lat || s.Pos.Lat > ne.Lat || s.Pos.Lon < sw.Lon || s.Pos.Lon > ne.Lon {
			continue
		}
		out = append(out, s)
	}
	return out
}

// SearchSightings returns the sightings whose name contains the query,
// case-insensitively. An all-digit query also matches MMSI prefixes.
func SearchSightings(sightings []Sighting, query string) []Sighting {
	query = strings.TrimSpace(query)
	out := []Sighting{}
	if query == "" {
		return out
	}

	upper := strings.ToUpper(query)
	for _, s := range sightings {
		if strings.Contains(strings.ToUpper(s.Name), upper) {
			out = append(out, s)
			continue
		}
		if isDigits(query) && strings.HasPrefix(strconv.Itoa(s.MMSI), query) {
			out = append(out, s)
		}
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
