package models

import (
	"fmt"
	"strconv"
	"strings"
)

type LatLon struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocationLink renders coordinates in the "location:lat,lon" form used by the
// order's map_link field.
func LocationLink(lat, lon float64) string {
	return fmt.Sprintf("location:%v,%v", lat, lon)
}

// ParseLocationLink extracts coordinates from a "location:lat,lon" string.
// Free-form text and plain URLs are not coordinates and return false.
func ParseLocationLink(s string) (LatLon, bool) {
	if !strings.HasPrefix(s, "location:") {
		return LatLon{}, false
	}
	raw := strings.ReplaceAll(strings.TrimPrefix(s, "location:"), " ", "")
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return LatLon{}, false
	}
	lat, err1 := strconv.ParseFloat(parts[0], 64)
	lon, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil {
		return LatLon{}, false
	}
	return LatLon{Latitude: lat, Longitude: lon}, true
}
