package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courierbot/pkg/geo"
)

func TestHaversineMeters(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tolerance              float64
	}{
		{
			name: "zero distance",
			lat1: 11.5500, lon1: 104.9200,
			lat2: 11.5500, lon2: 104.9200,
			want: 0, tolerance: 0.001,
		},
		{
			name: "short hop in the city",
			lat1: 11.5500, lon1: 104.9200,
			lat2: 11.5504, lon2: 104.9204,
			want: 62, tolerance: 5,
		},
		{
			name: "across the river",
			lat1: 11.5564, lon1: 104.9282,
			lat2: 11.5449, lon2: 104.9430,
			want: 2050, tolerance: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := geo.HaversineMeters(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.want, got, tt.tolerance)
		})
	}
}

func TestWithinArrivalRadius(t *testing.T) {
	// ~15m apart, inside the radius
	assert.True(t, geo.WithinArrivalRadius(11.5500, 104.9200, 11.5501, 104.9201))
	// ~62m apart, outside
	assert.False(t, geo.WithinArrivalRadius(11.5500, 104.9200, 11.5504, 104.9204))
}

func TestETASeconds(t *testing.T) {
	eta, ok := geo.ETASeconds(1000, 30)
	require.True(t, ok)
	// 30 km/h covers 1 km in 120 seconds
	assert.Equal(t, 120, eta)

	_, ok = geo.ETASeconds(1000, 0)
	assert.False(t, ok)

	_, ok = geo.ETASeconds(1000, -5)
	assert.False(t, ok)
}
