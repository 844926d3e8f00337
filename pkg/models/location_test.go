package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courierbot/pkg/models"
)

func TestParseLocationLink(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLat float64
		wantLon float64
		wantOK  bool
	}{
		{
			name:    "structured link",
			input:   "location:11.55,104.92",
			wantLat: 11.55, wantLon: 104.92, wantOK: true,
		},
		{
			name:    "spaces after comma",
			input:   "location:11.55, 104.92",
			wantLat: 11.55, wantLon: 104.92, wantOK: true,
		},
		{
			name:   "plain url is not coordinates",
			input:  "https://maps.google.com/?q=11.55,104.92",
			wantOK: false,
		},
		{
			name:   "free text",
			input:  "behind the big market, blue gate",
			wantOK: false,
		},
		{
			name:   "garbage after prefix",
			input:  "location:north,west",
			wantOK: false,
		},
		{
			name:   "missing longitude",
			input:  "location:11.55",
			wantOK: false,
		},
		{
			name:   "empty",
			input:  "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ll, ok := models.ParseLocationLink(tt.input)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantLat, ll.Latitude)
				assert.Equal(t, tt.wantLon, ll.Longitude)
			}
		})
	}
}

func TestLocationLinkRoundTrip(t *testing.T) {
	link := models.LocationLink(11.5564, 104.9282)
	ll, ok := models.ParseLocationLink(link)
	require.True(t, ok)
	assert.Equal(t, 11.5564, ll.Latitude)
	assert.Equal(t, 104.9282, ll.Longitude)
}
